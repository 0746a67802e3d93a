// Package examples provides sample plugin devices built with the
// factories.
//
// Each sample stages a device and its features, registers them with a
// controller and then keeps the live entities in sync as the hardware
// reports values or a user operates a control:
//   - Dimmer: a light with Off/On buttons and a 1-99% slider
//   - Thermostat: temperature reading, heat set point and mode selection
//   - EnergyMeter: power and energy readings logged to pkg/energy
//
// The samples remember the refs they were given in a persistence.PluginState
// so a restarted plugin reattaches instead of creating duplicates.
package examples
