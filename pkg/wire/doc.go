// Package wire defines the CBOR wire format spoken between a plugin and the
// controller.
//
// All maps use integer keys for compactness. Entity changes travel as a map
// from model.Property to the CBOR encoding of the property's value:
//
//	{
//	  6: "Hall light",         // Name: text
//	  9: 42.0,                 // Value: float
//	  4: [12],                 // AssociatedDevices: array of int
//	  22: [{1: 0.0, 3: "Off"}] // StatusControls: array of control maps
//	}
//
// # Message Types
//
//   - Request: plugin to controller (CreateDevice, CreateFeature, Update)
//   - Response: controller to plugin (status, assigned ref)
//
// # Absent vs Zero
//
// A key that is absent in a change map means the property is unchanged.
// A key carrying a zero value resets the property to its default.
package wire
