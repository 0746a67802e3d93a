package examples

import (
	"context"

	"github.com/hspi-sdk/hspi-go/pkg/controller"
	"github.com/hspi-sdk/hspi-go/pkg/factory"
	"github.com/hspi-sdk/hspi-go/pkg/model"
	"github.com/hspi-sdk/hspi-go/pkg/status"
)

// Thermostat feature keys.
const (
	ThermostatTemperature = "temperature"
	ThermostatSetPoint    = "setpoint"
	ThermostatMode        = "mode"
)

// ThermostatMode values.
const (
	ModeOff  = 0
	ModeHeat = 1
	ModeCool = 2
	ModeAuto = 3
)

// ThermostatConfig describes a thermostat.
type ThermostatConfig struct {
	PluginID string
	Address  string
	Name     string
	Location string

	// MinSetPoint and MaxSetPoint bound the heat set point, default 5 and 30.
	MinSetPoint float64
	MaxSetPoint float64
}

// Thermostat reports room temperature and accepts a set point and a mode.
type Thermostat struct {
	*Sample
}

// NewThermostat stages a thermostat.
func NewThermostat(cfg ThermostatConfig) (*Thermostat, error) {
	if cfg.MinSetPoint == 0 && cfg.MaxSetPoint == 0 {
		cfg.MinSetPoint, cfg.MaxSetPoint = 5, 30
	}

	reading, err := status.NewValueRange(-40, 60)
	if err != nil {
		return nil, err
	}
	if err := reading.SetDecimalPlaces(1); err != nil {
		return nil, err
	}
	reading.SetSuffix(" °C")

	temperature := factory.CreateFeature(cfg.PluginID).
		WithName("Temperature").
		WithMiscFlags(model.MiscStatusOnly, model.MiscShowValues).
		AddControl(mustRangeControl(status.ControlTypeStatusOnly, reading, status.ControlUseNotSpecified))

	target, err := status.NewValueRange(cfg.MinSetPoint, cfg.MaxSetPoint)
	if err != nil {
		return nil, err
	}
	if err := target.SetDecimalPlaces(1); err != nil {
		return nil, err
	}
	target.SetSuffix(" °C")

	setPoint := factory.CreateFeature(cfg.PluginID).
		WithName("Heat set point").
		WithPriority(1).
		AddControl(mustRangeControl(status.ControlTypeNumberInput, target, status.ControlUseHeatSetPoint))

	mode := factory.CreateFeature(cfg.PluginID).
		WithName("Mode").
		AddControl(mustPointControl(status.ControlTypeSelectList, ModeOff, "Off", status.ControlUseThermModeOff)).
		AddControl(mustPointControl(status.ControlTypeSelectList, ModeHeat, "Heat", status.ControlUseThermModeHeat)).
		AddControl(mustPointControl(status.ControlTypeSelectList, ModeCool, "Cool", status.ControlUseThermModeCool)).
		AddControl(mustPointControl(status.ControlTypeSelectList, ModeAuto, "Auto", status.ControlUseThermModeAuto))

	df := factory.CreateDevice(cfg.PluginID).
		WithName(cfg.Name).
		WithAddress(cfg.Address).
		WithTypeInfo(model.TypeInfo{APIType: model.APITypeDevice, Type: 2, SubTypeDescription: "thermostat"}).
		WithFeature(temperature).
		WithFeature(setPoint).
		WithFeature(mode)
	if cfg.Location != "" {
		df.WithLocation(cfg.Location)
	}

	s, err := NewSample(cfg.Address, df, ThermostatTemperature, ThermostatSetPoint, ThermostatMode)
	if err != nil {
		return nil, err
	}
	return &Thermostat{Sample: s}, nil
}

// mustRangeControl and mustPointControl build controls from constant
// arguments and panic on error.
func mustRangeControl(ctype status.ControlType, r *status.ValueRange, use status.ControlUse) *status.StatusControl {
	c, err := status.NewRangeControl(ctype, r, "")
	if err != nil {
		panic(err)
	}
	if err := c.SetControlUse(use); err != nil {
		panic(err)
	}
	return c
}

func mustPointControl(ctype status.ControlType, v float64, label string, use status.ControlUse) *status.StatusControl {
	c, err := status.NewPointControl(ctype, v, label)
	if err != nil {
		panic(err)
	}
	if err := c.SetControlUse(use); err != nil {
		panic(err)
	}
	return c
}

// ReportTemperature publishes a reading from the sensor.
func (t *Thermostat) ReportTemperature(ctx context.Context, ctrl controller.Controller, celsius float64) error {
	return t.Report(ctx, ctrl, ThermostatTemperature, celsius)
}

// SetSetPoint changes the heat set point. It must lie in the configured range.
func (t *Thermostat) SetSetPoint(ctx context.Context, ctrl controller.Controller, celsius float64) (*status.ControlEvent, error) {
	return t.Operate(ctx, ctrl, ThermostatSetPoint, celsius)
}

// SetMode selects one of ModeOff, ModeHeat, ModeCool and ModeAuto.
func (t *Thermostat) SetMode(ctx context.Context, ctrl controller.Controller, mode float64) (*status.ControlEvent, error) {
	return t.Operate(ctx, ctrl, ThermostatMode, mode)
}
