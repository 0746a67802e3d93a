package examples

import (
	"context"
	"time"

	"github.com/hspi-sdk/hspi-go/pkg/controller"
	"github.com/hspi-sdk/hspi-go/pkg/energy"
	"github.com/hspi-sdk/hspi-go/pkg/factory"
	"github.com/hspi-sdk/hspi-go/pkg/model"
	"github.com/hspi-sdk/hspi-go/pkg/status"
)

// EnergyMeter feature keys.
const (
	MeterPower  = "power"
	MeterEnergy = "energy"
)

// EnergyMeterConfig describes a metering plug or sub-meter.
type EnergyMeterConfig struct {
	PluginID string
	Address  string
	Name     string

	// MaxPower bounds the power reading in watts, default 3680.
	MaxPower float64

	// Direction is what the meter measures, default consumed energy.
	Direction energy.Direction
}

// EnergyMeter reports power and interval energy, logging each interval
// to an energy repository.
type EnergyMeter struct {
	*Sample
	direction energy.Direction
}

// NewEnergyMeter stages an energy meter.
func NewEnergyMeter(cfg EnergyMeterConfig) (*EnergyMeter, error) {
	if cfg.MaxPower <= 0 {
		cfg.MaxPower = 3680
	}
	if !cfg.Direction.IsValid() {
		cfg.Direction = energy.DirectionConsumed
	}

	watts, err := status.NewValueRange(0, cfg.MaxPower)
	if err != nil {
		return nil, err
	}
	watts.SetSuffix(" W")

	kwh, err := status.NewValueRange(0, 1e9)
	if err != nil {
		return nil, err
	}
	if err := kwh.SetDecimalPlaces(3); err != nil {
		return nil, err
	}
	kwh.SetSuffix(" kWh")

	power := factory.CreateFeature(cfg.PluginID).
		WithName("Power").
		WithMiscFlags(model.MiscStatusOnly, model.MiscShowValues).
		AddControl(mustRangeControl(status.ControlTypeStatusOnly, watts, status.ControlUseNotSpecified))

	interval := factory.CreateFeature(cfg.PluginID).
		WithName("Energy").
		WithMiscFlags(model.MiscStatusOnly, model.MiscNoLog).
		AddControl(mustRangeControl(status.ControlTypeStatusOnly, kwh, status.ControlUseNotSpecified))

	df := factory.CreateDevice(cfg.PluginID).
		WithName(cfg.Name).
		WithAddress(cfg.Address).
		WithTypeInfo(model.TypeInfo{APIType: model.APITypeDevice, Type: 3, SubTypeDescription: "energy meter"}).
		WithFeature(power).
		WithFeature(interval)

	s, err := NewSample(cfg.Address, df, MeterPower, MeterEnergy)
	if err != nil {
		return nil, err
	}
	return &EnergyMeter{Sample: s, direction: cfg.Direction}, nil
}

// ReportPower publishes an instantaneous power reading in watts.
func (m *EnergyMeter) ReportPower(ctx context.Context, ctrl controller.Controller, watts float64) error {
	return m.Report(ctx, ctrl, MeterPower, watts)
}

// ReportInterval publishes the energy in kWh accumulated over span and
// logs it to repo when repo is not nil.
func (m *EnergyMeter) ReportInterval(ctx context.Context, ctrl controller.Controller, repo energy.Repository, kwh float64, span time.Duration) (*energy.Record, error) {
	if err := m.Report(ctx, ctrl, MeterEnergy, kwh); err != nil {
		return nil, err
	}
	if repo == nil {
		return nil, nil
	}
	return energy.RecordFeature(ctx, repo, m.Feature(MeterEnergy), m.direction, span)
}
