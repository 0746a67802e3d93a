package examples

import (
	"context"

	"github.com/hspi-sdk/hspi-go/pkg/controller"
	"github.com/hspi-sdk/hspi-go/pkg/factory"
	"github.com/hspi-sdk/hspi-go/pkg/model"
	"github.com/hspi-sdk/hspi-go/pkg/status"
)

// Dimmer feature key.
const DimmerLevel = "level"

// Dimmer levels.
const (
	DimmerOff = 0
	DimmerOn  = 100
)

// DimmerConfig describes a dimmable light.
type DimmerConfig struct {
	PluginID string
	Address  string
	Name     string
	Location string
}

// Dimmer is a light with Off/On buttons and a percentage slider.
type Dimmer struct {
	*Sample
}

// NewDimmer stages a dimmer.
func NewDimmer(cfg DimmerConfig) (*Dimmer, error) {
	level := status.MustValueRange(1, 99)
	level.SetSuffix("%")

	ff := factory.CreateFeature(cfg.PluginID).
		WithName("Level").
		WithTypeInfo(model.TypeInfo{APIType: model.APITypeFeature, Type: 1, SubTypeDescription: "dimmer"}).
		WithDisplayType(model.DisplayHighlight).
		WithMiscFlags(model.MiscShowValues).
		AddButton(DimmerOff, "Off", status.ControlUseOff).
		AddSlider(level, status.ControlUseDim).
		AddButton(DimmerOn, "On", status.ControlUseOn).
		AddGraphicForValue("images/light-off.png", DimmerOff, "Off").
		AddGraphicForRange("images/light-on.png", status.MustValueRange(1, 100))

	df := factory.CreateDevice(cfg.PluginID).
		WithName(cfg.Name).
		WithAddress(cfg.Address).
		WithTypeInfo(model.TypeInfo{APIType: model.APITypeDevice, Type: 1, SubTypeDescription: "light"}).
		WithFeature(ff)
	if cfg.Location != "" {
		df.WithLocation(cfg.Location)
	}

	s, err := NewSample(cfg.Address, df, DimmerLevel)
	if err != nil {
		return nil, err
	}
	return &Dimmer{Sample: s}, nil
}

// SetLevel operates the light. 0 is off, 100 is on, anything between dims.
func (d *Dimmer) SetLevel(ctx context.Context, ctrl controller.Controller, level float64) (*status.ControlEvent, error) {
	return d.Operate(ctx, ctrl, DimmerLevel, level)
}

// Level returns the current level.
func (d *Dimmer) Level() float64 {
	if f := d.Feature(DimmerLevel); f != nil {
		return f.Value()
	}
	return 0
}
