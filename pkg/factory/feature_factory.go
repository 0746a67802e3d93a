package factory

import (
	"cmp"
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/hspi-sdk/hspi-go/pkg/hserr"
	"github.com/hspi-sdk/hspi-go/pkg/model"
	"github.com/hspi-sdk/hspi-go/pkg/status"
)

// FeatureFactory builds the payload for a new feature. It records errors
// the same way as DeviceFactory.
type FeatureFactory struct {
	feature *model.Feature
	err     error
}

// CreateFeature starts a feature owned by pluginID.
func CreateFeature(pluginID string) *FeatureFactory {
	f := &FeatureFactory{feature: model.NewStagedFeature(pluginID)}
	if strings.TrimSpace(pluginID) == "" {
		f.err = fmt.Errorf("%w: blank plugin id", hserr.ErrInvalidArgument)
		return f
	}
	f.feature.AddMiscFlags(model.MiscShowValues | model.MiscSetDoesNotChangeLastChange)
	f.feature.SetTypeInfo(model.TypeInfo{APIType: model.APITypeFeature})
	return f
}

func (f *FeatureFactory) apply(fn func(ft *model.Feature) error) *FeatureFactory {
	if f.err == nil {
		f.err = fn(f.feature)
	}
	return f
}

// Err returns the first error recorded by a chained call.
func (f *FeatureFactory) Err() error { return f.err }

// Feature returns the staged feature for inspection.
func (f *FeatureFactory) Feature() *model.Feature { return f.feature }

// OnDevice associates the feature with the device ref.
func (f *FeatureFactory) OnDevice(ref int) *FeatureFactory {
	return f.apply(func(ft *model.Feature) error {
		return ft.AssociateDevice(ref)
	})
}

// WithName sets the feature name.
func (f *FeatureFactory) WithName(name string) *FeatureFactory {
	return f.apply(func(ft *model.Feature) error {
		if err := notBlank("name", name); err != nil {
			return err
		}
		ft.SetName(name)
		return nil
	})
}

// WithLocation sets the primary location.
func (f *FeatureFactory) WithLocation(location string) *FeatureFactory {
	return f.apply(func(ft *model.Feature) error {
		if err := notBlank("location", location); err != nil {
			return err
		}
		ft.SetLocation(location)
		return nil
	})
}

// WithLocation2 sets the secondary location.
func (f *FeatureFactory) WithLocation2(location string) *FeatureFactory {
	return f.apply(func(ft *model.Feature) error {
		if err := notBlank("location2", location); err != nil {
			return err
		}
		ft.SetLocation2(location)
		return nil
	})
}

// WithAddress sets the plugin-defined address.
func (f *FeatureFactory) WithAddress(address string) *FeatureFactory {
	return f.apply(func(ft *model.Feature) error {
		if err := notBlank("address", address); err != nil {
			return err
		}
		ft.SetAddress(address)
		return nil
	})
}

// WithMiscFlags adds flags to the defaults.
func (f *FeatureFactory) WithMiscFlags(flags ...model.MiscFlag) *FeatureFactory {
	return f.apply(func(ft *model.Feature) error {
		m, err := combineFlags(flags)
		if err != nil {
			return err
		}
		ft.AddMiscFlags(m)
		return nil
	})
}

// WithoutMiscFlags removes flags, including defaults.
func (f *FeatureFactory) WithoutMiscFlags(flags ...model.MiscFlag) *FeatureFactory {
	return f.apply(func(ft *model.Feature) error {
		m, err := combineFlags(flags)
		if err != nil {
			return err
		}
		ft.RemoveMiscFlags(m)
		return nil
	})
}

// WithExtraData attaches plugin data.
func (f *FeatureFactory) WithExtraData(data *model.PlugExtraData) *FeatureFactory {
	return f.apply(func(ft *model.Feature) error {
		if data == nil {
			return fmt.Errorf("%w: nil extra data", hserr.ErrInvalidArgument)
		}
		ft.SetPlugExtraData(data)
		return nil
	})
}

// WithTypeInfo sets the classification. The API type is always Feature.
func (f *FeatureFactory) WithTypeInfo(t model.TypeInfo) *FeatureFactory {
	return f.apply(func(ft *model.Feature) error {
		t.APIType = model.APITypeFeature
		ft.SetTypeInfo(t)
		return nil
	})
}

// WithDisplayType sets how the controller lays out the feature.
func (f *FeatureFactory) WithDisplayType(t model.FeatureDisplayType) *FeatureFactory {
	return f.apply(func(ft *model.Feature) error {
		ft.SetDisplayType(t)
		return nil
	})
}

// WithPriority sets the display order among the device's features.
func (f *FeatureFactory) WithPriority(p int) *FeatureFactory {
	return f.apply(func(ft *model.Feature) error {
		if p < 0 {
			return fmt.Errorf("%w: priority %d", hserr.ErrOutOfRange, p)
		}
		ft.SetPriority(p)
		return nil
	})
}

// WithValue sets the initial value.
func (f *FeatureFactory) WithValue(v float64) *FeatureFactory {
	return f.apply(func(ft *model.Feature) error {
		ft.SetValue(v)
		return nil
	})
}

// AddControl adds a prepared control.
func (f *FeatureFactory) AddControl(c *status.StatusControl) *FeatureFactory {
	return f.apply(func(ft *model.Feature) error {
		return ft.AddStatusControl(c)
	})
}

// AddButton adds a button sending value.
func (f *FeatureFactory) AddButton(value float64, label string, use status.ControlUse) *FeatureFactory {
	return f.addPoint(status.ControlTypeButton, value, label, use)
}

// AddColorPicker adds a colour picker anchored at value.
func (f *FeatureFactory) AddColorPicker(value float64, label string, use status.ControlUse) *FeatureFactory {
	return f.addPoint(status.ControlTypeColorPicker, value, label, use)
}

// AddTextInput adds a text input anchored at value.
func (f *FeatureFactory) AddTextInput(value float64, label string) *FeatureFactory {
	return f.addPoint(status.ControlTypeTextInput, value, label, status.ControlUseNotSpecified)
}

// AddStatusOnly adds a label shown for value that cannot be operated.
func (f *FeatureFactory) AddStatusOnly(value float64, label string) *FeatureFactory {
	return f.addPoint(status.ControlTypeStatusOnly, value, label, status.ControlUseNotSpecified)
}

// AddSlider adds a slider over r.
func (f *FeatureFactory) AddSlider(r *status.ValueRange, use status.ControlUse) *FeatureFactory {
	return f.addRange(status.ControlTypeSlider, r, "", use)
}

// AddValueDropDown adds a drop-down listing every value of r.
func (f *FeatureFactory) AddValueDropDown(r *status.ValueRange, use status.ControlUse) *FeatureFactory {
	return f.addRange(status.ControlTypeValueDropDown, r, "", use)
}

// AddNumberInput adds a number input accepting values of r.
func (f *FeatureFactory) AddNumberInput(r *status.ValueRange, label string) *FeatureFactory {
	return f.addRange(status.ControlTypeNumberInput, r, label, status.ControlUseNotSpecified)
}

// AddTextDropDown adds one select-list entry per option, mapping labels to
// values. Either every option is added or none.
func (f *FeatureFactory) AddTextDropDown(options map[string]float64) *FeatureFactory {
	return f.addOptions(status.ControlTypeSelectList, options)
}

// AddRadioSelectList adds one radio entry per option. Either every option
// is added or none.
func (f *FeatureFactory) AddRadioSelectList(options map[string]float64) *FeatureFactory {
	return f.addOptions(status.ControlTypeRadioList, options)
}

// AddGraphicForValue adds an image shown for a single value.
func (f *FeatureFactory) AddGraphicForValue(imagePath string, value float64, label string) *FeatureFactory {
	return f.apply(func(ft *model.Feature) error {
		g, err := status.NewPointGraphic(imagePath, value)
		if err != nil {
			return err
		}
		g.SetLabel(label)
		return ft.AddStatusGraphic(g)
	})
}

// AddGraphicForRange adds an image shown for every value of r.
func (f *FeatureFactory) AddGraphicForRange(imagePath string, r *status.ValueRange) *FeatureFactory {
	return f.apply(func(ft *model.Feature) error {
		g, err := status.NewRangeGraphic(imagePath, r)
		if err != nil {
			return err
		}
		return ft.AddStatusGraphic(g)
	})
}

// AddGraphic adds a prepared graphic.
func (f *FeatureFactory) AddGraphic(g *status.StatusGraphic) *FeatureFactory {
	return f.apply(func(ft *model.Feature) error {
		return ft.AddStatusGraphic(g)
	})
}

func (f *FeatureFactory) addPoint(ctype status.ControlType, value float64, label string, use status.ControlUse) *FeatureFactory {
	return f.apply(func(ft *model.Feature) error {
		c, err := status.NewPointControl(ctype, value, label)
		if err != nil {
			return err
		}
		if err := c.SetControlUse(use); err != nil {
			return err
		}
		return ft.AddStatusControl(c)
	})
}

func (f *FeatureFactory) addRange(ctype status.ControlType, r *status.ValueRange, label string, use status.ControlUse) *FeatureFactory {
	return f.apply(func(ft *model.Feature) error {
		c, err := status.NewRangeControl(ctype, r, label)
		if err != nil {
			return err
		}
		if err := c.SetControlUse(use); err != nil {
			return err
		}
		return ft.AddStatusControl(c)
	})
}

func (f *FeatureFactory) addOptions(ctype status.ControlType, options map[string]float64) *FeatureFactory {
	return f.apply(func(ft *model.Feature) error {
		if len(options) == 0 {
			return fmt.Errorf("%w: no options", hserr.ErrInvalidArgument)
		}
		labels := slices.SortedFunc(maps.Keys(options), func(a, b string) int {
			return cmp.Compare(options[a], options[b])
		})

		trial := ft.StatusControls()
		var controls []*status.StatusControl
		for _, label := range labels {
			c, err := status.NewPointControl(ctype, options[label], label)
			if err != nil {
				return err
			}
			if err := trial.Add(c); err != nil {
				return fmt.Errorf("option %q: %w", label, err)
			}
			controls = append(controls, c)
		}
		for _, c := range controls {
			if err := ft.AddStatusControl(c); err != nil {
				return err
			}
		}
		return nil
	})
}

// PrepareForHs returns the payload for creating the feature. The feature
// must be associated with exactly one device.
func (f *FeatureFactory) PrepareForHs() (*NewFeatureData, error) {
	if f.err != nil {
		return nil, f.err
	}
	refs := f.feature.AssociatedDevices()
	if len(refs) != 1 {
		return nil, fmt.Errorf("%w: feature must be associated with exactly one device, has %d",
			hserr.ErrInvalidOperation, len(refs))
	}
	if err := f.feature.SetParentDevice(refs[0]); err != nil {
		return nil, err
	}
	return &NewFeatureData{Changes: f.feature.Changes()}, nil
}

// PrepareForHsDevice sets the parent device to ref and returns the payload.
func (f *FeatureFactory) PrepareForHsDevice(ref int) (*NewFeatureData, error) {
	f.apply(func(ft *model.Feature) error {
		return ft.SetParentDevice(ref)
	})
	return f.PrepareForHs()
}
