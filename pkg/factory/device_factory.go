package factory

import (
	"fmt"
	"strings"

	"github.com/hspi-sdk/hspi-go/pkg/hserr"
	"github.com/hspi-sdk/hspi-go/pkg/model"
)

// DeviceFactory builds the payload for a new device.
//
// Methods chain. The first failing call records its error and leaves the
// device untouched; later calls do nothing. PrepareForHs returns the
// recorded error.
type DeviceFactory struct {
	device   *model.Device
	features []*FeatureFactory
	err      error
}

// CreateDevice starts a device owned by pluginID.
func CreateDevice(pluginID string) *DeviceFactory {
	f := &DeviceFactory{device: model.NewStagedDevice(pluginID)}
	if strings.TrimSpace(pluginID) == "" {
		f.err = fmt.Errorf("%w: blank plugin id", hserr.ErrInvalidArgument)
		return f
	}
	f.device.AddMiscFlags(model.MiscShowValues)
	f.err = f.device.SetRelationship(model.RelationshipDevice)
	f.device.SetTypeInfo(model.TypeInfo{APIType: model.APITypeDevice})
	return f
}

func (f *DeviceFactory) apply(fn func(d *model.Device) error) *DeviceFactory {
	if f.err == nil {
		f.err = fn(f.device)
	}
	return f
}

// Err returns the first error recorded by a chained call.
func (f *DeviceFactory) Err() error { return f.err }

// Device returns the staged device for inspection.
func (f *DeviceFactory) Device() *model.Device { return f.device }

// Features returns the features added with WithFeature.
func (f *DeviceFactory) Features() []*FeatureFactory { return f.features }

// WithName sets the device name.
func (f *DeviceFactory) WithName(name string) *DeviceFactory {
	return f.apply(func(d *model.Device) error {
		if err := notBlank("name", name); err != nil {
			return err
		}
		d.SetName(name)
		return nil
	})
}

// WithLocation sets the primary location.
func (f *DeviceFactory) WithLocation(location string) *DeviceFactory {
	return f.apply(func(d *model.Device) error {
		if err := notBlank("location", location); err != nil {
			return err
		}
		d.SetLocation(location)
		return nil
	})
}

// WithLocation2 sets the secondary location.
func (f *DeviceFactory) WithLocation2(location string) *DeviceFactory {
	return f.apply(func(d *model.Device) error {
		if err := notBlank("location2", location); err != nil {
			return err
		}
		d.SetLocation2(location)
		return nil
	})
}

// WithAddress sets the plugin-defined address.
func (f *DeviceFactory) WithAddress(address string) *DeviceFactory {
	return f.apply(func(d *model.Device) error {
		if err := notBlank("address", address); err != nil {
			return err
		}
		d.SetAddress(address)
		return nil
	})
}

// WithMiscFlags adds flags to the defaults.
func (f *DeviceFactory) WithMiscFlags(flags ...model.MiscFlag) *DeviceFactory {
	return f.apply(func(d *model.Device) error {
		m, err := combineFlags(flags)
		if err != nil {
			return err
		}
		d.AddMiscFlags(m)
		return nil
	})
}

// WithoutMiscFlags removes flags, including defaults.
func (f *DeviceFactory) WithoutMiscFlags(flags ...model.MiscFlag) *DeviceFactory {
	return f.apply(func(d *model.Device) error {
		m, err := combineFlags(flags)
		if err != nil {
			return err
		}
		d.RemoveMiscFlags(m)
		return nil
	})
}

// WithExtraData attaches plugin data.
func (f *DeviceFactory) WithExtraData(data *model.PlugExtraData) *DeviceFactory {
	return f.apply(func(d *model.Device) error {
		if data == nil {
			return fmt.Errorf("%w: nil extra data", hserr.ErrInvalidArgument)
		}
		d.SetPlugExtraData(data)
		return nil
	})
}

// WithTypeInfo sets the classification. The API type is always Device.
func (f *DeviceFactory) WithTypeInfo(t model.TypeInfo) *DeviceFactory {
	return f.apply(func(d *model.Device) error {
		t.APIType = model.APITypeDevice
		d.SetTypeInfo(t)
		return nil
	})
}

// AsType sets the device type and subtype.
func (f *DeviceFactory) AsType(typ, subType int) *DeviceFactory {
	return f.WithTypeInfo(model.TypeInfo{Type: typ, SubType: subType})
}

// WithProductImage sets the product image path.
func (f *DeviceFactory) WithProductImage(path string) *DeviceFactory {
	return f.apply(func(d *model.Device) error {
		if err := notBlank("product image", path); err != nil {
			return err
		}
		d.SetProductImage(path)
		return nil
	})
}

// WithFeature creates ff together with the device. The controller links it
// to the new device, so ff needs no OnDevice call.
func (f *DeviceFactory) WithFeature(ff *FeatureFactory) *DeviceFactory {
	return f.apply(func(*model.Device) error {
		if ff == nil {
			return fmt.Errorf("%w: nil feature", hserr.ErrInvalidArgument)
		}
		if ff.err != nil {
			return fmt.Errorf("feature: %w", ff.err)
		}
		f.features = append(f.features, ff)
		return nil
	})
}

// PrepareForHs returns the payload for creating the device.
func (f *DeviceFactory) PrepareForHs() (*NewDeviceData, error) {
	if f.err != nil {
		return nil, f.err
	}
	data := &NewDeviceData{Changes: f.device.Changes()}
	for i, ff := range f.features {
		if ff.err != nil {
			return nil, fmt.Errorf("feature %d: %w", i, ff.err)
		}
		data.Features = append(data.Features, ff.feature.Changes())
	}
	return data, nil
}

func notBlank(what, s string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("%w: blank %s", hserr.ErrInvalidArgument, what)
	}
	return nil
}

func combineFlags(flags []model.MiscFlag) (model.MiscFlag, error) {
	if len(flags) == 0 {
		return 0, fmt.Errorf("%w: no misc flags given", hserr.ErrInvalidArgument)
	}
	var m model.MiscFlag
	for _, fl := range flags {
		if fl == 0 {
			return 0, fmt.Errorf("%w: empty misc flag", hserr.ErrInvalidArgument)
		}
		m |= fl
	}
	return m, nil
}
