package examples

import (
	"context"
	"fmt"

	"github.com/hspi-sdk/hspi-go/pkg/controller"
	"github.com/hspi-sdk/hspi-go/pkg/factory"
	"github.com/hspi-sdk/hspi-go/pkg/hserr"
	"github.com/hspi-sdk/hspi-go/pkg/model"
	"github.com/hspi-sdk/hspi-go/pkg/persistence"
	"github.com/hspi-sdk/hspi-go/pkg/status"
)

// Sample is a staged device with named features. After Register it holds
// the live entities.
type Sample struct {
	address string
	factory *factory.DeviceFactory
	keys    []string

	device   *model.Device
	features map[string]*model.Feature
}

// NewSample wraps a device factory. keys names the factory's features in
// order; each feature's address is the device address plus "/" + key.
func NewSample(address string, df *factory.DeviceFactory, keys ...string) (*Sample, error) {
	if err := df.Err(); err != nil {
		return nil, err
	}
	if len(keys) != len(df.Features()) {
		return nil, fmt.Errorf("%w: %d feature keys for %d features",
			hserr.ErrInvalidArgument, len(keys), len(df.Features()))
	}
	s := &Sample{address: address, factory: df, keys: keys}
	for i, ff := range df.Features() {
		ff.WithAddress(s.FeatureAddress(keys[i]))
		if err := ff.Err(); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Address returns the device address.
func (s *Sample) Address() string { return s.address }

// FeatureAddress returns the address of the feature key.
func (s *Sample) FeatureAddress(key string) string { return s.address + "/" + key }

// Keys returns the feature keys in creation order.
func (s *Sample) Keys() []string { return s.keys }

// Registered reports whether the sample has live entities.
func (s *Sample) Registered() bool { return s.device != nil }

// Device returns the live device, or nil before Register.
func (s *Sample) Device() *model.Device { return s.device }

// Feature returns the live feature key, or nil.
func (s *Sample) Feature(key string) *model.Feature { return s.features[key] }

// Register creates the device and its features on ctrl and records their
// refs in state. When state already holds a ref for every address the
// entities are rebuilt locally and nothing is sent. It reports whether
// anything was created.
func (s *Sample) Register(ctx context.Context, ctrl controller.Controller, state *persistence.PluginState) (bool, error) {
	if s.Registered() {
		return false, nil
	}
	if state != nil {
		ok, err := s.reattach(state)
		if err != nil || ok {
			return false, err
		}
	}

	data, err := s.factory.PrepareForHs()
	if err != nil {
		return false, err
	}
	devRef, err := ctrl.CreateDevice(ctx, &factory.NewDeviceData{Changes: data.Changes})
	if err != nil {
		return false, fmt.Errorf("create %s: %w", s.address, err)
	}
	device, err := model.LoadDevice(devRef, data.Changes)
	if err != nil {
		return false, err
	}

	features := make(map[string]*model.Feature, len(s.keys))
	refs := make([]int, 0, len(s.keys))
	for i, ff := range s.factory.Features() {
		fdata, err := ff.PrepareForHsDevice(devRef)
		if err != nil {
			return false, err
		}
		ref, err := ctrl.CreateFeature(ctx, fdata)
		if err != nil {
			return false, fmt.Errorf("create %s: %w", s.FeatureAddress(s.keys[i]), err)
		}
		f, err := model.LoadFeature(ref, fdata.Changes)
		if err != nil {
			return false, err
		}
		features[s.keys[i]] = f
		refs = append(refs, ref)
	}
	if err := device.Apply(model.Changes{model.PropertyAssociatedDevices: refs}); err != nil {
		return false, err
	}

	s.device, s.features = device, features
	if state != nil {
		if err := s.remember(state); err != nil {
			return true, err
		}
	}
	return true, nil
}

func (s *Sample) reattach(state *persistence.PluginState) (bool, error) {
	devRef, ok := state.Lookup(s.address)
	if !ok {
		return false, nil
	}
	featureRefs := make([]int, len(s.keys))
	for i, key := range s.keys {
		ref, ok := state.Lookup(s.FeatureAddress(key))
		if !ok {
			return false, nil
		}
		featureRefs[i] = ref
	}

	device, err := model.LoadDevice(devRef, s.factory.Device().Changes())
	if err != nil {
		return false, err
	}
	if err := device.Apply(model.Changes{model.PropertyAssociatedDevices: featureRefs}); err != nil {
		return false, err
	}

	features := make(map[string]*model.Feature, len(s.keys))
	for i, ff := range s.factory.Features() {
		f, err := model.LoadFeature(featureRefs[i], ff.Feature().Changes())
		if err != nil {
			return false, err
		}
		err = f.Apply(model.Changes{
			model.PropertyRelationship:      model.RelationshipFeature,
			model.PropertyAssociatedDevices: []int{devRef},
		})
		if err != nil {
			return false, err
		}
		features[s.keys[i]] = f
	}
	s.device, s.features = device, features
	return true, nil
}

func (s *Sample) remember(state *persistence.PluginState) error {
	if err := state.Remember(s.address, s.device.Ref()); err != nil {
		return err
	}
	for _, key := range s.keys {
		if err := state.Remember(s.FeatureAddress(key), s.features[key].Ref()); err != nil {
			return err
		}
	}
	return nil
}

func (s *Sample) live(key string) (*model.Feature, error) {
	if !s.Registered() {
		return nil, fmt.Errorf("%w: %s is not registered", hserr.ErrInvalidOperation, s.address)
	}
	f := s.features[key]
	if f == nil {
		return nil, fmt.Errorf("%w: feature %q on %s", hserr.ErrNotFound, key, s.address)
	}
	return f, nil
}

// Operate applies a user action: v must select one of the feature's
// controls. The new value and its display text are pushed to ctrl.
func (s *Sample) Operate(ctx context.Context, ctrl controller.Controller, key string, v float64) (*status.ControlEvent, error) {
	f, err := s.live(key)
	if err != nil {
		return nil, err
	}
	ev, err := f.CreateControlEvent(v)
	if err != nil {
		return nil, err
	}
	if err := s.update(ctx, ctrl, f, v); err != nil {
		return nil, err
	}
	return ev, nil
}

// Report stores a value read from the hardware and pushes it to ctrl.
// Unlike Operate, v need not select a control.
func (s *Sample) Report(ctx context.Context, ctrl controller.Controller, key string, v float64) error {
	f, err := s.live(key)
	if err != nil {
		return err
	}
	return s.update(ctx, ctrl, f, v)
}

func (s *Sample) update(ctx context.Context, ctrl controller.Controller, f *model.Feature, v float64) error {
	f.SetValue(v)
	f.SetStatus(f.DisplayedStatus(v))
	if f.IsValueInvalid() {
		f.SetValueInvalid(false)
	}
	if err := controller.Push(ctx, ctrl, f); err != nil {
		f.RevertChanges()
		return err
	}
	return nil
}
