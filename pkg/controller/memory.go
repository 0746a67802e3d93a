package controller

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/hspi-sdk/hspi-go/pkg/factory"
	"github.com/hspi-sdk/hspi-go/pkg/hserr"
	"github.com/hspi-sdk/hspi-go/pkg/log"
	"github.com/hspi-sdk/hspi-go/pkg/model"
)

// Entity states reported in protocol state events.
const (
	StateCreated = "CREATED"
	StateUpdated = "UPDATED"
)

// MemoryConfig configures an in-process controller.
type MemoryConfig struct {
	// FirstRef is the first ref handed out, default 1.
	FirstRef int

	// Log is the operational logger (optional).
	Log *slog.Logger

	// ProtocolLogger receives entity state events (optional).
	ProtocolLogger log.Logger
}

// Memory is an in-process controller. It assigns refs, links features to
// their device and applies updates to committed state. Safe for
// concurrent use.
type Memory struct {
	mu       sync.RWMutex
	nextRef  int
	devices  map[int]*model.Device
	features map[int]*model.Feature

	log      *slog.Logger
	protocol log.Logger
}

// NewMemory returns an empty controller.
func NewMemory(cfg MemoryConfig) *Memory {
	if cfg.FirstRef <= 0 {
		cfg.FirstRef = 1
	}
	if cfg.Log == nil {
		cfg.Log = slog.New(slog.DiscardHandler)
	}
	return &Memory{
		nextRef:  cfg.FirstRef,
		devices:  make(map[int]*model.Device),
		features: make(map[int]*model.Feature),
		log:      cfg.Log,
		protocol: log.OrNoop(cfg.ProtocolLogger),
	}
}

func (m *Memory) allocRef() int {
	ref := m.nextRef
	m.nextRef++
	return ref
}

// CreateDevice implements Controller.
func (m *Memory) CreateDevice(_ context.Context, data *factory.NewDeviceData) (int, error) {
	if data == nil {
		return 0, fmt.Errorf("%w: nil device data", hserr.ErrInvalidArgument)
	}
	if err := validateNew(data.Changes, model.RelationshipDevice); err != nil {
		return 0, fmt.Errorf("device: %w", err)
	}
	for i, fc := range data.Features {
		if err := validateNew(fc, model.RelationshipFeature, model.RelationshipNotSet); err != nil {
			return 0, fmt.Errorf("feature %d: %w", i, err)
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	devRef := m.allocRef()
	featRefs := make([]int, len(data.Features))
	for i := range featRefs {
		featRefs[i] = m.allocRef()
	}

	dc := data.Changes.Clone()
	dc[model.PropertyAssociatedDevices] = slices.Clone(featRefs)
	dev, err := model.LoadDevice(devRef, dc)
	if err != nil {
		return 0, err
	}

	feats := make([]*model.Feature, len(featRefs))
	for i, fc := range data.Features {
		fc = fc.Clone()
		fc[model.PropertyRelationship] = model.RelationshipFeature
		fc[model.PropertyAssociatedDevices] = []int{devRef}
		f, err := model.LoadFeature(featRefs[i], fc)
		if err != nil {
			return 0, fmt.Errorf("feature %d: %w", i, err)
		}
		feats[i] = f
	}

	m.devices[devRef] = dev
	m.entityEvent(log.StateEntityDevice, devRef, StateCreated)
	for i, f := range feats {
		m.features[featRefs[i]] = f
		m.entityEvent(log.StateEntityFeature, featRefs[i], StateCreated)
	}
	m.log.Info("device created", "ref", devRef, "name", dev.Name(), "features", len(feats))
	return devRef, nil
}

// CreateFeature implements Controller. The parent must be a known device.
func (m *Memory) CreateFeature(_ context.Context, data *factory.NewFeatureData) (int, error) {
	if data == nil {
		return 0, fmt.Errorf("%w: nil feature data", hserr.ErrInvalidArgument)
	}
	if err := validateNew(data.Changes, model.RelationshipFeature); err != nil {
		return 0, err
	}
	parentRef := data.ParentRef()
	if parentRef <= 0 {
		return 0, fmt.Errorf("%w: feature needs exactly one parent device", hserr.ErrInvalidOperation)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	parent, ok := m.devices[parentRef]
	if !ok {
		return 0, fmt.Errorf("%w: device %d", hserr.ErrNotFound, parentRef)
	}

	ref := m.allocRef()
	f, err := model.LoadFeature(ref, data.Changes)
	if err != nil {
		return 0, err
	}
	if err := parent.AssociateDevice(ref); err != nil {
		return 0, err
	}
	parent.AcceptChanges()

	m.features[ref] = f
	m.entityEvent(log.StateEntityFeature, ref, StateCreated)
	m.log.Info("feature created", "ref", ref, "device", parentRef, "name", f.Name())
	return ref, nil
}

// UpdateEntity implements Controller. Changes may not alter the ref or
// turn a device into a feature or back.
func (m *Memory) UpdateEntity(_ context.Context, ref int, changes model.Changes) error {
	if err := changes.Validate(); err != nil {
		return err
	}
	if r, ok := changes[model.PropertyRef]; ok && r.(int) != ref {
		return fmt.Errorf("%w: ref cannot change", hserr.ErrInvalidArgument)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	var (
		target interface{ Apply(model.Changes) error }
		kind   model.Relationship
		entity log.StateEntity
	)
	if d, ok := m.devices[ref]; ok {
		target, kind, entity = d, model.RelationshipDevice, log.StateEntityDevice
	} else if f, ok := m.features[ref]; ok {
		target, kind, entity = f, model.RelationshipFeature, log.StateEntityFeature
	} else {
		return fmt.Errorf("%w: ref %d", hserr.ErrNotFound, ref)
	}
	if r, ok := changes[model.PropertyRelationship]; ok && r.(model.Relationship) != kind {
		return fmt.Errorf("%w: ref %d is a %s", hserr.ErrRelationshipConflict, ref, kind)
	}
	if err := target.Apply(changes); err != nil {
		return err
	}
	m.entityEvent(entity, ref, StateUpdated)
	m.log.Debug("entity updated", "ref", ref, "properties", len(changes))
	return nil
}

// Device returns a copy of the device ref.
func (m *Memory) Device(ref int) (*model.Device, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	d, ok := m.devices[ref]
	if !ok {
		return nil, fmt.Errorf("%w: device %d", hserr.ErrNotFound, ref)
	}
	return model.LoadDevice(ref, d.Snapshot())
}

// Feature returns a copy of the feature ref.
func (m *Memory) Feature(ref int) (*model.Feature, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	f, ok := m.features[ref]
	if !ok {
		return nil, fmt.Errorf("%w: feature %d", hserr.ErrNotFound, ref)
	}
	return model.LoadFeature(ref, f.Snapshot())
}

// FeaturesOf returns copies of the device's features ordered by ref.
func (m *Memory) FeaturesOf(deviceRef int) ([]*model.Feature, error) {
	m.mu.RLock()
	d, ok := m.devices[deviceRef]
	var refs []int
	if ok {
		refs = d.FeatureRefs()
	}
	m.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: device %d", hserr.ErrNotFound, deviceRef)
	}

	out := make([]*model.Feature, 0, len(refs))
	for _, ref := range refs {
		f, err := m.Feature(ref)
		if err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, nil
}

// DeviceRefs returns every device ref in ascending order.
func (m *Memory) DeviceRefs() []int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	refs := make([]int, 0, len(m.devices))
	for ref := range m.devices {
		refs = append(refs, ref)
	}
	slices.Sort(refs)
	return refs
}

func (m *Memory) entityEvent(entity log.StateEntity, ref int, state string) {
	m.protocol.Log(log.Event{
		Timestamp: time.Now(),
		Layer:     log.LayerEntity,
		Category:  log.CategoryState,
		LocalRole: log.RoleController,
		StateChange: &log.StateChangeEvent{
			Entity:   entity,
			NewState: state,
			Reason:   fmt.Sprintf("ref %d", ref),
		},
	})
}

// validateNew checks a create payload: known properties, no preset ref
// and one of the allowed relationships.
func validateNew(c model.Changes, allowed ...model.Relationship) error {
	if err := c.Validate(); err != nil {
		return err
	}
	if _, ok := c[model.PropertyRef]; ok {
		return fmt.Errorf("%w: new entity cannot carry a ref", hserr.ErrInvalidArgument)
	}
	rel := model.RelationshipNotSet
	if r, ok := c[model.PropertyRelationship]; ok {
		rel = r.(model.Relationship)
	}
	if !slices.Contains(allowed, rel) {
		return fmt.Errorf("%w: unexpected relationship %s", hserr.ErrRelationshipConflict, rel)
	}
	return nil
}

var _ Controller = (*Memory)(nil)
