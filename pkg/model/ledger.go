package model

import (
	"fmt"
	"maps"
	"reflect"
	"slices"
	"time"

	"github.com/hspi-sdk/hspi-go/pkg/hserr"
	"github.com/hspi-sdk/hspi-go/pkg/status"
)

// Changes maps properties to staged values. Each value has the Go type
// noted on its Property constant.
type Changes map[Property]any

// record is the committed state of an entity. Zero values are the defaults.
type record struct {
	ref          int
	iface        string
	relationship Relationship
	associations []int
	address      string
	name         string
	location     string
	location2    string
	value        float64
	status       string
	misc         MiscFlag
	userAccess   string
	userNote     string
	voiceCommand string
	typeInfo     TypeInfo
	extraData    *PlugExtraData
	image        string
	productImage string
	invalidValue bool
	displayType  FeatureDisplayType
	priority     int
	controls     *status.Controls
	graphics     *status.Graphics
	lastChange   time.Time
}

// field binds a Property to its slot in the committed record.
type field[T any] struct {
	prop  Property
	at    func(*record) *T
	equal func(a, b T) bool
	clone func(T) T
}

// anyField is the type-erased view of a field used when values arrive
// untyped, such as loading committed state from a Changes map.
type anyField interface {
	check(v any) error
	commit(r *record, v any)
	cloneAny(v any) any
	equalAny(a, b any) bool
	snapshot(r *record) any
}

func (f field[T]) copy(v T) T {
	if f.clone == nil {
		return v
	}
	return f.clone(v)
}

func (f field[T]) check(v any) error {
	if _, ok := v.(T); !ok {
		var zero T
		return fmt.Errorf("%w: %s expects %T, got %T", hserr.ErrInvalidArgument, f.prop, zero, v)
	}
	return nil
}

func (f field[T]) commit(r *record, v any) {
	*f.at(r) = f.copy(v.(T))
}

func (f field[T]) snapshot(r *record) any {
	return f.copy(*f.at(r))
}

func (f field[T]) cloneAny(v any) any {
	if tv, ok := v.(T); ok {
		return f.copy(tv)
	}
	return v
}

func (f field[T]) equalAny(a, b any) bool {
	ta, okA := a.(T)
	tb, okB := b.(T)
	return okA && okB && f.equal(ta, tb)
}

func plainField[T comparable](p Property, at func(*record) *T) field[T] {
	return field[T]{
		prop:  p,
		at:    at,
		equal: func(a, b T) bool { return a == b },
	}
}

var (
	refField          = plainField(PropertyRef, func(r *record) *int { return &r.ref })
	interfaceField    = plainField(PropertyInterface, func(r *record) *string { return &r.iface })
	relationshipField = plainField(PropertyRelationship, func(r *record) *Relationship { return &r.relationship })
	associationsField = field[[]int]{
		prop:  PropertyAssociatedDevices,
		at:    func(r *record) *[]int { return &r.associations },
		equal: func(a, b []int) bool { return slices.Equal(a, b) },
		clone: slices.Clone[[]int],
	}
	addressField      = plainField(PropertyAddress, func(r *record) *string { return &r.address })
	nameField         = plainField(PropertyName, func(r *record) *string { return &r.name })
	locationField     = plainField(PropertyLocation, func(r *record) *string { return &r.location })
	location2Field    = plainField(PropertyLocation2, func(r *record) *string { return &r.location2 })
	valueField        = plainField(PropertyValue, func(r *record) *float64 { return &r.value })
	statusField       = plainField(PropertyStatus, func(r *record) *string { return &r.status })
	miscField         = plainField(PropertyMisc, func(r *record) *MiscFlag { return &r.misc })
	userAccessField   = plainField(PropertyUserAccess, func(r *record) *string { return &r.userAccess })
	userNoteField     = plainField(PropertyUserNote, func(r *record) *string { return &r.userNote })
	voiceCommandField = plainField(PropertyVoiceCommand, func(r *record) *string { return &r.voiceCommand })
	typeInfoField     = plainField(PropertyDeviceType, func(r *record) *TypeInfo { return &r.typeInfo })
	extraDataField    = field[*PlugExtraData]{
		prop:  PropertyPlugExtraData,
		at:    func(r *record) **PlugExtraData { return &r.extraData },
		equal: (*PlugExtraData).Equal,
		clone: (*PlugExtraData).Clone,
	}
	imageField        = plainField(PropertyImage, func(r *record) *string { return &r.image })
	productImageField = plainField(PropertyProductImage, func(r *record) *string { return &r.productImage })
	invalidValueField = plainField(PropertyInvalidValue, func(r *record) *bool { return &r.invalidValue })
	displayTypeField  = plainField(PropertyFeatureDisplayType, func(r *record) *FeatureDisplayType { return &r.displayType })
	priorityField     = plainField(PropertyFeaturePriority, func(r *record) *int { return &r.priority })
	controlsField     = field[*status.Controls]{
		prop:  PropertyStatusControls,
		at:    func(r *record) **status.Controls { return &r.controls },
		equal: (*status.Controls).Equal,
		clone: (*status.Controls).Clone,
	}
	graphicsField = field[*status.Graphics]{
		prop:  PropertyStatusGraphics,
		at:    func(r *record) **status.Graphics { return &r.graphics },
		equal: (*status.Graphics).Equal,
		clone: (*status.Graphics).Clone,
	}
	lastChangeField = field[time.Time]{
		prop:  PropertyLastChange,
		at:    func(r *record) *time.Time { return &r.lastChange },
		equal: time.Time.Equal,
	}
)

var fields = map[Property]anyField{
	PropertyRef:                refField,
	PropertyInterface:          interfaceField,
	PropertyRelationship:       relationshipField,
	PropertyAssociatedDevices:  associationsField,
	PropertyAddress:            addressField,
	PropertyName:               nameField,
	PropertyLocation:           locationField,
	PropertyLocation2:          location2Field,
	PropertyValue:              valueField,
	PropertyStatus:             statusField,
	PropertyMisc:               miscField,
	PropertyUserAccess:         userAccessField,
	PropertyUserNote:           userNoteField,
	PropertyVoiceCommand:       voiceCommandField,
	PropertyDeviceType:         typeInfoField,
	PropertyPlugExtraData:      extraDataField,
	PropertyImage:              imageField,
	PropertyProductImage:       productImageField,
	PropertyInvalidValue:       invalidValueField,
	PropertyFeatureDisplayType: displayTypeField,
	PropertyFeaturePriority:    priorityField,
	PropertyStatusControls:     controlsField,
	PropertyStatusGraphics:     graphicsField,
	PropertyLastChange:         lastChangeField,
}

// Validate checks that every key is a known property and every value has
// the property's Go type.
func (c Changes) Validate() error {
	for p, v := range c {
		f, ok := fields[p]
		if !ok {
			return fmt.Errorf("%w: unknown property %d", hserr.ErrInvalidArgument, uint8(p))
		}
		if err := f.check(v); err != nil {
			return err
		}
	}
	return nil
}

// Clone returns a copy whose slice and collection values are not shared.
func (c Changes) Clone() Changes {
	out := make(Changes, len(c))
	for p, v := range c {
		if f, ok := fields[p]; ok {
			out[p] = f.cloneAny(v)
		} else {
			out[p] = v
		}
	}
	return out
}

// Equal reports whether both maps hold equal values for the same keys.
func (c Changes) Equal(other Changes) bool {
	if len(c) != len(other) {
		return false
	}
	for p, v := range c {
		ov, ok := other[p]
		if !ok {
			return false
		}
		f, known := fields[p]
		if !known {
			if !reflect.DeepEqual(v, ov) {
				return false
			}
			continue
		}
		if !f.equalAny(v, ov) {
			return false
		}
	}
	return true
}

// Properties returns the keys in ascending order.
func (c Changes) Properties() []Property {
	return slices.Sorted(maps.Keys(c))
}

// ledger holds the committed record and the overlay of staged changes.
type ledger struct {
	committed   record
	changes     Changes
	stagingOnly bool
}

func getProp[T any](l *ledger, f field[T]) T {
	return f.copy(peekProp(l, f))
}

// peekProp is getProp without the defensive copy. Callers must not
// mutate the result.
func peekProp[T any](l *ledger, f field[T]) T {
	if v, ok := l.changes[f.prop]; ok {
		return v.(T)
	}
	return *f.at(&l.committed)
}

func committedProp[T any](l *ledger, f field[T]) T {
	return f.copy(*f.at(&l.committed))
}

// setProp stages v for f. Setting the committed value drops the overlay
// entry; setting the value already staged changes nothing.
func setProp[T any](l *ledger, f field[T], v T) {
	if cur, ok := l.changes[f.prop]; ok && f.equal(cur.(T), v) {
		return
	}
	if f.equal(*f.at(&l.committed), v) {
		delete(l.changes, f.prop)
		return
	}
	if l.changes == nil {
		l.changes = make(Changes)
	}
	l.changes[f.prop] = f.copy(v)
	if !l.stagingOnly {
		*f.at(&l.committed) = f.copy(v)
	}
}

// load replaces committed values with those in c. Nothing is applied if
// any value is invalid.
func (l *ledger) load(c Changes) error {
	if err := c.Validate(); err != nil {
		return err
	}
	for p, v := range c {
		fields[p].commit(&l.committed, v)
	}
	return nil
}

// Apply commits c directly, as when the controller reports new values,
// and drops any staged entries for the same properties. Nothing is applied
// if any value is invalid.
func (l *ledger) Apply(c Changes) error {
	if err := l.load(c); err != nil {
		return err
	}
	for p := range c {
		delete(l.changes, p)
	}
	return nil
}

// Snapshot returns the committed state as a change map, leaving out
// properties still at their default. An empty status index counts as
// default.
func (l *ledger) Snapshot() Changes {
	out := make(Changes)
	for p, f := range fields {
		v := f.snapshot(&l.committed)
		if reflect.ValueOf(v).IsZero() {
			continue
		}
		if c, ok := v.(interface{ Count() int }); ok && c.Count() == 0 {
			continue
		}
		out[p] = v
	}
	return out
}

// IsStagingOnly reports whether writes stay in the overlay.
func (l *ledger) IsStagingOnly() bool {
	return l.stagingOnly
}

// Changes returns a copy of the staged changes.
func (l *ledger) Changes() Changes {
	return l.changes.Clone()
}

// HasChanges reports whether anything is staged.
func (l *ledger) HasChanges() bool {
	return len(l.changes) > 0
}

// IsChanged reports whether p is staged.
func (l *ledger) IsChanged(p Property) bool {
	_, ok := l.changes[p]
	return ok
}

// RevertChanges discards the staged changes.
func (l *ledger) RevertChanges() {
	l.changes = nil
}

// AcceptChanges makes the staged changes the committed state and clears
// the overlay. Call it once the controller has acknowledged the changes.
func (l *ledger) AcceptChanges() {
	for p, v := range l.changes {
		fields[p].commit(&l.committed, v)
	}
	l.changes = nil
}
