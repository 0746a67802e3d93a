package model

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/hspi-sdk/hspi-go/pkg/hserr"
)

// now is replaced in tests.
var now = time.Now

// entity holds the properties shared by devices and features.
type entity struct {
	ledger
}

// Ref returns the controller-assigned reference, or 0 before creation.
func (e *entity) Ref() int { return getProp(&e.ledger, refField) }

// Interface returns the id of the plugin that owns the entity.
func (e *entity) Interface() string { return getProp(&e.ledger, interfaceField) }

// SetInterface sets the owning plugin id.
func (e *entity) SetInterface(id string) { setProp(&e.ledger, interfaceField, id) }

// Name returns the display name.
func (e *entity) Name() string { return getProp(&e.ledger, nameField) }

// SetName sets the display name.
func (e *entity) SetName(name string) { setProp(&e.ledger, nameField, name) }

// Address returns the plugin-defined address.
func (e *entity) Address() string { return getProp(&e.ledger, addressField) }

// SetAddress sets the plugin-defined address.
func (e *entity) SetAddress(address string) { setProp(&e.ledger, addressField, address) }

// Location returns the primary location.
func (e *entity) Location() string { return getProp(&e.ledger, locationField) }

// SetLocation sets the primary location.
func (e *entity) SetLocation(location string) { setProp(&e.ledger, locationField, location) }

// Location2 returns the secondary location.
func (e *entity) Location2() string { return getProp(&e.ledger, location2Field) }

// SetLocation2 sets the secondary location.
func (e *entity) SetLocation2(location string) { setProp(&e.ledger, location2Field, location) }

// Value returns the current value.
func (e *entity) Value() float64 { return getProp(&e.ledger, valueField) }

// SetValue sets the value and stamps LastChange.
//
// LastChange is left alone when the value does not change and the entity
// carries MiscSetDoesNotChangeLastChange, and always on staging-only
// entities, whose timestamps the controller assigns.
func (e *entity) SetValue(v float64) {
	same := e.Value() == v
	setProp(&e.ledger, valueField, v)
	if e.stagingOnly || (same && e.ContainsMiscFlag(MiscSetDoesNotChangeLastChange)) {
		return
	}
	setProp(&e.ledger, lastChangeField, now())
}

// Status returns the status text.
func (e *entity) Status() string { return getProp(&e.ledger, statusField) }

// SetStatus sets the status text.
func (e *entity) SetStatus(s string) { setProp(&e.ledger, statusField, s) }

// LastChange returns when the value last changed.
func (e *entity) LastChange() time.Time { return getProp(&e.ledger, lastChangeField) }

// UserAccess returns the access level string.
func (e *entity) UserAccess() string { return getProp(&e.ledger, userAccessField) }

// SetUserAccess sets the access level string.
func (e *entity) SetUserAccess(access string) { setProp(&e.ledger, userAccessField, access) }

// UserNote returns the free-form user note.
func (e *entity) UserNote() string { return getProp(&e.ledger, userNoteField) }

// SetUserNote sets the free-form user note.
func (e *entity) SetUserNote(note string) { setProp(&e.ledger, userNoteField, note) }

// VoiceCommand returns the voice command phrase.
func (e *entity) VoiceCommand() string { return getProp(&e.ledger, voiceCommandField) }

// SetVoiceCommand sets the voice command phrase.
func (e *entity) SetVoiceCommand(cmd string) { setProp(&e.ledger, voiceCommandField, cmd) }

// TypeInfo returns the entity classification.
func (e *entity) TypeInfo() TypeInfo { return getProp(&e.ledger, typeInfoField) }

// SetTypeInfo sets the entity classification.
func (e *entity) SetTypeInfo(t TypeInfo) { setProp(&e.ledger, typeInfoField, t) }

// PlugExtraData returns a copy of the plugin data, or nil.
func (e *entity) PlugExtraData() *PlugExtraData { return getProp(&e.ledger, extraDataField) }

// SetPlugExtraData replaces the plugin data. Nil clears it.
func (e *entity) SetPlugExtraData(d *PlugExtraData) { setProp(&e.ledger, extraDataField, d) }

// Image returns the image path.
func (e *entity) Image() string { return getProp(&e.ledger, imageField) }

// SetImage sets the image path.
func (e *entity) SetImage(path string) { setProp(&e.ledger, imageField, path) }

// IsValueInvalid reports whether the value is flagged as unreliable.
func (e *entity) IsValueInvalid() bool { return getProp(&e.ledger, invalidValueField) }

// SetValueInvalid flags the value as unreliable.
func (e *entity) SetValueInvalid(invalid bool) { setProp(&e.ledger, invalidValueField, invalid) }

// Misc returns the miscellaneous flags.
func (e *entity) Misc() MiscFlag { return getProp(&e.ledger, miscField) }

// SetMisc replaces the miscellaneous flags.
func (e *entity) SetMisc(m MiscFlag) { setProp(&e.ledger, miscField, m) }

// AddMiscFlags sets the bits of flags.
func (e *entity) AddMiscFlags(flags MiscFlag) {
	e.SetMisc(e.Misc() | flags)
}

// RemoveMiscFlags clears the bits of flags that are set.
func (e *entity) RemoveMiscFlags(flags MiscFlag) {
	cur := e.Misc()
	e.SetMisc(cur ^ (cur & flags))
}

// ContainsMiscFlag reports whether every bit of flag is set.
func (e *entity) ContainsMiscFlag(flag MiscFlag) bool {
	return e.Misc().Contains(flag)
}

// ClearMiscFlags clears every flag.
func (e *entity) ClearMiscFlags() { e.SetMisc(0) }

// Relationship returns the role of the entity in the hierarchy.
func (e *entity) Relationship() Relationship { return getProp(&e.ledger, relationshipField) }

// SetRelationship changes the role of the entity. It fails with
// hserr.ErrRelationshipConflict when the role would change while
// associations exist.
func (e *entity) SetRelationship(r Relationship) error {
	if !r.IsValid() {
		return fmt.Errorf("%w: relationship %d", hserr.ErrInvalidArgument, r)
	}
	cur := e.Relationship()
	if r == cur {
		return nil
	}
	if n := len(peekProp(&e.ledger, associationsField)); n > 0 {
		return fmt.Errorf("%w: cannot change %s to %s with %d associations",
			hserr.ErrRelationshipConflict, cur, r, n)
	}
	setProp(&e.ledger, relationshipField, r)
	return nil
}

// AssociatedDevices returns the associated refs in ascending order.
func (e *entity) AssociatedDevices() []int { return getProp(&e.ledger, associationsField) }

// AssociatedDeviceCount returns the number of associated refs.
func (e *entity) AssociatedDeviceCount() int {
	return len(peekProp(&e.ledger, associationsField))
}

// IsAssociatedWith reports whether ref is associated.
func (e *entity) IsAssociatedWith(ref int) bool {
	_, found := slices.BinarySearch(peekProp(&e.ledger, associationsField), ref)
	return found
}

// AssociateDevice adds ref to the association set.
func (e *entity) AssociateDevice(ref int) error {
	if ref <= 0 {
		return fmt.Errorf("%w: ref %d", hserr.ErrInvalidArgument, ref)
	}
	cur := peekProp(&e.ledger, associationsField)
	idx, found := slices.BinarySearch(cur, ref)
	if found {
		return nil
	}
	setProp(&e.ledger, associationsField, slices.Insert(slices.Clone(cur), idx, ref))
	return nil
}

// DisassociateDevice removes ref and reports whether it was present.
func (e *entity) DisassociateDevice(ref int) bool {
	cur := peekProp(&e.ledger, associationsField)
	idx, found := slices.BinarySearch(cur, ref)
	if !found {
		return false
	}
	setProp(&e.ledger, associationsField, slices.Delete(slices.Clone(cur), idx, idx+1))
	return true
}

// ClearAssociatedDevices empties the association set.
func (e *entity) ClearAssociatedDevices() {
	setProp(&e.ledger, associationsField, nil)
}

// SetParentDevice makes the entity a feature of the device ref, staging the
// relationship and the single association together.
//
// It fails with hserr.ErrRelationshipConflict, changing nothing, when the
// entity is a device that already has features associated.
func (e *entity) SetParentDevice(ref int) error {
	if ref <= 0 {
		return fmt.Errorf("%w: ref %d", hserr.ErrInvalidArgument, ref)
	}
	if e.Relationship() == RelationshipDevice && e.AssociatedDeviceCount() > 0 {
		return fmt.Errorf("%w: entity is a device with %d features",
			hserr.ErrRelationshipConflict, e.AssociatedDeviceCount())
	}
	setProp(&e.ledger, relationshipField, RelationshipFeature)
	setProp(&e.ledger, associationsField, []int{ref})
	return nil
}

// ParentDevice returns the device ref of a feature.
func (e *entity) ParentDevice() (int, bool) {
	refs := peekProp(&e.ledger, associationsField)
	if e.Relationship() != RelationshipFeature || len(refs) != 1 {
		return 0, false
	}
	return refs[0], true
}

// String returns a short description for logs.
func (e *entity) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s#%d", e.Relationship(), e.Ref())
	if name := e.Name(); name != "" {
		fmt.Fprintf(&sb, " %q", name)
	}
	return sb.String()
}
