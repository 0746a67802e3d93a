package model

// Device is a parent entity grouping features.
type Device struct {
	entity
}

// NewDevice returns a live device for ref with default committed state.
func NewDevice(ref int) *Device {
	d := &Device{}
	d.committed.ref = ref
	d.committed.relationship = RelationshipDevice
	return d
}

// NewStagedDevice returns a staging-only device owned by pluginID. Its
// committed state stays at defaults and every write lands in Changes.
func NewStagedDevice(pluginID string) *Device {
	d := &Device{}
	d.stagingOnly = true
	d.SetInterface(pluginID)
	return d
}

// LoadDevice returns a live device for ref whose committed state is
// taken from c, as reported by the controller.
func LoadDevice(ref int, c Changes) (*Device, error) {
	d := NewDevice(ref)
	if err := d.load(c); err != nil {
		return nil, err
	}
	d.committed.ref = ref
	return d, nil
}

// ProductImage returns the product image path.
func (d *Device) ProductImage() string { return getProp(&d.ledger, productImageField) }

// SetProductImage sets the product image path.
func (d *Device) SetProductImage(path string) { setProp(&d.ledger, productImageField, path) }

// FeatureRefs returns the refs of the device's features.
func (d *Device) FeatureRefs() []int {
	if d.Relationship() != RelationshipDevice {
		return nil
	}
	return d.AssociatedDevices()
}
