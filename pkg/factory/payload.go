package factory

import "github.com/hspi-sdk/hspi-go/pkg/model"

// NewDeviceData is the staged payload for creating a device, together with
// the features to create under it.
type NewDeviceData struct {
	Changes  model.Changes
	Features []model.Changes
}

// NewFeatureData is the staged payload for creating a feature on an
// existing device.
type NewFeatureData struct {
	Changes model.Changes
}

// ParentRef returns the device the feature is created under, or 0.
func (d *NewFeatureData) ParentRef() int {
	refs, _ := d.Changes[model.PropertyAssociatedDevices].([]int)
	if len(refs) != 1 {
		return 0
	}
	return refs[0]
}
