package model

import (
	"fmt"
	"strings"

	"github.com/hspi-sdk/hspi-go/pkg/hserr"
)

// Property identifies one tracked entity property. The numeric value is the
// key used in change payloads sent to the controller, so existing values must
// never be renumbered.
type Property uint8

const (
	PropertyRef                Property = 1  // int
	PropertyInterface          Property = 2  // string
	PropertyRelationship       Property = 3  // Relationship
	PropertyAssociatedDevices  Property = 4  // []int
	PropertyAddress            Property = 5  // string
	PropertyName               Property = 6  // string
	PropertyLocation           Property = 7  // string
	PropertyLocation2          Property = 8  // string
	PropertyValue              Property = 9  // float64
	PropertyStatus             Property = 10 // string
	PropertyMisc               Property = 11 // MiscFlag
	PropertyUserAccess         Property = 12 // string
	PropertyUserNote           Property = 13 // string
	PropertyVoiceCommand       Property = 14 // string
	PropertyDeviceType         Property = 15 // TypeInfo
	PropertyPlugExtraData      Property = 16 // *PlugExtraData
	PropertyImage              Property = 17 // string
	PropertyProductImage       Property = 18 // string
	PropertyInvalidValue       Property = 19 // bool
	PropertyFeatureDisplayType Property = 20 // FeatureDisplayType
	PropertyFeaturePriority    Property = 21 // int
	PropertyStatusControls     Property = 22 // *status.Controls
	PropertyStatusGraphics     Property = 23 // *status.Graphics
	PropertyLastChange         Property = 24 // time.Time
)

var propertyNames = map[Property]string{
	PropertyRef:                "Ref",
	PropertyInterface:          "Interface",
	PropertyRelationship:       "Relationship",
	PropertyAssociatedDevices:  "AssociatedDevices",
	PropertyAddress:            "Address",
	PropertyName:               "Name",
	PropertyLocation:           "Location",
	PropertyLocation2:          "Location2",
	PropertyValue:              "Value",
	PropertyStatus:             "Status",
	PropertyMisc:               "Misc",
	PropertyUserAccess:         "UserAccess",
	PropertyUserNote:           "UserNote",
	PropertyVoiceCommand:       "VoiceCommand",
	PropertyDeviceType:         "DeviceType",
	PropertyPlugExtraData:      "PlugExtraData",
	PropertyImage:              "Image",
	PropertyProductImage:       "ProductImage",
	PropertyInvalidValue:       "InvalidValue",
	PropertyFeatureDisplayType: "FeatureDisplayType",
	PropertyFeaturePriority:    "FeaturePriority",
	PropertyStatusControls:     "StatusControls",
	PropertyStatusGraphics:     "StatusGraphics",
	PropertyLastChange:         "LastChange",
}

// String returns the property name.
func (p Property) String() string {
	if name, ok := propertyNames[p]; ok {
		return name
	}
	return fmt.Sprintf("Property(%d)", uint8(p))
}

// IsValid reports whether p is a known property.
func (p Property) IsValid() bool {
	_, ok := propertyNames[p]
	return ok
}

// Properties returns every known property in key order.
func Properties() []Property {
	out := make([]Property, 0, len(propertyNames))
	for p := PropertyRef; p <= PropertyLastChange; p++ {
		out = append(out, p)
	}
	return out
}

// FeatureDisplayType controls how the controller lays out a feature.
type FeatureDisplayType uint8

const (
	DisplayNormal FeatureDisplayType = iota
	DisplayHighlight
	DisplayHidden
)

// String returns the display type name.
func (d FeatureDisplayType) String() string {
	switch d {
	case DisplayNormal:
		return "normal"
	case DisplayHighlight:
		return "highlight"
	case DisplayHidden:
		return "hidden"
	default:
		return "unknown"
	}
}

// ParseFeatureDisplayType converts a name produced by String back to a
// FeatureDisplayType. "" maps to DisplayNormal.
func ParseFeatureDisplayType(s string) (FeatureDisplayType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "normal":
		return DisplayNormal, nil
	case "highlight":
		return DisplayHighlight, nil
	case "hidden":
		return DisplayHidden, nil
	default:
		return 0, fmt.Errorf("%w: unknown display type %q", hserr.ErrInvalidArgument, s)
	}
}
