package model

// APIType says which kind of entity a TypeInfo describes.
type APIType uint8

const (
	APITypeNotSpecified APIType = iota
	APITypeDevice
	APITypeFeature
)

// String returns the API type name.
func (a APIType) String() string {
	switch a {
	case APITypeNotSpecified:
		return "not-specified"
	case APITypeDevice:
		return "device"
	case APITypeFeature:
		return "feature"
	default:
		return "unknown"
	}
}

// TypeInfo classifies an entity for the controller.
type TypeInfo struct {
	APIType            APIType `cbor:"1,keyasint"`
	Type               int     `cbor:"2,keyasint"`
	SubType            int     `cbor:"3,keyasint"`
	SubTypeDescription string  `cbor:"4,keyasint,omitempty"`
}

// IsZero reports whether t holds no classification.
func (t TypeInfo) IsZero() bool {
	return t == TypeInfo{}
}
