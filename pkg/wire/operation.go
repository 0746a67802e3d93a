package wire

// Operation is a request kind.
type Operation uint8

const (
	// OpCreateDevice creates a device and the features listed with it.
	OpCreateDevice Operation = 1

	// OpCreateFeature creates a feature under an existing device.
	OpCreateFeature Operation = 2

	// OpUpdate applies changes to an existing entity.
	OpUpdate Operation = 3
)

// String returns the operation name.
func (o Operation) String() string {
	switch o {
	case OpCreateDevice:
		return "CreateDevice"
	case OpCreateFeature:
		return "CreateFeature"
	case OpUpdate:
		return "Update"
	default:
		return "Unknown"
	}
}

// IsValid returns true if the operation is known.
func (o Operation) IsValid() bool {
	return o >= OpCreateDevice && o <= OpUpdate
}
