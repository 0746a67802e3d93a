package model

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/hspi-sdk/hspi-go/pkg/hserr"
)

// PlugExtraData is plugin-private data stored on an entity by the
// controller. It holds named values and an ordered list of unnamed values.
type PlugExtraData struct {
	Named   map[string]string `cbor:"1,keyasint,omitempty"`
	Unnamed []string          `cbor:"2,keyasint,omitempty"`
}

// NewPlugExtraData returns empty extra data.
func NewPlugExtraData() *PlugExtraData {
	return &PlugExtraData{}
}

// AddNamed stores value under key. The key must not be blank or already used.
func (d *PlugExtraData) AddNamed(key, value string) error {
	if strings.TrimSpace(key) == "" {
		return fmt.Errorf("%w: blank extra data key", hserr.ErrInvalidArgument)
	}
	if _, ok := d.Named[key]; ok {
		return fmt.Errorf("%w: extra data key %q", hserr.ErrOverlap, key)
	}
	if d.Named == nil {
		d.Named = make(map[string]string)
	}
	d.Named[key] = value
	return nil
}

// SetNamed stores value under key, replacing any previous value.
func (d *PlugExtraData) SetNamed(key, value string) error {
	if strings.TrimSpace(key) == "" {
		return fmt.Errorf("%w: blank extra data key", hserr.ErrInvalidArgument)
	}
	if d.Named == nil {
		d.Named = make(map[string]string)
	}
	d.Named[key] = value
	return nil
}

// GetNamed returns the value stored under key.
func (d *PlugExtraData) GetNamed(key string) (string, bool) {
	if d == nil {
		return "", false
	}
	v, ok := d.Named[key]
	return v, ok
}

// RemoveNamed deletes key and reports whether it was present.
func (d *PlugExtraData) RemoveNamed(key string) bool {
	if _, ok := d.Named[key]; !ok {
		return false
	}
	delete(d.Named, key)
	return true
}

// NamedKeys returns the named keys in sorted order.
func (d *PlugExtraData) NamedKeys() []string {
	if d == nil {
		return nil
	}
	return slices.Sorted(maps.Keys(d.Named))
}

// AddUnnamed appends value and returns its index.
func (d *PlugExtraData) AddUnnamed(value string) int {
	d.Unnamed = append(d.Unnamed, value)
	return len(d.Unnamed) - 1
}

// Len returns the total number of stored values.
func (d *PlugExtraData) Len() int {
	if d == nil {
		return 0
	}
	return len(d.Named) + len(d.Unnamed)
}

// Clone returns an independent copy.
func (d *PlugExtraData) Clone() *PlugExtraData {
	if d == nil {
		return nil
	}
	return &PlugExtraData{
		Named:   maps.Clone(d.Named),
		Unnamed: slices.Clone(d.Unnamed),
	}
}

// Equal reports whether both hold the same values. Nil equals empty.
func (d *PlugExtraData) Equal(other *PlugExtraData) bool {
	if d.Len() != other.Len() {
		return false
	}
	if d.Len() == 0 {
		return true
	}
	return maps.Equal(d.Named, other.Named) && slices.Equal(d.Unnamed, other.Unnamed)
}
