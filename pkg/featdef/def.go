package featdef

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/hspi-sdk/hspi-go/pkg/hserr"
)

// DeviceDef is a device template.
type DeviceDef struct {
	Name         string            `yaml:"name"`
	Location     string            `yaml:"location,omitempty"`
	Location2    string            `yaml:"location2,omitempty"`
	Address      string            `yaml:"address,omitempty"`
	Type         *TypeDef          `yaml:"type,omitempty"`
	Misc         []string          `yaml:"misc,omitempty"`
	ProductImage string            `yaml:"product_image,omitempty"`
	Extra        map[string]string `yaml:"extra,omitempty"`
	Features     []FeatureDef      `yaml:"features"`
}

// FeatureDef is a feature template.
type FeatureDef struct {
	Name      string            `yaml:"name"`
	Location  string            `yaml:"location,omitempty"`
	Location2 string            `yaml:"location2,omitempty"`
	Address   string            `yaml:"address,omitempty"`
	Type      *TypeDef          `yaml:"type,omitempty"`
	Misc      []string          `yaml:"misc,omitempty"`
	Display   string            `yaml:"display,omitempty"`
	Priority  int               `yaml:"priority,omitempty"`
	Value     *float64          `yaml:"value,omitempty"`
	Extra     map[string]string `yaml:"extra,omitempty"`
	Controls  []ControlDef      `yaml:"controls,omitempty"`
	Graphics  []GraphicDef      `yaml:"graphics,omitempty"`
}

// TypeDef classifies an entity.
type TypeDef struct {
	Type        int    `yaml:"type"`
	SubType     int    `yaml:"subtype,omitempty"`
	Description string `yaml:"description,omitempty"`
}

// ControlDef is one status control. Exactly one of Value, Range and
// Options is set. Options expands to one control per label and is only
// allowed for select and radio controls.
type ControlDef struct {
	Type     string             `yaml:"type"`
	Value    *float64           `yaml:"value,omitempty"`
	Range    *RangeDef          `yaml:"range,omitempty"`
	Options  map[string]float64 `yaml:"options,omitempty"`
	Label    string             `yaml:"label,omitempty"`
	Use      string             `yaml:"use,omitempty"`
	Location *LocationDef       `yaml:"location,omitempty"`
	States   []string           `yaml:"states,omitempty"`
	Default  bool               `yaml:"default,omitempty"`
}

// GraphicDef is one status graphic. Exactly one of Value and Range is set.
type GraphicDef struct {
	Image string    `yaml:"image"`
	Value *float64  `yaml:"value,omitempty"`
	Range *RangeDef `yaml:"range,omitempty"`
	Label string    `yaml:"label,omitempty"`
}

// RangeDef is a value range. Decimals left out keeps the range's own
// default.
type RangeDef struct {
	Min      float64  `yaml:"min"`
	Max      float64  `yaml:"max"`
	Offset   float64  `yaml:"offset,omitempty"`
	Divisor  *float64 `yaml:"divisor,omitempty"`
	Decimals *int     `yaml:"decimals,omitempty"`
	Prefix   string   `yaml:"prefix,omitempty"`
	Suffix   string   `yaml:"suffix,omitempty"`
}

// LocationDef places a control on the grid.
type LocationDef struct {
	Row    int `yaml:"row"`
	Column int `yaml:"column"`
	Width  int `yaml:"width"`
}

// Parse decodes every YAML document in data as a device template.
// Unknown keys are rejected.
func Parse(data []byte) ([]*DeviceDef, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var defs []*DeviceDef
	for {
		var def DeviceDef
		err := dec.Decode(&def)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: template %d: %v", hserr.ErrInvalidArgument, len(defs)+1, err)
		}
		if def.Name == "" {
			return nil, fmt.Errorf("%w: template %d: device name is required", hserr.ErrInvalidArgument, len(defs)+1)
		}
		defs = append(defs, &def)
	}
	if len(defs) == 0 {
		return nil, fmt.Errorf("%w: no device templates", hserr.ErrInvalidArgument)
	}
	return defs, nil
}

// Load reads and parses a template file.
func Load(path string) ([]*DeviceDef, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read templates: %w", err)
	}
	defs, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return defs, nil
}

// Marshal encodes def as YAML.
func Marshal(def *DeviceDef) ([]byte, error) {
	return yaml.Marshal(def)
}
