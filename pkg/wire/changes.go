package wire

import (
	"fmt"
	"time"

	"github.com/fxamacker/cbor/v2"

	"github.com/hspi-sdk/hspi-go/pkg/hserr"
	"github.com/hspi-sdk/hspi-go/pkg/model"
	"github.com/hspi-sdk/hspi-go/pkg/status"
)

// RawChanges is an entity change map as it travels on the wire. Each value
// is the CBOR encoding of the property's value.
type RawChanges map[uint8]cbor.RawMessage

// RangeRecord is the wire form of a status.ValueRange.
type RangeRecord struct {
	Min           float64 `cbor:"1,keyasint"`
	Max           float64 `cbor:"2,keyasint"`
	Offset        float64 `cbor:"3,keyasint,omitempty"`
	Divisor       float64 `cbor:"4,keyasint"`
	DecimalPlaces int     `cbor:"5,keyasint,omitempty"`
	Prefix        string  `cbor:"6,keyasint,omitempty"`
	Suffix        string  `cbor:"7,keyasint,omitempty"`
}

// ControlRecord is the wire form of a status.StatusControl. Exactly one
// of Value and Range is set.
type ControlRecord struct {
	Value     *float64     `cbor:"1,keyasint,omitempty"`
	Range     *RangeRecord `cbor:"2,keyasint,omitempty"`
	Label     string       `cbor:"3,keyasint,omitempty"`
	Use       uint16       `cbor:"4,keyasint,omitempty"`
	Type      uint8        `cbor:"5,keyasint"`
	Row       int          `cbor:"6,keyasint,omitempty"`
	Column    int          `cbor:"7,keyasint,omitempty"`
	Width     int          `cbor:"8,keyasint"`
	States    []string     `cbor:"9,keyasint,omitempty"`
	IsDefault bool         `cbor:"10,keyasint,omitempty"`
}

// GraphicRecord is the wire form of a status.StatusGraphic. Exactly one
// of Value and Range is set.
type GraphicRecord struct {
	Value     *float64     `cbor:"1,keyasint,omitempty"`
	Range     *RangeRecord `cbor:"2,keyasint,omitempty"`
	Label     string       `cbor:"3,keyasint,omitempty"`
	ImagePath string       `cbor:"4,keyasint"`
}

// propCodec converts one property value between its model type and a
// CBOR-encodable form.
type propCodec struct {
	encode func(v any) (any, error)
	decode func(raw cbor.RawMessage) (any, error)
}

func asIs[T any]() propCodec {
	return propCodec{
		encode: func(v any) (any, error) { return v, nil },
		decode: func(raw cbor.RawMessage) (any, error) {
			var v T
			if err := Unmarshal(raw, &v); err != nil {
				return nil, err
			}
			return v, nil
		},
	}
}

var codecs = map[model.Property]propCodec{
	model.PropertyRef:                asIs[int](),
	model.PropertyInterface:          asIs[string](),
	model.PropertyRelationship:       asIs[model.Relationship](),
	model.PropertyAssociatedDevices:  asIs[[]int](),
	model.PropertyAddress:            asIs[string](),
	model.PropertyName:               asIs[string](),
	model.PropertyLocation:           asIs[string](),
	model.PropertyLocation2:          asIs[string](),
	model.PropertyValue:              asIs[float64](),
	model.PropertyStatus:             asIs[string](),
	model.PropertyMisc:               asIs[model.MiscFlag](),
	model.PropertyUserAccess:         asIs[string](),
	model.PropertyUserNote:           asIs[string](),
	model.PropertyVoiceCommand:       asIs[string](),
	model.PropertyDeviceType:         asIs[model.TypeInfo](),
	model.PropertyPlugExtraData:      asIs[*model.PlugExtraData](),
	model.PropertyImage:              asIs[string](),
	model.PropertyProductImage:       asIs[string](),
	model.PropertyInvalidValue:       asIs[bool](),
	model.PropertyFeatureDisplayType: asIs[model.FeatureDisplayType](),
	model.PropertyFeaturePriority:    asIs[int](),
	model.PropertyStatusControls: {
		encode: func(v any) (any, error) { return controlRecords(v.(*status.Controls)), nil },
		decode: decodeControls,
	},
	model.PropertyStatusGraphics: {
		encode: func(v any) (any, error) { return graphicRecords(v.(*status.Graphics)), nil },
		decode: decodeGraphics,
	},
	model.PropertyLastChange: {
		encode: func(v any) (any, error) { return v, nil },
		decode: func(raw cbor.RawMessage) (any, error) {
			var t time.Time
			if err := Unmarshal(raw, &t); err != nil {
				return nil, err
			}
			return t.UTC(), nil
		},
	},
}

// EncodeChanges converts c to its wire form. Values must have the Go type
// of their property.
func EncodeChanges(c model.Changes) (RawChanges, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	out := make(RawChanges, len(c))
	for p, v := range c {
		codec, ok := codecs[p]
		if !ok {
			return nil, fmt.Errorf("%w: no wire encoding for %s", hserr.ErrInvalidArgument, p)
		}
		enc, err := codec.encode(v)
		if err != nil {
			return nil, fmt.Errorf("encode %s: %w", p, err)
		}
		data, err := Marshal(enc)
		if err != nil {
			return nil, fmt.Errorf("encode %s: %w", p, err)
		}
		out[uint8(p)] = data
	}
	return out, nil
}

// DecodeChanges converts a wire change map back to model values. Unknown
// keys and malformed values fail with hserr.ErrInvalidArgument.
func DecodeChanges(raw RawChanges) (model.Changes, error) {
	out := make(model.Changes, len(raw))
	for key, data := range raw {
		p := model.Property(key)
		codec, ok := codecs[p]
		if !ok {
			return nil, fmt.Errorf("%w: unknown property key %d", hserr.ErrInvalidArgument, key)
		}
		v, err := codec.decode(data)
		if err != nil {
			return nil, fmt.Errorf("%w: decode %s: %v", hserr.ErrInvalidArgument, p, err)
		}
		out[p] = v
	}
	return out, nil
}

func rangeRecord(r *status.ValueRange) *RangeRecord {
	return &RangeRecord{
		Min:           r.Min(),
		Max:           r.Max(),
		Offset:        r.Offset(),
		Divisor:       r.Divisor(),
		DecimalPlaces: r.DecimalPlaces(),
		Prefix:        r.Prefix(),
		Suffix:        r.Suffix(),
	}
}

// ValueRange rebuilds the range, validating every field.
//
// Bounds are replayed through the setters so that a range whose bounds
// crossed while the other one was zero decodes as it was encoded.
func (rr *RangeRecord) ValueRange() (*status.ValueRange, error) {
	r, err := status.NewValueRange(0, 0)
	if err != nil {
		return nil, err
	}
	if rr.Max != 0 {
		if err := r.SetMax(rr.Max); err != nil {
			return nil, err
		}
	}
	if rr.Min != 0 {
		if err := r.SetMin(rr.Min); err != nil {
			return nil, err
		}
	}
	r.SetOffset(rr.Offset)
	if err := r.SetDivisor(rr.Divisor); err != nil {
		return nil, err
	}
	if err := r.SetDecimalPlaces(rr.DecimalPlaces); err != nil {
		return nil, err
	}
	r.SetPrefix(rr.Prefix)
	r.SetSuffix(rr.Suffix)
	return r, nil
}

func targetOf(value *float64, rr *RangeRecord) (status.Target, error) {
	switch {
	case value != nil && rr != nil:
		return nil, fmt.Errorf("%w: entry has both value and range", hserr.ErrInvalidArgument)
	case value != nil:
		return status.Point(*value), nil
	case rr != nil:
		return rr.ValueRange()
	default:
		return nil, fmt.Errorf("%w: entry has neither value nor range", hserr.ErrInvalidArgument)
	}
}

func recordTarget(t status.Target) (*float64, *RangeRecord) {
	if r := status.TargetRange(t); r != nil {
		return nil, rangeRecord(r)
	}
	v := t.(status.Point).Value()
	return &v, nil
}

func controlRecords(c *status.Controls) []ControlRecord {
	out := make([]ControlRecord, 0, c.Count())
	for _, sc := range c.Values() {
		value, rr := recordTarget(sc.Target())
		loc := sc.Location()
		out = append(out, ControlRecord{
			Value:     value,
			Range:     rr,
			Label:     sc.Label(),
			Use:       uint16(sc.ControlUse()),
			Type:      uint8(sc.ControlType()),
			Row:       loc.Row,
			Column:    loc.Column,
			Width:     loc.Width,
			States:    sc.States(),
			IsDefault: sc.IsDefault(),
		})
	}
	return out
}

// StatusControl rebuilds the control.
func (cr *ControlRecord) StatusControl() (*status.StatusControl, error) {
	target, err := targetOf(cr.Value, cr.Range)
	if err != nil {
		return nil, err
	}
	sc, err := status.NewStatusControl(status.ControlType(cr.Type), target)
	if err != nil {
		return nil, err
	}
	sc.SetLabel(cr.Label)
	if err := sc.SetControlUse(status.ControlUse(cr.Use)); err != nil {
		return nil, err
	}
	loc := status.ControlLocation{Row: cr.Row, Column: cr.Column, Width: cr.Width}
	if err := sc.SetLocation(loc); err != nil {
		return nil, err
	}
	if err := sc.SetStates(cr.States); err != nil {
		return nil, err
	}
	sc.SetDefault(cr.IsDefault)
	return sc, nil
}

func decodeControls(raw cbor.RawMessage) (any, error) {
	var records []ControlRecord
	if err := Unmarshal(raw, &records); err != nil {
		return nil, err
	}
	controls := status.NewControls()
	for i := range records {
		sc, err := records[i].StatusControl()
		if err != nil {
			return nil, fmt.Errorf("control %d: %w", i, err)
		}
		if err := controls.Add(sc); err != nil {
			return nil, fmt.Errorf("control %d: %w", i, err)
		}
	}
	return controls, nil
}

func graphicRecords(g *status.Graphics) []GraphicRecord {
	out := make([]GraphicRecord, 0, g.Count())
	for _, sg := range g.Values() {
		value, rr := recordTarget(sg.Target())
		out = append(out, GraphicRecord{
			Value:     value,
			Range:     rr,
			Label:     sg.Label(),
			ImagePath: sg.ImagePath(),
		})
	}
	return out
}

// StatusGraphic rebuilds the graphic.
func (gr *GraphicRecord) StatusGraphic() (*status.StatusGraphic, error) {
	target, err := targetOf(gr.Value, gr.Range)
	if err != nil {
		return nil, err
	}
	sg, err := status.NewStatusGraphic(gr.ImagePath, target)
	if err != nil {
		return nil, err
	}
	sg.SetLabel(gr.Label)
	return sg, nil
}

func decodeGraphics(raw cbor.RawMessage) (any, error) {
	var records []GraphicRecord
	if err := Unmarshal(raw, &records); err != nil {
		return nil, err
	}
	graphics := status.NewGraphics()
	for i := range records {
		sg, err := records[i].StatusGraphic()
		if err != nil {
			return nil, fmt.Errorf("graphic %d: %w", i, err)
		}
		if err := graphics.Add(sg); err != nil {
			return nil, fmt.Errorf("graphic %d: %w", i, err)
		}
	}
	return graphics, nil
}
