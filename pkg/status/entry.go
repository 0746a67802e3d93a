package status

import (
	"fmt"
	"hash/fnv"
	"math"
	"slices"
	"strings"

	"github.com/hspi-sdk/hspi-go/pkg/hserr"
)

// Entry is a status entry anchored to a Point or a ValueRange.
// *StatusControl and *StatusGraphic implement it.
type Entry interface {
	// Target returns the point or range the entry is anchored to.
	Target() Target

	// Anchor is the point value, or the range minimum.
	Anchor() float64

	// IsRange reports whether the entry is anchored to a ValueRange.
	IsRange() bool

	// IsValueInRange reports whether v selects this entry.
	IsValueInRange(v float64) bool

	// Label is the display text of the entry.
	Label() string

	// HashCode is a weak identity used by Collection.Remove.
	HashCode() uint64

	// Equal reports full equality with another entry.
	Equal(other Entry) bool

	cloneEntry() Entry
}

func checkTarget(t Target) error {
	if t == nil {
		return fmt.Errorf("%w: nil target", hserr.ErrInvalidArgument)
	}
	if r, ok := t.(*ValueRange); ok && r == nil {
		return fmt.Errorf("%w: nil range", hserr.ErrInvalidArgument)
	}
	if math.IsNaN(t.anchor()) || math.IsNaN(t.upper()) {
		return fmt.Errorf("%w: NaN target", hserr.ErrInvalidArgument)
	}
	return nil
}

func combineHash(base uint64, parts ...string) uint64 {
	h := fnv.New64a()
	for _, p := range parts {
		h.Write([]byte(p))
		h.Write([]byte{0})
	}
	return base*31 ^ h.Sum64()
}

// StatusControl is an interactive (or status-only) control the controller
// shows for a value or range of values.
type StatusControl struct {
	target    Target
	label     string
	use       ControlUse
	ctype     ControlType
	location  ControlLocation
	states    []string
	isDefault bool
}

// NewStatusControl creates a control of the given type anchored to t.
func NewStatusControl(ctype ControlType, t Target) (*StatusControl, error) {
	if err := checkTarget(t); err != nil {
		return nil, err
	}
	if !ctype.IsValid() {
		return nil, fmt.Errorf("%w: control type %d", hserr.ErrInvalidArgument, ctype)
	}
	return &StatusControl{
		target:   t,
		ctype:    ctype,
		location: DefaultLocation,
	}, nil
}

// NewPointControl creates a control anchored to a single value.
func NewPointControl(ctype ControlType, value float64, label string) (*StatusControl, error) {
	c, err := NewStatusControl(ctype, Point(value))
	if err != nil {
		return nil, err
	}
	c.label = label
	return c, nil
}

// NewRangeControl creates a control anchored to r.
func NewRangeControl(ctype ControlType, r *ValueRange, label string) (*StatusControl, error) {
	c, err := NewStatusControl(ctype, r)
	if err != nil {
		return nil, err
	}
	c.label = label
	return c, nil
}

func (c *StatusControl) Target() Target  { return c.target }
func (c *StatusControl) Anchor() float64 { return c.target.anchor() }
func (c *StatusControl) IsRange() bool   { return c.target.isRange() }
func (c *StatusControl) Label() string   { return c.label }

// TargetRange returns the anchoring range, or nil for point controls.
func (c *StatusControl) TargetRange() *ValueRange { return TargetRange(c.target) }

// TargetValue returns the anchoring point value (the range min for ranges).
func (c *StatusControl) TargetValue() float64 { return c.target.anchor() }

// IsValueInRange reports whether v selects this control.
func (c *StatusControl) IsValueInRange(v float64) bool { return c.target.contains(v) }

// ControlUse returns the semantic tag of the control.
func (c *StatusControl) ControlUse() ControlUse { return c.use }

// ControlType returns the widget type.
func (c *StatusControl) ControlType() ControlType { return c.ctype }

// Location returns the grid location.
func (c *StatusControl) Location() ControlLocation { return c.location }

// States returns the discrete state labels, if any.
func (c *StatusControl) States() []string { return slices.Clone(c.states) }

// IsDefault reports whether this is the preferred control for its use.
func (c *StatusControl) IsDefault() bool { return c.isDefault }

// SetLabel sets the display text.
func (c *StatusControl) SetLabel(label string) { c.label = label }

// SetControlUse sets the semantic tag.
func (c *StatusControl) SetControlUse(use ControlUse) error {
	if !use.IsValid() {
		return fmt.Errorf("%w: control use %d", hserr.ErrInvalidArgument, use)
	}
	c.use = use
	return nil
}

// SetLocation moves the control on the grid.
func (c *StatusControl) SetLocation(loc ControlLocation) error {
	if err := loc.Validate(); err != nil {
		return err
	}
	c.location = loc
	return nil
}

// SetStates sets discrete labels for min, min+1, ... of a range control.
// The list may not be longer than the range is wide.
func (c *StatusControl) SetStates(states []string) error {
	if len(states) == 0 {
		c.states = nil
		return nil
	}
	r := c.TargetRange()
	if r == nil {
		return fmt.Errorf("%w: states need a range target", hserr.ErrInvalidOperation)
	}
	if float64(len(states)-1) > r.Max()-r.Min() {
		return fmt.Errorf("%w: %d states do not fit %s", hserr.ErrOutOfRange, len(states), r)
	}
	c.states = slices.Clone(states)
	return nil
}

// SetDefault marks the control as preferred.
func (c *StatusControl) SetDefault(isDefault bool) { c.isDefault = isDefault }

// LabelForValue returns the text shown when the feature holds v.
func (c *StatusControl) LabelForValue(v float64) string {
	r := c.TargetRange()
	if r == nil {
		return c.label
	}
	if len(c.states) > 0 {
		idx := int(math.Round(v - r.Min()))
		if idx >= 0 && idx < len(c.states) {
			return c.states[idx]
		}
	}
	if strings.TrimSpace(c.label) != "" {
		return c.label
	}
	return r.StringForValue(v)
}

// CreateControlEvent builds the event sent to the plugin when the control
// is used with value v on the feature ref.
func (c *StatusControl) CreateControlEvent(ref int, v float64) (*ControlEvent, error) {
	if !c.IsValueInRange(v) {
		return nil, fmt.Errorf("%w: value %v does not select control %q", hserr.ErrOutOfRange, v, c.label)
	}
	return &ControlEvent{
		Ref:         ref,
		Label:       c.LabelForValue(v),
		ControlUse:  c.use,
		ControlType: c.ctype,
		Value:       v,
	}, nil
}

// HashCode combines the target hash with the label, use and type.
func (c *StatusControl) HashCode() uint64 {
	return combineHash(c.target.hash(), c.label, c.use.String(), c.ctype.String())
}

// Equal reports full equality with another entry.
func (c *StatusControl) Equal(other Entry) bool {
	o, ok := other.(*StatusControl)
	if !ok || o == nil || c == nil {
		return ok && o == c
	}
	return c.target.equalTarget(o.target) &&
		c.label == o.label &&
		c.use == o.use &&
		c.ctype == o.ctype &&
		c.location == o.location &&
		c.isDefault == o.isDefault &&
		slices.Equal(c.states, o.states)
}

// Clone returns an independent copy.
func (c *StatusControl) Clone() *StatusControl {
	cp := *c
	cp.target = c.target.cloneTarget()
	cp.states = slices.Clone(c.states)
	return &cp
}

func (c *StatusControl) cloneEntry() Entry { return c.Clone() }

// StatusGraphic is an image (with optional label) shown for a value or
// range of values.
type StatusGraphic struct {
	target    Target
	imagePath string
	label     string
}

// NewStatusGraphic creates a graphic anchored to t.
func NewStatusGraphic(imagePath string, t Target) (*StatusGraphic, error) {
	if err := checkTarget(t); err != nil {
		return nil, err
	}
	if strings.TrimSpace(imagePath) == "" {
		return nil, fmt.Errorf("%w: blank image path", hserr.ErrInvalidArgument)
	}
	return &StatusGraphic{target: t, imagePath: imagePath}, nil
}

// NewPointGraphic creates a graphic for a single value.
func NewPointGraphic(imagePath string, value float64) (*StatusGraphic, error) {
	return NewStatusGraphic(imagePath, Point(value))
}

// NewRangeGraphic creates a graphic for a range of values.
func NewRangeGraphic(imagePath string, r *ValueRange) (*StatusGraphic, error) {
	return NewStatusGraphic(imagePath, r)
}

func (g *StatusGraphic) Target() Target    { return g.target }
func (g *StatusGraphic) Anchor() float64   { return g.target.anchor() }
func (g *StatusGraphic) IsRange() bool     { return g.target.isRange() }
func (g *StatusGraphic) Label() string     { return g.label }
func (g *StatusGraphic) ImagePath() string { return g.imagePath }

// TargetRange returns the anchoring range, or nil for point graphics.
func (g *StatusGraphic) TargetRange() *ValueRange { return TargetRange(g.target) }

// IsValueInRange reports whether v selects this graphic.
func (g *StatusGraphic) IsValueInRange(v float64) bool { return g.target.contains(v) }

// SetLabel sets the display text.
func (g *StatusGraphic) SetLabel(label string) { g.label = label }

// LabelForValue returns the label, or the formatted value for an
// unlabelled range graphic.
func (g *StatusGraphic) LabelForValue(v float64) string {
	if r := g.TargetRange(); r != nil && strings.TrimSpace(g.label) == "" {
		return r.StringForValue(v)
	}
	return g.label
}

// HashCode combines the target hash with the image and label.
func (g *StatusGraphic) HashCode() uint64 {
	return combineHash(g.target.hash(), g.imagePath, g.label)
}

// Equal reports full equality with another entry.
func (g *StatusGraphic) Equal(other Entry) bool {
	o, ok := other.(*StatusGraphic)
	if !ok || o == nil || g == nil {
		return ok && o == g
	}
	return g.target.equalTarget(o.target) && g.imagePath == o.imagePath && g.label == o.label
}

// Clone returns an independent copy.
func (g *StatusGraphic) Clone() *StatusGraphic {
	cp := *g
	cp.target = g.target.cloneTarget()
	return &cp
}

func (g *StatusGraphic) cloneEntry() Entry { return g.Clone() }

// ControlEvent is what the controller delivers to a plugin when a user
// operates a control.
type ControlEvent struct {
	Ref         int
	Label       string
	ControlUse  ControlUse
	ControlType ControlType
	Value       float64
}

// ApplyGraphic overrides the display label with a co-resolving graphic's
// label when that label is not blank.
func (e *ControlEvent) ApplyGraphic(g *StatusGraphic) {
	if g == nil || !g.IsValueInRange(e.Value) {
		return
	}
	if strings.TrimSpace(g.label) != "" {
		e.Label = g.label
	}
}

// Compile-time interface satisfaction checks.
var (
	_ Entry = (*StatusControl)(nil)
	_ Entry = (*StatusGraphic)(nil)
)
