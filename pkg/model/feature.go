package model

import (
	"strconv"
	"strings"

	"github.com/hspi-sdk/hspi-go/pkg/status"
)

// Feature is one controllable or observable aspect of a device. Besides
// the shared entity properties it owns a control index and a graphic index.
type Feature struct {
	entity
}

func newFeature() *Feature {
	f := &Feature{}
	f.committed.controls = status.NewControls()
	f.committed.graphics = status.NewGraphics()
	return f
}

// NewFeature returns a live feature for ref with default committed state.
func NewFeature(ref int) *Feature {
	f := newFeature()
	f.committed.ref = ref
	f.committed.relationship = RelationshipFeature
	return f
}

// NewStagedFeature returns a staging-only feature owned by pluginID.
func NewStagedFeature(pluginID string) *Feature {
	f := newFeature()
	f.stagingOnly = true
	f.SetInterface(pluginID)
	return f
}

// LoadFeature returns a live feature for ref whose committed state is
// taken from c, as reported by the controller.
func LoadFeature(ref int, c Changes) (*Feature, error) {
	f := NewFeature(ref)
	if err := f.load(c); err != nil {
		return nil, err
	}
	f.committed.ref = ref
	if f.committed.controls == nil {
		f.committed.controls = status.NewControls()
	}
	if f.committed.graphics == nil {
		f.committed.graphics = status.NewGraphics()
	}
	return f, nil
}

// DisplayType returns how the controller lays out the feature.
func (f *Feature) DisplayType() FeatureDisplayType { return getProp(&f.ledger, displayTypeField) }

// SetDisplayType sets how the controller lays out the feature.
func (f *Feature) SetDisplayType(t FeatureDisplayType) { setProp(&f.ledger, displayTypeField, t) }

// Priority returns the display order among the device's features.
func (f *Feature) Priority() int { return getProp(&f.ledger, priorityField) }

// SetPriority sets the display order among the device's features.
func (f *Feature) SetPriority(p int) { setProp(&f.ledger, priorityField, p) }

// StatusControls returns a copy of the control index.
func (f *Feature) StatusControls() *status.Controls { return getProp(&f.ledger, controlsField) }

// StatusGraphics returns a copy of the graphic index.
func (f *Feature) StatusGraphics() *status.Graphics { return getProp(&f.ledger, graphicsField) }

// HasControls reports whether any control is defined.
func (f *Feature) HasControls() bool { return peekProp(&f.ledger, controlsField).Count() > 0 }

// AddStatusControl adds c to the control index. It fails with
// hserr.ErrOverlap when c collides with an existing control.
func (f *Feature) AddStatusControl(c *status.StatusControl) error {
	next := peekProp(&f.ledger, controlsField).Clone()
	if err := next.Add(c); err != nil {
		return err
	}
	setProp(&f.ledger, controlsField, next)
	return nil
}

// RemoveStatusControl removes the control matching c by anchor and hash.
func (f *Feature) RemoveStatusControl(c *status.StatusControl) bool {
	next := peekProp(&f.ledger, controlsField).Clone()
	if !next.Remove(c) {
		return false
	}
	setProp(&f.ledger, controlsField, next)
	return true
}

// ClearStatusControls removes every control.
func (f *Feature) ClearStatusControls() {
	setProp(&f.ledger, controlsField, status.NewControls())
}

// AddStatusGraphic adds g to the graphic index. It fails with
// hserr.ErrOverlap when g collides with an existing graphic.
func (f *Feature) AddStatusGraphic(g *status.StatusGraphic) error {
	next := peekProp(&f.ledger, graphicsField).Clone()
	if err := next.Add(g); err != nil {
		return err
	}
	setProp(&f.ledger, graphicsField, next)
	return nil
}

// RemoveStatusGraphic removes the graphic matching g by anchor and hash.
func (f *Feature) RemoveStatusGraphic(g *status.StatusGraphic) bool {
	next := peekProp(&f.ledger, graphicsField).Clone()
	if !next.Remove(g) {
		return false
	}
	setProp(&f.ledger, graphicsField, next)
	return true
}

// ClearStatusGraphics removes every graphic.
func (f *Feature) ClearStatusGraphics() {
	setProp(&f.ledger, graphicsField, status.NewGraphics())
}

// StatusControlForValue returns a copy of the control selected by v.
func (f *Feature) StatusControlForValue(v float64) (*status.StatusControl, error) {
	c, err := peekProp(&f.ledger, controlsField).Lookup(v)
	if err != nil {
		return nil, err
	}
	return c.Clone(), nil
}

// StatusGraphicForValue returns a copy of the graphic selected by v.
func (f *Feature) StatusGraphicForValue(v float64) (*status.StatusGraphic, error) {
	g, err := peekProp(&f.ledger, graphicsField).Lookup(v)
	if err != nil {
		return nil, err
	}
	return g.Clone(), nil
}

// CreateControlEvent builds the event for operating the feature with v.
// A graphic selected by the same value with a non-blank label supplies the
// event label.
func (f *Feature) CreateControlEvent(v float64) (*status.ControlEvent, error) {
	c, err := f.StatusControlForValue(v)
	if err != nil {
		return nil, err
	}
	ev, err := c.CreateControlEvent(f.Ref(), v)
	if err != nil {
		return nil, err
	}
	if g, err := f.StatusGraphicForValue(v); err == nil {
		ev.ApplyGraphic(g)
	}
	return ev, nil
}

// DisplayedStatus returns the text shown for v: a labelled graphic wins,
// then the control label, then the plain value.
func (f *Feature) DisplayedStatus(v float64) string {
	g, gerr := f.StatusGraphicForValue(v)
	if gerr == nil && strings.TrimSpace(g.Label()) != "" {
		return g.Label()
	}
	if c, err := f.StatusControlForValue(v); err == nil {
		if label := c.LabelForValue(v); label != "" {
			return label
		}
	}
	if gerr == nil && g.IsRange() {
		return g.LabelForValue(v)
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}
