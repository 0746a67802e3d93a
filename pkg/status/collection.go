package status

import (
	"fmt"
	"slices"
	"sort"

	"github.com/hspi-sdk/hspi-go/pkg/hserr"
)

// Collection is an ordered index of status entries keyed by anchor.
//
// Entries never overlap: a point occupies the degenerate interval [v,v] and
// Add refuses any entry whose interval collides with one already present.
// Lookups use an inclusive floor: the entry with the greatest anchor <= v is
// the only candidate, and it must still contain v.
//
// A Collection is not safe for concurrent use.
type Collection[E Entry] struct {
	entries []E
}

// Controls indexes the status controls of a feature.
type Controls = Collection[*StatusControl]

// Graphics indexes the status graphics of a feature.
type Graphics = Collection[*StatusGraphic]

// NewCollection returns an empty collection.
func NewCollection[E Entry]() *Collection[E] {
	return &Collection[E]{}
}

// NewControls returns an empty control index.
func NewControls() *Controls { return NewCollection[*StatusControl]() }

// NewGraphics returns an empty graphic index.
func NewGraphics() *Graphics { return NewCollection[*StatusGraphic]() }

func isNilEntry(e Entry) bool {
	switch v := e.(type) {
	case nil:
		return true
	case *StatusControl:
		return v == nil
	case *StatusGraphic:
		return v == nil
	}
	return false
}

// Add inserts a copy of e in anchor order. Later changes to e do not
// affect the collection.
//
// It fails with hserr.ErrOverlap when e's anchor, or for a range its
// maximum, is already matched by an entry, or when a range would enclose
// the anchor of an existing entry.
func (c *Collection[E]) Add(e E) error {
	if isNilEntry(e) {
		return fmt.Errorf("%w: nil entry", hserr.ErrInvalidArgument)
	}
	if c.Contains(e) {
		return fmt.Errorf("%w: value %v is already covered", hserr.ErrOverlap, e.Anchor())
	}
	if r := TargetRange(e.Target()); r != nil && len(c.EntriesForRange(r.Min(), r.Max())) > 0 {
		return fmt.Errorf("%w: range %s encloses an existing entry", hserr.ErrOverlap, r)
	}

	idx := sort.Search(len(c.entries), func(i int) bool {
		return c.entries[i].Anchor() > e.Anchor()
	})
	c.entries = slices.Insert(c.entries, idx, e.cloneEntry().(E))
	return nil
}

// floor returns the index of the entry with the greatest anchor <= v.
func (c *Collection[E]) floor(v float64) (int, bool) {
	if c == nil {
		return -1, false
	}
	idx := sort.Search(len(c.entries), func(i int) bool {
		return c.entries[i].Anchor() > v
	}) - 1
	return idx, idx >= 0
}

func (c *Collection[E]) find(v float64) (int, bool) {
	idx, ok := c.floor(v)
	if !ok || !c.entries[idx].IsValueInRange(v) {
		return -1, false
	}
	return idx, true
}

// Lookup returns the entry selected by v.
func (c *Collection[E]) Lookup(v float64) (E, error) {
	idx, ok := c.find(v)
	if !ok {
		var zero E
		return zero, fmt.Errorf("%w: no entry for value %v", hserr.ErrNotFound, v)
	}
	return c.entries[idx], nil
}

// ContainsValue reports whether some entry is selected by v.
func (c *Collection[E]) ContainsValue(v float64) bool {
	_, ok := c.find(v)
	return ok
}

// Contains reports whether e's anchor (or, for a range, its maximum) is
// already selected by an entry.
func (c *Collection[E]) Contains(e E) bool {
	if isNilEntry(e) {
		return false
	}
	if c.ContainsValue(e.Anchor()) {
		return true
	}
	if r := TargetRange(e.Target()); r != nil {
		return c.ContainsValue(r.Max())
	}
	return false
}

// EntriesForRange returns the entries whose anchor lies within [min, max].
// Entries that start below min are not returned even if they reach into it.
func (c *Collection[E]) EntriesForRange(min, max float64) []E {
	if c == nil {
		return nil
	}
	var out []E
	for _, e := range c.entries {
		a := e.Anchor()
		if a > max {
			break
		}
		if a >= min {
			out = append(out, e)
		}
	}
	return out
}

// Remove deletes the entry found at e's anchor when its hash code matches
// e's. It reports whether an entry was removed.
func (c *Collection[E]) Remove(e E) bool {
	if isNilEntry(e) {
		return false
	}
	idx, ok := c.find(e.Anchor())
	if !ok || c.entries[idx].HashCode() != e.HashCode() {
		return false
	}
	c.entries = slices.Delete(c.entries, idx, idx+1)
	return true
}

// RemoveAll empties the collection.
func (c *Collection[E]) RemoveAll() {
	c.entries = nil
}

// Count returns the number of entries.
func (c *Collection[E]) Count() int {
	if c == nil {
		return 0
	}
	return len(c.entries)
}

// Values returns a copy of the entries.
func (c *Collection[E]) Values() []E {
	if c == nil {
		return nil
	}
	return slices.Clone(c.entries)
}

// Clone returns a collection holding copies of the entries.
// Cloning a nil collection returns an empty one.
func (c *Collection[E]) Clone() *Collection[E] {
	out := NewCollection[E]()
	if c == nil {
		return out
	}
	out.entries = make([]E, len(c.entries))
	for i, e := range c.entries {
		out.entries[i] = e.cloneEntry().(E)
	}
	return out
}

// Equal reports whether both collections hold equal entries in the same order.
// A nil collection equals an empty one.
func (c *Collection[E]) Equal(other *Collection[E]) bool {
	if c.Count() != other.Count() {
		return false
	}
	for i := 0; i < c.Count(); i++ {
		if !c.entries[i].Equal(other.entries[i]) {
			return false
		}
	}
	return true
}
