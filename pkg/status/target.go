package status

import (
	"math"
	"strconv"
)

// PointTolerance is the distance within which a value matches a Point.
const PointTolerance = 0.01

// Target is what a status entry is anchored to: either a single Point or a
// *ValueRange. The set of implementations is closed.
type Target interface {
	anchor() float64
	upper() float64
	isRange() bool
	contains(v float64) bool
	hash() uint64
	equalTarget(Target) bool
	cloneTarget() Target
}

// Point anchors an entry to one value.
type Point float64

// Value returns the point as a float64.
func (p Point) Value() float64 { return float64(p) }

// String returns the point value.
func (p Point) String() string {
	return strconv.FormatFloat(float64(p), 'g', -1, 64)
}

func (p Point) anchor() float64 { return float64(p) }
func (p Point) upper() float64  { return float64(p) }
func (p Point) isRange() bool   { return false }
func (p Point) contains(v float64) bool {
	return math.Abs(v-float64(p)) < PointTolerance
}
func (p Point) hash() uint64 { return hashFloats(float64(p)) }
func (p Point) equalTarget(t Target) bool {
	o, ok := t.(Point)
	return ok && o == p
}
func (p Point) cloneTarget() Target { return p }

// TargetRange returns t as a *ValueRange, or nil for a Point.
func TargetRange(t Target) *ValueRange {
	r, _ := t.(*ValueRange)
	return r
}
