package status

import (
	"encoding/binary"
	"fmt"
	"hash/fnv"
	"math"
	"math/big"
	"strings"

	"github.com/hspi-sdk/hspi-go/pkg/hserr"
)

// RangeEpsilon is the tolerance used by ValueRange.IsValueInRange.
const RangeEpsilon = 1e-15

// ValueRange is an inclusive numeric interval together with the rules used
// to render a value inside it as text.
//
// A zero ValueRange is [0,0] with divisor 0; use NewValueRange.
type ValueRange struct {
	min           float64
	max           float64
	offset        float64
	divisor       float64
	decimalPlaces int
	prefix        string
	suffix        string
}

// NewValueRange creates a range covering [min, max].
//
// DecimalPlaces defaults to 2 when either bound has a fractional part and to
// 0 otherwise. Divisor is 1 and offset 0.
func NewValueRange(min, max float64) (*ValueRange, error) {
	if math.IsNaN(min) || math.IsNaN(max) {
		return nil, fmt.Errorf("%w: NaN bound", hserr.ErrInvalidArgument)
	}
	if min > max {
		return nil, fmt.Errorf("%w: min %v is greater than max %v", hserr.ErrInvalidArgument, min, max)
	}
	places := 0
	if min != math.Trunc(min) || max != math.Trunc(max) {
		places = 2
	}
	return &ValueRange{
		min:           min,
		max:           max,
		divisor:       1,
		decimalPlaces: places,
	}, nil
}

// MustValueRange is like NewValueRange but panics on error.
// It simplifies declaring static ranges.
func MustValueRange(min, max float64) *ValueRange {
	r, err := NewValueRange(min, max)
	if err != nil {
		panic(err)
	}
	return r
}

// Min returns the lower bound.
func (r *ValueRange) Min() float64 { return r.min }

// Max returns the upper bound.
func (r *ValueRange) Max() float64 { return r.max }

// Offset returns the value subtracted before dividing.
func (r *ValueRange) Offset() float64 { return r.offset }

// Divisor returns the value the offset-adjusted value is divided by.
func (r *ValueRange) Divisor() float64 { return r.divisor }

// DecimalPlaces returns the number of fractional digits rendered.
func (r *ValueRange) DecimalPlaces() int { return r.decimalPlaces }

// Prefix returns the text placed before a rendered value.
func (r *ValueRange) Prefix() string { return r.prefix }

// Suffix returns the text placed after a rendered value.
func (r *ValueRange) Suffix() string { return r.suffix }

// SetMin changes the lower bound.
// The bound may not cross max, but only once max is non-zero.
func (r *ValueRange) SetMin(v float64) error {
	if math.IsNaN(v) {
		return fmt.Errorf("%w: NaN min", hserr.ErrInvalidArgument)
	}
	if r.max != 0 && v > r.max {
		return fmt.Errorf("%w: min %v is greater than max %v", hserr.ErrOutOfRange, v, r.max)
	}
	r.min = v
	return nil
}

// SetMax changes the upper bound.
// The bound may not cross min, but only once min is non-zero.
func (r *ValueRange) SetMax(v float64) error {
	if math.IsNaN(v) {
		return fmt.Errorf("%w: NaN max", hserr.ErrInvalidArgument)
	}
	if r.min != 0 && v < r.min {
		return fmt.Errorf("%w: max %v is less than min %v", hserr.ErrOutOfRange, v, r.min)
	}
	r.max = v
	return nil
}

// SetOffset sets the value subtracted before rendering.
func (r *ValueRange) SetOffset(offset float64) {
	r.offset = offset
}

// SetDivisor sets the rendering divisor. It must be positive.
func (r *ValueRange) SetDivisor(d float64) error {
	if d <= 0 {
		return fmt.Errorf("%w: divisor %v must be greater than 0", hserr.ErrOutOfRange, d)
	}
	r.divisor = d
	return nil
}

// SetDecimalPlaces sets the number of rendered fractional digits.
func (r *ValueRange) SetDecimalPlaces(n int) error {
	if n < 0 {
		return fmt.Errorf("%w: decimal places %d must not be negative", hserr.ErrOutOfRange, n)
	}
	r.decimalPlaces = n
	return nil
}

// SetPrefix sets the rendered prefix. Blank input clears it.
func (r *ValueRange) SetPrefix(prefix string) {
	r.prefix = normalizeAffix(prefix)
}

// SetSuffix sets the rendered suffix. Blank input clears it.
func (r *ValueRange) SetSuffix(suffix string) {
	r.suffix = normalizeAffix(suffix)
}

func normalizeAffix(s string) string {
	if strings.TrimSpace(s) == "" {
		return ""
	}
	return s
}

// StringForValue renders v as prefix + fixed((v-offset)/divisor) + suffix.
func (r *ValueRange) StringForValue(v float64) string {
	divisor := r.divisor
	if divisor == 0 {
		divisor = 1
	}
	return r.prefix + formatFixed((v-r.offset)/divisor, r.decimalPlaces) + r.suffix
}

// IsValueInRange reports whether v lies within the range.
//
// The tolerance is applied as (min-v) < ε and (v-max) < ε.
func (r *ValueRange) IsValueInRange(v float64) bool {
	return r.min-v < RangeEpsilon && v-r.max < RangeEpsilon
}

// Equal reports whether both ranges have identical bounds and formatting.
func (r *ValueRange) Equal(other *ValueRange) bool {
	if r == nil || other == nil {
		return r == other
	}
	return *r == *other
}

// HashCode derives a hash from the bounds only.
// Two ranges that differ only in formatting share a hash code.
func (r *ValueRange) HashCode() uint64 {
	return hashFloats(r.min, r.max)
}

// Clone returns an independent copy.
func (r *ValueRange) Clone() *ValueRange {
	if r == nil {
		return nil
	}
	c := *r
	return &c
}

// String returns the bounds in interval notation.
func (r *ValueRange) String() string {
	return fmt.Sprintf("[%v,%v]", r.min, r.max)
}

// Target implementation.

func (r *ValueRange) anchor() float64 { return r.min }
func (r *ValueRange) upper() float64  { return r.max }
func (r *ValueRange) isRange() bool   { return true }
func (r *ValueRange) contains(v float64) bool {
	return r.IsValueInRange(v)
}
func (r *ValueRange) hash() uint64 { return r.HashCode() }
func (r *ValueRange) equalTarget(t Target) bool {
	o, ok := t.(*ValueRange)
	return ok && r.Equal(o)
}
func (r *ValueRange) cloneTarget() Target { return r.Clone() }

func hashFloats(vals ...float64) uint64 {
	h := fnv.New64a()
	var buf [8]byte
	for _, v := range vals {
		binary.BigEndian.PutUint64(buf[:], math.Float64bits(v))
		h.Write(buf[:])
	}
	return h.Sum64()
}

// formatFixed renders x with the given number of fractional digits,
// rounding half away from zero on the exact binary value of x.
func formatFixed(x float64, places int) string {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return fmt.Sprint(x)
	}
	neg := math.Signbit(x)

	// A float64 has at most 1074 fractional binary digits, so this
	// expansion is exact.
	exact := new(big.Float).SetFloat64(math.Abs(x)).Text('f', 1100)
	intPart, frac, _ := strings.Cut(exact, ".")
	for len(frac) < places+1 {
		frac += "0"
	}

	digits := []byte(intPart + frac[:places])
	if frac[places] >= '5' {
		digits = incrementDecimal(digits)
	}

	zero := true
	for _, d := range digits {
		if d != '0' {
			zero = false
			break
		}
	}

	var sb strings.Builder
	if neg && !zero {
		sb.WriteByte('-')
	}
	split := len(digits) - places
	sb.Write(digits[:split])
	if places > 0 {
		sb.WriteByte('.')
		sb.Write(digits[split:])
	}
	return sb.String()
}

func incrementDecimal(digits []byte) []byte {
	for i := len(digits) - 1; i >= 0; i-- {
		if digits[i] < '9' {
			digits[i]++
			return digits
		}
		digits[i] = '0'
	}
	return append([]byte{'1'}, digits...)
}
