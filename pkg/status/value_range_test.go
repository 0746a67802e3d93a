package status

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hspi-sdk/hspi-go/pkg/hserr"
)

func TestNewValueRange(t *testing.T) {
	t.Run("IntegralBounds", func(t *testing.T) {
		r, err := NewValueRange(0, 100)
		require.NoError(t, err)
		assert.Equal(t, 0.0, r.Min())
		assert.Equal(t, 100.0, r.Max())
		assert.Equal(t, 0, r.DecimalPlaces())
		assert.Equal(t, 1.0, r.Divisor())
		assert.Equal(t, 0.0, r.Offset())
	})

	t.Run("FractionalBound", func(t *testing.T) {
		r, err := NewValueRange(1.5, 3)
		require.NoError(t, err)
		assert.Equal(t, 2, r.DecimalPlaces())
	})

	t.Run("MinAboveMax", func(t *testing.T) {
		_, err := NewValueRange(10, 5)
		assert.ErrorIs(t, err, hserr.ErrInvalidArgument)
	})

	t.Run("NaNBound", func(t *testing.T) {
		_, err := NewValueRange(math.NaN(), 5)
		assert.ErrorIs(t, err, hserr.ErrInvalidArgument)
		_, err = NewValueRange(0, math.NaN())
		assert.ErrorIs(t, err, hserr.ErrInvalidArgument)
	})

	t.Run("Degenerate", func(t *testing.T) {
		r, err := NewValueRange(7, 7)
		require.NoError(t, err)
		assert.True(t, r.IsValueInRange(7))
	})
}

func TestValueRangeBoundSetters(t *testing.T) {
	t.Run("MinCannotCrossMax", func(t *testing.T) {
		r := MustValueRange(0, 10)
		err := r.SetMin(11)
		assert.ErrorIs(t, err, hserr.ErrOutOfRange)
		assert.Equal(t, 0.0, r.Min())

		require.NoError(t, r.SetMin(10))
		assert.Equal(t, 10.0, r.Min())
	})

	t.Run("MaxCannotCrossMin", func(t *testing.T) {
		r := MustValueRange(5, 10)
		err := r.SetMax(4)
		assert.ErrorIs(t, err, hserr.ErrOutOfRange)
		assert.Equal(t, 10.0, r.Max())
	})

	t.Run("GuardInactiveWhileOtherBoundIsZero", func(t *testing.T) {
		r := MustValueRange(0, 0)
		require.NoError(t, r.SetMin(5))
		assert.Equal(t, 5.0, r.Min())

		r = MustValueRange(0, 10)
		require.NoError(t, r.SetMax(-5))
		assert.Equal(t, -5.0, r.Max())
	})

	t.Run("NaN", func(t *testing.T) {
		r := MustValueRange(0, 10)
		assert.ErrorIs(t, r.SetMin(math.NaN()), hserr.ErrInvalidArgument)
		assert.ErrorIs(t, r.SetMax(math.NaN()), hserr.ErrInvalidArgument)
		assert.Equal(t, "[0,10]", r.String())
	})
}

func TestValueRangeFormattingSetters(t *testing.T) {
	r := MustValueRange(0, 100)

	assert.ErrorIs(t, r.SetDivisor(0), hserr.ErrOutOfRange)
	assert.ErrorIs(t, r.SetDivisor(-2), hserr.ErrOutOfRange)
	assert.Equal(t, 1.0, r.Divisor())
	require.NoError(t, r.SetDivisor(10))
	assert.Equal(t, 10.0, r.Divisor())

	assert.ErrorIs(t, r.SetDecimalPlaces(-1), hserr.ErrOutOfRange)
	require.NoError(t, r.SetDecimalPlaces(0))

	r.SetPrefix("   ")
	assert.Equal(t, "", r.Prefix())
	r.SetPrefix("$")
	assert.Equal(t, "$", r.Prefix())
	r.SetSuffix("")
	assert.Equal(t, "", r.Suffix())
	r.SetSuffix(" °C")
	assert.Equal(t, " °C", r.Suffix())
}

func TestStringForValue(t *testing.T) {
	t.Run("Default", func(t *testing.T) {
		r := MustValueRange(0, 100)
		require.NoError(t, r.SetDecimalPlaces(2))
		assert.Equal(t, "50.00", r.StringForValue(50))
	})

	t.Run("OffsetDivisorAffixes", func(t *testing.T) {
		r := MustValueRange(0, 1000)
		r.SetOffset(100)
		require.NoError(t, r.SetDivisor(10))
		require.NoError(t, r.SetDecimalPlaces(1))
		r.SetPrefix("~")
		r.SetSuffix("%")
		assert.Equal(t, "~25.0%", r.StringForValue(350))
	})
}

func TestFormatFixed(t *testing.T) {
	tests := []struct {
		value  float64
		places int
		want   string
	}{
		{50, 2, "50.00"},
		{2.5, 0, "3"},
		{-2.5, 0, "-3"},
		{3.5, 0, "4"},
		{0.125, 2, "0.13"},
		{1.005, 2, "1.00"},
		{9.999, 2, "10.00"},
		{-0.001, 2, "0.00"},
		{1234.5678, 3, "1234.568"},
		{0, 0, "0"},
		{0.1, 5, "0.10000"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, formatFixed(tt.value, tt.places), "formatFixed(%v, %d)", tt.value, tt.places)
	}
}

func TestIsValueInRange(t *testing.T) {
	r := MustValueRange(0, 1)

	for _, v := range []float64{0, 0.25, 0.5, 1, -5e-16} {
		assert.True(t, r.IsValueInRange(v), "value %v", v)
	}
	for _, v := range []float64{-2e-15, 1 + 2e-15, -1, 2} {
		assert.False(t, r.IsValueInRange(v), "value %v", v)
	}
}

func TestValueRangeEqualityAndHash(t *testing.T) {
	a := MustValueRange(0, 100)
	b := MustValueRange(0, 100)
	assert.True(t, a.Equal(b))
	assert.Equal(t, a.HashCode(), b.HashCode())

	b.SetSuffix("%")
	assert.False(t, a.Equal(b))
	assert.Equal(t, a.HashCode(), b.HashCode(), "hash only covers the bounds")

	c := MustValueRange(0, 99)
	assert.NotEqual(t, a.HashCode(), c.HashCode())

	clone := b.Clone()
	assert.True(t, clone.Equal(b))
	clone.SetSuffix("")
	assert.Equal(t, "%", b.Suffix())
}
