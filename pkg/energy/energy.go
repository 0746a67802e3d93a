// Package energy keeps an energy log per feature in SQLite.
//
// Each record states how much energy a feature consumed or produced over
// a time span ending at the record's timestamp. Records are kept in a
// single energy_records table; timestamps are stored as Unix milliseconds
// so range queries compare integers.
package energy

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/hspi-sdk/hspi-go/pkg/hserr"
	"github.com/hspi-sdk/hspi-go/pkg/model"
)

// Direction tells whether energy flowed into or out of the feature.
type Direction uint8

const (
	DirectionConsumed Direction = 1
	DirectionProduced Direction = 2
)

func (d Direction) String() string {
	switch d {
	case DirectionConsumed:
		return "consumed"
	case DirectionProduced:
		return "produced"
	default:
		return "unknown"
	}
}

// IsValid reports whether d is a known direction.
func (d Direction) IsValid() bool {
	return d == DirectionConsumed || d == DirectionProduced
}

// ParseDirection converts a name produced by String back to a Direction.
func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "consumed", "in":
		return DirectionConsumed, nil
	case "produced", "out":
		return DirectionProduced, nil
	default:
		return 0, fmt.Errorf("%w: unknown energy direction %q", hserr.ErrInvalidArgument, s)
	}
}

// Record is one energy log entry.
type Record struct {
	ID        int64
	Ref       int
	Amount    float64
	Direction Direction

	// Range is the span the amount was accumulated over.
	Range time.Duration

	Timestamp time.Time
}

// Validate checks the record before it is stored.
func (r *Record) Validate() error {
	switch {
	case r.Ref <= 0:
		return fmt.Errorf("%w: energy record needs a ref", hserr.ErrInvalidArgument)
	case math.IsNaN(r.Amount) || math.IsInf(r.Amount, 0) || r.Amount < 0:
		return fmt.Errorf("%w: energy amount %v", hserr.ErrOutOfRange, r.Amount)
	case !r.Direction.IsValid():
		return fmt.Errorf("%w: energy direction %d", hserr.ErrInvalidArgument, r.Direction)
	case r.Range < 0:
		return fmt.Errorf("%w: energy range %s", hserr.ErrOutOfRange, r.Range)
	}
	return nil
}

// Summary totals the records of one feature over a period.
type Summary struct {
	Ref      int
	Consumed float64
	Produced float64
	Count    int
	First    time.Time
	Last     time.Time
}

// Net returns produced minus consumed energy.
func (s *Summary) Net() float64 { return s.Produced - s.Consumed }

// Repository stores energy records.
type Repository interface {
	Record(ctx context.Context, rec *Record) error
	Query(ctx context.Context, ref int, from, to time.Time) ([]Record, error)
	Summarize(ctx context.Context, ref int, from, to time.Time) (*Summary, error)
	Prune(ctx context.Context, olderThan time.Time) (int64, error)
}

// ErrInvalidValue is returned by RecordFeature for a feature whose value
// is flagged invalid.
var ErrInvalidValue = errors.New("feature value is invalid")

// RecordFeature logs the feature's current value as an energy amount
// accumulated over span, stamped now.
func RecordFeature(ctx context.Context, repo Repository, f *model.Feature, dir Direction, span time.Duration) (*Record, error) {
	if f.Ref() <= 0 {
		return nil, fmt.Errorf("%w: feature has no ref", hserr.ErrInvalidOperation)
	}
	if f.IsValueInvalid() {
		return nil, ErrInvalidValue
	}
	rec := &Record{
		Ref:       f.Ref(),
		Amount:    f.Value(),
		Direction: dir,
		Range:     span,
		Timestamp: time.Now().UTC(),
	}
	if err := repo.Record(ctx, rec); err != nil {
		return nil, err
	}
	return rec, nil
}
