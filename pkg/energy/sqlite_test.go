package energy

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/hspi-sdk/hspi-go/pkg/hserr"
	"github.com/hspi-sdk/hspi-go/pkg/model"
)

func setupRepo(t *testing.T) *SQLiteRepository {
	t.Helper()

	db, err := Open(":memory:")
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { db.Close() })

	repo := NewSQLiteRepository(db)
	if err := repo.EnsureSchema(context.Background()); err != nil {
		t.Fatalf("EnsureSchema() error = %v", err)
	}
	return repo
}

var base = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func record(t *testing.T, repo *SQLiteRepository, ref int, amount float64, dir Direction, at time.Time) *Record {
	t.Helper()
	rec := &Record{Ref: ref, Amount: amount, Direction: dir, Range: 15 * time.Minute, Timestamp: at}
	if err := repo.Record(context.Background(), rec); err != nil {
		t.Fatalf("Record() error = %v", err)
	}
	return rec
}

func TestRecordAndQuery(t *testing.T) {
	repo := setupRepo(t)
	ctx := context.Background()

	first := record(t, repo, 7, 1.5, DirectionConsumed, base)
	record(t, repo, 7, 0.25, DirectionProduced, base.Add(time.Hour))
	record(t, repo, 8, 9, DirectionConsumed, base.Add(time.Hour))
	record(t, repo, 7, 2, DirectionConsumed, base.Add(2*time.Hour))

	if first.ID == 0 {
		t.Error("Record() did not set ID")
	}

	got, err := repo.Query(ctx, 7, base, base.Add(2*time.Hour))
	if err != nil {
		t.Fatalf("Query() error = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("Query() returned %d records, want 2", len(got))
	}
	if got[0].Amount != 1.5 || got[0].Direction != DirectionConsumed {
		t.Errorf("first record = %+v", got[0])
	}
	if got[1].Direction != DirectionProduced {
		t.Errorf("second record direction = %v", got[1].Direction)
	}
	if !got[0].Timestamp.Equal(base) {
		t.Errorf("timestamp = %v, want %v", got[0].Timestamp, base)
	}
	if got[0].Range != 15*time.Minute {
		t.Errorf("range = %v", got[0].Range)
	}

	all, err := repo.Query(ctx, 7, time.Time{}, time.Time{})
	if err != nil {
		t.Fatalf("Query() unbounded error = %v", err)
	}
	if len(all) != 3 {
		t.Errorf("unbounded Query() returned %d records, want 3", len(all))
	}

	none, err := repo.Query(ctx, 99, time.Time{}, time.Time{})
	if err != nil {
		t.Fatalf("Query() unknown ref error = %v", err)
	}
	if len(none) != 0 {
		t.Errorf("unknown ref returned %d records", len(none))
	}
}

func TestSummarize(t *testing.T) {
	repo := setupRepo(t)
	ctx := context.Background()

	record(t, repo, 3, 1, DirectionConsumed, base)
	record(t, repo, 3, 2, DirectionConsumed, base.Add(time.Minute))
	record(t, repo, 3, 0.5, DirectionProduced, base.Add(2*time.Minute))

	s, err := repo.Summarize(ctx, 3, time.Time{}, time.Time{})
	if err != nil {
		t.Fatalf("Summarize() error = %v", err)
	}
	if s.Consumed != 3 || s.Produced != 0.5 || s.Count != 3 {
		t.Errorf("summary = %+v", s)
	}
	if s.Net() != -2.5 {
		t.Errorf("Net() = %v, want -2.5", s.Net())
	}
	if !s.First.Equal(base) || !s.Last.Equal(base.Add(2*time.Minute)) {
		t.Errorf("period = %v .. %v", s.First, s.Last)
	}

	empty, err := repo.Summarize(ctx, 4, time.Time{}, time.Time{})
	if err != nil {
		t.Fatalf("Summarize() empty error = %v", err)
	}
	if empty.Count != 0 || empty.Consumed != 0 || !empty.First.IsZero() {
		t.Errorf("empty summary = %+v", empty)
	}
}

func TestPrune(t *testing.T) {
	repo := setupRepo(t)
	ctx := context.Background()

	record(t, repo, 1, 1, DirectionConsumed, base)
	record(t, repo, 1, 1, DirectionConsumed, base.Add(time.Hour))
	record(t, repo, 2, 1, DirectionConsumed, base.Add(-time.Hour))

	n, err := repo.Prune(ctx, base.Add(time.Minute))
	if err != nil {
		t.Fatalf("Prune() error = %v", err)
	}
	if n != 2 {
		t.Errorf("Prune() removed %d, want 2", n)
	}

	left, err := repo.Query(ctx, 1, time.Time{}, time.Time{})
	if err != nil {
		t.Fatalf("Query() error = %v", err)
	}
	if len(left) != 1 || !left[0].Timestamp.Equal(base.Add(time.Hour)) {
		t.Errorf("remaining records = %+v", left)
	}
}

func TestRecordValidation(t *testing.T) {
	repo := setupRepo(t)

	tests := []struct {
		name string
		rec  Record
		want error
	}{
		{"no ref", Record{Amount: 1, Direction: DirectionConsumed}, hserr.ErrInvalidArgument},
		{"negative amount", Record{Ref: 1, Amount: -1, Direction: DirectionConsumed}, hserr.ErrOutOfRange},
		{"bad direction", Record{Ref: 1, Amount: 1}, hserr.ErrInvalidArgument},
		{"negative range", Record{Ref: 1, Amount: 1, Direction: DirectionProduced, Range: -time.Second}, hserr.ErrOutOfRange},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := repo.Record(context.Background(), &tt.rec)
			if !errors.Is(err, tt.want) {
				t.Errorf("Record() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestRecordFeature(t *testing.T) {
	repo := setupRepo(t)
	ctx := context.Background()

	f := model.NewFeature(12)
	f.SetValue(4.2)

	rec, err := RecordFeature(ctx, repo, f, DirectionConsumed, time.Hour)
	if err != nil {
		t.Fatalf("RecordFeature() error = %v", err)
	}
	if rec.Ref != 12 || rec.Amount != 4.2 || rec.Range != time.Hour {
		t.Errorf("record = %+v", rec)
	}

	f.SetValueInvalid(true)
	if _, err := RecordFeature(ctx, repo, f, DirectionConsumed, time.Hour); !errors.Is(err, ErrInvalidValue) {
		t.Errorf("invalid value error = %v", err)
	}

	staged := model.NewStagedFeature("demo")
	if _, err := RecordFeature(ctx, repo, staged, DirectionConsumed, time.Hour); !errors.Is(err, hserr.ErrInvalidOperation) {
		t.Errorf("unreffed feature error = %v", err)
	}
}

func TestParseDirection(t *testing.T) {
	for _, d := range []Direction{DirectionConsumed, DirectionProduced} {
		got, err := ParseDirection(d.String())
		if err != nil || got != d {
			t.Errorf("ParseDirection(%q) = %v, %v", d, got, err)
		}
	}
	if _, err := ParseDirection("sideways"); !errors.Is(err, hserr.ErrInvalidArgument) {
		t.Errorf("ParseDirection(sideways) error = %v", err)
	}
}
