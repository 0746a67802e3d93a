package energy

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

const schema = `
CREATE TABLE IF NOT EXISTS energy_records (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	ref INTEGER NOT NULL,
	amount REAL NOT NULL,
	direction INTEGER NOT NULL,
	range_seconds INTEGER NOT NULL DEFAULT 0,
	recorded_at INTEGER NOT NULL
) STRICT;

CREATE INDEX IF NOT EXISTS idx_energy_records_ref_time ON energy_records (ref, recorded_at);`

// Open opens the SQLite database at path. ":memory:" is limited to one
// connection so every query sees the same database.
func Open(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("opening energy database: %w", err)
	}
	if path == ":memory:" {
		db.SetMaxOpenConns(1)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("opening energy database: %w", err)
	}
	return db, nil
}

// SQLiteRepository stores energy records in SQLite.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository creates a repository on db. Call EnsureSchema before use.
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

// EnsureSchema creates the table and index if they are missing.
func (r *SQLiteRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("creating energy schema: %w", err)
	}
	return nil
}

// Record stores rec and sets its ID. A zero Timestamp is set to now.
func (r *SQLiteRepository) Record(ctx context.Context, rec *Record) error {
	if err := rec.Validate(); err != nil {
		return err
	}
	if rec.Timestamp.IsZero() {
		rec.Timestamp = time.Now().UTC()
	}

	res, err := r.db.ExecContext(ctx,
		`INSERT INTO energy_records (ref, amount, direction, range_seconds, recorded_at)
		 VALUES (?, ?, ?, ?, ?)`,
		rec.Ref, rec.Amount, int(rec.Direction), int64(rec.Range/time.Second), rec.Timestamp.UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("inserting energy record: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("inserting energy record: %w", err)
	}
	rec.ID = id
	return nil
}

// Query returns the records of ref with from <= timestamp < to, oldest
// first. A zero to means no upper bound.
func (r *SQLiteRepository) Query(ctx context.Context, ref int, from, to time.Time) ([]Record, error) {
	lo, hi := bounds(from, to)
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, ref, amount, direction, range_seconds, recorded_at FROM energy_records
		 WHERE ref = ? AND recorded_at >= ? AND recorded_at < ?
		 ORDER BY recorded_at, id`,
		ref, lo, hi,
	)
	if err != nil {
		return nil, fmt.Errorf("querying energy records: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var (
			rec     Record
			dir     int
			seconds int64
			millis  int64
		)
		if err := rows.Scan(&rec.ID, &rec.Ref, &rec.Amount, &dir, &seconds, &millis); err != nil {
			return nil, fmt.Errorf("scanning energy record: %w", err)
		}
		rec.Direction = Direction(dir)
		rec.Range = time.Duration(seconds) * time.Second
		rec.Timestamp = time.UnixMilli(millis).UTC()
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating energy records: %w", err)
	}
	return records, nil
}

// Summarize totals the records Query would return.
func (r *SQLiteRepository) Summarize(ctx context.Context, ref int, from, to time.Time) (*Summary, error) {
	lo, hi := bounds(from, to)
	var (
		consumed, produced sql.NullFloat64
		count              int
		first, last        sql.NullInt64
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT
			SUM(CASE WHEN direction = ? THEN amount END),
			SUM(CASE WHEN direction = ? THEN amount END),
			COUNT(*), MIN(recorded_at), MAX(recorded_at)
		 FROM energy_records
		 WHERE ref = ? AND recorded_at >= ? AND recorded_at < ?`,
		int(DirectionConsumed), int(DirectionProduced), ref, lo, hi,
	).Scan(&consumed, &produced, &count, &first, &last)
	if err != nil {
		return nil, fmt.Errorf("summarizing energy records: %w", err)
	}

	s := &Summary{Ref: ref, Consumed: consumed.Float64, Produced: produced.Float64, Count: count}
	if first.Valid {
		s.First = time.UnixMilli(first.Int64).UTC()
	}
	if last.Valid {
		s.Last = time.UnixMilli(last.Int64).UTC()
	}
	return s, nil
}

// Prune deletes records stamped before olderThan and returns how many
// were removed.
func (r *SQLiteRepository) Prune(ctx context.Context, olderThan time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM energy_records WHERE recorded_at < ?`, olderThan.UnixMilli())
	if err != nil {
		return 0, fmt.Errorf("pruning energy records: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("pruning energy records: %w", err)
	}
	return n, nil
}

func bounds(from, to time.Time) (int64, int64) {
	lo := int64(0)
	if !from.IsZero() {
		lo = from.UnixMilli()
	}
	hi := int64(1<<63 - 1)
	if !to.IsZero() {
		hi = to.UnixMilli()
	}
	return lo, hi
}

var _ Repository = (*SQLiteRepository)(nil)
