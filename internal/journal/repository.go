package journal

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// timeFormat is the on-disk timestamp format.
const timeFormat = time.RFC3339Nano

// Boot is one process start.
type Boot struct {
	ID        int64
	StartedAt time.Time
	Location  string
	Mode      string
	Version   string
}

// Cycle is the outcome of one supervisory cycle.
type Cycle struct {
	ID         int64
	BootID     int64
	StartedAt  time.Time
	FinishedAt time.Time

	// Outcome is "ok" or the failure kind that ended or degraded the cycle.
	Outcome string
	Detail  string

	// Announced reports whether discovery was published during the cycle.
	Announced bool

	// Temperature and Humidity are nil when no reading was taken.
	Temperature *float64
	Humidity    *float64
}

// Repository defines the journal operations.
type Repository interface {
	StartBoot(ctx context.Context, boot *Boot) error
	RecordCycle(ctx context.Context, cycle *Cycle) error
	LastCycle(ctx context.Context) (*Cycle, error)
	BootCount(ctx context.Context) (int, error)
	Prune(ctx context.Context, keep int) (int64, error)
}

// SQLiteRepository stores the journal in SQLite.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository creates a new journal repository.
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

// StartBoot inserts a boot row and sets boot.ID. StartedAt defaults to now.
func (r *SQLiteRepository) StartBoot(ctx context.Context, boot *Boot) error {
	if boot.StartedAt.IsZero() {
		boot.StartedAt = time.Now().UTC()
	}

	res, err := r.db.ExecContext(ctx,
		`INSERT INTO boots (started_at, location, mode, version) VALUES (?, ?, ?, ?)`,
		boot.StartedAt.Format(timeFormat), boot.Location, boot.Mode, boot.Version,
	)
	if err != nil {
		return fmt.Errorf("inserting boot: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("reading boot id: %w", err)
	}
	boot.ID = id
	return nil
}

// RecordCycle inserts a cycle row and sets cycle.ID.
func (r *SQLiteRepository) RecordCycle(ctx context.Context, cycle *Cycle) error {
	if cycle.BootID == 0 {
		return fmt.Errorf("recording cycle: boot id is required")
	}
	if cycle.FinishedAt.IsZero() {
		cycle.FinishedAt = time.Now().UTC()
	}
	if cycle.StartedAt.IsZero() {
		cycle.StartedAt = cycle.FinishedAt
	}

	res, err := r.db.ExecContext(ctx,
		`INSERT INTO cycles (boot_id, started_at, finished_at, outcome, detail, announced, temperature, humidity)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		cycle.BootID,
		cycle.StartedAt.Format(timeFormat),
		cycle.FinishedAt.Format(timeFormat),
		cycle.Outcome,
		cycle.Detail,
		boolToInt(cycle.Announced),
		nullableFloat(cycle.Temperature),
		nullableFloat(cycle.Humidity),
	)
	if err != nil {
		return fmt.Errorf("inserting cycle: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("reading cycle id: %w", err)
	}
	cycle.ID = id
	return nil
}

// LastCycle returns the most recently recorded cycle, or ErrNotFound.
func (r *SQLiteRepository) LastCycle(ctx context.Context) (*Cycle, error) {
	var (
		c                     Cycle
		startedAt, finishedAt string
		announced             int
		temp, hum             sql.NullFloat64
	)

	err := r.db.QueryRowContext(ctx,
		`SELECT id, boot_id, started_at, finished_at, outcome, detail, announced, temperature, humidity
		 FROM cycles ORDER BY id DESC LIMIT 1`,
	).Scan(&c.ID, &c.BootID, &startedAt, &finishedAt, &c.Outcome, &c.Detail, &announced, &temp, &hum)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying last cycle: %w", err)
	}

	c.StartedAt, _ = time.Parse(timeFormat, startedAt)   //nolint:errcheck // Format is controlled
	c.FinishedAt, _ = time.Parse(timeFormat, finishedAt) //nolint:errcheck // Format is controlled
	c.Announced = announced != 0
	if temp.Valid {
		c.Temperature = &temp.Float64
	}
	if hum.Valid {
		c.Humidity = &hum.Float64
	}

	return &c, nil
}

// BootCount returns the number of process starts ever recorded.
// Boot ids are AUTOINCREMENT, so the count survives pruning.
func (r *SQLiteRepository) BootCount(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COALESCE(MAX(id), 0) FROM boots`).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting boots: %w", err)
	}
	return n, nil
}

// Prune deletes all but the newest keep cycles, then any boot rows left
// without cycles except the newest boot. A keep of zero or less disables
// pruning.
//
// Returns the number of cycle rows removed.
func (r *SQLiteRepository) Prune(ctx context.Context, keep int) (int64, error) {
	if keep <= 0 {
		return 0, nil
	}

	res, err := r.db.ExecContext(ctx,
		`DELETE FROM cycles WHERE id NOT IN (SELECT id FROM cycles ORDER BY id DESC LIMIT ?)`,
		keep,
	)
	if err != nil {
		return 0, fmt.Errorf("pruning cycles: %w", err)
	}
	removed, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("reading pruned count: %w", err)
	}

	if _, err := r.db.ExecContext(ctx,
		`DELETE FROM boots
		 WHERE id <> (SELECT MAX(id) FROM boots)
		   AND id NOT IN (SELECT DISTINCT boot_id FROM cycles)`,
	); err != nil {
		return removed, fmt.Errorf("pruning boots: %w", err)
	}

	return removed, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// nullableFloat returns nil for a nil pointer so the column stores NULL.
func nullableFloat(f *float64) any {
	if f == nil {
		return nil
	}
	return *f
}
