// Package report records scoring runs in a SQLite database: one row per
// run, identified by a fresh run id and the BLAKE3 fingerprint of the
// scored tracker file, plus every score row and basic fact of the run.
package report

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/FocuswithJustin/dstckit/core/cas"
	"github.com/FocuswithJustin/dstckit/core/sqlite"
	"github.com/FocuswithJustin/dstckit/internal/dataset"
	"github.com/FocuswithJustin/dstckit/internal/score"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		task TEXT NOT NULL,
		role TEXT NOT NULL,
		dataset TEXT NOT NULL,
		track_file TEXT NOT NULL,
		fingerprint TEXT NOT NULL,
		tracker_run_id TEXT NOT NULL,
		wall_time REAL NOT NULL,
		scored_at TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS runs_fingerprint ON runs (fingerprint)`,
	`CREATE TABLE IF NOT EXISTS scores (
		run_id TEXT NOT NULL REFERENCES runs (id),
		seq INTEGER NOT NULL,
		grp TEXT NOT NULL,
		item TEXT NOT NULL,
		schedule TEXT NOT NULL,
		stat TEXT NOT NULL,
		n INTEGER NOT NULL,
		value REAL,
		PRIMARY KEY (run_id, seq)
	)`,
	`CREATE TABLE IF NOT EXISTS basic (
		run_id TEXT NOT NULL REFERENCES runs (id),
		name TEXT NOT NULL,
		value TEXT NOT NULL,
		PRIMARY KEY (run_id, name)
	)`,
}

// Run identifies one scoring of one tracker file.
type Run struct {
	ID          string
	TrackFile   string
	Fingerprint string
	ScoredAt    time.Time
}

// NewRun starts a run for the tracker file at path whose content is data.
func NewRun(path string, data []byte) Run {
	return Run{
		ID:          uuid.NewString(),
		TrackFile:   path,
		Fingerprint: cas.Fingerprint(data),
		ScoredAt:    time.Now().UTC(),
	}
}

// Summary is a stored run without its rows.
type Summary struct {
	Run
	Task         dataset.Task
	Role         dataset.Role
	Dataset      string
	TrackerRunID string
	WallTime     float64
}

// Store is an open score database.
type Store struct {
	db *sql.DB
}

// Open opens or creates the database at path.
func Open(ctx context.Context, path string) (*Store, error) {
	db, err := sqlite.Open(path)
	if err != nil {
		return nil, fmt.Errorf("report: open %s: %w", path, err)
	}
	if err := sqlite.Migrate(ctx, db, schema...); err != nil {
		db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Save stores a run and its table in one transaction.
func (s *Store) Save(ctx context.Context, run Run, t *score.Table) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("report: begin: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO runs (id, task, role, dataset, track_file, fingerprint, tracker_run_id, wall_time, scored_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, string(t.Task), string(t.Role), t.Dataset, run.TrackFile, run.Fingerprint,
		t.RunID, t.WallTime, run.ScoredAt.Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("report: insert run: %w", err)
	}

	for i, r := range t.Rows {
		var value sql.NullFloat64
		if r.Value != nil {
			value = sql.NullFloat64{Float64: *r.Value, Valid: true}
		}
		_, err := tx.ExecContext(ctx,
			`INSERT INTO scores (run_id, seq, grp, item, schedule, stat, n, value) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			run.ID, i, r.Group, r.Item, r.Schedule, r.Stat, r.N, value)
		if err != nil {
			return fmt.Errorf("report: insert score: %w", err)
		}
	}
	for _, b := range t.Basic {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO basic (run_id, name, value) VALUES (?, ?, ?)`, run.ID, b.Name, b.Value); err != nil {
			return fmt.Errorf("report: insert basic: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("report: commit: %w", err)
	}
	return nil
}

// Runs lists the stored runs of a fingerprint, oldest first. An empty
// fingerprint lists every run.
func (s *Store) Runs(ctx context.Context, fingerprint string) ([]Summary, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, task, role, dataset, track_file, fingerprint, tracker_run_id, wall_time, scored_at
		 FROM runs WHERE ? = '' OR fingerprint = ? ORDER BY scored_at, id`, fingerprint, fingerprint)
	if err != nil {
		return nil, fmt.Errorf("report: query runs: %w", err)
	}
	defer rows.Close()

	var out []Summary
	for rows.Next() {
		var (
			sum        Summary
			task, role string
			scoredAt   string
		)
		if err := rows.Scan(&sum.ID, &task, &role, &sum.Dataset, &sum.TrackFile, &sum.Fingerprint,
			&sum.TrackerRunID, &sum.WallTime, &scoredAt); err != nil {
			return nil, fmt.Errorf("report: scan run: %w", err)
		}
		sum.Task, sum.Role = dataset.Task(task), dataset.Role(role)
		if sum.ScoredAt, err = time.Parse(time.RFC3339Nano, scoredAt); err != nil {
			return nil, fmt.Errorf("report: run %s: %w", sum.ID, err)
		}
		out = append(out, sum)
	}
	return out, rows.Err()
}

// Table loads the rows and basic facts of a run, in their original order.
func (s *Store) Table(ctx context.Context, runID string) (*score.Table, error) {
	t := &score.Table{}
	var task, role string
	err := s.db.QueryRowContext(ctx,
		`SELECT task, role, dataset, tracker_run_id, wall_time FROM runs WHERE id = ?`, runID).
		Scan(&task, &role, &t.Dataset, &t.RunID, &t.WallTime)
	if err != nil {
		return nil, fmt.Errorf("report: run %s: %w", runID, err)
	}
	t.Task, t.Role = dataset.Task(task), dataset.Role(role)
	t.Header = score.PilotHeader
	if t.Task == dataset.TaskMain {
		t.Header = score.MainHeader
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT grp, item, schedule, stat, n, value FROM scores WHERE run_id = ? ORDER BY seq`, runID)
	if err != nil {
		return nil, fmt.Errorf("report: query scores: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			r     score.Row
			value sql.NullFloat64
		)
		if err := rows.Scan(&r.Group, &r.Item, &r.Schedule, &r.Stat, &r.N, &value); err != nil {
			return nil, fmt.Errorf("report: scan score: %w", err)
		}
		if value.Valid {
			v := value.Float64
			r.Value = &v
		}
		t.Rows = append(t.Rows, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	basic, err := s.db.QueryContext(ctx,
		`SELECT name, value FROM basic WHERE run_id = ? ORDER BY rowid`, runID)
	if err != nil {
		return nil, fmt.Errorf("report: query basic: %w", err)
	}
	defer basic.Close()
	for basic.Next() {
		var b score.Basic
		if err := basic.Scan(&b.Name, &b.Value); err != nil {
			return nil, fmt.Errorf("report: scan basic: %w", err)
		}
		t.Basic = append(t.Basic, b)
	}
	return t, basic.Err()
}
