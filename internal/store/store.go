// Package store maintains a local SQLite index of every run so `noscope`
// can list and look up past runs without scanning the .noscope/runs
// directory tree on every invocation.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	run_id       TEXT PRIMARY KEY,
	spec_name    TEXT NOT NULL,
	started_at   TEXT NOT NULL,
	finished_at  TEXT,
	timebox_secs INTEGER NOT NULL,
	outcome      TEXT NOT NULL DEFAULT 'running'
);
`

// Store is a handle to the run index database.
type Store struct {
	db *sql.DB
}

// Open creates (if necessary) and opens the SQLite database at path,
// typically ~/.noscope/runs.db.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open run index: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate run index: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error { return s.db.Close() }

// RunRecord is a single row of the run index.
type RunRecord struct {
	RunID       string
	SpecName    string
	StartedAt   time.Time
	FinishedAt  *time.Time
	TimeboxSecs int
	Outcome     string
}

// RecordStart inserts a new row for a run that has just begun.
func (s *Store) RecordStart(ctx context.Context, runID, specName string, timeboxSecs int) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (run_id, spec_name, started_at, timebox_secs, outcome) VALUES (?, ?, ?, ?, 'running')`,
		runID, specName, time.Now().UTC().Format(time.RFC3339), timeboxSecs,
	)
	return err
}

// RecordFinish marks a run complete with the given outcome
// ("handoff", "expired", "panicked").
func (s *Store) RecordFinish(ctx context.Context, runID, outcome string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE runs SET finished_at = ?, outcome = ? WHERE run_id = ?`,
		time.Now().UTC().Format(time.RFC3339), outcome, runID,
	)
	return err
}

// Recent returns the most recently started runs, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]RunRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT run_id, spec_name, started_at, finished_at, timebox_secs, outcome
		 FROM runs ORDER BY started_at DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []RunRecord
	for rows.Next() {
		var (
			rec       RunRecord
			startedAt string
			finished  sql.NullString
		)
		if err := rows.Scan(&rec.RunID, &rec.SpecName, &startedAt, &finished, &rec.TimeboxSecs, &rec.Outcome); err != nil {
			return nil, err
		}
		rec.StartedAt, _ = time.Parse(time.RFC3339, startedAt)
		if finished.Valid {
			t, err := time.Parse(time.RFC3339, finished.String)
			if err == nil {
				rec.FinishedAt = &t
			}
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}
