// Package history records sync runs in a local SQLite database so `foundry
// history` can answer "what did the last sync actually do". Recording is
// best-effort: a history failure never fails a sync.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/foundryhq/foundry/internal/apply"
	"github.com/foundryhq/foundry/internal/tracker"
)

const schema = `
CREATE TABLE IF NOT EXISTS sync_runs (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	spec TEXT NOT NULL,
	parent TEXT NOT NULL,
	created INTEGER NOT NULL DEFAULT 0,
	updated INTEGER NOT NULL DEFAULT 0,
	reopened INTEGER NOT NULL DEFAULT 0,
	completed INTEGER NOT NULL DEFAULT 0,
	closed INTEGER NOT NULL DEFAULT 0,
	failures INTEGER NOT NULL DEFAULT 0,
	cancelled INTEGER NOT NULL DEFAULT 0,
	started_at TIMESTAMP NOT NULL,
	duration_ms INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS sync_failures (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	run_id INTEGER NOT NULL REFERENCES sync_runs(id) ON DELETE CASCADE,
	kind TEXT NOT NULL,
	target TEXT NOT NULL,
	error_kind TEXT NOT NULL,
	message TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_sync_runs_spec ON sync_runs(spec, started_at);
`

// Run is one recorded sync.
type Run struct {
	ID        int64
	Spec      string
	Parent    string
	Created   int
	Updated   int
	Reopened  int
	Completed int
	Closed    int
	Failures  int
	Cancelled bool
	StartedAt time.Time
	Duration  time.Duration
}

// Store wraps the history database.
type Store struct {
	db *sql.DB
}

// Open creates or opens the history database at path, applying the schema.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("creating history directory: %w", err)
	}
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_foreign_keys=ON")
	if err != nil {
		return nil, fmt.Errorf("opening history database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging history database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("initializing history schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the database handle.
func (s *Store) Close() error { return s.db.Close() }

// Record stores one sync run and its failures.
func (s *Store) Record(ctx context.Context, spec, parent string, report apply.Report, startedAt time.Time, duration time.Duration) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("beginning history transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		INSERT INTO sync_runs (spec, parent, created, updated, reopened, completed, closed, failures, cancelled, started_at, duration_ms)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		spec, parent,
		report.Created, report.Updated, report.Reopened, report.Completed, report.Closed,
		len(report.Failures), boolInt(report.Cancelled),
		startedAt.UTC(), duration.Milliseconds())
	if err != nil {
		return 0, fmt.Errorf("inserting sync run: %w", err)
	}
	runID, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("reading run id: %w", err)
	}

	for _, f := range report.Failures {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO sync_failures (run_id, kind, target, error_kind, message)
			VALUES (?, ?, ?, ?, ?)`,
			runID, string(f.Kind), f.Target, string(f.ErrorKind), f.Message); err != nil {
			return 0, fmt.Errorf("inserting sync failure: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing history transaction: %w", err)
	}
	return runID, nil
}

// Recent returns the most recent runs, newest first. A zero limit means 20.
func (s *Store) Recent(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, spec, parent, created, updated, reopened, completed, closed, failures, cancelled, started_at, duration_ms
		FROM sync_runs ORDER BY started_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying sync runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		var cancelled int
		var durationMS int64
		if err := rows.Scan(&r.ID, &r.Spec, &r.Parent, &r.Created, &r.Updated, &r.Reopened,
			&r.Completed, &r.Closed, &r.Failures, &cancelled, &r.StartedAt, &durationMS); err != nil {
			return nil, fmt.Errorf("scanning sync run: %w", err)
		}
		r.Cancelled = cancelled != 0
		r.Duration = time.Duration(durationMS) * time.Millisecond
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// FailuresFor returns the recorded failures of one run.
func (s *Store) FailuresFor(ctx context.Context, runID int64) ([]apply.Failure, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT kind, target, error_kind, message FROM sync_failures WHERE run_id = ? ORDER BY id`, runID)
	if err != nil {
		return nil, fmt.Errorf("querying sync failures: %w", err)
	}
	defer rows.Close()

	var out []apply.Failure
	for rows.Next() {
		var f apply.Failure
		var kind, errorKind string
		if err := rows.Scan(&kind, &f.Target, &errorKind, &f.Message); err != nil {
			return nil, fmt.Errorf("scanning sync failure: %w", err)
		}
		f.Kind = apply.OpKind(kind)
		f.ErrorKind = tracker.ErrorKind(errorKind)
		out = append(out, f)
	}
	return out, rows.Err()
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
