// Package ledger records every health run and its tool results in a SQLite
// database next to the dashboard.
package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/Sumatoshi-tech/repohealth/pkg/checkout"
	"github.com/Sumatoshi-tech/repohealth/pkg/collect"
)

// ErrRunNotFound is returned when a run id is unknown.
var ErrRunNotFound = errors.New("run not found")

const timeLayout = time.RFC3339Nano

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id TEXT PRIMARY KEY,
	started TEXT NOT NULL,
	finished TEXT,
	num_back INTEGER NOT NULL,
	profile TEXT NOT NULL,
	report_only INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS results (
	run_id TEXT NOT NULL REFERENCES runs(id),
	back INTEGER NOT NULL,
	hash TEXT NOT NULL,
	date TEXT NOT NULL,
	tool TEXT NOT NULL,
	alias TEXT NOT NULL,
	kpi TEXT NOT NULL,
	status TEXT NOT NULL,
	cached INTEGER NOT NULL,
	duration_ms INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_results_run ON results(run_id);
CREATE INDEX IF NOT EXISTS idx_results_hash ON results(hash);
`

// Ledger is an open run database.
type Ledger struct {
	db   *sql.DB
	path string
}

// Open creates or opens the ledger at path.
func Open(path string) (*Ledger, error) {
	err := os.MkdirAll(filepath.Dir(path), 0o750)
	if err != nil {
		return nil, fmt.Errorf("create ledger dir: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open ledger %s: %w", path, err)
	}

	// Tool results arrive from parallel workers; SQLite takes one writer.
	db.SetMaxOpenConns(1)

	_, err = db.Exec(schema)
	if err != nil {
		return nil, errors.Join(fmt.Errorf("init ledger schema: %w", err), db.Close())
	}

	return &Ledger{db: db, path: path}, nil
}

// Path returns the database file path.
func (l *Ledger) Path() string {
	return l.path
}

// Close closes the database.
func (l *Ledger) Close() error {
	return l.db.Close()
}

// RunOptions describes a run being started.
type RunOptions struct {
	NumBack    int
	Profile    string
	ReportOnly bool
	Started    time.Time
}

// Run is one recorded run with its result counts.
type Run struct {
	ID         string
	Started    time.Time
	Finished   time.Time
	NumBack    int
	Profile    string
	ReportOnly bool
	Results    int
	Failed     int
}

// Duration returns the run's wall time, or zero while unfinished.
func (r Run) Duration() time.Duration {
	if r.Finished.IsZero() {
		return 0
	}

	return r.Finished.Sub(r.Started)
}

// Entry is one recorded tool result.
type Entry struct {
	Commit   checkout.Commit
	Tool     string
	Alias    string
	KPI      string
	Status   string
	Cached   bool
	Duration time.Duration
}

// BeginRun inserts a run and returns the recorder that collects its results.
func (l *Ledger) BeginRun(ctx context.Context, opts RunOptions) (*Recorder, error) {
	started := opts.Started
	if started.IsZero() {
		started = time.Now()
	}

	id := uuid.NewString()

	_, err := l.db.ExecContext(ctx,
		`INSERT INTO runs (id, started, num_back, profile, report_only) VALUES (?, ?, ?, ?, ?)`,
		id, started.UTC().Format(timeLayout), opts.NumBack, opts.Profile, opts.ReportOnly)
	if err != nil {
		return nil, fmt.Errorf("insert run: %w", err)
	}

	return &Recorder{ledger: l, id: id, reportOnly: opts.ReportOnly}, nil
}

// Runs lists the latest runs, newest first. A non-positive limit lists all.
func (l *Ledger) Runs(ctx context.Context, limit int) ([]Run, error) {
	query := `
SELECT r.id, r.started, COALESCE(r.finished, ''), r.num_back, r.profile, r.report_only,
	COUNT(x.run_id), COALESCE(SUM(CASE WHEN x.status <> ? THEN 1 ELSE 0 END), 0)
FROM runs r LEFT JOIN results x ON x.run_id = r.id
GROUP BY r.id
ORDER BY r.started DESC`

	args := []any{collect.StatusOK}

	if limit > 0 {
		query += ` LIMIT ?`

		args = append(args, limit)
	}

	rows, err := l.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run

	for rows.Next() {
		var (
			run               Run
			started, finished string
		)

		err = rows.Scan(&run.ID, &started, &finished, &run.NumBack, &run.Profile, &run.ReportOnly,
			&run.Results, &run.Failed)
		if err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}

		run.Started, err = parseTime(started)
		if err != nil {
			return nil, err
		}

		run.Finished, err = parseTime(finished)
		if err != nil {
			return nil, err
		}

		runs = append(runs, run)
	}

	return runs, rows.Err()
}

// Entries returns the results of a run in insertion order.
func (l *Ledger) Entries(ctx context.Context, runID string) ([]Entry, error) {
	var exists int

	err := l.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM runs WHERE id = ?`, runID).Scan(&exists)
	if err != nil {
		return nil, fmt.Errorf("look up run: %w", err)
	}

	if exists == 0 {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}

	rows, err := l.db.QueryContext(ctx, `
SELECT back, hash, date, tool, alias, kpi, status, cached, duration_ms
FROM results WHERE run_id = ? ORDER BY rowid`, runID)
	if err != nil {
		return nil, fmt.Errorf("query results: %w", err)
	}
	defer rows.Close()

	var entries []Entry

	for rows.Next() {
		var (
			e  Entry
			ms int64
		)

		err = rows.Scan(&e.Commit.Back, &e.Commit.Hash, &e.Commit.Date, &e.Tool, &e.Alias, &e.KPI,
			&e.Status, &e.Cached, &ms)
		if err != nil {
			return nil, fmt.Errorf("scan result: %w", err)
		}

		e.Duration = time.Duration(ms) * time.Millisecond
		entries = append(entries, e)
	}

	return entries, rows.Err()
}

func parseTime(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}

	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse ledger time %q: %w", s, err)
	}

	return t, nil
}

// Recorder collects the results of one run. It is safe for concurrent use.
type Recorder struct {
	ledger     *Ledger
	id         string
	reportOnly bool

	mu  sync.Mutex
	err error
}

// ID returns the run id.
func (r *Recorder) ID() string {
	return r.id
}

// ObserveTool records one tool result. Write errors are kept and returned
// by Finish, so a broken ledger never fails a run.
func (r *Recorder) ObserveTool(ctx context.Context, commit checkout.Commit, result collect.Result) {
	_, err := r.ledger.db.ExecContext(ctx, `
INSERT INTO results (run_id, back, hash, date, tool, alias, kpi, status, cached, duration_ms)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.id, commit.Back, commit.Hash, commit.Date, result.Tool, result.Alias, result.KPI,
		result.Status(r.reportOnly), result.Cached, result.Duration.Milliseconds())
	if err != nil {
		r.mu.Lock()
		r.err = errors.Join(r.err, fmt.Errorf("record %s at %s: %w", result.Alias, commit.Hash, err))
		r.mu.Unlock()
	}
}

// Finish stamps the run's finish time and reports any recording error.
func (r *Recorder) Finish(ctx context.Context, finished time.Time) error {
	_, err := r.ledger.db.ExecContext(ctx, `UPDATE runs SET finished = ? WHERE id = ?`,
		finished.UTC().Format(timeLayout), r.id)

	r.mu.Lock()
	defer r.mu.Unlock()

	if err != nil {
		return errors.Join(r.err, fmt.Errorf("finish run: %w", err))
	}

	return r.err
}
