// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package journal keeps a local SQLite record of the commands that changed
// the cluster: index creation, loads and deletions. The journal is an audit
// trail; nothing reads it back to resume work.
package journal

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
)

// timeLayout is fixed width so stored timestamps sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Status is the outcome of a run.
type Status string

const (
	StatusOK     Status = "ok"
	StatusFailed Status = "failed"
)

// Run is one recorded command invocation.
type Run struct {
	ID        uuid.UUID `json:"id" yaml:"id"`
	Command   string    `json:"command" yaml:"command"`
	Indices   []string  `json:"indices" yaml:"indices"`
	Started   time.Time `json:"started" yaml:"started"`
	Finished  time.Time `json:"finished" yaml:"finished"`
	Documents int       `json:"documents" yaml:"documents"`
	Batches   int       `json:"batches" yaml:"batches"`
	Status    Status    `json:"status" yaml:"status"`
	Error     string    `json:"error,omitempty" yaml:"error,omitempty"`
}

// NewRun starts a run for command against indices.
func NewRun(command string, indices []string) *Run {
	return &Run{
		ID:      uuid.New(),
		Command: command,
		Indices: indices,
		Started: time.Now().UTC(),
	}
}

// Finish stamps the run with its end time and outcome.
func (r *Run) Finish(documents, batches int, err error) {
	r.Finished = time.Now().UTC()
	r.Documents = documents
	r.Batches = batches
	r.Status = StatusOK
	r.Error = ""
	if err != nil {
		r.Status = StatusFailed
		r.Error = err.Error()
	}
}

// Duration returns the run's wall time, or zero if it has not finished.
func (r Run) Duration() time.Duration {
	if r.Finished.IsZero() {
		return 0
	}
	return r.Finished.Sub(r.Started)
}

// Journal is the run database.
type Journal struct {
	db   *sql.DB
	path string
}

// Open opens or creates the journal database at path, creating the parent
// directory if needed.
func Open(path string) (*Journal, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating journal directory: %w", err)
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("opening journal: %w", err)
	}

	j := &Journal{db: db, path: path}
	if err := j.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating journal schema: %w", err)
	}
	return j, nil
}

// Path returns the database file path.
func (j *Journal) Path() string { return j.path }

// Close releases the database connection.
func (j *Journal) Close() error {
	return j.db.Close()
}

func (j *Journal) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			command TEXT NOT NULL,
			indices TEXT NOT NULL,
			started TEXT NOT NULL,
			finished TEXT,
			documents INTEGER NOT NULL DEFAULT 0,
			batches INTEGER NOT NULL DEFAULT 0,
			status TEXT NOT NULL,
			error TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started)`,
	}
	for _, stmt := range statements {
		if _, err := j.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// Record inserts or replaces run.
func (j *Journal) Record(ctx context.Context, run *Run) error {
	indices, err := json.Marshal(run.Indices)
	if err != nil {
		return fmt.Errorf("encoding indices: %w", err)
	}

	var finished sql.NullString
	if !run.Finished.IsZero() {
		finished = sql.NullString{String: run.Finished.UTC().Format(timeLayout), Valid: true}
	}

	_, err = j.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO runs (id, command, indices, started, finished, documents, batches, status, error)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID.String(), run.Command, string(indices),
		run.Started.UTC().Format(timeLayout), finished,
		run.Documents, run.Batches, string(run.Status), run.Error,
	)
	if err != nil {
		return fmt.Errorf("recording run %s: %w", run.ID, err)
	}
	return nil
}

// List returns the most recent runs, newest first. A limit of zero or less
// returns every run.
func (j *Journal) List(ctx context.Context, limit int) ([]Run, error) {
	query := `SELECT id, command, indices, started, finished, documents, batches, status, error
		FROM runs ORDER BY started DESC, rowid DESC`
	var args []any
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := j.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

func scanRun(rows *sql.Rows) (Run, error) {
	var (
		run                  Run
		id, indices, started string
		status               string
		finished, errMsg     sql.NullString
	)
	if err := rows.Scan(&id, &run.Command, &indices, &started, &finished,
		&run.Documents, &run.Batches, &status, &errMsg); err != nil {
		return Run{}, fmt.Errorf("scanning run: %w", err)
	}

	var err error
	if run.ID, err = uuid.Parse(id); err != nil {
		return Run{}, fmt.Errorf("run id %q: %w", id, err)
	}
	if err := json.Unmarshal([]byte(indices), &run.Indices); err != nil {
		return Run{}, fmt.Errorf("run %s indices: %w", id, err)
	}
	if run.Started, err = time.Parse(timeLayout, started); err != nil {
		return Run{}, fmt.Errorf("run %s started: %w", id, err)
	}
	if finished.Valid {
		if run.Finished, err = time.Parse(timeLayout, finished.String); err != nil {
			return Run{}, fmt.Errorf("run %s finished: %w", id, err)
		}
	}
	run.Status = Status(status)
	run.Error = errMsg.String
	return run, nil
}
