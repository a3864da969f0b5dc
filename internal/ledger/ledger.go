// Package ledger is the durable, append-mostly record of conversion state
// keyed by source path. It is backed by a single SQLite file opened at the
// input root via database/sql and github.com/mattn/go-sqlite3. No example
// in the retrieved pack ships a database driver; the record shape is
// grounded on the job-record schemas in the retrieved transcode-job
// examples.
package ledger

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// State is one of the three persisted conversion states.
type State string

const (
	StateProcessing State = "processing"
	StateComplete   State = "complete"
	StateFailed     State = "failed"
)

const schema = `
CREATE TABLE IF NOT EXISTS conversions (
	id           INTEGER PRIMARY KEY,
	source_path  TEXT    UNIQUE NOT NULL,
	target_path  TEXT    NOT NULL,
	state        TEXT    NOT NULL,
	started_at   INTEGER NOT NULL,
	completed_at INTEGER,
	error        TEXT,
	source_bytes INTEGER,
	output_bytes INTEGER
);
CREATE INDEX IF NOT EXISTS idx_conversions_state ON conversions(state);
CREATE INDEX IF NOT EXISTS idx_conversions_source_path ON conversions(source_path);
`

// Record is a single conversions row.
type Record struct {
	SourcePath  string
	TargetPath  string
	State       State
	StartedAt   time.Time
	CompletedAt *time.Time
	Error       string
	SourceBytes int64
	OutputBytes int64
}

// Ledger is a thin wrapper around *sql.DB with the six operations the
// pipeline and the verify/cleanup modes need. Safe for concurrent use: the
// underlying driver's connection pool plus SQLite's own file locking
// satisfy the concurrency contract without an additional mutex.
type Ledger struct {
	db *sql.DB
}

// Open opens (creating if necessary) the SQLite file at path and ensures the
// schema exists.
func Open(path string) (*Ledger, error) {
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("opening ledger: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging ledger: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating ledger schema: %w", err)
	}
	// The pool starts at most C jobs concurrently, each touching a distinct
	// source_path; a handful of connections is enough to avoid serializing
	// unrelated writers on sql.DB's own pool.
	db.SetMaxOpenConns(8)
	return &Ledger{db: db}, nil
}

// Close closes the underlying database handle.
func (l *Ledger) Close() error {
	return l.db.Close()
}

// Start upserts a processing record for source, wiping any prior record for
// the same key (a restart is not an update of the prior attempt).
func (l *Ledger) Start(source, target string, sourceBytes int64) error {
	tx, err := l.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.Exec(
		`INSERT INTO conversions (source_path, target_path, state, started_at, completed_at, error, source_bytes, output_bytes)
		 VALUES (?, ?, ?, ?, NULL, NULL, ?, NULL)
		 ON CONFLICT(source_path) DO UPDATE SET
		   target_path=excluded.target_path, state=excluded.state, started_at=excluded.started_at,
		   completed_at=NULL, error=NULL, source_bytes=excluded.source_bytes, output_bytes=NULL`,
		source, target, StateProcessing, nowMs(), sourceBytes,
	)
	if err != nil {
		return err
	}
	return tx.Commit()
}

// Complete marks source as complete with the given output size.
func (l *Ledger) Complete(source string, outputBytes int64) error {
	tx, err := l.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.Exec(
		`UPDATE conversions SET state=?, completed_at=?, output_bytes=? WHERE source_path=?`,
		StateComplete, nowMs(), outputBytes, source,
	)
	if err != nil {
		return err
	}
	return tx.Commit()
}

// Fail marks source as failed with the given error text.
func (l *Ledger) Fail(source, errorText string) error {
	tx, err := l.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.Exec(
		`UPDATE conversions SET state=?, completed_at=?, error=? WHERE source_path=?`,
		StateFailed, nowMs(), errorText, source,
	)
	if err != nil {
		return err
	}
	return tx.Commit()
}

// Get looks up the record for source, if any.
func (l *Ledger) Get(source string) (*Record, error) {
	row := l.db.QueryRow(
		`SELECT source_path, target_path, state, started_at, completed_at, error, source_bytes, output_bytes
		 FROM conversions WHERE source_path=?`, source)
	rec, err := scanRecord(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return rec, err
}

// QueryByState returns every record in the given state, used by verify and
// cleanup.
func (l *Ledger) QueryByState(state State) ([]Record, error) {
	rows, err := l.db.Query(
		`SELECT source_path, target_path, state, started_at, completed_at, error, source_bytes, output_bytes
		 FROM conversions WHERE state=?`, state)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *rec)
	}
	return out, rows.Err()
}

// Delete drops the record for source, used by cleanup to re-enable
// reconversion.
func (l *Ledger) Delete(source string) error {
	_, err := l.db.Exec(`DELETE FROM conversions WHERE source_path=?`, source)
	return err
}

// scanner abstracts over *sql.Row and *sql.Rows so scanRecord serves both
// Get and QueryByState.
type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(s scanner) (*Record, error) {
	var rec Record
	var startedMs int64
	var completedMs sql.NullInt64
	var errText sql.NullString
	var sourceBytes, outputBytes sql.NullInt64

	if err := s.Scan(&rec.SourcePath, &rec.TargetPath, &rec.State, &startedMs,
		&completedMs, &errText, &sourceBytes, &outputBytes); err != nil {
		return nil, err
	}
	rec.StartedAt = time.UnixMilli(startedMs)
	if completedMs.Valid {
		t := time.UnixMilli(completedMs.Int64)
		rec.CompletedAt = &t
	}
	rec.Error = errText.String
	rec.SourceBytes = sourceBytes.Int64
	rec.OutputBytes = outputBytes.Int64
	return &rec, nil
}

func nowMs() int64 {
	return time.Now().UnixMilli()
}
