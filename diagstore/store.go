// Package diagstore archives compilation runs and their diagnostics in a
// SQLite database so results can be compared across edits of a plan.
package diagstore

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
	"github.com/tliron/commonlog"

	"github.com/chazu/plexc/compiler"

	_ "modernc.org/sqlite"
)

var log = commonlog.GetLogger("plexc.diagstore")

// ErrRunNotFound indicates the requested run doesn't exist.
var ErrRunNotFound = errors.New("diagstore: run not found")

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id       TEXT PRIMARY KEY,
	source   TEXT NOT NULL,
	digest   TEXT NOT NULL,
	created  INTEGER NOT NULL,
	errors   INTEGER NOT NULL,
	warnings INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS diagnostics (
	run_id   TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
	seq      INTEGER NOT NULL,
	severity TEXT NOT NULL,
	line     INTEGER NOT NULL,
	col      INTEGER NOT NULL,
	message  TEXT NOT NULL,
	PRIMARY KEY (run_id, seq)
);
CREATE INDEX IF NOT EXISTS runs_source ON runs(source, created);
`

// Run summarizes one archived compilation.
type Run struct {
	ID       string
	Source   string
	Digest   string // hex plan digest; empty when nothing was emitted
	Created  time.Time
	Errors   int // ERROR and FATAL
	Warnings int
}

// Store is a diagnostics archive.
type Store struct {
	db   *sql.DB
	path string
	mu   sync.Mutex
	now  func() time.Time
}

// Open opens or creates the archive at path. ":memory:" gives a private
// in-memory database.
func Open(path string) (*Store, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("creating store dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	// One connection keeps ":memory:" a single database.
	db.SetMaxOpenConns(1)

	for _, pragma := range []string{"PRAGMA busy_timeout = 5000", "PRAGMA foreign_keys = ON"} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("%s: %w", pragma, err)
		}
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating tables: %w", err)
	}

	log.Debugf("opened %s", path)
	return &Store{db: db, path: path, now: time.Now}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// RecordRun archives the diagnostics of one compilation of source.
func (s *Store) RecordRun(ctx context.Context, source, digest string, diags []compiler.Diagnostic) (Run, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	run := Run{
		ID:      uuid.NewString(),
		Source:  source,
		Digest:  digest,
		Created: s.now().UTC(),
	}
	for _, d := range diags {
		switch {
		case d.Severity >= compiler.SeverityError:
			run.Errors++
		case d.Severity == compiler.SeverityWarning:
			run.Warnings++
		}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Run{}, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		"INSERT INTO runs (id, source, digest, created, errors, warnings) VALUES (?, ?, ?, ?, ?, ?)",
		run.ID, run.Source, run.Digest, run.Created.UnixNano(), run.Errors, run.Warnings,
	)
	if err != nil {
		return Run{}, fmt.Errorf("saving run: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		"INSERT INTO diagnostics (run_id, seq, severity, line, col, message) VALUES (?, ?, ?, ?, ?, ?)")
	if err != nil {
		return Run{}, fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()
	for i, d := range diags {
		if _, err := stmt.ExecContext(ctx, run.ID, i, d.Severity.String(), d.Pos.Line, d.Pos.Column, d.Message); err != nil {
			return Run{}, fmt.Errorf("saving diagnostic %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return Run{}, fmt.Errorf("committing run: %w", err)
	}
	log.Infof("run %s: %s, %d errors, %d warnings", run.ID, source, run.Errors, run.Warnings)
	return run, nil
}

// Run returns one run by id.
func (s *Store) Run(ctx context.Context, id string) (Run, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT id, source, digest, created, errors, warnings FROM runs WHERE id = ?", id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	return run, err
}

// Runs lists archived runs, newest first. A non-empty source restricts the
// list to that source.
func (s *Store) Runs(ctx context.Context, source string) ([]Run, error) {
	q := "SELECT id, source, digest, created, errors, warnings FROM runs"
	var args []any
	if source != "" {
		q += " WHERE source = ?"
		args = append(args, source)
	}
	q += " ORDER BY created DESC, rowid DESC"

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("querying runs: %w", err)
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

// Diagnostics returns the diagnostics of a run in recorded order. The
// returned values carry no Node.
func (s *Store) Diagnostics(ctx context.Context, runID string) ([]compiler.Diagnostic, error) {
	if _, err := s.Run(ctx, runID); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		"SELECT severity, line, col, message FROM diagnostics WHERE run_id = ? ORDER BY seq", runID)
	if err != nil {
		return nil, fmt.Errorf("querying diagnostics: %w", err)
	}
	defer rows.Close()

	var out []compiler.Diagnostic
	for rows.Next() {
		var (
			sev string
			d   compiler.Diagnostic
		)
		if err := rows.Scan(&sev, &d.Pos.Line, &d.Pos.Column, &d.Message); err != nil {
			return nil, fmt.Errorf("scanning diagnostic: %w", err)
		}
		var ok bool
		if d.Severity, ok = compiler.ParseSeverity(sev); !ok {
			return nil, fmt.Errorf("run %s: unknown severity %q", runID, sev)
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// Prune deletes all but the newest keep runs of source and returns how
// many were removed.
func (s *Store) Prune(ctx context.Context, source string, keep int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, `DELETE FROM runs WHERE source = ? AND id NOT IN (
		SELECT id FROM runs WHERE source = ? ORDER BY created DESC, rowid DESC LIMIT ?)`,
		source, source, keep)
	if err != nil {
		return 0, fmt.Errorf("pruning runs: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(n), nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (Run, error) {
	var (
		run     Run
		created int64
	)
	if err := row.Scan(&run.ID, &run.Source, &run.Digest, &created, &run.Errors, &run.Warnings); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Run{}, err
		}
		return Run{}, fmt.Errorf("scanning run: %w", err)
	}
	run.Created = time.Unix(0, created).UTC()
	return run, nil
}
