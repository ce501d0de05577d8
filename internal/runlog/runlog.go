// Package runlog keeps a local history of batch runs in SQLite, one row
// per completed batch. The `runs` command reads it back.
package runlog

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"
)

// Store persists run history using modernc.org/sqlite.
type Store struct {
	db *sql.DB
}

// Open opens the history database at the given path and configures WAL
// mode.
func Open(dsn string) (*Store, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "runlog: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "runlog: exec %s", pragma)
		}
	}
	return &Store{db: db}, nil
}

const migration = `
CREATE TABLE IF NOT EXISTS runs (
	id          TEXT PRIMARY KEY,
	started_at  DATETIME NOT NULL,
	duration_ms INTEGER NOT NULL,
	total       INTEGER NOT NULL,
	quality     TEXT NOT NULL,
	output_file TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_runs_started_at ON runs(started_at);
`

func (s *Store) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, migration)
	return eris.Wrap(err, "runlog: migrate")
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Run is one completed batch.
type Run struct {
	ID         string
	StartedAt  time.Time
	Duration   time.Duration
	Total      int
	Quality    map[string]int // quality tier -> record count
	OutputFile string
}

// Record appends a completed run to the history.
func (s *Store) Record(ctx context.Context, run Run) error {
	qualityJSON, err := json.Marshal(run.Quality)
	if err != nil {
		return eris.Wrap(err, "runlog: marshal quality counts")
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO runs (id, started_at, duration_ms, total, quality, output_file) VALUES (?, ?, ?, ?, ?, ?)`,
		run.ID, run.StartedAt.UTC(), run.Duration.Milliseconds(), run.Total, string(qualityJSON), run.OutputFile,
	)
	return eris.Wrapf(err, "runlog: insert run %s", run.ID)
}

// List returns the most recent runs, newest first.
func (s *Store) List(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, started_at, duration_ms, total, quality, output_file
		 FROM runs ORDER BY started_at DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, eris.Wrap(err, "runlog: list runs")
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var (
			r           Run
			durationMS  int64
			qualityJSON string
		)
		if err := rows.Scan(&r.ID, &r.StartedAt, &durationMS, &r.Total, &qualityJSON, &r.OutputFile); err != nil {
			return nil, eris.Wrap(err, "runlog: scan run")
		}
		r.Duration = time.Duration(durationMS) * time.Millisecond
		if err := json.Unmarshal([]byte(qualityJSON), &r.Quality); err != nil {
			return nil, eris.Wrap(err, "runlog: unmarshal quality counts")
		}
		runs = append(runs, r)
	}
	return runs, eris.Wrap(rows.Err(), "runlog: list runs iterate")
}
