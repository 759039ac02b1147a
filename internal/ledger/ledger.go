// Package ledger records migration runs in a local SQLite database so a
// project's migration history can be reviewed after the fact.
package ledger

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // Pure-Go SQLite driver.
)

// Run statuses.
const (
	StatusApplied  = "applied"
	StatusUpToDate = "up-to-date"
	StatusFailed   = "failed"
)

const schema = `
CREATE TABLE IF NOT EXISTS runs (
    id           TEXT PRIMARY KEY,
    project      TEXT NOT NULL,
    map_key      TEXT NOT NULL,
    from_version TEXT NOT NULL,
    to_version   TEXT NOT NULL,
    migrations   TEXT NOT NULL DEFAULT '',
    status       TEXT NOT NULL,
    error        TEXT NOT NULL DEFAULT '',
    created_at   TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS runs_created_at ON runs(created_at);
`

// Run is one recorded migration of a map.
type Run struct {
	ID         string
	Project    string
	MapKey     string
	From       string
	To         string
	Migrations []string
	Status     string
	Error      string
	CreatedAt  time.Time
}

// Ledger is a SQLite-backed record of migration runs.
type Ledger struct {
	db  *sql.DB
	now func() time.Time
}

// Open opens (or creates) the ledger database at path.
func Open(ctx context.Context, path string) (*Ledger, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("ledger: create directory: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("ledger: open database: %w", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("ledger: enable WAL mode: %w", err)
	}
	if _, err := db.ExecContext(ctx, "PRAGMA busy_timeout=5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("ledger: set busy timeout: %w", err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("ledger: create schema: %w", err)
	}
	return &Ledger{db: db, now: time.Now}, nil
}

// Record stores r, assigning an ID and timestamp when they are unset, and
// returns the stored run.
func (l *Ledger) Record(ctx context.Context, r Run) (Run, error) {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = l.now().UTC()
	}
	const q = `
		INSERT INTO runs (id, project, map_key, from_version, to_version, migrations, status, error, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := l.db.ExecContext(ctx, q,
		r.ID, r.Project, r.MapKey, r.From, r.To,
		strings.Join(r.Migrations, "\n"), r.Status, r.Error, r.CreatedAt.UTC().Format(timeLayout))
	if err != nil {
		return Run{}, fmt.Errorf("ledger: record run for %q: %w", r.MapKey, err)
	}
	return r, nil
}

// List returns up to limit runs, newest first. A limit of zero or less
// returns every run.
func (l *Ledger) List(ctx context.Context, limit int) ([]Run, error) {
	q := `
		SELECT id, project, map_key, from_version, to_version, migrations, status, error, created_at
		FROM runs ORDER BY created_at DESC, rowid DESC`
	args := []any{}
	if limit > 0 {
		q += " LIMIT ?"
		args = append(args, limit)
	}
	rows, err := l.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("ledger: list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var (
			r          Run
			migrations string
			ts         string
		)
		if err := rows.Scan(&r.ID, &r.Project, &r.MapKey, &r.From, &r.To, &migrations, &r.Status, &r.Error, &ts); err != nil {
			return nil, fmt.Errorf("ledger: scan run: %w", err)
		}
		createdAt, err := parseTimestamp(ts)
		if err != nil {
			return nil, fmt.Errorf("ledger: run %s: %w", r.ID, err)
		}
		r.CreatedAt = createdAt
		if migrations != "" {
			r.Migrations = strings.Split(migrations, "\n")
		}
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ledger: list runs: %w", err)
	}
	return runs, nil
}

// timeLayout is fixed width so created_at sorts chronologically as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// timestampFormats lists the layouts created_at may be stored in.
var timestampFormats = []string{
	timeLayout,
	time.RFC3339,
	time.DateTime,
}

func parseTimestamp(s string) (time.Time, error) {
	for _, layout := range timestampFormats {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp format: %q", s)
}

// Close closes the database.
func (l *Ledger) Close() error {
	return l.db.Close()
}
