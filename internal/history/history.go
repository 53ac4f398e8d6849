// Package history records install and uninstall runs in a SQLite database
// kept in the shipkit config directory.
package history

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3" // registers the sqlite3 driver with database/sql
)

// FileName is the history database inside the config directory.
const FileName = "history.db"

// Actions recorded in the runs table.
const (
	ActionInstall   = "install"
	ActionUninstall = "uninstall"
)

// Run is one recorded install or uninstall.
type Run struct {
	ID          int64     `json:"id"`
	Action      string    `json:"action"`
	Target      string    `json:"target"`
	Mode        string    `json:"mode,omitempty"`
	FromVersion string    `json:"from_version,omitempty"`
	ToVersion   string    `json:"to_version,omitempty"`
	Transition  string    `json:"transition,omitempty"`
	Files       int       `json:"files"`
	BackedUp    int       `json:"backed_up"`
	Removed     int       `json:"removed"`
	CreatedAt   time.Time `json:"created_at"`
}

// DB wraps a *sql.DB with the path it was opened from.
type DB struct {
	db   *sql.DB
	path string
}

// Path returns the history database location inside configDir.
func Path(configDir string) string {
	return filepath.Join(configDir, FileName)
}

// Open opens (or creates) the SQLite database at path and initialises the schema.
func Open(path string) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("history.Open: %w", err)
	}
	sqldb, err := sql.Open("sqlite3", path+"?_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("history.Open: %w", err)
	}
	d := &DB{db: sqldb, path: path}
	if err := d.createSchema(); err != nil {
		_ = sqldb.Close()
		return nil, fmt.Errorf("history.Open createSchema: %w", err)
	}
	return d, nil
}

// Close closes the underlying database connection.
func (d *DB) Close() error {
	return d.db.Close()
}

// ---------------------------------------------------------------------------
// Schema
// ---------------------------------------------------------------------------

func (d *DB) createSchema() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id           INTEGER PRIMARY KEY AUTOINCREMENT,
			action       TEXT NOT NULL,
			target       TEXT NOT NULL,
			mode         TEXT,
			from_version TEXT,
			to_version   TEXT,
			transition   TEXT,
			files        INTEGER NOT NULL DEFAULT 0,
			backed_up    INTEGER NOT NULL DEFAULT 0,
			removed      INTEGER NOT NULL DEFAULT 0,
			created_at   TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS runs_target ON runs(target, created_at)`,
	}

	for _, s := range stmts {
		if _, err := d.db.Exec(s); err != nil {
			return fmt.Errorf("createSchema exec: %w\nSQL: %s", err, s)
		}
	}
	return nil
}

// ---------------------------------------------------------------------------
// Runs
// ---------------------------------------------------------------------------

// Record inserts run and returns its id. A zero CreatedAt is stamped with the
// current time.
func (d *DB) Record(run *Run) (int64, error) {
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now()
	}
	res, err := d.db.Exec(
		`INSERT INTO runs (action, target, mode, from_version, to_version, transition,
		                   files, backed_up, removed, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.Action, run.Target, run.Mode, run.FromVersion, run.ToVersion, run.Transition,
		run.Files, run.BackedUp, run.Removed, run.CreatedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return 0, fmt.Errorf("history.Record: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("history.Record: %w", err)
	}
	run.ID = id
	return id, nil
}

// List returns recorded runs, newest first. target filters by target
// directory when non-empty; limit <= 0 means no limit.
func (d *DB) List(limit int, target string) ([]Run, error) {
	where, params := buildWhere(target)
	q := `SELECT id, action, target, mode, from_version, to_version, transition,
		         files, backed_up, removed, created_at
		  FROM runs` + where + "\n\t\tORDER BY id DESC" // #nosec G202 -- WHERE clause uses hardcoded column names only; values flow through ? bound parameters
	if limit > 0 {
		q += "\n\t\tLIMIT ?"
		params = append(params, limit)
	}

	rows, err := d.db.Query(q, params...)
	if err != nil {
		return nil, fmt.Errorf("history.List: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		var mode, from, to, transition sql.NullString
		var created string
		if err := rows.Scan(&r.ID, &r.Action, &r.Target, &mode, &from, &to, &transition,
			&r.Files, &r.BackedUp, &r.Removed, &created); err != nil {
			return nil, fmt.Errorf("history.List: %w", err)
		}
		r.Mode, r.FromVersion, r.ToVersion, r.Transition = mode.String, from.String, to.String, transition.String
		r.CreatedAt, err = time.Parse(time.RFC3339Nano, created)
		if err != nil {
			return nil, fmt.Errorf("history.List: run %d: %w", r.ID, err)
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// Count returns the number of recorded runs matching an optional target.
func (d *DB) Count(target string) (int, error) {
	where, params := buildWhere(target)
	var n int
	err := d.db.QueryRow("SELECT COUNT(*) FROM runs"+where, params...).Scan(&n)
	return n, err
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

// buildWhere constructs a WHERE clause for the optional target filter.
func buildWhere(target string) (string, []any) {
	var clauses []string
	var params []any
	if target != "" {
		clauses = append(clauses, "target = ?")
		params = append(params, target)
	}
	if len(clauses) == 0 {
		return "", params
	}
	return " WHERE " + strings.Join(clauses, " AND "), params
}
