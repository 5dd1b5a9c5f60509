// Package history records compile runs in a local sqlite database so
// `vero runs` can show what was generated, when, and from what.
package history

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// All contains the ordered list of migrations to apply.
var All = []string{
	`CREATE TABLE runs (
		id          TEXT PRIMARY KEY,
		started_at  DATETIME NOT NULL DEFAULT (datetime('now')),
		sources     TEXT NOT NULL,
		features    INTEGER NOT NULL,
		scenarios   INTEGER NOT NULL,
		debug       INTEGER NOT NULL DEFAULT 0,
		status      TEXT NOT NULL
	)`,
	`CREATE TABLE run_units (
		id      INTEGER PRIMARY KEY,
		run_id  TEXT NOT NULL REFERENCES runs(id),
		kind    TEXT NOT NULL,
		name    TEXT NOT NULL
	)`,
}

// Open opens (creating if needed) the runs database at path.
func Open(path string) (*sql.DB, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating %s: %w", dir, err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	if err := Migrate(db); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

// Migrate applies pending migrations, tracking progress in
// schema_version. Safe to run repeatedly.
func Migrate(db *sql.DB) error {
	_, err := db.Exec(`CREATE TABLE IF NOT EXISTS schema_version (version INTEGER NOT NULL)`)
	if err != nil {
		return fmt.Errorf("creating schema_version table: %w", err)
	}

	var count int
	if err := db.QueryRow(`SELECT COUNT(*) FROM schema_version`).Scan(&count); err != nil {
		return fmt.Errorf("checking schema_version: %w", err)
	}
	if count == 0 {
		if _, err := db.Exec(`INSERT INTO schema_version (version) VALUES (0)`); err != nil {
			return fmt.Errorf("initializing schema version: %w", err)
		}
	}

	var current int
	if err := db.QueryRow(`SELECT version FROM schema_version`).Scan(&current); err != nil {
		return fmt.Errorf("reading schema version: %w", err)
	}

	for i := current; i < len(All); i++ {
		tx, err := db.Begin()
		if err != nil {
			return fmt.Errorf("beginning migration %d: %w", i+1, err)
		}

		if _, err := tx.Exec(All[i]); err != nil {
			tx.Rollback()
			return fmt.Errorf("migration %d failed: %w", i+1, err)
		}

		if _, err := tx.Exec(`UPDATE schema_version SET version = ?`, i+1); err != nil {
			tx.Rollback()
			return fmt.Errorf("updating schema version to %d: %w", i+1, err)
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("committing migration %d: %w", i+1, err)
		}
	}

	return nil
}

// Run is one recorded compile.
type Run struct {
	ID        string
	StartedAt time.Time
	Sources   []string
	Features  int
	Scenarios int
	Debug     bool
	Status    string
}

// Unit is one generated file belonging to a run.
type Unit struct {
	Kind string // page, pageactions, test, support
	Name string
}

// Record inserts a run and its generated units, returning the run ID.
func Record(db *sql.DB, run Run, units []Unit) (string, error) {
	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	tx, err := db.Begin()
	if err != nil {
		return "", fmt.Errorf("recording run: %w", err)
	}
	_, err = tx.Exec(
		`INSERT INTO runs (id, sources, features, scenarios, debug, status) VALUES (?, ?, ?, ?, ?, ?)`,
		run.ID, strings.Join(run.Sources, ","), run.Features, run.Scenarios, run.Debug, run.Status,
	)
	if err != nil {
		tx.Rollback()
		return "", fmt.Errorf("recording run: %w", err)
	}
	for _, unit := range units {
		if _, err := tx.Exec(
			`INSERT INTO run_units (run_id, kind, name) VALUES (?, ?, ?)`,
			run.ID, unit.Kind, unit.Name,
		); err != nil {
			tx.Rollback()
			return "", fmt.Errorf("recording run unit %s: %w", unit.Name, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("recording run: %w", err)
	}
	return run.ID, nil
}

// List returns recorded runs, newest first.
func List(db *sql.DB) ([]Run, error) {
	rows, err := db.Query(
		`SELECT id, started_at, sources, features, scenarios, debug, status
		 FROM runs ORDER BY started_at DESC, id`)
	if err != nil {
		return nil, fmt.Errorf("listing runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var run Run
		var sources string
		if err := rows.Scan(&run.ID, &run.StartedAt, &sources, &run.Features,
			&run.Scenarios, &run.Debug, &run.Status); err != nil {
			return nil, fmt.Errorf("scanning run: %w", err)
		}
		if sources != "" {
			run.Sources = strings.Split(sources, ",")
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// Units returns the generated files recorded for a run, in insertion
// order.
func Units(db *sql.DB, runID string) ([]Unit, error) {
	rows, err := db.Query(`SELECT kind, name FROM run_units WHERE run_id = ? ORDER BY id`, runID)
	if err != nil {
		return nil, fmt.Errorf("listing run units: %w", err)
	}
	defer rows.Close()

	var units []Unit
	for rows.Next() {
		var unit Unit
		if err := rows.Scan(&unit.Kind, &unit.Name); err != nil {
			return nil, fmt.Errorf("scanning run unit: %w", err)
		}
		units = append(units, unit)
	}
	return units, rows.Err()
}
