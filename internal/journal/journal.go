// Package journal records successful task mutations in a SQLite database.
package journal

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3" // registers the sqlite3 driver with database/sql

	"github.com/go-ports/todo/internal/models"
)

// Journal wraps a *sql.DB with the path it was opened from.
type Journal struct {
	db   *sql.DB
	path string
}

// Open opens (or creates) the journal database at path and initialises the schema.
// The parent directory is created if missing.
func Open(path string) (*Journal, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("journal.Open: %w", err)
	}
	sqldb, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("journal.Open: %w", err)
	}
	j := &Journal{db: sqldb, path: path}
	if err := j.createSchema(); err != nil {
		_ = sqldb.Close()
		return nil, fmt.Errorf("journal.Open createSchema: %w", err)
	}
	return j, nil
}

// Path returns the database file path.
func (j *Journal) Path() string { return j.path }

// Close closes the underlying database connection.
func (j *Journal) Close() error {
	return j.db.Close()
}

// ---------------------------------------------------------------------------
// Schema
// ---------------------------------------------------------------------------

func (j *Journal) createSchema() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS events (
			seq         INTEGER PRIMARY KEY AUTOINCREMENT,
			id          TEXT UNIQUE NOT NULL,
			action      TEXT NOT NULL,
			task_id     INTEGER NOT NULL DEFAULT 0,
			description TEXT NOT NULL DEFAULT '',
			at          TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS events_action ON events(action)`,
	}
	for _, s := range stmts {
		if _, err := j.db.Exec(s); err != nil {
			return fmt.Errorf("createSchema exec: %w\nSQL: %s", err, s)
		}
	}
	return nil
}

// ---------------------------------------------------------------------------
// Events
// ---------------------------------------------------------------------------

// Record appends ev to the journal.
func (j *Journal) Record(ctx context.Context, ev *models.Event) error {
	if !models.IsValidAction(ev.Action) {
		return fmt.Errorf("Record: unknown action %q", ev.Action)
	}
	_, err := j.db.ExecContext(ctx,
		`INSERT INTO events (id, action, task_id, description, at) VALUES (?, ?, ?, ?, ?)`,
		ev.ID, ev.Action, ev.TaskID, ev.Description, ev.At.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("Record: %w", err)
	}
	return nil
}

// Recent returns up to limit events, newest first. A non-empty action
// restricts the result to that action.
func (j *Journal) Recent(ctx context.Context, limit int, action string) ([]models.Event, error) {
	q := `SELECT id, action, task_id, description, at FROM events`
	var params []any
	if action != "" {
		q += ` WHERE action = ?`
		params = append(params, action)
	}
	q += ` ORDER BY seq DESC LIMIT ?`
	params = append(params, limit)

	rows, err := j.db.QueryContext(ctx, q, params...)
	if err != nil {
		return nil, fmt.Errorf("Recent: %w", err)
	}
	defer rows.Close()

	events := make([]models.Event, 0)
	for rows.Next() {
		var ev models.Event
		var at string
		if err := rows.Scan(&ev.ID, &ev.Action, &ev.TaskID, &ev.Description, &at); err != nil {
			return nil, fmt.Errorf("Recent scan: %w", err)
		}
		ev.At, err = time.Parse(time.RFC3339Nano, at)
		if err != nil {
			return nil, fmt.Errorf("Recent: event %s: %w", ev.ID, err)
		}
		events = append(events, ev)
	}
	return events, rows.Err()
}

// Count returns the number of recorded events.
func (j *Journal) Count(ctx context.Context) (int, error) {
	var n int
	err := j.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM events`).Scan(&n)
	return n, err
}
