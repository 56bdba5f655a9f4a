// Package store provides SQLite-backed persistence for inspection sessions.
package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/arroyoseco/abate/internal/apperr"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS sessions (
	id         TEXT PRIMARY KEY,
	state      TEXT NOT NULL DEFAULT '{}',
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_sessions_updated ON sessions(updated_at);
`

// DB wraps a sql.DB with session-specific operations.
type DB struct {
	conn *sql.DB
}

// Open opens (or creates) the SQLite database and applies the schema.
func Open(dsn string) (*DB, error) {
	conn, err := sql.Open("sqlite3", dsn+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("store: open db: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("store: ping: %w", err)
	}
	if _, err := conn.Exec(schemaSQL); err != nil {
		conn.Close()
		return nil, fmt.Errorf("store: apply schema: %w", err)
	}
	return &DB{conn: conn}, nil
}

// Close closes the underlying database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

// SessionRow represents a row in the sessions table. State holds the full
// session document as JSON; the engine owns its shape.
type SessionRow struct {
	ID        string
	State     []byte
	CreatedAt time.Time
	UpdatedAt time.Time
}

// UpsertSession inserts or replaces a session snapshot.
func (db *DB) UpsertSession(row SessionRow) error {
	_, err := db.conn.Exec(`
		INSERT INTO sessions (id, state, created_at, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			state      = excluded.state,
			updated_at = excluded.updated_at
	`, row.ID, string(row.State), row.CreatedAt, row.UpdatedAt)
	if err != nil {
		return fmt.Errorf("store: upsert session: %w", err)
	}
	return nil
}

// GetSession loads a single session snapshot.
func (db *DB) GetSession(id string) (SessionRow, error) {
	var row SessionRow
	var state string
	err := db.conn.QueryRow(`
		SELECT id, state, created_at, updated_at FROM sessions WHERE id = ?
	`, id).Scan(&row.ID, &state, &row.CreatedAt, &row.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return SessionRow{}, fmt.Errorf("store: session %s: %w", id, apperr.ErrNotFound)
	}
	if err != nil {
		return SessionRow{}, fmt.Errorf("store: get session: %w", err)
	}
	row.State = []byte(state)
	return row, nil
}

// ListSessions returns all session snapshots, most recently updated first.
func (db *DB) ListSessions() ([]SessionRow, error) {
	rows, err := db.conn.Query(`
		SELECT id, state, created_at, updated_at FROM sessions ORDER BY updated_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("store: list sessions: %w", err)
	}
	defer rows.Close()

	var out []SessionRow
	for rows.Next() {
		var row SessionRow
		var state string
		if err := rows.Scan(&row.ID, &state, &row.CreatedAt, &row.UpdatedAt); err != nil {
			return nil, err
		}
		row.State = []byte(state)
		out = append(out, row)
	}
	return out, rows.Err()
}

// DeleteSession removes a session snapshot. Unknown ids are a no-op.
func (db *DB) DeleteSession(id string) error {
	if _, err := db.conn.Exec(`DELETE FROM sessions WHERE id = ?`, id); err != nil {
		return fmt.Errorf("store: delete session: %w", err)
	}
	return nil
}
