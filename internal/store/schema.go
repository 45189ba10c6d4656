// Package store keeps filesnap's SQLite state: a digest cache for unchanged
// files and the per-property fingerprints recorded after each task run.
package store

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS file_digests (
	path       TEXT PRIMARY KEY,
	size       INTEGER NOT NULL,
	mtime      INTEGER NOT NULL,
	content_id TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS task_runs (
	task        TEXT PRIMARY KEY,
	recorded_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS task_fingerprints (
	task        TEXT NOT NULL,
	property    TEXT NOT NULL,
	fingerprint TEXT NOT NULL,
	recorded_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	PRIMARY KEY (task, property),
	FOREIGN KEY (task) REFERENCES task_runs(task) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_task_fingerprints_task ON task_fingerprints(task);
`

// DB wraps a sql.DB with store-specific operations.
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
