package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// LookupDigest returns the cached content identity of path when its size and
// modification time still match what was hashed.
func (db *DB) LookupDigest(path string, size int64, modTime time.Time) (string, bool, error) {
	var id string
	err := db.conn.QueryRow(
		`SELECT content_id FROM file_digests WHERE path = ? AND size = ? AND mtime = ?`,
		path, size, modTime.UnixNano(),
	).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("store: lookup digest: %w", err)
	}
	return id, true, nil
}

// StoreDigest caches the content identity of path.
func (db *DB) StoreDigest(path string, size int64, modTime time.Time, id string) error {
	_, err := db.conn.Exec(`
		INSERT INTO file_digests (path, size, mtime, content_id)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET
			size       = excluded.size,
			mtime      = excluded.mtime,
			content_id = excluded.content_id
	`, path, size, modTime.UnixNano(), id)
	if err != nil {
		return fmt.Errorf("store: store digest: %w", err)
	}
	return nil
}

// PruneDigests drops cached digests whose path is not in keep. It returns the
// number of rows removed.
func (db *DB) PruneDigests(keep map[string]struct{}) (int, error) {
	rows, err := db.conn.Query(`SELECT path FROM file_digests`)
	if err != nil {
		return 0, fmt.Errorf("store: list digests: %w", err)
	}
	var stale []string
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			rows.Close()
			return 0, err
		}
		if _, ok := keep[p]; !ok {
			stale = append(stale, p)
		}
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return 0, err
	}
	if len(stale) == 0 {
		return 0, nil
	}

	tx, err := db.conn.Begin()
	if err != nil {
		return 0, fmt.Errorf("store: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	stmt, err := tx.Prepare(`DELETE FROM file_digests WHERE path = ?`)
	if err != nil {
		return 0, fmt.Errorf("store: prepare digest delete: %w", err)
	}
	defer stmt.Close()
	for _, p := range stale {
		if _, err := stmt.Exec(p); err != nil {
			return 0, fmt.Errorf("store: delete digest: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("store: commit: %w", err)
	}
	return len(stale), nil
}
