package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/starford/filesnap/internal/apperr"
)

// SaveFingerprints replaces the recorded fingerprints of task within a
// transaction.
func (db *DB) SaveFingerprints(task string, fingerprints map[string]string, at time.Time) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("store: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	if _, err := tx.Exec(`DELETE FROM task_fingerprints WHERE task = ?`, task); err != nil {
		return fmt.Errorf("store: clear fingerprints: %w", err)
	}
	_, err = tx.Exec(`
		INSERT INTO task_runs (task, recorded_at) VALUES (?, ?)
		ON CONFLICT(task) DO UPDATE SET recorded_at = excluded.recorded_at
	`, task, at.UTC())
	if err != nil {
		return fmt.Errorf("store: upsert task run: %w", err)
	}
	stmt, err := tx.Prepare(`INSERT INTO task_fingerprints (task, property, fingerprint) VALUES (?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("store: prepare fingerprint insert: %w", err)
	}
	defer stmt.Close()
	for prop, fp := range fingerprints {
		if _, err := stmt.Exec(task, prop, fp); err != nil {
			return fmt.Errorf("store: insert fingerprint: %w", err)
		}
	}
	return tx.Commit()
}

// LoadFingerprints returns the baseline recorded for task, or an error
// wrapping apperr.ErrNotFound when the task was never recorded. A task
// recorded with no properties has a baseline with an empty map.
func (db *DB) LoadFingerprints(task string) (*Baseline, error) {
	b := &Baseline{Task: task, Fingerprints: make(map[string]string)}
	err := db.conn.QueryRow(`SELECT recorded_at FROM task_runs WHERE task = ?`, task).Scan(&b.RecordedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("store: task %q: %w", task, apperr.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("store: load task run: %w", err)
	}

	rows, err := db.conn.Query(`SELECT property, fingerprint FROM task_fingerprints WHERE task = ?`, task)
	if err != nil {
		return nil, fmt.Errorf("store: load fingerprints: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var prop, fp string
		if err := rows.Scan(&prop, &fp); err != nil {
			return nil, err
		}
		b.Fingerprints[prop] = fp
	}
	return b, rows.Err()
}

// DeleteFingerprints forgets the baseline of task.
func (db *DB) DeleteFingerprints(task string) error {
	if _, err := db.conn.Exec(`DELETE FROM task_runs WHERE task = ?`, task); err != nil {
		return fmt.Errorf("store: delete fingerprints: %w", err)
	}
	return nil
}

// RecordedTasks lists every task with a baseline, sorted by name.
func (db *DB) RecordedTasks() ([]string, error) {
	rows, err := db.conn.Query(`SELECT task FROM task_runs ORDER BY task`)
	if err != nil {
		return nil, fmt.Errorf("store: recorded tasks: %w", err)
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
