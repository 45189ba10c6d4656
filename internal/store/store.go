package store

import "time"

// History defines the fingerprint history used for up-to-date decisions.
// Consumers should depend on this interface rather than the concrete *DB type
// to facilitate testing with fakes.
type History interface {
	SaveFingerprints(task string, fingerprints map[string]string, at time.Time) error
	LoadFingerprints(task string) (*Baseline, error)
	DeleteFingerprints(task string) error
	RecordedTasks() ([]string, error)
}

// Verify *DB satisfies History at compile time.
var _ History = (*DB)(nil)

// Baseline is the set of fingerprints recorded for a task.
type Baseline struct {
	Task         string
	Fingerprints map[string]string
	RecordedAt   time.Time
}
