package taskservice

import (
	"time"

	"github.com/starford/filesnap/internal/taskfiles"
)

// TaskSummary is a lightweight item in a task list.
type TaskSummary struct {
	Name       string   `json:"name"`
	Properties []string `json:"properties"`
	Recorded   bool     `json:"recorded"`
}

// TaskSnapshot is the current snapshot of every property of a task.
type TaskSnapshot struct {
	Task        string             `json:"task"`
	Fingerprint string             `json:"fingerprint"`
	Properties  []PropertySnapshot `json:"properties"`
	TakenAt     time.Time          `json:"taken_at"`

	// Map is the underlying property map.
	Map *taskfiles.PropertyMap `json:"-"`
}

// PropertySnapshot summarizes one property of a TaskSnapshot.
type PropertySnapshot struct {
	Name        string   `json:"name"`
	Fingerprint string   `json:"fingerprint"`
	Roots       int      `json:"roots"`
	Absent      []string `json:"absent"`
	Files       int      `json:"files"`
}

// PropertyState tells how a property compares to the recorded baseline.
type PropertyState string

const (
	StateUnchanged PropertyState = "unchanged"
	StateChanged   PropertyState = "changed"
	StateAdded     PropertyState = "added"
	StateRemoved   PropertyState = "removed"
)

// TaskStatus compares a fresh snapshot with the recorded baseline.
type TaskStatus struct {
	Task        string           `json:"task"`
	UpToDate    bool             `json:"up_to_date"`
	HasBaseline bool             `json:"has_baseline"`
	RecordedAt  *time.Time       `json:"recorded_at,omitempty"`
	Properties  []PropertyStatus `json:"properties"`
}

// PropertyStatus is the state of one property. Current is empty for removed
// properties and Recorded is empty for added ones.
type PropertyStatus struct {
	Name     string        `json:"name"`
	State    PropertyState `json:"state"`
	Current  string        `json:"current,omitempty"`
	Recorded string        `json:"recorded,omitempty"`
}

// TreeNode is a JSON-friendly view of a snapshot tree.
type TreeNode struct {
	Name      string      `json:"name"`
	Path      string      `json:"path"`
	Kind      string      `json:"kind"`
	ContentID string      `json:"content_id,omitempty"`
	Size      int64       `json:"size,omitempty"`
	Children  []*TreeNode `json:"children,omitempty"`
}
