package api

import (
	"github.com/starford/filesnap/internal/inspect"
	"github.com/starford/filesnap/internal/taskservice"
)

// TaskSummary is a lightweight item in a task list (aliased from the domain layer).
type TaskSummary = taskservice.TaskSummary

// TaskSnapshot is the snapshot response type (aliased from the domain layer).
type TaskSnapshot = taskservice.TaskSnapshot

// TaskStatus is the status response type (aliased from the domain layer).
type TaskStatus = taskservice.TaskStatus

// TaskListResponse wraps the task list.
type TaskListResponse struct {
	Tasks []TaskSummary `json:"tasks" validate:"required"`
}

// FilesResponse wraps the files of a property.
type FilesResponse struct {
	Files []inspect.File `json:"files" validate:"required"`
}

// TreeResponse wraps the snapshot forest of a property.
type TreeResponse struct {
	Roots []*taskservice.TreeNode `json:"roots" validate:"required"`
}

// InspectResponse wraps snapshot-versus-disk reports.
type InspectResponse struct {
	Reports []inspect.Report `json:"reports" validate:"required"`
}
