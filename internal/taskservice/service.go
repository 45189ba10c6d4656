// Package taskservice implements the task use cases shared by the CLI, the
// HTTP API and the MCP server: listing tasks, snapshotting their file
// properties and deciding whether they are up to date.
package taskservice

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/starford/filesnap/internal/apperr"
	"github.com/starford/filesnap/internal/models"
	"github.com/starford/filesnap/internal/store"
	"github.com/starford/filesnap/internal/taskfiles"
	"github.com/starford/filesnap/internal/workspace"
)

// DigestPruner drops cached file digests for paths no task observes anymore.
type DigestPruner interface {
	PruneDigests(keep map[string]struct{}) (int, error)
}

// Service coordinates snapshotting and fingerprint history.
type Service struct {
	tasks   []models.Task
	byName  map[string]int
	snap    *taskfiles.Snapshotter
	history store.History
	ws      workspace.Provider
	pruner  DigestPruner
	logger  *slog.Logger
	now     func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithDigestPruner enables PruneDigests.
func WithDigestPruner(p DigestPruner) Option {
	return func(s *Service) { s.pruner = p }
}

// WithLogger sets the service logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithClock overrides the time source used for record timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService creates a task service over the given declarations. Task names
// must be unique.
func NewService(tasks []models.Task, snap *taskfiles.Snapshotter, history store.History, ws workspace.Provider, opts ...Option) (*Service, error) {
	s := &Service{
		tasks:   tasks,
		byName:  make(map[string]int, len(tasks)),
		snap:    snap,
		history: history,
		ws:      ws,
		logger:  slog.Default(),
		now:     time.Now,
	}
	for i, t := range tasks {
		if _, dup := s.byName[t.Name]; dup {
			return nil, fmt.Errorf("taskservice: task %q declared twice: %w", t.Name, apperr.ErrInvalid)
		}
		s.byName[t.Name] = i
	}
	for _, o := range opts {
		o(s)
	}
	return s, nil
}

// Tasks lists every declared task in declaration order.
func (s *Service) Tasks(_ context.Context) ([]TaskSummary, error) {
	recorded, err := s.history.RecordedTasks()
	if err != nil {
		return nil, err
	}
	has := make(map[string]struct{}, len(recorded))
	for _, r := range recorded {
		has[r] = struct{}{}
	}
	out := make([]TaskSummary, len(s.tasks))
	for i, t := range s.tasks {
		_, ok := has[t.Name]
		out[i] = TaskSummary{
			Name:       t.Name,
			Properties: propertyNames(t),
			Recorded:   ok,
		}
	}
	return out, nil
}

// Task returns the declaration of the named task.
func (s *Service) Task(_ context.Context, name string) (models.Task, error) {
	i, ok := s.byName[name]
	if !ok {
		return models.Task{}, fmt.Errorf("taskservice: task %q: %w", name, apperr.ErrNotFound)
	}
	return s.tasks[i], nil
}

// Roots returns every root declared by any task, deduplicated, in
// declaration order.
func (s *Service) Roots() []string {
	seen := make(map[string]struct{})
	var out []string
	for _, t := range s.tasks {
		for _, r := range t.Roots() {
			if _, ok := seen[r]; ok {
				continue
			}
			seen[r] = struct{}{}
			out = append(out, r)
		}
	}
	return out
}

func propertyNames(t models.Task) []string {
	out := make([]string, len(t.Properties))
	for i, p := range t.Properties {
		out[i] = p.Name
	}
	return out
}
