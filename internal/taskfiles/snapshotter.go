// Package taskfiles snapshots every declared file property of a task into a
// PropertyMap.
package taskfiles

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/starford/filesnap/internal/apperr"
	"github.com/starford/filesnap/internal/models"
	"github.com/starford/filesnap/internal/snapshot"
)

// Producer observes the roots of a file collection. Results come back in the
// producer's own scan order; absent roots are reported, not omitted.
type Producer interface {
	Snapshot(ctx context.Context, files models.FileCollection) ([]snapshot.RootResult, error)
}

// ProducerFunc adapts a function to Producer.
type ProducerFunc func(ctx context.Context, files models.FileCollection) ([]snapshot.RootResult, error)

func (f ProducerFunc) Snapshot(ctx context.Context, files models.FileCollection) ([]snapshot.RootResult, error) {
	return f(ctx, files)
}

// PropertyError identifies the property whose snapshot could not be taken.
type PropertyError struct {
	Task     string
	Property string
	Err      error
}

func (e *PropertyError) Error() string {
	return fmt.Sprintf("taskfiles: snapshot property %q of task %q: %v", e.Property, e.Task, e.Err)
}

func (e *PropertyError) Unwrap() error { return e.Err }

// Snapshotter builds property maps. It keeps no state between calls, so one
// Snapshotter may serve concurrent callers as long as its Producer can.
type Snapshotter struct {
	producer Producer
	logger   *slog.Logger
}

// NewSnapshotter returns a Snapshotter backed by p. A nil logger uses
// slog.Default().
func NewSnapshotter(p Producer, logger *slog.Logger) *Snapshotter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Snapshotter{producer: p, logger: logger}
}

// SnapshotTaskFiles snapshots every property of task. Properties are
// processed in declaration order; the result is keyed in name order and holds
// exactly one entry per property. The first failure aborts the whole call and
// no partial map is returned.
func (s *Snapshotter) SnapshotTaskFiles(ctx context.Context, task models.Task) (*PropertyMap, error) {
	seen := make(map[string]struct{}, len(task.Properties))
	for _, p := range task.Properties {
		if _, dup := seen[p.Name]; dup {
			return nil, fmt.Errorf("taskfiles: task %q declares property %q twice: %w", task.Name, p.Name, apperr.ErrInvalid)
		}
		seen[p.Name] = struct{}{}
	}

	entries := make(map[string]*snapshot.Composite, len(task.Properties))
	for _, p := range task.Properties {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		s.logger.Debug("snapshotting property",
			slog.String("task", task.Name),
			slog.String("property", p.Name),
			slog.Int("roots", len(p.Files.Roots)))

		results, err := s.producer.Snapshot(ctx, p.Files)
		if err != nil {
			return nil, &PropertyError{Task: task.Name, Property: p.Name, Err: err}
		}
		c, err := snapshot.Compose(results)
		if err != nil {
			return nil, &PropertyError{Task: task.Name, Property: p.Name, Err: err}
		}
		entries[p.Name] = c
	}
	return NewPropertyMap(entries), nil
}
