package taskservice

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/starford/filesnap/internal/apperr"
	"github.com/starford/filesnap/internal/fingerprint"
	"github.com/starford/filesnap/internal/inspect"
	"github.com/starford/filesnap/internal/snapshot"
)

// Snapshot computes the current snapshot of every property of a task.
func (s *Service) Snapshot(ctx context.Context, name string) (*TaskSnapshot, error) {
	task, err := s.Task(ctx, name)
	if err != nil {
		return nil, err
	}
	m, err := s.snap.SnapshotTaskFiles(ctx, task)
	if err != nil {
		return nil, err
	}

	out := &TaskSnapshot{
		Task:        name,
		Fingerprint: fingerprint.Task(m),
		Properties:  make([]PropertySnapshot, 0, m.Len()),
		TakenAt:     s.now(),
		Map:         m,
	}
	m.Range(func(prop string, c *snapshot.Composite) bool {
		out.Properties = append(out.Properties, PropertySnapshot{
			Name:        prop,
			Fingerprint: fingerprint.Composite(c),
			Roots:       c.Len(),
			Absent:      nonNilSlice(c.AbsentPaths()),
			Files:       len(inspect.Files(c)),
		})
		return true
	})
	return out, nil
}

// Status snapshots a task and compares every property with the recorded
// baseline. A task is up to date only when a baseline exists and every
// property is unchanged.
func (s *Service) Status(ctx context.Context, name string) (*TaskStatus, error) {
	snap, err := s.Snapshot(ctx, name)
	if err != nil {
		return nil, err
	}
	st := &TaskStatus{Task: name}

	base, err := s.history.LoadFingerprints(name)
	switch {
	case errors.Is(err, apperr.ErrNotFound):
		base = nil
	case err != nil:
		return nil, err
	default:
		st.HasBaseline = true
		at := base.RecordedAt
		st.RecordedAt = &at
	}

	recorded := map[string]string{}
	if base != nil {
		recorded = base.Fingerprints
	}
	for _, p := range snap.Properties {
		ps := PropertyStatus{Name: p.Name, Current: p.Fingerprint}
		old, ok := recorded[p.Name]
		switch {
		case !ok:
			ps.State = StateAdded
		case old == p.Fingerprint:
			ps.State = StateUnchanged
			ps.Recorded = old
		default:
			ps.State = StateChanged
			ps.Recorded = old
		}
		st.Properties = append(st.Properties, ps)
	}
	for prop, old := range recorded {
		if _, ok := snap.Map.Get(prop); !ok {
			st.Properties = append(st.Properties, PropertyStatus{Name: prop, State: StateRemoved, Recorded: old})
		}
	}
	slices.SortFunc(st.Properties, func(a, b PropertyStatus) int { return strings.Compare(a.Name, b.Name) })

	st.UpToDate = st.HasBaseline
	for _, p := range st.Properties {
		if p.State != StateUnchanged {
			st.UpToDate = false
		}
	}
	return st, nil
}

// Record snapshots a task and stores its fingerprints as the new baseline.
func (s *Service) Record(ctx context.Context, name string) (*TaskSnapshot, error) {
	snap, err := s.Snapshot(ctx, name)
	if err != nil {
		return nil, err
	}
	fps := make(map[string]string, len(snap.Properties))
	for _, p := range snap.Properties {
		fps[p.Name] = p.Fingerprint
	}
	if err := s.history.SaveFingerprints(name, fps, snap.TakenAt); err != nil {
		return nil, fmt.Errorf("taskservice: record %q: %w", name, err)
	}
	s.logger.Info("task recorded",
		slog.String("task", name),
		slog.String("fingerprint", snap.Fingerprint))
	return snap, nil
}

// Forget drops the recorded baseline of a task.
func (s *Service) Forget(ctx context.Context, name string) error {
	if _, err := s.Task(ctx, name); err != nil {
		return err
	}
	return s.history.DeleteFingerprints(name)
}

func nonNilSlice[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
