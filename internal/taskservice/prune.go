package taskservice

import (
	"context"
	"errors"
	"log/slog"

	"github.com/starford/filesnap/internal/inspect"
)

// ErrNoPruner is returned by PruneDigests when no digest cache is wired in.
var ErrNoPruner = errors.New("taskservice: digest pruning not configured")

// PruneDigests snapshots every task and drops cached digests of files none
// of them observes. It returns the number of digests removed.
func (s *Service) PruneDigests(ctx context.Context) (int, error) {
	if s.pruner == nil {
		return 0, ErrNoPruner
	}
	keep := make(map[string]struct{})
	for _, t := range s.tasks {
		snap, err := s.Snapshot(ctx, t.Name)
		if err != nil {
			return 0, err
		}
		for _, prop := range snap.Map.Keys() {
			c, _ := snap.Map.Get(prop)
			for _, f := range inspect.Files(c) {
				keep[f.Path] = struct{}{}
			}
		}
	}
	n, err := s.pruner.PruneDigests(keep)
	if err != nil {
		return 0, err
	}
	s.logger.Info("digests pruned", slog.Int("removed", n), slog.Int("kept", len(keep)))
	return n, nil
}
