// Package watch re-snapshots tasks when the files under their roots change
// and reports which properties changed.
package watch

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/starford/filesnap/internal/inspect"
	"github.com/starford/filesnap/internal/snapshot"
	"github.com/starford/filesnap/internal/taskfiles"
	"github.com/starford/filesnap/internal/taskservice"
)

// DefaultDebounce is how long the watcher waits for file events to settle
// before re-snapshotting.
const DefaultDebounce = 200 * time.Millisecond

// TaskSource lists tasks and snapshots them.
type TaskSource interface {
	Tasks(ctx context.Context) ([]taskservice.TaskSummary, error)
	Snapshot(ctx context.Context, name string) (*taskservice.TaskSnapshot, error)
}

var _ TaskSource = (*taskservice.Service)(nil)

// Change describes how a task's files moved since the previous snapshot.
type Change struct {
	Task        string           `json:"task"`
	Fingerprint string           `json:"fingerprint"`
	Properties  []string         `json:"properties"`
	Files       []inspect.Change `json:"files"`
}

// EventCallback is called once per changed task after each settled burst of
// file events.
type EventCallback func(Change)

type options struct {
	debounce time.Duration
}

// Option configures Watch.
type Option func(*options)

// WithDebounce sets the settle delay.
func WithDebounce(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.debounce = d
		}
	}
}

// Watch starts an fsnotify watcher over roots and processes file change
// events until ctx is cancelled. Directory roots are watched recursively;
// for file and absent roots the nearest existing ancestor is watched so
// creation is noticed.
//
// New directories created at runtime inside a root, or on the way to an
// absent root, are automatically added to the watch list.
func Watch(ctx context.Context, src TaskSource, roots []string, logger *slog.Logger, cb EventCallback, opts ...Option) error {
	o := options{debounce: DefaultDebounce}
	for _, opt := range opts {
		opt(&o)
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	for _, r := range roots {
		if err := watchRoot(w, r); err != nil {
			logger.Warn("watcher: cannot watch root", slog.String("root", r), slog.String("error", err.Error()))
		}
	}

	prev := snapshotAll(ctx, src, logger)
	logger.Info("watcher: started", slog.Int("roots", len(roots)), slog.Int("tasks", len(prev)))

	// settleTimer debounces bursts of events into one re-snapshot.
	var settleTimer *time.Timer
	var settleCh <-chan time.Time

	scheduleSettle := func() {
		if settleTimer == nil {
			settleTimer = time.NewTimer(o.debounce)
			settleCh = settleTimer.C
		} else {
			settleTimer.Reset(o.debounce)
		}
	}

	for {
		select {
		case <-ctx.Done():
			if settleTimer != nil {
				settleTimer.Stop()
			}
			logger.Info("watcher: stopped")
			return nil

		case <-settleCh:
			cur := snapshotAll(ctx, src, logger)
			for _, c := range compare(prev, cur) {
				logger.Debug("watcher: task changed",
					slog.String("task", c.Task),
					slog.Int("properties", len(c.Properties)),
					slog.Int("files", len(c.Files)))
				if cb != nil {
					cb(c)
				}
			}
			prev = cur

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if !relevant(roots, ev.Name) {
				continue
			}

			// --- Handle new directories: add to watcher ---
			if ev.Op&fsnotify.Create != 0 {
				if info, statErr := os.Stat(ev.Name); statErr == nil && info.IsDir() {
					if addErr := addDirsRecursive(w, ev.Name); addErr != nil {
						logger.Warn("watcher: add new dir failed",
							slog.String("path", ev.Name),
							slog.String("error", addErr.Error()))
					} else {
						logger.Debug("watcher: watching new dir", slog.String("path", ev.Name))
					}
				}
			}
			scheduleSettle()

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Error("watcher: error", slog.String("error", watchErr.Error()))
		}
	}
}

// watchRoot watches a directory root recursively, or the nearest existing
// ancestor of a file or absent root.
func watchRoot(w *fsnotify.Watcher, root string) error {
	info, err := os.Stat(root)
	if err == nil && info.IsDir() {
		return addDirsRecursive(w, root)
	}
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	dir := filepath.Dir(root)
	for {
		if info, err := os.Stat(dir); err == nil && info.IsDir() {
			return w.Add(dir)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return fs.ErrNotExist
		}
		dir = parent
	}
}

// relevant reports whether p lies inside a root or on the way to one.
func relevant(roots []string, p string) bool {
	for _, r := range roots {
		if snapshot.Relate(r, p) != snapshot.Unrelated {
			return true
		}
	}
	return false
}

// addDirsRecursive adds root and all its subdirectories to the watcher.
func addDirsRecursive(w *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return w.Add(path)
		}
		return nil
	})
}

type taskState struct {
	fingerprint string
	m           *taskfiles.PropertyMap
}

// snapshotAll snapshots every task. Tasks that fail to snapshot are logged
// and left out, so they are reported again once they recover.
func snapshotAll(ctx context.Context, src TaskSource, logger *slog.Logger) map[string]taskState {
	out := make(map[string]taskState)
	tasks, err := src.Tasks(ctx)
	if err != nil {
		logger.Warn("watcher: list tasks failed", slog.String("error", err.Error()))
		return out
	}
	for _, t := range tasks {
		snap, err := src.Snapshot(ctx, t.Name)
		if err != nil {
			logger.Warn("watcher: snapshot failed", slog.String("task", t.Name), slog.String("error", err.Error()))
			continue
		}
		out[t.Name] = taskState{fingerprint: snap.Fingerprint, m: snap.Map}
	}
	return out
}

// compare reports every task of cur whose property map differs from prev.
func compare(prev, cur map[string]taskState) []Change {
	var out []Change
	for name, now := range cur {
		before, ok := prev[name]
		if ok && before.m.Equal(now.m) {
			continue
		}
		c := Change{Task: name, Fingerprint: now.fingerprint, Properties: []string{}, Files: []inspect.Change{}}
		now.m.Range(func(prop string, comp *snapshot.Composite) bool {
			var old *snapshot.Composite
			if ok {
				old, _ = before.m.Get(prop)
			}
			if old != nil && old.Equal(comp) {
				return true
			}
			c.Properties = append(c.Properties, prop)
			c.Files = append(c.Files, inspect.Diff(old, comp)...)
			return true
		})
		out = append(out, c)
	}
	slices.SortFunc(out, func(a, b Change) int { return strings.Compare(a.Task, b.Task) })
	return out
}
