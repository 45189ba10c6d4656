package taskservice

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/starford/filesnap/internal/apperr"
	"github.com/starford/filesnap/internal/inspect"
	"github.com/starford/filesnap/internal/snapshot"
)

// property snapshots the whole task and returns the composite of one of its
// properties.
func (s *Service) property(ctx context.Context, task, prop string) (*snapshot.Composite, error) {
	snap, err := s.Snapshot(ctx, task)
	if err != nil {
		return nil, err
	}
	c, ok := snap.Map.Get(prop)
	if !ok {
		return nil, fmt.Errorf("taskservice: task %q has no property %q: %w", task, prop, apperr.ErrNotFound)
	}
	return c, nil
}

// Tree returns the snapshot forest of a property. Absent roots appear as
// nodes of kind "absent".
func (s *Service) Tree(ctx context.Context, task, prop string) ([]*TreeNode, error) {
	c, err := s.property(ctx, task, prop)
	if err != nil {
		return nil, err
	}
	out := []*TreeNode{}
	for _, r := range c.Roots() {
		if !r.IsPresent() {
			out = append(out, &TreeNode{Name: filepath.Base(r.Path()), Path: r.Path(), Kind: "absent"})
			continue
		}
		b := &treeBuilder{}
		r.Node().Accept(b)
		out = append(out, b.root)
	}
	return out, nil
}

// treeBuilder assembles TreeNodes from visitor callbacks with an explicit
// stack of open directories.
type treeBuilder struct {
	root  *TreeNode
	stack []*TreeNode
}

func (b *treeBuilder) add(n *TreeNode) {
	if len(b.stack) == 0 {
		b.root = n
		return
	}
	parent := b.stack[len(b.stack)-1]
	parent.Children = append(parent.Children, n)
}

func (b *treeBuilder) PreVisitDirectory(dir *snapshot.Node) bool {
	n := &TreeNode{Name: dir.Name(), Path: dir.Path(), Kind: dir.Kind().String()}
	b.add(n)
	b.stack = append(b.stack, n)
	return true
}

func (b *treeBuilder) VisitFile(f *snapshot.Node) {
	b.add(&TreeNode{
		Name:      f.Name(),
		Path:      f.Path(),
		Kind:      f.Kind().String(),
		ContentID: string(f.ContentID()),
		Size:      f.Metadata().Size,
	})
}

func (b *treeBuilder) PostVisitDirectory(*snapshot.Node) {
	b.stack = b.stack[:len(b.stack)-1]
}

// Files lists every file a property observes.
func (s *Service) Files(ctx context.Context, task, prop string) ([]inspect.File, error) {
	c, err := s.property(ctx, task, prop)
	if err != nil {
		return nil, err
	}
	return nonNilSlice(inspect.Files(c)), nil
}

// Inspect compares the snapshot of a property with what is on disk. With an
// empty dir every present directory root of the property is reported;
// otherwise dir (workspace-relative or absolute) names the directory to
// check.
func (s *Service) Inspect(ctx context.Context, task, prop, dir string) ([]inspect.Report, error) {
	c, err := s.property(ctx, task, prop)
	if err != nil {
		return nil, err
	}

	var dirs []string
	if dir != "" {
		if !filepath.IsAbs(dir) {
			if dir, err = s.ws.Resolve(dir); err != nil {
				return nil, fmt.Errorf("taskservice: %w: %w", apperr.ErrInvalid, err)
			}
		}
		dirs = append(dirs, filepath.Clean(dir))
	} else {
		for _, r := range c.Roots() {
			if r.IsPresent() && r.Node().Kind() == snapshot.KindDirectory {
				dirs = append(dirs, r.Path())
			}
		}
	}

	out := make([]inspect.Report, 0, len(dirs))
	for _, d := range dirs {
		names, err := s.ws.ReadDirNames(d)
		if err != nil {
			s.logger.Debug("inspect: directory unreadable", slog.String("dir", d), slog.String("error", err.Error()))
			names = nil
		}
		out = append(out, inspect.CompareDisk(c, d, names))
	}
	return out, nil
}
