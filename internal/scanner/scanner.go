// Package scanner observes file collections on the local disk and turns them
// into snapshot root results.
package scanner

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/starford/filesnap/internal/apperr"
	"github.com/starford/filesnap/internal/checksum"
	"github.com/starford/filesnap/internal/models"
	"github.com/starford/filesnap/internal/snapshot"
)

// DefaultWorkers bounds concurrent file hashing across one root's walk.
const DefaultWorkers = 8

// DigestCache remembers content identities of files whose size and
// modification time have not changed since they were last hashed.
type DigestCache interface {
	LookupDigest(path string, size int64, modTime time.Time) (string, bool, error)
	StoreDigest(path string, size int64, modTime time.Time, id string) error
}

// Scanner is a disk-backed taskfiles.Producer.
type Scanner struct {
	workers int
	cache   DigestCache
	logger  *slog.Logger
	hash    func(ctx context.Context, path string) (string, error)
}

// Option configures a Scanner.
type Option func(*Scanner)

// WithWorkers sets how many files of one root are hashed at once, however
// deep the tree. Values below one are ignored.
func WithWorkers(n int) Option {
	return func(s *Scanner) {
		if n > 0 {
			s.workers = n
		}
	}
}

// WithDigestCache lets the scanner skip rehashing unchanged files.
func WithDigestCache(c DigestCache) Option {
	return func(s *Scanner) { s.cache = c }
}

// WithLogger sets the scanner's logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Scanner) {
		if l != nil {
			s.logger = l
		}
	}
}

// New creates a Scanner.
func New(opts ...Option) *Scanner {
	s := &Scanner{workers: DefaultWorkers, logger: slog.Default(), hash: hashFile}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Snapshot observes every root of files in declaration order. A root that
// does not exist yields an absent marker. Symlinks are followed; a dangling
// link is an error.
func (s *Scanner) Snapshot(ctx context.Context, files models.FileCollection) ([]snapshot.RootResult, error) {
	for _, p := range files.Exclude {
		if !doublestar.ValidatePattern(p) {
			return nil, fmt.Errorf("scanner: exclude pattern %q: %w", p, apperr.ErrInvalid)
		}
	}
	out := make([]snapshot.RootResult, 0, len(files.Roots))
	for _, root := range files.Roots {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		r, err := s.scanRoot(ctx, root, files.Exclude)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, nil
}

func (s *Scanner) scanRoot(ctx context.Context, root string, exclude []string) (snapshot.RootResult, error) {
	if !filepath.IsAbs(root) {
		return snapshot.RootResult{}, fmt.Errorf("scanner: root %q is not absolute: %w", root, apperr.ErrInvalid)
	}
	root = filepath.Clean(root)

	info, err := os.Lstat(root)
	if errors.Is(err, fs.ErrNotExist) {
		s.logger.Debug("scanner: root absent", slog.String("root", root))
		return snapshot.Absent(root), nil
	}
	if err != nil {
		return snapshot.RootResult{}, fmt.Errorf("scanner: stat %s: %w", root, err)
	}
	if info, err = follow(root, info); err != nil {
		return snapshot.RootResult{}, err
	}

	w := &walk{scanner: s, root: root, exclude: exclude, sem: semaphore.NewWeighted(int64(s.workers))}
	var n *snapshot.Node
	switch {
	case info.IsDir():
		n, err = w.dir(ctx, root, []os.FileInfo{info})
	case info.Mode().IsRegular():
		n, err = s.file(ctx, root, info)
	default:
		err = fmt.Errorf("scanner: %s: unsupported file type %s", root, info.Mode().Type())
	}
	if err != nil {
		return snapshot.RootResult{}, err
	}
	return snapshot.Present(n), nil
}

// follow resolves a symlink to the info of its target.
func follow(p string, info os.FileInfo) (os.FileInfo, error) {
	if info.Mode()&fs.ModeSymlink == 0 {
		return info, nil
	}
	target, err := os.Stat(p)
	if err != nil {
		return nil, fmt.Errorf("scanner: broken symlink %s: %w", p, err)
	}
	return target, nil
}

// walk holds the per-root state of a recursive directory scan.
type walk struct {
	scanner *Scanner
	root    string
	exclude []string
	// sem is shared by every directory of the walk. Only hashing
	// goroutines hold it, never the recursing caller.
	sem *semaphore.Weighted
}

func (w *walk) excluded(p string) bool {
	if len(w.exclude) == 0 {
		return false
	}
	rel, err := filepath.Rel(w.root, p)
	if err != nil {
		return false
	}
	rel = filepath.ToSlash(rel)
	for _, pattern := range w.exclude {
		if ok, _ := doublestar.Match(pattern, rel); ok {
			return true
		}
		// A pattern naming a directory also covers everything below it.
		if ok, _ := doublestar.Match(path.Join(pattern, "**"), rel); ok {
			return true
		}
	}
	return false
}

// dir scans a directory. ancestors holds the infos of every directory on the
// current path so symlink cycles can be detected.
func (w *walk) dir(ctx context.Context, dirPath string, ancestors []os.FileInfo) (*snapshot.Node, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(dirPath)
	if err != nil {
		return nil, fmt.Errorf("scanner: read dir %s: %w", dirPath, err)
	}

	children := make([]*snapshot.Node, len(entries))
	g, gctx := errgroup.WithContext(ctx)

	// fail waits for in-flight hashing. A hashing failure cancels gctx, so
	// it is the cause of whatever err this goroutine saw afterwards.
	fail := func(err error) (*snapshot.Node, error) {
		if werr := g.Wait(); werr != nil {
			return nil, werr
		}
		return nil, err
	}

	for i, e := range entries {
		childPath := filepath.Join(dirPath, e.Name())
		if w.excluded(childPath) {
			continue
		}
		info, err := os.Lstat(childPath)
		if err != nil {
			return fail(fmt.Errorf("scanner: stat %s: %w", childPath, err))
		}
		if info, err = follow(childPath, info); err != nil {
			return fail(err)
		}

		switch {
		case info.IsDir():
			for _, a := range ancestors {
				if os.SameFile(a, info) {
					return fail(fmt.Errorf("scanner: symlink cycle at %s", childPath))
				}
			}
			n, err := w.dir(gctx, childPath, append(ancestors, info))
			if err != nil {
				return fail(err)
			}
			children[i] = n
		case info.Mode().IsRegular():
			if err := w.sem.Acquire(gctx, 1); err != nil {
				return fail(err)
			}
			g.Go(func() error {
				defer w.sem.Release(1)
				n, err := w.scanner.file(gctx, childPath, info)
				if err != nil {
					return err
				}
				children[i] = n
				return nil
			})
		default:
			w.scanner.logger.Debug("scanner: skipping special file",
				slog.String("path", childPath),
				slog.String("type", info.Mode().Type().String()))
		}
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	kept := children[:0]
	for _, c := range children {
		if c != nil {
			kept = append(kept, c)
		}
	}
	return snapshot.NewDirectory(dirPath, kept)
}

func (s *Scanner) file(ctx context.Context, p string, info os.FileInfo) (*snapshot.Node, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	meta := snapshot.Metadata{Size: info.Size(), ModTime: info.ModTime()}

	if s.cache != nil {
		id, ok, err := s.cache.LookupDigest(p, meta.Size, meta.ModTime)
		if err != nil {
			s.logger.Warn("scanner: digest lookup failed", slog.String("path", p), slog.String("error", err.Error()))
		} else if ok && checksum.Valid(id) {
			return snapshot.NewFile(p, snapshot.ContentID(id), meta)
		} else if ok {
			s.logger.Debug("scanner: ignoring malformed cached digest", slog.String("path", p))
		}
	}

	id, err := s.hash(ctx, p)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.StoreDigest(p, meta.Size, meta.ModTime, id); err != nil {
			s.logger.Warn("scanner: digest store failed", slog.String("path", p), slog.String("error", err.Error()))
		}
	}
	return snapshot.NewFile(p, snapshot.ContentID(id), meta)
}

func hashFile(_ context.Context, p string) (string, error) {
	f, err := os.Open(p)
	if err != nil {
		return "", fmt.Errorf("scanner: open %s: %w", p, err)
	}
	defer f.Close()
	id, err := checksum.ContentID(f)
	if err != nil {
		return "", fmt.Errorf("scanner: hash %s: %w", p, err)
	}
	return id, nil
}
