package workspace

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// FS implements Provider backed by the local file system.
type FS struct {
	root string // absolute path to workspace directory
}

// NewFS creates a new FS provider rooted at the given directory.
// The directory must already exist.
func NewFS(root string) (*FS, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("workspace: resolve root: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("workspace: stat root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("workspace: root is not a directory: %s", abs)
	}
	return &FS{root: abs}, nil
}

// Root returns the absolute workspace directory.
func (f *FS) Root() string { return f.root }

// Resolve resolves a relative path against the workspace root and rejects
// any result that escapes it (directory traversal).
func (f *FS) Resolve(rel string) (string, error) {
	if rel == "" {
		return f.root, nil
	}
	cleaned := filepath.Clean(rel)
	if filepath.IsAbs(cleaned) {
		return "", fmt.Errorf("workspace: absolute paths not allowed: %s", rel)
	}
	abs := filepath.Join(f.root, cleaned)
	if !f.contains(abs) {
		return "", fmt.Errorf("workspace: path escapes workspace root: %s", rel)
	}
	return abs, nil
}

func (f *FS) contains(abs string) bool {
	return abs == f.root || strings.HasPrefix(abs, f.root+string(os.PathSeparator))
}

// ReadDirNames lists the entries of dir. Absolute paths are accepted as
// long as they point inside the workspace.
func (f *FS) ReadDirNames(dir string) ([]string, error) {
	abs := filepath.Clean(dir)
	if !filepath.IsAbs(abs) {
		var err error
		if abs, err = f.Resolve(dir); err != nil {
			return nil, err
		}
	} else if !f.contains(abs) {
		return nil, fmt.Errorf("workspace: path outside workspace root: %s", dir)
	}
	entries, err := os.ReadDir(abs)
	if err != nil {
		return nil, fmt.Errorf("workspace: read dir %s: %w", dir, err)
	}
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.Name()
	}
	return out, nil
}
