package workspace

import (
	"os"
	"path/filepath"
	"testing"
)

func tempWorkspace(t *testing.T) *FS {
	t.Helper()
	dir := t.TempDir()
	fs, err := NewFS(dir)
	if err != nil {
		t.Fatalf("NewFS: %v", err)
	}
	return fs
}

func TestResolve(t *testing.T) {
	w := tempWorkspace(t)
	got, err := w.Resolve("src/../lib/a.go")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if want := filepath.Join(w.Root(), "lib", "a.go"); got != want {
		t.Errorf("Resolve = %q, want %q", got, want)
	}
	if root, _ := w.Resolve(""); root != w.Root() {
		t.Errorf("Resolve(\"\") = %q", root)
	}
}

func TestTraversalBlocked(t *testing.T) {
	w := tempWorkspace(t)
	cases := []string{
		"../../etc/passwd",
		"../outside",
		"/etc/shadow",
	}
	for _, p := range cases {
		if _, err := w.Resolve(p); err == nil {
			t.Errorf("expected error for path %q", p)
		}
	}
	if _, err := w.ReadDirNames("/etc"); err == nil {
		t.Error("expected error listing a directory outside the workspace")
	}
}

func TestReadDirNames(t *testing.T) {
	w := tempWorkspace(t)
	for _, n := range []string{"b.txt", "a.txt"} {
		if err := os.WriteFile(filepath.Join(w.Root(), n), nil, 0o644); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.Mkdir(filepath.Join(w.Root(), "sub"), 0o755); err != nil {
		t.Fatal(err)
	}

	rel, err := w.ReadDirNames("")
	if err != nil {
		t.Fatalf("ReadDirNames: %v", err)
	}
	abs, err := w.ReadDirNames(w.Root())
	if err != nil {
		t.Fatalf("ReadDirNames(abs): %v", err)
	}
	want := []string{"a.txt", "b.txt", "sub"}
	for _, got := range [][]string{rel, abs} {
		if len(got) != 3 || got[0] != want[0] || got[1] != want[1] || got[2] != want[2] {
			t.Errorf("names = %v, want %v", got, want)
		}
	}
}

func TestNewFS_NonExistentDir(t *testing.T) {
	_, err := NewFS(filepath.Join(t.TempDir(), "missing"))
	if err == nil {
		t.Error("expected error for non-existent dir")
	}
}

func TestNewFS_FileNotDir(t *testing.T) {
	f := filepath.Join(t.TempDir(), "file")
	if err := os.WriteFile(f, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := NewFS(f); err == nil {
		t.Error("expected error when root is a file")
	}
}
