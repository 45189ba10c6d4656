// Package testutil provides shared test helpers for setting up workspaces,
// databases and a fully wired task service.
package testutil

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/starford/filesnap/internal/manifest"
	"github.com/starford/filesnap/internal/scanner"
	"github.com/starford/filesnap/internal/store"
	"github.com/starford/filesnap/internal/taskfiles"
	"github.com/starford/filesnap/internal/taskservice"
	"github.com/starford/filesnap/internal/workspace"
)

// TestDB creates a temporary SQLite database that is automatically cleaned up.
func TestDB(t *testing.T) *store.DB {
	t.Helper()
	db, err := store.Open(filepath.Join(t.TempDir(), "filesnap-test.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// TestWorkspace creates a temporary workspace directory with a workspace.Provider.
func TestWorkspace(t *testing.T) (string, *workspace.FS) {
	t.Helper()
	dir := t.TempDir()
	ws, err := workspace.NewFS(dir)
	if err != nil {
		t.Fatal(err)
	}
	return ws.Root(), ws
}

// WriteFile writes content to rel under root, creating parent directories.
func WriteFile(t *testing.T, root, rel, content string) string {
	t.Helper()
	p := filepath.Join(root, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return p
}

// QuietLogger returns a logger that only reports errors.
func QuietLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

// Env is a wired task service over a temporary workspace.
type Env struct {
	Root    string
	DB      *store.DB
	Service *taskservice.Service
}

// NewEnv parses manifestYAML against a fresh workspace and wires a scanner,
// a SQLite store and a task service around it. Files can be added to Root
// before or after the call; every snapshot reads the disk afresh.
func NewEnv(t *testing.T, manifestYAML string) *Env {
	t.Helper()
	root, ws := TestWorkspace(t)
	db := TestDB(t)

	tasks, err := manifest.Parse([]byte(manifestYAML), root)
	if err != nil {
		t.Fatalf("manifest: %v", err)
	}
	logger := QuietLogger()
	sc := scanner.New(scanner.WithDigestCache(db), scanner.WithLogger(logger), scanner.WithWorkers(2))
	svc, err := taskservice.NewService(tasks, taskfiles.NewSnapshotter(sc, logger), db, ws,
		taskservice.WithDigestPruner(db),
		taskservice.WithLogger(logger),
	)
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return &Env{Root: root, DB: db, Service: svc}
}
