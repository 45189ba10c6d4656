package internal

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/starford/filesnap/internal/manifest"
	"github.com/starford/filesnap/internal/scanner"
	"github.com/starford/filesnap/internal/store"
	"github.com/starford/filesnap/internal/taskfiles"
	"github.com/starford/filesnap/internal/taskservice"
	"github.com/starford/filesnap/internal/workspace"
)

// Services is the wired task service together with the resources it owns.
// Close releases them.
type Services struct {
	Task    *taskservice.Service
	Logger  *slog.Logger
	Version string

	db *store.DB
}

// Close closes the fingerprint store.
func (s *Services) Close() error {
	return s.db.Close()
}

// Open builds the logger, loads the manifest and wires scanner, store and
// task service for the configured workspace.
func Open(opts ...Option) (*Services, error) {
	app := &application{logOutput: os.Stdout, version: "dev"}
	for _, opt := range opts {
		opt(app)
	}
	if app.config == nil {
		return nil, fmt.Errorf("config is required")
	}
	cfg := app.config

	logger := slog.New(slog.NewJSONHandler(app.logOutput, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
	slog.SetDefault(logger)

	ws, err := workspace.NewFS(cfg.Workspace.Root)
	if err != nil {
		return nil, fmt.Errorf("init workspace: %w", err)
	}

	manifestPath := cfg.Workspace.ManifestPath()
	tasks, err := manifest.Load(manifestPath, ws.Root())
	if err != nil {
		return nil, fmt.Errorf("load manifest: %w", err)
	}

	dbPath := cfg.Store.Path
	if !filepath.IsAbs(dbPath) {
		dbPath = filepath.Join(ws.Root(), dbPath)
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create store dir: %w", err)
	}
	db, err := store.Open(dbPath)
	if err != nil {
		return nil, fmt.Errorf("init store: %w", err)
	}

	sc := scanner.New(
		scanner.WithWorkers(cfg.Scanner.Workers),
		scanner.WithDigestCache(db),
		scanner.WithLogger(logger),
	)
	svc, err := taskservice.NewService(tasks, taskfiles.NewSnapshotter(sc, logger), db, ws,
		taskservice.WithDigestPruner(db),
		taskservice.WithLogger(logger),
	)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("init task service: %w", err)
	}

	logger.Debug("Services ready",
		slog.String("workspace", ws.Root()),
		slog.String("manifest", manifestPath),
		slog.String("store_path", dbPath),
		slog.Int("tasks", len(tasks)))

	return &Services{Task: svc, Logger: logger, Version: app.version, db: db}, nil
}
