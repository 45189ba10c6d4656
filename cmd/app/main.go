package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"github.com/starford/filesnap/internal"
	pkgconfig "github.com/starford/filesnap/pkg/config"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func loadConfig(cmd *cli.Command) (*internal.Config, error) {
	configPath := cmd.String("config")

	cfg := internal.NewDefaultConfig()
	if err := pkgconfig.Load(configPath, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if root := cmd.String("workspace"); root != "" {
		cfg.Workspace.Root = root
	}
	return cfg, nil
}

func serve(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	opts := []internal.Option{
		internal.WithConfig(cfg),
		internal.WithVersion(version),
	}

	if err := internal.Run(ctx, opts...); err != nil {
		return fmt.Errorf("app run error: %w", err)
	}

	return nil
}

func main() {
	cmd := &cli.Command{
		Name:    "filesnap",
		Usage:   "Snapshot the files a build task reads and writes, and tell whether it is up to date",
		Version: version,
		Action:  serve,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "Path to config file",
				DefaultText: "config/config.yaml",
				Value:       "config/config.yaml",
				Sources:     cli.EnvVars("APP_CONFIG_FILE"),
			},
			&cli.StringFlag{
				Name:    "workspace",
				Aliases: []string{"w"},
				Usage:   "Workspace root, overrides workspace.root from the config file",
				Sources: cli.EnvVars("FILESNAP_WORKSPACE"),
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Serve the HTTP API and push task changes over SSE",
				Action: serve,
			},
			{
				Name:      "snapshot",
				Usage:     "Snapshot a task's file properties and print their fingerprints",
				ArgsUsage: "<task>",
				Action:    snapshotCmd,
			},
			{
				Name:      "status",
				Usage:     "Compare a task with its recorded baseline (exit code 3 when out of date)",
				ArgsUsage: "<task>",
				Action:    statusCmd,
			},
			{
				Name:      "record",
				Usage:     "Record the current snapshot of a task as its baseline",
				ArgsUsage: "<task>",
				Action:    recordCmd,
			},
			{
				Name:      "forget",
				Usage:     "Drop a task's recorded baseline",
				ArgsUsage: "<task>",
				Action:    forgetCmd,
			},
			{
				Name:      "inspect",
				Usage:     "Compare a property's snapshot with the directory listing on disk",
				ArgsUsage: "<task> <property> [dir]",
				Action:    inspectCmd,
			},
			{
				Name:   "prune",
				Usage:  "Delete cached digests of files no task observes any more",
				Action: pruneCmd,
			},
			{
				Name:   "mcp",
				Usage:  "Serve the MCP tools on stdin/stdout",
				Action: mcpCmd,
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		var exit exitError
		if errors.As(err, &exit) {
			os.Exit(exit.code)
		}
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
