package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/starford/filesnap/internal"
	"github.com/starford/filesnap/internal/mcpserver"
)

// exitStale is the status exit code for a task that is out of date.
const exitStale = 3

// exitError ends the process with code without printing anything more.
type exitError struct {
	code int
}

func (e exitError) Error() string { return fmt.Sprintf("exit status %d", e.code) }

// withServices loads the config and wires the task service for a one-shot
// command. Logs go to stderr so stdout only carries results.
func withServices(cmd *cli.Command, fn func(*internal.Services) error) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	s, err := internal.Open(
		internal.WithConfig(cfg),
		internal.WithVersion(version),
		internal.WithLogOutput(os.Stderr),
	)
	if err != nil {
		return err
	}
	defer s.Close()
	return fn(s)
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func requireArgs(cmd *cli.Command, n int) error {
	if cmd.NArg() < n {
		return fmt.Errorf("%s: expected %s", cmd.Name, cmd.ArgsUsage)
	}
	return nil
}

func snapshotCmd(ctx context.Context, cmd *cli.Command) error {
	if err := requireArgs(cmd, 1); err != nil {
		return err
	}
	return withServices(cmd, func(s *internal.Services) error {
		snap, err := s.Task.Snapshot(ctx, cmd.Args().First())
		if err != nil {
			return err
		}
		return printJSON(snap)
	})
}

func statusCmd(ctx context.Context, cmd *cli.Command) error {
	if err := requireArgs(cmd, 1); err != nil {
		return err
	}
	return withServices(cmd, func(s *internal.Services) error {
		st, err := s.Task.Status(ctx, cmd.Args().First())
		if err != nil {
			return err
		}
		if err := printJSON(st); err != nil {
			return err
		}
		if !st.UpToDate {
			return exitError{code: exitStale}
		}
		return nil
	})
}

func recordCmd(ctx context.Context, cmd *cli.Command) error {
	if err := requireArgs(cmd, 1); err != nil {
		return err
	}
	return withServices(cmd, func(s *internal.Services) error {
		snap, err := s.Task.Record(ctx, cmd.Args().First())
		if err != nil {
			return err
		}
		return printJSON(snap)
	})
}

func forgetCmd(ctx context.Context, cmd *cli.Command) error {
	if err := requireArgs(cmd, 1); err != nil {
		return err
	}
	return withServices(cmd, func(s *internal.Services) error {
		return s.Task.Forget(ctx, cmd.Args().First())
	})
}

func inspectCmd(ctx context.Context, cmd *cli.Command) error {
	if err := requireArgs(cmd, 2); err != nil {
		return err
	}
	args := cmd.Args()
	return withServices(cmd, func(s *internal.Services) error {
		reports, err := s.Task.Inspect(ctx, args.Get(0), args.Get(1), args.Get(2))
		if err != nil {
			return err
		}
		return printJSON(reports)
	})
}

func pruneCmd(ctx context.Context, cmd *cli.Command) error {
	return withServices(cmd, func(s *internal.Services) error {
		n, err := s.Task.PruneDigests(ctx)
		if err != nil {
			return err
		}
		return printJSON(map[string]int{"pruned": n})
	})
}

func mcpCmd(_ context.Context, cmd *cli.Command) error {
	return withServices(cmd, func(s *internal.Services) error {
		return mcpserver.New(s.Task, s.Version).ServeStdio()
	})
}
