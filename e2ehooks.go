// Package e2ehooks provides the global setup and teardown hooks of an
// end-to-end test run.
//
// Call [GlobalSetup] before the suite runs and [GlobalTeardown] after it,
// typically from TestMain. Setup leaves test-results/ and playwright-report/
// present and empty; teardown logs one completion line. Both resolve the
// project root as the parent of the directory holding the calling source
// file, never the process working directory.
package e2ehooks

import (
	"context"
	"log/slog"
	"os"

	"tools.zach/dev/e2ehooks/internal/hooks"
	"tools.zach/dev/e2ehooks/internal/logger"
	"tools.zach/dev/e2ehooks/internal/paths"
)

// Errors returned by setup, matched with errors.Is.
var (
	ErrNotDirectory = hooks.ErrNotDirectory
	ErrUnsafeTarget = hooks.ErrUnsafeTarget
	ErrLocked       = hooks.ErrLocked
)

// Summary reports the files teardown found in each target.
type Summary = hooks.Summary

// GlobalSetup removes and recreates every target directory under the root of
// the calling file. Filesystem errors are returned unmodified.
func GlobalSetup() error {
	root, err := paths.CallerRoot(1)
	if err != nil {
		return err
	}
	return SetupDir(context.Background(), root.Dir)
}

// GlobalTeardown logs completion for the root of the calling file. It never
// fails; a root that cannot be resolved is reported in the log line instead.
func GlobalTeardown() Summary {
	root, err := paths.CallerRoot(1)
	if err != nil {
		consoleLogger().Warn("global teardown complete", "error", err)
		return Summary{Files: map[string]int{}}
	}
	return TeardownDir(context.Background(), root.Dir)
}

// SetupDir runs setup against an explicit project root.
func SetupDir(ctx context.Context, dir string) error {
	opts, closer, err := hooks.ResolveOptions(paths.Root{Dir: dir}, os.Stdout, hooks.Overrides{})
	if err != nil {
		return err
	}
	defer closer.Close()
	return hooks.Setup(ctx, opts)
}

// TeardownDir runs teardown against an explicit project root. An unreadable
// config falls back to the defaults so teardown still emits its line.
func TeardownDir(ctx context.Context, dir string) Summary {
	opts, closer, err := hooks.ResolveOptions(paths.Root{Dir: dir}, os.Stdout, hooks.Overrides{})
	if err != nil {
		return hooks.Teardown(ctx, hooks.Options{Root: paths.Root{Dir: dir}, Logger: consoleLogger()})
	}
	defer closer.Close()
	return hooks.Teardown(ctx, opts)
}

func consoleLogger() *slog.Logger {
	return slog.New(logger.NewHandler(os.Stdout, logger.LevelInfo))
}
