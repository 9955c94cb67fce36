// Package hooks implements the global setup and teardown steps of an
// end-to-end test run.
//
// Setup leaves every target directory present and empty. Teardown touches
// nothing and logs a single completion line. Both are called once per run by
// whatever drives the suite: a TestMain, an external runner invoking the CLI,
// or the CLI's run wrapper.
package hooks

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"tools.zach/dev/e2ehooks/internal/config"
	"tools.zach/dev/e2ehooks/internal/logger"
	"tools.zach/dev/e2ehooks/internal/paths"
	"tools.zach/dev/e2ehooks/internal/runlock"
)

// ///////////////////////////////////////////////
// Errors
// ///////////////////////////////////////////////

var (
	// ErrNotDirectory is wrapped in an *fs.PathError when strict type checking
	// finds a non-directory at a target location.
	ErrNotDirectory = errors.New("not a directory")
	// ErrUnsafeTarget rejects a target before anything is deleted.
	ErrUnsafeTarget = errors.New("unsafe target")
	// ErrLocked reports another setup holding the project root.
	ErrLocked = runlock.ErrLocked
)

// ///////////////////////////////////////////////
// Options
// ///////////////////////////////////////////////

// Options carries everything a hook needs. Build it with [ResolveOptions] or
// by hand in tests.
type Options struct {
	// Root is the project root every target is relative to.
	Root paths.Root
	// Config supplies targets, strictness and protect patterns. Nil means
	// [config.DefaultConfig].
	Config *config.Config
	// Logger receives the confirmation lines. Nil means slog.Default().
	Logger *slog.Logger
}

func (o Options) config() *config.Config {
	if o.Config == nil {
		return config.DefaultConfig()
	}
	return o.Config
}

func (o Options) logger() *slog.Logger {
	if o.Logger == nil {
		return slog.Default()
	}
	return o.Logger
}

// Overrides replaces parts of what [ResolveOptions] would otherwise read from
// the root. Zero values keep the root's settings.
type Overrides struct {
	// ConfigPath is read instead of the config file at the root.
	ConfigPath string
	// LogLevel replaces log.level from the config.
	LogLevel string
}

// ResolveOptions loads the config for root and builds a logger that writes to
// console and, when configured, to the log file. The returned closer flushes
// the log file and must be closed after the hook returns.
func ResolveOptions(root paths.Root, console io.Writer, ov Overrides) (Options, io.Closer, error) {
	root, err := root.Abs()
	if err != nil {
		return Options{}, nil, err
	}
	cfgPath := ov.ConfigPath
	if cfgPath == "" {
		cfgPath = root.Config()
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return Options{}, nil, err
	}
	if ov.LogLevel != "" {
		cfg.Log.Level = strings.ToLower(ov.LogLevel)
		if err := cfg.Validate(); err != nil {
			return Options{}, nil, fmt.Errorf("validate config: %w", err)
		}
	}

	var logFile string
	if cfg.Log.File != "" {
		logFile = root.Target(cfg.Log.File)
	}
	log, closer := logger.New(logger.Options{
		Console:   console,
		Level:     logger.ParseLevel(cfg.Log.Level),
		File:      logFile,
		MaxSizeMB: cfg.Log.MaxSizeMB,
	})
	return Options{Root: root, Config: cfg, Logger: log}, closer, nil
}

// Paths returns the absolute host path of every configured target that
// passes [config.CleanTarget].
func (o Options) Paths() []string {
	cfg := o.config()
	out := make([]string, 0, len(cfg.Targets))
	for _, raw := range cfg.Targets {
		if rel, err := config.CleanTarget(raw); err == nil {
			out = append(out, o.Root.Target(rel))
		}
	}
	return out
}

// ///////////////////////////////////////////////
// Setup
// ///////////////////////////////////////////////

// Setup removes every target directory with all its contents, if present,
// and recreates it empty along with any missing parents.
//
// All targets are validated before anything is deleted. Each target is then
// reset on its own: the old tree is renamed aside, the new directory is
// created, and only then is the old tree removed, so a failure leaves that
// target either fully old or fully new. Filesystem failures are returned
// unmodified. ctx is checked between targets.
func Setup(ctx context.Context, opts Options) error {
	cfg := opts.config()
	log := opts.logger()

	targets, err := resolveTargets(opts.Root, cfg)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := os.MkdirAll(opts.Root.Dir, 0o755); err != nil {
		return err
	}
	lock, err := runlock.Acquire(opts.Root.Dir)
	if err != nil {
		return err
	}
	defer lock.Release()

	for _, t := range targets {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := reset(t.path, cfg.StrictTypes); err != nil {
			logger.Fail(log, "global setup failed", "target", t.rel, "error", err)
			return err
		}
		logger.Trace(log, "target reset", "target", t.rel, "path", t.path)
	}

	logger.Done(log, "global setup complete: test directories cleaned", "targets", joinRel(targets))
	return nil
}

// target is a validated target directory.
type target struct {
	rel  string // clean slash-separated path relative to the root
	path string // absolute host path
}

func joinRel(ts []target) string {
	rel := make([]string, len(ts))
	for i, t := range ts {
		rel[i] = t.rel
	}
	return strings.Join(rel, ",")
}

// resolveTargets validates every configured target against the root and the
// protect patterns. It fails on the first unsafe target.
func resolveTargets(root paths.Root, cfg *config.Config) ([]target, error) {
	if root.Dir == "" {
		return nil, fmt.Errorf("%w: project root is empty", ErrUnsafeTarget)
	}
	out := make([]target, 0, len(cfg.Targets))
	for _, raw := range cfg.Targets {
		rel, err := config.CleanTarget(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrUnsafeTarget, err)
		}
		if pattern := cfg.Protected(rel); pattern != "" {
			return nil, fmt.Errorf("%w: %q matches protect pattern %q", ErrUnsafeTarget, rel, pattern)
		}
		if err := checkParents(root.Dir, rel); err != nil {
			return nil, err
		}
		out = append(out, target{rel: rel, path: root.Target(rel)})
	}
	return out, nil
}

// checkParents rejects a target whose intermediate directories include a
// symlink, which would let a reset reach outside the root. Missing parents
// are fine; they are created later.
func checkParents(root, rel string) error {
	dir := root
	parts := strings.Split(rel, "/")
	for _, p := range parts[:len(parts)-1] {
		dir = filepath.Join(dir, p)
		info, err := os.Lstat(dir)
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		if err != nil {
			return err
		}
		if info.Mode()&fs.ModeSymlink != 0 {
			return fmt.Errorf("%w: %q passes through symlink %s", ErrUnsafeTarget, rel, dir)
		}
		if !info.IsDir() {
			return &fs.PathError{Op: "reset", Path: dir, Err: ErrNotDirectory}
		}
	}
	return nil
}

// ///////////////////////////////////////////////
// Teardown
// ///////////////////////////////////////////////

// Summary is what teardown observed in each target.
type Summary struct {
	// Files maps each target to the number of non-directory entries found
	// under it; -1 means the target was missing or unreadable.
	Files map[string]int
}

// Teardown mutates nothing. It counts the files left in each target and
// emits exactly one completion line carrying those counts.
func Teardown(ctx context.Context, opts Options) Summary {
	cfg := opts.config()
	sum := Summary{Files: make(map[string]int, len(cfg.Targets))}

	attrs := make([]any, 0, len(cfg.Targets))
	for _, raw := range cfg.Targets {
		rel, err := config.CleanTarget(raw)
		if err != nil {
			continue
		}
		n := -1
		if ctx.Err() == nil {
			n = countFiles(opts.Root.Target(rel))
		}
		sum.Files[rel] = n
		attrs = append(attrs, slog.Int(rel, n))
	}

	logger.Done(opts.logger(), "global teardown complete", attrs...)
	return sum
}

// countFiles walks dir without following symlinks and counts non-directory
// entries. Unreadable subtrees are skipped; a missing dir yields -1.
func countFiles(dir string) int {
	if info, err := os.Lstat(dir); err != nil || !info.IsDir() {
		return -1
	}
	n := 0
	filepath.WalkDir(dir, func(_ string, d fs.DirEntry, err error) error {
		if err != nil {
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if !d.IsDir() {
			n++
		}
		return nil
	})
	return n
}
