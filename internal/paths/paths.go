// Package paths centralizes file and directory names used across the project.
// Target directory names and the project root resolution rules are defined
// here as the single source of truth.
package paths

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
)

// ///////////////////////////////////////////////
// Constants
// ///////////////////////////////////////////////

// Default target directories, relative to the project root.
const (
	TestResultsDir = "test-results"
	ReportDir      = "playwright-report"
)

// Project files, relative to the project root.
const (
	ConfigFile = "e2ehooks.toml"
	BinaryName = "e2ehooks"
)

// DefaultTargets returns the target directories reset by setup when no
// config overrides them. A new slice is returned on every call.
func DefaultTargets() []string {
	return []string{TestResultsDir, ReportDir}
}

// ///////////////////////////////////////////////
// Root
// ///////////////////////////////////////////////

// Root provides path construction methods rooted at a project directory.
type Root struct {
	Dir string
}

// Config returns the full path to the config file.
func (r Root) Config() string { return filepath.Join(r.Dir, ConfigFile) }

// TestResults returns the full path to the test results directory.
func (r Root) TestResults() string { return filepath.Join(r.Dir, TestResultsDir) }

// Report returns the full path to the HTML report directory.
func (r Root) Report() string { return filepath.Join(r.Dir, ReportDir) }

// Target returns the full path to a target directory given relative to the root.
func (r Root) Target(rel string) string { return filepath.Join(r.Dir, rel) }

// ///////////////////////////////////////////////
// Root Resolution
// ///////////////////////////////////////////////

// CallerRoot returns the project root for the Go source file skip frames
// above the caller: the parent of the directory holding that file. A skip of
// 0 names the function calling CallerRoot.
//
// Binaries built with -trimpath record module-relative file names, which say
// nothing about where the source lives on disk; CallerRoot fails for those
// rather than resolving them against the working directory.
func CallerRoot(skip int) (Root, error) {
	_, file, _, ok := runtime.Caller(skip + 1)
	if !ok {
		return Root{}, fmt.Errorf("resolve caller location: no caller information")
	}
	return rootOfFile(file)
}

// rootOfFile returns the parent of the directory holding file, which must be
// an absolute host path.
func rootOfFile(file string) (Root, error) {
	if file == "" {
		return Root{}, fmt.Errorf("resolve caller location: no caller information")
	}
	if !filepath.IsAbs(file) {
		return Root{}, fmt.Errorf("resolve caller location: %q is not an absolute path (built with -trimpath?)", file)
	}
	return Root{Dir: filepath.Dir(filepath.Dir(file))}, nil
}

// ExecutableRoot returns the project root for the running binary: the parent
// of the directory holding the executable. Symlinks are resolved first so a
// linked binary still maps to its real location.
func ExecutableRoot() (Root, error) {
	exe, err := os.Executable()
	if err != nil {
		return Root{}, fmt.Errorf("resolve executable: %w", err)
	}
	if resolved, err := filepath.EvalSymlinks(exe); err == nil {
		exe = resolved
	}
	return Root{Dir: filepath.Dir(filepath.Dir(exe))}, nil
}

// Abs returns a copy of r with Dir made absolute.
func (r Root) Abs() (Root, error) {
	dir, err := filepath.Abs(r.Dir)
	if err != nil {
		return Root{}, fmt.Errorf("absolute root %q: %w", r.Dir, err)
	}
	return Root{Dir: dir}, nil
}
