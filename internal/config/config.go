// Package config provides configuration loading and defaults for the e2e
// lifecycle hooks.
//
// Configuration is read from an optional TOML file at the project root. A
// missing file means the defaults: reset test-results/ and
// playwright-report/, log to stdout at info level.
package config

//go:generate go run ../../cmd/genconfig

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path"
	"slices"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/bmatcuk/doublestar/v4"
	"tools.zach/dev/e2ehooks/internal/atomicfile"
	"tools.zach/dev/e2ehooks/internal/paths"
)

// ///////////////////////////////////////////////
// Configuration Types
// ///////////////////////////////////////////////

// Config represents the top-level configuration.
type Config struct {
	// Version is the config schema version used for migrations.
	Version int `toml:"version"`
	// Targets lists the directories, relative to the project root, that setup
	// removes and recreates empty.
	Targets []string `toml:"targets"`
	// StrictTypes makes setup fail instead of replacing a non-directory found
	// at a target location.
	StrictTypes bool `toml:"strict_types"`
	// Protect lists doublestar patterns; a target matching any of them is
	// never reset.
	Protect []string `toml:"protect"`
	// Log holds logging settings.
	Log LogConfig `toml:"log"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	// Level is the minimum log level (trace, debug, info, warn, error).
	Level string `toml:"level"`
	// File is an optional log file, relative to the project root. Empty logs
	// to stdout only.
	File string `toml:"file,omitempty"`
	// MaxSizeMB is the maximum log file size in megabytes before rotation.
	MaxSizeMB int `toml:"max_size_mb"`
}

// ///////////////////////////////////////////////
// Default Configuration
// ///////////////////////////////////////////////

// DefaultConfig returns a Config populated with defaults.
func DefaultConfig() *Config {
	return &Config{
		Version:     Migrations.CurrentVersion,
		Targets:     paths.DefaultTargets(),
		StrictTypes: false,
		Protect:     []string{"**/.git"},
		Log: LogConfig{
			Level:     "info",
			MaxSizeMB: 10,
		},
	}
}

// ExampleConfig returns a Config suitable for generating config.default.toml.
func ExampleConfig() *Config {
	return DefaultConfig()
}

// ///////////////////////////////////////////////
// PeekVersion
// ///////////////////////////////////////////////

// PeekVersion reads just the version field from raw TOML bytes.
// Returns 1 if the version field is missing or zero.
func PeekVersion(data []byte) int {
	var v struct {
		Version int `toml:"version"`
	}
	if err := toml.Unmarshal(data, &v); err != nil || v.Version == 0 {
		return 1
	}
	return v.Version
}

// ///////////////////////////////////////////////
// Loading and Saving
// ///////////////////////////////////////////////

// Load reads and parses the configuration file at path. If the file doesn't
// exist, returns DefaultConfig. Outdated files are migrated in memory only;
// the file on disk is left untouched (see [Upgrade]).
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return DefaultConfig(), nil
		}
		return nil, fmt.Errorf("read config file: %w", err)
	}
	cfg, _, err := parse(data)
	return cfg, err
}

// Upgrade migrates the config file at path to the current schema version.
// The original is copied to path+".bak" and the migrated file is written
// atomically. It reports whether the file was rewritten.
func Upgrade(path string) (bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return false, fmt.Errorf("read config file: %w", err)
	}
	cfg, migrated, err := parse(data)
	if err != nil {
		return false, err
	}
	if !migrated {
		return false, nil
	}
	if err := atomicfile.Write(path+".bak", data, 0o644); err != nil {
		return false, fmt.Errorf("write config backup: %w", err)
	}
	if err := cfg.Save(path); err != nil {
		return false, fmt.Errorf("save migrated config: %w", err)
	}
	return true, nil
}

// parse migrates, decodes and validates raw TOML, reporting whether any
// migration ran.
func parse(data []byte) (*Config, bool, error) {
	version := PeekVersion(data)
	migrated := Migrations.NeedsMigration(version)
	if migrated {
		var err error
		data, _, err = Migrations.Run(data, version)
		if err != nil {
			return nil, false, fmt.Errorf("migrate config: %w", err)
		}
	}

	cfg := DefaultConfig()
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, false, fmt.Errorf("parse config: %w", err)
	}
	cfg.Version = Migrations.CurrentVersion

	if err := cfg.Validate(); err != nil {
		return nil, false, fmt.Errorf("validate config: %w", err)
	}
	return cfg, migrated, nil
}

// Encode renders the config as TOML.
func (c *Config) Encode() ([]byte, error) {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(c); err != nil {
		return nil, fmt.Errorf("encoding config: %w", err)
	}
	return buf.Bytes(), nil
}

// Save writes the config to disk as TOML using atomic file write.
func (c *Config) Save(path string) error {
	data, err := c.Encode()
	if err != nil {
		return err
	}
	return atomicfile.Write(path, data, 0o644)
}

// ///////////////////////////////////////////////
// Validation
// ///////////////////////////////////////////////

// validLogLevels is the set of accepted log level strings.
var validLogLevels = map[string]bool{
	"trace": true, "debug": true, "info": true, "warn": true, "error": true,
}

// Validate checks that all configuration values are within acceptable ranges.
// Targets are checked syntactically here; checks that need the resolved root
// happen when setup runs.
func (c *Config) Validate() error {
	if len(c.Targets) == 0 {
		return fmt.Errorf("targets must not be empty")
	}
	cleaned := make([]string, 0, len(c.Targets))
	for _, t := range c.Targets {
		ct, err := CleanTarget(t)
		if err != nil {
			return err
		}
		for _, prev := range cleaned {
			if prev == ct {
				return fmt.Errorf("duplicate target %q", t)
			}
			if nested(prev, ct) || nested(ct, prev) {
				return fmt.Errorf("targets %q and %q overlap", prev, ct)
			}
		}
		cleaned = append(cleaned, ct)
	}

	for _, p := range c.Protect {
		if !doublestar.ValidatePattern(p) {
			return fmt.Errorf("invalid protect pattern %q", p)
		}
	}

	if !validLogLevels[strings.ToLower(c.Log.Level)] {
		return fmt.Errorf("invalid log.level %q: must be trace, debug, info, warn, or error", c.Log.Level)
	}
	if c.Log.MaxSizeMB <= 0 {
		return fmt.Errorf("log.max_size_mb must be > 0, got %d", c.Log.MaxSizeMB)
	}
	return nil
}

// CleanTarget normalizes a target to a clean slash-separated relative path.
// It rejects empty and absolute targets and targets that name the root or
// climb above it.
func CleanTarget(t string) (string, error) {
	s := strings.ReplaceAll(strings.TrimSpace(t), `\`, "/")
	if s == "" {
		return "", fmt.Errorf("target must not be empty")
	}
	if strings.HasPrefix(s, "/") || (len(s) >= 2 && s[1] == ':') {
		return "", fmt.Errorf("target %q must be relative to the project root", t)
	}
	s = path.Clean(s)
	if s == "." {
		return "", fmt.Errorf("target %q resolves to the project root", t)
	}
	if s == ".." || strings.HasPrefix(s, "../") {
		return "", fmt.Errorf("target %q escapes the project root", t)
	}
	return s, nil
}

// nested reports whether child lies strictly inside parent.
func nested(parent, child string) bool {
	return strings.HasPrefix(child, parent+"/")
}

// Protected reports the first protect pattern matching target, or "" when
// none does. target must already be cleaned by [CleanTarget].
func (c *Config) Protected(target string) string {
	i := slices.IndexFunc(c.Protect, func(p string) bool {
		ok, err := doublestar.Match(p, target)
		return err == nil && ok
	})
	if i < 0 {
		return ""
	}
	return c.Protect[i]
}
