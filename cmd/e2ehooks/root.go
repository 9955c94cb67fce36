package main

import (
	"context"
	"io"

	"github.com/spf13/cobra"
	"tools.zach/dev/e2ehooks/internal/hooks"
	"tools.zach/dev/e2ehooks/internal/paths"
)

var (
	rootDir    string
	configPath string
	logLevel   string
)

var rootCmd = &cobra.Command{
	Use:   paths.BinaryName,
	Short: "Global setup and teardown hooks for end-to-end test runs",
	Long: `Global setup and teardown hooks for end-to-end test runs.

Setup removes test-results/ and playwright-report/ with everything inside
them and recreates both empty. Teardown logs that the run finished.

Paths are resolved against the project root: the parent of the directory
holding this binary, not the current working directory. Use --root to point
somewhere else.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&rootDir, "root", "", "Project root (default: parent of the executable's directory)")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default: <root>/"+paths.ConfigFile+")")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Override log.level: trace, debug, info, warn, error")

	rootCmd.AddCommand(setupCmd)
	rootCmd.AddCommand(teardownCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(versionCmd)
}

// Execute runs the root command
func Execute() error {
	return rootCmd.ExecuteContext(context.Background())
}

// resolveRoot returns --root made absolute, or the executable's root.
func resolveRoot() (paths.Root, error) {
	if rootDir != "" {
		return paths.Root{Dir: rootDir}.Abs()
	}
	return paths.ExecutableRoot()
}

// resolveConfigPath returns --config, or the config file at the root.
func resolveConfigPath(root paths.Root) string {
	if configPath != "" {
		return configPath
	}
	return root.Config()
}

// resolveOptions builds hook options from the persistent flags. Records go
// to out.
func resolveOptions(out io.Writer) (hooks.Options, io.Closer, error) {
	root, err := resolveRoot()
	if err != nil {
		return hooks.Options{}, nil, err
	}
	return hooks.ResolveOptions(root, out, hooks.Overrides{
		ConfigPath: configPath,
		LogLevel:   logLevel,
	})
}
