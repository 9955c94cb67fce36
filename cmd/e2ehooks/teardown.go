package main

import (
	"context"
	"io"
	"log/slog"

	"github.com/spf13/cobra"
	"tools.zach/dev/e2ehooks/internal/hooks"
	"tools.zach/dev/e2ehooks/internal/logger"
)

var teardownCmd = &cobra.Command{
	Use:   "teardown",
	Short: "Log that the test run finished",
	Long: `Log one completion line carrying the number of files left in each target.

Teardown never modifies anything and never fails: if the config cannot be
read it falls back to the defaults.`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		runTeardown(cmd.Context(), cmd.OutOrStdout())
	},
}

func runTeardown(ctx context.Context, out io.Writer) hooks.Summary {
	opts, closer, err := resolveOptions(out)
	if err != nil {
		root, rootErr := resolveRoot()
		if rootErr != nil {
			root.Dir = rootDir
		}
		return hooks.Teardown(ctx, hooks.Options{
			Root:   root,
			Logger: slog.New(logger.NewHandler(out, logger.LevelInfo)),
		})
	}
	defer closer.Close()
	return hooks.Teardown(ctx, opts)
}
