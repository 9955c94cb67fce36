package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"tools.zach/dev/e2ehooks/internal/hooks"
)

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Remove and recreate the result directories",
	Long: `Remove every target directory with all its contents, then recreate it empty.

Targets default to test-results/ and playwright-report/ under the project
root. All targets are validated before anything is deleted; a target that
escapes the root or matches a protect pattern aborts the run untouched.`,
	Example: `  # Reset the directories next to the binary's parent
  e2ehooks setup

  # Reset a specific checkout
  e2ehooks setup --root ./web`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		if err := runSetup(cmd.Context(), cmd.OutOrStdout()); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	},
}

func runSetup(ctx context.Context, out io.Writer) error {
	opts, closer, err := resolveOptions(out)
	if err != nil {
		return err
	}
	defer closer.Close()
	return hooks.Setup(ctx, opts)
}
