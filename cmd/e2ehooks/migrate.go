package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"tools.zach/dev/e2ehooks/internal/config"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Upgrade e2ehooks.toml to the current schema",
	Long: `Rewrite an outdated config file in the current schema.

The original is kept next to it with a .bak suffix. Hooks read outdated
files fine without this; migrate only makes the upgrade permanent.`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		if err := runMigrate(cmd.OutOrStdout()); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	},
}

func runMigrate(out io.Writer) error {
	root, err := resolveRoot()
	if err != nil {
		return err
	}
	path := resolveConfigPath(root)

	migrated, err := config.Upgrade(path)
	if err != nil {
		return err
	}
	if !migrated {
		fmt.Fprintf(out, "%s is already at version %d\n", path, config.Migrations.CurrentVersion)
		return nil
	}
	fmt.Fprintf(out, "migrated %s to version %d (backup: %s.bak)\n", path, config.Migrations.CurrentVersion, path)
	return nil
}
