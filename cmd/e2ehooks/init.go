package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"tools.zach/dev/e2ehooks"
	"tools.zach/dev/e2ehooks/internal/atomicfile"
)

var initForce bool

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a default e2ehooks.toml",
	Long: `Write the default configuration, with every option documented, to the
project root. An existing file is left alone unless --force is given.`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		if err := runInit(cmd.OutOrStdout(), initForce); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	initCmd.Flags().BoolVarP(&initForce, "force", "f", false, "Overwrite an existing config file")
}

func runInit(out io.Writer, force bool) error {
	root, err := resolveRoot()
	if err != nil {
		return err
	}
	path := resolveConfigPath(root)

	if force {
		err = atomicfile.Write(path, e2ehooks.DefaultConfigTOML, 0o644)
	} else {
		err = atomicfile.WriteExclusive(path, e2ehooks.DefaultConfigTOML, 0o644)
	}
	if errors.Is(err, atomicfile.ErrExists) {
		return fmt.Errorf("%s already exists (use --force to overwrite)", path)
	}
	if err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	fmt.Fprintf(out, "wrote %s\n", path)
	return nil
}
