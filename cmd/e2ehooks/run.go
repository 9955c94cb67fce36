package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"os/signal"

	"github.com/spf13/cobra"
	"tools.zach/dev/e2ehooks/internal/hooks"
	"tools.zach/dev/e2ehooks/internal/watch"
)

var runCmd = &cobra.Command{
	Use:   "run -- <command> [args...]",
	Short: "Run setup, then a test command, then teardown",
	Long: `Run global setup, execute the test command, then run global teardown.

Teardown runs even when the command fails, and e2ehooks exits with the
command's exit code. Interrupts are forwarded to the command. While it runs,
new files in the targets are logged at debug level.`,
	Example: `  # Wrap the Playwright runner
  e2ehooks run -- npx playwright test

  # Watch artifacts appear as tests write them
  e2ehooks run --log-level debug -- go test ./e2e/...`,
	Args: cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		code, err := runWrapped(cmd.Context(), cmd.OutOrStdout(), cmd.ErrOrStderr(), args)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		os.Exit(code)
	},
}

func init() {
	// Everything after the command name belongs to the command.
	runCmd.Flags().SetInterspersed(false)
}

// runWrapped performs setup, runs args as a child process, then teardown.
// The returned code is the child's exit status. An error means setup failed
// or the child could not be started; teardown still runs in the latter case.
func runWrapped(ctx context.Context, stdout, stderr io.Writer, args []string) (int, error) {
	opts, closer, err := resolveOptions(stdout)
	if err != nil {
		return 0, err
	}
	defer closer.Close()

	if err := hooks.Setup(ctx, opts); err != nil {
		return 0, err
	}

	w, err := watch.New(opts.Paths(), watch.Options{Logger: opts.Logger})
	if err != nil {
		return 0, err
	}

	code, runErr := runChild(stdout, stderr, args)

	w.Close()
	opts.Logger.Debug("artifacts observed during run", "count", w.Count(), "polling", w.Polling())
	hooks.Teardown(ctx, opts)

	if runErr != nil {
		return 0, runErr
	}
	return code, nil
}

// runChild starts args with stdin attached, forwards interrupts until it
// exits, and returns its exit code.
func runChild(stdout, stderr io.Writer, args []string) (int, error) {
	c := exec.Command(args[0], args[1:]...)
	c.Stdin = os.Stdin
	c.Stdout = stdout
	c.Stderr = stderr

	sigs := signalChannel()
	defer signal.Stop(sigs)

	if err := c.Start(); err != nil {
		return 0, fmt.Errorf("start %s: %w", args[0], err)
	}

	done := make(chan error, 1)
	go func() { done <- c.Wait() }()

	for {
		select {
		case sig := <-sigs:
			// The child usually shares our process group and gets the
			// interrupt from the terminal too; a repeat is harmless.
			_ = c.Process.Signal(sig)
		case err := <-done:
			return exitCode(err)
		}
	}
}

// exitCode maps the result of Wait to a process exit code. A child killed by
// a signal reports 1.
func exitCode(err error) (int, error) {
	if err == nil {
		return 0, nil
	}
	var ee *exec.ExitError
	if errors.As(err, &ee) {
		if code := ee.ExitCode(); code >= 0 {
			return code, nil
		}
		return 1, nil
	}
	return 0, err
}
