package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/forgecorp/crucible/internal/cmd"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(),
		syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	rootCmd := cmd.NewRootCommand()

	// Preserve the `crucible [flags] <workspace-path>` shorthand: prepend
	// "run" when no subcommand is specified.
	args := os.Args[1:]
	if cmd.NeedsDefaultRun(rootCmd, args) {
		args = append([]string{"run"}, args...)
	}
	rootCmd.SetArgs(args)

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		var exitErr *cmd.ExitError
		if errors.As(err, &exitErr) {
			os.Exit(exitErr.Code)
		}
		os.Exit(1)
	}
}
