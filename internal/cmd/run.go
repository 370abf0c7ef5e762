package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/forgecorp/crucible"
	"github.com/spf13/cobra"
)

// Version, Commit and Date are set at build time via -ldflags.
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

func newRunCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run <workspace-path>",
		Short: "Watch a workspace and drive its test cycle",
		Args:  cobra.ExactArgs(1),
		RunE:  runWorkspace,
	}

	cmd.Flags().Bool("copy", true, "Shadow-copy the workspace before driving it")
	cmd.Flags().String("dest", "", "Destination directory for the shadow copy (default: a temp dir)")
	cmd.Flags().String("toolchain", crucible.DefaultToolchain, "Compiler driver to invoke")
	cmd.Flags().String("build-mode", "", "Compilation mode for build jobs: none, debug, release or both")
	cmd.Flags().String("test-mode", "", "Compilation mode for test listing and running: none, debug, release or both")
	cmd.Flags().Bool("release", false, "Shorthand for --build-mode release --test-mode release")
	cmd.Flags().Int("workers", 4, "Concurrency for the initial shadow-copy population")
	cmd.Flags().Duration("debounce", crucible.DefaultDebounce, "File-watch debounce window")
	cmd.Flags().StringSlice("ignore", nil, "Additional glob patterns to ignore, beyond the defaults")

	return cmd
}

func runWorkspace(cmd *cobra.Command, args []string) error {
	root, err := filepath.Abs(args[0])
	if err != nil {
		return fmt.Errorf("invalid path: %w", err)
	}

	cfg, err := crucible.LoadConfig(root)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	if toolchain, _ := cmd.Flags().GetString("toolchain"); cmd.Flags().Changed("toolchain") {
		cfg.Workspace.Toolchain = toolchain
	}
	if mode, _ := cmd.Flags().GetString("build-mode"); mode != "" {
		parsed, err := crucible.ParseCompilationMode(mode)
		if err != nil {
			return err
		}
		cfg.Workspace.BuildMode = parsed
	}
	if mode, _ := cmd.Flags().GetString("test-mode"); mode != "" {
		parsed, err := crucible.ParseCompilationMode(mode)
		if err != nil {
			return err
		}
		cfg.Workspace.TestMode = parsed
	}
	if release, _ := cmd.Flags().GetBool("release"); release {
		cfg.Workspace.BuildMode = crucible.ModeRelease
		cfg.Workspace.TestMode = crucible.ModeRelease
	}
	if extra, _ := cmd.Flags().GetStringSlice("ignore"); len(extra) > 0 {
		cfg.Workspace.Ignore = append(append([]string(nil), cfg.IgnorePatterns()...), extra...)
	}

	shutdownTracer := crucible.InitTracer("crucible", Version)
	defer func() {
		shutdownCtx, c := context.WithTimeout(context.Background(), 5*time.Second)
		defer c()
		shutdownTracer(shutdownCtx)
	}()

	copyEnabled, _ := cmd.Flags().GetBool("copy")
	dest, err := buildDestination(root, copyEnabled, cmd)
	if err != nil {
		return err
	}
	defer dest.Release()

	workers, _ := cmd.Flags().GetInt("workers")
	jc := &crucible.JobContext{
		Destination:     dest,
		Runner:          crucible.NewOSCommandRunner(),
		Toolchain:       cfg.Toolchain(),
		BuildRelease:    cfg.BuildMode().IsRelease(),
		TestRelease:     cfg.TestMode().IsRelease(),
		PopulateFilter:  crucible.NewIgnoreFilter(cfg.IgnorePatterns()),
		CopyConcurrency: workers,
	}

	debounce, _ := cmd.Flags().GetDuration("debounce")
	notifier := crucible.BuildNotifier(cfg.Notify)
	orch := crucible.NewOrchestrator(root, jc, crucible.NewState(), cfg.IgnorePatterns(), debounce, notifier)

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		crucible.LogWarn("received signal %s, shutting down", sig)
		cancel()
	}()

	if err := orch.Run(ctx); err != nil && ctx.Err() == nil {
		return fmt.Errorf("workspace run exited: %w", err)
	}
	return nil
}

func buildDestination(root string, copyEnabled bool, cmd *cobra.Command) (*crucible.Destination, error) {
	if !copyEnabled {
		return crucible.NewSameAsSource(root), nil
	}
	dest, _ := cmd.Flags().GetString("dest")
	if dest == "" {
		return crucible.NewTempDestination(root)
	}
	return crucible.NewNamedDestination(root, dest), nil
}
