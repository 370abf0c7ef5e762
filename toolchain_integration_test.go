//go:build integration

package crucible

import (
	"context"
	"fmt"
	"io"
	"testing"

	"github.com/testcontainers/testcontainers-go"
	tcexec "github.com/testcontainers/testcontainers-go/exec"
	"github.com/testcontainers/testcontainers-go/wait"
)

// containerCommandRunner runs toolchain commands inside a Docker container
// via testcontainers-go, the way worktree_test.go's containerGitExecutor
// runs git commands inside a container instead of on the host.
type containerCommandRunner struct {
	ctr testcontainers.Container
}

func (r *containerCommandRunner) Run(ctx context.Context, dir, name string, args ...string) (string, error) {
	mkdirCmd := []string{"mkdir", "-p", dir}
	if exitCode, _, err := r.ctr.Exec(ctx, mkdirCmd, tcexec.Multiplexed()); err != nil || exitCode != 0 {
		return "", fmt.Errorf("mkdir -p %s failed (exit %d): %w", dir, exitCode, err)
	}

	cmd := []string{"sh", "-c", fmt.Sprintf("cd %q && %s %s", dir, name, joinArgs(args))}
	exitCode, reader, err := r.ctr.Exec(ctx, cmd, tcexec.Multiplexed())
	if err != nil {
		return "", fmt.Errorf("exec failed: %w", err)
	}
	out, err := io.ReadAll(reader)
	if err != nil {
		return "", fmt.Errorf("read output failed: %w", err)
	}
	if exitCode != 0 {
		return string(out), fmt.Errorf("command exited with code %d", exitCode)
	}
	return string(out), nil
}

func joinArgs(args []string) string {
	out := ""
	for i, a := range args {
		if i > 0 {
			out += " "
		}
		out += a
	}
	return out
}

// setupCargoContainer starts a rust:alpine container with a fresh cargo
// project at /work, ready to exercise BuildAllTestsArgs/ListAllTestsArgs.
func setupCargoContainer(t *testing.T, ctx context.Context) testcontainers.Container {
	t.Helper()

	req := testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:      "rust:alpine",
			Entrypoint: []string{"/bin/sh", "-c"},
			Cmd:        []string{"sleep infinity"},
			WaitingFor: wait.ForExec([]string{"cargo", "--version"}).
				WithExitCodeMatcher(func(exitCode int) bool { return exitCode == 0 }),
		},
		Started: true,
	}

	ctr, err := testcontainers.GenericContainer(ctx, req)
	testcontainers.CleanupContainer(t, ctr)
	if err != nil {
		t.Fatalf("failed to start cargo container: %v", err)
	}

	init := []string{"cargo", "new", "--lib", "/work"}
	if exitCode, _, err := ctr.Exec(ctx, init, tcexec.Multiplexed()); err != nil || exitCode != 0 {
		t.Fatalf("cargo new failed (exit %d): %v", exitCode, err)
	}

	return ctr
}

func TestContainerCommandRunner_ListAllTests(t *testing.T) {
	ctx := context.Background()
	ctr := setupCargoContainer(t, ctx)
	runner := &containerCommandRunner{ctr: ctr}

	out, err := runner.Run(ctx, "/work", "cargo", ListAllTestsArgs(false)...)
	if err != nil {
		t.Fatalf("cargo test --list failed: %v\noutput: %s", err, out)
	}

	if _, perr := ParseListing(out); perr != nil {
		t.Fatalf("ParseListing rejected real cargo test --list output: %v\noutput: %s", perr, out)
	}
}

func TestContainerCommandRunner_BuildAllTests(t *testing.T) {
	ctx := context.Background()
	ctr := setupCargoContainer(t, ctx)
	runner := &containerCommandRunner{ctr: ctr}

	if _, err := runner.Run(ctx, "/work", "cargo", BuildAllTestsArgs(false)...); err != nil {
		t.Fatalf("cargo test --no-run failed: %v", err)
	}
}
