package crucible

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
)

// errFileSyncFailed is returned when a FileSync job's underlying copy or
// remove operation fails.
var errFileSyncFailed = errors.New("file-sync: underlying operation failed")

// DefaultToolchain is the compiler driver invoked when Config.Toolchain is
// unset.
const DefaultToolchain = "cargo"

// CommandRunner abstracts "execute a command, collect stdout+exit code" —
// the seam a real implementation (os/exec) or a test double plugs into.
// Stderr is always folded into the returned output.
type CommandRunner interface {
	Run(ctx context.Context, dir, name string, args ...string) (output string, err error)
}

// execCommandRunner runs commands on the host via os/exec, the same
// makeCmd-overridable shape expedition.go and devserver.go use.
type execCommandRunner struct {
	makeCmd func(ctx context.Context, name string, args ...string) *exec.Cmd
}

func newExecCommandRunner() *execCommandRunner {
	return &execCommandRunner{makeCmd: exec.CommandContext}
}

// NewOSCommandRunner returns the production CommandRunner, backed by
// os/exec. Test code builds its own CommandRunner doubles instead.
func NewOSCommandRunner() CommandRunner {
	return newExecCommandRunner()
}

func (r *execCommandRunner) Run(ctx context.Context, dir, name string, args ...string) (string, error) {
	cmd := r.makeCmd(ctx, name, args...)
	cmd.Dir = dir
	var buf bytes.Buffer
	cmd.Stdout = &buf
	cmd.Stderr = &buf
	err := cmd.Run()
	return buf.String(), err
}

// BuildWorkspaceArgs, BuildAllTestsArgs, ListAllTestsArgs and RunTestsArgs
// are the argument tables for the four toolchain invocations.

func BuildWorkspaceArgs(release bool) []string {
	args := []string{"build", "--color", "never"}
	if release {
		args = append(args, "--release")
	}
	return args
}

func BuildAllTestsArgs(release bool) []string {
	args := []string{"test", "--no-run", "--color", "never"}
	if release {
		args = append(args, "--release")
	}
	return args
}

func ListAllTestsArgs(release bool) []string {
	args := []string{"test", "--color", "never"}
	if release {
		args = append(args, "--release")
	}
	return append(args, "--", "--list")
}

func RunTestsArgs() []string {
	return []string{
		"test", "--no-fail-fast", "--",
		"--show-output", "--test-threads=1", "--color", "never",
	}
}

// JobContext bundles every dependency a job's execution contract needs:
// the shadow-copy destination, the command runner, and toolchain
// selection. The engine owns exactly one JobContext for its lifetime.
// BuildRelease parameterises BuildWorkspace/BuildAllTests invocations;
// TestRelease parameterises ListAllTests. Each is the configured
// compilation mode collapsed to a single profile.
type JobContext struct {
	Destination  *Destination
	Runner       CommandRunner
	Toolchain    string
	BuildRelease bool
	TestRelease  bool

	PopulateFilter  PopulateFilter
	CopyConcurrency int
}
