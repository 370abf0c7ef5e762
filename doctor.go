package crucible

import (
	"context"
	"fmt"
	"os/exec"
)

// DoctorCheck is the outcome of probing one external dependency the
// orchestrator relies on: the toolchain binary on PATH, git on PATH, or the
// toolchain's --version output.
type DoctorCheck struct {
	Name    string
	Ok      bool
	Detail  string
	Err     error
}

// RunDoctor probes every external collaborator crucible needs and reports
// one DoctorCheck per collaborator, in a fixed order. It never returns an
// error itself — a failed probe is represented as DoctorCheck.Ok == false.
func RunDoctor(ctx context.Context, toolchain string, runner CommandRunner) []DoctorCheck {
	if toolchain == "" {
		toolchain = DefaultToolchain
	}
	checks := []DoctorCheck{
		checkBinaryOnPath(toolchain),
		checkBinaryOnPath("git"),
		checkToolchainVersion(ctx, toolchain, runner),
	}
	return checks
}

func checkBinaryOnPath(name string) DoctorCheck {
	path, err := exec.LookPath(name)
	if err != nil {
		return DoctorCheck{Name: name, Ok: false, Detail: "not found on PATH", Err: err}
	}
	return DoctorCheck{Name: name, Ok: true, Detail: path}
}

func checkToolchainVersion(ctx context.Context, toolchain string, runner CommandRunner) DoctorCheck {
	out, err := runner.Run(ctx, ".", toolchain, "--version")
	if err != nil {
		return DoctorCheck{Name: toolchain + " --version", Ok: false, Detail: out, Err: err}
	}
	return DoctorCheck{Name: toolchain + " --version", Ok: true, Detail: out}
}

// SummarizeDoctor formats the checks as the multi-line report `crucible doctor`
// prints: one line per check, OK/FAIL prefix, detail trailing.
func SummarizeDoctor(checks []DoctorCheck) string {
	summary := ""
	for _, c := range checks {
		status := "OK  "
		if !c.Ok {
			status = "FAIL"
		}
		summary += fmt.Sprintf("[%s] %s: %s\n", status, c.Name, c.Detail)
	}
	return summary
}
