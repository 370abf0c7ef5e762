package crucible

import (
	"context"
	"errors"
	"testing"
)

type doctorFakeRunner struct {
	out string
	err error
}

func (r *doctorFakeRunner) Run(ctx context.Context, dir, name string, args ...string) (string, error) {
	return r.out, r.err
}

func TestRunDoctor_ReportsToolchainVersion(t *testing.T) {
	runner := &doctorFakeRunner{out: "cargo 1.80.0"}
	checks := RunDoctor(context.Background(), "cargo", runner)

	var found bool
	for _, c := range checks {
		if c.Name == "cargo --version" {
			found = true
			if !c.Ok || c.Detail != "cargo 1.80.0" {
				t.Fatalf("unexpected check: %+v", c)
			}
		}
	}
	if !found {
		t.Fatalf("expected a cargo --version check, got %+v", checks)
	}
}

func TestRunDoctor_ToolchainFailureIsReportedNotFatal(t *testing.T) {
	runner := &doctorFakeRunner{err: errors.New("no such file")}
	checks := RunDoctor(context.Background(), "cargo", runner)

	for _, c := range checks {
		if c.Name == "cargo --version" && c.Ok {
			t.Fatalf("expected failing version check, got Ok")
		}
	}
}

func TestSummarizeDoctor_FormatsOkAndFail(t *testing.T) {
	checks := []DoctorCheck{
		{Name: "cargo", Ok: true, Detail: "/usr/bin/cargo"},
		{Name: "git", Ok: false, Detail: "not found on PATH"},
	}
	out := SummarizeDoctor(checks)
	if len(out) == 0 {
		t.Fatalf("expected non-empty summary")
	}
}
