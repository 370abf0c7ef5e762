package crucible

import (
	"context"
	"sync/atomic"
	"time"
)

// JobKind is the closed set of operations the engine understands. A new
// kind requires a matching case in every switch below and in the
// follow-up truth table in engine.go — this is deliberate: the engine
// dispatches on kind rather than on open polymorphism.
type JobKind int

const (
	ShadowCopyJob JobKind = iota
	FileSyncJob
	BuildWorkspaceJob
	BuildAllTestsJob
	ListAllTestsJob
	RunTestsJob
)

func (k JobKind) String() string {
	switch k {
	case ShadowCopyJob:
		return "ShadowCopy"
	case FileSyncJob:
		return "FileSync"
	case BuildWorkspaceJob:
		return "BuildWorkspace"
	case BuildAllTestsJob:
		return "BuildAllTests"
	case ListAllTestsJob:
		return "ListAllTests"
	case RunTestsJob:
		return "RunTests"
	default:
		return "Unknown"
	}
}

// jobIDCounter is the process-wide monotonic job id generator — the one
// piece of genuinely global mutable state in this package.
var jobIDCounter atomic.Int64

func nextJobID() int64 {
	return jobIDCounter.Add(1)
}

// Job is a value carrying one operation's inputs and, after execution, its
// captured outcome. The kind-specific input for FileSync is SyncEvent;
// every other kind needs no input beyond the shared JobContext it runs
// against.
type Job struct {
	ID   int64
	Kind JobKind

	CreatedAt  time.Time
	StartedAt  time.Time
	FinishedAt time.Time

	SyncEvent *SyncEvent // only set for FileSyncJob

	Output      string           // captured stdout+stderr, or parser input for ListAllTests
	Inventories []CrateInventory // populated on a successful ListAllTests
	Err         error            // nil means Ok; non-nil carries the error message
}

// NewJob allocates a job with a fresh id and CreatedAt timestamp. It is not
// yet queued — the caller (Engine.AddJob) is responsible for that.
func NewJob(kind JobKind) *Job {
	return &Job{
		ID:        nextJobID(),
		Kind:      kind,
		CreatedAt: time.Now(),
	}
}

// NewFileSyncJob constructs a FileSync job carrying one coalesced event.
func NewFileSyncJob(ev SyncEvent) *Job {
	j := NewJob(FileSyncJob)
	j.SyncEvent = &ev
	return j
}

// Ok reports whether the job completed successfully. Meaningless before
// FinishedAt is set.
func (j *Job) Ok() bool { return j.Err == nil }

// execute runs the job's contract against jc and records Output/Err and the
// Started/Finished timestamps. It never panics on a job-level failure —
// failures are reported via Err; errors do not unwind across goroutine
// boundaries.
func (j *Job) execute(ctx context.Context, jc *JobContext) {
	j.StartedAt = time.Now()

	ctx, span := tracer.Start(ctx, "job."+j.Kind.String())
	defer span.End()

	switch j.Kind {
	case ShadowCopyJob:
		j.Err = executeShadowCopy(ctx, jc)
	case FileSyncJob:
		j.Err = executeFileSync(ctx, jc, j.SyncEvent)
	case BuildWorkspaceJob:
		j.Output, j.Err = executeToolchain(ctx, jc, BuildWorkspaceArgs(jc.BuildRelease))
	case BuildAllTestsJob:
		j.Output, j.Err = executeToolchain(ctx, jc, BuildAllTestsArgs(jc.BuildRelease))
	case ListAllTestsJob:
		j.Output, j.Inventories, j.Err = executeListAllTests(ctx, jc)
	case RunTestsJob:
		j.Output, j.Err = executeToolchain(ctx, jc, RunTestsArgs())
	}

	j.FinishedAt = time.Now()
}

func executeShadowCopy(ctx context.Context, jc *JobContext) error {
	if !jc.Destination.IsCopying() {
		return nil
	}
	// Unconditionally Ok: individual file failures are logged by Populate
	// and tolerated — a partial mirror is still useful.
	_ = jc.Destination.Populate(jc.PopulateFilter, jc.CopyConcurrency)
	return nil
}

func executeFileSync(ctx context.Context, jc *JobContext, ev *SyncEvent) error {
	if !jc.Destination.IsCopying() {
		return nil
	}
	var ok bool
	switch ev.Kind {
	case Updated:
		ok = jc.Destination.CopyFile(ev.Path)
	case Removed:
		ok = jc.Destination.Remove(ev.Path)
	}
	if !ok {
		return errFileSyncFailed
	}
	return nil
}

func executeListAllTests(ctx context.Context, jc *JobContext) (string, []CrateInventory, error) {
	output, err := jc.Runner.Run(ctx, jc.Destination.Cwd(), jc.Toolchain, ListAllTestsArgs(jc.TestRelease)...)
	if err != nil {
		return output, nil, err
	}
	inventories, perr := ParseListing(output)
	if perr != nil {
		return output, nil, perr
	}
	return output, inventories, nil
}

func executeToolchain(ctx context.Context, jc *JobContext, args []string) (string, error) {
	return jc.Runner.Run(ctx, jc.Destination.Cwd(), jc.Toolchain, args...)
}
