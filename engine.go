package crucible

import (
	"context"
	"sync"
	"sync/atomic"
)

// Engine owns a pending job queue, one executing slot, a completed-job
// log, and the clutch that pauses/resumes its executor loop. It runs one
// dedicated executor goroutine for its entire lifetime; callers interact
// with it only through AddJob, Pause, Resume and the read-only accessors.
type Engine struct {
	jc    *JobContext
	state *State

	clutch *Clutch

	mu        sync.Mutex
	pending   []*Job
	executing *Job
	completed []*Job
	workAvail *sync.Cond

	buildRequired atomic.Bool
	listRequired  atomic.Bool
	runRequired   atomic.Bool

	done chan struct{}
}

// NewEngine constructs an Engine and starts its executor goroutine. The
// goroutine runs until ctx is cancelled.
func NewEngine(ctx context.Context, jc *JobContext, state *State) *Engine {
	e := &Engine{
		jc:     jc,
		state:  state,
		clutch: NewClutch(),
		done:   make(chan struct{}),
	}
	e.workAvail = sync.NewCond(&e.mu)

	go e.run(ctx)
	return e
}

// AddJob appends job to the pending queue and wakes the executor if it is
// parked waiting for work. Thread-safe, non-blocking.
func (e *Engine) AddJob(job *Job) {
	e.mu.Lock()
	e.pending = append(e.pending, job)
	e.mu.Unlock()
	e.workAvail.Signal()
}

// Pause parks the executor between jobs: an in-flight job always runs to
// completion first.
func (e *Engine) Pause() { e.clutch.Pause() }

// Resume releases a paused executor.
func (e *Engine) Resume() { e.clutch.Release() }

// Done is closed once the executor goroutine has exited (ctx cancelled).
func (e *Engine) Done() <-chan struct{} { return e.done }

// Completed returns a snapshot of the completed-job log, oldest first.
func (e *Engine) Completed() []*Job {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]*Job, len(e.completed))
	copy(out, e.completed)
	return out
}

// Pending returns the number of jobs currently queued, for diagnostics.
func (e *Engine) Pending() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.pending)
}

func (e *Engine) run(ctx context.Context) {
	defer close(e.done)

	// Release the clutch and wake the condition variable when ctx is
	// cancelled so a paused or parked executor notices shutdown instead of
	// blocking forever. The broadcast is made under e.mu so it cannot fall
	// between popPending's ctx check and its Wait.
	stop := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			e.clutch.Release()
			e.mu.Lock()
			e.workAvail.Broadcast()
			e.mu.Unlock()
		case <-stop:
		}
	}()
	defer close(stop)

	for {
		if ctx.Err() != nil {
			return
		}

		e.clutch.WaitForRelease()
		if ctx.Err() != nil {
			return
		}

		job := e.popPending(ctx)
		if job == nil {
			return // ctx cancelled while parked
		}

		// A Pause that arrived while parked on an empty queue holds the
		// popped job here until Resume.
		e.clutch.WaitForRelease()
		if ctx.Err() != nil {
			return
		}

		job.execute(ctx, e.jc)

		e.applyFollowUp(job)
		e.logCompleted(job)
		e.scheduleNext()
	}
}

// popPending moves the front of the pending queue into the executing
// slot, parking on the work-available condition if the queue is empty.
// Returns nil if ctx was cancelled while parked.
func (e *Engine) popPending(ctx context.Context) *Job {
	e.mu.Lock()
	defer e.mu.Unlock()

	for len(e.pending) == 0 {
		if ctx.Err() != nil {
			return nil
		}
		e.workAvail.Wait()
	}
	if ctx.Err() != nil {
		return nil
	}

	job := e.pending[0]
	e.pending = e.pending[1:]
	e.executing = job
	return job
}

// applyFollowUp applies the per-kind follow-up truth table to the three
// required flags.
func (e *Engine) applyFollowUp(job *Job) {
	ok := job.Ok()
	switch job.Kind {
	case ShadowCopyJob:
		e.buildRequired.Store(ok)
	case FileSyncJob:
		if ok {
			e.buildRequired.Store(true)
		}
	case BuildAllTestsJob:
		e.buildRequired.Store(false)
		if ok {
			e.listRequired.Store(true)
		}
	case BuildWorkspaceJob:
		// no flag change either way
	case ListAllTestsJob:
		e.listRequired.Store(false)
		if ok {
			e.runRequired.Store(true)
			e.state.Apply(job.Inventories)
		}
	case RunTestsJob:
		e.runRequired.Store(false)
	}
}

func (e *Engine) logCompleted(job *Job) {
	e.mu.Lock()
	e.executing = nil
	e.completed = append(e.completed, job)
	e.mu.Unlock()

	if job.Ok() {
		LogJob("%s (#%d) completed", job.Kind, job.ID)
	} else {
		LogError("%s (#%d) failed: %v", job.Kind, job.ID, job.Err)
	}
}

// scheduleNext consults the three required flags in priority order
// (build -> list -> run) and enqueues at most one follow-up job, but only
// when the pending queue is currently empty — an externally added job
// always takes priority over a synthesised one.
func (e *Engine) scheduleNext() {
	e.mu.Lock()
	empty := len(e.pending) == 0
	e.mu.Unlock()
	if !empty {
		return
	}

	var next *Job
	switch {
	case e.buildRequired.Load():
		next = NewJob(BuildAllTestsJob)
	case e.listRequired.Load():
		next = NewJob(ListAllTestsJob)
	case e.runRequired.Load():
		next = NewJob(RunTestsJob)
	default:
		return
	}
	e.AddJob(next)
}
