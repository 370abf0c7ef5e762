package crucible

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"
)

// notificationPollInterval is how often relayNotifications checks for newly
// completed jobs. The engine has no native completion-event channel, so
// polling at a short interval is cheaper than adding one just for this.
const notificationPollInterval = 50 * time.Millisecond

// Orchestrator wires together the Watcher, the Engine, and the observer
// Notifier into one supervised unit, the way paintress.go supervises its
// worker goroutines with an errgroup: Run blocks until ctx is cancelled or
// any supervised goroutine returns a non-nil error, at which point every
// other goroutine is torn down too.
type Orchestrator struct {
	root     string
	jc       *JobContext
	state    *State
	watcher  *Watcher
	engine   *Engine
	notifier Notifier
}

// NewOrchestrator constructs an Orchestrator rooted at root. jc must already
// carry a valid Destination; state is the shared state the front-end reads.
// notifier may be nil, in which case no completion notifications are sent.
func NewOrchestrator(root string, jc *JobContext, state *State, ignore []string, debounce time.Duration, notifier Notifier) *Orchestrator {
	if notifier == nil {
		notifier = NopNotifier{}
	}
	return &Orchestrator{
		root:     root,
		jc:       jc,
		state:    state,
		watcher:  NewWatcher(root, ignore, debounce, nil),
		notifier: notifier,
	}
}

// State exposes the shared test state for a front-end to poll via
// Snapshot.
func (o *Orchestrator) State() *State { return o.state }

// Engine exposes the job engine, e.g. for a CLI's pause/resume commands.
func (o *Orchestrator) Engine() *Engine { return o.engine }

// Run starts the engine and the watcher, primes the engine with an initial
// ShadowCopyJob, and relays every coalesced SyncEvent into a FileSyncJob
// until ctx is cancelled. It returns once every supervised goroutine has
// exited.
func (o *Orchestrator) Run(ctx context.Context) error {
	o.engine = NewEngine(ctx, o.jc, o.state)
	o.engine.AddJob(NewJob(ShadowCopyJob))

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return o.watcher.Run(gctx)
	})

	g.Go(func() error {
		for {
			select {
			case ev, ok := <-o.watcher.Events():
				if !ok {
					return nil
				}
				o.engine.AddJob(NewFileSyncJob(ev))
			case <-gctx.Done():
				return nil
			}
		}
	})

	g.Go(func() error {
		return o.relayNotifications(gctx)
	})

	return g.Wait()
}

// relayNotifications watches the engine's completed-job log and fires the
// notifier once for every RunTests job that finishes, whether it passed or
// not — a secondary channel alongside State, for observers who aren't
// polling the front-end directly.
func (o *Orchestrator) relayNotifications(ctx context.Context) error {
	seen := 0
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-o.engine.Done():
			return nil
		default:
		}

		completed := o.engine.Completed()
		for _, job := range completed[seen:] {
			if job.Kind == RunTestsJob {
				summary := RunSummary(o.root, o.state.Snapshot())
				title := "crucible: tests passed"
				if !job.Ok() {
					title = "crucible: tests failed"
				}
				_ = o.notifier.Notify(ctx, title, summary)
			}
		}
		seen = len(completed)

		select {
		case <-ctx.Done():
			return nil
		case <-o.engine.Done():
			return nil
		case <-time.After(notificationPollInterval):
		}
	}
}
