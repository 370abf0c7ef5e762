package crucible

import "sync"

// Clutch is a pause/resume primitive with two states: released (default)
// and paused. It parks waiters on Pause and wakes them all on Release,
// without requiring add_job-style callers to take any lock themselves.
//
// Grounded on the mutex+condition-variable shape the rest of this package
// uses for short-held state (see engine.go); unlike sync.Cond, a clutch
// exposes no separate lock for callers to forget to hold.
type Clutch struct {
	mu       sync.Mutex
	cond     *sync.Cond
	isPaused bool
}

// NewClutch returns a Clutch in the released state.
func NewClutch() *Clutch {
	c := &Clutch{}
	c.cond = sync.NewCond(&c.mu)
	return c
}

// Pause marks the clutch paused. Callers already blocked in WaitForRelease
// continue to block; new callers block too.
func (c *Clutch) Pause() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.isPaused = true
}

// Release marks the clutch released and wakes every waiter.
func (c *Clutch) Release() {
	c.mu.Lock()
	c.isPaused = false
	c.mu.Unlock()
	c.cond.Broadcast()
}

// WaitForRelease blocks while the clutch is paused and returns immediately
// once (or if already) released.
func (c *Clutch) WaitForRelease() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for c.isPaused {
		c.cond.Wait()
	}
}

// IsPaused reports the current state. Intended for diagnostics only — the
// engine should use WaitForRelease for control flow, not poll this.
func (c *Clutch) IsPaused() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.isPaused
}
