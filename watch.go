package crucible

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is the watcher-level debounce window: batches
// of raw filesystem events arriving within this window are delivered to
// the coalescer as a single callback invocation.
const DefaultDebounce = 500 * time.Millisecond

// Watcher turns raw filesystem notifications under root into a debounced,
// coalesced stream of SyncEvents, the way flag_watcher.go and
// inbox_watcher.go turn fsnotify events into domain callbacks: a watcher
// goroutine owns the fsnotify.Watcher and is torn down on ctx.Done.
type Watcher struct {
	root     string
	ignore   []string
	debounce time.Duration
	events   chan SyncEvent

	// ready, if non-nil, receives a value once the watcher has finished
	// its initial directory walk and is listening — lets tests
	// synchronize without a time.Sleep.
	ready chan<- struct{}
}

// NewWatcher constructs a Watcher rooted at root. ignore is the glob-set
// applied before any event reaches the coalescer; pass nil to use
// DefaultIgnoreGlobs. debounce <= 0 selects DefaultDebounce.
func NewWatcher(root string, ignore []string, debounce time.Duration, ready chan<- struct{}) *Watcher {
	if ignore == nil {
		ignore = DefaultIgnoreGlobs
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &Watcher{
		root:     root,
		ignore:   ignore,
		debounce: debounce,
		events:   make(chan SyncEvent, 64),
		ready:    ready,
	}
}

// Events returns the channel of coalesced SyncEvents. Closed when Run
// returns.
func (w *Watcher) Events() <-chan SyncEvent { return w.events }

// Run watches root (and every directory created beneath it) until ctx is
// cancelled. It is intended to be run under an errgroup alongside the
// engine's relay loop, the way paintress.go supervises its worker
// goroutines.
func (w *Watcher) Run(ctx context.Context) error {
	defer close(w.events)

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer fw.Close()

	if err := addRecursive(fw, w.root, w.ignore); err != nil {
		return err
	}

	if w.ready != nil {
		w.ready <- struct{}{}
	}

	var (
		mu      sync.Mutex
		pending []RawEvent
		timer   *time.Timer
	)

	flush := func() {
		mu.Lock()
		batch := pending
		pending = nil
		mu.Unlock()
		if len(batch) == 0 {
			return
		}
		for _, ev := range Coalesce(batch) {
			select {
			case w.events <- ev:
			case <-ctx.Done():
			}
		}
	}

	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			flush()
			return nil

		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			rel, relErr := filepath.Rel(w.root, ev.Name)
			if relErr != nil {
				continue
			}
			if ignoreMatch(rel, w.ignore) {
				continue
			}

			if ev.Op&fsnotify.Create != 0 {
				if info, statErr := os.Stat(ev.Name); statErr == nil && info.IsDir() {
					addRecursive(fw, ev.Name, w.ignore)
				}
			}

			mu.Lock()
			pending = append(pending, RawEvent{Path: ev.Name, Op: toRawOp(ev.Op)})
			mu.Unlock()

			if timer == nil {
				timer = time.AfterFunc(w.debounce, flush)
			} else {
				timer.Reset(w.debounce)
			}

		case _, ok := <-fw.Errors:
			if !ok {
				return nil
			}
		}
	}
}

func toRawOp(op fsnotify.Op) RawOp {
	var r RawOp
	if op&fsnotify.Create != 0 {
		r |= OpCreate
	}
	if op&fsnotify.Write != 0 {
		r |= OpWrite
	}
	if op&fsnotify.Rename != 0 {
		r |= OpRename
	}
	if op&fsnotify.Chmod != 0 {
		r |= OpChmod
	}
	if op&fsnotify.Remove != 0 {
		r |= OpRemove
	}
	return r
}

// addRecursive adds root and every non-ignored subdirectory to fw.
// fsnotify watches are not recursive; the initial run and every
// subsequent directory Create event call this to keep coverage complete.
func addRecursive(fw *fsnotify.Watcher, root string, ignore []string) error {
	return filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if path != root {
			rel, relErr := filepath.Rel(root, path)
			if relErr == nil && ignoreMatch(rel, ignore) {
				return filepath.SkipDir
			}
		}
		return fw.Add(path)
	})
}
