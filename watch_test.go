package crucible

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestWatcher_DetectsFileWrite(t *testing.T) {
	root := t.TempDir()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ready := make(chan struct{})
	w := NewWatcher(root, nil, 50*time.Millisecond, ready)

	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	select {
	case <-ready:
	case <-time.After(3 * time.Second):
		t.Fatal("watcher never became ready")
	}

	target := filepath.Join(root, "a.txt")
	if err := os.WriteFile(target, []byte("hi"), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}

	select {
	case ev := <-w.Events():
		if ev.Kind != Updated || ev.Path != target {
			t.Errorf("got %+v, want Updated %s", ev, target)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for sync event")
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run returned error: %v", err)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("Run did not exit after cancel")
	}
}

func TestWatcher_IgnoresGlobMatches(t *testing.T) {
	root := t.TempDir()
	os.MkdirAll(filepath.Join(root, "target"), 0755)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ready := make(chan struct{})
	w := NewWatcher(root, nil, 50*time.Millisecond, ready)
	go w.Run(ctx)

	<-ready

	os.WriteFile(filepath.Join(root, "target", "artifact.o"), []byte("x"), 0644)
	os.WriteFile(filepath.Join(root, "keep.txt"), []byte("y"), 0644)

	select {
	case ev := <-w.Events():
		if ev.Path != filepath.Join(root, "keep.txt") {
			t.Errorf("expected only keep.txt to surface, got %+v", ev)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for sync event")
	}
}
