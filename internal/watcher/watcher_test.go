package watcher_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/dshills/keyscope/internal/watcher"
)

func newWatcher(t *testing.T, opts ...watcher.Option) *watcher.Watcher {
	t.Helper()
	w, err := watcher.New(opts...)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	t.Cleanup(func() { _ = w.Close() })
	return w
}

func waitEvent(t *testing.T, w *watcher.Watcher) watcher.Event {
	t.Helper()
	select {
	case ev := <-w.Events():
		return ev
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for an event")
	}
	return watcher.Event{}
}

func TestReportsWatchedFileOnly(t *testing.T) {
	dir := t.TempDir()
	rc := filepath.Join(dir, "rc.kak")
	other := filepath.Join(dir, "other.kak")
	if err := os.WriteFile(rc, []byte("nop\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	w := newWatcher(t, watcher.WithDebounce(20*time.Millisecond))
	if err := w.Add(rc); err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	if err := os.WriteFile(other, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(rc, []byte("echo changed\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	ev := waitEvent(t, w)
	if ev.Path != rc {
		t.Errorf("expected event for %s, got %s", rc, ev.Path)
	}
	if ev.Op&watcher.OpWrite == 0 {
		t.Errorf("expected a write, got %s", ev.Op)
	}
}

func TestCoalescesRapidWrites(t *testing.T) {
	dir := t.TempDir()
	rc := filepath.Join(dir, "rc.kak")

	w := newWatcher(t, watcher.WithDebounce(200*time.Millisecond))
	if err := w.Add(rc); err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	for range 3 {
		if err := os.WriteFile(rc, []byte("nop\n"), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	ev := waitEvent(t, w)
	if ev.Op&watcher.OpCreate == 0 {
		t.Errorf("expected the create to be kept, got %s", ev.Op)
	}
	select {
	case extra := <-w.Events():
		t.Errorf("unexpected second event %+v", extra)
	case <-time.After(400 * time.Millisecond):
	}
}

func TestAddRemove(t *testing.T) {
	dir := t.TempDir()
	w := newWatcher(t)

	if err := w.Add(filepath.Join(dir, "missing", "rc.kak")); err == nil {
		t.Error("expected an error for a missing directory")
	}

	a := filepath.Join(dir, "a.kak")
	b := filepath.Join(dir, "b.kak")
	for _, p := range []string{a, b, a} {
		if err := w.Add(p); err != nil {
			t.Fatalf("Add(%s) failed: %v", p, err)
		}
	}
	if got := w.Files(); len(got) != 2 || got[0] != a || got[1] != b {
		t.Errorf("unexpected files %v", got)
	}

	if err := w.Remove(a); err != nil {
		t.Fatalf("Remove failed: %v", err)
	}
	if err := w.Remove(a); !errors.Is(err, watcher.ErrNotWatching) {
		t.Errorf("expected ErrNotWatching, got %v", err)
	}
}

func TestClose(t *testing.T) {
	w, err := watcher.New()
	if err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Errorf("second Close failed: %v", err)
	}
	if err := w.Add(filepath.Join(t.TempDir(), "rc.kak")); !errors.Is(err, watcher.ErrClosed) {
		t.Errorf("expected ErrClosed, got %v", err)
	}
}
