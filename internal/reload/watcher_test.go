package reload

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestPollChangedDebounces(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "effect.so")
	if err := os.WriteFile(path, []byte("v1"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	w, err := New()
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer w.Close()

	if err := w.Watch(path, false); err != nil {
		t.Fatalf("Watch: %v", err)
	}

	if err := os.WriteFile(path, []byte("v2"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	if got := w.PollChanged(); len(got) != 0 {
		t.Errorf("PollChanged() immediately after write = %v, want empty (not yet debounced)", got)
	}

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if changed := w.PollChanged(); len(changed) > 0 {
			return
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatal("PollChanged never reported the change within 2s")
}

func TestWatchRecursiveDetectsNestedFileChange(t *testing.T) {
	root := t.TempDir()
	sub := filepath.Join(root, "effects")
	if err := os.Mkdir(sub, 0o755); err != nil {
		t.Fatalf("Mkdir: %v", err)
	}
	path := filepath.Join(sub, "effect.lua")
	if err := os.WriteFile(path, []byte("v1"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	w, err := New()
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer w.Close()

	if err := w.Watch(root, true); err != nil {
		t.Fatalf("Watch: %v", err)
	}

	if err := os.WriteFile(path, []byte("v2"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if changed := w.PollChanged(); len(changed) > 0 {
			return
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatal("PollChanged never reported the nested change within 2s")
}

func TestWatchRecursiveFollowsNewSubdirectory(t *testing.T) {
	root := t.TempDir()

	w, err := New()
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer w.Close()

	if err := w.Watch(root, true); err != nil {
		t.Fatalf("Watch: %v", err)
	}

	sub := filepath.Join(root, "new")
	if err := os.Mkdir(sub, 0o755); err != nil {
		t.Fatalf("Mkdir: %v", err)
	}

	// Give the watcher goroutine time to notice the new directory and
	// add a watch on it before writing a file underneath.
	time.Sleep(100 * time.Millisecond)

	path := filepath.Join(sub, "effect.lua")
	if err := os.WriteFile(path, []byte("v1"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if changed := w.PollChanged(); len(changed) > 0 {
			return
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatal("PollChanged never reported the new-subdirectory change within 2s")
}

func TestPollChangedEmptyWhenIdle(t *testing.T) {
	w, err := New()
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer w.Close()

	if got := w.PollChanged(); got != nil {
		t.Errorf("PollChanged() on an idle watcher = %v, want nil", got)
	}
}
