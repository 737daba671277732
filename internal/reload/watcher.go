// Package reload watches the filesystem paths backing loaded plugins and
// reports debounced, deduplicated batches of changed paths.
package reload

import (
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	applog "ledctl/internal/log"
)

// DebounceInterval is how long the watcher waits after the last event
// on a path before reporting it, coalescing the burst of writes most
// editors and build tools produce for a single logical change.
const DebounceInterval = 250 * time.Millisecond

// Watcher batches filesystem change events into debounced path sets a
// tick engine can poll without blocking.
type Watcher struct {
	fsw *fsnotify.Watcher

	mu       sync.Mutex
	pending  map[string]time.Time
	recursed map[string]bool // directories watched because they fall under a recursive root
}

// New creates a Watcher with no paths registered yet.
func New() (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &Watcher{
		fsw:      fsw,
		pending:  make(map[string]time.Time),
		recursed: make(map[string]bool),
	}
	go w.collect()
	return w, nil
}

// Watch adds path to the set of watched paths. Paths are canonicalized
// so the same file referenced two different ways is only ever watched
// once. When recursive is true and path is a directory, every
// subdirectory under it is watched too, and a subdirectory created
// later is picked up automatically as its parent's Create event arrives.
func (w *Watcher) Watch(path string, recursive bool) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}

	if !recursive {
		return w.fsw.Add(abs)
	}

	info, err := os.Stat(abs)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return w.fsw.Add(abs)
	}

	w.mu.Lock()
	w.recursed[abs] = true
	w.mu.Unlock()

	return filepath.WalkDir(abs, func(p string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return w.fsw.Add(p)
		}
		return nil
	})
}

func (w *Watcher) collect() {
	for {
		select {
		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			abs, err := filepath.Abs(event.Name)
			if err != nil {
				continue
			}

			if event.Op&fsnotify.Create != 0 {
				w.watchIfNewRecursedDir(abs)
			}

			w.mu.Lock()
			w.pending[abs] = time.Now()
			w.mu.Unlock()
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			applog.Warnf("reload: watch error: %v", err)
		}
	}
}

// watchIfNewRecursedDir adds a watch for abs, and every directory under
// it, when abs is a newly created directory inside a recursively
// watched root.
func (w *Watcher) watchIfNewRecursedDir(abs string) {
	w.mu.Lock()
	underRoot := false
	for root := range w.recursed {
		if abs == root || (len(abs) > len(root) && abs[:len(root)+1] == root+string(filepath.Separator)) {
			underRoot = true
			break
		}
	}
	w.mu.Unlock()
	if !underRoot {
		return
	}

	info, err := os.Stat(abs)
	if err != nil || !info.IsDir() {
		return
	}

	if err := filepath.WalkDir(abs, func(p string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return w.fsw.Add(p)
		}
		return nil
	}); err != nil {
		applog.Warnf("reload: watching new directory %s: %v", abs, err)
	}
}

// PollChanged returns every watched path whose last event is at least
// DebounceInterval old, removing them from the pending set. It never
// blocks and allocates nothing when there is nothing ready, so a tick
// engine can call it every tick.
func (w *Watcher) PollChanged() []string {
	w.mu.Lock()
	defer w.mu.Unlock()

	if len(w.pending) == 0 {
		return nil
	}

	now := time.Now()
	var ready []string
	for path, last := range w.pending {
		if now.Sub(last) >= DebounceInterval {
			ready = append(ready, path)
			delete(w.pending, path)
		}
	}
	return ready
}

// Close stops the underlying filesystem watch.
func (w *Watcher) Close() error {
	return w.fsw.Close()
}
