package assets

import (
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/renderframe/corepipeline/core"
)

// Watcher wraps fsnotify exactly as the teacher's AssetManager.start()
// loop does (recursive directory watch, a done channel, event/error
// channels), but is repurposed from asset *decoding* (out of scope for
// this core) to driving the already-specified commit/free protocol in
// dev builds: a file write re-commits the matching handle so a running
// process picks up on-disk changes without restarting.
type Watcher struct {
	fsw  *fsnotify.Watcher
	done chan struct{}

	mu         sync.Mutex
	byPath     map[string]Handle
	closed     bool
}

// NewWatcher creates a Watcher with no paths registered yet.
func NewWatcher() (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	return &Watcher{
		fsw:    fsw,
		done:   make(chan struct{}),
		byPath: make(map[string]Handle),
	}, nil
}

// Track associates path with handle in table, and begins recursively
// watching path's directory tree.
func (w *Watcher) Track(path string, handle Handle) error {
	w.mu.Lock()
	w.byPath[path] = handle
	w.mu.Unlock()
	return w.watchRecursive(path)
}

func (w *Watcher) watchRecursive(root string) error {
	info, err := os.Stat(root)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return w.fsw.Add(root)
	}
	return filepath.Walk(root, func(p string, fi os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if fi.IsDir() {
			return w.fsw.Add(p)
		}
		return nil
	})
}

// Run drains fsnotify events, calling update+commit on table for every
// write event whose path is tracked, until Close is called. Intended to
// run on its own goroutine.
func (w *Watcher) Run(table *Table, op Op, load func(path string) (any, error)) {
	for {
		select {
		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			w.mu.Lock()
			handle, tracked := w.byPath[event.Name]
			w.mu.Unlock()
			if !tracked {
				continue
			}
			data, err := load(event.Name)
			if err != nil {
				table.Error(handle, err)
				continue
			}
			if err := table.Update(handle, op, data); err != nil {
				core.LogWarn("asset watcher: update failed for %s: %v", event.Name, err)
				continue
			}
			if err := table.Commit(handle); err != nil {
				core.LogWarn("asset watcher: commit failed for %s: %v", event.Name, err)
			}
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			core.LogError("asset watcher: %v", err)
		case <-w.done:
			return
		}
	}
}

// Close stops the watcher and releases its fsnotify handle.
func (w *Watcher) Close() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true
	w.mu.Unlock()

	close(w.done)
	return w.fsw.Close()
}
