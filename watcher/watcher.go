// Package watcher polls a drop folder for Ableton project files and feeds
// changes through a single-worker import queue.
package watcher

import (
	"context"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// ImportFunc processes a new or modified .als file.
type ImportFunc func(alsPath string) error

// RemoveFunc handles an .als file that disappeared from the drop folder.
type RemoveFunc func(alsPath string)

// Watcher scans a directory on an interval and queues project imports.
// Imports run on a single goroutine so concurrent asset generation never
// targets the same project.
type Watcher struct {
	dir      string
	interval time.Duration
	importFn ImportFunc
	removeFn RemoveFunc

	mu        sync.Mutex
	seen      map[string]time.Time
	queue     []string
	queued    map[string]bool
	isRunning bool
}

// New creates a watcher over dir. removeFn may be nil when deletions do not
// matter to the caller.
func New(dir string, interval time.Duration, importFn ImportFunc, removeFn RemoveFunc) *Watcher {
	return &Watcher{
		dir:      dir,
		interval: interval,
		importFn: importFn,
		removeFn: removeFn,
		seen:     make(map[string]time.Time),
		queued:   make(map[string]bool),
	}
}

// Run scans immediately, then on every tick until ctx is cancelled.
func (w *Watcher) Run(ctx context.Context) {
	w.Scan()

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.Scan()
		}
	}
}

// Scan walks the drop folder once, queueing imports for new or modified
// .als files and reporting deleted ones.
func (w *Watcher) Scan() {
	found := make(map[string]time.Time)

	filepath.WalkDir(w.dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil // unreadable entries are skipped, not fatal
		}
		if d.IsDir() || !strings.HasSuffix(strings.ToLower(d.Name()), ".als") {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return nil
		}
		found[path] = info.ModTime()
		return nil
	})

	w.mu.Lock()
	var toImport []string
	for path, mtime := range found {
		if prev, ok := w.seen[path]; !ok || mtime.After(prev) {
			toImport = append(toImport, path)
		}
		w.seen[path] = mtime
	}

	var removed []string
	for path := range w.seen {
		if _, ok := found[path]; !ok {
			removed = append(removed, path)
			delete(w.seen, path)
		}
	}
	w.mu.Unlock()

	for _, path := range toImport {
		w.Enqueue(path)
	}
	if w.removeFn != nil {
		for _, path := range removed {
			w.removeFn(path)
		}
	}
}

// Enqueue adds a project file to the import queue, starting the processor
// if it is idle. Returns false when the file is already queued.
func (w *Watcher) Enqueue(alsPath string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.queued[alsPath] {
		return false
	}

	w.queue = append(w.queue, alsPath)
	w.queued[alsPath] = true

	if !w.isRunning {
		w.isRunning = true
		go w.processQueue()
	}
	return true
}

func (w *Watcher) processQueue() {
	for {
		w.mu.Lock()
		if len(w.queue) == 0 {
			w.isRunning = false
			w.mu.Unlock()
			return
		}
		alsPath := w.queue[0]
		w.queue = w.queue[1:]
		delete(w.queued, alsPath)
		w.mu.Unlock()

		if err := w.importFn(alsPath); err != nil {
			fmt.Printf("Error importing %s: %v\n", alsPath, err)
		}
	}
}

// QueueStatus returns the number of pending imports and whether the
// processor is running.
func (w *Watcher) QueueStatus() (int, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.queue), w.isRunning
}
