// Package watch observes artifacts appearing in target directories while a
// test command runs. It uses fsnotify as the primary mechanism and falls back
// to walking the targets on a timer when fsnotify is unavailable.
package watch

import (
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
)

// ///////////////////////////////////////////////
// Watcher
// ///////////////////////////////////////////////

// Watcher records every regular file created or written under a set of
// directories, including subdirectories created after it starts.
type Watcher struct {
	// dirs are the absolute target directories being observed.
	dirs []string
	// log receives a debug line per new artifact.
	log *slog.Logger
	// events delivers a signal each time a new artifact is seen.
	// The channel is buffered to 1 so bursts coalesce.
	events chan struct{}
	// done is closed by [Watcher.Close] to signal goroutines to exit.
	done chan struct{}
	// wg tracks the watch or poll goroutine so Close can wait for it.
	wg sync.WaitGroup

	// mu guards fsw and seen.
	mu sync.Mutex
	// fsw is the underlying fsnotify watcher; nil when polling.
	fsw *fsnotify.Watcher
	// seen holds every artifact path recorded so far.
	seen map[string]struct{}

	// once ensures [Watcher.Close] is idempotent.
	once sync.Once
	// polling is true when the watcher has fallen back to walking the dirs.
	polling atomic.Bool
	// pollInterval is the duration between walks in polling mode.
	pollInterval time.Duration
}

// Options configures a Watcher.
type Options struct {
	// Logger receives artifact lines at debug level. Nil means slog.Default().
	Logger *slog.Logger
	// PollInterval is used in polling mode. Zero means 2s.
	PollInterval time.Duration
	// ForcePolling skips fsnotify entirely.
	ForcePolling bool
}

// New starts watching dirs. Missing directories are skipped rather than
// treated as errors; setup normally creates them before New is called.
func New(dirs []string, opts Options) (*Watcher, error) {
	w := &Watcher{
		dirs:         dirs,
		log:          opts.Logger,
		events:       make(chan struct{}, 1),
		done:         make(chan struct{}),
		seen:         make(map[string]struct{}),
		pollInterval: opts.PollInterval,
	}
	if w.log == nil {
		w.log = slog.Default()
	}
	if w.pollInterval <= 0 {
		w.pollInterval = 2 * time.Second
	}

	if opts.ForcePolling {
		w.startPolling()
		return w, nil
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		w.log.Info("fsnotify unavailable, falling back to polling", "error", err)
		w.startPolling()
		return w, nil
	}
	w.fsw = fsw

	for _, dir := range dirs {
		if err := w.addTree(dir); err != nil {
			w.log.Info("cannot watch directory, falling back to polling", "path", dir, "error", err)
			fsw.Close()
			w.fsw = nil
			w.startPolling()
			return w, nil
		}
	}

	w.wg.Add(1)
	go w.watch()
	return w, nil
}

// addTree registers dir and every directory below it with fsnotify, and
// records files already present in directories not seen before.
func (w *Watcher) addTree(dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == dir && os.IsNotExist(err) {
				return nil
			}
			return err
		}
		if d.IsDir() {
			return w.fsw.Add(path)
		}
		if d.Type().IsRegular() {
			w.record(path)
		}
		return nil
	})
}

// watch loops over fsnotify events. New directories are added to the
// watcher; new or written regular files are recorded. If fsnotify reports an
// error, watch closes the native watcher and falls back to polling.
func (w *Watcher) watch() {
	defer w.wg.Done()
	events, errs := w.fsw.Events, w.fsw.Errors
	for {
		select {
		case <-w.done:
			return
		case event, ok := <-events:
			if !ok {
				return
			}
			if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
				continue
			}
			info, err := os.Lstat(event.Name)
			if err != nil {
				continue
			}
			switch {
			case info.IsDir():
				w.mu.Lock()
				if w.fsw != nil {
					if err := w.addTree(event.Name); err != nil {
						w.log.Debug("cannot watch new directory", "path", event.Name, "error", err)
					}
				}
				w.mu.Unlock()
			case info.Mode().IsRegular():
				w.mu.Lock()
				w.record(event.Name)
				w.mu.Unlock()
			}
		case err, ok := <-errs:
			if !ok {
				return
			}
			w.log.Info("fsnotify error, switching to polling", "error", err)
			w.mu.Lock()
			if w.fsw != nil {
				w.fsw.Close()
				w.fsw = nil
			}
			w.mu.Unlock()
			w.polling.Store(true)
			w.wg.Add(1)
			go w.poll()
			return
		}
	}
}

func (w *Watcher) startPolling() {
	w.polling.Store(true)
	w.mu.Lock()
	w.scan()
	w.mu.Unlock()
	w.wg.Add(1)
	go w.poll()
}

// poll walks every target on a timer and records files not seen before.
func (w *Watcher) poll() {
	defer w.wg.Done()
	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-w.done:
			return
		case <-ticker.C:
			w.mu.Lock()
			w.scan()
			w.mu.Unlock()
		}
	}
}

// scan walks the targets. Callers hold w.mu.
func (w *Watcher) scan() {
	for _, dir := range w.dirs {
		filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return nil
			}
			if d.Type().IsRegular() {
				w.record(path)
			}
			return nil
		})
	}
}

// record adds path to the seen set, logging and signalling on first sight.
// Callers hold w.mu.
func (w *Watcher) record(path string) {
	if _, ok := w.seen[path]; ok {
		return
	}
	w.seen[path] = struct{}{}
	w.log.Debug("new artifact", "file", w.rel(path))
	w.notify()
}

// rel shortens path to be relative to the target's parent so the log shows
// "test-results/run-1/trace.zip" rather than a full host path.
func (w *Watcher) rel(path string) string {
	for _, dir := range w.dirs {
		if r, err := filepath.Rel(filepath.Dir(dir), path); err == nil && filepath.IsLocal(r) {
			return filepath.ToSlash(r)
		}
	}
	return path
}

// notify sends a single signal to the events channel. If a signal is already
// pending the call is a no-op, coalescing rapid successive changes.
func (w *Watcher) notify() {
	select {
	case w.events <- struct{}{}:
	default:
	}
}

// Count returns the number of distinct artifacts recorded so far.
func (w *Watcher) Count() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.seen)
}

// Polling reports whether the watcher is walking the targets instead of
// using fsnotify.
func (w *Watcher) Polling() bool {
	return w.polling.Load()
}

// changed returns a channel that receives a signal when a new artifact is
// seen.
func (w *Watcher) changed() <-chan struct{} {
	return w.events
}

// Close stops the watcher, waits for its goroutine, and releases resources.
func (w *Watcher) Close() error {
	var err error
	w.once.Do(func() {
		close(w.done)
		w.mu.Lock()
		if w.fsw != nil {
			if closeErr := w.fsw.Close(); closeErr != nil {
				err = fmt.Errorf("closing fsnotify watcher: %w", closeErr)
			}
			w.fsw = nil
		}
		w.mu.Unlock()
		w.wg.Wait()
	})
	return err
}
