package config

import (
	"context"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/periplon/metis/pkg/logger"
)

// fileChangeDebounceDelay coalesces the burst of fsnotify events a single
// save can produce (write + chmod, or remove + create for editors that
// write via a temp file and rename) into one callback invocation.
const fileChangeDebounceDelay = 50 * time.Millisecond

// Watcher watches one or more files for changes and fans out notifications
// to registered callbacks, waiting for any in-flight callback to finish
// before Close returns.
type Watcher struct {
	fsw *fsnotify.Watcher

	mu       sync.Mutex
	handlers []func()
	closed   bool

	wg sync.WaitGroup
}

// NewWatcher creates a Watcher backed by fsnotify. Watch must be called
// separately for each path of interest.
func NewWatcher() (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	return &Watcher{fsw: fsw}, nil
}

// OnChange registers handler to run (in its own goroutine, tracked for
// Close to wait on) whenever a watched path changes.
func (w *Watcher) OnChange(handler func()) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.handlers = append(w.handlers, handler)
}

// Watch begins watching path for changes until ctx is canceled or Close is
// called. Safe to call before any OnChange registration.
func (w *Watcher) Watch(ctx context.Context, path string) error {
	if err := w.fsw.Add(path); err != nil {
		return err
	}
	go w.run(ctx, path)
	return nil
}

func (w *Watcher) run(ctx context.Context, path string) {
	var timer *time.Timer
	var timerMu sync.Mutex
	fire := func() {
		w.mu.Lock()
		if w.closed {
			w.mu.Unlock()
			return
		}
		handlers := make([]func(), len(w.handlers))
		copy(handlers, w.handlers)
		w.mu.Unlock()
		for _, h := range handlers {
			h := h
			w.wg.Add(1)
			go func() {
				defer w.wg.Done()
				h()
			}()
		}
	}
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if event.Name != path {
				continue
			}
			timerMu.Lock()
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(fileChangeDebounceDelay, fire)
			timerMu.Unlock()
		case _, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			logger.Warn("config watcher error", "path", path)
		}
	}
}

// Close stops watching and waits for any already-dispatched callback to
// finish. Safe to call multiple times.
func (w *Watcher) Close() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true
	w.mu.Unlock()
	err := w.fsw.Close()
	w.wg.Wait()
	return err
}
