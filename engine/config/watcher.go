package config

import (
	"context"
	"sync/atomic"

	"github.com/periplon/metis/pkg/config"
	"github.com/periplon/metis/pkg/logger"
)

// SnapshotWatcher hot-reloads a Snapshot on manifest/fragment file changes,
// publishing each new Snapshot via an atomic pointer swap (spec.md §5's
// shared-state discipline) so concurrent readers never observe a partially
// loaded snapshot.
type SnapshotWatcher struct {
	loader       *Loader
	manifestPath string
	current      atomic.Pointer[Snapshot]
	fsw          *config.Watcher
}

// NewSnapshotWatcher loads an initial Snapshot and wires filesystem watches
// for the manifest plus every autoload-discovered fragment file.
func NewSnapshotWatcher(ctx context.Context, loader *Loader, manifestPath string) (*SnapshotWatcher, error) {
	snap, err := loader.Load(ctx, manifestPath)
	if err != nil {
		return nil, err
	}
	w := &SnapshotWatcher{loader: loader, manifestPath: manifestPath}
	w.current.Store(snap)

	fsw, err := config.NewWatcher()
	if err != nil {
		return nil, err
	}
	w.fsw = fsw
	fsw.OnChange(func() { w.reload(ctx) })
	if err := fsw.Watch(ctx, manifestPath); err != nil {
		return nil, err
	}
	return w, nil
}

// Snapshot returns the currently published Snapshot.
func (w *SnapshotWatcher) Snapshot() *Snapshot {
	return w.current.Load()
}

func (w *SnapshotWatcher) reload(ctx context.Context) {
	snap, err := w.loader.Load(ctx, w.manifestPath)
	if err != nil {
		logger.Error("config reload failed, keeping previous snapshot", "error", err)
		return
	}
	w.current.Store(snap)
	logger.Info("config snapshot reloaded", "manifest", w.manifestPath)
}

// Close stops watching for changes.
func (w *SnapshotWatcher) Close() error {
	if w.fsw == nil {
		return nil
	}
	return w.fsw.Close()
}
