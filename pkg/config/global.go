package config

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"
)

var (
	globalMu      sync.Mutex
	globalManager atomic.Value // *Manager
)

// Initialize loads the process-wide Config from sources and arms the global
// Manager. debounce, when non-nil, overrides the default file-watch
// debounce. Subsequent calls are no-ops as long as the global Manager was
// never reset (only resetForTest does that), so callers don't need to guard
// against being initialized twice from independent code paths. A failed
// attempt leaves the global state uninitialized so a later call can retry.
func Initialize(ctx context.Context, debounce *time.Duration, sources ...Source) error {
	globalMu.Lock()
	defer globalMu.Unlock()

	if globalManager.Load() != nil {
		return nil
	}

	m := NewManager(NewService())
	if debounce != nil {
		m.SetDebounce(*debounce)
	}
	if _, err := m.Load(ctx, sources...); err != nil {
		return fmt.Errorf("failed to initialize global config: %w", err)
	}
	globalManager.Store(m)
	return nil
}

func mustManager() *Manager {
	v := globalManager.Load()
	if v == nil {
		panic("config: global configuration accessed before Initialize")
	}
	return v.(*Manager)
}

// Get returns the process-wide Config. It panics if Initialize has not yet
// succeeded.
func Get() *Config {
	return mustManager().Get()
}

// OnChange registers a callback against the process-wide Manager. It
// panics if Initialize has not yet succeeded.
func OnChange(handler func(*Config)) {
	mustManager().OnChange(handler)
}

// Reload re-validates and swaps the process-wide Config. It panics if
// Initialize has not yet succeeded.
func Reload(ctx context.Context) error {
	return mustManager().Reload(ctx)
}

// Close releases the process-wide Manager's resources. It is a no-op if
// Initialize was never called.
func Close(ctx context.Context) error {
	globalMu.Lock()
	defer globalMu.Unlock()
	v := globalManager.Load()
	if v == nil {
		return nil
	}
	return v.(*Manager).Close(ctx)
}

// resetForTest clears global initialization state so tests can exercise
// Initialize repeatedly in isolation. Not exported; test-only.
func resetForTest() {
	globalMu.Lock()
	defer globalMu.Unlock()
	globalManager = atomic.Value{}
}
