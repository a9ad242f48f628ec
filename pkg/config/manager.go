package config

import (
	"context"
	"fmt"
	"reflect"
	"sync"
	"sync/atomic"
	"time"

	"github.com/periplon/metis/pkg/logger"
)

// Manager owns the live Config, reloading it from its last-used sources
// whenever an underlying file source changes (debounced) and notifying
// registered OnChange callbacks.
type Manager struct {
	Service Service

	current  atomic.Value // *Config
	debounce time.Duration

	mu       sync.Mutex
	sources  []Source
	watchers []Source
	handlers []func(*Config)

	debounceTimer *time.Timer
	closed        bool
}

// NewManager creates a Manager backed by service, or the default
// koanf-backed Service when service is nil.
func NewManager(service Service) *Manager {
	if service == nil {
		service = NewService()
	}
	return &Manager{
		Service:  service,
		debounce: 100 * time.Millisecond,
	}
}

// SetDebounce overrides the delay used to coalesce rapid successive file
// change notifications into a single reload.
func (m *Manager) SetDebounce(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.debounce = d
}

// Load loads configuration from sources, stores it, notifies callbacks, and
// arms file watching on any source that supports it so future changes
// trigger a debounced Reload.
func (m *Manager) Load(ctx context.Context, sources ...Source) (*Config, error) {
	cfg, err := m.Service.Load(ctx, sources...)
	if err != nil {
		return nil, err
	}
	m.mu.Lock()
	m.sources = sources
	m.mu.Unlock()
	m.current.Store(cfg)
	m.notify(cfg)
	m.armWatches(ctx, sources)
	return cfg, nil
}

// Get returns the currently loaded configuration, or nil if Load has never
// been called.
func (m *Manager) Get() *Config {
	v := m.current.Load()
	if v == nil {
		return nil
	}
	return v.(*Config)
}

// Reload re-runs Load against the sources from the last successful Load
// call, validates the result, and only swaps/notifies if it actually
// changed.
func (m *Manager) Reload(ctx context.Context) error {
	m.mu.Lock()
	sources := m.sources
	m.mu.Unlock()

	cfg, err := m.Service.Load(ctx, sources...)
	if err != nil {
		return err
	}
	if err := m.Service.Validate(cfg); err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}

	prev := m.Get()
	m.current.Store(cfg)
	if !configEqual(prev, cfg) {
		m.notify(cfg)
	}
	return nil
}

// OnChange registers a callback invoked (synchronously) with the new Config
// every time Load or a changed Reload completes.
func (m *Manager) OnChange(handler func(*Config)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers = append(m.handlers, handler)
}

func (m *Manager) notify(cfg *Config) {
	m.mu.Lock()
	handlers := make([]func(*Config), len(m.handlers))
	copy(handlers, m.handlers)
	m.mu.Unlock()
	for _, h := range handlers {
		h(cfg)
	}
}

// armWatches starts Watch on every source that supports it, debouncing
// change notifications into a single Reload call.
func (m *Manager) armWatches(ctx context.Context, sources []Source) {
	m.mu.Lock()
	m.watchers = sources
	m.mu.Unlock()
	for _, src := range sources {
		if src == nil {
			continue
		}
		src := src
		_ = src.Watch(ctx, func() {
			m.scheduleReload(ctx)
		})
	}
}

func (m *Manager) scheduleReload(ctx context.Context) {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	if m.debounceTimer != nil {
		m.debounceTimer.Stop()
	}
	m.debounceTimer = time.AfterFunc(m.debounce, func() {
		_ = m.Reload(ctx)
	})
	m.mu.Unlock()
}

// Close stops any armed watches and releases their resources. Safe to call
// multiple times.
func (m *Manager) Close(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil
	}
	m.closed = true
	if m.debounceTimer != nil {
		m.debounceTimer.Stop()
	}
	var firstErr error
	for _, src := range m.watchers {
		if src == nil {
			continue
		}
		if err := src.Close(); err != nil && firstErr == nil {
			firstErr = err
			logger.Warn("error closing config source", "error", err)
		}
	}
	return firstErr
}

// configEqual reports whether a and b hold equal configuration, treating
// two nils as equal and a nil paired with a non-nil as unequal.
func configEqual(a, b *Config) bool {
	if a == nil && b == nil {
		return true
	}
	if a == nil || b == nil {
		return false
	}
	return reflect.DeepEqual(a, b)
}
