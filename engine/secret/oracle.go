// Package secret implements Component 2 (Secret Oracle): an asynchronous
// key->value lookup that falls back to the process environment. The
// secret-store backend itself is out of spec.md's scope (§1); Metis treats
// it as an opaque source behind the Oracle interface.
package secret

import (
	"context"
	"os"
	"sync"
)

// Oracle resolves a secret key to a value, falling back to the process
// environment when the configured backend has no entry.
type Oracle interface {
	Lookup(ctx context.Context, key string) (string, bool, error)
}

// Source is an opaque key->value backend (e.g. a config-file-defined
// map, a vault client). It is intentionally minimal: spec.md §1 scopes the
// secret-store implementation out, so Metis only depends on this shape.
type Source interface {
	Get(ctx context.Context, key string) (string, bool, error)
}

// StaticSource is a Source backed by an in-memory map, used for secrets
// declared directly in the config file's `secrets` section.
type StaticSource map[string]string

func (s StaticSource) Get(_ context.Context, key string) (string, bool, error) {
	v, ok := s[key]
	return v, ok, nil
}

type envOracle struct {
	mu      sync.RWMutex
	sources []Source
}

// New returns an Oracle that checks each source in order before falling
// back to os.LookupEnv.
func New(sources ...Source) Oracle {
	return &envOracle{sources: sources}
}

// Lookup resolves key against every configured Source in order, then falls
// back to the process environment. The lookup itself is synchronous and
// cheap (map/env reads); it accepts a context so future backends (a vault
// HTTP call) can honor cancellation without changing the interface.
func (o *envOracle) Lookup(ctx context.Context, key string) (string, bool, error) {
	o.mu.RLock()
	sources := o.sources
	o.mu.RUnlock()

	for _, src := range sources {
		if src == nil {
			continue
		}
		select {
		case <-ctx.Done():
			return "", false, ctx.Err()
		default:
		}
		if v, ok, err := src.Get(ctx, key); err != nil {
			return "", false, err
		} else if ok {
			return v, true, nil
		}
	}
	if v, ok := os.LookupEnv(key); ok {
		return v, true, nil
	}
	return "", false, nil
}
