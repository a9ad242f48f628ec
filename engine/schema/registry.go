// Package schema implements the reusable-schema half of Component 3
// (Config Model + Validator): a named registry of JSON Schema documents and
// `$ref`-style resolution of references to them found anywhere inside a
// tool/agent/resource's input or output schema.
package schema

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/periplon/metis/engine/core"
)

// maxUnrollDepth bounds both $ref substitution depth and plain nested-value
// recursion, per SPEC_FULL.md §11's resolution of spec.md §9's open
// question on cycle handling.
const maxUnrollDepth = 32

// Config is a single reusable schema definition, referenced elsewhere as
// {"$ref": Name}.
type Config struct {
	Name        string         `json:"name"                  mapstructure:"name"`
	Description string         `json:"description,omitempty" mapstructure:"description,omitempty"`
	Tags        []string       `json:"tags,omitempty"         mapstructure:"tags,omitempty"`
	Schema      map[string]any `json:"schema"                 mapstructure:"schema"`
}

// Registry holds every Config loaded by a ConfigSnapshot, keyed by name.
type Registry struct {
	mu      sync.RWMutex
	schemas map[string]Config
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{schemas: make(map[string]Config)}
}

// Register adds cfg, rejecting a duplicate name (ConfigSnapshot's uniqueness
// invariant, spec.md §3).
func (r *Registry) Register(cfg Config) error {
	if cfg.Name == "" {
		return core.NewError(fmt.Errorf("schema name is required"), core.CodeConfiguration, nil)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.schemas[cfg.Name]; exists {
		return core.NewError(fmt.Errorf("duplicate schema name %q", cfg.Name), core.CodeDuplicateConfig, map[string]any{
			"name": cfg.Name,
		})
	}
	r.schemas[cfg.Name] = cfg
	return nil
}

// Get returns the schema registered under name.
func (r *Registry) Get(name string) (Config, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	cfg, ok := r.schemas[name]
	return cfg, ok
}

// List returns every registered schema.
func (r *Registry) List() []Config {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Config, 0, len(r.schemas))
	for _, cfg := range r.schemas {
		out = append(out, cfg)
	}
	return out
}

// ResolveRefs substitutes every `{"$ref": "Name"}` object reachable from
// value (at the top level or nested inside objects/arrays) with a clone of
// the referenced schema's Schema document. Unlike the single-pass original
// (config/schema.rs), it descends into the substituted content too, since
// Metis resolves refs wherever they appear rather than only once; a
// visited-name path set plus a fixed unrolling depth of maxUnrollDepth
// guards against reference cycles that recursion would otherwise spin on.
func (r *Registry) ResolveRefs(value any) (any, error) {
	return r.resolve(value, map[string]bool{}, 0)
}

func (r *Registry) resolve(value any, visited map[string]bool, depth int) (any, error) {
	if depth > maxUnrollDepth {
		return nil, core.NewError(
			fmt.Errorf("schema reference unrolling exceeded depth %d", maxUnrollDepth),
			core.CodeConfiguration,
			nil,
		)
	}
	switch v := value.(type) {
	case map[string]any:
		if name, ok := refName(v); ok {
			if visited[name] {
				return nil, core.NewError(
					fmt.Errorf("schema reference cycle detected at %q", name),
					core.CodeConfiguration,
					map[string]any{"name": name},
				)
			}
			cfg, ok := r.Get(name)
			if !ok {
				return nil, core.NewError(
					fmt.Errorf("schema reference %q not found", name),
					core.CodeConfiguration,
					map[string]any{"name": name},
				)
			}
			next := cloneVisited(visited)
			next[name] = true
			return r.resolve(cloneAny(cfg.Schema), next, depth+1)
		}
		out := make(map[string]any, len(v))
		for k, child := range v {
			resolved, err := r.resolve(child, cloneVisited(visited), depth+1)
			if err != nil {
				return nil, err
			}
			out[k] = resolved
		}
		return out, nil
	case []any:
		out := make([]any, len(v))
		for i, child := range v {
			resolved, err := r.resolve(child, cloneVisited(visited), depth+1)
			if err != nil {
				return nil, err
			}
			out[i] = resolved
		}
		return out, nil
	default:
		return value, nil
	}
}

// IsRef reports whether value is a single-key {"$ref": "Name"} object.
func IsRef(value any) bool {
	_, ok := refName(value)
	return ok
}

// RefName extracts the schema name from a $ref value, if value is one.
func RefName(value any) (string, bool) {
	return refName(value)
}

// MakeRef builds a {"$ref": name} value.
func MakeRef(name string) map[string]any {
	return map[string]any{"$ref": name}
}

func refName(value any) (string, bool) {
	m, ok := value.(map[string]any)
	if !ok || len(m) != 1 {
		return "", false
	}
	name, ok := m["$ref"].(string)
	if !ok {
		return "", false
	}
	return name, true
}

func cloneVisited(v map[string]bool) map[string]bool {
	out := make(map[string]bool, len(v)+1)
	for k, val := range v {
		out[k] = val
	}
	return out
}

// cloneAny deep-copies a JSON-shaped value via a marshal round-trip, so a
// resolved schema document never aliases the registry's stored copy.
func cloneAny(v any) any {
	raw, err := json.Marshal(v)
	if err != nil {
		return v
	}
	var out any
	if err := json.Unmarshal(raw, &out); err != nil {
		return v
	}
	return out
}
