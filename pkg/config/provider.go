package config

import (
	"context"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// SourceType identifies which layer a Source contributes to a Config load,
// purely for diagnostics (GetSource); precedence is determined by the order
// sources are passed to Service.Load, not by SourceType.
type SourceType string

const (
	SourceDefault SourceType = "default"
	SourceYAML    SourceType = "yaml"
	SourceEnv     SourceType = "env"
	SourceCLI     SourceType = "cli"
)

// Source contributes a layer of configuration data. Load returns a nested
// map keyed by the Config struct's mapstructure tags. Watch, when
// supported, invokes onChange whenever the underlying source mutates.
type Source interface {
	Load() (map[string]any, error)
	Watch(ctx context.Context, onChange func()) error
	Type() SourceType
	Close() error
}

// defaultProvider loads the baseline Default() configuration as a nested map.
type defaultProvider struct{}

// NewDefaultProvider returns a Source that contributes Default()'s values.
func NewDefaultProvider() Source { return &defaultProvider{} }

func (p *defaultProvider) Load() (map[string]any, error) {
	return structToMap(Default()), nil
}
func (p *defaultProvider) Watch(_ context.Context, _ func()) error { return nil }
func (p *defaultProvider) Type() SourceType                        { return SourceDefault }
func (p *defaultProvider) Close() error                            { return nil }

// envProvider is a marker Source: actual environment variable ingestion
// happens natively inside Service.Load (see transformEnvKey), so Load always
// returns an empty map here.
type envProvider struct{}

// NewEnvProvider returns a Source marking that process environment variables
// should be layered in; see Service.Load.
func NewEnvProvider() Source { return &envProvider{} }

func (p *envProvider) Load() (map[string]any, error)         { return map[string]any{}, nil }
func (p *envProvider) Watch(_ context.Context, _ func()) error { return nil }
func (p *envProvider) Type() SourceType                        { return SourceEnv }
func (p *envProvider) Close() error                            { return nil }

// cliProvider maps flat CLI-flag-style keys onto the Config's nested shape.
type cliProvider struct {
	flags map[string]any
}

// NewCLIProvider returns a Source built from parsed CLI flags (flag name ->
// value). Unrecognized flag names are ignored.
func NewCLIProvider(flags map[string]any) Source {
	return &cliProvider{flags: flags}
}

var cliFlagPaths = map[string]string{
	"host":                          "server.host",
	"port":                          "server.port",
	"cors":                          "server.cors_enabled",
	"max-nesting-depth":             "limits.max_nesting_depth",
	"max-string-length":             "limits.max_string_length",
	"max-message-content-length":    "limits.max_message_content",
	"dispatcher-heartbeat-interval": "runtime.dispatcher_heartbeat_interval",
	"async-token-counter-workers":   "runtime.async_token_counter_workers",
}

func (p *cliProvider) Load() (map[string]any, error) {
	data := map[string]any{}
	for flag, value := range p.flags {
		path, ok := cliFlagPaths[flag]
		if !ok {
			continue
		}
		if err := setNested(data, path, value); err != nil {
			return nil, err
		}
	}
	return data, nil
}
func (p *cliProvider) Watch(_ context.Context, _ func()) error { return nil }
func (p *cliProvider) Type() SourceType                        { return SourceCLI }
func (p *cliProvider) Close() error                            { return nil }

// yamlProvider loads configuration from a YAML file on disk and can watch it
// for changes via a shared Watcher instance.
type yamlProvider struct {
	path    string
	watcher *Watcher
}

// NewYAMLProvider returns a Source backed by the YAML file at path. A
// missing file loads as an empty map rather than erroring, so a project can
// omit its config file entirely and fall back to defaults.
func NewYAMLProvider(path string) Source {
	return &yamlProvider{path: path}
}

func (p *yamlProvider) Load() (map[string]any, error) {
	raw, err := os.ReadFile(p.path)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]any{}, nil
		}
		return nil, fmt.Errorf("failed to read YAML file %q: %w", p.path, err)
	}
	data := map[string]any{}
	if err := yaml.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("failed to parse YAML file %q: %w", p.path, err)
	}
	return normalizeYAMLMap(data), nil
}

func (p *yamlProvider) Watch(ctx context.Context, onChange func()) error {
	if p.watcher == nil {
		w, err := NewWatcher()
		if err != nil {
			return err
		}
		p.watcher = w
		if err := p.watcher.Watch(ctx, p.path); err != nil {
			return err
		}
	}
	p.watcher.OnChange(onChange)
	return nil
}

func (p *yamlProvider) Type() SourceType { return SourceYAML }

func (p *yamlProvider) Close() error {
	if p.watcher != nil {
		return p.watcher.Close()
	}
	return nil
}

// normalizeYAMLMap converts the map[any]any/map[string]any mix yaml.v3 can
// produce into a pure map[string]any tree, recursively.
func normalizeYAMLMap(v any) map[string]any {
	out := map[string]any{}
	switch m := v.(type) {
	case map[string]any:
		for k, val := range m {
			out[k] = normalizeYAMLValue(val)
		}
	case map[any]any:
		for k, val := range m {
			out[fmt.Sprintf("%v", k)] = normalizeYAMLValue(val)
		}
	}
	return out
}

func normalizeYAMLValue(v any) any {
	switch val := v.(type) {
	case map[string]any, map[any]any:
		return normalizeYAMLMap(val)
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = normalizeYAMLValue(item)
		}
		return out
	default:
		return val
	}
}

// setNested sets value at the dotted path within m, creating intermediate
// maps as needed. An empty path is a no-op. A non-map value already present
// at an intermediate key is reported as a conflict rather than overwritten.
func setNested(m map[string]any, path string, value any) error {
	if path == "" {
		return nil
	}
	parts := strings.Split(path, ".")
	cur := m
	for i, part := range parts {
		if i == len(parts)-1 {
			cur[part] = value
			return nil
		}
		next, ok := cur[part]
		if !ok {
			nextMap := map[string]any{}
			cur[part] = nextMap
			cur = nextMap
			continue
		}
		nextMap, ok := next.(map[string]any)
		if !ok {
			return fmt.Errorf("configuration conflict: key %q is not a map", part)
		}
		cur = nextMap
	}
	return nil
}

// transformEnvKey converts an environment variable name (e.g.
// LIMITS_MAX_NESTING_DEPTH) into the dotted config path it maps to
// (limits.max_nesting_depth): the first underscore-delimited segment becomes
// the top-level key, the rest stay joined by underscores as the nested key.
func transformEnvKey(key string) string {
	var parts []string
	for _, p := range strings.Split(key, "_") {
		if p != "" {
			parts = append(parts, strings.ToLower(p))
		}
	}
	switch len(parts) {
	case 0:
		return ""
	case 1:
		return parts[0]
	default:
		return parts[0] + "." + strings.Join(parts[1:], "_")
	}
}
