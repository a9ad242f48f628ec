package config

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/v2"
)

// Service loads, validates, and (best-effort) watches process configuration.
// Service is an interface so tests can substitute a fake implementation.
type Service interface {
	Load(ctx context.Context, sources ...Source) (*Config, error)
	Watch(ctx context.Context, callback func(*Config)) error
	Validate(cfg *Config) error
	GetSource(key string) SourceType
}

type koanfService struct{}

// NewService returns the koanf-backed Service implementation.
func NewService() Service {
	return &koanfService{}
}

// Load merges sources in the order given (later sources take precedence for
// any key they set), decodes the merged tree into a Config, and validates
// the result. SourceEnv sources trigger a native scan of os.Environ()
// instead of calling Load on the Source itself.
func (s *koanfService) Load(_ context.Context, sources ...Source) (*Config, error) {
	k := koanf.New(".")
	for _, src := range sources {
		if src == nil {
			continue
		}
		if src.Type() == SourceEnv {
			if err := k.Load(confmap.Provider(environMap(), "."), nil); err != nil {
				return nil, fmt.Errorf("failed to load from source: %w", err)
			}
			continue
		}
		data, err := src.Load()
		if err != nil {
			return nil, fmt.Errorf("failed to load from source: %w", err)
		}
		if err := k.Load(confmap.Provider(data, "."), nil); err != nil {
			return nil, fmt.Errorf("failed to load from source: %w", err)
		}
	}

	cfg := &Config{}
	decoderConfig := &mapstructure.DecoderConfig{
		Result:           cfg,
		TagName:          "mapstructure",
		WeaklyTypedInput: true,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
		),
	}
	decoder, err := mapstructure.NewDecoder(decoderConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to build config decoder: %w", err)
	}
	if err := decoder.Decode(k.All()); err != nil {
		return nil, fmt.Errorf("failed to decode configuration: %w", err)
	}

	if err := s.Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Watch registers callback for future configuration changes. The koanf
// service itself performs no background watching; Manager layers that on
// top via Watcher. Watch here only validates the callback isn't nil so
// Service satisfies the interface uniformly regardless of backend.
func (s *koanfService) Watch(_ context.Context, callback func(*Config)) error {
	if callback == nil {
		return fmt.Errorf("callback cannot be nil")
	}
	return nil
}

// Validate runs validateConfig's business rules over cfg.
func (s *koanfService) Validate(cfg *Config) error {
	return validateConfig(cfg)
}

// GetSource always returns SourceDefault: koanf merges sources without
// retaining per-key provenance, so fine-grained source tracking isn't
// available past the initial merge.
func (s *koanfService) GetSource(_ string) SourceType {
	return SourceDefault
}

// environMap scans os.Environ(), transforms each key via transformEnvKey,
// and builds the resulting nested map for koanf to merge in.
func environMap() map[string]any {
	out := map[string]any{}
	for _, kv := range os.Environ() {
		parts := strings.SplitN(kv, "=", 2)
		if len(parts) != 2 {
			continue
		}
		path := transformEnvKey(parts[0])
		if path == "" {
			continue
		}
		_ = setNested(out, path, parts[1])
	}
	return out
}

// structToMap round-trips v through JSON (using its json tags, kept in sync
// with mapstructure tags throughout this package) to produce the nested map
// shape Source.Load is expected to return.
func structToMap(v any) map[string]any {
	raw, err := json.Marshal(v)
	if err != nil {
		return map[string]any{}
	}
	out := map[string]any{}
	if err := json.Unmarshal(raw, &out); err != nil {
		return map[string]any{}
	}
	return out
}
