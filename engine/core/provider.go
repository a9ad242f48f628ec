package core

import (
	"encoding/json"
	"fmt"

	"dario.cat/mergo"
)

// ProviderName identifies an LLM back-end implementation.
type ProviderName string

const (
	ProviderOpenAI      ProviderName = "openai"
	ProviderAnthropic   ProviderName = "anthropic"
	ProviderGemini      ProviderName = "gemini"
	ProviderOllama      ProviderName = "ollama"
	ProviderAzureOpenAI ProviderName = "azure_openai"
	ProviderMock        ProviderName = "mock" // Mock provider for testing
)

// PromptParams are the generation parameters common to every back-end.
type PromptParams struct {
	MaxTokens   int32    `json:"max_tokens,omitempty"  yaml:"max_tokens,omitempty"  mapstructure:"max_tokens,omitempty"`
	Temperature float64  `json:"temperature,omitempty" yaml:"temperature,omitempty" mapstructure:"temperature,omitempty"`
	TopP        float64  `json:"top_p,omitempty"       yaml:"top_p,omitempty"       mapstructure:"top_p,omitempty"`
	Stop        []string `json:"stop,omitempty"        yaml:"stop,omitempty"        mapstructure:"stop,omitempty"`
}

// ProviderConfig represents provider-specific configuration options attached
// to an Agent or a MockConfig.LLM strategy entry.
type ProviderConfig struct {
	Provider  ProviderName `json:"provider"              yaml:"provider"              mapstructure:"provider"`
	Model     string       `json:"model"                 yaml:"model"                 mapstructure:"model"`
	APIKey    string       `json:"api_key,omitempty"     yaml:"api_key,omitempty"     mapstructure:"api_key,omitempty"`
	APIKeyEnv string       `json:"api_key_env,omitempty" yaml:"api_key_env,omitempty" mapstructure:"api_key_env,omitempty"`
	BaseURL   string       `json:"base_url,omitempty"    yaml:"base_url,omitempty"    mapstructure:"base_url,omitempty"`
	Params    PromptParams `json:"params,omitempty"      yaml:"params,omitempty"      mapstructure:"params,omitempty"`
}

// NewProviderConfig creates a new ProviderConfig with the given identity.
func NewProviderConfig(provider ProviderName, model, apiKey string) *ProviderConfig {
	return &ProviderConfig{Provider: provider, Model: model, APIKey: apiKey}
}

// AsJSON serializes the provider config, e.g. for inclusion in a config hash.
func (p *ProviderConfig) AsJSON() (json.RawMessage, error) {
	b, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal provider config: %w", err)
	}
	return b, nil
}

// AsMap mirrors AsJSON but returns a generic map for template/merge use.
func (p *ProviderConfig) AsMap() (map[string]any, error) {
	return AsMapDefault(p)
}

// FromMap overlays fields present in data onto p, then lets mergo decide
// precedence for the rest (override wins, zero values from data do not
// clobber an already-set field).
func (p *ProviderConfig) FromMap(data any) error {
	m, ok := data.(map[string]any)
	if !ok {
		return fmt.Errorf("provider config source must be a map, got %T", data)
	}
	decoded, err := FromMapDefault[ProviderConfig](m)
	if err != nil {
		return fmt.Errorf("failed to decode provider config: %w", err)
	}
	return mergo.Merge(p, decoded, mergo.WithOverride)
}
