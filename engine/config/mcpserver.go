package config

import "github.com/periplon/metis/engine/core"

// MCPServerConfig is a ConfigSnapshot MCPServer entity: an external MCP
// server the outbound MCP Client connects to (spec.md §4.8).
type MCPServerConfig struct {
	Base `json:"-" mapstructure:"-"`

	Resource string `json:"resource"        mapstructure:"resource"`
	Name     string `json:"name"            mapstructure:"name"`
	URL      string `json:"url"              mapstructure:"url"`
	APIKey   string `json:"api_key,omitempty" mapstructure:"api_key,omitempty"`
}

func NewMCPServerConfig() *MCPServerConfig {
	return &MCPServerConfig{Base: newBase(core.ConfigMcpServer)}
}

func (m *MCPServerConfig) GetResource() string { return m.Resource }
func (m *MCPServerConfig) GetID() string       { return m.Name }

func (m *MCPServerConfig) Validate() error {
	if err := requireField(m.Name, "name"); err != nil {
		return err
	}
	return requireField(m.URL, "url")
}

func (m *MCPServerConfig) ValidateParams(_ *core.Input) error { return nil }
func (m *MCPServerConfig) Merge(other any) error               { return mergeInto(m, other) }

// OrchestrationKind enumerates Orchestration composition modes (spec.md §15).
type OrchestrationKind string

const (
	OrchestrationSequential   OrchestrationKind = "sequential"
	OrchestrationHierarchical OrchestrationKind = "hierarchical"
	OrchestrationCollaborative OrchestrationKind = "collaborative"
)

// OrchestrationConfig is a ConfigSnapshot Orchestration entity.
type OrchestrationConfig struct {
	Base `json:"-" mapstructure:"-"`

	Resource string            `json:"resource"        mapstructure:"resource"`
	Name     string            `json:"name"            mapstructure:"name"`
	Kind     OrchestrationKind `json:"kind"            mapstructure:"kind"`
	Agents   []string          `json:"agents"          mapstructure:"agents"`
	Leader   string            `json:"leader,omitempty" mapstructure:"leader,omitempty"`
	Schedule string            `json:"schedule,omitempty" mapstructure:"schedule,omitempty"`
}

func NewOrchestrationConfig() *OrchestrationConfig {
	return &OrchestrationConfig{Base: newBase(core.ConfigOrchestrator)}
}

func (o *OrchestrationConfig) GetResource() string { return o.Resource }
func (o *OrchestrationConfig) GetID() string       { return o.Name }

func (o *OrchestrationConfig) Validate() error {
	if err := requireField(o.Name, "name"); err != nil {
		return err
	}
	switch o.Kind {
	case OrchestrationSequential, OrchestrationHierarchical, OrchestrationCollaborative:
	default:
		return newConfigError("orchestration %q: unknown kind %q", o.Name, string(o.Kind))
	}
	if len(o.Agents) == 0 {
		return newConfigError("orchestration %q: at least one agent is required", o.Name)
	}
	if o.Kind == OrchestrationHierarchical && o.Leader == "" {
		return newConfigError("orchestration %q: leader is required for hierarchical composition", o.Name)
	}
	return nil
}

func (o *OrchestrationConfig) ValidateParams(_ *core.Input) error { return nil }
func (o *OrchestrationConfig) Merge(other any) error               { return mergeInto(o, other) }
