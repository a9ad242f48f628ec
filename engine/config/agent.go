package config

import (
	"time"

	"github.com/periplon/metis/engine/core"
)

// AgentKind enumerates the Agent Runtime loop kinds (spec.md §3/§4.3).
type AgentKind string

const (
	AgentSingleTurn AgentKind = "single_turn"
	AgentMultiTurn  AgentKind = "multi_turn"
	AgentReAct      AgentKind = "react"
)

// MemoryStrategyKind enumerates Conversation Store memory strategies
// (spec.md §4.3.2).
type MemoryStrategyKind string

const (
	MemoryFull          MemoryStrategyKind = "full"
	MemorySlidingWindow MemoryStrategyKind = "sliding_window"
	MemoryFirstLast     MemoryStrategyKind = "first_last"
)

// MemoryConfig configures an Agent's conversation memory.
type MemoryConfig struct {
	Backend     string             `json:"backend,omitempty"      mapstructure:"backend,omitempty"`
	Strategy    MemoryStrategyKind `json:"strategy,omitempty"     mapstructure:"strategy,omitempty"`
	MaxMessages int                `json:"max_messages,omitempty" mapstructure:"max_messages,omitempty"`
	Window      int                `json:"window,omitempty"       mapstructure:"window,omitempty"`
	First       int                `json:"first,omitempty"        mapstructure:"first,omitempty"`
	Last        int                `json:"last,omitempty"         mapstructure:"last,omitempty"`
}

// AgentConfig is a ConfigSnapshot Agent entity.
type AgentConfig struct {
	Base `json:"-" mapstructure:"-"`

	Resource     string               `json:"resource"                 mapstructure:"resource"`
	Name         string               `json:"name"                     mapstructure:"name"`
	Kind         AgentKind            `json:"kind"                     mapstructure:"kind"`
	Provider     core.ProviderConfig  `json:"provider"                 mapstructure:"provider"`
	SystemPrompt string               `json:"system_prompt"            mapstructure:"system_prompt"`
	UserPrompt   string               `json:"user_prompt,omitempty"    mapstructure:"user_prompt,omitempty"`
	Tools        []string             `json:"tools,omitempty"          mapstructure:"tools,omitempty"`
	MCPServers   []string             `json:"mcp_servers,omitempty"    mapstructure:"mcp_servers,omitempty"`
	Agents       []string             `json:"agents,omitempty"         mapstructure:"agents,omitempty"`
	Resources    []string             `json:"resources,omitempty"      mapstructure:"resources,omitempty"`
	ResourceTmpl []string             `json:"resource_templates,omitempty" mapstructure:"resource_templates,omitempty"`
	Memory       MemoryConfig         `json:"memory,omitempty"         mapstructure:"memory,omitempty"`
	MaxIterations int                 `json:"max_iterations,omitempty" mapstructure:"max_iterations,omitempty"`
	Timeout      time.Duration        `json:"timeout,omitempty"        mapstructure:"timeout,omitempty"`
}

func NewAgentConfig() *AgentConfig {
	return &AgentConfig{Base: newBase(core.ConfigAgent)}
}

func (a *AgentConfig) GetResource() string { return a.Resource }
func (a *AgentConfig) GetID() string       { return a.Name }

func (a *AgentConfig) Validate() error {
	if err := requireField(a.Name, "name"); err != nil {
		return err
	}
	switch a.Kind {
	case AgentSingleTurn, AgentMultiTurn, AgentReAct:
	default:
		return newConfigError("agent %q: unknown kind %q", a.Name, string(a.Kind))
	}
	if err := requireField(a.SystemPrompt, "system_prompt"); err != nil {
		return newConfigError("agent %q: %w", a.Name, err)
	}
	if a.Kind == AgentReAct && a.MaxIterations <= 0 {
		return newConfigError("agent %q: max_iterations must be positive for a react agent", a.Name)
	}
	return nil
}

func (a *AgentConfig) ValidateParams(_ *core.Input) error { return nil }

func (a *AgentConfig) Merge(other any) error {
	return mergeInto(a, other)
}

// AllowsTool reports whether name is reachable by this agent's tool
// allow-list, per spec.md §4.3.3's explicit opt-in policy (all-empty
// allow-lists grant access to nothing).
func (a *AgentConfig) AllowsTool(name string) bool {
	for _, t := range a.Tools {
		if t == name {
			return true
		}
	}
	return false
}
