package config

import (
	"fmt"
	"strings"

	"github.com/periplon/metis/engine/core"
	"github.com/periplon/metis/engine/schema"
)

// Snapshot is the immutable ConfigSnapshot (spec.md §3): published in whole
// by the loader/watcher via an atomic pointer swap (engine/core's
// never-a-global-mutable-state design note, SPEC_FULL.md §9).
type Snapshot struct {
	Server       ServerConfig
	Auth         AuthConfig
	RateLimit    RateLimitConfig
	S3           S3Config
	Secrets      []SecretEntry
	Resources    map[string]*ResourceConfig
	ResourceTmpl map[string]*ResourceTemplateConfig
	Tools        map[string]*ToolConfig
	Prompts      map[string]*PromptConfig
	Workflows    map[string]*WorkflowConfig
	Agents       map[string]*AgentConfig
	Orchestrations map[string]*OrchestrationConfig
	Schemas      *schema.Registry
	DataLakes    map[string]*DataLakeConfig
	MCPServers   map[string]*MCPServerConfig
}

// NewSnapshot returns an empty Snapshot ready to be populated by a loader.
func NewSnapshot() *Snapshot {
	return &Snapshot{
		Resources:      make(map[string]*ResourceConfig),
		ResourceTmpl:   make(map[string]*ResourceTemplateConfig),
		Tools:          make(map[string]*ToolConfig),
		Prompts:        make(map[string]*PromptConfig),
		Workflows:      make(map[string]*WorkflowConfig),
		Agents:         make(map[string]*AgentConfig),
		Orchestrations: make(map[string]*OrchestrationConfig),
		Schemas:        schema.NewRegistry(),
		DataLakes:      make(map[string]*DataLakeConfig),
		MCPServers:     make(map[string]*MCPServerConfig),
	}
}

// Validate checks every entity individually, then the cross-entity
// invariants spec.md §3 states for a ConfigSnapshot: schema refs resolve,
// and every agent/workflow tool reference names something that exists or a
// prefixed pattern that could exist.
func (s *Snapshot) Validate() error {
	for _, t := range s.Tools {
		if err := t.Validate(); err != nil {
			return err
		}
		if _, err := s.Schemas.ResolveRefs(t.InputSchema); err != nil {
			return err
		}
		if t.OutputSchema != nil {
			if _, err := s.Schemas.ResolveRefs(t.OutputSchema); err != nil {
				return err
			}
		}
	}
	for _, r := range s.Resources {
		if err := r.Validate(); err != nil {
			return err
		}
	}
	for _, rt := range s.ResourceTmpl {
		if err := rt.Validate(); err != nil {
			return err
		}
	}
	for _, p := range s.Prompts {
		if err := p.Validate(); err != nil {
			return err
		}
	}
	for _, m := range s.MCPServers {
		if err := m.Validate(); err != nil {
			return err
		}
	}
	for _, d := range s.DataLakes {
		if err := d.Validate(); err != nil {
			return err
		}
		for _, name := range d.Schemas {
			if _, ok := s.Schemas.Get(name); !ok {
				return newConfigError("data lake %q references unknown schema %q", d.Name, name)
			}
		}
	}
	for _, w := range s.Workflows {
		if err := w.Validate(); err != nil {
			return err
		}
		for i := range w.Steps {
			if !s.toolReachable(w.Steps[i].Tool) {
				return newConfigError("workflow %q: step %q references unknown tool %q", w.Name, w.Steps[i].ID, w.Steps[i].Tool)
			}
		}
	}
	for _, a := range s.Agents {
		if err := a.Validate(); err != nil {
			return err
		}
		for _, toolName := range a.Tools {
			if !s.toolReachable(toolName) {
				return newConfigError("agent %q references unknown tool %q", a.Name, toolName)
			}
		}
		for _, spec := range a.MCPServers {
			if !s.mcpSpecReachable(spec) {
				return newConfigError("agent %q references unknown mcp spec %q", a.Name, spec)
			}
		}
		for _, agentName := range a.Agents {
			if _, ok := s.Agents[agentName]; !ok {
				return newConfigError("agent %q references unknown agent %q", a.Name, agentName)
			}
		}
	}
	for _, o := range s.Orchestrations {
		if err := o.Validate(); err != nil {
			return err
		}
		for _, agentName := range o.Agents {
			if _, ok := s.Agents[agentName]; !ok {
				return newConfigError("orchestration %q references unknown agent %q", o.Name, agentName)
			}
		}
	}
	return nil
}

// toolReachable accepts any tool already in the snapshot, or a template
// expression (it may be resolved only at run time), matching spec.md §3's
// "names one that exists or a prefixed pattern that could exist".
func (s *Snapshot) toolReachable(name string) bool {
	if strings.Contains(name, "{{") {
		return true
	}
	if _, ok := s.Tools[name]; ok {
		return true
	}
	if strings.HasPrefix(name, "agent_") {
		_, ok := s.Agents[strings.TrimPrefix(name, "agent_")]
		return ok
	}
	if strings.HasPrefix(name, "mcp__") {
		return true
	}
	return false
}

// mcpSpecReachable accepts "server" or "server:tool" or "server:*",
// per spec.md §4.3.3's wildcard allow-list matching.
func (s *Snapshot) mcpSpecReachable(spec string) bool {
	server := spec
	if idx := strings.Index(spec, ":"); idx >= 0 {
		server = spec[:idx]
	}
	_, ok := s.MCPServers[server]
	return ok
}

// RegisterTool adds a tool, rejecting a duplicate name.
func (s *Snapshot) RegisterTool(t *ToolConfig) error {
	if _, exists := s.Tools[t.Name]; exists {
		return duplicateNameErr("tool", t.Name)
	}
	s.Tools[t.Name] = t
	return nil
}

// RegisterWorkflow adds a workflow, rejecting a duplicate name.
func (s *Snapshot) RegisterWorkflow(w *WorkflowConfig) error {
	if _, exists := s.Workflows[w.Name]; exists {
		return duplicateNameErr("workflow", w.Name)
	}
	s.Workflows[w.Name] = w
	return nil
}

// RegisterAgent adds an agent, rejecting a duplicate name.
func (s *Snapshot) RegisterAgent(a *AgentConfig) error {
	if _, exists := s.Agents[a.Name]; exists {
		return duplicateNameErr("agent", a.Name)
	}
	s.Agents[a.Name] = a
	return nil
}

// RegisterResource adds a resource, rejecting a duplicate name.
func (s *Snapshot) RegisterResource(r *ResourceConfig) error {
	if _, exists := s.Resources[r.Name]; exists {
		return duplicateNameErr("resource", r.Name)
	}
	s.Resources[r.Name] = r
	return nil
}

// RegisterResourceTemplate adds a resource template, rejecting a duplicate name.
func (s *Snapshot) RegisterResourceTemplate(r *ResourceTemplateConfig) error {
	if _, exists := s.ResourceTmpl[r.Name]; exists {
		return duplicateNameErr("resource_template", r.Name)
	}
	s.ResourceTmpl[r.Name] = r
	return nil
}

// RegisterPrompt adds a prompt, rejecting a duplicate name.
func (s *Snapshot) RegisterPrompt(p *PromptConfig) error {
	if _, exists := s.Prompts[p.Name]; exists {
		return duplicateNameErr("prompt", p.Name)
	}
	s.Prompts[p.Name] = p
	return nil
}

// RegisterMCPServer adds an MCP server spec, rejecting a duplicate name.
func (s *Snapshot) RegisterMCPServer(m *MCPServerConfig) error {
	if _, exists := s.MCPServers[m.Name]; exists {
		return duplicateNameErr("mcp_server", m.Name)
	}
	s.MCPServers[m.Name] = m
	return nil
}

// RegisterDataLake adds a data lake, rejecting a duplicate name.
func (s *Snapshot) RegisterDataLake(d *DataLakeConfig) error {
	if _, exists := s.DataLakes[d.Name]; exists {
		return duplicateNameErr("data_lake", d.Name)
	}
	s.DataLakes[d.Name] = d
	return nil
}

// RegisterOrchestration adds an orchestration, rejecting a duplicate name.
func (s *Snapshot) RegisterOrchestration(o *OrchestrationConfig) error {
	if _, exists := s.Orchestrations[o.Name]; exists {
		return duplicateNameErr("orchestration", o.Name)
	}
	s.Orchestrations[o.Name] = o
	return nil
}

// RegisterSchema adds a reusable schema, rejecting a duplicate name.
func (s *Snapshot) RegisterSchema(c schema.Config) error {
	return s.Schemas.Register(c)
}

func duplicateNameErr(kind, name string) error {
	return core.NewError(fmt.Errorf("duplicate %s name %q", kind, name), core.CodeDuplicateConfig, map[string]any{
		"kind": kind,
		"name": name,
	})
}
