package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/periplon/metis/engine/config"
	"github.com/periplon/metis/engine/core"
	"github.com/periplon/metis/engine/llm"
)

// allowsServer reports whether cfg's mcp_servers allow-list grants access
// to server, honoring the bare MCP-spec "server:*" wildcard form (spec.md
// §4.3.3: "An MCP-spec `server:*` matches every tool of that server").
func allowsServer(cfg *config.AgentConfig, server string) bool {
	for _, s := range cfg.MCPServers {
		name, _, _ := strings.Cut(s, ":")
		if name == server {
			return true
		}
	}
	return false
}

func allowsName(list []string, name string) bool {
	for _, n := range list {
		if n == name {
			return true
		}
	}
	return false
}

// availableTools enumerates the ToolDefinitions this agent may call,
// restricted by its allow-lists (spec.md §4.3.3: empty allow-lists grant
// access to nothing).
func (rt *Runtime) availableTools(cfg *config.AgentConfig) []llm.ToolDefinition {
	var out []llm.ToolDefinition
	for _, name := range cfg.Tools {
		t, err := rt.Tools.Get(name)
		if err != nil {
			continue
		}
		out = append(out, llm.ToolDefinition{Name: t.Name, Description: t.Description, Parameters: t.InputSchema})
	}
	if rt.Outbound != nil {
		for _, info := range rt.Outbound.ListAll() {
			if !allowsServer(cfg, info.Server) {
				continue
			}
			out = append(out, llm.ToolDefinition{
				Name:        fmt.Sprintf("mcp__%s_%s", info.Server, info.Tool),
				Description: info.Description,
				Parameters:  info.InputSchema,
			})
		}
	}
	for _, name := range cfg.Agents {
		out = append(out, llm.ToolDefinition{
			Name:        "agent_" + name,
			Description: fmt.Sprintf("invoke agent %q", name),
			Parameters:  map[string]any{"type": "object"},
		})
	}
	for _, name := range cfg.Resources {
		if r, err := rt.Resources.GetByName(name); err == nil {
			out = append(out, llm.ToolDefinition{
				Name:        "resource_" + name,
				Description: r.Description,
				Parameters:  map[string]any{"type": "object"},
			})
		}
	}
	for _, name := range cfg.ResourceTmpl {
		if r, err := rt.Resources.GetTemplateByName(name); err == nil {
			out = append(out, llm.ToolDefinition{
				Name:        "resource_template_" + name,
				Description: r.Description,
				Parameters:  map[string]any{"type": "object"},
			})
		}
	}
	return out
}

// routeToolCall dispatches a tool call by name prefix (spec.md §4.3.3's
// routing table), mirroring engine/mcpserver/methods.go's routeToolCall but
// recursing into the Agent Runtime itself for agent_ calls.
func (rt *Runtime) routeToolCall(ctx context.Context, cfg *config.AgentConfig, name string, args map[string]any) (string, error) {
	switch {
	case strings.HasPrefix(name, "agent_"):
		target := strings.TrimPrefix(name, "agent_")
		if !allowsName(cfg.Agents, target) {
			return "", core.NewError(fmt.Errorf("agent %q is not allowed to call agent %q", cfg.Name, target), core.CodeInvalidRequest, nil)
		}
		sessionID, _ := args["session_id"].(string)
		resp, err := rt.RunCollect(ctx, target, args, sessionID)
		if err != nil {
			return "", err
		}
		return stringifyAny(resp["output"]), nil
	case strings.HasPrefix(name, "mcp__"):
		server, tool, ok := splitMCPName(name)
		if !ok || !allowsServer(cfg, server) {
			return "", core.NewError(fmt.Errorf("agent %q is not allowed to call %q", cfg.Name, name), core.CodeInvalidRequest, nil)
		}
		return rt.Outbound.Call(ctx, server, tool, args)
	case strings.HasPrefix(name, "resource_template_"):
		target := strings.TrimPrefix(name, "resource_template_")
		if !allowsName(cfg.ResourceTmpl, target) {
			return "", core.NewError(fmt.Errorf("agent %q is not allowed to read resource template %q", cfg.Name, target), core.CodeInvalidRequest, nil)
		}
		r, err := rt.Resources.GetTemplateByName(target)
		if err != nil {
			return "", err
		}
		return r.URITemplate, nil
	case strings.HasPrefix(name, "resource_"):
		target := strings.TrimPrefix(name, "resource_")
		if !allowsName(cfg.Resources, target) {
			return "", core.NewError(fmt.Errorf("agent %q is not allowed to read resource %q", cfg.Name, target), core.CodeInvalidRequest, nil)
		}
		r, err := rt.Resources.GetByName(target)
		if err != nil {
			return "", err
		}
		return stringifyAny(r.Content), nil
	default:
		if !cfg.AllowsTool(name) {
			return "", core.NewError(fmt.Errorf("agent %q is not allowed to call tool %q", cfg.Name, name), core.CodeInvalidRequest, nil)
		}
		result, err := rt.Tools.Call(ctx, name, args)
		if err != nil {
			return "", err
		}
		return stringifyAny(result), nil
	}
}

// splitMCPName splits "mcp__{server}_{tool}" at the first underscore after
// the prefix; server names containing underscores are not supported by
// this convention (documented assumption, shared with engine/mcpserver).
func splitMCPName(name string) (server, tool string, ok bool) {
	rest := strings.TrimPrefix(name, "mcp__")
	idx := strings.Index(rest, "_")
	if idx < 0 {
		return "", "", false
	}
	return rest[:idx], rest[idx+1:], true
}

func stringifyAny(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprintf("%v", v)
		}
		return string(b)
	}
}
