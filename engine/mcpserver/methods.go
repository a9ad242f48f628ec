package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/periplon/metis/engine/config"
	"github.com/periplon/metis/engine/core"
)

func (d *Dispatcher) handleResourcesList() map[string]any {
	list := d.Resources.List()
	out := make([]mcp.Resource, 0, len(list))
	for _, r := range list {
		out = append(out, mcp.Resource{URI: r.URI, Name: r.Name, Description: r.Description, MIMEType: r.MimeType})
	}
	return map[string]any{"resources": out}
}

type resourcesReadParams struct {
	URI string `json:"uri"`
}

func (d *Dispatcher) handleResourcesRead(params json.RawMessage) (any, error) {
	var p resourcesReadParams
	if err := json.Unmarshal(params, &p); err != nil {
		return nil, invalidRequest(fmt.Errorf("malformed resources/read params: %w", err))
	}
	res, err := d.Resources.Read(p.URI)
	if err != nil {
		return nil, err
	}
	text, _ := stringifyContent(res.Content)
	return map[string]any{
		"contents": []mcp.TextResourceContents{{
			URI:      res.URI,
			MIMEType: res.MimeType,
			Text:     text,
		}},
	}, nil
}

// toolsListEntries merges local tools, agent_{name} entries, mcp__{server}_{tool}
// entries, and resource_…/resource_template_… entries into one listing
// (spec.md §4.7's tools/list "merged" shape).
func (d *Dispatcher) handleToolsList() map[string]any {
	tools := d.Tools.List()
	out := make([]mcp.Tool, 0, len(tools))
	for _, t := range tools {
		out = append(out, mcp.NewTool(t.Name, mcp.WithDescription(t.Description)))
	}
	if d.Outbound != nil {
		for _, info := range d.Outbound.ListAll() {
			name := "mcp__" + info.Server + "_" + info.Tool
			out = append(out, mcp.NewTool(name, mcp.WithDescription(info.Description)))
		}
	}
	for _, r := range d.Resources.List() {
		out = append(out, mcp.NewTool("resource_"+r.Name, mcp.WithDescription("read resource "+r.Name)))
	}
	for _, rt := range d.Resources.ListTemplates() {
		out = append(out, mcp.NewTool("resource_template_"+rt.Name, mcp.WithDescription("read resource template "+rt.Name)))
	}
	if d.Snapshot != nil {
		for name := range d.Snapshot.Agents {
			out = append(out, mcp.NewTool("agent_"+name, mcp.WithDescription("run agent "+name)))
		}
		for name := range d.Snapshot.Workflows {
			out = append(out, mcp.NewTool("workflow_"+name, mcp.WithDescription("run workflow "+name)))
		}
	}
	return map[string]any{"tools": out}
}

type toolsCallParams struct {
	Name      string         `json:"name"`
	Arguments map[string]any `json:"arguments"`
}

// handleToolsCall routes by name prefix per spec.md §4.3.3: agent_…,
// workflow_…, mcp__{server}_{tool}, resource_…/resource_template_…, else
// the local tool registry.
func (d *Dispatcher) handleToolsCall(ctx context.Context, params json.RawMessage) (any, error) {
	var p toolsCallParams
	if err := json.Unmarshal(params, &p); err != nil {
		return nil, invalidRequest(fmt.Errorf("malformed tools/call params: %w", err))
	}
	text, err := d.routeToolCall(ctx, p.Name, p.Arguments)
	if err != nil {
		return nil, err
	}
	return map[string]any{"content": []mcp.TextContent{{Type: "text", Text: text}}}, nil
}

func (d *Dispatcher) routeToolCall(ctx context.Context, name string, args map[string]any) (string, error) {
	switch {
	case strings.HasPrefix(name, "agent_"):
		if d.Agents == nil {
			return "", core.NewError(fmt.Errorf("no agent runtime configured"), core.CodeInvalidRequest, nil)
		}
		sessionID, _ := args["session_id"].(string)
		out, err := d.Agents.RunCollect(ctx, strings.TrimPrefix(name, "agent_"), args, sessionID)
		if err != nil {
			return "", err
		}
		return stringifyAny(out), nil
	case strings.HasPrefix(name, "workflow_"):
		if d.Workflows == nil || d.Snapshot == nil {
			return "", core.NewError(fmt.Errorf("no workflow engine configured"), core.CodeInvalidRequest, nil)
		}
		wfName := strings.TrimPrefix(name, "workflow_")
		wf, ok := d.Snapshot.Workflows[wfName]
		if !ok {
			return "", core.NewError(fmt.Errorf("unknown workflow %q", wfName), core.CodeNotFound, nil)
		}
		result, err := d.Workflows.Execute(ctx, wf, args)
		if err != nil {
			return "", err
		}
		return stringifyAny(result), nil
	case strings.HasPrefix(name, "mcp__"):
		if d.Outbound == nil {
			return "", core.NewError(fmt.Errorf("no outbound MCP client configured"), core.CodeInvalidRequest, nil)
		}
		server, tool, ok := splitMCPName(name)
		if !ok {
			return "", invalidRequest(fmt.Errorf("malformed mcp tool name %q", name))
		}
		return d.Outbound.Call(ctx, server, tool, args)
	case strings.HasPrefix(name, "resource_template_"):
		rt, err := d.Resources.GetTemplateByName(strings.TrimPrefix(name, "resource_template_"))
		if err != nil {
			return "", err
		}
		return rt.URITemplate, nil
	case strings.HasPrefix(name, "resource_"):
		res, err := d.Resources.GetByName(strings.TrimPrefix(name, "resource_"))
		if err != nil {
			return "", err
		}
		return stringifyAny(res.Content), nil
	default:
		out, err := d.Tools.Call(ctx, name, args)
		if err != nil {
			return "", err
		}
		return stringifyAny(out), nil
	}
}

// splitMCPName parses "mcp__{server}_{tool}". Server names are not allowed
// to contain underscores so the first underscore after the prefix is the
// split point.
func splitMCPName(name string) (server, tool string, ok bool) {
	rest := strings.TrimPrefix(name, "mcp__")
	idx := strings.Index(rest, "_")
	if idx < 0 {
		return "", "", false
	}
	return rest[:idx], rest[idx+1:], true
}

func (d *Dispatcher) handlePromptsList() map[string]any {
	list := d.Prompts.List()
	out := make([]mcp.Prompt, 0, len(list))
	for _, p := range list {
		out = append(out, mcp.Prompt{Name: p.Name, Description: p.Description, Arguments: promptArguments(p)})
	}
	return map[string]any{"prompts": out}
}

func promptArguments(p *config.PromptConfig) []mcp.PromptArgument {
	if len(p.Arguments) == 0 {
		return nil
	}
	out := make([]mcp.PromptArgument, 0, len(p.Arguments))
	for name := range p.Arguments {
		out = append(out, mcp.PromptArgument{Name: name})
	}
	return out
}

type promptsGetParams struct {
	Name      string         `json:"name"`
	Arguments map[string]any `json:"arguments"`
}

func (d *Dispatcher) handlePromptsGet(params json.RawMessage) (any, error) {
	var p promptsGetParams
	if err := json.Unmarshal(params, &p); err != nil {
		return nil, invalidRequest(fmt.Errorf("malformed prompts/get params: %w", err))
	}
	msgs, err := d.Prompts.Get(p.Name, p.Arguments)
	if err != nil {
		return nil, err
	}
	out := make([]mcp.PromptMessage, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, mcp.PromptMessage{
			Role:    mcp.Role(m.Role),
			Content: mcp.TextContent{Type: "text", Text: m.Content},
		})
	}
	return map[string]any{"messages": out}, nil
}

func invalidRequest(err error) error {
	return core.NewError(err, core.CodeInvalidRequest, nil)
}

func stringifyAny(v any) string {
	s, _ := stringifyContent(v)
	return s
}

func stringifyContent(v any) (string, error) {
	switch t := v.(type) {
	case nil:
		return "", nil
	case string:
		return t, nil
	default:
		data, err := json.Marshal(t)
		if err != nil {
			return "", err
		}
		return string(data), nil
	}
}
