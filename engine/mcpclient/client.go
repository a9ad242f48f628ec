// Package mcpclient implements Component 14 (Outbound MCP Client): a JSON-RPC
// client for external MCP servers, aggregating their tools under a
// `mcp__{server}_{tool}` prefix (spec.md §4.8), built on the teacher's
// go-resty HTTP client (the same library the CLI's own API client uses).
package mcpclient

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/go-resty/resty/v2"

	"github.com/periplon/metis/engine/config"
	"github.com/periplon/metis/engine/core"
)

// ToolInfo describes one tool enumerated from an external MCP server.
type ToolInfo struct {
	Server      string
	Tool        string
	Description string
	InputSchema map[string]any
}

// connection wraps one external MCP server's HTTP transport and cached
// tool list.
type connection struct {
	client *resty.Client
	name   string
	tools  []ToolInfo
}

// Manager owns one connection per configured MCPServerConfig, enumerating
// and caching each server's tools at startup (spec.md §4.8).
type Manager struct {
	mu    sync.RWMutex
	conns map[string]*connection
}

func NewManager() *Manager {
	return &Manager{conns: make(map[string]*connection)}
}

// Connect registers server and eagerly enumerates its tools via tools/list.
func (m *Manager) Connect(ctx context.Context, server *config.MCPServerConfig) error {
	client := resty.New().SetBaseURL(server.URL)
	if server.APIKey != "" {
		client.SetAuthScheme("Bearer").SetAuthToken(server.APIKey)
	}
	conn := &connection{client: client, name: server.Name}
	tools, err := fetchToolsList(ctx, client, server.Name)
	if err != nil {
		return err
	}
	conn.tools = tools
	m.mu.Lock()
	m.conns[server.Name] = conn
	m.mu.Unlock()
	return nil
}

type rpcRequest struct {
	JSONRPC string `json:"jsonrpc"`
	ID      int    `json:"id"`
	Method  string `json:"method"`
	Params  any    `json:"params,omitempty"`
}

type rpcResponse struct {
	Result json.RawMessage `json:"result,omitempty"`
	Error  *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

func call(ctx context.Context, client *resty.Client, method string, params any) (json.RawMessage, error) {
	req := rpcRequest{JSONRPC: "2.0", ID: 1, Method: method, Params: params}
	var out rpcResponse
	resp, err := client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(req).
		SetResult(&out).
		Post("/")
	if err != nil {
		return nil, core.NewError(fmt.Errorf("mcp client request failed: %w", err), core.CodeAPI, nil)
	}
	if resp.IsError() {
		return nil, core.NewError(fmt.Errorf("mcp server returned status %d", resp.StatusCode()), core.CodeAPI, map[string]any{
			"status": resp.StatusCode(),
		})
	}
	if out.Error != nil {
		return nil, core.NewError(fmt.Errorf("mcp server error: %s", out.Error.Message), core.CodeAPI, map[string]any{
			"code": out.Error.Code,
		})
	}
	return out.Result, nil
}

func fetchToolsList(ctx context.Context, client *resty.Client, server string) ([]ToolInfo, error) {
	result, err := call(ctx, client, "tools/list", map[string]any{})
	if err != nil {
		return nil, err
	}
	var body struct {
		Tools []struct {
			Name        string         `json:"name"`
			Description string         `json:"description"`
			InputSchema map[string]any `json:"inputSchema"`
		} `json:"tools"`
	}
	if err := json.Unmarshal(result, &body); err != nil {
		return nil, core.NewError(fmt.Errorf("failed to parse tools/list response: %w", err), core.CodeParse, nil)
	}
	out := make([]ToolInfo, 0, len(body.Tools))
	for _, t := range body.Tools {
		out = append(out, ToolInfo{Server: server, Tool: t.Name, Description: t.Description, InputSchema: t.InputSchema})
	}
	return out, nil
}

// ListAll returns every cached tool across every connected server.
func (m *Manager) ListAll() []ToolInfo {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []ToolInfo
	for _, c := range m.conns {
		out = append(out, c.tools...)
	}
	return out
}

// Call dispatches a tools/call to server for tool, flattening the response
// content's text items into a single string, re-parsing as JSON when
// possible (spec.md §4.8).
func (m *Manager) Call(ctx context.Context, server, tool string, args map[string]any) (string, error) {
	m.mu.RLock()
	conn, ok := m.conns[server]
	m.mu.RUnlock()
	if !ok {
		return "", core.NewError(fmt.Errorf("unknown mcp server %q", server), core.CodeNotFound, nil)
	}
	result, err := call(ctx, conn.client, "tools/call", map[string]any{"name": tool, "arguments": args})
	if err != nil {
		return "", err
	}
	var body struct {
		Content []struct {
			Type string `json:"type"`
			Text string `json:"text"`
		} `json:"content"`
	}
	if err := json.Unmarshal(result, &body); err != nil {
		return "", core.NewError(fmt.Errorf("failed to parse tools/call response: %w", err), core.CodeParse, nil)
	}
	var flattened string
	for _, c := range body.Content {
		if c.Type == "text" {
			flattened += c.Text
		}
	}
	return flattened, nil
}
