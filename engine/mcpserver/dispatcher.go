// Package mcpserver implements Component 6 (MCP Dispatcher): JSON-RPC 2.0
// request/notification routing over the method table of spec.md §4.7,
// presenting the Tool/Resource/Prompt Registries to MCP clients. Response
// value shapes reuse github.com/mark3labs/mcp-go/mcp's wire types, the same
// MCP SDK the teacher vendors for its own MCP surface.
package mcpserver

import (
	"context"
	"encoding/json"
	"sort"

	"github.com/periplon/metis/engine/config"
	"github.com/periplon/metis/engine/mcpclient"
	"github.com/periplon/metis/engine/registry"
	"github.com/periplon/metis/engine/workflow"
)

const ProtocolVersion = "2024-11-05"

const (
	codeMethodNotFound = -32601
	codeInternal       = -32603
)

// Request is a JSON-RPC 2.0 envelope. A missing ID marks a notification
// (spec.md §4.7: "requests without an id are treated as notifications").
type Request struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id,omitempty"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

type Response struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id,omitempty"`
	Result  any             `json:"result,omitempty"`
	Error   *RPCError       `json:"error,omitempty"`
}

type RPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// AgentRunner is the minimal contract the `agent_…` tools/call routing
// prefix needs from Component 10 (engine/agent), kept local to avoid a
// dependency cycle (engine/agent depends on engine/mcpserver's registries).
type AgentRunner interface {
	RunCollect(ctx context.Context, agentName string, input map[string]any, sessionID string) (map[string]any, error)
}

// Dispatcher routes JSON-RPC requests to the registries, the outbound MCP
// client, and the agent runtime per spec.md §4.7's method table.
type Dispatcher struct {
	Tools     *registry.ToolRegistry
	Resources *registry.ResourceRegistry
	Prompts   *registry.PromptRegistry
	Outbound  *mcpclient.Manager
	Agents    AgentRunner
	Workflows *workflow.Executor
	Snapshot  *config.Snapshot
}

func New(tools *registry.ToolRegistry, resources *registry.ResourceRegistry, prompts *registry.PromptRegistry) *Dispatcher {
	return &Dispatcher{Tools: tools, Resources: resources, Prompts: prompts}
}

// Handle decodes one JSON-RPC envelope and returns its response, plus
// whether a response should be written at all (false for notifications,
// per spec.md §4.7).
func (d *Dispatcher) Handle(ctx context.Context, raw []byte) (*Response, bool) {
	var req Request
	if err := json.Unmarshal(raw, &req); err != nil {
		return &Response{JSONRPC: "2.0", Error: &RPCError{Code: codeInternal, Message: "malformed JSON-RPC envelope"}}, true
	}
	isNotification := len(req.ID) == 0
	result, err := d.dispatch(ctx, req.Method, req.Params)
	if isNotification {
		return nil, false
	}
	resp := &Response{JSONRPC: "2.0", ID: req.ID}
	if err != nil {
		resp.Error = toRPCError(req.Method, err)
		return resp, true
	}
	resp.Result = result
	return resp, true
}

func (d *Dispatcher) dispatch(ctx context.Context, method string, params json.RawMessage) (any, error) {
	switch method {
	case "initialize":
		return d.handleInitialize(), nil
	case "ping":
		return map[string]any{}, nil
	case "resources/list":
		return d.handleResourcesList(), nil
	case "resources/read":
		return d.handleResourcesRead(params)
	case "tools/list":
		return d.handleToolsList(), nil
	case "tools/call":
		return d.handleToolsCall(ctx, params)
	case "prompts/list":
		return d.handlePromptsList(), nil
	case "prompts/get":
		return d.handlePromptsGet(params)
	case "notifications/initialized", "notifications/message":
		return map[string]any{}, nil
	default:
		return nil, errMethodNotFound
	}
}

type sentinel string

func (s sentinel) Error() string { return string(s) }

const errMethodNotFound = sentinel("unknown method")

func toRPCError(_ string, err error) *RPCError {
	if err == errMethodNotFound {
		return &RPCError{Code: codeMethodNotFound, Message: err.Error()}
	}
	return &RPCError{Code: codeInternal, Message: err.Error()}
}

func (d *Dispatcher) handleInitialize() map[string]any {
	return map[string]any{
		"protocolVersion": ProtocolVersion,
		"serverInfo":      map[string]any{"name": "metis", "version": "0.1.0"},
		"capabilities": map[string]any{
			"resources": map[string]any{},
			"tools":     map[string]any{},
			"prompts":   map[string]any{},
			"logging":   map[string]any{},
		},
	}
}

// sortedToolNames is shared by tools/list to keep responses deterministic,
// a requirement the teacher's own snapshot-driven list endpoints share.
func sortedToolNames(names []string) []string {
	sort.Strings(names)
	return names
}
