// Package agent implements Component 10 (Agent Runtime): SingleTurn,
// MultiTurn, and ReAct loops over the LLM Provider Abstraction
// (engine/llm), the tool/resource registries (engine/registry), the
// outbound MCP client (engine/mcpclient), and recursive agent-to-agent
// calls (spec.md §4.3).
package agent

import (
	"context"
	"time"

	"github.com/periplon/metis/engine/llm"
)

// ChunkKind tags an AgentChunk's payload (spec.md §4.3's Stream<AgentChunk>).
type ChunkKind string

const (
	ChunkStatus     ChunkKind = "status"
	ChunkText       ChunkKind = "text"
	ChunkThought    ChunkKind = "thought"
	ChunkToolCall   ChunkKind = "tool_call"
	ChunkToolResult ChunkKind = "tool_result"
	ChunkComplete   ChunkKind = "complete"
	ChunkError      ChunkKind = "error"
)

// ToolCallRecord is one executed tool call, kept for AgentResponse.ToolCalls
// and for emitting ChunkToolCall/ChunkToolResult.
type ToolCallRecord struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
	Result    string `json:"result,omitempty"`
	Error     string `json:"error,omitempty"`
}

// AgentChunk is one unit of execute's output stream.
type AgentChunk struct {
	Kind     ChunkKind       `json:"kind"`
	Phase    string          `json:"phase,omitempty"`
	Delta    string          `json:"delta,omitempty"`
	ToolCall *ToolCallRecord `json:"tool_call,omitempty"`
	Response *Response       `json:"response,omitempty"`
	Err      string          `json:"error,omitempty"`
}

// Response is the `collect` helper's return value (spec.md §4.3).
type Response struct {
	Output          any              `json:"output"`
	ToolCalls       []ToolCallRecord `json:"tool_calls,omitempty"`
	ReasoningSteps  []string         `json:"reasoning_steps,omitempty"`
	SessionID       string           `json:"session_id,omitempty"`
	Iterations      int              `json:"iterations"`
	Usage           *llm.Usage       `json:"usage,omitempty"`
	ExecutionTimeMs int64            `json:"execution_time_ms"`
}

// Message mirrors llm.Message; kept as its own type so engine/agent does
// not force every caller (e.g. a future conversation store) to import
// engine/llm just to hold history.
type Message struct {
	Role       string
	Content    string
	ToolCalls  []ToolCallRecord
	ToolCallID string
	Name       string
}

// SessionStore is the minimal contract MultiTurn/ReAct need from Component
// 11 (engine/conversation); defined locally to avoid a dependency on a
// package built after this one.
type SessionStore interface {
	Load(ctx context.Context, sessionID string) ([]Message, error)
	Append(ctx context.Context, sessionID string, messages ...Message) error
}

// clock is overridable in tests; production code always uses time.Now.
var clock = time.Now
