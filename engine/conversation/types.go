// Package conversation implements Component 11 (Conversation Store):
// per-session message persistence behind a Redis-backed Store (spec.md
// §4.3.2/§3), grounded on the teacher's engine/infra/cache Redis wrapper.
package conversation

import "github.com/periplon/metis/engine/agent"

// Role enumerates a Message's sender (spec.md §3).
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// ToolCall mirrors agent.ToolCallRecord for wire/storage purposes.
type ToolCall struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Arguments string `json:"arguments,omitempty"`
}

// Message is one entry of a ConversationSession's ordered message list
// (spec.md §3).
type Message struct {
	Role       Role       `json:"role"`
	Content    string     `json:"content"`
	ToolCalls  []ToolCall `json:"tool_calls,omitempty"`
	ToolCallID string     `json:"tool_call_id,omitempty"`
	Name       string     `json:"name,omitempty"`
}

// Session is a ConversationSession (spec.md §3): session id (generated if
// absent), agent name, ordered Message list.
type Session struct {
	ID       string    `json:"id"`
	Agent    string    `json:"agent"`
	Messages []Message `json:"messages"`
}

func toAgentMessage(m Message) agent.Message {
	out := agent.Message{Role: string(m.Role), Content: m.Content, ToolCallID: m.ToolCallID, Name: m.Name}
	for _, tc := range m.ToolCalls {
		out.ToolCalls = append(out.ToolCalls, agent.ToolCallRecord{ID: tc.ID, Name: tc.Name, Arguments: tc.Arguments})
	}
	return out
}

func fromAgentMessage(m agent.Message) Message {
	out := Message{Role: Role(m.Role), Content: m.Content, ToolCallID: m.ToolCallID, Name: m.Name}
	for _, tc := range m.ToolCalls {
		out.ToolCalls = append(out.ToolCalls, ToolCall{ID: tc.ID, Name: tc.Name, Arguments: tc.Arguments})
	}
	return out
}
