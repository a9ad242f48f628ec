package agent

import (
	"context"
	"fmt"
	"time"

	"github.com/periplon/metis/engine/config"
	"github.com/periplon/metis/engine/llm"
)

// runMultiTurn implements spec.md §4.3.2: load-or-create the session,
// append the new user message, build a request with system + windowed
// history per memory strategy, persist the updated session with the
// assistant reply.
func (rt *Runtime) runMultiTurn(
	ctx context.Context,
	cfg *config.AgentConfig,
	input map[string]any,
	sessionID string,
	ch chan<- AgentChunk,
	start time.Time,
) error {
	if sessionID == "" {
		return fmt.Errorf("agent %q: multi_turn requires a session_id", cfg.Name)
	}
	var history []Message
	if rt.Sessions != nil {
		var err error
		history, err = rt.Sessions.Load(ctx, sessionID)
		if err != nil {
			return fmt.Errorf("agent %q: loading session %q: %w", cfg.Name, sessionID, err)
		}
	}
	send(ctx, ch, AgentChunk{Kind: ChunkStatus, Phase: "rendering"})
	system, err := renderPrompt(cfg.SystemPrompt, input)
	if err != nil {
		return err
	}
	userText, err := userPromptText(cfg.UserPrompt, input)
	if err != nil {
		return err
	}
	userMsg := Message{Role: "user", Content: userText}
	windowed := windowHistory(history, cfg.Memory)

	req := llm.Request{Provider: cfg.Provider, SystemPrompt: system}
	for _, m := range windowed {
		req.Messages = append(req.Messages, toLLMMessage(m))
	}
	req.Messages = append(req.Messages, toLLMMessage(userMsg))

	send(ctx, ch, AgentChunk{Kind: ChunkStatus, Phase: "completing"})
	resp, err := rt.LLM.Complete(ctx, req)
	if err != nil {
		return fmt.Errorf("agent %q: %w", cfg.Name, err)
	}
	assistantMsg := Message{Role: "assistant", Content: resp.Content}
	if rt.Sessions != nil {
		if err := rt.Sessions.Append(ctx, sessionID, userMsg, assistantMsg); err != nil {
			return fmt.Errorf("agent %q: persisting session %q: %w", cfg.Name, sessionID, err)
		}
	}
	send(ctx, ch, AgentChunk{Kind: ChunkText, Delta: resp.Content})
	send(ctx, ch, AgentChunk{Kind: ChunkComplete, Response: &Response{
		Output:          parseIfJSON(resp.Content),
		SessionID:       sessionID,
		Iterations:      1,
		ExecutionTimeMs: time.Since(start).Milliseconds(),
	}})
	return nil
}

func toLLMMessage(m Message) llm.Message {
	out := llm.Message{Role: m.Role, Content: m.Content, ToolCallID: m.ToolCallID, Name: m.Name}
	for _, tc := range m.ToolCalls {
		out.ToolCalls = append(out.ToolCalls, llm.ToolCall{ID: tc.ID, Name: tc.Name, Arguments: tc.Arguments})
	}
	return out
}
