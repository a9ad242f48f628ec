package agent

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/periplon/metis/engine/config"
	"github.com/periplon/metis/engine/llm"
)

// runReAct implements spec.md §4.3.3: iterate up to max_iterations,
// streaming each completion and accumulating tool-call deltas by index,
// executing tools between iterations until the model answers without
// calling any.
func (rt *Runtime) runReAct(
	ctx context.Context,
	cfg *config.AgentConfig,
	input map[string]any,
	sessionID string,
	ch chan<- AgentChunk,
	start time.Time,
) error {
	var history []Message
	if sessionID != "" && rt.Sessions != nil {
		var err error
		history, err = rt.Sessions.Load(ctx, sessionID)
		if err != nil {
			return fmt.Errorf("agent %q: loading session %q: %w", cfg.Name, sessionID, err)
		}
	}
	system, err := renderPrompt(cfg.SystemPrompt, input)
	if err != nil {
		return err
	}
	userText, err := userPromptText(cfg.UserPrompt, input)
	if err != nil {
		return err
	}
	windowed := windowHistory(history, cfg.Memory)
	turn := []Message{{Role: "user", Content: userText}}

	tools := rt.availableTools(cfg)
	var allToolCalls []ToolCallRecord
	var reasoning []string
	var lastUsage *llm.Usage

	maxIter := cfg.MaxIterations
	if maxIter <= 0 {
		maxIter = 1
	}
	var finalContent string
	actualIter := 0
	for iter := 1; iter <= maxIter; iter++ {
		actualIter = iter
		send(ctx, ch, AgentChunk{Kind: ChunkStatus, Phase: fmt.Sprintf("iteration_%d", iter)})
		req := llm.Request{Provider: cfg.Provider, SystemPrompt: system, Tools: tools}
		for _, m := range windowed {
			req.Messages = append(req.Messages, toLLMMessage(m))
		}
		for _, m := range turn {
			req.Messages = append(req.Messages, toLLMMessage(m))
		}

		var content string
		calls := map[int]*ToolCallRecord{}
		var order []int
		err := rt.LLM.CompleteStream(ctx, req, func(c llm.StreamChunk) error {
			if c.ContentDelta != "" {
				content += c.ContentDelta
				send(ctx, ch, AgentChunk{Kind: ChunkText, Delta: c.ContentDelta})
			}
			for _, d := range c.ToolCallDeltas {
				rec, ok := calls[d.Index]
				if !ok {
					rec = &ToolCallRecord{}
					calls[d.Index] = rec
					order = append(order, d.Index)
				}
				if d.ID != "" {
					rec.ID = d.ID
				}
				if d.Name != "" {
					rec.Name = d.Name
				}
				rec.Arguments += d.ArgumentsDelta
			}
			if c.Usage != nil {
				lastUsage = c.Usage
			}
			return nil
		})
		if err != nil {
			return fmt.Errorf("agent %q: iteration %d: %w", cfg.Name, iter, err)
		}
		sort.Ints(order)

		if len(order) == 0 {
			finalContent = content
			turn = append(turn, Message{Role: "assistant", Content: content})
			break
		}

		reasoning = append(reasoning, content)
		assistantMsg := Message{Role: "assistant", Content: content}
		for _, idx := range order {
			assistantMsg.ToolCalls = append(assistantMsg.ToolCalls, *calls[idx])
		}
		turn = append(turn, assistantMsg)

		for _, idx := range order {
			rec := calls[idx]
			send(ctx, ch, AgentChunk{Kind: ChunkToolCall, ToolCall: rec})
			args, _ := parseIfJSON(rec.Arguments).(map[string]any)
			result, callErr := rt.routeToolCall(ctx, cfg, rec.Name, args)
			recorded := *rec
			if callErr != nil {
				recorded.Error = callErr.Error()
			} else {
				recorded.Result = result
			}
			allToolCalls = append(allToolCalls, recorded)
			send(ctx, ch, AgentChunk{Kind: ChunkToolResult, ToolCall: &recorded})
			toolMsgContent := recorded.Result
			if callErr != nil {
				toolMsgContent = fmt.Sprintf("error: %s", callErr.Error())
			}
			turn = append(turn, Message{Role: "tool", ToolCallID: rec.ID, Name: rec.Name, Content: toolMsgContent})
		}
		if iter == maxIter {
			finalContent = content
		}
	}

	if sessionID != "" && rt.Sessions != nil {
		if err := rt.Sessions.Append(ctx, sessionID, turn...); err != nil {
			return fmt.Errorf("agent %q: persisting session %q: %w", cfg.Name, sessionID, err)
		}
	}
	send(ctx, ch, AgentChunk{Kind: ChunkComplete, Response: &Response{
		Output:          parseIfJSON(finalContent),
		ToolCalls:       allToolCalls,
		ReasoningSteps:  reasoning,
		SessionID:       sessionID,
		Iterations:      actualIter,
		Usage:           lastUsage,
		ExecutionTimeMs: time.Since(start).Milliseconds(),
	}})
	return nil
}
