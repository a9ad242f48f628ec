package agent

import (
	"context"
	"fmt"
	"time"

	"github.com/periplon/metis/engine/config"
	"github.com/periplon/metis/engine/llm"
)

// runSingleTurn implements spec.md §4.3.1: one completion request, system +
// user message, no tools, no history persistence.
func (rt *Runtime) runSingleTurn(
	ctx context.Context,
	cfg *config.AgentConfig,
	input map[string]any,
	ch chan<- AgentChunk,
	start time.Time,
) error {
	send(ctx, ch, AgentChunk{Kind: ChunkStatus, Phase: "rendering"})
	system, err := renderPrompt(cfg.SystemPrompt, input)
	if err != nil {
		return err
	}
	user, err := userPromptText(cfg.UserPrompt, input)
	if err != nil {
		return err
	}
	send(ctx, ch, AgentChunk{Kind: ChunkStatus, Phase: "completing"})
	resp, err := rt.LLM.Complete(ctx, llm.Request{
		Provider:     cfg.Provider,
		SystemPrompt: system,
		Messages:     []llm.Message{{Role: "user", Content: user}},
	})
	if err != nil {
		return fmt.Errorf("agent %q: %w", cfg.Name, err)
	}
	send(ctx, ch, AgentChunk{Kind: ChunkText, Delta: resp.Content})
	send(ctx, ch, AgentChunk{Kind: ChunkComplete, Response: &Response{
		Output:          parseIfJSON(resp.Content),
		Iterations:      1,
		ExecutionTimeMs: time.Since(start).Milliseconds(),
	}})
	return nil
}
