package mockengine

import (
	"context"
	"fmt"

	"github.com/periplon/metis/engine/config"
	"github.com/periplon/metis/engine/core"
)

// llmGenerate calls the configured LLM provider with args rendered into
// cfg.UserPrompt as user content (spec.md §4.1's LLM strategy).
func (e *Engine) llmGenerate(ctx context.Context, cfg *config.MockConfig, args map[string]any) (any, error) {
	if e.LLM == nil {
		return nil, core.NewError(fmt.Errorf("llm strategy used but no LLM client is configured"), core.CodeStrategyFailure, nil)
	}
	userContent := cfg.UserPrompt
	if userContent != "" {
		rendered, err := renderTemplate(userContent, args)
		if err != nil {
			return nil, err
		}
		userContent = rendered
	}
	text, err := e.LLM.Complete(ctx, cfg.Provider, cfg.Model, cfg.SystemPrompt, userContent)
	if err != nil {
		return nil, core.NewError(fmt.Errorf("llm strategy call failed: %w", err), core.CodeStrategyFailure, nil)
	}
	return parseIfJSON(text), nil
}
