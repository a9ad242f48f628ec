package llm

import (
	"context"

	"github.com/periplon/metis/engine/core"
)

// MockEngineAdapter satisfies mockengine.LLMClient's narrower
// (provider, model, systemPrompt, userContent) -> text contract, so a
// single Client serves both the Agent Runtime's rich Request/Response
// shape and the Mock Strategy Engine's LLM strategy.
type MockEngineAdapter struct {
	Client *Client
}

func NewMockEngineAdapter(c *Client) *MockEngineAdapter {
	return &MockEngineAdapter{Client: c}
}

func (a *MockEngineAdapter) Complete(ctx context.Context, provider, model, systemPrompt, userContent string) (string, error) {
	resp, err := a.Client.Complete(ctx, Request{
		Provider:     core.ProviderConfig{Provider: core.ProviderName(provider), Model: model},
		SystemPrompt: systemPrompt,
		Messages:     []Message{{Role: "user", Content: userContent}},
	})
	if err != nil {
		return "", err
	}
	return resp.Content, nil
}
