// Package llm implements Component 9 (LLM Provider Abstraction): a unified
// streaming + non-streaming contract over the five required back-ends
// (spec.md §4.4), built on the teacher's tmc/langchaingo llms.Model
// abstraction (engine/core/provider.go's CreateLLM factory, generalized
// here from the teacher's 8-provider set to spec.md's 5).
package llm

import (
	"fmt"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/anthropic"
	"github.com/tmc/langchaingo/llms/googleai"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"

	"github.com/periplon/metis/engine/core"
)

// ToolCallDelta is one incremental fragment of a streamed tool call
// (spec.md §4.4): the first delta for an index carries id and name, later
// deltas for the same index carry incremental argument JSON text.
type ToolCallDelta struct {
	Index          int    `json:"index"`
	ID             string `json:"id,omitempty"`
	Name           string `json:"name,omitempty"`
	ArgumentsDelta string `json:"arguments_delta,omitempty"`
}

// FinishReason normalizes every back-end's stop-reason vocabulary.
type FinishReason string

const (
	FinishStop          FinishReason = "stop"
	FinishLength        FinishReason = "length"
	FinishToolCalls     FinishReason = "tool_calls"
	FinishContentFilter FinishReason = "content_filter"
)

// Usage reports token accounting, when the back-end provides it.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens,omitempty"`
	CompletionTokens int `json:"completion_tokens,omitempty"`
	TotalTokens      int `json:"total_tokens,omitempty"`
}

// StreamChunk is one unit of a CompleteStream callback (spec.md §4.4).
type StreamChunk struct {
	ContentDelta   string          `json:"content_delta,omitempty"`
	ToolCallDeltas []ToolCallDelta `json:"tool_call_deltas,omitempty"`
	FinishReason   FinishReason    `json:"finish_reason,omitempty"`
	Usage          *Usage          `json:"usage,omitempty"`
}

// ToolCall is one fully-accumulated tool invocation request from the model.
type ToolCall struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

// Response is the `complete(req)` return value (spec.md §4.4).
type Response struct {
	Content      string       `json:"content"`
	ToolCalls    []ToolCall   `json:"tool_calls,omitempty"`
	FinishReason FinishReason `json:"finish_reason"`
	Usage        *Usage       `json:"usage,omitempty"`
}

// ToolDefinition is a tool exposed to the model for function calling.
type ToolDefinition struct {
	Name        string
	Description string
	Parameters  map[string]any
}

// Request is the unified `complete`/`complete_stream` request envelope.
type Request struct {
	Provider     core.ProviderConfig
	SystemPrompt string
	Messages     []Message
	Tools        []ToolDefinition
}

// Message is one entry of Request.Messages, in the unified Message shape
// spec.md §3 describes for ConversationSession.
type Message struct {
	Role       string
	Content    string
	ToolCalls  []ToolCall
	ToolCallID string
	Name       string
}

// newModel builds a langchaingo llms.Model for cfg's provider, resolving
// credentials via resolveAPIKey. Azure-OpenAI routes through the OpenAI
// wire format with a deployment-qualified base URL, per spec.md §4.4.
func newModel(cfg core.ProviderConfig, apiKey string) (llms.Model, error) {
	switch cfg.Provider {
	case core.ProviderOpenAI, core.ProviderAzureOpenAI:
		opts := []openai.Option{openai.WithModel(cfg.Model)}
		if apiKey != "" {
			opts = append(opts, openai.WithToken(apiKey))
		}
		if cfg.BaseURL != "" {
			opts = append(opts, openai.WithBaseURL(cfg.BaseURL))
		}
		return openai.New(opts...)
	case core.ProviderAnthropic:
		opts := []anthropic.Option{anthropic.WithModel(cfg.Model)}
		if apiKey != "" {
			opts = append(opts, anthropic.WithToken(apiKey))
		}
		return anthropic.New(opts...)
	case core.ProviderGemini:
		opts := []googleai.Option{googleai.WithDefaultModel(cfg.Model)}
		if apiKey != "" {
			opts = append(opts, googleai.WithAPIKey(apiKey))
		}
		return googleai.New(nil, opts...)
	case core.ProviderOllama:
		opts := []ollama.Option{ollama.WithModel(cfg.Model)}
		if cfg.BaseURL != "" {
			opts = append(opts, ollama.WithServerURL(cfg.BaseURL))
		}
		return ollama.New(opts...)
	case core.ProviderMock:
		return newMockModel(cfg.Model), nil
	default:
		return nil, fmt.Errorf("unsupported llm provider: %s", cfg.Provider)
	}
}
