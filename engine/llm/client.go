package llm

import (
	"context"
	"fmt"

	"github.com/tmc/langchaingo/llms"

	"github.com/periplon/metis/engine/core"
	"github.com/periplon/metis/engine/secret"
)

// defaultEnvVar names spec.md §6's env var per provider, used as the last
// step of the API-key resolution order when APIKeyEnv is unset.
var defaultEnvVar = map[core.ProviderName]string{
	core.ProviderOpenAI:      "OPENAI_API_KEY",
	core.ProviderAnthropic:   "ANTHROPIC_API_KEY",
	core.ProviderGemini:      "GEMINI_API_KEY",
	core.ProviderAzureOpenAI: "AZURE_OPENAI_API_KEY",
}

// Client resolves a ProviderConfig to a langchaingo model and exposes the
// unified complete/complete_stream contract (spec.md §4.4).
type Client struct {
	Secret secret.Oracle
}

// New returns a Client that resolves API keys through oracle.
func New(oracle secret.Oracle) *Client {
	return &Client{Secret: oracle}
}

// resolveAPIKey implements spec.md §4.4's order: (1) the config's explicit
// api_key field, (2) the Secret Oracle keyed by api_key_env (or the
// provider's default env name), (3) the process environment (already
// covered by the Oracle's own env fallback).
func (c *Client) resolveAPIKey(ctx context.Context, cfg core.ProviderConfig) (string, error) {
	if cfg.APIKey != "" {
		return cfg.APIKey, nil
	}
	if cfg.Provider == core.ProviderOllama || cfg.Provider == core.ProviderMock {
		return "", nil
	}
	key := cfg.APIKeyEnv
	if key == "" {
		key = defaultEnvVar[cfg.Provider]
	}
	if key == "" {
		return "", nil
	}
	if c.Secret == nil {
		return "", core.NewError(
			fmt.Errorf("no secret oracle configured to resolve %s", key),
			core.CodeAuthentication,
			map[string]any{"provider": string(cfg.Provider)},
		)
	}
	val, ok, err := c.Secret.Lookup(ctx, key)
	if err != nil {
		return "", core.NewError(err, core.CodeAuthentication, map[string]any{"key": key})
	}
	if !ok {
		return "", core.NewError(
			fmt.Errorf("no api key found for %s (looked up %q)", cfg.Provider, key),
			core.CodeAuthentication,
			map[string]any{"provider": string(cfg.Provider), "key": key},
		)
	}
	return val, nil
}

func toMessageContent(req Request) []llms.MessageContent {
	msgs := make([]llms.MessageContent, 0, len(req.Messages)+1)
	if req.SystemPrompt != "" {
		msgs = append(msgs, llms.MessageContent{
			Role:  llms.ChatMessageTypeSystem,
			Parts: []llms.ContentPart{llms.TextContent{Text: req.SystemPrompt}},
		})
	}
	for _, m := range req.Messages {
		msgs = append(msgs, toOneMessage(m))
	}
	return msgs
}

func toOneMessage(m Message) llms.MessageContent {
	switch m.Role {
	case "assistant":
		parts := []llms.ContentPart{}
		if m.Content != "" {
			parts = append(parts, llms.TextContent{Text: m.Content})
		}
		for _, tc := range m.ToolCalls {
			parts = append(parts, llms.ToolCall{
				ID:           tc.ID,
				Type:         "function",
				FunctionCall: &llms.FunctionCall{Name: tc.Name, Arguments: tc.Arguments},
			})
		}
		return llms.MessageContent{Role: llms.ChatMessageTypeAI, Parts: parts}
	case "tool":
		return llms.MessageContent{
			Role: llms.ChatMessageTypeTool,
			Parts: []llms.ContentPart{llms.ToolCallResponse{
				ToolCallID: m.ToolCallID,
				Name:       m.Name,
				Content:    m.Content,
			}},
		}
	default:
		return llms.MessageContent{
			Role:  llms.ChatMessageTypeHuman,
			Parts: []llms.ContentPart{llms.TextContent{Text: m.Content}},
		}
	}
}

func toLangchainTools(defs []ToolDefinition) []llms.Tool {
	if len(defs) == 0 {
		return nil
	}
	tools := make([]llms.Tool, 0, len(defs))
	for _, d := range defs {
		tools = append(tools, llms.Tool{
			Type: "function",
			Function: &llms.FunctionDefinition{
				Name:        d.Name,
				Description: d.Description,
				Parameters:  d.Parameters,
			},
		})
	}
	return tools
}

func normalizeFinishReason(reason string) FinishReason {
	switch reason {
	case "stop", "end_turn", "STOP":
		return FinishStop
	case "length", "max_tokens", "MAX_TOKENS":
		return FinishLength
	case "tool_calls", "function_call", "tool_use":
		return FinishToolCalls
	case "content_filter", "SAFETY":
		return FinishContentFilter
	default:
		return FinishStop
	}
}

func toResponse(resp *llms.ContentResponse) *Response {
	if len(resp.Choices) == 0 {
		return &Response{FinishReason: FinishStop}
	}
	choice := resp.Choices[0]
	out := &Response{Content: choice.Content, FinishReason: normalizeFinishReason(choice.StopReason)}
	for _, tc := range choice.ToolCalls {
		if tc.FunctionCall == nil {
			continue
		}
		out.ToolCalls = append(out.ToolCalls, ToolCall{
			ID:        tc.ID,
			Name:      tc.FunctionCall.Name,
			Arguments: tc.FunctionCall.Arguments,
		})
	}
	if len(out.ToolCalls) > 0 && out.FinishReason == FinishStop {
		out.FinishReason = FinishToolCalls
	}
	// langchaingo's ContentResponse carries no usage accounting, so Usage
	// stays nil here; spec.md §4.4 marks usage as best-effort/back-end-
	// dependent, so callers must treat a nil Usage as "unavailable."
	return out
}

// Complete implements the non-streaming `complete(req)` contract.
func (c *Client) Complete(ctx context.Context, req Request) (*Response, error) {
	apiKey, err := c.resolveAPIKey(ctx, req.Provider)
	if err != nil {
		return nil, err
	}
	model, err := newModel(req.Provider, apiKey)
	if err != nil {
		return nil, core.NewError(err, core.CodeConfiguration, nil)
	}
	opts := callOptions(req)
	resp, err := model.GenerateContent(ctx, toMessageContent(req), opts...)
	if err != nil {
		return nil, core.NewError(fmt.Errorf("llm completion failed: %w", err), core.CodeAPI, nil)
	}
	return toResponse(resp), nil
}

func callOptions(req Request) []llms.CallOption {
	var opts []llms.CallOption
	p := req.Provider.Params
	if p.MaxTokens > 0 {
		opts = append(opts, llms.WithMaxTokens(int(p.MaxTokens)))
	}
	if p.Temperature > 0 {
		opts = append(opts, llms.WithTemperature(p.Temperature))
	}
	if p.TopP > 0 {
		opts = append(opts, llms.WithTopP(p.TopP))
	}
	if len(p.Stop) > 0 {
		opts = append(opts, llms.WithStopWords(p.Stop))
	}
	if tools := toLangchainTools(req.Tools); tools != nil {
		opts = append(opts, llms.WithTools(tools))
	}
	return opts
}

// CompleteStream implements the streaming `complete_stream(req)` contract.
// langchaingo's streaming hook only yields raw content bytes, so tool-call
// deltas are not available incrementally: they are emitted as a single
// delta per call once the final ContentResponse is known, immediately
// before the terminal chunk carrying finish_reason/usage (spec.md §4.4
// leaves the chunking granularity of tool-call arguments
// implementation-defined, so a single terminal delta per call satisfies
// the contract's accumulate-by-index requirement).
func (c *Client) CompleteStream(ctx context.Context, req Request, onChunk func(StreamChunk) error) error {
	apiKey, err := c.resolveAPIKey(ctx, req.Provider)
	if err != nil {
		return err
	}
	model, err := newModel(req.Provider, apiKey)
	if err != nil {
		return core.NewError(err, core.CodeConfiguration, nil)
	}
	opts := callOptions(req)
	opts = append(opts, llms.WithStreamingFunc(func(_ context.Context, chunk []byte) error {
		if len(chunk) == 0 {
			return nil
		}
		return onChunk(StreamChunk{ContentDelta: string(chunk)})
	}))
	resp, err := model.GenerateContent(ctx, toMessageContent(req), opts...)
	if err != nil {
		return core.NewError(fmt.Errorf("llm stream failed: %w", err), core.CodeStreaming, nil)
	}
	out := toResponse(resp)
	if len(out.ToolCalls) > 0 {
		deltas := make([]ToolCallDelta, 0, len(out.ToolCalls))
		for i, tc := range out.ToolCalls {
			deltas = append(deltas, ToolCallDelta{Index: i, ID: tc.ID, Name: tc.Name, ArgumentsDelta: tc.Arguments})
		}
		if err := onChunk(StreamChunk{ToolCallDeltas: deltas}); err != nil {
			return err
		}
	}
	return onChunk(StreamChunk{FinishReason: out.FinishReason, Usage: out.Usage})
}
