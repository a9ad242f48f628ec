package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/llms"
)

// mockModel is a deterministic llms.Model used by Provider "mock" (tests and
// local development without a real back-end credential), grounded on the
// teacher's engine/core/provider.go MockLLM.
type mockModel struct {
	model string
}

func newMockModel(model string) *mockModel {
	return &mockModel{model: model}
}

func (m *mockModel) GenerateContent(
	_ context.Context,
	messages []llms.MessageContent,
	_ ...llms.CallOption,
) (*llms.ContentResponse, error) {
	var prompt string
	for _, message := range messages {
		if message.Role != llms.ChatMessageTypeHuman {
			continue
		}
		for _, part := range message.Parts {
			if text, ok := part.(llms.TextContent); ok {
				prompt = text.Text
			}
		}
	}
	responseText := "mock agent response: task completed successfully"
	if prompt != "" {
		responseText = fmt.Sprintf("mock response for: %s", strings.TrimSpace(prompt))
	}
	return &llms.ContentResponse{
		Choices: []*llms.ContentChoice{{Content: responseText, StopReason: "stop"}},
	}, nil
}
