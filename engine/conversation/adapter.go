package conversation

import (
	"context"

	"github.com/periplon/metis/engine/agent"
)

// AgentAdapter satisfies agent.SessionStore's narrower (session id) ->
// message-list contract by converting to/from this package's Message
// shape, so the Agent Runtime never needs to import engine/conversation
// directly (avoiding a dependency from the lower-level runtime onto its
// own persistence backend).
type AgentAdapter struct {
	Store Store
}

func NewAgentAdapter(store Store) *AgentAdapter {
	return &AgentAdapter{Store: store}
}

func (a *AgentAdapter) Load(ctx context.Context, sessionID string) ([]agent.Message, error) {
	messages, err := a.Store.Load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	out := make([]agent.Message, 0, len(messages))
	for _, m := range messages {
		out = append(out, toAgentMessage(m))
	}
	return out, nil
}

func (a *AgentAdapter) Append(ctx context.Context, sessionID string, messages ...agent.Message) error {
	converted := make([]Message, 0, len(messages))
	for _, m := range messages {
		converted = append(converted, fromAgentMessage(m))
	}
	return a.Store.Append(ctx, sessionID, converted...)
}
