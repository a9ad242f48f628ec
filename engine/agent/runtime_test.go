package agent

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/periplon/metis/engine/config"
	"github.com/periplon/metis/engine/core"
	"github.com/periplon/metis/engine/llm"
	"github.com/periplon/metis/engine/mcpclient"
	"github.com/periplon/metis/engine/mockengine"
	"github.com/periplon/metis/engine/registry"
	"github.com/periplon/metis/engine/secret"
	"github.com/periplon/metis/engine/state"
)

type memStore struct {
	sessions map[string][]Message
}

func newMemStore() *memStore { return &memStore{sessions: map[string][]Message{}} }

func (m *memStore) Load(_ context.Context, sessionID string) ([]Message, error) {
	return m.sessions[sessionID], nil
}

func (m *memStore) Append(_ context.Context, sessionID string, messages ...Message) error {
	m.sessions[sessionID] = append(m.sessions[sessionID], messages...)
	return nil
}

func newTestRuntime(t *testing.T, sessions SessionStore) (*Runtime, *config.Snapshot) {
	t.Helper()
	snap := config.NewSnapshot()
	eng := mockengine.New(state.New(), secret.New(), nil)
	tools := registry.NewToolRegistry(snap, eng)
	resources := registry.NewResourceRegistry(snap)
	llmClient := llm.New(secret.New())
	return New(snap, llmClient, tools, resources, mcpclient.NewManager(), sessions), snap
}

func TestRuntime_SingleTurn(t *testing.T) {
	t.Run("Should complete once against the mock provider with no history", func(t *testing.T) {
		rt, snap := newTestRuntime(t, nil)
		a := config.NewAgentConfig()
		a.Name = "greeter"
		a.Kind = config.AgentSingleTurn
		a.SystemPrompt = "be terse"
		a.UserPrompt = "say hi to {{.name}}"
		a.Provider = core.ProviderConfig{Provider: core.ProviderMock, Model: "mock-1"}
		snap.Agents[a.Name] = a

		resp, err := rt.Collect(context.Background(), "greeter", map[string]any{"name": "Ada"}, "")
		require.NoError(t, err)
		assert.Equal(t, 1, resp.Iterations)
		assert.Contains(t, resp.Output, "say hi to Ada")
	})
}

func TestRuntime_MultiTurn(t *testing.T) {
	t.Run("Should persist the user and assistant messages into the session store", func(t *testing.T) {
		sessions := newMemStore()
		rt, snap := newTestRuntime(t, sessions)
		a := config.NewAgentConfig()
		a.Name = "chatty"
		a.Kind = config.AgentMultiTurn
		a.SystemPrompt = "chat"
		a.UserPrompt = "{{.message}}"
		a.Provider = core.ProviderConfig{Provider: core.ProviderMock, Model: "mock-1"}
		a.Memory = config.MemoryConfig{Strategy: config.MemoryFull, MaxMessages: 10}
		snap.Agents[a.Name] = a

		_, err := rt.Collect(context.Background(), "chatty", map[string]any{"message": "hello"}, "sess-1")
		require.NoError(t, err)
		require.Len(t, sessions.sessions["sess-1"], 2)
		assert.Equal(t, "user", sessions.sessions["sess-1"][0].Role)
		assert.Equal(t, "assistant", sessions.sessions["sess-1"][1].Role)
	})
}

func TestRuntime_ReAct_NoToolCalls(t *testing.T) {
	t.Run("Should finish in one iteration when the model emits no tool calls", func(t *testing.T) {
		rt, snap := newTestRuntime(t, nil)
		a := config.NewAgentConfig()
		a.Name = "reasoner"
		a.Kind = config.AgentReAct
		a.SystemPrompt = "think"
		a.UserPrompt = "{{.question}}"
		a.MaxIterations = 3
		a.Provider = core.ProviderConfig{Provider: core.ProviderMock, Model: "mock-1"}
		snap.Agents[a.Name] = a

		resp, err := rt.Collect(context.Background(), "reasoner", map[string]any{"question": "2+2?"}, "")
		require.NoError(t, err)
		assert.Equal(t, 1, resp.Iterations)
		assert.Empty(t, resp.ToolCalls)
	})
}

func TestRuntime_UnknownAgent(t *testing.T) {
	t.Run("Should fail with NotFound for an unregistered agent name", func(t *testing.T) {
		rt, _ := newTestRuntime(t, nil)
		_, err := rt.Collect(context.Background(), "ghost", map[string]any{}, "")
		require.Error(t, err)
		var cerr *core.Error
		require.ErrorAs(t, err, &cerr)
		assert.Equal(t, core.CodeNotFound, cerr.Code)
	})
}
