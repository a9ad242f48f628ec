package registry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/periplon/metis/engine/config"
	"github.com/periplon/metis/engine/core"
	"github.com/periplon/metis/engine/mockengine"
	"github.com/periplon/metis/engine/secret"
	"github.com/periplon/metis/engine/state"
)

func newSnapshotWithGreetTool(t *testing.T) *config.Snapshot {
	t.Helper()
	snap := config.NewSnapshot()
	tool := config.NewToolConfig()
	tool.Name = "greet"
	tool.InputSchema = map[string]any{
		"type":     "object",
		"required": []any{"name"},
		"properties": map[string]any{
			"name": map[string]any{"type": "string"},
		},
	}
	tool.Mock = &config.MockConfig{Strategy: config.StrategyTemplate, Template: "Hello, {{.name}}!"}
	require.NoError(t, snap.RegisterTool(tool))
	return snap
}

func TestToolRegistry_Call(t *testing.T) {
	t.Run("Should render the template strategy for a valid call", func(t *testing.T) {
		snap := newSnapshotWithGreetTool(t)
		eng := mockengine.New(state.New(), secret.New(), nil)
		reg := NewToolRegistry(snap, eng)
		out, err := reg.Call(context.Background(), "greet", map[string]any{"name": "World"})
		require.NoError(t, err)
		assert.Equal(t, "Hello, World!", out)
	})

	t.Run("Should reject a call missing a required argument", func(t *testing.T) {
		snap := newSnapshotWithGreetTool(t)
		eng := mockengine.New(state.New(), secret.New(), nil)
		reg := NewToolRegistry(snap, eng)
		_, err := reg.Call(context.Background(), "greet", map[string]any{})
		require.Error(t, err)
	})

	t.Run("Should report NotFound for an unregistered tool", func(t *testing.T) {
		snap := config.NewSnapshot()
		eng := mockengine.New(state.New(), secret.New(), nil)
		reg := NewToolRegistry(snap, eng)
		_, err := reg.Call(context.Background(), "missing", nil)
		require.Error(t, err)
		var coreErr *core.Error
		require.ErrorAs(t, err, &coreErr)
		assert.Equal(t, core.CodeNotFound, coreErr.Code)
	})

	t.Run("Should return the static value verbatim", func(t *testing.T) {
		snap := config.NewSnapshot()
		tool := config.NewToolConfig()
		tool.Name = "ping"
		tool.InputSchema = map[string]any{"type": "object"}
		tool.HasStatic = true
		tool.StaticValue = map[string]any{"pong": true}
		require.NoError(t, snap.RegisterTool(tool))
		eng := mockengine.New(state.New(), secret.New(), nil)
		reg := NewToolRegistry(snap, eng)
		out, err := reg.Call(context.Background(), "ping", map[string]any{})
		require.NoError(t, err)
		assert.Equal(t, map[string]any{"pong": true}, out)
	})
}

func TestResourceRegistry_Read(t *testing.T) {
	t.Run("Should find a resource by its URI", func(t *testing.T) {
		snap := config.NewSnapshot()
		res := config.NewResourceConfig()
		res.Name = "readme"
		res.URI = "file:///readme.md"
		res.Content = "hello"
		require.NoError(t, snap.RegisterResource(res))
		reg := NewResourceRegistry(snap)
		got, err := reg.Read("file:///readme.md")
		require.NoError(t, err)
		assert.Equal(t, "hello", got.Content)
	})

	t.Run("Should report NotFound for an unknown URI", func(t *testing.T) {
		reg := NewResourceRegistry(config.NewSnapshot())
		_, err := reg.Read("file:///missing.md")
		require.Error(t, err)
	})
}

func TestPromptRegistry_Get(t *testing.T) {
	t.Run("Should render the prompt template with args", func(t *testing.T) {
		snap := config.NewSnapshot()
		p := config.NewPromptConfig()
		p.Name = "welcome"
		p.Template = "Welcome, {{.name}}!"
		require.NoError(t, snap.RegisterPrompt(p))
		reg := NewPromptRegistry(snap)
		msgs, err := reg.Get("welcome", map[string]any{"name": "Ada"})
		require.NoError(t, err)
		require.Len(t, msgs, 1)
		assert.Equal(t, "user", msgs[0].Role)
		assert.Equal(t, "Welcome, Ada!", msgs[0].Content)
	})
}
