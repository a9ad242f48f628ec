package orchestration

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/periplon/metis/engine/config"
)

type stubRunner struct {
	calls []string
	fail  map[string]bool
}

func (s *stubRunner) RunCollect(_ context.Context, agentName string, input map[string]any, _ string) (map[string]any, error) {
	s.calls = append(s.calls, agentName)
	if s.fail[agentName] {
		return nil, fmt.Errorf("agent %q failed", agentName)
	}
	out := map[string]any{"agent": agentName}
	for k, v := range input {
		out[k] = v
	}
	return out, nil
}

func newTestSnapshot() *config.Snapshot {
	snap := config.NewSnapshot()
	snap.Orchestrations["pipeline"] = &config.OrchestrationConfig{
		Name: "pipeline", Kind: config.OrchestrationSequential, Agents: []string{"a1", "a2"},
	}
	snap.Orchestrations["team"] = &config.OrchestrationConfig{
		Name: "team", Kind: config.OrchestrationHierarchical, Agents: []string{"lead", "worker"}, Leader: "lead",
	}
	snap.Orchestrations["panel"] = &config.OrchestrationConfig{
		Name: "panel", Kind: config.OrchestrationCollaborative, Agents: []string{"p1", "p2"},
	}
	return snap
}

func TestRuntime_RunSequential_ThreadsOutput(t *testing.T) {
	runner := &stubRunner{}
	rt := New(newTestSnapshot(), runner)
	result, err := rt.Run(context.Background(), "pipeline", map[string]any{"x": 1})
	require.NoError(t, err)
	assert.Equal(t, []string{"a1", "a2"}, runner.calls)
	assert.Equal(t, "a2", result.Final["agent"])
	assert.Equal(t, "a1", result.Final["x"].(map[string]any)["agent"])
}

func TestRuntime_RunSequential_StopsOnError(t *testing.T) {
	runner := &stubRunner{fail: map[string]bool{"a1": true}}
	rt := New(newTestSnapshot(), runner)
	_, err := rt.Run(context.Background(), "pipeline", map[string]any{})
	require.Error(t, err)
	assert.Equal(t, []string{"a1"}, runner.calls)
}

func TestRuntime_RunHierarchical_LeaderRunsTwice(t *testing.T) {
	runner := &stubRunner{}
	rt := New(newTestSnapshot(), runner)
	result, err := rt.Run(context.Background(), "team", map[string]any{})
	require.NoError(t, err)
	assert.Equal(t, []string{"lead", "worker", "lead"}, runner.calls)
	assert.Equal(t, "lead", result.Final["agent"])
}

func TestRuntime_RunCollaborative_AggregatesAllOutputs(t *testing.T) {
	runner := &stubRunner{}
	rt := New(newTestSnapshot(), runner)
	result, err := rt.Run(context.Background(), "panel", map[string]any{})
	require.NoError(t, err)
	assert.Len(t, result.Final, 2)
	assert.Contains(t, result.Final, "p1")
	assert.Contains(t, result.Final, "p2")
}

func TestRuntime_Run_UnknownOrchestration(t *testing.T) {
	rt := New(newTestSnapshot(), &stubRunner{})
	_, err := rt.Run(context.Background(), "missing", map[string]any{})
	require.Error(t, err)
}
