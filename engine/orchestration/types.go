// Package orchestration implements Component 15 (Orchestration, spec.md
// §15): sequential, hierarchical, and collaborative composition of Agent
// runs. Orchestration scheduling (optional cron triggers) has no
// original_source/ precedent — original_source/ has no cron-like
// scheduler at all — and is a pack-only addition per SPEC_FULL.md §11,
// grounded on github.com/robfig/cron/v3.
package orchestration

import (
	"context"

	"github.com/periplon/metis/engine/config"
)

// AgentRunner is the minimal contract a Runtime composes agents through,
// decoupled from engine/agent.Runtime the same way engine/mcpserver's
// AgentRunner and engine/agent's SessionStore are: a local interface
// naming only what this package calls.
type AgentRunner interface {
	RunCollect(ctx context.Context, agentName string, input map[string]any, sessionID string) (map[string]any, error)
}

// StepResult is one agent's contribution to an Orchestration run.
type StepResult struct {
	Agent  string         `json:"agent"`
	Output map[string]any `json:"output"`
	Err    string         `json:"error,omitempty"`
}

// Result is an Orchestration run's full outcome.
type Result struct {
	Orchestration string                 `json:"orchestration"`
	Kind          config.OrchestrationKind `json:"kind"`
	Steps         []StepResult           `json:"steps"`
	Final         map[string]any         `json:"final"`
}
