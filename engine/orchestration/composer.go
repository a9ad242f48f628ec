package orchestration

import (
	"context"
	"fmt"
	"sync"

	"github.com/periplon/metis/engine/config"
	"github.com/periplon/metis/engine/core"
)

// Runtime executes Orchestrations against a ConfigSnapshot's orchestration
// definitions, composing Agent runs through an AgentRunner.
type Runtime struct {
	Snapshot *config.Snapshot
	Agents   AgentRunner
}

func New(snapshot *config.Snapshot, agents AgentRunner) *Runtime {
	return &Runtime{Snapshot: snapshot, Agents: agents}
}

// Run executes orchestrationName's composition (spec.md §15) against input,
// returning every step's result and the run's final output.
func (rt *Runtime) Run(ctx context.Context, orchestrationName string, input map[string]any) (*Result, error) {
	cfg, ok := rt.Snapshot.Orchestrations[orchestrationName]
	if !ok {
		return nil, core.NewError(fmt.Errorf("unknown orchestration %q", orchestrationName), core.CodeNotFound, nil)
	}
	sessionID, err := core.NewID()
	if err != nil {
		return nil, fmt.Errorf("minting orchestration run session id: %w", err)
	}
	switch cfg.Kind {
	case config.OrchestrationSequential:
		return rt.runSequential(ctx, cfg, input, sessionID.String())
	case config.OrchestrationHierarchical:
		return rt.runHierarchical(ctx, cfg, input, sessionID.String())
	case config.OrchestrationCollaborative:
		return rt.runCollaborative(ctx, cfg, input, sessionID.String())
	default:
		return nil, core.NewError(fmt.Errorf("orchestration %q: unknown kind %q", cfg.Name, cfg.Kind), core.CodeInvalidRequest, nil)
	}
}

// runSequential threads each agent's output into the next agent's input
// (spec.md §15: sequential composition), stopping at the first error.
func (rt *Runtime) runSequential(
	ctx context.Context, cfg *config.OrchestrationConfig, input map[string]any, sessionID string,
) (*Result, error) {
	result := &Result{Orchestration: cfg.Name, Kind: cfg.Kind}
	current := input
	for _, agentName := range cfg.Agents {
		out, err := rt.Agents.RunCollect(ctx, agentName, current, sessionID)
		if err != nil {
			result.Steps = append(result.Steps, StepResult{Agent: agentName, Err: err.Error()})
			return result, err
		}
		result.Steps = append(result.Steps, StepResult{Agent: agentName, Output: out})
		current = out
	}
	result.Final = current
	return result, nil
}

// runHierarchical runs cfg.Leader first to produce a delegation decision,
// then runs every other listed agent with the leader's output merged into
// their input, and finally re-runs the leader over the collected results to
// synthesize a final answer (spec.md §15: hierarchical composition).
func (rt *Runtime) runHierarchical(
	ctx context.Context, cfg *config.OrchestrationConfig, input map[string]any, sessionID string,
) (*Result, error) {
	result := &Result{Orchestration: cfg.Name, Kind: cfg.Kind}
	leaderOut, err := rt.Agents.RunCollect(ctx, cfg.Leader, input, sessionID)
	if err != nil {
		result.Steps = append(result.Steps, StepResult{Agent: cfg.Leader, Err: err.Error()})
		return result, err
	}
	result.Steps = append(result.Steps, StepResult{Agent: cfg.Leader, Output: leaderOut})

	delegateInput := mergeInputs(input, leaderOut)
	collected := map[string]any{}
	for _, agentName := range cfg.Agents {
		if agentName == cfg.Leader {
			continue
		}
		out, err := rt.Agents.RunCollect(ctx, agentName, delegateInput, sessionID)
		if err != nil {
			result.Steps = append(result.Steps, StepResult{Agent: agentName, Err: err.Error()})
			return result, err
		}
		result.Steps = append(result.Steps, StepResult{Agent: agentName, Output: out})
		collected[agentName] = out
	}

	synthesisInput := mergeInputs(input, map[string]any{"delegate_results": collected})
	finalOut, err := rt.Agents.RunCollect(ctx, cfg.Leader, synthesisInput, sessionID)
	if err != nil {
		result.Steps = append(result.Steps, StepResult{Agent: cfg.Leader, Err: err.Error()})
		return result, err
	}
	result.Steps = append(result.Steps, StepResult{Agent: cfg.Leader, Output: finalOut})
	result.Final = finalOut
	return result, nil
}

// runCollaborative runs every listed agent concurrently against the same
// input and aggregates their outputs keyed by agent name (spec.md §15:
// collaborative composition).
func (rt *Runtime) runCollaborative(
	ctx context.Context, cfg *config.OrchestrationConfig, input map[string]any, sessionID string,
) (*Result, error) {
	result := &Result{Orchestration: cfg.Name, Kind: cfg.Kind}
	steps := make([]StepResult, len(cfg.Agents))
	var wg sync.WaitGroup
	for i, agentName := range cfg.Agents {
		wg.Add(1)
		go func(i int, agentName string) {
			defer wg.Done()
			out, err := rt.Agents.RunCollect(ctx, agentName, input, sessionID)
			if err != nil {
				steps[i] = StepResult{Agent: agentName, Err: err.Error()}
				return
			}
			steps[i] = StepResult{Agent: agentName, Output: out}
		}(i, agentName)
	}
	wg.Wait()

	final := map[string]any{}
	var firstErr error
	for _, s := range steps {
		result.Steps = append(result.Steps, s)
		if s.Err != "" {
			if firstErr == nil {
				firstErr = fmt.Errorf("agent %q: %s", s.Agent, s.Err)
			}
			continue
		}
		final[s.Agent] = s.Output
	}
	if firstErr != nil {
		return result, firstErr
	}
	result.Final = final
	return result, nil
}

func mergeInputs(base map[string]any, extra map[string]any) map[string]any {
	merged := make(map[string]any, len(base)+len(extra))
	for k, v := range base {
		merged[k] = v
	}
	for k, v := range extra {
		merged[k] = v
	}
	return merged
}
