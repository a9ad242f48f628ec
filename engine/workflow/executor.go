// Package workflow implements Component 8 (Workflow Engine): a DAG executor
// over WorkflowConfig's ordered steps, with conditions and loop_over
// expressions evaluated through engine/cel and per-step error policies
// (spec.md §4.2).
package workflow

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/periplon/metis/engine/cel"
	"github.com/periplon/metis/engine/config"
	"github.com/periplon/metis/engine/registry"
)

// StepResult is one entry of a workflow run's `results` array (spec.md §4.2).
type StepResult struct {
	ID      string `json:"id"`
	Success bool   `json:"success"`
	Skipped bool   `json:"skipped,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Result is the `execute(workflow, input)` return value (spec.md §4.2).
type Result struct {
	Success bool            `json:"success"`
	Steps   map[string]any  `json:"steps"`
	Results []StepResult    `json:"results"`
}

// Executor runs WorkflowConfig graphs against the tool registry.
type Executor struct {
	Tools *registry.ToolRegistry
}

func New(tools *registry.ToolRegistry) *Executor {
	return &Executor{Tools: tools}
}

// Execute runs wf to completion per spec.md §4.2's algorithm: topological
// levels execute in order, steps within a level run concurrently, and a
// Fail error policy short-circuits scheduling of further levels.
func (e *Executor) Execute(ctx context.Context, wf *config.WorkflowConfig, input map[string]any) (*Result, error) {
	levels, err := topologicalLevels(wf.Steps)
	if err != nil {
		return nil, err
	}
	stepByID := make(map[string]*config.WorkflowStep, len(wf.Steps))
	for i := range wf.Steps {
		stepByID[wf.Steps[i].ID] = &wf.Steps[i]
	}

	renderCtx := map[string]any{"input": input, "steps": map[string]any{}}
	steps := renderCtx["steps"].(map[string]any)
	result := &Result{Success: true, Steps: steps}

	halted := false
	for _, level := range levels {
		if halted {
			for _, id := range level {
				result.Results = append(result.Results, StepResult{ID: id, Skipped: true})
			}
			continue
		}
		outcomes := e.runLevel(ctx, level, stepByID, renderCtx)
		for _, id := range level {
			o := outcomes[id]
			result.Results = append(result.Results, o.StepResult)
			steps[id] = o.Output
			if !o.Success && !o.Skipped {
				result.Success = false
				if o.Fail {
					halted = true
				}
			}
		}
	}
	return result, nil
}

type stepOutcome struct {
	StepResult
	Output any
	Fail   bool
}

func (e *Executor) runLevel(
	ctx context.Context,
	level []string,
	stepByID map[string]*config.WorkflowStep,
	renderCtx map[string]any,
) map[string]stepOutcome {
	outcomes := make(map[string]stepOutcome, len(level))
	var mu sync.Mutex
	var wg sync.WaitGroup
	for _, id := range level {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			o := e.runStep(ctx, stepByID[id], renderCtx)
			mu.Lock()
			outcomes[id] = o
			mu.Unlock()
		}(id)
	}
	wg.Wait()
	return outcomes
}

func (e *Executor) runStep(ctx context.Context, step *config.WorkflowStep, renderCtx map[string]any) stepOutcome {
	if step.Condition != "" {
		ok, err := cel.EvalBool(ctx, step.Condition, renderCtx)
		if err != nil {
			return failOutcome(step.ID, err)
		}
		if !ok {
			return stepOutcome{StepResult: StepResult{ID: step.ID, Success: true, Skipped: true}}
		}
	}
	if step.LoopOver != "" {
		return e.runLoopStep(ctx, step, renderCtx)
	}
	return e.runWithPolicy(ctx, step, func() (any, error) {
		return e.invokeTool(ctx, step, renderCtx)
	})
}

func (e *Executor) invokeTool(ctx context.Context, step *config.WorkflowStep, renderCtx map[string]any) (any, error) {
	rendered, err := renderValue(step.Args, renderCtx)
	if err != nil {
		return nil, err
	}
	args, _ := rendered.(map[string]any)
	return e.Tools.Call(ctx, step.Tool, args)
}

func (e *Executor) runLoopStep(ctx context.Context, step *config.WorkflowStep, renderCtx map[string]any) stepOutcome {
	items, err := cel.EvalSlice(ctx, step.LoopOver, renderCtx)
	if err != nil {
		return failOutcome(step.ID, err)
	}
	if len(items) == 0 {
		return stepOutcome{StepResult: StepResult{ID: step.ID, Success: true}, Output: []any{}}
	}
	concurrency := step.LoopConcurrency
	if concurrency <= 0 {
		concurrency = 1
	}
	out := make([]any, len(items))
	errs := make([]error, len(items))
	sem := make(chan struct{}, concurrency)
	var wg sync.WaitGroup
	for i, item := range items {
		wg.Add(1)
		sem <- struct{}{}
		go func(i int, item any) {
			defer wg.Done()
			defer func() { <-sem }()
			iterCtx := make(map[string]any, len(renderCtx)+2)
			for k, v := range renderCtx {
				iterCtx[k] = v
			}
			varName := step.LoopVar
			if varName == "" {
				varName = "item"
			}
			iterCtx[varName] = item
			iterCtx["index"] = i
			v, err := e.runWithPolicy(ctx, step, func() (any, error) {
				rendered, err := renderValue(step.Args, iterCtx)
				if err != nil {
					return nil, err
				}
				args, _ := rendered.(map[string]any)
				return e.Tools.Call(ctx, step.Tool, args)
			})
			out[i] = v.Output
			if !v.Success {
				errs[i] = errors.New(v.Error)
			}
		}(i, item)
	}
	wg.Wait()
	for _, err := range errs {
		if err != nil {
			return stepOutcome{StepResult: StepResult{ID: step.ID, Success: false, Error: err.Error()}, Output: out}
		}
	}
	return stepOutcome{StepResult: StepResult{ID: step.ID, Success: true}, Output: out}
}

// runWithPolicy applies step.OnError (spec.md §4.2 step 4): Fail propagates
// and halts scheduling, Continue records the error, Retry retries with
// exponential backoff, Fallback substitutes a configured value.
func (e *Executor) runWithPolicy(ctx context.Context, step *config.WorkflowStep, fn func() (any, error)) stepOutcome {
	policy := step.OnError
	attempts := 1
	if policy.Kind == config.ErrorPolicyRetry && policy.MaxAttempts > 0 {
		attempts = policy.MaxAttempts
	}
	var out any
	var err error
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			delay := time.Duration(policy.BaseDelayMs) * time.Millisecond
			for i := 0; i < attempt-1; i++ {
				delay *= 2
			}
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return failOutcome(step.ID, ctx.Err())
			}
		}
		out, err = fn()
		if err == nil {
			return stepOutcome{StepResult: StepResult{ID: step.ID, Success: true}, Output: out}
		}
	}
	switch policy.Kind {
	case config.ErrorPolicyContinue:
		return stepOutcome{StepResult: StepResult{ID: step.ID, Success: false, Error: err.Error()}}
	case config.ErrorPolicyFallback:
		return stepOutcome{StepResult: StepResult{ID: step.ID, Success: true}, Output: policy.FallbackVal}
	case config.ErrorPolicyRetry:
		return stepOutcome{StepResult: StepResult{ID: step.ID, Success: false, Error: err.Error()}}
	default:
		o := failOutcome(step.ID, err)
		o.Fail = true
		return o
	}
}

func failOutcome(id string, err error) stepOutcome {
	return stepOutcome{StepResult: StepResult{ID: id, Success: false, Error: err.Error()}, Fail: true}
}
