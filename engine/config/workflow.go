package config

import (
	"github.com/periplon/metis/engine/core"
)

// ErrorPolicyKind enumerates a WorkflowStep's error policy (spec.md §3).
type ErrorPolicyKind string

const (
	ErrorPolicyFail     ErrorPolicyKind = "fail"
	ErrorPolicyContinue ErrorPolicyKind = "continue"
	ErrorPolicyRetry    ErrorPolicyKind = "retry"
	ErrorPolicyFallback ErrorPolicyKind = "fallback"
)

// ErrorPolicy configures a step's failure handling.
type ErrorPolicy struct {
	Kind         ErrorPolicyKind `json:"kind"                    mapstructure:"kind"`
	MaxAttempts  int             `json:"max_attempts,omitempty"  mapstructure:"max_attempts,omitempty"`
	BaseDelayMs  int             `json:"base_delay_ms,omitempty" mapstructure:"base_delay_ms,omitempty"`
	FallbackVal  any             `json:"fallback,omitempty"      mapstructure:"fallback,omitempty"`
}

// WorkflowStep is one node of a WorkflowConfig's DAG (spec.md §3/§4.2).
type WorkflowStep struct {
	ID              string         `json:"id"                         mapstructure:"id"`
	Tool            string         `json:"tool"                       mapstructure:"tool"`
	Args            map[string]any `json:"args,omitempty"              mapstructure:"args,omitempty"`
	DependsOn       []string       `json:"depends_on,omitempty"        mapstructure:"depends_on,omitempty"`
	Condition       string         `json:"condition,omitempty"         mapstructure:"condition,omitempty"`
	LoopOver        string         `json:"loop_over,omitempty"         mapstructure:"loop_over,omitempty"`
	LoopVar         string         `json:"loop_var,omitempty"          mapstructure:"loop_var,omitempty"`
	LoopConcurrency int            `json:"loop_concurrency,omitempty"  mapstructure:"loop_concurrency,omitempty"`
	OnError         ErrorPolicy    `json:"on_error,omitempty"          mapstructure:"on_error,omitempty"`
}

// WorkflowConfig is a ConfigSnapshot Workflow entity: a DAG of steps.
type WorkflowConfig struct {
	Base `json:"-" mapstructure:"-"`

	Resource    string         `json:"resource"              mapstructure:"resource"`
	Name        string         `json:"name"                  mapstructure:"name"`
	Description string         `json:"description,omitempty" mapstructure:"description,omitempty"`
	Steps       []WorkflowStep `json:"steps"                 mapstructure:"steps"`
}

func NewWorkflowConfig() *WorkflowConfig {
	return &WorkflowConfig{Base: newBase(core.ConfigWorkflow)}
}

func (w *WorkflowConfig) GetResource() string { return w.Resource }
func (w *WorkflowConfig) GetID() string       { return w.Name }

func (w *WorkflowConfig) Validate() error {
	if err := requireField(w.Name, "name"); err != nil {
		return err
	}
	if len(w.Steps) == 0 {
		return newConfigError("workflow %q: at least one step is required", w.Name)
	}
	seen := make(map[string]bool, len(w.Steps))
	for i := range w.Steps {
		step := &w.Steps[i]
		if step.ID == "" {
			return newConfigError("workflow %q: step %d is missing an id", w.Name, i)
		}
		if seen[step.ID] {
			return newConfigError("workflow %q: duplicate step id %q", w.Name, step.ID)
		}
		seen[step.ID] = true
		if step.Tool == "" {
			return newConfigError("workflow %q: step %q is missing a tool", w.Name, step.ID)
		}
	}
	for i := range w.Steps {
		step := &w.Steps[i]
		for _, dep := range step.DependsOn {
			if !seen[dep] {
				return newConfigError("workflow %q: step %q depends_on unknown step %q", w.Name, step.ID, dep)
			}
		}
	}
	return checkAcyclic(w.Steps)
}

// checkAcyclic rejects a depends_on graph containing a cycle via DFS with a
// recursion-stack set.
func checkAcyclic(steps []WorkflowStep) error {
	byID := make(map[string]*WorkflowStep, len(steps))
	for i := range steps {
		byID[steps[i].ID] = &steps[i]
	}
	state := make(map[string]int, len(steps)) // 0=unvisited 1=visiting 2=done
	var visit func(id string) error
	visit = func(id string) error {
		switch state[id] {
		case 2:
			return nil
		case 1:
			return newConfigError("workflow has a dependency cycle at step %q", id)
		}
		state[id] = 1
		for _, dep := range byID[id].DependsOn {
			if err := visit(dep); err != nil {
				return err
			}
		}
		state[id] = 2
		return nil
	}
	for i := range steps {
		if err := visit(steps[i].ID); err != nil {
			return err
		}
	}
	return nil
}

func (w *WorkflowConfig) ValidateParams(_ *core.Input) error { return nil }

func (w *WorkflowConfig) Merge(other any) error {
	return mergeInto(w, other)
}
