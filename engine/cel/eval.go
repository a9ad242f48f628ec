// Package cel is the sandboxed expression evaluator SPEC_FULL.md §9's design
// notes call for in place of the original's embedded scripting language
// (spec.md §9, "Dynamic script evaluation... isolate into a dedicated
// sandboxed evaluator with a bounded value type and explicit resource
// limits"): it backs the Mock Strategy Engine's Script strategy (spec.md
// §4.1) and the Workflow Engine's step conditions and loop_over expressions
// (spec.md §4.2), both of which need the same "evaluate an expression
// against a JSON-shaped variable set, bounded in cost and wall-clock" shape.
package cel

import (
	"context"
	"fmt"
	"time"

	"github.com/google/cel-go/cel"

	"github.com/periplon/metis/engine/core"
)

// maxCost bounds the interpreter's step-cost estimate, rejecting expressions
// that would iterate or recurse unreasonably deep before they run.
const maxCost = 10_000

// defaultTimeout bounds wall-clock evaluation time; Script strategy failures
// past this are reported as StrategyFailure per spec.md §4.1.
const defaultTimeout = 2 * time.Second

// Eval compiles and runs expr against vars, returning its result as a plain
// Go value (bool, float64, string, []any, map[string]any, or nil).
func Eval(ctx context.Context, expr string, vars map[string]any) (any, error) {
	opts := make([]cel.EnvOption, 0, len(vars))
	for name := range vars {
		opts = append(opts, cel.Variable(name, cel.DynType))
	}
	env, err := cel.NewEnv(opts...)
	if err != nil {
		return nil, core.NewError(fmt.Errorf("failed to build expression environment: %w", err), core.CodeStrategyFailure, nil)
	}
	ast, issues := env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, core.NewError(fmt.Errorf("failed to compile expression %q: %w", expr, issues.Err()), core.CodeStrategyFailure, nil)
	}
	prg, err := env.Program(ast, cel.CostLimit(maxCost))
	if err != nil {
		return nil, core.NewError(fmt.Errorf("failed to build expression program: %w", err), core.CodeStrategyFailure, nil)
	}

	evalCtx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	type result struct {
		val any
		err error
	}
	done := make(chan result, 1)
	go func() {
		out, _, evalErr := prg.Eval(vars)
		if evalErr != nil {
			done <- result{err: evalErr}
			return
		}
		done <- result{val: out.Value()}
	}()

	select {
	case <-evalCtx.Done():
		return nil, core.NewError(fmt.Errorf("expression %q timed out", expr), core.CodeStrategyFailure, nil)
	case r := <-done:
		if r.err != nil {
			return nil, core.NewError(fmt.Errorf("failed to evaluate expression %q: %w", expr, r.err), core.CodeStrategyFailure, nil)
		}
		return r.val, nil
	}
}

// EvalBool evaluates expr and coerces the result to bool, used for workflow
// step conditions.
func EvalBool(ctx context.Context, expr string, vars map[string]any) (bool, error) {
	v, err := Eval(ctx, expr, vars)
	if err != nil {
		return false, err
	}
	b, ok := v.(bool)
	if !ok {
		return false, core.NewError(fmt.Errorf("expression %q did not evaluate to a boolean", expr), core.CodeStrategyFailure, nil)
	}
	return b, nil
}

// EvalSlice evaluates expr and coerces the result to a slice, used for
// workflow loop_over expressions.
func EvalSlice(ctx context.Context, expr string, vars map[string]any) ([]any, error) {
	v, err := Eval(ctx, expr, vars)
	if err != nil {
		return nil, err
	}
	if v == nil {
		return []any{}, nil
	}
	s, ok := v.([]any)
	if !ok {
		return nil, core.NewError(fmt.Errorf("expression %q did not evaluate to a list", expr), core.CodeStrategyFailure, nil)
	}
	return s, nil
}
