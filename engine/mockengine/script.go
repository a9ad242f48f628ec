package mockengine

import (
	"context"

	"github.com/periplon/metis/engine/cel"
	"github.com/periplon/metis/engine/config"
)

// script evaluates cfg.Script as a CEL expression with `input` bound to
// args (spec.md §4.1's Script strategy; the sandboxed evaluator called for
// by SPEC_FULL.md's design notes is engine/cel, shared with the Workflow
// Engine's conditions). cfg.Language is accepted for forward compatibility
// with a future second sandboxed language but only "cel" is implemented.
func (e *Engine) script(ctx context.Context, cfg *config.MockConfig, args map[string]any) (any, error) {
	return cel.Eval(ctx, cfg.Script, map[string]any{"input": args})
}
