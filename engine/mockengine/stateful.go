package mockengine

import (
	"fmt"

	"github.com/periplon/metis/engine/config"
	"github.com/periplon/metis/engine/core"
)

// stateful dispatches cfg.Op against the shared State Store (spec.md §4.1's
// Stateful strategy): Get returns the stored value or null, Set stores the
// call args, Increment atomically bumps the integer at key and optionally
// renders cfg.Template with `value` in scope.
func (e *Engine) stateful(cfg *config.MockConfig, args map[string]any) (any, error) {
	switch cfg.Op {
	case config.StatefulGet:
		v, _ := e.State.Get(cfg.Key)
		return v, nil
	case config.StatefulSet:
		e.State.Set(cfg.Key, args)
		return args, nil
	case config.StatefulIncrement:
		next := e.State.Increment(cfg.Key)
		if cfg.Template == "" {
			return next, nil
		}
		rendered, err := renderTemplate(cfg.Template, map[string]any{"value": next})
		if err != nil {
			return nil, err
		}
		return parseIfJSON(rendered), nil
	default:
		return nil, core.NewError(fmt.Errorf("unknown stateful op %q", string(cfg.Op)), core.CodeInvalidRequest, nil)
	}
}
