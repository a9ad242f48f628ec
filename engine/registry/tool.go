// Package registry implements Component 7 (Tool/Resource/Prompt Registries):
// in-memory views over a validated ConfigSnapshot exposing list/get/execute,
// the layer the MCP Dispatcher (engine/mcpserver) and the Workflow/Agent
// runtimes call into to resolve a name to a value (spec.md §4.7 data flow).
package registry

import (
	"context"
	"fmt"

	"github.com/periplon/metis/engine/config"
	"github.com/periplon/metis/engine/core"
	"github.com/periplon/metis/engine/mockengine"
)

// ToolRegistry resolves a Tool name to its definition and executes calls
// against it via the Mock Strategy Engine (spec.md §4.1/§4.7 tools/call).
type ToolRegistry struct {
	snapshot *config.Snapshot
	mock     *mockengine.Engine
}

func NewToolRegistry(snapshot *config.Snapshot, mock *mockengine.Engine) *ToolRegistry {
	return &ToolRegistry{snapshot: snapshot, mock: mock}
}

// List returns every local tool definition, in no particular order (callers
// needing determinism, e.g. the MCP dispatcher's tools/list, sort by name).
func (r *ToolRegistry) List() []*config.ToolConfig {
	out := make([]*config.ToolConfig, 0, len(r.snapshot.Tools))
	for _, t := range r.snapshot.Tools {
		out = append(out, t)
	}
	return out
}

// Get returns the named tool, or a NotFound error.
func (r *ToolRegistry) Get(name string) (*config.ToolConfig, error) {
	t, ok := r.snapshot.Tools[name]
	if !ok {
		return nil, notFound("tool", name)
	}
	return t, nil
}

// Call validates args against the tool's input schema, then resolves its
// response: a static tool returns its configured literal value verbatim; a
// mock tool dispatches to the Mock Strategy Engine (spec.md §4.1).
func (r *ToolRegistry) Call(ctx context.Context, name string, args map[string]any) (any, error) {
	t, err := r.Get(name)
	if err != nil {
		return nil, err
	}
	input := core.NewInput(args)
	if err := t.ValidateParams(&input); err != nil {
		return nil, err
	}
	if t.Mock == nil {
		return t.StaticValue, nil
	}
	return r.mock.Generate(ctx, t.Mock, args)
}

func notFound(kind, name string) error {
	return core.NewError(fmt.Errorf("%s %q not found", kind, name), core.CodeNotFound, map[string]any{
		"kind": kind,
		"name": name,
	})
}
