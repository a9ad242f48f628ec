// Package mockengine implements Component 5 (Mock Strategy Engine): it
// resolves a Tool's MockConfig plus the caller's call arguments to a
// concrete JSON value via one of nine pluggable strategies (spec.md §4.1).
package mockengine

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/periplon/metis/engine/config"
	"github.com/periplon/metis/engine/core"
	"github.com/periplon/metis/engine/secret"
	"github.com/periplon/metis/engine/state"
)

// LLMClient is the minimal contract the LLM strategy needs from Component 9
// (engine/llm); defined here to avoid a dependency cycle since engine/llm
// depends on engine/config for provider settings.
type LLMClient interface {
	Complete(ctx context.Context, provider, model, systemPrompt, userContent string) (string, error)
}

// Engine generates a Tool's response for one strategy kind. It is shared
// process-wide (constructed once, threaded through constructors per the
// "never a language-level global" design note, SPEC_FULL.md §9).
type Engine struct {
	State  *state.Store
	Secret secret.Oracle
	LLM    LLMClient
	DB     *DatabaseStrategy
}

// New returns an Engine wired to its collaborators. llm may be nil if no
// agent/tool in the snapshot uses the LLM strategy.
func New(store *state.Store, oracle secret.Oracle, llm LLMClient) *Engine {
	return &Engine{State: store, Secret: oracle, LLM: llm, DB: NewDatabaseStrategy()}
}

// Generate dispatches on cfg.Strategy, producing a JSON-shaped value from
// cfg and the caller's args (spec.md §4.1's generate(config, args?) contract).
func (e *Engine) Generate(ctx context.Context, cfg *config.MockConfig, args map[string]any) (any, error) {
	if cfg == nil {
		return nil, nil
	}
	switch cfg.Strategy {
	case config.StrategyStatic:
		return nil, nil
	case config.StrategyTemplate:
		return e.template(cfg, args)
	case config.StrategyRandom:
		return e.random(cfg)
	case config.StrategyStateful:
		return e.stateful(cfg, args)
	case config.StrategyScript:
		return e.script(ctx, cfg, args)
	case config.StrategyFile:
		return e.file(cfg)
	case config.StrategyPattern:
		return e.pattern(cfg)
	case config.StrategyLLM:
		return e.llmGenerate(ctx, cfg, args)
	case config.StrategyDatabase:
		return e.DB.Query(ctx, cfg, args)
	default:
		return nil, core.NewError(fmt.Errorf("unknown mock strategy %q", string(cfg.Strategy)), core.CodeInvalidRequest, nil)
	}
}

// parseIfJSON returns the JSON-decoded value of s when s parses as JSON,
// else s itself, matching spec.md §4.1's "if the rendered text parses as
// JSON, return that; otherwise return as string" rule shared by Template,
// Script, and LLM.
func parseIfJSON(s string) any {
	var v any
	if err := json.Unmarshal([]byte(s), &v); err == nil {
		return v
	}
	return s
}
