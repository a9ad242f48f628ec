package agent

import (
	"context"
	"fmt"

	"github.com/periplon/metis/engine/config"
	"github.com/periplon/metis/engine/core"
	"github.com/periplon/metis/engine/llm"
	"github.com/periplon/metis/engine/mcpclient"
	"github.com/periplon/metis/engine/registry"
)

// Runtime executes Agents against a ConfigSnapshot's agent definitions
// (spec.md §4.3): it owns no state beyond its collaborators, so it can be
// constructed once per process and shared.
type Runtime struct {
	Snapshot  *config.Snapshot
	LLM       *llm.Client
	Tools     *registry.ToolRegistry
	Resources *registry.ResourceRegistry
	Outbound  *mcpclient.Manager
	Sessions  SessionStore
}

func New(
	snapshot *config.Snapshot,
	llmClient *llm.Client,
	tools *registry.ToolRegistry,
	resources *registry.ResourceRegistry,
	outbound *mcpclient.Manager,
	sessions SessionStore,
) *Runtime {
	return &Runtime{
		Snapshot:  snapshot,
		LLM:       llmClient,
		Tools:     tools,
		Resources: resources,
		Outbound:  outbound,
		Sessions:  sessions,
	}
}

// Execute streams an agent's run per spec.md §4.3's shared contract. The
// returned channel is closed after a Complete or Error chunk; ctx
// cancellation aborts mid-stream and releases the goroutine (spec.md
// §4.3.3: "if the receiver goes away, abort streaming reads").
func (rt *Runtime) Execute(ctx context.Context, agentName string, input map[string]any, sessionID string) (<-chan AgentChunk, error) {
	cfg, ok := rt.Snapshot.Agents[agentName]
	if !ok {
		return nil, core.NewError(fmt.Errorf("unknown agent %q", agentName), core.CodeNotFound, nil)
	}
	ch := make(chan AgentChunk, 8)
	go func() {
		defer close(ch)
		start := clock()
		var err error
		switch cfg.Kind {
		case config.AgentSingleTurn:
			err = rt.runSingleTurn(ctx, cfg, input, ch, start)
		case config.AgentMultiTurn:
			err = rt.runMultiTurn(ctx, cfg, input, sessionID, ch, start)
		case config.AgentReAct:
			err = rt.runReAct(ctx, cfg, input, sessionID, ch, start)
		default:
			err = fmt.Errorf("agent %q: unknown kind %q", cfg.Name, cfg.Kind)
		}
		if err != nil {
			send(ctx, ch, AgentChunk{Kind: ChunkError, Err: err.Error()})
		}
	}()
	return ch, nil
}

// RunCollect runs agentName to completion and returns its Response as a
// map, satisfying engine/mcpserver's AgentRunner contract (the `agent_…`
// tool-call routing prefix recurses here).
func (rt *Runtime) RunCollect(ctx context.Context, agentName string, input map[string]any, sessionID string) (map[string]any, error) {
	resp, err := rt.Collect(ctx, agentName, input, sessionID)
	if err != nil {
		return nil, err
	}
	m, merr := core.AsMapDefault(resp)
	if merr != nil {
		return nil, merr
	}
	return m, nil
}

// Collect consumes Execute's stream into a single Response (spec.md §4.3's
// "non-streaming collect helper").
func (rt *Runtime) Collect(ctx context.Context, agentName string, input map[string]any, sessionID string) (*Response, error) {
	ch, err := rt.Execute(ctx, agentName, input, sessionID)
	if err != nil {
		return nil, err
	}
	for chunk := range ch {
		switch chunk.Kind {
		case ChunkComplete:
			return chunk.Response, nil
		case ChunkError:
			return nil, core.NewError(fmt.Errorf("%s", chunk.Err), core.CodeStrategyFailure, nil)
		}
	}
	return nil, core.NewError(fmt.Errorf("agent %q stream closed without a terminal chunk", agentName), core.CodeStrategyFailure, nil)
}

func send(ctx context.Context, ch chan<- AgentChunk, chunk AgentChunk) {
	select {
	case ch <- chunk:
	case <-ctx.Done():
	}
}

