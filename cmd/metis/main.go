// Command metis is the Metis mock MCP server's wiring entrypoint: it loads
// a ConfigSnapshot, assembles every engine/ component, and serves JSON-RPC
// 2.0 over stdio (the transport github.com/mark3labs/mcp-go's own stdio
// server speaks). There is no CLI framework here — SPEC_FULL.md explicitly
// excludes the teacher's cobra-based CLI/TUI surface, so a handful of
// stdlib flags is all this entrypoint needs.
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/redis/go-redis/v9"

	"github.com/periplon/metis/engine/agent"
	"github.com/periplon/metis/engine/autoload"
	"github.com/periplon/metis/engine/config"
	"github.com/periplon/metis/engine/conversation"
	"github.com/periplon/metis/engine/datalake"
	"github.com/periplon/metis/engine/llm"
	"github.com/periplon/metis/engine/mcpclient"
	"github.com/periplon/metis/engine/mcpserver"
	"github.com/periplon/metis/engine/mockengine"
	"github.com/periplon/metis/engine/orchestration"
	"github.com/periplon/metis/engine/registry"
	"github.com/periplon/metis/engine/secret"
	"github.com/periplon/metis/engine/sqlquery"
	"github.com/periplon/metis/engine/state"
	"github.com/periplon/metis/engine/workflow"
	"github.com/periplon/metis/pkg/logger"
)

func main() {
	projectRoot := flag.String("project", ".", "project directory holding project.yaml")
	manifest := flag.String("manifest", "project.yaml", "manifest file name, relative to -project")
	redisURL := flag.String("redis-url", os.Getenv("METIS_REDIS_URL"), "Redis URL for the conversation store (empty uses an in-memory store)")
	localDataDir := flag.String("data-dir", "./data-lakes", "fallback local-filesystem root for data lakes with no S3 section configured")
	verbose := flag.Bool("verbose", false, "enable debug logging")
	flag.Parse()

	logCfg := logger.DefaultConfig()
	// stdout is the JSON-RPC wire; logs must never share it.
	logCfg.Output = os.Stderr
	if *verbose {
		logCfg.Level = logger.DebugLevel
	}
	logger.SetGlobalLogger(logger.NewLogger(logCfg))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, *projectRoot, *manifest, *redisURL, *localDataDir); err != nil {
		logger.Error("metis exited with error", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, projectRoot, manifest, redisURL, localDataDir string) error {
	loader := config.NewLoader(projectRoot, autoload.NewConfig())
	watcher, err := config.NewSnapshotWatcher(ctx, loader, filepath.Join(projectRoot, manifest))
	if err != nil {
		return fmt.Errorf("loading config snapshot: %w", err)
	}
	defer watcher.Close()
	snap := watcher.Snapshot()

	oracle := secret.New(secretSources(snap)...)
	store := state.New()
	llmClient := llm.New(oracle)
	mock := mockengine.New(store, oracle, llm.NewMockEngineAdapter(llmClient))

	tools := registry.NewToolRegistry(snap, mock)
	resources := registry.NewResourceRegistry(snap)
	prompts := registry.NewPromptRegistry(snap)

	outbound := mcpclient.NewManager()
	for _, server := range snap.MCPServers {
		if err := outbound.Connect(ctx, server); err != nil {
			logger.Error("failed to connect outbound mcp server", "server", server.Name, "error", err)
		}
	}

	workflows := workflow.New(tools)

	convStore, err := newConversationStore(redisURL)
	if err != nil {
		return fmt.Errorf("building conversation store: %w", err)
	}
	sessions := conversation.NewAgentAdapter(convStore)
	agents := agent.New(snap, llmClient, tools, resources, outbound, sessions)

	lakes, err := datalake.NewManager(ctx, snap, oracle, localDataDir)
	if err != nil {
		return fmt.Errorf("building data lake manager: %w", err)
	}
	defer lakes.Close()

	queryEngine, err := sqlquery.NewEngine(snap, lakes)
	if err != nil {
		return fmt.Errorf("building sql query engine: %w", err)
	}
	defer queryEngine.Close()

	orchestrator := orchestration.New(snap, agents)
	scheduler, err := orchestration.NewScheduler(orchestrator)
	if err != nil {
		return fmt.Errorf("starting orchestration scheduler: %w", err)
	}
	defer scheduler.Stop()

	dispatcher := mcpserver.New(tools, resources, prompts)
	dispatcher.Outbound = outbound
	dispatcher.Agents = agents
	dispatcher.Workflows = workflows
	dispatcher.Snapshot = snap

	logger.Info("metis serving over stdio", "project", projectRoot, "manifest", manifest)
	return serveStdio(ctx, dispatcher, os.Stdin, os.Stdout)
}

// secretSources converts the snapshot's inline `secrets` section into the
// Secret Oracle's first resolution-order source (spec.md §4.4 step 1).
func secretSources(snap *config.Snapshot) []secret.Source {
	static := make(secret.StaticSource, len(snap.Secrets))
	for _, entry := range snap.Secrets {
		static[entry.Key] = entry.Value
	}
	return []secret.Source{static}
}

func newConversationStore(redisURL string) (conversation.Store, error) {
	if redisURL == "" {
		return conversation.NewMemoryStore(), nil
	}
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parsing redis url: %w", err)
	}
	return conversation.NewRedisStore(redis.NewClient(opts)), nil
}

// serveStdio reads one JSON-RPC 2.0 envelope per line from r and writes one
// response per line to w, per spec.md §4.7's "requests without an id are
// treated as notifications and draw no response" rule.
func serveStdio(ctx context.Context, dispatcher *mcpserver.Dispatcher, r io.Reader, w io.Writer) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 16*1024*1024)
	out := bufio.NewWriter(w)
	defer out.Flush()

	for scanner.Scan() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		resp, shouldReply := dispatcher.Handle(ctx, line)
		if !shouldReply {
			continue
		}
		encoded, err := json.Marshal(resp)
		if err != nil {
			return fmt.Errorf("encoding response: %w", err)
		}
		if _, err := out.Write(encoded); err != nil {
			return fmt.Errorf("writing response: %w", err)
		}
		if _, err := out.Write([]byte("\n")); err != nil {
			return fmt.Errorf("writing response: %w", err)
		}
		if err := out.Flush(); err != nil {
			return fmt.Errorf("flushing response: %w", err)
		}
	}
	return scanner.Err()
}
