package config

import (
	"context"
	"fmt"

	"github.com/periplon/metis/engine/autoload"
	"github.com/periplon/metis/engine/core"
	"github.com/periplon/metis/engine/schema"
	"github.com/periplon/metis/pkg/logger"
)

// resourceKey matches a config-fragment file's declared `resource:` field
// to the Snapshot collection it belongs to, the same discriminator
// autoload.Configurable.GetResource() exposes for registered entities.
const (
	resourceTool         = "tool"
	resourceAgent        = "agent"
	resourceWorkflow     = "workflow"
	resourceSchema       = "schema"
	resourceResource     = "resource"
	resourceResourceTmpl = "resource_template"
	resourcePrompt       = "prompt"
	resourceMCPServer    = "mcp_server"
	resourceOrchestrator = "orchestration"
	resourceDataLake     = "data_lake"
)

// Loader builds a Snapshot from a project directory: a single manifest file
// (project.yaml, holding server/auth/rate_limit/s3/secrets plus inline
// archetype sections) optionally supplemented by autoload-discovered
// per-resource fragment files (spec.md §6's "Configuration file format").
type Loader struct {
	ProjectRoot string
	Autoload    *autoload.Config
}

// NewLoader returns a Loader rooted at projectRoot. A nil autoloadCfg
// disables fragment discovery; only the manifest's inline sections load.
func NewLoader(projectRoot string, autoloadCfg *autoload.Config) *Loader {
	return &Loader{ProjectRoot: projectRoot, Autoload: autoloadCfg}
}

// manifest mirrors the top-level sections of spec.md §6's config file
// format for decoding the project's root manifest document.
type manifest struct {
	Server         ServerConfig        `mapstructure:"server"`
	Auth           AuthConfig          `mapstructure:"auth"`
	RateLimit      RateLimitConfig     `mapstructure:"rate_limit"`
	S3             S3Config            `mapstructure:"s3"`
	Secrets        []SecretEntry       `mapstructure:"secrets"`
	Resources      []map[string]any    `mapstructure:"resources"`
	ResourceTmpl   []map[string]any    `mapstructure:"resource_templates"`
	Tools          []map[string]any    `mapstructure:"tools"`
	Prompts        []map[string]any    `mapstructure:"prompts"`
	Workflows      []map[string]any    `mapstructure:"workflows"`
	Agents         []map[string]any    `mapstructure:"agents"`
	Orchestrations []map[string]any    `mapstructure:"orchestrations"`
	Schemas        []map[string]any    `mapstructure:"schemas"`
	DataLakes      []map[string]any    `mapstructure:"data_lakes"`
	MCPServers     []map[string]any    `mapstructure:"mcp_servers"`
}

// Load reads manifestPath, applies any autoload-discovered fragment files
// under l.ProjectRoot, validates the result, and returns a fully-populated
// Snapshot.
func (l *Loader) Load(ctx context.Context, manifestPath string) (*Snapshot, error) {
	raw, err := core.MapFromFilePath(manifestPath)
	if err != nil {
		return nil, core.NewError(fmt.Errorf("failed to read manifest: %w", err), core.CodeConfiguration, nil)
	}
	m, err := core.FromMapDefault[manifest](raw)
	if err != nil {
		return nil, core.NewError(fmt.Errorf("failed to decode manifest: %w", err), core.CodeConfiguration, nil)
	}
	snap := NewSnapshot()
	snap.Server, snap.Auth, snap.RateLimit, snap.S3, snap.Secrets = m.Server, m.Auth, m.RateLimit, m.S3, m.Secrets

	if err := registerAll(snap, resourceSchema, m.Schemas); err != nil {
		return nil, err
	}
	if err := registerAll(snap, resourceTool, m.Tools); err != nil {
		return nil, err
	}
	if err := registerAll(snap, resourceResource, m.Resources); err != nil {
		return nil, err
	}
	if err := registerAll(snap, resourceResourceTmpl, m.ResourceTmpl); err != nil {
		return nil, err
	}
	if err := registerAll(snap, resourcePrompt, m.Prompts); err != nil {
		return nil, err
	}
	if err := registerAll(snap, resourceMCPServer, m.MCPServers); err != nil {
		return nil, err
	}
	if err := registerAll(snap, resourceDataLake, m.DataLakes); err != nil {
		return nil, err
	}
	if err := registerAll(snap, resourceAgent, m.Agents); err != nil {
		return nil, err
	}
	if err := registerAll(snap, resourceWorkflow, m.Workflows); err != nil {
		return nil, err
	}
	if err := registerAll(snap, resourceOrchestrator, m.Orchestrations); err != nil {
		return nil, err
	}

	if err := l.loadFragments(ctx, snap); err != nil {
		return nil, err
	}
	if err := snap.Validate(); err != nil {
		return nil, err
	}
	return snap, nil
}

// loadFragments discovers per-resource config files via engine/autoload and
// registers each into snap, keyed by its `resource:` field (autoload's
// Configurable.GetResource() discriminator).
func (l *Loader) loadFragments(ctx context.Context, snap *Snapshot) error {
	if l.Autoload == nil || !l.Autoload.Enabled {
		return nil
	}
	discoverer := autoload.NewFileDiscoverer(l.ProjectRoot)
	files, err := discoverer.Discover(l.Autoload.Include, l.Autoload.GetAllExcludes())
	if err != nil {
		return core.NewError(fmt.Errorf("failed to discover config fragments: %w", err), core.CodeConfiguration, nil)
	}
	for _, file := range files {
		doc, err := core.MapFromFilePath(file)
		if err != nil {
			if l.Autoload.Strict {
				return core.NewError(fmt.Errorf("failed to load %s: %w", file, err), core.CodeConfiguration, nil)
			}
			logger.Warn("skipping unreadable autoload fragment", "file", file, "error", err)
			continue
		}
		if err := resolveDocRefs(ctx, doc, l.ProjectRoot, file); err != nil {
			return err
		}
		resourceType, _ := doc["resource"].(string)
		if err := registerOne(snap, resourceType, doc); err != nil {
			if l.Autoload.Strict {
				return err
			}
			logger.Warn("skipping invalid autoload fragment", "file", file, "error", err)
		}
	}
	return nil
}

func resolveDocRefs(ctx context.Context, doc map[string]any, projectRoot, filePath string) error {
	return resolveFileRefs(ctx, doc, projectRoot, filePath, 0)
}

func registerAll(snap *Snapshot, resourceType string, docs []map[string]any) error {
	for _, doc := range docs {
		if doc["resource"] == nil {
			doc["resource"] = resourceType
		}
		if err := registerOne(snap, resourceType, doc); err != nil {
			return err
		}
	}
	return nil
}

func registerOne(snap *Snapshot, resourceType string, doc map[string]any) error {
	switch resourceType {
	case resourceTool:
		cfg, err := decodeInto[ToolConfig](doc, core.ConfigTool)
		if err != nil {
			return err
		}
		if err := cfg.Validate(); err != nil {
			return err
		}
		return snap.RegisterTool(cfg)
	case resourceAgent:
		cfg, err := decodeInto[AgentConfig](doc, core.ConfigAgent)
		if err != nil {
			return err
		}
		return snap.RegisterAgent(cfg)
	case resourceWorkflow:
		cfg, err := decodeInto[WorkflowConfig](doc, core.ConfigWorkflow)
		if err != nil {
			return err
		}
		return snap.RegisterWorkflow(cfg)
	case resourceResource:
		cfg, err := decodeInto[ResourceConfig](doc, core.ConfigResource)
		if err != nil {
			return err
		}
		return snap.RegisterResource(cfg)
	case resourceResourceTmpl:
		cfg, err := decodeInto[ResourceTemplateConfig](doc, core.ConfigResource)
		if err != nil {
			return err
		}
		return snap.RegisterResourceTemplate(cfg)
	case resourcePrompt:
		cfg, err := decodeInto[PromptConfig](doc, core.ConfigPrompt)
		if err != nil {
			return err
		}
		return snap.RegisterPrompt(cfg)
	case resourceMCPServer:
		cfg, err := decodeInto[MCPServerConfig](doc, core.ConfigMcpServer)
		if err != nil {
			return err
		}
		return snap.RegisterMCPServer(cfg)
	case resourceDataLake:
		cfg, err := decodeInto[DataLakeConfig](doc, core.ConfigDataLake)
		if err != nil {
			return err
		}
		return snap.RegisterDataLake(cfg)
	case resourceOrchestrator:
		cfg, err := decodeInto[OrchestrationConfig](doc, core.ConfigOrchestrator)
		if err != nil {
			return err
		}
		return snap.RegisterOrchestration(cfg)
	case resourceSchema:
		cfg, err := core.FromMapDefault[schema.Config](doc)
		if err != nil {
			return core.NewError(fmt.Errorf("failed to decode schema: %w", err), core.CodeConfiguration, nil)
		}
		return snap.RegisterSchema(cfg)
	default:
		return newConfigError("unknown resource type %q", resourceType)
	}
}

func decodeInto[T any](doc map[string]any, componentType core.ConfigType) (*T, error) {
	decoded, err := core.FromMapDefault[T](doc)
	if err != nil {
		return nil, core.NewError(fmt.Errorf("failed to decode config: %w", err), core.CodeConfiguration, nil)
	}
	cfg := &decoded
	if settable, ok := any(cfg).(interface{ setComponent(core.ConfigType) }); ok {
		settable.setComponent(componentType)
	}
	return cfg, nil
}
