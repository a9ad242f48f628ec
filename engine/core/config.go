package core

import "context"

// ConfigMetadata records where a config value was loaded from, used to
// resolve relative file references and to report actionable load errors.
type ConfigMetadata struct {
	CWD         *CWD
	FilePath    string
	ProjectRoot string
}

func (m *ConfigMetadata) ResolvedPath() (string, error) {
	return ResolvedPath(m.CWD, m.FilePath)
}

// Config is implemented by every top-level snapshot entity (tools, agents,
// workflows, schemas, resources, prompts, mcp servers, orchestrations).
type Config interface {
	Component() ConfigType
	GetCWD() *CWD
	GetEnv() *EnvMap
	GetInput() *Input
	GetMetadata() *ConfigMetadata
	SetMetadata(metadata *ConfigMetadata)
	ResolveRef(ctx context.Context, currentDoc map[string]any, projectRoot, filePath string) error
	Validate() error
	ValidateParams(input *Input) error
	Merge(other any) error
}

// ConfigType identifies which section of a ConfigSnapshot an entity belongs to.
type ConfigType string

const (
	ConfigProject      ConfigType = "project"
	ConfigTool         ConfigType = "tool"
	ConfigAgent        ConfigType = "agent"
	ConfigWorkflow     ConfigType = "workflow"
	ConfigSchema       ConfigType = "schema"
	ConfigResource     ConfigType = "resource"
	ConfigPrompt       ConfigType = "prompt"
	ConfigMcpServer    ConfigType = "mcp_server"
	ConfigOrchestrator ConfigType = "orchestration"
	ConfigDataLake     ConfigType = "data_lake"
	ConfigSecret       ConfigType = "secret"
)

// RefLoader is implemented by configs that can embed another file by reference.
type RefLoader interface {
	LoadFileRef(cwd *CWD) (Config, error)
}
