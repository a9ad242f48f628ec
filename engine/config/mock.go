package config

// StrategyKind enumerates Mock Strategy Engine strategies (spec.md §4.1).
type StrategyKind string

const (
	StrategyStatic   StrategyKind = "static"
	StrategyTemplate StrategyKind = "template"
	StrategyRandom   StrategyKind = "random"
	StrategyStateful StrategyKind = "stateful"
	StrategyScript   StrategyKind = "script"
	StrategyFile     StrategyKind = "file"
	StrategyPattern  StrategyKind = "pattern"
	StrategyLLM      StrategyKind = "llm"
	StrategyDatabase StrategyKind = "database"
)

// StatefulOp enumerates the Stateful strategy's operations.
type StatefulOp string

const (
	StatefulGet       StatefulOp = "get"
	StatefulSet       StatefulOp = "set"
	StatefulIncrement StatefulOp = "increment"
)

// FileSelection enumerates the File strategy's element-selection policy.
type FileSelection string

const (
	FileSelectionRandom     FileSelection = "random"
	FileSelectionSequential FileSelection = "sequential"
)

// MockConfig is the tagged-union payload backing a Tool's response
// generation (spec.md §3 MockConfig). Exactly the fields relevant to
// Strategy are expected to be populated; engine/mockengine enforces that.
type MockConfig struct {
	Strategy StrategyKind `json:"strategy"            mapstructure:"strategy"`

	// Template
	Template string `json:"template,omitempty" mapstructure:"template,omitempty"`

	// Random
	FakerKind string `json:"faker_kind,omitempty" mapstructure:"faker_kind,omitempty"`

	// Stateful
	Op  StatefulOp `json:"op,omitempty"  mapstructure:"op,omitempty"`
	Key string     `json:"key,omitempty" mapstructure:"key,omitempty"`

	// Script
	Script   string `json:"script,omitempty"   mapstructure:"script,omitempty"`
	Language string `json:"language,omitempty" mapstructure:"language,omitempty"`

	// File
	FilePath  string        `json:"file_path,omitempty" mapstructure:"file_path,omitempty"`
	Selection FileSelection `json:"selection,omitempty" mapstructure:"selection,omitempty"`

	// Pattern
	Pattern string `json:"pattern,omitempty" mapstructure:"pattern,omitempty"`

	// LLM
	Provider     string `json:"provider,omitempty"      mapstructure:"provider,omitempty"`
	Model        string `json:"model,omitempty"         mapstructure:"model,omitempty"`
	SystemPrompt string `json:"system_prompt,omitempty" mapstructure:"system_prompt,omitempty"`
	UserPrompt   string `json:"user_prompt,omitempty"   mapstructure:"user_prompt,omitempty"`

	// Database
	URL        string   `json:"url,omitempty"        mapstructure:"url,omitempty"`
	Query      string   `json:"query,omitempty"      mapstructure:"query,omitempty"`
	Parameters []string `json:"parameters,omitempty" mapstructure:"parameters,omitempty"`
}

// Validate checks that the strategy-required fields are present.
func (m *MockConfig) Validate() error {
	if m == nil {
		return nil
	}
	switch m.Strategy {
	case StrategyStatic:
		return nil
	case StrategyTemplate:
		return requireField(m.Template, "template")
	case StrategyRandom:
		return requireField(m.FakerKind, "faker_kind")
	case StrategyStateful:
		if err := requireField(string(m.Op), "op"); err != nil {
			return err
		}
		return requireField(m.Key, "key")
	case StrategyScript:
		return requireField(m.Script, "script")
	case StrategyFile:
		return requireField(m.FilePath, "file_path")
	case StrategyPattern:
		return requireField(m.Pattern, "pattern")
	case StrategyLLM:
		if err := requireField(m.Provider, "provider"); err != nil {
			return err
		}
		return requireField(m.Model, "model")
	case StrategyDatabase:
		if err := requireField(m.URL, "url"); err != nil {
			return err
		}
		return requireField(m.Query, "query")
	default:
		return newConfigError("unknown mock strategy %q", string(m.Strategy))
	}
}
