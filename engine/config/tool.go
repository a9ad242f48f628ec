package config

import (
	"github.com/periplon/metis/engine/core"
	"github.com/periplon/metis/engine/schema"
)

// ToolConfig is a ConfigSnapshot Tool entity (spec.md §3): exactly one of a
// static response or a MockConfig supplies its behavior.
type ToolConfig struct {
	Base `json:"-" mapstructure:"-"`

	Resource     string         `json:"resource"                mapstructure:"resource"`
	Name         string         `json:"name"                    mapstructure:"name"`
	Description  string         `json:"description,omitempty"   mapstructure:"description,omitempty"`
	InputSchema  map[string]any `json:"input_schema"            mapstructure:"input_schema"`
	OutputSchema map[string]any `json:"output_schema,omitempty" mapstructure:"output_schema,omitempty"`
	StaticValue  any            `json:"static,omitempty"         mapstructure:"static,omitempty"`
	HasStatic    bool           `json:"has_static,omitempty"     mapstructure:"has_static,omitempty"`
	Mock         *MockConfig    `json:"mock,omitempty"           mapstructure:"mock,omitempty"`
}

// NewToolConfig returns a ToolConfig with its Component type set.
func NewToolConfig() *ToolConfig {
	return &ToolConfig{Base: newBase(core.ConfigTool)}
}

func (t *ToolConfig) GetResource() string { return t.Resource }
func (t *ToolConfig) GetID() string       { return t.Name }

func (t *ToolConfig) Validate() error {
	if err := requireField(t.Name, "name"); err != nil {
		return err
	}
	if t.InputSchema == nil {
		return newConfigError("tool %q: input_schema is required", t.Name)
	}
	hasStatic := t.HasStatic || t.StaticValue != nil
	if hasStatic == (t.Mock != nil) {
		return newConfigError("tool %q: exactly one of static or mock must be set", t.Name)
	}
	if t.Mock != nil {
		if err := t.Mock.Validate(); err != nil {
			return err
		}
	}
	return nil
}

func (t *ToolConfig) ValidateParams(input *core.Input) error {
	if t.InputSchema == nil {
		return nil
	}
	var args map[string]any
	if input != nil {
		args = input.AsMap()
	}
	return schema.Validate(t.InputSchema, args)
}

func (t *ToolConfig) Merge(other any) error {
	return mergeInto(t, other)
}
