package config

import "github.com/periplon/metis/engine/core"

// ResourceConfig is a ConfigSnapshot Resource entity, exposed by the MCP
// dispatcher's resources/list and resources/read methods (spec.md §4.7).
type ResourceConfig struct {
	Base `json:"-" mapstructure:"-"`

	Resource    string `json:"resource"              mapstructure:"resource"`
	Name        string `json:"name"                  mapstructure:"name"`
	URI         string `json:"uri"                   mapstructure:"uri"`
	Description string `json:"description,omitempty" mapstructure:"description,omitempty"`
	MimeType    string `json:"mime_type,omitempty"   mapstructure:"mime_type,omitempty"`
	Content     any    `json:"content,omitempty"     mapstructure:"content,omitempty"`
}

func NewResourceConfig() *ResourceConfig {
	return &ResourceConfig{Base: newBase(core.ConfigResource)}
}

func (r *ResourceConfig) GetResource() string { return r.Resource }
func (r *ResourceConfig) GetID() string       { return r.Name }

func (r *ResourceConfig) Validate() error {
	if err := requireField(r.Name, "name"); err != nil {
		return err
	}
	return requireField(r.URI, "uri")
}

func (r *ResourceConfig) ValidateParams(_ *core.Input) error { return nil }
func (r *ResourceConfig) Merge(other any) error               { return mergeInto(r, other) }

// ResourceTemplateConfig is a parameterized Resource (a URI template).
type ResourceTemplateConfig struct {
	Base `json:"-" mapstructure:"-"`

	Resource    string `json:"resource"              mapstructure:"resource"`
	Name        string `json:"name"                  mapstructure:"name"`
	URITemplate string `json:"uri_template"          mapstructure:"uri_template"`
	Description string `json:"description,omitempty" mapstructure:"description,omitempty"`
	MimeType    string `json:"mime_type,omitempty"   mapstructure:"mime_type,omitempty"`
}

func NewResourceTemplateConfig() *ResourceTemplateConfig {
	return &ResourceTemplateConfig{Base: newBase(core.ConfigResource)}
}

func (r *ResourceTemplateConfig) GetResource() string { return r.Resource }
func (r *ResourceTemplateConfig) GetID() string       { return r.Name }

func (r *ResourceTemplateConfig) Validate() error {
	if err := requireField(r.Name, "name"); err != nil {
		return err
	}
	return requireField(r.URITemplate, "uri_template")
}

func (r *ResourceTemplateConfig) ValidateParams(_ *core.Input) error { return nil }
func (r *ResourceTemplateConfig) Merge(other any) error               { return mergeInto(r, other) }

// PromptConfig is a ConfigSnapshot Prompt entity (spec.md §4.7 prompts/get).
type PromptConfig struct {
	Base `json:"-" mapstructure:"-"`

	Resource    string         `json:"resource"              mapstructure:"resource"`
	Name        string         `json:"name"                  mapstructure:"name"`
	Description string         `json:"description,omitempty" mapstructure:"description,omitempty"`
	Arguments   map[string]any `json:"arguments,omitempty"   mapstructure:"arguments,omitempty"`
	Template    string         `json:"template"              mapstructure:"template"`
}

func NewPromptConfig() *PromptConfig {
	return &PromptConfig{Base: newBase(core.ConfigPrompt)}
}

func (p *PromptConfig) GetResource() string { return p.Resource }
func (p *PromptConfig) GetID() string       { return p.Name }

func (p *PromptConfig) Validate() error {
	if err := requireField(p.Name, "name"); err != nil {
		return err
	}
	return requireField(p.Template, "template")
}

func (p *PromptConfig) ValidateParams(_ *core.Input) error { return nil }
func (p *PromptConfig) Merge(other any) error               { return mergeInto(p, other) }
