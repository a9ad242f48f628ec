package registry

import (
	"bytes"
	"fmt"
	"text/template"

	"github.com/Masterminds/sprig/v3"

	"github.com/periplon/metis/engine/config"
	"github.com/periplon/metis/engine/core"
)

// PromptMessage is a single rendered message in a prompts/get response
// (spec.md §4.7's `{messages:[{role,content:{type:"text",text}}]}`).
type PromptMessage struct {
	Role    string
	Content string
}

// PromptRegistry resolves Prompt entities for prompts/list and prompts/get.
type PromptRegistry struct {
	snapshot *config.Snapshot
}

func NewPromptRegistry(snapshot *config.Snapshot) *PromptRegistry {
	return &PromptRegistry{snapshot: snapshot}
}

// List returns every registered prompt.
func (r *PromptRegistry) List() []*config.PromptConfig {
	out := make([]*config.PromptConfig, 0, len(r.snapshot.Prompts))
	for _, p := range r.snapshot.Prompts {
		out = append(out, p)
	}
	return out
}

// Get renders the named prompt's template against args and returns it as a
// single user-role message (spec.md's prompts/get contract).
func (r *PromptRegistry) Get(name string, args map[string]any) ([]PromptMessage, error) {
	p, ok := r.snapshot.Prompts[name]
	if !ok {
		return nil, notFound("prompt", name)
	}
	text, err := renderPrompt(p.Template, args)
	if err != nil {
		return nil, err
	}
	return []PromptMessage{{Role: "user", Content: text}}, nil
}

func renderPrompt(text string, data map[string]any) (string, error) {
	tmpl, err := template.New("prompt").Funcs(sprig.TxtFuncMap()).Parse(text)
	if err != nil {
		return "", core.NewError(fmt.Errorf("failed to parse prompt template: %w", err), core.CodeStrategyFailure, nil)
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", core.NewError(fmt.Errorf("failed to render prompt template: %w", err), core.CodeStrategyFailure, nil)
	}
	return buf.String(), nil
}
