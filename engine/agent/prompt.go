package agent

import (
	"bytes"
	"fmt"
	"sort"
	"text/template"

	"github.com/Masterminds/sprig/v3"

	"github.com/periplon/metis/engine/core"
)

// renderPrompt renders text as a template with input's fields exposed as
// top-level variables (spec.md §4.3: "rendered as templates with `input`
// fields as top-level variables").
func renderPrompt(text string, input map[string]any) (string, error) {
	tmpl, err := template.New("prompt").Funcs(sprig.TxtFuncMap()).Parse(text)
	if err != nil {
		return "", core.NewError(fmt.Errorf("failed to parse prompt template: %w", err), core.CodeStrategyFailure, nil)
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, input); err != nil {
		return "", core.NewError(fmt.Errorf("failed to render prompt template: %w", err), core.CodeStrategyFailure, nil)
	}
	return buf.String(), nil
}

// userPromptText resolves an agent's user content per spec.md §4.3: use
// UserPrompt if set, rendered as a template; otherwise auto-generate
// `key: value` lines from input fields, skipping session_id.
func userPromptText(userPrompt string, input map[string]any) (string, error) {
	if userPrompt != "" {
		return renderPrompt(userPrompt, input)
	}
	keys := make([]string, 0, len(input))
	for k := range input {
		if k == "session_id" {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var buf bytes.Buffer
	for _, k := range keys {
		fmt.Fprintf(&buf, "%s: %v\n", k, input[k])
	}
	return buf.String(), nil
}
