package mockengine

import (
	"fmt"
	"strings"
	"text/template"

	"github.com/Masterminds/sprig/v3"

	"github.com/periplon/metis/engine/config"
	"github.com/periplon/metis/engine/core"
)

// template renders cfg.Template as a Go template with sprig's function map
// and args fields promoted to the top-level dot context (spec.md §4.1's
// Template strategy, adapted to text/template's `.field` access in place of
// the original Tera engine's bare-identifier access).
func (e *Engine) template(cfg *config.MockConfig, args map[string]any) (any, error) {
	rendered, err := renderTemplate(cfg.Template, args)
	if err != nil {
		return nil, err
	}
	return parseIfJSON(rendered), nil
}

func renderTemplate(text string, data map[string]any) (string, error) {
	tmpl, err := template.New("mock").Funcs(sprig.TxtFuncMap()).Parse(text)
	if err != nil {
		return "", core.NewError(fmt.Errorf("failed to parse template: %w", err), core.CodeStrategyFailure, nil)
	}
	var buf strings.Builder
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", core.NewError(fmt.Errorf("failed to render template: %w", err), core.CodeStrategyFailure, nil)
	}
	return buf.String(), nil
}
