package workflow

import (
	"bytes"
	"encoding/json"
	"fmt"
	"text/template"

	"github.com/Masterminds/sprig/v3"

	"github.com/periplon/metis/engine/core"
)

// renderValue recursively renders a step's argument template (spec.md
// §4.2 step 3: "render the argument template recursively into
// objects/arrays/strings; a string rendering that parses as JSON is
// promoted to JSON").
func renderValue(v any, data map[string]any) (any, error) {
	switch t := v.(type) {
	case string:
		rendered, err := renderString(t, data)
		if err != nil {
			return nil, err
		}
		var parsed any
		if err := json.Unmarshal([]byte(rendered), &parsed); err == nil {
			return parsed, nil
		}
		return rendered, nil
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			rendered, err := renderValue(val, data)
			if err != nil {
				return nil, err
			}
			out[k] = rendered
		}
		return out, nil
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			rendered, err := renderValue(val, data)
			if err != nil {
				return nil, err
			}
			out[i] = rendered
		}
		return out, nil
	default:
		return v, nil
	}
}

func renderString(text string, data map[string]any) (string, error) {
	tmpl, err := template.New("step").Funcs(sprig.TxtFuncMap()).Parse(text)
	if err != nil {
		return "", core.NewError(fmt.Errorf("failed to parse step argument template: %w", err), core.CodeStrategyFailure, nil)
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", core.NewError(fmt.Errorf("failed to render step argument template: %w", err), core.CodeStrategyFailure, nil)
	}
	return buf.String(), nil
}
