package schema

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/kaptinlin/jsonschema"

	"github.com/periplon/metis/engine/core"
)

// Validate checks data against a JSON Schema document (already resolved via
// ResolveRefs), returning a core.Error tagged CodeInvalidRequest on failure.
// This backs tool/agent input validation (Component 3) ahead of dispatch.
func Validate(document map[string]any, data any) error {
	raw, err := json.Marshal(document)
	if err != nil {
		return core.NewError(fmt.Errorf("failed to marshal schema document: %w", err), core.CodeConfiguration, nil)
	}
	compiler := jsonschema.NewCompiler()
	compiled, err := compiler.Compile(raw)
	if err != nil {
		return core.NewError(fmt.Errorf("failed to compile schema: %w", err), core.CodeConfiguration, nil)
	}
	result := compiled.Validate(data)
	if result.IsValid() {
		return nil
	}
	return core.NewError(fmt.Errorf("schema validation failed: %s", summarizeErrors(result)), core.CodeInvalidRequest, map[string]any{
		"suggestion": "check the arguments against the tool's input_schema",
	})
}

func summarizeErrors(result *jsonschema.EvaluationResult) string {
	list := result.ToList()
	if list == nil || len(list.Errors) == 0 {
		return "invalid input"
	}
	parts := make([]string, 0, len(list.Errors))
	for field, msg := range list.Errors {
		parts = append(parts, fmt.Sprintf("%s: %s", field, msg))
	}
	return strings.Join(parts, "; ")
}
