package config

import (
	"fmt"

	"dario.cat/mergo"

	"github.com/periplon/metis/engine/core"
)

func newConfigError(format string, args ...any) error {
	return core.NewError(fmt.Errorf(format, args...), core.CodeConfiguration, nil)
}

func requireField(v, name string) error {
	if v == "" {
		return newConfigError("%s is required", name)
	}
	return nil
}

// mergeInto merges other (a same-typed pointer) into dst field-by-field,
// with other's non-zero fields taking precedence, the same semantics
// engine/core's Input/Output Merge methods use for maps.
func mergeInto(dst, other any) error {
	if other == nil {
		return nil
	}
	if err := mergo.Merge(dst, other, mergo.WithOverride, mergo.WithAppendSlice); err != nil {
		return core.NewError(fmt.Errorf("failed to merge config: %w", err), core.CodeConfiguration, nil)
	}
	return nil
}
