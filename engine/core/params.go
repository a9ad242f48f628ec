package core

import (
	"encoding/json"
	"fmt"
	"maps"

	"dario.cat/mergo"
	"github.com/go-viper/mapstructure/v2"
)

// AsMapDefault converts an arbitrary struct into a map[string]any via its
// JSON tags, the same representation ConfigSnapshot entities are diffed and
// hashed with.
func AsMapDefault(v any) (map[string]any, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal value: %w", err)
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to unmarshal value into map: %w", err)
	}
	return m, nil
}

// FromMapDefault decodes a map[string]any into T using weakly-typed
// mapstructure decoding (string "42" into an int field, and so on), the same
// decoding pkg/config uses to turn koanf maps into typed config structs.
func FromMapDefault[T any](m map[string]any) (T, error) {
	var out T
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           &out,
	})
	if err != nil {
		return out, fmt.Errorf("failed to build decoder: %w", err)
	}
	if err := dec.Decode(m); err != nil {
		return out, fmt.Errorf("failed to decode map: %w", err)
	}
	return out, nil
}

type (
	Input  map[string]any
	Output map[string]any
)

func merge(dst, src map[string]any, kind string) (map[string]any, error) {
	result := make(map[string]any)
	maps.Copy(result, dst)
	if err := mergo.Merge(&result, src, mergo.WithOverride, mergo.WithAppendSlice); err != nil {
		return nil, fmt.Errorf("failed to merge %s: %w", kind, err)
	}
	return result, nil
}

// -----------------------------------------------------------------------------
// Input
// -----------------------------------------------------------------------------

func NewInput(m map[string]any) Input {
	if m == nil {
		return make(Input)
	}
	return Input(m)
}

func (i *Input) Merge(other *Input) (*Input, error) {
	if i == nil {
		return other, nil
	}
	result, err := merge(*i, *other, "input")
	if err != nil {
		return nil, err
	}
	newInput := Input(result)
	return &newInput, nil
}

func (i *Input) Prop(key string) any {
	if i == nil {
		return nil
	}
	return (*i)[key]
}

func (i *Input) Set(key string, value any) {
	if i == nil {
		return
	}
	(*i)[key] = value
}

func (i *Input) AsMap() map[string]any {
	if i == nil {
		return nil
	}
	result := make(map[string]any)
	maps.Copy(result, *i)
	return result
}

// -----------------------------------------------------------------------------
// Output
// -----------------------------------------------------------------------------

func (o *Output) Merge(other Output) (Output, error) {
	if o == nil {
		return other, nil
	}
	return merge(*o, other, "output")
}

func (o *Output) Prop(key string) any {
	if o == nil {
		return nil
	}
	return (*o)[key]
}

func (o *Output) Set(key string, value any) {
	if o == nil {
		return
	}
	(*o)[key] = value
}

func (o *Output) AsMap() map[string]any {
	if o == nil {
		return nil
	}
	result := make(map[string]any)
	maps.Copy(result, *o)
	return result
}

// DeepCopy creates a deep copy of Input
func (i *Input) Clone() (*Input, error) {
	return DeepCopy(i)
}

// DeepCopy creates a deep copy of Output
func (o *Output) Clone() (*Output, error) {
	return DeepCopy(o)
}
