package cel

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEval(t *testing.T) {
	t.Run("Should evaluate an arithmetic expression against variables", func(t *testing.T) {
		v, err := Eval(context.Background(), "input.count + 1", map[string]any{
			"input": map[string]any{"count": int64(41)},
		})
		require.NoError(t, err)
		assert.EqualValues(t, 42, v)
	})

	t.Run("Should reject a malformed expression", func(t *testing.T) {
		_, err := Eval(context.Background(), "input.count +", map[string]any{"input": map[string]any{}})
		require.Error(t, err)
	})
}

func TestEvalBool(t *testing.T) {
	t.Run("Should coerce a boolean result", func(t *testing.T) {
		v, err := EvalBool(context.Background(), "input.ok == true", map[string]any{
			"input": map[string]any{"ok": true},
		})
		require.NoError(t, err)
		assert.True(t, v)
	})

	t.Run("Should error when the expression is not boolean", func(t *testing.T) {
		_, err := EvalBool(context.Background(), "input.count", map[string]any{
			"input": map[string]any{"count": int64(1)},
		})
		require.Error(t, err)
	})
}

func TestEvalSlice(t *testing.T) {
	t.Run("Should return an empty slice for a null result", func(t *testing.T) {
		v, err := EvalSlice(context.Background(), "input.missing", map[string]any{
			"input": map[string]any{"missing": nil},
		})
		require.NoError(t, err)
		assert.Empty(t, v)
	})
}
