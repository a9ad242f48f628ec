package secret

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOracle_Lookup(t *testing.T) {
	t.Run("Should resolve from a static source", func(t *testing.T) {
		o := New(StaticSource{"API_KEY": "from-source"})
		v, ok, err := o.Lookup(context.Background(), "API_KEY")
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, "from-source", v)
	})

	t.Run("Should fall back to the process environment", func(t *testing.T) {
		t.Setenv("METIS_TEST_SECRET", "from-env")
		o := New(StaticSource{})
		v, ok, err := o.Lookup(context.Background(), "METIS_TEST_SECRET")
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, "from-env", v)
	})

	t.Run("Should report not found when neither source nor env has the key", func(t *testing.T) {
		o := New(StaticSource{})
		_, ok, err := o.Lookup(context.Background(), "METIS_DOES_NOT_EXIST")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("Should prefer an earlier source over a later one", func(t *testing.T) {
		o := New(StaticSource{"K": "first"}, StaticSource{"K": "second"})
		v, _, err := o.Lookup(context.Background(), "K")
		require.NoError(t, err)
		assert.Equal(t, "first", v)
	})
}
