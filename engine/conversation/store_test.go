package conversation

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedisStore(t *testing.T) *RedisStore {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewRedisStore(client)
}

func testStoreSuite(t *testing.T, newStore func(t *testing.T) Store) {
	t.Run("Should return an empty history for a session that was never appended to", func(t *testing.T) {
		store := newStore(t)
		msgs, err := store.Load(context.Background(), "fresh")
		require.NoError(t, err)
		assert.Empty(t, msgs)
	})

	t.Run("Should preserve append order across multiple calls", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()
		require.NoError(t, store.Append(ctx, "s1", Message{Role: RoleUser, Content: "hi"}))
		require.NoError(t, store.Append(ctx, "s1", Message{Role: RoleAssistant, Content: "hello"}))
		msgs, err := store.Load(ctx, "s1")
		require.NoError(t, err)
		require.Len(t, msgs, 2)
		assert.Equal(t, RoleUser, msgs[0].Role)
		assert.Equal(t, RoleAssistant, msgs[1].Role)
	})

	t.Run("Should round-trip tool call fields", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()
		require.NoError(t, store.Append(ctx, "s2", Message{
			Role:      RoleAssistant,
			ToolCalls: []ToolCall{{ID: "call_1", Name: "search", Arguments: `{"q":"x"}`}},
		}))
		msgs, err := store.Load(ctx, "s2")
		require.NoError(t, err)
		require.Len(t, msgs, 1)
		require.Len(t, msgs[0].ToolCalls, 1)
		assert.Equal(t, "search", msgs[0].ToolCalls[0].Name)
	})

	t.Run("Should clear a session's history", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()
		require.NoError(t, store.Append(ctx, "s3", Message{Role: RoleUser, Content: "x"}))
		require.NoError(t, store.Clear(ctx, "s3"))
		msgs, err := store.Load(ctx, "s3")
		require.NoError(t, err)
		assert.Empty(t, msgs)
	})

	t.Run("Should reject an empty session id", func(t *testing.T) {
		store := newStore(t)
		_, err := store.Load(context.Background(), "")
		assert.Error(t, err)
	})
}

func TestRedisStore(t *testing.T) {
	testStoreSuite(t, func(t *testing.T) Store { return newTestRedisStore(t) })
}

func TestMemoryStore(t *testing.T) {
	testStoreSuite(t, func(_ *testing.T) Store { return NewMemoryStore() })
}
