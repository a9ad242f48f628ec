package state

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_GetSet(t *testing.T) {
	t.Run("Should return false for missing key", func(t *testing.T) {
		s := New()
		_, ok := s.Get("missing")
		assert.False(t, ok)
	})

	t.Run("Should round-trip a stored value", func(t *testing.T) {
		s := New()
		s.Set("name", "metis")
		v, ok := s.Get("name")
		require.True(t, ok)
		assert.Equal(t, "metis", v)
	})
}

func TestStore_Increment(t *testing.T) {
	t.Run("Should treat a missing key as 0", func(t *testing.T) {
		s := New()
		assert.Equal(t, int64(1), s.Increment("ctr"))
		assert.Equal(t, int64(2), s.Increment("ctr"))
		assert.Equal(t, int64(3), s.Increment("ctr"))
	})

	t.Run("Should return each integer exactly once under concurrent increments", func(t *testing.T) {
		s := New()
		const n = 200
		results := make(chan int64, n)
		var wg sync.WaitGroup
		wg.Add(n)
		for range n {
			go func() {
				defer wg.Done()
				results <- s.Increment("ctr")
			}()
		}
		wg.Wait()
		close(results)
		seen := make(map[int64]bool, n)
		for v := range results {
			assert.False(t, seen[v], "value %d returned more than once", v)
			seen[v] = true
		}
		assert.Len(t, seen, n)
	})
}

func TestStore_DeleteAndClear(t *testing.T) {
	t.Run("Should delete a key", func(t *testing.T) {
		s := New()
		s.Set("k", 1)
		s.Delete("k")
		_, ok := s.Get("k")
		assert.False(t, ok)
	})

	t.Run("Should clear every key", func(t *testing.T) {
		s := New()
		s.Set("a", 1)
		s.Set("b", 2)
		s.Clear()
		assert.Empty(t, s.GetAll())
	})
}

func TestStore_NextFileCursor(t *testing.T) {
	t.Run("Should advance and wrap modulo length", func(t *testing.T) {
		s := New()
		const length = 3
		for want := range 7 {
			got := s.NextFileCursor("/tmp/data.json", length)
			assert.Equal(t, want%length, got)
		}
	})

	t.Run("Should return 0 for non-positive length", func(t *testing.T) {
		s := New()
		assert.Equal(t, 0, s.NextFileCursor("/tmp/empty.json", 0))
	})
}
