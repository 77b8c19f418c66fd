package cache

import (
	"context"
	"fmt"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCache_BasicOperations(t *testing.T) {
	c := New(Config{Capacity: 100})
	defer c.Close()
	ctx := context.Background()

	t.Run("SetAndGet", func(t *testing.T) {
		require.NoError(t, c.Set(ctx, "key1", "value1", 0))

		val, ok := c.Get(ctx, "key1")
		assert.True(t, ok)
		assert.Equal(t, "value1", val)
	})

	t.Run("GetNonExistent", func(t *testing.T) {
		val, ok := c.Get(ctx, "nonexistent")
		assert.False(t, ok)
		assert.Nil(t, val)
	})

	t.Run("SetReplacesEntry", func(t *testing.T) {
		require.NoError(t, c.Set(ctx, "key2", "original", time.Minute))
		require.NoError(t, c.Set(ctx, "key2", "updated", 0))

		val, ok := c.Get(ctx, "key2")
		assert.True(t, ok)
		assert.Equal(t, "updated", val)

		// The replacement reset the TTL to "never expires".
		time.Sleep(10 * time.Millisecond)
		_, ok = c.Get(ctx, "key2")
		assert.True(t, ok)
	})
}

func TestCache_ContractViolations(t *testing.T) {
	c := New(Config{})
	defer c.Close()
	ctx := context.Background()

	t.Run("EmptyKey", func(t *testing.T) {
		err := c.Set(ctx, "", "value", 0)
		assert.ErrorIs(t, err, ErrInvalidKey)
	})

	t.Run("NegativeTTL", func(t *testing.T) {
		err := c.Set(ctx, "key", "value", -time.Second)
		assert.ErrorIs(t, err, ErrInvalidTTL)
	})
}

func TestCache_TTL(t *testing.T) {
	c := New(Config{Capacity: 100})
	defer c.Close()
	ctx := context.Background()

	t.Run("ExpiresAfterTTL", func(t *testing.T) {
		require.NoError(t, c.Set(ctx, "expiring", "value", 50*time.Millisecond))

		val, ok := c.Get(ctx, "expiring")
		assert.True(t, ok)
		assert.Equal(t, "value", val)

		time.Sleep(60 * time.Millisecond)

		val, ok = c.Get(ctx, "expiring")
		assert.False(t, ok)
		assert.Nil(t, val)
		// Lazy eviction removed the stale entry.
		assert.Equal(t, 0, c.Size())
	})

	t.Run("ZeroTTLNeverExpires", func(t *testing.T) {
		require.NoError(t, c.Set(ctx, "forever", "value", 0))

		time.Sleep(20 * time.Millisecond)

		_, ok := c.Get(ctx, "forever")
		assert.True(t, ok)
	})
}

func TestCache_Invalidate(t *testing.T) {
	c := New(Config{Capacity: 100})
	defer c.Close()
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "key", "value", 0))
	c.Invalidate(ctx, "key")

	_, ok := c.Get(ctx, "key")
	assert.False(t, ok)

	// Invalidating an absent key is a no-op.
	c.Invalidate(ctx, "key")
}

func TestCache_InvalidatePrefix(t *testing.T) {
	c := New(Config{Capacity: 100})
	defer c.Close()
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "product:1", "a", 0))
	require.NoError(t, c.Set(ctx, "product:2", "b", 0))
	require.NoError(t, c.Set(ctx, "user:1", "c", 0))

	count := c.InvalidatePrefix(ctx, "product:")
	assert.Equal(t, 2, count)

	_, ok := c.Get(ctx, "product:1")
	assert.False(t, ok)
	_, ok = c.Get(ctx, "product:2")
	assert.False(t, ok)

	val, ok := c.Get(ctx, "user:1")
	assert.True(t, ok)
	assert.Equal(t, "c", val)

	// A prefix matching nothing removes nothing.
	assert.Equal(t, 0, c.InvalidatePrefix(ctx, "order:"))
}

func TestCache_InvalidatePattern(t *testing.T) {
	c := New(Config{Capacity: 100})
	defer c.Close()
	ctx := context.Background()

	t.Run("ExactMatch", func(t *testing.T) {
		require.NoError(t, c.Set(ctx, "user:1", "1", 0))
		require.NoError(t, c.Set(ctx, "user:2", "2", 0))

		count := c.InvalidatePattern(ctx, "user:1")
		assert.Equal(t, 1, count)

		_, ok := c.Get(ctx, "user:1")
		assert.False(t, ok)
		_, ok = c.Get(ctx, "user:2")
		assert.True(t, ok)
	})

	t.Run("Wildcard", func(t *testing.T) {
		c.Clear(ctx)
		require.NoError(t, c.Set(ctx, "user:1:profile", "1", 0))
		require.NoError(t, c.Set(ctx, "user:1:settings", "2", 0))
		require.NoError(t, c.Set(ctx, "user:2:profile", "3", 0))

		count := c.InvalidatePattern(ctx, "user:1:*")
		assert.Equal(t, 2, count)

		_, ok := c.Get(ctx, "user:1:profile")
		assert.False(t, ok)
		_, ok = c.Get(ctx, "user:2:profile")
		assert.True(t, ok)
	})
}

func TestCache_InvalidateRegexp(t *testing.T) {
	c := New(Config{Capacity: 100})
	defer c.Close()
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "products:batch:1,2,3", "a", 0))
	require.NoError(t, c.Set(ctx, "products:batch:2,5", "b", 0))
	require.NoError(t, c.Set(ctx, "products:batch:4,6", "c", 0))

	// Drop every composite batch containing id 2.
	count := c.InvalidateRegexp(ctx, regexp.MustCompile(`^products:batch:(.*,)?2(,.*)?$`))
	assert.Equal(t, 2, count)

	_, ok := c.Get(ctx, "products:batch:4,6")
	assert.True(t, ok)
}

func TestCache_Clear(t *testing.T) {
	c := New(Config{Capacity: 100})
	defer c.Close()
	ctx := context.Background()

	for i := 0; i < 10; i++ {
		require.NoError(t, c.Set(ctx, fmt.Sprintf("key%d", i), i, 0))
	}
	assert.Equal(t, 10, c.Size())

	c.Clear(ctx)
	assert.Equal(t, 0, c.Size())
}

func TestCache_CapacityEviction(t *testing.T) {
	evicted := []string{}
	c := New(Config{
		Capacity: 3,
		OnEviction: func(key string, _ any) {
			evicted = append(evicted, key)
		},
	})
	defer c.Close()
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "key1", 1, 0))
	require.NoError(t, c.Set(ctx, "key2", 2, 0))
	require.NoError(t, c.Set(ctx, "key3", 3, 0))

	// Touch key1 so key2 becomes the least recently used.
	c.Get(ctx, "key1")

	require.NoError(t, c.Set(ctx, "key4", 4, 0))
	assert.Equal(t, 3, c.Size())
	assert.Equal(t, []string{"key2"}, evicted)

	_, ok := c.Get(ctx, "key2")
	assert.False(t, ok)
	_, ok = c.Get(ctx, "key1")
	assert.True(t, ok)
}

func TestCache_Stats(t *testing.T) {
	c := New(Config{Capacity: 100})
	defer c.Close()
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "key", "value", 0))
	c.Get(ctx, "key")
	c.Get(ctx, "key")
	c.Get(ctx, "missing")

	stats := c.Stats()
	assert.Equal(t, 1, stats.Size)
	assert.Equal(t, int64(2), stats.Hits)
	assert.Equal(t, int64(1), stats.Misses)
	assert.InDelta(t, 2.0/3.0, stats.HitRate, 1e-9)

	// Stats is a snapshot and must not mutate state.
	assert.Equal(t, 1, c.Size())
}

func TestCache_CleanupLoop(t *testing.T) {
	c := New(Config{
		Capacity:        100,
		CleanupInterval: 30 * time.Millisecond,
	})
	defer c.Close()
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "temp", "data", 40*time.Millisecond))
	require.NoError(t, c.Set(ctx, "keep", "data", 0))
	assert.Equal(t, 2, c.Size())

	// The sweep removes the expired entry without any read touching it.
	time.Sleep(120 * time.Millisecond)
	assert.Equal(t, 1, c.Size())
}

func TestCache_CleanupExpired(t *testing.T) {
	c := New(Config{Capacity: 100})
	defer c.Close()
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "a", 1, 10*time.Millisecond))
	require.NoError(t, c.Set(ctx, "b", 2, 10*time.Millisecond))
	require.NoError(t, c.Set(ctx, "c", 3, 0))

	time.Sleep(20 * time.Millisecond)

	assert.Equal(t, 2, c.CleanupExpired())
	assert.Equal(t, 1, c.Size())
	assert.Equal(t, int64(2), c.Stats().Expirations)
}

func TestCache_ConcurrentAccess(t *testing.T) {
	c := New(Config{Capacity: 1000})
	defer c.Close()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(2)
		go func(n int) {
			defer wg.Done()
			key := fmt.Sprintf("key%d", n%26)
			_ = c.Set(ctx, key, n, 0)
		}(i)
		go func(n int) {
			defer wg.Done()
			key := fmt.Sprintf("key%d", n%26)
			c.Get(ctx, key)
		}(i)
	}
	wg.Wait()
}
