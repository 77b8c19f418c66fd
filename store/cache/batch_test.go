package cache

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFetchMany_FansOutBulkResult(t *testing.T) {
	c := New(Config{Capacity: 100})
	defer c.Close()
	ctx := context.Background()

	result, err := FetchMany(ctx, c, "users:batch", []int32{1, 2, 3}, time.Minute,
		func(_ context.Context, ids []int32) (map[int32]string, error) {
			out := make(map[int32]string, len(ids))
			for _, id := range ids {
				if id != 2 { // id 2 does not exist
					out[id] = string(rune('a' + id))
				}
			}
			return out, nil
		})
	require.NoError(t, err)

	assert.Len(t, result, 2)
	assert.Contains(t, result, int32(1))
	assert.Contains(t, result, int32(3))
	assert.NotContains(t, result, int32(2))
}

func TestFetchMany_OrderIndependence(t *testing.T) {
	c := New(Config{Capacity: 100})
	defer c.Close()
	ctx := context.Background()

	var calls atomic.Int64
	producer := func(_ context.Context, ids []int32) (map[int32]int32, error) {
		calls.Add(1)
		out := make(map[int32]int32, len(ids))
		for _, id := range ids {
			out[id] = id * 10
		}
		return out, nil
	}

	first, err := FetchMany(ctx, c, "products:batch", []int32{3, 1, 2}, time.Minute, producer)
	require.NoError(t, err)

	second, err := FetchMany(ctx, c, "products:batch", []int32{1, 2, 3}, time.Minute, producer)
	require.NoError(t, err)

	// Same logical set, same composite entry, one bulk fetch.
	assert.Equal(t, int64(1), calls.Load())
	assert.Equal(t, first, second)
	assert.Equal(t, 1, c.Size())
}

func TestFetchMany_DeduplicatesIDs(t *testing.T) {
	c := New(Config{Capacity: 100})
	defer c.Close()
	ctx := context.Background()

	var seen []int32
	_, err := FetchMany(ctx, c, "users:batch", []int32{5, 1, 5, 1}, time.Minute,
		func(_ context.Context, ids []int32) (map[int32]struct{}, error) {
			seen = ids
			return map[int32]struct{}{}, nil
		})
	require.NoError(t, err)
	assert.Equal(t, []int32{1, 5}, seen)
}

func TestFetchMany_EmptySetShortCircuits(t *testing.T) {
	c := New(Config{Capacity: 100})
	defer c.Close()
	ctx := context.Background()

	result, err := FetchMany(ctx, c, "users:batch", nil, time.Minute,
		func(context.Context, []int32) (map[int32]string, error) {
			t.Fatal("producer must not run for an empty id set")
			return nil, nil
		})
	require.NoError(t, err)
	assert.Empty(t, result)
	assert.Equal(t, 0, c.Size())
	// Not even a miss is recorded: the store was never consulted.
	assert.Equal(t, int64(0), c.Stats().Misses)
}

func TestFetchMany_ProducerError(t *testing.T) {
	c := New(Config{Capacity: 100})
	defer c.Close()
	ctx := context.Background()

	boom := errors.New("bulk query failed")
	_, err := FetchMany(ctx, c, "users:batch", []int32{1}, time.Minute,
		func(context.Context, []int32) (map[int32]string, error) {
			return nil, boom
		})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 0, c.Size())
}

func TestFetchMany_ReturnsCopy(t *testing.T) {
	c := New(Config{Capacity: 100})
	defer c.Close()
	ctx := context.Background()

	producer := func(_ context.Context, ids []int32) (map[int32]string, error) {
		return map[int32]string{1: "one"}, nil
	}

	first, err := FetchMany(ctx, c, "users:batch", []int32{1}, time.Minute, producer)
	require.NoError(t, err)
	first[1] = "mutated"

	second, err := FetchMany(ctx, c, "users:batch", []int32{1}, time.Minute, producer)
	require.NoError(t, err)
	assert.Equal(t, "one", second[1])
}

func TestBatchKey(t *testing.T) {
	assert.Equal(t, "products:batch:1,2,3", BatchKey("products:batch", []int32{1, 2, 3}))
}

func TestTracker_ZeroObservations(t *testing.T) {
	var tracker Tracker
	assert.Zero(t, tracker.HitRate())
	assert.Zero(t, tracker.LoadReduction())
}

func TestTracker_LoadReductionCapped(t *testing.T) {
	var tracker Tracker
	for i := 0; i < 1000; i++ {
		tracker.RecordHit()
	}
	assert.Equal(t, float64(99), tracker.LoadReduction())
	assert.Equal(t, float64(1), tracker.HitRate())
}
