package cache

import (
	"cmp"
	"context"
	"fmt"
	"maps"
	"slices"
	"strings"
	"time"
)

// FetchMany bundles a set of id-keyed lookups into one cached bulk fetch.
// The id set is deduplicated and sorted into a canonical composite key, so
// requests for the same logical set share one entry regardless of input
// order. On a miss the producer is called once with the canonical set and
// must return one value per found id (missing ids are simply absent from
// the map). An empty id set returns an empty map without touching the
// cache or the producer.
//
// The granularity trade-off is deliberate: adding or removing a single id
// produces a new composite key and a fresh miss for the whole batch, which
// is acceptable because batches are stable within one page render.
func FetchMany[K cmp.Ordered, V any](ctx context.Context, c *Cache, prefix string, ids []K, ttl time.Duration, producer func(context.Context, []K) (map[K]V, error)) (map[K]V, error) {
	if len(ids) == 0 {
		return map[K]V{}, nil
	}

	set := canonicalize(ids)
	result, err := Fetch(ctx, c, BatchKey(prefix, set), ttl, func(ctx context.Context) (map[K]V, error) {
		return producer(ctx, set)
	})
	if err != nil {
		return nil, err
	}
	// Hand out a copy so callers cannot mutate the cached map.
	return maps.Clone(result), nil
}

// BatchKey builds the composite cache key for a batched lookup. Write paths
// invalidate all batches of a category at once via InvalidatePrefix(prefix).
func BatchKey[K cmp.Ordered](prefix string, ids []K) string {
	parts := make([]string, 0, len(ids))
	for _, id := range ids {
		parts = append(parts, fmt.Sprint(id))
	}
	return prefix + ":" + strings.Join(parts, ",")
}

// canonicalize returns a sorted, deduplicated copy of ids.
func canonicalize[K cmp.Ordered](ids []K) []K {
	set := slices.Clone(ids)
	slices.Sort(set)
	return slices.Compact(set)
}
