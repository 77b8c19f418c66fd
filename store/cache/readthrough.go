package cache

import (
	"context"
	"time"

	"github.com/pkg/errors"
)

// Fetch returns the cached value for key, invoking producer to compute and
// store it on a miss. On a hit the producer is not called.
//
// Concurrent misses for the same key are coalesced: only the first caller
// runs the producer, the rest block on the in-flight call and receive the
// same result. A hung producer therefore blocks only the callers awaiting
// that key. The cache applies no timeout of its own; cancellation belongs
// to the producer via ctx.
//
// A producer failure is returned unchanged and nothing is cached for the
// key, so a transient outage is never frozen in for the TTL duration.
func Fetch[T any](ctx context.Context, c *Cache, key string, ttl time.Duration, producer func(context.Context) (T, error)) (T, error) {
	var zero T

	if v, ok := c.Get(ctx, key); ok {
		if typed, ok := v.(T); ok {
			return typed, nil
		}
		// A value of another type under this key means two call sites
		// collide on the same key. Drop it and let the producer overwrite.
		c.Invalidate(ctx, key)
	}

	v, err, _ := c.flight.Do(key, func() (any, error) {
		// The flight may have been won after another caller already
		// populated the entry; re-check before paying for the producer.
		if v, ok := c.peek(key); ok {
			return v, nil
		}
		value, err := producer(ctx)
		if err != nil {
			return nil, err
		}
		if err := c.Set(ctx, key, value, ttl); err != nil {
			return nil, err
		}
		return value, nil
	})
	if err != nil {
		return zero, err
	}

	typed, ok := v.(T)
	if !ok {
		return zero, errors.Errorf("cache: value under key %q has type %T, not the requested type", key, v)
	}
	return typed, nil
}
