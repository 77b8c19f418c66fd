// Package cache implements the in-process query cache that fronts the
// database: a TTL'd key/value store with an LRU capacity bound, read-through
// loading with in-flight coalescing, batched lookups, and invalidation by
// key category.
//
// Keys are opaque strings; category membership is a naming convention
// (e.g. "product:details:42" belongs to "product:details:"). Reads are O(1),
// category invalidation scans all keys.
package cache

import (
	"container/list"
	"context"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/sync/singleflight"
)

var (
	// ErrInvalidKey is returned by Set when the key is empty.
	ErrInvalidKey = errors.New("cache: key must be a non-empty string")
	// ErrInvalidTTL is returned by Set when the TTL is negative.
	ErrInvalidTTL = errors.New("cache: ttl must not be negative")
)

const defaultCapacity = 1000

// Config holds the cache configuration.
type Config struct {
	// Capacity is the maximum number of entries; least recently used
	// entries are evicted beyond it. Defaults to 1000.
	Capacity int
	// CleanupInterval is the period of the background sweep that removes
	// expired entries. Zero disables the sweep; lazy eviction on read
	// still applies.
	CleanupInterval time.Duration
	// OnEviction, if set, is called for every entry removed by capacity
	// eviction or by the background sweep.
	OnEviction func(key string, value any)
}

type entry struct {
	key       string
	value     any
	writtenAt time.Time
	expiresAt time.Time // zero means the entry never expires
	element   *list.Element
}

func (e *entry) valid(now time.Time) bool {
	return e.expiresAt.IsZero() || now.Before(e.expiresAt)
}

// Cache is a TTL'd key/value store bounded by an LRU capacity.
// A single instance is created at startup and injected into every
// component that needs it; there is no package-level cache.
type Cache struct {
	capacity   int
	onEviction func(key string, value any)

	mu      sync.RWMutex
	entries map[string]*entry
	order   *list.List // front = most recently used

	flight  singleflight.Group
	tracker Tracker

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates a cache and starts its background sweep when
// Config.CleanupInterval is positive. Call Close to stop the sweep.
func New(config Config) *Cache {
	if config.Capacity <= 0 {
		config.Capacity = defaultCapacity
	}

	c := &Cache{
		capacity:   config.Capacity,
		onEviction: config.OnEviction,
		entries:    make(map[string]*entry),
		order:      list.New(),
	}

	if config.CleanupInterval > 0 {
		ctx, cancel := context.WithCancel(context.Background())
		c.cancel = cancel
		c.wg.Add(1)
		go c.cleanupLoop(ctx, config.CleanupInterval)
	}

	return c
}

// Get returns the value stored under key. A stale entry is removed on the
// spot and reported as a miss; absence is a normal outcome, not an error.
func (c *Cache) Get(_ context.Context, key string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		c.tracker.RecordMiss()
		return nil, false
	}
	if !e.valid(time.Now()) {
		c.removeEntry(e)
		c.tracker.RecordExpiration()
		c.tracker.RecordMiss()
		return nil, false
	}

	c.order.MoveToFront(e.element)
	c.tracker.RecordHit()
	return e.value, true
}

// Set stores value under key, fully replacing any previous entry. A ttl of
// zero means the entry never expires and must be invalidated explicitly.
// An empty key or a negative ttl is a contract violation.
func (c *Cache) Set(_ context.Context, key string, value any, ttl time.Duration) error {
	if key == "" {
		return ErrInvalidKey
	}
	if ttl < 0 {
		return errors.Wrapf(ErrInvalidTTL, "key %q", key)
	}

	now := time.Now()
	var expiresAt time.Time
	if ttl > 0 {
		expiresAt = now.Add(ttl)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.entries[key]; ok {
		e.value = value
		e.writtenAt = now
		e.expiresAt = expiresAt
		c.order.MoveToFront(e.element)
		return nil
	}

	for len(c.entries) >= c.capacity {
		c.evictOldest()
	}

	e := &entry{
		key:       key,
		value:     value,
		writtenAt: now,
		expiresAt: expiresAt,
	}
	e.element = c.order.PushFront(e)
	c.entries[key] = e
	return nil
}

// Invalidate removes the entry for key. Removing an absent key is a no-op.
func (c *Cache) Invalidate(_ context.Context, key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.entries[key]; ok {
		c.removeEntry(e)
	}
}

// InvalidatePrefix removes every entry whose key starts with prefix and
// returns the number removed. This is the category invalidation primitive:
// write paths call it for each category the mutated row can appear in.
func (c *Cache) InvalidatePrefix(_ context.Context, prefix string) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	count := 0
	for key, e := range c.entries {
		if strings.HasPrefix(key, prefix) {
			c.removeEntry(e)
			count++
		}
	}
	return count
}

// InvalidatePattern removes entries matching pattern and returns the number
// removed. A pattern without "*" is an exact key; a trailing "*" matches the
// prefix before it (e.g. "products:listing:*").
func (c *Cache) InvalidatePattern(ctx context.Context, pattern string) int {
	if !strings.Contains(pattern, "*") {
		c.mu.Lock()
		defer c.mu.Unlock()
		if e, ok := c.entries[pattern]; ok {
			c.removeEntry(e)
			return 1
		}
		return 0
	}
	return c.InvalidatePrefix(ctx, strings.TrimSuffix(pattern, "*"))
}

// InvalidateRegexp removes every entry whose key matches re and returns the
// number removed.
func (c *Cache) InvalidateRegexp(_ context.Context, re *regexp.Regexp) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	count := 0
	for key, e := range c.entries {
		if re.MatchString(key) {
			c.removeEntry(e)
			count++
		}
	}
	return count
}

// Clear removes all entries. Counters are kept.
func (c *Cache) Clear(_ context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[string]*entry)
	c.order.Init()
}

// Size returns the number of live entries, including any not yet swept
// expired ones.
func (c *Cache) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Stats returns a point-in-time snapshot of the entry count and the
// tracker's counters. It does not mutate the cache.
func (c *Cache) Stats() Stats {
	return c.tracker.snapshot(c.Size())
}

// CleanupExpired removes all currently expired entries and returns the
// number removed.
func (c *Cache) CleanupExpired() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	var expired []*entry
	for _, e := range c.entries {
		if !e.valid(now) {
			expired = append(expired, e)
		}
	}
	for _, e := range expired {
		c.removeEntry(e)
		c.tracker.RecordExpiration()
		if c.onEviction != nil {
			c.onEviction(e.key, e.value)
		}
	}
	return len(expired)
}

// Close stops the background sweep. The cache remains usable afterwards.
func (c *Cache) Close() {
	if c.cancel != nil {
		c.cancel()
	}
	c.wg.Wait()
}

// peek returns the value for key without touching LRU order or counters.
// Used by the read-through path to re-check after winning the flight.
func (c *Cache) peek(key string) (any, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.entries[key]
	if !ok || !e.valid(time.Now()) {
		return nil, false
	}
	return e.value, true
}

func (c *Cache) cleanupLoop(ctx context.Context, interval time.Duration) {
	defer c.wg.Done()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.CleanupExpired()
		}
	}
}

// evictOldest removes the least recently used entry. Must be called with
// the lock held.
func (c *Cache) evictOldest() {
	oldest := c.order.Back()
	if oldest == nil {
		return
	}
	e := oldest.Value.(*entry)
	c.removeEntry(e)
	c.tracker.RecordEviction()
	if c.onEviction != nil {
		c.onEviction(e.key, e.value)
	}
}

// removeEntry removes an entry. Must be called with the lock held.
func (c *Cache) removeEntry(e *entry) {
	c.order.Remove(e.element)
	delete(c.entries, e.key)
}
