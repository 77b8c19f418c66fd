package cache

import "sync/atomic"

// Tracker counts cache lifecycle events. It is purely observational: no
// other component reads it to make decisions. Counters are atomic so the
// cache can record events under its read lock.
type Tracker struct {
	hits        atomic.Int64
	misses      atomic.Int64
	evictions   atomic.Int64
	expirations atomic.Int64
}

// RecordHit counts a read that found a valid entry.
func (t *Tracker) RecordHit() { t.hits.Add(1) }

// RecordMiss counts a read that found no valid entry.
func (t *Tracker) RecordMiss() { t.misses.Add(1) }

// RecordEviction counts an entry removed to stay within capacity.
func (t *Tracker) RecordEviction() { t.evictions.Add(1) }

// RecordExpiration counts an entry removed because its TTL elapsed.
func (t *Tracker) RecordExpiration() { t.expirations.Add(1) }

// HitRate returns hits/(hits+misses), or 0 before any observation.
func (t *Tracker) HitRate() float64 {
	hits := t.hits.Load()
	total := hits + t.misses.Load()
	if total == 0 {
		return 0
	}
	return float64(hits) / float64(total)
}

// LoadReduction estimates, as a percentage, how much load the cache takes
// off the database. It is the hit rate scaled to percent and capped; the
// figure is advisory and reported for observability only.
func (t *Tracker) LoadReduction() float64 {
	reduction := t.HitRate() * 100
	if reduction > 99 {
		reduction = 99
	}
	return reduction
}

// Stats is a point-in-time snapshot of the cache counters.
type Stats struct {
	Size          int     `json:"size"`
	Hits          int64   `json:"hits"`
	Misses        int64   `json:"misses"`
	Evictions     int64   `json:"evictions"`
	Expirations   int64   `json:"expirations"`
	HitRate       float64 `json:"hit_rate"`
	LoadReduction float64 `json:"load_reduction"`
}

func (t *Tracker) snapshot(size int) Stats {
	return Stats{
		Size:          size,
		Hits:          t.hits.Load(),
		Misses:        t.misses.Load(),
		Evictions:     t.evictions.Load(),
		Expirations:   t.expirations.Load(),
		HitRate:       t.HitRate(),
		LoadReduction: t.LoadReduction(),
	}
}
