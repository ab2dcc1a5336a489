// Package cache is the public facade over the cache engine: a
// concurrent, bounded, in-memory key/value cache with weight-based
// eviction (W-TinyLFU) and time-based expiration (TTL/TTI).
//
// A Cache is built with a Builder, which validates configuration and
// wires the Map Store, Policy Engine, Expiration Engine, Event
// Channel, and Housekeeper together:
//
//	c, err := cache.NewBuilder[string, *Session]().
//		WithMaxWeightedSize(10_000).
//		WithTimeToIdle(30 * time.Minute).
//		WithEvictionListener(func(key string, val *Session, cause cache.EvictionCause) {
//			log.Printf("evicted %s: %s", key, cause)
//		}).
//		Build()
package cache

import (
	"time"

	"github.com/tesseracache/tessera/internal/cachemetrics"
	"github.com/tesseracache/tessera/internal/clock"
	"github.com/tesseracache/tessera/internal/events"
	"github.com/tesseracache/tessera/internal/expire"
	"github.com/tesseracache/tessera/internal/housekeeper"
	"github.com/tesseracache/tessera/internal/policy"
	"github.com/tesseracache/tessera/internal/store"
)

// EvictionCause is why an entry left the cache.
type EvictionCause = housekeeper.Cause

// Causes an entry can be removed for.
const (
	Explicit = housekeeper.Explicit
	Replaced = housekeeper.Replaced
	Size     = housekeeper.Size
	Expired  = housekeeper.Expired
)

// Weigher computes the weight of a key/value pair for size-based
// eviction. The default weigher returns 1 for every entry, so capacity
// is interpreted as an entry count unless a caller supplies one. A
// weight of 0 is promoted to 1 (spec §4.6): a zero-weight entry could
// never be evicted for size, which would let it pin memory forever.
type Weigher[K comparable, V any] func(key K, value V) int64

// Listener receives exactly one notification per entry removed by
// Invalidate, replacement, expiration, or size eviction; InvalidateAll
// removes entries without notifying it. Expired and size-eviction
// notifications run during a housekeeping pass; Replaced, Explicit, and
// the Size notification for an entry heavier than capacity run
// synchronously on the goroutine that called Insert or Invalidate. It
// must not block; a panic is recovered and logged.
type Listener[K comparable, V any] func(key K, value V, cause EvictionCause)

// Cache is a concurrent, bounded key/value cache. All methods are safe
// for concurrent use. The zero value is not usable; construct one with
// NewBuilder.
type Cache[K comparable, V any] struct {
	store       *store.Store[K, V]
	events      *events.Channel[K]
	expire      *expire.Engine[K]
	policy      *policy.Engine[K]
	housekeeper *housekeeper.Housekeeper[K, V]
	clock       clock.Clock
	weigher     Weigher[K, V]
	metrics     *cachemetrics.Metrics

	maxWeightedSize int64
}

// Get returns the value stored under key and whether it was found.
// A key whose TTL or TTI has elapsed is treated as absent even if the
// Housekeeper has not yet physically removed it (spec §4.1/§4.3): the
// check is synchronous and never removes anything itself.
func (c *Cache[K, V]) Get(key K) (V, bool) {
	defer c.metrics.ObserveLatency("get", time.Now())

	entry, generation, ok := c.store.Get(key)
	if !ok {
		c.metrics.RecordMiss()
		var zero V
		return zero, false
	}

	now := c.clock.Now().UnixNano()
	if !c.expire.IsLive(entry.InsertedAt(), entry.AccessedAt(), now) {
		c.metrics.RecordMiss()
		var zero V
		return zero, false
	}

	c.store.Touch(entry, now)
	c.events.Read(key, generation, now)
	c.metrics.RecordHit()
	return entry.Value, true
}

// Insert stores value under key, replacing any existing binding. An
// entry whose weight alone exceeds the cache's capacity is rejected
// outright and reported to the eviction listener with cause Size,
// without ever touching the Map Store (spec §4.2's "weight handling").
func (c *Cache[K, V]) Insert(key K, value V) {
	defer c.metrics.ObserveLatency("insert", time.Now())

	weight := c.weightFor(key, value)
	if c.maxWeightedSize > 0 && weight > c.maxWeightedSize {
		c.housekeeper.SizeNotify(key, value)
		return
	}

	now := c.clock.Now().UnixNano()
	previous := c.store.Insert(key, value, weight, now)
	if previous != nil {
		c.housekeeper.ReplacedNotify(key, previous.Value)
	}

	generation := uint64(0)
	if previous != nil {
		generation = previous.Generation() + 1
	}
	c.events.Write(key, generation, weight, now)
	c.metrics.RecordInsertion()
	c.metrics.SetSize(c.store.Len(), c.store.WeightedSize())
}

// Invalidate removes key, reporting cause Explicit if something was
// removed. It reports whether a binding was present.
func (c *Cache[K, V]) Invalidate(key K) bool {
	defer c.metrics.ObserveLatency("invalidate", time.Now())

	removed := c.store.Invalidate(key)
	if removed == nil {
		return false
	}
	c.housekeeper.ExplicitNotify(key, removed.Value)
	c.events.Remove(key, removed.Generation())
	c.metrics.SetSize(c.store.Len(), c.store.WeightedSize())
	return true
}

// InvalidateAll removes every entry. Per-entry notifications are
// deliberately not emitted for this bulk operation — firing one
// listener call per entry would turn an O(1) foreground clear into an
// O(n) one, and spec §6 only requires exactly one notification per
// removal that actually happens through the normal paths, not that a
// wholesale reset be individually accounted for.
func (c *Cache[K, V]) InvalidateAll() {
	c.store.InvalidateAll()
	c.metrics.SetSize(0, 0)
}

// Len returns the number of entries currently in the cache.
func (c *Cache[K, V]) Len() int64 { return c.store.Len() }

// WeightedSize returns the sum of every live entry's weight.
func (c *Cache[K, V]) WeightedSize() int64 { return c.store.WeightedSize() }

// MaxWeightedSize returns the configured capacity (0 means unbounded).
func (c *Cache[K, V]) MaxWeightedSize() int64 { return c.maxWeightedSize }

// TimeToLive returns the configured default TTL (0 means disabled).
func (c *Cache[K, V]) TimeToLive() time.Duration { return c.expire.TimeToLive() }

// TimeToIdle returns the configured default TTI (0 means disabled).
func (c *Cache[K, V]) TimeToIdle() time.Duration { return c.expire.TimeToIdle() }

// Metrics returns the Prometheus instrumentation for this cache, or
// nil if it was built without WithMetrics.
func (c *Cache[K, V]) Metrics() *cachemetrics.Metrics { return c.metrics }

// Close stops the background housekeeping ticker. A closed Cache still
// serves Get/Insert/Invalidate — housekeeping simply no longer runs on
// a timer, only synchronously when the event channel fills.
func (c *Cache[K, V]) Close() {
	c.housekeeper.Stop()
}

func (c *Cache[K, V]) weightFor(key K, value V) int64 {
	if c.weigher == nil {
		return 1
	}
	w := c.weigher(key, value)
	if w <= 0 {
		return 1
	}
	return w
}
