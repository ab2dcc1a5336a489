package cache

import (
	"time"

	"github.com/tesseracache/tessera/internal/cachemetrics"
	"github.com/tesseracache/tessera/internal/clock"
	"github.com/tesseracache/tessera/internal/events"
	"github.com/tesseracache/tessera/internal/expire"
	"github.com/tesseracache/tessera/internal/housekeeper"
	"github.com/tesseracache/tessera/internal/obslog"
	"github.com/tesseracache/tessera/internal/policy"
	"github.com/tesseracache/tessera/internal/store"
	cerrors "github.com/tesseracache/tessera/pkg/errors"
)

// The spec's "TTL/TTI must be ≤ 1000 years" ceiling (§4.6, resolved as
// a hard Open Question in §9: reject absurd durations at build time
// rather than silently truncating them) is unreachable through Go's
// time.Duration: the type is an int64 count of nanoseconds, so its
// largest representable value is ~292 years. Every time.Duration a
// caller can actually construct is already under the spec's ceiling,
// so Build only needs to reject negative durations.

const defaultEventChannelCapacity = 2048

// Builder constructs a Cache. The zero value is not usable; create one
// with NewBuilder.
type Builder[K comparable, V any] struct {
	maxWeightedSize int64
	shardCount      int
	ttl             time.Duration
	tti             time.Duration
	weigher         Weigher[K, V]
	listener        Listener[K, V]
	hasher          store.Hasher[K]
	clk             clock.Clock
	log             obslog.Logger
	hasLog          bool
	metrics         *cachemetrics.Metrics
	housekeeping    housekeeper.Config
}

// NewBuilder creates a Builder with the engine's defaults: unbounded
// capacity, no TTL/TTI, 16 shards, and housekeeper.DefaultConfig's
// per-pass budgets.
func NewBuilder[K comparable, V any]() *Builder[K, V] {
	return &Builder[K, V]{
		shardCount:   16,
		housekeeping: housekeeper.DefaultConfig(),
	}
}

// WithMaxWeightedSize bounds the cache's total weight (entry count,
// under the default weigher). 0 or negative means unbounded.
func (b *Builder[K, V]) WithMaxWeightedSize(max int64) *Builder[K, V] {
	b.maxWeightedSize = max
	return b
}

// WithShardCount sets the Map Store's shard count (rounded up to a
// power of 2).
func (b *Builder[K, V]) WithShardCount(n int) *Builder[K, V] {
	b.shardCount = n
	return b
}

// WithTimeToLive sets the absolute, write-order expiration applied to
// every entry.
func (b *Builder[K, V]) WithTimeToLive(ttl time.Duration) *Builder[K, V] {
	b.ttl = ttl
	return b
}

// WithTimeToIdle sets the sliding, access-order expiration applied to
// every entry.
func (b *Builder[K, V]) WithTimeToIdle(tti time.Duration) *Builder[K, V] {
	b.tti = tti
	return b
}

// WithWeigher overrides the default weight-per-entry-is-1 behavior.
func (b *Builder[K, V]) WithWeigher(w Weigher[K, V]) *Builder[K, V] {
	b.weigher = w
	return b
}

// WithEvictionListener registers a callback invoked exactly once per
// entry removed by Invalidate, replacement, expiration, or size
// eviction. InvalidateAll removes entries without invoking it.
func (b *Builder[K, V]) WithEvictionListener(l Listener[K, V]) *Builder[K, V] {
	b.listener = l
	return b
}

// WithHasher overrides the default maphash-based key hasher, e.g. to
// share one hash function across multiple caches.
func (b *Builder[K, V]) WithHasher(h store.Hasher[K]) *Builder[K, V] {
	b.hasher = h
	return b
}

// WithClock overrides the production clock — tests use this to
// substitute a clock.FakeClock and assert TTL/TTI behavior without
// sleeping.
func (b *Builder[K, V]) WithClock(c clock.Clock) *Builder[K, V] {
	b.clk = c
	return b
}

// WithLogger sets the logger the Housekeeper uses to report recovered
// listener panics.
func (b *Builder[K, V]) WithLogger(l obslog.Logger) *Builder[K, V] {
	b.log = l
	b.hasLog = true
	return b
}

// WithMetrics enables Prometheus instrumentation under the given
// namespace/subsystem.
func (b *Builder[K, V]) WithMetrics(namespace, subsystem string) *Builder[K, V] {
	b.metrics = cachemetrics.New(namespace, subsystem)
	return b
}

// WithHousekeepingInterval sets how often the background ticker fires
// a maintenance pass, independent of the channel-full trigger that
// always applies. 0 disables the ticker.
func (b *Builder[K, V]) WithHousekeepingInterval(d time.Duration) *Builder[K, V] {
	b.housekeeping.Interval = d
	return b
}

// WithMaxEventsPerPass bounds how many queued events one housekeeping
// pass drains.
func (b *Builder[K, V]) WithMaxEventsPerPass(n int) *Builder[K, V] {
	b.housekeeping.MaxEventsPerPass = n
	return b
}

// WithMaxEvictionsPerPass bounds how many expirations/evictions one
// housekeeping pass performs.
func (b *Builder[K, V]) WithMaxEvictionsPerPass(n int) *Builder[K, V] {
	b.housekeeping.MaxEvictionsPerPass = n
	return b
}

// Build validates the configuration and wires the Map Store, Policy
// Engine, Expiration Engine, Event Channel, and Housekeeper together.
// It returns a *pkg/errors.ConfigError if TTL or TTI is negative — the
// only out-of-range case a time.Duration can actually represent (see
// the package-level note above on the spec's 1000-year ceiling).
func (b *Builder[K, V]) Build() (*Cache[K, V], error) {
	if b.ttl < 0 {
		return nil, cerrors.NewConfigError("time_to_live", cerrors.ErrDurationTooLong)
	}
	if b.tti < 0 {
		return nil, cerrors.NewConfigError("time_to_idle", cerrors.ErrDurationTooLong)
	}

	clk := b.clk
	if clk == nil {
		clk = clock.Real()
	}

	log := b.log
	if !b.hasLog {
		log = obslog.Nop()
	}

	policyCapacity := b.maxWeightedSize
	if policyCapacity <= 0 {
		// An unbounded cache still needs a finite policy capacity to
		// size the window/main split; pick a generous ceiling the
		// caller is in practice never expected to reach without having
		// set an explicit bound. This number only feeds comparisons
		// (window/probation/protected are backed by maps, not
		// preallocated arrays) — policy.New caps the one structure that
		// does eagerly allocate off of it, the frequency sketch, at a
		// fixed size of its own (internal/policy.maxSketchWidth).
		policyCapacity = 1 << 32
	}

	st := store.New[K, V](b.shardCount, b.hasher)
	pol := policy.New[K](policyCapacity, b.hasher)
	exp := expire.New[K](b.ttl, b.tti, clk)

	var listener Listener[K, V]
	if b.listener != nil {
		listener = b.listener
	}

	c := &Cache[K, V]{
		store:           st,
		expire:          exp,
		policy:          pol,
		clock:           clk,
		weigher:         b.weigher,
		metrics:         b.metrics,
		maxWeightedSize: b.maxWeightedSize,
	}

	hkListener := func(n housekeeper.Notification[K, V]) {
		if listener != nil {
			listener(n.Key, n.Value, n.Cause)
		}
		c.metrics.RecordEviction(n.Cause.String())
	}

	var hk *housekeeper.Housekeeper[K, V]
	ch := events.New[K](defaultEventChannelCapacity, func() { hk.Trigger() })
	hk = housekeeper.New[K, V](b.housekeeping, st, ch, exp, pol, clk, hkListener, log)

	c.events = ch
	c.housekeeper = hk

	hk.RunPeriodic()

	return c, nil
}
