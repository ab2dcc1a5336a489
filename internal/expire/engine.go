// Package expire tracks per-entry time-to-live and time-to-idle
// deadlines and identifies entries the Housekeeper must physically
// remove. It never removes anything itself — it hands validated
// records to the caller, which owns the Map Store.
package expire

import (
	"time"

	"github.com/tesseracache/tessera/internal/clock"
)

// TTLRecord is a pending write-order deadline: key was (re)inserted at
// a generation, and becomes expired at DeadlineNano.
type TTLRecord[K comparable] struct {
	Key          K
	Generation   uint64
	DeadlineNano int64
}

// TTIRecord is a pending access-order deadline. AccessNano is the
// access this record was created for; a drain consumer must confirm
// the entry's current access time still equals AccessNano before
// treating it as expired — otherwise a later access has already
// superseded it.
type TTIRecord[K comparable] struct {
	Key          K
	Generation   uint64
	AccessNano   int64
	DeadlineNano int64
}

// Engine holds the two time-ordered queues described in spec §4.3. It
// has no internal locking of its own: every RecordWrite/RecordAccess/
// Drain* call is safe only because the Housekeeper serializes all of
// them through its singleflight-coalesced runPass (internal/housekeeper),
// never because Engine or the underlying ring guards against concurrent
// access itself.
type Engine[K comparable] struct {
	clock clock.Clock
	ttl   time.Duration
	tti   time.Duration

	ttlQueue ring[TTLRecord[K]]
	ttiQueue ring[TTIRecord[K]]
}

// New builds an Engine. A zero ttl or tti disables that queue
// entirely — RecordWrite/RecordAccess become no-ops and IsLive never
// reports expiry for that dimension.
func New[K comparable](ttl, tti time.Duration, clk clock.Clock) *Engine[K] {
	if clk == nil {
		clk = clock.Real()
	}
	return &Engine[K]{clock: clk, ttl: ttl, tti: tti}
}

// TimeToLive returns the configured TTL (zero means disabled).
func (e *Engine[K]) TimeToLive() time.Duration { return e.ttl }

// TimeToIdle returns the configured TTI (zero means disabled).
func (e *Engine[K]) TimeToIdle() time.Duration { return e.tti }

// Now returns the current time from the engine's clock, in Unix nanos.
func (e *Engine[K]) Now() int64 { return e.clock.Now().UnixNano() }

// IsLive reports whether an entry with the given insertion and last
// access timestamps is still live at nowNano — the synchronous check
// Get uses to decide whether to treat a binding as present (§4.1).
func (e *Engine[K]) IsLive(insertedAtNano, accessedAtNano, nowNano int64) bool {
	if e.ttl > 0 && nowNano-insertedAtNano >= int64(e.ttl) {
		return false
	}
	if e.tti > 0 && nowNano-accessedAtNano >= int64(e.tti) {
		return false
	}
	return true
}

// RecordWrite appends a write-order deadline for key, if a TTL is
// configured.
func (e *Engine[K]) RecordWrite(key K, generation uint64, insertedAtNano int64) {
	if e.ttl <= 0 {
		return
	}
	e.ttlQueue.push(TTLRecord[K]{Key: key, Generation: generation, DeadlineNano: insertedAtNano + int64(e.ttl)})
}

// RecordAccess appends an access-order deadline for key, if a TTI is
// configured.
func (e *Engine[K]) RecordAccess(key K, generation uint64, accessNano int64) {
	if e.tti <= 0 {
		return
	}
	e.ttiQueue.push(TTIRecord[K]{Key: key, Generation: generation, AccessNano: accessNano, DeadlineNano: accessNano + int64(e.tti)})
}

// DrainTTL pops up to max write-order records whose deadline has
// elapsed by nowNano, invoking f for each. The caller is responsible
// for validating the record's generation against the Map Store before
// treating it as a real expiration.
func (e *Engine[K]) DrainTTL(nowNano int64, max int, f func(TTLRecord[K])) int {
	return drain(&e.ttlQueue, max, func(r TTLRecord[K]) bool { return r.DeadlineNano <= nowNano }, f)
}

// DrainTTI pops up to max access-order records whose deadline has
// elapsed by nowNano, invoking f for each.
func (e *Engine[K]) DrainTTI(nowNano int64, max int, f func(TTIRecord[K])) int {
	return drain(&e.ttiQueue, max, func(r TTIRecord[K]) bool { return r.DeadlineNano <= nowNano }, f)
}

func drain[T any](q *ring[T], max int, due func(T) bool, f func(T)) int {
	n := 0
	for n < max {
		v, ok := q.peek()
		if !ok || !due(v) {
			break
		}
		q.pop()
		f(v)
		n++
	}
	return n
}
