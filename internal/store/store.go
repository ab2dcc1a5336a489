package store

import (
	"sync"
	"sync/atomic"
)

const (
	defaultShardCount      = 16
	defaultShardCapacity   = 64
)

// Entry is the canonical record for one live key. The Store owns Entry
// lifetime; the Policy Engine and Expiration Engine only ever read or
// atomically update the fields marked as such below, they never
// allocate or free an Entry themselves.
type Entry[K comparable, V any] struct {
	Key    K
	Value  V
	Weight int64

	// Generation increments every time this key is overwritten, and lets
	// the Housekeeper discard stale events for a key that has since been
	// replaced or removed (see internal/events).
	generation atomic.Uint64

	insertedAtNano int64
	accessedAtNano atomic.Int64
}

// Generation returns the entry's current generation counter.
func (e *Entry[K, V]) Generation() uint64 { return e.generation.Load() }

// InsertedAt returns the Unix-nano timestamp this entry (this
// generation of it) was inserted.
func (e *Entry[K, V]) InsertedAt() int64 { return e.insertedAtNano }

// AccessedAt returns the Unix-nano timestamp of the most recent Get.
func (e *Entry[K, V]) AccessedAt() int64 { return e.accessedAtNano.Load() }

func (e *Entry[K, V]) touch(nowNano int64) { e.accessedAtNano.Store(nowNano) }

// shard is one partition of the keyspace, guarded by its own lock so
// that unrelated keys never contend.
type shard[K comparable, V any] struct {
	mu    sync.RWMutex
	items map[K]*Entry[K, V]
}

// Store is a sharded concurrent map keyed by an arbitrary comparable
// type. It has no eviction or expiration policy of its own — those
// live in internal/policy and internal/expire and drive Store through
// Get/Insert/Invalidate.
type Store[K comparable, V any] struct {
	shards    []*shard[K, V]
	shardMask uint64
	hash      Hasher[K]

	size  atomic.Int64 // item count
	bytes atomic.Int64 // sum of Entry.Weight
}

// New builds a Store with shardCount shards (rounded up to the next
// power of two; zero or negative selects the default of 16) and the
// given Hasher. A nil hasher falls back to NewHasher[K]().
func New[K comparable, V any](shardCount int, hasher Hasher[K]) *Store[K, V] {
	if shardCount <= 0 {
		shardCount = defaultShardCount
	}
	shardCount = nextPowerOfTwo(shardCount)

	if hasher == nil {
		hasher = NewHasher[K]()
	}

	shards := make([]*shard[K, V], shardCount)
	for i := range shards {
		shards[i] = &shard[K, V]{items: make(map[K]*Entry[K, V], defaultShardCapacity)}
	}

	return &Store[K, V]{
		shards:    shards,
		shardMask: uint64(shardCount - 1),
		hash:      hasher,
	}
}

func (s *Store[K, V]) shardFor(key K) *shard[K, V] {
	return s.shards[s.hash(key)&s.shardMask]
}

// Get returns the entry for key, its generation, and whether it was
// found. Callers that want LRU/LFU access tracking must call Touch
// themselves — Get does not mutate anything so read-only lookups stay
// lock-free beyond the shard RLock.
func (s *Store[K, V]) Get(key K) (entry *Entry[K, V], generation uint64, ok bool) {
	sh := s.shardFor(key)
	sh.mu.RLock()
	e, found := sh.items[key]
	sh.mu.RUnlock()
	if !found {
		return nil, 0, false
	}
	return e, e.Generation(), true
}

// Touch records nowNano as the entry's most recent access time, for
// the Expiration Engine's time-to-idle queue.
func (s *Store[K, V]) Touch(e *Entry[K, V], nowNano int64) {
	e.touch(nowNano)
}

// Insert stores value under key with the given weight, returning the
// previous entry (nil if key was absent) so the caller can emit a
// Replaced notification. The new entry's generation is the previous
// generation plus one, or zero for a brand new key.
func (s *Store[K, V]) Insert(key K, value V, weight int64, nowNano int64) (previous *Entry[K, V]) {
	sh := s.shardFor(key)

	next := &Entry[K, V]{Key: key, Value: value, Weight: weight, insertedAtNano: nowNano}
	next.accessedAtNano.Store(nowNano)

	sh.mu.Lock()
	old, existed := sh.items[key]
	if existed {
		next.generation.Store(old.generation.Load() + 1)
	}
	sh.items[key] = next
	sh.mu.Unlock()

	if existed {
		s.bytes.Add(weight - old.Weight)
	} else {
		s.size.Add(1)
		s.bytes.Add(weight)
	}

	if existed {
		return old
	}
	return nil
}

// Invalidate removes key unconditionally and returns the removed
// entry, if any.
func (s *Store[K, V]) Invalidate(key K) (removed *Entry[K, V]) {
	sh := s.shardFor(key)

	sh.mu.Lock()
	old, existed := sh.items[key]
	if existed {
		delete(sh.items, key)
	}
	sh.mu.Unlock()

	if existed {
		s.size.Add(-1)
		s.bytes.Add(-old.Weight)
		return old
	}
	return nil
}

// InvalidateIfGeneration removes key only if its current generation
// still matches generation, so a pending event for an entry that has
// since been overwritten or removed is a safe no-op.
func (s *Store[K, V]) InvalidateIfGeneration(key K, generation uint64) (removed *Entry[K, V]) {
	sh := s.shardFor(key)

	sh.mu.Lock()
	old, existed := sh.items[key]
	if existed && old.Generation() == generation {
		delete(sh.items, key)
	} else {
		existed = false
	}
	sh.mu.Unlock()

	if existed {
		s.size.Add(-1)
		s.bytes.Add(-old.Weight)
		return old
	}
	return nil
}

// InvalidateAll empties every shard and resets counters.
func (s *Store[K, V]) InvalidateAll() {
	for _, sh := range s.shards {
		sh.mu.Lock()
		sh.items = make(map[K]*Entry[K, V], defaultShardCapacity)
		sh.mu.Unlock()
	}
	s.size.Store(0)
	s.bytes.Store(0)
}

// Len returns the current item count.
func (s *Store[K, V]) Len() int64 { return s.size.Load() }

// WeightedSize returns the sum of every live entry's Weight.
func (s *Store[K, V]) WeightedSize() int64 { return s.bytes.Load() }

// ForEach visits every entry in an unspecified order. f returning
// false stops the iteration early. Entries are visited shard by shard
// under that shard's read lock, so f must not call back into the
// Store.
func (s *Store[K, V]) ForEach(f func(*Entry[K, V]) bool) {
	for _, sh := range s.shards {
		sh.mu.RLock()
		for _, e := range sh.items {
			if !f(e) {
				sh.mu.RUnlock()
				return
			}
		}
		sh.mu.RUnlock()
	}
}

func nextPowerOfTwo(n int) int {
	if n <= 1 {
		return 1
	}
	n--
	n |= n >> 1
	n |= n >> 2
	n |= n >> 4
	n |= n >> 8
	n |= n >> 16
	n |= n >> 32
	n++
	return n
}
