// Package policy implements the W-TinyLFU admission-controlled
// segmented-LRU eviction order described in spec §4.2: new keys enter
// a small window region unconditionally; a key the window evicts must
// win an admission comparison (via a frequency sketch) against the
// main region's probation/protected victim before it is kept.
package policy

import (
	"sync"

	"github.com/tesseracache/tessera/internal/store"
)

// Hasher computes the shard/sketch routing hash for a key. It is the
// same shape as internal/store.Hasher so a cache can share one Hasher
// between its Store and its Policy Engine.
type Hasher[K comparable] = store.Hasher[K]

// Eviction is one key the policy decided to remove, always for cause
// Size — the caller (Housekeeper) is responsible for turning this into
// an eviction notification and unlinking the key from the Map Store.
type Eviction[K comparable] struct {
	Key    K
	Weight int64
}

// Engine is the W-TinyLFU policy: a window LRU feeding an admission
// gate into a probation/protected segmented LRU, backed by a frequency
// sketch.
type Engine[K comparable] struct {
	mu sync.Mutex

	capacity       int64
	windowCapacity int64
	window         *window[K]
	main           *slru[K]
	sketch         *frequencySketch
	hash           Hasher[K]
}

// New builds an Engine bounded at capacity (interpreted as weighted
// size — count-based bounding is just every weight equal to 1). The
// window is sized at roughly 1% of capacity and the main region's
// protected segment at 80% of what remains, matching the ratios the
// teacher's WTinyLFUPolicy uses.
func New[K comparable](capacity int64, hasher Hasher[K]) *Engine[K] {
	if capacity <= 0 {
		capacity = 1
	}
	if hasher == nil {
		hasher = store.NewHasher[K]()
	}

	windowCapacity := capacity / 100
	if windowCapacity < 1 {
		windowCapacity = 1
	}
	mainCapacity := capacity - windowCapacity
	if mainCapacity < 1 {
		mainCapacity = 1
	}
	protectedCapacity := mainCapacity * 8 / 10

	return &Engine[K]{
		capacity:       capacity,
		windowCapacity: windowCapacity,
		window:         newWindow[K](windowCapacity),
		main:           newSLRU[K](protectedCapacity),
		sketch:         newFrequencySketch(capacity),
		hash:           hasher,
	}
}

// Capacity returns the configured weighted-size bound.
func (e *Engine[K]) Capacity() int64 { return e.capacity }

// WeightedSize returns the sum of weights the policy currently tracks.
func (e *Engine[K]) WeightedSize() int64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.window.weightedSize() + e.main.weightedSize()
}

// Len returns the number of keys the policy currently tracks.
func (e *Engine[K]) Len() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.window.len() + e.main.len()
}

// Offer admits a brand-new key. A weight greater than the whole
// policy's capacity is never admitted (spec §4.2 "Weight handling").
// Otherwise the key always enters the window first; if that overflows
// the window, the evicted candidate runs TinyLFU admission against the
// main region. Offer returns whether the original key ended up
// admitted anywhere, plus every key the admission process evicted.
func (e *Engine[K]) Offer(key K, weight int64) (admitted bool, evicted []Eviction[K]) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if weight > e.capacity {
		return false, nil
	}

	e.window.admit(key, weight)
	e.sketch.Increment(e.hash(key))
	admitted = true

	for e.window.overflowing() {
		candKey, candWeight, ok := e.window.evictLRU()
		if !ok {
			break
		}
		promoted, victims := e.admitToMain(candKey, candWeight)
		evicted = append(evicted, victims...)
		if !promoted {
			evicted = append(evicted, Eviction[K]{Key: candKey, Weight: candWeight})
			if candKey == key {
				admitted = false
			}
		}
	}

	return admitted, evicted
}

// admitToMain runs TinyLFU admission control for a candidate leaving
// the window: it is admitted outright if the main region has room;
// otherwise its sketch frequency is compared against the current
// main-region victim and the loser is dropped. Equal frequency favors
// the candidate, per spec §4.2's tie-break rule.
func (e *Engine[K]) admitToMain(key K, weight int64) (admitted bool, evicted []Eviction[K]) {
	mainCapacity := e.capacity - e.windowCapacity

	if e.main.weightedSize()+weight <= mainCapacity {
		e.main.admit(key, weight)
		return true, nil
	}

	victimKey, _, hasVictim := e.main.victim()
	if !hasVictim {
		e.main.admit(key, weight)
		return true, nil
	}

	candidateFreq := e.sketch.Estimate(e.hash(key))
	victimFreq := e.sketch.Estimate(e.hash(victimKey))
	if candidateFreq < victimFreq {
		return false, nil
	}

	for e.main.weightedSize()+weight > mainCapacity {
		k, w, ok := e.main.evictVictim()
		if !ok {
			break
		}
		evicted = append(evicted, Eviction[K]{Key: k, Weight: w})
	}
	e.main.admit(key, weight)
	return true, evicted
}

// Hit records an access to an already-tracked key, promoting/
// refreshing its LRU position and bumping its sketch frequency.
func (e *Engine[K]) Hit(key K) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.sketch.Increment(e.hash(key))
	if e.window.hit(key) {
		return
	}
	e.main.hit(key)
}

// Remove drops key from whichever region tracks it.
func (e *Engine[K]) Remove(key K) (weight int64, ok bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if w, ok := e.window.remove(key); ok {
		return w, true
	}
	return e.main.remove(key)
}

// EvictToFit evicts from the policy tail — main region first, then the
// window — until the tracked weighted size is back at or below
// capacity. This is the Housekeeper's restorative step (spec §4.5 step
// 4), independent of the admission comparison Offer performs for new
// candidates.
func (e *Engine[K]) EvictToFit() []Eviction[K] {
	e.mu.Lock()
	defer e.mu.Unlock()

	var evicted []Eviction[K]
	for e.window.weightedSize()+e.main.weightedSize() > e.capacity {
		if k, w, ok := e.main.evictVictim(); ok {
			evicted = append(evicted, Eviction[K]{Key: k, Weight: w})
			continue
		}
		if k, w, ok := e.window.evictLRU(); ok {
			evicted = append(evicted, Eviction[K]{Key: k, Weight: w})
			continue
		}
		break
	}
	return evicted
}
