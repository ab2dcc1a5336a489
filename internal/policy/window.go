package policy

// window is the small LRU region every new key enters first,
// unconditionally, before it has to earn a place in the main
// probation/protected region. It mirrors the teacher's
// eviction.WTinyLFUPolicy.windowCache.
type window[K comparable] struct {
	segment  *segment[K]
	capacity int64
}

func newWindow[K comparable](capacity int64) *window[K] {
	return &window[K]{segment: newSegment[K](), capacity: capacity}
}

func (w *window[K]) weightedSize() int64 { return w.segment.size }
func (w *window[K]) len() int            { return w.segment.len() }

func (w *window[K]) admit(key K, weight int64) {
	w.segment.pushMRU(key, weight)
}

func (w *window[K]) hit(key K) bool {
	n, ok := w.segment.get(key)
	if !ok {
		return false
	}
	w.segment.moveToMRU(n)
	return true
}

func (w *window[K]) remove(key K) (weight int64, ok bool) {
	return w.segment.remove(key)
}

// overflowing reports whether the window has grown past capacity; the
// caller then takes the LRU-tail candidate with evictLRU.
func (w *window[K]) overflowing() bool {
	return w.segment.size > w.capacity
}

func (w *window[K]) evictLRU() (key K, weight int64, ok bool) {
	return w.segment.evictLRU()
}
