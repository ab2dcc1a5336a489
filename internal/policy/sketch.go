package policy

// frequencySketch is a 4-row count-min sketch with a doorkeeper bloom
// filter and periodic halving, reconciling the teacher's two
// near-duplicate frequency structures
// (internal/eviction/wtinyLFU.go's FrequencySketch and
// internal/admission/sketch.go's CountMinSketch+BloomFilter) into one.
//
// The doorkeeper means a key's first observed access only sets its
// doorkeeper bit; only a key seen a second time actually increments the
// count-min counters, which keeps one-off reads from inflating
// frequency estimates for keys that will never be seen again.
type frequencySketch struct {
	depth   int
	width   uint64
	table   [][]uint8
	seeds   []uint64
	door    []uint64 // bitset
	doorLen uint64

	additions  uint64
	sampleSize uint64
}

const maxCounterValue = 15 // 4-bit saturating counter

// maxSketchWidth bounds the per-row counter table regardless of the
// policy's configured capacity. A cache built without
// WithMaxWeightedSize reports a very large capacity to size its
// window/main split (see pkg/cache.Builder.Build), but the sketch only
// needs enough buckets to distinguish hot from cold keys within a
// sampling window — sizing it off that same huge number would allocate
// depth × width single-byte counters eagerly (at 1<<32 that's ~16 GiB,
// plus a same-order doorkeeper bitset) for a cache that may end up
// holding a handful of entries.
const maxSketchWidth = 1 << 20

func newFrequencySketch(estimatedEntries int64) *frequencySketch {
	width := nextPowerOfTwo(estimatedEntries)
	if width < 16 {
		width = 16
	}
	if width > maxSketchWidth {
		width = maxSketchWidth
	}
	depth := 4
	seeds := []uint64{0x9E3779B97F4A7C15, 0xC2B2AE3D27D4EB4F, 0x165667B19E3779F9, 0x27D4EB2F165667C5}

	table := make([][]uint8, depth)
	for i := range table {
		table[i] = make([]uint8, width)
	}

	doorBits := width * uint64(depth)
	doorWords := (doorBits + 63) / 64
	if doorWords == 0 {
		doorWords = 1
	}

	return &frequencySketch{
		depth:      depth,
		width:      uint64(width),
		table:      table,
		seeds:      seeds,
		door:       make([]uint64, doorWords),
		doorLen:    doorWords * 64,
		sampleSize: uint64(width) * 10,
	}
}

// Increment records an observation of hash, promoting it through the
// doorkeeper on a repeat sighting before it affects count-min
// estimates.
func (s *frequencySketch) Increment(hash uint64) {
	doorIdx := hash % s.doorLen
	word, bit := doorIdx/64, doorIdx%64
	if s.door[word]&(1<<bit) == 0 {
		s.door[word] |= 1 << bit
		return
	}

	for i := 0; i < s.depth; i++ {
		idx := (hash ^ s.seeds[i]) % s.width
		if s.table[i][idx] < maxCounterValue {
			s.table[i][idx]++
		}
	}

	s.additions++
	if s.additions >= s.sampleSize {
		s.reset()
	}
}

// Estimate returns the approximate observation count for hash.
func (s *frequencySketch) Estimate(hash uint64) uint8 {
	min := uint8(maxCounterValue)
	for i := 0; i < s.depth; i++ {
		idx := (hash ^ s.seeds[i]) % s.width
		if s.table[i][idx] < min {
			min = s.table[i][idx]
		}
	}
	return min
}

// reset halves every counter and clears the doorkeeper, the standard
// TinyLFU aging strategy so the sketch tracks a recent window of access
// history rather than accumulating forever.
func (s *frequencySketch) reset() {
	for i := range s.table {
		row := s.table[i]
		for j := range row {
			row[j] /= 2
		}
	}
	for i := range s.door {
		s.door[i] = 0
	}
	s.additions /= 2
}

func nextPowerOfTwo(n int64) int64 {
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
