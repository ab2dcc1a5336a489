package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStoreInsertAndGet(t *testing.T) {
	s := New[string, int](4, nil)

	old := s.Insert("a", 1, 10, 100)
	assert.Nil(t, old)

	entry, gen, ok := s.Get("a")
	require.True(t, ok)
	assert.Equal(t, 1, entry.Value)
	assert.Equal(t, uint64(0), gen)
	assert.EqualValues(t, 1, s.Len())
	assert.EqualValues(t, 10, s.WeightedSize())
}

func TestStoreInsertOverwriteBumpsGeneration(t *testing.T) {
	s := New[string, int](4, nil)

	s.Insert("a", 1, 10, 100)
	old := s.Insert("a", 2, 20, 200)

	require.NotNil(t, old)
	assert.Equal(t, 1, old.Value)

	entry, gen, ok := s.Get("a")
	require.True(t, ok)
	assert.Equal(t, 2, entry.Value)
	assert.Equal(t, uint64(1), gen)
	assert.EqualValues(t, 1, s.Len(), "overwrite must not change item count")
	assert.EqualValues(t, 20, s.WeightedSize())
}

func TestStoreInvalidate(t *testing.T) {
	s := New[string, int](4, nil)
	s.Insert("a", 1, 10, 100)

	removed := s.Invalidate("a")
	require.NotNil(t, removed)
	assert.Equal(t, 1, removed.Value)

	_, _, ok := s.Get("a")
	assert.False(t, ok)
	assert.EqualValues(t, 0, s.Len())
	assert.EqualValues(t, 0, s.WeightedSize())

	assert.Nil(t, s.Invalidate("missing"))
}

func TestStoreInvalidateIfGenerationStale(t *testing.T) {
	s := New[string, int](4, nil)
	s.Insert("a", 1, 10, 100)
	_, staleGen, _ := s.Get("a")

	s.Insert("a", 2, 20, 200) // bumps generation past staleGen

	removed := s.InvalidateIfGeneration("a", staleGen)
	assert.Nil(t, removed, "stale generation must not remove the fresher entry")

	entry, _, ok := s.Get("a")
	require.True(t, ok)
	assert.Equal(t, 2, entry.Value)

	_, currentGen, _ := s.Get("a")
	removed = s.InvalidateIfGeneration("a", currentGen)
	assert.NotNil(t, removed)
}

func TestStoreInvalidateAll(t *testing.T) {
	s := New[string, int](4, nil)
	for i := 0; i < 50; i++ {
		s.Insert(string(rune('a'+i%26)), i, 1, int64(i))
	}

	s.InvalidateAll()

	assert.EqualValues(t, 0, s.Len())
	assert.EqualValues(t, 0, s.WeightedSize())
	count := 0
	s.ForEach(func(*Entry[string, int]) bool { count++; return true })
	assert.Zero(t, count)
}

func TestStoreForEachEarlyStop(t *testing.T) {
	s := New[int, int](4, nil)
	for i := 0; i < 10; i++ {
		s.Insert(i, i, 1, 0)
	}

	seen := 0
	s.ForEach(func(*Entry[int, int]) bool {
		seen++
		return seen < 3
	})
	assert.Equal(t, 3, seen)
}

func TestHasherDistributesAcrossShards(t *testing.T) {
	s := New[int, int](16, nil)
	for i := 0; i < 256; i++ {
		s.Insert(i, i, 1, 0)
	}

	nonEmpty := 0
	for _, sh := range s.shards {
		sh.mu.RLock()
		if len(sh.items) > 0 {
			nonEmpty++
		}
		sh.mu.RUnlock()
	}
	assert.Greater(t, nonEmpty, 1, "expected keys to land in more than one shard")
}

func TestNextPowerOfTwo(t *testing.T) {
	cases := map[int]int{0: 1, 1: 1, 2: 2, 3: 4, 5: 8, 16: 16, 17: 32}
	for in, want := range cases {
		assert.Equal(t, want, nextPowerOfTwo(in))
	}
}
