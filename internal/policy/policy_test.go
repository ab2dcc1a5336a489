package policy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOfferBelowCapacityNeverEvicts(t *testing.T) {
	e := New[int](100, nil)

	admitted, evicted := e.Offer(1, 1)
	assert.True(t, admitted)
	assert.Empty(t, evicted)
	assert.EqualValues(t, 1, e.Len())
}

func TestOfferRejectsOversizedEntry(t *testing.T) {
	e := New[int](10, nil)

	admitted, evicted := e.Offer(1, 11)
	assert.False(t, admitted)
	assert.Empty(t, evicted)
	assert.Zero(t, e.Len())
}

func TestWeightedSizeStaysBoundedAfterManyInserts(t *testing.T) {
	e := New[int](50, nil)

	for i := 0; i < 500; i++ {
		e.Offer(i, 1)
		for e.WeightedSize() > e.Capacity() {
			evicted := e.EvictToFit()
			require.NotEmpty(t, evicted)
		}
	}

	assert.LessOrEqual(t, e.WeightedSize(), int64(50))
}

func TestHitPromotesFromProbationToProtected(t *testing.T) {
	e := New[int](1000, nil)
	e.Offer(1, 1)

	// Drive the key out of the window into main probation by forcing
	// window overflow with unrelated keys.
	for i := 2; i < 50; i++ {
		e.Offer(i, 1)
	}

	e.Hit(1)
	_, ok := e.main.probation.get(1)
	if !ok {
		_, ok = e.main.protected.get(1)
	}
	if !ok {
		_, ok = e.window.segment.get(1)
	}
	assert.True(t, ok, "key must still be tracked somewhere after a hit")
}

func TestRemoveDropsKeyEverywhere(t *testing.T) {
	e := New[int](100, nil)
	e.Offer(1, 5)

	weight, ok := e.Remove(1)
	require.True(t, ok)
	assert.EqualValues(t, 5, weight)

	_, ok = e.Remove(1)
	assert.False(t, ok, "removing an already-removed key is a no-op")
}

func TestEvictToFitRestoresBound(t *testing.T) {
	e := New[int](10, nil)
	for i := 0; i < 20; i++ {
		e.Offer(i, 1)
	}

	evicted := e.EvictToFit()
	assert.LessOrEqual(t, e.WeightedSize(), int64(10))
	if e.WeightedSize() == 10 {
		assert.NotEmpty(t, evicted)
	}
}

func TestFrequencySketchDistinguishesHotAndColdKeys(t *testing.T) {
	s := newFrequencySketch(1024)

	hot := uint64(42)
	cold := uint64(99)

	for i := 0; i < 20; i++ {
		s.Increment(hot)
	}
	s.Increment(cold)

	assert.Greater(t, s.Estimate(hot), s.Estimate(cold))
}
