package expire

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tesseracache/tessera/internal/clock"
)

func TestIsLiveTTL(t *testing.T) {
	e := New[string](60*time.Second, 0, clock.NewFake())

	assert.True(t, e.IsLive(0, 0, 59*int64(time.Second)))
	assert.False(t, e.IsLive(0, 0, 61*int64(time.Second)))
}

func TestIsLiveTTI(t *testing.T) {
	e := New[string](0, 30*time.Second, clock.NewFake())

	assert.True(t, e.IsLive(0, 20*int64(time.Second), 40*int64(time.Second)))
	assert.False(t, e.IsLive(0, 20*int64(time.Second), 71*int64(time.Second)))
}

func TestDrainTTLValidatesDeadlineOrder(t *testing.T) {
	e := New[string](time.Second, 0, clock.NewFake())

	e.RecordWrite("a", 0, 0)
	e.RecordWrite("b", 0, int64(500*time.Millisecond))

	var got []TTLRecord[string]
	n := e.DrainTTL(int64(time.Second), 10, func(r TTLRecord[string]) { got = append(got, r) })

	require.Equal(t, 1, n)
	assert.Equal(t, "a", got[0].Key)
}

func TestDrainTTIStaleRecordIsStillPoppedByCaller(t *testing.T) {
	e := New[string](0, time.Second, clock.NewFake())

	e.RecordAccess("k", 0, 0)
	e.RecordAccess("k", 0, int64(900*time.Millisecond)) // supersedes the first

	var got []TTIRecord[string]
	n := e.DrainTTI(int64(time.Second), 10, func(r TTIRecord[string]) { got = append(got, r) })

	// Only the first record (deadline t=1s) is due; the second one's
	// deadline is t=1.9s. The engine pops the first even though a later
	// access superseded it — staleness (AccessNano no longer matching
	// the live entry) is the caller's job to check against the Map Store.
	require.Equal(t, 1, n)
	assert.Equal(t, int64(0), got[0].AccessNano)
}

func TestDrainRespectsBudget(t *testing.T) {
	e := New[int](time.Second, 0, clock.NewFake())
	for i := 0; i < 5; i++ {
		e.RecordWrite(i, 0, 0)
	}

	n := e.DrainTTL(int64(time.Second), 3, func(TTLRecord[int]) {})
	assert.Equal(t, 3, n)

	n = e.DrainTTL(int64(time.Second), 10, func(TTLRecord[int]) {})
	assert.Equal(t, 2, n)
}
