package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tesseracache/tessera/internal/clock"
	cerrors "github.com/tesseracache/tessera/pkg/errors"
)

func TestInsertAndGet(t *testing.T) {
	c, err := NewBuilder[string, string]().WithMaxWeightedSize(100).Build()
	require.NoError(t, err)
	defer c.Close()

	c.Insert("a", "Alice")
	v, ok := c.Get("a")
	require.True(t, ok)
	assert.Equal(t, "Alice", v)
}

func TestGetMissingKey(t *testing.T) {
	c, err := NewBuilder[string, string]().WithMaxWeightedSize(100).Build()
	require.NoError(t, err)
	defer c.Close()

	_, ok := c.Get("missing")
	assert.False(t, ok)
}

func TestTimeToLiveExpiresEntry(t *testing.T) {
	fake := clock.NewFake()
	c, err := NewBuilder[string, string]().
		WithMaxWeightedSize(100).
		WithTimeToLive(time.Minute).
		WithClock(fake).
		Build()
	require.NoError(t, err)
	defer c.Close()

	c.Insert("a", "Alice")
	_, ok := c.Get("a")
	require.True(t, ok)

	fake.Advance(2 * time.Minute)
	_, ok = c.Get("a")
	assert.False(t, ok, "entry should be logically expired once its TTL elapses")
}

func TestInvalidateRemovesEntry(t *testing.T) {
	c, err := NewBuilder[string, string]().WithMaxWeightedSize(100).Build()
	require.NoError(t, err)
	defer c.Close()

	c.Insert("a", "Alice")
	assert.True(t, c.Invalidate("a"))
	_, ok := c.Get("a")
	assert.False(t, ok)
	assert.False(t, c.Invalidate("a"), "invalidating an absent key reports false")
}

func TestInvalidateAllClearsEverything(t *testing.T) {
	c, err := NewBuilder[string, string]().WithMaxWeightedSize(100).Build()
	require.NoError(t, err)
	defer c.Close()

	c.Insert("a", "Alice")
	c.Insert("b", "Bob")
	c.InvalidateAll()

	assert.EqualValues(t, 0, c.Len())
	_, ok := c.Get("a")
	assert.False(t, ok)
}

func TestEvictionListenerFiresOnReplace(t *testing.T) {
	var got []string
	c, err := NewBuilder[string, string]().
		WithMaxWeightedSize(100).
		WithEvictionListener(func(key string, value string, cause EvictionCause) {
			if cause == Replaced {
				got = append(got, value)
			}
		}).
		Build()
	require.NoError(t, err)
	defer c.Close()

	c.Insert("a", "v1")
	c.Insert("a", "v2")

	require.Len(t, got, 1)
	assert.Equal(t, "v1", got[0])
}

func TestOversizedEntryRejectedWithSizeNotification(t *testing.T) {
	var causes []EvictionCause
	c, err := NewBuilder[string, string]().
		WithMaxWeightedSize(10).
		WithWeigher(func(key string, value string) int64 { return 1000 }).
		WithEvictionListener(func(key string, value string, cause EvictionCause) {
			causes = append(causes, cause)
		}).
		Build()
	require.NoError(t, err)
	defer c.Close()

	c.Insert("huge", "value")

	_, ok := c.Get("huge")
	assert.False(t, ok, "an entry heavier than capacity must never be admitted")
	require.Len(t, causes, 1)
	assert.Equal(t, Size, causes[0])
}

func TestBuildRejectsNegativeDuration(t *testing.T) {
	// The spec's "TTL must be ≤ 1000 years" ceiling (§4.6) is not a
	// reachable case: time.Duration tops out at ~292 years, so every
	// constructible duration already satisfies it. The only out-of-range
	// input Build can actually observe is negative.
	_, err := NewBuilder[string, string]().WithTimeToLive(-time.Second).Build()
	require.Error(t, err)
	assert.True(t, cerrors.IsDurationTooLong(err))

	var configErr *cerrors.ConfigError
	assert.ErrorAs(t, err, &configErr)
}

func TestSizeEvictionKeepsCacheAtCapacity(t *testing.T) {
	var sizeNotified []int
	c, err := NewBuilder[int, int]().
		WithMaxWeightedSize(2).
		WithHousekeepingInterval(0).
		WithEvictionListener(func(key int, value int, cause EvictionCause) {
			if cause == Size {
				sizeNotified = append(sizeNotified, key)
			}
		}).
		Build()
	require.NoError(t, err)
	defer c.Close()

	c.Insert(1, 1)
	c.Insert(2, 2)
	c.Insert(3, 3)
	c.housekeeper.Trigger()

	assert.LessOrEqual(t, c.Len(), int64(2), "weighted size must be restored after a housekeeping pass")
	require.Len(t, sizeNotified, 1, "exactly one Size eviction for the overflow")
	assert.Contains(t, []int{1, 2, 3}, sizeNotified[0])
}

func TestTimeToIdleExtendsOnAccess(t *testing.T) {
	fake := clock.NewFake()
	c, err := NewBuilder[string, string]().
		WithMaxWeightedSize(100).
		WithTimeToIdle(30 * time.Second).
		WithClock(fake).
		Build()
	require.NoError(t, err)
	defer c.Close()

	c.Insert("k", "v")

	fake.Advance(20 * time.Second)
	_, ok := c.Get("k")
	require.True(t, ok, "read at t=20s is still within the 30s idle window")

	fake.Advance(20 * time.Second) // now at t=40s, 20s since the last read
	v, ok := c.Get("k")
	require.True(t, ok, "the read at t=20s reset the idle deadline")
	assert.Equal(t, "v", v)

	fake.Advance(31 * time.Second) // now at t=71s, 31s since the last read
	_, ok = c.Get("k")
	assert.False(t, ok, "idle window elapsed since the last read at t=40s")
}

func TestBuildRejectsDurationErrorMessageNamesField(t *testing.T) {
	_, err := NewBuilder[string, string]().WithTimeToLive(-time.Second).Build()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "time_to_live")
}

func TestUnboundedCacheHasNoMaxWeightedSize(t *testing.T) {
	c, err := NewBuilder[string, int]().Build()
	require.NoError(t, err)
	defer c.Close()

	assert.Zero(t, c.MaxWeightedSize())
	c.Insert("a", 1)
	_, ok := c.Get("a")
	assert.True(t, ok)
}
