// Package clock provides the monotonic time source consumed by every
// time-aware component of the cache engine.
//
// Every duration the engine reasons about — TTL deadlines, TTI deadlines,
// housekeeping tick intervals — is read through the Clock interface rather
// than calling time.Now() directly, so that tests can substitute a
// controllable clock and assert expiration behavior deterministically
// instead of sleeping.
package clock

import (
	"time"

	"github.com/jonboulle/clockwork"
)

// Clock is the time source every internal component depends on. It is a
// thin re-export of clockwork.Clock so callers outside this package never
// need to import clockwork directly.
type Clock = clockwork.Clock

// FakeClock is a controllable clock for tests: Advance moves it forward
// without sleeping, and every waiter registered through After/NewTimer
// fires in the advanced order.
type FakeClock = clockwork.FakeClock

// Real returns the production clock, backed by the runtime's wall clock.
func Real() Clock {
	return clockwork.NewRealClock()
}

// NewFake returns a FakeClock pinned to an arbitrary fixed instant. Tests
// advance it explicitly with Advance to simulate TTL/TTI elapsing.
func NewFake() FakeClock {
	return clockwork.NewFakeClock()
}

// NewFakeAt returns a FakeClock pinned to t.
func NewFakeAt(t time.Time) FakeClock {
	return clockwork.NewFakeClockAt(t)
}
