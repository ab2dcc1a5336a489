// Package housekeeper implements the single serialized maintenance
// role of spec §4.5: it is the only writer of Policy/Expiration state
// and the only emitter of eviction notifications. Foreground
// operations only ever enqueue events for it to apply later.
package housekeeper

import (
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/tesseracache/tessera/internal/clock"
	"github.com/tesseracache/tessera/internal/events"
	"github.com/tesseracache/tessera/internal/expire"
	"github.com/tesseracache/tessera/internal/obslog"
	"github.com/tesseracache/tessera/internal/policy"
	"github.com/tesseracache/tessera/internal/store"
	cerrors "github.com/tesseracache/tessera/pkg/errors"
)

// Cause is why an entry was removed, per spec §6.
type Cause uint8

const (
	Explicit Cause = iota
	Replaced
	Size
	Expired
)

func (c Cause) String() string {
	switch c {
	case Explicit:
		return "explicit"
	case Replaced:
		return "replaced"
	case Size:
		return "size"
	case Expired:
		return "expired"
	default:
		return "unknown"
	}
}

// Notification is delivered to the eviction listener exactly once per
// removal (spec §6).
type Notification[K comparable, V any] struct {
	Key   K
	Value V
	Cause Cause
}

// Listener receives removal notifications. Notifications produced by a
// pass run on the goroutine running that pass; those sent through
// ReplacedNotify, ExplicitNotify, and SizeNotify run on their caller's
// goroutine. It must not panic; a panic is recovered and logged, the
// pass continues (spec §6, §7).
type Listener[K comparable, V any] func(Notification[K, V])

// Config bounds the work a single pass may perform (spec §4.5's "each
// pass has a configurable work budget").
type Config struct {
	MaxEventsPerPass    int
	MaxEvictionsPerPass int
	Interval            time.Duration
}

// DefaultConfig mirrors the teacher's MaxCleanItems-style defaults
// (internal/ttl.Manager), scaled to this engine's event-driven design.
func DefaultConfig() Config {
	return Config{
		MaxEventsPerPass:    1024,
		MaxEvictionsPerPass: 256,
		Interval:            time.Second,
	}
}

// Housekeeper ties the Event Channel, Expiration Engine, and Policy
// Engine together and drives the Map Store on their behalf.
type Housekeeper[K comparable, V any] struct {
	cfg Config

	store  *store.Store[K, V]
	events *events.Channel[K]
	expire *expire.Engine[K]
	policy *policy.Engine[K]
	clock  clock.Clock

	listener Listener[K, V]
	log      obslog.Logger

	group    singleflight.Group
	stopCh   chan struct{}
	stopOnce sync.Once
}

// New builds a Housekeeper wired to the given components. listener may
// be nil (treated as a no-op).
func New[K comparable, V any](
	cfg Config,
	st *store.Store[K, V],
	ch *events.Channel[K],
	exp *expire.Engine[K],
	pol *policy.Engine[K],
	clk clock.Clock,
	listener Listener[K, V],
	log obslog.Logger,
) *Housekeeper[K, V] {
	if listener == nil {
		listener = func(Notification[K, V]) {}
	}
	if clk == nil {
		clk = clock.Real()
	}
	return &Housekeeper[K, V]{
		cfg:      cfg,
		store:    st,
		events:   ch,
		expire:   exp,
		policy:   pol,
		clock:    clk,
		listener: listener,
		log:      log,
		stopCh:   make(chan struct{}),
	}
}

// Trigger requests a housekeeping pass. Concurrent callers coalesce
// into a single in-flight pass via singleflight (spec §4.5/§5: "at
// most one housekeeping pass runs at any time; concurrent triggers
// coalesce").
func (h *Housekeeper[K, V]) Trigger() {
	h.group.Do("pass", func() (interface{}, error) {
		h.runPass()
		return nil, nil
	})
}

// RunPeriodic starts the background ticker that triggers a pass every
// cfg.Interval, per spec §4.5 condition (c). It is a no-op if Interval
// is zero or negative. Call Stop to end it.
func (h *Housekeeper[K, V]) RunPeriodic() {
	if h.cfg.Interval <= 0 {
		return
	}
	go func() {
		ticker := h.clock.NewTicker(h.cfg.Interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.Chan():
				h.Trigger()
			case <-h.stopCh:
				return
			}
		}
	}()
}

// Stop ends any running periodic ticker. Safe to call more than once.
func (h *Housekeeper[K, V]) Stop() {
	h.stopOnce.Do(func() { close(h.stopCh) })
}

func (h *Housekeeper[K, V]) runPass() {
	h.events.Drain(h.cfg.MaxEventsPerPass, h.applyEvent)

	now := h.clock.Now().UnixNano()
	budget := h.cfg.MaxEvictionsPerPass

	h.expire.DrainTTL(now, budget, func(r expire.TTLRecord[K]) {
		h.expireIfCurrent(r.Key, r.Generation, Expired)
	})
	h.expire.DrainTTI(now, budget, func(r expire.TTIRecord[K]) {
		h.expireIfAccessCurrent(r, Expired)
	})

	if h.policy.WeightedSize() > h.policy.Capacity() {
		for _, ev := range h.policy.EvictToFit() {
			h.removeAndNotify(ev.Key, Size)
		}
	}
}

// applyEvent validates a drained Read or Write event against the Map
// Store's current generation before letting it touch Policy/Expiration
// state — the generation check that defeats the ABA problem described
// in spec §9. A Remove event drops the key from the policy without a
// generation check.
func (h *Housekeeper[K, V]) applyEvent(e events.Event[K]) {
	switch e.Kind {
	case events.Read:
		if _, gen, ok := h.store.Get(e.Key); !ok || gen != e.Generation {
			return
		}
		h.policy.Hit(e.Key)
		h.expire.RecordAccess(e.Key, e.Generation, e.TimestampNano)

	case events.Write:
		if _, gen, ok := h.store.Get(e.Key); !ok || gen != e.Generation {
			return
		}
		admitted, evicted := h.policy.Offer(e.Key, e.Weight)
		h.expire.RecordWrite(e.Key, e.Generation, e.TimestampNano)
		if !admitted {
			// The candidate lost the TinyLFU frequency comparison
			// against the main region's victim (spec §4.2's admission
			// control) — it's among evicted below and gets its Size
			// notification there; this just records why.
			h.log.Debug().Interface("key", e.Key).Err(cerrors.ErrAdmissionDenied).Msg("candidate lost admission comparison")
		}
		for _, ev := range evicted {
			h.removeAndNotify(ev.Key, Size)
		}

	case events.Remove:
		h.policy.Remove(e.Key)
	}
}

func (h *Housekeeper[K, V]) expireIfCurrent(key K, generation uint64, cause Cause) {
	if _, gen, ok := h.store.Get(key); !ok || gen != generation {
		return
	}
	h.policy.Remove(key)
	h.removeAndNotify(key, cause)
}

func (h *Housekeeper[K, V]) expireIfAccessCurrent(r expire.TTIRecord[K], cause Cause) {
	entry, gen, ok := h.store.Get(r.Key)
	if !ok || gen != r.Generation {
		return
	}
	if entry.AccessedAt() != r.AccessNano {
		return // a later access superseded this record
	}
	h.policy.Remove(r.Key)
	h.removeAndNotify(r.Key, cause)
}

// removeAndNotify unlinks key from the Map Store and, if something was
// actually removed, delivers exactly one notification (spec invariant
// #2: "for every removal, exactly one eviction notification").
func (h *Housekeeper[K, V]) removeAndNotify(key K, cause Cause) {
	removed := h.store.Invalidate(key)
	if removed == nil {
		return
	}
	h.notify(Notification[K, V]{Key: key, Value: removed.Value, Cause: cause})
}

// ReplacedNotify reports a replaced prior entry, called synchronously
// by the Cache facade right after Store.Insert returns a non-nil
// previous entry — replacement is detected at insert time, not
// through the event channel, so it cannot be delayed by housekeeping
// and cannot race a later Expired/Size notification for the same
// generation.
func (h *Housekeeper[K, V]) ReplacedNotify(key K, previous V) {
	h.notify(Notification[K, V]{Key: key, Value: previous, Cause: Replaced})
}

// ExplicitNotify reports an explicit caller-driven invalidation.
func (h *Housekeeper[K, V]) ExplicitNotify(key K, value V) {
	h.notify(Notification[K, V]{Key: key, Value: value, Cause: Explicit})
}

// SizeNotify reports an admission-time rejection or capacity eviction
// that happened synchronously (outside a drained pass), e.g. an entry
// whose weight alone exceeds capacity.
func (h *Housekeeper[K, V]) SizeNotify(key K, value V) {
	h.notify(Notification[K, V]{Key: key, Value: value, Cause: Size})
}

func (h *Housekeeper[K, V]) notify(n Notification[K, V]) {
	defer func() {
		if r := recover(); r != nil {
			h.log.Error().Interface("panic", r).Str("cause", n.Cause.String()).Msg("eviction listener panicked")
		}
	}()
	h.listener(n)
}
