package lifecycle

import (
	"sync"
	"time"

	"github.com/nextcore/livequery/pkg/errors"
	"github.com/nextcore/livequery/pkg/source"
)

// Coordinator converts the raw notification stream of a live query
// source into the stable five-state visual lifecycle. It owns the
// source it builds from the injected factory, debounces bursty results
// behind dwell windows, retains stale data across errors per policy,
// and publishes immutable VisualState snapshots to subscribers.
//
// All state mutation is serialized onto one logical thread: external
// calls and source callbacks are funneled through an internal run
// queue, so no caller-side synchronization is needed and handlers may
// reenter (a subscriber may call Refresh from inside a notification).
type Coordinator[T any] struct {
	opts settings[T]

	// mu guards the run queue and the published snapshot. Lifecycle
	// fields below are touched only from queued jobs.
	mu      sync.Mutex
	queue   []func()
	running bool

	src         source.Source[T]
	unsubscribe func()
	timers      *timerSet
	bus         *subscriptionBus[T]

	data          *T
	err           error
	state         State
	isInitialLoad bool
	isFresh       bool
	lastUpdated   time.Time
	updateCount   uint64

	latest       rawSnapshot[T]
	pendingApply bool
	cycleActive  bool
	destroyed    bool

	// Accessor mirror of the fields above, refreshed under mu on every
	// publish so synchronous getters never race the logical thread.
	published VisualState[T]
	pubErr    error
	pubCount  uint64
	pubAt     time.Time
}

// rawSnapshot is the most recent terminal notification from the source,
// held back while a dwell window is open. Last write wins: only the
// snapshot present at dwell fire time is ever applied.
type rawSnapshot[T any] struct {
	value *T
	err   error
	valid bool
}

// New builds a coordinator around the source produced by factory.
//
// The coordinator starts in StateInitializing and immediately begins
// its initial load cycle: the loading dwell window opens at
// construction time, and if the initial load timeout is enabled it is
// armed as well. Destroy releases the source; the caller owns calling
// it exactly once (further calls are no-ops).
func New[T any](factory func() source.Source[T], opts Options[T]) *Coordinator[T] {
	c := &Coordinator[T]{
		opts:          opts.withDefaults(),
		state:         StateInitializing,
		isInitialLoad: true,
		bus:           newSubscriptionBus[T](),
	}
	c.timers = newTimerSet(c.opts.clock, c.run)
	c.published = computeVisual(c.state, c.data, c.opts.isEmpty, c.isInitialLoad, c.isFresh)

	c.src = factory()
	c.unsubscribe = c.src.OnChange(func(v T, meta source.Meta) {
		c.run(func() { c.onSourceEvent(v, meta) })
	})
	c.run(c.beginInitialLoad)
	return c
}

// run enqueues fn and, unless a drain is already in progress, drains
// the queue in order. Reentrant calls append and return, which keeps a
// dwell callback free to trigger Refresh without corrupting state.
func (c *Coordinator[T]) run(fn func()) {
	c.mu.Lock()
	c.queue = append(c.queue, fn)
	if c.running {
		c.mu.Unlock()
		return
	}
	c.running = true
	for len(c.queue) > 0 {
		next := c.queue[0]
		c.queue = c.queue[1:]
		c.mu.Unlock()
		next()
		c.mu.Lock()
	}
	c.running = false
	c.mu.Unlock()
}

// beginInitialLoad opens the first load cycle. The loading dwell starts
// now so an almost-instant first result still holds the skeleton for
// the configured minimum.
func (c *Coordinator[T]) beginInitialLoad() {
	if c.destroyed {
		return
	}
	c.cycleActive = true
	if c.opts.minLoading > 0 {
		c.timers.schedule(timerDwell, c.opts.minLoading, c.onDwellFire)
	}
	if c.opts.initialTimeout > 0 {
		c.timers.schedule(timerInitial, c.opts.initialTimeout, c.onInitialTimeout)
	}
}

// onSourceEvent applies one raw notification. Runs on the logical thread.
func (c *Coordinator[T]) onSourceEvent(v T, meta source.Meta) {
	if c.destroyed {
		return
	}
	if meta.Err == nil && meta.IsLoading {
		// Progress signal. The first one makes the initial fetch
		// visible; later ones carry no state the dwell machinery does
		// not already track.
		if c.state == StateInitializing {
			c.state = StateLoading
			c.publish()
		}
		return
	}

	if meta.Err != nil {
		c.latest = rawSnapshot[T]{err: meta.Err, valid: true}
	} else {
		val := v
		c.latest = rawSnapshot[T]{value: &val, valid: true}
	}
	c.timers.cancel(timerInitial)

	if c.timers.active(timerDwell) {
		// A dwell window is open: hold the result until it fires and
		// keep showing whatever was on screen.
		c.pendingApply = true
		if c.state == StateInitializing {
			c.state = StateLoading
			c.publish()
		}
		return
	}
	c.applyLatest()
}

// onDwellFire resolves an expired dwell window against the latest raw
// snapshot. If no terminal result arrived yet, the cycle stays open and
// the next result applies immediately.
func (c *Coordinator[T]) onDwellFire() {
	if c.destroyed {
		return
	}
	if c.pendingApply {
		c.applyLatest()
	}
}

// onInitialTimeout forces the error state when the initial load never
// produced a result.
func (c *Coordinator[T]) onInitialTimeout() {
	if c.destroyed {
		return
	}
	if c.latest.valid || c.updateCount > 0 {
		// A result beat the timeout; the data path normally cancels
		// this timer but a queued firing can still land here.
		return
	}
	c.timers.cancel(timerDwell)
	c.cycleActive = false
	c.applyError(&errors.TimeoutError{
		Timeout:   c.opts.initialTimeout,
		Timestamp: c.opts.clock.Now(),
	})
}

// applyLatest consumes the held raw snapshot, ending the current cycle.
func (c *Coordinator[T]) applyLatest() {
	if !c.latest.valid {
		return
	}
	snap := c.latest
	c.latest = rawSnapshot[T]{}
	c.pendingApply = false
	c.cycleActive = false
	if snap.err != nil {
		c.applyError(snap.err)
	} else {
		c.applyData(snap.value)
	}
}

func (c *Coordinator[T]) applyData(value *T) {
	c.data = value
	c.err = nil
	c.state = StateReady
	c.isInitialLoad = false
	c.isFresh = true
	c.lastUpdated = c.opts.clock.Now()
	c.updateCount++
	c.publish()
}

func (c *Coordinator[T]) applyError(err error) {
	c.err = err
	if c.opts.preserveStale && c.data != nil && c.opts.maxStale > 0 &&
		c.opts.clock.Now().Sub(c.lastUpdated) > c.opts.maxStale {
		// Retained data is too old to stand in for this failure.
		c.data = nil
	}
	if !c.opts.preserveStale {
		c.data = nil
	}
	c.state = StateError
	// Stale data stays on screen when retained; the error is
	// retrievable through Err but never drives the blocking error view.
	c.isFresh = false
	c.updateCount++
	c.publish()
}

// publish recomputes the visual snapshot and notifies subscribers.
func (c *Coordinator[T]) publish() {
	snap := computeVisual(c.state, c.data, c.opts.isEmpty, c.isInitialLoad, c.isFresh)
	c.mu.Lock()
	c.published = snap
	c.pubErr = c.err
	c.pubCount = c.updateCount
	c.pubAt = c.lastUpdated
	c.mu.Unlock()
	c.bus.notify(snap)
}

// Refresh asks the source to re-fetch. It returns immediately;
// completion is observed through subscriptions.
//
// If no cycle is in flight, the visible state moves to hydrating (stale
// data held) or loading and the matching dwell window opens.
// Overlapping calls collapse onto the already-open window; the dwell is
// never restarted mid-cycle.
func (c *Coordinator[T]) Refresh() {
	c.run(func() {
		if c.destroyed {
			return
		}
		if !c.cycleActive {
			c.cycleActive = true
			c.pendingApply = false
			// Data already superseded by an undisplayed error does not
			// count as stale data worth hydrating behind.
			hasStale := c.data != nil && c.state != StateError
			if hasStale {
				c.state = StateHydrating
				if c.opts.minHydrating > 0 {
					c.timers.schedule(timerDwell, c.opts.minHydrating, c.onDwellFire)
				}
			} else {
				c.state = StateLoading
				if c.opts.minLoading > 0 {
					c.timers.schedule(timerDwell, c.opts.minLoading, c.onDwellFire)
				}
			}
			c.publish()
		}
		c.src.Refresh()
	})
}

// Subscribe registers fn for snapshot delivery. fn is invoked once
// synchronously with the current snapshot, then on every subsequent
// transition until the returned unsubscribe function is called or the
// coordinator is destroyed. After Destroy, Subscribe still hands fn the
// final snapshot but registers nothing.
func (c *Coordinator[T]) Subscribe(fn func(VisualState[T])) (unsubscribe func()) {
	if fn == nil {
		return func() {}
	}
	c.mu.Lock()
	snap := c.published
	dead := c.destroyed
	c.mu.Unlock()

	unsub := func() {}
	if !dead {
		unsub = c.bus.add(fn)
	}
	deliver(fn, snap)
	return unsub
}

// Destroy tears the coordinator down: all timers are cancelled
// synchronously, the source subscription is released, the source is
// destroyed, and subscribers are dropped. Idempotent; source events
// arriving afterwards are silently discarded.
func (c *Coordinator[T]) Destroy() {
	c.run(func() {
		if c.destroyed {
			return
		}
		c.mu.Lock()
		c.destroyed = true
		c.mu.Unlock()
		c.timers.cancelAll()
		if c.unsubscribe != nil {
			c.unsubscribe()
		}
		c.src.Destroy()
		c.bus.clear()
	})
}

// VisualState returns the last published snapshot.
func (c *Coordinator[T]) VisualState() VisualState[T] {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.published
}

// Data returns the last successfully received value, nil if none is
// retained.
func (c *Coordinator[T]) Data() *T {
	return c.VisualState().DisplayData
}

// Err returns the last recorded error. It is set even while stale data
// keeps the blocking error view suppressed.
func (c *Coordinator[T]) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pubErr
}

// State returns the current lifecycle state.
func (c *Coordinator[T]) State() State {
	return c.VisualState().State
}

// IsReady reports whether the coordinator is in the ready state.
func (c *Coordinator[T]) IsReady() bool {
	return c.State() == StateReady
}

// UpdateCount returns the number of applied terminal transitions.
// Monotonic; intended for diagnostics and tests.
func (c *Coordinator[T]) UpdateCount() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pubCount
}

// LastUpdated returns when the retained data was last replaced by a
// successful result. Zero until the first success.
func (c *Coordinator[T]) LastUpdated() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pubAt
}
