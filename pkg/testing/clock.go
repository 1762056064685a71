package testing

import (
	"sort"
	"sync"
	"time"

	"github.com/nextcore/livequery/pkg/clock"
)

// FakeClock provides controllable time for deterministic lifecycle
// tests. Timers scheduled with AfterFunc fire synchronously inside
// Advance, in due order. All methods are safe for concurrent use.
type FakeClock struct {
	mu     sync.Mutex
	now    time.Time
	timers []*fakeTimer
}

// NewFakeClock returns a FakeClock starting at a fixed epoch.
func NewFakeClock() *FakeClock {
	return &FakeClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
}

// Now returns the current fake time.
func (c *FakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// AfterFunc schedules fn to run when the clock has advanced past d.
func (c *FakeClock) AfterFunc(d time.Duration, fn func()) clock.Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &fakeTimer{clock: c, due: c.now.Add(d), fn: fn}
	c.timers = append(c.timers, t)
	return t
}

// Advance moves the clock forward by d, firing every timer whose due
// time is reached, in due order. Callbacks run without the clock lock
// held and may schedule further timers; a timer scheduled inside a
// callback fires within the same Advance if it comes due.
func (c *FakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	target := c.now.Add(d)
	c.mu.Unlock()
	c.advanceTo(target)
}

// Set moves the clock to an exact time, firing timers along the way.
// Moving backwards only shifts the time; nothing fires.
func (c *FakeClock) Set(t time.Time) {
	c.mu.Lock()
	backwards := t.Before(c.now)
	if backwards {
		c.now = t
	}
	c.mu.Unlock()
	if !backwards {
		c.advanceTo(t)
	}
}

// PendingTimers returns the number of scheduled, unfired timers.
func (c *FakeClock) PendingTimers() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.timers)
}

func (c *FakeClock) advanceTo(target time.Time) {
	for {
		c.mu.Lock()
		next := c.nextDueLocked(target)
		if next == nil {
			c.now = target
			c.mu.Unlock()
			return
		}
		c.now = next.due
		c.removeLocked(next)
		c.mu.Unlock()
		next.fn()
	}
}

// nextDueLocked returns the earliest timer due at or before target.
func (c *FakeClock) nextDueLocked(target time.Time) *fakeTimer {
	sort.SliceStable(c.timers, func(i, j int) bool {
		return c.timers[i].due.Before(c.timers[j].due)
	})
	for _, t := range c.timers {
		if !t.due.After(target) {
			return t
		}
	}
	return nil
}

func (c *FakeClock) removeLocked(t *fakeTimer) {
	for i, cur := range c.timers {
		if cur == t {
			c.timers = append(c.timers[:i], c.timers[i+1:]...)
			return
		}
	}
}

type fakeTimer struct {
	clock *FakeClock
	due   time.Time
	fn    func()
}

// Stop cancels the timer. It reports whether the timer was still
// pending.
func (t *fakeTimer) Stop() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()
	for i, cur := range t.clock.timers {
		if cur == t {
			t.clock.timers = append(t.clock.timers[:i], t.clock.timers[i+1:]...)
			return true
		}
	}
	return false
}
