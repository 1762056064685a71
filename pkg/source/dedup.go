package source

import (
	"sync"
	"time"

	"github.com/nextcore/livequery/pkg/clock"
)

// Dedup wraps a source and suppresses notifications whose value compares
// equal to the previous one and arrives within the given window.
//
// Some sync engines emit several near-duplicate notifications within
// tens of milliseconds for one logical update. Whether to collapse them
// is a policy decision for the caller, not coordinator behavior, so the
// filter lives here as an opt-in adapter. Error and loading
// notifications are never suppressed.
func Dedup[T any](src Source[T], window time.Duration, equal func(a, b T) bool) Source[T] {
	return DedupWithClock(src, window, equal, clock.System())
}

// DedupWithClock is Dedup with an injected clock for tests.
func DedupWithClock[T any](src Source[T], window time.Duration, equal func(a, b T) bool, c clock.Clock) Source[T] {
	return &dedupSource[T]{src: src, window: window, equal: equal, clock: c}
}

type dedupSource[T any] struct {
	src    Source[T]
	window time.Duration
	equal  func(a, b T) bool
	clock  clock.Clock

	mu      sync.Mutex
	hasLast bool
	last    T
	lastAt  time.Time
}

func (d *dedupSource[T]) OnChange(h Handler[T]) func() {
	return d.src.OnChange(func(value T, meta Meta) {
		if meta.Err == nil && !meta.IsLoading && d.suppress(value) {
			return
		}
		h(value, meta)
	})
}

func (d *dedupSource[T]) suppress(value T) bool {
	if d.window <= 0 || d.equal == nil {
		return false
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	now := d.clock.Now()
	dup := d.hasLast && now.Sub(d.lastAt) <= d.window && d.equal(d.last, value)
	if !dup {
		d.hasLast = true
		d.last = value
		d.lastAt = now
	}
	return dup
}

func (d *dedupSource[T]) Refresh() { d.src.Refresh() }

func (d *dedupSource[T]) Destroy() { d.src.Destroy() }
