package lifecycle

import (
	"fmt"
	"sync"

	"github.com/nextcore/livequery/pkg/errors"
)

// subscriptionBus holds an ordered set of listener callbacks and
// delivers snapshots to them. Listeners are notified in subscription
// order; a listener added mid-notification sees only later snapshots.
//
// A panicking listener is contained and reported, never allowed to
// block delivery to the remaining listeners.
type subscriptionBus[T any] struct {
	mu     sync.Mutex
	subs   []*busEntry[T]
	nextID int
}

type busEntry[T any] struct {
	id int
	fn func(VisualState[T])
}

func newSubscriptionBus[T any]() *subscriptionBus[T] {
	return &subscriptionBus[T]{}
}

// add registers fn and returns an idempotent unsubscribe function.
func (b *subscriptionBus[T]) add(fn func(VisualState[T])) func() {
	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.subs = append(b.subs, &busEntry[T]{id: id, fn: fn})
	b.mu.Unlock()

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		for i, e := range b.subs {
			if e.id == id {
				b.subs = append(b.subs[:i], b.subs[i+1:]...)
				return
			}
		}
	}
}

// notify delivers snap to every listener registered at call time.
// It iterates a copy so listeners may subscribe or unsubscribe during
// delivery without affecting this round.
func (b *subscriptionBus[T]) notify(snap VisualState[T]) {
	b.mu.Lock()
	entries := make([]*busEntry[T], len(b.subs))
	copy(entries, b.subs)
	b.mu.Unlock()

	for _, e := range entries {
		deliver(e.fn, snap)
	}
}

// deliver invokes one listener inside an isolation boundary.
func deliver[T any](fn func(VisualState[T]), snap VisualState[T]) {
	defer func() {
		if r := recover(); r != nil {
			errors.Report(&errors.CoordError{
				Op:         "lifecycle.notify",
				Kind:       errors.KindSubscriber,
				Err:        fmt.Errorf("subscriber panicked: %v", r),
				StackTrace: errors.CaptureStack(),
			})
		}
	}()
	fn(snap)
}

// clear drops every listener.
func (b *subscriptionBus[T]) clear() {
	b.mu.Lock()
	b.subs = nil
	b.mu.Unlock()
}

// count returns the number of registered listeners.
func (b *subscriptionBus[T]) count() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}
