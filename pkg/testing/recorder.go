package testing

import (
	"sync"

	"github.com/nextcore/livequery/pkg/lifecycle"
)

// Recorder collects every VisualState snapshot a coordinator publishes,
// in delivery order.
type Recorder[T any] struct {
	mu    sync.Mutex
	snaps []lifecycle.VisualState[T]
}

// NewRecorder returns an empty recorder.
func NewRecorder[T any]() *Recorder[T] {
	return &Recorder[T]{}
}

// Callback returns the subscriber function to pass to Subscribe.
func (r *Recorder[T]) Callback() func(lifecycle.VisualState[T]) {
	return func(v lifecycle.VisualState[T]) {
		r.mu.Lock()
		r.snaps = append(r.snaps, v)
		r.mu.Unlock()
	}
}

// Snapshots returns a copy of the recorded snapshots.
func (r *Recorder[T]) Snapshots() []lifecycle.VisualState[T] {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]lifecycle.VisualState[T], len(r.snaps))
	copy(out, r.snaps)
	return out
}

// States returns just the lifecycle states, in delivery order.
func (r *Recorder[T]) States() []lifecycle.State {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]lifecycle.State, len(r.snaps))
	for i, s := range r.snaps {
		out[i] = s.State
	}
	return out
}

// Last returns the most recent snapshot and whether one exists.
func (r *Recorder[T]) Last() (lifecycle.VisualState[T], bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.snaps) == 0 {
		return lifecycle.VisualState[T]{}, false
	}
	return r.snaps[len(r.snaps)-1], true
}

// Len returns the number of recorded snapshots.
func (r *Recorder[T]) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.snaps)
}

// Reset discards all recorded snapshots.
func (r *Recorder[T]) Reset() {
	r.mu.Lock()
	r.snaps = nil
	r.mu.Unlock()
}
