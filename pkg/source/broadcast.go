package source

import "sync"

// Broadcast is a producer-side Source implementation. The owning
// producer pushes values and errors with Emit, Fail, and Loading, and
// every registered handler receives each notification independently.
//
// All methods are safe for concurrent use.
type Broadcast[T any] struct {
	mu        sync.Mutex
	handlers  map[int]Handler[T]
	nextID    int
	destroyed bool

	// onRefresh, when set, is invoked for each Refresh call.
	onRefresh func()
}

// NewBroadcast creates a Broadcast source. onRefresh is invoked on each
// Refresh call and may be nil.
func NewBroadcast[T any](onRefresh func()) *Broadcast[T] {
	return &Broadcast[T]{
		handlers:  make(map[int]Handler[T]),
		onRefresh: onRefresh,
	}
}

// OnChange registers a handler and returns an unsubscribe function.
func (b *Broadcast[T]) OnChange(h Handler[T]) func() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.destroyed {
		return func() {}
	}
	id := b.nextID
	b.nextID++
	b.handlers[id] = h
	return func() {
		b.mu.Lock()
		delete(b.handlers, id)
		b.mu.Unlock()
	}
}

// Refresh invokes the producer's refresh hook.
func (b *Broadcast[T]) Refresh() {
	b.mu.Lock()
	fn := b.onRefresh
	destroyed := b.destroyed
	b.mu.Unlock()
	if fn != nil && !destroyed {
		fn()
	}
}

// Destroy drops all handlers. Subsequent notifications are discarded.
func (b *Broadcast[T]) Destroy() {
	b.mu.Lock()
	b.destroyed = true
	b.handlers = nil
	b.mu.Unlock()
}

// Emit delivers a successful value to every handler.
func (b *Broadcast[T]) Emit(value T) {
	b.notify(value, Meta{})
}

// Fail delivers an error to every handler.
func (b *Broadcast[T]) Fail(err error) {
	var zero T
	b.notify(zero, Meta{Err: err})
}

// Loading delivers an in-progress signal to every handler.
func (b *Broadcast[T]) Loading() {
	var zero T
	b.notify(zero, Meta{IsLoading: true})
}

func (b *Broadcast[T]) notify(value T, meta Meta) {
	b.mu.Lock()
	if b.destroyed {
		b.mu.Unlock()
		return
	}
	// Copy so handlers can unsubscribe during delivery.
	hs := make([]Handler[T], 0, len(b.handlers))
	for _, h := range b.handlers {
		hs = append(hs, h)
	}
	b.mu.Unlock()

	for _, h := range hs {
		h(value, meta)
	}
}
