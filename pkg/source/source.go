// Package source defines the live query capability consumed by the
// lifecycle coordinator.
//
// A Source is any object that pushes {value, isLoading, error}
// notifications to registered handlers and accepts fire-and-forget
// refresh requests. The coordinator never inspects a source beyond this
// interface, so sync-engine clients, pollers, and deterministic test
// doubles are all interchangeable.
package source

// Meta carries the notification flags accompanying each source event.
type Meta struct {
	// IsLoading reports that the source is mid-fetch. Notifications with
	// IsLoading set and no error are progress signals, not results.
	IsLoading bool
	// Err is the source error for this notification, nil on success.
	Err error
}

// Handler receives source notifications.
type Handler[T any] func(value T, meta Meta)

// Source is the injected live query capability.
//
// Implementations must tolerate OnChange handlers being added and their
// unsubscribe functions being called in any order, including during a
// notification.
type Source[T any] interface {
	// OnChange registers a handler for subsequent notifications and
	// returns an unsubscribe function. Unsubscribe is idempotent.
	OnChange(h Handler[T]) (unsubscribe func())

	// Refresh asks the source to re-fetch. It returns immediately;
	// results arrive through OnChange.
	Refresh()

	// Destroy releases the source. After Destroy no further
	// notifications are delivered.
	Destroy()
}
