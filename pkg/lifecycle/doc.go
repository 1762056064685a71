// Package lifecycle turns the raw, bursty notification stream of a
// live query into a stable visual lifecycle for UI consumption.
//
// # The problem
//
// A sync-engine-backed query fires rapid, sometimes overlapping
// {value, isLoading, error} notifications. Rendering those directly
// produces loading flash: a skeleton that blinks in and out when data
// is cached or arrives within a few milliseconds. The [Coordinator]
// sits between the source and the UI and adds three things:
//
//   - dwell windows: loading and hydrating states are held for a
//     configured minimum, so a near-instant result does not flicker
//   - stale retention: an error after a prior success keeps the last
//     good data on screen, with the error available for a non-blocking
//     affordance such as a toast
//   - stable derivation: every transition publishes an immutable
//     [VisualState] whose boolean flags fully determine what to render
//
// # Basic usage
//
//	coord := lifecycle.New(func() source.Source[[]Item] {
//	    return store.LiveQuery(filter)
//	}, lifecycle.Options[[]Item]{
//	    IsEmpty: func(items []Item) bool { return len(items) == 0 },
//	})
//	defer coord.Destroy()
//
//	unsubscribe := coord.Subscribe(func(v lifecycle.VisualState[[]Item]) {
//	    switch {
//	    case v.ShouldShowSkeleton:
//	        renderSkeleton()
//	    case v.ShouldShowError:
//	        renderError(coord.Err())
//	    case v.ShouldShowEmpty:
//	        renderEmpty()
//	    default:
//	        renderItems(*v.DisplayData, v.ShouldShowSubtleLoader)
//	    }
//	})
//	defer unsubscribe()
//
// UI code renders from the flags alone; it never needs to reason about
// timer races or whether an error is masked by retained data.
//
// # Threading
//
// The coordinator serializes all mutation onto one logical thread via
// an internal run queue. Source callbacks may arrive from any
// goroutine; subscriber callbacks are delivered on the goroutine that
// triggered the transition, in subscription order.
package lifecycle
