package lifecycle

import "fmt"

// State is the visual lifecycle phase of a coordinator.
//
// Exactly one state is active at any time. Transitions are driven by
// source notifications, Refresh calls, and dwell timer firings:
//
//	             first result        Refresh (no data)
//	Initializing ────────────► Ready ◄──────────── Loading
//	      │                    │  ▲                    ▲
//	      │ timeout            │  │ dwell fires        │
//	      ▼                    ▼  │                    │
//	    Error ◄─────────── Hydrating ◄─── Refresh (stale data held)
//
// Hydrating means previously fetched data stays on screen while a
// refresh is in flight.
type State int

const (
	// StateInitializing means no result has ever been received.
	StateInitializing State = iota
	// StateLoading means a fetch is in flight with no data to show.
	StateLoading
	// StateHydrating means a fetch is in flight behind retained data.
	StateHydrating
	// StateReady means the last fetch succeeded.
	StateReady
	// StateError means the last fetch failed.
	StateError
)

// String returns a human-readable representation of the state.
func (s State) String() string {
	switch s {
	case StateInitializing:
		return "initializing"
	case StateLoading:
		return "loading"
	case StateHydrating:
		return "hydrating"
	case StateReady:
		return "ready"
	case StateError:
		return "error"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}
