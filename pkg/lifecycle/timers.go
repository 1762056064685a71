package lifecycle

import (
	"time"

	"github.com/nextcore/livequery/pkg/clock"
)

// timerKind distinguishes the two timers a coordinator may own.
type timerKind int

const (
	// timerInitial is the initial load timeout.
	timerInitial timerKind = iota
	// timerDwell is the minimum loading/hydrating display window.
	timerDwell
)

// timerSet owns at most one pending timer per kind. Scheduling a kind
// that is already armed is refused, so overlapping refresh calls cannot
// restart an active dwell window.
//
// schedule and cancel must be called on the coordinator's logical
// thread. Clock callbacks arrive on arbitrary goroutines and are
// marshalled back through run, with a generation check so a firing that
// lost the race against cancel is dropped.
type timerSet struct {
	clock   clock.Clock
	run     func(func())
	pending map[timerKind]*pendingTimer
	nextGen uint64
}

type pendingTimer struct {
	handle clock.Timer
	gen    uint64
}

func newTimerSet(c clock.Clock, run func(func())) *timerSet {
	return &timerSet{
		clock:   c,
		run:     run,
		pending: make(map[timerKind]*pendingTimer),
	}
}

// schedule arms a timer of the given kind. It reports whether the timer
// was armed; false means one is already pending for this kind.
func (ts *timerSet) schedule(kind timerKind, d time.Duration, onFire func()) bool {
	if _, armed := ts.pending[kind]; armed {
		return false
	}
	ts.nextGen++
	gen := ts.nextGen
	p := &pendingTimer{gen: gen}
	p.handle = ts.clock.AfterFunc(d, func() {
		ts.run(func() {
			cur, ok := ts.pending[kind]
			if !ok || cur.gen != gen {
				return
			}
			delete(ts.pending, kind)
			onFire()
		})
	})
	ts.pending[kind] = p
	return true
}

// active reports whether a timer of the given kind is pending.
func (ts *timerSet) active(kind timerKind) bool {
	_, ok := ts.pending[kind]
	return ok
}

// cancel stops and forgets the pending timer of the given kind, if any.
func (ts *timerSet) cancel(kind timerKind) {
	if p, ok := ts.pending[kind]; ok {
		p.handle.Stop()
		delete(ts.pending, kind)
	}
}

// cancelAll cancels every pending timer.
func (ts *timerSet) cancelAll() {
	for kind, p := range ts.pending {
		p.handle.Stop()
		delete(ts.pending, kind)
	}
}
