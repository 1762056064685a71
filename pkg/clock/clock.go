// Package clock abstracts time for the livequery lifecycle machinery.
//
// Production code uses [System], which delegates to the time package.
// Tests inject a controllable implementation so dwell windows and
// timeouts can be driven deterministically without sleeping.
package clock

import "time"

// Clock provides the current time and one-shot timers.
type Clock interface {
	// Now returns the current time.
	Now() time.Time
	// AfterFunc schedules fn to run after d elapses and returns a
	// handle that can stop the pending call.
	AfterFunc(d time.Duration, fn func()) Timer
}

// Timer is a handle to a scheduled callback.
type Timer interface {
	// Stop cancels the pending call. It reports whether the call was
	// still pending; a false return means fn already ran or was stopped.
	Stop() bool
}

// System returns the real clock backed by the time package.
func System() Clock { return systemClock{} }

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

func (systemClock) AfterFunc(d time.Duration, fn func()) Timer {
	return systemTimer{time.AfterFunc(d, fn)}
}

type systemTimer struct {
	t *time.Timer
}

func (t systemTimer) Stop() bool { return t.t.Stop() }
