// Package errors provides structured error handling for the livequery library.
package errors

import (
	"fmt"
	"time"
)

// ErrorKind identifies the category of an error.
type ErrorKind int

const (
	// KindUnknown indicates an error of unknown type.
	KindUnknown ErrorKind = iota
	// KindSource indicates an error surfaced by the external live query source.
	KindSource
	// KindTimeout indicates the initial load timed out before any result.
	KindTimeout
	// KindSubscriber indicates a subscriber callback panicked during delivery.
	KindSubscriber
	// KindPanic indicates a recovered panic outside subscriber delivery.
	KindPanic
)

func (k ErrorKind) String() string {
	switch k {
	case KindSource:
		return "source"
	case KindTimeout:
		return "timeout"
	case KindSubscriber:
		return "subscriber"
	case KindPanic:
		return "panic"
	default:
		return "unknown"
	}
}

// CoordError represents a structured error in the livequery library.
type CoordError struct {
	// Op is the operation that failed (e.g., "lifecycle.notify").
	Op string
	// Kind categorizes the error.
	Kind ErrorKind
	// Err is the underlying error.
	Err error
	// StackTrace contains the call stack at the time of the error.
	StackTrace string
	// Timestamp is when the error occurred.
	Timestamp time.Time
}

func (e *CoordError) Error() string {
	return fmt.Sprintf("%s [%s]: %v", e.Op, e.Kind, e.Err)
}

func (e *CoordError) Unwrap() error {
	return e.Err
}

// TimeoutError is synthesized when a coordinator's initial load timeout
// elapses before the source delivers any data or error.
type TimeoutError struct {
	// Timeout is the configured initial load timeout.
	Timeout time.Duration
	// Timestamp is when the timeout fired.
	Timestamp time.Time
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("initial load timed out after %v", e.Timeout)
}

// IsTimeout reports whether err is (or wraps) a TimeoutError.
func IsTimeout(err error) bool {
	for err != nil {
		if _, ok := err.(*TimeoutError); ok {
			return true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}

// PanicError represents a recovered panic.
type PanicError struct {
	// Op is the operation that panicked (e.g., "lifecycle.SubscriptionBus").
	Op string
	// Value is the value passed to panic().
	Value any
	// StackTrace contains the call stack at the time of the panic.
	StackTrace string
	// Timestamp is when the panic occurred.
	Timestamp time.Time
}

func (e *PanicError) Error() string {
	if e.Op != "" {
		return fmt.Sprintf("panic in %s: %v", e.Op, e.Value)
	}
	return fmt.Sprintf("panic: %v", e.Value)
}

// ErrorHandler receives errors reported by the livequery library.
type ErrorHandler interface {
	// HandleError is called when an error occurs.
	HandleError(err *CoordError)
	// HandlePanic is called when a panic is recovered.
	HandlePanic(err *PanicError)
}
