package lifecycle

import (
	"time"

	"github.com/nextcore/livequery/pkg/clock"
)

// Default dwell and timeout durations, applied when the corresponding
// option is left unset.
const (
	DefaultMinimumLoadingTime   = 200 * time.Millisecond
	DefaultMinimumHydratingTime = 300 * time.Millisecond
	DefaultInitialLoadTimeout   = 10 * time.Second
)

// Options configures a Coordinator. The zero value is valid; every
// field falls back to a documented default.
type Options[T any] struct {
	// MinimumLoadingTime is how long the loading state is held before a
	// result may be shown. Defaults to DefaultMinimumLoadingTime.
	MinimumLoadingTime time.Duration

	// MinimumHydratingTime is how long the hydrating state is held
	// before a refresh result may replace retained data. Defaults to
	// DefaultMinimumHydratingTime.
	MinimumHydratingTime time.Duration

	// InitialLoadTimeout bounds the wait for the first result. When it
	// elapses with no data or error the coordinator enters the error
	// state with a TimeoutError. Nil defaults to
	// DefaultInitialLoadTimeout; an explicit zero disables the timeout.
	InitialLoadTimeout *time.Duration

	// PreserveStaleData keeps the last successful value on screen when
	// a later fetch fails. Nil defaults to true.
	PreserveStaleData *bool

	// MaxStaleTime bounds how old retained data may be when standing in
	// for a failed fetch. Data older than this is discarded and the
	// error shown instead. Zero disables the bound.
	MaxStaleTime time.Duration

	// IsEmpty reports whether a successful value should render as the
	// empty view (for example a zero-length result set). Nil means only
	// the absence of data counts as empty.
	IsEmpty func(T) bool

	// Clock overrides the time source. Nil uses the system clock.
	Clock clock.Clock
}

// Duration is a convenience for setting optional duration fields.
func Duration(d time.Duration) *time.Duration { return &d }

// Bool is a convenience for setting optional bool fields.
func Bool(v bool) *bool { return &v }

// settings is Options with every default resolved.
type settings[T any] struct {
	minLoading     time.Duration
	minHydrating   time.Duration
	initialTimeout time.Duration
	preserveStale  bool
	maxStale       time.Duration
	isEmpty        func(T) bool
	clock          clock.Clock
}

func (o Options[T]) withDefaults() settings[T] {
	s := settings[T]{
		minLoading:     o.MinimumLoadingTime,
		minHydrating:   o.MinimumHydratingTime,
		initialTimeout: DefaultInitialLoadTimeout,
		preserveStale:  true,
		maxStale:       o.MaxStaleTime,
		isEmpty:        o.IsEmpty,
		clock:          o.Clock,
	}
	if s.minLoading <= 0 {
		if o.MinimumLoadingTime < 0 {
			s.minLoading = 0
		} else {
			s.minLoading = DefaultMinimumLoadingTime
		}
	}
	if s.minHydrating <= 0 {
		if o.MinimumHydratingTime < 0 {
			s.minHydrating = 0
		} else {
			s.minHydrating = DefaultMinimumHydratingTime
		}
	}
	if o.InitialLoadTimeout != nil {
		s.initialTimeout = *o.InitialLoadTimeout
		if s.initialTimeout < 0 {
			s.initialTimeout = 0
		}
	}
	if o.PreserveStaleData != nil {
		s.preserveStale = *o.PreserveStaleData
	}
	if s.maxStale < 0 {
		s.maxStale = 0
	}
	if s.clock == nil {
		s.clock = clock.System()
	}
	return s
}
