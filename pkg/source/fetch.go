package source

import (
	"sync"
	"time"

	"github.com/nextcore/livequery/pkg/clock"
)

// Func adapts a plain fetch function into a Source. Each Refresh emits
// a loading signal and then runs fetch on its own goroutine, delivering
// the result or error to every handler.
type Func[T any] struct {
	*Broadcast[T]
	fetch func() (T, error)
}

// NewFunc creates a Func source. fetch must be safe to call from
// multiple goroutines if Refresh may be called concurrently.
func NewFunc[T any](fetch func() (T, error)) *Func[T] {
	f := &Func[T]{fetch: fetch}
	f.Broadcast = NewBroadcast[T](f.run)
	return f
}

func (f *Func[T]) run() {
	f.Loading()
	go func() {
		v, err := f.fetch()
		if err != nil {
			f.Fail(err)
			return
		}
		f.Emit(v)
	}()
}

// Poll wraps a Func source with a fixed-interval re-fetch. On-demand
// Refresh calls still work between ticks. Destroy stops the loop.
type Poll[T any] struct {
	*Func[T]
	clock    clock.Clock
	interval time.Duration

	mu      sync.Mutex
	timer   clock.Timer
	stopped bool
}

// NewPoll creates a Poll source fetching every interval.
func NewPoll[T any](fetch func() (T, error), interval time.Duration) *Poll[T] {
	return NewPollWithClock(fetch, interval, clock.System())
}

// NewPollWithClock is NewPoll with an injected clock for tests.
func NewPollWithClock[T any](fetch func() (T, error), interval time.Duration, c clock.Clock) *Poll[T] {
	p := &Poll[T]{Func: NewFunc(fetch), clock: c, interval: interval}
	p.arm()
	return p
}

func (p *Poll[T]) arm() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.stopped || p.interval <= 0 {
		return
	}
	p.timer = p.clock.AfterFunc(p.interval, p.tick)
}

func (p *Poll[T]) tick() {
	p.Func.Refresh()
	p.arm()
}

// Destroy stops the polling loop and releases the underlying source.
func (p *Poll[T]) Destroy() {
	p.mu.Lock()
	p.stopped = true
	if p.timer != nil {
		p.timer.Stop()
	}
	p.mu.Unlock()
	p.Func.Destroy()
}
