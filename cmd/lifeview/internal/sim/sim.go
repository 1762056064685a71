// Package sim provides a deliberately flaky live query source for the
// lifeview demo: randomized latency, error bursts, and the occasional
// duplicate notification, so every coordinator behavior can be watched
// in a terminal.
package sim

import (
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/nextcore/livequery/pkg/source"
)

// Row is one record of the simulated result set.
type Row struct {
	ID      int
	Title   string
	Status  string
	Updated time.Time
}

// Options tunes the simulation.
type Options struct {
	// MinLatency and MaxLatency bound the simulated fetch time.
	MinLatency time.Duration
	MaxLatency time.Duration
	// ErrorRate is the probability a fetch fails, in [0, 1].
	ErrorRate float64
	// DuplicateRate is the probability a successful result is emitted
	// twice in quick succession, in [0, 1].
	DuplicateRate float64
	// Rows is the size of the simulated result set.
	Rows int
	// Seed makes the simulation reproducible. Zero seeds from the
	// current time.
	Seed int64
}

// Query is a simulated sync-engine query. It implements the live query
// contract through an embedded broadcast and fabricates results on each
// refresh.
type Query struct {
	*source.Broadcast[[]Row]

	opts Options

	mu      sync.Mutex
	rng     *rand.Rand
	version int
	closed  bool
}

// NewQuery builds a simulated query. Call Start to trigger the initial
// fetch after the coordinator has subscribed.
func NewQuery(opts Options) *Query {
	if opts.Rows <= 0 {
		opts.Rows = 6
	}
	seed := opts.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	q := &Query{
		opts: opts,
		rng:  rand.New(rand.NewSource(seed)),
	}
	q.Broadcast = source.NewBroadcast[[]Row](q.fetch)
	return q
}

// Start kicks off the initial fetch.
func (q *Query) Start() { q.fetch() }

// Destroy stops the query; in-flight fetches are discarded on arrival.
func (q *Query) Destroy() {
	q.mu.Lock()
	q.closed = true
	q.mu.Unlock()
	q.Broadcast.Destroy()
}

// fetch simulates one round trip: a loading signal now, then a result
// or an error after a randomized delay.
func (q *Query) fetch() {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	delay := q.opts.MinLatency
	if spread := q.opts.MaxLatency - q.opts.MinLatency; spread > 0 {
		delay += time.Duration(q.rng.Int63n(int64(spread)))
	}
	fail := q.rng.Float64() < q.opts.ErrorRate
	duplicate := !fail && q.rng.Float64() < q.opts.DuplicateRate
	q.version++
	version := q.version
	q.mu.Unlock()

	q.Loading()

	time.AfterFunc(delay, func() {
		q.mu.Lock()
		closed := q.closed
		q.mu.Unlock()
		if closed {
			return
		}
		if fail {
			q.Fail(fmt.Errorf("simulated sync failure (attempt %d)", version))
			return
		}
		rows := q.buildRows(version)
		q.Emit(rows)
		if duplicate {
			// Near-duplicate notification a few milliseconds later,
			// the way some sync engines misbehave.
			time.AfterFunc(5*time.Millisecond, func() { q.Emit(rows) })
		}
	})
}

func (q *Query) buildRows(version int) []Row {
	statuses := []string{"synced", "pending", "conflict"}
	now := time.Now()

	q.mu.Lock()
	defer q.mu.Unlock()
	rows := make([]Row, q.opts.Rows)
	for i := range rows {
		rows[i] = Row{
			ID:      i + 1,
			Title:   fmt.Sprintf("record %d (rev %d)", i+1, version),
			Status:  statuses[q.rng.Intn(len(statuses))],
			Updated: now,
		}
	}
	return rows
}

// RowsEqual reports content equality of two result sets, used as the
// dedup predicate at the source boundary.
func RowsEqual(a, b []Row) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].ID != b[i].ID || a[i].Title != b[i].Title || a[i].Status != b[i].Status {
			return false
		}
	}
	return true
}
