package lifecycle_test

import (
	stderrors "errors"
	"sync"
	"testing"
	"time"

	"github.com/nextcore/livequery/pkg/errors"
	"github.com/nextcore/livequery/pkg/lifecycle"
	livetest "github.com/nextcore/livequery/pkg/testing"
)

// harness bundles the fake clock, scripted source, and coordinator used
// by most scenarios.
type harness struct {
	clk   *livetest.FakeClock
	src   *livetest.ScriptedSource[string]
	coord *lifecycle.Coordinator[string]
}

func newHarness(t *testing.T, opts lifecycle.Options[string]) *harness {
	t.Helper()
	h := &harness{
		clk: livetest.NewFakeClock(),
		src: livetest.NewScriptedSource[string](),
	}
	opts.Clock = h.clk
	h.coord = lifecycle.New(h.src.Factory(), opts)
	t.Cleanup(h.coord.Destroy)
	return h
}

// makeReady drives the coordinator to StateReady with the given value.
func (h *harness) makeReady(t *testing.T, value string) {
	t.Helper()
	h.src.EmitValue(value)
	h.clk.Advance(lifecycle.DefaultMinimumLoadingTime)
	if h.coord.State() != lifecycle.StateReady {
		t.Fatalf("setup: expected ready, got %v", h.coord.State())
	}
}

func TestInitialState(t *testing.T) {
	h := newHarness(t, lifecycle.Options[string]{})

	v := h.coord.VisualState()
	if v.State != lifecycle.StateInitializing {
		t.Errorf("expected initializing, got %v", v.State)
	}
	if !v.ShouldShowSkeleton {
		t.Error("expected skeleton during initializing")
	}
	if !v.IsInitialLoad {
		t.Error("expected IsInitialLoad before first success")
	}
	if v.DisplayData != nil {
		t.Error("expected nil DisplayData before first success")
	}
}

// Scenario A: a result arriving inside the loading dwell window is held
// until the window closes.
func TestLoadingDwellDefersFirstResult(t *testing.T) {
	h := newHarness(t, lifecycle.Options[string]{})

	h.clk.Advance(50 * time.Millisecond)
	h.src.EmitValue("X")

	if got := h.coord.State(); got != lifecycle.StateLoading {
		t.Fatalf("at t=50ms: expected loading, got %v", got)
	}
	if h.coord.Data() != nil {
		t.Fatal("at t=50ms: data must not be visible yet")
	}

	h.clk.Advance(150 * time.Millisecond)

	if got := h.coord.State(); got != lifecycle.StateReady {
		t.Fatalf("at t=200ms: expected ready, got %v", got)
	}
	if d := h.coord.Data(); d == nil || *d != "X" {
		t.Fatalf("at t=200ms: expected data X, got %v", d)
	}
}

// Flash prevention: the state must not settle before the configured
// minimum even though the source already has a terminal result.
func TestFlashPrevention(t *testing.T) {
	h := newHarness(t, lifecycle.Options[string]{})

	h.src.EmitValue("early")
	h.clk.Advance(lifecycle.DefaultMinimumLoadingTime - time.Millisecond)
	if got := h.coord.State(); got != lifecycle.StateLoading {
		t.Fatalf("one tick before dwell close: expected loading, got %v", got)
	}
	h.clk.Advance(time.Millisecond)
	if got := h.coord.State(); got != lifecycle.StateReady {
		t.Fatalf("at dwell close: expected ready, got %v", got)
	}
}

// A result arriving after the dwell window already elapsed applies
// immediately.
func TestLateFirstResultAppliesImmediately(t *testing.T) {
	h := newHarness(t, lifecycle.Options[string]{})

	h.clk.Advance(500 * time.Millisecond)
	if got := h.coord.State(); got != lifecycle.StateInitializing {
		t.Fatalf("before any event: expected initializing, got %v", got)
	}
	h.src.EmitValue("slow")
	if got := h.coord.State(); got != lifecycle.StateReady {
		t.Fatalf("expected immediate ready, got %v", got)
	}
}

// Scenario B: a refresh keeps the previous data visible through the
// hydrating dwell, then applies the new value.
func TestHydratingDwellHoldsPreviousData(t *testing.T) {
	h := newHarness(t, lifecycle.Options[string]{})
	h.makeReady(t, "A")

	h.coord.Refresh()
	if got := h.coord.State(); got != lifecycle.StateHydrating {
		t.Fatalf("after refresh: expected hydrating, got %v", got)
	}

	h.clk.Advance(10 * time.Millisecond)
	h.src.EmitValue("B")
	if d := h.coord.Data(); d == nil || *d != "A" {
		t.Fatalf("mid-dwell: expected retained A, got %v", d)
	}
	v := h.coord.VisualState()
	if !v.ShouldShowSubtleLoader {
		t.Error("mid-dwell: expected subtle loader")
	}
	if !v.CanInteract {
		t.Error("mid-dwell: hydrating data must stay interactive")
	}

	h.clk.Advance(290 * time.Millisecond)
	if got := h.coord.State(); got != lifecycle.StateReady {
		t.Fatalf("after dwell: expected ready, got %v", got)
	}
	if d := h.coord.Data(); d == nil || *d != "B" {
		t.Fatalf("after dwell: expected B, got %v", d)
	}
}

// Scenario C: with stale preservation, an error after a success keeps
// the data and suppresses the blocking error view.
func TestStalePreservationMasksError(t *testing.T) {
	h := newHarness(t, lifecycle.Options[string]{})
	h.makeReady(t, "A")

	boom := stderrors.New("boom")
	h.coord.Refresh()
	h.src.EmitError(boom)
	h.clk.Advance(lifecycle.DefaultMinimumHydratingTime)

	if got := h.coord.State(); got != lifecycle.StateError {
		t.Fatalf("expected error state, got %v", got)
	}
	if d := h.coord.Data(); d == nil || *d != "A" {
		t.Fatalf("expected retained A, got %v", d)
	}
	v := h.coord.VisualState()
	if v.ShouldShowError {
		t.Error("blocking error view must stay suppressed over stale data")
	}
	if !v.ShouldShowData {
		t.Error("stale data should remain visible")
	}
	if v.IsFresh {
		t.Error("data superseded by an error must not report fresh")
	}
	if !stderrors.Is(h.coord.Err(), boom) {
		t.Errorf("expected retrievable error, got %v", h.coord.Err())
	}
}

func TestNoPreservationClearsData(t *testing.T) {
	h := newHarness(t, lifecycle.Options[string]{
		PreserveStaleData: lifecycle.Bool(false),
	})
	h.makeReady(t, "A")

	h.coord.Refresh()
	h.src.EmitError(stderrors.New("boom"))
	h.clk.Advance(lifecycle.DefaultMinimumHydratingTime)

	if h.coord.Data() != nil {
		t.Fatal("expected data cleared without preservation")
	}
	v := h.coord.VisualState()
	if !v.ShouldShowError {
		t.Error("expected blocking error view")
	}
	if v.ShouldShowData {
		t.Error("no data should be shown")
	}
}

// An error with no prior success always blocks, regardless of policy.
func TestErrorBeforeAnySuccessBlocks(t *testing.T) {
	h := newHarness(t, lifecycle.Options[string]{})

	h.src.EmitError(stderrors.New("cold failure"))
	h.clk.Advance(lifecycle.DefaultMinimumLoadingTime)

	v := h.coord.VisualState()
	if v.State != lifecycle.StateError {
		t.Fatalf("expected error, got %v", v.State)
	}
	if !v.ShouldShowError {
		t.Error("expected blocking error view with no prior success")
	}
}

// Scenario D: the initial load timeout forces a terminal error state.
func TestInitialLoadTimeout(t *testing.T) {
	h := newHarness(t, lifecycle.Options[string]{
		InitialLoadTimeout: lifecycle.Duration(100 * time.Millisecond),
	})

	h.clk.Advance(100 * time.Millisecond)

	if got := h.coord.State(); got != lifecycle.StateError {
		t.Fatalf("expected error after timeout, got %v", got)
	}
	if !errors.IsTimeout(h.coord.Err()) {
		t.Errorf("expected TimeoutError, got %v", h.coord.Err())
	}
	if h.clk.PendingTimers() != 0 {
		t.Errorf("expected all timers cancelled, %d pending", h.clk.PendingTimers())
	}
}

func TestTimeoutCancelledByResult(t *testing.T) {
	h := newHarness(t, lifecycle.Options[string]{
		InitialLoadTimeout: lifecycle.Duration(100 * time.Millisecond),
	})

	h.src.EmitValue("X")
	h.clk.Advance(time.Hour)

	if got := h.coord.State(); got != lifecycle.StateReady {
		t.Fatalf("expected ready, got %v", got)
	}
	if errors.IsTimeout(h.coord.Err()) {
		t.Error("timeout must not fire after a result was received")
	}
}

func TestTimeoutDisabled(t *testing.T) {
	h := newHarness(t, lifecycle.Options[string]{
		InitialLoadTimeout: lifecycle.Duration(0),
	})

	h.clk.Advance(time.Hour)
	if got := h.coord.State(); got != lifecycle.StateInitializing {
		t.Fatalf("expected initializing forever, got %v", got)
	}
}

// Scenario E: overlapping refreshes collapse onto one dwell window and
// produce exactly one terminal application.
func TestOverlappingRefreshesCollapse(t *testing.T) {
	h := newHarness(t, lifecycle.Options[string]{})
	h.makeReady(t, "A")

	rec := livetest.NewRecorder[string]()
	unsub := h.coord.Subscribe(rec.Callback())
	defer unsub()
	rec.Reset() // drop the immediate snapshot

	h.coord.Refresh()
	h.coord.Refresh()
	h.coord.Refresh()

	if got := h.src.RefreshCount(); got != 3 {
		t.Errorf("expected 3 source refreshes, got %d", got)
	}

	h.src.EmitValue("Z")
	h.clk.Advance(lifecycle.DefaultMinimumHydratingTime)

	if d := h.coord.Data(); d == nil || *d != "Z" {
		t.Fatalf("expected Z, got %v", d)
	}

	var applied int
	for _, s := range rec.Snapshots() {
		if s.State == lifecycle.StateReady {
			applied++
		}
	}
	if applied != 1 {
		t.Errorf("expected exactly one terminal application, got %d", applied)
	}
	if h.clk.PendingTimers() != 0 {
		t.Errorf("expected no leftover dwell timers, %d pending", h.clk.PendingTimers())
	}
}

// Last write wins: a success immediately followed by an error inside
// one dwell window resolves to the error.
func TestLastWriteWinsInsideDwell(t *testing.T) {
	h := newHarness(t, lifecycle.Options[string]{})
	h.makeReady(t, "A")

	h.coord.Refresh()
	h.src.EmitValue("B")
	boom := stderrors.New("late failure")
	h.src.EmitError(boom)
	h.clk.Advance(lifecycle.DefaultMinimumHydratingTime)

	if got := h.coord.State(); got != lifecycle.StateError {
		t.Fatalf("expected error to win, got %v", got)
	}
	if !stderrors.Is(h.coord.Err(), boom) {
		t.Errorf("expected late failure, got %v", h.coord.Err())
	}
	// Stale preservation still applies: A stays visible.
	if d := h.coord.Data(); d == nil || *d != "A" {
		t.Fatalf("expected retained A, got %v", d)
	}
}

func TestErrorThenSuccessInsideDwell(t *testing.T) {
	h := newHarness(t, lifecycle.Options[string]{})
	h.makeReady(t, "A")

	h.coord.Refresh()
	h.src.EmitError(stderrors.New("transient"))
	h.src.EmitValue("B")
	h.clk.Advance(lifecycle.DefaultMinimumHydratingTime)

	if got := h.coord.State(); got != lifecycle.StateReady {
		t.Fatalf("expected success to win, got %v", got)
	}
	if d := h.coord.Data(); d == nil || *d != "B" {
		t.Fatalf("expected B, got %v", d)
	}
	if h.coord.Err() != nil {
		t.Errorf("expected error cleared by success, got %v", h.coord.Err())
	}
}

func TestMaxStaleTimeDiscardsOldData(t *testing.T) {
	h := newHarness(t, lifecycle.Options[string]{
		MaxStaleTime: time.Second,
	})
	h.makeReady(t, "A")

	h.clk.Advance(2 * time.Second)
	h.coord.Refresh()
	h.src.EmitError(stderrors.New("boom"))
	h.clk.Advance(lifecycle.DefaultMinimumHydratingTime)

	if h.coord.Data() != nil {
		t.Fatal("expected stale data past MaxStaleTime to be discarded")
	}
	if !h.coord.VisualState().ShouldShowError {
		t.Error("expected blocking error view once stale data expired")
	}
}

func TestRefreshAfterMaskedErrorUsesLoading(t *testing.T) {
	h := newHarness(t, lifecycle.Options[string]{})
	h.makeReady(t, "A")

	h.coord.Refresh()
	h.src.EmitError(stderrors.New("boom"))
	h.clk.Advance(lifecycle.DefaultMinimumHydratingTime)

	// Data already superseded by an undisplayed error: the next refresh
	// is a loading cycle, not hydrating.
	h.coord.Refresh()
	if got := h.coord.State(); got != lifecycle.StateLoading {
		t.Fatalf("expected loading, got %v", got)
	}
	// The retained value stays on screen while it lasts.
	if !h.coord.VisualState().ShouldShowData {
		t.Error("retained data should remain visible during the reload")
	}
}

func TestSubscribeImmediateDelivery(t *testing.T) {
	h := newHarness(t, lifecycle.Options[string]{})

	rec := livetest.NewRecorder[string]()
	unsub := h.coord.Subscribe(rec.Callback())
	defer unsub()

	if rec.Len() != 1 {
		t.Fatalf("expected one immediate snapshot, got %d", rec.Len())
	}
	if last, _ := rec.Last(); last.State != lifecycle.StateInitializing {
		t.Errorf("expected initializing snapshot, got %v", last.State)
	}
}

func TestUnsubscribeStopsDelivery(t *testing.T) {
	h := newHarness(t, lifecycle.Options[string]{})

	rec := livetest.NewRecorder[string]()
	unsub := h.coord.Subscribe(rec.Callback())
	unsub()
	rec.Reset()

	h.src.EmitValue("X")
	h.clk.Advance(lifecycle.DefaultMinimumLoadingTime)

	if rec.Len() != 0 {
		t.Errorf("expected no delivery after unsubscribe, got %d", rec.Len())
	}
}

func TestNotificationOrder(t *testing.T) {
	h := newHarness(t, lifecycle.Options[string]{})

	rec := livetest.NewRecorder[string]()
	unsub := h.coord.Subscribe(rec.Callback())
	defer unsub()

	h.src.EmitValue("X")
	h.clk.Advance(lifecycle.DefaultMinimumLoadingTime)

	want := []lifecycle.State{
		lifecycle.StateInitializing,
		lifecycle.StateLoading,
		lifecycle.StateReady,
	}
	got := rec.States()
	if len(got) != len(want) {
		t.Fatalf("expected %d notifications, got %d (%v)", len(want), len(got), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("notification %d: expected %v, got %v", i, want[i], got[i])
		}
	}
}

// Every published state is one of the five defined values, across a
// deliberately messy event sequence.
func TestStateAlwaysOneOfFive(t *testing.T) {
	h := newHarness(t, lifecycle.Options[string]{})

	rec := livetest.NewRecorder[string]()
	unsub := h.coord.Subscribe(rec.Callback())
	defer unsub()

	h.src.EmitLoading()
	h.src.EmitValue("A")
	h.clk.Advance(lifecycle.DefaultMinimumLoadingTime)
	h.coord.Refresh()
	h.src.EmitError(stderrors.New("e1"))
	h.src.EmitValue("B")
	h.clk.Advance(lifecycle.DefaultMinimumHydratingTime)
	h.coord.Refresh()
	h.coord.Refresh()
	h.src.EmitError(stderrors.New("e2"))
	h.clk.Advance(lifecycle.DefaultMinimumHydratingTime)

	for i, s := range rec.States() {
		switch s {
		case lifecycle.StateInitializing, lifecycle.StateLoading,
			lifecycle.StateHydrating, lifecycle.StateReady, lifecycle.StateError:
		default:
			t.Errorf("notification %d: undefined state %v", i, s)
		}
	}
}

func TestSubscriberIsolation(t *testing.T) {
	var reported []*errors.CoordError
	var mu sync.Mutex
	errors.SetHandler(captureHandler{onError: func(e *errors.CoordError) {
		mu.Lock()
		reported = append(reported, e)
		mu.Unlock()
	}})
	defer errors.SetHandler(nil)

	h := newHarness(t, lifecycle.Options[string]{})

	unsub1 := h.coord.Subscribe(func(v lifecycle.VisualState[string]) {
		if v.State == lifecycle.StateReady {
			panic("misbehaving subscriber")
		}
	})
	defer unsub1()

	rec := livetest.NewRecorder[string]()
	unsub2 := h.coord.Subscribe(rec.Callback())
	defer unsub2()

	h.src.EmitValue("X")
	h.clk.Advance(lifecycle.DefaultMinimumLoadingTime)

	if last, ok := rec.Last(); !ok || last.State != lifecycle.StateReady {
		t.Fatal("well-behaved subscriber must still receive the ready snapshot")
	}

	mu.Lock()
	defer mu.Unlock()
	if len(reported) == 0 {
		t.Fatal("expected the panic to be reported")
	}
	if reported[0].Kind != errors.KindSubscriber {
		t.Errorf("expected KindSubscriber, got %v", reported[0].Kind)
	}
}

func TestDestroyIdempotent(t *testing.T) {
	h := newHarness(t, lifecycle.Options[string]{})

	h.coord.Destroy()
	h.coord.Destroy()

	if got := h.src.DestroyCount(); got != 1 {
		t.Errorf("expected source destroyed once, got %d", got)
	}
	if h.clk.PendingTimers() != 0 {
		t.Errorf("expected all timers cancelled, %d pending", h.clk.PendingTimers())
	}
}

func TestPostDestroyEventsDropped(t *testing.T) {
	h := newHarness(t, lifecycle.Options[string]{})
	h.makeReady(t, "A")

	rec := livetest.NewRecorder[string]()
	unsub := h.coord.Subscribe(rec.Callback())
	defer unsub()
	rec.Reset()

	h.coord.Destroy()
	h.src.EmitValue("B")
	h.clk.Advance(time.Hour)

	if rec.Len() != 0 {
		t.Errorf("expected no delivery after destroy, got %d", rec.Len())
	}
	if d := h.coord.Data(); d == nil || *d != "A" {
		t.Errorf("expected final snapshot to remain readable, got %v", d)
	}
}

func TestRefreshAfterDestroyIsNoop(t *testing.T) {
	h := newHarness(t, lifecycle.Options[string]{})
	h.coord.Destroy()

	h.coord.Refresh()
	if got := h.src.RefreshCount(); got != 0 {
		t.Errorf("expected no source refresh after destroy, got %d", got)
	}
}

// A subscriber triggering Refresh from inside a notification must not
// deadlock or double-schedule the dwell.
func TestReentrantRefreshFromSubscriber(t *testing.T) {
	h := newHarness(t, lifecycle.Options[string]{})

	refreshed := false
	unsub := h.coord.Subscribe(func(v lifecycle.VisualState[string]) {
		if v.State == lifecycle.StateReady && !refreshed {
			refreshed = true
			h.coord.Refresh()
		}
	})
	defer unsub()

	h.src.EmitValue("A")
	h.clk.Advance(lifecycle.DefaultMinimumLoadingTime)

	if got := h.coord.State(); got != lifecycle.StateHydrating {
		t.Fatalf("expected hydrating after reentrant refresh, got %v", got)
	}
	// One dwell for the reentrant hydrate cycle, nothing else.
	if got := h.clk.PendingTimers(); got != 1 {
		t.Errorf("expected exactly one pending dwell timer, got %d", got)
	}
}

func TestUpdateCountMonotonic(t *testing.T) {
	h := newHarness(t, lifecycle.Options[string]{})

	if got := h.coord.UpdateCount(); got != 0 {
		t.Fatalf("expected 0 before first application, got %d", got)
	}
	h.makeReady(t, "A")
	first := h.coord.UpdateCount()
	if first == 0 {
		t.Fatal("expected count to advance on first success")
	}
	h.coord.Refresh()
	h.src.EmitError(stderrors.New("boom"))
	h.clk.Advance(lifecycle.DefaultMinimumHydratingTime)
	if got := h.coord.UpdateCount(); got <= first {
		t.Errorf("expected count to advance on error application, got %d", got)
	}
}

func TestEmptyResultShowsEmptyView(t *testing.T) {
	clk := livetest.NewFakeClock()
	src := livetest.NewScriptedSource[[]int]()
	coord := lifecycle.New(src.Factory(), lifecycle.Options[[]int]{
		Clock:   clk,
		IsEmpty: func(v []int) bool { return len(v) == 0 },
	})
	defer coord.Destroy()

	src.EmitValue([]int{})
	clk.Advance(lifecycle.DefaultMinimumLoadingTime)

	v := coord.VisualState()
	if !v.ShouldShowEmpty {
		t.Error("expected empty view for zero-length result")
	}
	if v.ShouldShowData {
		t.Error("empty result must not render as data")
	}

	coord.Refresh()
	src.EmitValue([]int{1, 2})
	clk.Advance(lifecycle.DefaultMinimumHydratingTime)

	v = coord.VisualState()
	if v.ShouldShowEmpty {
		t.Error("expected data view for non-empty result")
	}
	if !v.ShouldShowData {
		t.Error("expected data to be shown")
	}
}

type captureHandler struct {
	onError func(*errors.CoordError)
}

func (h captureHandler) HandleError(e *errors.CoordError) {
	if h.onError != nil {
		h.onError(e)
	}
}

func (h captureHandler) HandlePanic(*errors.PanicError) {}
