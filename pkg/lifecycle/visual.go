package lifecycle

// VisualState is the immutable snapshot published to subscribers. UI
// code renders from the boolean flags alone and never inspects raw
// errors or lifecycle internals to decide what to draw.
//
// A new snapshot is computed on every transition; snapshots are never
// mutated in place.
type VisualState[T any] struct {
	// State is the lifecycle state the snapshot was derived from.
	State State

	// DisplayData is the value to render, nil until a success has been
	// applied (and, without stale preservation, cleared by errors).
	DisplayData *T

	// ShouldShowSkeleton indicates a blocking placeholder: a fetch is in
	// flight and there is nothing to show behind it.
	ShouldShowSkeleton bool

	// ShouldShowData indicates DisplayData should be rendered.
	ShouldShowData bool

	// ShouldShowSubtleLoader indicates a non-blocking progress
	// affordance over retained data.
	ShouldShowSubtleLoader bool

	// ShouldShowError indicates a blocking error view. It is set only
	// when there is no data to fall back on.
	ShouldShowError bool

	// ShouldShowEmpty indicates a successful but empty result.
	ShouldShowEmpty bool

	// CanInteract indicates the rendered data is safe to interact with.
	CanInteract bool

	// IsInitialLoad is true until the first success has been applied.
	IsInitialLoad bool

	// IsFresh is true while DisplayData reflects the latest successful
	// result with no newer error recorded against it.
	IsFresh bool
}

// computeVisual derives a VisualState from lifecycle fields. Pure: no
// timers, no side effects.
func computeVisual[T any](st State, data *T, isEmpty func(T) bool, isInitialLoad, isFresh bool) VisualState[T] {
	hasData := data != nil
	empty := !hasData || (isEmpty != nil && isEmpty(*data))

	v := VisualState[T]{
		State:         st,
		DisplayData:   data,
		IsInitialLoad: isInitialLoad,
		IsFresh:       isFresh,
	}
	v.ShouldShowSkeleton = (st == StateInitializing || st == StateLoading) && !hasData
	v.ShouldShowSubtleLoader = st == StateHydrating
	v.ShouldShowError = st == StateError && !hasData
	v.ShouldShowEmpty = st == StateReady && empty
	v.CanInteract = st == StateReady || st == StateHydrating
	v.ShouldShowData = hasData && !v.ShouldShowEmpty
	return v
}
