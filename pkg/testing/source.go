package testing

import (
	"sync"

	"github.com/nextcore/livequery/pkg/source"
)

// ScriptedSource is a deterministic source.Source implementation for
// driving lifecycle scenarios: tests emit values, errors, and loading
// signals at exactly the moments they choose, and assert on how often
// the coordinator called Refresh and Destroy.
type ScriptedSource[T any] struct {
	mu        sync.Mutex
	handlers  map[int]source.Handler[T]
	nextID    int
	refreshes int
	destroys  int

	// OnRefresh, when set, runs synchronously inside each Refresh call.
	OnRefresh func()
}

// NewScriptedSource returns an empty scripted source.
func NewScriptedSource[T any]() *ScriptedSource[T] {
	return &ScriptedSource[T]{handlers: make(map[int]source.Handler[T])}
}

// Factory returns a factory function handing out this source, in the
// shape lifecycle.New expects.
func (s *ScriptedSource[T]) Factory() func() source.Source[T] {
	return func() source.Source[T] { return s }
}

// OnChange registers a handler and returns an unsubscribe function.
func (s *ScriptedSource[T]) OnChange(h source.Handler[T]) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextID
	s.nextID++
	s.handlers[id] = h
	return func() {
		s.mu.Lock()
		delete(s.handlers, id)
		s.mu.Unlock()
	}
}

// Refresh records the call and runs the OnRefresh hook if set.
func (s *ScriptedSource[T]) Refresh() {
	s.mu.Lock()
	s.refreshes++
	hook := s.OnRefresh
	s.mu.Unlock()
	if hook != nil {
		hook()
	}
}

// Destroy records the call. Handlers stay registered so tests can
// verify that post-destroy emissions are dropped by the coordinator
// rather than silently swallowed here.
func (s *ScriptedSource[T]) Destroy() {
	s.mu.Lock()
	s.destroys++
	s.mu.Unlock()
}

// EmitValue delivers a successful value to every registered handler.
func (s *ScriptedSource[T]) EmitValue(v T) {
	s.emit(v, source.Meta{})
}

// EmitError delivers an error to every registered handler.
func (s *ScriptedSource[T]) EmitError(err error) {
	var zero T
	s.emit(zero, source.Meta{Err: err})
}

// EmitLoading delivers an in-progress signal to every registered handler.
func (s *ScriptedSource[T]) EmitLoading() {
	var zero T
	s.emit(zero, source.Meta{IsLoading: true})
}

func (s *ScriptedSource[T]) emit(v T, meta source.Meta) {
	s.mu.Lock()
	hs := make([]source.Handler[T], 0, len(s.handlers))
	for _, h := range s.handlers {
		hs = append(hs, h)
	}
	s.mu.Unlock()
	for _, h := range hs {
		h(v, meta)
	}
}

// RefreshCount returns how many times Refresh was called.
func (s *ScriptedSource[T]) RefreshCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.refreshes
}

// DestroyCount returns how many times Destroy was called.
func (s *ScriptedSource[T]) DestroyCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.destroys
}

// HandlerCount returns the number of registered handlers.
func (s *ScriptedSource[T]) HandlerCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.handlers)
}
