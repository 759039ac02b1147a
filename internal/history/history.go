// Package history implements an undoable state store: every dispatched
// action produces a new state and the previous one is kept for undo.
package history

import (
	"sync"
)

// Reserved action names handled by the store itself.
const (
	ActionUndo         = "UndoRedo.Undo"
	ActionRedo         = "UndoRedo.Redo"
	ActionClearHistory = "UndoRedo.ClearHistory"
)

// Action describes a change to the state. Consecutive actions sharing a
// non-empty MergeKey collapse into a single undo step.
type Action struct {
	Name     string
	MergeKey string
	Payload  any
}

// Reducer returns the state that results from applying a to state. It must
// not modify state.
type Reducer[T any] func(state T, a Action) T

// AutoMerger reports whether a should be merged into prev when neither
// action carries a merge key.
type AutoMerger func(a, prev Action) bool

// Store holds the current state together with its undo and redo stacks.
// It is safe for concurrent use.
type Store[T any] struct {
	reduce Reducer[T]
	merge  AutoMerger

	mu     sync.Mutex
	state  T
	past   []T
	future []T
	last   *Action

	subMu  sync.Mutex
	subs   map[int]func(T)
	nextID int
}

// New returns a store starting at initial. merge may be nil, in which case
// only actions with matching merge keys are merged.
func New[T any](initial T, reduce Reducer[T], merge AutoMerger) *Store[T] {
	return &Store[T]{
		reduce: reduce,
		merge:  merge,
		state:  initial,
		subs:   make(map[int]func(T)),
	}
}

// Dispatch applies a. The reserved actions undo, redo or clear the history;
// any other action runs through the reducer, records an undo step (or merges
// into the previous one) and discards the redo stack.
func (s *Store[T]) Dispatch(a Action) {
	switch a.Name {
	case ActionUndo:
		s.Undo()
		return
	case ActionRedo:
		s.Redo()
		return
	case ActionClearHistory:
		s.ClearHistory()
		return
	}

	s.mu.Lock()
	base := s.state
	if s.last != nil && s.shouldMerge(a, *s.last) && len(s.past) > 0 {
		base = s.past[len(s.past)-1]
		s.past = s.past[:len(s.past)-1]
	}
	s.past = append(s.past, base)
	s.state = s.reduce(base, a)
	s.future = nil
	s.last = &a
	state := s.state
	s.mu.Unlock()

	s.publish(state)
}

func (s *Store[T]) shouldMerge(a, prev Action) bool {
	switch {
	case a.MergeKey != "" && prev.MergeKey != "":
		return a.MergeKey == prev.MergeKey
	case a.MergeKey == "" && prev.MergeKey == "":
		return s.merge != nil && s.merge(a, prev)
	default:
		return false
	}
}

// Undo restores the state before the last undo step. It does nothing when
// there is nothing to undo. The next action is never merged into an undone
// one.
func (s *Store[T]) Undo() {
	s.mu.Lock()
	if len(s.past) == 0 {
		s.mu.Unlock()
		return
	}
	s.future = append(s.future, s.state)
	s.state = s.past[len(s.past)-1]
	s.past = s.past[:len(s.past)-1]
	s.last = nil
	state := s.state
	s.mu.Unlock()

	s.publish(state)
}

// Redo reapplies the most recently undone step. It does nothing when there
// is nothing to redo.
func (s *Store[T]) Redo() {
	s.mu.Lock()
	if len(s.future) == 0 {
		s.mu.Unlock()
		return
	}
	s.past = append(s.past, s.state)
	s.state = s.future[len(s.future)-1]
	s.future = s.future[:len(s.future)-1]
	s.last = nil
	state := s.state
	s.mu.Unlock()

	s.publish(state)
}

// ClearHistory drops every undo and redo step but keeps the current state.
func (s *Store[T]) ClearHistory() {
	s.mu.Lock()
	s.past = nil
	s.future = nil
	s.last = nil
	s.mu.Unlock()
}

// State returns the current state.
func (s *Store[T]) State() T {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// LastMergeKey returns the merge key of the action that produced the
// current undo step, or "" when the next action cannot merge with it.
func (s *Store[T]) LastMergeKey() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.last == nil {
		return ""
	}
	return s.last.MergeKey
}

// CanUndo reports whether Undo would change the state.
func (s *Store[T]) CanUndo() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.past) > 0
}

// CanRedo reports whether Redo would change the state.
func (s *Store[T]) CanRedo() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.future) > 0
}

// Subscribe registers fn to be called with the new state after every change.
// The returned function removes the subscription.
func (s *Store[T]) Subscribe(fn func(T)) (cancel func()) {
	s.subMu.Lock()
	id := s.nextID
	s.nextID++
	s.subs[id] = fn
	s.subMu.Unlock()

	return func() {
		s.subMu.Lock()
		delete(s.subs, id)
		s.subMu.Unlock()
	}
}

func (s *Store[T]) publish(state T) {
	s.subMu.Lock()
	fns := make([]func(T), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.subMu.Unlock()

	for _, fn := range fns {
		fn(state)
	}
}
