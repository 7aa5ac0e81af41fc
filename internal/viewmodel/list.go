// Package viewmodel holds the per-session page state for each entity list
// and reconciles it with the library service after every call.
package viewmodel

import (
	"context"
	"slices"
	"sync"

	"github.com/libraryhub/libraryhub-web/internal/errors"
)

// ErrClosed is returned by operations started after Close.
var ErrClosed = &errors.Error{Kind: errors.KindLocal, Code: errors.CodeConflict, Message: "this page has been closed"}

// State is a snapshot of a list for rendering.
type State[T any] struct {
	Items  []T
	Err    error
	Loaded bool
}

// rowKey identifies one action on one row. Row 0 is used for list-level
// actions such as create.
type rowKey struct {
	id     int64
	action string
}

// List is the shared state behind every entity view model.
//
// Loads carry a generation number; a result is applied only if no newer load
// or local mutation happened meanwhile, and never after Close.
type List[T any] struct {
	mu       sync.Mutex
	items    []T
	err      error
	loaded   bool
	gen      uint64
	closed   bool
	inFlight map[rowKey]struct{}
	idOf     func(T) int64
}

func newList[T any](idOf func(T) int64) *List[T] {
	return &List[T]{
		inFlight: make(map[rowKey]struct{}),
		idOf:     idOf,
	}
}

// State returns a copy of the current state.
func (l *List[T]) State() State[T] {
	l.mu.Lock()
	defer l.mu.Unlock()
	return State[T]{Items: slices.Clone(l.items), Err: l.err, Loaded: l.loaded}
}

// Items returns a copy of the current items.
func (l *List[T]) Items() []T {
	l.mu.Lock()
	defer l.mu.Unlock()
	return slices.Clone(l.items)
}

// Err returns the visible error, if any.
func (l *List[T]) Err() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.err
}

// Loaded reports whether a load has ever succeeded.
func (l *List[T]) Loaded() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.loaded
}

// Get returns the item with id.
func (l *List[T]) Get(id int64) (T, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if i := l.index(id); i >= 0 {
		return l.items[i], true
	}
	var zero T
	return zero, false
}

// InFlight reports whether action is outstanding on row id.
func (l *List[T]) InFlight(id int64, action string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, ok := l.inFlight[rowKey{id, action}]
	return ok
}

// Busy reports whether any action is outstanding on row id.
func (l *List[T]) Busy(id int64) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	for k := range l.inFlight {
		if k.id == id {
			return true
		}
	}
	return false
}

// ClearErr hides the visible error.
func (l *List[T]) ClearErr() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.err = nil
}

// Close drops every result that arrives from now on.
func (l *List[T]) Close() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.closed = true
}

// Closed reports whether Close was called.
func (l *List[T]) Closed() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.closed
}

// load runs fetch and, if still current, replaces the items with its result
// in server order. A failed fetch leaves the items untouched.
func (l *List[T]) load(ctx context.Context, fetch func(context.Context) ([]T, error)) error {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return ErrClosed
	}
	l.gen++
	gen := l.gen
	l.mu.Unlock()

	items, err := fetch(ctx)

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed || gen != l.gen {
		return err
	}
	if err != nil {
		l.err = err
		return err
	}
	if items == nil {
		items = []T{}
	}
	l.items = slices.Clone(items)
	l.err = nil
	l.loaded = true
	return nil
}

// begin marks action on row id as outstanding. The returned func must be
// called when the action finishes, whatever its outcome.
func (l *List[T]) begin(id int64, action string) (func(), error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return nil, ErrClosed
	}
	key := rowKey{id, action}
	if _, busy := l.inFlight[key]; busy {
		return nil, errors.ErrInFlight
	}
	l.inFlight[key] = struct{}{}
	return func() {
		l.mu.Lock()
		delete(l.inFlight, key)
		l.mu.Unlock()
	}, nil
}

// fail records err as the visible error.
func (l *List[T]) fail(err error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.closed {
		l.err = err
	}
}

// prepend inserts item at the head of the list.
func (l *List[T]) prepend(item T) {
	l.mutate(func(items []T) []T {
		return append([]T{item}, items...)
	})
}

// replace swaps the item with id for item.
func (l *List[T]) replace(id int64, fn func(T) T) {
	l.mutate(func(items []T) []T {
		if i := l.index(id); i >= 0 {
			items[i] = fn(items[i])
		}
		return items
	})
}

// remove drops the item with id.
func (l *List[T]) remove(id int64) {
	l.mutate(func(items []T) []T {
		return slices.DeleteFunc(items, func(it T) bool { return l.idOf(it) == id })
	})
}

// mutate applies a local change and invalidates loads started before it.
func (l *List[T]) mutate(fn func([]T) []T) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return
	}
	l.gen++
	l.items = fn(l.items)
	l.err = nil
}

func (l *List[T]) index(id int64) int {
	return slices.IndexFunc(l.items, func(it T) bool { return l.idOf(it) == id })
}
