package refresh

import (
	"context"
	"sync"
)

// List is a mutex-guarded slice shown to the user.
type List[T any] struct {
	mu    sync.Mutex
	items []T
}

// NewList creates a list holding a copy of items.
func NewList[T any](items []T) *List[T] {
	return &List[T]{items: clone(items)}
}

// Snapshot returns a copy of the current items.
func (l *List[T]) Snapshot() []T {
	l.mu.Lock()
	defer l.mu.Unlock()
	return clone(l.items)
}

// Replace swaps in a copy of items.
func (l *List[T]) Replace(items []T) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.items = clone(items)
}

// Len returns the number of items.
func (l *List[T]) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.items)
}

// WithOptimisticTransition applies apply to list immediately, then runs
// transition. If transition fails the list is restored to exactly what it
// held before apply and the error is returned.
func WithOptimisticTransition[T any](ctx context.Context, list *List[T], apply func([]T) []T, transition func(ctx context.Context) error) error {
	list.mu.Lock()
	prior := clone(list.items)
	list.items = apply(clone(prior))
	list.mu.Unlock()

	if err := transition(ctx); err != nil {
		list.mu.Lock()
		list.items = prior
		list.mu.Unlock()
		return err
	}
	return nil
}

func clone[T any](items []T) []T {
	if items == nil {
		return nil
	}
	out := make([]T, len(items))
	copy(out, items)
	return out
}
