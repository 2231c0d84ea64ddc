// Package refresh keeps device-side views of server data current: coalesced
// reloads, optimistic edits with rollback, and retry classification.
package refresh

import (
	"context"
	"sync"
)

// Refresher holds the latest loaded value of T.
//
// Only one load runs at a time; Trigger calls made while a load is in flight
// return immediately. Every load and every local Set takes a generation
// number, and a result is applied only if nothing newer has been applied.
// A load that started before the last Invalidate is discarded and rerun.
type Refresher[T any] struct {
	load    func(ctx context.Context) (T, error)
	onApply func(T)

	mu          sync.Mutex
	inFlight    bool
	generation  uint64
	applied     uint64
	invalidated uint64
	value       T
	hasValue    bool
	lastErr     error
}

// WithRefresh creates a Refresher around load.
func WithRefresh[T any](load func(ctx context.Context) (T, error)) *Refresher[T] {
	return &Refresher[T]{load: load}
}

// OnApply registers fn to run each time a new value is applied. fn runs with
// the refresher locked and must not call back into it.
func (r *Refresher[T]) OnApply(fn func(T)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.onApply = fn
}

// Trigger runs a load unless one is already in flight. started is false for
// a coalesced call. A failed load keeps the previous value.
func (r *Refresher[T]) Trigger(ctx context.Context) (started bool, err error) {
	r.mu.Lock()
	if r.inFlight {
		r.mu.Unlock()
		return false, nil
	}
	r.inFlight = true
	r.mu.Unlock()

	for {
		r.mu.Lock()
		r.generation++
		gen := r.generation
		r.mu.Unlock()

		v, err := r.load(ctx)

		r.mu.Lock()
		if err == nil && gen < r.invalidated {
			r.mu.Unlock()
			continue
		}
		r.inFlight = false
		r.lastErr = err
		if err == nil {
			r.apply(gen, v)
		}
		r.mu.Unlock()
		return true, err
	}
}

// Invalidate marks the current value as outdated by a confirmed server-side
// change. A load already in flight is discarded and run again before its
// Trigger returns.
func (r *Refresher[T]) Invalidate() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.generation++
	r.invalidated = r.generation
}

// IsRefreshing reports whether a load is in flight.
func (r *Refresher[T]) IsRefreshing() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.inFlight
}

// Value returns the last applied value; ok is false before the first one.
func (r *Refresher[T]) Value() (T, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.value, r.hasValue
}

// Err returns the error of the most recent completed load.
func (r *Refresher[T]) Err() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lastErr
}

// Set applies a locally known value. A load already in flight was started
// before it and its result will be discarded.
func (r *Refresher[T]) Set(v T) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.generation++
	r.apply(r.generation, v)
}

func (r *Refresher[T]) apply(gen uint64, v T) {
	if gen <= r.applied {
		return
	}
	r.applied = gen
	r.value = v
	r.hasValue = true
	if r.onApply != nil {
		r.onApply(v)
	}
}
