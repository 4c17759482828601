// Copyright (c) Peter Newcomb. All rights reserved.
// Licensed under the MIT License.

// Package state holds small lock-free building blocks for publishing state to
// concurrent observers.
package state

import (
	"context"
	"sync/atomic"
)

// DynamicValue holds a value that observers can read together with a channel
// that is closed on the next Store. The zero value holds the zero T.
type DynamicValue[T any] struct {
	current atomic.Pointer[dvState[T]]
}

type dvState[T any] struct {
	value   T
	changed chan struct{}
}

// Load returns the current value and a channel that is closed when the value
// is next replaced.
func (dv *DynamicValue[T]) Load() (T, <-chan struct{}) {
	s := dv.current.Load()
	if s == nil {
		var zero T
		s = &dvState[T]{value: zero, changed: make(chan struct{})}
		if !dv.current.CompareAndSwap(nil, s) {
			s = dv.current.Load()
		}
	}
	return s.value, s.changed
}

// Store replaces the value and wakes everyone holding a channel from an
// earlier Load.
func (dv *DynamicValue[T]) Store(v T) {
	old := dv.current.Swap(&dvState[T]{value: v, changed: make(chan struct{})})
	if old != nil {
		close(old.changed)
	}
}

// WaitFor blocks until the value satisfies pred or ctx ends, and returns the
// value that satisfied it.
func (dv *DynamicValue[T]) WaitFor(ctx context.Context, pred func(T) bool) (T, error) {
	for {
		v, changed := dv.Load()
		if pred(v) {
			return v, nil
		}
		select {
		case <-changed:
		case <-ctx.Done():
			return v, ctx.Err()
		}
	}
}
