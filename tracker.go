// Copyright (c) Peter Newcomb. All rights reserved.
// Licensed under the MIT License.

package pcq

import (
	"context"
	"sync"
)

// Tracker counts items that have been enqueued but not yet acknowledged with
// [Tracker.MarkProcessed], and lets callers wait for that count to reach zero.
//
// The count is only ever incremented by the [Queue] the tracker was passed to,
// inside the same critical section that appends the item, so no observer can
// see an item in the queue that is not yet counted.
//
// A Tracker must be created with [NewTracker].
type Tracker struct {
	mu      sync.Mutex
	pending int64
	drained chan struct{} // closed while pending == 0
}

// NewTracker returns a tracker with nothing pending.
func NewTracker() *Tracker {
	t := &Tracker{drained: make(chan struct{})}
	close(t.drained)
	return t
}

func (t *Tracker) add() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.pending == 0 {
		t.drained = make(chan struct{})
	}
	t.pending++
	if t.pending < 0 {
		panic("overflow: too many items pending")
	}
}

// MarkProcessed acknowledges one dequeued item. When the last pending item is
// acknowledged, every goroutine blocked in [Tracker.Wait] is released.
//
// Panics if nothing is pending.
func (t *Tracker) MarkProcessed() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.pending == 0 {
		panic("underflow: there were no items pending")
	}
	t.pending--
	if t.pending == 0 {
		close(t.drained)
	}
}

// Pending returns the number of unacknowledged items.
func (t *Tracker) Pending() int64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.pending
}

// Drained returns a channel that is closed once nothing is pending. The
// channel returned while items are pending stays open until the count next
// drops to zero.
func (t *Tracker) Drained() <-chan struct{} {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.drained
}

// Wait blocks until nothing is pending or ctx ends.
//
// Wait only means "everything produced so far has been processed". Calling it
// before every producer has finished enqueuing can return early; the
// [Coordinator] avoids this by joining all producers first.
func (t *Tracker) Wait(ctx context.Context) error {
	drained := t.Drained()
	select {
	case <-drained:
		return nil
	default:
	}
	select {
	case <-drained:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
