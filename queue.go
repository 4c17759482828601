// Copyright (c) Peter Newcomb. All rights reserved.
// Licensed under the MIT License.

package pcq

import (
	"context"
	"sync"
	"time"

	"github.com/gammazero/deque"
	"github.com/petenewcomb/pcq-go/internal/timerp"
	"github.com/petenewcomb/pcq-go/internal/waitq"
)

// Status tags the outcome of [Queue.Dequeue].
type Status int

const (
	// StatusDequeued means an item was removed from the queue.
	StatusDequeued Status = iota
	// StatusTimedOut means nothing was available before the timeout. More
	// items may still arrive.
	StatusTimedOut
	// StatusClosedAndDrained means the queue is closed and empty. No item
	// will ever be available again.
	StatusClosedAndDrained
)

func (s Status) String() string {
	switch s {
	case StatusDequeued:
		return "dequeued"
	case StatusTimedOut:
		return "timed out"
	case StatusClosedAndDrained:
		return "closed and drained"
	default:
		return "unknown status"
	}
}

// Result is the tagged outcome of [Queue.Dequeue]. Item and Ordinal are only
// meaningful when Status is [StatusDequeued].
type Result[T any] struct {
	Status Status
	Item   Item[T]
	// Ordinal is the 1-based position of this dequeue among all successful
	// dequeues from the queue.
	Ordinal uint64
}

// Queue is a FIFO of items shared by any number of producers and consumers,
// optionally bounded.
//
// A full bounded queue blocks producers in [Queue.Enqueue] until a consumer
// makes room; it never drops items. Once [Queue.Close] is called no more items
// are accepted, but items already queued are still handed out until the queue
// is drained, and only then does [Queue.Dequeue] report
// [StatusClosedAndDrained].
//
// Items from one producer leave the queue in the order that producer enqueued
// them. No order is defined between items from different producers.
//
// A Queue must be created with [NewQueue].
type Queue[T any] struct {
	capacity int
	tracker  *Tracker

	mu        sync.Mutex
	items     deque.Deque[Item[T]]
	closed    bool
	closedCh  chan struct{}
	dequeued  uint64
	highWater int

	notEmpty waitq.Queue // consumers waiting for an item
	notFull  waitq.Queue // producers waiting for room
}

// NewQueue creates a queue holding at most capacity items, or an unbounded
// queue if capacity is zero. Every successful enqueue is counted in tracker.
//
// Panics if capacity is negative or tracker is nil.
func NewQueue[T any](capacity int, tracker *Tracker) *Queue[T] {
	if capacity < 0 {
		panic("capacity must be non-negative")
	}
	if tracker == nil {
		panic("tracker must be non-nil")
	}
	q := &Queue[T]{
		capacity: capacity,
		tracker:  tracker,
		closedCh: make(chan struct{}),
	}
	if capacity > 0 {
		q.items.Grow(capacity)
	}
	return q
}

// Tracker returns the completion tracker that counts this queue's items.
func (q *Queue[T]) Tracker() *Tracker {
	return q.tracker
}

// Cap returns the queue's capacity, zero meaning unbounded.
func (q *Queue[T]) Cap() int {
	return q.capacity
}

// Len returns the number of items currently queued.
func (q *Queue[T]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.items.Len()
}

// HighWater returns the largest number of items the queue has held at once.
func (q *Queue[T]) HighWater() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.highWater
}

// Closed reports whether [Queue.Close] has been called.
func (q *Queue[T]) Closed() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.closed
}

// Enqueue appends item to the queue, blocking while the queue is full.
//
// Returns [ErrQueueClosed] if the queue is closed, including when it is closed
// while Enqueue is blocked. Returns ctx.Err() if ctx ends first. In both cases
// the item was not enqueued.
func (q *Queue[T]) Enqueue(ctx context.Context, item Item[T]) error {
	for {
		q.mu.Lock()
		if q.closed {
			q.mu.Unlock()
			return ErrQueueClosed
		}
		if q.capacity == 0 || q.items.Len() < q.capacity {
			q.push(item)
			q.mu.Unlock()
			return nil
		}
		// Register before releasing the lock so that a dequeue between here
		// and the select below cannot be missed.
		w := q.notFull.Add()
		q.mu.Unlock()

		select {
		case <-w.Done():
		case <-q.closedCh:
		case <-ctx.Done():
			w.Close()
			return ctx.Err()
		}
		w.Close()
	}
}

// push must be called with q.mu held.
func (q *Queue[T]) push(item Item[T]) {
	q.items.PushBack(item)
	q.tracker.add()
	n := q.items.Len()
	if q.capacity > 0 && n > q.capacity {
		panic("capacity exceeded")
	}
	q.highWater = max(q.highWater, n)
	q.notEmpty.Notify()
}

// Dequeue removes the item at the front of the queue, waiting up to timeout
// for one to arrive. A non-positive timeout does not wait.
//
// The result distinguishes an item ([StatusDequeued]), a queue that is empty
// for now ([StatusTimedOut]), and a queue that is closed and empty
// ([StatusClosedAndDrained]); the last is reported as soon as it holds,
// without waiting for the timeout. The returned error is non-nil only when ctx
// ends first.
//
// The caller owns the returned item and must call MarkProcessed on the
// queue's [Tracker] once it has been handled.
func (q *Queue[T]) Dequeue(ctx context.Context, timeout time.Duration) (Result[T], error) {
	var timer *time.Timer
	for {
		q.mu.Lock()
		if q.items.Len() > 0 {
			item := q.items.PopFront()
			q.dequeued++
			ordinal := q.dequeued
			q.notFull.Notify()
			q.mu.Unlock()
			return Result[T]{Status: StatusDequeued, Item: item, Ordinal: ordinal}, nil
		}
		if q.closed {
			q.mu.Unlock()
			return Result[T]{Status: StatusClosedAndDrained}, nil
		}
		if timeout <= 0 {
			q.mu.Unlock()
			return Result[T]{Status: StatusTimedOut}, nil
		}
		w := q.notEmpty.Add()
		q.mu.Unlock()

		if timer == nil {
			timer = timerp.Get(timeout)
			defer timerp.Put(timer)
		}

		select {
		case <-w.Done():
			w.Close()
		case <-q.closedCh:
			w.Close()
		case <-timer.C:
			w.Close()
			return Result[T]{Status: StatusTimedOut}, nil
		case <-ctx.Done():
			w.Close()
			return Result[T]{}, ctx.Err()
		}
	}
}

// Close stops the queue from accepting items and wakes every blocked producer
// and consumer. Calling Close more than once has no additional effect.
func (q *Queue[T]) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if !q.closed {
		q.closed = true
		close(q.closedCh)
	}
}
