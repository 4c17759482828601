// Copyright (c) Peter Newcomb. All rights reserved.
// Licensed under the MIT License.

// Package waitq provides a FIFO of goroutines waiting for a condition that
// another goroutine will signal one waiter at a time. Unlike sync.Cond, a
// waiter receives its signal on a channel, so it can select on it together
// with a timer or a context.
package waitq

import (
	"sync"

	"github.com/gammazero/deque"
)

// Queue holds registered waiters in arrival order. The zero value is ready to
// use.
type Queue struct {
	mu      sync.Mutex
	waiters deque.Deque[Waiter]
}

// Add registers a new waiter at the back of the queue. Never blocks.
//
// Callers typically call Add while holding the lock that protects the
// condition being waited for, so that a signal sent after the lock is
// released cannot be missed.
func (q *Queue) Add() Waiter {
	w := Waiter{
		q:          q,
		notifyChan: make(chan struct{}, 1),
	}
	q.mu.Lock()
	q.waiters.PushBack(w)
	q.mu.Unlock()
	return w
}

// Notify signals the waiter at the front of the queue and removes it. Does
// nothing if no waiter is queued.
func (q *Queue) Notify() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.notifyLocked()
}

func (q *Queue) notifyLocked() {
	if q.waiters.Len() > 0 {
		// Only Notify fills the buffer of a queued waiter, so this never
		// blocks.
		q.waiters.PopFront().notifyChan <- struct{}{}
	}
}

// Len returns the number of waiters that are registered and not yet signaled.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.waiters.Len()
}
