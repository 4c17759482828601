// Copyright (c) Peter Newcomb. All rights reserved.
// Licensed under the MIT License.

// Package notify carries asynchronous notifications from workers to an
// independent reader, typically a display that polls for updates on its own
// schedule. Senders never block and never wait for the reader.
package notify

import (
	"context"
	"sync"

	"github.com/gammazero/deque"
)

// A Sink accepts notifications. Notify must not block and must be safe to call
// from multiple goroutines.
type Sink[T any] interface {
	Notify(T)
}

// SinkFunc adapts an ordinary function to the [Sink] interface. The function
// must itself honor the Sink contract.
type SinkFunc[T any] func(T)

func (f SinkFunc[T]) Notify(v T) {
	f(v)
}

// Mailbox is an unbounded FIFO [Sink]. The zero value is ready to use.
//
// Notifications sent after Close are discarded. Notifications sent before
// Close are still delivered by Drain and Next.
type Mailbox[T any] struct {
	mu     sync.Mutex
	items  deque.Deque[T]
	closed bool
	// ready has a buffer of one and holds a token whenever items may be
	// available or the mailbox has been closed.
	ready chan struct{}
}

func (m *Mailbox[T]) readyChan() chan struct{} {
	if m.ready == nil {
		m.ready = make(chan struct{}, 1)
	}
	return m.ready
}

func (m *Mailbox[T]) signal() {
	select {
	case m.readyChan() <- struct{}{}:
	default:
	}
}

// Notify appends v. Never blocks.
func (m *Mailbox[T]) Notify(v T) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return
	}
	m.items.PushBack(v)
	m.signal()
}

// Drain removes and returns everything currently queued without waiting.
// Returns nil if the mailbox is empty.
func (m *Mailbox[T]) Drain() []T {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := m.items.Len()
	if n == 0 {
		return nil
	}
	out := make([]T, 0, n)
	for m.items.Len() > 0 {
		out = append(out, m.items.PopFront())
	}
	return out
}

// Next removes and returns the oldest notification, waiting for one if
// necessary. It returns false once the mailbox is closed and empty, and
// ctx.Err() if ctx ends first.
func (m *Mailbox[T]) Next(ctx context.Context) (T, bool, error) {
	for {
		m.mu.Lock()
		if m.items.Len() > 0 {
			v := m.items.PopFront()
			if m.items.Len() > 0 || m.closed {
				// Leave a token for the next reader.
				m.signal()
			}
			m.mu.Unlock()
			return v, true, nil
		}
		if m.closed {
			m.signal()
			m.mu.Unlock()
			var zero T
			return zero, false, nil
		}
		ready := m.readyChan()
		m.mu.Unlock()

		select {
		case <-ready:
		case <-ctx.Done():
			var zero T
			return zero, false, ctx.Err()
		}
	}
}

// Len returns the number of queued notifications.
func (m *Mailbox[T]) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.items.Len()
}

// Close stops accepting notifications and releases readers blocked in Next
// once the backlog is drained.
func (m *Mailbox[T]) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	m.signal()
}
