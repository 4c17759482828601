// Copyright (c) Peter Newcomb. All rights reserved.
// Licensed under the MIT License.

// Package timerp pools timers for short blocking waits such as dequeue
// timeouts and pacing delays, which are otherwise allocated on every call.
package timerp

import (
	"context"
	"sync"
	"time"
)

// This implementation relies on [Go 1.23+ behavior]: Stop and Reset guarantee
// that no stale value is received from C afterwards, so a pooled timer can be
// handed out again without draining its channel.
//
// [Go 1.23+ behavior]: https://pkg.go.dev/time#NewTimer
var pool = sync.Pool{
	New: func() any {
		t := time.NewTimer(time.Hour)
		t.Stop()
		return t
	},
}

// Get returns a timer that fires after d.
func Get(d time.Duration) *time.Timer {
	t := pool.Get().(*time.Timer)
	t.Reset(d)
	return t
}

// Put stops t and returns it to the pool. t must not be used afterwards.
func Put(t *time.Timer) {
	t.Stop()
	pool.Put(t)
}

// Sleep pauses for d or until ctx ends, whichever comes first, and returns
// ctx.Err() in the latter case. A non-positive d returns immediately.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := Get(d)
	defer Put(t)
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
