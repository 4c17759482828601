// Copyright (c) Peter Newcomb. All rights reserved.
// Licensed under the MIT License.

package pcq

import (
	"context"
	"time"

	"github.com/petenewcomb/pcq-go/internal/timerp"
)

// A Consumer takes items from a queue and processes them until the queue is
// closed and drained.
type Consumer[T any] struct {
	ID int
	// Pacer supplies the delay before processing each item. Nil means no
	// delay.
	Pacer Pacer
	// Timeout bounds each wait for an item. Zero means
	// DefaultDequeueTimeout.
	Timeout time.Duration
	// Process handles an item. Nil discards items.
	Process func(ctx context.Context, item Item[T])
	Tracer  Tracer
}

// Run processes items from q until q reports [StatusClosedAndDrained], then
// returns nil. A dequeue timeout only means nothing is available yet; Run
// checks ctx and waits again. Each processed item is acknowledged with
// MarkProcessed on q's [Tracker].
//
// Returns ctx.Err() if ctx ends. An item dequeued but not yet processed at
// that point is left unacknowledged.
func (c *Consumer[T]) Run(ctx context.Context, q *Queue[T]) error {
	if q == nil {
		panic("queue must be non-nil")
	}
	timeout := c.Timeout
	if timeout <= 0 {
		timeout = DefaultDequeueTimeout
	}
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		res, err := q.Dequeue(ctx, timeout)
		if err != nil {
			return err
		}
		switch res.Status {
		case StatusTimedOut:
			continue
		case StatusClosedAndDrained:
			return nil
		}

		if c.Pacer != nil {
			if err := timerp.Sleep(ctx, c.Pacer()); err != nil {
				return err
			}
		}
		if c.Process != nil {
			c.Process(ctx, res.Item)
		}
		now := time.Now()
		trace(ctx, c.Tracer, Event{
			Kind:    EventConsumed,
			Role:    RoleConsumer,
			TaskID:  c.ID,
			Item:    res.Item.ID(),
			Ordinal: res.Ordinal,
			Latency: now.Sub(res.Item.Created),
			Time:    now,
		})
		q.Tracker().MarkProcessed()
	}
}
