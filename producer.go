// Copyright (c) Peter Newcomb. All rights reserved.
// Licensed under the MIT License.

package pcq

import (
	"context"
	"errors"
	"time"

	"github.com/petenewcomb/pcq-go/internal/timerp"
)

// A Producer enqueues a fixed number of items, pausing before each one.
type Producer[T any] struct {
	ID    int
	Count int
	// Pacer supplies the delay before each enqueue. Nil means no delay.
	Pacer Pacer
	// Payload builds each item's payload. Nil leaves payloads zero.
	Payload func(producerID, sequence int) T
	Tracer  Tracer
}

// Run enqueues p.Count items with sequence numbers 0 through p.Count-1, in
// order, blocking whenever q is full. It returns nil once all are enqueued. It
// never closes q.
//
// If q is closed before all items are enqueued, Run returns an
// [*InvariantError] wrapping [ErrQueueClosed]: a queue must only be closed
// after every producer has finished. If ctx ends first, Run returns ctx.Err().
func (p *Producer[T]) Run(ctx context.Context, q *Queue[T]) error {
	if q == nil {
		panic("queue must be non-nil")
	}
	for seq := range p.Count {
		if p.Pacer != nil {
			if err := timerp.Sleep(ctx, p.Pacer()); err != nil {
				return err
			}
		}

		var payload T
		if p.Payload != nil {
			payload = p.Payload(p.ID, seq)
		}
		item := NewItem(p.ID, seq, payload)

		if err := q.Enqueue(ctx, item); err != nil {
			if errors.Is(err, ErrQueueClosed) {
				return &InvariantError{
					Role:      RoleProducer,
					TaskID:    p.ID,
					Invariant: InvariantEnqueueBeforeClose,
					Err:       err,
				}
			}
			return err
		}

		trace(ctx, p.Tracer, Event{
			Kind:   EventProduced,
			Role:   RoleProducer,
			TaskID: p.ID,
			Item:   item.ID(),
			Time:   time.Now(),
		})
	}
	return nil
}
