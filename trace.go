// Copyright (c) Peter Newcomb. All rights reserved.
// Licensed under the MIT License.

package pcq

import (
	"context"
	"time"
)

// Role identifies the kind of task that emitted an [Event].
type Role int

const (
	RoleCoordinator Role = iota
	RoleProducer
	RoleConsumer
)

func (r Role) String() string {
	switch r {
	case RoleCoordinator:
		return "coordinator"
	case RoleProducer:
		return "producer"
	case RoleConsumer:
		return "consumer"
	default:
		return "unknown role"
	}
}

// EventKind says what an [Event] reports.
type EventKind int

const (
	// EventProduced is emitted by a producer after each successful enqueue.
	EventProduced EventKind = iota
	// EventConsumed is emitted by a consumer after processing each item and
	// before acknowledging it.
	EventConsumed
	// EventComplete is emitted once by the coordinator when every produced
	// item has been processed and every task has exited.
	EventComplete
	// EventAborted is emitted once by the coordinator when a run ends
	// without completing.
	EventAborted
)

func (k EventKind) String() string {
	switch k {
	case EventProduced:
		return "produced"
	case EventConsumed:
		return "consumed"
	case EventComplete:
		return "complete"
	case EventAborted:
		return "aborted"
	default:
		return "unknown event"
	}
}

// Event is one line of a run's trace.
type Event struct {
	Kind EventKind
	Role Role
	// TaskID is the producer or consumer id. Zero for coordinator events.
	TaskID int
	// Item is set for EventProduced and EventConsumed.
	Item ItemID
	// Ordinal is the item's dequeue position, set for EventConsumed.
	Ordinal uint64
	// Latency is the time from item creation to the end of its processing,
	// set for EventConsumed.
	Latency time.Duration
	Time    time.Time
	// Summary is set for EventComplete and EventAborted.
	Summary *Summary
	// Err is the abort cause, set for EventAborted.
	Err error
}

// A Tracer receives a run's trace events. Trace is called concurrently from
// every producer and consumer and must be thread-safe. It should return
// quickly, since producers and consumers are held up while it runs.
//
// Events from different tasks arrive in no particular order. In particular an
// item's EventConsumed may arrive before its EventProduced, since the producer
// reports only after the enqueue has made the item visible to consumers. Use
// [Event.Ordinal] to order consumed items.
type Tracer interface {
	Trace(ctx context.Context, ev Event)
}

// TracerFunc adapts an ordinary function to the [Tracer] interface.
type TracerFunc func(ctx context.Context, ev Event)

func (f TracerFunc) Trace(ctx context.Context, ev Event) {
	f(ctx, ev)
}

// MultiTracer returns a tracer that forwards each event to every non-nil
// tracer in order.
func MultiTracer(tracers ...Tracer) Tracer {
	var ts []Tracer
	for _, t := range tracers {
		if t != nil {
			ts = append(ts, t)
		}
	}
	return TracerFunc(func(ctx context.Context, ev Event) {
		for _, t := range ts {
			t.Trace(ctx, ev)
		}
	})
}

func trace(ctx context.Context, t Tracer, ev Event) {
	if t != nil {
		t.Trace(ctx, ev)
	}
}
