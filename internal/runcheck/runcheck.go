// Copyright (c) Peter Newcomb. All rights reserved.
// Licensed under the MIT License.

// Package runcheck records the trace of a run and checks it against the
// guarantees every completed run must satisfy.
package runcheck

import (
	"cmp"
	"context"
	"sync"

	"github.com/addrummond/heap"
	"github.com/petenewcomb/pcq-go"
	"github.com/stretchr/testify/require"
)

// Recorder is a [pcq.Tracer] that keeps every event. The zero value is ready
// to use.
type Recorder struct {
	mu     sync.Mutex
	events []pcq.Event
}

func (r *Recorder) Trace(ctx context.Context, ev pcq.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

// Events returns a copy of the events recorded so far, in arrival order.
func (r *Recorder) Events() []pcq.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]pcq.Event(nil), r.events...)
}

// Count returns the number of recorded events of the given kind.
func (r *Recorder) Count(kind pcq.EventKind) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, ev := range r.events {
		if ev.Kind == kind {
			n++
		}
	}
	return n
}

// Verify checks that the recorded trace is that of a completed run of cfg:
//   - every item that should have been produced was produced exactly once,
//   - every produced item was consumed exactly once and nothing else was,
//   - items from each producer were dequeued in the order they were produced,
//   - the run completed exactly once with a matching summary.
func (r *Recorder) Verify(t require.TestingT, cfg pcq.Config) {
	chk := require.New(t)
	events := r.Events()

	expected := cfg.ProducerCount * cfg.ItemsPerProducer
	produced := make(map[pcq.ItemID]int, expected)
	consumed := make(map[pcq.ItemID]int, expected)
	var byOrdinal heap.Heap[consumedEvent, heap.Min]
	var complete []pcq.Event

	for _, ev := range events {
		switch ev.Kind {
		case pcq.EventProduced:
			chk.Equal(pcq.RoleProducer, ev.Role)
			chk.Equal(ev.TaskID, ev.Item.ProducerID)
			produced[ev.Item]++
		case pcq.EventConsumed:
			chk.Equal(pcq.RoleConsumer, ev.Role)
			chk.Positive(ev.Ordinal)
			consumed[ev.Item]++
			heap.PushOrderable(&byOrdinal, consumedEvent{Ordinal: ev.Ordinal, Item: ev.Item})
		case pcq.EventComplete:
			complete = append(complete, ev)
		case pcq.EventAborted:
			chk.Failf("run aborted", "%v", ev.Err)
		}
	}

	chk.Len(produced, expected)
	for p := range cfg.ProducerCount {
		for s := range cfg.ItemsPerProducer {
			id := pcq.ItemID{ProducerID: p, Sequence: s}
			chk.Equal(1, produced[id], "%v produced", id)
			chk.Equal(1, consumed[id], "%v consumed", id)
		}
	}
	chk.Len(consumed, expected)

	lastSeq := make(map[int]int, cfg.ProducerCount)
	var lastOrdinal uint64
	for {
		ce, ok := heap.PopOrderable(&byOrdinal)
		if !ok {
			break
		}
		chk.Greater(ce.Ordinal, lastOrdinal, "ordinals must be unique")
		lastOrdinal = ce.Ordinal
		if prev, ok := lastSeq[ce.Item.ProducerID]; ok {
			chk.Greater(ce.Item.Sequence, prev, "%v dequeued out of order", ce.Item)
		}
		lastSeq[ce.Item.ProducerID] = ce.Item.Sequence
	}

	chk.Len(complete, 1)
	s := complete[0].Summary
	chk.NotNil(s)
	chk.Equal(int64(expected), s.Produced)
	chk.Equal(int64(expected), s.Consumed)
	chk.Zero(s.Pending)
	if cfg.Capacity > 0 {
		chk.LessOrEqual(s.HighWater, cfg.Capacity)
	}
}

type consumedEvent struct {
	Ordinal uint64
	Item    pcq.ItemID
}

func (a *consumedEvent) Cmp(b *consumedEvent) int {
	return cmp.Compare(a.Ordinal, b.Ordinal)
}
