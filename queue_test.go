// Copyright (c) Peter Newcomb. All rights reserved.
// Licensed under the MIT License.

package pcq_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/petenewcomb/pcq-go"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func newQueue(capacity int) *pcq.Queue[int] {
	return pcq.NewQueue[int](capacity, pcq.NewTracker())
}

func mustEnqueue(t require.TestingT, q *pcq.Queue[int], producerID, sequence int) {
	require.NoError(t, q.Enqueue(context.Background(), pcq.NewItem(producerID, sequence, sequence)))
}

func TestNewQueuePanics(t *testing.T) {
	chk := require.New(t)
	chk.PanicsWithValue("capacity must be non-negative", func() {
		pcq.NewQueue[int](-1, pcq.NewTracker())
	})
	chk.PanicsWithValue("tracker must be non-nil", func() {
		pcq.NewQueue[int](1, nil)
	})
}

func TestQueueFIFO(t *testing.T) {
	chk := require.New(t)
	ctx := context.Background()
	q := newQueue(3)
	chk.Equal(3, q.Cap())

	for i := range 3 {
		mustEnqueue(t, q, 0, i)
	}
	chk.Equal(3, q.Len())
	chk.Equal(int64(3), q.Tracker().Pending())

	for i := range 3 {
		res, err := q.Dequeue(ctx, 0)
		chk.NoError(err)
		chk.Equal(pcq.StatusDequeued, res.Status)
		chk.Equal(i, res.Item.Sequence)
		chk.Equal(i, res.Item.Payload)
		chk.Equal(uint64(i+1), res.Ordinal)
	}
	chk.Zero(q.Len())
	// Dequeue does not acknowledge.
	chk.Equal(int64(3), q.Tracker().Pending())
}

func TestQueueDequeueTimesOut(t *testing.T) {
	chk := require.New(t)
	q := newQueue(1)

	start := time.Now()
	res, err := q.Dequeue(context.Background(), 20*time.Millisecond)
	chk.NoError(err)
	chk.Equal(pcq.StatusTimedOut, res.Status)
	chk.GreaterOrEqual(time.Since(start), 20*time.Millisecond)
}

func TestQueueDequeuePollsWithoutTimeout(t *testing.T) {
	chk := require.New(t)
	q := newQueue(1)

	res, err := q.Dequeue(context.Background(), 0)
	chk.NoError(err)
	chk.Equal(pcq.StatusTimedOut, res.Status)
}

func TestQueueDrainsAfterClose(t *testing.T) {
	chk := require.New(t)
	ctx := context.Background()
	q := newQueue(0)

	mustEnqueue(t, q, 1, 0)
	mustEnqueue(t, q, 1, 1)
	q.Close()
	q.Close()
	chk.True(q.Closed())

	for i := range 2 {
		res, err := q.Dequeue(ctx, time.Hour)
		chk.NoError(err)
		chk.Equal(pcq.StatusDequeued, res.Status)
		chk.Equal(i, res.Item.Sequence)
	}

	start := time.Now()
	res, err := q.Dequeue(ctx, time.Hour)
	chk.NoError(err)
	chk.Equal(pcq.StatusClosedAndDrained, res.Status)
	chk.Less(time.Since(start), time.Second)
}

func TestQueueEnqueueAfterClose(t *testing.T) {
	chk := require.New(t)
	q := newQueue(2)
	q.Close()

	err := q.Enqueue(context.Background(), pcq.NewItem(0, 0, 0))
	chk.ErrorIs(err, pcq.ErrQueueClosed)
	chk.Zero(q.Len())
	chk.Zero(q.Tracker().Pending())
}

func TestQueueCloseWakesConsumer(t *testing.T) {
	chk := require.New(t)
	q := newQueue(1)

	done := make(chan pcq.Result[int])
	go func() {
		res, _ := q.Dequeue(context.Background(), time.Hour)
		done <- res
	}()

	time.Sleep(10 * time.Millisecond)
	q.Close()

	select {
	case res := <-done:
		chk.Equal(pcq.StatusClosedAndDrained, res.Status)
	case <-time.After(time.Second):
		chk.FailNow("consumer not woken by close")
	}
}

func TestQueueCloseWakesProducer(t *testing.T) {
	chk := require.New(t)
	q := newQueue(1)
	mustEnqueue(t, q, 0, 0)

	done := make(chan error)
	go func() {
		done <- q.Enqueue(context.Background(), pcq.NewItem(0, 1, 1))
	}()

	time.Sleep(10 * time.Millisecond)
	q.Close()

	select {
	case err := <-done:
		chk.ErrorIs(err, pcq.ErrQueueClosed)
	case <-time.After(time.Second):
		chk.FailNow("producer not woken by close")
	}
	chk.Equal(1, q.Len())
	chk.Equal(int64(1), q.Tracker().Pending())
}

func TestQueueEnqueueBlocksWhileFull(t *testing.T) {
	chk := require.New(t)
	q := newQueue(1)
	mustEnqueue(t, q, 0, 0)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := q.Enqueue(ctx, pcq.NewItem(0, 1, 1))
	chk.ErrorIs(err, context.DeadlineExceeded)
	chk.Equal(1, q.Len())
	chk.Equal(int64(1), q.Tracker().Pending())
}

func TestQueueDequeueUnblocksProducer(t *testing.T) {
	chk := require.New(t)
	ctx := context.Background()
	q := newQueue(1)
	mustEnqueue(t, q, 0, 0)

	done := make(chan error)
	go func() {
		done <- q.Enqueue(ctx, pcq.NewItem(0, 1, 1))
	}()

	time.Sleep(10 * time.Millisecond)
	res, err := q.Dequeue(ctx, 0)
	chk.NoError(err)
	chk.Equal(0, res.Item.Sequence)

	select {
	case err := <-done:
		chk.NoError(err)
	case <-time.After(time.Second):
		chk.FailNow("producer not woken by dequeue")
	}
	chk.Equal(1, q.Len())
	chk.Equal(1, q.HighWater())
}

func TestQueueDequeueContextCanceled(t *testing.T) {
	chk := require.New(t)
	q := newQueue(1)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()
	_, err := q.Dequeue(ctx, time.Hour)
	chk.ErrorIs(err, context.Canceled)
}

func TestQueueConcurrentNoLossNoDuplicates(t *testing.T) {
	chk := require.New(t)
	ctx := context.Background()
	const (
		producers = 8
		items     = 200
		consumers = 4
		capacity  = 3
	)
	q := newQueue(capacity)

	var mu sync.Mutex
	seen := make(map[pcq.ItemID]int)
	ordinals := make(map[pcq.ItemID]uint64)

	var cwg sync.WaitGroup
	for range consumers {
		cwg.Add(1)
		go func() {
			defer cwg.Done()
			for {
				res, err := q.Dequeue(ctx, 10*time.Millisecond)
				if err != nil || res.Status == pcq.StatusClosedAndDrained {
					return
				}
				if res.Status == pcq.StatusTimedOut {
					continue
				}
				mu.Lock()
				seen[res.Item.ID()]++
				ordinals[res.Item.ID()] = res.Ordinal
				mu.Unlock()
				q.Tracker().MarkProcessed()
			}
		}()
	}

	var pwg sync.WaitGroup
	for p := range producers {
		pwg.Add(1)
		go func() {
			defer pwg.Done()
			for s := range items {
				if err := q.Enqueue(ctx, pcq.NewItem(p, s, s)); err != nil {
					return
				}
			}
		}()
	}
	pwg.Wait()
	q.Close()
	chk.NoError(q.Tracker().Wait(ctx))
	cwg.Wait()

	chk.Len(seen, producers*items)
	for id, n := range seen {
		chk.Equal(1, n, "%v", id)
	}
	for p := range producers {
		for s := 1; s < items; s++ {
			prev := pcq.ItemID{ProducerID: p, Sequence: s - 1}
			cur := pcq.ItemID{ProducerID: p, Sequence: s}
			chk.Less(ordinals[prev], ordinals[cur], "%v dequeued before %v", cur, prev)
		}
	}
	chk.LessOrEqual(q.HighWater(), capacity)
	chk.Zero(q.Tracker().Pending())
}

// TestQueueWithRapid checks the queue against a slice model. Blocking is
// avoided by enqueuing with an already-canceled context, so a full queue
// reports cancellation instead of waiting.
func TestQueueWithRapid(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		capacity := rapid.IntRange(0, 5).Draw(t, "capacity")
		q := newQueue(capacity)
		canceled, cancel := context.WithCancel(context.Background())
		cancel()

		var model []int
		var closed bool
		var pending int64
		var highWater int
		var ordinal uint64
		next := 0

		t.Repeat(map[string]func(*rapid.T){
			"enqueue": func(t *rapid.T) {
				err := q.Enqueue(canceled, pcq.NewItem(0, next, next))
				switch {
				case closed:
					require.ErrorIs(t, err, pcq.ErrQueueClosed)
				case capacity > 0 && len(model) == capacity:
					require.ErrorIs(t, err, context.Canceled)
				default:
					require.NoError(t, err)
					model = append(model, next)
					pending++
					highWater = max(highWater, len(model))
					next++
				}
			},
			"dequeue": func(t *rapid.T) {
				res, err := q.Dequeue(context.Background(), 0)
				require.NoError(t, err)
				switch {
				case len(model) > 0:
					require.Equal(t, pcq.StatusDequeued, res.Status)
					require.Equal(t, model[0], res.Item.Sequence)
					ordinal++
					require.Equal(t, ordinal, res.Ordinal)
					model = model[1:]
				case closed:
					require.Equal(t, pcq.StatusClosedAndDrained, res.Status)
				default:
					require.Equal(t, pcq.StatusTimedOut, res.Status)
				}
			},
			"markProcessed": func(t *rapid.T) {
				// Only items already handed out may be acknowledged.
				if pending <= int64(len(model)) {
					t.Skip("nothing dequeued and unacknowledged")
				}
				q.Tracker().MarkProcessed()
				pending--
			},
			"close": func(t *rapid.T) {
				q.Close()
				closed = true
			},
			"": func(t *rapid.T) {
				require.Equal(t, len(model), q.Len())
				require.Equal(t, closed, q.Closed())
				require.Equal(t, pending, q.Tracker().Pending())
				require.Equal(t, highWater, q.HighWater())
				if capacity > 0 {
					require.LessOrEqual(t, q.Len(), capacity)
				}
			},
		})
	})
}
