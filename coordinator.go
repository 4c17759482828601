// Copyright (c) Peter Newcomb. All rights reserved.
// Licensed under the MIT License.

package pcq

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/petenewcomb/pcq-go/internal/state"
	"github.com/petenewcomb/pcq-go/notify"
	"golang.org/x/sync/errgroup"
)

// Stage is a [Coordinator]'s position in its lifecycle.
type Stage int

const (
	// StageIdle is the stage of a coordinator that has not been run.
	StageIdle Stage = iota
	// StageRunning means producers and consumers have been started.
	StageRunning
	// StageDraining means every producer has finished and the queue has been
	// closed; consumers are working through what is left.
	StageDraining
	// StageComplete means every produced item was processed and every task
	// has exited.
	StageComplete
	// StageAborted means the run ended early because of cancellation or an
	// invariant violation.
	StageAborted
)

func (s Stage) String() string {
	switch s {
	case StageIdle:
		return "idle"
	case StageRunning:
		return "running"
	case StageDraining:
		return "draining"
	case StageComplete:
		return "complete"
	case StageAborted:
		return "aborted"
	default:
		return "unknown stage"
	}
}

// Terminal reports whether s is StageComplete or StageAborted.
func (s Stage) Terminal() bool {
	return s == StageComplete || s == StageAborted
}

// Summary describes a finished run.
type Summary struct {
	Produced int64
	Consumed int64
	// Pending is the number of items enqueued but never acknowledged. Always
	// zero for a completed run.
	Pending   int64
	HighWater int
	Elapsed   time.Duration
}

func (s Summary) String() string {
	return fmt.Sprintf("produced=%d consumed=%d pending=%d high-water=%d elapsed=%v",
		s.Produced, s.Consumed, s.Pending, s.HighWater, s.Elapsed)
}

// Update is a progress notice sent to [Coordinator.Sink] on every stage
// change and after every produced or consumed item.
type Update struct {
	Stage    Stage
	Produced int64
	Consumed int64
	Time     time.Time
}

// Coordinator runs one set of producers and consumers over a shared queue and
// waits until everything produced has been processed.
//
// The exported fields configure the run and must not be changed once Run has
// been called. Only Config is required.
type Coordinator[T any] struct {
	Config Config
	// Payload builds the payload of each produced item. Nil leaves payloads
	// zero.
	Payload func(producerID, sequence int) T
	// Process handles each consumed item. Nil discards items.
	Process func(ctx context.Context, item Item[T])
	// ProductionPacer is shared by all producers. Nil means a uniform pacer
	// over Config.ProductionDelay.
	ProductionPacer Pacer
	// ConsumptionPacer is shared by all consumers. Nil means a uniform pacer
	// over Config.ConsumptionDelay.
	ConsumptionPacer Pacer
	Tracer           Tracer
	// Sink, if non-nil, receives progress notices. It must never block.
	Sink notify.Sink[Update]

	started  atomic.Bool
	stage    state.DynamicValue[Stage]
	produced atomic.Int64
	consumed atomic.Int64

	// publishMu orders stage changes and progress notices so that the sink
	// never sees a stage after its successor.
	publishMu sync.Mutex
}

// Stage returns the coordinator's current stage and a channel that is closed
// when the stage next changes.
func (c *Coordinator[T]) Stage() (Stage, <-chan struct{}) {
	return c.stage.Load()
}

// WaitStage blocks until the coordinator reaches a stage for which pred
// returns true, or ctx ends.
func (c *Coordinator[T]) WaitStage(ctx context.Context, pred func(Stage) bool) (Stage, error) {
	return c.stage.WaitFor(ctx, pred)
}

// Run performs the run described by c.Config and returns its summary.
//
// Run starts all consumers, then all producers, each in its own goroutine. Once
// every producer has finished it closes the queue, waits on the tracker until
// every produced item has been processed, and joins the consumers. Queue and
// tracker are private to the run and dropped when Run returns.
//
// If ctx ends or a task reports an invariant violation, every task is
// cancelled and joined and Run returns the cause along with a summary of what
// was done so far. An invalid Config is reported the same way, before any task
// starts. Run may only be called once; later calls return [ErrRunStarted].
func (c *Coordinator[T]) Run(ctx context.Context) (Summary, error) {
	if !c.started.CompareAndSwap(false, true) {
		return Summary{}, ErrRunStarted
	}
	start := time.Now()

	if err := c.Config.Validate(); err != nil {
		err = fmt.Errorf("invalid config: %w", err)
		summary := Summary{Elapsed: time.Since(start)}
		c.abort(ctx, summary, err)
		return summary, err
	}

	tracker := NewTracker()
	q := NewQueue[T](c.Config.Capacity, tracker)

	ctx, cancel := context.WithCancelCause(ctx)
	defer cancel(nil)

	tracer := c.runTracer()
	c.setStage(StageRunning)

	consumptionPacer := c.ConsumptionPacer
	if consumptionPacer == nil {
		consumptionPacer = UniformPacer(c.Config.ConsumptionDelay)
	}
	var consumers errgroup.Group
	for id := range c.Config.ConsumerCount {
		cons := &Consumer[T]{
			ID:      id,
			Pacer:   consumptionPacer,
			Timeout: c.Config.dequeueTimeout(),
			Process: c.Process,
			Tracer:  tracer,
		}
		consumers.Go(func() error {
			return cancelOnError(cancel, cons.Run(ctx, q))
		})
	}

	productionPacer := c.ProductionPacer
	if productionPacer == nil {
		productionPacer = UniformPacer(c.Config.ProductionDelay)
	}
	var producers errgroup.Group
	for id := range c.Config.ProducerCount {
		prod := &Producer[T]{
			ID:      id,
			Count:   c.Config.ItemsPerProducer,
			Pacer:   productionPacer,
			Payload: c.Payload,
			Tracer:  tracer,
		}
		producers.Go(func() error {
			return cancelOnError(cancel, prod.Run(ctx, q))
		})
	}

	err := producers.Wait()
	// Close even after a failure so that consumers stop waiting for items.
	q.Close()
	if err == nil {
		c.setStage(StageDraining)
		err = tracker.Wait(ctx)
	}
	if cerr := consumers.Wait(); err == nil {
		err = cerr
	}

	summary := Summary{
		Produced:  c.produced.Load(),
		Consumed:  c.consumed.Load(),
		Pending:   tracker.Pending(),
		HighWater: q.HighWater(),
		Elapsed:   time.Since(start),
	}
	if err != nil {
		if cause := context.Cause(ctx); cause != nil {
			err = cause
		}
		c.abort(ctx, summary, err)
		return summary, err
	}

	c.setStage(StageComplete)
	trace(ctx, c.Tracer, Event{
		Kind:    EventComplete,
		Role:    RoleCoordinator,
		Time:    time.Now(),
		Summary: &summary,
	})
	return summary, nil
}

func cancelOnError(cancel context.CancelCauseFunc, err error) error {
	if err != nil {
		cancel(err)
	}
	return err
}

func (c *Coordinator[T]) abort(ctx context.Context, summary Summary, err error) {
	c.setStage(StageAborted)
	trace(ctx, c.Tracer, Event{
		Kind:    EventAborted,
		Role:    RoleCoordinator,
		Time:    time.Now(),
		Summary: &summary,
		Err:     err,
	})
}

func (c *Coordinator[T]) setStage(s Stage) {
	c.publishMu.Lock()
	defer c.publishMu.Unlock()
	c.stage.Store(s)
	c.publishLocked(s)
}

func (c *Coordinator[T]) publishProgress() {
	if c.Sink == nil {
		return
	}
	c.publishMu.Lock()
	defer c.publishMu.Unlock()
	s, _ := c.stage.Load()
	c.publishLocked(s)
}

func (c *Coordinator[T]) publishLocked(s Stage) {
	if c.Sink == nil {
		return
	}
	c.Sink.Notify(Update{
		Stage:    s,
		Produced: c.produced.Load(),
		Consumed: c.consumed.Load(),
		Time:     time.Now(),
	})
}

// runTracer returns the tracer handed to producers and consumers. It keeps the
// coordinator's counters and progress notices current before forwarding each
// event to c.Tracer.
func (c *Coordinator[T]) runTracer() Tracer {
	return TracerFunc(func(ctx context.Context, ev Event) {
		switch ev.Kind {
		case EventProduced:
			c.produced.Add(1)
		case EventConsumed:
			c.consumed.Add(1)
		}
		trace(ctx, c.Tracer, ev)
		c.publishProgress()
	})
}
