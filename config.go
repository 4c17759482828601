// Copyright (c) Peter Newcomb. All rights reserved.
// Licensed under the MIT License.

package pcq

import (
	"errors"
	"fmt"
	"time"
)

// DefaultDequeueTimeout bounds each wait of a [Consumer] for an item when no
// timeout is configured. It only sets how often consumers check for
// cancellation; it never ends a consumer.
const DefaultDequeueTimeout = 2 * time.Second

// DefaultConfig is a run of four producers of twenty items each feeding five
// consumers through a queue of ten slots, with every production and
// consumption step taking between 100ms and 500ms.
var DefaultConfig = Config{
	ProducerCount:    4,
	ConsumerCount:    5,
	ItemsPerProducer: 20,
	Capacity:         10,
	ProductionDelay:  DelayRange{Min: 100 * time.Millisecond, Max: 500 * time.Millisecond},
	ConsumptionDelay: DelayRange{Min: 100 * time.Millisecond, Max: 500 * time.Millisecond},
	DequeueTimeout:   DefaultDequeueTimeout,
}

// Config describes a run. It is read but never modified by a [Coordinator].
type Config struct {
	ProducerCount    int
	ConsumerCount    int
	ItemsPerProducer int
	// Capacity bounds the queue; zero means unbounded.
	Capacity         int
	ProductionDelay  DelayRange
	ConsumptionDelay DelayRange
	// DequeueTimeout is how long a consumer waits for an item before checking
	// for cancellation and waiting again. Zero means DefaultDequeueTimeout.
	DequeueTimeout time.Duration
}

// DelayRange is an inclusive range of pacing delays.
type DelayRange struct {
	Min time.Duration
	Max time.Duration
}

func (r DelayRange) String() string {
	return fmt.Sprintf("[%v, %v]", r.Min, r.Max)
}

// Validate reports whether r is a usable range.
func (r DelayRange) Validate() error {
	if r.Min < 0 {
		return fmt.Errorf("delay range %v: minimum must be non-negative", r)
	}
	if r.Max < r.Min {
		return fmt.Errorf("delay range %v: maximum must not be less than minimum", r)
	}
	return nil
}

// Validate returns every constraint c violates, joined, or nil.
func (c Config) Validate() error {
	var errs []error
	if c.ProducerCount < 1 {
		errs = append(errs, fmt.Errorf("producer count %d: must be at least 1", c.ProducerCount))
	}
	if c.ConsumerCount < 1 {
		errs = append(errs, fmt.Errorf("consumer count %d: must be at least 1", c.ConsumerCount))
	}
	if c.ItemsPerProducer < 0 {
		errs = append(errs, fmt.Errorf("items per producer %d: must be non-negative", c.ItemsPerProducer))
	}
	if c.Capacity < 0 {
		errs = append(errs, fmt.Errorf("capacity %d: must be non-negative", c.Capacity))
	}
	if err := c.ProductionDelay.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("production %w", err))
	}
	if err := c.ConsumptionDelay.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("consumption %w", err))
	}
	if c.DequeueTimeout < 0 {
		errs = append(errs, fmt.Errorf("dequeue timeout %v: must be non-negative", c.DequeueTimeout))
	}
	return errors.Join(errs...)
}

func (c Config) dequeueTimeout() time.Duration {
	if c.DequeueTimeout > 0 {
		return c.DequeueTimeout
	}
	return DefaultDequeueTimeout
}
