// Copyright (c) Peter Newcomb. All rights reserved.
// Licensed under the MIT License.

package pcq

import (
	"math"
	"math/rand/v2"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"
)

// A Pacer returns the delay to apply before the next unit of work: before each
// enqueue for a [Producer], before processing each item for a [Consumer].
// Pacers shared between goroutines must be thread-safe; all pacers returned by
// this package are.
type Pacer func() time.Duration

// NoDelay returns a pacer that never delays.
func NoDelay() Pacer {
	return func() time.Duration { return 0 }
}

// FixedPacer returns a pacer that always delays by d.
func FixedPacer(d time.Duration) Pacer {
	return func() time.Duration { return d }
}

// UniformPacer returns a pacer drawing delays uniformly from [r.Min, r.Max].
//
// Panics if r is invalid (see [DelayRange.Validate]).
func UniformPacer(r DelayRange) Pacer {
	if err := r.Validate(); err != nil {
		panic(err.Error())
	}
	if r.Min == r.Max {
		return FixedPacer(r.Min)
	}
	span := r.Max - r.Min
	if span == math.MaxInt64 {
		// Min is zero and every non-negative duration is allowed.
		return func() time.Duration {
			return time.Duration(rand.Int64())
		}
	}
	return func() time.Duration {
		return r.Min + rand.N(span+1)
	}
}

// SequencePacer returns a pacer that yields ds in order and then starts over.
// An empty sequence never delays. Useful for reproducible interleavings in
// tests.
func SequencePacer(ds ...time.Duration) Pacer {
	if len(ds) == 0 {
		return NoDelay()
	}
	var next atomic.Uint64
	return func() time.Duration {
		i := next.Add(1) - 1
		return ds[i%uint64(len(ds))]
	}
}

// LimiterPacer returns a pacer that reserves one token from l per call and
// delays until that token is available, so that the paced tasks together
// stay within the limiter's rate.
func LimiterPacer(l *rate.Limiter) Pacer {
	if l == nil {
		panic("limiter must be non-nil")
	}
	return func() time.Duration {
		r := l.Reserve()
		if !r.OK() {
			// Burst is zero, so no token will ever be granted; don't stall
			// forever.
			return 0
		}
		return r.Delay()
	}
}
