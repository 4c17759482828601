// Copyright (c) Peter Newcomb. All rights reserved.
// Licensed under the MIT License.

// Package pcq provides a queue shared by many producers and many consumers,
// together with a completion barrier that tells a coordinator when every item
// produced has been fully processed.
//
// A [Queue] may be bounded, in which case producers wait for room instead of
// dropping items. Producers never close the queue; the [Coordinator] closes it
// once every producer has finished. Consumers keep taking items until the
// queue reports [StatusClosedAndDrained], so a producer that pauses for longer
// than a consumer's dequeue timeout never causes items to be left behind. A
// timeout only tells a consumer to check for cancellation and try again.
//
// Every enqueued item is counted by the queue's [Tracker] in the same step
// that makes it visible to consumers, and consumers acknowledge each item once
// it has been handled. [Tracker.Wait] therefore returns only when nothing
// produced is still outstanding.
//
// Delays between units of work are supplied by a [Pacer], which makes
// interleavings reproducible in tests. Progress is reported through a
// [Tracer]; the otpcq package adapts tracers to zap and OpenTelemetry.
package pcq
