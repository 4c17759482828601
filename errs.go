// Copyright (c) Peter Newcomb. All rights reserved.
// Licensed under the MIT License.

package pcq

import "fmt"

type constError string

func (e constError) Error() string {
	return string(e)
}

// ErrQueueClosed is returned by [Queue.Enqueue] once the queue has been
// closed.
const ErrQueueClosed = constError("queue closed")

// ErrRunStarted is returned by [Coordinator.Run] when the coordinator has
// already been run.
const ErrRunStarted = constError("coordinator already started")

// Invariants reported through [InvariantError].
const (
	InvariantEnqueueBeforeClose = "no enqueue after close"
)

// InvariantError reports a sequencing bug detected by a producer or consumer.
// It aborts the run and is never retried.
type InvariantError struct {
	Role      Role
	TaskID    int
	Invariant string
	Err       error
}

func (e *InvariantError) Error() string {
	return fmt.Sprintf("%v %d violated invariant %q: %v", e.Role, e.TaskID, e.Invariant, e.Err)
}

func (e *InvariantError) Unwrap() error {
	return e.Err
}
