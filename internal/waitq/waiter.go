// Copyright (c) Peter Newcomb. All rights reserved.
// Licensed under the MIT License.

package waitq

// A Waiter is one registration in a [Queue]. Its notification channel has a
// buffer of one. Notify removes the waiter from the queue in the same step that
// fills the buffer, so Close can tell what happened:
//
//   - Still queued: the waiter was never signaled. Close withdraws it, so
//     waiters that time out or are cancelled do not accumulate.
//   - Not queued and the buffer is empty: the owner received the signal.
//   - Not queued and the buffer is full: the owner stopped waiting without
//     receiving. Close forwards the signal to the next waiter so that it is
//     not lost.
//
// Every Waiter returned by [Queue.Add] must be closed. Closing it again has no
// effect. The zero Waiter never fires and must not be closed.
type Waiter struct {
	q          *Queue
	notifyChan chan struct{}
}

// Done returns the channel that receives the waiter's signal.
func (w Waiter) Done() <-chan struct{} {
	return w.notifyChan
}

// Close ends the registration.
func (w Waiter) Close() {
	q := w.q
	q.mu.Lock()
	defer q.mu.Unlock()
	if i := q.waiters.Index(w.is); i >= 0 {
		q.waiters.Remove(i)
		return
	}
	select {
	case <-w.notifyChan:
		// Signaled but never received; pass it on.
		q.notifyLocked()
	default:
	}
}

func (w Waiter) is(other Waiter) bool {
	return other.notifyChan == w.notifyChan
}
