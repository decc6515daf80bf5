// Copyright 2020 Nathan Taylor (nbtaylor@gmail.com)
//
// Permission is hereby granted, free of charge, to any person obtaining a copy of
// this software and associated documentation files (the "Software"), to deal in
// the Software without restriction, including without limitation the rights to
// use, copy, modify, merge, publish, distribute, sublicense, and/or sell copies
// of the Software, and to permit persons to whom the Software is furnished to do
// so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in all
// copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
// SOFTWARE.

package adamutex

import (
	"sync/atomic"
	"time"
)

// Cond is a futex sequence-number condition variable bound to at most
// one Mutex (spec.md §4.4). The zero value is ready to use; there is no
// constructor because Cond carries no field that needs anything other
// than its zero value (mirroring the original upmutex_cond1_t, whose
// UPMUTEX_COND1_INITIALIZER is all zeroes).
type Cond struct {
	// seq is the futex wait word: bumped on every Signal/Broadcast.
	seq uint32

	// mutex is the lazily-bound, then-immutable mutex this Cond's
	// waiters block on. Bound by the first successful Wait/WaitTimeout
	// via a CAS from nil.
	mutex atomic.Pointer[Mutex]
}

// Signal wakes at most one goroutine blocked in Wait/WaitTimeout on this
// Cond. It is legal (and a no-op beyond bumping seq) to call Signal when
// no goroutine is waiting.
func (c *Cond) Signal() {
	atomic.AddUint32(&c.seq, 1)
	futexWake(&c.seq, 1)
}

// Broadcast wakes every goroutine blocked in Wait/WaitTimeout on this
// Cond. Rather than waking every waiter directly -- which would cause
// all of them to pile onto the bound mutex at once -- it wakes exactly
// one and requeues the rest directly onto the mutex's futex word via
// FUTEX_REQUEUE (spec.md §4.4: "The wake-one + requeue-all pattern
// avoids a thundering herd on the mutex").
func (c *Cond) Broadcast() {
	m := c.mutex.Load()
	if m == nil {
		// No mutex bound means no waiter has ever called Wait: there
		// is nothing to wake.
		return
	}
	atomic.AddUint32(&c.seq, 1)
	futexRequeue(&c.seq, 1, requeueAllCap, &m.status)
}

// Wait atomically releases mutex and blocks until Signal or Broadcast is
// called, then reacquires mutex before returning. It returns
// ErrInvalidArgument if this Cond is already bound to a different
// mutex.
func (c *Cond) Wait(mutex *Mutex) error {
	return c.wait(mutex, nil)
}

// WaitTimeout behaves like Wait but returns ErrTimedOut if deadline
// passes before a Signal or Broadcast wakes this goroutine. The mutex is
// always reacquired before WaitTimeout returns, regardless of outcome,
// matching spec.md §4.4's timed wait.
func (c *Cond) WaitTimeout(mutex *Mutex, deadline time.Time) error {
	return c.wait(mutex, &deadline)
}

func (c *Cond) wait(mutex *Mutex, deadline *time.Time) error {
	if err := c.bind(mutex); err != nil {
		return err
	}

	seq := atomic.LoadUint32(&c.seq)
	mutex.Unlock()

	var timedOut bool
	if deadline == nil {
		futexWait(&c.seq, seq, nil)
	} else {
		remaining := time.Until(*deadline)
		if remaining <= 0 {
			timedOut = true
		} else {
			futexWait(&c.seq, seq, &remaining)
			if time.Until(*deadline) <= 0 {
				timedOut = true
			}
		}
	}

	mutex.sleepUntilAcquired()

	if timedOut {
		return ErrTimedOut
	}
	return nil
}

// bind enforces the first-waiter-wins permanent binding described in
// spec.md §4.4's "Contract on binding": once set, the mutex a Cond is
// bound to cannot change until the Cond is destroyed and reinitialized
// (for this package, until it is replaced by a fresh Cond{}).
func (c *Cond) bind(mutex *Mutex) error {
	if !c.mutex.CompareAndSwap(nil, mutex) && c.mutex.Load() != mutex {
		return ErrInvalidArgument
	}
	return nil
}
