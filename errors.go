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

import "errors"

// Error taxonomy for this package (spec.md §7). These are sentinel
// values, not a custom error type: callers compare with errors.Is the
// way the rest of this small package favors plain comparable values
// over wrapped error hierarchies.
var (
	// ErrBusy is returned by TryLock when the lock could not be
	// acquired immediately.
	ErrBusy = errors.New("adamutex: lock is held")

	// ErrInvalidArgument is returned by Cond.Wait/WaitTimeout when the
	// condition variable is already bound to a different mutex.
	ErrInvalidArgument = errors.New("adamutex: condition variable already bound to a different mutex")

	// ErrTimedOut is returned by Cond.WaitTimeout when the deadline
	// passes without a signal or broadcast.
	ErrTimedOut = errors.New("adamutex: wait deadline exceeded")

	// ErrUnsupported is returned by Mutex.TimedLock. The original
	// source declares timedlock but never implements it, returning
	// success without blocking; spec.md §9 calls that out as a latent
	// bug and asks re-implementers to choose between an explicit
	// unsupported error or a real bounded wait. This package chooses
	// the former: nothing in this spec's scope needs a blocking
	// acquire with a timeout, only Cond.WaitTimeout does, and that's
	// implemented for real.
	ErrUnsupported = errors.New("adamutex: TimedLock is not implemented")
)
