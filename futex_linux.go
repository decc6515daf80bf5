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

//go:build linux && amd64

package adamutex

import (
	"time"
	"unsafe"

	"golang.org/x/sys/unix"
)

// Linux futex operation codes, private-futex variants only: spec.md's
// Non-goals rule out cross-process operation, so every call here carries
// FUTEX_PRIVATE_FLAG.
const (
	futexWaitPrivate    = 0 | futexPrivateFlag
	futexWakePrivate    = 1 | futexPrivateFlag
	futexRequeuePrivate = 3 | futexPrivateFlag
	futexPrivateFlag    = 128
)

// futexWait blocks the calling goroutine while *addr == expected, waking
// on any FUTEX_WAKE/FUTEX_REQUEUE targeting addr, on any change to *addr,
// or after timeout elapses (timeout == nil means wait forever). It never
// returns an error the caller needs to propagate: EAGAIN (value already
// changed), EINTR, and ETIMEDOUT are all folded into the normal "treat
// this as a spurious wake" control flow described in spec.md §4.2 and
// §7; only the caller's own re-check of *addr decides what happens next.
func futexWait(addr *uint32, expected uint32, timeout *time.Duration) {
	var ts *unix.Timespec
	if timeout != nil {
		t := unix.NsecToTimespec(timeout.Nanoseconds())
		ts = &t
	}
	_, _, _ = unix.Syscall6(
		unix.SYS_FUTEX,
		uintptr(unsafe.Pointer(addr)),
		uintptr(futexWaitPrivate),
		uintptr(expected),
		uintptr(unsafe.Pointer(ts)),
		0, 0,
	)
}

// futexWake wakes up to n waiters blocked on addr.
func futexWake(addr *uint32, n int32) {
	_, _, _ = unix.Syscall6(
		unix.SYS_FUTEX,
		uintptr(unsafe.Pointer(addr)),
		uintptr(futexWakePrivate),
		uintptr(n),
		0, 0, 0,
	)
}

// futexRequeue wakes up to wake waiters on addr, and moves up to requeue
// of the remainder onto target's wait queue without waking them. Used
// only by Cond.Broadcast: spec.md §4.4 calls for wake=1 and an
// effectively unbounded requeue cap.
func futexRequeue(addr *uint32, wake int32, requeue int32, target *uint32) {
	_, _, _ = unix.Syscall6(
		unix.SYS_FUTEX,
		uintptr(unsafe.Pointer(addr)),
		uintptr(futexRequeuePrivate),
		uintptr(wake),
		uintptr(requeue),
		uintptr(unsafe.Pointer(target)),
		0,
	)
}

// requeueAllCap is the platform "requeue all remaining waiters" sentinel
// passed as the cap argument to FUTEX_REQUEUE, resolving spec.md §9 open
// question (b): the kernel treats any value >= the true waiter count as
// "all of them," and INT_MAX is the canonical choice (it's what glibc's
// own pthread_cond_broadcast passes).
const requeueAllCap = int32(1<<31 - 1)
