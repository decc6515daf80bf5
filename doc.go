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

// Package adamutex implements a futex-backed mutex and condition variable
// that retrain their own spin budgets from observed contention.
//
// ## Overview
//
// A conventional futex-based mutex has to pick, once, how many iterations
// a thread should spin before falling back to the kernel wait. Pick too
// few and you pay a syscall on every handoff of a lock that's mostly
// uncontended; pick too many and you burn CPU spinning under a workload
// where the critical section is long and spinning never wins. The right
// number depends on the lock's own traffic pattern, and that pattern is
// not known in advance and can differ from one Mutex instance to the
// next in the same program.
//
// This package has each Mutex learn its own number. Every lock's acquire
// path starts in a "training" mode where its spin ceiling is pinned to a
// generous maximum, and its release path enters the same mode at its
// first slow release; while training, every acquire or slow release
// records whether spinning won and, if so, how many iterations it took.
// When a training path reaches its stride (2^13 acquires, 2^12 slow
// releases by default) a retrainer looks at the ratio of spins-that-won
// to total-events and installs a fresh ceiling: aggressive if spinning
// usually wins, minimal if it usually doesn't. The acquire path is
// retrained once and keeps the ceiling it is given; outside training,
// Lock does no counting. The acquire retrainer also puts the release
// path back into training, so the release ceiling is retrained again
// after the acquire ceiling changes.
//
// ## State machine
//
// The lock boils down to one 32-bit word split into a "locked" byte and
// a "contended" byte (see lockword.go). The fast paths never
// touch the kernel: Lock tries an 8-bit exchange on the locked byte,
// Unlock tries a single compare-and-swap of the whole word back to zero.
// The slow paths only run when the fast path observes the lock already
// held (on acquire) or observes the word in its "held and contended"
// shape (on release); they spin for a per-lock budget before falling
// back to FUTEX_WAIT / FUTEX_WAKE. See mutex.go for the acquire/release
// loops and controller.go for the retraining math.
//
// ## Condition variables
//
// Cond binds lazily, and permanently, to the first Mutex it is ever
// Waited against (see cond.go); presenting a different mutex on a later
// call is a programming error reported as ErrInvalidArgument. Broadcast
// wakes exactly one waiter directly and requeues the rest onto the bound
// mutex's futex via FUTEX_REQUEUE, so a ten-thread broadcast does not
// create a thundering herd on the mutex word.
//
// ## What this package does not do
//
// No fairness: spinners can and do overtake threads already asleep in
// the kernel wait. No priority inheritance, no recursive locking, no
// cross-process locking (every futex call here is PRIVATE), and no
// reader/writer variant. The package is Linux/amd64 only, because it
// issues raw futex(2) syscalls and relies on x86-style total-store-order
// semantics for its spin loops.
package adamutex
