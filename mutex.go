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

import "sync/atomic"

// Mutex is a futex-backed mutual-exclusion lock that retrains its own
// spin budgets from observed contention (see the package doc and
// controller.go). The zero value is not usable; construct one with New.
//
// Mutex must not be copied after first use.
type Mutex struct {
	id uint64

	// status is the packed 32-bit word from lockword.go: byte 0 is
	// "locked", byte 1 is "contended", bytes 2-3 are reserved.
	status uint32

	// spinBudgetAcquire and spinBudgetRelease double as mode flags:
	// while they equal their respective training sentinel, the
	// corresponding path is in training mode (spec.md §4.3). Writes to
	// these are always single aligned uint32 stores so concurrent
	// readers never observe a torn value, only an old-or-new one.
	spinBudgetAcquire uint32
	spinBudgetRelease uint32

	nAcquire        uint32
	nSlowRelease    uint32
	nSpinAcquire    uint32
	sumSpinsAcquire uint64
	nSpinRelease    uint32
	sumSpinsRelease uint64
}

// New returns a ready-to-use Mutex, unlocked, with the acquire path
// starting in training mode per spec.md §6's initial state
// (spinBudgetAcquire pinned to the training sentinel; spinBudgetRelease
// starts at releaseSpinInit, and the first slow release arms
// release-path training, matching the original's do_spins_unlock
// initializer).
func New() *Mutex {
	return &Mutex{
		id:                allocLockID(),
		spinBudgetAcquire: acquireTrainSpinMax,
		spinBudgetRelease: releaseSpinInit,
	}
}

// Lock blocks until the mutex is acquired.
func (m *Mutex) Lock() {
	if isTrainingAcquire(atomic.LoadUint32(&m.spinBudgetAcquire)) {
		m.lockTraining()
		return
	}

	budget := atomic.LoadUint32(&m.spinBudgetAcquire)
	for i := uint32(1); i <= budget; i++ {
		if atomic.LoadUint32(&m.status)&lockedMask == 0 && xchg8(&m.status, 1) == 0 {
			return
		}
		pause(&m.status)
	}

	m.sleepUntilAcquired()
}

// lockTraining is the acquire path while spinBudgetAcquire is pinned to
// acquireTrainSpinMax: it records how many spins each win took, and once
// every acquireRetrainMask+1 acquires hands off to the retrainer.
func (m *Mutex) lockTraining() {
	won := false
	var spins uint32
	for i := uint32(1); i <= acquireTrainSpinMax; i++ {
		if atomic.LoadUint32(&m.status)&lockedMask == 0 && xchg8(&m.status, 1) == 0 {
			won = true
			spins = i
			break
		}
		pause(&m.status)
	}

	if !won {
		m.sleepUntilAcquired()
	} else {
		m.nSpinAcquire++
		m.sumSpinsAcquire += uint64(spins)
	}

	n := atomic.AddUint32(&m.nAcquire, 1)
	if shouldRetrainAcquire(n) {
		m.retrainAcquire()
	}
}

// sleepUntilAcquired is the acquire slow path shared by steady-state and
// training acquire: mark the word "held and contended" and wait in the
// kernel whenever the previous holder hadn't already released (spec.md
// §4.2's "Sleep phase").
func (m *Mutex) sleepUntilAcquired() {
	for {
		prev := xchg32(&m.status, statusHeldContended)
		if prev&lockedMask == 0 {
			return
		}
		futexWait(&m.status, statusHeldContended, nil)
	}
}

// TryLock attempts to acquire the mutex without blocking, spinning, or
// participating in training. It reports ErrBusy if the lock was already
// held.
func (m *Mutex) TryLock() error {
	if xchg8(&m.status, 1) != 0 {
		return ErrBusy
	}
	return nil
}

// TimedLock is declared for API parity with the source this package is
// modeled on but intentionally unimplemented; see ErrUnsupported.
func (m *Mutex) TimedLock(timeoutNanos int64) error {
	return ErrUnsupported
}

// Unlock releases the mutex. It is undefined behavior to call Unlock on
// a Mutex not currently held by the calling goroutine.
func (m *Mutex) Unlock() {
	if isTrainingRelease(atomic.LoadUint32(&m.spinBudgetRelease)) {
		m.unlockTraining()
		return
	}

	// Fast path: no waiter recorded, single CAS back to zero.
	if cas32(&m.status, 1, 0) == 1 {
		return
	}

	budget := atomic.LoadUint32(&m.spinBudgetRelease)
	if budget == releaseSpinInit {
		// The first slow release arms release-path training.
		atomic.StoreUint32(&m.spinBudgetRelease, releaseTrainSpinMax)
	}
	m.unlockSlow(budget, nil)
}

// unlockTraining is the release path while spinBudgetRelease is pinned
// to releaseTrainSpinMax.
func (m *Mutex) unlockTraining() {
	if cas32(&m.status, 1, 0) == 1 {
		return
	}

	// Count this slow release, and retrain at a stride boundary, while
	// the lock is still held and before unlockSlow's wake call.
	m.nSlowRelease++
	if shouldRetrainRelease(m.nSlowRelease) {
		m.retrainRelease()
	}

	won := false
	var spins uint32
	m.unlockSlow(releaseTrainSpinMax, func(i uint32) {
		won = true
		spins = i
	})

	if won {
		m.nSpinRelease++
		m.sumSpinsRelease += uint64(spins)
	}
}

// unlockSlow clears the locked byte, spins for up to budget iterations
// hoping a spinner grabs the lock before a syscall is needed, and wakes
// one kernel waiter if the window elapses without a new owner. If
// onSpinnerWin is non-nil it is called with the winning iteration number
// when a spinner picks up the lock within the window (used only by the
// training path to feed the controller).
func (m *Mutex) unlockSlow(budget uint32, onSpinnerWin func(i uint32)) {
	xchg8(&m.status, 0)

	for i := uint32(1); i <= budget; i++ {
		if atomic.LoadUint32(&m.status)&lockedMask != 0 {
			if onSpinnerWin != nil {
				onSpinnerWin(i)
			}
			return
		}
		pause(&m.status)
	}

	clearContended(&m.status)
	futexWake(&m.status, 1)
}
