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

// Tuning constants (spec.md §6).
const (
	// acquireTrainSpinMax is both the spin ceiling used while the
	// acquire path is training and the sentinel value that marks
	// spinBudgetAcquire as "still in training."
	acquireTrainSpinMax uint32 = 512

	// releaseTrainSpinMax is both the spin ceiling used while the
	// release path is training and the sentinel value that marks
	// spinBudgetRelease as "still in training."
	releaseTrainSpinMax uint32 = 128

	// releaseSpinInit is the release budget installed at New(), before
	// the first slow release arms release-path training.
	releaseSpinInit uint32 = 32

	acquireSpinMin uint32 = 8
	releaseSpinMin uint32 = 8

	successRatioMin = 0.5

	// slowdownFactor lowers retraining frequency for short-lived
	// processes/benchmarks; spec.md §4.3 calls this F.
	slowdownFactor = 11

	// acquireRetrainMask and releaseRetrainMask are the power-of-two
	// strides at which the respective retrainer runs, expressed as a
	// bitmask so "time to retrain" is a single AND: n&mask==0 every
	// mask+1 events. Defaults: 2^(24-F) acquires, 2^(23-F) slow
	// releases, with F=slowdownFactor.
	acquireRetrainMask uint32 = (1 << (24 - slowdownFactor)) - 1
	releaseRetrainMask uint32 = (1 << (23 - slowdownFactor)) - 1
)

// isTrainingAcquire reports whether the acquire path is still in
// training mode: the sentinel-as-mode-flag encoding from spec.md §4.3.
func isTrainingAcquire(budget uint32) bool {
	return budget == acquireTrainSpinMax
}

// isTrainingRelease reports whether the release path is still in
// training mode.
func isTrainingRelease(budget uint32) bool {
	return budget == releaseTrainSpinMax
}

// shouldRetrainAcquire reports whether nAcquire has just crossed an
// acquire retraining boundary.
func shouldRetrainAcquire(nAcquire uint32) bool {
	return nAcquire&acquireRetrainMask == 0
}

// shouldRetrainRelease reports whether nSlowRelease has just crossed a
// release retraining boundary.
func shouldRetrainRelease(nSlowRelease uint32) bool {
	return nSlowRelease&releaseRetrainMask == 0
}

// spinLevel computes floor(10 * successRatio), clamped to [0, 10] so the
// shift in base<<spinLevel never overflows a uint32 budget field. The
// spec's formula is monotone in successRatio by construction; at
// successRatio==1.0 the level is exactly 10, so the clamp only affects
// ratios above 1.0.
func spinLevel(successRatio float64) uint32 {
	level := uint32(10 * successRatio)
	if level > 10 {
		level = 10
	}
	return level
}

// retrainAcquire implements spec.md §4.3's acquire retrainer. It must be
// called from within the critical section -- immediately after the
// acquirer that triggered it has taken the lock -- so the counters it
// reads and writes need no further synchronization.
func (m *Mutex) retrainAcquire() {
	nAcquire := m.nAcquire
	nSpinAcquire := m.nSpinAcquire
	sumSpinsAcquire := m.sumSpinsAcquire

	var avgSpins uint64
	var successRatio float64
	if nSpinAcquire > 0 {
		avgSpins = sumSpinsAcquire / uint64(nSpinAcquire)
		successRatio = float64(nSpinAcquire) / float64(nAcquire)
	}

	var newBudget uint32
	if successRatio >= successRatioMin {
		newBudget = 256 << spinLevel(successRatio)
	} else {
		newBudget = acquireSpinMin
	}

	m.spinBudgetAcquire = newBudget
	// Re-arm release-path training so the two halves of the lock
	// rebalance together after an acquire-policy shift.
	m.spinBudgetRelease = releaseTrainSpinMax

	logRetrain(m.id, "acquire", avgSpins, successRatio, newBudget)
}

// retrainRelease implements spec.md §4.3's release retrainer. Like
// retrainAcquire, it must run from within the critical section -- here,
// during the slow release path before the wake call.
func (m *Mutex) retrainRelease() {
	nSlowRelease := m.nSlowRelease
	nSpinRelease := m.nSpinRelease
	sumSpinsRelease := m.sumSpinsRelease

	var avgSpins uint64
	var successRatio float64
	// spec.md §9 open question (a): guard the zero-waiter case instead
	// of dividing by it.
	if nSpinRelease > 0 {
		avgSpins = sumSpinsRelease / uint64(nSpinRelease)
		successRatio = float64(nSpinRelease) / float64(nSlowRelease)
	}

	var newBudget uint32
	if successRatio >= successRatioMin {
		newBudget = 2 << spinLevel(successRatio)
	} else {
		newBudget = releaseSpinMin
	}

	m.spinBudgetRelease = newBudget

	logRetrain(m.id, "release", avgSpins, successRatio, newBudget)
}
