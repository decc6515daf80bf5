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

	"go.uber.org/zap"
)

var logger atomic.Pointer[zap.Logger]

func init() {
	logger.Store(zap.NewNop())
}

// SetLogger installs the *zap.Logger used for retrain observability
// lines (spec.md §6). Passing nil restores the no-op logger, so a
// program that never calls SetLogger sees no output at all -- the
// package's only externally visible state is these log lines, and
// they're opt-in.
func SetLogger(l *zap.Logger) {
	if l == nil {
		l = zap.NewNop()
	}
	logger.Store(l)
}

// nextLockID hands out the small monotonic identity each Mutex reports
// in its retrain log lines (see SPEC_FULL.md's Ambient Stack section:
// the original C code logged its struct's pointer value, Go favors a
// stable small integer here).
var nextLockID uint64

func allocLockID() uint64 {
	return atomic.AddUint64(&nextLockID, 1)
}

// logRetrain emits the one human-readable line spec.md §6 calls for:
// average observed spin count, success ratio, newly installed budget,
// and lock identity.
func logRetrain(lockID uint64, path string, avgSpins uint64, successRatio float64, newBudget uint32) {
	logger.Load().Info("lock retrained",
		zap.Uint64("lock_id", lockID),
		zap.String("path", path),
		zap.Uint64("avg_spins", avgSpins),
		zap.Float64("success_ratio", successRatio),
		zap.Uint32("new_budget", newBudget),
	)
}
