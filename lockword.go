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
)

// statusHeldContended is the packed status word written by the acquire
// slow path: locked=1, contended=1. A releaser that observes this exact
// value knows a waiter may be asleep in the kernel and must wake one.
const statusHeldContended uint32 = 0x0101

// lockedMask and contendedMask carve the low two bytes out of the packed
// 32-bit status word. Byte 0 is "locked" (0 = free, 1 = held); byte 1 is
// "contended" (non-zero = at least one thread may be sleeping on this
// word). Bytes 2-3 are reserved and always zero.
const (
	lockedMask    uint32 = 0x000000ff
	contendedMask uint32 = 0x0000ff00
)

// cas32 is a thin, explicitly-named wrapper around the compare-and-swap
// primitive the acquire/release fast paths use. It returns the value that
// was actually observed at addr, mirroring the C cmpxchg idiom: callers
// compare the return value against old to tell whether the swap took.
func cas32(addr *uint32, old, new uint32) uint32 {
	for {
		cur := atomic.LoadUint32(addr)
		if cur != old {
			return cur
		}
		if atomic.CompareAndSwapUint32(addr, old, new) {
			return old
		}
	}
}

// xchg32 atomically stores new into *addr and returns the previous value.
func xchg32(addr *uint32, new uint32) uint32 {
	return atomic.SwapUint32(addr, new)
}

// xchg8 atomically stores new into the low byte of the 32-bit word at
// addr (the "locked" byte) and returns the previous byte value, without
// disturbing the other three bytes. This is the operation the fast
// acquire path relies on to grab the lock without clobbering the
// contended hint.
func xchg8(addr *uint32, new byte) byte {
	for {
		cur := atomic.LoadUint32(addr)
		next := (cur &^ lockedMask) | uint32(new)
		if atomic.CompareAndSwapUint32(addr, cur, next) {
			return byte(cur & lockedMask)
		}
	}
}

// clearContended atomically clears the contended byte, leaving the
// locked byte untouched. Used by the release slow path right before it
// issues the kernel wake, so a fresh acquirer doesn't see a stale
// contended hint from a waiter that has already been woken.
func clearContended(addr *uint32) {
	for {
		cur := atomic.LoadUint32(addr)
		next := cur &^ contendedMask
		if cur == next || atomic.CompareAndSwapUint32(addr, cur, next) {
			return
		}
	}
}

// fadd32 atomically adds delta to *addr and returns the previous value.
func fadd32(addr *uint32, delta uint32) uint32 {
	return atomic.AddUint32(addr, delta) - delta
}

// pause is the memory fence issued between consecutive spin-loop probes.
// On the real futex word this plays the role of the x86 mfence in the
// original implementation: it is not a CPU pause/yield instruction, it's
// an ordering barrier that keeps the spin loop from being hoisted or
// reordered away by the compiler, and it gives the cache-coherence
// protocol a chance to propagate the writer's store before the next
// probe. atomic.LoadUint32 already carries sequential-consistency
// ordering on all of Go's supported amd64 backends, so the fence here is
// a no-op load that exists for documentation and to mirror the shape of
// the spin loops in the source this package is modeled on.
func pause(addr *uint32) uint32 {
	return atomic.LoadUint32(addr)
}
