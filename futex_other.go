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

//go:build !(linux && amd64)

package adamutex

import "time"

// This package issues raw futex(2) syscalls and assumes x86-style
// memory ordering in its spin loops (see lockword.go's pause comment);
// spec.md's Non-goals explicitly exclude non-Linux hosts and non-amd64
// atomics, so there is no emulated fallback here. Building on any other
// GOOS/GOARCH compiles but panics at the first futex call: a lock that
// blocks, a slow Unlock that wakes a waiter, or any Cond Signal.

func futexWait(addr *uint32, expected uint32, timeout *time.Duration) {
	panic("adamutex: futex syscalls are only implemented for linux/amd64")
}

func futexWake(addr *uint32, n int32) {
	panic("adamutex: futex syscalls are only implemented for linux/amd64")
}

func futexRequeue(addr *uint32, wake int32, requeue int32, target *uint32) {
	panic("adamutex: futex syscalls are only implemented for linux/amd64")
}

const requeueAllCap = int32(1<<31 - 1)
