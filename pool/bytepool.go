// File: pool/bytepool.go
// Package pool
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Size-classed byte buffer pool behind api.BytePool. Buffers are kept in
// bounded per-class channels; an exhausted or oversized request falls
// back to a fresh allocation and an overfull class drops the buffer for
// the GC, so Acquire and Release never block.

package pool

import "github.com/momentics/wscore/api"

// Power-of-two size classes from 256 B to 64 KiB.
const (
	minClassShift = 8
	maxClassShift = 16
	classDepth    = 1024
)

// BytePool is a process-wide buffer pool safe for concurrent use.
type BytePool struct {
	classes [maxClassShift - minClassShift + 1]chan []byte
}

var _ api.BytePool = (*BytePool)(nil)

// NewBytePool constructs an empty pool.
func NewBytePool() *BytePool {
	p := &BytePool{}
	for i := range p.classes {
		p.classes[i] = make(chan []byte, classDepth)
	}
	return p
}

// Acquire returns a buffer of length n backed by pooled storage when a
// fitting class has one available.
func (p *BytePool) Acquire(n int) []byte {
	idx, ok := classIndex(n)
	if !ok {
		return make([]byte, n)
	}
	select {
	case buf := <-p.classes[idx]:
		return buf[:n]
	default:
		return make([]byte, n, 1<<(minClassShift+idx))
	}
}

// Release returns a buffer to its size class. Buffers that never came
// from a class, or arrive while the class is full, are left to the GC.
func (p *BytePool) Release(buf []byte) {
	c := cap(buf)
	idx, ok := classIndex(c)
	if !ok || 1<<(minClassShift+idx) != c {
		return
	}
	select {
	case p.classes[idx] <- buf[:0:c]:
	default:
	}
}

// classIndex maps a requested size to the smallest class that fits.
func classIndex(n int) (int, bool) {
	if n > 1<<maxClassShift {
		return 0, false
	}
	for i := 0; i <= maxClassShift-minClassShift; i++ {
		if n <= 1<<(minClassShift+i) {
			return i, true
		}
	}
	return 0, false
}

var defaultPool = NewBytePool()

// Default returns the shared process-wide pool used when a session is not
// given an explicit one.
func Default() *BytePool { return defaultPool }
