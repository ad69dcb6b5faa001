package pool_test

import (
	"testing"

	"github.com/momentics/wscore/pool"
)

func TestBytePoolReuse(t *testing.T) {
	p := pool.NewBytePool()
	b1 := p.Acquire(128)
	if len(b1) != 128 {
		t.Fatalf("len = %d", len(b1))
	}
	p.Release(b1)
	b2 := p.Acquire(64)
	// b2 should reuse the 256-byte class storage released above.
	if cap(b2) < 128 {
		t.Error("buffer capacity too small; reuse failed")
	}
}

func TestBytePoolOversized(t *testing.T) {
	p := pool.NewBytePool()
	b := p.Acquire(1 << 20)
	if len(b) != 1<<20 {
		t.Fatalf("len = %d", len(b))
	}
	// Releasing an unclassed buffer is a no-op, not a panic.
	p.Release(b)
}

func TestBytePoolConcurrent(t *testing.T) {
	p := pool.NewBytePool()
	done := make(chan struct{})
	for i := 0; i < 8; i++ {
		go func() {
			defer func() { done <- struct{}{} }()
			for j := 0; j < 1000; j++ {
				buf := p.Acquire(512)
				buf[0] = byte(j)
				p.Release(buf)
			}
		}()
	}
	for i := 0; i < 8; i++ {
		<-done
	}
}
