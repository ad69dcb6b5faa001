// File: session/writer.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package session

import (
	"math/rand"
	"sync"
	"time"

	"github.com/eapache/queue"

	"github.com/momentics/wscore/api"
	"github.com/momentics/wscore/protocol"
)

// writer is the terminal sink of the outgoing extension pipeline. It
// serializes transport writes for the session: frames queue in a FIFO
// behind one flushing goroutine, and producers block once the queue
// reaches its limit. The lock is dropped around the actual transport
// write so queueing never stalls behind a slow peer.
type writer struct {
	mu       sync.Mutex
	cond     *sync.Cond
	pending  *queue.Queue
	limit    int
	flushing bool
	closed   bool
	err      error

	enc  protocol.Encoder
	nc   api.NetConn
	pool api.BytePool
}

func newWriter(nc api.NetConn, mask bool, limit int, pool api.BytePool) *writer {
	if limit <= 0 {
		limit = 64
	}
	w := &writer{
		pending: queue.New(),
		limit:   limit,
		nc:      nc,
		pool:    pool,
	}
	if mask {
		w.enc = protocol.Encoder{Mask: true, Rand: rand.New(rand.NewSource(time.Now().UnixNano()))}
	}
	w.cond = sync.NewCond(&w.mu)
	return w
}

var _ interface {
	HandleFrame(*protocol.Frame) error
} = (*writer)(nil)

// HandleFrame queues f and flushes unless another caller already is.
func (w *writer) HandleFrame(f *protocol.Frame) error {
	w.mu.Lock()
	for !w.closed && w.err == nil && w.pending.Length() >= w.limit {
		w.cond.Wait()
	}
	if w.closed || w.err != nil {
		err := w.err
		if err == nil {
			err = api.ErrSessionClosed
		}
		w.mu.Unlock()
		return err
	}
	w.pending.Add(f)
	if w.flushing {
		w.mu.Unlock()
		return nil
	}
	w.flushing = true
	err := w.flushLocked()
	w.flushing = false
	w.cond.Broadcast()
	w.mu.Unlock()
	return err
}

// flushLocked drains the queue, releasing the lock around each
// transport write. Callers hold w.mu and have set w.flushing.
func (w *writer) flushLocked() error {
	for w.pending.Length() > 0 {
		if w.closed || w.err != nil {
			return w.err
		}
		f := w.pending.Remove().(*protocol.Frame)
		w.cond.Broadcast()

		buf := w.pool.Acquire(len(f.Payload) + protocol.MaxFrameHeaderLen)
		raw, err := w.enc.AppendEncode(buf[:0], f)
		if err != nil {
			w.pool.Release(buf)
			w.err = err
			return err
		}
		w.mu.Unlock()
		_, werr := w.nc.Write(raw)
		w.mu.Lock()
		w.pool.Release(buf)
		if werr != nil {
			if w.err == nil {
				w.err = api.WrapError(api.ErrCodeInternal, "transport write failed", werr)
			}
			return w.err
		}
	}
	return nil
}

// drain blocks until every queued frame has hit the transport, or the
// writer failed or closed.
func (w *writer) drain() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	for w.err == nil && !w.closed && (w.pending.Length() > 0 || w.flushing) {
		w.cond.Wait()
	}
	return w.err
}

// close drops queued frames and wakes every blocked producer.
// Idempotent.
func (w *writer) close() {
	w.mu.Lock()
	w.closed = true
	for w.pending.Length() > 0 {
		w.pending.Remove()
	}
	w.cond.Broadcast()
	w.mu.Unlock()
}
