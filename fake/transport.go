// Package fake
// Author: momentics <momentics@gmail.com>
//
// Fake implementations for testing and development.
// Provides predictable, controllable behavior for the transport surface.

package fake

import (
	"sync"

	"github.com/momentics/wscore/api"
)

// Transport is a controllable api.NetConn double. Writes are captured
// for inspection; reads drain a scripted buffer. Both halves can be
// forced to fail.
type Transport struct {
	mu          sync.Mutex
	writes      [][]byte
	readable    []byte
	closed      bool
	writeClosed bool
	writeError  error
	readError   error
	closeError  error
}

// NewTransport creates an open fake transport with no scripted data.
func NewTransport() *Transport {
	return &Transport{}
}

// Read implements api.NetConn. It drains previously scripted bytes and
// reports api.ErrTransportClosed once closed and empty.
func (t *Transport) Read(p []byte) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.readError != nil {
		return 0, t.readError
	}
	if len(t.readable) == 0 {
		if t.closed {
			return 0, api.ErrTransportClosed
		}
		return 0, nil
	}
	n := copy(p, t.readable)
	t.readable = t.readable[n:]
	return n, nil
}

// Write implements api.NetConn, capturing a copy of every write.
func (t *Transport) Write(p []byte) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed || t.writeClosed {
		return 0, api.ErrTransportClosed
	}
	if t.writeError != nil {
		return 0, t.writeError
	}
	c := make([]byte, len(p))
	copy(c, p)
	t.writes = append(t.writes, c)
	return len(p), nil
}

// Close implements api.NetConn.
func (t *Transport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closeError != nil {
		return t.closeError
	}
	t.closed = true
	return nil
}

// CloseWrite implements api.WriteSideCloser.
func (t *Transport) CloseWrite() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.writeClosed = true
	return nil
}

// Closed reports whether Close has been called.
func (t *Transport) Closed() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.closed
}

// WriteSideClosed reports whether CloseWrite has been called.
func (t *Transport) WriteSideClosed() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.writeClosed
}

// SetWriteError configures Write to fail with err.
func (t *Transport) SetWriteError(err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.writeError = err
}

// SetReadError configures Read to fail with err.
func (t *Transport) SetReadError(err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.readError = err
}

// SetCloseError configures Close to fail with err.
func (t *Transport) SetCloseError(err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.closeError = err
}

// AddReadData appends bytes to be returned by later Read calls.
func (t *Transport) AddReadData(data []byte) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.readable = append(t.readable, data...)
}

// Writes returns a copy of every buffer written so far, in order.
func (t *Transport) Writes() [][]byte {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([][]byte, len(t.writes))
	copy(out, t.writes)
	return out
}

// Bytes returns the concatenation of every write, the raw byte stream
// the peer would observe.
func (t *Transport) Bytes() []byte {
	t.mu.Lock()
	defer t.mu.Unlock()
	var out []byte
	for _, w := range t.writes {
		out = append(out, w...)
	}
	return out
}

// Reset clears the captured writes.
func (t *Transport) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.writes = t.writes[:0]
}

var (
	_ api.NetConn         = (*Transport)(nil)
	_ api.WriteSideCloser = (*Transport)(nil)
)
