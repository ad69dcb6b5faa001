// File: api/transport.go
// Author: momentics <momentics@gmail.com>
//
// Transport socket abstraction consumed by the engine's write side.
// The engine never reads the transport itself: inbound bytes are pushed
// into the session by the owning read pump.

package api

// NetConn abstracts a full-duplex network connection object
// that may or may not be backed by Go's net.Conn.
type NetConn interface {
	// Read reads into a preallocated buffer.
	Read(p []byte) (n int, err error)

	// Write writes buffer contents into the connection.
	Write(p []byte) (n int, err error)

	// Close shuts down the connection and notifies upstream layers.
	Close() error
}

// WriteSideCloser is implemented by transports that can shut down the
// outbound half independently, as the close handshake requires after the
// CLOSE echo has been flushed.
type WriteSideCloser interface {
	CloseWrite() error
}
