// Package session
// Author: momentics <momentics@gmail.com>
//
// Core session layer for wscore. Each Session is the per-connection state
// machine: it owns the frame decoder, the negotiated extension pipeline,
// the message assembler, and the single-writer outgoing path, and it
// drives the bounded-time close handshake and idle-timeout enforcement.
//
// Incoming frames are applied one at a time in arrival order; the
// extension pipeline and the assembler are not safe under concurrent
// frame processing for the same connection, and the session serializes
// them, including timer callbacks, behind one processing lock.
package session
