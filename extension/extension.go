// File: extension/extension.go
// Package extension defines the per-stage transform contract.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package extension

import "github.com/momentics/wscore/protocol"

// FrameSink consumes frames emitted by a pipeline stage. The sink after
// the last incoming stage is the message assembler; the sink after the
// last outgoing stage is the frame encoder.
type FrameSink interface {
	HandleFrame(f *protocol.Frame) error
}

// FrameSinkFunc adapts a function to the FrameSink interface.
type FrameSinkFunc func(f *protocol.Frame) error

// HandleFrame implements FrameSink.
func (fn FrameSinkFunc) HandleFrame(f *protocol.Frame) error { return fn(f) }

// Extension is one stateful, per-connection transform stage. An extension
// may pass a frame through unchanged, rewrite its payload or RSV bits,
// or consume it and emit zero or more frames into next — but must never
// reorder frames relative to others of the same direction.
type Extension interface {
	// Name returns the case-sensitive negotiation identifier.
	Name() string

	// RsvBits returns the RSV bits this extension claims, in
	// protocol.Rsv1Bit|Rsv2Bit|Rsv3Bit form, or 0.
	RsvBits() byte

	// OnIncoming processes one inbound frame, forwarding results to next.
	OnIncoming(f *protocol.Frame, next FrameSink) error

	// OnOutgoing processes one outbound frame, undoing this extension's
	// incoming transform, forwarding results to next.
	OnOutgoing(f *protocol.Frame, next FrameSink) error
}
