// File: protocol/frame.go
// Package protocol
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Decoded WebSocket frame representation shared by the codec, the
// extension pipeline, and the message assembler.

package protocol

// Frame is one decoded WebSocket frame. Payload is always unmasked; the
// mask key is retained only for diagnostics.
type Frame struct {
	Fin    bool
	Rsv1   bool
	Rsv2   bool
	Rsv3   bool
	Opcode byte
	Masked bool
	MaskKey [4]byte
	Payload []byte
}

// IsControl reports whether the frame is a control frame.
func (f *Frame) IsControl() bool { return IsControlOpcode(f.Opcode) }

// IsData reports whether the frame is a data frame.
func (f *Frame) IsData() bool { return IsDataOpcode(f.Opcode) }

// RsvBits packs the three reserved bits into header-byte-0 positions.
func (f *Frame) RsvBits() byte {
	var b byte
	if f.Rsv1 {
		b |= Rsv1Bit
	}
	if f.Rsv2 {
		b |= Rsv2Bit
	}
	if f.Rsv3 {
		b |= Rsv3Bit
	}
	return b
}

// SetRsvBits applies header-byte-0 reserved bit positions onto the frame.
func (f *Frame) SetRsvBits(b byte) {
	f.Rsv1 = b&Rsv1Bit != 0
	f.Rsv2 = b&Rsv2Bit != 0
	f.Rsv3 = b&Rsv3Bit != 0
}

// NewTextFrame builds an unfragmented TEXT frame.
func NewTextFrame(payload []byte) *Frame {
	return &Frame{Fin: true, Opcode: OpcodeText, Payload: payload}
}

// NewBinaryFrame builds an unfragmented BINARY frame.
func NewBinaryFrame(payload []byte) *Frame {
	return &Frame{Fin: true, Opcode: OpcodeBinary, Payload: payload}
}

// NewControlFrame builds a control frame with the given opcode.
func NewControlFrame(opcode byte, payload []byte) *Frame {
	return &Frame{Fin: true, Opcode: opcode, Payload: payload}
}
