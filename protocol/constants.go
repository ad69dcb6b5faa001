// Package protocol
// Author: momentics <momentics@gmail.com>
//
// WebSocket wire protocol constants.

package protocol

const (
	// Opcodes (RFC 6455 section 5.2).
	OpcodeContinuation = 0x0
	OpcodeText         = 0x1
	OpcodeBinary       = 0x2
	OpcodeClose        = 0x8
	OpcodePing         = 0x9
	OpcodePong         = 0xA

	// Frame limit settings.
	MaxControlPayloadLen = 125
	MaxFrameHeaderLen    = 14 // extended payload length plus mask key
	MaxCloseReasonLen    = 123

	// Bit masks for the two header bytes.
	FinBit  = 0x80
	Rsv1Bit = 0x40
	Rsv2Bit = 0x20
	Rsv3Bit = 0x10
	MaskBit = 0x80

	// Close codes (RFC 6455 section 7.4.1).
	CloseNormalClosure      = 1000
	CloseGoingAway          = 1001
	CloseProtocolError      = 1002
	CloseUnsupportedData    = 1003
	CloseNoStatusRcvd       = 1005
	CloseAbnormalClosure    = 1006
	CloseInvalidPayloadData = 1007
	ClosePolicyViolation    = 1008
	CloseMessageTooBig      = 1009
	CloseMissingExtension   = 1010
	CloseInternalServerErr  = 1011
)

// IsControlOpcode reports whether op designates a control frame (0x8-0xF).
func IsControlOpcode(op byte) bool {
	return op&0x08 != 0
}

// IsDataOpcode reports whether op designates a data frame.
func IsDataOpcode(op byte) bool {
	return op == OpcodeContinuation || op == OpcodeText || op == OpcodeBinary
}

// IsValidOpcode reports whether op is one of the six opcodes RFC 6455
// defines. Opcodes 0x3-0x7 and 0xB-0xF are reserved.
func IsValidOpcode(op byte) bool {
	switch op {
	case OpcodeContinuation, OpcodeText, OpcodeBinary,
		OpcodeClose, OpcodePing, OpcodePong:
		return true
	default:
		return false
	}
}

// IsValidCloseCode reports whether code may appear in a CLOSE frame on the
// wire. 1004-1006 are reserved, 1012-2999 are unassigned or reserved for
// this engine's purposes, and 3000-4999 pass through opaquely.
func IsValidCloseCode(code int) bool {
	if code < CloseNormalClosure || code > 4999 {
		return false
	}
	switch code {
	case 1004, CloseNoStatusRcvd, CloseAbnormalClosure:
		return false
	}
	return code <= CloseInternalServerErr || code >= 3000
}
