// File: protocol/errors.go
// Package protocol
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package protocol

import "errors"

// Wire-level protocol violations. The session layer maps any of these to a
// terminal connection failure with close status 1002.
var (
	// ErrInvalidOpcode flags a reserved or unknown opcode (0x3-0x7, 0xB-0xF).
	ErrInvalidOpcode = errors.New("protocol: invalid opcode")

	// ErrReservedBits flags RSV bits set without a negotiated extension
	// claiming them.
	ErrReservedBits = errors.New("protocol: reserved bits set without extension")

	// ErrControlFragmented flags a control frame with FIN=0.
	ErrControlFragmented = errors.New("protocol: fragmented control frame")

	// ErrControlTooLarge flags a control frame payload over 125 bytes.
	ErrControlTooLarge = errors.New("protocol: control frame payload too large")

	// ErrInvalidLength flags a 64-bit extended payload length with the
	// most significant bit set.
	ErrInvalidLength = errors.New("protocol: invalid extended payload length")

	// ErrMaskRequired flags an unmasked frame where masking is mandatory
	// (client-to-server direction).
	ErrMaskRequired = errors.New("protocol: frame must be masked")

	// ErrMaskUnexpected flags a masked frame where masking is forbidden
	// (server-to-client direction).
	ErrMaskUnexpected = errors.New("protocol: frame must not be masked")

	// ErrFrameTooLarge flags a single frame payload over the decoder's
	// configured hard limit.
	ErrFrameTooLarge = errors.New("protocol: frame payload exceeds maximum allowed size")

	// ErrInvalidClosePayload flags a CLOSE frame payload of exactly one
	// byte or with a status code outside the allowed ranges.
	ErrInvalidClosePayload = errors.New("protocol: invalid close frame payload")

	// ErrInvalidCloseReason flags a CLOSE reason that is not valid UTF-8
	// or exceeds 123 bytes.
	ErrInvalidCloseReason = errors.New("protocol: invalid close frame reason")

	// ErrBadExtensionSyntax flags a malformed extension negotiation string.
	ErrBadExtensionSyntax = errors.New("protocol: malformed extension negotiation string")
)
