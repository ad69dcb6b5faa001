// File: protocol/close.go
// Package protocol
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// CLOSE frame payload layout: optional 2-byte big-endian status code
// followed by an optional UTF-8 reason of at most 123 bytes.

package protocol

import (
	"encoding/binary"
	"unicode/utf8"
)

// CloseReason is the decoded content of a CLOSE frame.
type CloseReason struct {
	Code   int
	Reason string
}

// NoStatus is the CloseReason for a CLOSE frame with an empty payload.
func NoStatus() CloseReason {
	return CloseReason{Code: CloseNoStatusRcvd}
}

// ParseClosePayload decodes and validates a CLOSE frame payload.
// An empty payload is legal and yields code 1005. A one-byte payload, a
// status code outside the allowed ranges, or a reason that is not valid
// UTF-8 is a protocol violation.
func ParseClosePayload(p []byte) (CloseReason, error) {
	switch {
	case len(p) == 0:
		return NoStatus(), nil
	case len(p) == 1:
		return CloseReason{}, ErrInvalidClosePayload
	}
	code := int(binary.BigEndian.Uint16(p))
	if !IsValidCloseCode(code) {
		return CloseReason{}, ErrInvalidClosePayload
	}
	reason := p[2:]
	if !utf8.Valid(reason) {
		return CloseReason{}, ErrInvalidCloseReason
	}
	return CloseReason{Code: code, Reason: string(reason)}, nil
}

// Payload encodes the reason into CLOSE frame payload bytes. A code of
// 1005 (or zero) produces an empty payload. Reasons over 123 encoded
// bytes are rejected rather than silently truncated.
func (r CloseReason) Payload() ([]byte, error) {
	if r.Code == 0 || r.Code == CloseNoStatusRcvd {
		return nil, nil
	}
	if !IsValidCloseCode(r.Code) {
		return nil, ErrInvalidClosePayload
	}
	if len(r.Reason) > MaxCloseReasonLen {
		return nil, ErrInvalidCloseReason
	}
	p := make([]byte, 2+len(r.Reason))
	binary.BigEndian.PutUint16(p, uint16(r.Code))
	copy(p[2:], r.Reason)
	return p, nil
}

// NewCloseFrame builds a CLOSE control frame carrying r.
func NewCloseFrame(r CloseReason) (*Frame, error) {
	p, err := r.Payload()
	if err != nil {
		return nil, err
	}
	return NewControlFrame(OpcodeClose, p), nil
}
