// File: session/policy.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package session

import "time"

// Policy bundles the per-session runtime limits. All fields may be
// tuned per session after construction through the Session setters;
// the zero value of a duration or size disables that limit unless
// noted otherwise.
type Policy struct {
	// IdleTimeout is the maximum quiet interval with no frame
	// activity in either direction before the session is forced
	// closed. Zero disables idle enforcement.
	IdleTimeout time.Duration

	// CloseGrace is the fixed grace added on top of IdleTimeout
	// when bounding a blocking Close call.
	CloseGrace time.Duration

	// MaxTextMessageSize caps the assembled size of a text message
	// across all of its fragments. Zero disables the cap.
	MaxTextMessageSize int64

	// MaxBinaryMessageSize caps the assembled size of a binary
	// message across all of its fragments. Zero disables the cap.
	MaxBinaryMessageSize int64

	// MaxFramePayload caps the declared payload length of a single
	// incoming frame before its body is buffered. Zero derives the
	// cap from the larger message limit at session construction, so
	// a declared multi-gigabyte frame is rejected at header parse
	// instead of being buffered up to a much smaller message cap.
	MaxFramePayload int64

	// WriteQueueLimit bounds the number of outgoing frames queued
	// behind an in-flight transport write before senders block.
	WriteQueueLimit int
}

// DefaultPolicy returns the limits applied when Options.Policy is
// left zero.
func DefaultPolicy() Policy {
	return Policy{
		IdleTimeout:          30 * time.Second,
		CloseGrace:           5 * time.Second,
		MaxTextMessageSize:   64 * 1024,
		MaxBinaryMessageSize: 64 * 1024,
		MaxFramePayload:      0,
		WriteQueueLimit:      64,
	}
}

func (p Policy) maxFor(text bool) int64 {
	if text {
		return p.MaxTextMessageSize
	}
	return p.MaxBinaryMessageSize
}

// frameCap resolves the single-frame payload limit handed to the
// decoder. An explicit MaxFramePayload wins; otherwise the larger
// message limit applies with headroom for the expansion a compressed
// frame can show on incompressible payloads. No message limit at all
// means no frame cap either.
func (p Policy) frameCap() int64 {
	if p.MaxFramePayload > 0 {
		return p.MaxFramePayload
	}
	m := p.MaxTextMessageSize
	if p.MaxBinaryMessageSize > m {
		m = p.MaxBinaryMessageSize
	}
	if m <= 0 {
		return 0
	}
	return m + 1024
}

// closeDeadline is the total bound on a blocking Close call.
func (p Policy) closeDeadline() time.Duration {
	d := p.CloseGrace
	if d <= 0 {
		d = 5 * time.Second
	}
	if p.IdleTimeout > 0 {
		d += p.IdleTimeout
	}
	return d
}
