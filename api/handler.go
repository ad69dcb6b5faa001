// File: api/handler.go
// Package api defines typed handler registration for message dispatch.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package api

// MessageKind identifies the payload kind of an application message.
type MessageKind int

const (
	KindText MessageKind = iota + 1
	KindBinary
)

func (k MessageKind) String() string {
	switch k {
	case KindText:
		return "text"
	case KindBinary:
		return "binary"
	default:
		return "unknown"
	}
}

// DispatchMode selects how a registered handler receives message payloads.
type DispatchMode int

const (
	// DispatchWhole delivers the fully assembled payload once, after the
	// final fragment has arrived.
	DispatchWhole DispatchMode = iota + 1

	// DispatchPartial delivers every fragment as it arrives, flagging the
	// final one.
	DispatchPartial
)

func (m DispatchMode) String() string {
	switch m {
	case DispatchWhole:
		return "whole"
	case DispatchPartial:
		return "partial"
	default:
		return "unknown"
	}
}

// WholeMessageHandler receives a complete assembled message payload.
// The slice is only valid for the duration of the call.
type WholeMessageHandler func(kind MessageKind, payload []byte)

// PartialMessageHandler receives one message fragment at a time.
// last is true for the fragment that completes the message.
type PartialMessageHandler func(kind MessageKind, fragment []byte, last bool)

// OpenHandler fires once when the session transitions to the open state.
type OpenHandler func()

// ErrorHandler fires when a terminal connection failure surfaces to the
// application. The session is already closing or closed when it runs.
type ErrorHandler func(err error)

// CloseHandler fires exactly once when the session reaches the closed
// state, carrying the close status code and reason that ended it.
type CloseHandler func(code int, reason string)

// PongHandler fires for every PONG control frame received from the peer.
type PongHandler func(payload []byte)
