// File: api/types.go
// Author: momentics <momentics@gmail.com>
//
// Shared API-level type declarations and constants.

package api

// SessionStatus enumerates the lifecycle state of a WebSocket session.
type SessionStatus int

const (
	SessionUnknown SessionStatus = iota
	SessionOpening
	SessionOpen
	SessionOutClosing
	SessionClosed
)

func (s SessionStatus) String() string {
	switch s {
	case SessionOpening:
		return "opening"
	case SessionOpen:
		return "open"
	case SessionOutClosing:
		return "out-closing"
	case SessionClosed:
		return "closed"
	default:
		return "unknown"
	}
}
