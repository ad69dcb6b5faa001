// File: api/errors.go
// Package api defines the engine-wide error taxonomy.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package api

import (
	"errors"
	"fmt"
)

// Sentinel errors used across the library.
var (
	ErrSessionClosed         = fmt.Errorf("session is closed")
	ErrSessionClosing        = fmt.Errorf("session is closing")
	ErrNoSuchExtension       = fmt.Errorf("no such extension")
	ErrDuplicateRegistration = fmt.Errorf("handler already registered for message kind")
	ErrUnsupportedKind       = fmt.Errorf("unsupported message kind")
	ErrTransportClosed       = fmt.Errorf("transport is closed")
	ErrOperationTimeout      = fmt.Errorf("operation timeout")
)

// ErrorCode classifies terminal connection failures. Each code maps to the
// RFC 6455 close status the engine sends before tearing the connection down.
type ErrorCode int

const (
	ErrCodeOK ErrorCode = iota
	ErrCodeProtocol
	ErrCodePayloadTooLarge
	ErrCodeInvalidTextEncoding
	ErrCodeNegotiation
	ErrCodeRegistration
	ErrCodeTimeout
	ErrCodeInternal
)

// CloseStatus returns the RFC 6455 close status code the engine transmits
// for this class of failure.
func (c ErrorCode) CloseStatus() int {
	switch c {
	case ErrCodeProtocol:
		return 1002
	case ErrCodePayloadTooLarge:
		return 1009
	case ErrCodeInvalidTextEncoding:
		return 1007
	case ErrCodeNegotiation:
		return 1010
	case ErrCodeTimeout:
		return 1001
	default:
		return 1011
	}
}

func (c ErrorCode) String() string {
	switch c {
	case ErrCodeOK:
		return "ok"
	case ErrCodeProtocol:
		return "protocol error"
	case ErrCodePayloadTooLarge:
		return "payload too large"
	case ErrCodeInvalidTextEncoding:
		return "invalid text encoding"
	case ErrCodeNegotiation:
		return "extension negotiation failed"
	case ErrCodeRegistration:
		return "handler registration error"
	case ErrCodeTimeout:
		return "timeout"
	default:
		return "internal error"
	}
}

// Error is a structured error with a taxonomy code and optional context.
type Error struct {
	Code    ErrorCode
	Message string
	Cause   error
	Context map[string]any
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap exposes the wrapped cause for errors.Is/As.
func (e *Error) Unwrap() error { return e.Cause }

// NewError creates a structured error.
func NewError(code ErrorCode, message string) *Error {
	return &Error{Code: code, Message: message}
}

// WrapError creates a structured error around an underlying cause.
func WrapError(code ErrorCode, message string, cause error) *Error {
	return &Error{Code: code, Message: message, Cause: cause}
}

// WithContext attaches context information to the error.
func (e *Error) WithContext(key string, value any) *Error {
	if e.Context == nil {
		e.Context = make(map[string]any)
	}
	e.Context[key] = value
	return e
}

// CloseCodeFor maps err to the RFC 6455 close status code transmitted
// when the failure tears a connection down.
func CloseCodeFor(err error) int {
	return CodeOf(err).CloseStatus()
}

// CodeOf extracts the taxonomy code from err. Errors that do not carry a
// structured engine error anywhere in their chain report ErrCodeInternal.
func CodeOf(err error) ErrorCode {
	if err == nil {
		return ErrCodeOK
	}
	var se *Error
	if errors.As(err, &se) {
		return se.Code
	}
	return ErrCodeInternal
}
