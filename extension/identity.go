// File: extension/identity.go
// Package extension
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package extension

import "github.com/momentics/wscore/protocol"

// IdentityExtensionName is the negotiation identifier of the identity
// extension.
const IdentityExtensionName = "identity"

// identity is a parameterized pass-through. Useful for negotiation and
// pipeline testing; it accepts arbitrary parameters and changes nothing.
type identity struct {
	cfg protocol.ExtensionConfig
}

func newIdentity(cfg protocol.ExtensionConfig) (Extension, error) {
	return &identity{cfg: cfg}, nil
}

func (e *identity) Name() string  { return IdentityExtensionName }
func (e *identity) RsvBits() byte { return 0 }

// Config exposes the negotiated parameters.
func (e *identity) Config() protocol.ExtensionConfig { return e.cfg }

func (e *identity) OnIncoming(f *protocol.Frame, next FrameSink) error {
	return next.HandleFrame(f)
}

func (e *identity) OnOutgoing(f *protocol.Frame, next FrameSink) error {
	return next.HandleFrame(f)
}
