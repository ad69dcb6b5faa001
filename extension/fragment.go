// File: extension/fragment.go
// Package extension
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package extension

import (
	"fmt"
	"strconv"

	"github.com/momentics/wscore/protocol"
)

// FragmentExtensionName is the negotiation identifier of the fragment
// extension.
const FragmentExtensionName = "fragment"

// fragment splits outgoing data frames whose payload exceeds maxLength
// into a continuation chain. Incoming frames pass through untouched; the
// assembler reconstitutes them regardless of fragmentation.
type fragment struct {
	maxLength int
}

func newFragment(cfg protocol.ExtensionConfig) (Extension, error) {
	v, ok := cfg.Param("maxLength")
	if !ok {
		return nil, fmt.Errorf("fragment: missing maxLength parameter")
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return nil, fmt.Errorf("fragment: invalid maxLength %q", v)
	}
	return &fragment{maxLength: n}, nil
}

func (e *fragment) Name() string  { return FragmentExtensionName }
func (e *fragment) RsvBits() byte { return 0 }

func (e *fragment) OnIncoming(f *protocol.Frame, next FrameSink) error {
	return next.HandleFrame(f)
}

func (e *fragment) OnOutgoing(f *protocol.Frame, next FrameSink) error {
	if f.IsControl() || len(f.Payload) <= e.maxLength {
		return next.HandleFrame(f)
	}

	payload := f.Payload
	opcode := f.Opcode
	rsv := f.RsvBits()
	for len(payload) > 0 {
		n := e.maxLength
		if n > len(payload) {
			n = len(payload)
		}
		piece := &protocol.Frame{
			Opcode:  opcode,
			Fin:     len(payload) == n && f.Fin,
			Payload: payload[:n],
		}
		piece.SetRsvBits(rsv)
		if err := next.HandleFrame(piece); err != nil {
			return err
		}
		payload = payload[n:]
		// Only the first piece carries the opcode and RSV bits.
		opcode = protocol.OpcodeContinuation
		rsv = 0
	}
	return nil
}
