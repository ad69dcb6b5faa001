// File: session/assembler.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package session

import (
	"github.com/valyala/bytebufferpool"

	"github.com/momentics/wscore/api"
	"github.com/momentics/wscore/protocol"
)

// assembler is the terminal sink of the incoming extension pipeline.
// It reassembles fragmented data messages, enforces the per-kind size
// caps and text encoding, and dispatches to the registered consumer in
// either whole-message or per-fragment mode. Control frames are routed
// back to the session untouched.
//
// The session calls HandleFrame with its processing lock held, so the
// assembler needs no locking of its own.
type assembler struct {
	s *Session

	active  bool
	kind    api.MessageKind
	entry   handlerEntry
	hasSink bool
	total   int64
	buf     *bytebufferpool.ByteBuffer
	text    utf8Validator
}

func newAssembler(s *Session) *assembler {
	return &assembler{s: s}
}

// reset drops any partially assembled message, returning the pending
// buffer to its pool.
func (a *assembler) reset() {
	if a.buf != nil {
		bytebufferpool.Put(a.buf)
		a.buf = nil
	}
	a.active = false
	a.total = 0
	a.text.reset()
}

func (a *assembler) HandleFrame(f *protocol.Frame) error {
	if f.IsControl() {
		return a.s.handleControl(f)
	}
	if f.RsvBits() != 0 {
		// every negotiated extension has already run; leftover
		// reserved bits mean the peer used an unclaimed one
		return api.WrapError(api.ErrCodeProtocol,
			"reserved bits set on data frame", protocol.ErrReservedBits)
	}

	switch f.Opcode {
	case protocol.OpcodeText, protocol.OpcodeBinary:
		if a.active {
			return api.NewError(api.ErrCodeProtocol,
				"data frame received while a fragmented message is in progress")
		}
		a.begin(f.Opcode)
	case protocol.OpcodeContinuation:
		if !a.active {
			return api.NewError(api.ErrCodeProtocol,
				"continuation frame without a message in progress")
		}
	default:
		return api.WrapError(api.ErrCodeProtocol,
			"unexpected opcode reached the assembler", protocol.ErrInvalidOpcode)
	}

	if err := a.append(f.Payload); err != nil {
		a.reset()
		return err
	}

	if !f.Fin {
		if a.hasSink && a.entry.mode == api.DispatchPartial {
			a.entry.partial(a.kind, f.Payload, false)
		}
		return nil
	}
	return a.finish(f.Payload)
}

func (a *assembler) begin(opcode byte) {
	a.active = true
	a.total = 0
	a.text.reset()
	if opcode == protocol.OpcodeText {
		a.kind = api.KindText
	} else {
		a.kind = api.KindBinary
	}
	// the dispatch mode is fixed at message start and stays stable
	// even if the consumer re-registers mid-message
	a.entry, a.hasSink = a.s.handlers.resolve(a.kind)
	if a.hasSink && a.entry.mode == api.DispatchWhole {
		a.buf = bytebufferpool.Get()
	}
}

func (a *assembler) append(payload []byte) error {
	a.total += int64(len(payload))
	if limit := a.s.currentPolicy().maxFor(a.kind == api.KindText); limit > 0 && a.total > limit {
		return api.NewError(api.ErrCodePayloadTooLarge, a.kind.String()+" message exceeds limit").
			WithContext("limit", limit)
	}
	if a.kind == api.KindText && !a.text.feed(payload) {
		return api.NewError(api.ErrCodeInvalidTextEncoding, "text message is not valid UTF-8")
	}
	if a.buf != nil {
		a.buf.Write(payload)
	}
	return nil
}

func (a *assembler) finish(last []byte) error {
	if a.kind == api.KindText && !a.text.final() {
		a.reset()
		return api.NewError(api.ErrCodeInvalidTextEncoding, "text message ends inside a rune")
	}
	entry, hasSink, kind := a.entry, a.hasSink, a.kind
	buf := a.buf
	a.buf = nil
	a.active = false
	a.total = 0

	if !hasSink {
		if buf != nil {
			bytebufferpool.Put(buf)
		}
		a.s.log.WithField("kind", kind.String()).Debug("message discarded, no handler registered")
		return nil
	}
	if entry.mode == api.DispatchPartial {
		entry.partial(kind, last, true)
		return nil
	}
	entry.whole(kind, buf.B)
	bytebufferpool.Put(buf)
	return nil
}
