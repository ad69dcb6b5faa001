// File: extension/deflate.go
// Package extension
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// permessage-deflate (RFC 7692) over RSV1. Compression resets per message
// on both directions (no-context-takeover behavior); the takeover
// parameters are accepted during negotiation so standard clients can
// offer them, and the window-bits parameters are validated to their legal
// 8..15 range.
//
// Fragmented compressed messages are accumulated and emitted as a single
// frame once the final fragment arrives, which keeps every stage behind
// this one free of compression state.

package extension

import (
	"bytes"
	"compress/flate"
	"fmt"
	"io"
	"strconv"

	"github.com/valyala/bytebufferpool"

	"github.com/momentics/wscore/api"
	"github.com/momentics/wscore/protocol"
)

// PermessageDeflateName is the negotiation identifier of the deflate
// extension.
const PermessageDeflateName = "permessage-deflate"

// Negotiation parameter names (RFC 7692 section 7).
const (
	ServerMaxWindowBits     = "server_max_window_bits"
	ClientMaxWindowBits     = "client_max_window_bits"
	ServerNoContextTakeover = "server_no_context_takeover"
	ClientNoContextTakeover = "client_no_context_takeover"
)

// maxInflatedSize caps a single decompressed message so a malicious
// deflate bomb fails before exhausting memory. Message-size policy is
// enforced again, per session, by the assembler.
const maxInflatedSize = 1 << 26 // 64 MiB

// deflateTail is the shared compressed-stream trailer: the four-byte sync
// marker RFC 7692 strips from the wire, followed by a final empty block
// that lets flate readers terminate cleanly.
var deflateTail = []byte{0x00, 0x00, 0xff, 0xff, 0x01, 0x00, 0x00, 0xff, 0xff}

type permessageDeflate struct {
	cfg protocol.ExtensionConfig

	fw *flate.Writer

	// Incoming reassembly state for one in-progress message.
	inActive     bool
	inCompressed bool
	inOpcode     byte
	inParts      []byte

	// Outgoing accumulation state for one in-progress message.
	outActive bool
	outOpcode byte
	outParts  []byte
}

func newPermessageDeflate(cfg protocol.ExtensionConfig) (Extension, error) {
	for _, p := range cfg.Params() {
		switch p.Key {
		case ServerNoContextTakeover, ClientNoContextTakeover:
			if p.Value != "" {
				return nil, fmt.Errorf("parameter %s takes no value", p.Key)
			}
		case ServerMaxWindowBits, ClientMaxWindowBits:
			if p.Value == "" {
				// Bare client_max_window_bits is a legal offer.
				continue
			}
			bits, err := strconv.Atoi(p.Value)
			if err != nil || bits < 8 || bits > 15 {
				return nil, fmt.Errorf("parameter %s=%q out of range", p.Key, p.Value)
			}
		default:
			return nil, fmt.Errorf("unknown parameter %q", p.Key)
		}
	}
	return &permessageDeflate{cfg: cfg}, nil
}

func (e *permessageDeflate) Name() string  { return PermessageDeflateName }
func (e *permessageDeflate) RsvBits() byte { return protocol.Rsv1Bit }

// Config exposes the negotiated parameters.
func (e *permessageDeflate) Config() protocol.ExtensionConfig { return e.cfg }

func (e *permessageDeflate) OnIncoming(f *protocol.Frame, next FrameSink) error {
	if f.IsControl() {
		return next.HandleFrame(f)
	}

	if !e.inActive {
		e.inActive = !f.Fin
		e.inCompressed = f.Rsv1
		e.inOpcode = f.Opcode
		if !f.Rsv1 {
			// Uncompressed message, stream it through.
			if f.Fin {
				e.inActive = false
			}
			return next.HandleFrame(f)
		}
		e.inParts = append(e.inParts[:0], f.Payload...)
	} else {
		if f.Opcode != protocol.OpcodeContinuation || f.Rsv1 {
			return api.WrapError(api.ErrCodeProtocol,
				"unexpected frame inside a compressed message", protocol.ErrReservedBits)
		}
		if !e.inCompressed {
			if f.Fin {
				e.inActive = false
			}
			return next.HandleFrame(f)
		}
		e.inParts = append(e.inParts, f.Payload...)
	}

	if !f.Fin {
		return nil
	}
	e.inActive = false

	payload, err := e.inflate(e.inParts)
	e.inParts = e.inParts[:0]
	if err != nil {
		return err
	}
	return next.HandleFrame(&protocol.Frame{
		Fin:     true,
		Opcode:  e.inOpcode,
		Payload: payload,
	})
}

func (e *permessageDeflate) OnOutgoing(f *protocol.Frame, next FrameSink) error {
	if f.IsControl() {
		return next.HandleFrame(f)
	}

	if !e.outActive {
		e.outOpcode = f.Opcode
		e.outParts = e.outParts[:0]
	}
	e.outParts = append(e.outParts, f.Payload...)
	e.outActive = !f.Fin
	if !f.Fin {
		return nil
	}

	payload, err := e.deflate(e.outParts)
	if err != nil {
		return err
	}
	out := &protocol.Frame{
		Fin:     true,
		Opcode:  e.outOpcode,
		Rsv1:    true,
		Payload: payload,
	}
	return next.HandleFrame(out)
}

// deflate compresses one whole message payload and strips the trailing
// sync marker per RFC 7692 section 7.2.1.
func (e *permessageDeflate) deflate(p []byte) ([]byte, error) {
	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)

	if e.fw == nil {
		fw, err := flate.NewWriter(buf, flate.DefaultCompression)
		if err != nil {
			return nil, err
		}
		e.fw = fw
	} else {
		e.fw.Reset(buf)
	}
	if _, err := e.fw.Write(p); err != nil {
		return nil, err
	}
	if err := e.fw.Flush(); err != nil {
		return nil, err
	}

	b := buf.Bytes()
	if bytes.HasSuffix(b, deflateTail[:4]) {
		b = b[:len(b)-4]
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out, nil
}

// inflate decompresses one whole message, re-appending the stream trailer
// the sender stripped.
func (e *permessageDeflate) inflate(p []byte) ([]byte, error) {
	fr := flate.NewReader(io.MultiReader(bytes.NewReader(p), bytes.NewReader(deflateTail)))
	defer fr.Close()

	out := bytebufferpool.Get()
	defer bytebufferpool.Put(out)

	n, err := io.CopyN(out, fr, maxInflatedSize+1)
	if err != nil && err != io.EOF {
		return nil, fmt.Errorf("permessage-deflate: %w", err)
	}
	if n > maxInflatedSize {
		return nil, api.NewError(api.ErrCodePayloadTooLarge, "inflated message exceeds hard limit")
	}
	payload := make([]byte, out.Len())
	copy(payload, out.Bytes())
	return payload, nil
}
