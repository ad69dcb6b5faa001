// File: protocol/decoder.go
// Package protocol implements the incremental frame decoder.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// The decoder consumes raw byte chunks at arbitrary read boundaries: a
// header or payload may arrive split across any number of Feed calls.
// Partial-frame state is retained between calls until a complete frame is
// available, then decoding resumes on the remainder.

package protocol

import "encoding/binary"

// Decoder turns a byte stream into complete frames. Zero value decodes
// server-to-client traffic with no extensions negotiated; configure the
// fields before the first Feed call.
type Decoder struct {
	// RequireMasked rejects unmasked frames (server side of a connection).
	RequireMasked bool

	// ForbidMasked rejects masked frames (client side of a connection).
	ForbidMasked bool

	// AllowedRsv is the set of RSV bits (Rsv1Bit|Rsv2Bit|Rsv3Bit form)
	// claimed by negotiated extensions. Frames setting any other RSV bit
	// fail with ErrReservedBits.
	AllowedRsv byte

	// MaxFramePayload caps a single frame's payload length. Zero means no
	// frame-level cap; message-level limits are enforced downstream.
	MaxFramePayload int64

	buf []byte
}

// Feed appends p to the retained stream and returns every frame that is
// now complete, in order. Leftover bytes stay buffered for the next call.
// Payloads are unmasked eagerly and copied out of the internal buffer.
func (d *Decoder) Feed(p []byte) ([]*Frame, error) {
	d.buf = append(d.buf, p...)

	var frames []*Frame
	for {
		f, n, err := d.decodeOne(d.buf)
		if err != nil {
			return frames, err
		}
		if f == nil {
			break // incomplete
		}
		frames = append(frames, f)
		d.buf = d.buf[n:]
	}
	if len(d.buf) == 0 {
		d.buf = nil
	}
	return frames, nil
}

// Buffered reports how many unconsumed bytes the decoder is holding.
func (d *Decoder) Buffered() int { return len(d.buf) }

// Reset discards any retained partial-frame state.
func (d *Decoder) Reset() { d.buf = nil }

// decodeOne parses one frame from raw. Returns (nil, 0, nil) when raw does
// not yet hold a complete frame.
func (d *Decoder) decodeOne(raw []byte) (*Frame, int, error) {
	if len(raw) < 2 {
		return nil, 0, nil
	}

	f := &Frame{
		Fin:    raw[0]&FinBit != 0,
		Opcode: raw[0] & 0x0F,
		Masked: raw[1]&MaskBit != 0,
	}
	f.SetRsvBits(raw[0])

	if !IsValidOpcode(f.Opcode) {
		return nil, 0, ErrInvalidOpcode
	}
	if f.RsvBits()&^d.AllowedRsv != 0 {
		return nil, 0, ErrReservedBits
	}
	if f.IsControl() && !f.Fin {
		return nil, 0, ErrControlFragmented
	}
	if d.RequireMasked && !f.Masked {
		return nil, 0, ErrMaskRequired
	}
	if d.ForbidMasked && f.Masked {
		return nil, 0, ErrMaskUnexpected
	}

	length := int64(raw[1] & 0x7F)
	offset := 2

	switch length {
	case 126:
		if len(raw) < offset+2 {
			return nil, 0, nil
		}
		length = int64(binary.BigEndian.Uint16(raw[offset:]))
		offset += 2
	case 127:
		if len(raw) < offset+8 {
			return nil, 0, nil
		}
		v := binary.BigEndian.Uint64(raw[offset:])
		if v&(1<<63) != 0 {
			return nil, 0, ErrInvalidLength
		}
		length = int64(v)
		offset += 8
	}

	if f.IsControl() && length > MaxControlPayloadLen {
		return nil, 0, ErrControlTooLarge
	}
	if d.MaxFramePayload > 0 && length > d.MaxFramePayload {
		return nil, 0, ErrFrameTooLarge
	}

	if f.Masked {
		if len(raw) < offset+4 {
			return nil, 0, nil
		}
		copy(f.MaskKey[:], raw[offset:offset+4])
		offset += 4
	}

	total := int64(offset) + length
	if int64(len(raw)) < total {
		return nil, 0, nil
	}

	payload := make([]byte, length)
	copy(payload, raw[offset:total])
	if f.Masked {
		applyMask(payload, f.MaskKey)
	}
	f.Payload = payload

	return f, int(total), nil
}

// applyMask XORs data in place with the 4-byte mask key. XOR is its own
// inverse, so the same routine masks and unmasks.
func applyMask(data []byte, key [4]byte) {
	for i := range data {
		data[i] ^= key[i&3]
	}
}
