// File: protocol/encoder.go
// Package protocol implements frame serialization.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Encoding mirrors decoding: the minimal length-indicator form is always
// chosen, control frame constraints are enforced before any byte is
// produced, and masking is applied to a copy so the caller's payload is
// never mutated.

package protocol

import (
	"encoding/binary"
	"math/rand"
)

// Encoder serializes frames. A client-side encoder sets Mask so every
// outbound frame carries a fresh mask key; server-side encoders leave it
// unset.
type Encoder struct {
	// Mask controls whether outbound frames are masked.
	Mask bool

	// Rand supplies mask keys. Nil falls back to the shared math/rand
	// source.
	Rand *rand.Rand
}

// Encode serializes f into a fresh byte slice.
func (e *Encoder) Encode(f *Frame) ([]byte, error) {
	return e.AppendEncode(nil, f)
}

// AppendEncode serializes f, appending to dst and returning the extended
// slice. dst may be nil.
func (e *Encoder) AppendEncode(dst []byte, f *Frame) ([]byte, error) {
	if !IsValidOpcode(f.Opcode) {
		return nil, ErrInvalidOpcode
	}
	if f.IsControl() {
		if !f.Fin {
			return nil, ErrControlFragmented
		}
		if len(f.Payload) > MaxControlPayloadLen {
			return nil, ErrControlTooLarge
		}
	}

	b0 := f.Opcode & 0x0F
	if f.Fin {
		b0 |= FinBit
	}
	b0 |= f.RsvBits()

	var maskBit byte
	if e.Mask {
		maskBit = MaskBit
	}

	plen := len(f.Payload)
	switch {
	case plen <= 125:
		dst = append(dst, b0, byte(plen)|maskBit)
	case plen <= 0xFFFF:
		var ext [2]byte
		binary.BigEndian.PutUint16(ext[:], uint16(plen))
		dst = append(dst, b0, 126|maskBit, ext[0], ext[1])
	default:
		var ext [8]byte
		binary.BigEndian.PutUint64(ext[:], uint64(plen))
		dst = append(dst, b0, 127|maskBit)
		dst = append(dst, ext[:]...)
	}

	if !e.Mask {
		return append(dst, f.Payload...), nil
	}

	key := e.maskKey()
	dst = append(dst, key[:]...)
	start := len(dst)
	dst = append(dst, f.Payload...)
	applyMask(dst[start:], key)
	return dst, nil
}

func (e *Encoder) maskKey() [4]byte {
	var key [4]byte
	if e.Rand != nil {
		binary.LittleEndian.PutUint32(key[:], e.Rand.Uint32())
	} else {
		binary.LittleEndian.PutUint32(key[:], rand.Uint32())
	}
	return key
}
