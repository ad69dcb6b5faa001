// File: session/utf8.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package session

import "unicode/utf8"

// utf8Validator checks text payloads incrementally so a multi-byte
// rune split across fragment boundaries is still accepted, while an
// invalid sequence is rejected as soon as it is complete enough to
// judge. At most utf8.UTFMax-1 bytes are carried between calls.
type utf8Validator struct {
	pending [utf8.UTFMax]byte
	n       int
}

func (v *utf8Validator) reset() { v.n = 0 }

// feed consumes the next chunk and reports whether everything seen so
// far is still a valid UTF-8 prefix.
func (v *utf8Validator) feed(p []byte) bool {
	if v.n > 0 {
		for len(p) > 0 && !utf8.FullRune(v.pending[:v.n]) && v.n < len(v.pending) {
			v.pending[v.n] = p[0]
			v.n++
			p = p[1:]
		}
		if !utf8.FullRune(v.pending[:v.n]) {
			if v.n == len(v.pending) {
				return false
			}
			return true
		}
		r, size := utf8.DecodeRune(v.pending[:v.n])
		if r == utf8.RuneError && size <= 1 {
			return false
		}
		if size != v.n {
			return false
		}
		v.n = 0
	}

	cut := incompleteTail(p)
	if cut < 0 {
		return false
	}
	if !utf8.Valid(p[:cut]) {
		return false
	}
	v.n = copy(v.pending[:], p[cut:])
	return true
}

// final reports whether the message ended on a rune boundary.
func (v *utf8Validator) final() bool {
	ok := v.n == 0
	v.n = 0
	return ok
}

// incompleteTail returns the index where a trailing incomplete rune
// begins, len(p) when the chunk ends on a rune boundary, or -1 when
// the tail cannot be completed by any continuation bytes.
func incompleteTail(p []byte) int {
	n := len(p)
	for i := n - 1; i >= 0 && i >= n-utf8.UTFMax; i-- {
		b := p[i]
		if b < 0x80 {
			return n
		}
		if b >= 0xC0 {
			need := runeLenFromStart(b)
			if need < 0 {
				return -1
			}
			if i+need > n {
				return i
			}
			return n
		}
		// continuation byte, keep walking back to the start byte
	}
	if n > utf8.UTFMax {
		// four or more continuation bytes in a row
		return -1
	}
	return n
}

func runeLenFromStart(b byte) int {
	switch {
	case b >= 0xF5:
		return -1
	case b >= 0xF0:
		return 4
	case b >= 0xE0:
		return 3
	case b >= 0xC2:
		return 2
	default:
		// 0xC0 and 0xC1 are overlong starts
		return -1
	}
}
