package protocol_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/momentics/wscore/protocol"
)

func TestParseClosePayload(t *testing.T) {
	r, err := protocol.ParseClosePayload(nil)
	if err != nil || r.Code != protocol.CloseNoStatusRcvd {
		t.Errorf("empty payload: %+v, %v", r, err)
	}

	if _, err := protocol.ParseClosePayload([]byte{0x03}); !errors.Is(err, protocol.ErrInvalidClosePayload) {
		t.Errorf("one-byte payload: err = %v", err)
	}

	r, err = protocol.ParseClosePayload([]byte{0x03, 0xE8, 'b', 'y', 'e'})
	if err != nil {
		t.Fatal(err)
	}
	if r.Code != protocol.CloseNormalClosure || r.Reason != "bye" {
		t.Errorf("got %+v", r)
	}

	// Reason must be valid UTF-8.
	if _, err := protocol.ParseClosePayload([]byte{0x03, 0xE8, 0xFF, 0xFE}); !errors.Is(err, protocol.ErrInvalidCloseReason) {
		t.Errorf("invalid utf-8 reason: err = %v", err)
	}
}

func TestCloseCodeRanges(t *testing.T) {
	valid := []int{1000, 1001, 1002, 1003, 1007, 1008, 1009, 1010, 1011, 3000, 4000, 4999}
	for _, c := range valid {
		if !protocol.IsValidCloseCode(c) {
			t.Errorf("code %d should be valid", c)
		}
	}
	invalid := []int{0, 999, 1004, 1005, 1006, 1100, 2999, 5000}
	for _, c := range invalid {
		if protocol.IsValidCloseCode(c) {
			t.Errorf("code %d should be invalid", c)
		}
	}
}

func TestCloseReasonPayloadRoundTrip(t *testing.T) {
	in := protocol.CloseReason{Code: 1000, Reason: "done"}
	p, err := in.Payload()
	if err != nil {
		t.Fatal(err)
	}
	out, err := protocol.ParseClosePayload(p)
	if err != nil {
		t.Fatal(err)
	}
	if out != in {
		t.Errorf("round trip: %+v != %+v", out, in)
	}
}

func TestCloseReasonTooLong(t *testing.T) {
	r := protocol.CloseReason{Code: 1000, Reason: strings.Repeat("x", 124)}
	if _, err := r.Payload(); !errors.Is(err, protocol.ErrInvalidCloseReason) {
		t.Errorf("overlong reason: err = %v", err)
	}
}
