// File: wstest/harness_test.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package wstest_test

import (
	"testing"

	"github.com/momentics/wscore/api"
	"github.com/momentics/wscore/protocol"
	"github.com/momentics/wscore/wstest"
)

func TestPlainTextFixture(t *testing.T) {
	h := wstest.New(t, "")
	h.FeedHex("81 05 48 65 6c 6c 6f")
	h.ExpectMessages("Hello")
	if h.Messages()[0].Kind != api.KindText {
		t.Fatalf("kind = %v", h.Messages()[0].Kind)
	}
}

func TestFixtureSplitAcrossChunks(t *testing.T) {
	h := wstest.New(t, "")
	h.FeedHex("81", "05 48 65", "6c 6c 6f")
	h.ExpectMessages("Hello")
}

func TestDeflateFixture(t *testing.T) {
	// the RFC 7692 section 7.2.3.1 compressed "Hello" example
	h := wstest.New(t, "permessage-deflate")
	h.FeedHex("c1 07 f2 48 cd c9 c9 07 00")
	h.ExpectMessages("Hello")
}

func TestDeflateFixtureWithParameters(t *testing.T) {
	h := wstest.New(t, "permessage-deflate; server_no_context_takeover; client_max_window_bits=15")
	h.FeedHex("c1 07 f2 48 cd c9 c9 07 00")
	h.ExpectMessages("Hello")
}

func TestUnclaimedRsvBitRejected(t *testing.T) {
	h := wstest.New(t, "")
	err := h.FeedHexExpectError("c1 05 48 65 6c 6c 6f")
	if api.CodeOf(err) != api.ErrCodeProtocol {
		t.Fatalf("error = %v", err)
	}
}

func TestHarnessCapturesCloseEcho(t *testing.T) {
	h := wstest.New(t, "")
	h.FeedHex("88 02 03 e8") // CLOSE 1000
	frames := h.WrittenFrames()
	if len(frames) != 1 || frames[0].Opcode != protocol.OpcodeClose {
		t.Fatalf("expected CLOSE echo, got %+v", frames)
	}
}
