// File: wstest/harness.go
// Package wstest
// Author: momentics <momentics@gmail.com>
//
// Interop test harness. A Harness plays the client side of a
// negotiated connection: raw server-to-client hex chunks are fed
// straight into the session, and everything the session writes back is
// captured for frame-level assertions. Chunk boundaries are arbitrary,
// so fixtures can exercise any split of the byte stream.

package wstest

import (
	"encoding/hex"
	"strings"
	"testing"

	"github.com/momentics/wscore/api"
	"github.com/momentics/wscore/fake"
	"github.com/momentics/wscore/protocol"
	"github.com/momentics/wscore/session"
)

// Message is one application message observed by the harness.
type Message struct {
	Kind    api.MessageKind
	Payload []byte
}

// Harness wraps a client-role session over a fake transport.
type Harness struct {
	t         *testing.T
	Session   *session.Session
	Transport *fake.Transport
	messages  []Message
}

// New builds a harness whose session has negotiated the given
// Sec-WebSocket-Extensions value, for example
// "permessage-deflate; client_max_window_bits". An empty string means
// no extensions.
func New(t *testing.T, extensions string) *Harness {
	t.Helper()
	var cfgs []protocol.ExtensionConfig
	if extensions != "" {
		parsed, err := protocol.ParseExtensionList(extensions)
		if err != nil {
			t.Fatalf("parse extension list %q: %v", extensions, err)
		}
		cfgs = parsed
	}

	tr := fake.NewTransport()
	s, err := session.New(session.Options{
		Transport:  tr,
		Extensions: cfgs,
		Client:     true,
	})
	if err != nil {
		t.Fatalf("session.New: %v", err)
	}
	t.Cleanup(s.Abort)

	h := &Harness{t: t, Session: s, Transport: tr}
	if err := s.HandleWhole(api.KindText, h.capture); err != nil {
		t.Fatalf("register text handler: %v", err)
	}
	if err := s.HandleWhole(api.KindBinary, h.capture); err != nil {
		t.Fatalf("register binary handler: %v", err)
	}
	return h
}

func (h *Harness) capture(kind api.MessageKind, payload []byte) {
	h.messages = append(h.messages, Message{Kind: kind, Payload: append([]byte(nil), payload...)})
}

// ParseHex decodes a hex fixture, ignoring whitespace and 0x prefixes.
func ParseHex(t *testing.T, s string) []byte {
	t.Helper()
	clean := strings.NewReplacer(" ", "", "\t", "", "\n", "", "0x", "").Replace(s)
	raw, err := hex.DecodeString(clean)
	if err != nil {
		t.Fatalf("bad hex fixture %q: %v", s, err)
	}
	return raw
}

// FeedHex pushes each hex chunk into the session in order and fails
// the test on any protocol error.
func (h *Harness) FeedHex(chunks ...string) {
	h.t.Helper()
	for i, c := range chunks {
		if err := h.Session.Receive(ParseHex(h.t, c)); err != nil {
			h.t.Fatalf("chunk %d rejected: %v", i, err)
		}
	}
}

// FeedHexExpectError pushes chunks until one is rejected and returns
// the error. It fails the test when every chunk is accepted.
func (h *Harness) FeedHexExpectError(chunks ...string) error {
	h.t.Helper()
	for _, c := range chunks {
		if err := h.Session.Receive(ParseHex(h.t, c)); err != nil {
			return err
		}
	}
	h.t.Fatal("every chunk accepted, expected a protocol error")
	return nil
}

// Messages returns the application messages dispatched so far.
func (h *Harness) Messages() []Message { return h.messages }

// ExpectMessages asserts the exact sequence of dispatched payloads.
func (h *Harness) ExpectMessages(want ...string) {
	h.t.Helper()
	if len(h.messages) != len(want) {
		h.t.Fatalf("dispatched %d messages, want %d", len(h.messages), len(want))
	}
	for i, m := range h.messages {
		if string(m.Payload) != want[i] {
			h.t.Fatalf("message %d = %q, want %q", i, m.Payload, want[i])
		}
	}
}

// WrittenFrames decodes everything the session has written back. The
// harness session is a client, so its output is masked on the wire.
func (h *Harness) WrittenFrames() []*protocol.Frame {
	h.t.Helper()
	dec := protocol.Decoder{RequireMasked: true}
	frames, err := dec.Feed(h.Transport.Bytes())
	if err != nil {
		h.t.Fatalf("decode session output: %v", err)
	}
	return frames
}
