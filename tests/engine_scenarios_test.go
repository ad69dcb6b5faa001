// File: tests/engine_scenarios_test.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Cross-package scenarios exercising the whole engine stack: framing,
// extension chains, session lifecycle, and the interop harness together.

package tests

import (
	"strings"
	"testing"

	"github.com/momentics/wscore/api"
	"github.com/momentics/wscore/extension"
	"github.com/momentics/wscore/fake"
	"github.com/momentics/wscore/protocol"
	"github.com/momentics/wscore/session"
	"github.com/momentics/wscore/wstest"
)

func relay(t *testing.T, from *fake.Transport, to *session.Session) {
	t.Helper()
	raw := from.Bytes()
	from.Reset()
	if len(raw) == 0 {
		return
	}
	if err := to.Receive(raw); err != nil {
		t.Fatalf("relay: %v", err)
	}
}

// A fragment stage in front of permessage-deflate must split frames the
// deflate stage already compressed, and the receiving chain must undo
// both transforms regardless of how the wire bytes are chunked.
func TestChainedFragmentAndDeflate(t *testing.T) {
	const chain = "permessage-deflate; client_no_context_takeover, fragment; maxLength=16"
	cfgs, err := protocol.ParseExtensionList(chain)
	if err != nil {
		t.Fatalf("ParseExtensionList: %v", err)
	}
	if len(cfgs) != 2 || cfgs[0].Name() != extension.PermessageDeflateName {
		t.Fatalf("parsed %v", cfgs)
	}

	ctr, str := fake.NewTransport(), fake.NewTransport()
	client, err := session.New(session.Options{Transport: ctr, Extensions: cfgs, Client: true})
	if err != nil {
		t.Fatalf("client New: %v", err)
	}
	defer client.Abort()
	server, err := session.New(session.Options{Transport: str, Extensions: cfgs})
	if err != nil {
		t.Fatalf("server New: %v", err)
	}
	defer server.Abort()

	var got []byte
	server.HandleWhole(api.KindText, func(_ api.MessageKind, p []byte) {
		got = append([]byte(nil), p...)
	})

	msg := strings.Repeat("the quick brown fox ", 40)
	if err := client.SendText([]byte(msg)); err != nil {
		t.Fatalf("SendText: %v", err)
	}

	// the fragment stage ran last, so the wire carries a fragment train
	dec := protocol.Decoder{RequireMasked: true}
	frames, derr := dec.Feed(ctr.Bytes())
	if derr != nil {
		t.Fatalf("decode wire: %v", derr)
	}
	if len(frames) < 2 {
		t.Fatalf("wire carried %d frames, expected a fragment train", len(frames))
	}
	if !frames[0].Rsv1 {
		t.Fatal("first wire fragment lost the deflate rsv1 bit")
	}

	relay(t, ctr, server)
	if string(got) != msg {
		t.Fatalf("server assembled %d bytes, want %d", len(got), len(msg))
	}
}

// Unknown extension names must fail negotiation before any session
// state exists.
func TestUnknownExtensionFailsNegotiation(t *testing.T) {
	cfgs, err := protocol.ParseExtensionList("x-webkit-deflate-frame")
	if err != nil {
		t.Fatalf("ParseExtensionList: %v", err)
	}
	_, err = session.New(session.Options{Transport: fake.NewTransport(), Extensions: cfgs})
	if api.CodeOf(err) != api.ErrCodeNegotiation {
		t.Fatalf("New = %v", err)
	}
}

// A server can sweep its registry and close every tracked session with
// one bounded pass.
func TestRegistrySweepClosesEverySession(t *testing.T) {
	reg := session.NewRegistry(8)
	transports := make([]*fake.Transport, 5)
	for i := range transports {
		transports[i] = fake.NewTransport()
		s, err := session.New(session.Options{Transport: transports[i]})
		if err != nil {
			t.Fatalf("New: %v", err)
		}
		if err := reg.Add(s); err != nil {
			t.Fatalf("Add: %v", err)
		}
	}

	reg.Range(func(s *session.Session) {
		s.Abort()
		reg.Remove(s.ID())
	})
	if reg.Len() != 0 {
		t.Fatalf("registry still tracks %d sessions", reg.Len())
	}
	for i, tr := range transports {
		if !tr.Closed() {
			t.Fatalf("transport %d left open", i)
		}
	}
}

// The harness must reproduce the deflate interop fixture even when the
// frame arrives one byte at a time.
func TestHarnessDeflateFixtureBytewise(t *testing.T) {
	h := wstest.New(t, "permessage-deflate")
	raw := wstest.ParseHex(t, "c1 07 f2 48 cd c9 c9 07 00")
	for _, b := range raw {
		if err := h.Session.Receive([]byte{b}); err != nil {
			t.Fatalf("Receive: %v", err)
		}
	}
	h.ExpectMessages("Hello")
}

// Abandoning a session mid-fragment and aborting must not leak into a
// fresh session reusing the same pools.
func TestAbortMidFragmentThenFreshSession(t *testing.T) {
	tr := fake.NewTransport()
	s, err := session.New(session.Options{Transport: tr})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	enc := protocol.Encoder{Mask: true}
	raw, _ := enc.Encode(&protocol.Frame{Opcode: protocol.OpcodeText, Payload: []byte("dangli")})
	if err := s.Receive(raw); err != nil {
		t.Fatalf("Receive: %v", err)
	}
	s.Abort()

	h := wstest.New(t, "")
	h.FeedHex("81 05 48 65 6c 6c 6f")
	h.ExpectMessages("Hello")
}
