package extension_test

import (
	"bytes"
	"errors"
	"testing"

	"github.com/momentics/wscore/api"
	"github.com/momentics/wscore/extension"
	"github.com/momentics/wscore/protocol"
)

// capture collects every frame a chain emits.
type capture struct {
	frames []*protocol.Frame
}

func (c *capture) HandleFrame(f *protocol.Frame) error {
	cp := *f
	cp.Payload = append([]byte(nil), f.Payload...)
	c.frames = append(c.frames, &cp)
	return nil
}

// tagging appends its tag to incoming payloads and strips it from
// outgoing payloads, making traversal order observable.
type tagging struct{ tag byte }

func (e *tagging) Name() string  { return "tag" }
func (e *tagging) RsvBits() byte { return 0 }

func (e *tagging) OnIncoming(f *protocol.Frame, next extension.FrameSink) error {
	f.Payload = append(f.Payload, e.tag)
	return next.HandleFrame(f)
}

func (e *tagging) OnOutgoing(f *protocol.Frame, next extension.FrameSink) error {
	if n := len(f.Payload); n > 0 && f.Payload[n-1] == e.tag {
		f.Payload = f.Payload[:n-1]
	}
	return next.HandleFrame(f)
}

func taggingFactory(tag byte) extension.Factory {
	return func(protocol.ExtensionConfig) (extension.Extension, error) {
		return &tagging{tag: tag}, nil
	}
}

func mustConfigs(t *testing.T, s string) []protocol.ExtensionConfig {
	t.Helper()
	cfgs, err := protocol.ParseExtensionList(s)
	if err != nil {
		t.Fatal(err)
	}
	return cfgs
}

func TestPipelineOrderInvariance(t *testing.T) {
	reg := extension.NewRegistry()
	reg.Register("tagA", taggingFactory('A'))
	reg.Register("tagB", taggingFactory('B'))

	p, err := extension.NewPipeline(reg, mustConfigs(t, "tagA, tagB"))
	if err != nil {
		t.Fatal(err)
	}
	var in, out capture
	if err := p.Bind(&in, &out); err != nil {
		t.Fatal(err)
	}

	// Incoming: A then B.
	if err := p.HandleIncoming(protocol.NewTextFrame([]byte("x"))); err != nil {
		t.Fatal(err)
	}
	if got := string(in.frames[0].Payload); got != "xAB" {
		t.Errorf("incoming order: payload = %q, want xAB", got)
	}

	// Outgoing: same declared order, each stage undoing its own
	// incoming transform.
	if err := p.HandleOutgoing(protocol.NewTextFrame([]byte("yAB"))); err != nil {
		t.Fatal(err)
	}
	if got := string(out.frames[0].Payload); got != "y" {
		t.Errorf("outgoing inversion: payload = %q, want y", got)
	}
}

func TestPipelineUnknownExtension(t *testing.T) {
	reg := extension.NewRegistry()
	_, err := extension.NewPipeline(reg, mustConfigs(t, "no-such-ext"))
	if !errors.Is(err, api.ErrNoSuchExtension) {
		t.Errorf("err = %v", err)
	}
	if api.CodeOf(err) != api.ErrCodeNegotiation {
		t.Errorf("code = %v", api.CodeOf(err))
	}
}

func TestPipelineBindOnce(t *testing.T) {
	p, err := extension.NewPipeline(extension.NewRegistry(), nil)
	if err != nil {
		t.Fatal(err)
	}
	var in, out capture
	if err := p.Bind(&in, &out); err != nil {
		t.Fatal(err)
	}
	if err := p.Bind(&in, &out); !errors.Is(err, extension.ErrAlreadyBound) {
		t.Errorf("second bind: err = %v", err)
	}
}

func TestPipelineUnboundRejectsTraffic(t *testing.T) {
	p, _ := extension.NewPipeline(extension.NewRegistry(), nil)
	if err := p.HandleIncoming(protocol.NewTextFrame(nil)); !errors.Is(err, extension.ErrNotBound) {
		t.Errorf("err = %v", err)
	}
}

func TestIdentityExtensionPassThrough(t *testing.T) {
	p, err := extension.NewPipeline(extension.NewRegistry(), mustConfigs(t, "identity; foo=bar"))
	if err != nil {
		t.Fatal(err)
	}
	var in, out capture
	if err := p.Bind(&in, &out); err != nil {
		t.Fatal(err)
	}
	payload := []byte("untouched")
	if err := p.HandleIncoming(protocol.NewBinaryFrame(payload)); err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(in.frames[0].Payload, payload) {
		t.Error("identity modified the payload")
	}
	if p.ClaimedRsv() != 0 {
		t.Error("identity must not claim rsv bits")
	}
}

func TestFragmentExtensionSplitsOutgoing(t *testing.T) {
	p, err := extension.NewPipeline(extension.NewRegistry(), mustConfigs(t, "fragment; maxLength=4"))
	if err != nil {
		t.Fatal(err)
	}
	var in, out capture
	if err := p.Bind(&in, &out); err != nil {
		t.Fatal(err)
	}

	if err := p.HandleOutgoing(protocol.NewTextFrame([]byte("Hello World"))); err != nil {
		t.Fatal(err)
	}
	if len(out.frames) != 3 {
		t.Fatalf("expected 3 fragments, got %d", len(out.frames))
	}
	first, mid, last := out.frames[0], out.frames[1], out.frames[2]
	if first.Opcode != protocol.OpcodeText || first.Fin {
		t.Errorf("first fragment: %+v", first)
	}
	if mid.Opcode != protocol.OpcodeContinuation || mid.Fin {
		t.Errorf("middle fragment: %+v", mid)
	}
	if last.Opcode != protocol.OpcodeContinuation || !last.Fin {
		t.Errorf("last fragment: %+v", last)
	}
	joined := string(first.Payload) + string(mid.Payload) + string(last.Payload)
	if joined != "Hello World" {
		t.Errorf("joined = %q", joined)
	}

	// Control frames are never split.
	out.frames = nil
	ping := protocol.NewControlFrame(protocol.OpcodePing, []byte("keepalive"))
	if err := p.HandleOutgoing(ping); err != nil {
		t.Fatal(err)
	}
	if len(out.frames) != 1 {
		t.Errorf("control frame split into %d frames", len(out.frames))
	}
}

func TestFragmentExtensionRejectsBadConfig(t *testing.T) {
	reg := extension.NewRegistry()
	for _, s := range []string{"fragment", "fragment; maxLength=zero", "fragment; maxLength=0"} {
		if _, err := extension.NewPipeline(reg, mustConfigs(t, s)); err == nil {
			t.Errorf("%q: expected negotiation error", s)
		}
	}
}
