// File: extension/pipeline.go
// Package extension
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Pipeline composition is referentially stable per session: the chain is
// built from the negotiated configuration once and never reconfigured.

package extension

import (
	"errors"
	"io"

	"github.com/momentics/wscore/protocol"
)

// ErrAlreadyBound flags a second Bind call on a pipeline.
var ErrAlreadyBound = errors.New("extension: pipeline already bound")

// ErrNotBound flags frame traffic before terminals are attached.
var ErrNotBound = errors.New("extension: pipeline not bound")

// Pipeline is the ordered, bidirectional extension chain of one session.
type Pipeline struct {
	exts    []Extension
	inHead  FrameSink
	outHead FrameSink
	bound   bool
}

// NewPipeline resolves every negotiated config through the registry, in
// order. Any unknown extension or rejected parameter fails construction;
// no session should be created from the failed negotiation.
func NewPipeline(reg *Registry, cfgs []protocol.ExtensionConfig) (*Pipeline, error) {
	p := &Pipeline{}
	for _, cfg := range cfgs {
		ext, err := reg.New(cfg)
		if err != nil {
			return nil, err
		}
		p.exts = append(p.exts, ext)
	}
	return p, nil
}

// Bind attaches the terminal sinks and freezes the chain. incoming is the
// stage after the last incoming transform (the message assembler);
// outgoing is the stage after the last outgoing transform (the encoder).
func (p *Pipeline) Bind(incoming, outgoing FrameSink) error {
	if p.bound {
		return ErrAlreadyBound
	}
	p.inHead = incoming
	p.outHead = outgoing
	// Chain stages back to front so each stage's next sink is ready when
	// the stage in front of it is built.
	for i := len(p.exts) - 1; i >= 0; i-- {
		ext, in, out := p.exts[i], p.inHead, p.outHead
		p.inHead = FrameSinkFunc(func(f *protocol.Frame) error {
			return ext.OnIncoming(f, in)
		})
		p.outHead = FrameSinkFunc(func(f *protocol.Frame) error {
			return ext.OnOutgoing(f, out)
		})
	}
	p.bound = true
	return nil
}

// HandleIncoming pushes one decoded frame through the incoming chain.
func (p *Pipeline) HandleIncoming(f *protocol.Frame) error {
	if !p.bound {
		return ErrNotBound
	}
	return p.inHead.HandleFrame(f)
}

// HandleOutgoing pushes one outbound frame through the outgoing chain.
func (p *Pipeline) HandleOutgoing(f *protocol.Frame) error {
	if !p.bound {
		return ErrNotBound
	}
	return p.outHead.HandleFrame(f)
}

// ClaimedRsv returns the union of RSV bits claimed by the negotiated
// extensions, for decoder configuration.
func (p *Pipeline) ClaimedRsv() byte {
	var b byte
	for _, ext := range p.exts {
		b |= ext.RsvBits()
	}
	return b
}

// Names lists the negotiated extension names in order.
func (p *Pipeline) Names() []string {
	names := make([]string, len(p.exts))
	for i, ext := range p.exts {
		names[i] = ext.Name()
	}
	return names
}

// Close releases per-connection extension state.
func (p *Pipeline) Close() error {
	var first error
	for _, ext := range p.exts {
		if c, ok := ext.(io.Closer); ok {
			if err := c.Close(); err != nil && first == nil {
				first = err
			}
		}
	}
	return first
}
