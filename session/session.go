// File: session/session.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package session

import (
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/momentics/wscore/api"
	"github.com/momentics/wscore/extension"
	"github.com/momentics/wscore/pool"
	"github.com/momentics/wscore/protocol"
)

// Options configures a new Session. Transport is the only mandatory
// field; everything else has a working default.
type Options struct {
	// ID identifies the session in logs and in the Registry. A random
	// id is generated when empty.
	ID string

	// Transport carries encoded frames to the peer. The session only
	// writes it; inbound bytes are pushed in through Receive by the
	// owning read pump.
	Transport api.NetConn

	// Extensions is the negotiated extension chain in declaration
	// order, as parsed from the handshake offer.
	Extensions []protocol.ExtensionConfig

	// ExtensionRegistry resolves extension names to factories. The
	// built-in registry is used when nil.
	ExtensionRegistry *extension.Registry

	// Subprotocol is the application subprotocol selected during the
	// handshake, or empty.
	Subprotocol string

	// PathParams carries the URI template variables of the endpoint
	// that accepted this connection.
	PathParams map[string]string

	// Policy sets the initial runtime limits. DefaultPolicy applies
	// when nil.
	Policy *Policy

	// Pool supplies scratch buffers for the write path.
	Pool api.BytePool

	// Logger is the base logger; session entries carry the session id
	// as a structured field.
	Logger *logrus.Logger

	// Client marks the session as the connection initiator: outgoing
	// frames are masked and incoming frames must not be.
	Client bool

	// OnOpen fires once the session reaches the open state, before
	// New returns.
	OnOpen api.OpenHandler
}

// Session is one WebSocket connection after a completed handshake. It
// is safe for concurrent use: any number of goroutines may send while
// one read pump feeds Receive.
type Session struct {
	id    string
	log   *logrus.Entry
	state atomic.Int32

	// procMu serializes incoming-frame processing, timer callbacks,
	// and terminal transitions driven by them.
	procMu   sync.Mutex
	dec      protocol.Decoder
	pipeline *extension.Pipeline
	asm      *assembler
	handlers *handlerTable

	w *writer

	// outMu serializes outgoing pipeline traversal and the partial
	// send continuation state.
	outMu   sync.Mutex
	outKind api.MessageKind

	policyMu sync.Mutex
	policy   Policy

	idleMu    sync.Mutex
	idleTimer *time.Timer

	closeOnce   sync.Once
	done        chan struct{}
	closeReason protocol.CloseReason
	closeErr    error

	subprotocol string
	pathParams  map[string]string

	propsMu sync.RWMutex
	props   map[string]any
}

// New builds a session over an established transport, resolves the
// negotiated extension chain, and opens the session. It returns a
// negotiation error when an extension is unknown, rejects its
// parameters, or collides on reserved bits.
func New(opts Options) (*Session, error) {
	if opts.Transport == nil {
		return nil, api.NewError(api.ErrCodeInternal, "session requires a transport")
	}
	reg := opts.ExtensionRegistry
	if reg == nil {
		reg = extension.NewRegistry()
	}
	pl, err := extension.NewPipeline(reg, opts.Extensions)
	if err != nil {
		return nil, err
	}

	pol := DefaultPolicy()
	if opts.Policy != nil {
		pol = *opts.Policy
	}
	bp := opts.Pool
	if bp == nil {
		bp = pool.Default()
	}
	lg := opts.Logger
	if lg == nil {
		lg = logrus.StandardLogger()
	}
	id := opts.ID
	if id == "" {
		id = newSessionID()
	}

	s := &Session{
		id:          id,
		log:         lg.WithField("session", id),
		pipeline:    pl,
		handlers:    newHandlerTable(),
		policy:      pol,
		done:        make(chan struct{}),
		subprotocol: opts.Subprotocol,
		pathParams:  opts.PathParams,
		props:       make(map[string]any),
	}
	s.dec = protocol.Decoder{
		RequireMasked:   !opts.Client,
		ForbidMasked:    opts.Client,
		AllowedRsv:      pl.ClaimedRsv(),
		MaxFramePayload: pol.frameCap(),
	}
	s.state.Store(int32(api.SessionOpening))
	s.asm = newAssembler(s)
	s.w = newWriter(opts.Transport, opts.Client, pol.WriteQueueLimit, bp)
	if err := pl.Bind(s.asm, s.w); err != nil {
		return nil, err
	}

	s.state.Store(int32(api.SessionOpen))
	s.log.WithFields(logrus.Fields{
		"extensions":  pl.Names(),
		"subprotocol": opts.Subprotocol,
		"client":      opts.Client,
	}).Info("session open")
	s.armIdleTimer()
	if opts.OnOpen != nil {
		opts.OnOpen()
	}
	return s, nil
}

func newSessionID() string {
	return fmt.Sprintf("%016x", rand.Uint64())
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// Status returns the current lifecycle state.
func (s *Session) Status() api.SessionStatus {
	return api.SessionStatus(s.state.Load())
}

// Subprotocol returns the negotiated application subprotocol, or "".
func (s *Session) Subprotocol() string { return s.subprotocol }

// Extensions returns the names of the negotiated extension chain in
// pipeline order.
func (s *Session) Extensions() []string { return s.pipeline.Names() }

// PathParam returns one URI template variable of the endpoint.
func (s *Session) PathParam(name string) (string, bool) {
	v, ok := s.pathParams[name]
	return v, ok
}

// Done is closed when the session reaches the closed state.
func (s *Session) Done() <-chan struct{} { return s.done }

// CloseInfo reports the close status after Done is closed. Before that
// it returns a zero reason.
func (s *Session) CloseInfo() (protocol.CloseReason, error) {
	select {
	case <-s.done:
		return s.closeReason, s.closeErr
	default:
		return protocol.CloseReason{}, nil
	}
}

// Property returns a user property stored on the session.
func (s *Session) Property(key string) (any, bool) {
	s.propsMu.RLock()
	defer s.propsMu.RUnlock()
	v, ok := s.props[key]
	return v, ok
}

// SetProperty stores a user property on the session.
func (s *Session) SetProperty(key string, value any) {
	s.propsMu.Lock()
	s.props[key] = value
	s.propsMu.Unlock()
}

func (s *Session) casStatus(from, to api.SessionStatus) bool {
	return s.state.CompareAndSwap(int32(from), int32(to))
}

func (s *Session) currentPolicy() Policy {
	s.policyMu.Lock()
	defer s.policyMu.Unlock()
	return s.policy
}

// Policy returns a snapshot of the current limits.
func (s *Session) Policy() Policy { return s.currentPolicy() }

// SetIdleTimeout changes the idle limit and re-arms the timer. Zero
// disables idle enforcement.
func (s *Session) SetIdleTimeout(d time.Duration) {
	s.policyMu.Lock()
	s.policy.IdleTimeout = d
	s.policyMu.Unlock()
	s.armIdleTimer()
}

// SetMaxTextMessageSize changes the assembled text message cap.
func (s *Session) SetMaxTextMessageSize(n int64) {
	s.policyMu.Lock()
	s.policy.MaxTextMessageSize = n
	s.policyMu.Unlock()
}

// SetMaxBinaryMessageSize changes the assembled binary message cap.
func (s *Session) SetMaxBinaryMessageSize(n int64) {
	s.policyMu.Lock()
	s.policy.MaxBinaryMessageSize = n
	s.policyMu.Unlock()
}

// HandleWhole registers the whole-message consumer for kind. A second
// registration for the same kind fails with a registration error.
func (s *Session) HandleWhole(kind api.MessageKind, h api.WholeMessageHandler) error {
	return s.handlers.register(kind, handlerEntry{mode: api.DispatchWhole, whole: h}, false)
}

// HandlePartial registers the per-fragment consumer for kind.
func (s *Session) HandlePartial(kind api.MessageKind, h api.PartialMessageHandler) error {
	return s.handlers.register(kind, handlerEntry{mode: api.DispatchPartial, partial: h}, false)
}

// ReplaceWhole swaps the consumer for kind, overwriting any earlier
// registration. A message already being assembled keeps dispatching to
// the entry captured at its first frame.
func (s *Session) ReplaceWhole(kind api.MessageKind, h api.WholeMessageHandler) error {
	return s.handlers.register(kind, handlerEntry{mode: api.DispatchWhole, whole: h}, true)
}

// ReplacePartial swaps the per-fragment consumer for kind.
func (s *Session) ReplacePartial(kind api.MessageKind, h api.PartialMessageHandler) error {
	return s.handlers.register(kind, handlerEntry{mode: api.DispatchPartial, partial: h}, true)
}

// OnError installs the terminal error observer.
func (s *Session) OnError(h api.ErrorHandler) { s.handlers.setError(h) }

// OnClose installs the close observer.
func (s *Session) OnClose(h api.CloseHandler) { s.handlers.setClose(h) }

// OnPong installs the PONG observer.
func (s *Session) OnPong(h api.PongHandler) { s.handlers.setPong(h) }

// Receive feeds raw bytes from the transport into the session. Chunks
// may split or merge frames arbitrarily; decoded frames run through the
// incoming extension pipeline and the assembler in arrival order. A
// protocol violation fails the connection and is also returned.
func (s *Session) Receive(p []byte) error {
	s.procMu.Lock()
	defer s.procMu.Unlock()
	if s.Status() == api.SessionClosed {
		return api.ErrSessionClosed
	}
	s.armIdleTimer()

	frames, derr := s.dec.Feed(p)
	for _, f := range frames {
		if err := s.pipeline.HandleIncoming(f); err != nil {
			s.failConnection(err)
			return err
		}
		if s.Status() == api.SessionClosed {
			return nil
		}
	}
	if derr != nil {
		code := api.ErrCodeProtocol
		if errors.Is(derr, protocol.ErrFrameTooLarge) {
			code = api.ErrCodePayloadTooLarge
		}
		err := api.WrapError(code, "frame decode failed", derr)
		s.failConnection(err)
		return err
	}
	return nil
}

// handleControl consumes a control frame surfaced by the assembler.
// Runs with procMu held.
func (s *Session) handleControl(f *protocol.Frame) error {
	switch f.Opcode {
	case protocol.OpcodePing:
		if s.Status() == api.SessionOpen {
			if err := s.writeFrame(protocol.NewControlFrame(protocol.OpcodePong, f.Payload)); err != nil {
				s.log.WithError(err).Debug("pong write failed")
			}
		}
	case protocol.OpcodePong:
		if h := s.handlers.pongHandler(); h != nil {
			h(f.Payload)
		}
	case protocol.OpcodeClose:
		return s.onCloseFrame(f)
	}
	return nil
}

// onCloseFrame runs the receiving half of the close handshake. Runs
// with procMu held.
func (s *Session) onCloseFrame(f *protocol.Frame) error {
	reason, err := protocol.ParseClosePayload(f.Payload)
	if err != nil {
		return api.WrapError(api.ErrCodeProtocol, "malformed close frame", err)
	}
	switch s.Status() {
	case api.SessionOpen:
		// peer-initiated: echo the status code, flush, then shut the
		// write side before tearing down
		s.state.Store(int32(api.SessionOutClosing))
		echo := protocol.CloseReason{Code: reason.Code}
		if reason.Code == protocol.CloseNoStatusRcvd {
			echo = protocol.CloseReason{}
		}
		if werr := s.sendCloseFrame(echo); werr != nil {
			s.log.WithError(werr).Debug("close echo write failed")
		}
		_ = s.w.drain()
		s.closeWriteSide()
		s.finish(reason, nil)
	case api.SessionOutClosing:
		// the peer's echo completes our own close handshake
		s.finish(reason, nil)
	}
	return nil
}

// Close performs the orderly close handshake: it sends a CLOSE frame,
// flushes the write queue, and blocks until the peer's echo arrives or
// the idle timeout plus the close grace elapses. The bound makes Close
// always return nil; if the echo never comes the connection is torn
// down and the timeout surfaces through the error and close observers,
// not the return value. A malformed reason is rejected synchronously
// and leaves the session untouched. Closing an already closed session
// is a no-op.
func (s *Session) Close(reason protocol.CloseReason) error {
	f, err := protocol.NewCloseFrame(reason)
	if err != nil {
		return api.WrapError(api.ErrCodeProtocol, "invalid close reason", err)
	}
	if s.casStatus(api.SessionOpen, api.SessionOutClosing) ||
		s.casStatus(api.SessionOpening, api.SessionOutClosing) {
		s.log.WithField("code", reason.Code).Debug("close initiated")
		if werr := s.writeFrame(f); werr != nil {
			s.finish(reason, nil)
			return nil
		}
		_ = s.w.drain()
	}
	if s.Status() == api.SessionClosed {
		return nil
	}

	t := time.NewTimer(s.currentPolicy().closeDeadline())
	defer t.Stop()
	select {
	case <-s.done:
	case <-t.C:
		s.finish(reason, api.WrapError(api.ErrCodeTimeout, "close handshake timed out", api.ErrOperationTimeout))
	}
	return nil
}

// Abort tears the session down immediately with no close handshake.
// Safe to call from any state, any number of times.
func (s *Session) Abort() {
	s.finish(protocol.CloseReason{Code: protocol.CloseAbnormalClosure}, nil)
}

// failConnection sends a best-effort CLOSE mapped from the error
// taxonomy and force-closes the session.
func (s *Session) failConnection(err error) {
	if s.Status() == api.SessionClosed {
		return
	}
	reason := protocol.CloseReason{Code: api.CloseCodeFor(err), Reason: api.CodeOf(err).String()}
	if werr := s.sendCloseFrame(reason); werr != nil {
		s.log.WithError(werr).Debug("failure close write failed")
	} else {
		_ = s.w.drain()
	}
	s.closeWriteSide()
	s.finish(reason, err)
}

func (s *Session) sendCloseFrame(r protocol.CloseReason) error {
	f, err := protocol.NewCloseFrame(r)
	if err != nil {
		return err
	}
	return s.writeFrame(f)
}

func (s *Session) closeWriteSide() {
	if c, ok := s.w.nc.(api.WriteSideCloser); ok {
		_ = c.CloseWrite()
	}
}

// finish makes the session terminally closed. Exactly one caller wins;
// the rest are no-ops. Observers fire from the winning caller.
func (s *Session) finish(reason protocol.CloseReason, err error) {
	s.closeOnce.Do(func() {
		s.state.Store(int32(api.SessionClosed))
		s.stopIdleTimer()
		s.w.close()
		_ = s.w.nc.Close()
		s.closeReason = reason
		s.closeErr = err
		close(s.done)

		// Abort and the Close deadline reach here without procMu, and
		// a Receive or send in flight may still be feeding the
		// decoder, the assembler, or the extension chain. Release that
		// state only once both directions are quiescent; any later
		// Receive or send bails out on the closed status first.
		go func() {
			s.procMu.Lock()
			defer s.procMu.Unlock()
			s.outMu.Lock()
			defer s.outMu.Unlock()
			s.dec.Reset()
			s.asm.reset()
			if cerr := s.pipeline.Close(); cerr != nil {
				s.log.WithError(cerr).Debug("extension shutdown")
			}
		}()

		if err != nil {
			if h := s.handlers.errorHandler(); h != nil {
				h(err)
			}
		}
		if h := s.handlers.closeHandler(); h != nil {
			h(reason.Code, reason.Reason)
		}
		lg := s.log.WithFields(logrus.Fields{"code": reason.Code, "reason": reason.Reason})
		if err != nil {
			lg.WithError(err).Warn("session closed")
		} else {
			lg.Info("session closed")
		}
	})
}

// SendText sends one unfragmented text message.
func (s *Session) SendText(p []byte) error {
	return s.send(protocol.NewTextFrame(p))
}

// SendBinary sends one unfragmented binary message.
func (s *Session) SendBinary(p []byte) error {
	return s.send(protocol.NewBinaryFrame(p))
}

// Ping sends a PING control frame. The payload must fit in a control
// frame.
func (s *Session) Ping(p []byte) error {
	if len(p) > protocol.MaxControlPayloadLen {
		return api.NewError(api.ErrCodeProtocol, "ping payload exceeds control frame limit")
	}
	if err := s.sendableState(); err != nil {
		return err
	}
	return s.writeFrame(protocol.NewControlFrame(protocol.OpcodePing, p))
}

func (s *Session) send(f *protocol.Frame) error {
	if err := s.sendableState(); err != nil {
		return err
	}
	s.outMu.Lock()
	defer s.outMu.Unlock()
	if s.outKind != 0 {
		return api.NewError(api.ErrCodeProtocol, "partial message in progress")
	}
	if err := s.pipeline.HandleOutgoing(f); err != nil {
		return err
	}
	s.armIdleTimer()
	return nil
}

// SendPartial sends one fragment of a message. The first call of a
// message fixes its kind; subsequent calls must pass the same kind and
// go out as continuation frames until last completes the message.
func (s *Session) SendPartial(kind api.MessageKind, p []byte, last bool) error {
	if !validKind(kind) {
		return api.WrapError(api.ErrCodeRegistration, "unknown message kind", api.ErrUnsupportedKind)
	}
	if err := s.sendableState(); err != nil {
		return err
	}
	s.outMu.Lock()
	defer s.outMu.Unlock()

	f := &protocol.Frame{Fin: last, Payload: p}
	switch {
	case s.outKind == 0:
		if kind == api.KindText {
			f.Opcode = protocol.OpcodeText
		} else {
			f.Opcode = protocol.OpcodeBinary
		}
		if !last {
			s.outKind = kind
		}
	case s.outKind != kind:
		return api.NewError(api.ErrCodeProtocol, "message kind changed mid-message")
	default:
		f.Opcode = protocol.OpcodeContinuation
		if last {
			s.outKind = 0
		}
	}
	if err := s.pipeline.HandleOutgoing(f); err != nil {
		// the stream position is unknown after a failed fragment
		s.outKind = 0
		return err
	}
	s.armIdleTimer()
	return nil
}

func (s *Session) sendableState() error {
	switch s.Status() {
	case api.SessionOpen:
		return nil
	case api.SessionClosed:
		return api.ErrSessionClosed
	default:
		return api.ErrSessionClosing
	}
}

// writeFrame pushes a frame through the outgoing extension pipeline
// into the writer.
func (s *Session) writeFrame(f *protocol.Frame) error {
	s.outMu.Lock()
	defer s.outMu.Unlock()
	if err := s.pipeline.HandleOutgoing(f); err != nil {
		return err
	}
	s.armIdleTimer()
	return nil
}

// armIdleTimer (re)starts the idle countdown. Frame activity in either
// direction resets it: every Receive call and every frame accepted by
// the outgoing pipeline. Firing force-closes the session with a
// timeout error.
func (s *Session) armIdleTimer() {
	d := s.currentPolicy().IdleTimeout
	s.idleMu.Lock()
	defer s.idleMu.Unlock()
	if s.idleTimer != nil {
		s.idleTimer.Stop()
		s.idleTimer = nil
	}
	if d <= 0 || s.Status() == api.SessionClosed {
		return
	}
	s.idleTimer = time.AfterFunc(d, s.onIdleTimeout)
}

func (s *Session) stopIdleTimer() {
	s.idleMu.Lock()
	if s.idleTimer != nil {
		s.idleTimer.Stop()
		s.idleTimer = nil
	}
	s.idleMu.Unlock()
}

// onIdleTimeout runs on the timer goroutine, serialized with frame
// processing through procMu.
func (s *Session) onIdleTimeout() {
	s.procMu.Lock()
	defer s.procMu.Unlock()
	if s.Status() == api.SessionClosed {
		return
	}
	s.log.Warn("idle timeout")
	s.failConnection(api.WrapError(api.ErrCodeTimeout, "idle timeout", api.ErrOperationTimeout))
}
