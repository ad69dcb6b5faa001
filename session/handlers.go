// File: session/handlers.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package session

import (
	"sync"

	"github.com/momentics/wscore/api"
)

// handlerEntry records the single consumer registered for one message
// kind. Exactly one of whole or partial is set; mode says which.
type handlerEntry struct {
	mode    api.DispatchMode
	whole   api.WholeMessageHandler
	partial api.PartialMessageHandler
}

// handlerTable holds the per-session consumer registrations. A kind
// accepts at most one handler at a time; replacing goes through the
// Replace variants so a registration can never silently shadow an
// earlier one.
type handlerTable struct {
	mu      sync.RWMutex
	byKind  map[api.MessageKind]handlerEntry
	onError api.ErrorHandler
	onClose api.CloseHandler
	onPong  api.PongHandler
}

func newHandlerTable() *handlerTable {
	return &handlerTable{byKind: make(map[api.MessageKind]handlerEntry, 2)}
}

func validKind(kind api.MessageKind) bool {
	return kind == api.KindText || kind == api.KindBinary
}

func (t *handlerTable) register(kind api.MessageKind, e handlerEntry, replace bool) error {
	if !validKind(kind) {
		return api.WrapError(api.ErrCodeRegistration, "unknown message kind", api.ErrUnsupportedKind)
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, dup := t.byKind[kind]; dup && !replace {
		return api.WrapError(api.ErrCodeRegistration,
			"handler already registered for "+kind.String(), api.ErrDuplicateRegistration)
	}
	t.byKind[kind] = e
	return nil
}

func (t *handlerTable) resolve(kind api.MessageKind) (handlerEntry, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	e, ok := t.byKind[kind]
	return e, ok
}

func (t *handlerTable) setError(h api.ErrorHandler) {
	t.mu.Lock()
	t.onError = h
	t.mu.Unlock()
}

func (t *handlerTable) setClose(h api.CloseHandler) {
	t.mu.Lock()
	t.onClose = h
	t.mu.Unlock()
}

func (t *handlerTable) setPong(h api.PongHandler) {
	t.mu.Lock()
	t.onPong = h
	t.mu.Unlock()
}

func (t *handlerTable) errorHandler() api.ErrorHandler {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.onError
}

func (t *handlerTable) closeHandler() api.CloseHandler {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.onClose
}

func (t *handlerTable) pongHandler() api.PongHandler {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.onPong
}
