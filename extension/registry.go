// File: extension/registry.go
// Package extension
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package extension

import (
	"fmt"
	"sync"

	"github.com/momentics/wscore/api"
	"github.com/momentics/wscore/protocol"
)

// Factory instantiates a per-connection extension from its negotiated
// configuration. Invalid parameters fail negotiation before a session
// exists.
type Factory func(cfg protocol.ExtensionConfig) (Extension, error)

// Registry resolves negotiated extension names to factories. The zero
// value is empty; NewRegistry pre-registers the built-in extensions.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

// NewRegistry returns a registry with identity, fragment, and
// permessage-deflate pre-registered.
func NewRegistry() *Registry {
	r := &Registry{factories: make(map[string]Factory)}
	r.Register(IdentityExtensionName, newIdentity)
	r.Register(FragmentExtensionName, newFragment)
	r.Register(PermessageDeflateName, newPermessageDeflate)
	return r
}

// Register installs or replaces the factory for name.
func (r *Registry) Register(name string, f Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.factories == nil {
		r.factories = make(map[string]Factory)
	}
	r.factories[name] = f
}

// New instantiates the extension for cfg. Unknown names fail with
// api.ErrNoSuchExtension; the upgrade handshake should already have
// filtered these, but the pipeline re-validates.
func (r *Registry) New(cfg protocol.ExtensionConfig) (Extension, error) {
	r.mu.RLock()
	f, ok := r.factories[cfg.Name()]
	r.mu.RUnlock()
	if !ok {
		return nil, api.WrapError(api.ErrCodeNegotiation,
			fmt.Sprintf("extension %q", cfg.Name()), api.ErrNoSuchExtension)
	}
	ext, err := f(cfg)
	if err != nil {
		return nil, api.WrapError(api.ErrCodeNegotiation,
			fmt.Sprintf("extension %q", cfg.Name()), err)
	}
	return ext, nil
}
