// File: session/store.go
// Package session
// Author: momentics <momentics@gmail.com>
//
// Sharded, thread-safe registry of live sessions.

package session

import (
	"hash/fnv"
	"sync"

	"github.com/momentics/wscore/api"
)

// Registry tracks the sessions of one engine instance. Membership is
// explicit: the owner adds a session after construction and removes it
// once closed; closing a session never mutates the registry on its own.
type Registry struct {
	shards []*registryShard
	mask   uint32
}

type registryShard struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewRegistry constructs a sharded registry with shardCount shards,
// rounded up to a power of two for bitmasked selection.
func NewRegistry(shardCount int) *Registry {
	if shardCount <= 0 {
		shardCount = 16
	}
	m := nextPowerOfTwo(uint32(shardCount))
	shards := make([]*registryShard, m)
	for i := range shards {
		shards[i] = &registryShard{sessions: make(map[string]*Session)}
	}
	return &Registry{shards: shards, mask: m - 1}
}

func (r *Registry) shard(id string) *registryShard {
	return r.shards[fnv32(id)&r.mask]
}

// Add registers s under its id. Registering a second session with the
// same id is a registration error.
func (r *Registry) Add(s *Session) error {
	sh := r.shard(s.ID())
	sh.mu.Lock()
	defer sh.mu.Unlock()
	if _, dup := sh.sessions[s.ID()]; dup {
		return api.WrapError(api.ErrCodeRegistration,
			"session id already registered", api.ErrDuplicateRegistration).
			WithContext("session", s.ID())
	}
	sh.sessions[s.ID()] = s
	return nil
}

// Get fetches a session if present.
func (r *Registry) Get(id string) (*Session, bool) {
	sh := r.shard(id)
	sh.mu.RLock()
	defer sh.mu.RUnlock()
	s, ok := sh.sessions[id]
	return s, ok
}

// Remove drops the session with the given id. Removing an unknown id
// is a no-op.
func (r *Registry) Remove(id string) {
	sh := r.shard(id)
	sh.mu.Lock()
	delete(sh.sessions, id)
	sh.mu.Unlock()
}

// Len reports the number of registered sessions.
func (r *Registry) Len() int {
	n := 0
	for _, sh := range r.shards {
		sh.mu.RLock()
		n += len(sh.sessions)
		sh.mu.RUnlock()
	}
	return n
}

// Range applies fn to a snapshot of the membership. Sessions added or
// removed while fn runs do not affect the iteration, and fn may itself
// add or remove sessions without deadlocking.
func (r *Registry) Range(fn func(*Session)) {
	for _, s := range r.Snapshot() {
		fn(s)
	}
}

// Snapshot copies the current membership out of the shards.
func (r *Registry) Snapshot() []*Session {
	out := make([]*Session, 0, r.Len())
	for _, sh := range r.shards {
		sh.mu.RLock()
		for _, s := range sh.sessions {
			out = append(out, s)
		}
		sh.mu.RUnlock()
	}
	return out
}

// fnv32 hashes a string to uint32.
func fnv32(key string) uint32 {
	h := fnv.New32a()
	h.Write([]byte(key))
	return h.Sum32()
}

// nextPowerOfTwo returns the next power-of-two >= v.
func nextPowerOfTwo(v uint32) uint32 {
	v--
	v |= v >> 1
	v |= v >> 2
	v |= v >> 4
	v |= v >> 8
	v |= v >> 16
	v++
	return v
}
