// File: session/store_test.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package session_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/momentics/wscore/api"
	"github.com/momentics/wscore/fake"
	"github.com/momentics/wscore/session"
)

func registryWith(t *testing.T, n int) (*session.Registry, []*session.Session) {
	t.Helper()
	reg := session.NewRegistry(4)
	var out []*session.Session
	for i := 0; i < n; i++ {
		s, err := session.New(session.Options{
			ID:        fmt.Sprintf("sess-%d", i),
			Transport: fake.NewTransport(),
		})
		if err != nil {
			t.Fatalf("New: %v", err)
		}
		t.Cleanup(s.Abort)
		if err := reg.Add(s); err != nil {
			t.Fatalf("Add: %v", err)
		}
		out = append(out, s)
	}
	return reg, out
}

func TestRegistryAddGetRemove(t *testing.T) {
	reg, sessions := registryWith(t, 3)

	if reg.Len() != 3 {
		t.Fatalf("Len = %d", reg.Len())
	}
	got, ok := reg.Get("sess-1")
	if !ok || got != sessions[1] {
		t.Fatalf("Get = (%v, %v)", got, ok)
	}
	reg.Remove("sess-1")
	if _, ok := reg.Get("sess-1"); ok {
		t.Fatal("removed session still present")
	}
	if reg.Len() != 2 {
		t.Fatalf("Len after remove = %d", reg.Len())
	}
	reg.Remove("sess-1") // no-op
}

func TestRegistryRejectsDuplicateID(t *testing.T) {
	reg, sessions := registryWith(t, 1)

	dup, err := session.New(session.Options{ID: sessions[0].ID(), Transport: fake.NewTransport()})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer dup.Abort()
	if err := reg.Add(dup); !errors.Is(err, api.ErrDuplicateRegistration) {
		t.Fatalf("Add duplicate = %v", err)
	}
}

func TestRegistryRangeIsSnapshot(t *testing.T) {
	reg, _ := registryWith(t, 8)

	// removing during iteration must not skip or deadlock
	seen := 0
	reg.Range(func(s *session.Session) {
		seen++
		reg.Remove(s.ID())
	})
	if seen != 8 {
		t.Fatalf("visited %d sessions, want 8", seen)
	}
	if reg.Len() != 0 {
		t.Fatalf("Len after draining range = %d", reg.Len())
	}
}

func TestRegistryCloseAllViaRange(t *testing.T) {
	reg, sessions := registryWith(t, 4)

	reg.Range(func(s *session.Session) { s.Abort() })
	for _, s := range sessions {
		if s.Status() != api.SessionClosed {
			t.Fatalf("session %s still %v", s.ID(), s.Status())
		}
	}
}
