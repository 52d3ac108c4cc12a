// ABOUTME: Tests for the connection-scoped session registry
// ABOUTME: Covers single attachment, token portability rejection, and revocation

package auth

import (
	"errors"
	"testing"
)

func testToken(username, connID string) *SessionToken {
	return &SessionToken{
		Username: username,
		ConnID:   connID,
		Channels: GrantedChannels,
	}
}

func TestRegistry_AttachAndGet(t *testing.T) {
	r := NewRegistry(nil)

	if err := r.Attach("conn-1", testToken("alice", "conn-1")); err != nil {
		t.Fatalf("Attach() error = %v", err)
	}

	token, ok := r.Get("conn-1")
	if !ok {
		t.Fatal("Get() should find the attached session")
	}
	if token.Username != "alice" {
		t.Errorf("Username = %q, want %q", token.Username, "alice")
	}
	if r.Active() != 1 {
		t.Errorf("Active() = %d, want 1", r.Active())
	}
}

func TestRegistry_SecondAttachRejected(t *testing.T) {
	r := NewRegistry(nil)

	if err := r.Attach("conn-1", testToken("alice", "conn-1")); err != nil {
		t.Fatalf("Attach() error = %v", err)
	}

	err := r.Attach("conn-1", testToken("alice", "conn-1"))
	if !errors.Is(err, ErrAlreadyAuthenticated) {
		t.Errorf("second Attach() error = %v, want ErrAlreadyAuthenticated", err)
	}

	// The original session must be unchanged
	token, ok := r.Get("conn-1")
	if !ok || token.Username != "alice" {
		t.Error("original session should survive a rejected re-attach")
	}
}

func TestRegistry_ForeignTokenRejected(t *testing.T) {
	r := NewRegistry(nil)

	// A token issued to conn-1 presented on conn-2 must not attach
	err := r.Attach("conn-2", testToken("alice", "conn-1"))
	if !errors.Is(err, ErrTokenConnMismatch) {
		t.Errorf("Attach() error = %v, want ErrTokenConnMismatch", err)
	}
	if _, ok := r.Get("conn-2"); ok {
		t.Error("foreign token must not grant a session")
	}
}

func TestRegistry_Revoke(t *testing.T) {
	r := NewRegistry(nil)

	if err := r.Attach("conn-1", testToken("alice", "conn-1")); err != nil {
		t.Fatalf("Attach() error = %v", err)
	}
	r.Revoke("conn-1")

	if _, ok := r.Get("conn-1"); ok {
		t.Error("Get() should not find a revoked session")
	}
	if r.Active() != 0 {
		t.Errorf("Active() = %d, want 0", r.Active())
	}

	// Revoking twice is a no-op
	r.Revoke("conn-1")
}

func TestRegistry_RevokedTokenNotTransferable(t *testing.T) {
	r := NewRegistry(nil)

	token := testToken("alice", "conn-1")
	if err := r.Attach("conn-1", token); err != nil {
		t.Fatalf("Attach() error = %v", err)
	}
	r.Revoke("conn-1")

	// The old token presented by a new connection must not grant a session
	if err := r.Attach("conn-2", token); !errors.Is(err, ErrTokenConnMismatch) {
		t.Errorf("Attach() error = %v, want ErrTokenConnMismatch", err)
	}
}

func TestRegistry_IndependentConnections(t *testing.T) {
	r := NewRegistry(nil)

	if err := r.Attach("conn-1", testToken("alice", "conn-1")); err != nil {
		t.Fatalf("Attach() error = %v", err)
	}
	if err := r.Attach("conn-2", testToken("bob", "conn-2")); err != nil {
		t.Fatalf("Attach() error = %v", err)
	}

	r.Revoke("conn-1")

	token, ok := r.Get("conn-2")
	if !ok || token.Username != "bob" {
		t.Error("revoking one connection must not disturb another")
	}
}
