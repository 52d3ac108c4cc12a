// ABOUTME: Unit tests for session token issuance and parsing
// ABOUTME: Tests round-trips, invalid/tampered tokens, and claim extraction

package auth

import (
	"errors"
	"strings"
	"testing"
)

func TestTokenIssuer_RoundTrip(t *testing.T) {
	issuer, err := NewTokenIssuer([]byte("test-secret-key-for-jwt-signing"))
	if err != nil {
		t.Fatalf("NewTokenIssuer() error = %v", err)
	}

	tokenString, err := issuer.Issue("alice", "conn-1", GrantedChannels)
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}

	token, err := issuer.Parse(tokenString)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	if token.Username != "alice" {
		t.Errorf("Username = %q, want %q", token.Username, "alice")
	}
	if token.ConnID != "conn-1" {
		t.Errorf("ConnID = %q, want %q", token.ConnID, "conn-1")
	}
	if len(token.Channels) != 2 {
		t.Fatalf("Channels = %v, want 2 entries", token.Channels)
	}
	if !token.Allows("saveNote") || !token.Allows("createNote") {
		t.Errorf("Allows() should accept granted channels, got %v", token.Channels)
	}
	if token.Allows("admin") {
		t.Error("Allows() should reject channels outside the whitelist")
	}
}

func TestNewTokenIssuer_EmptySecret(t *testing.T) {
	if _, err := NewTokenIssuer(nil); err == nil {
		t.Fatal("NewTokenIssuer() should reject an empty secret")
	}
}

func TestTokenIssuer_InvalidToken(t *testing.T) {
	issuer, err := NewTokenIssuer([]byte("test-secret-key-for-jwt-signing"))
	if err != nil {
		t.Fatalf("NewTokenIssuer() error = %v", err)
	}

	tests := []struct {
		name  string
		token string
	}{
		{name: "empty token", token: ""},
		{name: "garbage token", token: "not-a-jwt-token"},
		{name: "malformed JWT", token: "header.payload.signature"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := issuer.Parse(tt.token)
			if !errors.Is(err, ErrInvalidToken) {
				t.Errorf("Parse() error = %v, want ErrInvalidToken", err)
			}
		})
	}
}

func TestTokenIssuer_WrongSecret(t *testing.T) {
	issuer1, err := NewTokenIssuer([]byte("secret-one"))
	if err != nil {
		t.Fatalf("NewTokenIssuer() error = %v", err)
	}
	issuer2, err := NewTokenIssuer([]byte("secret-two"))
	if err != nil {
		t.Fatalf("NewTokenIssuer() error = %v", err)
	}

	tokenString, err := issuer1.Issue("alice", "conn-1", GrantedChannels)
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}

	if _, err := issuer2.Parse(tokenString); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("Parse() with wrong secret error = %v, want ErrInvalidToken", err)
	}
}

func TestTokenIssuer_TamperedToken(t *testing.T) {
	issuer, err := NewTokenIssuer([]byte("test-secret-key-for-jwt-signing"))
	if err != nil {
		t.Fatalf("NewTokenIssuer() error = %v", err)
	}

	tokenString, err := issuer.Issue("alice", "conn-1", GrantedChannels)
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}

	// Flip the payload segment
	parts := strings.Split(tokenString, ".")
	if len(parts) != 3 {
		t.Fatalf("unexpected token shape: %q", tokenString)
	}
	tampered := parts[0] + ".eyJzdWIiOiJtYWxsb3J5In0." + parts[2]

	if _, err := issuer.Parse(tampered); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("Parse() of tampered token error = %v, want ErrInvalidToken", err)
	}
}
