// ABOUTME: Credential verification against stored bcrypt password hashes
// ABOUTME: Distinguishes authentication failure from store infrastructure errors

package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/crypto/bcrypt"

	"github.com/prashcr/cheatsheet-server/internal/store"
)

// CredentialVerifier checks username/password pairs against stored hashes.
//
// Verify never reports why authentication failed: unknown user, wrong
// password, and malformed credentials all come back as (false, nil). Only
// an unreachable store surfaces as an error, so callers can tell
// infrastructure trouble apart from bad credentials.
type CredentialVerifier struct {
	store  store.Store
	logger *slog.Logger
}

// NewCredentialVerifier creates a verifier backed by the given store.
func NewCredentialVerifier(s store.Store, logger *slog.Logger) *CredentialVerifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &CredentialVerifier{
		store:  s,
		logger: logger.With("component", "credential-verifier"),
	}
}

// Verify reports whether the password matches the stored hash for username.
// Read-only; no side effects.
func (v *CredentialVerifier) Verify(ctx context.Context, username, password string) (bool, error) {
	if username == "" || password == "" {
		return false, nil
	}

	user, err := v.store.GetUser(ctx, username)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("looking up user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		if !errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			// Corrupt stored hash. Still an authentication failure to the
			// caller, but worth flagging server-side.
			v.logger.Warn("stored password hash unusable", "username", username, "error", err)
		}
		return false, nil
	}

	return true, nil
}

// HashPassword hashes a plaintext password at the given bcrypt cost.
// A cost of 0 uses bcrypt.DefaultCost.
func HashPassword(password string, cost int) (string, error) {
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", fmt.Errorf("hashing password: %w", err)
	}
	return string(hash), nil
}
