// ABOUTME: In-memory registry of session tokens keyed by connection ID
// ABOUTME: Enforces single attachment per connection and connection-scoped tokens

package auth

import (
	"errors"
	"log/slog"
	"sync"
)

// Session errors
var (
	// ErrAlreadyAuthenticated indicates a second login attempt on a
	// connection that already holds a session. Re-issuing is rejected so a
	// session's channel whitelist can never silently widen.
	ErrAlreadyAuthenticated = errors.New("connection already authenticated")

	// ErrTokenConnMismatch indicates a token issued to one connection was
	// presented on another. Tokens are connection-scoped, not transferable.
	ErrTokenConnMismatch = errors.New("token was issued to a different connection")
)

// Registry tracks the session token attached to each live connection.
// Sessions exist only in memory: a connection transitions from no token to
// one token at most once, and revocation on disconnect is the only way out.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*SessionToken
	logger   *slog.Logger
}

// NewRegistry creates an empty session registry.
func NewRegistry(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		sessions: make(map[string]*SessionToken),
		logger:   logger.With("component", "sessions"),
	}
}

// Attach binds a token to the connection identified by connID.
// Fails if the connection already holds a session, or if the token was
// issued to a different connection.
func (r *Registry) Attach(connID string, token *SessionToken) error {
	if token.ConnID != connID {
		return ErrTokenConnMismatch
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.sessions[connID]; exists {
		return ErrAlreadyAuthenticated
	}
	r.sessions[connID] = token

	r.logger.Debug("session attached", "conn_id", connID, "username", token.Username)
	return nil
}

// Get returns the token attached to the connection, if any.
func (r *Registry) Get(connID string) (*SessionToken, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	token, ok := r.sessions[connID]
	return token, ok
}

// Revoke releases the connection's session. Called on disconnect; a no-op
// for anonymous connections.
func (r *Registry) Revoke(connID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if token, ok := r.sessions[connID]; ok {
		delete(r.sessions, connID)
		r.logger.Debug("session revoked", "conn_id", connID, "username", token.Username)
	}
}

// Active returns the number of live sessions.
func (r *Registry) Active() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}
