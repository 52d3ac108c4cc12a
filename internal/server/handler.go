// ABOUTME: Event handler implementing the per-connection authentication state machine
// ABOUTME: Dispatches login/createNote/saveNote/getNotes against the session registry and store

package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/prashcr/cheatsheet-server/internal/auth"
	"github.com/prashcr/cheatsheet-server/internal/store"
)

// Handler owns the application event protocol. It is transport-free: the
// caller supplies a connection ID and a raw payload, and gets back either
// a result or a Fault, exactly one of the two, on every path.
//
// A connection is ANONYMOUS until a successful login attaches a session,
// and AUTHENTICATED from then until disconnect. Identity-requiring events
// consult only the session attached to the invoking connection.
type Handler struct {
	verifier *auth.CredentialVerifier
	issuer   *auth.TokenIssuer
	sessions *auth.Registry
	store    store.Store
	logger   *slog.Logger
}

// NewHandler creates an event handler.
func NewHandler(verifier *auth.CredentialVerifier, issuer *auth.TokenIssuer, sessions *auth.Registry, s store.Store, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		verifier: verifier,
		issuer:   issuer,
		sessions: sessions,
		store:    s,
		logger:   logger.With("component", "handler"),
	}
}

// Dispatch routes an application event to its handler.
// Unknown events are a protocol fault.
func (h *Handler) Dispatch(ctx context.Context, connID string, frame *Frame) (interface{}, *Fault) {
	switch frame.Event {
	case EventLogin:
		return h.handleLogin(ctx, connID, frame.Data)
	case EventCreateNote:
		return h.handleCreateNote(ctx, connID)
	case EventSaveNote:
		return h.handleSaveNote(ctx, connID, frame.Data)
	case EventGetNotes:
		return h.handleGetNotes(ctx, connID)
	default:
		return nil, protocolFault(fmt.Sprintf("unknown event %q", frame.Event))
	}
}

// handleLogin verifies credentials and attaches a session to the
// connection. Every failure mode, including verifier infrastructure
// errors, responds with the same generic message.
func (h *Handler) handleLogin(ctx context.Context, connID string, data json.RawMessage) (interface{}, *Fault) {
	if _, ok := h.sessions.Get(connID); ok {
		// A second login must not re-issue: the whitelist could never
		// widen, but rejecting outright keeps the state machine one-way.
		return nil, protocolFault("already authenticated")
	}

	var creds loginRequest
	if err := json.Unmarshal(data, &creds); err != nil {
		return nil, authFault(msgLoginFailed)
	}

	ok, err := h.verifier.Verify(ctx, creds.Username, creds.Password)
	if err != nil {
		h.logger.Error("credential verification failed", "conn_id", connID, "error", err)
		return nil, authFault(msgLoginFailed)
	}
	if !ok {
		return nil, authFault(msgLoginFailed)
	}

	signed, err := h.issuer.Issue(creds.Username, connID, auth.GrantedChannels)
	if err != nil {
		h.logger.Error("issuing session token", "conn_id", connID, "error", err)
		return nil, authFault(msgLoginFailed)
	}
	token, err := h.issuer.Parse(signed)
	if err != nil {
		h.logger.Error("parsing freshly issued token", "conn_id", connID, "error", err)
		return nil, authFault(msgLoginFailed)
	}

	if err := h.sessions.Attach(connID, token); err != nil {
		return nil, protocolFault(err.Error())
	}

	h.logger.Info("login succeeded", "conn_id", connID, "username", creds.Username)
	return nil, nil
}

// handleCreateNote creates a fresh note for the authenticated user.
func (h *Handler) handleCreateNote(ctx context.Context, connID string) (interface{}, *Fault) {
	token, fault := h.requireSession(connID, "createNote")
	if fault != nil {
		return nil, fault
	}

	note, err := h.store.CreateNote(ctx, token.Username)
	if err != nil {
		h.logger.Error("creating note", "username", token.Username, "error", err)
		return nil, storeFault(err)
	}
	return note, nil
}

// handleSaveNote patches the contents of one of the authenticated user's
// notes.
func (h *Handler) handleSaveNote(ctx context.Context, connID string, data json.RawMessage) (interface{}, *Fault) {
	token, fault := h.requireSession(connID, "saveNote")
	if fault != nil {
		return nil, fault
	}

	var req saveNoteRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return nil, protocolFault("invalid saveNote payload")
	}
	if req.ID == "" {
		return nil, protocolFault("saveNote requires a note id")
	}

	if err := h.store.PatchNoteContents(ctx, token.Username, req.ID, req.Contents); err != nil {
		h.logger.Error("saving note", "username", token.Username, "note_id", req.ID, "error", err)
		return nil, storeFault(err)
	}
	return nil, nil
}

// handleGetNotes returns the authenticated user's full notes mapping. The
// username always comes from the session token, never from the caller.
func (h *Handler) handleGetNotes(ctx context.Context, connID string) (interface{}, *Fault) {
	token, ok := h.sessions.Get(connID)
	if !ok {
		return nil, authFault(msgNotAuthenticated)
	}

	notes, err := h.store.GetNotes(ctx, token.Username)
	if err != nil {
		h.logger.Error("fetching notes", "username", token.Username, "error", err)
		return nil, storeFault(err)
	}
	return notes, nil
}

// HandleDisconnect tears down the connection's session, if any.
// Safe to call for connections that never authenticated.
func (h *Handler) HandleDisconnect(connID string) {
	h.sessions.Revoke(connID)
}

// requireSession returns the connection's session token, checking that its
// whitelist grants the named channel. Mutating events are gated on the
// session whitelist here, at the event layer, not at the transport gate.
func (h *Handler) requireSession(connID, channel string) (*auth.SessionToken, *Fault) {
	token, ok := h.sessions.Get(connID)
	if !ok {
		return nil, authFault(msgNotAuthenticated)
	}
	if !token.Allows(channel) {
		return nil, authzFault(fmt.Sprintf("session not permitted to use channel %q", channel))
	}
	return token, nil
}
