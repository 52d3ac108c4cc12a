// ABOUTME: Mock Store implementation for testing
// ABOUTME: Allows tests to run without SQLite and to inject store failures

package store

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MockStore is an in-memory Store implementation for testing.
//
// Set FailWith to force every operation to return that error, exercising
// the store-failure paths of callers.
type MockStore struct {
	mu    sync.RWMutex
	users map[string]*User
	notes map[string]map[string]*Note // username -> note ID -> note

	// FailWith, when non-nil, is returned by every operation.
	FailWith error
}

// NewMockStore creates a new MockStore.
func NewMockStore() *MockStore {
	return &MockStore{
		users: make(map[string]*User),
		notes: make(map[string]map[string]*Note),
	}
}

// GetUser retrieves a user by username.
func (m *MockStore) GetUser(ctx context.Context, username string) (*User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.FailWith != nil {
		return nil, m.FailWith
	}

	u, ok := m.users[username]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *u
	return &cp, nil
}

// CreateUser stores a new user record.
func (m *MockStore) CreateUser(ctx context.Context, username, passwordHash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.FailWith != nil {
		return m.FailWith
	}

	if _, exists := m.users[username]; exists {
		return ErrUserExists
	}
	m.users[username] = &User{
		Username:     username,
		PasswordHash: passwordHash,
		CreatedAt:    time.Now().UTC(),
	}
	return nil
}

// SetUserPassword replaces an existing user's password hash.
func (m *MockStore) SetUserPassword(ctx context.Context, username, passwordHash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.FailWith != nil {
		return m.FailWith
	}

	u, ok := m.users[username]
	if !ok {
		return ErrNotFound
	}
	u.PasswordHash = passwordHash
	return nil
}

// ListUsers returns all users.
func (m *MockStore) ListUsers(ctx context.Context) ([]*User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.FailWith != nil {
		return nil, m.FailWith
	}

	users := make([]*User, 0, len(m.users))
	for _, u := range m.users {
		cp := *u
		users = append(users, &cp)
	}
	return users, nil
}

// CreateNote creates a fresh note for the user.
func (m *MockStore) CreateNote(ctx context.Context, username string) (*Note, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.FailWith != nil {
		return nil, m.FailWith
	}

	note := &Note{
		ID:        uuid.New().String(),
		Name:      DefaultNoteName,
		Contents:  "",
		UpdatedAt: time.Now().UTC(),
	}
	if m.notes[username] == nil {
		m.notes[username] = make(map[string]*Note)
	}
	m.notes[username][note.ID] = note

	cp := *note
	return &cp, nil
}

// PatchNoteContents sets only the contents of the targeted note, upserting
// a bare note row when the ID is unknown (matching SQLiteStore).
func (m *MockStore) PatchNoteContents(ctx context.Context, username, noteID, contents string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.FailWith != nil {
		return m.FailWith
	}

	if m.notes[username] == nil {
		m.notes[username] = make(map[string]*Note)
	}
	note, ok := m.notes[username][noteID]
	if !ok {
		note = &Note{ID: noteID}
		m.notes[username][noteID] = note
	}
	note.Contents = contents
	return nil
}

// GetNotes returns the user's notes mapping.
func (m *MockStore) GetNotes(ctx context.Context, username string) (map[string]*Note, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.FailWith != nil {
		return nil, m.FailWith
	}

	if _, ok := m.users[username]; !ok {
		return nil, ErrNotFound
	}

	notes := make(map[string]*Note, len(m.notes[username]))
	for id, n := range m.notes[username] {
		cp := *n
		notes[id] = &cp
	}
	return notes, nil
}

// Close is a no-op for the mock.
func (m *MockStore) Close() error {
	return nil
}
