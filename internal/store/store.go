// ABOUTME: Store interface and data types for cheatsheet-server persistence
// ABOUTME: Defines User, Note structs and per-field note mutation operations

package store

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a requested entity does not exist
var ErrNotFound = errors.New("not found")

// ErrUserExists is returned when trying to create a user that already exists
var ErrUserExists = errors.New("user already exists")

// DefaultNoteName is the name given to freshly created notes.
const DefaultNoteName = "Untitled note"

// User represents an account record. Users are provisioned out of band
// (cheatsheet-admin); the server only ever reads them and mutates their notes.
type User struct {
	Username     string
	PasswordHash string
	CreatedAt    time.Time
}

// Note is a single note document owned by exactly one user.
// UpdatedAt is set at creation and deliberately not refreshed on content
// saves, matching the observed product behavior.
type Note struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Contents  string    `json:"contents"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Store defines the interface for user and note persistence.
//
// Each operation is atomic at the single-note level; nothing here may be
// assumed atomic across notes or users. PatchNoteContents is the explicit
// partial-update contract: it sets exactly the contents field and leaves
// name and updatedAt untouched.
type Store interface {
	// Users
	GetUser(ctx context.Context, username string) (*User, error)
	CreateUser(ctx context.Context, username, passwordHash string) error
	SetUserPassword(ctx context.Context, username, passwordHash string) error
	ListUsers(ctx context.Context) ([]*User, error)

	// Notes
	CreateNote(ctx context.Context, username string) (*Note, error)
	PatchNoteContents(ctx context.Context, username, noteID, contents string) error
	GetNotes(ctx context.Context, username string) (map[string]*Note, error)

	// Close releases any resources held by the store
	Close() error
}
