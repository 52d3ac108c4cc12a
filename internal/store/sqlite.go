// ABOUTME: SQLite implementation of the Store interface using modernc.org/sqlite
// ABOUTME: Provides user/note persistence with automatic schema creation

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// SQLiteStore implements the Store interface using SQLite
type SQLiteStore struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewSQLiteStore creates a new SQLite store at the given path.
// The schema is automatically created if it doesn't exist.
// Parent directories are created if needed.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	logger := slog.Default().With("component", "store")

	if path != ":memory:" {
		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("creating database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// Enable WAL mode for better concurrent performance
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}

	// Enable foreign keys
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	s := &SQLiteStore{
		db:     db,
		logger: logger,
	}

	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	logger.Info("SQLite store initialized", "path", path)
	return s, nil
}

// createSchema creates the database tables if they don't exist
func (s *SQLiteStore) createSchema() error {
	schema := `
		CREATE TABLE IF NOT EXISTS users (
			username      TEXT PRIMARY KEY,
			password_hash TEXT NOT NULL,
			created_at    DATETIME NOT NULL
		);

		CREATE TABLE IF NOT EXISTS notes (
			username   TEXT NOT NULL,
			id         TEXT NOT NULL,
			name       TEXT NOT NULL DEFAULT '',
			contents   TEXT NOT NULL DEFAULT '',
			updated_at DATETIME,

			PRIMARY KEY (username, id),
			FOREIGN KEY (username) REFERENCES users(username)
		);

		CREATE INDEX IF NOT EXISTS idx_notes_username ON notes(username);
	`

	_, err := s.db.Exec(schema)
	return err
}

// GetUser retrieves a user record by exact username match.
func (s *SQLiteStore) GetUser(ctx context.Context, username string) (*User, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT username, password_hash, created_at FROM users WHERE username = ?",
		username,
	)

	var u User
	if err := row.Scan(&u.Username, &u.PasswordHash, &u.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("querying user: %w", err)
	}
	return &u, nil
}

// CreateUser inserts a new user record.
// Returns ErrUserExists if the username is already taken.
func (s *SQLiteStore) CreateUser(ctx context.Context, username, passwordHash string) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO users (username, password_hash, created_at) VALUES (?, ?, ?)",
		username, passwordHash, time.Now().UTC(),
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return ErrUserExists
		}
		return fmt.Errorf("inserting user: %w", err)
	}
	return nil
}

// SetUserPassword replaces the password hash for an existing user.
func (s *SQLiteStore) SetUserPassword(ctx context.Context, username, passwordHash string) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE users SET password_hash = ? WHERE username = ?",
		passwordHash, username,
	)
	if err != nil {
		return fmt.Errorf("updating password: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking update result: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// ListUsers returns all user records ordered by username.
func (s *SQLiteStore) ListUsers(ctx context.Context) ([]*User, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT username, password_hash, created_at FROM users ORDER BY username",
	)
	if err != nil {
		return nil, fmt.Errorf("querying users: %w", err)
	}
	defer rows.Close()

	var users []*User
	for rows.Next() {
		var u User
		if err := rows.Scan(&u.Username, &u.PasswordHash, &u.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning user: %w", err)
		}
		users = append(users, &u)
	}
	return users, rows.Err()
}

// CreateNote inserts a fresh note for the user and returns it.
// The note gets a generated ID, the default name, empty contents, and a
// creation timestamp.
func (s *SQLiteStore) CreateNote(ctx context.Context, username string) (*Note, error) {
	note := &Note{
		ID:        uuid.New().String(),
		Name:      DefaultNoteName,
		Contents:  "",
		UpdatedAt: time.Now().UTC(),
	}

	_, err := s.db.ExecContext(ctx,
		"INSERT INTO notes (username, id, name, contents, updated_at) VALUES (?, ?, ?, ?, ?)",
		username, note.ID, note.Name, note.Contents, note.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("inserting note: %w", err)
	}
	return note, nil
}

// PatchNoteContents sets only the contents field of the targeted note.
// Name and updated_at are never touched by this operation.
//
// A patch against an unknown note ID upserts a bare row (empty name, no
// timestamp), preserving the permissive partial-update semantics of the
// original document store.
func (s *SQLiteStore) PatchNoteContents(ctx context.Context, username, noteID, contents string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO notes (username, id, name, contents, updated_at)
		 VALUES (?, ?, '', ?, NULL)
		 ON CONFLICT (username, id) DO UPDATE SET contents = excluded.contents`,
		username, noteID, contents,
	)
	if err != nil {
		return fmt.Errorf("patching note contents: %w", err)
	}
	return nil
}

// GetNotes returns the full notes mapping for the user.
// Returns ErrNotFound if the user record does not exist.
func (s *SQLiteStore) GetNotes(ctx context.Context, username string) (map[string]*Note, error) {
	if _, err := s.GetUser(ctx, username); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		"SELECT id, name, contents, updated_at FROM notes WHERE username = ?",
		username,
	)
	if err != nil {
		return nil, fmt.Errorf("querying notes: %w", err)
	}
	defer rows.Close()

	notes := make(map[string]*Note)
	for rows.Next() {
		var n Note
		var updatedAt sql.NullTime
		if err := rows.Scan(&n.ID, &n.Name, &n.Contents, &updatedAt); err != nil {
			return nil, fmt.Errorf("scanning note: %w", err)
		}
		if updatedAt.Valid {
			n.UpdatedAt = updatedAt.Time
		}
		notes[n.ID] = &n
	}
	return notes, rows.Err()
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
