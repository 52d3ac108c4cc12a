// Package store provides persistent storage for cheatsheet-server using SQLite.
//
// The Store interface models the backing document store as a minimal
// per-user notes collection: user records are read-only from the server's
// perspective (provisioned by cheatsheet-admin), and notes are mutated only
// through per-field operations.
//
// PatchNoteContents is the explicit partial-update contract. It sets
// exactly the contents field of one note and is atomic at the single-note
// level; name and updatedAt are never rewritten by it. A patch against an
// unknown note ID upserts a bare row rather than failing, mirroring the
// dotted-path field-set semantics of the original document store.
//
// SQLiteStore is the production implementation (WAL mode, schema
// auto-creation). Use NewMockStore() for unit tests, or
// NewSQLiteStore(":memory:") for integration tests with real SQLite.
package store
