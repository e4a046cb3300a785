package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "modernc.org/sqlite" // sqlite driver

	"github.com/lumera/portal/errs"
)

// Schema for the kv_cache table. Applied by NewSQLiteStore.
const schema = `
CREATE TABLE IF NOT EXISTS kv_cache (
	key TEXT PRIMARY KEY,
	blob BLOB NOT NULL,
	updated_at INTEGER NOT NULL DEFAULT (unixepoch())
);
`

// SQLiteStore persists cache blobs to a local SQLite database, giving the
// portal durable state across restarts the way the storefront relied on
// browser-local storage.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (or creates) the database at path and ensures the schema.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errs.New("cache/sqlite", errs.CodeStorage, errs.WithMessage("open database"), errs.WithCause(err))
	}
	// A single writer avoids SQLITE_BUSY on concurrent store mutations.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, errs.New("cache/sqlite", errs.CodeStorage, errs.WithMessage("apply schema"), errs.WithCause(err))
	}
	return &SQLiteStore{db: db}, nil
}

// Get returns the blob stored under key.
func (s *SQLiteStore) Get(ctx context.Context, key Key) ([]byte, error) {
	if err := key.Validate(); err != nil {
		return nil, err
	}
	var blob []byte
	err := s.db.QueryRowContext(ctx, `SELECT blob FROM kv_cache WHERE key = ?`, string(key)).Scan(&blob)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound(key)
	}
	if err != nil {
		return nil, errs.New("cache/sqlite", errs.CodeStorage, errs.WithMessage("read "+string(key)), errs.WithCause(err))
	}
	return blob, nil
}

// Put replaces the blob stored under key.
func (s *SQLiteStore) Put(ctx context.Context, key Key, blob []byte) error {
	if err := key.Validate(); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO kv_cache (key, blob, updated_at) VALUES (?, ?, unixepoch())
		 ON CONFLICT(key) DO UPDATE SET blob = excluded.blob, updated_at = excluded.updated_at`,
		string(key), blob)
	if err != nil {
		return errs.New("cache/sqlite", errs.CodeStorage, errs.WithMessage("write "+string(key)), errs.WithCause(err))
	}
	return nil
}

// Delete removes the key entirely. Deleting an absent key is not an error.
func (s *SQLiteStore) Delete(ctx context.Context, key Key) error {
	if err := key.Validate(); err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx, `DELETE FROM kv_cache WHERE key = ?`, string(key)); err != nil {
		return errs.New("cache/sqlite", errs.CodeStorage, errs.WithMessage("delete "+string(key)), errs.WithCause(err))
	}
	return nil
}

// Close closes the underlying database handle.
func (s *SQLiteStore) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("close cache database: %w", err)
	}
	return nil
}

func notFound(key Key) error {
	return errs.New("cache/kv", errs.CodeNotFound, errs.WithMessage("no cached state for "+string(key)))
}
