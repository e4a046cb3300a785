// Package postgres implements the portal's database-backed repositories.
package postgres

import "github.com/jackc/pgx/v5/pgxpool"

// Store groups the PostgreSQL-backed repositories behind one pool.
type Store struct {
	pool     *pgxpool.Pool
	sessions *SessionStore
}

// New constructs a PostgreSQL persistence store.
func New(pool *pgxpool.Pool) *Store {
	return &Store{
		pool:     pool,
		sessions: NewSessionStore(pool),
	}
}

// Sessions exposes the visitor-session repository.
func (s *Store) Sessions() *SessionStore {
	return s.sessions
}

// Close releases the underlying pool.
func (s *Store) Close() {
	if s != nil && s.pool != nil {
		s.pool.Close()
	}
}
