package sessionstore

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/lumera/portal/internal/analytics"
)

// MemoryStore is an in-memory implementation of the session Store, used by
// tests and deployments without a Postgres instance.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions []analytics.VisitorSession
}

// NewMemoryStore creates a memory-backed session store.
func NewMemoryStore() *MemoryStore {
	return new(MemoryStore)
}

// Insert records a session, assigning an id when the record has none.
func (s *MemoryStore) Insert(ctx context.Context, session analytics.VisitorSession) (analytics.VisitorSession, error) {
	if ctx != nil {
		select {
		case <-ctx.Done():
			return analytics.VisitorSession{}, fmt.Errorf("memory session insert context: %w", ctx.Err())
		default:
		}
	}
	if session.ID == "" {
		session.ID = uuid.NewString()
	}
	s.mu.Lock()
	s.sessions = append(s.sessions, session)
	s.mu.Unlock()
	return session, nil
}

// List returns sessions matching the query, newest first.
func (s *MemoryStore) List(ctx context.Context, query Query) ([]analytics.VisitorSession, error) {
	if ctx != nil {
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("memory session list context: %w", ctx.Err())
		default:
		}
	}
	s.mu.RLock()
	matched := make([]analytics.VisitorSession, 0, len(s.sessions))
	for _, session := range s.sessions {
		if query.Matches(session) {
			matched = append(matched, session)
		}
	}
	s.mu.RUnlock()

	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].Timestamp.After(matched[j].Timestamp)
	})
	if query.Limit > 0 && len(matched) > query.Limit {
		matched = matched[:query.Limit]
	}
	return matched, nil
}
