// Package favorites implements the membership set store for favorited
// products and its reconciliation against the remote wishlist.
package favorites

import (
	"context"
	"fmt"
	"sync"

	json "github.com/goccy/go-json"

	"github.com/lumera/portal/internal/cache"
	"github.com/lumera/portal/internal/observability"
)

// Ref is a bare reference into the product catalog. Set semantics: an id
// appears at most once.
type Ref struct {
	ID string `json:"id"`
}

// Store owns the favorite references. Mutations persist to the cache
// immediately; remote synchronisation is the Reconciler's concern.
type Store struct {
	mu      sync.Mutex
	ids     []string
	kv      cache.Store
	metrics *observability.RuntimeMetrics
}

// NewStore constructs an empty favorites store persisting to kv. Metrics may be nil.
func NewStore(kv cache.Store, metrics *observability.RuntimeMetrics) *Store {
	return &Store{ids: nil, kv: kv, metrics: metrics}
}

// Hydrate replaces the set wholesale from the persisted snapshot. A missing
// key or malformed blob degrades to the empty set.
func (s *Store) Hydrate(ctx context.Context) error {
	blob, err := s.kv.Get(ctx, cache.KeyFavorites)
	if err != nil {
		if cache.NotFound(err) {
			return nil
		}
		return fmt.Errorf("hydrate favorites: %w", err)
	}
	var refs []Ref
	if err := json.Unmarshal(blob, &refs); err != nil {
		observability.Log().Error("cached favorites malformed, starting empty",
			observability.Field{Key: "error", Value: err})
		return nil
	}
	ids := make([]string, 0, len(refs))
	seen := make(map[string]struct{}, len(refs))
	for _, ref := range refs {
		if ref.ID == "" {
			continue
		}
		if _, dup := seen[ref.ID]; dup {
			continue
		}
		seen[ref.ID] = struct{}{}
		ids = append(ids, ref.ID)
	}
	s.mu.Lock()
	s.ids = ids
	s.mu.Unlock()
	return nil
}

// Add inserts id into the set. Adding an existing id is a no-op that still
// succeeds; the cache is only written when the set actually changed.
func (s *Store) Add(ctx context.Context, id string) error {
	if id == "" {
		return nil
	}
	s.mu.Lock()
	if s.containsLocked(id) {
		s.mu.Unlock()
		return nil
	}
	s.ids = append(s.ids, id)
	ids := s.copyLocked()
	s.mu.Unlock()
	return s.persist(ctx, ids)
}

// Remove deletes id from the set. Removing an absent id is a no-op.
func (s *Store) Remove(ctx context.Context, id string) error {
	s.mu.Lock()
	if !s.containsLocked(id) {
		s.mu.Unlock()
		return nil
	}
	filtered := s.ids[:0]
	for _, existing := range s.ids {
		if existing != id {
			filtered = append(filtered, existing)
		}
	}
	s.ids = filtered
	ids := s.copyLocked()
	s.mu.Unlock()
	return s.persist(ctx, ids)
}

// Contains reports whether id is currently favorited.
func (s *Store) Contains(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.containsLocked(id)
}

// IDs returns the current members in insertion order.
func (s *Store) IDs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.copyLocked()
}

// Refs returns the current members wrapped as catalog references.
func (s *Store) Refs() []Ref {
	ids := s.IDs()
	refs := make([]Ref, len(ids))
	for i, id := range ids {
		refs[i] = Ref{ID: id}
	}
	return refs
}

// replace commits ids as the new set state and persists it. Used by the
// Reconciler after computing the pruned view.
func (s *Store) replace(ctx context.Context, ids []string) error {
	committed := make([]string, len(ids))
	copy(committed, ids)
	s.mu.Lock()
	s.ids = committed
	s.mu.Unlock()
	return s.persist(ctx, ids)
}

func (s *Store) containsLocked(id string) bool {
	for _, existing := range s.ids {
		if existing == id {
			return true
		}
	}
	return false
}

func (s *Store) copyLocked() []string {
	out := make([]string, len(s.ids))
	copy(out, s.ids)
	return out
}

func (s *Store) persist(ctx context.Context, ids []string) error {
	refs := make([]Ref, len(ids))
	for i, id := range ids {
		refs[i] = Ref{ID: id}
	}
	blob, err := json.Marshal(refs)
	if err != nil {
		return fmt.Errorf("encode favorites: %w", err)
	}
	if err := s.kv.Put(ctx, cache.KeyFavorites, blob); err != nil {
		return fmt.Errorf("persist favorites: %w", err)
	}
	if s.metrics != nil {
		s.metrics.RecordCacheWrite(string(cache.KeyFavorites))
	}
	return nil
}
