package cache

import (
	"context"
	"fmt"
	"sync"
)

// MemoryStore is an in-memory implementation of the cache Store.
// It backs tests and ephemeral deployments where durability is not needed.
type MemoryStore struct {
	mu    sync.RWMutex
	blobs map[Key][]byte
}

// NewMemoryStore creates a memory-backed cache store.
func NewMemoryStore() *MemoryStore {
	store := new(MemoryStore)
	store.blobs = make(map[Key][]byte)
	return store
}

// Get returns the blob stored under key.
func (s *MemoryStore) Get(ctx context.Context, key Key) ([]byte, error) {
	if err := key.Validate(); err != nil {
		return nil, err
	}
	if err := ctxErr(ctx, "get"); err != nil {
		return nil, err
	}
	s.mu.RLock()
	blob, ok := s.blobs[key]
	s.mu.RUnlock()
	if !ok {
		return nil, notFound(key)
	}
	out := make([]byte, len(blob))
	copy(out, blob)
	return out, nil
}

// Put replaces the blob stored under key.
func (s *MemoryStore) Put(ctx context.Context, key Key, blob []byte) error {
	if err := key.Validate(); err != nil {
		return err
	}
	if err := ctxErr(ctx, "put"); err != nil {
		return err
	}
	stored := make([]byte, len(blob))
	copy(stored, blob)
	s.mu.Lock()
	s.blobs[key] = stored
	s.mu.Unlock()
	return nil
}

// Delete removes the key entirely. Deleting an absent key is not an error.
func (s *MemoryStore) Delete(ctx context.Context, key Key) error {
	if err := key.Validate(); err != nil {
		return err
	}
	if err := ctxErr(ctx, "delete"); err != nil {
		return err
	}
	s.mu.Lock()
	delete(s.blobs, key)
	s.mu.Unlock()
	return nil
}

// Close is a no-op for the memory store.
func (s *MemoryStore) Close() error { return nil }

func ctxErr(ctx context.Context, op string) error {
	if ctx == nil {
		return nil
	}
	select {
	case <-ctx.Done():
		return fmt.Errorf("memory cache %s context: %w", op, ctx.Err())
	default:
		return nil
	}
}
