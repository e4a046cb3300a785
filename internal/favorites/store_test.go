package favorites

import (
	"context"
	"testing"

	"github.com/lumera/portal/internal/cache"
)

func TestAddAndRemoveAreIdempotent(t *testing.T) {
	ctx := context.Background()
	store := NewStore(cache.NewMemoryStore(), nil)

	if err := store.Add(ctx, "pendant-01"); err != nil {
		t.Fatalf("Add() error = %v", err)
	}
	if err := store.Add(ctx, "pendant-01"); err != nil {
		t.Fatalf("repeat Add() error = %v", err)
	}
	if got := store.IDs(); len(got) != 1 {
		t.Fatalf("expected set semantics, got %v", got)
	}

	if err := store.Remove(ctx, "pendant-01"); err != nil {
		t.Fatalf("Remove() error = %v", err)
	}
	if err := store.Remove(ctx, "pendant-01"); err != nil {
		t.Fatalf("repeat Remove() error = %v", err)
	}
	if store.Contains("pendant-01") {
		t.Fatal("expected id to be gone")
	}
}

func TestMutationsPersistImmediately(t *testing.T) {
	ctx := context.Background()
	kv := cache.NewMemoryStore()
	store := NewStore(kv, nil)

	if err := store.Add(ctx, "sconce-02"); err != nil {
		t.Fatalf("Add() error = %v", err)
	}
	blob, err := kv.Get(ctx, cache.KeyFavorites)
	if err != nil {
		t.Fatalf("expected favorites persisted, got %v", err)
	}
	if string(blob) != `[{"id":"sconce-02"}]` {
		t.Fatalf("unexpected persisted blob %s", blob)
	}
}

func TestHydrateDeduplicatesAndSkipsBlanks(t *testing.T) {
	ctx := context.Background()
	kv := cache.NewMemoryStore()
	seed := `[{"id":"a"},{"id":""},{"id":"b"},{"id":"a"}]`
	if err := kv.Put(ctx, cache.KeyFavorites, []byte(seed)); err != nil {
		t.Fatalf("seed cache: %v", err)
	}

	store := NewStore(kv, nil)
	if err := store.Hydrate(ctx); err != nil {
		t.Fatalf("Hydrate() error = %v", err)
	}
	got := store.IDs()
	if len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Fatalf("expected [a b], got %v", got)
	}
}

func TestHydrateMalformedBlobStartsEmpty(t *testing.T) {
	ctx := context.Background()
	kv := cache.NewMemoryStore()
	if err := kv.Put(ctx, cache.KeyFavorites, []byte(`[{"id":`)); err != nil {
		t.Fatalf("seed cache: %v", err)
	}

	store := NewStore(kv, nil)
	if err := store.Hydrate(ctx); err != nil {
		t.Fatalf("Hydrate() error = %v", err)
	}
	if got := store.IDs(); len(got) != 0 {
		t.Fatalf("expected empty set, got %v", got)
	}
}
