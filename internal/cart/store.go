// Package cart implements the derived-totals collection store behind the
// storefront cart.
//
// Totals are never stored independently of the line items that produced them:
// every mutation recomputes them from scratch, so the aggregates cannot drift
// from the collection. Every mutation is also followed synchronously by a
// full-state write to the persistent cache; there is no debouncing.
package cart

import (
	"context"
	"fmt"
	"sync"

	json "github.com/goccy/go-json"
	"github.com/shopspring/decimal"

	"github.com/lumera/portal/internal/cache"
	"github.com/lumera/portal/internal/catalog"
	"github.com/lumera/portal/internal/observability"
)

// LineItem is one cart entry. Quantity is always >= 1; removing the last unit
// removes the line entirely rather than leaving quantity 0.
type LineItem struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	UnitPrice   decimal.Decimal `json:"unitPrice"`
	Quantity    int             `json:"quantity"`
	ImageRef    string          `json:"imageRef,omitempty"`
	CategoryRef string          `json:"categoryRef,omitempty"`
}

// Totals carries the derived aggregates over the current line items.
type Totals struct {
	Quantity int             `json:"totalQuantity"`
	Amount   decimal.Decimal `json:"totalAmount"`
}

// Snapshot is the full cart state as persisted to the cache.
type Snapshot struct {
	Items  []LineItem `json:"items"`
	Totals Totals     `json:"totals"`
}

// Store owns the cart line items and their derived totals.
type Store struct {
	mu      sync.Mutex
	items   []LineItem
	totals  Totals
	kv      cache.Store
	metrics *observability.RuntimeMetrics
}

// NewStore constructs an empty cart store persisting to kv. Metrics may be nil.
func NewStore(kv cache.Store, metrics *observability.RuntimeMetrics) *Store {
	return &Store{
		items:   nil,
		totals:  Totals{Quantity: 0, Amount: decimal.Zero},
		kv:      kv,
		metrics: metrics,
	}
}

// Hydrate replaces the cart state wholesale from the persisted snapshot.
// A missing key or malformed blob degrades to the empty cart. Hydration does
// not revalidate cached prices against the live catalog; a price changed
// upstream stays stale until the item is re-added.
func (s *Store) Hydrate(ctx context.Context) error {
	blob, err := s.kv.Get(ctx, cache.KeyCart)
	if err != nil {
		if cache.NotFound(err) {
			return nil
		}
		return fmt.Errorf("hydrate cart: %w", err)
	}
	var snap Snapshot
	if err := json.Unmarshal(blob, &snap); err != nil {
		observability.Log().Error("cached cart malformed, starting empty",
			observability.Field{Key: "error", Value: err})
		return nil
	}
	s.mu.Lock()
	s.items = snap.Items
	s.recomputeLocked()
	s.mu.Unlock()
	return nil
}

// AddItem appends the product as a new line item, or increments the quantity
// of the existing line with the same id. Quantities below 1 are treated as 1.
func (s *Store) AddItem(ctx context.Context, product catalog.Product, quantity int) error {
	if quantity < 1 {
		quantity = 1
	}
	s.mu.Lock()
	found := false
	for i := range s.items {
		if s.items[i].ID == product.ID {
			s.items[i].Quantity += quantity
			found = true
			break
		}
	}
	if !found {
		s.items = append(s.items, LineItem{
			ID:          product.ID,
			Name:        product.Name,
			UnitPrice:   product.UnitPrice,
			Quantity:    quantity,
			ImageRef:    product.ImageRef,
			CategoryRef: product.CategoryRef,
		})
	}
	s.recomputeLocked()
	snap := s.snapshotLocked()
	s.mu.Unlock()
	return s.persist(ctx, snap)
}

// RemoveItem filters the id out of the collection.
func (s *Store) RemoveItem(ctx context.Context, id string) error {
	s.mu.Lock()
	filtered := s.items[:0]
	for _, item := range s.items {
		if item.ID != id {
			filtered = append(filtered, item)
		}
	}
	s.items = filtered
	s.recomputeLocked()
	snap := s.snapshotLocked()
	s.mu.Unlock()
	return s.persist(ctx, snap)
}

// SetQuantity sets the quantity of the line with the given id. A quantity of
// zero or less removes the line, keeping the quantity >= 1 invariant instead
// of trusting the UI to guard it. Unknown ids are a no-op.
func (s *Store) SetQuantity(ctx context.Context, id string, quantity int) error {
	if quantity <= 0 {
		return s.RemoveItem(ctx, id)
	}
	s.mu.Lock()
	changed := false
	for i := range s.items {
		if s.items[i].ID == id {
			s.items[i].Quantity = quantity
			changed = true
			break
		}
	}
	if !changed {
		s.mu.Unlock()
		return nil
	}
	s.recomputeLocked()
	snap := s.snapshotLocked()
	s.mu.Unlock()
	return s.persist(ctx, snap)
}

// Clear empties the collection and removes the persisted entry entirely, so a
// cleared cart is distinguishable from one that was never initialized.
func (s *Store) Clear(ctx context.Context) error {
	s.mu.Lock()
	s.items = nil
	s.recomputeLocked()
	s.mu.Unlock()
	if err := s.kv.Delete(ctx, cache.KeyCart); err != nil {
		return fmt.Errorf("clear cart cache: %w", err)
	}
	return nil
}

// Snapshot returns a copy of the current items and totals.
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Totals returns the current derived aggregates.
func (s *Store) Totals() Totals {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.totals
}

func (s *Store) recomputeLocked() {
	totals := Totals{Quantity: 0, Amount: decimal.Zero}
	for _, item := range s.items {
		totals.Quantity += item.Quantity
		totals.Amount = totals.Amount.Add(item.UnitPrice.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}
	s.totals = totals
}

func (s *Store) snapshotLocked() Snapshot {
	items := make([]LineItem, len(s.items))
	copy(items, s.items)
	return Snapshot{Items: items, Totals: s.totals}
}

func (s *Store) persist(ctx context.Context, snap Snapshot) error {
	blob, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encode cart snapshot: %w", err)
	}
	if err := s.kv.Put(ctx, cache.KeyCart, blob); err != nil {
		return fmt.Errorf("persist cart: %w", err)
	}
	if s.metrics != nil {
		s.metrics.RecordCacheWrite(string(cache.KeyCart))
	}
	return nil
}
