// Package catalog exposes the product catalog as a valid-identifier universe.
//
// The catalog itself is an external resource; this package defines the
// read-side contracts the stores depend on, plus a service that merges the
// live assignment catalog with locally cached product overrides. The universe
// is allowed to change independently of any wishlist or cart that references
// it, which is what makes favorites reconciliation necessary.
package catalog

import (
	"context"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

// Product describes one catalog entry referenced by cart and favorites.
type Product struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	UnitPrice   decimal.Decimal `json:"unitPrice"`
	ImageRef    string          `json:"imageRef,omitempty"`
	CategoryRef string          `json:"categoryRef,omitempty"`
}

// Universe is the set of product identifiers currently considered valid.
type Universe map[string]struct{}

// NewUniverse builds a universe from the provided identifiers, ignoring blanks.
func NewUniverse(ids ...string) Universe {
	u := make(Universe, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		u[id] = struct{}{}
	}
	return u
}

// Contains reports whether id is part of the universe.
func (u Universe) Contains(id string) bool {
	_, ok := u[id]
	return ok
}

// IDs returns the universe members in lexical order.
func (u Universe) IDs() []string {
	out := make([]string, 0, len(u))
	for id := range u {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// UniverseProvider yields the current valid-identifier universe.
type UniverseProvider interface {
	Universe(ctx context.Context) (Universe, error)
}

// ProviderFunc adapts a plain function into a UniverseProvider.
type ProviderFunc func(ctx context.Context) (Universe, error)

// Universe implements UniverseProvider.
func (f ProviderFunc) Universe(ctx context.Context) (Universe, error) { return f(ctx) }

// StaticProvider serves a fixed universe, used in tests and offline mode.
type StaticProvider struct {
	universe Universe
}

// NewStaticProvider builds a provider around the given universe.
func NewStaticProvider(universe Universe) *StaticProvider {
	return &StaticProvider{universe: universe}
}

// Universe returns a copy of the fixed universe.
func (p *StaticProvider) Universe(context.Context) (Universe, error) {
	out := make(Universe, len(p.universe))
	for id := range p.universe {
		out[id] = struct{}{}
	}
	return out, nil
}
