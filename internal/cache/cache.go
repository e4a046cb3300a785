// Package cache defines the persistent key-value cache backing the portal stores.
//
// Values are full-state JSON blobs written on every mutation; there is no
// partial or delta write. A missing key means "use default empty state" and is
// reported as errs.CodeNotFound so callers can fall back without treating it
// as a failure.
package cache

import (
	"context"
	"strings"

	"github.com/lumera/portal/errs"
)

// Key addresses one logical cache domain.
type Key string

const (
	// KeyCart holds the serialized cart line items.
	KeyCart Key = "lumera.cart"
	// KeyFavorites holds the serialized favorite references.
	KeyFavorites Key = "lumera.favorites"
	// KeyProductOverrides holds locally overridden product catalog entries.
	KeyProductOverrides Key = "lumera.products"
)

// Validate ensures the key is one of the fixed cache domains.
func (k Key) Validate() error {
	switch k {
	case KeyCart, KeyFavorites, KeyProductOverrides:
		return nil
	}
	if strings.TrimSpace(string(k)) == "" {
		return errs.New("cache/key", errs.CodeInvalid, errs.WithMessage("key required"))
	}
	return errs.New("cache/key", errs.CodeInvalid, errs.WithMessage("unknown cache key "+string(k)))
}

// Store defines the persistent cache contract.
type Store interface {
	// Get returns the blob stored under key, or errs.CodeNotFound when absent.
	Get(ctx context.Context, key Key) ([]byte, error)
	// Put replaces the blob stored under key.
	Put(ctx context.Context, key Key, blob []byte) error
	// Delete removes the key entirely, distinguishing "empty" from "never initialized".
	Delete(ctx context.Context, key Key) error
	// Close releases the underlying resources.
	Close() error
}

// NotFound reports whether err marks an absent cache key.
func NotFound(err error) bool {
	return errs.IsCode(err, errs.CodeNotFound)
}
