// Package contract provides interfaces and shared utilities for internal architecture.
package contract

import (
	"context"
	"errors"

	"github.com/huangsam/pantry/schema"
)

// ErrKeyNotFound is returned by KVStore.Get when the key is absent.
var ErrKeyNotFound = errors.New("key not found")

// KVStore defines the durable key-value namespace every component persists into.
// This allows the store to be mocked for testing.
type KVStore interface {
	// Get returns the value stored at key, or ErrKeyNotFound.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set inserts or replaces the value stored at key.
	Set(ctx context.Context, key string, value []byte) error

	// SetBatch writes several keys atomically. A nil value deletes the key.
	SetBatch(ctx context.Context, entries map[string][]byte) error

	// Delete removes keys. Missing keys are not an error.
	Delete(ctx context.Context, keys ...string) error

	// Keys returns the sorted keys that start with prefix.
	Keys(ctx context.Context, prefix string) ([]string, error)

	// GetStatus returns status information about the store.
	GetStatus() (schema.StoreStatus, error)

	// Close closes the underlying connection.
	Close() error
}

// StoreManager hands out the process-wide store.
// This allows the store lifecycle to be mocked for testing.
type StoreManager interface {
	GetStore() KVStore
}

// RecipeProvider is the read-only recipe lookup source.
type RecipeProvider interface {
	// List returns one page of recipes matching filters. Pages start at 1.
	List(ctx context.Context, page, pageSize int, filters schema.RecipeFilters) (schema.RecipePage, error)

	// GetByID returns the recipe with the given ID, or nil when unknown.
	GetByID(ctx context.Context, id string) (*schema.Recipe, error)

	// Search returns recipes whose text matches query and that satisfy filters.
	Search(ctx context.Context, query string, filters schema.RecipeFilters) ([]schema.Recipe, error)
}
