package store

import (
	"context"
	"errors"
)

var ErrNotFound = errors.New("store: not found")

// Store is the root data access interface for the CLI's local state. Concrete
// drivers (sqlite, redis) implement this.
type Store interface {
	Tokens() Tokens

	// ApplyMigrations prepares the backing schema. Drivers without a schema
	// return nil.
	ApplyMigrations() error

	Close() error

	// Ping verifies the backend is reachable.
	Ping(ctx context.Context) error
}

// Tokens persists opaque session token blobs by key. Values are stored as given;
// sealing happens above the driver.
type Tokens interface {
	// GetToken returns the blob stored under key, or ErrNotFound.
	GetToken(ctx context.Context, key string) ([]byte, error)

	// PutToken inserts or replaces the blob stored under key.
	PutToken(ctx context.Context, key string, value []byte) error

	// DeleteToken removes key. Deleting an absent key is not an error.
	DeleteToken(ctx context.Context, key string) error
}
