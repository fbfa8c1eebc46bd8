package licensesdk

import (
	"context"
	"sync"
)

// TokenKey is the fixed key the admin bearer token is persisted under.
const TokenKey = "alekos_admin_token"

// TokenStore persists the admin bearer token. Implementations must be durable
// across process restarts unless they are meant for tests.
type TokenStore interface {
	// Load returns the stored token, or "" with a nil error when none is stored.
	Load(ctx context.Context) (string, error)

	// Save overwrites any stored token.
	Save(ctx context.Context, token string) error

	// Remove deletes the stored token. Removing an absent token is not an error.
	Remove(ctx context.Context) error
}

// MemoryTokenStore is an in-process TokenStore, mainly for tests.
type MemoryTokenStore struct {
	mu    sync.Mutex
	token string
}

// NewMemoryTokenStore returns an empty MemoryTokenStore.
func NewMemoryTokenStore() *MemoryTokenStore {
	return &MemoryTokenStore{}
}

func (m *MemoryTokenStore) Load(context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.token, nil
}

func (m *MemoryTokenStore) Save(_ context.Context, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token = token
	return nil
}

func (m *MemoryTokenStore) Remove(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token = ""
	return nil
}
