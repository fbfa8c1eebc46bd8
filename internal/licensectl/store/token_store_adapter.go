package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/alekostrader/alkadmin/pkg/cryptox"
	"github.com/alekostrader/alkadmin/pkg/licensesdk"
)

// TokenSealPurpose is the HKDF info string for the session token key.
const TokenSealPurpose = "licensectl session token v1"

// TokenStoreAdapter adapts a Store to licensesdk.TokenStore. The token is sealed
// before it reaches the driver and opened on the way back, so drivers only ever
// see ciphertext.
type TokenStoreAdapter struct {
	store  Store
	sealer *cryptox.Sealer
	key    string
}

var _ licensesdk.TokenStore = (*TokenStoreAdapter)(nil)

// NewTokenStoreAdapter returns a TokenStore that keeps the token under
// licensesdk.TokenKey in store.
func NewTokenStoreAdapter(store Store, sealer *cryptox.Sealer) *TokenStoreAdapter {
	return &TokenStoreAdapter{store: store, sealer: sealer, key: licensesdk.TokenKey}
}

// Load returns "" when no token is stored.
func (a *TokenStoreAdapter) Load(ctx context.Context) (string, error) {
	sealed, err := a.store.Tokens().GetToken(ctx, a.key)
	if errors.Is(err, ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}

	plain, err := a.sealer.Open(sealed)
	if err != nil {
		return "", fmt.Errorf("failed to open stored token (was the master key replaced?): %w", err)
	}

	return string(plain), nil
}

func (a *TokenStoreAdapter) Save(ctx context.Context, token string) error {
	sealed, err := a.sealer.Seal([]byte(token))
	if err != nil {
		return err
	}
	return a.store.Tokens().PutToken(ctx, a.key, sealed)
}

func (a *TokenStoreAdapter) Remove(ctx context.Context) error {
	return a.store.Tokens().DeleteToken(ctx, a.key)
}
