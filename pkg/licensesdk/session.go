package licensesdk

import (
	"context"
	"fmt"
)

// Session represents an admin session whose token lives in a TokenStore.
// Only Login and Logout change the stored token.
type Session struct {
	client *SDKClient
	store  TokenStore

	// login is the payload of the Login call that created this session, nil for
	// sessions resumed with SDKClient.Session.
	login *LoginResponse
}

// Login returns the login payload that created this session, or nil if the
// session was resumed from an existing store.
func (s *Session) Login() *LoginResponse {
	return s.login
}

// Logout deletes the stored token. No network call is made, and logging out
// when no token is stored is a no-op.
func (s *Session) Logout(ctx context.Context) error {
	if err := s.store.Remove(ctx); err != nil {
		return fmt.Errorf("failed to remove session token: %w", err)
	}
	return nil
}

// IsLoggedIn reports whether a token is currently stored. The token is not
// validated against the server and its expiry is not checked.
func (s *Session) IsLoggedIn(ctx context.Context) (bool, error) {
	token, err := s.store.Load(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to load session token: %w", err)
	}
	return token != "", nil
}

// Token returns the currently stored token, or "".
func (s *Session) Token(ctx context.Context) (string, error) {
	return s.store.Load(ctx)
}
