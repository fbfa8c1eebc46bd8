// Package jwtx reads claims from admin session tokens.
//
// The CLI is not the token's audience and holds no verification key, so claims
// are decoded without checking the signature. They are only ever used for
// display (who am I, when does my session end) and never for authorization.
package jwtx

import (
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrNotJWT    = errors.New("jwtx: token is not a JWT")
	ErrMalformed = errors.New("jwtx: malformed token")
	ErrExpired   = errors.New("jwtx: token expired")
)

// Claims are the fields the admin API is known to put in its tokens. Unknown
// claims are ignored.
type Claims struct {
	jwt.RegisteredClaims

	Username string `json:"username,omitempty"`
	Role     string `json:"role,omitempty"`
}

// Peek decodes the claims of token without verifying its signature. Opaque
// tokens return ErrNotJWT.
func Peek(token string) (*Claims, error) {
	if strings.Count(token, ".") != 2 {
		return nil, ErrNotJWT
	}

	var claims Claims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return nil, errors.Join(ErrMalformed, err)
	}

	return &claims, nil
}

// Name returns the best available identity: username, then subject.
func (c *Claims) Name() string {
	if c.Username != "" {
		return c.Username
	}
	return c.Subject
}

// Expiry returns the exp claim, or the zero time when absent.
func (c *Claims) Expiry() time.Time {
	if c.ExpiresAt == nil {
		return time.Time{}
	}
	return c.ExpiresAt.Time
}

// ValidateExpiryWithLeeway returns ErrExpired when exp is more than leeway
// before now. Tokens without exp never expire here.
func (c *Claims) ValidateExpiryWithLeeway(now time.Time, leeway time.Duration) error {
	if c.ExpiresAt != nil && now.After(c.ExpiresAt.Add(leeway)) {
		return ErrExpired
	}
	return nil
}
