package licensesdk

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// ============================================================================
// Tier
// ============================================================================

// Tier is a license plan level. Entitlements per tier are enforced server-side.
type Tier string

const (
	TierTrader     Tier = "trader"
	TierPro        Tier = "pro"
	TierEnterprise Tier = "enterprise"
)

// Tiers lists every known tier in ascending order.
var Tiers = []Tier{TierTrader, TierPro, TierEnterprise}

// ParseTier parses a case-insensitive tier name.
func ParseTier(s string) (Tier, error) {
	t := Tier(strings.ToLower(strings.TrimSpace(s)))
	if !t.Valid() {
		return "", fmt.Errorf("unknown tier %q (want trader, pro or enterprise)", s)
	}
	return t, nil
}

// Valid reports whether t is a known tier.
func (t Tier) Valid() bool {
	switch t {
	case TierTrader, TierPro, TierEnterprise:
		return true
	default:
		return false
	}
}

func (t Tier) String() string { return string(t) }

// ============================================================================
// License
// ============================================================================

// LicenseStatus is derived from a License at render time and never stored.
type LicenseStatus string

const (
	StatusActive  LicenseStatus = "active"
	StatusExpired LicenseStatus = "expired"
	StatusRevoked LicenseStatus = "revoked"
)

// ParseLicenseStatus parses a case-insensitive status name.
func ParseLicenseStatus(s string) (LicenseStatus, error) {
	switch st := LicenseStatus(strings.ToLower(strings.TrimSpace(s))); st {
	case StatusActive, StatusExpired, StatusRevoked:
		return st, nil
	default:
		return "", fmt.Errorf("unknown status %q (want active, expired or revoked)", s)
	}
}

// License is the wire shape of a license as returned by the API.
type License struct {
	LicenseKey string    `json:"licenseKey"`
	Tier       Tier      `json:"tier"`
	OwnerEmail string    `json:"ownerEmail"`
	ExpiresAt  time.Time `json:"expiresAt"`
	IsActive   bool      `json:"isActive"`
}

// Status derives the display status at now. An inactive license is revoked
// regardless of expiry. A zero ExpiresAt never expires.
func (l License) Status(now time.Time) LicenseStatus {
	switch {
	case !l.IsActive:
		return StatusRevoked
	case !l.ExpiresAt.IsZero() && l.ExpiresAt.Before(now):
		return StatusExpired
	default:
		return StatusActive
	}
}

// MaskLicenseKey masks a license key for logs. Dash-separated keys keep their
// first two groups; other keys keep their first 8 characters.
func MaskLicenseKey(key string) string {
	if len(key) < 8 {
		return "****"
	}

	if parts := strings.Split(key, "-"); len(parts) > 2 {
		masked := parts[0] + "-" + parts[1]
		for range parts[2:] {
			masked += "-****"
		}
		return masked
	}

	if len(key) > 8 {
		return key[:8] + "****"
	}
	return key
}

// ============================================================================
// Request Types
// ============================================================================

// LoginRequest is the body of POST /api/auth/login.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// CreateLicenseRequest is the body of POST /api/license/create.
type CreateLicenseRequest struct {
	Tier       Tier   `json:"tier"`
	OwnerEmail string `json:"ownerEmail"`

	// ExpiresAt is an ISO-8601 UTC timestamp with millisecond precision
	ExpiresAt string `json:"expiresAt"`
}

// LicenseKeyRequest is the body of the activate, deactivate and reset-hardware calls.
type LicenseKeyRequest struct {
	LicenseKey string `json:"licenseKey"`
}

// ============================================================================
// Response Types
// ============================================================================

// LoginResponse is the successful login payload. Token is extracted from the
// "token" field; Raw keeps the whole body since the server may add fields.
type LoginResponse struct {
	Token string          `json:"token"`
	Raw   json.RawMessage `json:"-"`
}

// listShape tags which of the accepted list response shapes was decoded.
type listShape int

const (
	listShapeOther    listShape = iota // anything else: decodes to no licenses
	listShapeArray                     // [License, ...]
	listShapeEnvelope                  // {"licenses": [License, ...]}
)

// licenseList is the tagged-union decoding of GET /api/license/list.
type licenseList struct {
	shape    listShape
	licenses []License
}

// UnmarshalJSON accepts a bare array or an object with a "licenses" array.
// Every other JSON value decodes to the other shape with no licenses.
func (l *licenseList) UnmarshalJSON(data []byte) error {
	l.shape = listShapeOther
	l.licenses = nil

	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil
	}

	switch data[0] {
	case '[':
		if err := json.Unmarshal(data, &l.licenses); err != nil {
			return err
		}
		l.shape = listShapeArray

	case '{':
		var envelope struct {
			Licenses json.RawMessage `json:"licenses"`
		}
		if err := json.Unmarshal(data, &envelope); err != nil {
			return err
		}

		inner := bytes.TrimSpace(envelope.Licenses)
		if len(inner) == 0 || inner[0] != '[' {
			return nil
		}
		if err := json.Unmarshal(inner, &l.licenses); err != nil {
			return err
		}
		l.shape = listShapeEnvelope
	}

	return nil
}

// Licenses returns the decoded licenses, never nil.
func (l *licenseList) Licenses() []License {
	if l.licenses == nil {
		return []License{}
	}
	return l.licenses
}
