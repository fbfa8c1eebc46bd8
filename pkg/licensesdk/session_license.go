package licensesdk

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

// CreateLicense creates a license for ownerEmail that expires durationMonths
// calendar months from now (see ExpiryAfter).
func (s *Session) CreateLicense(
	ctx context.Context,
	tier Tier,
	ownerEmail string,
	durationMonths int,
) (*License, error) {
	req := CreateLicenseRequest{
		Tier:       tier,
		OwnerEmail: ownerEmail,
		ExpiresAt:  FormatExpiry(ExpiryAfter(s.client.now(), durationMonths)),
	}

	resp, err := s.doAuthRequest(ctx, http.MethodPost, "/api/license/create", req)
	if err != nil {
		return nil, err
	}

	return decodeLicense(resp, OpCreateLicense)
}

// GetAllLicenses lists every license in server order. The response may be a bare
// array or an object with a "licenses" array; any other shape yields an empty slice.
func (s *Session) GetAllLicenses(ctx context.Context) ([]License, error) {
	resp, err := s.doAuthRequest(ctx, http.MethodGet, "/api/license/list", nil)
	if err != nil {
		return nil, err
	}

	if !resp.IsSuccess() {
		return nil, newRequestError(OpListLicenses, resp.StatusCode(), resp.Body())
	}

	// An empty 2xx body lists nothing.
	var list licenseList
	if body := bytes.TrimSpace(resp.Body()); len(body) > 0 {
		if err := json.Unmarshal(body, &list); err != nil {
			return nil, fmt.Errorf("failed to decode response: %w", err)
		}
	}

	return list.Licenses(), nil
}

// ActivateLicense marks a license active.
func (s *Session) ActivateLicense(ctx context.Context, licenseKey string) (*License, error) {
	return s.licenseAction(ctx, "/api/license/activate", licenseKey, OpActivateLicense)
}

// DeactivateLicense marks a license inactive. The request is sent even if the
// license is already inactive; the server's answer is returned as-is.
func (s *Session) DeactivateLicense(ctx context.Context, licenseKey string) (*License, error) {
	return s.licenseAction(ctx, "/api/license/deactivate", licenseKey, OpDeactivateLicense)
}

// ResetHardwareBinding clears the license's device binding so it can be
// activated on new hardware.
func (s *Session) ResetHardwareBinding(ctx context.Context, licenseKey string) (*License, error) {
	return s.licenseAction(ctx, "/api/license/reset-hardware", licenseKey, OpResetHardwareBinding)
}

func (s *Session) licenseAction(
	ctx context.Context,
	path, licenseKey string,
	op Operation,
) (*License, error) {
	resp, err := s.doAuthRequest(ctx, http.MethodPost, path, LicenseKeyRequest{LicenseKey: licenseKey})
	if err != nil {
		return nil, err
	}

	return decodeLicense(resp, op)
}
