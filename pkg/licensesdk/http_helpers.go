package licensesdk

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-resty/resty/v2"
)

// doRequest performs a request with the SDKClient's transport. A JSON body is
// sent when body is non-nil. The Authorization header is set only when token is
// non-empty.
func (c *SDKClient) doRequest(
	ctx context.Context,
	method, path string,
	body any,
	token string,
) (*resty.Response, error) {
	req := c.HTTP.R().SetContext(ctx)

	if body != nil {
		req.SetHeader("Content-Type", "application/json").SetBody(body)
	}

	if token != "" {
		req.SetHeader("Authorization", "Bearer "+token)
	}

	resp, err := req.Execute(method, path)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}

	return resp, nil
}

// doAuthRequest performs an authenticated request. The token is read from the
// session's store on every call.
func (s *Session) doAuthRequest(
	ctx context.Context,
	method, path string,
	body any,
) (*resty.Response, error) {
	token, err := s.store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load session token: %w", err)
	}

	return s.client.doRequest(ctx, method, path, body, token)
}

// decodeLicense decodes a single License from a successful response, or returns a
// RequestError for op when the status is not 2xx.
func decodeLicense(resp *resty.Response, op Operation) (*License, error) {
	if !resp.IsSuccess() {
		return nil, newRequestError(op, resp.StatusCode(), resp.Body())
	}

	var license License
	if err := json.Unmarshal(resp.Body(), &license); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	return &license, nil
}
