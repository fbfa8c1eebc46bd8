package licensesdk

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

// Login authenticates an admin with username and password and persists the
// returned bearer token in store, overwriting any previous token.
//
// A non-2xx response returns an *AuthError carrying the server message or
// MsgLoginFailed. A 2xx response without a non-empty string token also returns
// an *AuthError and leaves the store untouched.
func (c *SDKClient) Login(
	ctx context.Context,
	store TokenStore,
	username, password string,
) (*Session, error) {
	resp, err := c.doRequest(ctx, http.MethodPost, "/api/auth/login", LoginRequest{
		Username: username,
		Password: password,
	}, "")
	if err != nil {
		return nil, err
	}

	if !resp.IsSuccess() {
		return nil, newAuthError(resp.StatusCode(), resp.Body())
	}

	var payload struct {
		Token any `json:"token"`
	}
	if err := json.Unmarshal(resp.Body(), &payload); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	token, _ := payload.Token.(string)
	if token == "" {
		return nil, &AuthError{StatusCode: resp.StatusCode(), Message: MsgMissingToken}
	}

	loginResp := LoginResponse{Token: token, Raw: json.RawMessage(resp.Body())}

	if err := store.Save(ctx, loginResp.Token); err != nil {
		return nil, fmt.Errorf("failed to persist session token: %w", err)
	}

	return &Session{client: c, store: store, login: &loginResp}, nil
}
