package licensesdk

import (
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

const (
	// ProductionBaseURL is the license API used by release builds.
	ProductionBaseURL = "https://api.alekostrader.com"

	// DevelopmentBaseURL is the license API used by local development builds.
	DevelopmentBaseURL = "http://localhost:3001"

	defaultTimeout = 30 * time.Second
)

// SDKClient is a client for the license administration API.
// It performs the unauthenticated login call and creates Sessions bound to a TokenStore.
type SDKClient struct {
	BaseURL string

	// HTTP is the underlying transport. Callers may attach hooks (logging,
	// request IDs) before issuing requests. Retries are never enabled.
	HTTP *resty.Client

	// Now returns the current time. It is used for expiry arithmetic and
	// defaults to time.Now.
	Now func() time.Time
}

// NewSDKClient creates a new license API client.
func NewSDKClient(baseURL string) *SDKClient {
	baseURL = strings.TrimSuffix(baseURL, "/")

	return &SDKClient{
		BaseURL: baseURL,
		// No cookie jar: the stored token is the only session state.
		HTTP: resty.New().
			SetCookieJar(nil).
			SetBaseURL(baseURL).
			SetTimeout(defaultTimeout).
			SetHeader("Accept", "application/json"),
		Now: time.Now,
	}
}

// BaseURLForMode returns the API base URL for a build mode.
// Unknown modes resolve to production.
func BaseURLForMode(mode string) string {
	switch strings.ToLower(strings.TrimSpace(mode)) {
	case "dev", "development", "local":
		return DevelopmentBaseURL
	default:
		return ProductionBaseURL
	}
}

// Session binds an authenticated session to a store that may already hold a token,
// e.g. one persisted by an earlier Login. No network call is made.
func (c *SDKClient) Session(store TokenStore) *Session {
	return &Session{client: c, store: store}
}

func (c *SDKClient) now() time.Time {
	if c.Now == nil {
		return time.Now()
	}
	return c.Now()
}
