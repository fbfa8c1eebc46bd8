// Package licensetest provides an in-process fake of the license admin API for
// tests. It keeps licenses in memory, issues opaque tokens on login, and records
// every request it receives.
package licensetest

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alekostrader/alkadmin/pkg/cryptox"
	"github.com/alekostrader/alkadmin/pkg/httpx"
	"github.com/alekostrader/alkadmin/pkg/idx"
	"github.com/alekostrader/alkadmin/pkg/licensesdk"
)

const (
	// Username and Password are the credentials the fake accepts by default.
	Username = "admin"
	Password = "Admin123!"

	// SessionCookie is set on every successful login. The client must not
	// send it back.
	SessionCookie = "sid"
)

// Recorded is a request as seen by the fake server.
type Recorded struct {
	Method        string
	Path          string
	Authorization string
	Cookie        string
	Body          []byte
}

// ListShape selects how GET /api/license/list encodes its body.
type ListShape int

const (
	ListEnvelope ListShape = iota // {"licenses": [...]}
	ListArray                     // [...]
)

// Server is a fake license API backed by an httptest.Server.
type Server struct {
	*httptest.Server

	mu       sync.Mutex
	tokens   map[string]bool
	licenses []licensesdk.License
	requests []Recorded
	shape    ListShape
}

// Option configures a Server.
type Option func(*options)

type options struct {
	loginLimit int
}

// WithLoginLimit allows attempts logins per client IP per minute; further
// attempts get 429 {"error": "Too many login attempts"}.
func WithLoginLimit(attempts int) Option {
	return func(o *options) { o.loginLimit = attempts }
}

// NewServer starts a fake license API and closes it when the test finishes.
func NewServer(t testing.TB, opts ...Option) *Server {
	t.Helper()

	var o options
	for _, opt := range opts {
		opt(&o)
	}

	s := &Server{tokens: make(map[string]bool)}

	var loginMiddleware []httpx.Middleware
	if o.loginLimit > 0 {
		loginMiddleware = append(loginMiddleware, httpx.RateLimitMiddleware(httpx.RateLimitConfig{
			RequestsPerWindow: o.loginLimit,
			Window:            time.Minute,
			Burst:             o.loginLimit,
		}, httpx.IPKeyExtractor, "Too many login attempts"))
	}

	mux := http.NewServeMux()
	mux.Handle("POST /api/auth/login", httpx.Chain(http.HandlerFunc(s.handleLogin), loginMiddleware...))

	authed := httpx.BearerAuth(s.validToken)
	mux.Handle("POST /api/license/create", httpx.Chain(http.HandlerFunc(s.handleCreate), authed))
	mux.Handle("GET /api/license/list", httpx.Chain(http.HandlerFunc(s.handleList), authed))
	mux.Handle("POST /api/license/activate", httpx.Chain(s.keyAction(activate), authed))
	mux.Handle("POST /api/license/deactivate", httpx.Chain(s.keyAction(deactivate), authed))
	mux.Handle("POST /api/license/reset-hardware", httpx.Chain(s.keyAction(resetHardware), authed))

	s.Server = httptest.NewServer(s.record(mux))
	t.Cleanup(s.Close)

	return s
}

// SetListShape switches the list response encoding.
func (s *Server) SetListShape(shape ListShape) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.shape = shape
}

// Seed appends licenses as if the server had created them.
func (s *Server) Seed(licenses ...licensesdk.License) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.licenses = append(s.licenses, licenses...)
}

// Licenses returns a copy of the server-side licenses.
func (s *Server) Licenses() []licensesdk.License {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]licensesdk.License(nil), s.licenses...)
}

// Requests returns a copy of every request received so far.
func (s *Server) Requests() []Recorded {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Recorded(nil), s.requests...)
}

// LastRequest returns the most recent request, or the zero value.
func (s *Server) LastRequest() Recorded {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.requests) == 0 {
		return Recorded{}
	}
	return s.requests[len(s.requests)-1]
}

// RevokeTokens invalidates every issued token.
func (s *Server) RevokeTokens() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens = make(map[string]bool)
}

func (s *Server) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body []byte
		if r.Body != nil {
			var raw json.RawMessage
			if err := json.NewDecoder(r.Body).Decode(&raw); err == nil {
				body = raw
			}
		}

		s.mu.Lock()
		s.requests = append(s.requests, Recorded{
			Method:        r.Method,
			Path:          r.URL.Path,
			Authorization: r.Header.Get("Authorization"),
			Cookie:        r.Header.Get("Cookie"),
			Body:          body,
		})
		s.mu.Unlock()

		next.ServeHTTP(w, withBody(r, body))
	})
}

func (s *Server) validToken(token string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tokens[token]
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req licensesdk.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if req.Username != Username || req.Password != Password {
		httpx.WriteMessage(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}

	token := "tok_" + cryptox.MustGenerateToken(cryptox.TokenSize128)

	s.mu.Lock()
	s.tokens[token] = true
	s.mu.Unlock()

	http.SetCookie(w, &http.Cookie{Name: SessionCookie, Value: "admin-session", Path: "/", HttpOnly: true})
	httpx.WriteJSON(w, http.StatusOK, map[string]any{
		"token": token,
		"user":  map[string]string{"username": req.Username, "role": "admin"},
	})
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req licensesdk.CreateLicenseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if !req.Tier.Valid() {
		httpx.WriteMessage(w, http.StatusBadRequest, "Invalid tier")
		return
	}
	if !strings.Contains(req.OwnerEmail, "@") {
		httpx.WriteMessage(w, http.StatusBadRequest, "Invalid owner email")
		return
	}

	expiresAt, err := time.Parse(time.RFC3339, req.ExpiresAt)
	if err != nil {
		httpx.WriteMessage(w, http.StatusBadRequest, "Invalid expiry")
		return
	}

	license := licensesdk.License{
		LicenseKey: newLicenseKey(),
		Tier:       req.Tier,
		OwnerEmail: req.OwnerEmail,
		ExpiresAt:  expiresAt,
		IsActive:   true,
	}

	s.mu.Lock()
	s.licenses = append(s.licenses, license)
	s.mu.Unlock()

	httpx.WriteJSON(w, http.StatusCreated, license)
}

func (s *Server) handleList(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	licenses := append([]licensesdk.License{}, s.licenses...)
	shape := s.shape
	s.mu.Unlock()

	if shape == ListArray {
		httpx.WriteJSON(w, http.StatusOK, licenses)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"licenses": licenses})
}

type keyMutation func(*licensesdk.License)

func activate(l *licensesdk.License)   { l.IsActive = true }
func deactivate(l *licensesdk.License) { l.IsActive = false }

// resetHardware changes nothing visible; bindings are not part of the wire shape.
func resetHardware(*licensesdk.License) {}

func (s *Server) keyAction(mutate keyMutation) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req licensesdk.LicenseKeyRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.LicenseKey == "" {
			httpx.WriteMessage(w, http.StatusBadRequest, "licenseKey is required")
			return
		}

		s.mu.Lock()
		defer s.mu.Unlock()

		for i := range s.licenses {
			if s.licenses[i].LicenseKey == req.LicenseKey {
				mutate(&s.licenses[i])
				httpx.WriteJSON(w, http.StatusOK, s.licenses[i])
				return
			}
		}

		httpx.WriteJSON(w, http.StatusNotFound, map[string]string{"error": "License not found"})
	})
}

func withBody(r *http.Request, body []byte) *http.Request {
	r.Body = io.NopCloser(bytes.NewReader(body))
	return r
}

func newLicenseKey() string {
	short := strings.ToUpper(idx.New().Short())
	return "ALK-" + short[:4] + "-" + short[4:8] + "-" + short[8:12]
}
