package licensesdk_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alekostrader/alkadmin/internal/licensetest"
	"github.com/alekostrader/alkadmin/pkg/licensesdk"
	"github.com/stretchr/testify/require"
)

// newTestClient starts an httptest server with handler and returns a client
// pointing at it.
func newTestClient(t *testing.T, handler http.HandlerFunc) *licensesdk.SDKClient {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return licensesdk.NewSDKClient(server.URL)
}

// loginToFake logs into a fresh fake API and returns the fake, client and session.
func loginToFake(t *testing.T) (*licensetest.Server, *licensesdk.SDKClient, *licensesdk.Session) {
	t.Helper()

	fake := licensetest.NewServer(t)
	client := licensesdk.NewSDKClient(fake.URL)

	session, err := client.Login(context.Background(), licensesdk.NewMemoryTokenStore(),
		licensetest.Username, licensetest.Password)
	require.NoError(t, err)

	return fake, client, session
}

func respond(status int, body string) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		if body != "" {
			w.Header().Set("Content-Type", "application/json")
		}
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}
}

func TestBaseURLForMode(t *testing.T) {
	t.Parallel()

	require.Equal(t, licensesdk.ProductionBaseURL, licensesdk.BaseURLForMode("production"))
	require.Equal(t, licensesdk.ProductionBaseURL, licensesdk.BaseURLForMode(""))
	require.Equal(t, licensesdk.DevelopmentBaseURL, licensesdk.BaseURLForMode("development"))
	require.Equal(t, licensesdk.DevelopmentBaseURL, licensesdk.BaseURLForMode(" DEV "))
}

func TestLogin(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("success persists token and keeps raw payload", func(t *testing.T) {
		fake := licensetest.NewServer(t)
		client := licensesdk.NewSDKClient(fake.URL)
		store := licensesdk.NewMemoryTokenStore()

		session, err := client.Login(ctx, store, licensetest.Username, licensetest.Password)
		require.NoError(t, err)

		stored, err := store.Load(ctx)
		require.NoError(t, err)
		require.NotEmpty(t, stored)
		require.Equal(t, stored, session.Login().Token)

		var raw map[string]any
		require.NoError(t, json.Unmarshal(session.Login().Raw, &raw))
		require.Contains(t, raw, "user")

		loggedIn, err := session.IsLoggedIn(ctx)
		require.NoError(t, err)
		require.True(t, loggedIn)

		req := fake.LastRequest()
		require.Equal(t, "/api/auth/login", req.Path)
		require.Empty(t, req.Authorization)
		require.JSONEq(t, `{"username":"admin","password":"Admin123!"}`, string(req.Body))
	})

	t.Run("success overwrites a previous token", func(t *testing.T) {
		fake := licensetest.NewServer(t)
		client := licensesdk.NewSDKClient(fake.URL)
		store := licensesdk.NewMemoryTokenStore()
		require.NoError(t, store.Save(ctx, "stale-token"))

		session, err := client.Login(ctx, store, licensetest.Username, licensetest.Password)
		require.NoError(t, err)

		stored, _ := store.Load(ctx)
		require.Equal(t, session.Login().Token, stored)
		require.NotEqual(t, "stale-token", stored)
	})

	t.Run("rejection carries server message and keeps previous token", func(t *testing.T) {
		fake := licensetest.NewServer(t)
		client := licensesdk.NewSDKClient(fake.URL)
		store := licensesdk.NewMemoryTokenStore()
		require.NoError(t, store.Save(ctx, "previous-token"))

		_, err := client.Login(ctx, store, "admin", "wrong")

		var authErr *licensesdk.AuthError
		require.ErrorAs(t, err, &authErr)
		require.Equal(t, http.StatusUnauthorized, authErr.StatusCode)
		require.Equal(t, "Invalid credentials", authErr.Message)
		require.Equal(t, "Invalid credentials", err.Error())

		stored, _ := store.Load(ctx)
		require.Equal(t, "previous-token", stored)
	})

	t.Run("rejection message sources", func(t *testing.T) {
		cases := []struct {
			name   string
			status int
			body   string
			want   string
		}{
			{"message field", http.StatusBadRequest, `{"message":"Account locked"}`, "Account locked"},
			{"error field", http.StatusForbidden, `{"error":"Not an admin"}`, "Not an admin"},
			{"message wins over error", http.StatusForbidden, `{"message":"m","error":"e"}`, "m"},
			{"empty body", http.StatusInternalServerError, "", licensesdk.MsgLoginFailed},
			{"html body", http.StatusBadGateway, "<html>bad gateway</html>", licensesdk.MsgLoginFailed},
			{"non-string message", http.StatusBadRequest, `{"message":{"code":1}}`, licensesdk.MsgLoginFailed},
			{"json array", http.StatusBadRequest, `["nope"]`, licensesdk.MsgLoginFailed},
		}

		for _, tc := range cases {
			t.Run(tc.name, func(t *testing.T) {
				client := newTestClient(t, respond(tc.status, tc.body))
				_, err := client.Login(ctx, licensesdk.NewMemoryTokenStore(), "u", "p")

				var authErr *licensesdk.AuthError
				require.ErrorAs(t, err, &authErr)
				require.Equal(t, tc.status, authErr.StatusCode)
				require.Equal(t, tc.want, authErr.Message)
			})
		}
	})

	t.Run("throttled login surfaces the error field", func(t *testing.T) {
		fake := licensetest.NewServer(t, licensetest.WithLoginLimit(2))
		client := licensesdk.NewSDKClient(fake.URL)
		store := licensesdk.NewMemoryTokenStore()

		for range 2 {
			_, err := client.Login(ctx, store, "admin", "wrong")
			require.Error(t, err)
		}

		_, err := client.Login(ctx, store, licensetest.Username, licensetest.Password)

		var authErr *licensesdk.AuthError
		require.ErrorAs(t, err, &authErr)
		require.Equal(t, http.StatusTooManyRequests, authErr.StatusCode)
		require.Equal(t, "Too many login attempts", authErr.Message)
	})

	t.Run("success without a string token is an auth error", func(t *testing.T) {
		for _, body := range []string{
			`{"user":"admin"}`,
			`{"token":123}`,
			`{"token":null}`,
			`{"token":""}`,
			`{"token":{"value":"abc"}}`,
		} {
			t.Run(body, func(t *testing.T) {
				client := newTestClient(t, respond(http.StatusOK, body))
				store := licensesdk.NewMemoryTokenStore()
				require.NoError(t, store.Save(ctx, "previous-token"))

				_, err := client.Login(ctx, store, "u", "p")

				var authErr *licensesdk.AuthError
				require.ErrorAs(t, err, &authErr)
				require.Equal(t, http.StatusOK, authErr.StatusCode)
				require.Equal(t, licensesdk.MsgMissingToken, authErr.Message)

				stored, _ := store.Load(ctx)
				require.Equal(t, "previous-token", stored)
			})
		}
	})

	t.Run("transport failure is neither auth nor request error", func(t *testing.T) {
		server := httptest.NewServer(respond(http.StatusOK, `{}`))
		client := licensesdk.NewSDKClient(server.URL)
		server.Close()

		_, err := client.Login(ctx, licensesdk.NewMemoryTokenStore(), "u", "p")
		require.Error(t, err)
		require.Contains(t, err.Error(), "failed to send request")

		var authErr *licensesdk.AuthError
		var reqErr *licensesdk.RequestError
		require.False(t, errors.As(err, &authErr))
		require.False(t, errors.As(err, &reqErr))
	})
}

func TestLogout(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	fake, _, session := loginToFake(t)

	require.NoError(t, session.Logout(ctx))
	loggedIn, err := session.IsLoggedIn(ctx)
	require.NoError(t, err)
	require.False(t, loggedIn)

	// Idempotent
	require.NoError(t, session.Logout(ctx))

	requests := len(fake.Requests())

	// The next authenticated call goes out without an Authorization header.
	_, err = session.GetAllLicenses(ctx)

	var reqErr *licensesdk.RequestError
	require.ErrorAs(t, err, &reqErr)
	require.Equal(t, http.StatusUnauthorized, reqErr.StatusCode)
	require.Equal(t, licensesdk.OpListLicenses, reqErr.Op)

	all := fake.Requests()
	require.Len(t, all, requests+1, "logout itself must not hit the network")
	require.Empty(t, all[len(all)-1].Authorization)
	require.Empty(t, all[len(all)-1].Cookie, "login cookies must not outlive the token")
}

func TestLoginCookiesAreNeverSent(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	fake, _, session := loginToFake(t)

	_, err := session.GetAllLicenses(ctx)
	require.NoError(t, err)

	last := fake.LastRequest()
	require.NotEmpty(t, last.Authorization)
	require.Empty(t, last.Cookie)
}

func TestTokenIsReadAtCallTime(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	var seen []string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		seen = append(seen, r.Header.Get("Authorization"))
		respond(http.StatusOK, `[]`)(w, r)
	})

	store := licensesdk.NewMemoryTokenStore()
	session := client.Session(store)
	other := client.Session(store)

	require.NoError(t, store.Save(ctx, "first"))
	_, err := session.GetAllLicenses(ctx)
	require.NoError(t, err)

	// A login elsewhere replaces the token; the existing session must follow.
	require.NoError(t, store.Save(ctx, "second"))
	_, err = session.GetAllLicenses(ctx)
	require.NoError(t, err)

	require.NoError(t, other.Logout(ctx))
	_, err = session.GetAllLicenses(ctx)
	require.NoError(t, err)

	require.Equal(t, []string{"Bearer first", "Bearer second", ""}, seen)
}

func TestCreateLicense(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("sends tier, owner and calendar-month expiry", func(t *testing.T) {
		fake, client, session := loginToFake(t)
		client.Now = func() time.Time { return time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC) }

		license, err := session.CreateLicense(ctx, licensesdk.TierTrader, "a@b.com", 12)
		require.NoError(t, err)
		require.NotEmpty(t, license.LicenseKey)
		require.Equal(t, licensesdk.TierTrader, license.Tier)
		require.True(t, license.IsActive)

		req := fake.LastRequest()
		require.Equal(t, "/api/license/create", req.Path)
		require.Equal(t, "Bearer "+session.Login().Token, req.Authorization)
		require.JSONEq(t,
			`{"tier":"trader","ownerEmail":"a@b.com","expiresAt":"2025-01-15T10:30:00.000Z"}`,
			string(req.Body))
	})

	t.Run("end-of-month overflow follows calendar normalisation", func(t *testing.T) {
		fake, client, session := loginToFake(t)
		client.Now = func() time.Time { return time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC) }

		license, err := session.CreateLicense(ctx, licensesdk.TierPro, "x@y.com", 1)
		require.NoError(t, err)

		// Feb 31st 2024 (leap year) normalises to Mar 2nd.
		require.Contains(t, string(fake.LastRequest().Body), `"expiresAt":"2024-03-02T00:00:00.000Z"`)
		require.True(t, license.ExpiresAt.Equal(time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC)))
	})

	t.Run("local clock is converted to UTC", func(t *testing.T) {
		fake, client, session := loginToFake(t)
		tz := time.FixedZone("UTC+3", 3*60*60)
		client.Now = func() time.Time { return time.Date(2024, 6, 10, 1, 0, 0, 0, tz) }

		_, err := session.CreateLicense(ctx, licensesdk.TierEnterprise, "x@y.com", 1)
		require.NoError(t, err)
		require.Contains(t, string(fake.LastRequest().Body), `"expiresAt":"2024-07-09T22:00:00.000Z"`)
	})

	t.Run("server rejection", func(t *testing.T) {
		_, _, session := loginToFake(t)

		_, err := session.CreateLicense(ctx, licensesdk.Tier("platinum"), "x@y.com", 1)

		var reqErr *licensesdk.RequestError
		require.ErrorAs(t, err, &reqErr)
		require.Equal(t, licensesdk.OpCreateLicense, reqErr.Op)
		require.Equal(t, http.StatusBadRequest, reqErr.StatusCode)
		require.Equal(t, "Invalid tier", reqErr.Message)
	})
}

func TestGetAllLicenses(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	l1 := `{"licenseKey":"ALK-0001","tier":"trader","ownerEmail":"a@b.com","expiresAt":"2030-01-01T00:00:00.000Z","isActive":true}`
	l2 := `{"licenseKey":"ALK-0002","tier":"pro","ownerEmail":"c@d.com","expiresAt":"2020-01-01T00:00:00.000Z","isActive":false}`

	cases := []struct {
		name string
		body string
		keys []string
	}{
		{"envelope", `{"licenses":[` + l1 + `,` + l2 + `]}`, []string{"ALK-0001", "ALK-0002"}},
		{"bare array", `[` + l1 + `]`, []string{"ALK-0001"}},
		{"empty array", `[]`, nil},
		{"object without licenses", `{"count":2}`, nil},
		{"licenses not an array", `{"licenses":{"ALK-0001":true}}`, nil},
		{"null licenses", `{"licenses":null}`, nil},
		{"json null", `null`, nil},
		{"json string", `"nothing"`, nil},
		{"empty body", ``, nil},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			client := newTestClient(t, respond(http.StatusOK, tc.body))
			store := licensesdk.NewMemoryTokenStore()
			require.NoError(t, store.Save(ctx, "tok"))

			licenses, err := client.Session(store).GetAllLicenses(ctx)
			require.NoError(t, err)
			require.NotNil(t, licenses)

			keys := make([]string, 0, len(licenses))
			for _, l := range licenses {
				keys = append(keys, l.LicenseKey)
			}
			if tc.keys == nil {
				require.Empty(t, keys)
			} else {
				require.Equal(t, tc.keys, keys)
			}
		})
	}

	t.Run("decodes fields", func(t *testing.T) {
		client := newTestClient(t, respond(http.StatusOK, `[`+l2+`]`))
		licenses, err := client.Session(licensesdk.NewMemoryTokenStore()).GetAllLicenses(ctx)
		require.NoError(t, err)
		require.Len(t, licenses, 1)

		got := licenses[0]
		require.Equal(t, licensesdk.TierPro, got.Tier)
		require.Equal(t, "c@d.com", got.OwnerEmail)
		require.False(t, got.IsActive)
		require.True(t, got.ExpiresAt.Equal(time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)))
	})

	t.Run("malformed json is a decode error", func(t *testing.T) {
		client := newTestClient(t, respond(http.StatusOK, `{"licenses":[`))
		_, err := client.Session(licensesdk.NewMemoryTokenStore()).GetAllLicenses(ctx)
		require.Error(t, err)
		require.Contains(t, err.Error(), "failed to decode response")
	})
}

func TestRequestErrorFallbacks(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	client := newTestClient(t, respond(http.StatusInternalServerError, ""))
	session := client.Session(licensesdk.NewMemoryTokenStore())

	calls := []struct {
		op   licensesdk.Operation
		want string
		call func() error
	}{
		{licensesdk.OpCreateLicense, "Failed to create license", func() error {
			_, err := session.CreateLicense(ctx, licensesdk.TierPro, "x@y.com", 1)
			return err
		}},
		{licensesdk.OpListLicenses, "Failed to fetch licenses", func() error {
			_, err := session.GetAllLicenses(ctx)
			return err
		}},
		{licensesdk.OpActivateLicense, "Failed to activate license", func() error {
			_, err := session.ActivateLicense(ctx, "ALK-1")
			return err
		}},
		{licensesdk.OpDeactivateLicense, "Failed to deactivate license", func() error {
			_, err := session.DeactivateLicense(ctx, "ALK-1")
			return err
		}},
		{licensesdk.OpResetHardwareBinding, "Failed to reset hardware binding", func() error {
			_, err := session.ResetHardwareBinding(ctx, "ALK-1")
			return err
		}},
	}

	for _, c := range calls {
		t.Run(string(c.op), func(t *testing.T) {
			var reqErr *licensesdk.RequestError
			require.ErrorAs(t, c.call(), &reqErr)
			require.Equal(t, c.op, reqErr.Op)
			require.Equal(t, http.StatusInternalServerError, reqErr.StatusCode)
			require.Equal(t, c.want, reqErr.Message)
			require.Equal(t, c.want, c.op.FallbackMessage())
		})
	}
}

func TestLicenseActions(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("each action posts the key to its endpoint", func(t *testing.T) {
		fake, _, session := loginToFake(t)
		fake.Seed(licensesdk.License{LicenseKey: "ALK-AAAA-BBBB-CCCC", Tier: licensesdk.TierPro, IsActive: true})

		actions := []struct {
			path string
			call func(context.Context, string) (*licensesdk.License, error)
		}{
			{"/api/license/deactivate", session.DeactivateLicense},
			{"/api/license/activate", session.ActivateLicense},
			{"/api/license/reset-hardware", session.ResetHardwareBinding},
		}

		for _, a := range actions {
			_, err := a.call(ctx, "ALK-AAAA-BBBB-CCCC")
			require.NoError(t, err)

			req := fake.LastRequest()
			require.Equal(t, http.MethodPost, req.Method)
			require.Equal(t, a.path, req.Path)
			require.Equal(t, "Bearer "+session.Login().Token, req.Authorization)
			require.JSONEq(t, `{"licenseKey":"ALK-AAAA-BBBB-CCCC"}`, string(req.Body))
		}
	})

	t.Run("deactivating an inactive license still calls the server", func(t *testing.T) {
		fake, _, session := loginToFake(t)
		fake.Seed(licensesdk.License{LicenseKey: "ALK-DEAD-0000-0000", Tier: licensesdk.TierTrader, IsActive: false})
		before := len(fake.Requests())

		license, err := session.DeactivateLicense(ctx, "ALK-DEAD-0000-0000")
		require.NoError(t, err)
		require.False(t, license.IsActive)
		require.Len(t, fake.Requests(), before+1)
	})

	t.Run("unknown key surfaces the error field", func(t *testing.T) {
		_, _, session := loginToFake(t)

		_, err := session.ActivateLicense(ctx, "ALK-MISSING")

		var reqErr *licensesdk.RequestError
		require.ErrorAs(t, err, &reqErr)
		require.Equal(t, http.StatusNotFound, reqErr.StatusCode)
		require.Equal(t, "License not found", reqErr.Message)
		require.Equal(t, "activate_license (status 404): License not found", reqErr.String())
	})
}

func TestLoginCreateListScenario(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	fake := licensetest.NewServer(t)
	fake.SetListShape(licensetest.ListArray)
	client := licensesdk.NewSDKClient(fake.URL)
	store := licensesdk.NewMemoryTokenStore()

	session, err := client.Login(ctx, store, licensetest.Username, licensetest.Password)
	require.NoError(t, err)

	stored, err := store.Load(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, stored)

	created, err := session.CreateLicense(ctx, licensesdk.TierPro, "x@y.com", 6)
	require.NoError(t, err)

	// A resumed session sees the same token and the new license.
	licenses, err := client.Session(store).GetAllLicenses(ctx)
	require.NoError(t, err)

	var found bool
	for _, l := range licenses {
		if l.LicenseKey == created.LicenseKey {
			found = true
			require.Equal(t, "x@y.com", l.OwnerEmail)
			require.Equal(t, licensesdk.StatusActive, l.Status(time.Now()))
		}
	}
	require.True(t, found, "created license %s should be listed", created.LicenseKey)
}
