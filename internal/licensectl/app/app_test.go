package app_test

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/alekostrader/alkadmin/internal/licensectl/app"
	"github.com/alekostrader/alkadmin/internal/licensetest"
	"github.com/stretchr/testify/require"
)

func TestSessionPersistsAcrossInvocations(t *testing.T) {
	ctx := context.Background()
	fake := licensetest.NewServer(t)
	dir := t.TempDir()

	cfg := app.Config{
		APIURL:        fake.URL,
		TokenStore:    app.TokenStoreSQLite,
		DatabaseFile:  filepath.Join(dir, "state", "session.db"),
		MasterKeyFile: filepath.Join(dir, "state", "master.key"),
		HTTPTimeout:   5 * time.Second,
		LogLevel:      "debug",
		LogFormat:     "json",
	}

	var logs bytes.Buffer

	first, err := app.New(ctx, cfg, &logs)
	require.NoError(t, err)

	session, err := first.Client().Login(ctx, first.TokenStore(), licensetest.Username, licensetest.Password)
	require.NoError(t, err)
	token := session.Login().Token
	require.NoError(t, first.Close())

	second, err := app.New(ctx, cfg, &logs)
	require.NoError(t, err)
	t.Cleanup(func() { _ = second.Close() })

	loggedIn, err := second.Session().IsLoggedIn(ctx)
	require.NoError(t, err)
	require.True(t, loggedIn)

	_, err = second.Session().GetAllLicenses(ctx)
	require.NoError(t, err)
	require.Equal(t, "Bearer "+token, fake.LastRequest().Authorization)

	require.Contains(t, logs.String(), `"msg":"http_request"`)
	require.NotContains(t, logs.String(), token)
}

func TestMemoryStoreStartsLoggedOut(t *testing.T) {
	ctx := context.Background()

	a, err := app.New(ctx, app.Config{
		APIURL:      "http://127.0.0.1:1",
		TokenStore:  app.TokenStoreMemory,
		HTTPTimeout: time.Second,
	}, &bytes.Buffer{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })

	loggedIn, err := a.Session().IsLoggedIn(ctx)
	require.NoError(t, err)
	require.False(t, loggedIn)
	require.Equal(t, "http://127.0.0.1:1", a.Client().BaseURL)
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	_, err := app.New(context.Background(), app.Config{TokenStore: "etcd", HTTPTimeout: time.Second}, nil)
	require.Error(t, err)
}
