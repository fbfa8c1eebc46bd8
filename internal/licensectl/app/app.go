package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/alekostrader/alkadmin/internal/licensectl/bulk"
	"github.com/alekostrader/alkadmin/internal/licensectl/store"
	"github.com/alekostrader/alkadmin/internal/licensectl/store/drivers/redis"
	"github.com/alekostrader/alkadmin/internal/licensectl/store/drivers/sqlite"
	"github.com/alekostrader/alkadmin/pkg/cryptox"
	"github.com/alekostrader/alkadmin/pkg/licensesdk"
	"github.com/alekostrader/alkadmin/pkg/slogx"
)

// BuildVersion, BuildCommit and BuildDate are set at build time via ldflags.
var (
	BuildVersion = "v0.1.0"
	BuildCommit  = "unknown"
	BuildDate    = "unknown"
)

// Application holds the CLI's wired dependencies for one invocation.
type Application struct {
	cfg    Config
	logger *slog.Logger

	db     store.Store // nil for the memory token store
	tokens licensesdk.TokenStore
	client *licensesdk.SDKClient
	bulk   *bulk.Runner
}

// New wires the logger, token store and API client described by cfg. Logs are
// written to logOutput (stderr when nil).
func New(ctx context.Context, cfg Config, logOutput io.Writer) (*Application, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	app := &Application{
		cfg: cfg,
		logger: slogx.New(slogx.Config{
			Service: "licensectl",
			Version: BuildVersion,
			Env:     cfg.Env,
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
			Output:  logOutput,
		}),
	}

	if err := app.initTokenStore(ctx); err != nil {
		return nil, err
	}

	app.initClient()
	app.bulk = bulk.NewRunner(cfg.BulkRate, 1)

	return app, nil
}

func (app *Application) Config() Config                    { return app.cfg }
func (app *Application) Logger() *slog.Logger              { return app.logger }
func (app *Application) Client() *licensesdk.SDKClient     { return app.client }
func (app *Application) TokenStore() licensesdk.TokenStore { return app.tokens }
func (app *Application) Bulk() *bulk.Runner                { return app.bulk }

// Session resumes the session held by the configured token store.
func (app *Application) Session() *licensesdk.Session {
	return app.client.Session(app.tokens)
}

// Close releases the token store backend.
func (app *Application) Close() error {
	if app.db == nil {
		return nil
	}
	if err := app.db.Close(); err != nil {
		app.logger.Error("error closing token store", "error", err)
		return err
	}
	return nil
}

func (app *Application) initClient() {
	app.client = licensesdk.NewSDKClient(app.cfg.BaseURL())
	app.client.HTTP.SetTimeout(app.cfg.HTTPTimeout)
	app.client.HTTP.SetHeader("User-Agent", "licensectl/"+BuildVersion)
	slogx.AttachResty(app.client.HTTP, app.logger)

	app.logger.Debug("api client ready", "base_url", app.client.BaseURL)
}

func (app *Application) initTokenStore(ctx context.Context) error {
	switch app.cfg.TokenStore {
	case TokenStoreMemory:
		app.tokens = licensesdk.NewMemoryTokenStore()
		return nil

	case TokenStoreRedis:
		db, err := redis.NewStore(app.cfg.RedisAddr, "")
		if err != nil {
			return fmt.Errorf("failed to initialize redis token store: %w", err)
		}

		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := db.Ping(pingCtx); err != nil {
			_ = db.Close()
			return fmt.Errorf("unable to reach redis: %w", err)
		}
		app.db = db

	default:
		if err := os.MkdirAll(filepath.Dir(app.cfg.DatabaseFile), 0o700); err != nil {
			return fmt.Errorf("failed to create state directory: %w", err)
		}

		db, err := sqlite.NewStore(sqlite.FileDSN(app.cfg.DatabaseFile))
		if err != nil {
			return fmt.Errorf("failed to initialize database: %w", err)
		}
		if err := db.ApplyMigrations(); err != nil {
			_ = db.Close()
			return fmt.Errorf("failed to apply database migrations: %w", err)
		}
		app.db = db
	}

	sealer, err := app.initSealer()
	if err != nil {
		_ = app.db.Close()
		return err
	}

	app.tokens = store.NewTokenStoreAdapter(app.db, sealer)
	app.logger.Debug("token store ready", "backend", app.cfg.TokenStore)
	return nil
}

func (app *Application) initSealer() (*cryptox.Sealer, error) {
	master, err := cryptox.LoadOrCreateKeyFile(app.cfg.MasterKeyFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load master key: %w", err)
	}

	sealer, err := cryptox.NewSealer(master, store.TokenSealPurpose)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize token encryption: %w", err)
	}

	return sealer, nil
}
