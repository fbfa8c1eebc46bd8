package app

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/alekostrader/alkadmin/pkg/licensesdk"
	"github.com/joho/godotenv"
)

// Token store backends.
const (
	TokenStoreSQLite = "sqlite"
	TokenStoreRedis  = "redis"
	TokenStoreMemory = "memory"
)

type Config struct {
	Mode          string        // production or development, picks the default API URL (default: production)
	APIURL        string        // Optional: overrides the mode's API URL
	TokenStore    string        // sqlite, redis or memory (default: sqlite)
	DatabaseFile  string        // SQLite session database (default: <user config dir>/licensectl/session.db)
	MasterKeyFile string        // Key used to seal the stored token (default: next to DatabaseFile)
	RedisAddr     string        // host:port or redis:// URL, required for the redis store
	HTTPTimeout   time.Duration // Per-request timeout (default: 30s)
	BulkRate      float64       // Requests per second for multi-key commands, <= 0 disables pacing (default: 2)
	Env           string        // Environment (dev, prod) (default: prod)
	LogLevel      string        // Log level (debug, info, warn, error) (default: warn)
	LogFormat     string        // Log format (json, text) (default: text)
}

// LoadDotEnv loads variables from the given .env files (".env" when none are
// given) without overriding the real environment. Missing files are skipped.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}

	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("failed to load %s: %w", f, err)
		}
	}

	return nil
}

func LoadConfig() Config {
	stateDir := defaultStateDir()

	cfg := Config{
		Mode:          getEnvOrDefault("LICENSECTL_MODE", "production"),
		APIURL:        os.Getenv("LICENSECTL_API_URL"),
		TokenStore:    strings.ToLower(getEnvOrDefault("LICENSECTL_TOKEN_STORE", TokenStoreSQLite)),
		DatabaseFile:  getEnvOrDefault("LICENSECTL_DATABASE_FILE", filepath.Join(stateDir, "session.db")),
		MasterKeyFile: os.Getenv("LICENSECTL_MASTER_KEY_FILE"),
		RedisAddr:     os.Getenv("LICENSECTL_REDIS_ADDR"),
		HTTPTimeout:   getEnvDurationOrDefault("LICENSECTL_HTTP_TIMEOUT", 30*time.Second),
		BulkRate:      getEnvFloatOrDefault("LICENSECTL_BULK_RATE", 2),
		Env:           getEnvOrDefault("ENV", "prod"),
		LogLevel:      getEnvOrDefault("LOG_LEVEL", "warn"),
		LogFormat:     getEnvOrDefault("LOG_FORMAT", "text"),
	}

	if cfg.MasterKeyFile == "" {
		cfg.MasterKeyFile = filepath.Join(filepath.Dir(cfg.DatabaseFile), "master.key")
	}

	return cfg
}

// BaseURL returns APIURL when set, otherwise the URL for Mode.
func (c Config) BaseURL() string {
	if c.APIURL != "" {
		return strings.TrimRight(c.APIURL, "/")
	}
	return licensesdk.BaseURLForMode(c.Mode)
}

// Validate reports the first setting that cannot work.
func (c Config) Validate() error {
	switch c.TokenStore {
	case TokenStoreSQLite:
		if c.DatabaseFile == "" {
			return errors.New("LICENSECTL_DATABASE_FILE must not be empty")
		}
	case TokenStoreRedis:
		if c.RedisAddr == "" {
			return errors.New("LICENSECTL_REDIS_ADDR is required when LICENSECTL_TOKEN_STORE=redis")
		}
	case TokenStoreMemory:
	default:
		return fmt.Errorf("unknown token store %q (want sqlite, redis or memory)", c.TokenStore)
	}

	if c.HTTPTimeout <= 0 {
		return fmt.Errorf("LICENSECTL_HTTP_TIMEOUT must be positive, got %s", c.HTTPTimeout)
	}

	return nil
}

func defaultStateDir() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "licensectl")
	}
	return ".licensectl"
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvFloatOrDefault(key string, defaultValue float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if f, err := strconv.ParseFloat(value, 64); err == nil {
		return f
	}

	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	// Try parsing as duration (e.g., "10s", "1m")
	if duration, err := time.ParseDuration(value); err == nil {
		return duration
	}

	// Bare integers are seconds
	if seconds, err := strconv.Atoi(value); err == nil {
		return time.Duration(seconds) * time.Second
	}

	return defaultValue
}
