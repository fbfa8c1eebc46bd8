// Package redis stores session tokens in Redis so several operators' shells
// (or CI runners) can share one admin session.
//
// Tokens are sealed before they reach Redis. Every machine sharing a session
// must use the same master key file (LICENSECTL_MASTER_KEY_FILE); a machine
// with a different key cannot open the stored token.
package redis

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/alekostrader/alkadmin/internal/licensectl/store"
	"github.com/redis/go-redis/v9"
)

// DefaultPrefix namespaces every key this driver writes.
const DefaultPrefix = "licensectl:"

type Store struct {
	client *redis.Client
	prefix string
}

var _ store.Store = (*Store)(nil)

// NewStore connects to addr, which is either host:port or a redis:// or
// rediss:// URL carrying credentials and a database number.
func NewStore(addr, prefix string) (*Store, error) {
	opts, err := parseAddr(addr)
	if err != nil {
		return nil, err
	}

	if prefix == "" {
		prefix = DefaultPrefix
	}

	return &Store{client: redis.NewClient(opts), prefix: prefix}, nil
}

func parseAddr(addr string) (*redis.Options, error) {
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return nil, errors.New("redis address is required")
	}

	if strings.HasPrefix(addr, "redis://") || strings.HasPrefix(addr, "rediss://") {
		opts, err := redis.ParseURL(addr)
		if err != nil {
			return nil, fmt.Errorf("invalid redis URL: %w", err)
		}
		return opts, nil
	}

	return &redis.Options{Addr: addr, DialTimeout: 5 * time.Second}, nil
}

// ApplyMigrations is a no-op; Redis has no schema.
func (s *Store) ApplyMigrations() error { return nil }

func (s *Store) Close() error { return s.client.Close() }

func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *Store) Tokens() store.Tokens { return &tokensRepo{client: s.client, prefix: s.prefix} }

type tokensRepo struct {
	client *redis.Client
	prefix string
}

func (r *tokensRepo) GetToken(ctx context.Context, key string) ([]byte, error) {
	value, err := r.client.Get(ctx, r.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return value, nil
}

func (r *tokensRepo) PutToken(ctx context.Context, key string, value []byte) error {
	return r.client.Set(ctx, r.prefix+key, value, 0).Err()
}

func (r *tokensRepo) DeleteToken(ctx context.Context, key string) error {
	return r.client.Del(ctx, r.prefix+key).Err()
}
