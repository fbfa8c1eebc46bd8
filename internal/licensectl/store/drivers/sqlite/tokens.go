package sqlite

import (
	"context"
	"database/sql"
)

const (
	getToken = `SELECT value FROM session_tokens WHERE key = ?`

	putToken = `
INSERT INTO session_tokens (key, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
ON CONFLICT (key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`

	deleteToken = `DELETE FROM session_tokens WHERE key = ?`
)

type tokensRepo struct {
	db *sql.DB
}

func (r *tokensRepo) GetToken(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	if err := r.db.QueryRowContext(ctx, getToken, key).Scan(&value); err != nil {
		return nil, mapNotFound(err)
	}
	return value, nil
}

func (r *tokensRepo) PutToken(ctx context.Context, key string, value []byte) error {
	_, err := r.db.ExecContext(ctx, putToken, key, value)
	return err
}

func (r *tokensRepo) DeleteToken(ctx context.Context, key string) error {
	_, err := r.db.ExecContext(ctx, deleteToken, key)
	return err
}
