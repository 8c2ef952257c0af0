package repo

import (
	"context"
	"database/sql"
	"errors"
)

// GetSession returns "" for unset keys.
func (r Repo) GetSession(ctx context.Context, key string) (string, error) {
	var v string
	err := r.DB.QueryRowContext(ctx, `SELECT value FROM session WHERE key=?`, key).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	return v, err
}

func (r Repo) SetSession(ctx context.Context, key, value, now string) error {
	_, err := r.DB.ExecContext(ctx, `INSERT INTO session(key,value,updated_at) VALUES (?,?,?)
ON CONFLICT(key) DO UPDATE SET value=excluded.value, updated_at=excluded.updated_at`, key, value, now)
	return err
}

func (r Repo) DeleteSession(ctx context.Context, key string) error {
	_, err := r.DB.ExecContext(ctx, `DELETE FROM session WHERE key=?`, key)
	return err
}
