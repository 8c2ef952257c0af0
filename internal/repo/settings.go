package repo

import (
	"context"
	"encoding/json"
	"fmt"
)

// Settings returns runtime overrides keyed by dotted config path.
func (r Repo) Settings(ctx context.Context) (map[string]any, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT key,value_json FROM settings ORDER BY key`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	res := map[string]any{}
	for rows.Next() {
		var key, raw string
		if err := rows.Scan(&key, &raw); err != nil {
			return nil, err
		}
		var v any
		if err := json.Unmarshal([]byte(raw), &v); err != nil {
			return nil, fmt.Errorf("decode setting %s: %w", key, err)
		}
		res[key] = v
	}
	return res, rows.Err()
}

func (r Repo) PutSettings(ctx context.Context, values map[string]any, now string) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	for key, v := range values {
		b, err := json.Marshal(v)
		if err != nil {
			return fmt.Errorf("encode setting %s: %w", key, err)
		}
		if _, err := tx.ExecContext(ctx, `INSERT INTO settings(key,value_json,updated_at) VALUES (?,?,?)
ON CONFLICT(key) DO UPDATE SET value_json=excluded.value_json, updated_at=excluded.updated_at`, key, string(b), now); err != nil {
			return err
		}
	}
	return tx.Commit()
}
