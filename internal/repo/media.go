package repo

import (
	"context"
	"database/sql"
	"errors"

	"novelreel/internal/domain"
)

func (r Repo) PutAsset(ctx context.Context, a domain.Asset) error {
	_, err := r.DB.ExecContext(ctx, `INSERT INTO media(project,chapter,span_id,kind,content_type,data,created_at) VALUES (?,?,?,?,?,?,?)
ON CONFLICT(project,chapter,span_id,kind) DO UPDATE SET content_type=excluded.content_type, data=excluded.data, created_at=excluded.created_at`,
		a.Project, a.Chapter, a.SpanID, a.Kind, a.ContentType, a.Data, a.CreatedAt)
	return err
}

func (r Repo) GetAsset(ctx context.Context, project, chapter string, spanID int, kind string) (domain.Asset, error) {
	a := domain.Asset{Project: project, Chapter: chapter, SpanID: spanID, Kind: kind}
	err := r.DB.QueryRowContext(ctx, `SELECT content_type,data,created_at FROM media WHERE project=? AND chapter=? AND span_id=? AND kind=?`,
		project, chapter, spanID, kind).Scan(&a.ContentType, &a.Data, &a.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return a, ErrNotFound
	}
	return a, err
}

// AssetSpans lists span ids of a chapter holding an asset of kind.
func (r Repo) AssetSpans(ctx context.Context, project, chapter, kind string) (map[int]bool, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT span_id FROM media WHERE project=? AND chapter=? AND kind=?`, project, chapter, kind)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	res := map[int]bool{}
	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		res[id] = true
	}
	return res, rows.Err()
}
