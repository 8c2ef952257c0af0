package repo

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"novelreel/internal/domain"
)

type Repo struct {
	DB *sql.DB
}

var (
	ErrNotFound = errors.New("not found")
	ErrExists   = errors.New("already exists")
)

// execer is satisfied by *sql.DB and *sql.Tx.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (r Repo) q(tx *sql.Tx) execer {
	if tx != nil {
		return tx
	}
	return r.DB
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func affectedOrNotFound(res sql.Result, err error) error {
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func nullable(v string) any {
	if v == "" {
		return nil
	}
	return v
}

func nullableStringPtr(v *string) any {
	if v == nil {
		return nil
	}
	return *v
}

// Projects

func (r Repo) InsertProject(ctx context.Context, tx *sql.Tx, p domain.Project) error {
	_, err := r.q(tx).ExecContext(ctx, `INSERT INTO projects(name,created_at) VALUES (?,?)`, p.Name, p.CreatedAt)
	if isUniqueViolation(err) {
		return fmt.Errorf("project %s: %w", p.Name, ErrExists)
	}
	return err
}

func (r Repo) GetProject(ctx context.Context, name string) (domain.Project, error) {
	var p domain.Project
	err := r.DB.QueryRowContext(ctx, `SELECT name,created_at FROM projects WHERE name=?`, name).Scan(&p.Name, &p.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return p, ErrNotFound
	}
	return p, err
}

func (r Repo) ListProjects(ctx context.Context) ([]domain.Project, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT name,created_at FROM projects ORDER BY created_at DESC, name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.Project
	for rows.Next() {
		var p domain.Project
		if err := rows.Scan(&p.Name, &p.CreatedAt); err != nil {
			return nil, err
		}
		res = append(res, p)
	}
	return res, rows.Err()
}

// RenameProject renames a project; child rows follow through ON UPDATE CASCADE.
func (r Repo) RenameProject(ctx context.Context, tx *sql.Tx, oldName, newName string) error {
	res, err := r.q(tx).ExecContext(ctx, `UPDATE projects SET name=? WHERE name=?`, newName, oldName)
	if isUniqueViolation(err) {
		return fmt.Errorf("project %s: %w", newName, ErrExists)
	}
	if err := affectedOrNotFound(res, err); err != nil {
		return err
	}
	// tasks carry no foreign key; keep them addressable after a rename
	_, err = r.q(tx).ExecContext(ctx, `UPDATE tasks SET project=? WHERE project=?`, newName, oldName)
	return err
}

func (r Repo) DeleteProject(ctx context.Context, tx *sql.Tx, name string) error {
	return affectedOrNotFound(r.q(tx).ExecContext(ctx, `DELETE FROM projects WHERE name=?`, name))
}

// Chapters

func (r Repo) InsertChapter(ctx context.Context, tx *sql.Tx, c domain.Chapter) error {
	_, err := r.q(tx).ExecContext(ctx, `INSERT INTO chapters(project,name,seq,content,updated_at) VALUES (?,?,?,?,?)`,
		c.Project, c.Name, c.Seq, c.Content, c.UpdatedAt)
	if isUniqueViolation(err) {
		return fmt.Errorf("chapter %s: %w", c.Name, ErrExists)
	}
	return err
}

func (r Repo) GetChapter(ctx context.Context, project, name string) (domain.Chapter, error) {
	c := domain.Chapter{Project: project, Name: name}
	err := r.DB.QueryRowContext(ctx, `SELECT seq,content,updated_at FROM chapters WHERE project=? AND name=?`, project, name).
		Scan(&c.Seq, &c.Content, &c.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return c, ErrNotFound
	}
	return c, err
}

// ListChapters returns chapters in reading order, without content.
func (r Repo) ListChapters(ctx context.Context, project string) ([]domain.Chapter, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT name,seq,updated_at FROM chapters WHERE project=? ORDER BY seq`, project)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.Chapter
	for rows.Next() {
		c := domain.Chapter{Project: project}
		if err := rows.Scan(&c.Name, &c.Seq, &c.UpdatedAt); err != nil {
			return nil, err
		}
		res = append(res, c)
	}
	return res, rows.Err()
}

func (r Repo) MaxChapterSeq(ctx context.Context, tx *sql.Tx, project string) (int, error) {
	var seq int
	err := r.q(tx).QueryRowContext(ctx, `SELECT COALESCE(MAX(seq),0) FROM chapters WHERE project=?`, project).Scan(&seq)
	return seq, err
}

func (r Repo) SaveChapterContent(ctx context.Context, project, name, content, now string) error {
	return affectedOrNotFound(r.DB.ExecContext(ctx, `UPDATE chapters SET content=?, updated_at=? WHERE project=? AND name=?`,
		content, now, project, name))
}

// Spans

// ReplaceSpans swaps the span set of a chapter.
func (r Repo) ReplaceSpans(ctx context.Context, tx *sql.Tx, project, chapter string, spans []domain.Span) error {
	if _, err := r.q(tx).ExecContext(ctx, `DELETE FROM spans WHERE project=? AND chapter=?`, project, chapter); err != nil {
		return err
	}
	for _, s := range spans {
		if err := r.InsertSpan(ctx, tx, project, chapter, s); err != nil {
			return err
		}
	}
	return nil
}

func (r Repo) InsertSpan(ctx context.Context, tx *sql.Tx, project, chapter string, s domain.Span) error {
	_, err := r.q(tx).ExecContext(ctx, `INSERT INTO spans(project,chapter,id,content,base_scene,scene,prompt) VALUES (?,?,?,?,?,?,?)`,
		project, chapter, s.ID, s.Content, s.BaseScene, s.Scene, s.Prompt)
	if err != nil {
		return fmt.Errorf("insert span %d: %w", s.ID, err)
	}
	return nil
}

func (r Repo) ListSpans(ctx context.Context, project, chapter string) ([]domain.Span, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT id,content,base_scene,scene,prompt FROM spans WHERE project=? AND chapter=? ORDER BY id`, project, chapter)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.Span
	for rows.Next() {
		var s domain.Span
		if err := rows.Scan(&s.ID, &s.Content, &s.BaseScene, &s.Scene, &s.Prompt); err != nil {
			return nil, err
		}
		res = append(res, s)
	}
	return res, rows.Err()
}

// SpanUpdate carries the fields of a span to overwrite; nil leaves a field as is.
type SpanUpdate struct {
	ID        int
	Content   *string
	BaseScene *string
	Scene     *string
	Prompt    *string
}

func (r Repo) UpdateSpan(ctx context.Context, tx *sql.Tx, project, chapter string, u SpanUpdate) error {
	var (
		fields []string
		args   []any
	)
	for _, f := range []struct {
		col string
		val *string
	}{{"content", u.Content}, {"base_scene", u.BaseScene}, {"scene", u.Scene}, {"prompt", u.Prompt}} {
		if f.val != nil {
			fields = append(fields, f.col+"=?")
			args = append(args, *f.val)
		}
	}
	if len(fields) == 0 {
		return nil
	}
	args = append(args, project, chapter, u.ID)
	return affectedOrNotFound(r.q(tx).ExecContext(ctx,
		fmt.Sprintf(`UPDATE spans SET %s WHERE project=? AND chapter=? AND id=?`, strings.Join(fields, ",")), args...))
}

// Characters

func (r Repo) UpsertCharacter(ctx context.Context, project string, c domain.Character) error {
	attrs := c.Attributes
	if attrs == nil {
		attrs = map[string]any{}
	}
	data, err := json.Marshal(attrs)
	if err != nil {
		return fmt.Errorf("marshal attributes: %w", err)
	}
	_, err = r.DB.ExecContext(ctx, `INSERT INTO characters(project,name,attributes_json,locked) VALUES (?,?,?,?)
ON CONFLICT(project,name) DO UPDATE SET attributes_json=excluded.attributes_json`,
		project, c.Name, string(data), c.Locked)
	return err
}

func (r Repo) GetCharacter(ctx context.Context, project, name string) (domain.Character, error) {
	c := domain.Character{Name: name}
	var attrs string
	err := r.DB.QueryRowContext(ctx, `SELECT attributes_json,locked FROM characters WHERE project=? AND name=?`, project, name).
		Scan(&attrs, &c.Locked)
	if errors.Is(err, sql.ErrNoRows) {
		return c, ErrNotFound
	}
	if err != nil {
		return c, err
	}
	if err := json.Unmarshal([]byte(attrs), &c.Attributes); err != nil {
		return c, fmt.Errorf("decode attributes of %s: %w", name, err)
	}
	return c, nil
}

func (r Repo) ListCharacters(ctx context.Context, project string) ([]domain.Character, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT name,attributes_json,locked FROM characters WHERE project=? ORDER BY name`, project)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.Character
	for rows.Next() {
		var (
			c     domain.Character
			attrs string
		)
		if err := rows.Scan(&c.Name, &attrs, &c.Locked); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(attrs), &c.Attributes); err != nil {
			return nil, fmt.Errorf("decode attributes of %s: %w", c.Name, err)
		}
		res = append(res, c)
	}
	return res, rows.Err()
}

func (r Repo) SetCharacterLocked(ctx context.Context, project, name string, locked bool) error {
	return affectedOrNotFound(r.DB.ExecContext(ctx, `UPDATE characters SET locked=? WHERE project=? AND name=?`, locked, project, name))
}

func (r Repo) DeleteCharacter(ctx context.Context, project, name string) error {
	return affectedOrNotFound(r.DB.ExecContext(ctx, `DELETE FROM characters WHERE project=? AND name=?`, project, name))
}

// Scenes

func (r Repo) UpsertScene(ctx context.Context, project string, s domain.Scene) error {
	_, err := r.DB.ExecContext(ctx, `INSERT INTO scenes(project,name,prompt) VALUES (?,?,?)
ON CONFLICT(project,name) DO UPDATE SET prompt=excluded.prompt`, project, s.Name, s.Prompt)
	return err
}

func (r Repo) GetScene(ctx context.Context, project, name string) (domain.Scene, error) {
	s := domain.Scene{Name: name}
	err := r.DB.QueryRowContext(ctx, `SELECT prompt FROM scenes WHERE project=? AND name=?`, project, name).Scan(&s.Prompt)
	if errors.Is(err, sql.ErrNoRows) {
		return s, ErrNotFound
	}
	return s, err
}

func (r Repo) ListScenes(ctx context.Context, project string) ([]domain.Scene, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT name,prompt FROM scenes WHERE project=? ORDER BY name`, project)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.Scene
	for rows.Next() {
		var s domain.Scene
		if err := rows.Scan(&s.Name, &s.Prompt); err != nil {
			return nil, err
		}
		res = append(res, s)
	}
	return res, rows.Err()
}

func (r Repo) DeleteScene(ctx context.Context, project, name string) error {
	return affectedOrNotFound(r.DB.ExecContext(ctx, `DELETE FROM scenes WHERE project=? AND name=?`, project, name))
}
