package repo

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"novelreel/internal/domain"
)

func marshalErrors(errs []string) (string, error) {
	if errs == nil {
		errs = []string{}
	}
	b, err := json.Marshal(errs)
	if err != nil {
		return "", fmt.Errorf("marshal task errors: %w", err)
	}
	return string(b), nil
}

func (r Repo) InsertTask(ctx context.Context, t domain.Task) error {
	errs, err := marshalErrors(t.Errors)
	if err != nil {
		return err
	}
	_, err = r.DB.ExecContext(ctx, `INSERT INTO tasks(id,type,project,chapter,status,current,total,errors_json,current_prompt,created_at,updated_at)
VALUES (?,?,?,?,?,?,?,?,?,?,?)`,
		t.ID, t.Type, t.Project, t.Chapter, t.Status, t.Current, t.Total, errs, nullableStringPtr(t.CurrentPrompt), t.CreatedAt, t.UpdatedAt)
	return err
}

func (r Repo) UpdateTask(ctx context.Context, t domain.Task) error {
	errs, err := marshalErrors(t.Errors)
	if err != nil {
		return err
	}
	return affectedOrNotFound(r.DB.ExecContext(ctx, `UPDATE tasks SET status=?, current=?, total=?, errors_json=?, current_prompt=?, updated_at=? WHERE id=?`,
		t.Status, t.Current, t.Total, errs, nullableStringPtr(t.CurrentPrompt), t.UpdatedAt, t.ID))
}

const taskColumns = `id,type,project,chapter,status,current,total,errors_json,current_prompt,created_at,updated_at`

func scanTask(row *sql.Row) (domain.Task, error) {
	var (
		t      domain.Task
		errs   string
		prompt sql.NullString
	)
	err := row.Scan(&t.ID, &t.Type, &t.Project, &t.Chapter, &t.Status, &t.Current, &t.Total, &errs, &prompt, &t.CreatedAt, &t.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return t, ErrNotFound
	}
	if err != nil {
		return t, err
	}
	if prompt.Valid {
		t.CurrentPrompt = &prompt.String
	}
	if err := json.Unmarshal([]byte(errs), &t.Errors); err != nil {
		return t, fmt.Errorf("decode task errors: %w", err)
	}
	return t, nil
}

func (r Repo) GetTask(ctx context.Context, id string) (domain.Task, error) {
	return scanTask(r.DB.QueryRowContext(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id=?`, id))
}

// LatestTask returns the most recently created task of a type.
func (r Repo) LatestTask(ctx context.Context, taskType string) (domain.Task, error) {
	return scanTask(r.DB.QueryRowContext(ctx, `SELECT `+taskColumns+` FROM tasks WHERE type=? ORDER BY created_at DESC, rowid DESC LIMIT 1`, taskType))
}

// AbandonRunningTasks marks tasks left pending or running by a previous
// process as errored.
func (r Repo) AbandonRunningTasks(ctx context.Context, now string) (int64, error) {
	res, err := r.DB.ExecContext(ctx, `UPDATE tasks SET status=?, errors_json=?, updated_at=? WHERE status IN (?,?)`,
		domain.TaskError, `["interrupted"]`, now, domain.TaskPending, domain.TaskRunning)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
