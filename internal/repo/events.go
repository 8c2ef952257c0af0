package repo

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"novelreel/internal/domain"
)

// EventFilters narrows ListEvents. Cursor pages backwards from an event id.
type EventFilters struct {
	Project string
	Type    string
	Cursor  int64
	Limit   int
}

// ListEvents returns events newest first.
func (r Repo) ListEvents(ctx context.Context, f EventFilters) ([]domain.Event, error) {
	if f.Limit <= 0 {
		f.Limit = 50
	}
	clauses := []string{"1=1"}
	var args []any
	if f.Project != "" {
		clauses = append(clauses, "project=?")
		args = append(args, f.Project)
	}
	if f.Type != "" {
		clauses = append(clauses, "type=?")
		args = append(args, f.Type)
	}
	if f.Cursor > 0 {
		clauses = append(clauses, "id<?")
		args = append(args, f.Cursor)
	}
	query := fmt.Sprintf(`SELECT id,ts,type,project,entity_kind,entity_id,actor_id,payload_json FROM events WHERE %s ORDER BY id DESC LIMIT ?`,
		strings.Join(clauses, " AND "))
	args = append(args, f.Limit)
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.Event
	for rows.Next() {
		var (
			e                 domain.Event
			project, entityID sql.NullString
			payload           string
		)
		if err := rows.Scan(&e.ID, &e.TS, &e.Type, &project, &e.EntityKind, &entityID, &e.ActorID, &payload); err != nil {
			return nil, err
		}
		e.Project = project.String
		e.EntityID = entityID.String
		if err := json.Unmarshal([]byte(payload), &e.Payload); err != nil {
			return nil, fmt.Errorf("decode event %d: %w", e.ID, err)
		}
		res = append(res, e)
	}
	return res, rows.Err()
}

// RenameEventProject keeps a project's history attached after a rename.
func (r Repo) RenameEventProject(ctx context.Context, tx *sql.Tx, oldName, newName string) error {
	_, err := r.q(tx).ExecContext(ctx, `UPDATE events SET project=? WHERE project=?`, newName, oldName)
	return err
}
