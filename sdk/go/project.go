package reelsdk

import (
	"context"
	"fmt"
	"net/url"
)

// ProjectAPI groups the /project endpoints.
type ProjectAPI struct{ c *Client }

// Projects returns the project endpoints.
func (c *Client) Projects() ProjectAPI { return ProjectAPI{c: c} }

// List returns all project names.
func (a ProjectAPI) List(ctx context.Context) ([]string, error) {
	var resp []string
	err := a.c.Get(ctx, "/project/list", nil, &resp)
	return resp, err
}

// Create creates a project; the backend seeds its first chapter.
func (a ProjectAPI) Create(ctx context.Context, name string) (ProjectCreated, error) {
	var resp ProjectCreated
	err := a.c.Post(ctx, "/project/create", map[string]any{"project_name": name}, &resp)
	return resp, err
}

// Update renames a project.
func (a ProjectAPI) Update(ctx context.Context, oldName, newName string) (ProjectCreated, error) {
	var resp ProjectCreated
	err := a.c.Put(ctx, "/project/update", map[string]any{
		"old_name": oldName,
		"new_name": newName,
	}, &resp)
	return resp, err
}

// Delete removes a project and everything under it.
func (a ProjectAPI) Delete(ctx context.Context, name string) error {
	if name == "" {
		return fmt.Errorf("project name required")
	}
	return a.c.Delete(ctx, "/project/delete/"+url.PathEscape(name), nil, nil)
}

// Info returns chapters, spans and the knowledge graph of a project.
func (a ProjectAPI) Info(ctx context.Context, name string) (ProjectInfo, error) {
	var resp ProjectInfo
	err := a.c.Get(ctx, "/project/info", map[string]any{"project_name": name}, &resp)
	return resp, err
}

// KnowledgeGraph returns the project's knowledge graph.
func (a ProjectAPI) KnowledgeGraph(ctx context.Context, name string) (KnowledgeGraph, error) {
	var resp struct {
		ProjectName    string         `json:"project_name"`
		KnowledgeGraph KnowledgeGraph `json:"knowledge_graph"`
	}
	err := a.c.Get(ctx, "/project/kg", map[string]any{"project_name": name}, &resp)
	return resp.KnowledgeGraph, err
}

// Events pages through a project's activity log, newest first. A zero
// cursor starts from the latest event; pass the last seen id to continue.
func (a ProjectAPI) Events(ctx context.Context, name string, limit int, cursor int64) ([]ProjectEvent, error) {
	params := map[string]any{"project_name": name}
	if limit > 0 {
		params["limit"] = limit
	}
	if cursor > 0 {
		params["cursor"] = cursor
	}
	var resp []ProjectEvent
	err := a.c.Get(ctx, "/project/events", params, &resp)
	return resp, err
}
