package devserver

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"novelreel/internal/engine"
)

func registerProjects(api huma.API, e engine.Engine) {
	huma.Register(api, huma.Operation{
		OperationID: "list-projects",
		Method:      http.MethodGet,
		Path:        "/project/list",
		Summary:     "List projects",
		Tags:        []string{"Projects"},
	}, func(ctx context.Context, _ *struct{}) (*reply, error) {
		return respond(e.ListProjects(ctx))
	})

	huma.Register(api, huma.Operation{
		OperationID: "create-project",
		Method:      http.MethodPost,
		Path:        "/project/create",
		Summary:     "Create a project with its first chapter",
		Tags:        []string{"Projects"},
	}, func(ctx context.Context, input *struct {
		Body projectNameBody `json:"body"`
	}) (*reply, error) {
		return respond(e.CreateProject(ctx, input.Body.ProjectName, actorFrom(ctx)))
	})

	huma.Register(api, huma.Operation{
		OperationID: "rename-project",
		Method:      http.MethodPut,
		Path:        "/project/update",
		Summary:     "Rename a project",
		Tags:        []string{"Projects"},
	}, func(ctx context.Context, input *struct {
		Body renameProjectBody `json:"body"`
	}) (*reply, error) {
		return respond(e.RenameProject(ctx, input.Body.OldName, input.Body.NewName, actorFrom(ctx)))
	})

	huma.Register(api, huma.Operation{
		OperationID: "delete-project",
		Method:      http.MethodDelete,
		Path:        "/project/delete/{name}",
		Summary:     "Delete a project and everything generated for it",
		Tags:        []string{"Projects"},
	}, func(ctx context.Context, input *struct {
		Name string `path:"name"`
	}) (*reply, error) {
		return respond(nil, e.DeleteProject(ctx, input.Name, actorFrom(ctx)))
	})

	huma.Register(api, huma.Operation{
		OperationID: "project-info",
		Method:      http.MethodGet,
		Path:        "/project/info",
		Summary:     "Project overview",
		Tags:        []string{"Projects"},
	}, func(ctx context.Context, input *struct {
		ProjectName string `query:"project_name"`
	}) (*reply, error) {
		return respond(e.ProjectInfo(ctx, input.ProjectName))
	})

	huma.Register(api, huma.Operation{
		OperationID: "project-knowledge-graph",
		Method:      http.MethodGet,
		Path:        "/project/kg",
		Summary:     "Character knowledge graph",
		Tags:        []string{"Projects"},
	}, func(ctx context.Context, input *struct {
		ProjectName string `query:"project_name"`
	}) (*reply, error) {
		kg, err := e.KnowledgeGraph(ctx, input.ProjectName)
		if err != nil {
			return respond(nil, err)
		}
		return ok(projectGraph{ProjectName: input.ProjectName, KnowledgeGraph: kg})
	})

	huma.Register(api, huma.Operation{
		OperationID: "project-events",
		Method:      http.MethodGet,
		Path:        "/project/events",
		Summary:     "Project activity log, newest first",
		Tags:        []string{"Projects"},
	}, func(ctx context.Context, input *struct {
		ProjectName string `query:"project_name"`
		Limit       int    `query:"limit" minimum:"0" maximum:"500"`
		Cursor      int64  `query:"cursor" minimum:"0"`
	}) (*reply, error) {
		return respond(e.ProjectEvents(ctx, input.ProjectName, input.Limit, input.Cursor))
	})
}
