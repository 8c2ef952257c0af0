package devserver

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"novelreel/internal/engine"
)

// registerCharacters serves the older /character routes. They share the
// engine operations of /entity/character.
func registerCharacters(api huma.API, e engine.Engine) {
	huma.Register(api, huma.Operation{
		OperationID: "list-characters",
		Method:      http.MethodGet,
		Path:        "/character/list",
		Tags:        []string{"Characters"},
	}, func(ctx context.Context, input *struct {
		ProjectName string `query:"project_name"`
	}) (*reply, error) {
		return respond(e.ListCharacters(ctx, input.ProjectName))
	})

	huma.Register(api, huma.Operation{
		OperationID: "update-character",
		Method:      http.MethodPost,
		Path:        "/character/update",
		Tags:        []string{"Characters"},
	}, func(ctx context.Context, input *struct {
		Body characterBody `json:"body"`
	}) (*reply, error) {
		b := input.Body
		return respond(e.UpdateCharacter(ctx, b.ProjectName, b.Name, b.attributes(), actorFrom(ctx)))
	})

	huma.Register(api, huma.Operation{
		OperationID: "toggle-character-lock",
		Method:      http.MethodPost,
		Path:        "/character/toggle_lock",
		Tags:        []string{"Characters"},
	}, func(ctx context.Context, input *struct {
		Body entityRefBody `json:"body"`
	}) (*reply, error) {
		return respond(e.ToggleCharacterLock(ctx, input.Body.ProjectName, input.Body.EntityName, actorFrom(ctx)))
	})

	huma.Register(api, huma.Operation{
		OperationID: "delete-character",
		Method:      http.MethodDelete,
		Path:        "/character/entity/{name}",
		Tags:        []string{"Characters"},
	}, func(ctx context.Context, input *struct {
		Name        string `path:"name"`
		ProjectName string `query:"project_name"`
	}) (*reply, error) {
		if err := e.DeleteCharacter(ctx, input.ProjectName, input.Name, actorFrom(ctx)); err != nil {
			return respond(nil, err)
		}
		return ok(true)
	})
}

func registerEntities(api huma.API, e engine.Engine) {
	huma.Register(api, huma.Operation{
		OperationID: "entity-list-characters",
		Method:      http.MethodGet,
		Path:        "/entity/character/list",
		Summary:     "List characters and the locked ones",
		Tags:        []string{"Entities"},
	}, func(ctx context.Context, input *struct {
		ProjectName string `query:"project_name"`
	}) (*reply, error) {
		return respond(e.ListCharacters(ctx, input.ProjectName))
	})

	huma.Register(api, huma.Operation{
		OperationID: "entity-create-character",
		Method:      http.MethodPost,
		Path:        "/entity/character/create",
		Tags:        []string{"Entities"},
	}, func(ctx context.Context, input *struct {
		Body characterBody `json:"body"`
	}) (*reply, error) {
		b := input.Body
		return respond(e.CreateCharacter(ctx, b.ProjectName, b.Name, b.attributes(), actorFrom(ctx)))
	})

	huma.Register(api, huma.Operation{
		OperationID: "entity-update-character",
		Method:      http.MethodPost,
		Path:        "/entity/character/update",
		Tags:        []string{"Entities"},
	}, func(ctx context.Context, input *struct {
		Body characterBody `json:"body"`
	}) (*reply, error) {
		b := input.Body
		return respond(e.UpdateCharacter(ctx, b.ProjectName, b.Name, b.attributes(), actorFrom(ctx)))
	})

	huma.Register(api, huma.Operation{
		OperationID: "entity-toggle-character-lock",
		Method:      http.MethodPost,
		Path:        "/entity/character/toggle_lock",
		Tags:        []string{"Entities"},
	}, func(ctx context.Context, input *struct {
		Body entityRefBody `json:"body"`
	}) (*reply, error) {
		return respond(e.ToggleCharacterLock(ctx, input.Body.ProjectName, input.Body.EntityName, actorFrom(ctx)))
	})

	huma.Register(api, huma.Operation{
		OperationID: "entity-delete-character",
		Method:      http.MethodDelete,
		Path:        "/entity/character/{name}",
		Tags:        []string{"Entities"},
	}, func(ctx context.Context, input *struct {
		Name        string `path:"name"`
		ProjectName string `query:"project_name"`
	}) (*reply, error) {
		return respond(nil, e.DeleteCharacter(ctx, input.ProjectName, input.Name, actorFrom(ctx)))
	})

	huma.Register(api, huma.Operation{
		OperationID: "entity-list-scenes",
		Method:      http.MethodGet,
		Path:        "/entity/scene/list",
		Summary:     "Scene prompts by name",
		Tags:        []string{"Entities"},
	}, func(ctx context.Context, input *struct {
		ProjectName string `query:"project_name"`
	}) (*reply, error) {
		scenes, err := e.ListScenes(ctx, input.ProjectName)
		if err != nil {
			return respond(nil, err)
		}
		return ok(sceneMap{Scenes: scenes})
	})

	huma.Register(api, huma.Operation{
		OperationID: "entity-create-scene",
		Method:      http.MethodPost,
		Path:        "/entity/scene/create",
		Tags:        []string{"Entities"},
	}, func(ctx context.Context, input *struct {
		Body sceneBody `json:"body"`
	}) (*reply, error) {
		b := input.Body
		return respond(nil, e.CreateScene(ctx, b.ProjectName, b.Name, b.Prompt, actorFrom(ctx)))
	})

	huma.Register(api, huma.Operation{
		OperationID: "entity-update-scene",
		Method:      http.MethodPost,
		Path:        "/entity/scene/update",
		Tags:        []string{"Entities"},
	}, func(ctx context.Context, input *struct {
		Body sceneBody `json:"body"`
	}) (*reply, error) {
		b := input.Body
		return respond(nil, e.UpdateScene(ctx, b.ProjectName, b.Name, b.Prompt, actorFrom(ctx)))
	})

	huma.Register(api, huma.Operation{
		OperationID: "entity-delete-scene",
		Method:      http.MethodDelete,
		Path:        "/entity/scene/{name}",
		Tags:        []string{"Entities"},
	}, func(ctx context.Context, input *struct {
		Name        string `path:"name"`
		ProjectName string `query:"project_name"`
	}) (*reply, error) {
		return respond(nil, e.DeleteScene(ctx, input.ProjectName, input.Name, actorFrom(ctx)))
	})
}
