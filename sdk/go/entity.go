package reelsdk

import (
	"context"
	"net/url"
)

// EntityAPI groups the entity/character and entity/scene endpoints.
type EntityAPI struct{ c *Client }

// Entities returns the entity endpoints.
func (c *Client) Entities() EntityAPI { return EntityAPI{c: c} }

func (a EntityAPI) Characters(ctx context.Context, project string) (CharacterList, error) {
	var resp CharacterList
	err := a.c.Get(ctx, "/entity/character/list", map[string]any{"project_name": project}, &resp)
	return resp, err
}

func (a EntityAPI) CreateCharacter(ctx context.Context, project string, params UpdateCharacterParams) (string, error) {
	var resp string
	err := a.c.Post(ctx, "/entity/character/create", characterBody(project, params), &resp)
	return resp, err
}

func (a EntityAPI) UpdateCharacter(ctx context.Context, project string, params UpdateCharacterParams) (string, error) {
	var resp string
	err := a.c.Post(ctx, "/entity/character/update", characterBody(project, params), &resp)
	return resp, err
}

func (a EntityAPI) ToggleCharacterLock(ctx context.Context, project, entity string) (LockState, error) {
	var resp LockState
	err := a.c.Post(ctx, "/entity/character/toggle_lock", map[string]any{
		"project_name": project,
		"entity_name":  entity,
	}, &resp)
	return resp, err
}

func (a EntityAPI) DeleteCharacter(ctx context.Context, project, entity string) error {
	return a.c.Delete(ctx, "/entity/character/"+url.PathEscape(entity), map[string]any{"project_name": project}, nil)
}

func (a EntityAPI) Scenes(ctx context.Context, project string) (SceneList, error) {
	var resp SceneList
	err := a.c.Get(ctx, "/entity/scene/list", map[string]any{"project_name": project}, &resp)
	return resp, err
}

func (a EntityAPI) CreateScene(ctx context.Context, project string, params UpdateSceneParams) error {
	return a.c.Post(ctx, "/entity/scene/create", sceneBody(project, params), nil)
}

func (a EntityAPI) UpdateScene(ctx context.Context, project string, params UpdateSceneParams) error {
	return a.c.Post(ctx, "/entity/scene/update", sceneBody(project, params), nil)
}

func (a EntityAPI) DeleteScene(ctx context.Context, project, name string) error {
	return a.c.Delete(ctx, "/entity/scene/"+url.PathEscape(name), map[string]any{"project_name": project}, nil)
}

func characterBody(project string, params UpdateCharacterParams) map[string]any {
	attrs := params.Attributes
	if attrs == nil {
		attrs = CharacterAttributes{}
	}
	return map[string]any{
		"project_name": project,
		"name":         params.Name,
		"attributes":   attrs,
	}
}

func sceneBody(project string, params UpdateSceneParams) map[string]any {
	return map[string]any{
		"project_name": project,
		"name":         params.Name,
		"prompt":       params.Prompt,
	}
}
