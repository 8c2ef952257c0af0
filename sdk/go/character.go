package reelsdk

import (
	"context"
	"net/url"
)

// CharacterAPI groups the legacy /character endpoints. New code should
// prefer EntityAPI, which also covers scenes.
type CharacterAPI struct{ c *Client }

// Characters returns the legacy character endpoints.
func (c *Client) Characters() CharacterAPI { return CharacterAPI{c: c} }

func (a CharacterAPI) List(ctx context.Context, project string) (CharacterList, error) {
	var resp CharacterList
	err := a.c.Get(ctx, "/character/list", nil, &resp, WithQuery(map[string]any{"project_name": project}))
	return resp, err
}

// Update replaces a character's attributes and returns the backend's result text.
func (a CharacterAPI) Update(ctx context.Context, project string, params UpdateCharacterParams) (string, error) {
	var resp string
	err := a.c.Post(ctx, "/character/update", map[string]any{
		"project_name": project,
		"name":         params.Name,
		"attributes":   params.Attributes,
	}, &resp)
	return resp, err
}

func (a CharacterAPI) ToggleLock(ctx context.Context, project, entity string) (LockState, error) {
	var resp LockState
	err := a.c.Post(ctx, "/character/toggle_lock", map[string]any{
		"project_name": project,
		"entity_name":  entity,
	}, &resp)
	return resp, err
}

// Delete removes an unlocked character; the backend refuses locked ones.
func (a CharacterAPI) Delete(ctx context.Context, project, entity string) error {
	return a.c.Delete(ctx, "/character/entity/"+url.PathEscape(entity), map[string]any{"project_name": project}, nil)
}
