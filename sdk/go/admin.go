package reelsdk

import (
	"context"
	"fmt"
)

// AdminAPI groups backend configuration and dev auth endpoints.
type AdminAPI struct{ c *Client }

// Admin returns the admin endpoints.
func (c *Client) Admin() AdminAPI { return AdminAPI{c: c} }

// Config returns the backend configuration without secrets.
func (a AdminAPI) Config(ctx context.Context) (map[string]any, error) {
	var resp map[string]any
	err := a.c.Get(ctx, "/admin/config", nil, &resp)
	return resp, err
}

// UpdateConfig applies dotted-key updates such as {"video.fps": 30}.
func (a AdminAPI) UpdateConfig(ctx context.Context, updates map[string]any) (map[string]any, error) {
	if len(updates) == 0 {
		return nil, fmt.Errorf("no config updates")
	}
	var resp map[string]any
	err := a.c.Post(ctx, "/admin/config", updates, &resp)
	return resp, err
}

// DevLogin mints a development token for subject and stores it in the session.
func (a AdminAPI) DevLogin(ctx context.Context, subject string) (string, error) {
	var resp struct {
		Token string `json:"token"`
	}
	if err := a.c.Post(ctx, "/auth/dev/login", map[string]any{"subject": subject}, &resp); err != nil {
		return "", err
	}
	if resp.Token == "" {
		return "", fmt.Errorf("login returned no token")
	}
	if err := a.c.SetToken(resp.Token); err != nil {
		return "", fmt.Errorf("store token: %w", err)
	}
	return resp.Token, nil
}
