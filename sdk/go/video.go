package reelsdk

import "context"

// VideoAPI groups the /video endpoints.
type VideoAPI struct{ c *Client }

// Video returns the video endpoints.
func (c *Client) Video() VideoAPI { return VideoAPI{c: c} }

// Generate starts rendering a chapter video.
func (a VideoAPI) Generate(ctx context.Context, settings VideoSettings) (VideoResult, error) {
	var resp VideoResult
	err := a.c.Post(ctx, "/video/generate_video", settings, &resp, WithoutTimeout())
	return resp, err
}

// Progress reports the backend's current rendering job.
func (a VideoAPI) Progress(ctx context.Context) (VideoProgress, error) {
	var resp VideoProgress
	err := a.c.Get(ctx, "/video/generation_progress", nil, &resp)
	return resp, err
}

func (a VideoAPI) Cancel(ctx context.Context) error {
	return a.c.Post(ctx, "/video/cancel_generation", nil, nil)
}
