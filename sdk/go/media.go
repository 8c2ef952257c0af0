package reelsdk

import (
	"context"
	"net/url"
)

// MediaAPI groups the /media endpoints. Generation is fire-and-forget:
// submit, poll Progress, optionally Cancel.
type MediaAPI struct{ c *Client }

// Media returns the media endpoints.
func (c *Client) Media() MediaAPI { return MediaAPI{c: c} }

func (a MediaAPI) GenerateImages(ctx context.Context, req GenerateImagesRequest) (GenerationTask, error) {
	var resp GenerationTask
	err := a.c.Post(ctx, "/media/generate_images", req, &resp)
	return resp, err
}

func (a MediaAPI) GenerateAudio(ctx context.Context, req GenerateAudioRequest) (GenerationTask, error) {
	var resp GenerationTask
	err := a.c.Post(ctx, "/media/generate-audio", req, &resp)
	return resp, err
}

func (a MediaAPI) Progress(ctx context.Context, taskID string) (GenerationProgress, error) {
	var resp GenerationProgress
	err := a.c.Get(ctx, "/media/progress", nil, &resp, WithQuery(map[string]any{"task_id": taskID}))
	return resp, err
}

// Cancel asks the backend to stop a job. The task id travels in the query string.
func (a MediaAPI) Cancel(ctx context.Context, taskID string) error {
	return a.c.Post(ctx, "/media/cancel", nil, nil, WithQuery(map[string]any{"task_id": taskID}))
}

// Workflows lists the image workflows known to the backend.
func (a MediaAPI) Workflows(ctx context.Context) ([]map[string]any, error) {
	var resp struct {
		Workflows []map[string]any `json:"workflows"`
	}
	err := a.c.Get(ctx, "/media/workflows", nil, &resp)
	return resp.Workflows, err
}

// Workflow returns one image workflow by name.
func (a MediaAPI) Workflow(ctx context.Context, name string) (map[string]any, error) {
	var resp map[string]any
	err := a.c.Get(ctx, "/media/workflow/"+url.PathEscape(name), nil, &resp)
	return resp, err
}
