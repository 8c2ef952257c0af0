package devserver

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"novelreel/internal/engine"
)

func registerMedia(api huma.API, e engine.Engine) {
	huma.Register(api, huma.Operation{
		OperationID: "generate-images",
		Method:      http.MethodPost,
		Path:        "/media/generate_images",
		Summary:     "Start an image job for chapter spans",
		Tags:        []string{"Media"},
	}, func(ctx context.Context, input *struct {
		Body engine.ImagesRequest `json:"body"`
	}) (*reply, error) {
		return respond(e.GenerateImages(ctx, input.Body, actorFrom(ctx)))
	})

	huma.Register(api, huma.Operation{
		OperationID: "generate-audio",
		Method:      http.MethodPost,
		Path:        "/media/generate-audio",
		Summary:     "Start a narration job for chapter spans",
		Tags:        []string{"Media"},
	}, func(ctx context.Context, input *struct {
		Body engine.AudioRequest `json:"body"`
	}) (*reply, error) {
		return respond(e.GenerateAudio(ctx, input.Body, actorFrom(ctx)))
	})

	huma.Register(api, huma.Operation{
		OperationID: "media-progress",
		Method:      http.MethodGet,
		Path:        "/media/progress",
		Tags:        []string{"Media"},
	}, func(ctx context.Context, input *struct {
		TaskID string `query:"task_id"`
	}) (*reply, error) {
		return respond(e.MediaProgress(ctx, input.TaskID))
	})

	huma.Register(api, huma.Operation{
		OperationID: "media-cancel",
		Method:      http.MethodPost,
		Path:        "/media/cancel",
		Tags:        []string{"Media"},
	}, func(ctx context.Context, input *struct {
		TaskID string `query:"task_id"`
	}) (*reply, error) {
		return respond(nil, e.CancelMedia(ctx, input.TaskID, actorFrom(ctx)))
	})

	huma.Register(api, huma.Operation{
		OperationID: "media-workflows",
		Method:      http.MethodGet,
		Path:        "/media/workflows",
		Tags:        []string{"Media"},
	}, func(ctx context.Context, _ *struct{}) (*reply, error) {
		return ok(workflowList{Workflows: e.Workflows()})
	})

	huma.Register(api, huma.Operation{
		OperationID: "media-workflow",
		Method:      http.MethodGet,
		Path:        "/media/workflow/{name}",
		Tags:        []string{"Media"},
	}, func(ctx context.Context, input *struct {
		Name string `path:"name"`
	}) (*reply, error) {
		return respond(e.Workflow(input.Name))
	})
}

func registerVideo(api huma.API, e engine.Engine) {
	huma.Register(api, huma.Operation{
		OperationID: "generate-video",
		Method:      http.MethodPost,
		Path:        "/video/generate_video",
		Summary:     "Render a chapter video and wait for it",
		Tags:        []string{"Video"},
	}, func(ctx context.Context, input *struct {
		Body engine.VideoSettings `json:"body"`
	}) (*reply, error) {
		return respond(e.GenerateVideo(ctx, input.Body, actorFrom(ctx)))
	})

	huma.Register(api, huma.Operation{
		OperationID: "video-progress",
		Method:      http.MethodGet,
		Path:        "/video/generation_progress",
		Tags:        []string{"Video"},
	}, func(ctx context.Context, _ *struct{}) (*reply, error) {
		return ok(e.VideoProgress())
	})

	huma.Register(api, huma.Operation{
		OperationID: "video-cancel",
		Method:      http.MethodPost,
		Path:        "/video/cancel_generation",
		Tags:        []string{"Video"},
	}, func(ctx context.Context, _ *struct{}) (*reply, error) {
		return respond(nil, e.CancelVideo(ctx, actorFrom(ctx)))
	})
}

func registerAdmin(api huma.API, e engine.Engine) {
	huma.Register(api, huma.Operation{
		OperationID: "get-config",
		Method:      http.MethodGet,
		Path:        "/admin/config",
		Summary:     "Effective configuration as dotted keys",
		Tags:        []string{"Admin"},
	}, func(ctx context.Context, _ *struct{}) (*reply, error) {
		return respond(e.AdminConfig(ctx))
	})

	huma.Register(api, huma.Operation{
		OperationID: "update-config",
		Method:      http.MethodPost,
		Path:        "/admin/config",
		Summary:     "Store configuration overrides",
		Tags:        []string{"Admin"},
	}, func(ctx context.Context, input *struct {
		Body map[string]any `json:"body"`
	}) (*reply, error) {
		keys, err := e.UpdateConfig(ctx, input.Body, actorFrom(ctx))
		if err != nil {
			return respond(nil, err)
		}
		cfg, err := e.AdminConfig(ctx)
		if err != nil {
			return respond(nil, err)
		}
		return ok(configUpdated{Updated: keys, Config: cfg})
	})
}
