package devserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/danielgtaylor/huma/v2"

	"novelreel/internal/engine"
)

func registerChapters(api huma.API, e engine.Engine) {
	huma.Register(api, huma.Operation{
		OperationID: "list-chapters",
		Method:      http.MethodGet,
		Path:        "/chapter/list",
		Summary:     "List chapters in reading order",
		Tags:        []string{"Chapters"},
	}, func(ctx context.Context, input *struct {
		ProjectName string `query:"project_name"`
	}) (*reply, error) {
		return respond(e.ListChapters(ctx, input.ProjectName))
	})

	huma.Register(api, huma.Operation{
		OperationID: "chapter-content",
		Method:      http.MethodGet,
		Path:        "/chapter/content",
		Summary:     "Chapter text",
		Tags:        []string{"Chapters"},
	}, func(ctx context.Context, input *struct {
		ProjectName string `query:"project_name"`
		ChapterName string `query:"chapter_name"`
	}) (*reply, error) {
		content, err := e.ChapterContent(ctx, input.ProjectName, input.ChapterName)
		if err != nil {
			return respond(nil, err)
		}
		return ok(chapterContent{Content: content})
	})

	huma.Register(api, huma.Operation{
		OperationID: "generate-chapter",
		Method:      http.MethodPost,
		Path:        "/chapter/generate",
		Summary:     "Stream generated chapter text as server-sent events",
		Tags:        []string{"Chapters"},
	}, func(ctx context.Context, input *struct {
		Body engine.GenerateRequest `json:"body"`
	}) (*huma.StreamResponse, error) {
		req := input.Body
		return &huma.StreamResponse{Body: func(hctx huma.Context) {
			streamText(hctx, func(emit func(string) error) error {
				return e.GenerateText(hctx.Context(), req, emit)
			})
		}}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "save-chapter",
		Method:      http.MethodPost,
		Path:        "/chapter/save",
		Summary:     "Save chapter text",
		Tags:        []string{"Chapters"},
	}, func(ctx context.Context, input *struct {
		Body saveChapterBody `json:"body"`
	}) (*reply, error) {
		b := input.Body
		return respond(nil, e.SaveChapter(ctx, b.ProjectName, b.ChapterName, b.Content, actorFrom(ctx)))
	})

	huma.Register(api, huma.Operation{
		OperationID: "create-chapter",
		Method:      http.MethodPost,
		Path:        "/chapter/create",
		Summary:     "Append an empty chapter",
		Tags:        []string{"Chapters"},
	}, func(ctx context.Context, input *struct {
		Body projectNameBody `json:"body"`
	}) (*reply, error) {
		return respond(e.CreateChapter(ctx, input.Body.ProjectName, actorFrom(ctx)))
	})

	huma.Register(api, huma.Operation{
		OperationID: "split-chapter",
		Method:      http.MethodPost,
		Path:        "/chapter/split_text",
		Summary:     "Split a chapter into narration spans",
		Tags:        []string{"Chapters"},
	}, func(ctx context.Context, input *struct {
		Body chapterRefBody `json:"body"`
	}) (*reply, error) {
		return respond(e.SplitText(ctx, input.Body.ProjectName, input.Body.ChapterName, actorFrom(ctx)))
	})

	huma.Register(api, huma.Operation{
		OperationID: "extract-characters",
		Method:      http.MethodPost,
		Path:        "/chapter/extract_characters",
		Summary:     "Detect characters mentioned in a chapter",
		Tags:        []string{"Chapters"},
	}, func(ctx context.Context, input *struct {
		Body chapterRefBody `json:"body"`
	}) (*reply, error) {
		return respond(e.ExtractCharacters(ctx, input.Body.ProjectName, input.Body.ChapterName, actorFrom(ctx)))
	})

	huma.Register(api, huma.Operation{
		OperationID: "scene-list",
		Method:      http.MethodGet,
		Path:        "/chapter/scene_list",
		Summary:     "List the spans of a chapter",
		Tags:        []string{"Chapters"},
	}, func(ctx context.Context, input *struct {
		ProjectName string `query:"project_name"`
		ChapterName string `query:"chapter_name"`
	}) (*reply, error) {
		return respond(e.SceneList(ctx, input.ProjectName, input.ChapterName))
	})

	huma.Register(api, huma.Operation{
		OperationID: "save-scenes",
		Method:      http.MethodPost,
		Path:        "/chapter/save_scenes",
		Summary:     "Apply partial span edits",
		Tags:        []string{"Chapters"},
	}, func(ctx context.Context, input *struct {
		Body saveScenesBody `json:"body"`
	}) (*reply, error) {
		b := input.Body
		return respond(nil, e.SaveScenes(ctx, b.ProjectName, b.ChapterName, b.Scenes, actorFrom(ctx)))
	})

	huma.Register(api, huma.Operation{
		OperationID: "translate-prompts",
		Method:      http.MethodPost,
		Path:        "/chapter/translate_prompt",
		Summary:     "Turn scene descriptions into image prompts",
		Tags:        []string{"Chapters"},
	}, func(ctx context.Context, input *struct {
		Body translateBody `json:"body"`
	}) (*reply, error) {
		return respond(e.TranslatePrompts(ctx, input.Body.ProjectName, input.Body.Prompts))
	})
}

// streamText runs produce and relays its chunks as server-sent events. A
// failure before the first chunk is answered with an envelope instead.
func streamText(hctx huma.Context, produce func(emit func(string) error) error) {
	w := hctx.BodyWriter()
	started := false
	start := func() {
		if started {
			return
		}
		started = true
		hctx.SetHeader("Content-Type", "text/event-stream")
		hctx.SetHeader("Cache-Control", "no-cache")
		hctx.SetStatus(http.StatusOK)
	}
	err := produce(func(chunk string) error {
		start()
		if err := writeEvent(w, "", chunk); err != nil {
			return err
		}
		flush(w)
		return nil
	})
	switch {
	case err == nil:
		start()
	case !started:
		writeEnvelopeError(hctx, err)
	case errors.Is(err, context.Canceled):
	default:
		_ = writeEvent(w, "error", err.Error())
		flush(w)
	}
}

func writeEvent(w io.Writer, name, data string) error {
	var b strings.Builder
	if name != "" {
		fmt.Fprintf(&b, "event: %s\n", name)
	}
	for _, line := range strings.Split(data, "\n") {
		fmt.Fprintf(&b, "data: %s\n", line)
	}
	b.WriteString("\n")
	_, err := io.WriteString(w, b.String())
	return err
}

func flush(w io.Writer) {
	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}
}

func writeEnvelopeError(hctx huma.Context, err error) {
	status := http.StatusOK
	body := any(envelope{Status: statusError, Message: err.Error()})
	if !engine.IsRejection(err) {
		se := handleError(err)
		status, body = se.GetStatus(), se
	}
	hctx.SetHeader("Content-Type", "application/json")
	hctx.SetStatus(status)
	_ = json.NewEncoder(hctx.BodyWriter()).Encode(body)
}
