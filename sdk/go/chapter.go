package reelsdk

import (
	"context"
	"io"
)

// ChapterAPI groups the /chapter endpoints.
type ChapterAPI struct{ c *Client }

// Chapters returns the chapter endpoints.
func (c *Client) Chapters() ChapterAPI { return ChapterAPI{c: c} }

// List returns the chapter names of a project in order.
func (a ChapterAPI) List(ctx context.Context, project string) ([]string, error) {
	var resp []string
	err := a.c.Get(ctx, "/chapter/list", map[string]any{"project_name": project}, &resp)
	return resp, err
}

// Content returns the text of a chapter. New chapters have empty content.
func (a ChapterAPI) Content(ctx context.Context, project, chapter string) (ChapterContent, error) {
	var resp ChapterContent
	err := a.c.Get(ctx, "/chapter/content", map[string]any{
		"project_name": project,
		"chapter_name": chapter,
	}, &resp)
	return resp, err
}

// Generate starts text generation and returns the event stream.
// Cancel ctx to abort; decode the body with NewEventReader.
func (a ChapterAPI) Generate(ctx context.Context, req GenerateChapterRequest) (io.ReadCloser, error) {
	return a.c.Stream(ctx, "/chapter/generate", req)
}

// Save overwrites a chapter's content.
func (a ChapterAPI) Save(ctx context.Context, req SaveChapterRequest) error {
	return a.c.Post(ctx, "/chapter/save", req, nil)
}

// Create appends a new empty chapter.
func (a ChapterAPI) Create(ctx context.Context, project string) (ChapterCreated, error) {
	var resp ChapterCreated
	err := a.c.Post(ctx, "/chapter/create", map[string]any{"project_name": project}, &resp)
	return resp, err
}

// Split segments a chapter into spans and generates a prompt per span.
func (a ChapterAPI) Split(ctx context.Context, project, chapter string) ([]SplitSpan, error) {
	var resp []SplitSpan
	err := a.c.Post(ctx, "/chapter/split_text", map[string]any{
		"project_name": project,
		"chapter_name": chapter,
	}, &resp)
	return resp, err
}

// ExtractCharacters returns the raw envelope of the character extraction.
func (a ChapterAPI) ExtractCharacters(ctx context.Context, project, chapter string) (ExtractResult, error) {
	var resp ExtractResult
	err := a.c.Post(ctx, "/chapter/extract_characters", map[string]any{
		"project_name": project,
		"chapter_name": chapter,
	}, &resp, WithRaw())
	return resp, err
}

// SceneList returns the spans of a chapter with their scene prompts.
func (a ChapterAPI) SceneList(ctx context.Context, project, chapter string) ([]ChapterScene, error) {
	var resp []ChapterScene
	err := a.c.Get(ctx, "/chapter/scene_list", map[string]any{
		"project_name": project,
		"chapter_name": chapter,
	}, &resp)
	return resp, err
}

// SaveScenes applies span edits.
func (a ChapterAPI) SaveScenes(ctx context.Context, project, chapter string, scenes []SceneEdit) error {
	return a.c.Post(ctx, "/chapter/save_scenes", map[string]any{
		"project_name": project,
		"chapter_name": chapter,
		"scenes":       scenes,
	}, nil)
}

// TranslatePrompts turns scene descriptions into image prompts.
func (a ChapterAPI) TranslatePrompts(ctx context.Context, project string, prompts []string) ([]string, error) {
	var resp []string
	err := a.c.Post(ctx, "/chapter/translate_prompt", map[string]any{
		"project_name": project,
		"prompts":      prompts,
	}, &resp)
	return resp, err
}

// ImportNovelRequest uploads a whole novel to be split into chapters.
type ImportNovelRequest struct {
	ProjectName string
	FileName    string
	File        io.Reader
	// ChapterPattern overrides the backend's chapter heading regexp.
	ChapterPattern string
}

// ImportNovel uploads a novel file.
func (a ChapterAPI) ImportNovel(ctx context.Context, req ImportNovelRequest) (ImportResult, error) {
	fields := map[string]string{"project_name": req.ProjectName}
	if req.ChapterPattern != "" {
		fields["chapter_pattern"] = req.ChapterPattern
	}
	name := req.FileName
	if name == "" {
		name = "novel.txt"
	}
	var resp ImportResult
	err := a.c.PostMultipart(ctx, "/chapter/import_novel", fields, "file", name, req.File, &resp)
	return resp, err
}
