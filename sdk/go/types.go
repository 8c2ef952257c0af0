package reelsdk

// ProjectInfo is the project overview returned by /project/info.
type ProjectInfo struct {
	ProjectName    string         `json:"project_name"`
	Chapters       []ChapterInfo  `json:"chapters"`
	KnowledgeGraph KnowledgeGraph `json:"knowledge_graph"`
}

// ChapterInfo lists the spans of one chapter.
type ChapterInfo struct {
	ID    string     `json:"id"`
	Spans []SpanInfo `json:"spans"`
}

// SpanInfo records what a span has on disk.
type SpanInfo struct {
	ID         string   `json:"id"`
	HasContent bool     `json:"has_content"`
	HasPrompt  bool     `json:"has_prompt"`
	Images     []string `json:"images"`
	Audios     []string `json:"audios"`
}

// KnowledgeGraph is opaque to the client.
type KnowledgeGraph struct {
	Nodes          []any    `json:"nodes,omitempty"`
	Relationships  []any    `json:"relationships"`
	Entities       []any    `json:"entities,omitempty"`
	LockedEntities []string `json:"locked_entities,omitempty"`
	CreatedAt      string   `json:"created_at,omitempty"`
}

// ProjectEvent is one entry of a project's activity log.
type ProjectEvent struct {
	ID         int64          `json:"id"`
	TS         string         `json:"ts"`
	Type       string         `json:"type"`
	Project    string         `json:"project_name,omitempty"`
	EntityKind string         `json:"entity_kind"`
	EntityID   string         `json:"entity_id,omitempty"`
	ActorID    string         `json:"actor_id"`
	Payload    map[string]any `json:"payload"`
}

type ProjectCreated struct {
	ProjectName  string `json:"project_name"`
	FirstChapter string `json:"first_chapter,omitempty"`
}

type GenerateChapterRequest struct {
	ProjectName    string `json:"project_name"`
	ChapterName    string `json:"chapter_name"`
	Prompt         string `json:"prompt"`
	IsContinuation bool   `json:"is_continuation"`
	UseLastChapter bool   `json:"use_last_chapter"`
}

type SaveChapterRequest struct {
	ProjectName string `json:"project_name"`
	ChapterName string `json:"chapter_name"`
	Content     string `json:"content"`
}

type ChapterContent struct {
	Content string `json:"content"`
}

type ChapterCreated struct {
	Chapter string `json:"chapter"`
}

// SplitSpan is one segment produced by /chapter/split_text.
type SplitSpan struct {
	Content   string `json:"content"`
	BaseScene string `json:"base_scene"`
	Scene     string `json:"scene"`
	Prompt    string `json:"prompt"`
}

// ChapterScene is one span as listed by /chapter/scene_list.
type ChapterScene struct {
	ID        string `json:"id"`
	Content   string `json:"content"`
	BaseScene string `json:"base_scene"`
	Scene     string `json:"scene"`
	Prompt    string `json:"prompt"`
}

// SceneEdit is a partial span update for /chapter/save_scenes.
type SceneEdit struct {
	ID        string  `json:"id"`
	Span      *string `json:"span,omitempty"`
	BaseScene *string `json:"base_scene,omitempty"`
	Scene     *string `json:"scene,omitempty"`
	Prompt    *string `json:"prompt,omitempty"`
}

type ImportResult struct {
	Chapters      []string `json:"chapters"`
	TotalChapters int      `json:"total_chapters"`
}

// CharacterAttributes is an open attribute map; role and description are conventional keys.
type CharacterAttributes map[string]any

func (a CharacterAttributes) Role() string        { return a.str("role") }
func (a CharacterAttributes) Description() string { return a.str("description") }

func (a CharacterAttributes) str(key string) string {
	if v, ok := a[key].(string); ok {
		return v
	}
	return ""
}

type Character struct {
	Name       string              `json:"name"`
	Attributes CharacterAttributes `json:"attributes"`
}

type UpdateCharacterParams struct {
	Name       string              `json:"name"`
	Attributes CharacterAttributes `json:"attributes"`
}

type CharacterList struct {
	Characters     []Character `json:"characters"`
	LockedEntities []string    `json:"locked_entities"`
}

// ExtractResult is the raw envelope of /chapter/extract_characters.
type ExtractResult struct {
	Status     string      `json:"status"`
	Message    string      `json:"message,omitempty"`
	Characters []Character `json:"data"`
}

type LockState struct {
	IsLocked bool `json:"is_locked"`
}

type UpdateSceneParams struct {
	Name   string `json:"name"`
	Prompt string `json:"prompt"`
}

type SceneList struct {
	Scenes map[string]string `json:"scenes"`
}

type ImageSettings struct {
	Width  int    `json:"width"`
	Height int    `json:"height"`
	Style  string `json:"style"`
}

type AudioSettings struct {
	Voice string `json:"voice"`
	Rate  string `json:"rate"`
}

// SpanPrompt pairs a span id with its generation prompt.
type SpanPrompt struct {
	ID     int    `json:"id"`
	Prompt string `json:"prompt"`
}

type GenerateImagesRequest struct {
	ProjectName   string         `json:"project_name"`
	ChapterName   string         `json:"chapter_name"`
	ImageSettings ImageSettings  `json:"imageSettings"`
	Prompts       []SpanPrompt   `json:"prompts"`
	Workflow      string         `json:"workflow,omitempty"`
	Params        map[string]any `json:"params,omitempty"`
}

type GenerateAudioRequest struct {
	ProjectName   string        `json:"project_name"`
	ChapterName   string        `json:"chapter_name"`
	AudioSettings AudioSettings `json:"audioSettings"`
	Prompts       []SpanPrompt  `json:"prompts"`
}

// GenerationTask identifies a submitted media job.
type GenerationTask struct {
	TaskID string `json:"task_id"`
	Status string `json:"status"`
	Total  int    `json:"total"`
}

type GenerationProgress struct {
	Status        string   `json:"status"`
	Current       int      `json:"current"`
	Total         int      `json:"total"`
	Errors        []string `json:"errors"`
	CurrentPrompt *string  `json:"current_prompt"`
	TaskType      string   `json:"task_type,omitempty"`
}

// Done reports whether the job reached a terminal state.
func (p GenerationProgress) Done() bool {
	switch p.Status {
	case "completed", "cancelled", "error", "not_found":
		return true
	}
	return false
}

// VideoSettings carries every optional rendering parameter any backend
// revision has accepted. Unset fields are omitted on the wire.
type VideoSettings struct {
	ProjectName  string      `json:"project_name"`
	ChapterName  string      `json:"chapter_name"`
	FPS          *int        `json:"fps,omitempty"`
	FadeDuration *float64    `json:"fade_duration,omitempty"`
	UsePan       *bool       `json:"use_pan,omitempty"`
	PanRange     *[2]float64 `json:"pan_range,omitempty"`
	ZoomFactor   *float64    `json:"zoom_factor,omitempty"`
	PanIntensity *int        `json:"pan_intensity,omitempty"`
	FontName     *string     `json:"font_name,omitempty"`
	FontSize     *int        `json:"font_size,omitempty"`
	Resolution   *[2]int     `json:"resolution,omitempty"`
}

type VideoResult struct {
	VideoPath string `json:"video_path"`
}

type VideoProgress struct {
	Progress    int     `json:"progress"`
	Total       int     `json:"total"`
	Percentage  int     `json:"percentage"`
	CurrentTask *string `json:"current_task"`
}
