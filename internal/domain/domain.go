package domain

type Project struct {
	Name      string `json:"name"`
	CreatedAt string `json:"created_at" format:"date-time"`
}

type Chapter struct {
	Project   string `json:"project_name"`
	Name      string `json:"chapter_name"`
	Seq       int    `json:"seq"`
	Content   string `json:"content"`
	UpdatedAt string `json:"updated_at" format:"date-time"`
}

// Span is a narration unit of a chapter. IDs count from 1 in chapter order.
type Span struct {
	ID        int    `json:"id"`
	Content   string `json:"content"`
	BaseScene string `json:"base_scene"`
	Scene     string `json:"scene"`
	Prompt    string `json:"prompt"`
}

type Character struct {
	Name       string         `json:"name"`
	Attributes map[string]any `json:"attributes"`
	Locked     bool           `json:"-"`
}

type Scene struct {
	Name   string `json:"name"`
	Prompt string `json:"prompt"`
}

const (
	AssetImage = "image"
	AssetAudio = "audio"
	AssetVideo = "video"
)

// VideoSpan is the span id under which a chapter's rendered video is stored.
const VideoSpan = -1

type Asset struct {
	Project     string `json:"project_name"`
	Chapter     string `json:"chapter_name"`
	SpanID      int    `json:"span_id"`
	Kind        string `json:"kind" enum:"image,audio,video"`
	ContentType string `json:"content_type"`
	Data        []byte `json:"-"`
	CreatedAt   string `json:"created_at" format:"date-time"`
}

const (
	TaskPending   = "pending"
	TaskRunning   = "running"
	TaskCompleted = "completed"
	TaskCancelled = "cancelled"
	TaskError     = "error"
	TaskNotFound  = "not_found"
)

type Task struct {
	ID            string   `json:"task_id"`
	Type          string   `json:"task_type" enum:"image,audio,video"`
	Project       string   `json:"project_name"`
	Chapter       string   `json:"chapter_name"`
	Status        string   `json:"status" enum:"pending,running,completed,cancelled,error"`
	Current       int      `json:"current"`
	Total         int      `json:"total"`
	Errors        []string `json:"errors"`
	CurrentPrompt *string  `json:"current_prompt"`
	CreatedAt     string   `json:"created_at" format:"date-time"`
	UpdatedAt     string   `json:"updated_at" format:"date-time"`
}

// Terminal reports whether the task can no longer change.
func (t Task) Terminal() bool {
	switch t.Status {
	case TaskCompleted, TaskCancelled, TaskError:
		return true
	}
	return false
}

type Event struct {
	ID         int64          `json:"id"`
	TS         string         `json:"ts" format:"date-time"`
	Type       string         `json:"type"`
	Project    string         `json:"project_name,omitempty"`
	EntityKind string         `json:"entity_kind"`
	EntityID   string         `json:"entity_id,omitempty"`
	ActorID    string         `json:"actor_id"`
	Payload    map[string]any `json:"payload"`
}
