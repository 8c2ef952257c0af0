package devserver

import "novelreel/internal/engine"

// Request payloads. Every field is optional on the wire; missing values are
// reported as business errors by the engine.

type projectNameBody struct {
	ProjectName string `json:"project_name,omitempty"`
}

type renameProjectBody struct {
	OldName string `json:"old_name,omitempty"`
	NewName string `json:"new_name,omitempty"`
}

type chapterRefBody struct {
	ProjectName string `json:"project_name,omitempty"`
	ChapterName string `json:"chapter_name,omitempty"`
}

type saveChapterBody struct {
	ProjectName string `json:"project_name,omitempty"`
	ChapterName string `json:"chapter_name,omitempty"`
	Content     string `json:"content,omitempty"`
}

type saveScenesBody struct {
	ProjectName string             `json:"project_name,omitempty"`
	ChapterName string             `json:"chapter_name,omitempty"`
	Scenes      []engine.SceneEdit `json:"scenes,omitempty"`
}

type translateBody struct {
	ProjectName string   `json:"project_name,omitempty"`
	Prompts     []string `json:"prompts,omitempty"`
}

type characterBody struct {
	ProjectName string `json:"project_name,omitempty"`
	Name        string `json:"name,omitempty"`
	Attributes  any    `json:"attributes,omitempty"`
}

func (b characterBody) attributes() map[string]any {
	if m, ok := b.Attributes.(map[string]any); ok {
		return m
	}
	return map[string]any{}
}

type entityRefBody struct {
	ProjectName string `json:"project_name,omitempty"`
	EntityName  string `json:"entity_name,omitempty"`
}

type sceneBody struct {
	ProjectName string `json:"project_name,omitempty"`
	Name        string `json:"name,omitempty"`
	Prompt      string `json:"prompt,omitempty"`
}

// Response payloads

type chapterContent struct {
	Content string `json:"content"`
}

type projectGraph struct {
	ProjectName    string                `json:"project_name"`
	KnowledgeGraph engine.KnowledgeGraph `json:"knowledge_graph"`
}

type sceneMap struct {
	Scenes map[string]string `json:"scenes"`
}

type workflowList struct {
	Workflows any `json:"workflows"`
}

type configUpdated struct {
	Updated []string       `json:"updated"`
	Config  map[string]any `json:"config"`
}
