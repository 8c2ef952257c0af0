package engine

import (
	"context"
	"errors"
	"sort"
	"strconv"
	"strings"

	"novelreel/internal/domain"
	"novelreel/internal/events"
	"novelreel/internal/repo"
)

const firstChapter = "chapter1"

type ProjectCreated struct {
	ProjectName  string `json:"project_name"`
	FirstChapter string `json:"first_chapter,omitempty"`
}

type SpanInfo struct {
	ID         string   `json:"id"`
	HasContent bool     `json:"has_content"`
	HasPrompt  bool     `json:"has_prompt"`
	Images     []string `json:"images"`
	Audios     []string `json:"audios"`
}

type ChapterInfo struct {
	ID    string     `json:"id"`
	Spans []SpanInfo `json:"spans"`
}

type ProjectInfo struct {
	ProjectName    string         `json:"project_name"`
	Chapters       []ChapterInfo  `json:"chapters"`
	KnowledgeGraph KnowledgeGraph `json:"knowledge_graph"`
}

type KGNode struct {
	ID         string         `json:"id"`
	Type       string         `json:"type" enum:"character,scene"`
	Attributes map[string]any `json:"attributes,omitempty"`
	Locked     bool           `json:"locked,omitempty"`
}

type KGRelationship struct {
	Source string `json:"source"`
	Target string `json:"target"`
	Type   string `json:"type"`
	Weight int    `json:"weight"`
}

// KnowledgeGraph is derived from the project's entities; characters that
// share a span are linked.
type KnowledgeGraph struct {
	Nodes          []KGNode         `json:"nodes"`
	Relationships  []KGRelationship `json:"relationships"`
	Entities       []string         `json:"entities"`
	LockedEntities []string         `json:"locked_entities"`
	CreatedAt      string           `json:"created_at"`
}

func (e Engine) CreateProject(ctx context.Context, name, actorID string) (ProjectCreated, error) {
	name = strings.TrimSpace(name)
	if err := validName("项目", name); err != nil {
		return ProjectCreated{}, err
	}
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return ProjectCreated{}, err
	}
	defer tx.Rollback()
	now := e.stamp()
	if err := e.Repo.InsertProject(ctx, tx, domain.Project{Name: name, CreatedAt: now}); err != nil {
		if errors.Is(err, repo.ErrExists) {
			return ProjectCreated{}, failf("项目已存在")
		}
		return ProjectCreated{}, err
	}
	if err := e.Repo.InsertChapter(ctx, tx, domain.Chapter{Project: name, Name: firstChapter, Seq: 1, UpdatedAt: now}); err != nil {
		return ProjectCreated{}, err
	}
	if err := e.Events.Append(ctx, tx, "project.create", name, "project", name, actorID, events.Payload{"first_chapter": firstChapter}); err != nil {
		return ProjectCreated{}, err
	}
	if err := tx.Commit(); err != nil {
		return ProjectCreated{}, err
	}
	e.logger().Info("project created", "project", name)
	return ProjectCreated{ProjectName: name, FirstChapter: firstChapter}, nil
}

func (e Engine) ListProjects(ctx context.Context) ([]string, error) {
	projects, err := e.Repo.ListProjects(ctx)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(projects))
	for _, p := range projects {
		names = append(names, p.Name)
	}
	return names, nil
}

func (e Engine) RenameProject(ctx context.Context, oldName, newName, actorID string) (ProjectCreated, error) {
	newName = strings.TrimSpace(newName)
	if err := required(oldName); err != nil {
		return ProjectCreated{}, failf("项目名称不能为空")
	}
	if err := validName("项目", newName); err != nil {
		return ProjectCreated{}, err
	}
	if oldName == newName {
		return ProjectCreated{ProjectName: newName}, nil
	}
	if e.Jobs.ActiveFor(oldName) || e.Video.ActiveFor(oldName) {
		return ProjectCreated{}, failf("项目有正在运行的任务，无法重命名")
	}
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return ProjectCreated{}, err
	}
	defer tx.Rollback()
	if err := e.Repo.RenameProject(ctx, tx, oldName, newName); err != nil {
		switch {
		case errors.Is(err, repo.ErrNotFound):
			return ProjectCreated{}, failf("项目不存在")
		case errors.Is(err, repo.ErrExists):
			return ProjectCreated{}, failf("新项目名称已存在")
		}
		return ProjectCreated{}, err
	}
	if err := e.Repo.RenameEventProject(ctx, tx, oldName, newName); err != nil {
		return ProjectCreated{}, err
	}
	if err := e.Events.Append(ctx, tx, "project.rename", newName, "project", newName, actorID, events.Payload{"old_name": oldName}); err != nil {
		return ProjectCreated{}, err
	}
	if err := tx.Commit(); err != nil {
		return ProjectCreated{}, err
	}
	return ProjectCreated{ProjectName: newName}, nil
}

// DeleteProject cancels the project's running media jobs and removes it.
func (e Engine) DeleteProject(ctx context.Context, name, actorID string) error {
	if err := required(name); err != nil {
		return err
	}
	e.Jobs.CancelProject(name)
	e.Video.CancelProject(name)
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	if err := e.Repo.DeleteProject(ctx, tx, name); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return failf("项目不存在")
		}
		return err
	}
	if err := e.Events.Append(ctx, tx, "project.delete", name, "project", name, actorID, nil); err != nil {
		return err
	}
	return tx.Commit()
}

func (e Engine) requireProject(ctx context.Context, name string) (domain.Project, error) {
	if strings.TrimSpace(name) == "" {
		return domain.Project{}, failf("项目名称不能为空")
	}
	p, err := e.Repo.GetProject(ctx, name)
	if errors.Is(err, repo.ErrNotFound) {
		return p, failf("项目不存在")
	}
	return p, err
}

func (e Engine) ProjectInfo(ctx context.Context, name string) (ProjectInfo, error) {
	if _, err := e.requireProject(ctx, name); err != nil {
		return ProjectInfo{}, err
	}
	chapters, err := e.Repo.ListChapters(ctx, name)
	if err != nil {
		return ProjectInfo{}, err
	}
	info := ProjectInfo{ProjectName: name, Chapters: []ChapterInfo{}}
	for _, c := range chapters {
		spans, err := e.Repo.ListSpans(ctx, name, c.Name)
		if err != nil {
			return ProjectInfo{}, err
		}
		images, err := e.Repo.AssetSpans(ctx, name, c.Name, domain.AssetImage)
		if err != nil {
			return ProjectInfo{}, err
		}
		audios, err := e.Repo.AssetSpans(ctx, name, c.Name, domain.AssetAudio)
		if err != nil {
			return ProjectInfo{}, err
		}
		ci := ChapterInfo{ID: c.Name, Spans: []SpanInfo{}}
		for _, s := range spans {
			si := SpanInfo{
				ID:         strconv.Itoa(s.ID),
				HasContent: s.Content != "",
				HasPrompt:  s.Prompt != "",
				Images:     []string{},
				Audios:     []string{},
			}
			if images[s.ID] {
				si.Images = append(si.Images, "image.png")
			}
			if audios[s.ID] {
				si.Audios = append(si.Audios, "audio.wav")
			}
			ci.Spans = append(ci.Spans, si)
		}
		info.Chapters = append(info.Chapters, ci)
	}
	kg, err := e.KnowledgeGraph(ctx, name)
	if err != nil {
		return ProjectInfo{}, err
	}
	info.KnowledgeGraph = kg
	return info, nil
}

func (e Engine) KnowledgeGraph(ctx context.Context, name string) (KnowledgeGraph, error) {
	p, err := e.requireProject(ctx, name)
	if err != nil {
		return KnowledgeGraph{}, err
	}
	characters, err := e.Repo.ListCharacters(ctx, name)
	if err != nil {
		return KnowledgeGraph{}, err
	}
	scenes, err := e.Repo.ListScenes(ctx, name)
	if err != nil {
		return KnowledgeGraph{}, err
	}
	kg := KnowledgeGraph{
		Nodes:          []KGNode{},
		Relationships:  []KGRelationship{},
		Entities:       []string{},
		LockedEntities: []string{},
		CreatedAt:      p.CreatedAt,
	}
	for _, c := range characters {
		kg.Nodes = append(kg.Nodes, KGNode{ID: c.Name, Type: "character", Attributes: c.Attributes, Locked: c.Locked})
		kg.Entities = append(kg.Entities, c.Name)
		if c.Locked {
			kg.LockedEntities = append(kg.LockedEntities, c.Name)
		}
	}
	for _, s := range scenes {
		kg.Nodes = append(kg.Nodes, KGNode{ID: s.Name, Type: "scene", Attributes: map[string]any{"prompt": s.Prompt}})
	}

	chapters, err := e.Repo.ListChapters(ctx, name)
	if err != nil {
		return KnowledgeGraph{}, err
	}
	weights := map[[2]string]int{}
	for _, ch := range chapters {
		spans, err := e.Repo.ListSpans(ctx, name, ch.Name)
		if err != nil {
			return KnowledgeGraph{}, err
		}
		for _, s := range spans {
			present := mentioned(s.Content, characters)
			for i := 0; i < len(present); i++ {
				for j := i + 1; j < len(present); j++ {
					weights[[2]string{present[i], present[j]}]++
				}
			}
		}
	}
	for pair, w := range weights {
		kg.Relationships = append(kg.Relationships, KGRelationship{Source: pair[0], Target: pair[1], Type: "co_occurs", Weight: w})
	}
	sort.Slice(kg.Relationships, func(i, j int) bool {
		a, b := kg.Relationships[i], kg.Relationships[j]
		if a.Source != b.Source {
			return a.Source < b.Source
		}
		return a.Target < b.Target
	})
	return kg, nil
}

// mentioned returns the sorted names of characters appearing in text.
func mentioned(text string, characters []domain.Character) []string {
	var names []string
	for _, c := range characters {
		if c.Name != "" && strings.Contains(text, c.Name) {
			names = append(names, c.Name)
		}
	}
	sort.Strings(names)
	return names
}

// ProjectEvents returns the activity log of a project, newest first.
func (e Engine) ProjectEvents(ctx context.Context, name string, limit int, cursor int64) ([]domain.Event, error) {
	if strings.TrimSpace(name) == "" {
		return nil, failf("项目名称不能为空")
	}
	return e.Repo.ListEvents(ctx, repo.EventFilters{Project: name, Limit: limit, Cursor: cursor})
}
