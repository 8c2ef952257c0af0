package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"novelreel/internal/config"
	"novelreel/internal/domain"
	"novelreel/internal/events"
	"novelreel/internal/repo"
)

type SpanPrompt struct {
	ID     int    `json:"id"`
	Prompt string `json:"prompt,omitempty"`
}

type ImageSettings struct {
	Width  int    `json:"width,omitempty"`
	Height int    `json:"height,omitempty"`
	Style  string `json:"style,omitempty"`
}

type AudioSettings struct {
	Voice string `json:"voice,omitempty"`
	Rate  string `json:"rate,omitempty"`
}

type ImagesRequest struct {
	ProjectName   string         `json:"project_name,omitempty"`
	ChapterName   string         `json:"chapter_name,omitempty"`
	ImageSettings ImageSettings  `json:"imageSettings,omitempty"`
	Prompts       []SpanPrompt   `json:"prompts,omitempty"`
	Workflow      string         `json:"workflow,omitempty"`
	Params        map[string]any `json:"params,omitempty"`
}

type AudioRequest struct {
	ProjectName   string        `json:"project_name,omitempty"`
	ChapterName   string        `json:"chapter_name,omitempty"`
	AudioSettings AudioSettings `json:"audioSettings,omitempty"`
	Prompts       []SpanPrompt  `json:"prompts,omitempty"`
}

// TaskStarted is returned when a media job is accepted.
type TaskStarted struct {
	TaskID string `json:"task_id"`
	Status string `json:"status"`
	Total  int    `json:"total"`
}

type job struct {
	task   domain.Task
	cancel context.CancelFunc
	done   chan struct{}
}

// Jobs tracks running media jobs. Finished jobs are answered from the
// tasks table.
type Jobs struct {
	mu      sync.Mutex
	running map[string]*job
}

func NewJobs() *Jobs {
	return &Jobs{running: map[string]*job{}}
}

// render produces one asset for a prompt.
type render func(p SpanPrompt) (domain.Asset, error)

func (e Engine) GenerateImages(ctx context.Context, req ImagesRequest, actorID string) (TaskStarted, error) {
	if err := e.checkMediaRequest(ctx, req.ProjectName, req.ChapterName, req.Prompts); err != nil {
		return TaskStarted{}, err
	}
	if req.Workflow != "" {
		if _, err := e.Workflow(req.Workflow); err != nil {
			return TaskStarted{}, err
		}
	}
	settings := req.ImageSettings
	return e.startJob(ctx, domain.AssetImage, req.ProjectName, req.ChapterName, req.Prompts, actorID, func(p SpanPrompt) (domain.Asset, error) {
		data, err := placeholderImage(settings.Style+p.Prompt, settings.Width, settings.Height)
		if err != nil {
			return domain.Asset{}, err
		}
		return domain.Asset{ContentType: ContentTypePNG, Data: data}, nil
	})
}

func (e Engine) GenerateAudio(ctx context.Context, req AudioRequest, actorID string) (TaskStarted, error) {
	if err := e.checkMediaRequest(ctx, req.ProjectName, req.ChapterName, req.Prompts); err != nil {
		return TaskStarted{}, err
	}
	return e.startJob(ctx, domain.AssetAudio, req.ProjectName, req.ChapterName, req.Prompts, actorID, func(p SpanPrompt) (domain.Asset, error) {
		return domain.Asset{ContentType: ContentTypeWAV, Data: placeholderAudio(p.Prompt)}, nil
	})
}

func (e Engine) checkMediaRequest(ctx context.Context, project, chapter string, prompts []SpanPrompt) error {
	if err := required(project, chapter); err != nil {
		return err
	}
	if len(prompts) == 0 {
		return failf("缺少必要参数")
	}
	for _, p := range prompts {
		if p.ID < 1 {
			return failf("无效的片段编号 %d", p.ID)
		}
	}
	if _, err := e.Repo.GetChapter(ctx, project, chapter); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return failf("章节不存在")
		}
		return err
	}
	return nil
}

func (e Engine) startJob(ctx context.Context, kind, project, chapter string, prompts []SpanPrompt, actorID string, fn render) (TaskStarted, error) {
	now := e.stamp()
	t := domain.Task{
		ID:        kind + "_" + uuid.NewString(),
		Type:      kind,
		Project:   project,
		Chapter:   chapter,
		Status:    domain.TaskRunning,
		Total:     len(prompts),
		Errors:    []string{},
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := e.Repo.InsertTask(ctx, t); err != nil {
		return TaskStarted{}, err
	}
	if err := e.Events.Append(ctx, nil, "media.start", project, "task", t.ID, actorID, events.Payload{"chapter": chapter, "total": t.Total}); err != nil {
		return TaskStarted{}, err
	}
	jobCtx, cancel := context.WithCancel(context.Background())
	j := &job{task: t, cancel: cancel, done: make(chan struct{})}
	e.Jobs.mu.Lock()
	e.Jobs.running[t.ID] = j
	e.Jobs.mu.Unlock()

	go e.runJob(jobCtx, j, prompts, fn)
	e.logger().Info("media job started", "task_id", t.ID, "project", project, "chapter", chapter, "total", t.Total)
	return TaskStarted{TaskID: t.ID, Status: t.Status, Total: t.Total}, nil
}

func (e Engine) runJob(ctx context.Context, j *job, prompts []SpanPrompt, fn render) {
	defer close(j.done)
	defer j.cancel()
	id := j.task.ID
	for i, p := range prompts {
		prompt := p.Prompt
		e.Jobs.update(id, func(t *domain.Task) { t.CurrentPrompt = &prompt })
		if err := sleepCtx(ctx, e.stepDelay()); err != nil {
			break
		}
		asset, err := fn(p)
		if err == nil {
			asset.Project, asset.Chapter, asset.SpanID, asset.Kind = j.task.Project, j.task.Chapter, p.ID, j.task.Type
			asset.CreatedAt = e.stamp()
			err = e.Repo.PutAsset(context.WithoutCancel(ctx), asset)
		}
		e.Jobs.update(id, func(t *domain.Task) {
			t.Current = i + 1
			if err != nil {
				t.Errors = append(t.Errors, fmt.Sprintf("span %d: %v", p.ID, err))
			}
		})
		if err != nil {
			e.logger().Warn("media render failed", "task_id", id, "span_id", p.ID, "err", err)
		}
	}

	final := e.Jobs.update(id, func(t *domain.Task) {
		t.CurrentPrompt = nil
		switch {
		case t.Status == domain.TaskCancelled:
		case len(t.Errors) == t.Total:
			t.Status = domain.TaskError
		default:
			t.Status = domain.TaskCompleted
		}
		t.UpdatedAt = e.stamp()
	})
	if err := e.Repo.UpdateTask(context.Background(), final); err != nil {
		e.logger().Error("persist task", "task_id", id, "err", err)
	}
	e.Jobs.mu.Lock()
	delete(e.Jobs.running, id)
	e.Jobs.mu.Unlock()
	e.logger().Info("media job finished", "task_id", id, "status", final.Status, "errors", len(final.Errors))
}

// update mutates a running task and returns a copy of it.
func (j *Jobs) update(id string, fn func(*domain.Task)) domain.Task {
	j.mu.Lock()
	defer j.mu.Unlock()
	r, ok := j.running[id]
	if !ok {
		return domain.Task{}
	}
	fn(&r.task)
	t := r.task
	t.Errors = append([]string{}, r.task.Errors...)
	return t
}

func (j *Jobs) snapshot(id string) (domain.Task, bool) {
	j.mu.Lock()
	defer j.mu.Unlock()
	r, ok := j.running[id]
	if !ok {
		return domain.Task{}, false
	}
	t := r.task
	t.Errors = append([]string{}, r.task.Errors...)
	return t, true
}

// MediaProgress reports a job's state; unknown ids report not_found.
func (e Engine) MediaProgress(ctx context.Context, taskID string) (domain.Task, error) {
	if err := required(taskID); err != nil {
		return domain.Task{}, err
	}
	if t, ok := e.Jobs.snapshot(taskID); ok {
		return t, nil
	}
	t, err := e.Repo.GetTask(ctx, taskID)
	if errors.Is(err, repo.ErrNotFound) {
		return domain.Task{ID: taskID, Status: domain.TaskNotFound, Errors: []string{}}, nil
	}
	return t, err
}

// CancelMedia stops a running job. The job keeps the assets it already wrote.
func (e Engine) CancelMedia(ctx context.Context, taskID, actorID string) error {
	if err := required(taskID); err != nil {
		return err
	}
	e.Jobs.mu.Lock()
	r, ok := e.Jobs.running[taskID]
	var project string
	if ok {
		project = r.task.Project
		if r.task.Terminal() {
			e.Jobs.mu.Unlock()
			return failf("任务已结束")
		}
		r.task.Status = domain.TaskCancelled
		r.cancel()
	}
	e.Jobs.mu.Unlock()
	if !ok {
		t, err := e.Repo.GetTask(ctx, taskID)
		switch {
		case errors.Is(err, repo.ErrNotFound):
			return failf("任务不存在")
		case err != nil:
			return err
		case t.Terminal():
			return failf("任务已结束")
		}
		// left running by a previous process
		project = t.Project
		t.Status = domain.TaskCancelled
		t.UpdatedAt = e.stamp()
		if err := e.Repo.UpdateTask(ctx, t); err != nil {
			return err
		}
	}
	return e.Events.Append(ctx, nil, "media.cancel", project, "task", taskID, actorID, nil)
}

// Wait blocks until the job finishes or ctx ends.
func (j *Jobs) Wait(ctx context.Context, taskID string) error {
	j.mu.Lock()
	r, ok := j.running[taskID]
	j.mu.Unlock()
	if !ok {
		return nil
	}
	select {
	case <-r.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// ActiveFor reports whether project has a running media job.
func (j *Jobs) ActiveFor(project string) bool {
	j.mu.Lock()
	defer j.mu.Unlock()
	for _, r := range j.running {
		if r.task.Project == project {
			return true
		}
	}
	return false
}

// CancelProject cancels every job of project and waits for them to stop.
func (j *Jobs) CancelProject(project string) {
	j.stop(func(t domain.Task) bool { return t.Project == project })
}

// Shutdown cancels all jobs and waits for them to stop.
func (j *Jobs) Shutdown() {
	j.stop(func(domain.Task) bool { return true })
}

func (j *Jobs) stop(match func(domain.Task) bool) {
	j.mu.Lock()
	var pending []chan struct{}
	for _, r := range j.running {
		if match(r.task) {
			r.task.Status = domain.TaskCancelled
			r.cancel()
			pending = append(pending, r.done)
		}
	}
	j.mu.Unlock()
	for _, done := range pending {
		<-done
	}
}

// Workflows lists the configured image workflows.
func (e Engine) Workflows() []config.Workflow {
	if e.Config == nil {
		return []config.Workflow{}
	}
	return append([]config.Workflow{}, e.Config.Media.Workflows...)
}

func (e Engine) Workflow(name string) (config.Workflow, error) {
	for _, wf := range e.Workflows() {
		if wf.Name == name {
			return wf, nil
		}
	}
	return config.Workflow{}, failf("工作流 %s 不存在", name)
}

// Asset returns a stored image or audio clip.
func (e Engine) Asset(ctx context.Context, project, chapter string, spanID int, kind string) (domain.Asset, error) {
	if err := required(project, chapter); err != nil {
		return domain.Asset{}, err
	}
	a, err := e.Repo.GetAsset(ctx, project, chapter, spanID, kind)
	if errors.Is(err, repo.ErrNotFound) {
		if kind == domain.AssetImage {
			return a, failf("图片不存在")
		}
		return a, failf("音频不存在")
	}
	return a, err
}
