package engine

import (
	"context"
	"errors"
	"fmt"
	"path"
	"sync"

	"novelreel/internal/domain"
	"novelreel/internal/events"
	"novelreel/internal/repo"
)

// VideoSettings are the rendering options of one video. Unset options fall
// back to the configured defaults.
type VideoSettings struct {
	ProjectName  string      `json:"project_name,omitempty"`
	ChapterName  string      `json:"chapter_name,omitempty"`
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

// VideoJob is the single video render a server runs at a time.
type VideoJob struct {
	mu        sync.Mutex
	project   string
	cancel    context.CancelFunc
	cancelled bool
	progress  int
	total     int
	current   *string
}

type renderPlan struct {
	fps          int
	fade         float64
	fontName     string
	fontSize     int
	resolution   [2]int
	segments     []domain.Span
	usePan       bool
	zoomFactor   float64
	panIntensity int
}

func (e Engine) videoPlan(s VideoSettings, spans []domain.Span) (renderPlan, error) {
	p := renderPlan{segments: spans, zoomFactor: 1}
	if e.Config != nil {
		p.fps = e.Config.Video.FPS
		p.fade = e.Config.Video.FadeDuration
		p.fontName = e.Config.Video.FontName
		p.fontSize = e.Config.Video.FontSize
		p.resolution = e.Config.Video.Resolution
	}
	if s.FPS != nil {
		p.fps = *s.FPS
	}
	if s.FadeDuration != nil {
		p.fade = *s.FadeDuration
	}
	if s.FontName != nil {
		p.fontName = *s.FontName
	}
	if s.FontSize != nil {
		p.fontSize = *s.FontSize
	}
	if s.Resolution != nil {
		p.resolution = *s.Resolution
	}
	if s.UsePan != nil {
		p.usePan = *s.UsePan
	}
	if s.ZoomFactor != nil {
		p.zoomFactor = *s.ZoomFactor
	}
	if s.PanIntensity != nil {
		p.panIntensity = *s.PanIntensity
	}
	switch {
	case p.fps <= 0 || p.fps > 120:
		return p, failf("帧率必须在 1 到 120 之间")
	case p.fade < 0:
		return p, failf("淡入淡出时长不能为负数")
	case p.resolution[0] <= 0 || p.resolution[1] <= 0:
		return p, failf("分辨率无效")
	case s.PanRange != nil && s.PanRange[0] > s.PanRange[1]:
		return p, failf("平移范围无效")
	}
	return p, nil
}

// GenerateVideo renders a chapter video from the spans that have images.
// It blocks until the render finishes; CancelVideo aborts it.
func (e Engine) GenerateVideo(ctx context.Context, s VideoSettings, actorID string) (VideoResult, error) {
	if err := required(s.ProjectName, s.ChapterName); err != nil {
		return VideoResult{}, err
	}
	if _, err := e.Repo.GetChapter(ctx, s.ProjectName, s.ChapterName); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return VideoResult{}, failf("章节不存在")
		}
		return VideoResult{}, err
	}
	spans, err := e.Repo.ListSpans(ctx, s.ProjectName, s.ChapterName)
	if err != nil {
		return VideoResult{}, err
	}
	images, err := e.Repo.AssetSpans(ctx, s.ProjectName, s.ChapterName, domain.AssetImage)
	if err != nil {
		return VideoResult{}, err
	}
	var segments []domain.Span
	for _, sp := range spans {
		if images[sp.ID] {
			segments = append(segments, sp)
		}
	}
	if len(segments) == 0 {
		return VideoResult{}, failf("没有可用的图片，请先生成图片")
	}
	plan, err := e.videoPlan(s, segments)
	if err != nil {
		return VideoResult{}, err
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	if !e.Video.begin(s.ProjectName, len(segments), cancel) {
		return VideoResult{}, failf("已有视频正在生成")
	}
	defer e.Video.end()
	e.logger().Info("video render started", "project", s.ProjectName, "chapter", s.ChapterName, "segments", len(segments), "fps", plan.fps)

	for i, seg := range plan.segments {
		e.Video.step(i, fmt.Sprintf("渲染片段 %d/%d", i+1, len(plan.segments)))
		if err := sleepCtx(runCtx, e.stepDelay()); err != nil {
			if e.Video.wasCancelled() {
				return VideoResult{}, failf("视频生成已取消")
			}
			return VideoResult{}, err
		}
		e.logger().Debug("video segment rendered", "span_id", seg.ID)
	}
	e.Video.step(len(plan.segments), "合成视频")

	desc := fmt.Sprintf("%s/%s fps=%d fade=%.2f font=%s:%d res=%dx%d pan=%t zoom=%.2f segments=%d",
		s.ProjectName, s.ChapterName, plan.fps, plan.fade, plan.fontName, plan.fontSize,
		plan.resolution[0], plan.resolution[1], plan.usePan, plan.zoomFactor, len(plan.segments))
	asset := domain.Asset{
		Project:     s.ProjectName,
		Chapter:     s.ChapterName,
		SpanID:      domain.VideoSpan,
		Kind:        domain.AssetVideo,
		ContentType: ContentTypeMP4,
		Data:        placeholderVideo(desc),
		CreatedAt:   e.stamp(),
	}
	if err := e.Repo.PutAsset(ctx, asset); err != nil {
		return VideoResult{}, err
	}
	if err := e.Events.Append(ctx, nil, "video.generate", s.ProjectName, "chapter", s.ChapterName, actorID, events.Payload{"segments": len(plan.segments)}); err != nil {
		return VideoResult{}, err
	}
	return VideoResult{VideoPath: path.Join("projects", s.ProjectName, s.ChapterName, "video.mp4")}, nil
}

// VideoAsset returns the rendered video of a chapter or repo.ErrNotFound.
func (e Engine) VideoAsset(ctx context.Context, project, chapter string) (domain.Asset, error) {
	if err := required(project, chapter); err != nil {
		return domain.Asset{}, err
	}
	return e.Repo.GetAsset(ctx, project, chapter, domain.VideoSpan, domain.AssetVideo)
}

func (e Engine) VideoProgress() VideoProgress {
	return e.Video.snapshot()
}

// CancelVideo aborts the running render, if any.
func (e Engine) CancelVideo(ctx context.Context, actorID string) error {
	if project, ok := e.Video.abort(); ok {
		return e.Events.Append(ctx, nil, "video.cancel", project, "video", "", actorID, nil)
	}
	return nil
}

func (v *VideoJob) begin(project string, total int, cancel context.CancelFunc) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.cancel != nil {
		return false
	}
	v.project, v.cancel, v.cancelled = project, cancel, false
	v.progress, v.total, v.current = 0, total, nil
	return true
}

func (v *VideoJob) step(done int, task string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.progress = done
	v.current = &task
}

func (v *VideoJob) end() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.project, v.cancel, v.current = "", nil, nil
}

func (v *VideoJob) wasCancelled() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.cancelled
}

func (v *VideoJob) abort() (string, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.cancel == nil {
		return "", false
	}
	v.cancelled = true
	v.cancel()
	return v.project, true
}

func (v *VideoJob) snapshot() VideoProgress {
	v.mu.Lock()
	defer v.mu.Unlock()
	total := max(v.total, 1)
	return VideoProgress{
		Progress:    v.progress,
		Total:       total,
		Percentage:  v.progress * 100 / total,
		CurrentTask: v.current,
	}
}

// ActiveFor reports whether a render of project is running.
func (v *VideoJob) ActiveFor(project string) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.cancel != nil && v.project == project
}

// CancelProject aborts the running render when it belongs to project.
func (v *VideoJob) CancelProject(project string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.cancel != nil && v.project == project {
		v.cancelled = true
		v.cancel()
	}
}
