package engine

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"novelreel/internal/domain"
	"novelreel/internal/events"
	"novelreel/internal/repo"
)

// DefaultChapterPattern matches chapter headings such as "第十二章 归来".
const DefaultChapterPattern = `第[零一二三四五六七八九十百千万\d]+章.*?\n`

const (
	spanSentences = 3
	spanMaxRunes  = 120
	sceneRunes    = 24
)

type ChapterCreated struct {
	Chapter string `json:"chapter"`
}

type SplitSpan struct {
	Content   string `json:"content"`
	BaseScene string `json:"base_scene"`
	Scene     string `json:"scene"`
	Prompt    string `json:"prompt"`
}

type ChapterScene struct {
	ID        string `json:"id"`
	Content   string `json:"content"`
	BaseScene string `json:"base_scene"`
	Scene     string `json:"scene"`
	Prompt    string `json:"prompt"`
}

// SceneEdit updates one span; nil fields are left alone.
type SceneEdit struct {
	ID        string  `json:"id,omitempty"`
	Span      *string `json:"span,omitempty"`
	BaseScene *string `json:"base_scene,omitempty"`
	Scene     *string `json:"scene,omitempty"`
	Prompt    *string `json:"prompt,omitempty"`
}

type GenerateRequest struct {
	ProjectName    string `json:"project_name,omitempty"`
	ChapterName    string `json:"chapter_name,omitempty"`
	Prompt         string `json:"prompt,omitempty"`
	IsContinuation bool   `json:"is_continuation,omitempty"`
	UseLastChapter bool   `json:"use_last_chapter,omitempty"`
}

type ImportResult struct {
	Chapters      []string `json:"chapters"`
	TotalChapters int      `json:"total_chapters"`
}

func chapterName(seq int) string {
	return "chapter" + strconv.Itoa(seq)
}

// chapterSeq parses the number out of a chapterN name.
func chapterSeq(name string) (int, bool) {
	n, err := strconv.Atoi(strings.TrimPrefix(name, "chapter"))
	if err != nil || !strings.HasPrefix(name, "chapter") {
		return 0, false
	}
	return n, true
}

func (e Engine) CreateChapter(ctx context.Context, project, actorID string) (ChapterCreated, error) {
	if _, err := e.requireProject(ctx, project); err != nil {
		return ChapterCreated{}, err
	}
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return ChapterCreated{}, err
	}
	defer tx.Rollback()
	seq, err := e.Repo.MaxChapterSeq(ctx, tx, project)
	if err != nil {
		return ChapterCreated{}, err
	}
	name := chapterName(seq + 1)
	if err := e.Repo.InsertChapter(ctx, tx, domain.Chapter{Project: project, Name: name, Seq: seq + 1, UpdatedAt: e.stamp()}); err != nil {
		return ChapterCreated{}, err
	}
	if err := e.Events.Append(ctx, tx, "chapter.create", project, "chapter", name, actorID, nil); err != nil {
		return ChapterCreated{}, err
	}
	if err := tx.Commit(); err != nil {
		return ChapterCreated{}, err
	}
	return ChapterCreated{Chapter: name}, nil
}

func (e Engine) ListChapters(ctx context.Context, project string) ([]string, error) {
	if _, err := e.requireProject(ctx, project); err != nil {
		return nil, err
	}
	chapters, err := e.Repo.ListChapters(ctx, project)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(chapters))
	for _, c := range chapters {
		names = append(names, c.Name)
	}
	return names, nil
}

// ChapterContent returns the chapter text; a chapter never written reads as "".
func (e Engine) ChapterContent(ctx context.Context, project, chapter string) (string, error) {
	if err := required(project, chapter); err != nil {
		return "", err
	}
	if _, err := e.requireProject(ctx, project); err != nil {
		return "", err
	}
	c, err := e.Repo.GetChapter(ctx, project, chapter)
	if errors.Is(err, repo.ErrNotFound) {
		return "", nil
	}
	return c.Content, err
}

// SaveChapter overwrites a chapter's text, creating the chapter when needed.
func (e Engine) SaveChapter(ctx context.Context, project, chapter, content, actorID string) error {
	if err := required(project, chapter, content); err != nil {
		return err
	}
	if err := validName("章节", chapter); err != nil {
		return err
	}
	if _, err := e.requireProject(ctx, project); err != nil {
		return err
	}
	err := e.Repo.SaveChapterContent(ctx, project, chapter, content, e.stamp())
	if errors.Is(err, repo.ErrNotFound) {
		err = e.insertChapter(ctx, project, chapter, content)
	}
	if err != nil {
		return err
	}
	return e.Events.Append(ctx, nil, "chapter.save", project, "chapter", chapter, actorID, events.Payload{"runes": utf8.RuneCountInString(content)})
}

func (e Engine) insertChapter(ctx context.Context, project, chapter, content string) error {
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	seq, err := e.Repo.MaxChapterSeq(ctx, tx, project)
	if err != nil {
		return err
	}
	if n, ok := chapterSeq(chapter); ok && n > seq {
		seq = n - 1
	}
	if err := e.Repo.InsertChapter(ctx, tx, domain.Chapter{Project: project, Name: chapter, Seq: seq + 1, Content: content, UpdatedAt: e.stamp()}); err != nil {
		return err
	}
	return tx.Commit()
}

// GenerateText writes chapter text in chunks through emit. Nothing is
// persisted; the caller saves the result. Cancelling ctx stops generation.
func (e Engine) GenerateText(ctx context.Context, req GenerateRequest, emit func(string) error) error {
	if err := required(req.ProjectName, req.ChapterName, req.Prompt); err != nil {
		return err
	}
	if _, err := e.requireProject(ctx, req.ProjectName); err != nil {
		return err
	}
	current, err := e.Repo.GetChapter(ctx, req.ProjectName, req.ChapterName)
	if errors.Is(err, repo.ErrNotFound) {
		return failf("章节不存在")
	}
	if err != nil {
		return err
	}
	var previous string
	if req.UseLastChapter {
		if n, ok := chapterSeq(req.ChapterName); ok && n > 1 {
			prev, err := e.Repo.GetChapter(ctx, req.ProjectName, chapterName(n-1))
			if err != nil && !errors.Is(err, repo.ErrNotFound) {
				return err
			}
			previous = prev.Content
		}
	}
	if req.IsContinuation {
		previous = current.Content
	}
	e.logger().Info("generating chapter text", "project", req.ProjectName, "chapter", req.ChapterName, "context_runes", utf8.RuneCountInString(previous))
	for _, chunk := range composeDraft(req.Prompt, previous) {
		if err := sleepCtx(ctx, e.stepDelay()/4); err != nil {
			return err
		}
		if err := emit(chunk); err != nil {
			return err
		}
	}
	return nil
}

// composeDraft builds a deterministic draft from the prompt and the
// preceding text, as a list of sentence-sized chunks.
func composeDraft(prompt, previous string) []string {
	var out []string
	if tail := lastSentence(previous); tail != "" {
		out = append(out, "承接上文「"+tail+"」，")
	}
	out = append(out, splitSentences(prompt)...)
	out = append(out, "\n\n夜色渐深，故事仍在继续。")
	return out
}

func lastSentence(text string) string {
	sentences := splitSentences(text)
	if len(sentences) == 0 {
		return ""
	}
	return truncateRunes(strings.TrimSpace(sentences[len(sentences)-1]), sceneRunes)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

var sentenceEnd = regexp.MustCompile(`[^。！？!?]*[。！？!?]+[”"』」]?|[^。！？!?]+$`)

// splitSentences cuts text after Chinese and ASCII sentence terminators.
func splitSentences(text string) []string {
	var out []string
	for _, line := range strings.Split(text, "\n") {
		for _, s := range sentenceEnd.FindAllString(line, -1) {
			if s = strings.TrimSpace(s); s != "" {
				out = append(out, s)
			}
		}
	}
	return out
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}

// SplitText segments a chapter into spans, derives a scene and prompt for
// each, and replaces the chapter's stored spans.
func (e Engine) SplitText(ctx context.Context, project, chapter, actorID string) ([]SplitSpan, error) {
	if err := required(project, chapter); err != nil {
		return nil, err
	}
	c, err := e.Repo.GetChapter(ctx, project, chapter)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, failf("章节不存在")
	}
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(c.Content) == "" {
		return nil, failf("章节内容为空")
	}
	characters, err := e.Repo.ListCharacters(ctx, project)
	if err != nil {
		return nil, err
	}
	groups := groupSentences(splitSentences(c.Content))
	result := make([]SplitSpan, 0, len(groups))
	spans := make([]domain.Span, 0, len(groups))
	for i, content := range groups {
		base := truncateRunes(content, sceneRunes)
		scene := describeScene(base, mentioned(content, characters))
		s := SplitSpan{Content: content, BaseScene: base, Scene: scene, Prompt: translatePrompt(scene)}
		result = append(result, s)
		spans = append(spans, domain.Span{ID: i + 1, Content: s.Content, BaseScene: s.BaseScene, Scene: s.Scene, Prompt: s.Prompt})
	}

	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()
	if err := e.Repo.ReplaceSpans(ctx, tx, project, chapter, spans); err != nil {
		return nil, err
	}
	if err := e.Events.Append(ctx, tx, "chapter.split", project, "chapter", chapter, actorID, events.Payload{"spans": len(spans)}); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return result, nil
}

// groupSentences packs consecutive sentences into spans of at most
// spanSentences sentences or spanMaxRunes runes.
func groupSentences(sentences []string) []string {
	var (
		out   []string
		cur   []string
		runes int
	)
	flush := func() {
		if len(cur) > 0 {
			out = append(out, strings.Join(cur, ""))
			cur, runes = nil, 0
		}
	}
	for _, s := range sentences {
		n := utf8.RuneCountInString(s)
		if len(cur) > 0 && (len(cur) == spanSentences || runes+n > spanMaxRunes) {
			flush()
		}
		cur = append(cur, s)
		runes += n
	}
	flush()
	return out
}

func describeScene(base string, names []string) string {
	if len(names) == 0 {
		return base
	}
	return strings.Join(names, "、") + "：" + base
}

var promptGlossary = strings.NewReplacer(
	"夜晚", "night", "夜", "night", "雨", "rain", "雪", "snow", "山", "mountain",
	"河", "river", "城", "city", "森林", "forest", "房间", "room", "街道", "street",
	"少年", "young man", "少女", "young woman", "老人", "old man", "剑", "sword",
	"月亮", "moon", "月", "moon", "太阳", "sun", "海", "sea", "火", "fire",
)

const promptPrefix = "masterpiece, best quality, illustration, "

func translatePrompt(scene string) string {
	scene = strings.TrimSpace(scene)
	if scene == "" {
		return ""
	}
	return promptPrefix + promptGlossary.Replace(scene)
}

func (e Engine) SceneList(ctx context.Context, project, chapter string) ([]ChapterScene, error) {
	if err := required(project, chapter); err != nil {
		return nil, err
	}
	if _, err := e.Repo.GetChapter(ctx, project, chapter); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, failf("章节不存在")
		}
		return nil, err
	}
	spans, err := e.Repo.ListSpans(ctx, project, chapter)
	if err != nil {
		return nil, err
	}
	out := make([]ChapterScene, 0, len(spans))
	for _, s := range spans {
		out = append(out, ChapterScene{
			ID:        strconv.Itoa(s.ID),
			Content:   s.Content,
			BaseScene: s.BaseScene,
			Scene:     s.Scene,
			Prompt:    s.Prompt,
		})
	}
	return out, nil
}

// SaveScenes applies span edits. Edits without an id are skipped; an edit
// for a span that does not exist yet inserts it.
func (e Engine) SaveScenes(ctx context.Context, project, chapter string, edits []SceneEdit, actorID string) error {
	if err := required(project, chapter); err != nil {
		return err
	}
	if len(edits) == 0 {
		return failf("缺少必要参数")
	}
	if _, err := e.Repo.GetChapter(ctx, project, chapter); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return failf("章节不存在")
		}
		return err
	}
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	saved := 0
	for _, edit := range edits {
		if strings.TrimSpace(edit.ID) == "" {
			continue
		}
		id, err := strconv.Atoi(edit.ID)
		if err != nil || id < 1 {
			return failf("无效的片段编号 %s", edit.ID)
		}
		u := repo.SpanUpdate{ID: id, Content: edit.Span, BaseScene: edit.BaseScene, Scene: edit.Scene, Prompt: edit.Prompt}
		err = e.Repo.UpdateSpan(ctx, tx, project, chapter, u)
		if errors.Is(err, repo.ErrNotFound) {
			err = e.Repo.InsertSpan(ctx, tx, project, chapter, domain.Span{
				ID:        id,
				Content:   deref(edit.Span),
				BaseScene: deref(edit.BaseScene),
				Scene:     deref(edit.Scene),
				Prompt:    deref(edit.Prompt),
			})
		}
		if err != nil {
			return err
		}
		saved++
	}
	if err := e.Events.Append(ctx, tx, "chapter.save_scenes", project, "chapter", chapter, actorID, events.Payload{"spans": saved}); err != nil {
		return err
	}
	return tx.Commit()
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// TranslatePrompts turns scene descriptions into image prompts, one for one.
func (e Engine) TranslatePrompts(ctx context.Context, project string, prompts []string) ([]string, error) {
	if _, err := e.requireProject(ctx, project); err != nil {
		return nil, err
	}
	if len(prompts) == 0 {
		return nil, failf("缺少必要参数")
	}
	out := make([]string, len(prompts))
	for i, p := range prompts {
		out[i] = translatePrompt(p)
	}
	return out, nil
}

var speakerPattern = regexp.MustCompile(`(\p{Han}{2,3}?)(?:说|道|问|笑|喊)`)

// ExtractCharacters finds speakers in a chapter and records the new ones.
// Locked characters are returned as stored.
func (e Engine) ExtractCharacters(ctx context.Context, project, chapter, actorID string) ([]domain.Character, error) {
	if err := required(project, chapter); err != nil {
		return nil, err
	}
	c, err := e.Repo.GetChapter(ctx, project, chapter)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, failf("章节不存在")
	}
	if err != nil {
		return nil, err
	}
	known, err := e.Repo.ListCharacters(ctx, project)
	if err != nil {
		return nil, err
	}
	byName := map[string]domain.Character{}
	for _, k := range known {
		byName[k.Name] = k
	}
	found := map[string]bool{}
	for _, m := range speakerPattern.FindAllStringSubmatch(c.Content, -1) {
		found[m[1]] = true
	}
	for _, k := range known {
		if strings.Contains(c.Content, k.Name) {
			found[k.Name] = true
		}
	}
	names := make([]string, 0, len(found))
	for n := range found {
		names = append(names, n)
	}
	sort.Strings(names)

	out := make([]domain.Character, 0, len(names))
	for _, name := range names {
		if existing, ok := byName[name]; ok {
			out = append(out, existing)
			continue
		}
		ch := domain.Character{Name: name, Attributes: map[string]any{
			"role":        "",
			"description": fmt.Sprintf("首次出现于%s", chapter),
		}}
		if err := e.Repo.UpsertCharacter(ctx, project, ch); err != nil {
			return nil, err
		}
		out = append(out, ch)
	}
	if err := e.Events.Append(ctx, nil, "chapter.extract_characters", project, "chapter", chapter, actorID, events.Payload{"found": len(out)}); err != nil {
		return nil, err
	}
	return out, nil
}

// ImportNovel splits a UTF-8 novel on chapter headings and appends the
// chapters to the project, creating the project when it does not exist.
// Non-blank text before the first heading becomes a chapter of its own.
func (e Engine) ImportNovel(ctx context.Context, project string, data []byte, pattern, actorID string) (ImportResult, error) {
	project = strings.TrimSpace(project)
	if err := validName("项目", project); err != nil {
		return ImportResult{}, err
	}
	if len(data) == 0 {
		return ImportResult{}, failf("文件内容为空")
	}
	if !utf8.Valid(data) {
		return ImportResult{}, failf("文件编码必须为UTF-8")
	}
	if pattern == "" {
		pattern = DefaultChapterPattern
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return ImportResult{}, failf("章节匹配规则无效: %v", err)
	}
	parts := splitNovel(strings.ReplaceAll(string(data), "\r\n", "\n"), re)
	if len(parts) == 0 {
		return ImportResult{}, failf("未识别到章节内容")
	}

	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return ImportResult{}, err
	}
	defer tx.Rollback()
	now := e.stamp()
	if err := e.Repo.InsertProject(ctx, tx, domain.Project{Name: project, CreatedAt: now}); err != nil && !errors.Is(err, repo.ErrExists) {
		return ImportResult{}, err
	}
	seq, err := e.Repo.MaxChapterSeq(ctx, tx, project)
	if err != nil {
		return ImportResult{}, err
	}
	res := ImportResult{Chapters: make([]string, 0, len(parts))}
	for _, content := range parts {
		seq++
		name := chapterName(seq)
		if err := e.Repo.InsertChapter(ctx, tx, domain.Chapter{Project: project, Name: name, Seq: seq, Content: content, UpdatedAt: now}); err != nil {
			return ImportResult{}, err
		}
		res.Chapters = append(res.Chapters, name)
	}
	res.TotalChapters = len(res.Chapters)
	if err := e.Events.Append(ctx, tx, "chapter.import", project, "project", project, actorID, events.Payload{"chapters": res.TotalChapters}); err != nil {
		return ImportResult{}, err
	}
	if err := tx.Commit(); err != nil {
		return ImportResult{}, err
	}
	e.logger().Info("novel imported", "project", project, "chapters", res.TotalChapters)
	return res, nil
}

// splitNovel keeps each heading with the body that follows it.
func splitNovel(text string, heading *regexp.Regexp) []string {
	if !strings.HasSuffix(text, "\n") {
		text += "\n"
	}
	var parts []string
	add := func(s string) {
		if s = strings.TrimSpace(s); s != "" {
			parts = append(parts, s)
		}
	}
	locs := heading.FindAllStringIndex(text, -1)
	if len(locs) == 0 {
		add(text)
		return parts
	}
	add(text[:locs[0][0]])
	for i, loc := range locs {
		end := len(text)
		if i+1 < len(locs) {
			end = locs[i+1][0]
		}
		add(text[loc[0]:end])
	}
	return parts
}
