package engine_test

import (
	"bytes"
	"context"
	"errors"
	"image/png"
	"strings"
	"testing"
	"time"

	"novelreel/internal/config"
	"novelreel/internal/db"
	"novelreel/internal/domain"
	"novelreel/internal/engine"
	"novelreel/internal/migrate"
	"novelreel/internal/repo"
)

type testEnv struct {
	Engine engine.Engine
	Ctx    context.Context
}

func newTestEnv(t *testing.T) testEnv {
	t.Helper()
	dir := t.TempDir()
	conn, err := db.Open(db.Config{Workspace: dir})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	ctx := context.Background()
	if err := migrate.Migrate(ctx, conn); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	cfg := config.Default()
	cfg.Media.StepDelayMS = 0
	eng := engine.New(conn, cfg)
	eng.Now = func() time.Time { return time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC) }
	t.Cleanup(eng.Jobs.Shutdown)
	if _, err := eng.CreateProject(ctx, "demo", "tester"); err != nil {
		t.Fatalf("create project: %v", err)
	}
	return testEnv{Engine: eng, Ctx: ctx}
}

func rejection(t *testing.T, err error, want string) {
	t.Helper()
	var be *engine.Error
	if !errors.As(err, &be) {
		t.Fatalf("expected business error %q, got %v", want, err)
	}
	if want != "" && be.Msg != want {
		t.Fatalf("expected %q, got %q", want, be.Msg)
	}
}

const sampleChapter = "李明说：今晚的月亮真圆。王芳笑道：我们去河边走走吧！两人沿着河慢慢走。夜风很凉。远处传来钟声。李明问：你听见了吗？"

func TestProjectLifecycle(t *testing.T) {
	env := newTestEnv(t)
	e := env.Engine

	if _, err := e.CreateProject(env.Ctx, "demo", "tester"); err == nil {
		t.Fatalf("expected duplicate project error")
	} else {
		rejection(t, err, "项目已存在")
	}
	chapters, err := e.ListChapters(env.Ctx, "demo")
	if err != nil || len(chapters) != 1 || chapters[0] != "chapter1" {
		t.Fatalf("seeded chapters: %v %v", chapters, err)
	}
	if _, err := e.CreateProject(env.Ctx, "other", "tester"); err != nil {
		t.Fatal(err)
	}
	_, err = e.RenameProject(env.Ctx, "demo", "other", "tester")
	rejection(t, err, "新项目名称已存在")
	_, err = e.RenameProject(env.Ctx, "missing", "x", "tester")
	rejection(t, err, "项目不存在")

	if err := e.SaveChapter(env.Ctx, "demo", "chapter1", "第一段。", "tester"); err != nil {
		t.Fatal(err)
	}
	renamed, err := e.RenameProject(env.Ctx, "demo", "renamed", "tester")
	if err != nil || renamed.ProjectName != "renamed" {
		t.Fatalf("rename: %+v %v", renamed, err)
	}
	content, err := e.ChapterContent(env.Ctx, "renamed", "chapter1")
	if err != nil || content != "第一段。" {
		t.Fatalf("content after rename: %q %v", content, err)
	}
	evs, err := e.ProjectEvents(env.Ctx, "renamed", 10, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(evs) < 3 || evs[0].Type != "project.rename" {
		t.Fatalf("expected rename event first, got %+v", evs)
	}

	if err := e.DeleteProject(env.Ctx, "renamed", "tester"); err != nil {
		t.Fatal(err)
	}
	rejection(t, e.DeleteProject(env.Ctx, "renamed", "tester"), "项目不存在")
	names, _ := e.ListProjects(env.Ctx)
	if len(names) != 1 || names[0] != "other" {
		t.Fatalf("projects after delete: %v", names)
	}
}

func TestProjectNameValidation(t *testing.T) {
	env := newTestEnv(t)
	for _, name := range []string{"", "  ", "a/b", "..", strings.Repeat("长", 101)} {
		if _, err := env.Engine.CreateProject(env.Ctx, name, "tester"); err == nil {
			t.Fatalf("expected %q to be rejected", name)
		}
	}
}

func TestChapterContentAndSave(t *testing.T) {
	env := newTestEnv(t)
	e := env.Engine

	content, err := e.ChapterContent(env.Ctx, "demo", "chapter9")
	if err != nil || content != "" {
		t.Fatalf("missing chapter should read empty: %q %v", content, err)
	}
	rejection(t, e.SaveChapter(env.Ctx, "demo", "chapter1", "", "tester"), "缺少必要参数")
	rejection(t, e.SaveChapter(env.Ctx, "nope", "chapter1", "x", "tester"), "项目不存在")

	if err := e.SaveChapter(env.Ctx, "demo", "chapter3", "新章节。", "tester"); err != nil {
		t.Fatalf("save creates chapter: %v", err)
	}
	created, err := e.CreateChapter(env.Ctx, "demo", "tester")
	if err != nil || created.Chapter != "chapter4" {
		t.Fatalf("create after chapter3: %+v %v", created, err)
	}
	chapters, _ := e.ListChapters(env.Ctx, "demo")
	if strings.Join(chapters, ",") != "chapter1,chapter3,chapter4" {
		t.Fatalf("chapter order: %v", chapters)
	}
}

func TestGenerateTextStreamsChunks(t *testing.T) {
	env := newTestEnv(t)
	e := env.Engine
	if err := e.SaveChapter(env.Ctx, "demo", "chapter1", "上一章的结尾。", "tester"); err != nil {
		t.Fatal(err)
	}
	if _, err := e.CreateChapter(env.Ctx, "demo", "tester"); err != nil {
		t.Fatal(err)
	}
	var chunks []string
	err := e.GenerateText(env.Ctx, engine.GenerateRequest{
		ProjectName:    "demo",
		ChapterName:    "chapter2",
		Prompt:         "主角出发。遇到风暴！",
		UseLastChapter: true,
	}, func(s string) error {
		chunks = append(chunks, s)
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	text := strings.Join(chunks, "")
	if !strings.Contains(text, "上一章的结尾") || !strings.Contains(text, "主角出发。") || !strings.Contains(text, "遇到风暴！") {
		t.Fatalf("unexpected draft: %q", text)
	}
	if len(chunks) < 3 {
		t.Fatalf("expected several chunks, got %d", len(chunks))
	}
	stored, _ := e.ChapterContent(env.Ctx, "demo", "chapter2")
	if stored != "" {
		t.Fatalf("generation must not persist, got %q", stored)
	}

	err = e.GenerateText(env.Ctx, engine.GenerateRequest{ProjectName: "demo", ChapterName: "chapter7", Prompt: "x"}, func(string) error { return nil })
	rejection(t, err, "章节不存在")
	err = e.GenerateText(env.Ctx, engine.GenerateRequest{ProjectName: "demo", ChapterName: "chapter1"}, func(string) error { return nil })
	rejection(t, err, "缺少必要参数")

	stop := errors.New("stop")
	err = e.GenerateText(env.Ctx, engine.GenerateRequest{ProjectName: "demo", ChapterName: "chapter1", Prompt: "一。二。"}, func(string) error { return stop })
	if !errors.Is(err, stop) {
		t.Fatalf("emit error should stop generation, got %v", err)
	}
}

func TestSplitTextAndScenes(t *testing.T) {
	env := newTestEnv(t)
	e := env.Engine
	if _, err := e.SplitText(env.Ctx, "demo", "chapter1", "tester"); err == nil {
		t.Fatalf("expected empty chapter error")
	}
	if err := e.SaveChapter(env.Ctx, "demo", "chapter1", sampleChapter, "tester"); err != nil {
		t.Fatal(err)
	}
	if _, err := e.CreateCharacter(env.Ctx, "demo", "李明", nil, "tester"); err != nil {
		t.Fatal(err)
	}
	spans, err := e.SplitText(env.Ctx, "demo", "chapter1", "tester")
	if err != nil {
		t.Fatal(err)
	}
	if len(spans) != 2 {
		t.Fatalf("expected 2 spans, got %d: %+v", len(spans), spans)
	}
	if !strings.HasPrefix(spans[0].Scene, "李明：") {
		t.Fatalf("scene should name the character: %q", spans[0].Scene)
	}
	if !strings.HasPrefix(spans[0].Prompt, "masterpiece") || !strings.Contains(spans[0].Prompt, "moon") {
		t.Fatalf("prompt not derived: %q", spans[0].Prompt)
	}
	if strings.Join([]string{spans[0].Content, spans[1].Content}, "") != sampleChapter {
		t.Fatalf("spans must cover the chapter")
	}

	scenes, err := e.SceneList(env.Ctx, "demo", "chapter1")
	if err != nil || len(scenes) != 2 || scenes[0].ID != "1" || scenes[1].ID != "2" {
		t.Fatalf("scene list: %+v %v", scenes, err)
	}

	prompt := "custom prompt"
	span := "新增片段。"
	err = e.SaveScenes(env.Ctx, "demo", "chapter1", []engine.SceneEdit{
		{ID: "1", Prompt: &prompt},
		{ID: "", Prompt: &prompt},
		{ID: "3", Span: &span},
	}, "tester")
	if err != nil {
		t.Fatal(err)
	}
	scenes, _ = e.SceneList(env.Ctx, "demo", "chapter1")
	if len(scenes) != 3 {
		t.Fatalf("expected inserted span, got %+v", scenes)
	}
	if scenes[0].Prompt != prompt || scenes[0].Content != spans[0].Content {
		t.Fatalf("partial update clobbered fields: %+v", scenes[0])
	}
	if scenes[2].Content != span {
		t.Fatalf("inserted span: %+v", scenes[2])
	}
	err = e.SaveScenes(env.Ctx, "demo", "chapter1", []engine.SceneEdit{{ID: "x", Prompt: &prompt}}, "tester")
	rejection(t, err, "")
}

func TestTranslatePrompts(t *testing.T) {
	env := newTestEnv(t)
	out, err := env.Engine.TranslatePrompts(env.Ctx, "demo", []string{"雨夜的街道", ""})
	if err != nil {
		t.Fatal(err)
	}
	if len(out) != 2 || out[0] != "masterpiece, best quality, illustration, rainnight的street" || out[1] != "" {
		t.Fatalf("unexpected prompts: %q", out)
	}
}

func TestExtractCharactersKeepsLocked(t *testing.T) {
	env := newTestEnv(t)
	e := env.Engine
	if err := e.SaveChapter(env.Ctx, "demo", "chapter1", sampleChapter, "tester"); err != nil {
		t.Fatal(err)
	}
	if _, err := e.CreateCharacter(env.Ctx, "demo", "王芳", map[string]any{"role": "主角"}, "tester"); err != nil {
		t.Fatal(err)
	}
	if _, err := e.ToggleCharacterLock(env.Ctx, "demo", "王芳", "tester"); err != nil {
		t.Fatal(err)
	}
	found, err := e.ExtractCharacters(env.Ctx, "demo", "chapter1", "tester")
	if err != nil {
		t.Fatal(err)
	}
	names := map[string]domain.Character{}
	for _, c := range found {
		names[c.Name] = c
	}
	if _, ok := names["李明"]; !ok {
		t.Fatalf("expected 李明 extracted: %+v", found)
	}
	if names["王芳"].Attributes["role"] != "主角" || !names["王芳"].Locked {
		t.Fatalf("locked character changed: %+v", names["王芳"])
	}
	list, _ := e.ListCharacters(env.Ctx, "demo")
	if len(list.LockedEntities) != 1 || list.LockedEntities[0] != "王芳" {
		t.Fatalf("locked entities: %+v", list.LockedEntities)
	}
}

func TestCharacterAndSceneRules(t *testing.T) {
	env := newTestEnv(t)
	e := env.Engine
	_, err := e.UpdateCharacter(env.Ctx, "demo", "无名", map[string]any{}, "tester")
	rejection(t, err, "实体 无名 不存在")

	msg, err := e.CreateCharacter(env.Ctx, "demo", "张三", map[string]any{"role": "配角"}, "tester")
	if err != nil || msg == "" {
		t.Fatalf("create: %q %v", msg, err)
	}
	_, err = e.CreateCharacter(env.Ctx, "demo", "张三", nil, "tester")
	rejection(t, err, "实体 张三 已存在")

	state, err := e.ToggleCharacterLock(env.Ctx, "demo", "张三", "tester")
	if err != nil || !state.IsLocked {
		t.Fatalf("lock: %+v %v", state, err)
	}
	rejection(t, e.DeleteCharacter(env.Ctx, "demo", "张三", "tester"), "实体 张三 已被锁定，无法删除")
	state, _ = e.ToggleCharacterLock(env.Ctx, "demo", "张三", "tester")
	if state.IsLocked {
		t.Fatalf("expected unlocked")
	}
	if err := e.DeleteCharacter(env.Ctx, "demo", "张三", "tester"); err != nil {
		t.Fatal(err)
	}

	if err := e.CreateScene(env.Ctx, "demo", "河边", "riverside at night", "tester"); err != nil {
		t.Fatal(err)
	}
	rejection(t, e.CreateScene(env.Ctx, "demo", "河边", "", "tester"), "场景 河边 已存在")
	if err := e.UpdateScene(env.Ctx, "demo", "河边", "riverside, moon", "tester"); err != nil {
		t.Fatal(err)
	}
	scenes, _ := e.ListScenes(env.Ctx, "demo")
	if scenes["河边"] != "riverside, moon" {
		t.Fatalf("scenes: %v", scenes)
	}
	if err := e.DeleteScene(env.Ctx, "demo", "河边", "tester"); err != nil {
		t.Fatal(err)
	}
	rejection(t, e.DeleteScene(env.Ctx, "demo", "河边", "tester"), "场景 河边 不存在")
}

func TestKnowledgeGraphLinksCoOccurringCharacters(t *testing.T) {
	env := newTestEnv(t)
	e := env.Engine
	if err := e.SaveChapter(env.Ctx, "demo", "chapter1", sampleChapter, "tester"); err != nil {
		t.Fatal(err)
	}
	for _, n := range []string{"李明", "王芳"} {
		if _, err := e.CreateCharacter(env.Ctx, "demo", n, nil, "tester"); err != nil {
			t.Fatal(err)
		}
	}
	if _, err := e.SplitText(env.Ctx, "demo", "chapter1", "tester"); err != nil {
		t.Fatal(err)
	}
	kg, err := e.KnowledgeGraph(env.Ctx, "demo")
	if err != nil {
		t.Fatal(err)
	}
	if len(kg.Nodes) != 2 || len(kg.Relationships) != 1 {
		t.Fatalf("graph: %+v", kg)
	}
	rel := kg.Relationships[0]
	if rel.Source != "李明" || rel.Target != "王芳" || rel.Weight != 1 {
		t.Fatalf("relationship: %+v", rel)
	}
	if kg.CreatedAt != "2024-01-01T00:00:00Z" {
		t.Fatalf("created_at: %q", kg.CreatedAt)
	}
}

func TestImportNovel(t *testing.T) {
	env := newTestEnv(t)
	e := env.Engine
	novel := "序言写在这里。\n第一章 出发\n他出发了。\n第二章 归来\n他回来了。"
	res, err := e.ImportNovel(env.Ctx, "imported", []byte(novel), "", "tester")
	if err != nil {
		t.Fatal(err)
	}
	if res.TotalChapters != 3 || strings.Join(res.Chapters, ",") != "chapter1,chapter2,chapter3" {
		t.Fatalf("import result: %+v", res)
	}
	second, _ := e.ChapterContent(env.Ctx, "imported", "chapter2")
	if second != "第一章 出发\n他出发了。" {
		t.Fatalf("heading should stay with its body: %q", second)
	}

	res, err = e.ImportNovel(env.Ctx, "demo", []byte("第一章 开始\n内容。"), "", "tester")
	if err != nil || res.Chapters[0] != "chapter2" {
		t.Fatalf("import appends after existing chapters: %+v %v", res, err)
	}

	_, err = e.ImportNovel(env.Ctx, "demo", []byte{0xff, 0xfe, 0x00}, "", "tester")
	rejection(t, err, "文件编码必须为UTF-8")
	_, err = e.ImportNovel(env.Ctx, "demo", []byte("abc"), "(", "tester")
	rejection(t, err, "")
}

func prepareSpans(t *testing.T, env testEnv) {
	t.Helper()
	if err := env.Engine.SaveChapter(env.Ctx, "demo", "chapter1", sampleChapter, "tester"); err != nil {
		t.Fatal(err)
	}
	if _, err := env.Engine.SplitText(env.Ctx, "demo", "chapter1", "tester"); err != nil {
		t.Fatal(err)
	}
}

func TestMediaJobCompletes(t *testing.T) {
	env := newTestEnv(t)
	e := env.Engine
	prepareSpans(t, env)

	started, err := e.GenerateImages(env.Ctx, engine.ImagesRequest{
		ProjectName:   "demo",
		ChapterName:   "chapter1",
		ImageSettings: engine.ImageSettings{Width: 32, Height: 16},
		Prompts:       []engine.SpanPrompt{{ID: 1, Prompt: "moon"}, {ID: 2, Prompt: "river"}},
	}, "tester")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(started.TaskID, "image_") || started.Total != 2 {
		t.Fatalf("started: %+v", started)
	}
	if err := e.Jobs.Wait(env.Ctx, started.TaskID); err != nil {
		t.Fatal(err)
	}
	progress, err := e.MediaProgress(env.Ctx, started.TaskID)
	if err != nil || progress.Status != domain.TaskCompleted || progress.Current != 2 {
		t.Fatalf("progress: %+v %v", progress, err)
	}

	asset, err := e.Asset(env.Ctx, "demo", "chapter1", 1, domain.AssetImage)
	if err != nil || asset.ContentType != "image/png" {
		t.Fatalf("asset: %v", err)
	}
	img, err := png.Decode(bytes.NewReader(asset.Data))
	if err != nil || img.Bounds().Dx() != 32 || img.Bounds().Dy() != 16 {
		t.Fatalf("decode png: %v", err)
	}
	info, _ := e.ProjectInfo(env.Ctx, "demo")
	if got := info.Chapters[0].Spans[0].Images; len(got) != 1 {
		t.Fatalf("project info images: %+v", info.Chapters[0].Spans[0])
	}

	_, err = e.Asset(env.Ctx, "demo", "chapter1", 1, domain.AssetAudio)
	rejection(t, err, "音频不存在")
	rejection(t, e.CancelMedia(env.Ctx, started.TaskID, "tester"), "任务已结束")
}

func TestMediaProgressUnknownAndCancel(t *testing.T) {
	env := newTestEnv(t)
	e := env.Engine
	prepareSpans(t, env)

	p, err := e.MediaProgress(env.Ctx, "image_missing")
	if err != nil || p.Status != domain.TaskNotFound {
		t.Fatalf("unknown progress: %+v %v", p, err)
	}
	rejection(t, e.CancelMedia(env.Ctx, "image_missing", "tester"), "任务不存在")

	e.Config.Media.StepDelayMS = 5000
	started, err := e.GenerateAudio(env.Ctx, engine.AudioRequest{
		ProjectName: "demo",
		ChapterName: "chapter1",
		Prompts:     []engine.SpanPrompt{{ID: 1, Prompt: "你好"}, {ID: 2, Prompt: "再见"}},
	}, "tester")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(started.TaskID, "audio_") {
		t.Fatalf("task id: %s", started.TaskID)
	}
	if _, err := e.RenameProject(env.Ctx, "demo", "demo2", "tester"); err == nil {
		t.Fatalf("rename should be refused while a job runs")
	}
	if err := e.CancelMedia(env.Ctx, started.TaskID, "tester"); err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithTimeout(env.Ctx, 2*time.Second)
	defer cancel()
	if err := e.Jobs.Wait(ctx, started.TaskID); err != nil {
		t.Fatalf("job did not stop: %v", err)
	}
	p, _ = e.MediaProgress(env.Ctx, started.TaskID)
	if p.Status != domain.TaskCancelled {
		t.Fatalf("expected cancelled, got %+v", p)
	}
}

func TestMediaRequestValidation(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.Engine.GenerateImages(env.Ctx, engine.ImagesRequest{ProjectName: "demo", ChapterName: "chapter1"}, "tester")
	rejection(t, err, "缺少必要参数")
	_, err = env.Engine.GenerateImages(env.Ctx, engine.ImagesRequest{
		ProjectName: "demo", ChapterName: "chapter1",
		Prompts:  []engine.SpanPrompt{{ID: 1, Prompt: "x"}},
		Workflow: "nope",
	}, "tester")
	rejection(t, err, "工作流 nope 不存在")
	_, err = env.Engine.GenerateAudio(env.Ctx, engine.AudioRequest{
		ProjectName: "demo", ChapterName: "chapter5",
		Prompts: []engine.SpanPrompt{{ID: 1, Prompt: "x"}},
	}, "tester")
	rejection(t, err, "章节不存在")
}

func TestVideoGeneration(t *testing.T) {
	env := newTestEnv(t)
	e := env.Engine
	prepareSpans(t, env)

	_, err := e.GenerateVideo(env.Ctx, engine.VideoSettings{ProjectName: "demo", ChapterName: "chapter1"}, "tester")
	rejection(t, err, "没有可用的图片，请先生成图片")

	started, err := e.GenerateImages(env.Ctx, engine.ImagesRequest{
		ProjectName: "demo", ChapterName: "chapter1",
		Prompts: []engine.SpanPrompt{{ID: 1, Prompt: "a"}, {ID: 2, Prompt: "b"}},
	}, "tester")
	if err != nil {
		t.Fatal(err)
	}
	if err := e.Jobs.Wait(env.Ctx, started.TaskID); err != nil {
		t.Fatal(err)
	}

	bad := 0
	_, err = e.GenerateVideo(env.Ctx, engine.VideoSettings{ProjectName: "demo", ChapterName: "chapter1", FPS: &bad}, "tester")
	rejection(t, err, "帧率必须在 1 到 120 之间")

	if _, err := e.VideoAsset(env.Ctx, "demo", "chapter1"); !errors.Is(err, repo.ErrNotFound) {
		t.Fatalf("expected no video yet, got %v", err)
	}
	res, err := e.GenerateVideo(env.Ctx, engine.VideoSettings{ProjectName: "demo", ChapterName: "chapter1"}, "tester")
	if err != nil {
		t.Fatal(err)
	}
	if res.VideoPath != "projects/demo/chapter1/video.mp4" {
		t.Fatalf("video path: %q", res.VideoPath)
	}
	video, err := e.VideoAsset(env.Ctx, "demo", "chapter1")
	if err != nil || video.ContentType != "video/mp4" || !bytes.Contains(video.Data, []byte("ftyp")) {
		t.Fatalf("video asset: %v", err)
	}
	p := e.VideoProgress()
	if p.Total != 2 || p.Progress != 2 || p.Percentage != 100 {
		t.Fatalf("progress after render: %+v", p)
	}
	if err := e.CancelVideo(env.Ctx, "tester"); err != nil {
		t.Fatalf("cancel with nothing running should succeed: %v", err)
	}
}

func TestVideoCancel(t *testing.T) {
	env := newTestEnv(t)
	e := env.Engine
	prepareSpans(t, env)
	started, err := e.GenerateImages(env.Ctx, engine.ImagesRequest{
		ProjectName: "demo", ChapterName: "chapter1",
		Prompts: []engine.SpanPrompt{{ID: 1, Prompt: "a"}},
	}, "tester")
	if err != nil {
		t.Fatal(err)
	}
	if err := e.Jobs.Wait(env.Ctx, started.TaskID); err != nil {
		t.Fatal(err)
	}

	e.Config.Media.StepDelayMS = 5000
	done := make(chan error, 1)
	go func() {
		_, err := e.GenerateVideo(env.Ctx, engine.VideoSettings{ProjectName: "demo", ChapterName: "chapter1"}, "tester")
		done <- err
	}()
	deadline := time.Now().Add(2 * time.Second)
	for e.VideoProgress().CurrentTask == nil {
		if time.Now().After(deadline) {
			t.Fatalf("render did not start")
		}
		time.Sleep(5 * time.Millisecond)
	}
	if err := e.CancelVideo(env.Ctx, "tester"); err != nil {
		t.Fatal(err)
	}
	select {
	case err := <-done:
		rejection(t, err, "视频生成已取消")
	case <-time.After(2 * time.Second):
		t.Fatalf("render not cancelled")
	}
}

func TestAdminConfigOverrides(t *testing.T) {
	env := newTestEnv(t)
	e := env.Engine
	_, err := e.UpdateConfig(env.Ctx, nil, "tester")
	rejection(t, err, "缺少必要参数")
	_, err = e.UpdateConfig(env.Ctx, map[string]any{"video.nope": 1}, "tester")
	rejection(t, err, "")
	_, err = e.UpdateConfig(env.Ctx, map[string]any{"video.fps": -5}, "tester")
	rejection(t, err, "")

	keys, err := e.UpdateConfig(env.Ctx, map[string]any{"video.fps": 30, "server.jwt_secret": "s3cret"}, "tester")
	if err != nil || len(keys) != 2 {
		t.Fatalf("update: %v %v", keys, err)
	}
	flat, err := e.AdminConfig(env.Ctx)
	if err != nil {
		t.Fatal(err)
	}
	if flat["video.fps"] != 30 {
		t.Fatalf("fps override not applied: %#v", flat["video.fps"])
	}
	if flat["server.jwt_secret"] != "******" {
		t.Fatalf("secret not masked: %v", flat["server.jwt_secret"])
	}
	eff, _ := e.EffectiveConfig(env.Ctx)
	if eff.Video.FPS != 30 || e.Config.Video.FPS != 24 {
		t.Fatalf("effective %d base %d", eff.Video.FPS, e.Config.Video.FPS)
	}
}
