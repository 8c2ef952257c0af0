package devserver

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"strings"
	"testing"
	"time"

	"novelreel/internal/config"
	"novelreel/internal/db"
	"novelreel/internal/engine"
	"novelreel/internal/migrate"
	reelsdk "novelreel/sdk/go"
)

const sampleChapter = "李明说：今晚的月亮真圆。王芳笑道：我们去河边走走吧！两人沿着河慢慢走。夜风很凉。远处传来钟声。李明问：你听见了吗？"

type testServer struct {
	URL    string
	Engine engine.Engine
	client *http.Client
	close  func()
}

func (s *testServer) Client() *http.Client { return s.client }
func (s *testServer) Close()               { s.close() }

type serverOption func(*Config)

func withSecret(secret string) serverOption {
	return func(c *Config) { c.Auth.JWTSecret = secret }
}

func withUI() serverOption {
	return func(c *Config) { c.UI = Shell("") }
}

func newTestServer(t *testing.T, opts ...serverOption) *testServer {
	t.Helper()
	workspace := t.TempDir()
	if _, err := db.EnsureWorkspace(workspace); err != nil {
		t.Fatalf("ensure workspace: %v", err)
	}
	conn, err := db.Open(db.Config{Workspace: workspace})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := migrate.Migrate(context.Background(), conn); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	cfg := config.Default()
	cfg.Media.StepDelayMS = 0
	e := engine.New(conn, cfg)
	if _, err := e.CreateProject(context.Background(), "demo", "tester"); err != nil {
		t.Fatalf("create project: %v", err)
	}
	scfg := Config{Engine: e}
	for _, opt := range opts {
		opt(&scfg)
	}
	handler, err := New(scfg)
	if err != nil {
		t.Fatalf("build handler: %v", err)
	}
	ln, err := net.Listen("tcp4", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	srv := &http.Server{Handler: handler}
	go srv.Serve(ln)
	ts := &testServer{
		URL:    "http://" + ln.Addr().String(),
		Engine: e,
		client: &http.Client{CheckRedirect: func(*http.Request, []*http.Request) error { return http.ErrUseLastResponse }},
		close: func() {
			srv.Shutdown(context.Background())
			ln.Close()
			e.Jobs.Shutdown()
			conn.Close()
		},
	}
	t.Cleanup(ts.Close)
	return ts
}

func doJSON(t *testing.T, client *http.Client, method, url string, body any, headers map[string]string) (*http.Response, []byte) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(b)
	} else {
		reader = bytes.NewReader(nil)
	}
	req, err := http.NewRequest(method, url, reader)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	res, err := client.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	defer res.Body.Close()
	data, err := io.ReadAll(res.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return res, data
}

type testEnvelope struct {
	Status  string          `json:"status"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
}

func decodeEnvelope(t *testing.T, res *http.Response, data []byte) testEnvelope {
	t.Helper()
	if res.StatusCode != http.StatusOK {
		t.Fatalf("status %d: %s", res.StatusCode, string(data))
	}
	var env testEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		t.Fatalf("decode envelope: %v: %s", err, string(data))
	}
	return env
}

func callEnvelope(t *testing.T, client *http.Client, method, url string, body any, headers map[string]string) testEnvelope {
	t.Helper()
	res, data := doJSON(t, client, method, url, body, headers)
	return decodeEnvelope(t, res, data)
}

func newSDK(srv *testServer) *reelsdk.Client {
	c := reelsdk.New(srv.URL)
	c.HTTPClient = srv.Client()
	return c
}

func TestHealth(t *testing.T) {
	srv := newTestServer(t)
	res, data := doJSON(t, srv.Client(), http.MethodGet, srv.URL+"/health", nil, nil)
	if res.StatusCode != http.StatusOK || !strings.Contains(string(data), `"ok"`) {
		t.Fatalf("health: %d %s", res.StatusCode, string(data))
	}
}

func TestEnvelopeSuccessAndBusinessError(t *testing.T) {
	srv := newTestServer(t)
	client := srv.Client()

	env := callEnvelope(t, client, http.MethodGet, srv.URL+"/project/list", nil, nil)
	if env.Status != "success" || string(env.Data) != `["demo"]` {
		t.Fatalf("list: %+v %s", env, string(env.Data))
	}

	env = callEnvelope(t, client, http.MethodPost, srv.URL+"/project/create", map[string]any{"project_name": "demo"}, nil)
	if env.Status != "error" || env.Message != "项目已存在" {
		t.Fatalf("duplicate: %+v", env)
	}

	env = callEnvelope(t, client, http.MethodPost, srv.URL+"/project/create", map[string]any{}, nil)
	if env.Status != "error" || env.Message != "项目名称不能为空" {
		t.Fatalf("missing name: %+v", env)
	}

	res, data := doJSON(t, client, http.MethodPost, srv.URL+"/project/create", map[string]any{"project_name": "x", "bogus": 1}, nil)
	if res.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("unknown field: %d %s", res.StatusCode, string(data))
	}
	var apiErr apiError
	if err := json.Unmarshal(data, &apiErr); err != nil || apiErr.Status != "error" || apiErr.Message == "" {
		t.Fatalf("validation body: %s", string(data))
	}
}

func TestProjectRenameAndEvents(t *testing.T) {
	srv := newTestServer(t)
	client := srv.Client()

	env := callEnvelope(t, client, http.MethodPut, srv.URL+"/project/update", map[string]any{
		"old_name": "demo",
		"new_name": "saga",
	}, nil)
	if env.Status != "success" {
		t.Fatalf("rename: %+v", env)
	}
	env = callEnvelope(t, client, http.MethodGet, srv.URL+"/project/events?project_name=saga", nil, nil)
	var events []struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(env.Data, &events); err != nil {
		t.Fatalf("decode events: %v", err)
	}
	if len(events) != 2 || events[0].Type != "project.rename" || events[1].Type != "project.create" {
		t.Fatalf("events: %+v", events)
	}

	env = callEnvelope(t, client, http.MethodDelete, srv.URL+"/project/delete/saga", nil, nil)
	if env.Status != "success" {
		t.Fatalf("delete: %+v", env)
	}
	env = callEnvelope(t, client, http.MethodGet, srv.URL+"/project/info?project_name=saga", nil, nil)
	if env.Status != "error" || env.Message != "项目不存在" {
		t.Fatalf("info after delete: %+v", env)
	}
}

func TestAuthRequiresBearerToken(t *testing.T) {
	srv := newTestServer(t, withSecret("test-secret"))
	client := srv.Client()

	res, data := doJSON(t, client, http.MethodGet, srv.URL+"/project/list", nil, nil)
	if res.StatusCode != http.StatusUnauthorized || !strings.Contains(string(data), "authentication required") {
		t.Fatalf("expected 401, got %d %s", res.StatusCode, string(data))
	}
	res, _ = doJSON(t, client, http.MethodGet, srv.URL+"/health", nil, nil)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("health should stay public, got %d", res.StatusCode)
	}
	res, _ = doJSON(t, client, http.MethodGet, srv.URL+"/project/list", nil, map[string]string{"Authorization": "Bearer nope"})
	if res.StatusCode != http.StatusUnauthorized {
		t.Fatalf("bad token: %d", res.StatusCode)
	}

	env := callEnvelope(t, client, http.MethodPost, srv.URL+"/auth/dev/login", map[string]any{"subject": "alice"}, nil)
	var login devLoginResponse
	if err := json.Unmarshal(env.Data, &login); err != nil || login.Token == "" {
		t.Fatalf("login: %+v %v", env, err)
	}
	headers := map[string]string{"Authorization": "Bearer " + login.Token}
	env = callEnvelope(t, client, http.MethodPost, srv.URL+"/chapter/create", map[string]any{"project_name": "demo"}, headers)
	if env.Status != "success" || !strings.Contains(string(env.Data), "chapter2") {
		t.Fatalf("create chapter: %+v", env)
	}
	events, err := srv.Engine.ProjectEvents(context.Background(), "demo", 1, 0)
	if err != nil || len(events) != 1 || events[0].ActorID != "alice" {
		t.Fatalf("actor should come from the token: %+v %v", events, err)
	}
}

func TestDevLoginWithoutSecret(t *testing.T) {
	srv := newTestServer(t)
	env := callEnvelope(t, srv.Client(), http.MethodPost, srv.URL+"/auth/dev/login", map[string]any{"subject": "alice"}, nil)
	if env.Status != "error" || env.Message != "未启用身份验证" {
		t.Fatalf("login without secret: %+v", env)
	}
}

func TestSDKClearsTokenOn401(t *testing.T) {
	srv := newTestServer(t, withSecret("test-secret"))
	c := newSDK(srv)
	if _, err := c.Admin().DevLogin(context.Background(), "bob"); err != nil {
		t.Fatalf("dev login: %v", err)
	}
	if _, err := c.Projects().List(context.Background()); err != nil {
		t.Fatalf("list with token: %v", err)
	}
	if err := c.SetToken("stale"); err != nil {
		t.Fatal(err)
	}
	_, err := c.Projects().List(context.Background())
	if !reelsdk.IsUnauthorized(err) {
		t.Fatalf("expected unauthorized, got %v", err)
	}
	if c.Token() != "" {
		t.Fatalf("token should be cleared after 401")
	}
}

func TestGenerateStreamsEvents(t *testing.T) {
	srv := newTestServer(t)
	c := newSDK(srv)
	ctx := context.Background()

	body, err := c.Chapters().Generate(ctx, reelsdk.GenerateChapterRequest{
		ProjectName: "demo",
		ChapterName: "chapter1",
		Prompt:      "少年走进森林。他听见了歌声。",
	})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	defer body.Close()
	reader := reelsdk.NewEventReader(body)
	var chunks []string
	for {
		ev, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("read event: %v", err)
		}
		if ev.Name == "error" {
			t.Fatalf("stream error: %s", ev.Data)
		}
		chunks = append(chunks, ev.Data)
	}
	text := strings.Join(chunks, "")
	if !strings.Contains(text, "少年走进森林。") || !strings.Contains(text, "夜色渐深") {
		t.Fatalf("streamed text: %q", text)
	}
	if len(chunks) < 3 {
		t.Fatalf("expected several chunks, got %d", len(chunks))
	}
}

func TestGenerateRejectionIsEnvelope(t *testing.T) {
	srv := newTestServer(t)
	res, data := doJSON(t, srv.Client(), http.MethodPost, srv.URL+"/chapter/generate", map[string]any{
		"project_name": "demo",
		"chapter_name": "chapter9",
		"prompt":       "x",
	}, nil)
	if ct := res.Header.Get("Content-Type"); !strings.HasPrefix(ct, "application/json") {
		t.Fatalf("content type %q", ct)
	}
	env := decodeEnvelope(t, res, data)
	if env.Status != "error" || env.Message != "章节不存在" {
		t.Fatalf("missing chapter: %+v", env)
	}
}

func TestChapterWorkflowThroughSDK(t *testing.T) {
	srv := newTestServer(t)
	c := newSDK(srv)
	ctx := context.Background()

	if err := c.Chapters().Save(ctx, reelsdk.SaveChapterRequest{ProjectName: "demo", ChapterName: "chapter1", Content: sampleChapter}); err != nil {
		t.Fatalf("save: %v", err)
	}
	content, err := c.Chapters().Content(ctx, "demo", "chapter1")
	if err != nil || content.Content != sampleChapter {
		t.Fatalf("content: %+v %v", content, err)
	}
	spans, err := c.Chapters().Split(ctx, "demo", "chapter1")
	if err != nil || len(spans) != 2 {
		t.Fatalf("split: %+v %v", spans, err)
	}
	scenes, err := c.Chapters().SceneList(ctx, "demo", "chapter1")
	if err != nil || len(scenes) != 2 || scenes[0].ID != "1" {
		t.Fatalf("scene list: %+v %v", scenes, err)
	}
	prompt := "new prompt"
	if err := c.Chapters().SaveScenes(ctx, "demo", "chapter1", []reelsdk.SceneEdit{{ID: "2", Prompt: &prompt}}); err != nil {
		t.Fatalf("save scenes: %v", err)
	}
	scenes, _ = c.Chapters().SceneList(ctx, "demo", "chapter1")
	if scenes[1].Prompt != prompt {
		t.Fatalf("scene edit not applied: %+v", scenes[1])
	}

	extracted, err := c.Chapters().ExtractCharacters(ctx, "demo", "chapter1")
	if err != nil || extracted.Status != "success" || len(extracted.Characters) == 0 {
		t.Fatalf("extract: %+v %v", extracted, err)
	}
	lock, err := c.Characters().ToggleLock(ctx, "demo", "李明")
	if err != nil || !lock.IsLocked {
		t.Fatalf("lock: %+v %v", lock, err)
	}
	err = c.Characters().Delete(ctx, "demo", "李明")
	var envErr *reelsdk.EnvelopeError
	if err == nil || !strings.Contains(err.Error(), "已被锁定") {
		t.Fatalf("locked delete should fail: %v", err)
	}
	if !asEnvelopeError(err, &envErr) {
		t.Fatalf("expected envelope error, got %T", err)
	}
	list, err := c.Entities().Characters(ctx, "demo")
	if err != nil || len(list.LockedEntities) != 1 || list.LockedEntities[0] != "李明" {
		t.Fatalf("entity list: %+v %v", list, err)
	}

	if err := c.Entities().CreateScene(ctx, "demo", reelsdk.UpdateSceneParams{Name: "河边", Prompt: "riverside at night"}); err != nil {
		t.Fatalf("create scene: %v", err)
	}
	sl, err := c.Entities().Scenes(ctx, "demo")
	if err != nil || sl.Scenes["河边"] != "riverside at night" {
		t.Fatalf("scenes: %+v %v", sl, err)
	}
	if err := c.Entities().DeleteScene(ctx, "demo", "河边"); err != nil {
		t.Fatalf("delete scene: %v", err)
	}

	info, err := c.Projects().Info(ctx, "demo")
	if err != nil || len(info.Chapters) != 1 || len(info.Chapters[0].Spans) != 2 {
		t.Fatalf("info: %+v %v", info, err)
	}
	kg, err := c.Projects().KnowledgeGraph(ctx, "demo")
	if err != nil || len(kg.Relationships) == 0 {
		t.Fatalf("kg: %+v %v", kg, err)
	}
}

func asEnvelopeError(err error, target **reelsdk.EnvelopeError) bool {
	e, ok := err.(*reelsdk.EnvelopeError)
	if ok {
		*target = e
	}
	return ok
}

func TestImportNovelMultipart(t *testing.T) {
	srv := newTestServer(t)
	c := newSDK(srv)
	res, err := c.Chapters().ImportNovel(context.Background(), reelsdk.ImportNovelRequest{
		ProjectName: "novel",
		File:        strings.NewReader("第一章 出发\n他出发了。\n第二章 归来\n他回来了。\n"),
	})
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if res.TotalChapters != 2 || strings.Join(res.Chapters, ",") != "chapter1,chapter2" {
		t.Fatalf("import result: %+v", res)
	}
	_, err = c.Chapters().ImportNovel(context.Background(), reelsdk.ImportNovelRequest{
		ProjectName: "novel",
		File:        bytes.NewReader([]byte{0xff, 0xfe}),
	})
	if err == nil || err.Error() != "文件编码必须为UTF-8" {
		t.Fatalf("encoding check: %v", err)
	}
}

func TestMediaAndVideoThroughSDK(t *testing.T) {
	srv := newTestServer(t)
	c := newSDK(srv)
	ctx := context.Background()
	if err := c.Chapters().Save(ctx, reelsdk.SaveChapterRequest{ProjectName: "demo", ChapterName: "chapter1", Content: sampleChapter}); err != nil {
		t.Fatal(err)
	}
	if _, err := c.Chapters().Split(ctx, "demo", "chapter1"); err != nil {
		t.Fatal(err)
	}

	task, err := c.Media().GenerateImages(ctx, reelsdk.GenerateImagesRequest{
		ProjectName:   "demo",
		ChapterName:   "chapter1",
		ImageSettings: reelsdk.ImageSettings{Width: 32, Height: 32},
		Prompts:       []reelsdk.SpanPrompt{{ID: 1, Prompt: "moon"}, {ID: 2, Prompt: "river"}},
	})
	if err != nil || task.TaskID == "" || task.Total != 2 {
		t.Fatalf("generate images: %+v %v", task, err)
	}
	waitCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := srv.Engine.Jobs.Wait(waitCtx, task.TaskID); err != nil {
		t.Fatalf("wait: %v", err)
	}
	progress, err := c.Media().Progress(ctx, task.TaskID)
	if err != nil || progress.Status != "completed" || progress.Current != 2 || !progress.Done() {
		t.Fatalf("progress: %+v %v", progress, err)
	}
	unknown, err := c.Media().Progress(ctx, "image_missing")
	if err != nil || unknown.Status != "not_found" {
		t.Fatalf("unknown progress: %+v %v", unknown, err)
	}
	if err := c.Media().Cancel(ctx, task.TaskID); err == nil || err.Error() != "任务已结束" {
		t.Fatalf("cancel finished task: %v", err)
	}

	url, err := c.ResourceURL(reelsdk.ResourceRef{Project: "demo", Chapter: "chapter1", SpanID: "1", Kind: reelsdk.ResourceImage})
	if err != nil {
		t.Fatal(err)
	}
	img, err := c.Fetch(ctx, url)
	if err != nil {
		t.Fatalf("fetch image: %v", err)
	}
	img.Body.Close()
	if img.ContentType != "image/png" {
		t.Fatalf("image content type %q", img.ContentType)
	}
	url, _ = c.ResourceURL(reelsdk.ResourceRef{Project: "demo", Chapter: "chapter1", SpanID: "1", Kind: reelsdk.ResourceAudio})
	if _, err := c.Fetch(ctx, url); err == nil || err.Error() != "音频不存在" {
		t.Fatalf("missing audio: %v", err)
	}

	videoURL, _ := c.ResourceURL(reelsdk.ResourceRef{Project: "demo", Chapter: "chapter1", Kind: reelsdk.ResourceVideo})
	_, err = c.Fetch(ctx, videoURL)
	var apiErr *reelsdk.APIError
	if e, ok := err.(*reelsdk.APIError); ok {
		apiErr = e
	}
	if apiErr == nil || apiErr.StatusCode != http.StatusNotFound {
		t.Fatalf("missing video should 404: %v", err)
	}

	fps := 12
	result, err := c.Video().Generate(ctx, reelsdk.VideoSettings{ProjectName: "demo", ChapterName: "chapter1", FPS: &fps})
	if err != nil || result.VideoPath != "projects/demo/chapter1/video.mp4" {
		t.Fatalf("video: %+v %v", result, err)
	}
	video, err := c.Fetch(ctx, videoURL)
	if err != nil {
		t.Fatalf("fetch video: %v", err)
	}
	video.Body.Close()
	if video.ContentType != "video/mp4" {
		t.Fatalf("video content type %q", video.ContentType)
	}
	vp, err := c.Video().Progress(ctx)
	if err != nil || vp.Total < 1 || vp.CurrentTask != nil {
		t.Fatalf("video progress after render: %+v %v", vp, err)
	}
	if err := c.Video().Cancel(ctx); err != nil {
		t.Fatalf("idle cancel: %v", err)
	}

	workflows, err := c.Media().Workflows(ctx)
	if err != nil || len(workflows) == 0 {
		t.Fatalf("workflows: %+v %v", workflows, err)
	}
}

func TestVideoRenderOutlivesClientTimeout(t *testing.T) {
	srv := newTestServer(t)
	setup := newSDK(srv)
	ctx := context.Background()
	if err := setup.Chapters().Save(ctx, reelsdk.SaveChapterRequest{ProjectName: "demo", ChapterName: "chapter1", Content: sampleChapter}); err != nil {
		t.Fatal(err)
	}
	if _, err := setup.Chapters().Split(ctx, "demo", "chapter1"); err != nil {
		t.Fatal(err)
	}
	task, err := setup.Media().GenerateImages(ctx, reelsdk.GenerateImagesRequest{
		ProjectName:   "demo",
		ChapterName:   "chapter1",
		ImageSettings: reelsdk.ImageSettings{Width: 32, Height: 32},
		Prompts:       []reelsdk.SpanPrompt{{ID: 1, Prompt: "moon"}, {ID: 2, Prompt: "river"}},
	})
	if err != nil {
		t.Fatal(err)
	}
	waitCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := srv.Engine.Jobs.Wait(waitCtx, task.TaskID); err != nil {
		t.Fatal(err)
	}
	// two segments at 150ms each outlast the client timeout below
	srv.Engine.Config.Media.StepDelayMS = 150

	c := reelsdk.New(srv.URL)
	c.Timeout = 100 * time.Millisecond
	result, err := c.Video().Generate(ctx, reelsdk.VideoSettings{ProjectName: "demo", ChapterName: "chapter1"})
	if err != nil || result.VideoPath != "projects/demo/chapter1/video.mp4" {
		t.Fatalf("video: %+v %v", result, err)
	}
	if _, err := srv.Engine.VideoAsset(ctx, "demo", "chapter1"); err != nil {
		t.Fatalf("rendered video should be stored: %v", err)
	}
}

func TestAdminConfig(t *testing.T) {
	srv := newTestServer(t, withSecret("s3cret"))
	c := newSDK(srv)
	ctx := context.Background()
	if _, err := c.Admin().DevLogin(ctx, "admin"); err != nil {
		t.Fatal(err)
	}
	cfg, err := c.Admin().Config(ctx)
	if err != nil {
		t.Fatalf("config: %v", err)
	}
	if cfg["server.jwt_secret"] != "******" {
		t.Fatalf("secret should be masked: %v", cfg["server.jwt_secret"])
	}
	updated, err := c.Admin().UpdateConfig(ctx, map[string]any{"video.fps": 30})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if keys, _ := updated["updated"].([]any); len(keys) != 1 || keys[0] != "video.fps" {
		t.Fatalf("updated keys: %v", updated)
	}
	cfg, _ = c.Admin().Config(ctx)
	if cfg["video.fps"] != float64(30) {
		t.Fatalf("override not visible: %v", cfg["video.fps"])
	}
	if _, err := c.Admin().UpdateConfig(ctx, map[string]any{"video.nope": 1}); err == nil {
		t.Fatalf("unknown key should be rejected")
	}
}

func TestUIShellUnderPrefix(t *testing.T) {
	srv := newTestServer(t, withUI())
	client := srv.Client()

	res, _ := doJSON(t, client, http.MethodGet, srv.URL+"/ui/project/demo", nil, nil)
	if res.StatusCode != http.StatusFound || res.Header.Get("Location") != "/ui/project/demo/text-creation" {
		t.Fatalf("redirect: %d %q", res.StatusCode, res.Header.Get("Location"))
	}
	res, data := doJSON(t, client, http.MethodGet, srv.URL+"/ui/project/demo/video-output", nil, nil)
	if res.StatusCode != http.StatusOK || res.Header.Get("X-View") != "ProjectMain/VideoOutput/index" {
		t.Fatalf("view: %d %q", res.StatusCode, res.Header.Get("X-View"))
	}
	if !strings.Contains(string(data), `data-param="name"`) {
		t.Fatalf("shell should carry params: %s", string(data))
	}
	res, _ = doJSON(t, client, http.MethodGet, srv.URL+"/ui/nowhere", nil, nil)
	if res.StatusCode != http.StatusNotFound {
		t.Fatalf("unknown ui path: %d", res.StatusCode)
	}
}
