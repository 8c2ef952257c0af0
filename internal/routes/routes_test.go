package routes

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
)

func TestResolve(t *testing.T) {
	r := Default()
	cases := []struct {
		path     string
		name     string
		view     string
		redirect string
		param    string
	}{
		{path: "/", redirect: "/project"},
		{path: "/setting", name: "Setting", view: ViewSetting},
		{path: "/project", name: "Project", view: ViewProject},
		{path: "/project/demo", redirect: "/project/demo/text-creation", param: "demo"},
		{path: "/project/demo/text-creation", name: "TextCreation", view: ViewTextCreation, param: "demo"},
		{path: "/project/demo/character-library", name: "CharacterLibrary", view: ViewCharacterLibrary, param: "demo"},
		{path: "/project/demo/scene-library", name: "SceneLibrary", view: ViewSceneLibrary, param: "demo"},
		{path: "/project/demo/storyboard-process", name: "StoryboardProcess", view: ViewStoryboardProcess, param: "demo"},
		{path: "/project/demo/video-output", name: "VideoOutput", view: ViewVideoOutput, param: "demo"},
		{path: "/project/demo/unknown", name: "NotFound", view: ViewNotFound},
		{path: "/nowhere/at/all", name: "NotFound", view: ViewNotFound},
		{path: "/project/", name: "Project", view: ViewProject},
		{path: "/setting/", name: "Setting", view: ViewSetting},
		{path: "/project/demo/text-creation/", name: "TextCreation", view: ViewTextCreation, param: "demo"},
		{path: "/project/demo/", redirect: "/project/demo/text-creation", param: "demo"},
	}
	for _, tc := range cases {
		res, ok := r.Resolve(tc.path)
		if !ok {
			t.Fatalf("%s: no match", tc.path)
		}
		if res.Name != tc.name || res.View != tc.view || res.Redirect != tc.redirect {
			t.Fatalf("%s: got %+v", tc.path, res)
		}
		if tc.param != "" && res.Params["name"] != tc.param {
			t.Fatalf("%s: expected name param %q, got %v", tc.path, tc.param, res.Params)
		}
	}
}

func TestResolveEscapedProjectName(t *testing.T) {
	res, ok := Default().Resolve("/project/%E6%88%91%20book")
	if !ok {
		t.Fatalf("no match")
	}
	if res.Params["name"] != "我 book" {
		t.Fatalf("unexpected params %v", res.Params)
	}
	if res.Redirect != "/project/%E6%88%91%20book/text-creation" {
		t.Fatalf("unexpected redirect %s", res.Redirect)
	}
}

func TestCatchAllParam(t *testing.T) {
	res, _ := Default().Resolve("/a/b")
	if res.Params["pathMatch"] != "a/b" {
		t.Fatalf("unexpected catch-all params %v", res.Params)
	}
}

func TestLayoutOfChildRoutes(t *testing.T) {
	r := Default()
	if got := r.Layout("/project/{name}/video-output"); got != ViewProjectMain {
		t.Fatalf("unexpected layout %q", got)
	}
	if got := r.Layout("/project"); got != "" {
		t.Fatalf("top-level route has no layout, got %q", got)
	}
}

func TestDuplicateRoutesRejected(t *testing.T) {
	_, err := New([]Route{{Path: "/a", Name: "A"}, {Path: "/a", Name: "B"}})
	if err == nil {
		t.Fatalf("expected duplicate error")
	}
}

func TestMountServesHistoryMode(t *testing.T) {
	mux := chi.NewRouter()
	shell := http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		res, ok := FromContext(req.Context())
		if !ok {
			t.Errorf("missing resolution in context")
		}
		_, _ = io.WriteString(w, res.Name)
	})
	mux.Route("/ui", func(ui chi.Router) {
		Default().Mount(ui, shell)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()
	client := &http.Client{CheckRedirect: func(*http.Request, []*http.Request) error {
		return http.ErrUseLastResponse
	}}

	resp, err := client.Get(srv.URL + "/ui/project/demo")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusFound || resp.Header.Get("Location") != "/ui/project/demo/text-creation" {
		t.Fatalf("unexpected redirect %d %s", resp.StatusCode, resp.Header.Get("Location"))
	}

	resp, err = client.Get(srv.URL + "/ui/project/demo/scene-library")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK || string(body) != "SceneLibrary" {
		t.Fatalf("unexpected view %d %q", resp.StatusCode, body)
	}

	resp, err = client.Get(srv.URL + "/ui/missing")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	body, _ = io.ReadAll(resp.Body)
	resp.Body.Close()
	if string(body) != "NotFound" {
		t.Fatalf("expected NotFound view, got %q", body)
	}
}
