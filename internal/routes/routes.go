package routes

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"
)

// Route is one entry of the front-end route table. Child paths are
// relative to their parent; an empty child path matches the parent itself.
type Route struct {
	Path     string
	Name     string
	View     string
	Redirect string
	// RedirectFunc computes a redirect target from the matched params.
	RedirectFunc func(params map[string]string) string
	Children     []Route
}

// Resolution is the outcome of resolving a path against the table.
type Resolution struct {
	Pattern  string            `json:"pattern"`
	Name     string            `json:"name,omitempty"`
	View     string            `json:"view,omitempty"`
	Params   map[string]string `json:"params,omitempty"`
	Redirect string            `json:"redirect,omitempty"`
}

const (
	ViewSetting           = "Setting/index"
	ViewProject           = "Project/index"
	ViewProjectMain       = "ProjectMain/index"
	ViewTextCreation      = "ProjectMain/TextCreation/index"
	ViewCharacterLibrary  = "ProjectMain/CharacterLibrary/index"
	ViewSceneLibrary      = "ProjectMain/SceneLibrary/index"
	ViewStoryboardProcess = "ProjectMain/StoryboardProcess/index"
	ViewVideoOutput       = "ProjectMain/VideoOutput/index"
	ViewNotFound          = "NotFound/index"
)

// Table returns the front-end route table.
func Table() []Route {
	return []Route{
		{Path: "/", Redirect: "/project"},
		{Path: "/setting", Name: "Setting", View: ViewSetting},
		{Path: "/project", Name: "Project", View: ViewProject},
		{
			Path: "/project/{name}",
			View: ViewProjectMain,
			Children: []Route{
				{Path: "", RedirectFunc: func(p map[string]string) string {
					return "/project/" + url.PathEscape(p["name"]) + "/text-creation"
				}},
				{Path: "text-creation", Name: "TextCreation", View: ViewTextCreation},
				{Path: "character-library", Name: "CharacterLibrary", View: ViewCharacterLibrary},
				{Path: "scene-library", Name: "SceneLibrary", View: ViewSceneLibrary},
				{Path: "storyboard-process", Name: "StoryboardProcess", View: ViewStoryboardProcess},
				{Path: "video-output", Name: "VideoOutput", View: ViewVideoOutput},
			},
		},
		{Path: "/*", Name: "NotFound", View: ViewNotFound},
	}
}

type entry struct {
	pattern string
	route   Route
	// parent view rendered around a child view
	layout string
}

// Router resolves paths against a route table.
type Router struct {
	mux     *chi.Mux
	entries map[string]entry
	order   []string
}

// New builds a router for routes.
func New(routes []Route) (*Router, error) {
	r := &Router{mux: chi.NewRouter(), entries: map[string]entry{}}
	noop := http.HandlerFunc(func(http.ResponseWriter, *http.Request) {})
	var add func(prefix, layout string, rs []Route) error
	add = func(prefix, layout string, rs []Route) error {
		for _, rt := range rs {
			pattern := join(prefix, rt.Path)
			if len(rt.Children) > 0 {
				if err := add(pattern, rt.View, rt.Children); err != nil {
					return err
				}
				continue
			}
			if _, dup := r.entries[pattern]; dup {
				return fmt.Errorf("duplicate route %s", pattern)
			}
			r.entries[pattern] = entry{pattern: pattern, route: rt, layout: layout}
			r.order = append(r.order, pattern)
			r.mux.Get(pattern, noop)
		}
		return nil
	}
	if err := add("", "", routes); err != nil {
		return nil, err
	}
	return r, nil
}

// Default is the router over Table.
func Default() *Router {
	r, err := New(Table())
	if err != nil {
		panic(err)
	}
	return r
}

func join(prefix, p string) string {
	if prefix == "" {
		return p
	}
	if p == "" {
		return prefix
	}
	return strings.TrimRight(prefix, "/") + "/" + strings.TrimLeft(p, "/")
}

// Resolve matches path. The second result is false when nothing matches,
// which cannot happen for tables ending in a catch-all.
func (r *Router) Resolve(path string) (Resolution, bool) {
	if path == "" {
		path = "/"
	}
	if len(path) > 1 {
		path = strings.TrimSuffix(path, "/")
	}
	rctx := chi.NewRouteContext()
	if !r.mux.Match(rctx, http.MethodGet, path) {
		return Resolution{}, false
	}
	e, ok := r.entries[rctx.RoutePattern()]
	if !ok {
		return Resolution{}, false
	}
	res := Resolution{Pattern: e.pattern, Name: e.route.Name, View: e.route.View}
	for i, key := range rctx.URLParams.Keys {
		if res.Params == nil {
			res.Params = map[string]string{}
		}
		if key == "*" {
			key = "pathMatch"
		}
		v := rctx.URLParams.Values[i]
		if unescaped, err := url.PathUnescape(v); err == nil {
			v = unescaped
		}
		res.Params[key] = v
	}
	switch {
	case e.route.RedirectFunc != nil:
		res.Redirect = e.route.RedirectFunc(res.Params)
	case e.route.Redirect != "":
		res.Redirect = e.route.Redirect
	}
	return res, true
}

// Patterns returns the flattened patterns in table order.
func (r *Router) Patterns() []Resolution {
	out := make([]Resolution, 0, len(r.order))
	for _, p := range r.order {
		e := r.entries[p]
		res := Resolution{Pattern: p, Name: e.route.Name, View: e.route.View, Redirect: e.route.Redirect}
		if e.route.RedirectFunc != nil {
			res.Redirect = "(computed)"
		}
		out = append(out, res)
	}
	return out
}

// Layout returns the enclosing view of the route registered at pattern.
func (r *Router) Layout(pattern string) string {
	return r.entries[pattern].layout
}

type ctxKey struct{}

// FromContext returns the resolution stored by Mount.
func FromContext(ctx context.Context) (Resolution, bool) {
	res, ok := ctx.Value(ctxKey{}).(Resolution)
	return res, ok
}

// Mount serves the table in history mode: redirects answer 302 and every
// view path is handed to shell with its Resolution in the request context.
func (r *Router) Mount(mux chi.Router, shell http.Handler) {
	for _, p := range r.order {
		mux.Get(p, func(w http.ResponseWriter, req *http.Request) {
			full := req.URL.EscapedPath()
			path := full
			if rctx := chi.RouteContext(req.Context()); rctx != nil && rctx.RoutePath != "" {
				path = rctx.RoutePath
			}
			res, ok := r.Resolve(path)
			if !ok {
				http.NotFound(w, req)
				return
			}
			if res.Redirect != "" {
				// keep the mount prefix when served from a sub-router
				prefix := strings.TrimSuffix(full, path)
				http.Redirect(w, req, strings.TrimRight(prefix, "/")+res.Redirect, http.StatusFound)
				return
			}
			shell.ServeHTTP(w, req.WithContext(context.WithValue(req.Context(), ctxKey{}, res)))
		})
	}
}
