package devserver

import (
	"html/template"
	"net/http"
	"os"
	"path/filepath"

	"novelreel/internal/routes"
)

var placeholderShell = template.Must(template.New("shell").Parse(`<!doctype html>
<html><head><meta charset="utf-8"><title>novelreel</title></head>
<body data-view="{{.View}}" data-route="{{.Name}}">
<p>{{.View}}</p>
{{range $k, $v := .Params}}<p data-param="{{$k}}">{{$v}}</p>
{{end}}</body></html>
`))

// Shell returns the handler that answers front-end routes. With a build
// directory it serves that build's index.html; otherwise it renders a
// placeholder page naming the resolved view.
func Shell(dir string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		res, _ := routes.FromContext(r.Context())
		if dir != "" {
			index := filepath.Join(dir, "index.html")
			if _, err := os.Stat(index); err == nil {
				w.Header().Set("X-View", res.View)
				http.ServeFile(w, r, index)
				return
			}
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Header().Set("X-View", res.View)
		if res.View == routes.ViewNotFound {
			w.WriteHeader(http.StatusNotFound)
		}
		_ = placeholderShell.Execute(w, res)
	})
}
