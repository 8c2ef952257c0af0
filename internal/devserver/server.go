package devserver

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/danielgtaylor/huma/v2"
	humachi "github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"novelreel/internal/engine"
	"novelreel/internal/routes"
)

// Config for the development backend handler.
type Config struct {
	Engine engine.Engine
	Auth   AuthConfig
	Logger *slog.Logger
	// UI, when set, serves the front-end shell under /ui.
	UI http.Handler
}

func (c Config) logger() *slog.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return slog.Default()
}

const (
	statusSuccess = "success"
	statusError   = "error"
)

// envelope wraps every non-streaming JSON response.
type envelope struct {
	Status  string `json:"status" enum:"success,error"`
	Data    any    `json:"data"`
	Message string `json:"message,omitempty"`
}

type reply struct {
	Body envelope `json:"body"`
}

// apiError is a transport failure. It renders as an error envelope with a
// non-2xx status.
type apiError struct {
	status  int
	Status  string `json:"status"`
	Message string `json:"message"`
}

func (e *apiError) GetStatus() int { return e.status }
func (e *apiError) Error() string  { return e.Message }

func newAPIError(status int, message string) huma.StatusError {
	if message == "" {
		message = http.StatusText(status)
	}
	return &apiError{status: status, Status: statusError, Message: message}
}

// New returns the HTTP handler of the development backend.
func New(cfg Config) (http.Handler, error) {
	huma.NewError = func(status int, msg string, errs ...error) huma.StatusError {
		return newAPIError(status, detailed(msg, errs))
	}
	huma.NewErrorWithContext = func(_ huma.Context, status int, msg string, errs ...error) huma.StatusError {
		return newAPIError(status, detailed(msg, errs))
	}

	log := cfg.logger()
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Recoverer)
	router.Use(requestLogger(log))
	router.Use(newAuthMiddleware(cfg.Auth))

	hcfg := huma.DefaultConfig("novelreel dev backend", "0.1.0")
	hcfg.OpenAPIPath = "/openapi"
	hcfg.DocsPath = ""
	hcfg.SchemasPath = ""
	api := humachi.New(router, hcfg)

	e := cfg.Engine
	registerHealth(api)
	registerDevAuth(api, cfg.Auth)
	registerProjects(api, e)
	registerChapters(api, e)
	registerCharacters(api, e)
	registerEntities(api, e)
	registerMedia(api, e)
	registerVideo(api, e)
	registerAdmin(api, e)
	registerFiles(router, e, log)

	if cfg.UI != nil {
		router.Route("/ui", func(ui chi.Router) {
			routes.Default().Mount(ui, cfg.UI)
		})
	}
	return router, nil
}

func detailed(msg string, errs []error) string {
	if len(errs) == 0 {
		return msg
	}
	parts := make([]string, 0, len(errs))
	for _, err := range errs {
		if err != nil {
			parts = append(parts, err.Error())
		}
	}
	if len(parts) == 0 {
		return msg
	}
	return msg + ": " + strings.Join(parts, "; ")
}

func businessError(msg string) error {
	return &engine.Error{Msg: msg}
}

func ok(data any) (*reply, error) {
	return &reply{Body: envelope{Status: statusSuccess, Data: data}}, nil
}

// respond turns an engine result into an envelope. Rejections become a 200
// error envelope; anything else is a 500.
func respond(data any, err error) (*reply, error) {
	if err == nil {
		return ok(data)
	}
	if engine.IsRejection(err) {
		return &reply{Body: envelope{Status: statusError, Message: err.Error()}}, nil
	}
	return nil, handleError(err)
}

func handleError(err error) huma.StatusError {
	if err == nil {
		return nil
	}
	var se huma.StatusError
	if errors.As(err, &se) {
		return se
	}
	if errors.Is(err, context.Canceled) {
		return newAPIError(499, "request cancelled")
	}
	return newAPIError(http.StatusInternalServerError, err.Error())
}

func requestLogger(log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			log.Debug("request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start),
				"request_id", middleware.GetReqID(r.Context()),
			)
		})
	}
}

func registerHealth(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID: "health",
		Method:      http.MethodGet,
		Path:        "/health",
		Summary:     "Health check",
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body map[string]string `json:"body"`
	}, error) {
		return &struct {
			Body map[string]string `json:"body"`
		}{Body: map[string]string{"status": "ok"}}, nil
	})
}
