package devserver

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"novelreel/internal/domain"
	"novelreel/internal/engine"
	"novelreel/internal/repo"
)

const maxUpload = 32 << 20

// registerFiles mounts the endpoints that move raw bytes rather than JSON.
func registerFiles(r chi.Router, e engine.Engine, log *slog.Logger) {
	r.Post("/chapter/import_novel", func(w http.ResponseWriter, req *http.Request) {
		req.Body = http.MaxBytesReader(w, req.Body, maxUpload)
		if err := req.ParseMultipartForm(maxUpload); err != nil {
			writeJSON(w, http.StatusBadRequest, envelope{Status: statusError, Message: "invalid multipart body: " + err.Error()})
			return
		}
		file, _, err := req.FormFile("file")
		if err != nil {
			writeResult(w, log, nil, businessError("缺少上传文件"))
			return
		}
		defer file.Close()
		data, err := io.ReadAll(file)
		if err != nil {
			writeResult(w, log, nil, err)
			return
		}
		res, err := e.ImportNovel(req.Context(), req.FormValue("project_name"), data,
			req.FormValue("chapter_pattern"), actorFrom(req.Context()))
		writeResult(w, log, res, err)
	})

	r.Get("/media/get_image", assetHandler(e, log, domain.AssetImage))
	r.Get("/media/get_audio", assetHandler(e, log, domain.AssetAudio))

	r.Get("/video/get_video", func(w http.ResponseWriter, req *http.Request) {
		q := req.URL.Query()
		a, err := e.VideoAsset(req.Context(), q.Get("project_name"), q.Get("chapter_name"))
		switch {
		case errors.Is(err, repo.ErrNotFound):
			writeJSON(w, http.StatusNotFound, map[string]string{"detail": "Video not found"})
		case err != nil:
			writeResult(w, log, nil, err)
		default:
			writeAsset(w, a)
		}
	})
}

func assetHandler(e engine.Engine, log *slog.Logger, kind string) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		q := req.URL.Query()
		raw := strings.TrimSpace(q.Get("span_id"))
		spanID, err := strconv.Atoi(raw)
		if err != nil || spanID < 1 {
			writeResult(w, log, nil, businessError("无效的片段编号 "+raw))
			return
		}
		a, err := e.Asset(req.Context(), q.Get("project_name"), q.Get("chapter_name"), spanID, kind)
		if err != nil {
			writeResult(w, log, nil, err)
			return
		}
		writeAsset(w, a)
	}
}

func writeAsset(w http.ResponseWriter, a domain.Asset) {
	w.Header().Set("Content-Type", a.ContentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(a.Data)))
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(a.Data)
}

// writeResult mirrors respond for handlers outside huma.
func writeResult(w http.ResponseWriter, log *slog.Logger, data any, err error) {
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, envelope{Status: statusSuccess, Data: data})
	case engine.IsRejection(err):
		writeJSON(w, http.StatusOK, envelope{Status: statusError, Message: err.Error()})
	default:
		log.Error("request failed", "err", err)
		se := handleError(err)
		writeJSON(w, se.GetStatus(), se)
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
