package api

import (
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/tendant/simple-cms/pkg/simplecms"
)

// FilesHandler streams uploaded files from the blob store
type FilesHandler struct {
	service simplecms.Service
}

// NewFilesHandler creates a new files handler
func NewFilesHandler(service simplecms.Service) *FilesHandler {
	return &FilesHandler{service: service}
}

// Routes returns the routes for public files
func (h *FilesHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/*", h.ServeFile)
	return r
}

// ServeFile streams the object whose relative path follows the mount point
func (h *FilesHandler) ServeFile(w http.ResponseWriter, r *http.Request) {
	reader, meta, err := h.service.DownloadFile(r.Context(), chi.URLParam(r, "*"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	defer reader.Close()

	w.Header().Set("Content-Type", meta.ContentType)
	if meta.Size > 0 {
		w.Header().Set("Content-Length", strconv.FormatInt(meta.Size, 10))
	}
	if meta.ETag != "" {
		w.Header().Set("ETag", `"`+meta.ETag+`"`)
	}
	if !meta.UpdatedAt.IsZero() {
		w.Header().Set("Last-Modified", meta.UpdatedAt.UTC().Format(http.TimeFormat))
	}
	w.WriteHeader(http.StatusOK)

	if _, err := io.Copy(w, reader); err != nil {
		slog.Warn("Failed to stream file", "key", meta.Key, "error", err)
	}
}
