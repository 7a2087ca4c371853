package storage

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
)

// Handler serves public objects of one bucket at /<bucket>/<path>.
// Mount it under the path component of the configured public base.
type Handler struct {
	objects ObjectStore
	bucket  string
}

// NewHandler creates a Handler for bucket.
func NewHandler(objects ObjectStore, bucket string) *Handler {
	return &Handler{objects: objects, bucket: bucket}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	rest := strings.TrimPrefix(r.URL.Path, "/")
	bucket, path, ok := strings.Cut(rest, "/")
	if !ok || bucket != h.bucket || path == "" {
		http.NotFound(w, r)
		return
	}

	obj, err := h.objects.OpenPublic(r.Context(), path)
	if errors.Is(err, ErrNotFound) {
		http.NotFound(w, r)
		return
	}
	if err != nil {
		http.Error(w, "storage unavailable", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", obj.ContentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(obj.Data)))
	w.Header().Set("Cache-Control", "public, max-age=86400")
	w.WriteHeader(http.StatusOK)
	if r.Method == http.MethodGet {
		_, _ = w.Write(obj.Data)
	}
}
