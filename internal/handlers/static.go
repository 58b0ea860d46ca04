package handlers

import (
	"net/http"
	"path/filepath"
	"strings"
)

func (h *Handler) HandleStatic(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/")
	if path == "" {
		path = "index.html"
	}

	// Prevent directory traversal attacks
	if strings.Contains(path, "..") {
		h.writeError(w, r, http.StatusBadRequest, "INVALID_INPUT", "Invalid file path")
		return
	}

	// Set appropriate content type based on file extension
	switch {
	case strings.HasSuffix(path, ".css"):
		w.Header().Set("Content-Type", "text/css")
	case strings.HasSuffix(path, ".js"):
		w.Header().Set("Content-Type", "application/javascript")
	case strings.HasSuffix(path, ".html"):
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
	}

	http.ServeFile(w, r, filepath.Join(h.cfg.StaticDir, filepath.FromSlash(path)))
}
