package handlers

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/profilesketch/sketcher/internal/batch"
	"github.com/profilesketch/sketcher/internal/logging"
)

const (
	maxFileSize   = 10 << 20
	maxUploadSize = batch.MaxImages * maxFileSize
	previewWait   = 30 * time.Second
)

func (h *Handler) HandleAddImages(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.getSessionOrError(w, r)
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		h.writeError(w, r, http.StatusBadRequest, "INVALID_INPUT", "Failed to read upload: "+err.Error())
		return
	}

	files, err := readUploads(r)
	if err != nil {
		h.writeError(w, r, http.StatusBadRequest, "INVALID_INPUT", err.Error())
		return
	}

	added, err := sess.AddFiles(files)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}

	logging.FromContext(r.Context()).Info("Images added", "session_id", sess.ID, "added", added, "size", sess.Size())
	h.writeJSON(w, http.StatusOK, map[string]any{
		"added":  added,
		"status": sess.Status(),
	})
}

func (h *Handler) HandleRemoveImage(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.getSessionOrError(w, r)
	if !ok {
		return
	}

	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		h.writeError(w, r, http.StatusBadRequest, "INVALID_INPUT", "index must be an integer")
		return
	}
	if err := sess.RemoveAt(index); err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, sess.Status())
}

func (h *Handler) HandleClearImages(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.getSessionOrError(w, r)
	if !ok {
		return
	}
	if err := sess.Clear(); err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, sess.Status())
}

// HandlePreviews returns the previews rendered so far. With ?wait=true it
// blocks until the current batch has been fully rendered.
func (h *Handler) HandlePreviews(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.getSessionOrError(w, r)
	if !ok {
		return
	}

	previews := sess.Previews()
	if wait, _ := strconv.ParseBool(r.URL.Query().Get("wait")); wait {
		ctx, cancel := context.WithTimeout(r.Context(), previewWait)
		defer cancel()
		previews = sess.WaitPreviews(ctx)
	}

	h.writeJSON(w, http.StatusOK, map[string]any{
		"size":     sess.Size(),
		"previews": previews,
	})
}
