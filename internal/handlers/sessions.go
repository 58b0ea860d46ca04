package handlers

import (
	"net/http"
	"sort"

	"github.com/profilesketch/sketcher/internal/logging"
	"github.com/profilesketch/sketcher/internal/report"
	"github.com/profilesketch/sketcher/internal/session"
	"github.com/profilesketch/sketcher/internal/storage"
)

func (h *Handler) HandleCreateSession(w http.ResponseWriter, r *http.Request) {
	sessionID := storage.NewID()
	sess := session.New(sessionID, h.credentials, h.analysis, session.WithRenderer(h.renderer))
	h.sessionStore.Set(sessionID, sess)

	logging.FromContext(r.Context()).Info("Session created", "session_id", sessionID)
	h.writeJSON(w, http.StatusCreated, map[string]any{
		"session_id": sessionID,
		"status":     sess.Status(),
	})
}

func (h *Handler) HandleListSessions(w http.ResponseWriter, r *http.Request) {
	sessions := h.sessionStore.GetAll()
	statuses := make([]session.Status, 0, len(sessions))
	for _, sess := range sessions {
		statuses = append(statuses, sess.Status())
	}
	sort.Slice(statuses, func(i, j int) bool { return statuses[i].CreatedAt.Before(statuses[j].CreatedAt) })
	h.writeJSON(w, http.StatusOK, statuses)
}

func (h *Handler) HandleGetSession(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.getSessionOrError(w, r)
	if !ok {
		return
	}
	h.writeJSON(w, http.StatusOK, sess.Status())
}

func (h *Handler) HandleDeleteSession(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.getSessionOrError(w, r)
	if !ok {
		return
	}
	h.sessionStore.Delete(sess.ID)
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.getSessionOrError(w, r)
	if !ok {
		return
	}

	result, err := sess.Submit(r.Context())
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]any{
		"view":   sess.View(),
		"result": result,
		"report": report.Present(result),
	})
}

func (h *Handler) HandleResult(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.getSessionOrError(w, r)
	if !ok {
		return
	}

	result, ok := sess.Result()
	if !ok {
		h.writeError(w, r, http.StatusNotFound, "NOT_FOUND", "No analysis result for this session")
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{
		"result": result,
		"report": report.Present(result),
	})
}

func (h *Handler) HandleReset(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.getSessionOrError(w, r)
	if !ok {
		return
	}
	sess.Reset()
	h.writeJSON(w, http.StatusOK, sess.Status())
}

func (h *Handler) HandleShare(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.getSessionOrError(w, r)
	if !ok {
		return
	}
	h.writeDomainError(w, r, sess.Share())
}
