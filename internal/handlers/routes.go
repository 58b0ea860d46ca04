package handlers

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/profilesketch/sketcher/internal/logging"
)

// Routes wires the JSON API, the health check and the static front end.
func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(logging.Requests)
	r.Use(middleware.Recoverer)

	r.Get("/healthcheck", func(w http.ResponseWriter, r *http.Request) {
		if _, err := w.Write([]byte("OK")); err != nil {
			slog.Error("Unable to write healthcheck", "err", err)
		}
	})

	r.Route("/api", func(r chi.Router) {
		r.Post("/analyze", h.HandleAnalyzeProxy)

		r.Get("/credential", h.HandleGetCredential)
		r.Put("/credential", h.HandleSetCredential)

		r.Post("/sessions", h.HandleCreateSession)
		r.Get("/sessions", h.HandleListSessions)
		r.Route("/sessions/{sessionID}", func(r chi.Router) {
			r.Get("/", h.HandleGetSession)
			r.Delete("/", h.HandleDeleteSession)

			r.Post("/images", h.HandleAddImages)
			r.Delete("/images", h.HandleClearImages)
			r.Delete("/images/{index}", h.HandleRemoveImage)
			r.Get("/previews", h.HandlePreviews)

			r.Post("/analyze", h.HandleSubmit)
			r.Get("/result", h.HandleResult)
			r.Post("/reset", h.HandleReset)
			r.Post("/share", h.HandleShare)
		})
	})

	r.Get("/*", h.HandleStatic)

	return r
}
