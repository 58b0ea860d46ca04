package logging

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
)

// FromContext returns the default logger, tagged with the chi request id when present.
func FromContext(ctx context.Context) *slog.Logger {
	reqID := middleware.GetReqID(ctx)
	if reqID == "" {
		return slog.Default()
	}
	return slog.Default().With("request_id", reqID)
}

// Requests logs every request once it completes.
func Requests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		FromContext(r.Context()).Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start),
		)
	})
}
