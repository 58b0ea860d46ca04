package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/profilesketch/sketcher/internal/analysis"
	"github.com/profilesketch/sketcher/internal/batch"
	"github.com/profilesketch/sketcher/internal/config"
	"github.com/profilesketch/sketcher/internal/credential"
	"github.com/profilesketch/sketcher/internal/logging"
	"github.com/profilesketch/sketcher/internal/preview"
	"github.com/profilesketch/sketcher/internal/session"
	"github.com/profilesketch/sketcher/internal/storage"
)

type Handler struct {
	sessionStore *storage.SessionStore
	credentials  credential.Store
	analysis     *analysis.Service
	renderer     *preview.Renderer
	cfg          config.Config
}

func New(cfg config.Config, creds credential.Store, svc *analysis.Service) *Handler {
	return &Handler{
		sessionStore: storage.New(),
		credentials:  creds,
		analysis:     svc,
		renderer:     preview.NewRenderer(cfg.PreviewMaxSize),
		cfg:          cfg,
	}
}

// errorResponse is the JSON body of every failed API call
type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Status  int    `json:"status,omitempty"`
}

// Response helpers
func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("Unable to encode JSON response", "err", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	logging.FromContext(r.Context()).Warn("Request failed", "path", r.URL.Path, "status", status, "code", code, "message", message)
	h.writeJSON(w, status, errorResponse{Error: code, Message: message})
}

// writeDomainError maps a session or batch error to its status and user message
func (h *Handler) writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	status, code, message := classify(err)
	if status >= http.StatusInternalServerError {
		logging.FromContext(r.Context()).Error("Request error", "path", r.URL.Path, "err", err)
	}
	h.writeError(w, r, status, code, message)
}

func classify(err error) (int, string, string) {
	switch {
	case errors.Is(err, batch.ErrNoImageFiles):
		return http.StatusBadRequest, "NO_IMAGE_FILES", "请选择图片文件"
	case errors.Is(err, batch.ErrTooFewImages):
		return http.StatusBadRequest, "TOO_FEW_IMAGES", "请至少上传5张图片"
	case errors.Is(err, batch.ErrTooManyImages):
		return http.StatusBadRequest, "TOO_MANY_IMAGES", "最多只能上传20张图片"
	case errors.Is(err, batch.ErrIndexOutOfRange):
		return http.StatusBadRequest, "INDEX_OUT_OF_RANGE", err.Error()
	case errors.Is(err, session.ErrMissingCredential):
		return http.StatusPreconditionRequired, "MISSING_CREDENTIAL", "请先配置API密钥"
	case errors.Is(err, credential.ErrInvalidCredential):
		return http.StatusBadRequest, "INVALID_CREDENTIAL", "请输入有效的API密钥"
	case errors.Is(err, session.ErrSubmissionInFlight):
		return http.StatusConflict, "BUSY", "分析正在进行中"
	case errors.Is(err, session.ErrShareUnavailable):
		return http.StatusNotImplemented, "NOT_IMPLEMENTED", "分享功能开发中..."
	case errors.Is(err, session.ErrAnalysisFailed):
		return http.StatusBadGateway, "ANALYSIS_FAILED", "分析过程中出错，请重试"
	default:
		return http.StatusInternalServerError, "SERVER_ERROR", "Internal server error"
	}
}

// Session helpers
func (h *Handler) getSessionOrError(w http.ResponseWriter, r *http.Request) (*session.Session, bool) {
	sessionID := chi.URLParam(r, "sessionID")
	sess, exists := h.sessionStore.Get(sessionID)
	if !exists {
		h.writeError(w, r, http.StatusNotFound, "NOT_FOUND", "Session not found")
		return nil, false
	}
	return sess, true
}
