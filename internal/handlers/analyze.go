package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"

	"github.com/profilesketch/sketcher/internal/logging"
	"github.com/profilesketch/sketcher/internal/providers"
)

// HandleAnalyzeProxy forwards a ready-made batch to the analysis provider.
// Requests without a key use the server's VOLCANO_API_KEY; with neither, or
// with the dummy key, the sample report is returned.
func (h *Handler) HandleAnalyzeProxy(w http.ResponseWriter, r *http.Request) {
	var request struct {
		Images []string `json:"images"`
		Prompt string   `json:"prompt"`
		APIKey string   `json:"apiKey"`
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize*2)
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		h.writeError(w, r, http.StatusBadRequest, "INVALID_INPUT", "Invalid JSON: "+err.Error())
		return
	}
	if len(request.Images) == 0 {
		h.writeError(w, r, http.StatusBadRequest, "INVALID_INPUT", "images 必须为非空列表（Base64字符串）")
		return
	}

	apiKey := request.APIKey
	if apiKey == "" {
		apiKey = h.cfg.VolcanoAPIKey
	}
	if apiKey == "" {
		apiKey = providers.DummyAPIKey
	}

	result, err := h.analysis.Analyze(r.Context(), request.Images, request.Prompt, apiKey)
	if err != nil {
		h.writeProviderError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, result)
}

func (h *Handler) writeProviderError(w http.ResponseWriter, r *http.Request, err error) {
	logging.FromContext(r.Context()).Error("Analysis proxy failed", "err", err)

	var apiErr *providers.APIError
	var urlErr *url.Error
	switch {
	case errors.Is(err, providers.ErrUnauthorized):
		h.writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "UNAUTHORIZED", Message: "API密钥无效或权限不足"})
	case errors.As(err, &apiErr):
		h.writeJSON(w, apiErr.StatusCode, errorResponse{Error: "API_ERROR", Message: apiErr.Body, Status: apiErr.StatusCode})
	case errors.Is(err, providers.ErrMalformedResponse):
		h.writeJSON(w, http.StatusBadGateway, errorResponse{Error: "API_ERROR", Message: err.Error()})
	case errors.As(err, &urlErr), errors.Is(err, context.DeadlineExceeded):
		h.writeJSON(w, http.StatusBadGateway, errorResponse{Error: "NETWORK_ERROR", Message: err.Error()})
	default:
		h.writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "SERVER_ERROR", Message: err.Error()})
	}
}
