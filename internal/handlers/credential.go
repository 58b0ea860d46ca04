package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/profilesketch/sketcher/internal/logging"
)

func (h *Handler) HandleGetCredential(w http.ResponseWriter, r *http.Request) {
	_, ok, err := h.credentials.Get(r.Context())
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]bool{"configured": ok})
}

func (h *Handler) HandleSetCredential(w http.ResponseWriter, r *http.Request) {
	var request struct {
		APIKey string `json:"api_key"`
	}
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		h.writeError(w, r, http.StatusBadRequest, "INVALID_INPUT", "Invalid JSON: "+err.Error())
		return
	}

	if err := h.credentials.Set(r.Context(), request.APIKey); err != nil {
		h.writeDomainError(w, r, err)
		return
	}

	logging.FromContext(r.Context()).Info("Analysis credential updated")
	h.writeJSON(w, http.StatusOK, map[string]bool{"configured": true})
}
