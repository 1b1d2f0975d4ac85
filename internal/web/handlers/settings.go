package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/kozaktomas/attendanced/internal/attendance"
	"github.com/kozaktomas/attendanced/internal/database"
)

// SettingsHandler handles the admin work-hour policy endpoints.
type SettingsHandler struct {
	service *attendance.Service
}

// NewSettingsHandler creates a new settings handler.
func NewSettingsHandler(svc *attendance.Service) *SettingsHandler {
	return &SettingsHandler{service: svc}
}

// Get returns the active work-hour policy (stored row or embedded defaults).
func (h *SettingsHandler) Get(w http.ResponseWriter, r *http.Request) {
	policy, err := h.service.Policy(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to load settings")
		return
	}
	respondJSON(w, http.StatusOK, policy)
}

// Put validates and saves the work-hour policy.
func (h *SettingsHandler) Put(w http.ResponseWriter, r *http.Request) {
	var policy database.Settings
	if err := json.NewDecoder(r.Body).Decode(&policy); err != nil {
		respondError(w, http.StatusBadRequest, errInvalidRequestBody)
		return
	}

	if err := h.service.SavePolicy(r.Context(), &policy); err != nil {
		if errors.Is(err, attendance.ErrInvalidPolicy) {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		respondError(w, http.StatusInternalServerError, "failed to save settings")
		return
	}
	respondJSON(w, http.StatusOK, policy)
}
