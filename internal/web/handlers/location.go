package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/kozaktomas/attendanced/internal/attendance"
)

// LocationHandler handles the geofence preflight endpoint the kiosk calls
// before capturing a face.
type LocationHandler struct {
	service *attendance.Service
}

// NewLocationHandler creates a new location handler.
func NewLocationHandler(svc *attendance.Service) *LocationHandler {
	return &LocationHandler{service: svc}
}

type validateLocationRequest struct {
	Lat *float64 `json:"lat"`
	Lng *float64 `json:"lng"`
}

// ValidateLocationResponse reports the distance to the office and whether the
// coordinate falls inside the allowed radius.
type ValidateLocationResponse struct {
	OK         bool    `json:"ok"`
	DistanceKm float64 `json:"distance_km"`
	Reason     string  `json:"reason,omitempty"`
}

// Validate checks a coordinate against the office geofence.
func (h *LocationHandler) Validate(w http.ResponseWriter, r *http.Request) {
	var req validateLocationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, errInvalidRequestBody)
		return
	}
	if req.Lat == nil || req.Lng == nil {
		respondError(w, http.StatusBadRequest, "lat and lng are required")
		return
	}

	ok, distance, reason := h.service.ValidateLocation(*req.Lat, *req.Lng)
	respondJSON(w, http.StatusOK, ValidateLocationResponse{
		OK:         ok,
		DistanceKm: distance,
		Reason:     reason,
	})
}
