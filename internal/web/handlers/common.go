// Package handlers implements the HTTP handlers of the attendance API.
package handlers

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/kozaktomas/attendanced/internal/attendance"
	"github.com/kozaktomas/attendanced/internal/database"
	"github.com/kozaktomas/attendanced/internal/encoder"
	"github.com/kozaktomas/attendanced/internal/matcher"
)

// errInvalidRequestBody is a shared error message for invalid JSON request bodies.
const errInvalidRequestBody = "invalid request body"

// maxImageSize bounds face images and profile photos.
const maxImageSize = 2 << 20 // 2 MB

// sanitizeForLog removes newlines and carriage returns to prevent log injection.
func sanitizeForLog(s string) string {
	return strings.NewReplacer("\n", "", "\r", "").Replace(s)
}

// respondJSON sends a JSON response.
func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

// respondError sends an error response.
func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// respondErrorCode sends an error response with a machine-readable code.
func respondErrorCode(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, map[string]string{"error": code, "message": message})
}

// respondServiceError maps domain errors onto the wire error codes. Anything
// unrecognized is a storage or encoder transport failure and stays opaque.
func respondServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, encoder.ErrInvalidImage):
		respondErrorCode(w, http.StatusBadRequest, "invalid_image", err.Error())
	case errors.Is(err, encoder.ErrNoFaceDetected):
		respondErrorCode(w, http.StatusBadRequest, "no_face_detected", err.Error())
	case errors.Is(err, encoder.ErrMultipleFacesDetected):
		respondErrorCode(w, http.StatusBadRequest, "multiple_faces_detected", err.Error())
	case errors.Is(err, encoder.ErrEncodingExtractionFailed):
		respondErrorCode(w, http.StatusBadRequest, "encoding_extraction_failed", err.Error())
	case errors.Is(err, matcher.ErrNoMatch):
		respondErrorCode(w, http.StatusUnauthorized, "no_match", "face not recognized")
	case errors.Is(err, attendance.ErrOutsideGeofence):
		respondErrorCode(w, http.StatusForbidden, "outside_geofence", err.Error())
	case errors.Is(err, database.ErrDuplicateCheckIn):
		respondErrorCode(w, http.StatusConflict, "duplicate_check_in", "already checked in today")
	case errors.Is(err, database.ErrAttendanceComplete):
		respondErrorCode(w, http.StatusConflict, "attendance_complete", "attendance already complete for today")
	case errors.Is(err, database.ErrCheckOutBeforeCheckIn):
		respondErrorCode(w, http.StatusConflict, "check_out_before_check_in", "no check-in found for today")
	case errors.Is(err, database.ErrDuplicateEmail):
		respondErrorCode(w, http.StatusConflict, "duplicate_email", "email is already in use")
	case errors.Is(err, database.ErrNotFound):
		respondErrorCode(w, http.StatusNotFound, "not_found", "not found")
	default:
		respondErrorCode(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

// decodeImageField decodes a base64 image payload, tolerating the
// "data:image/jpeg;base64," prefix webcam captures carry.
func decodeImageField(data string) ([]byte, error) {
	if idx := strings.Index(data, ";base64,"); idx >= 0 {
		data = data[idx+len(";base64,"):]
	}
	raw, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		return nil, errors.New("image is not valid base64")
	}
	if len(raw) == 0 {
		return nil, errors.New("image is empty")
	}
	if len(raw) > maxImageSize {
		return nil, errors.New("image exceeds 2 MB")
	}
	return raw, nil
}

// HealthCheck handles the health check endpoint.
func HealthCheck(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status": "ok",
	})
}
