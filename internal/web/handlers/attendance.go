package handlers

import (
	"encoding/json"
	"log"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/kozaktomas/attendanced/internal/attendance"
	"github.com/kozaktomas/attendanced/internal/database"
	"github.com/kozaktomas/attendanced/internal/web/middleware"
)

// AttendanceHandler handles the employee check-in/check-out endpoints and the
// admin record mutations.
type AttendanceHandler struct {
	service    *attendance.Service
	attendance database.AttendanceStore
}

// NewAttendanceHandler creates a new attendance handler.
func NewAttendanceHandler(svc *attendance.Service, att database.AttendanceStore) *AttendanceHandler {
	return &AttendanceHandler{
		service:    svc,
		attendance: att,
	}
}

type checkRequest struct {
	Lat      *float64 `json:"lat"`
	Lng      *float64 `json:"lng"`
	Location string   `json:"location"`

	// Allowance flags, check-out only.
	MealAllowance      bool `json:"meal_allowance"`
	TransportAllowance bool `json:"transport_allowance"`
}

func faceEmployee(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, ok := middleware.EmployeeIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "face authentication required")
		return 0, false
	}
	return id, true
}

// CheckIn opens today's attendance record for the face-authenticated employee.
func (h *AttendanceHandler) CheckIn(w http.ResponseWriter, r *http.Request) {
	employeeID, ok := faceEmployee(w, r)
	if !ok {
		return
	}

	var req checkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, errInvalidRequestBody)
		return
	}

	rec, err := h.service.CheckIn(r.Context(), employeeID, req.Lat, req.Lng, req.Location)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	log.Printf("attendance: employee %d checked in (%s)", employeeID, rec.Status)
	respondJSON(w, http.StatusCreated, rec)
}

// CheckOut closes today's record for the face-authenticated employee.
func (h *AttendanceHandler) CheckOut(w http.ResponseWriter, r *http.Request) {
	employeeID, ok := faceEmployee(w, r)
	if !ok {
		return
	}

	var req checkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, errInvalidRequestBody)
		return
	}

	rec, err := h.service.CheckOut(r.Context(), employeeID, req.Lat, req.Lng, req.Location,
		req.MealAllowance, req.TransportAllowance)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	log.Printf("attendance: employee %d checked out", employeeID)
	respondJSON(w, http.StatusOK, rec)
}

// MeResponse is today's state plus recent history for the kiosk screen.
type MeResponse struct {
	Today   *database.AttendanceRecord  `json:"today"`
	History []database.AttendanceRecord `json:"history"`
}

// Me returns the face-authenticated employee's record for today and their
// recent history.
func (h *AttendanceHandler) Me(w http.ResponseWriter, r *http.Request) {
	employeeID, ok := faceEmployee(w, r)
	if !ok {
		return
	}

	today, history, err := h.service.Today(r.Context(), employeeID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to load attendance")
		return
	}
	respondJSON(w, http.StatusOK, MeResponse{Today: today, History: history})
}

func recordID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

type allowanceRequest struct {
	MealAllowance      bool `json:"meal_allowance"`
	TransportAllowance bool `json:"transport_allowance"`
}

// SetAllowance toggles a record's allowance flags (admin).
func (h *AttendanceHandler) SetAllowance(w http.ResponseWriter, r *http.Request) {
	id, ok := recordID(r)
	if !ok {
		respondError(w, http.StatusBadRequest, "invalid record id")
		return
	}

	var req allowanceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, errInvalidRequestBody)
		return
	}

	if err := h.attendance.SetAllowances(r.Context(), id, req.MealAllowance, req.TransportAllowance); err != nil {
		respondServiceError(w, err)
		return
	}

	rec, err := h.attendance.Get(r.Context(), id)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, rec)
}

// Delete removes an attendance record (admin).
func (h *AttendanceHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := recordID(r)
	if !ok {
		respondError(w, http.StatusBadRequest, "invalid record id")
		return
	}

	if err := h.attendance.Delete(r.Context(), id); err != nil {
		respondServiceError(w, err)
		return
	}

	log.Printf("attendance: deleted record %d", id)
	respondJSON(w, http.StatusOK, map[string]bool{"success": true})
}
