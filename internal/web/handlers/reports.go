package handlers

import (
	"net/http"
	"time"

	"github.com/kozaktomas/attendanced/internal/database"
)

// ReportsHandler handles the admin reporting endpoints.
type ReportsHandler struct {
	employees  database.EmployeeStore
	attendance database.AttendanceStore
}

// NewReportsHandler creates a new reports handler.
func NewReportsHandler(employees database.EmployeeStore, att database.AttendanceStore) *ReportsHandler {
	return &ReportsHandler{
		employees:  employees,
		attendance: att,
	}
}

// reportDay parses the optional ?date=YYYY-MM-DD parameter, defaulting to today.
func reportDay(r *http.Request) (time.Time, bool) {
	raw := r.URL.Query().Get("date")
	if raw == "" {
		return database.Day(time.Now()), true
	}
	day, err := time.ParseInLocation(joinDateFormat, raw, time.Local)
	if err != nil {
		return time.Time{}, false
	}
	return day, true
}

// DailyReport is all attendance records of one day.
type DailyReport struct {
	Day     string                      `json:"day"`
	Records []database.AttendanceRecord `json:"records"`
}

// Daily returns all records for a date, joined with employee names.
func (h *ReportsHandler) Daily(w http.ResponseWriter, r *http.Request) {
	day, ok := reportDay(r)
	if !ok {
		respondError(w, http.StatusBadRequest, "date must be YYYY-MM-DD")
		return
	}

	records, err := h.attendance.ListByDay(r.Context(), day)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to load report")
		return
	}

	respondJSON(w, http.StatusOK, DailyReport{
		Day:     day.Format(joinDateFormat),
		Records: records,
	})
}

// Dashboard returns today's headline counts.
func (h *ReportsHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	day, ok := reportDay(r)
	if !ok {
		respondError(w, http.StatusBadRequest, "date must be YYYY-MM-DD")
		return
	}

	active, err := h.employees.CountActive(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to count employees")
		return
	}

	counts, err := h.attendance.CountsForDay(r.Context(), day, active)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to load dashboard")
		return
	}
	respondJSON(w, http.StatusOK, counts)
}
