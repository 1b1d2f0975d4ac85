package handlers

import (
	"encoding/json"
	"io"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/kozaktomas/attendanced/internal/attendance"
	"github.com/kozaktomas/attendanced/internal/database"
)

// joinDateFormat is the wire format for employee join dates.
const joinDateFormat = "2006-01-02"

// EmployeesHandler handles the admin employee CRUD and enrollment endpoints.
type EmployeesHandler struct {
	employees  database.EmployeeStore
	attendance database.AttendanceStore
	service    *attendance.Service
}

// NewEmployeesHandler creates a new employees handler.
func NewEmployeesHandler(employees database.EmployeeStore, att database.AttendanceStore, svc *attendance.Service) *EmployeesHandler {
	return &EmployeesHandler{
		employees:  employees,
		attendance: att,
		service:    svc,
	}
}

func employeeID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// List returns all employees, optionally filtered by a name/email search term.
func (h *EmployeesHandler) List(w http.ResponseWriter, r *http.Request) {
	search := r.URL.Query().Get("search")

	employees, err := h.employees.List(r.Context(), search)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to list employees")
		return
	}
	respondJSON(w, http.StatusOK, employees)
}

type employeeRequest struct {
	Name       string `json:"name"`
	Email      string `json:"email"`
	Phone      string `json:"phone"`
	Position   string `json:"position"`
	Department string `json:"department"`
	Address    string `json:"address"`
	JoinDate   string `json:"join_date"`
	Active     *bool  `json:"active"`
}

func (req *employeeRequest) apply(emp *database.Employee) error {
	emp.Name = strings.TrimSpace(req.Name)
	emp.Email = strings.TrimSpace(strings.ToLower(req.Email))
	emp.Phone = req.Phone
	emp.Position = req.Position
	emp.Department = req.Department
	emp.Address = req.Address

	if req.JoinDate != "" {
		joinDate, err := time.ParseInLocation(joinDateFormat, req.JoinDate, time.Local)
		if err != nil {
			return err
		}
		emp.JoinDate = joinDate
	}

	// Active defaults to true on create; omitted on update means unchanged.
	if req.Active != nil {
		emp.Active = *req.Active
	}
	return nil
}

// Create inserts a new employee.
func (h *EmployeesHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req employeeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, errInvalidRequestBody)
		return
	}

	emp := &database.Employee{Active: true}
	if err := req.apply(emp); err != nil {
		respondError(w, http.StatusBadRequest, "join_date must be YYYY-MM-DD")
		return
	}
	if emp.Name == "" || emp.Email == "" {
		respondError(w, http.StatusBadRequest, "name and email are required")
		return
	}

	if err := h.employees.Create(r.Context(), emp); err != nil {
		respondServiceError(w, err)
		return
	}

	log.Printf("employees: created %d (%s)", emp.ID, sanitizeForLog(emp.Name))
	respondJSON(w, http.StatusCreated, emp)
}

// Get returns one employee.
func (h *EmployeesHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := employeeID(r)
	if !ok {
		respondError(w, http.StatusBadRequest, "invalid employee id")
		return
	}

	emp, err := h.employees.Get(r.Context(), id)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, emp)
}

// Update rewrites an employee's mutable fields.
func (h *EmployeesHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := employeeID(r)
	if !ok {
		respondError(w, http.StatusBadRequest, "invalid employee id")
		return
	}

	emp, err := h.employees.Get(r.Context(), id)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	var req employeeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, errInvalidRequestBody)
		return
	}
	if err := req.apply(emp); err != nil {
		respondError(w, http.StatusBadRequest, "join_date must be YYYY-MM-DD")
		return
	}
	if emp.Name == "" || emp.Email == "" {
		respondError(w, http.StatusBadRequest, "name and email are required")
		return
	}

	if err := h.employees.Update(r.Context(), emp); err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, emp)
}

// Delete removes the employee. Encodings cascade in the database; the
// in-memory duplicate index entry is dropped here. Attendance history stays.
func (h *EmployeesHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := employeeID(r)
	if !ok {
		respondError(w, http.StatusBadRequest, "invalid employee id")
		return
	}

	if err := h.employees.Delete(r.Context(), id); err != nil {
		respondServiceError(w, err)
		return
	}
	if err := h.service.RemoveEnrollment(r.Context(), id); err != nil {
		log.Printf("employees: failed to drop enrollment for deleted %d: %v", id, err)
	}

	log.Printf("employees: deleted %d", id)
	respondJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// UploadPhotoResponse reports the enrollment outcome. Warning is set when the
// new encoding is suspiciously close to another employee's.
type UploadPhotoResponse struct {
	Success bool   `json:"success"`
	Warning string `json:"warning,omitempty"`
}

// UploadPhoto stores a profile photo and enrolls the face on it.
func (h *EmployeesHandler) UploadPhoto(w http.ResponseWriter, r *http.Request) {
	id, ok := employeeID(r)
	if !ok {
		respondError(w, http.StatusBadRequest, "invalid employee id")
		return
	}

	if err := r.ParseMultipartForm(maxImageSize); err != nil {
		respondError(w, http.StatusBadRequest, "failed to parse multipart form")
		return
	}

	file, header, err := r.FormFile("photo")
	if err != nil {
		respondError(w, http.StatusBadRequest, "photo file is required")
		return
	}
	defer file.Close()

	if header.Size > maxImageSize {
		respondErrorCode(w, http.StatusBadRequest, "invalid_image", "photo exceeds 2 MB")
		return
	}

	image, err := io.ReadAll(io.LimitReader(file, maxImageSize+1))
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to read photo")
		return
	}
	if len(image) > maxImageSize {
		respondErrorCode(w, http.StatusBadRequest, "invalid_image", "photo exceeds 2 MB")
		return
	}

	warning, err := h.service.Enroll(r.Context(), id, image, true)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, UploadPhotoResponse{Success: true, Warning: warning})
}

// GetPhoto serves the stored profile photo.
func (h *EmployeesHandler) GetPhoto(w http.ResponseWriter, r *http.Request) {
	id, ok := employeeID(r)
	if !ok {
		respondError(w, http.StatusBadRequest, "invalid employee id")
		return
	}

	photo, err := h.employees.GetPhoto(r.Context(), id)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", http.DetectContentType(photo))
	w.WriteHeader(http.StatusOK)
	w.Write(photo)
}

// GetAttendance returns the employee's attendance history, newest first.
func (h *EmployeesHandler) GetAttendance(w http.ResponseWriter, r *http.Request) {
	id, ok := employeeID(r)
	if !ok {
		respondError(w, http.StatusBadRequest, "invalid employee id")
		return
	}

	if _, err := h.employees.Get(r.Context(), id); err != nil {
		respondServiceError(w, err)
		return
	}

	limit := 30
	if l := r.URL.Query().Get("limit"); l != "" {
		parsed, err := strconv.Atoi(l)
		if err != nil || parsed < 0 {
			respondError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = parsed
	}

	records, err := h.attendance.ListByEmployee(r.Context(), id, limit)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to list attendance")
		return
	}
	respondJSON(w, http.StatusOK, records)
}
