// Package database defines the storage types and repository contracts shared
// by the PostgreSQL backend, the in-memory mocks and the service layer.
package database

import "time"

// Attendance status labels assigned at check-in time.
const (
	StatusPresent = "present"
	StatusLate    = "late"
)

// NoteAutoClosed marks records whose check-out was stamped by the nightly
// close-out job rather than the employee.
const NoteAutoClosed = "auto-closed"

// Employee is one employee record.
type Employee struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Email       string    `json:"email"`
	Phone       string    `json:"phone,omitempty"`
	Position    string    `json:"position,omitempty"`
	Department  string    `json:"department,omitempty"`
	Address     string    `json:"address,omitempty"`
	JoinDate    time.Time `json:"join_date"`
	Active      bool      `json:"active"`
	HasPhoto    bool      `json:"has_photo"`
	HasEncoding bool      `json:"has_encoding"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// StoredEncoding is an enrolled face encoding with its owning employee.
// CreatedAt is the first enrollment; UpdatedAt moves on every re-enrollment.
type StoredEncoding struct {
	EmployeeID int64
	Encoding   []float32
	Model      string
	Dim        int
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// AttendanceRecord is one employee's attendance for a single calendar day.
// CheckOutAt is nil while the day is still open.
type AttendanceRecord struct {
	ID         int64     `json:"id"`
	EmployeeID int64     `json:"employee_id"`
	// EmployeeName is joined in for reports; not a column on the table.
	EmployeeName string `json:"employee_name,omitempty"`

	Day       time.Time `json:"day"`
	Status    string    `json:"status"`
	CheckInAt time.Time `json:"check_in_at"`

	CheckInLat      *float64 `json:"check_in_lat,omitempty"`
	CheckInLng      *float64 `json:"check_in_lng,omitempty"`
	CheckInLocation string   `json:"check_in_location,omitempty"`

	CheckOutAt       *time.Time `json:"check_out_at,omitempty"`
	CheckOutLat      *float64   `json:"check_out_lat,omitempty"`
	CheckOutLng      *float64   `json:"check_out_lng,omitempty"`
	CheckOutLocation string     `json:"check_out_location,omitempty"`

	MealAllowance      bool   `json:"meal_allowance"`
	TransportAllowance bool   `json:"transport_allowance"`
	Note               string `json:"note,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CheckedOut reports whether the record has reached its terminal state.
func (r *AttendanceRecord) CheckedOut() bool {
	return r.CheckOutAt != nil
}

// Settings is the singleton work-hour policy row.
type Settings struct {
	WorkdayStart         string `json:"workday_start" yaml:"start"`
	WorkdayEnd           string `json:"workday_end" yaml:"end"`
	LateToleranceMinutes int    `json:"late_tolerance_minutes" yaml:"late_tolerance_minutes"`
	MaxShiftHours        int    `json:"max_shift_hours" yaml:"max_shift_hours"`
}

// DashboardCounts summarizes one day's attendance for the admin dashboard.
type DashboardCounts struct {
	Day             time.Time `json:"day"`
	ActiveEmployees int       `json:"active_employees"`
	Present         int       `json:"present"`
	Late            int       `json:"late"`
	Absent          int       `json:"absent"`
	CheckedOut      int       `json:"checked_out"`
}

// Day truncates t to its calendar date in the local timezone. All attendance
// keying goes through this so a day means the same thing everywhere.
func Day(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
