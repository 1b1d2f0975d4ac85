package database

import (
	"context"
	"time"
)

// EmployeeStore manages employee records and their photos.
type EmployeeStore interface {
	// List returns employees ordered by name. A non-empty search filters by
	// name or email, diacritics-insensitive.
	List(ctx context.Context, search string) ([]Employee, error)

	// Get returns one employee or ErrNotFound.
	Get(ctx context.Context, id int64) (*Employee, error)

	// Create inserts a new employee and fills in its ID.
	// Returns ErrDuplicateEmail when the email is taken.
	Create(ctx context.Context, emp *Employee) error

	// Update rewrites the mutable fields of an existing employee.
	// Returns ErrNotFound or ErrDuplicateEmail.
	Update(ctx context.Context, emp *Employee) error

	// Delete removes the employee. Encodings cascade; attendance history
	// stays. Returns ErrNotFound.
	Delete(ctx context.Context, id int64) error

	// SavePhoto stores the employee's profile photo bytes.
	SavePhoto(ctx context.Context, id int64, photo []byte) error

	// GetPhoto returns the stored photo bytes or ErrNotFound.
	GetPhoto(ctx context.Context, id int64) ([]byte, error)

	// CountActive returns the number of active employees.
	CountActive(ctx context.Context) (int, error)
}

// EncodingStore manages enrolled face encodings, one per employee.
type EncodingStore interface {
	// Save upserts the employee's encoding, overwriting any prior one.
	Save(ctx context.Context, enc StoredEncoding) error

	// Get returns the employee's encoding or ErrNotFound.
	Get(ctx context.Context, employeeID int64) (*StoredEncoding, error)

	// GetAll returns every stored encoding, for the matcher's exact scan
	// and the duplicate index build.
	GetAll(ctx context.Context) ([]StoredEncoding, error)

	// Delete removes the employee's encoding if present.
	Delete(ctx context.Context, employeeID int64) error

	// Count returns the number of enrolled employees.
	Count(ctx context.Context) (int, error)
}

// CheckOut carries the fields written when an open record is closed. The
// allowance flags are part of the close so the whole transition is a single
// storage write.
type CheckOut struct {
	At        time.Time
	Lat       *float64
	Lng       *float64
	Location  string
	Note      string
	Meal      bool
	Transport bool
}

// AttendanceStore manages per-day attendance records. The day-state machine
// lives here: the UNIQUE (employee_id, day) constraint makes CheckIn
// insert-or-fail, and CheckOut only closes a still-open record.
type AttendanceStore interface {
	// CheckIn inserts the day's record. Returns ErrDuplicateCheckIn when a
	// record for (employee, day) already exists.
	CheckIn(ctx context.Context, rec *AttendanceRecord) error

	// CheckOut closes the employee's open record for the given day in one
	// write, allowance flags included. Returns ErrCheckOutBeforeCheckIn
	// when no record exists and ErrAttendanceComplete when it is already
	// closed.
	CheckOut(ctx context.Context, employeeID int64, day time.Time, out CheckOut) (*AttendanceRecord, error)

	// GetForDay returns the employee's record for the day or ErrNotFound.
	GetForDay(ctx context.Context, employeeID int64, day time.Time) (*AttendanceRecord, error)

	// Get returns one record by id or ErrNotFound.
	Get(ctx context.Context, id int64) (*AttendanceRecord, error)

	// ListByDay returns all records for a day with employee names joined,
	// ordered by check-in time.
	ListByDay(ctx context.Context, day time.Time) ([]AttendanceRecord, error)

	// ListByEmployee returns the employee's records, newest first,
	// capped at limit (0 means no cap).
	ListByEmployee(ctx context.Context, employeeID int64, limit int) ([]AttendanceRecord, error)

	// SetAllowances updates the record's allowance flags. Returns ErrNotFound.
	SetAllowances(ctx context.Context, id int64, meal, transport bool) error

	// Delete removes a record by id. Returns ErrNotFound.
	Delete(ctx context.Context, id int64) error

	// CloseDangling stamps a check-out on every record still open before
	// the given day and returns how many were closed. The stamp is clamped
	// to the record's check-in time so it never precedes it.
	CloseDangling(ctx context.Context, before time.Time, out CheckOut) (int64, error)

	// CountsForDay computes the dashboard counts for a day.
	CountsForDay(ctx context.Context, day time.Time, activeEmployees int) (*DashboardCounts, error)
}

// SettingsStore manages the singleton work-hour policy row.
type SettingsStore interface {
	// Get returns the stored policy or ErrNotFound when none was saved yet.
	Get(ctx context.Context) (*Settings, error)

	// Save upserts the policy row.
	Save(ctx context.Context, s *Settings) error
}
