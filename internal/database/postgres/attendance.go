package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/kozaktomas/attendanced/internal/database"
)

// AttendanceRepository provides PostgreSQL-backed attendance storage. The
// UNIQUE (employee_id, day) constraint is what makes check-in atomic under
// concurrent requests.
type AttendanceRepository struct {
	pool *Pool
}

// NewAttendanceRepository creates a new PostgreSQL attendance repository.
func NewAttendanceRepository(pool *Pool) *AttendanceRepository {
	return &AttendanceRepository{pool: pool}
}

const dayFormat = "2006-01-02"

const attendanceColumns = `
	a.id, a.employee_id, COALESCE(e.name, ''), a.day, a.status,
	a.check_in_at, a.check_in_lat, a.check_in_lng, a.check_in_location,
	a.check_out_at, a.check_out_lat, a.check_out_lng, a.check_out_location,
	a.meal_allowance, a.transport_allowance, a.note,
	a.created_at, a.updated_at`

const attendanceFrom = ` FROM attendance_records a LEFT JOIN employees e ON e.id = a.employee_id `

func scanAttendance(row interface{ Scan(...any) error }) (*database.AttendanceRecord, error) {
	var rec database.AttendanceRecord
	err := row.Scan(
		&rec.ID,
		&rec.EmployeeID,
		&rec.EmployeeName,
		&rec.Day,
		&rec.Status,
		&rec.CheckInAt,
		&rec.CheckInLat,
		&rec.CheckInLng,
		&rec.CheckInLocation,
		&rec.CheckOutAt,
		&rec.CheckOutLat,
		&rec.CheckOutLng,
		&rec.CheckOutLocation,
		&rec.MealAllowance,
		&rec.TransportAllowance,
		&rec.Note,
		&rec.CreatedAt,
		&rec.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// CheckIn inserts the day's record, insert-or-fail.
func (r *AttendanceRepository) CheckIn(ctx context.Context, rec *database.AttendanceRecord) error {
	query := `
		INSERT INTO attendance_records
			(employee_id, day, status, check_in_at, check_in_lat, check_in_lng, check_in_location, note)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at, updated_at
	`
	err := r.pool.QueryRow(ctx, query,
		rec.EmployeeID, rec.Day.Format(dayFormat), rec.Status, rec.CheckInAt,
		rec.CheckInLat, rec.CheckInLng, rec.CheckInLocation, rec.Note,
	).Scan(&rec.ID, &rec.CreatedAt, &rec.UpdatedAt)
	if isUniqueViolation(err) {
		return database.ErrDuplicateCheckIn
	}
	if err != nil {
		return fmt.Errorf("insert attendance record: %w", err)
	}
	return nil
}

// CheckOut closes the employee's open record for the day. The conditional
// WHERE check_out_at IS NULL keeps the transition atomic under races, and
// the allowance flags land in the same statement so a partially applied
// check-out cannot exist.
func (r *AttendanceRepository) CheckOut(ctx context.Context, employeeID int64, day time.Time, out database.CheckOut) (*database.AttendanceRecord, error) {
	query := `
		UPDATE attendance_records
		SET check_out_at = $1, check_out_lat = $2, check_out_lng = $3,
		    check_out_location = $4,
		    meal_allowance = $5, transport_allowance = $6,
		    note = CASE WHEN $7 <> '' THEN $7 ELSE note END,
		    updated_at = NOW()
		WHERE employee_id = $8 AND day = $9 AND check_out_at IS NULL
	`
	result, err := r.pool.Exec(ctx, query,
		out.At, out.Lat, out.Lng, out.Location, out.Meal, out.Transport, out.Note,
		employeeID, day.Format(dayFormat),
	)
	if err != nil {
		return nil, fmt.Errorf("update attendance record: %w", err)
	}
	count, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("getting rows affected: %w", err)
	}

	if count == 0 {
		// Distinguish "never checked in" from "already checked out".
		if _, err := r.GetForDay(ctx, employeeID, day); errors.Is(err, database.ErrNotFound) {
			return nil, database.ErrCheckOutBeforeCheckIn
		} else if err != nil {
			return nil, err
		}
		return nil, database.ErrAttendanceComplete
	}

	return r.GetForDay(ctx, employeeID, day)
}

// GetForDay returns the employee's record for the day.
func (r *AttendanceRepository) GetForDay(ctx context.Context, employeeID int64, day time.Time) (*database.AttendanceRecord, error) {
	row := r.pool.QueryRow(ctx,
		"SELECT "+attendanceColumns+attendanceFrom+"WHERE a.employee_id = $1 AND a.day = $2",
		employeeID, day.Format(dayFormat))
	rec, err := scanAttendance(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, database.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query attendance record: %w", err)
	}
	return rec, nil
}

// Get returns one record by id.
func (r *AttendanceRepository) Get(ctx context.Context, id int64) (*database.AttendanceRecord, error) {
	row := r.pool.QueryRow(ctx, "SELECT "+attendanceColumns+attendanceFrom+"WHERE a.id = $1", id)
	rec, err := scanAttendance(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, database.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query attendance record: %w", err)
	}
	return rec, nil
}

// ListByDay returns all records for a day with employee names joined.
func (r *AttendanceRepository) ListByDay(ctx context.Context, day time.Time) ([]database.AttendanceRecord, error) {
	rows, err := r.pool.Query(ctx,
		"SELECT "+attendanceColumns+attendanceFrom+"WHERE a.day = $1 ORDER BY a.check_in_at",
		day.Format(dayFormat))
	if err != nil {
		return nil, fmt.Errorf("query attendance by day: %w", err)
	}
	defer rows.Close()

	return collectAttendance(rows)
}

// ListByEmployee returns the employee's records, newest first.
func (r *AttendanceRepository) ListByEmployee(ctx context.Context, employeeID int64, limit int) ([]database.AttendanceRecord, error) {
	query := "SELECT " + attendanceColumns + attendanceFrom + "WHERE a.employee_id = $1 ORDER BY a.day DESC"
	args := []any{employeeID}
	if limit > 0 {
		query += " LIMIT $2"
		args = append(args, limit)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query attendance by employee: %w", err)
	}
	defer rows.Close()

	return collectAttendance(rows)
}

func collectAttendance(rows *sql.Rows) ([]database.AttendanceRecord, error) {
	var records []database.AttendanceRecord
	for rows.Next() {
		rec, err := scanAttendance(rows)
		if err != nil {
			return nil, fmt.Errorf("scan attendance record: %w", err)
		}
		records = append(records, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate attendance records: %w", err)
	}
	return records, nil
}

// SetAllowances updates the record's allowance flags.
func (r *AttendanceRepository) SetAllowances(ctx context.Context, id int64, meal, transport bool) error {
	result, err := r.pool.Exec(ctx, `
		UPDATE attendance_records
		SET meal_allowance = $1, transport_allowance = $2, updated_at = NOW()
		WHERE id = $3
	`, meal, transport, id)
	if err != nil {
		return fmt.Errorf("update allowances: %w", err)
	}
	count, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("getting rows affected: %w", err)
	}
	if count == 0 {
		return database.ErrNotFound
	}
	return nil
}

// Delete removes a record by id.
func (r *AttendanceRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.pool.Exec(ctx, "DELETE FROM attendance_records WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("delete attendance record: %w", err)
	}
	count, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("getting rows affected: %w", err)
	}
	if count == 0 {
		return database.ErrNotFound
	}
	return nil
}

// CloseDangling stamps a check-out on every record still open before the
// given day. Existing notes are kept. The stamp never lands before the
// check-in: a record opened past the workday end gets its own check-in time.
func (r *AttendanceRepository) CloseDangling(ctx context.Context, before time.Time, out database.CheckOut) (int64, error) {
	result, err := r.pool.Exec(ctx, `
		UPDATE attendance_records
		SET check_out_at = GREATEST($1::timestamptz, check_in_at),
		    note = CASE WHEN note = '' THEN $2 ELSE note END,
		    updated_at = NOW()
		WHERE check_out_at IS NULL AND day < $3
	`, out.At, out.Note, before.Format(dayFormat))
	if err != nil {
		return 0, fmt.Errorf("close dangling records: %w", err)
	}
	count, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("getting rows affected: %w", err)
	}
	return count, nil
}

// CountsForDay computes the dashboard counts for a day.
func (r *AttendanceRepository) CountsForDay(ctx context.Context, day time.Time, activeEmployees int) (*database.DashboardCounts, error) {
	counts := database.DashboardCounts{
		Day:             database.Day(day),
		ActiveEmployees: activeEmployees,
	}

	err := r.pool.QueryRow(ctx, `
		SELECT
			COUNT(*) FILTER (WHERE status = $2),
			COUNT(*) FILTER (WHERE status = $3),
			COUNT(*) FILTER (WHERE check_out_at IS NOT NULL)
		FROM attendance_records
		WHERE day = $1
	`, day.Format(dayFormat), database.StatusPresent, database.StatusLate).Scan(
		&counts.Present, &counts.Late, &counts.CheckedOut)
	if err != nil {
		return nil, fmt.Errorf("count attendance for day: %w", err)
	}

	counts.Absent = activeEmployees - counts.Present - counts.Late
	if counts.Absent < 0 {
		counts.Absent = 0
	}
	return &counts, nil
}

// Verify interface compliance
var _ database.AttendanceStore = (*AttendanceRepository)(nil)
