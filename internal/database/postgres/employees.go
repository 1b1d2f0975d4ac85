package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/kozaktomas/attendanced/internal/database"
	"github.com/lib/pq"
)

// EmployeeRepository provides PostgreSQL-backed employee storage.
type EmployeeRepository struct {
	pool *Pool
}

// NewEmployeeRepository creates a new PostgreSQL employee repository.
func NewEmployeeRepository(pool *Pool) *EmployeeRepository {
	return &EmployeeRepository{pool: pool}
}

const employeeColumns = `
	e.id, e.name, e.email, e.phone, e.position, e.department, e.address,
	e.join_date, e.active,
	e.photo IS NOT NULL,
	EXISTS(SELECT 1 FROM face_encodings f WHERE f.employee_id = e.id),
	e.created_at, e.updated_at`

func scanEmployee(row interface{ Scan(...any) error }) (*database.Employee, error) {
	var emp database.Employee
	err := row.Scan(
		&emp.ID,
		&emp.Name,
		&emp.Email,
		&emp.Phone,
		&emp.Position,
		&emp.Department,
		&emp.Address,
		&emp.JoinDate,
		&emp.Active,
		&emp.HasPhoto,
		&emp.HasEncoding,
		&emp.CreatedAt,
		&emp.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &emp, nil
}

// List returns employees ordered by name. Search filtering is done in Go so
// it can be diacritics-insensitive.
func (r *EmployeeRepository) List(ctx context.Context, search string) ([]database.Employee, error) {
	rows, err := r.pool.Query(ctx, "SELECT "+employeeColumns+" FROM employees e ORDER BY e.name, e.id")
	if err != nil {
		return nil, fmt.Errorf("query employees: %w", err)
	}
	defer rows.Close()

	var employees []database.Employee
	for rows.Next() {
		emp, err := scanEmployee(rows)
		if err != nil {
			return nil, fmt.Errorf("scan employee: %w", err)
		}
		if search != "" && !emp.MatchesSearch(search) {
			continue
		}
		employees = append(employees, *emp)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate employees: %w", err)
	}
	return employees, nil
}

// Get returns one employee by id.
func (r *EmployeeRepository) Get(ctx context.Context, id int64) (*database.Employee, error) {
	row := r.pool.QueryRow(ctx, "SELECT "+employeeColumns+" FROM employees e WHERE e.id = $1", id)
	emp, err := scanEmployee(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, database.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query employee: %w", err)
	}
	return emp, nil
}

// Create inserts a new employee and fills in its ID and timestamps.
func (r *EmployeeRepository) Create(ctx context.Context, emp *database.Employee) error {
	if emp.JoinDate.IsZero() {
		emp.JoinDate = time.Now()
	}

	query := `
		INSERT INTO employees (name, email, phone, position, department, address, join_date, active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at, updated_at
	`
	err := r.pool.QueryRow(ctx, query,
		emp.Name, emp.Email, emp.Phone, emp.Position, emp.Department,
		emp.Address, emp.JoinDate, emp.Active,
	).Scan(&emp.ID, &emp.CreatedAt, &emp.UpdatedAt)
	if isUniqueViolation(err) {
		return database.ErrDuplicateEmail
	}
	if err != nil {
		return fmt.Errorf("insert employee: %w", err)
	}
	return nil
}

// Update rewrites the mutable fields of an existing employee.
func (r *EmployeeRepository) Update(ctx context.Context, emp *database.Employee) error {
	query := `
		UPDATE employees
		SET name = $1, email = $2, phone = $3, position = $4, department = $5,
		    address = $6, join_date = $7, active = $8, updated_at = NOW()
		WHERE id = $9
		RETURNING updated_at
	`
	err := r.pool.QueryRow(ctx, query,
		emp.Name, emp.Email, emp.Phone, emp.Position, emp.Department,
		emp.Address, emp.JoinDate, emp.Active, emp.ID,
	).Scan(&emp.UpdatedAt)
	if isUniqueViolation(err) {
		return database.ErrDuplicateEmail
	}
	if errors.Is(err, sql.ErrNoRows) {
		return database.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("update employee: %w", err)
	}
	return nil
}

// Delete removes the employee. The face encoding cascades with the row.
func (r *EmployeeRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.pool.Exec(ctx, "DELETE FROM employees WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("delete employee: %w", err)
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

// SavePhoto stores the employee's profile photo bytes.
func (r *EmployeeRepository) SavePhoto(ctx context.Context, id int64, photo []byte) error {
	result, err := r.pool.Exec(ctx,
		"UPDATE employees SET photo = $1, updated_at = NOW() WHERE id = $2", photo, id)
	if err != nil {
		return fmt.Errorf("save employee photo: %w", err)
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

// GetPhoto returns the stored photo bytes.
func (r *EmployeeRepository) GetPhoto(ctx context.Context, id int64) ([]byte, error) {
	var photo []byte
	err := r.pool.QueryRow(ctx, "SELECT photo FROM employees WHERE id = $1", id).Scan(&photo)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, database.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query employee photo: %w", err)
	}
	if photo == nil {
		return nil, database.ErrNotFound
	}
	return photo, nil
}

// CountActive returns the number of active employees.
func (r *EmployeeRepository) CountActive(ctx context.Context) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM employees WHERE active").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count active employees: %w", err)
	}
	return count, nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}

// Verify interface compliance
var _ database.EmployeeStore = (*EmployeeRepository)(nil)
