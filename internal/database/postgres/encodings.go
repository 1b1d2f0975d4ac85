package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/kozaktomas/attendanced/internal/database"
	"github.com/pgvector/pgvector-go"
)

// EncodingRepository provides PostgreSQL-backed face encoding storage using
// the pgvector extension, one encoding per employee.
type EncodingRepository struct {
	pool *Pool
}

// NewEncodingRepository creates a new PostgreSQL encoding repository.
func NewEncodingRepository(pool *Pool) *EncodingRepository {
	return &EncodingRepository{pool: pool}
}

// Save upserts the employee's encoding, overwriting any prior one. The
// original created_at survives re-enrollment; updated_at tracks it.
func (r *EncodingRepository) Save(ctx context.Context, enc database.StoredEncoding) error {
	query := `
		INSERT INTO face_encodings (employee_id, encoding, model, dim)
		VALUES ($1, $2::vector, $3, $4)
		ON CONFLICT (employee_id) DO UPDATE SET
			encoding = EXCLUDED.encoding,
			model = EXCLUDED.model,
			dim = EXCLUDED.dim,
			updated_at = NOW()
	`
	vec := pgvector.NewVector(enc.Encoding)
	if _, err := r.pool.Exec(ctx, query, enc.EmployeeID, vec, enc.Model, enc.Dim); err != nil {
		return fmt.Errorf("save encoding: %w", err)
	}
	return nil
}

// Get returns the employee's encoding.
func (r *EncodingRepository) Get(ctx context.Context, employeeID int64) (*database.StoredEncoding, error) {
	query := `
		SELECT employee_id, encoding, model, dim, created_at, updated_at
		FROM face_encodings
		WHERE employee_id = $1
	`

	var enc database.StoredEncoding
	var vec pgvector.Vector

	err := r.pool.QueryRow(ctx, query, employeeID).Scan(
		&enc.EmployeeID,
		&vec,
		&enc.Model,
		&enc.Dim,
		&enc.CreatedAt,
		&enc.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, database.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query encoding: %w", err)
	}

	enc.Encoding = vec.Slice()
	return &enc, nil
}

// GetAll returns every stored encoding ordered by employee id.
func (r *EncodingRepository) GetAll(ctx context.Context) ([]database.StoredEncoding, error) {
	query := `
		SELECT employee_id, encoding, model, dim, created_at, updated_at
		FROM face_encodings
		ORDER BY employee_id
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query all encodings: %w", err)
	}
	defer rows.Close()

	var encodings []database.StoredEncoding
	for rows.Next() {
		var enc database.StoredEncoding
		var vec pgvector.Vector

		if err := rows.Scan(&enc.EmployeeID, &vec, &enc.Model, &enc.Dim, &enc.CreatedAt, &enc.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan encoding: %w", err)
		}

		enc.Encoding = vec.Slice()
		encodings = append(encodings, enc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate encodings: %w", err)
	}
	return encodings, nil
}

// Delete removes the employee's encoding if present.
func (r *EncodingRepository) Delete(ctx context.Context, employeeID int64) error {
	if _, err := r.pool.Exec(ctx, "DELETE FROM face_encodings WHERE employee_id = $1", employeeID); err != nil {
		return fmt.Errorf("delete encoding: %w", err)
	}
	return nil
}

// Count returns the number of enrolled employees.
func (r *EncodingRepository) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM face_encodings").Scan(&count); err != nil {
		return 0, fmt.Errorf("count encodings: %w", err)
	}
	return count, nil
}

// Verify interface compliance
var _ database.EncodingStore = (*EncodingRepository)(nil)
