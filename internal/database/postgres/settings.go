package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/kozaktomas/attendanced/internal/database"
)

// SettingsRepository provides PostgreSQL-backed work-hour policy storage.
// A single row with id 1; the CHECK constraint keeps it that way.
type SettingsRepository struct {
	pool *Pool
}

// NewSettingsRepository creates a new PostgreSQL settings repository.
func NewSettingsRepository(pool *Pool) *SettingsRepository {
	return &SettingsRepository{pool: pool}
}

// Get returns the stored policy or ErrNotFound when none was saved yet.
func (r *SettingsRepository) Get(ctx context.Context) (*database.Settings, error) {
	var s database.Settings
	err := r.pool.QueryRow(ctx, `
		SELECT workday_start, workday_end, late_tolerance_minutes, max_shift_hours
		FROM settings
		WHERE id = 1
	`).Scan(&s.WorkdayStart, &s.WorkdayEnd, &s.LateToleranceMinutes, &s.MaxShiftHours)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, database.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query settings: %w", err)
	}
	return &s, nil
}

// Save upserts the policy row.
func (r *SettingsRepository) Save(ctx context.Context, s *database.Settings) error {
	query := `
		INSERT INTO settings (id, workday_start, workday_end, late_tolerance_minutes, max_shift_hours)
		VALUES (1, $1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE SET
			workday_start = EXCLUDED.workday_start,
			workday_end = EXCLUDED.workday_end,
			late_tolerance_minutes = EXCLUDED.late_tolerance_minutes,
			max_shift_hours = EXCLUDED.max_shift_hours,
			updated_at = NOW()
	`
	if _, err := r.pool.Exec(ctx, query,
		s.WorkdayStart, s.WorkdayEnd, s.LateToleranceMinutes, s.MaxShiftHours); err != nil {
		return fmt.Errorf("save settings: %w", err)
	}
	return nil
}

// Verify interface compliance
var _ database.SettingsStore = (*SettingsRepository)(nil)
