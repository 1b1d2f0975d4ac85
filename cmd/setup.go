package cmd

import (
	"errors"
	"fmt"

	"github.com/kozaktomas/attendanced/internal/attendance"
	"github.com/kozaktomas/attendanced/internal/config"
	"github.com/kozaktomas/attendanced/internal/database"
	"github.com/kozaktomas/attendanced/internal/database/postgres"
	"github.com/kozaktomas/attendanced/internal/encoder"
	"github.com/kozaktomas/attendanced/internal/geofence"
	"github.com/kozaktomas/attendanced/internal/matcher"
)

// connect initializes the PostgreSQL pool and runs pending migrations.
func connect(cfg *config.Config) (*postgres.Pool, error) {
	if cfg.Database.URL == "" {
		return nil, errors.New("DATABASE_URL environment variable is required")
	}

	fmt.Printf("Connecting to PostgreSQL database...\n")
	pool, err := postgres.Initialize(&cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize PostgreSQL: %w", err)
	}
	return pool, nil
}

// buildStores wires the PostgreSQL repositories into the store set.
func buildStores(pool *postgres.Pool) attendance.Stores {
	return attendance.Stores{
		Employees:  postgres.NewEmployeeRepository(pool),
		Encodings:  postgres.NewEncodingRepository(pool),
		Attendance: postgres.NewAttendanceRepository(pool),
		Settings:   postgres.NewSettingsRepository(pool),
	}
}

// buildService assembles the attendance service from the configuration.
func buildService(cfg *config.Config, stores attendance.Stores) *attendance.Service {
	client := encoder.NewClient(cfg.Encoder.URL, cfg.Encoder.Timeout)
	gate := encoder.NewGate(client, cfg.Encoder.Dim)
	m := matcher.New(cfg.Matcher.Tolerance)
	geo := geofence.New(cfg.Office.Latitude, cfg.Office.Longitude, cfg.Office.RadiusKm)

	defaults := database.Settings{
		WorkdayStart:         cfg.Workday.Start,
		WorkdayEnd:           cfg.Workday.End,
		LateToleranceMinutes: cfg.Workday.LateToleranceMin,
		MaxShiftHours:        cfg.Workday.MaxShiftHours,
	}

	return attendance.NewService(gate, m, geo, cfg.Office.Enforce, stores, defaults)
}
