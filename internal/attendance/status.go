// Package attendance implements the day-state machine and the face
// enrollment/authentication flows on top of the stores.
package attendance

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/kozaktomas/attendanced/internal/database"
)

// ParseHHMM parses a "HH:MM" clock string.
func ParseHHMM(s string) (hour, minute int, err error) {
	h, m, ok := strings.Cut(s, ":")
	if !ok {
		return 0, 0, fmt.Errorf("invalid time %q, want HH:MM", s)
	}
	hour, err = strconv.Atoi(h)
	if err != nil || hour < 0 || hour > 23 {
		return 0, 0, fmt.Errorf("invalid hour in %q", s)
	}
	minute, err = strconv.Atoi(m)
	if err != nil || minute < 0 || minute > 59 {
		return 0, 0, fmt.Errorf("invalid minute in %q", s)
	}
	return hour, minute, nil
}

// StatusFor labels a check-in as present or late. Late means the check-in
// time is past the workday start plus the tolerance window. An unparseable
// policy never penalizes the employee.
func StatusFor(checkIn time.Time, policy *database.Settings) string {
	hour, minute, err := ParseHHMM(policy.WorkdayStart)
	if err != nil {
		return database.StatusPresent
	}

	deadline := time.Date(checkIn.Year(), checkIn.Month(), checkIn.Day(),
		hour, minute, 0, 0, checkIn.Location()).
		Add(time.Duration(policy.LateToleranceMinutes) * time.Minute)

	if checkIn.After(deadline) {
		return database.StatusLate
	}
	return database.StatusPresent
}

// EndOfWorkday returns the policy's workday end on the given day. Falls back
// to end of day when the policy is unparseable.
func EndOfWorkday(day time.Time, policy *database.Settings) time.Time {
	hour, minute, err := ParseHHMM(policy.WorkdayEnd)
	if err != nil {
		hour, minute = 23, 59
	}
	return time.Date(day.Year(), day.Month(), day.Day(), hour, minute, 0, 0, day.Location())
}

// ErrInvalidPolicy marks settings the recorder could not apply.
var ErrInvalidPolicy = errors.New("invalid work-hour policy")

// ValidatePolicy rejects settings the recorder could not apply.
func ValidatePolicy(policy *database.Settings) error {
	if _, _, err := ParseHHMM(policy.WorkdayStart); err != nil {
		return fmt.Errorf("%w: workday start: %v", ErrInvalidPolicy, err)
	}
	if _, _, err := ParseHHMM(policy.WorkdayEnd); err != nil {
		return fmt.Errorf("%w: workday end: %v", ErrInvalidPolicy, err)
	}
	if policy.LateToleranceMinutes < 0 {
		return fmt.Errorf("%w: late tolerance must not be negative", ErrInvalidPolicy)
	}
	if policy.MaxShiftHours <= 0 {
		return fmt.Errorf("%w: max shift hours must be positive", ErrInvalidPolicy)
	}
	return nil
}
