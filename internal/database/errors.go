package database

import "errors"

// Domain rejections surfaced by the stores. These are business outcomes, not
// system faults; handlers map them to 4xx responses.
var (
	// ErrNotFound means the requested row does not exist.
	ErrNotFound = errors.New("record not found")

	// ErrDuplicateEmail means another employee already uses the email.
	ErrDuplicateEmail = errors.New("email already in use")

	// ErrDuplicateCheckIn means the employee already checked in today.
	ErrDuplicateCheckIn = errors.New("already checked in today")

	// ErrAttendanceComplete means today's record already has a check-out.
	ErrAttendanceComplete = errors.New("attendance already complete for today")

	// ErrCheckOutBeforeCheckIn means there is no open record to check out of.
	ErrCheckOutBeforeCheckIn = errors.New("no check-in recorded today")
)
