package attendance

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/kozaktomas/attendanced/internal/database"
	"github.com/kozaktomas/attendanced/internal/encoder"
	"github.com/kozaktomas/attendanced/internal/geofence"
	"github.com/kozaktomas/attendanced/internal/matcher"
)

// ErrOutsideGeofence means the reported coordinate is too far from the
// office and enforcement is on.
var ErrOutsideGeofence = errors.New("location outside office geofence")

// encodingModel is recorded with every stored encoding so a future sidecar
// model change can invalidate old vectors.
const encodingModel = "dlib-resnet-128"

// Stores groups the storage dependencies of the service.
type Stores struct {
	Employees  database.EmployeeStore
	Encodings  database.EncodingStore
	Attendance database.AttendanceStore
	Settings   database.SettingsStore
}

// Service ties the capture gate, matcher, geofence and stores together. One
// instance serves the web handlers, the CLI and the scheduled jobs.
type Service struct {
	gate     *encoder.Gate
	matcher  *matcher.Matcher
	dupIndex *matcher.DuplicateIndex
	geo      *geofence.Validator
	enforce  bool
	stores   Stores
	defaults database.Settings
}

// NewService creates the attendance service. defaults is the embedded
// work-hour policy used until an admin saves one.
func NewService(gate *encoder.Gate, m *matcher.Matcher, geo *geofence.Validator, enforce bool, stores Stores, defaults database.Settings) *Service {
	return &Service{
		gate:     gate,
		matcher:  m,
		dupIndex: matcher.NewDuplicateIndex(),
		geo:      geo,
		enforce:  enforce,
		stores:   stores,
		defaults: defaults,
	}
}

// RebuildDuplicateIndex loads every stored encoding into the in-memory
// duplicate-enrollment index. Call once at startup.
func (s *Service) RebuildDuplicateIndex(ctx context.Context) error {
	encodings, err := s.stores.Encodings.GetAll(ctx)
	if err != nil {
		return fmt.Errorf("load encodings for duplicate index: %w", err)
	}

	candidates := make([]matcher.Candidate, 0, len(encodings))
	for _, enc := range encodings {
		candidates = append(candidates, matcher.Candidate{EmployeeID: enc.EmployeeID, Vector: enc.Encoding})
	}
	s.dupIndex.Build(candidates)
	return nil
}

// Enroll derives an encoding from the image and stores it for the employee,
// overwriting any prior one. When savePhoto is set the raw image is kept as
// the profile photo. Returns an advisory warning when the new encoding sits
// within match tolerance of another employee's; enrollment still succeeds.
func (s *Service) Enroll(ctx context.Context, employeeID int64, image []byte, savePhoto bool) (warning string, err error) {
	if _, err := s.stores.Employees.Get(ctx, employeeID); err != nil {
		return "", err
	}

	vector, err := s.gate.Capture(ctx, image)
	if err != nil {
		return "", err
	}

	if id, dist, ok := s.dupIndex.Nearest(vector, employeeID); ok && dist <= s.matcher.Tolerance {
		warning = fmt.Sprintf("encoding is within match tolerance of employee %d (distance %.3f)", id, dist)
		log.Printf("enroll: employee %d: %s", employeeID, warning)
	}

	if savePhoto {
		if err := s.stores.Employees.SavePhoto(ctx, employeeID, image); err != nil {
			return "", fmt.Errorf("save photo: %w", err)
		}
	}

	err = s.stores.Encodings.Save(ctx, database.StoredEncoding{
		EmployeeID: employeeID,
		Encoding:   vector,
		Model:      encodingModel,
		Dim:        len(vector),
	})
	if err != nil {
		return "", err
	}

	s.dupIndex.Add(employeeID, vector)
	return warning, nil
}

// RemoveEnrollment drops the employee's encoding and duplicate-index entry.
func (s *Service) RemoveEnrollment(ctx context.Context, employeeID int64) error {
	if err := s.stores.Encodings.Delete(ctx, employeeID); err != nil {
		return err
	}
	s.dupIndex.Remove(employeeID)
	return nil
}

// Authenticate identifies the employee on the image. Inactive employees and
// faces over tolerance both come back as matcher.ErrNoMatch.
func (s *Service) Authenticate(ctx context.Context, image []byte) (*database.Employee, float64, error) {
	probe, err := s.gate.Capture(ctx, image)
	if err != nil {
		return nil, 0, err
	}

	encodings, err := s.stores.Encodings.GetAll(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("load encodings: %w", err)
	}

	candidates := make([]matcher.Candidate, 0, len(encodings))
	for _, enc := range encodings {
		candidates = append(candidates, matcher.Candidate{EmployeeID: enc.EmployeeID, Vector: enc.Encoding})
	}

	match, err := s.matcher.Match(probe, candidates)
	if err != nil {
		return nil, 0, err
	}

	emp, err := s.stores.Employees.Get(ctx, match.EmployeeID)
	if errors.Is(err, database.ErrNotFound) {
		return nil, 0, matcher.ErrNoMatch
	}
	if err != nil {
		return nil, 0, err
	}
	if !emp.Active {
		log.Printf("authenticate: matched inactive employee %d, rejecting", emp.ID)
		return nil, 0, matcher.ErrNoMatch
	}

	return emp, match.Distance, nil
}

// checkLocation applies the geofence policy. Outside the radius it either
// rejects (enforcement on) or just logs (advisory).
func (s *Service) checkLocation(employeeID int64, lat, lng *float64) error {
	if lat == nil || lng == nil {
		return nil
	}

	ok, dist, reason := s.geo.Validate(*lat, *lng)
	if ok {
		return nil
	}
	if s.enforce {
		return fmt.Errorf("%w: %s", ErrOutsideGeofence, reason)
	}
	log.Printf("geofence: employee %d is %.2f km from the office (advisory)", employeeID, dist)
	return nil
}

// CheckIn opens today's attendance record for the employee. The status label
// is decided here against the current work-hour policy.
func (s *Service) CheckIn(ctx context.Context, employeeID int64, lat, lng *float64, location string) (*database.AttendanceRecord, error) {
	if err := s.checkLocation(employeeID, lat, lng); err != nil {
		return nil, err
	}

	now := time.Now()
	day := database.Day(now)

	// Deterministic rejection before hitting the unique constraint. Races
	// still end up as ErrDuplicateCheckIn from the store.
	if existing, err := s.stores.Attendance.GetForDay(ctx, employeeID, day); err == nil {
		if existing.CheckedOut() {
			return nil, database.ErrAttendanceComplete
		}
		return nil, database.ErrDuplicateCheckIn
	} else if !errors.Is(err, database.ErrNotFound) {
		return nil, err
	}

	policy, err := s.Policy(ctx)
	if err != nil {
		return nil, err
	}

	rec := &database.AttendanceRecord{
		EmployeeID:      employeeID,
		Day:             day,
		Status:          StatusFor(now, policy),
		CheckInAt:       now,
		CheckInLat:      lat,
		CheckInLng:      lng,
		CheckInLocation: location,
	}
	if err := s.stores.Attendance.CheckIn(ctx, rec); err != nil {
		return nil, err
	}
	return rec, nil
}

// CheckOut closes today's record. The allowance flags ride along in the
// same storage write as the close, so the record is never terminal with the
// flags missing.
func (s *Service) CheckOut(ctx context.Context, employeeID int64, lat, lng *float64, location string, meal, transport bool) (*database.AttendanceRecord, error) {
	if err := s.checkLocation(employeeID, lat, lng); err != nil {
		return nil, err
	}

	now := time.Now()
	return s.stores.Attendance.CheckOut(ctx, employeeID, database.Day(now), database.CheckOut{
		At:        now,
		Lat:       lat,
		Lng:       lng,
		Location:  location,
		Meal:      meal,
		Transport: transport,
	})
}

// Today returns the employee's record for today (nil when absent) and their
// recent history, newest first.
func (s *Service) Today(ctx context.Context, employeeID int64) (*database.AttendanceRecord, []database.AttendanceRecord, error) {
	today, err := s.stores.Attendance.GetForDay(ctx, employeeID, database.Day(time.Now()))
	if errors.Is(err, database.ErrNotFound) {
		today = nil
	} else if err != nil {
		return nil, nil, err
	}

	history, err := s.stores.Attendance.ListByEmployee(ctx, employeeID, 30)
	if err != nil {
		return nil, nil, err
	}
	return today, history, nil
}

// Policy returns the active work-hour policy, falling back to the embedded
// defaults until an admin saves one.
func (s *Service) Policy(ctx context.Context) (*database.Settings, error) {
	policy, err := s.stores.Settings.Get(ctx)
	if errors.Is(err, database.ErrNotFound) {
		defaults := s.defaults
		return &defaults, nil
	}
	if err != nil {
		return nil, err
	}
	return policy, nil
}

// SavePolicy validates and persists the work-hour policy.
func (s *Service) SavePolicy(ctx context.Context, policy *database.Settings) error {
	if err := ValidatePolicy(policy); err != nil {
		return err
	}
	return s.stores.Settings.Save(ctx, policy)
}

// ValidateLocation exposes the geofence check for the preflight endpoint.
func (s *Service) ValidateLocation(lat, lng float64) (ok bool, distanceKm float64, reason string) {
	return s.geo.Validate(lat, lng)
}

// CloseOpenRecords stamps a check-out at the workday end on every record
// left open on a previous day. Records opened after the workday end get
// their check-in time instead, so check-out never precedes check-in. Run
// nightly by the scheduler.
func (s *Service) CloseOpenRecords(ctx context.Context) (int64, error) {
	policy, err := s.Policy(ctx)
	if err != nil {
		return 0, err
	}

	today := database.Day(time.Now())
	closed, err := s.stores.Attendance.CloseDangling(ctx, today, database.CheckOut{
		At:   EndOfWorkday(today.AddDate(0, 0, -1), policy),
		Note: database.NoteAutoClosed,
	})
	if err != nil {
		return 0, err
	}
	if closed > 0 {
		log.Printf("close-out: stamped check-out on %d dangling record(s)", closed)
	}
	return closed, nil
}
