// Package mock provides in-memory implementations of the database store
// interfaces for testing.
package mock

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/kozaktomas/attendanced/internal/database"
)

// EmployeeStore is an in-memory implementation of database.EmployeeStore.
type EmployeeStore struct {
	mu        sync.RWMutex
	employees map[int64]*database.Employee
	photos    map[int64][]byte
	nextID    int64

	// Error injection
	ListError   error
	GetError    error
	CreateError error
	UpdateError error
	DeleteError error
}

// NewEmployeeStore creates a new in-memory employee store.
func NewEmployeeStore() *EmployeeStore {
	return &EmployeeStore{
		employees: make(map[int64]*database.Employee),
		photos:    make(map[int64][]byte),
	}
}

// AddEmployee seeds an employee, assigning an id when missing.
func (m *EmployeeStore) AddEmployee(emp database.Employee) int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	if emp.ID == 0 {
		m.nextID++
		emp.ID = m.nextID
	} else if emp.ID > m.nextID {
		m.nextID = emp.ID
	}
	m.employees[emp.ID] = &emp
	return emp.ID
}

func (m *EmployeeStore) List(ctx context.Context, search string) ([]database.Employee, error) {
	if m.ListError != nil {
		return nil, m.ListError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []database.Employee
	for _, emp := range m.employees {
		if search != "" && !emp.MatchesSearch(search) {
			continue
		}
		result = append(result, *emp)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result, nil
}

func (m *EmployeeStore) Get(ctx context.Context, id int64) (*database.Employee, error) {
	if m.GetError != nil {
		return nil, m.GetError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	emp, ok := m.employees[id]
	if !ok {
		return nil, database.ErrNotFound
	}
	cp := *emp
	return &cp, nil
}

func (m *EmployeeStore) Create(ctx context.Context, emp *database.Employee) error {
	if m.CreateError != nil {
		return m.CreateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.employees {
		if existing.Email == emp.Email {
			return database.ErrDuplicateEmail
		}
	}
	m.nextID++
	emp.ID = m.nextID
	emp.CreatedAt = time.Now()
	emp.UpdatedAt = emp.CreatedAt
	cp := *emp
	m.employees[emp.ID] = &cp
	return nil
}

func (m *EmployeeStore) Update(ctx context.Context, emp *database.Employee) error {
	if m.UpdateError != nil {
		return m.UpdateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.employees[emp.ID]; !ok {
		return database.ErrNotFound
	}
	for id, existing := range m.employees {
		if id != emp.ID && existing.Email == emp.Email {
			return database.ErrDuplicateEmail
		}
	}
	emp.UpdatedAt = time.Now()
	cp := *emp
	m.employees[emp.ID] = &cp
	return nil
}

func (m *EmployeeStore) Delete(ctx context.Context, id int64) error {
	if m.DeleteError != nil {
		return m.DeleteError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.employees[id]; !ok {
		return database.ErrNotFound
	}
	delete(m.employees, id)
	delete(m.photos, id)
	return nil
}

func (m *EmployeeStore) SavePhoto(ctx context.Context, id int64, photo []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	emp, ok := m.employees[id]
	if !ok {
		return database.ErrNotFound
	}
	m.photos[id] = photo
	emp.HasPhoto = true
	return nil
}

func (m *EmployeeStore) GetPhoto(ctx context.Context, id int64) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	photo, ok := m.photos[id]
	if !ok {
		return nil, database.ErrNotFound
	}
	return photo, nil
}

func (m *EmployeeStore) CountActive(ctx context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	count := 0
	for _, emp := range m.employees {
		if emp.Active {
			count++
		}
	}
	return count, nil
}

// EncodingStore is an in-memory implementation of database.EncodingStore.
type EncodingStore struct {
	mu        sync.RWMutex
	encodings map[int64]database.StoredEncoding

	// Error injection
	SaveError   error
	GetAllError error
}

// NewEncodingStore creates a new in-memory encoding store.
func NewEncodingStore() *EncodingStore {
	return &EncodingStore{encodings: make(map[int64]database.StoredEncoding)}
}

func (m *EncodingStore) Save(ctx context.Context, enc database.StoredEncoding) error {
	if m.SaveError != nil {
		return m.SaveError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now()
	if existing, ok := m.encodings[enc.EmployeeID]; ok {
		enc.CreatedAt = existing.CreatedAt
	} else if enc.CreatedAt.IsZero() {
		enc.CreatedAt = now
	}
	enc.UpdatedAt = now
	m.encodings[enc.EmployeeID] = enc
	return nil
}

func (m *EncodingStore) Get(ctx context.Context, employeeID int64) (*database.StoredEncoding, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	enc, ok := m.encodings[employeeID]
	if !ok {
		return nil, database.ErrNotFound
	}
	return &enc, nil
}

func (m *EncodingStore) GetAll(ctx context.Context) ([]database.StoredEncoding, error) {
	if m.GetAllError != nil {
		return nil, m.GetAllError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []database.StoredEncoding
	for _, enc := range m.encodings {
		result = append(result, enc)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].EmployeeID < result[j].EmployeeID })
	return result, nil
}

func (m *EncodingStore) Delete(ctx context.Context, employeeID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.encodings, employeeID)
	return nil
}

func (m *EncodingStore) Count(ctx context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.encodings), nil
}

// AttendanceStore is an in-memory implementation of database.AttendanceStore.
type AttendanceStore struct {
	mu      sync.RWMutex
	records map[int64]*database.AttendanceRecord
	names   map[int64]string // employee id -> name, for joined reports
	nextID  int64

	// Error injection
	CheckInError       error
	CheckOutError      error
	SetAllowancesError error
}

// NewAttendanceStore creates a new in-memory attendance store.
func NewAttendanceStore() *AttendanceStore {
	return &AttendanceStore{
		records: make(map[int64]*database.AttendanceRecord),
		names:   make(map[int64]string),
	}
}

// SetEmployeeName registers the name joined into reports.
func (m *AttendanceStore) SetEmployeeName(employeeID int64, name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.names[employeeID] = name
}

func sameDay(a, b time.Time) bool {
	return database.Day(a).Equal(database.Day(b))
}

func (m *AttendanceStore) CheckIn(ctx context.Context, rec *database.AttendanceRecord) error {
	if m.CheckInError != nil {
		return m.CheckInError
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, existing := range m.records {
		if existing.EmployeeID == rec.EmployeeID && sameDay(existing.Day, rec.Day) {
			return database.ErrDuplicateCheckIn
		}
	}

	m.nextID++
	rec.ID = m.nextID
	rec.CreatedAt = time.Now()
	rec.UpdatedAt = rec.CreatedAt
	cp := *rec
	m.records[rec.ID] = &cp
	return nil
}

func (m *AttendanceStore) CheckOut(ctx context.Context, employeeID int64, day time.Time, out database.CheckOut) (*database.AttendanceRecord, error) {
	if m.CheckOutError != nil {
		return nil, m.CheckOutError
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, rec := range m.records {
		if rec.EmployeeID != employeeID || !sameDay(rec.Day, day) {
			continue
		}
		if rec.CheckedOut() {
			return nil, database.ErrAttendanceComplete
		}
		at := out.At
		rec.CheckOutAt = &at
		rec.CheckOutLat = out.Lat
		rec.CheckOutLng = out.Lng
		rec.CheckOutLocation = out.Location
		rec.MealAllowance = out.Meal
		rec.TransportAllowance = out.Transport
		if out.Note != "" {
			rec.Note = out.Note
		}
		rec.UpdatedAt = time.Now()
		cp := *rec
		cp.EmployeeName = m.names[employeeID]
		return &cp, nil
	}
	return nil, database.ErrCheckOutBeforeCheckIn
}

func (m *AttendanceStore) GetForDay(ctx context.Context, employeeID int64, day time.Time) (*database.AttendanceRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, rec := range m.records {
		if rec.EmployeeID == employeeID && sameDay(rec.Day, day) {
			cp := *rec
			cp.EmployeeName = m.names[employeeID]
			return &cp, nil
		}
	}
	return nil, database.ErrNotFound
}

func (m *AttendanceStore) Get(ctx context.Context, id int64) (*database.AttendanceRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rec, ok := m.records[id]
	if !ok {
		return nil, database.ErrNotFound
	}
	cp := *rec
	cp.EmployeeName = m.names[rec.EmployeeID]
	return &cp, nil
}

func (m *AttendanceStore) ListByDay(ctx context.Context, day time.Time) ([]database.AttendanceRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []database.AttendanceRecord
	for _, rec := range m.records {
		if sameDay(rec.Day, day) {
			cp := *rec
			cp.EmployeeName = m.names[rec.EmployeeID]
			result = append(result, cp)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CheckInAt.Before(result[j].CheckInAt) })
	return result, nil
}

func (m *AttendanceStore) ListByEmployee(ctx context.Context, employeeID int64, limit int) ([]database.AttendanceRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []database.AttendanceRecord
	for _, rec := range m.records {
		if rec.EmployeeID == employeeID {
			cp := *rec
			cp.EmployeeName = m.names[employeeID]
			result = append(result, cp)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Day.After(result[j].Day) })
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

func (m *AttendanceStore) SetAllowances(ctx context.Context, id int64, meal, transport bool) error {
	if m.SetAllowancesError != nil {
		return m.SetAllowancesError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.records[id]
	if !ok {
		return database.ErrNotFound
	}
	rec.MealAllowance = meal
	rec.TransportAllowance = transport
	rec.UpdatedAt = time.Now()
	return nil
}

func (m *AttendanceStore) Delete(ctx context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.records[id]; !ok {
		return database.ErrNotFound
	}
	delete(m.records, id)
	return nil
}

func (m *AttendanceStore) CloseDangling(ctx context.Context, before time.Time, out database.CheckOut) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var closed int64
	cutoff := database.Day(before)
	for _, rec := range m.records {
		if rec.CheckedOut() || !database.Day(rec.Day).Before(cutoff) {
			continue
		}
		at := out.At
		if at.Before(rec.CheckInAt) {
			at = rec.CheckInAt
		}
		rec.CheckOutAt = &at
		if rec.Note == "" {
			rec.Note = out.Note
		}
		rec.UpdatedAt = time.Now()
		closed++
	}
	return closed, nil
}

func (m *AttendanceStore) CountsForDay(ctx context.Context, day time.Time, activeEmployees int) (*database.DashboardCounts, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	counts := database.DashboardCounts{Day: database.Day(day), ActiveEmployees: activeEmployees}
	for _, rec := range m.records {
		if !sameDay(rec.Day, day) {
			continue
		}
		switch rec.Status {
		case database.StatusPresent:
			counts.Present++
		case database.StatusLate:
			counts.Late++
		}
		if rec.CheckedOut() {
			counts.CheckedOut++
		}
	}
	counts.Absent = activeEmployees - counts.Present - counts.Late
	if counts.Absent < 0 {
		counts.Absent = 0
	}
	return &counts, nil
}

// SettingsStore is an in-memory implementation of database.SettingsStore.
type SettingsStore struct {
	mu       sync.RWMutex
	settings *database.Settings

	// Error injection
	GetError  error
	SaveError error
}

// NewSettingsStore creates a new in-memory settings store.
func NewSettingsStore() *SettingsStore {
	return &SettingsStore{}
}

func (m *SettingsStore) Get(ctx context.Context) (*database.Settings, error) {
	if m.GetError != nil {
		return nil, m.GetError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.settings == nil {
		return nil, database.ErrNotFound
	}
	cp := *m.settings
	return &cp, nil
}

func (m *SettingsStore) Save(ctx context.Context, s *database.Settings) error {
	if m.SaveError != nil {
		return m.SaveError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *s
	m.settings = &cp
	return nil
}

// Verify interface compliance
var _ database.EmployeeStore = (*EmployeeStore)(nil)
var _ database.EncodingStore = (*EncodingStore)(nil)
var _ database.AttendanceStore = (*AttendanceStore)(nil)
var _ database.SettingsStore = (*SettingsStore)(nil)
