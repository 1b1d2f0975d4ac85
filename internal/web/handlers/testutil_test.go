package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/png"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/kozaktomas/attendanced/internal/attendance"
	"github.com/kozaktomas/attendanced/internal/config"
	"github.com/kozaktomas/attendanced/internal/database"
	"github.com/kozaktomas/attendanced/internal/database/mock"
	"github.com/kozaktomas/attendanced/internal/encoder"
	"github.com/kozaktomas/attendanced/internal/geofence"
	"github.com/kozaktomas/attendanced/internal/matcher"
	"github.com/kozaktomas/attendanced/internal/web/middleware"
)

// fakeEncoder hands out whatever detections the test staged last.
type fakeEncoder struct {
	faces []encoder.Detection
	err   error
}

func (f *fakeEncoder) EncodeFaces(_ context.Context, _ []byte) ([]encoder.Detection, error) {
	return f.faces, f.err
}

func (f *fakeEncoder) stage(vec []float32) {
	f.faces = []encoder.Detection{{FaceIndex: 0, Dim: len(vec), Encoding: vec, DetScore: 0.99}}
}

// testConfig creates a minimal config for testing
func testConfig() *config.Config {
	return &config.Config{
		Admin: config.AdminConfig{
			Username: "admin",
			Password: "secret",
		},
		Web: config.WebConfig{
			SessionSecret:   "test-session-secret",
			FaceTokenSecret: "test-face-secret",
			FaceTokenTTL:    5 * time.Minute,
		},
	}
}

// fixture wires a service over in-memory stores for handler tests.
type fixture struct {
	config     *config.Config
	service    *attendance.Service
	enc        *fakeEncoder
	employees  *mock.EmployeeStore
	encodings  *mock.EncodingStore
	attendance *mock.AttendanceStore
	settings   *mock.SettingsStore
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		config:     testConfig(),
		enc:        &fakeEncoder{},
		employees:  mock.NewEmployeeStore(),
		encodings:  mock.NewEncodingStore(),
		attendance: mock.NewAttendanceStore(),
		settings:   mock.NewSettingsStore(),
	}
	f.service = attendance.NewService(
		encoder.NewGate(f.enc, 4),
		matcher.New(0.6),
		geofence.New(0, 0, 0.5),
		false,
		attendance.Stores{
			Employees:  f.employees,
			Encodings:  f.encodings,
			Attendance: f.attendance,
			Settings:   f.settings,
		},
		database.Settings{
			WorkdayStart:         "08:00",
			WorkdayEnd:           "17:00",
			LateToleranceMinutes: 15,
			MaxShiftHours:        12,
		},
	)
	return f
}

func (f *fixture) addEmployee(t *testing.T, name string, active bool) int64 {
	t.Helper()
	id := f.employees.AddEmployee(database.Employee{
		Name:   name,
		Email:  strings.ToLower(name) + "@example.com",
		Active: active,
	})
	f.attendance.SetEmployeeName(id, name)
	return id
}

func testPNG(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 8, 8))
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("failed to encode test image: %v", err)
	}
	return buf.Bytes()
}

// jsonRequest creates a request carrying a JSON body.
func jsonRequest(t *testing.T, method, path string, body any) *http.Request {
	t.Helper()
	raw, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("failed to marshal request body: %v", err)
	}
	req := httptest.NewRequest(method, path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	return req
}

// requestWithChiParams creates a request with chi URL parameters
func requestWithChiParams(r *http.Request, params map[string]string) *http.Request {
	rctx := chi.NewRouteContext()
	for key, value := range params {
		rctx.URLParams.Add(key, value)
	}
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// requestWithEmployee stamps a face-authenticated employee id on the request.
func requestWithEmployee(r *http.Request, employeeID int64) *http.Request {
	return r.WithContext(middleware.SetEmployeeIDInContext(r.Context(), employeeID))
}

// parseJSONResponse parses a JSON response body into the target type
func parseJSONResponse(t *testing.T, recorder *httptest.ResponseRecorder, target any) {
	t.Helper()
	if err := json.Unmarshal(recorder.Body.Bytes(), target); err != nil {
		t.Fatalf("failed to parse JSON response: %v\nBody: %s", err, recorder.Body.String())
	}
}

// assertStatusCode checks if the response has the expected status code
func assertStatusCode(t *testing.T, recorder *httptest.ResponseRecorder, expected int) {
	t.Helper()
	if recorder.Code != expected {
		t.Errorf("expected status %d, got %d\nBody: %s", expected, recorder.Code, recorder.Body.String())
	}
}

// assertJSONError checks if the response is a JSON error with the expected code
func assertJSONError(t *testing.T, recorder *httptest.ResponseRecorder, expectedCode string) {
	t.Helper()
	var result map[string]string
	if err := json.Unmarshal(recorder.Body.Bytes(), &result); err != nil {
		t.Fatalf("failed to parse error response: %v\nBody: %s", err, recorder.Body.String())
	}
	if result["error"] != expectedCode {
		t.Errorf("expected error '%s', got '%s'", expectedCode, result["error"])
	}
}
