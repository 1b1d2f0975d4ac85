package web

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/kozaktomas/attendanced/internal/attendance"
	"github.com/kozaktomas/attendanced/internal/config"
	"github.com/kozaktomas/attendanced/internal/database"
	"github.com/kozaktomas/attendanced/internal/database/mock"
	"github.com/kozaktomas/attendanced/internal/encoder"
	"github.com/kozaktomas/attendanced/internal/geofence"
	"github.com/kozaktomas/attendanced/internal/matcher"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()

	cfg := &config.Config{
		Web: config.WebConfig{
			SessionSecret:   "test-session-secret",
			FaceTokenSecret: "test-face-secret",
			FaceTokenTTL:    5 * time.Minute,
		},
	}

	stores := attendance.Stores{
		Employees:  mock.NewEmployeeStore(),
		Encodings:  mock.NewEncodingStore(),
		Attendance: mock.NewAttendanceStore(),
		Settings:   mock.NewSettingsStore(),
	}
	svc := attendance.NewService(
		encoder.NewGate(nil, 128),
		matcher.New(0.6),
		geofence.New(0, 0, 0.5),
		false,
		stores,
		database.Settings{WorkdayStart: "08:00", WorkdayEnd: "17:00", LateToleranceMinutes: 15, MaxShiftHours: 12},
	)

	s := NewServer(cfg, 0, "127.0.0.1", svc, stores, nil)
	t.Cleanup(func() { s.sessionManager.Stop() })
	return s
}

func TestRoutes_PublicAndProtected(t *testing.T) {
	s := newTestServer(t)

	tests := []struct {
		method     string
		path       string
		wantStatus int
	}{
		{"GET", "/api/v1/health", http.StatusOK},
		{"GET", "/api/v1/auth/status", http.StatusOK},

		// Face-token routes reject anonymous requests.
		{"POST", "/api/v1/attendance/check-in", http.StatusUnauthorized},
		{"POST", "/api/v1/attendance/check-out", http.StatusUnauthorized},
		{"GET", "/api/v1/attendance/me", http.StatusUnauthorized},

		// Admin routes reject requests without a session.
		{"GET", "/api/v1/employees", http.StatusUnauthorized},
		{"GET", "/api/v1/reports/daily", http.StatusUnauthorized},
		{"GET", "/api/v1/reports/dashboard", http.StatusUnauthorized},
		{"GET", "/api/v1/settings", http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			w := httptest.NewRecorder()
			req := httptest.NewRequest(tt.method, tt.path, nil)
			s.Router().ServeHTTP(w, req)
			if w.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d\nBody: %s", w.Code, tt.wantStatus, w.Body.String())
			}
		})
	}
}

func TestRoutes_AdminAccessWithSession(t *testing.T) {
	s := newTestServer(t)

	session, err := s.sessionManager.CreateSession("admin")
	if err != nil {
		t.Fatalf("CreateSession() error = %v", err)
	}

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/api/v1/employees", nil)
	req.Header.Set("Authorization", "Bearer "+session.ID)
	s.Router().ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want 200\nBody: %s", w.Code, w.Body.String())
	}
}

func TestRoutes_FaceTokenAccess(t *testing.T) {
	s := newTestServer(t)

	token, _, err := s.faceTokens.Issue(1, "budi")
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/api/v1/attendance/me", nil)
	req.Header.Set("X-Face-Token", token)
	s.Router().ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want 200\nBody: %s", w.Code, w.Body.String())
	}
}
