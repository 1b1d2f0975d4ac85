package handlers

import (
	"encoding/base64"
	"errors"
	"net/http/httptest"
	"testing"

	"github.com/kozaktomas/attendanced/internal/attendance"
	"github.com/kozaktomas/attendanced/internal/database"
	"github.com/kozaktomas/attendanced/internal/encoder"
	"github.com/kozaktomas/attendanced/internal/matcher"
)

func TestHealthCheck(t *testing.T) {
	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/api/v1/health", nil)

	HealthCheck(w, req)

	assertStatusCode(t, w, 200)
	var resp map[string]string
	parseJSONResponse(t, w, &resp)
	if resp["status"] != "ok" {
		t.Errorf("status = %s, want ok", resp["status"])
	}
}

func TestSanitizeForLog(t *testing.T) {
	got := sanitizeForLog("evil\nlog\rinjection")
	if got != "evilloginjection" {
		t.Errorf("sanitizeForLog = %q", got)
	}
}

func TestRespondServiceError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"invalid image", encoder.ErrInvalidImage, 400, "invalid_image"},
		{"no face", encoder.ErrNoFaceDetected, 400, "no_face_detected"},
		{"multiple faces", encoder.ErrMultipleFacesDetected, 400, "multiple_faces_detected"},
		{"extraction failed", encoder.ErrEncodingExtractionFailed, 400, "encoding_extraction_failed"},
		{"no match", matcher.ErrNoMatch, 401, "no_match"},
		{"outside geofence", attendance.ErrOutsideGeofence, 403, "outside_geofence"},
		{"duplicate check-in", database.ErrDuplicateCheckIn, 409, "duplicate_check_in"},
		{"attendance complete", database.ErrAttendanceComplete, 409, "attendance_complete"},
		{"check-out first", database.ErrCheckOutBeforeCheckIn, 409, "check_out_before_check_in"},
		{"duplicate email", database.ErrDuplicateEmail, 409, "duplicate_email"},
		{"not found", database.ErrNotFound, 404, "not_found"},
		{"unknown", errors.New("db exploded"), 500, "internal_error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			respondServiceError(w, tt.err)
			assertStatusCode(t, w, tt.wantStatus)
			assertJSONError(t, w, tt.wantCode)
		})
	}
}

func TestRespondServiceError_Wrapped(t *testing.T) {
	w := httptest.NewRecorder()
	respondServiceError(w, errors.Join(errors.New("context"), database.ErrDuplicateCheckIn))
	assertStatusCode(t, w, 409)
	assertJSONError(t, w, "duplicate_check_in")
}

func TestDecodeImageField(t *testing.T) {
	payload := []byte{0x89, 0x50, 0x4e, 0x47}
	encoded := base64.StdEncoding.EncodeToString(payload)

	t.Run("plain base64", func(t *testing.T) {
		got, err := decodeImageField(encoded)
		if err != nil {
			t.Fatalf("decode failed: %v", err)
		}
		if len(got) != len(payload) {
			t.Errorf("len = %d, want %d", len(got), len(payload))
		}
	})

	t.Run("data url prefix", func(t *testing.T) {
		got, err := decodeImageField("data:image/png;base64," + encoded)
		if err != nil {
			t.Fatalf("decode failed: %v", err)
		}
		if len(got) != len(payload) {
			t.Errorf("len = %d, want %d", len(got), len(payload))
		}
	})

	t.Run("invalid base64", func(t *testing.T) {
		if _, err := decodeImageField("%%%"); err == nil {
			t.Error("expected error")
		}
	})

	t.Run("empty", func(t *testing.T) {
		if _, err := decodeImageField(""); err == nil {
			t.Error("expected error")
		}
	})
}
