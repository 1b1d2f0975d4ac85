package handlers

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/kozaktomas/attendanced/internal/database"
)

func newAttendanceHandler(f *fixture) *AttendanceHandler {
	return NewAttendanceHandler(f.service, f.attendance)
}

func TestCheckInCheckOut(t *testing.T) {
	f := newFixture(t)
	handler := newAttendanceHandler(f)
	id := f.addEmployee(t, "budi", true)

	// Check in.
	w := httptest.NewRecorder()
	req := jsonRequest(t, "POST", "/api/v1/attendance/check-in", map[string]any{
		"lat":      0.001,
		"lng":      0.001,
		"location": "office lobby",
	})
	req = requestWithEmployee(req, id)
	handler.CheckIn(w, req)

	assertStatusCode(t, w, 201)
	var rec database.AttendanceRecord
	parseJSONResponse(t, w, &rec)
	if rec.EmployeeID != id {
		t.Errorf("employee id = %d, want %d", rec.EmployeeID, id)
	}
	if rec.Status != database.StatusPresent && rec.Status != database.StatusLate {
		t.Errorf("unexpected status %q", rec.Status)
	}
	if rec.CheckedOut() {
		t.Error("fresh check-in should be open")
	}

	// Second check-in conflicts.
	w = httptest.NewRecorder()
	req = jsonRequest(t, "POST", "/api/v1/attendance/check-in", map[string]any{})
	req = requestWithEmployee(req, id)
	handler.CheckIn(w, req)
	assertStatusCode(t, w, 409)
	assertJSONError(t, w, "duplicate_check_in")

	// Check out with allowances.
	w = httptest.NewRecorder()
	req = jsonRequest(t, "POST", "/api/v1/attendance/check-out", map[string]any{
		"lat":            0.001,
		"lng":            0.001,
		"meal_allowance": true,
	})
	req = requestWithEmployee(req, id)
	handler.CheckOut(w, req)

	assertStatusCode(t, w, 200)
	parseJSONResponse(t, w, &rec)
	if !rec.CheckedOut() {
		t.Error("expected closed record")
	}
	if !rec.MealAllowance {
		t.Error("expected meal allowance")
	}

	// Another check-out conflicts.
	w = httptest.NewRecorder()
	req = jsonRequest(t, "POST", "/api/v1/attendance/check-out", map[string]any{})
	req = requestWithEmployee(req, id)
	handler.CheckOut(w, req)
	assertStatusCode(t, w, 409)
	assertJSONError(t, w, "attendance_complete")
}

func TestCheckOut_BeforeCheckIn(t *testing.T) {
	f := newFixture(t)
	handler := newAttendanceHandler(f)
	id := f.addEmployee(t, "budi", true)

	w := httptest.NewRecorder()
	req := jsonRequest(t, "POST", "/api/v1/attendance/check-out", map[string]any{})
	req = requestWithEmployee(req, id)
	handler.CheckOut(w, req)

	assertStatusCode(t, w, 409)
	assertJSONError(t, w, "check_out_before_check_in")
}

func TestCheckIn_NoFaceToken(t *testing.T) {
	f := newFixture(t)
	handler := newAttendanceHandler(f)

	w := httptest.NewRecorder()
	req := jsonRequest(t, "POST", "/api/v1/attendance/check-in", map[string]any{})
	handler.CheckIn(w, req)

	assertStatusCode(t, w, 401)
}

func TestMe(t *testing.T) {
	f := newFixture(t)
	handler := newAttendanceHandler(f)
	id := f.addEmployee(t, "budi", true)
	ctx := context.Background()

	// Yesterday's closed record plus today's open one.
	yesterday := database.Day(time.Now().AddDate(0, 0, -1))
	closedAt := yesterday.Add(17 * time.Hour)
	if err := f.attendance.CheckIn(ctx, &database.AttendanceRecord{
		EmployeeID: id,
		Day:        yesterday,
		Status:     database.StatusPresent,
		CheckInAt:  yesterday.Add(8 * time.Hour),
		CheckOutAt: &closedAt,
	}); err != nil {
		t.Fatalf("seed failed: %v", err)
	}
	today := database.Day(time.Now())
	if err := f.attendance.CheckIn(ctx, &database.AttendanceRecord{
		EmployeeID: id,
		Day:        today,
		Status:     database.StatusLate,
		CheckInAt:  time.Now(),
	}); err != nil {
		t.Fatalf("seed failed: %v", err)
	}

	w := httptest.NewRecorder()
	req := requestWithEmployee(httptest.NewRequest("GET", "/api/v1/attendance/me", nil), id)
	handler.Me(w, req)

	assertStatusCode(t, w, 200)
	var resp MeResponse
	parseJSONResponse(t, w, &resp)
	if resp.Today == nil || resp.Today.Status != database.StatusLate {
		t.Errorf("unexpected today: %+v", resp.Today)
	}
	if len(resp.History) != 2 {
		t.Errorf("expected 2 history records, got %d", len(resp.History))
	}
}

func TestMe_NoRecordToday(t *testing.T) {
	f := newFixture(t)
	handler := newAttendanceHandler(f)
	id := f.addEmployee(t, "budi", true)

	w := httptest.NewRecorder()
	req := requestWithEmployee(httptest.NewRequest("GET", "/api/v1/attendance/me", nil), id)
	handler.Me(w, req)

	assertStatusCode(t, w, 200)
	var resp MeResponse
	parseJSONResponse(t, w, &resp)
	if resp.Today != nil {
		t.Errorf("expected nil today, got %+v", resp.Today)
	}
}

func TestSetAllowanceAndDelete(t *testing.T) {
	f := newFixture(t)
	handler := newAttendanceHandler(f)
	id := f.addEmployee(t, "budi", true)
	ctx := context.Background()

	rec := &database.AttendanceRecord{
		EmployeeID: id,
		Day:        database.Day(time.Now()),
		Status:     database.StatusPresent,
		CheckInAt:  time.Now(),
	}
	if err := f.attendance.CheckIn(ctx, rec); err != nil {
		t.Fatalf("seed failed: %v", err)
	}

	// Toggle allowances.
	w := httptest.NewRecorder()
	req := jsonRequest(t, "PUT", "/api/v1/attendance/1/allowance", map[string]any{
		"meal_allowance":      true,
		"transport_allowance": true,
	})
	req = requestWithChiParams(req, map[string]string{"id": "1"})
	handler.SetAllowance(w, req)

	assertStatusCode(t, w, 200)
	var updated database.AttendanceRecord
	parseJSONResponse(t, w, &updated)
	if !updated.MealAllowance || !updated.TransportAllowance {
		t.Errorf("allowances not applied: %+v", updated)
	}

	// Delete.
	w = httptest.NewRecorder()
	req = requestWithChiParams(httptest.NewRequest("DELETE", "/api/v1/attendance/1", nil),
		map[string]string{"id": "1"})
	handler.Delete(w, req)
	assertStatusCode(t, w, 200)

	if _, err := f.attendance.Get(ctx, rec.ID); err != database.ErrNotFound {
		t.Errorf("record still present after delete: %v", err)
	}

	// Deleting again is a 404.
	w = httptest.NewRecorder()
	req = requestWithChiParams(httptest.NewRequest("DELETE", "/api/v1/attendance/1", nil),
		map[string]string{"id": "1"})
	handler.Delete(w, req)
	assertStatusCode(t, w, 404)
}
