package handlers

import (
	"bytes"
	"context"
	"mime/multipart"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/kozaktomas/attendanced/internal/database"
)

func newEmployeesHandler(f *fixture) *EmployeesHandler {
	return NewEmployeesHandler(f.employees, f.attendance, f.service)
}

func TestEmployeesList(t *testing.T) {
	f := newFixture(t)
	handler := newEmployeesHandler(f)

	f.addEmployee(t, "budi", true)
	f.employees.AddEmployee(database.Employee{Name: "José Nuñez", Email: "jose@example.com", Active: true})

	t.Run("all", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest("GET", "/api/v1/employees", nil)
		handler.List(w, req)

		assertStatusCode(t, w, 200)
		var employees []database.Employee
		parseJSONResponse(t, w, &employees)
		if len(employees) != 2 {
			t.Errorf("expected 2 employees, got %d", len(employees))
		}
	})

	t.Run("diacritics-insensitive search", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest("GET", "/api/v1/employees?search=jose", nil)
		handler.List(w, req)

		assertStatusCode(t, w, 200)
		var employees []database.Employee
		parseJSONResponse(t, w, &employees)
		if len(employees) != 1 || employees[0].Name != "José Nuñez" {
			t.Errorf("unexpected search result: %+v", employees)
		}
	})
}

func TestEmployeesCreate(t *testing.T) {
	f := newFixture(t)
	handler := newEmployeesHandler(f)

	t.Run("valid", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := jsonRequest(t, "POST", "/api/v1/employees", map[string]any{
			"name":      "Budi Santoso",
			"email":     "Budi@Example.com",
			"position":  "Engineer",
			"join_date": "2024-03-01",
		})
		handler.Create(w, req)

		assertStatusCode(t, w, 201)
		var emp database.Employee
		parseJSONResponse(t, w, &emp)
		if emp.ID == 0 {
			t.Error("expected assigned id")
		}
		if emp.Email != "budi@example.com" {
			t.Errorf("email not normalized: %s", emp.Email)
		}
		if !emp.Active {
			t.Error("expected active by default")
		}
		if emp.JoinDate.Format("2006-01-02") != "2024-03-01" {
			t.Errorf("join date = %s", emp.JoinDate)
		}
	})

	t.Run("duplicate email", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := jsonRequest(t, "POST", "/api/v1/employees", map[string]any{
			"name":  "Another",
			"email": "budi@example.com",
		})
		handler.Create(w, req)

		assertStatusCode(t, w, 409)
		assertJSONError(t, w, "duplicate_email")
	})

	t.Run("missing name", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := jsonRequest(t, "POST", "/api/v1/employees", map[string]any{"email": "x@example.com"})
		handler.Create(w, req)
		assertStatusCode(t, w, 400)
	})

	t.Run("bad join date", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := jsonRequest(t, "POST", "/api/v1/employees", map[string]any{
			"name":      "X",
			"email":     "y@example.com",
			"join_date": "01.03.2024",
		})
		handler.Create(w, req)
		assertStatusCode(t, w, 400)
	})
}

func TestEmployeesGetUpdateDelete(t *testing.T) {
	f := newFixture(t)
	handler := newEmployeesHandler(f)
	id := f.addEmployee(t, "budi", true)

	t.Run("get", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := requestWithChiParams(httptest.NewRequest("GET", "/api/v1/employees/1", nil),
			map[string]string{"id": "1"})
		handler.Get(w, req)

		assertStatusCode(t, w, 200)
		var emp database.Employee
		parseJSONResponse(t, w, &emp)
		if emp.ID != id {
			t.Errorf("id = %d, want %d", emp.ID, id)
		}
	})

	t.Run("get missing", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := requestWithChiParams(httptest.NewRequest("GET", "/api/v1/employees/99", nil),
			map[string]string{"id": "99"})
		handler.Get(w, req)
		assertStatusCode(t, w, 404)
	})

	t.Run("get invalid id", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := requestWithChiParams(httptest.NewRequest("GET", "/api/v1/employees/abc", nil),
			map[string]string{"id": "abc"})
		handler.Get(w, req)
		assertStatusCode(t, w, 400)
	})

	t.Run("update", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := jsonRequest(t, "PUT", "/api/v1/employees/1", map[string]any{
			"name":   "Budi S.",
			"email":  "budi@example.com",
			"active": false,
		})
		req = requestWithChiParams(req, map[string]string{"id": "1"})
		handler.Update(w, req)

		assertStatusCode(t, w, 200)
		var emp database.Employee
		parseJSONResponse(t, w, &emp)
		if emp.Name != "Budi S." || emp.Active {
			t.Errorf("update not applied: %+v", emp)
		}
	})

	t.Run("delete", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := requestWithChiParams(httptest.NewRequest("DELETE", "/api/v1/employees/1", nil),
			map[string]string{"id": "1"})
		handler.Delete(w, req)
		assertStatusCode(t, w, 200)

		if _, err := f.employees.Get(context.Background(), id); err != database.ErrNotFound {
			t.Errorf("employee still present after delete: %v", err)
		}
	})
}

func multipartPhoto(t *testing.T, photo []byte) (*bytes.Buffer, string) {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("photo", "face.png")
	if err != nil {
		t.Fatalf("failed to create form file: %v", err)
	}
	if _, err := fw.Write(photo); err != nil {
		t.Fatalf("failed to write form file: %v", err)
	}
	mw.Close()
	return &body, mw.FormDataContentType()
}

func TestEmployeesUploadPhoto(t *testing.T) {
	f := newFixture(t)
	handler := newEmployeesHandler(f)
	id := f.addEmployee(t, "budi", true)
	ctx := context.Background()

	f.enc.stage([]float32{0.1, 0.2, 0.3, 0.4})

	body, contentType := multipartPhoto(t, testPNG(t))
	w := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/api/v1/employees/1/photo", body)
	req.Header.Set("Content-Type", contentType)
	req = requestWithChiParams(req, map[string]string{"id": "1"})
	handler.UploadPhoto(w, req)

	assertStatusCode(t, w, 200)
	var resp UploadPhotoResponse
	parseJSONResponse(t, w, &resp)
	if !resp.Success {
		t.Error("expected success")
	}

	// Photo stored and encoding derived.
	if _, err := f.employees.GetPhoto(ctx, id); err != nil {
		t.Errorf("photo not stored: %v", err)
	}
	if _, err := f.encodings.Get(ctx, id); err != nil {
		t.Errorf("encoding not stored: %v", err)
	}

	// Round-trip through GetPhoto.
	w = httptest.NewRecorder()
	req = requestWithChiParams(httptest.NewRequest("GET", "/api/v1/employees/1/photo", nil),
		map[string]string{"id": "1"})
	handler.GetPhoto(w, req)
	assertStatusCode(t, w, 200)
	if w.Header().Get("Content-Type") != "image/png" {
		t.Errorf("content type = %s", w.Header().Get("Content-Type"))
	}
}

func TestEmployeesUploadPhoto_NoFace(t *testing.T) {
	f := newFixture(t)
	handler := newEmployeesHandler(f)
	f.addEmployee(t, "budi", true)

	// Encoder finds nothing on the image.
	f.enc.faces = nil

	body, contentType := multipartPhoto(t, testPNG(t))
	w := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/api/v1/employees/1/photo", body)
	req.Header.Set("Content-Type", contentType)
	req = requestWithChiParams(req, map[string]string{"id": "1"})
	handler.UploadPhoto(w, req)

	assertStatusCode(t, w, 400)
	assertJSONError(t, w, "no_face_detected")
}

func TestEmployeesGetAttendance(t *testing.T) {
	f := newFixture(t)
	handler := newEmployeesHandler(f)
	id := f.addEmployee(t, "budi", true)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		day := database.Day(time.Now().AddDate(0, 0, -i))
		rec := &database.AttendanceRecord{
			EmployeeID: id,
			Day:        day,
			Status:     database.StatusPresent,
			CheckInAt:  day.Add(8 * time.Hour),
		}
		if err := f.attendance.CheckIn(ctx, rec); err != nil {
			t.Fatalf("seed check-in failed: %v", err)
		}
	}

	w := httptest.NewRecorder()
	req := requestWithChiParams(httptest.NewRequest("GET", "/api/v1/employees/1/attendance?limit=2", nil),
		map[string]string{"id": "1"})
	handler.GetAttendance(w, req)

	assertStatusCode(t, w, 200)
	var records []database.AttendanceRecord
	parseJSONResponse(t, w, &records)
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	if records[0].Day.Before(records[1].Day) {
		t.Error("expected newest first")
	}
}
