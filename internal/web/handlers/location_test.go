package handlers

import (
	"net/http/httptest"
	"testing"
)

func TestValidateLocation(t *testing.T) {
	f := newFixture(t)
	handler := NewLocationHandler(f.service)

	t.Run("inside radius", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := jsonRequest(t, "POST", "/api/v1/location/validate", map[string]any{
			"lat": 0.001,
			"lng": 0.001,
		})
		handler.Validate(w, req)

		assertStatusCode(t, w, 200)
		var resp ValidateLocationResponse
		parseJSONResponse(t, w, &resp)
		if !resp.OK {
			t.Errorf("expected ok, got %+v", resp)
		}
	})

	t.Run("outside radius", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := jsonRequest(t, "POST", "/api/v1/location/validate", map[string]any{
			"lat": 1.0,
			"lng": 1.0,
		})
		handler.Validate(w, req)

		assertStatusCode(t, w, 200)
		var resp ValidateLocationResponse
		parseJSONResponse(t, w, &resp)
		if resp.OK {
			t.Error("expected rejection far from the office")
		}
		if resp.DistanceKm <= 0.5 {
			t.Errorf("distance = %f, want > 0.5", resp.DistanceKm)
		}
		if resp.Reason == "" {
			t.Error("expected a reason")
		}
	})

	t.Run("missing coordinates", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := jsonRequest(t, "POST", "/api/v1/location/validate", map[string]any{"lat": 1.0})
		handler.Validate(w, req)
		assertStatusCode(t, w, 400)
	})
}
