package web

import (
	"github.com/go-chi/chi/v5"
	"github.com/kozaktomas/attendanced/internal/web/handlers"
	"github.com/kozaktomas/attendanced/internal/web/middleware"
)

func (s *Server) setupRoutes() {
	// Create handlers
	authHandler := handlers.NewAuthHandler(s.config, s.sessionManager, s.faceTokens, s.service)
	employeesHandler := handlers.NewEmployeesHandler(s.stores.Employees, s.stores.Attendance, s.service)
	attendanceHandler := handlers.NewAttendanceHandler(s.service, s.stores.Attendance)
	reportsHandler := handlers.NewReportsHandler(s.stores.Employees, s.stores.Attendance)
	settingsHandler := handlers.NewSettingsHandler(s.service)
	locationHandler := handlers.NewLocationHandler(s.service)

	// Health check (no auth required)
	s.router.Get("/api/v1/health", handlers.HealthCheck)

	// API routes
	s.router.Route("/api/v1", func(r chi.Router) {
		// Auth routes
		r.Post("/auth/login", authHandler.Login)
		r.Post("/auth/logout", authHandler.Logout)
		r.Get("/auth/status", authHandler.Status)
		r.Post("/auth/face", authHandler.FaceAuth)

		// Geofence preflight for the kiosk, before any capture happens.
		r.Post("/location/validate", locationHandler.Validate)

		// Employee attendance, authorized by a face token.
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireFaceToken(s.faceTokens))

			r.Post("/attendance/check-in", attendanceHandler.CheckIn)
			r.Post("/attendance/check-out", attendanceHandler.CheckOut)
			r.Get("/attendance/me", attendanceHandler.Me)
		})

		// Admin routes require a session.
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAuth(s.sessionManager))

			// Employees
			r.Get("/employees", employeesHandler.List)
			r.Post("/employees", employeesHandler.Create)
			r.Get("/employees/{id}", employeesHandler.Get)
			r.Put("/employees/{id}", employeesHandler.Update)
			r.Delete("/employees/{id}", employeesHandler.Delete)
			r.Post("/employees/{id}/photo", employeesHandler.UploadPhoto)
			r.Get("/employees/{id}/photo", employeesHandler.GetPhoto)
			r.Get("/employees/{id}/attendance", employeesHandler.GetAttendance)

			// Reports
			r.Get("/reports/daily", reportsHandler.Daily)
			r.Get("/reports/dashboard", reportsHandler.Dashboard)

			// Record mutations
			r.Put("/attendance/{id}/allowance", attendanceHandler.SetAllowance)
			r.Delete("/attendance/{id}", attendanceHandler.Delete)

			// Work-hour policy
			r.Get("/settings", settingsHandler.Get)
			r.Put("/settings", settingsHandler.Put)
		})
	})
}
