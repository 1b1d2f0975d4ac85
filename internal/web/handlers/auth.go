package handlers

import (
	"crypto/subtle"
	"encoding/json"
	"fmt"
	"log"
	"net/http"

	"github.com/kozaktomas/attendanced/internal/attendance"
	"github.com/kozaktomas/attendanced/internal/config"
	"github.com/kozaktomas/attendanced/internal/web/middleware"
)

// AuthHandler handles admin session login and employee face authentication.
type AuthHandler struct {
	config         *config.Config
	sessionManager *middleware.SessionManager
	faceTokens     *middleware.FaceTokenIssuer
	service        *attendance.Service
}

// NewAuthHandler creates a new auth handler.
func NewAuthHandler(cfg *config.Config, sm *middleware.SessionManager, ft *middleware.FaceTokenIssuer, svc *attendance.Service) *AuthHandler {
	return &AuthHandler{
		config:         cfg,
		sessionManager: sm,
		faceTokens:     ft,
		service:        svc,
	}
}

// loginRequest represents a login request
type loginRequest struct {
	username string
	password string
}

func (l *loginRequest) UnmarshalJSON(data []byte) error {
	var raw map[string]string
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("unmarshal login request: %w", err)
	}
	l.username = raw["username"]
	l.password = raw["password"]
	return nil
}

// LoginResponse represents a login response
type LoginResponse struct {
	Success   bool   `json:"success"`
	SessionID string `json:"session_id,omitempty"`
	ExpiresAt string `json:"expires_at,omitempty"`
	Error     string `json:"error,omitempty"`
}

// Login handles admin login against the configured credentials.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, errInvalidRequestBody)
		return
	}

	if req.username == "" || req.password == "" {
		respondError(w, http.StatusBadRequest, "username and password are required")
		return
	}

	if !h.checkCredentials(req.username, req.password) {
		log.Printf("auth: failed login attempt for %s", sanitizeForLog(req.username))
		respondJSON(w, http.StatusUnauthorized, LoginResponse{
			Success: false,
			Error:   "invalid credentials",
		})
		return
	}

	session, err := h.sessionManager.CreateSession(req.username)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to create session")
		return
	}

	h.sessionManager.SetSessionCookie(w, session)

	respondJSON(w, http.StatusOK, LoginResponse{
		Success:   true,
		SessionID: session.ID,
		ExpiresAt: session.ExpiresAt.Format("2006-01-02T15:04:05Z"),
	})
}

// checkCredentials compares against the configured admin account in constant
// time. An empty configured password disables admin login entirely.
func (h *AuthHandler) checkCredentials(username, password string) bool {
	if h.config.Admin.Password == "" {
		return false
	}
	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(h.config.Admin.Username)) == 1
	passOK := subtle.ConstantTimeCompare([]byte(password), []byte(h.config.Admin.Password)) == 1
	return userOK && passOK
}

// Logout handles admin logout.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	session := h.sessionManager.GetSessionFromRequest(r)
	if session != nil {
		h.sessionManager.DeleteSession(session.ID)
	}

	h.sessionManager.ClearSessionCookie(w)
	respondJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// StatusResponse represents the auth status response
type StatusResponse struct {
	Authenticated bool   `json:"authenticated"`
	Username      string `json:"username,omitempty"`
	ExpiresAt     string `json:"expires_at,omitempty"`
}

// Status checks if the admin is authenticated by validating the session.
func (h *AuthHandler) Status(w http.ResponseWriter, r *http.Request) {
	session := h.sessionManager.GetSessionFromRequest(r)
	if session == nil {
		respondJSON(w, http.StatusOK, StatusResponse{Authenticated: false})
		return
	}
	respondJSON(w, http.StatusOK, StatusResponse{
		Authenticated: true,
		Username:      session.Username,
		ExpiresAt:     session.ExpiresAt.Format("2006-01-02T15:04:05Z"),
	})
}

type faceAuthRequest struct {
	Image string `json:"image"`
}

// FaceAuthResponse carries the identified employee and the short-lived token
// that authorizes the following check-in or check-out.
type FaceAuthResponse struct {
	EmployeeID int64   `json:"employee_id"`
	Name       string  `json:"name"`
	Distance   float64 `json:"distance"`
	Token      string  `json:"token"`
	ExpiresAt  string  `json:"expires_at"`
}

// FaceAuth authenticates an employee by a webcam capture.
func (h *AuthHandler) FaceAuth(w http.ResponseWriter, r *http.Request) {
	var req faceAuthRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, errInvalidRequestBody)
		return
	}
	if req.Image == "" {
		respondError(w, http.StatusBadRequest, "image is required")
		return
	}

	image, err := decodeImageField(req.Image)
	if err != nil {
		respondErrorCode(w, http.StatusBadRequest, "invalid_image", err.Error())
		return
	}

	emp, distance, err := h.service.Authenticate(r.Context(), image)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	token, expiresAt, err := h.faceTokens.Issue(emp.ID, emp.Name)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to issue token")
		return
	}

	respondJSON(w, http.StatusOK, FaceAuthResponse{
		EmployeeID: emp.ID,
		Name:       emp.Name,
		Distance:   distance,
		Token:      token,
		ExpiresAt:  expiresAt.Format("2006-01-02T15:04:05Z"),
	})
}
