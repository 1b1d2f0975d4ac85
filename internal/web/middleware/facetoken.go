package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

const employeeContextKey contextKey = "employee_id"

// FaceTokenIssuer mints and verifies the short-lived JWTs handed out after a
// successful face authentication. The token binds the authenticated face to
// the subsequent check-in/check-out request.
type FaceTokenIssuer struct {
	secret []byte
	ttl    time.Duration
}

// NewFaceTokenIssuer creates a face token issuer. ttl bounds how long a face
// authentication stays usable.
func NewFaceTokenIssuer(secret string, ttl time.Duration) *FaceTokenIssuer {
	if secret == "" {
		secret = "attendanced-dev-face-secret-change-in-production"
	}
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &FaceTokenIssuer{secret: []byte(secret), ttl: ttl}
}

type faceClaims struct {
	EmployeeID int64 `json:"eid"`
	jwt.RegisteredClaims
}

// Issue creates a signed token for the employee.
func (i *FaceTokenIssuer) Issue(employeeID int64, name string) (token string, expiresAt time.Time, err error) {
	now := time.Now()
	expiresAt = now.Add(i.ttl)

	claims := faceClaims{
		EmployeeID: employeeID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   name,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	token, err = jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign face token: %w", err)
	}
	return token, expiresAt, nil
}

// Verify parses the token and returns the employee id it was issued for.
func (i *FaceTokenIssuer) Verify(token string) (int64, error) {
	var claims faceClaims
	parsed, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return i.secret, nil
	})
	if err != nil {
		return 0, fmt.Errorf("parse face token: %w", err)
	}
	if !parsed.Valid || claims.EmployeeID == 0 {
		return 0, fmt.Errorf("invalid face token")
	}
	return claims.EmployeeID, nil
}

// RequireFaceToken is middleware that requires a valid face token in the
// X-Face-Token header or as a Bearer token.
func RequireFaceToken(issuer *FaceTokenIssuer) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := r.Header.Get("X-Face-Token")
			if token == "" {
				if auth := r.Header.Get("Authorization"); strings.HasPrefix(auth, "Bearer ") {
					token = strings.TrimPrefix(auth, "Bearer ")
				}
			}
			if token == "" {
				http.Error(w, `{"error": "face authentication required"}`, http.StatusUnauthorized)
				return
			}

			employeeID, err := issuer.Verify(token)
			if err != nil {
				http.Error(w, `{"error": "invalid or expired face token"}`, http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), employeeContextKey, employeeID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// EmployeeIDFromContext retrieves the face-authenticated employee id.
func EmployeeIDFromContext(ctx context.Context) (int64, bool) {
	id, ok := ctx.Value(employeeContextKey).(int64)
	return id, ok
}

// SetEmployeeIDInContext adds an employee id to the context, for tests.
func SetEmployeeIDInContext(ctx context.Context, employeeID int64) context.Context {
	return context.WithValue(ctx, employeeContextKey, employeeID)
}
