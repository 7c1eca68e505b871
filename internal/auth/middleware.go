package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
)

type contextKey int

const userIDKey contextKey = iota

// Error codes mirroring internal/api/errors.go's ErrCodeUnauthenticated and
// ErrCodeForbidden. Duplicated here (rather than imported) because
// internal/api already imports internal/auth for RequireBearer/UserID, and
// the reverse import would cycle.
const (
	errCodeUnauthenticated = "UNAUTHENTICATED"
	errCodeForbidden       = "FORBIDDEN"
)

// RequireBearer validates the Authorization header and injects the
// resolved user_id into the request context. A missing bearer header is
// UNAUTHENTICATED (401); a present but invalid token (bad signature or
// claims) is FORBIDDEN (403).
func RequireBearer(issuer *TokenIssuer) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if !strings.HasPrefix(header, "Bearer ") {
				writeAuthError(w, http.StatusUnauthorized, errCodeUnauthenticated, "authentication required")
				return
			}
			raw := strings.TrimPrefix(header, "Bearer ")

			userID, err := issuer.Parse(raw)
			if err != nil {
				writeAuthError(w, http.StatusForbidden, errCodeForbidden, "invalid bearer token")
				return
			}

			ctx := context.WithValue(r.Context(), userIDKey, userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// writeAuthError writes the same {"error": code, "message": text} JSON
// envelope internal/api/errors.go's WriteError produces, so a client sees
// an identical error shape regardless of which layer rejected the request.
func writeAuthError(w http.ResponseWriter, statusCode int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}{Error: code, Message: message})
}

// UserID returns the authenticated caller's user ID from a request context
// populated by RequireBearer. The empty string means no authenticated user.
func UserID(ctx context.Context) string {
	id, _ := ctx.Value(userIDKey).(string)
	return id
}
