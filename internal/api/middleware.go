package api

import (
	"net/http"
	"strconv"

	"github.com/flight-booking-system/internal/auth"
	"github.com/flight-booking-system/internal/domain"
	"github.com/flight-booking-system/internal/metrics"
	"github.com/flight-booking-system/internal/ratelimit"
)

// RateLimit builds middleware enforcing limiter against the caller's
// identity: the authenticated user ID when present, otherwise the remote
// address, since unauthenticated traffic (login, register) still needs a
// bucket keyed on something.
func RateLimit(bucketName string, limiter *ratelimit.Limiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity := auth.UserID(r.Context())
			if identity == "" {
				identity = r.RemoteAddr
			}

			result, err := limiter.Allow(r.Context(), identity)
			if err != nil {
				HandleServiceError(w, err)
				return
			}
			if !result.Allowed {
				metrics.RateLimitedRequests.WithLabelValues(bucketName).Inc()
				w.Header().Set("Retry-After", strconv.Itoa(int(result.RetryAfter.Seconds())))
				HandleServiceError(w, domain.ErrRateLimited)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// CORS middleware adds CORS headers for cross-origin requests
func CORS(allowedOrigins ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")

			// Check if origin is allowed
			allowed := false
			for _, o := range allowedOrigins {
				if o == "*" || o == origin {
					allowed = true
					break
				}
			}

			if allowed {
				w.Header().Set("Access-Control-Allow-Origin", origin)
			} else if len(allowedOrigins) > 0 {
				w.Header().Set("Access-Control-Allow-Origin", allowedOrigins[0])
			}

			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
			w.Header().Set("Access-Control-Max-Age", "86400")

			// Handle preflight
			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
