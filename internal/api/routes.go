package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/flight-booking-system/internal/auth"
	"github.com/flight-booking-system/internal/database"
	"github.com/flight-booking-system/internal/ratelimit"
)

// RouterConfig holds dependencies for router creation.
type RouterConfig struct {
	Pool           *pgxpool.Pool
	RedisClient    *redis.Client
	Handlers       *Handlers
	TokenIssuer    *auth.TokenIssuer
	HoldLimiter    *ratelimit.Limiter
	AuthLimiter    *ratelimit.Limiter
	AllowedOrigins []string
}

// NewRouter creates a new Chi router with all routes configured.
func NewRouter(cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(CORS(cfg.AllowedOrigins...))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		if err := database.HealthCheck(r.Context(), cfg.Pool); err != nil {
			http.Error(w, "database unhealthy", http.StatusServiceUnavailable)
			return
		}
		if err := database.RedisHealthCheck(r.Context(), cfg.RedisClient); err != nil {
			http.Error(w, "redis unhealthy", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	r.Handle("/metrics", promhttp.Handler())

	requireAuth := auth.RequireBearer(cfg.TokenIssuer)
	rateLimitHold := RateLimit("hold", cfg.HoldLimiter)
	rateLimitAuth := RateLimit("auth", cfg.AuthLimiter)

	r.Route("/api", func(r chi.Router) {
		r.Get("/seats", cfg.Handlers.ListSeats)
		r.Post("/reset", cfg.Handlers.Reset)
		// /api/release is intentionally permissive: the caller supplies
		// userId in the body instead of a bearer token, so it carries
		// neither requireAuth nor rateLimitHold.
		r.Post("/release", cfg.Handlers.Release)

		r.Group(func(r chi.Router) {
			r.Use(requireAuth)
			r.Use(rateLimitHold)
			r.Post("/lock", cfg.Handlers.Lock)
			r.Post("/pay", cfg.Handlers.Pay)
		})

		r.Route("/auth", func(r chi.Router) {
			r.Use(rateLimitAuth)
			r.Post("/register", cfg.Handlers.Register)
			r.Post("/verify-register", cfg.Handlers.VerifyRegister)
			r.Post("/login", cfg.Handlers.Login)
		})
	})

	return r
}
