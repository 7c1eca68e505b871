package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	Temporal  TemporalConfig
	Auth      AuthConfig
	RateLimit RateLimitConfig
	Booking   BookingConfig
}

type ServerConfig struct {
	Host string
	Port int
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Name     string
	SSLMode  string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type TemporalConfig struct {
	Host      string
	Namespace string
	TaskQueue string
}

// AuthConfig configures the JWT authentication gate and account OTP flow.
type AuthConfig struct {
	JWTSecret  string
	JWTTTL     time.Duration
	BcryptCost int
	OTPTTL     time.Duration
}

// RateLimitConfig configures the two independent token buckets: seat
// hold/pay traffic, and auth traffic (register/login).
type RateLimitConfig struct {
	HoldCapacity     int
	HoldRefillTokens int
	HoldRefillPeriod time.Duration

	AuthCapacity     int
	AuthRefillTokens int
	AuthRefillPeriod time.Duration
}

// BookingConfig configures the reservation core.
type BookingConfig struct {
	HoldDuration      time.Duration
	ReceiptRetention  time.Duration
	ReconcileInterval time.Duration
}

// Load reads configuration from environment variables with defaults. A
// local .env file is loaded first, if present, so development runs don't
// need the shell environment pre-populated.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		Server: ServerConfig{
			Host: getEnv("SERVER_HOST", "0.0.0.0"),
			Port: getEnvInt("SERVER_PORT", 8080),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DATABASE_HOST", "localhost"),
			Port:     getEnvInt("DATABASE_PORT", 5433),
			User:     getEnv("DATABASE_USER", "reservation"),
			Password: getEnv("DATABASE_PASSWORD", "reservation"),
			Name:     getEnv("DATABASE_NAME", "reservation"),
			SSLMode:  getEnv("DATABASE_SSLMODE", "disable"),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		Temporal: TemporalConfig{
			Host:      getEnv("TEMPORAL_HOST", "localhost:7233"),
			Namespace: getEnv("TEMPORAL_NAMESPACE", "default"),
			TaskQueue: getEnv("TEMPORAL_TASK_QUEUE", "reconciliation-queue"),
		},
		Auth: AuthConfig{
			JWTSecret:  getEnv("JWT_SECRET", "dev-secret-change-me"),
			JWTTTL:     getEnvDuration("JWT_TTL", time.Hour),
			BcryptCost: getEnvInt("BCRYPT_COST", 12),
			OTPTTL:     getEnvDuration("OTP_TTL", 5*time.Minute),
		},
		RateLimit: RateLimitConfig{
			HoldCapacity:     getEnvInt("RATE_LIMIT_HOLD_CAPACITY", 10),
			HoldRefillTokens: getEnvInt("RATE_LIMIT_HOLD_REFILL_TOKENS", 10),
			HoldRefillPeriod: getEnvDuration("RATE_LIMIT_HOLD_REFILL_PERIOD", time.Second),
			AuthCapacity:     getEnvInt("RATE_LIMIT_AUTH_CAPACITY", 50),
			AuthRefillTokens: getEnvInt("RATE_LIMIT_AUTH_REFILL_TOKENS", 50),
			AuthRefillPeriod: getEnvDuration("RATE_LIMIT_AUTH_REFILL_PERIOD", 15*time.Minute),
		},
		Booking: BookingConfig{
			HoldDuration:      getEnvDuration("HOLD_DURATION", 5*time.Minute),
			ReceiptRetention:  getEnvDuration("RECEIPT_RETENTION", 24*time.Hour),
			ReconcileInterval: getEnvDuration("RECONCILE_INTERVAL", 2*time.Minute),
		},
	}
}

// DatabaseURL returns the PostgreSQL connection string
func (c *DatabaseConfig) DatabaseURL() string {
	return "postgres://" + c.User + ":" + c.Password + "@" + c.Host + ":" + strconv.Itoa(c.Port) + "/" + c.Name + "?sslmode=" + c.SSLMode
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
