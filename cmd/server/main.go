package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/flight-booking-system/internal/api"
	"github.com/flight-booking-system/internal/auth"
	"github.com/flight-booking-system/internal/config"
	"github.com/flight-booking-system/internal/database"
	"github.com/flight-booking-system/internal/hss"
	"github.com/flight-booking-system/internal/ratelimit"
	"github.com/flight-booking-system/internal/repository"
	"github.com/flight-booking-system/internal/reservation"
)

func main() {
	cfg := config.Load()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool, err := database.NewPostgresPool(ctx, cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to PostgreSQL: %v", err)
	}
	defer pool.Close()
	log.Println("Connected to PostgreSQL")

	redisClient, err := database.NewRedisClient(ctx, cfg.Redis)
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer redisClient.Close()
	log.Println("Connected to Redis")

	seats := repository.NewSeatRepo(pool)
	accounts := repository.NewAccountRepo(pool)

	reservationStore := hss.NewReservationStore(redisClient)
	receiptStore := hss.NewReceiptStore(redisClient)
	otpStore := hss.NewOTPStore(redisClient)
	if err := reservationStore.PreloadScripts(ctx); err != nil {
		log.Fatalf("Failed to preload reservation scripts: %v", err)
	}

	holdLimiter := ratelimit.New(redisClient, ratelimit.Config{
		Prefix:       "hold",
		Capacity:     cfg.RateLimit.HoldCapacity,
		RefillTokens: cfg.RateLimit.HoldRefillTokens,
		RefillPeriod: cfg.RateLimit.HoldRefillPeriod,
	})
	authLimiter := ratelimit.New(redisClient, ratelimit.Config{
		Prefix:       "auth",
		Capacity:     cfg.RateLimit.AuthCapacity,
		RefillTokens: cfg.RateLimit.AuthRefillTokens,
		RefillPeriod: cfg.RateLimit.AuthRefillPeriod,
	})

	tokenIssuer := auth.NewTokenIssuer(cfg.Auth.JWTSecret, cfg.Auth.JWTTTL)
	authService := auth.NewService(accounts, otpStore, auth.ConsoleNotifier{}, tokenIssuer, cfg.Auth.BcryptCost, cfg.Auth.OTPTTL)

	core := reservation.New(seats, reservationStore, receiptStore, cfg.Booking.HoldDuration, cfg.Booking.ReceiptRetention)

	handlers := api.NewHandlers(core, authService)

	router := api.NewRouter(api.RouterConfig{
		Pool:           pool,
		RedisClient:    redisClient,
		Handlers:       handlers,
		TokenIssuer:    tokenIssuer,
		HoldLimiter:    holdLimiter,
		AuthLimiter:    authLimiter,
		AllowedOrigins: strings.Split(getAllowedOrigins(), ","),
	})

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Server starting on %s", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server stopped")
}

func getAllowedOrigins() string {
	if v := os.Getenv("CORS_ALLOWED_ORIGINS"); v != "" {
		return v
	}
	return "http://localhost:3000,http://localhost:5173"
}
