package hss

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrOTPMismatch indicates a verify-register call supplied a code that
// does not match the one on file (or none was ever requested).
var ErrOTPMismatch = errors.New("hss: otp mismatch or expired")

// OTPStore holds short-lived registration verification codes.
type OTPStore struct {
	client *redis.Client
}

// NewOTPStore creates a new OTPStore.
func NewOTPStore(client *redis.Client) *OTPStore {
	return &OTPStore{client: client}
}

func otpKey(email string) string {
	return "otp:" + email
}

// Generate creates a new 6-digit code for email, overwriting any previous
// one, and returns it for delivery. Delivery itself (email transport) is
// out of scope; callers log or otherwise surface the code.
func (s *OTPStore) Generate(ctx context.Context, email string, ttl time.Duration) (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1_000_000))
	if err != nil {
		return "", fmt.Errorf("generate otp: %w", err)
	}
	code := fmt.Sprintf("%06d", n.Int64())

	if err := s.client.Set(ctx, otpKey(email), code, ttl).Err(); err != nil {
		return "", fmt.Errorf("store otp: %w", err)
	}
	return code, nil
}

// Verify checks code against the stored OTP for email and, on success,
// consumes it so it cannot be reused.
func (s *OTPStore) Verify(ctx context.Context, email, code string) error {
	stored, err := s.client.Get(ctx, otpKey(email)).Result()
	if errors.Is(err, redis.Nil) {
		return ErrOTPMismatch
	}
	if err != nil {
		return fmt.Errorf("get otp: %w", err)
	}
	if stored != code {
		return ErrOTPMismatch
	}

	_ = s.client.Del(ctx, otpKey(email)).Err()
	return nil
}
