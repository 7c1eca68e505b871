package auth

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/flight-booking-system/internal/domain"
	"github.com/flight-booking-system/internal/hss"
	"github.com/flight-booking-system/internal/repository"
)

// AccountStore is the DRS surface the auth service needs. Satisfied by
// *repository.AccountRepo.
type AccountStore interface {
	Create(ctx context.Context, acc *domain.Account) error
	FindByEmail(ctx context.Context, email string) (*domain.Account, error)
}

// OTPStore is the HSS surface for registration verification codes.
// Satisfied by *hss.OTPStore.
type OTPStore interface {
	Generate(ctx context.Context, email string, ttl time.Duration) (string, error)
	Verify(ctx context.Context, email, code string) error
}

// Notifier delivers an OTP to a user. Email transport is out of scope for
// this system, so ConsoleNotifier stands in for it.
type Notifier interface {
	NotifyOTP(email, code string)
}

// ConsoleNotifier logs the OTP instead of sending real email.
type ConsoleNotifier struct{}

// NotifyOTP logs the verification code at INFO level.
func (ConsoleNotifier) NotifyOTP(email, code string) {
	log.Printf("auth: verification code for %s: %s", email, code)
}

// pendingAccount is held until the OTP is verified, so a never-verified
// registration attempt never creates an account.
type pendingAccount struct {
	passwordHash string
	phone        string
}

// Service implements the two-step registration flow plus login.
type Service struct {
	accounts   AccountStore
	otps       OTPStore
	notifier   Notifier
	issuer     *TokenIssuer
	bcryptCost int
	otpTTL     time.Duration

	mu      sync.Mutex
	pending map[string]pendingAccount
}

// NewService creates a Service wired to the given stores.
func NewService(accounts AccountStore, otps OTPStore, notifier Notifier, issuer *TokenIssuer, bcryptCost int, otpTTL time.Duration) *Service {
	return &Service{
		accounts:   accounts,
		otps:       otps,
		notifier:   notifier,
		issuer:     issuer,
		bcryptCost: bcryptCost,
		otpTTL:     otpTTL,
		pending:    make(map[string]pendingAccount),
	}
}

// Register begins registration: it hashes the password, stashes the
// pending account details, generates an OTP, and hands it to the notifier.
// The account is not created until VerifyRegister succeeds.
func (s *Service) Register(ctx context.Context, email, password, phone string) error {
	if _, err := s.accounts.FindByEmail(ctx, email); err == nil {
		return domain.ErrAccountExists
	}

	hash, err := HashPassword(password, s.bcryptCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	code, err := s.otps.Generate(ctx, email, s.otpTTL)
	if err != nil {
		return fmt.Errorf("generate otp: %w", err)
	}

	s.mu.Lock()
	s.pending[email] = pendingAccount{passwordHash: hash, phone: phone}
	s.mu.Unlock()
	s.notifier.NotifyOTP(email, code)

	return nil
}

// VerifyRegister completes registration once the correct OTP is supplied,
// creating the durable account record.
func (s *Service) VerifyRegister(ctx context.Context, email, code string) (*domain.Account, error) {
	if err := s.otps.Verify(ctx, email, code); err != nil {
		return nil, domain.ErrInvalidOTP
	}

	s.mu.Lock()
	pending, ok := s.pending[email]
	if ok {
		delete(s.pending, email)
	}
	s.mu.Unlock()
	if !ok {
		return nil, domain.ErrInvalidOTP
	}

	acc := &domain.Account{
		UserID:       uuid.NewString(),
		Email:        email,
		PasswordHash: pending.passwordHash,
		Phone:        pending.phone,
		CreatedAt:    time.Now(),
	}

	if err := s.accounts.Create(ctx, acc); err != nil {
		return nil, err
	}

	return acc, nil
}

// Login verifies credentials and issues a bearer token.
func (s *Service) Login(ctx context.Context, email, password string) (string, error) {
	acc, err := s.accounts.FindByEmail(ctx, email)
	if err != nil {
		return "", domain.ErrInvalidCredentials
	}

	if !VerifyPassword(acc.PasswordHash, password) {
		return "", domain.ErrInvalidCredentials
	}

	token, err := s.issuer.Issue(acc.UserID)
	if err != nil {
		return "", fmt.Errorf("issue token: %w", err)
	}

	return token, nil
}

var (
	_ AccountStore = (*repository.AccountRepo)(nil)
	_ OTPStore     = (*hss.OTPStore)(nil)
)
