package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/flight-booking-system/internal/domain"
)

// AccountRepo handles user account data access in the Durable Record Store.
type AccountRepo struct {
	pool *pgxpool.Pool
}

// NewAccountRepo creates a new AccountRepo
func NewAccountRepo(pool *pgxpool.Pool) *AccountRepo {
	return &AccountRepo{pool: pool}
}

const pgUniqueViolation = "23505"

// Create inserts a new account. It returns domain.ErrAccountExists if the
// email is already registered.
func (r *AccountRepo) Create(ctx context.Context, acc *domain.Account) error {
	query := `
		INSERT INTO accounts (user_id, email, password_hash, phone, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`

	_, err := r.pool.Exec(ctx, query, acc.UserID, acc.Email, acc.PasswordHash, acc.Phone, acc.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return domain.ErrAccountExists
		}
		return fmt.Errorf("insert account: %w", err)
	}

	return nil
}

// FindByEmail returns an account by email.
func (r *AccountRepo) FindByEmail(ctx context.Context, email string) (*domain.Account, error) {
	query := `
		SELECT user_id, email, password_hash, phone, created_at
		FROM accounts
		WHERE email = $1
	`

	var a domain.Account
	err := r.pool.QueryRow(ctx, query, email).Scan(&a.UserID, &a.Email, &a.PasswordHash, &a.Phone, &a.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrAccountNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query account: %w", err)
	}

	return &a, nil
}
