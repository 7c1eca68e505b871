package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/flight-booking-system/internal/domain"
)

// SeatRepo handles seat data access in the Durable Record Store.
type SeatRepo struct {
	pool *pgxpool.Pool
}

// NewSeatRepo creates a new SeatRepo
func NewSeatRepo(pool *pgxpool.Pool) *SeatRepo {
	return &SeatRepo{pool: pool}
}

// FindAll returns every seat, ordered for stable listing.
func (r *SeatRepo) FindAll(ctx context.Context) ([]domain.Seat, error) {
	query := `
		SELECT id, row_num, seat_num, tier, price_cents, status, booked_by, created_at, updated_at
		FROM seats
		ORDER BY row_num, seat_num
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query seats: %w", err)
	}
	defer rows.Close()

	var seats []domain.Seat
	for rows.Next() {
		var s domain.Seat
		if err := rows.Scan(
			&s.ID, &s.Row, &s.Number, &s.Tier, &s.PriceCents,
			&s.Status, &s.BookedBy, &s.CreatedAt, &s.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan seat: %w", err)
		}
		seats = append(seats, s)
	}

	return seats, rows.Err()
}

// FindByID returns a single seat.
func (r *SeatRepo) FindByID(ctx context.Context, id string) (*domain.Seat, error) {
	query := `
		SELECT id, row_num, seat_num, tier, price_cents, status, booked_by, created_at, updated_at
		FROM seats
		WHERE id = $1
	`

	var s domain.Seat
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&s.ID, &s.Row, &s.Number, &s.Tier, &s.PriceCents,
		&s.Status, &s.BookedBy, &s.CreatedAt, &s.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrSeatNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query seat: %w", err)
	}

	return &s, nil
}

// Book performs the DRS half of a purchase: it marks the seat booked inside
// a single transaction, taking a row lock first so two concurrent purchase
// attempts on the same seat serialize through Postgres as well as through
// the HSS hold check.
func (r *SeatRepo) Book(ctx context.Context, seatID, userID string) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin purchase transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var status domain.SeatStatus
	err = tx.QueryRow(ctx, `SELECT status FROM seats WHERE id = $1 FOR UPDATE`, seatID).Scan(&status)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.ErrSeatNotFound
	}
	if err != nil {
		return fmt.Errorf("lock seat row: %w", err)
	}

	if status == domain.SeatStatusBooked {
		return domain.ErrAlreadySold
	}

	_, err = tx.Exec(ctx,
		`UPDATE seats SET status = 'booked', booked_by = $1, updated_at = NOW() WHERE id = $2`,
		userID, seatID,
	)
	if err != nil {
		return fmt.Errorf("book seat: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit purchase transaction: %w", err)
	}

	return nil
}

// ResetAll reverts every seat to available, for the admin reset endpoint.
func (r *SeatRepo) ResetAll(ctx context.Context) error {
	_, err := r.pool.Exec(ctx, `UPDATE seats SET status = 'available', booked_by = NULL, updated_at = NOW()`)
	if err != nil {
		return fmt.Errorf("reset seats: %w", err)
	}
	return nil
}

// SeedDefaults inserts a fixed seat map if the table is empty. It is a test
// and local-dev convenience, not a CLI tool: the operational seed/bootstrap
// path is explicitly out of scope.
func (r *SeatRepo) SeedDefaults(ctx context.Context, rows, perRow int, tier string, priceCents int64) error {
	var count int
	if err := r.pool.QueryRow(ctx, `SELECT count(*) FROM seats`).Scan(&count); err != nil {
		return fmt.Errorf("count seats: %w", err)
	}
	if count > 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for row := 1; row <= rows; row++ {
		for num := 1; num <= perRow; num++ {
			id := fmt.Sprintf("%d-%d", row, num)
			batch.Queue(
				`INSERT INTO seats (id, row_num, seat_num, tier, price_cents, status) VALUES ($1, $2, $3, $4, $5, 'available')`,
				id, row, num, tier, priceCents,
			)
		}
	}

	br := r.pool.SendBatch(ctx, batch)
	defer br.Close()
	for i := 0; i < batch.Len(); i++ {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("seed seat: %w", err)
		}
	}

	return nil
}
