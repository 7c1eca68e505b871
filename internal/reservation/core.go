// Package reservation implements the Reservation Core: the synchronous
// hold/release/purchase/snapshot state machine that is the heart of the
// seat reservation engine. It orchestrates the Hot State Store (Redis) and
// the Durable Record Store (Postgres) directly — this path is a plain
// function call chain, never a workflow, so a purchase can return a
// receipt on the same request that made it.
package reservation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/flight-booking-system/internal/domain"
	"github.com/flight-booking-system/internal/hss"
	"github.com/flight-booking-system/internal/metrics"
)

// SeatStore is the Durable Record Store surface the core needs: the
// authoritative seat listing and the transactional booking commit.
// Satisfied by *repository.SeatRepo in production.
type SeatStore interface {
	FindByID(ctx context.Context, id string) (*domain.Seat, error)
	FindAll(ctx context.Context) ([]domain.Seat, error)
	Book(ctx context.Context, seatID, userID string) error
	ResetAll(ctx context.Context) error
}

// ReservationHSS is the Hot State Store surface the core needs for
// hold/release/verify/finalize. Satisfied by *hss.ReservationStore.
type ReservationHSS interface {
	Hold(ctx context.Context, seatID, holderID string, ttl time.Duration) error
	Release(ctx context.Context, seatID, holderID string) error
	VerifyHold(ctx context.Context, seatID, holderID string) error
	Finalize(ctx context.Context, seatID, holderID string) error
	Snapshot(ctx context.Context) ([]hss.SnapshotEntry, error)
	Reset(ctx context.Context) error
}

// ReceiptCache is the idempotent receipt surface the core needs.
// Satisfied by *hss.ReceiptStore.
type ReceiptCache interface {
	Claim(ctx context.Context, idempotencyKey string, lockTTL time.Duration) (*domain.Receipt, bool, error)
	Commit(ctx context.Context, receipt *domain.Receipt, retention time.Duration) error
	Abort(ctx context.Context, idempotencyKey string) error
}

// Core implements Hold, Release, Purchase, and Snapshot.
type Core struct {
	seats        SeatStore
	reservations ReservationHSS
	receipts     ReceiptCache

	holdDuration     time.Duration
	receiptRetention time.Duration
}

// New creates a Core wired to the given stores.
func New(seats SeatStore, reservations ReservationHSS, receipts ReceiptCache, holdDuration, receiptRetention time.Duration) *Core {
	return &Core{
		seats:            seats,
		reservations:     reservations,
		receipts:         receipts,
		holdDuration:     holdDuration,
		receiptRetention: receiptRetention,
	}
}

// Hold attempts to place an exclusive, time-limited lock on seatID for
// userID. It fails with domain.ErrAlreadySold or domain.ErrSeatUnavailable
// if the seat cannot be locked right now.
func (c *Core) Hold(ctx context.Context, seatID, userID string) (time.Time, error) {
	if _, err := c.seats.FindByID(ctx, seatID); err != nil {
		return time.Time{}, err
	}

	err := c.reservations.Hold(ctx, seatID, userID, c.holdDuration)
	switch {
	case err == nil:
		metrics.HoldAttempts.WithLabelValues("acquired").Inc()
		return time.Now().Add(c.holdDuration), nil
	case errors.Is(err, hss.ErrAlreadySold):
		metrics.HoldAttempts.WithLabelValues("already_sold").Inc()
		return time.Time{}, domain.ErrAlreadySold
	case errors.Is(err, hss.ErrLocked):
		metrics.HoldAttempts.WithLabelValues("conflict").Inc()
		return time.Time{}, domain.ErrSeatUnavailable
	default:
		metrics.HoldAttempts.WithLabelValues("error").Inc()
		return time.Time{}, fmt.Errorf("hold seat: %w", err)
	}
}

// Release removes userID's hold on seatID. It fails with
// domain.ErrLockExpiredOrStolen if the caller does not currently hold it.
func (c *Core) Release(ctx context.Context, seatID, userID string) error {
	err := c.reservations.Release(ctx, seatID, userID)
	if errors.Is(err, hss.ErrNotHeld) {
		return domain.ErrLockExpiredOrStolen
	}
	if err != nil {
		return fmt.Errorf("release seat: %w", err)
	}
	return nil
}

// Purchase performs the two-phase, idempotent purchase of seatID by
// userID: verify the hold is still owned by userID, commit the durable
// booking transaction, finalize the HSS to SOLD, and write a receipt keyed
// on idempotencyKey so a retried call returns the original receipt.
func (c *Core) Purchase(ctx context.Context, seatID, userID, idempotencyKey string) (*domain.Receipt, error) {
	start := time.Now()

	existing, found, err := c.receipts.Claim(ctx, idempotencyKey, 10*time.Second)
	if err != nil {
		metrics.PurchaseAttempts.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("claim idempotency key: %w", err)
	}
	if found {
		metrics.PurchaseAttempts.WithLabelValues("idempotent_replay").Inc()
		return existing, nil
	}

	receipt, err := c.purchaseOnce(ctx, seatID, userID, idempotencyKey)
	if err != nil {
		_ = c.receipts.Abort(ctx, idempotencyKey)
		metrics.PurchaseAttempts.WithLabelValues(purchaseOutcome(err)).Inc()
		return nil, err
	}

	if err := c.receipts.Commit(ctx, receipt, c.receiptRetention); err != nil {
		metrics.PurchaseAttempts.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("commit receipt: %w", err)
	}

	metrics.PurchaseAttempts.WithLabelValues("success").Inc()
	metrics.PurchaseDuration.Observe(time.Since(start).Seconds())
	return receipt, nil
}

// purchaseOutcome classifies a purchaseOnce failure for the
// PurchaseAttempts counter.
func purchaseOutcome(err error) string {
	switch {
	case errors.Is(err, domain.ErrAlreadySold):
		return "already_sold"
	case errors.Is(err, domain.ErrLockExpiredOrStolen):
		return "lock_expired"
	default:
		return "error"
	}
}

func (c *Core) purchaseOnce(ctx context.Context, seatID, userID, idempotencyKey string) (*domain.Receipt, error) {
	// Phase 1: verify the caller still holds the seat in the HSS.
	if err := c.reservations.VerifyHold(ctx, seatID, userID); err != nil {
		switch {
		case errors.Is(err, hss.ErrAlreadySold):
			return nil, domain.ErrAlreadySold
		case errors.Is(err, hss.ErrNotHeld):
			return nil, domain.ErrLockExpiredOrStolen
		default:
			return nil, fmt.Errorf("verify hold: %w", err)
		}
	}

	// Phase 2: commit the durable sale. Once it commits there is a narrow
	// window where the DRS has recorded the sale but the HSS still says
	// LOCKED; if the process dies before the finalize below, the
	// out-of-core reconciliation sweep replays the finalize + receipt
	// from the DRS row.
	if err := c.seats.Book(ctx, seatID, userID); err != nil {
		if errors.Is(err, domain.ErrAlreadySold) {
			return nil, domain.ErrAlreadySold
		}
		return nil, fmt.Errorf("book seat: %w", err)
	}

	// Phase 3: finalize the HSS to SOLD.
	if err := c.reservations.Finalize(ctx, seatID, userID); err != nil && !errors.Is(err, hss.ErrNotHeld) {
		return nil, fmt.Errorf("finalize hold: %w", err)
	}

	return &domain.Receipt{
		TxID:           uuid.NewString(),
		SeatID:         seatID,
		UserID:         userID,
		IdempotencyKey: idempotencyKey,
		IssuedAt:       time.Now(),
	}, nil
}

// Snapshot returns every seat merged with its live HSS state.
func (c *Core) Snapshot(ctx context.Context) ([]domain.SeatView, error) {
	seats, err := c.seats.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list seats: %w", err)
	}

	hot, err := c.reservations.Snapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("snapshot hss: %w", err)
	}
	hotByID := make(map[string]hss.SnapshotEntry, len(hot))
	for _, e := range hot {
		hotByID[e.SeatID] = e
	}

	views := make([]domain.SeatView, 0, len(seats))
	for _, s := range seats {
		view := domain.SeatView{Seat: s, State: domain.HotStateAvailable}
		if s.Status == domain.SeatStatusBooked {
			view.State = domain.HotStateSold
			if s.BookedBy != nil {
				view.HolderID = *s.BookedBy
			}
		}
		if e, ok := hotByID[s.ID]; ok {
			switch e.State {
			case "SOLD":
				view.State = domain.HotStateSold
				view.HolderID = e.HolderID
			case "LOCKED":
				if view.State != domain.HotStateSold {
					view.State = domain.HotStateLocked
					view.HolderID = e.HolderID
					expiresAt := time.Now().Add(e.TTL)
					view.ExpiresAt = &expiresAt
				}
			}
		}
		views = append(views, view)
	}

	return views, nil
}

// Reset clears every in-flight hold/sold marker in the HSS and reverts
// every seat in the DRS to available. Intentionally unauthenticated, per
// the admin control contract.
func (c *Core) Reset(ctx context.Context) error {
	if err := c.reservations.Reset(ctx); err != nil {
		return fmt.Errorf("reset hss: %w", err)
	}
	if err := c.seats.ResetAll(ctx); err != nil {
		return fmt.Errorf("reset drs: %w", err)
	}
	return nil
}
