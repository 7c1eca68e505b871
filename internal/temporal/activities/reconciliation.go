package activities

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/flight-booking-system/internal/domain"
	"github.com/flight-booking-system/internal/metrics"
)

// OrphanedSale describes a DRS row that reports a seat as booked but whose
// Hot State Store key is missing the matching SOLD marker — the telltale
// sign of a process that died between the DRS commit and the HSS finalize.
type OrphanedSale struct {
	SeatID string
	UserID string
}

// FindOrphanedSales lists every seat the DRS says is booked for which the
// HSS has not recorded a SOLD marker. It never reports a seat whose DRS
// status is anything but booked — it replays a sale that already
// committed, it never manufactures one.
func (a *ReconciliationActivities) FindOrphanedSales(ctx context.Context) ([]OrphanedSale, error) {
	seats, err := a.seats.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list seats: %w", err)
	}

	var orphans []OrphanedSale
	for _, s := range seats {
		if s.Status != domain.SeatStatusBooked || s.BookedBy == nil {
			continue
		}

		sold, err := a.reservations.IsSold(ctx, s.ID)
		if err != nil {
			return nil, fmt.Errorf("check hss state for seat %s: %w", s.ID, err)
		}
		if !sold {
			orphans = append(orphans, OrphanedSale{SeatID: s.ID, UserID: *s.BookedBy})
		}
	}

	return orphans, nil
}

// ReconciliationRetention is the receipt retention applied to a repaired
// sale. Shorter than a normal purchase's receipt retention is unnecessary:
// a reconciled receipt deserves the same visibility window as any other.
const ReconciliationRetention = 24 * time.Hour

// ReconcileSale replays the HSS finalize and receipt-write steps for one
// orphaned sale, using the DRS row as source of truth. It is idempotent: a
// repeat sweep over the same seat before the next purchase simply finds it
// already SOLD and skips it.
func (a *ReconciliationActivities) ReconcileSale(ctx context.Context, orphan OrphanedSale) error {
	if err := a.reservations.ForceFinalize(ctx, orphan.SeatID, orphan.UserID); err != nil {
		return fmt.Errorf("finalize seat %s: %w", orphan.SeatID, err)
	}

	receipt := &domain.Receipt{
		TxID:           uuid.NewString(),
		SeatID:         orphan.SeatID,
		UserID:         orphan.UserID,
		IdempotencyKey: "reconcile:" + orphan.SeatID,
		IssuedAt:       time.Now(),
	}
	if err := a.receipts.Commit(ctx, receipt, ReconciliationRetention); err != nil {
		return fmt.Errorf("commit reconciled receipt for seat %s: %w", orphan.SeatID, err)
	}

	metrics.ReconciliationRepairs.Inc()
	return nil
}
