package activities

import (
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/flight-booking-system/internal/hss"
	"github.com/flight-booking-system/internal/repository"
)

// ReconciliationActivities contains the activities the reconciliation
// workflow drives: read the durable record of truth and replay the Hot
// State Store finalize a crashed purchase never completed.
type ReconciliationActivities struct {
	seats        *repository.SeatRepo
	reservations *hss.ReservationStore
	receipts     *hss.ReceiptStore
}

// NewReconciliationActivities creates a new ReconciliationActivities instance.
func NewReconciliationActivities(pool *pgxpool.Pool, redisClient *redis.Client) *ReconciliationActivities {
	return &ReconciliationActivities{
		seats:        repository.NewSeatRepo(pool),
		reservations: hss.NewReservationStore(redisClient),
		receipts:     hss.NewReceiptStore(redisClient),
	}
}
