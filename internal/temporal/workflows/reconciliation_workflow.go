package workflows

import (
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	"github.com/flight-booking-system/internal/temporal/activities"
)

// ReconciliationWorkflow scans the Durable Record Store for seats it
// reports as booked without a matching Hot State Store SOLD marker, and
// replays the finalize + receipt-write step for each. It runs on a cron
// schedule, entirely out-of-process from the synchronous hold/purchase
// request path.
func ReconciliationWorkflow(ctx workflow.Context) error {
	logger := workflow.GetLogger(ctx)
	logger.Info("starting reconciliation sweep")

	ao := workflow.ActivityOptions{
		StartToCloseTimeout: 30 * time.Second,
		RetryPolicy: &temporal.RetryPolicy{
			MaximumAttempts: 3,
		},
	}
	ctx = workflow.WithActivityOptions(ctx, ao)

	var orphans []activities.OrphanedSale
	if err := workflow.ExecuteActivity(ctx, "FindOrphanedSales").Get(ctx, &orphans); err != nil {
		logger.Error("failed to list orphaned sales", "error", err)
		return err
	}

	if len(orphans) == 0 {
		logger.Info("no orphaned sales found")
		return nil
	}

	logger.Info("reconciling orphaned sales", "count", len(orphans))

	for _, orphan := range orphans {
		if err := workflow.ExecuteActivity(ctx, "ReconcileSale", orphan).Get(ctx, nil); err != nil {
			logger.Error("failed to reconcile seat", "seatId", orphan.SeatID, "error", err)
			continue
		}
		logger.Info("reconciled seat", "seatId", orphan.SeatID, "userId", orphan.UserID)
	}

	logger.Info("completed reconciliation sweep")
	return nil
}
