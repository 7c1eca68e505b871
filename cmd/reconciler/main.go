package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/worker"

	"github.com/flight-booking-system/internal/config"
	"github.com/flight-booking-system/internal/database"
	"github.com/flight-booking-system/internal/temporal/activities"
	"github.com/flight-booking-system/internal/temporal/workflows"
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

	temporalClient, err := client.Dial(client.Options{
		HostPort:  cfg.Temporal.Host,
		Namespace: cfg.Temporal.Namespace,
	})
	if err != nil {
		log.Fatalf("Failed to connect to Temporal: %v", err)
	}
	defer temporalClient.Close()
	log.Println("Connected to Temporal")

	w := worker.New(temporalClient, cfg.Temporal.TaskQueue, worker.Options{})

	w.RegisterWorkflow(workflows.ReconciliationWorkflow)

	reconciliationActivities := activities.NewReconciliationActivities(pool, redisClient)
	w.RegisterActivity(reconciliationActivities)

	log.Println("Registered reconciliation workflow and activities")

	go func() {
		log.Printf("Reconciler starting on task queue: %s", cfg.Temporal.TaskQueue)
		if err := w.Run(worker.InterruptCh()); err != nil {
			log.Fatalf("Reconciler worker failed: %v", err)
		}
	}()

	if err := scheduleReconciliationCron(ctx, temporalClient, cfg); err != nil {
		log.Fatalf("Failed to schedule reconciliation sweep: %v", err)
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down reconciler...")
	w.Stop()
	log.Println("Reconciler stopped")
}

// scheduleReconciliationCron starts (or resumes) the reconciliation sweep on
// a fixed workflow ID so re-running the reconciler never spawns a second
// concurrent cron schedule.
func scheduleReconciliationCron(ctx context.Context, c client.Client, cfg *config.Config) error {
	minutes := int(cfg.Booking.ReconcileInterval.Minutes())
	if minutes < 1 {
		minutes = 1
	}

	opts := client.StartWorkflowOptions{
		ID:           "reconciliation-sweep",
		TaskQueue:    cfg.Temporal.TaskQueue,
		CronSchedule: fmt.Sprintf("*/%d * * * *", minutes),
	}

	_, err := c.ExecuteWorkflow(ctx, opts, workflows.ReconciliationWorkflow)
	if err != nil {
		return fmt.Errorf("start reconciliation cron: %w", err)
	}
	return nil
}
