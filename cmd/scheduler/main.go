package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	accountsrepo "wasteops_backend/internal/accounts/repository"
	accountsservice "wasteops_backend/internal/accounts/service"
	"wasteops_backend/internal/events"
	"wasteops_backend/internal/notification"
	recurringrepo "wasteops_backend/internal/recurring/repository"
	recurringservice "wasteops_backend/internal/recurring/service"
	"wasteops_backend/internal/scheduler"
	servicesrepo "wasteops_backend/internal/services/repository"
	"wasteops_backend/platform/config"
	"wasteops_backend/platform/db"
	"wasteops_backend/platform/logger"

	"github.com/jackc/pgx/v5/pgxpool"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(cfg.Env)
	log.Info("starting scheduler", "env", cfg.Env)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var pool *pgxpool.Pool
	if err := withRetry(ctx, log, "database connection", 5, 2*time.Second, func() error {
		p, err := db.NewPool(ctx, cfg)
		if err != nil {
			return err
		}
		pool = p
		return nil
	}); err != nil {
		log.Error("failed to connect to database", "error", err)
		panic("failed to connect to database: " + err.Error())
	}
	defer pool.Close()

	eventBus := events.NewInMemoryBus(log)

	// Generated services notify users the same way API-triggered ones do.
	accountsSvc := accountsservice.New(accountsrepo.New(pool), log)
	notificationModule := notification.NewModule(pool, accountsSvc, log)
	notificationModule.RegisterHandlers(eventBus)

	// Worker-side generation engine (no HTTP handlers required).
	generator := recurringservice.New(recurringrepo.New(pool), servicesrepo.New(pool), accountsSvc, eventBus, log)

	client, err := scheduler.NewClient(cfg)
	if err != nil {
		log.Error("failed to initialize scheduler client", "error", err)
		panic("failed to initialize scheduler client: " + err.Error())
	}
	defer func() { _ = client.Close() }()

	sweep := scheduler.NewGenerationSweep(client, cfg, log)
	go sweep.Run(ctx)

	worker, err := scheduler.NewWorker(cfg, generator, log)
	if err != nil {
		log.Error("failed to initialize scheduler worker", "error", err)
		panic("failed to initialize scheduler worker: " + err.Error())
	}

	worker.Run(ctx)
	log.Info("scheduler stopped")
}

func withRetry(ctx context.Context, log *logger.Logger, name string, attempts int, baseDelay time.Duration, fn func() error) error {
	if attempts < 1 {
		return fmt.Errorf("%s: invalid retry attempts", name)
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := fn(); err == nil {
			return nil
		} else {
			lastErr = err
			log.Warn("retryable operation failed", "operation", name, "attempt", attempt, "error", err)
		}

		if attempt < attempts {
			delay := time.Duration(attempt*attempt) * baseDelay
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}
	}

	return errors.New(name + ": " + lastErr.Error())
}
