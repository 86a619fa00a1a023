package scheduler

import (
	"context"
	"fmt"
	"time"

	"wasteops_backend/internal/recurring/transport"
	"wasteops_backend/platform/config"
	"wasteops_backend/platform/logger"

	"github.com/hibiken/asynq"
)

// Generator runs the generation sweep. Implemented by the recurring service.
type Generator interface {
	GenerateDue(ctx context.Context, asOf time.Time, daysAhead int, dryRun bool) (transport.BatchResult, error)
}

type Worker struct {
	server    *asynq.Server
	mux       *asynq.ServeMux
	generator Generator
	log       *logger.Logger
}

func NewWorker(cfg config.SchedulerConfig, generator Generator, log *logger.Logger) (*Worker, error) {
	redisURL := cfg.GetRedisURL()
	if redisURL == "" {
		return nil, fmt.Errorf("redis url not configured")
	}

	opt, err := redisClientOpt(redisURL, cfg.GetRedisTLSInsecure())
	if err != nil {
		return nil, err
	}

	queue := cfg.GetAsynqQueueName()
	if queue == "" {
		queue = "default"
	}

	concurrency := cfg.GetAsynqConcurrency()
	if concurrency < 1 {
		concurrency = 10
	}

	server := asynq.NewServer(opt, asynq.Config{
		Concurrency: concurrency,
		Queues: map[string]int{
			queue: 1,
		},
	})

	mux := asynq.NewServeMux()
	w := &Worker{
		server:    server,
		mux:       mux,
		generator: generator,
		log:       log,
	}

	mux.HandleFunc(TaskGenerateDueServices, w.handleGenerateDue)

	return w, nil
}

func (w *Worker) handleGenerateDue(ctx context.Context, task *asynq.Task) error {
	payload, err := ParseGenerateDuePayload(task)
	if err != nil {
		return err
	}

	asOf := time.Now()
	if payload.AsOf != "" {
		parsed, err := time.Parse("2006-01-02", payload.AsOf)
		if err != nil {
			return fmt.Errorf("parse asOf: %w", err)
		}
		asOf = parsed
	}

	result, err := w.generator.GenerateDue(ctx, asOf, payload.DaysAhead, payload.DryRun)
	if err != nil {
		return err
	}

	// Per-schedule failures are already counted; the task itself succeeded.
	if result.Errored > 0 {
		w.log.Warn("generation sweep finished with schedule errors",
			"generated", result.Generated,
			"skipped", result.Skipped,
			"errored", result.Errored,
		)
	}

	return nil
}

func (w *Worker) Run(ctx context.Context) {
	if w == nil || w.server == nil {
		return
	}

	go func() {
		<-ctx.Done()
		w.server.Shutdown()
	}()

	if err := w.server.Run(w.mux); err != nil {
		w.log.Error("scheduler worker stopped", "error", err)
	}
}
