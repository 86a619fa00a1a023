package scheduler

import (
	"context"
	"time"

	"wasteops_backend/platform/config"
	"wasteops_backend/platform/logger"
)

const defaultSweepInterval = 24 * time.Hour

// GenerationSweep periodically enqueues a generation run so due recurring
// schedules are materialized without manual intervention. The heavy lifting
// happens in the worker; the sweep only produces tasks.
type GenerationSweep struct {
	client    *Client
	log       *logger.Logger
	interval  time.Duration
	daysAhead int
}

func NewGenerationSweep(client *Client, cfg config.GenerationConfig, log *logger.Logger) *GenerationSweep {
	interval := cfg.GetGenerationSweepInterval()
	if interval <= 0 {
		interval = defaultSweepInterval
	}

	return &GenerationSweep{
		client:    client,
		log:       log,
		interval:  interval,
		daysAhead: cfg.GetGenerationDaysAhead(),
	}
}

// Run blocks until the context is cancelled, enqueuing one sweep per
// interval. The first sweep fires immediately so a restarted scheduler
// catches up without waiting a full interval.
func (s *GenerationSweep) Run(ctx context.Context) {
	if s == nil || s.client == nil {
		return
	}

	s.enqueue(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.enqueue(ctx)
		}
	}
}

func (s *GenerationSweep) enqueue(ctx context.Context) {
	payload := GenerateDuePayload{
		AsOf:      time.Now().Format("2006-01-02"),
		DaysAhead: s.daysAhead,
	}
	if err := s.client.EnqueueGenerateDue(ctx, payload); err != nil {
		s.log.Error("failed to enqueue generation sweep", "error", err)
		return
	}
	s.log.Info("generation sweep enqueued", "asOf", payload.AsOf, "daysAhead", payload.DaysAhead)
}
