package worker

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/rootfleet/waitlist/internal/domain"
)

// CronScheduler drains the work queue on a fixed interval with source cron.
// It is the periodic counterpart of the HTTP trigger; both may overlap.
type CronScheduler struct {
	drainer   *Drainer
	batchSize int
	interval  time.Duration
	logger    *zap.Logger
}

func NewCronScheduler(drainer *Drainer, batchSize int, interval time.Duration, logger *zap.Logger) *CronScheduler {
	return &CronScheduler{drainer: drainer, batchSize: batchSize, interval: interval, logger: logger}
}

// Run ticks every interval and drains one batch per tick.
// Stops cleanly when ctx is cancelled.
func (cs *CronScheduler) Run(ctx context.Context) {
	ticker := time.NewTicker(cs.interval)
	defer ticker.Stop()

	cs.logger.Info("cron scheduler started",
		zap.Duration("interval", cs.interval),
		zap.Int("batch_size", cs.batchSize),
	)

	for {
		select {
		case <-ctx.Done():
			cs.logger.Info("cron scheduler stopping")
			return
		case <-ticker.C:
			cs.Tick(ctx)
		}
	}
}

// Tick runs one scheduled drain. It takes no arguments beyond the context,
// matching what an external scheduler would invoke.
func (cs *CronScheduler) Tick(ctx context.Context) domain.DrainResult {
	return cs.drainer.Drain(ctx, cs.batchSize, domain.SourceCron)
}
