package worker

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/rootfleet/waitlist/internal/domain"
	"github.com/rootfleet/waitlist/internal/logging"
	"github.com/rootfleet/waitlist/internal/queue"
	"github.com/rootfleet/waitlist/internal/repository"
)

// RetryWorker polls the database for pending rows whose
// next_email_attempt_at is in the past and re-enqueues them.
//
// Retry times are persisted, so they survive restarts and a lost queue.
// A duplicate enqueue is harmless because the job only proceeds after
// winning the claim.
type RetryWorker struct {
	repo     repository.SignupRepository
	q        queue.WorkQueue
	interval time.Duration
	limit    int
	logger   *zap.Logger
	now      func() time.Time
}

func NewRetryWorker(
	repo repository.SignupRepository,
	q queue.WorkQueue,
	interval time.Duration,
	limit int,
	logger *zap.Logger,
) *RetryWorker {
	return &RetryWorker{repo: repo, q: q, interval: interval, limit: limit, logger: logger, now: time.Now}
}

// Run ticks every interval and re-enqueues any due retries.
// Stops cleanly when ctx is cancelled.
func (rw *RetryWorker) Run(ctx context.Context) {
	ticker := time.NewTicker(rw.interval)
	defer ticker.Stop()

	rw.logger.Info("retry worker started", zap.Duration("interval", rw.interval))

	for {
		select {
		case <-ctx.Done():
			rw.logger.Info("retry worker stopping")
			return
		case <-ticker.C:
			rw.Poll(ctx)
		}
	}
}

// Poll enqueues every due row once and returns how many were enqueued.
func (rw *RetryWorker) Poll(ctx context.Context) int {
	due, err := rw.repo.FindDueRetries(ctx, rw.now().UTC(), rw.limit)
	if err != nil {
		rw.logger.Error("retry poll error", zap.Error(err))
		return 0
	}

	enqueued := 0
	for _, s := range due {
		job := domain.Job{
			RequestID:   uuid.NewString(),
			Email:       s.Email,
			Role:        string(s.Role),
			FleetSize:   string(s.FleetSize),
			CompanyName: s.CompanyName,
			Source:      domain.SourceCron,
		}
		if err := rw.q.Push(ctx, job); err != nil {
			rw.logger.Warn("could not re-enqueue retry",
				zap.String("email_domain", logging.EmailDomain(s.Email)), zap.Error(err))
			continue
		}
		enqueued++

		// Clearing the due time stops the next poll from enqueuing the row again.
		if _, err := rw.repo.ReleaseRetry(ctx, s.Email, *s.NextEmailAttemptAt); err != nil {
			rw.logger.Error("failed to release retry after re-enqueue",
				zap.String("request_id", job.RequestID), zap.Error(err))
		}
	}

	if enqueued > 0 {
		rw.logger.Info("re-enqueued due retries", zap.Int("count", enqueued))
	}
	return enqueued
}
