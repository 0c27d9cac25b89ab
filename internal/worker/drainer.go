package worker

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/rootfleet/waitlist/internal/domain"
	"github.com/rootfleet/waitlist/internal/queue"
)

// Processor runs one job. *EmailJob is the production implementation.
type Processor interface {
	Process(ctx context.Context, job domain.Job) (domain.JobResult, error)
}

// Drainer pops a bounded batch of jobs and runs them one at a time.
// Several Drain calls may run at once (cron tick and HTTP trigger); they
// share nothing but the queue and the record store.
type Drainer struct {
	q       queue.WorkQueue
	job     Processor
	logger  *zap.Logger
	onDrain func(domain.DrainResult)
}

// NewDrainer constructs a drainer. onDrain is optional (nil = no-op).
func NewDrainer(q queue.WorkQueue, job Processor, logger *zap.Logger, onDrain func(domain.DrainResult)) *Drainer {
	if onDrain == nil {
		onDrain = func(domain.DrainResult) {}
	}
	return &Drainer{q: q, job: job, logger: logger, onDrain: onDrain}
}

// Drain processes at most limit jobs with the given source and stops early
// when the queue is empty. A job that fails with an infrastructure error is
// counted as failed and pushed back to the tail of the queue.
func (d *Drainer) Drain(ctx context.Context, limit int, source domain.EmailSource) domain.DrainResult {
	start := time.Now()
	res := domain.DrainResult{Source: source}
	log := d.logger.With(zap.String("source", string(source)))

	for i := 0; i < limit; i++ {
		if ctx.Err() != nil {
			break
		}

		job, err := d.q.Pop(ctx)
		if err != nil {
			if errors.Is(err, queue.ErrMalformedJob) {
				res.Failed++
				log.Error("consumer.job.malformed", zap.Error(err))
				continue
			}
			log.Error("consumer.pop.fail", zap.Error(err))
			break
		}
		if job == nil {
			break
		}

		job.Source = source
		if _, err := d.job.Process(ctx, *job); err != nil {
			res.Failed++
			log.Error("consumer.job.fail",
				zap.String("request_id", job.RequestID),
				zap.Error(err),
			)
			// Push back verbatim; the claim guard makes a duplicate harmless.
			if perr := d.q.Push(context.WithoutCancel(ctx), *job); perr != nil {
				log.Error("consumer.reenqueue.fail",
					zap.String("request_id", job.RequestID),
					zap.Error(perr),
				)
			}
			continue
		}
		res.Processed++
	}

	if n, err := d.q.Length(ctx); err != nil {
		log.Warn("consumer.length.fail", zap.Error(err))
	} else {
		res.Remaining = &n
	}

	fields := []zap.Field{
		zap.Int("processed", res.Processed),
		zap.Int("failed", res.Failed),
		zap.Int64("total_ms", time.Since(start).Milliseconds()),
	}
	if res.Remaining != nil {
		fields = append(fields, zap.Int64("remaining", *res.Remaining))
	}
	log.Info("consumer.drain.done", fields...)
	d.onDrain(res)

	return res
}
