package worker

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/rootfleet/waitlist/internal/domain"
	"github.com/rootfleet/waitlist/internal/email"
	"github.com/rootfleet/waitlist/internal/logging"
	"github.com/rootfleet/waitlist/internal/provider"
	"github.com/rootfleet/waitlist/internal/ratelimiter"
	"github.com/rootfleet/waitlist/internal/repository"
)

const (
	// SkipReasonNoProvider is stored in email_error when no credential is configured.
	SkipReasonNoProvider = "missing_provider_api_key"
	// UnknownMessageID is stored when the provider accepted the email but returned no id.
	UnknownMessageID = "unknown"
)

// JobHooks carries the metric callback functions injected by main.
// Using a struct keeps the constructor signature clean.
type JobHooks struct {
	OnResult func(domain.JobResult)
	OnSend   func(latency time.Duration)
}

// EmailJob claims a signup row and delivers its confirmation email.
// The conditional claim is the only synchronisation between concurrent
// drains; the job holds no in-process state between calls.
type EmailJob struct {
	repo    repository.SignupRepository
	prov    provider.EmailProvider
	limiter *ratelimiter.SendLimiter
	from    string
	timeout time.Duration
	logger  *zap.Logger
	now     func() time.Time

	onResult func(domain.JobResult)
	onSend   func(time.Duration)
}

// NewEmailJob constructs a job. sendTimeout bounds one provider call and
// zero leaves it to the provider. Hooks are optional (nil = no-op).
func NewEmailJob(
	repo repository.SignupRepository,
	prov provider.EmailProvider,
	limiter *ratelimiter.SendLimiter,
	from string,
	sendTimeout time.Duration,
	logger *zap.Logger,
	hooks JobHooks,
) *EmailJob {
	j := &EmailJob{
		repo: repo, prov: prov, limiter: limiter, from: from, timeout: sendTimeout, logger: logger,
		now:      time.Now,
		onResult: hooks.OnResult,
		onSend:   hooks.OnSend,
	}
	if j.onResult == nil {
		j.onResult = func(domain.JobResult) {}
	}
	if j.onSend == nil {
		j.onSend = func(time.Duration) {}
	}
	return j
}

// Process runs one Claim-and-Send execution. Every expected outcome is a
// JobResult; a non-nil error means the record store failed and the row state
// is unknown, so the caller should re-enqueue the job.
func (j *EmailJob) Process(ctx context.Context, job domain.Job) (domain.JobResult, error) {
	start := j.now()
	addr := domain.NormalizeEmail(job.Email)
	source := domain.ParseEmailSource(string(job.Source))
	res := domain.JobResult{RequestID: job.RequestID, Source: source}

	log := j.logger.With(
		zap.String("request_id", job.RequestID),
		zap.String("email_domain", logging.EmailDomain(addr)),
		zap.String("source", string(source)),
	)

	if addr == "" {
		res.Status = domain.JobInvalid
		return j.finish(log, "emailjob.invalid", res, start), nil
	}

	claimed, err := j.repo.TryClaim(ctx, addr, source)
	if err != nil {
		return domain.JobResult{}, fmt.Errorf("claim: %w", err)
	}
	if claimed == 0 {
		res.Status = domain.JobClaimMissed
		return j.finish(log, "emailjob.claim.skip", res, start), nil
	}

	// The row is now processing. Outcome writes must land even if the caller
	// is shutting down, otherwise the row would stay claimed.
	wctx := context.WithoutCancel(ctx)

	if !j.prov.Configured() {
		if err := j.repo.MarkSkipped(wctx, addr, source, SkipReasonNoProvider); err != nil {
			return domain.JobResult{}, fmt.Errorf("mark skipped: %w", err)
		}
		res.Status = domain.JobSkipped
		return j.finish(log, "emailjob.skipped", res, start, zap.String("reason", SkipReasonNoProvider)), nil
	}

	msgID, sendErr := j.send(ctx, addr, job)
	if sendErr != nil {
		return j.handleFailure(wctx, log, addr, res, sendErr, start)
	}

	if err := j.repo.MarkSent(wctx, addr, source, msgID, j.now().UTC()); err != nil {
		return domain.JobResult{}, fmt.Errorf("mark sent: %w", err)
	}
	res.Status = domain.JobSent
	res.ProviderMessageID = msgID
	return j.finish(log, "emailjob.sent", res, start, zap.String("provider_message_id", msgID)), nil
}

// send renders the email and calls the provider once the throttle allows it.
// Any error returned here is treated as transient. The provider call is
// detached from caller cancellation and bounded only by the send timeout.
func (j *EmailJob) send(ctx context.Context, addr string, job domain.Job) (string, error) {
	msg, err := email.BuildConfirmation(email.Fields{
		Email:       addr,
		Role:        job.Role,
		FleetSize:   job.FleetSize,
		CompanyName: job.CompanyName,
	})
	if err != nil {
		return "", fmt.Errorf("render: %w", err)
	}

	if err := j.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("send throttle: %w", err)
	}

	sendCtx := context.WithoutCancel(ctx)
	if j.timeout > 0 {
		var cancel context.CancelFunc
		sendCtx, cancel = context.WithTimeout(sendCtx, j.timeout)
		defer cancel()
	}

	sendStart := j.now()
	resp, err := j.prov.Send(sendCtx, provider.Email{
		From:      j.from,
		To:        addr,
		Subject:   msg.Subject,
		HTML:      msg.HTML,
		Text:      msg.Text,
		RequestID: job.RequestID,
	})
	j.onSend(j.now().Sub(sendStart))
	if err != nil {
		return "", err
	}

	if resp == nil || resp.ID == "" {
		return UnknownMessageID, nil
	}
	return resp.ID, nil
}

// handleFailure either schedules a retry (if attempts remain) or marks the
// row as permanently failed.
func (j *EmailJob) handleFailure(
	ctx context.Context,
	log *zap.Logger,
	addr string,
	res domain.JobResult,
	sendErr error,
	start time.Time,
) (domain.JobResult, error) {
	prev, err := j.repo.GetAttempts(ctx, addr)
	if err != nil {
		return domain.JobResult{}, fmt.Errorf("get attempts: %w", err)
	}
	attempts := prev + 1
	errMsg := logging.Truncate(sendErr.Error(), MaxErrorLength)
	res.Attempts = attempts

	if attempts >= MaxEmailAttempts {
		if err := j.repo.MarkFailed(ctx, addr, res.Source, attempts, errMsg); err != nil {
			return domain.JobResult{}, fmt.Errorf("mark failed: %w", err)
		}
		res.Status = domain.JobFailed
		return j.finish(log, "emailjob.fail", res, start,
			zap.Int("attempts", attempts),
			zap.String("error", errMsg),
		), nil
	}

	next := NextAttemptAt(j.now(), attempts)
	if err := j.repo.MarkRetry(ctx, addr, res.Source, attempts, next, errMsg); err != nil {
		return domain.JobResult{}, fmt.Errorf("mark retry: %w", err)
	}
	res.Status = domain.JobPendingRetry
	res.NextAttemptAt = &next
	return j.finish(log, "emailjob.fail", res, start,
		zap.Int("attempts", attempts),
		zap.Time("next_attempt_at", next),
		zap.String("error", errMsg),
	), nil
}

func (j *EmailJob) finish(log *zap.Logger, event string, res domain.JobResult, start time.Time, fields ...zap.Field) domain.JobResult {
	res.TotalDuration = j.now().Sub(start)
	fields = append(fields,
		zap.String("status", string(res.Status)),
		zap.Int64("total_ms", res.TotalDuration.Milliseconds()),
	)
	if res.Status == domain.JobFailed || res.Status == domain.JobPendingRetry {
		log.Warn(event, fields...)
	} else {
		log.Info(event, fields...)
	}
	j.onResult(res)
	return res
}
