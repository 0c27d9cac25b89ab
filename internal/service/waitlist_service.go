package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/rootfleet/waitlist/internal/domain"
	"github.com/rootfleet/waitlist/internal/logging"
	"github.com/rootfleet/waitlist/internal/queue"
	"github.com/rootfleet/waitlist/internal/repository"
)

// JoinStatus is the outcome reported to a signup request.
type JoinStatus string

const (
	JoinJoined       JoinStatus = "joined"
	JoinAlready      JoinStatus = "already_joined"
	JoinQueueMissing JoinStatus = "joined_queue_missing"
)

// JoinMeta carries request data stored alongside the signup.
type JoinMeta struct {
	RequestID string
	IP        string
	UserAgent string
}

// WaitlistService coordinates the repository and the work queue.
// HTTP handlers depend on this service, not on the store or queue directly.
type WaitlistService struct {
	repo     repository.SignupRepository
	q        queue.WorkQueue
	logger   *zap.Logger
	onSignup func(JoinStatus)
}

// NewWaitlistService constructs the service. onSignup is optional (nil = no-op).
func NewWaitlistService(
	repo repository.SignupRepository,
	q queue.WorkQueue,
	logger *zap.Logger,
	onSignup func(JoinStatus),
) *WaitlistService {
	if onSignup == nil {
		onSignup = func(JoinStatus) {}
	}
	return &WaitlistService{repo: repo, q: q, logger: logger, onSignup: onSignup}
}

// Join validates and persists a signup as pending, then enqueues its
// confirmation email with source trigger.
//
// A duplicate email is not an error: it reports JoinAlready. When the row is
// stored but the enqueue fails the signup still succeeds with
// JoinQueueMissing; the row is marked due now so the retry sweeper enqueues
// it once the queue is reachable again.
func (s *WaitlistService) Join(ctx context.Context, req domain.JoinRequest, meta JoinMeta) (JoinStatus, error) {
	req.Normalize()
	log := s.logger.With(
		zap.String("request_id", meta.RequestID),
		zap.String("email_domain", logging.EmailDomain(req.Email)),
	)

	if err := req.Validate(); err != nil {
		log.Info("waitlist.validation.fail", zap.Error(err))
		return "", err
	}

	pending := domain.EmailPending
	signup := &domain.Signup{
		Email:       req.Email,
		Role:        domain.Role(req.Role),
		FleetSize:   domain.FleetSize(req.FleetSize),
		CompanyName: req.CompanyName,
		IP:          optional(meta.IP),
		UserAgent:   optional(meta.UserAgent),
		EmailStatus: &pending,
		CreatedAt:   time.Now().UTC(),
	}

	if err := s.repo.Create(ctx, signup); err != nil {
		if errors.Is(err, domain.ErrAlreadyJoined) {
			log.Info("waitlist.duplicate")
			s.onSignup(JoinAlready)
			return JoinAlready, nil
		}
		return "", fmt.Errorf("persist signup: %w", err)
	}

	job := domain.Job{
		RequestID:   meta.RequestID,
		Email:       req.Email,
		Role:        req.Role,
		FleetSize:   req.FleetSize,
		CompanyName: req.CompanyName,
		Source:      domain.SourceTrigger,
	}
	if err := s.q.Push(ctx, job); err != nil {
		log.Warn("waitlist.queue.missing", zap.Error(err))
		due := time.Now().UTC().Truncate(time.Second)
		if _, serr := s.repo.ScheduleEmail(context.WithoutCancel(ctx), req.Email, due); serr != nil {
			log.Error("waitlist.schedule.fail", zap.Error(serr))
		}
		s.onSignup(JoinQueueMissing)
		return JoinQueueMissing, nil
	}

	log.Info("waitlist.email.enqueued")
	s.onSignup(JoinJoined)
	return JoinJoined, nil
}

// Count returns the number of signups.
func (s *WaitlistService) Count(ctx context.Context) (int64, error) {
	return s.repo.Count(ctx)
}

// Ping reports whether the record store is reachable.
func (s *WaitlistService) Ping(ctx context.Context) error {
	return s.repo.Ping(ctx)
}

func optional(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}
