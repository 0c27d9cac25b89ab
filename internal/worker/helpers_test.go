package worker_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/rootfleet/waitlist/internal/domain"
	"github.com/rootfleet/waitlist/internal/provider"
	"github.com/rootfleet/waitlist/internal/queue"
	"github.com/rootfleet/waitlist/internal/ratelimiter"
	"github.com/rootfleet/waitlist/internal/repository"
	"github.com/rootfleet/waitlist/internal/worker"
)

// fakeProvider returns the queued errors in order, then succeeds.
type fakeProvider struct {
	mu          sync.Mutex
	unconfigure bool
	errs        []error
	emptyID     bool
	delay       time.Duration
	calls       []provider.Email
}

func (p *fakeProvider) Configured() bool { return !p.unconfigure }

func (p *fakeProvider) Send(ctx context.Context, e provider.Email) (*provider.SendResponse, error) {
	if p.delay > 0 {
		select {
		case <-time.After(p.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls = append(p.calls, e)
	if len(p.errs) > 0 {
		err := p.errs[0]
		p.errs = p.errs[1:]
		if err != nil {
			return nil, err
		}
	}
	if p.emptyID {
		return &provider.SendResponse{}, nil
	}
	return &provider.SendResponse{ID: fmt.Sprintf("msg-%d", len(p.calls))}, nil
}

func (p *fakeProvider) callCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.calls)
}

// scriptedQueue wraps a MemoryQueue and counts calls; error fields simulate
// an unavailable queue.
type scriptedQueue struct {
	*queue.MemoryQueue

	mu        sync.Mutex
	pops      int
	pushes    int
	PushErr   error
	LengthErr error
	popErrs   []error
}

func newScriptedQueue() *scriptedQueue {
	return &scriptedQueue{MemoryQueue: queue.NewMemoryQueue(100)}
}

func (q *scriptedQueue) Push(ctx context.Context, job domain.Job) error {
	q.mu.Lock()
	q.pushes++
	err := q.PushErr
	q.mu.Unlock()
	if err != nil {
		return err
	}
	return q.MemoryQueue.Push(ctx, job)
}

func (q *scriptedQueue) Pop(ctx context.Context) (*domain.Job, error) {
	q.mu.Lock()
	q.pops++
	if len(q.popErrs) > 0 {
		err := q.popErrs[0]
		q.popErrs = q.popErrs[1:]
		q.mu.Unlock()
		return nil, err
	}
	q.mu.Unlock()
	return q.MemoryQueue.Pop(ctx)
}

func (q *scriptedQueue) Length(ctx context.Context) (int64, error) {
	if q.LengthErr != nil {
		return 0, q.LengthErr
	}
	return q.MemoryQueue.Length(ctx)
}

func (q *scriptedQueue) popCount() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.pops
}

func observedLogger() (*zap.Logger, *observer.ObservedLogs) {
	core, logs := observer.New(zap.InfoLevel)
	return zap.New(core), logs
}

func newJob(repo repository.SignupRepository, prov provider.EmailProvider, logger *zap.Logger) *worker.EmailJob {
	return worker.NewEmailJob(repo, prov, ratelimiter.New(0), "Rootfleet <noreply@rootfleet.com>", 0, logger, worker.JobHooks{})
}

func seedPending(t *testing.T, repo *repository.MockSignupRepository, email string) {
	t.Helper()
	pending := domain.EmailPending
	require.NoError(t, repo.Create(context.Background(), &domain.Signup{
		Email:       email,
		Role:        domain.RoleFleetOwner,
		FleetSize:   "6-20",
		EmailStatus: &pending,
		CreatedAt:   time.Now().UTC(),
	}))
}

func jobFor(email string) domain.Job {
	return domain.Job{
		RequestID: "rid-" + email,
		Email:     email,
		Role:      "fleet_owner",
		FleetSize: "6-20",
		Source:    domain.SourceTrigger,
	}
}

func getRow(t *testing.T, repo *repository.MockSignupRepository, email string) *domain.Signup {
	t.Helper()
	s, err := repo.GetByEmail(context.Background(), email)
	require.NoError(t, err)
	return s
}
