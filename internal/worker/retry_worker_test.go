package worker

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/rootfleet/waitlist/internal/domain"
	"github.com/rootfleet/waitlist/internal/provider"
	"github.com/rootfleet/waitlist/internal/queue"
	"github.com/rootfleet/waitlist/internal/ratelimiter"
	"github.com/rootfleet/waitlist/internal/repository"
	"github.com/rootfleet/waitlist/internal/service"
)

type stubProvider struct{}

func (stubProvider) Configured() bool { return true }

func (stubProvider) Send(context.Context, provider.Email) (*provider.SendResponse, error) {
	return &provider.SendResponse{ID: "stub"}, nil
}

func seedRetry(t *testing.T, repo *repository.MockSignupRepository, email string, attempts int, next time.Time) {
	t.Helper()
	ctx := context.Background()
	company := "Acme"
	require.NoError(t, repo.Create(ctx, &domain.Signup{
		Email: email, Role: domain.RoleEngineer, FleetSize: "21-100", CompanyName: &company,
	}))
	_, err := repo.TryClaim(ctx, email, domain.SourceTrigger)
	require.NoError(t, err)
	require.NoError(t, repo.MarkRetry(ctx, email, domain.SourceTrigger, attempts, next, "boom"))
}

func TestRetryWorker_PollEnqueuesDueRows(t *testing.T) {
	repo := repository.NewMockSignupRepository()
	q := queue.NewMemoryQueue(10)
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

	seedRetry(t, repo, "due@b.com", 2, now.Add(-time.Minute))
	seedRetry(t, repo, "later@b.com", 1, now.Add(time.Minute))

	rw := NewRetryWorker(repo, q, time.Minute, 100, zap.NewNop())
	rw.now = func() time.Time { return now }

	assert.Equal(t, 1, rw.Poll(context.Background()))

	job, err := q.Pop(context.Background())
	require.NoError(t, err)
	require.NotNil(t, job)
	assert.Equal(t, "due@b.com", job.Email)
	assert.Equal(t, "engineer", job.Role)
	assert.Equal(t, "21-100", job.FleetSize)
	require.NotNil(t, job.CompanyName)
	assert.Equal(t, "Acme", *job.CompanyName)
	assert.Equal(t, domain.SourceCron, job.Source)
	assert.NotEmpty(t, job.RequestID)

	// Released rows are not enqueued twice.
	assert.Equal(t, 0, rw.Poll(context.Background()))
	n, _ := q.Length(context.Background())
	assert.Equal(t, int64(0), n)
}

func TestRetryWorker_PushFailureKeepsRowDue(t *testing.T) {
	repo := repository.NewMockSignupRepository()
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	seedRetry(t, repo, "due@b.com", 1, now.Add(-time.Second))

	full := queue.NewMemoryQueue(1)
	require.NoError(t, full.Push(context.Background(), domain.Job{Email: "x@y.com"}))

	rw := NewRetryWorker(repo, full, time.Minute, 100, zap.NewNop())
	rw.now = func() time.Time { return now }
	assert.Equal(t, 0, rw.Poll(context.Background()))

	row, err := repo.GetByEmail(context.Background(), "due@b.com")
	require.NoError(t, err)
	assert.NotNil(t, row.NextEmailAttemptAt, "row stays due for the next poll")
}

// A retried row goes through the normal claim path and ends up sent.
func TestRetryWorker_RetriedRowIsSent(t *testing.T) {
	repo := repository.NewMockSignupRepository()
	q := queue.NewMemoryQueue(10)
	now := time.Now().UTC()
	seedRetry(t, repo, "due@b.com", 1, now.Add(-time.Second))

	rw := NewRetryWorker(repo, q, time.Minute, 100, zap.NewNop())
	require.Equal(t, 1, rw.Poll(context.Background()))

	job := NewEmailJob(repo, stubProvider{}, ratelimiter.New(0), "noreply@rootfleet.com", 0, zap.NewNop(), JobHooks{})
	res := NewDrainer(q, job, zap.NewNop(), nil).Drain(context.Background(), 5, domain.SourceCron)
	assert.Equal(t, 1, res.Processed)

	row, err := repo.GetByEmail(context.Background(), "due@b.com")
	require.NoError(t, err)
	assert.Equal(t, domain.EmailSent, *row.EmailStatus)
	assert.Equal(t, 1, row.EmailAttempts)
}

// A signup whose enqueue failed is recovered by the sweeper once the queue
// has room again, and its email is sent on the next drain.
func TestRetryWorker_RecoversSignupWithoutQueuedJob(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewMockSignupRepository()
	q := queue.NewMemoryQueue(1)
	require.NoError(t, q.Push(ctx, domain.Job{Email: "filler@x.com"}))

	svc := service.NewWaitlistService(repo, q, zap.NewNop(), nil)
	status, err := svc.Join(ctx, domain.JoinRequest{
		Email: "Ops@Acme.com", Role: "operations", FleetSize: "21-100",
	}, service.JoinMeta{RequestID: "rid-join"})
	require.NoError(t, err)
	require.Equal(t, service.JoinQueueMissing, status)

	filler, err := q.Pop(ctx)
	require.NoError(t, err)
	require.Equal(t, "filler@x.com", filler.Email)

	rw := NewRetryWorker(repo, q, time.Minute, 100, zap.NewNop())
	require.Equal(t, 1, rw.Poll(ctx))

	job := NewEmailJob(repo, stubProvider{}, ratelimiter.New(0), "noreply@rootfleet.com", 0, zap.NewNop(), JobHooks{})
	res := NewDrainer(q, job, zap.NewNop(), nil).Drain(ctx, 10, domain.SourceCron)
	assert.Equal(t, 1, res.Processed)
	assert.Equal(t, 0, res.Failed)

	row, err := repo.GetByEmail(ctx, "ops@acme.com")
	require.NoError(t, err)
	assert.Equal(t, domain.EmailSent, *row.EmailStatus)
	assert.Equal(t, domain.SourceCron, *row.EmailSource)
	assert.Nil(t, row.NextEmailAttemptAt)
	assert.Equal(t, 0, row.EmailAttempts)
}
