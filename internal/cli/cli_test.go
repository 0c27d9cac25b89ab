package cli_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/rootfleet/waitlist/internal/cli"
	"github.com/rootfleet/waitlist/internal/domain"
	"github.com/rootfleet/waitlist/internal/provider"
	"github.com/rootfleet/waitlist/internal/queue"
	"github.com/rootfleet/waitlist/internal/ratelimiter"
	"github.com/rootfleet/waitlist/internal/repository"
	"github.com/rootfleet/waitlist/internal/worker"
)

type okProvider struct{}

func (okProvider) Configured() bool { return true }

func (okProvider) Send(context.Context, provider.Email) (*provider.SendResponse, error) {
	return &provider.SendResponse{ID: "re_1"}, nil
}

type fixture struct {
	repo   *repository.MockSignupRepository
	q      *queue.MemoryQueue
	closed bool
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{repo: repository.NewMockSignupRepository(), q: queue.NewMemoryQueue(10)}
	pending := domain.EmailPending
	require.NoError(t, f.repo.Create(context.Background(), &domain.Signup{
		Email: "a@b.com", Role: domain.RoleEngineer, FleetSize: "1-5", EmailStatus: &pending,
	}))
	return f
}

func (f *fixture) open(context.Context) (*cli.Backend, error) {
	job := worker.NewEmailJob(f.repo, okProvider{}, ratelimiter.New(0), "noreply@rootfleet.com", 0, zap.NewNop(), worker.JobHooks{})
	return &cli.Backend{
		Repo:      f.repo,
		Queue:     f.q,
		Drainer:   worker.NewDrainer(f.q, job, zap.NewNop(), nil),
		BatchSize: 3,
		Close:     func() { f.closed = true },
	}, nil
}

func run(t *testing.T, f *fixture, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := cli.NewRootCommand(f.open, &out)
	root.SetArgs(args)
	root.SetOut(&out)
	root.SetErr(&out)
	err := root.Execute()
	return out.String(), err
}

func TestEnqueueThenDrain(t *testing.T) {
	f := newFixture(t)

	out, err := run(t, f, "enqueue", "A@B.com", "--source", "cron")
	require.NoError(t, err)
	assert.Contains(t, out, "enqueued a@b.com")
	assert.True(t, f.closed)

	out, err = run(t, f, "queue-length")
	require.NoError(t, err)
	assert.Equal(t, "1", strings.TrimSpace(out))

	out, err = run(t, f, "drain", "--source", "cron")
	require.NoError(t, err)
	var res domain.DrainResult
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, 1, res.Processed)
	assert.Equal(t, domain.SourceCron, res.Source)

	row, err := f.repo.GetByEmail(context.Background(), "a@b.com")
	require.NoError(t, err)
	assert.Equal(t, domain.EmailSent, *row.EmailStatus)
}

func TestDrain_BatchFlag(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.q.Push(context.Background(), domain.Job{Email: "a@b.com"}))

	out, err := run(t, f, "drain", "--batch", "0")
	require.NoError(t, err)
	var res domain.DrainResult
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, 0, res.Processed)
	assert.Equal(t, int64(1), *res.Remaining)
}

func TestDrain_InvalidSource(t *testing.T) {
	_, err := run(t, newFixture(t), "drain", "--source", "manual")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--source")
}

func TestStatus(t *testing.T) {
	f := newFixture(t)

	out, err := run(t, f, "status", "a@b.com")
	require.NoError(t, err)
	assert.Contains(t, out, `"email_status": "pending"`)

	_, err = run(t, f, "status", "ghost@b.com")
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestOpenFailure(t *testing.T) {
	boom := errors.New("no database")
	root := cli.NewRootCommand(func(context.Context) (*cli.Backend, error) { return nil, boom }, &bytes.Buffer{})
	root.SetArgs([]string{"queue-length"})
	assert.ErrorIs(t, root.Execute(), boom)
}
