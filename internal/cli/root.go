package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/rootfleet/waitlist/internal/config"
	"github.com/rootfleet/waitlist/internal/db"
	"github.com/rootfleet/waitlist/internal/logging"
	"github.com/rootfleet/waitlist/internal/provider"
	"github.com/rootfleet/waitlist/internal/queue"
	"github.com/rootfleet/waitlist/internal/ratelimiter"
	"github.com/rootfleet/waitlist/internal/repository"
	"github.com/rootfleet/waitlist/internal/worker"
)

// Backend is everything a command needs to talk to the store and queue.
type Backend struct {
	Repo      repository.SignupRepository
	Queue     queue.WorkQueue
	Drainer   *worker.Drainer
	BatchSize int
	Close     func()
}

// Opener builds a Backend. Tests inject an in-memory one.
type Opener func(ctx context.Context) (*Backend, error)

type runtimeState struct {
	open    Opener
	backend *Backend
	writer  io.Writer
}

type runtimeKey struct{}

func NewRootCommand(open Opener, out io.Writer) *cobra.Command {
	rt := &runtimeState{open: open, writer: out}

	root := &cobra.Command{
		Use:           "waitlistctl",
		Short:         "Operate the waitlist email queue",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if rt.writer == nil {
				rt.writer = os.Stdout
			}
			b, err := rt.open(cmd.Context())
			if err != nil {
				return err
			}
			rt.backend = b
			return nil
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			if rt.backend != nil && rt.backend.Close != nil {
				rt.backend.Close()
			}
		},
	}

	root.SetContext(context.WithValue(context.Background(), runtimeKey{}, rt))

	root.AddCommand(
		NewDrainCommand(),
		NewQueueLengthCommand(),
		NewEnqueueCommand(),
		NewStatusCommand(),
	)

	return root
}

func getRuntime(cmd *cobra.Command) (*runtimeState, error) {
	rt, ok := cmd.Context().Value(runtimeKey{}).(*runtimeState)
	if !ok || rt == nil || rt.backend == nil {
		return nil, errors.New("runtime not initialized")
	}
	return rt, nil
}

// OpenFromEnv connects to PostgreSQL and Redis using the server's
// environment configuration. Migrations are left to the server.
func OpenFromEnv(ctx context.Context) (*Backend, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return nil, err
	}

	pool, err := db.Connect(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	rdb, err := db.ConnectRedis(ctx, cfg)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("connect redis: %w", err)
	}

	repo := repository.NewPgSignupRepository(pool)
	q := queue.NewRedisQueue(rdb, cfg.QueueKey)
	job := worker.NewEmailJob(repo, provider.New(cfg, logger), ratelimiter.New(cfg.ProviderRate), cfg.EmailFrom, cfg.ProviderTimeout,
		logger.With(zap.String("component", "waitlistctl")), worker.JobHooks{})

	return &Backend{
		Repo:      repo,
		Queue:     q,
		Drainer:   worker.NewDrainer(q, job, logger, nil),
		BatchSize: cfg.DrainBatchSize,
		Close: func() {
			_ = rdb.Close()
			pool.Close()
			_ = logger.Sync()
		},
	}, nil
}
