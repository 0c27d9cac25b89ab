package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/rootfleet/waitlist/internal/api"
	"github.com/rootfleet/waitlist/internal/config"
	"github.com/rootfleet/waitlist/internal/db"
	"github.com/rootfleet/waitlist/internal/logging"
	"github.com/rootfleet/waitlist/internal/metrics"
	"github.com/rootfleet/waitlist/internal/provider"
	"github.com/rootfleet/waitlist/internal/queue"
	"github.com/rootfleet/waitlist/internal/ratelimiter"
	"github.com/rootfleet/waitlist/internal/repository"
	"github.com/rootfleet/waitlist/internal/service"
	"github.com/rootfleet/waitlist/internal/worker"
)

func main() {
	// ---- configuration ----
	cfg, err := config.Load()
	if err != nil {
		bootLogger, _ := zap.NewProduction()
		bootLogger.Fatal("failed to load config", zap.Error(err))
	}

	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		bootLogger, _ := zap.NewProduction()
		bootLogger.Fatal("failed to build logger", zap.Error(err))
	}
	defer logger.Sync() //nolint:errcheck
	logger = logger.With(zap.String("env", cfg.Environment))

	// ---- database ----
	ctx := context.Background()
	pool, err := db.Connect(ctx, cfg)
	if err != nil {
		logger.Fatal("failed to connect to database", zap.Error(err))
	}
	defer pool.Close()

	if err := db.Migrate(cfg.DatabaseURL, cfg.MigrationsDir); err != nil {
		logger.Fatal("failed to run migrations", zap.Error(err))
	}
	logger.Info("database migrations applied")

	// ---- work queue ----
	rdb, err := db.ConnectRedis(ctx, cfg)
	if err != nil {
		logger.Fatal("failed to connect to redis", zap.Error(err))
	}
	defer rdb.Close() //nolint:errcheck

	// ---- core dependencies ----
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	q := queue.NewRedisQueue(rdb, cfg.QueueKey)
	repo := repository.NewPgSignupRepository(pool)
	prov := provider.New(cfg, logger)
	if !prov.Configured() {
		logger.Warn("email provider has no credential; confirmation emails will be skipped",
			zap.String("provider", cfg.EmailProvider))
	}
	limiter := ratelimiter.New(cfg.ProviderRate)
	svc := service.NewWaitlistService(repo, q, logger, func(s service.JoinStatus) {
		m.OnSignup(string(s))
	})

	onResult, onSend := m.JobHooks()
	job := worker.NewEmailJob(repo, prov, limiter, cfg.EmailFrom, cfg.ProviderTimeout, logger, worker.JobHooks{
		OnResult: onResult,
		OnSend:   onSend,
	})
	drainer := worker.NewDrainer(q, job, logger, m.OnDrain)

	// ---- background loops ----
	// Context for all background goroutines; cancelled on shutdown signal.
	workerCtx, cancelWorkers := context.WithCancel(ctx)
	defer cancelWorkers()

	loops := worker.NewPool(
		worker.NewCronScheduler(drainer, cfg.DrainBatchSize, cfg.CronInterval, logger),
		worker.NewRetryWorker(repo, q, cfg.RetryInterval, cfg.RetryScanLimit, logger),
	)
	loops.Start(workerCtx)

	if cfg.TriggerSecret == "" {
		logger.Warn("TRIGGER_SECRET is empty; /trigger will reject every request")
	}

	// ---- HTTP server ----
	router := api.NewRouter(svc, drainer, q, reg, api.Options{
		Environment:    cfg.Environment,
		TriggerSecret:  cfg.TriggerSecret,
		DrainBatchSize: cfg.DrainBatchSize,
	}, logger)
	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	// Start server in a goroutine so it does not block the shutdown listener.
	go func() {
		logger.Info("server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server error", zap.Error(err))
		}
	}()

	// ---- graceful shutdown ----
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutdown signal received")

	// 1. Stop accepting new HTTP requests; in-flight triggers finish their drain.
	shutdownCtx, shutdownCancel := context.WithTimeout(ctx, cfg.ShutdownTimeout)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown error", zap.Error(err))
	}

	// 2. Stop the cron scheduler and retry sweeper.
	cancelWorkers()

	// 3. Wait for an in-flight drain to finish its current job.
	loops.Wait()

	logger.Info("server stopped cleanly")
}
