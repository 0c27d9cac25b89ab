package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/rootfleet/waitlist/internal/api/handler"
	apimw "github.com/rootfleet/waitlist/internal/api/middleware"
	"github.com/rootfleet/waitlist/internal/queue"
	"github.com/rootfleet/waitlist/internal/service"
)

// Options carries the settings the HTTP surface needs from config.
type Options struct {
	Environment    string
	TriggerSecret  string
	DrainBatchSize int
}

// NewRouter wires the chi router, attaches all middleware, and registers
// every route. It is the single source of truth for the HTTP surface area.
func NewRouter(
	svc *service.WaitlistService,
	drainer handler.Drainer,
	q queue.WorkQueue,
	reg prometheus.Gatherer,
	opts Options,
	logger *zap.Logger,
) http.Handler {
	r := chi.NewRouter()

	// --- global middleware (applied to every route) ---
	r.Use(chimw.Recoverer)            // recover panics, return 500
	r.Use(chimw.RealIP)               // trust X-Forwarded-For / X-Real-IP
	r.Use(chimw.RequestSize(1 << 20)) // 1 MB max request body
	r.Use(apimw.RequestID)            // X-Request-ID inject / echo
	r.Use(apimw.RequestLogger(logger))

	// --- handler instances ---
	wh := handler.NewWaitlistHandler(svc, logger)
	th := handler.NewTriggerHandler(drainer, opts.TriggerSecret, opts.DrainBatchSize, logger)
	mh := handler.NewMetricsHandler(q)
	hh := handler.NewHealthHandler(opts.Environment, svc)

	// --- routes ---
	r.Get("/health", hh.Health)

	// Raw Prometheus scrape endpoint (for Prometheus server / Grafana)
	r.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	// On-demand drain; the cron scheduler is the periodic counterpart.
	r.Post("/trigger", th.Trigger)
	r.Get("/trigger", th.Trigger)

	r.Route("/api/waitlist", func(r chi.Router) {
		r.Post("/", wh.Join)
		r.Get("/count", wh.Count)
		r.Get("/health", hh.WaitlistHealth)

		// JSON queue snapshot
		r.Get("/queue", mh.GetQueue)
	})

	r.NotFound(handler.NotFound)

	return r
}
