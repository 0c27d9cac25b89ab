package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/rootfleet/waitlist/internal/domain"
)

// Metrics groups all Prometheus instruments used across the application.
// Registered once at startup via New(); passed by pointer wherever needed.
type Metrics struct {
	EmailJobs      *prometheus.CounterVec
	SendLatency    prometheus.Histogram
	DrainProcessed *prometheus.CounterVec
	DrainFailed    *prometheus.CounterVec
	QueueDepth     prometheus.Gauge
	Signups        *prometheus.CounterVec
}

// New registers all instruments with the given Prometheus registerer and
// returns the populated Metrics struct.
// Using a custom registry (instead of prometheus.DefaultRegisterer) keeps
// tests isolated and avoids global state.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		EmailJobs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "waitlist_email_jobs_total",
			Help: "Email job executions by outcome.",
		}, []string{"status", "source"}),

		SendLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "waitlist_email_send_seconds",
			Help:    "Latency of email provider calls.",
			Buckets: prometheus.DefBuckets,
		}),

		DrainProcessed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "waitlist_drain_processed_total",
			Help: "Jobs processed by drain invocations.",
		}, []string{"source"}),

		DrainFailed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "waitlist_drain_failed_total",
			Help: "Jobs that failed with an infrastructure error during a drain.",
		}, []string{"source"}),

		QueueDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "waitlist_queue_depth",
			Help: "Work queue length measured after the last drain.",
		}),

		Signups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "waitlist_signups_total",
			Help: "Signup requests by outcome.",
		}, []string{"outcome"}),
	}

	reg.MustRegister(
		m.EmailJobs,
		m.SendLatency,
		m.DrainProcessed,
		m.DrainFailed,
		m.QueueDepth,
		m.Signups,
	)

	return m
}

// JobHooks returns the callbacks expected by worker.JobHooks.
// Centralises the prometheus observation calls so the worker package stays import-free.
func (m *Metrics) JobHooks() (
	onResult func(domain.JobResult),
	onSend func(time.Duration),
) {
	onResult = func(r domain.JobResult) {
		m.EmailJobs.WithLabelValues(string(r.Status), string(r.Source)).Inc()
	}
	onSend = func(latency time.Duration) {
		m.SendLatency.Observe(latency.Seconds())
	}
	return
}

// OnDrain records one drain summary.
func (m *Metrics) OnDrain(r domain.DrainResult) {
	m.DrainProcessed.WithLabelValues(string(r.Source)).Add(float64(r.Processed))
	m.DrainFailed.WithLabelValues(string(r.Source)).Add(float64(r.Failed))
	if r.Remaining != nil {
		m.QueueDepth.Set(float64(*r.Remaining))
	}
}

// OnSignup counts one signup attempt by outcome.
func (m *Metrics) OnSignup(outcome string) {
	m.Signups.WithLabelValues(outcome).Inc()
}
