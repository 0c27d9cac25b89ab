package handler

import (
	"context"
	"net/http"
)

// QueueLengther is satisfied by every queue.WorkQueue.
type QueueLengther interface {
	Length(ctx context.Context) (int64, error)
}

// MetricsHandler serves a human-readable JSON queue snapshot.
// Raw Prometheus metrics (counters, histograms) are available at /metrics
// via promhttp.Handler and are separate from this endpoint.
type MetricsHandler struct {
	q QueueLengther
}

func NewMetricsHandler(q QueueLengther) *MetricsHandler {
	return &MetricsHandler{q: q}
}

// GetQueue handles GET /api/waitlist/queue
func (h *MetricsHandler) GetQueue(w http.ResponseWriter, r *http.Request) {
	n, err := h.q.Length(r.Context())
	if err != nil {
		respondError(w, r, http.StatusServiceUnavailable, "queue unavailable")
		return
	}
	respondJSON(w, http.StatusOK, map[string]int64{"queue_depth": n})
}
