package handler

import (
	"context"
	"net/http"
	"time"
)

// Pinger is satisfied by the waitlist service.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler serves the liveness and readiness endpoints.
type HealthHandler struct {
	env string
	db  Pinger
}

func NewHealthHandler(env string, db Pinger) *HealthHandler {
	return &HealthHandler{env: env, db: db}
}

// Health handles GET /health
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	respondText(w, http.StatusOK, "ok")
}

// WaitlistHealth handles GET /api/waitlist/health. It always answers 200;
// the db field tells whether the record store responded to a ping.
func (h *HealthHandler) WaitlistHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	db := "ok"
	if err := h.db.Ping(ctx); err != nil {
		db = "unavailable"
	}
	env := h.env
	if env == "" {
		env = "unknown"
	}
	respondJSON(w, http.StatusOK, map[string]string{"env": env, "db": db})
}
