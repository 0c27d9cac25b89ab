package handler

import (
	"context"
	"crypto/subtle"
	"net/http"

	"go.uber.org/zap"

	"github.com/rootfleet/waitlist/internal/domain"
)

// TriggerSecretHeader must match the configured trigger secret.
const TriggerSecretHeader = "X-Trigger-Secret"

// Drainer runs one bounded drain of the work queue.
type Drainer interface {
	Drain(ctx context.Context, limit int, source domain.EmailSource) domain.DrainResult
}

type triggerResponse struct {
	OK bool `json:"ok"`
	domain.DrainResult
}

// TriggerHandler runs an on-demand drain for an authenticated caller.
type TriggerHandler struct {
	drainer   Drainer
	secret    string
	batchSize int
	logger    *zap.Logger
}

func NewTriggerHandler(drainer Drainer, secret string, batchSize int, logger *zap.Logger) *TriggerHandler {
	return &TriggerHandler{drainer: drainer, secret: secret, batchSize: batchSize, logger: logger}
}

// Trigger handles POST|GET /trigger
//
// An empty configured secret rejects every request.
func (h *TriggerHandler) Trigger(w http.ResponseWriter, r *http.Request) {
	if !h.authorized(r.Header.Get(TriggerSecretHeader)) {
		respondText(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	res := h.drainer.Drain(r.Context(), h.batchSize, domain.SourceTrigger)
	respondJSON(w, http.StatusOK, triggerResponse{OK: true, DrainResult: res})
}

func (h *TriggerHandler) authorized(got string) bool {
	if h.secret == "" || got == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(got), []byte(h.secret)) == 1
}

// NotFound answers unknown paths with a plain 404.
func NotFound(w http.ResponseWriter, r *http.Request) {
	respondText(w, http.StatusNotFound, "not found")
}
