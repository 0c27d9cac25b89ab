package handler

import (
	"encoding/json"
	"net"
	"net/http"

	"go.uber.org/zap"

	apimw "github.com/rootfleet/waitlist/internal/api/middleware"
	"github.com/rootfleet/waitlist/internal/domain"
	"github.com/rootfleet/waitlist/internal/service"
)

var joinMessages = map[service.JoinStatus]string{
	service.JoinJoined:       "You're on the list ✅ (check your inbox soon)",
	service.JoinAlready:      "You're already on the list ✅",
	service.JoinQueueMissing: "You're on the list ✅ (email system is being set up)",
}

type joinResponse struct {
	OK      bool               `json:"ok"`
	Status  service.JoinStatus `json:"status"`
	Message string             `json:"message"`
	RID     string             `json:"rid"`
}

type countResponse struct {
	OK    bool   `json:"ok"`
	Count int64  `json:"count"`
	RID   string `json:"rid"`
}

// WaitlistHandler serves the public signup endpoints.
type WaitlistHandler struct {
	svc    *service.WaitlistService
	logger *zap.Logger
}

func NewWaitlistHandler(svc *service.WaitlistService, logger *zap.Logger) *WaitlistHandler {
	return &WaitlistHandler{svc: svc, logger: logger}
}

// Join handles POST /api/waitlist
//
// A body that is not JSON is treated as empty and fails email validation,
// so the client always sees a field-level message.
func (h *WaitlistHandler) Join(w http.ResponseWriter, r *http.Request) {
	rid := apimw.GetRequestID(r.Context())

	var req domain.JoinRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		req = domain.JoinRequest{}
	}

	status, err := h.svc.Join(r.Context(), req, service.JoinMeta{
		RequestID: rid,
		IP:        clientIP(r),
		UserAgent: r.UserAgent(),
	})
	if err != nil {
		h.logger.Warn("waitlist join failed",
			zap.String("request_id", rid),
			zap.Error(err),
		)
		mapError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, joinResponse{
		OK:      true,
		Status:  status,
		Message: joinMessages[status],
		RID:     rid,
	})
}

// Count handles GET /api/waitlist/count
func (h *WaitlistHandler) Count(w http.ResponseWriter, r *http.Request) {
	rid := apimw.GetRequestID(r.Context())

	n, err := h.svc.Count(r.Context())
	if err != nil {
		h.logger.Error("waitlist.count.fail", zap.String("request_id", rid), zap.Error(err))
		mapError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, countResponse{OK: true, Count: n, RID: rid})
}

// clientIP relies on chi's RealIP middleware having rewritten RemoteAddr.
func clientIP(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
