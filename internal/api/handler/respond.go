package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	apimw "github.com/rootfleet/waitlist/internal/api/middleware"
	"github.com/rootfleet/waitlist/internal/domain"
)

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func respondText(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body))
}

type errorBody struct {
	OK    bool   `json:"ok"`
	Error string `json:"error"`
	RID   string `json:"rid,omitempty"`
}

func respondError(w http.ResponseWriter, r *http.Request, status int, msg string) {
	respondJSON(w, status, errorBody{Error: msg, RID: apimw.GetRequestID(r.Context())})
}

// mapError translates domain sentinel errors to HTTP status codes and the
// messages shown on the signup form.
// All mapping lives here so individual handlers stay concise.
func mapError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidEmail):
		respondError(w, r, http.StatusBadRequest, "Please enter a valid email.")
	case errors.Is(err, domain.ErrInvalidRole):
		respondError(w, r, http.StatusBadRequest, "Please select a valid role.")
	case errors.Is(err, domain.ErrInvalidFleetSize):
		respondError(w, r, http.StatusBadRequest, "Please select a valid fleet size.")
	case errors.Is(err, domain.ErrInvalidCompanyName):
		respondError(w, r, http.StatusBadRequest, "Company name is too long.")
	case errors.Is(err, domain.ErrNotFound):
		respondError(w, r, http.StatusNotFound, "not found")
	default:
		respondError(w, r, http.StatusInternalServerError, "Server error")
	}
}
