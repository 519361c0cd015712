package api

import (
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/mkrell/taskhive-api/internal/api/shared"
	"github.com/mkrell/taskhive-api/internal/platform/logger"
	"github.com/mkrell/taskhive-api/internal/ratelimit"
)

// RateLimitStatusResponse reports a client's current budget on one route
// class without consuming any of it.
type RateLimitStatusResponse struct {
	Route     string    `json:"route"`
	Limit     int       `json:"limit"`
	Remaining int       `json:"remaining"`
	Count     int64     `json:"count"`
	ResetAt   time.Time `json:"reset_at"`
}

// RateLimitHandler exposes read-only limiter introspection plus the
// administrative reset override.
type RateLimitHandler struct {
	limiter *ratelimit.Limiter
}

// NewRateLimitHandler creates a new RateLimitHandler.
func NewRateLimitHandler(limiter *ratelimit.Limiter) *RateLimitHandler {
	return &RateLimitHandler{limiter: limiter}
}

// Status handles GET /api/ratelimit/{route}. It inspects the caller's
// counter for the route class without incrementing it.
func (h *RateLimitHandler) Status(w http.ResponseWriter, r *http.Request) {
	route := chi.URLParam(r, "route")
	policy, ok := ratelimit.Presets[route]
	if !ok {
		shared.RespondWithError(w, r, http.StatusNotFound, "Unknown route class")
		return
	}

	identifier := clientIdentifier(r)
	decision, err := h.limiter.Status(r.Context(), identifier, policy)
	if err != nil {
		logger.FromContext(r.Context()).Error("rate limit status check failed",
			"route", route,
			"error", err)
		shared.RespondWithError(w, r, http.StatusServiceUnavailable, "Rate limit status unavailable")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, RateLimitStatusResponse{
		Route:     route,
		Limit:     decision.Limit,
		Remaining: decision.Remaining,
		Count:     decision.Count,
		ResetAt:   decision.ResetAt.UTC(),
	})
}

// Reset handles DELETE /api/ratelimit/{route}/{identifier}. It deletes the
// counter outright, starting a fresh window for the identifier. The route
// is mounted behind the scheduler secret; it is an operator override, not
// a user-facing API.
func (h *RateLimitHandler) Reset(w http.ResponseWriter, r *http.Request) {
	route := chi.URLParam(r, "route")
	identifier := chi.URLParam(r, "identifier")

	if _, ok := ratelimit.Presets[route]; !ok {
		shared.RespondWithError(w, r, http.StatusNotFound, "Unknown route class")
		return
	}

	if err := h.limiter.Reset(r.Context(), identifier, route); err != nil {
		logger.FromContext(r.Context()).Error("rate limit reset failed",
			"route", route,
			"identifier", identifier,
			"error", err)
		shared.RespondWithError(w, r, http.StatusInternalServerError, "Failed to reset rate limit")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, map[string]bool{"success": true})
}

// clientIdentifier mirrors the identifier the middleware uses, so status
// lookups report the same budget the checks consume.
func clientIdentifier(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
