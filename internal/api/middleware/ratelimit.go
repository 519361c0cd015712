package middleware

import (
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/mkrell/taskhive-api/internal/api/shared"
	"github.com/mkrell/taskhive-api/internal/ratelimit"
)

// RateLimitMiddleware throttles requests per client IP under one policy.
// Each instance of the middleware covers one route class; the budgets are
// shared across server instances through the limiter's backing store.
type RateLimitMiddleware struct {
	limiter *ratelimit.Limiter
	policy  ratelimit.Policy
	now     func() time.Time
}

// NewRateLimitMiddleware creates a middleware enforcing the given policy.
func NewRateLimitMiddleware(limiter *ratelimit.Limiter, policy ratelimit.Policy) *RateLimitMiddleware {
	return &RateLimitMiddleware{
		limiter: limiter,
		policy:  policy,
		now:     time.Now,
	}
}

// Handle checks the client's budget before passing the request on. Every
// response carries the X-RateLimit-* headers; a depleted budget yields
// 429 with a Retry-After hint.
func (m *RateLimitMiddleware) Handle(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		decision := m.limiter.Check(r.Context(), clientIP(r), m.policy)

		w.Header().Set("X-RateLimit-Limit", strconv.Itoa(decision.Limit))
		w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(decision.Remaining))
		w.Header().Set("X-RateLimit-Reset", decision.ResetAt.UTC().Format(time.RFC3339))

		if !decision.Allowed {
			retryAfter := int(decision.ResetAt.Sub(m.now()).Seconds())
			if retryAfter < 1 {
				retryAfter = 1
			}
			w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
			shared.RespondWithErrorAndLog(w, r, http.StatusTooManyRequests,
				"Too many requests, please slow down",
				fmt.Errorf("rate limit exceeded: %d/%d in window", decision.Count, decision.Limit))
			return
		}

		next.ServeHTTP(w, r)
	})
}

// clientIP returns the request's client address without the port. The
// router applies chi's RealIP middleware first, so RemoteAddr already
// reflects X-Forwarded-For when the service runs behind a proxy.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
