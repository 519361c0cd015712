// Package ratelimit implements fixed-window request throttling shared
// across stateless instances through the remote store's atomic increment.
//
// This is deliberately a fixed-window counter, not a sliding log: it costs
// one atomic operation and O(1) storage per key, and accepts the known
// boundary-burst tradeoff (up to twice the limit across a window edge).
// Callers that need the product to stay available during a store outage
// get that too: a failed check fails open with a full budget.
package ratelimit

import (
	"context"
	"log/slog"
	"math"
	"strconv"
	"time"

	"github.com/mkrell/taskhive-api/internal/store"
)

const keyPrefix = "ratelimit:"

// Policy is a {limit, window} pair for one route class. Policies are
// configuration data; every route class runs the same algorithm.
type Policy struct {
	// RouteTag namespaces the counter keys, so the same client identifier
	// tracks independent budgets per route class.
	RouteTag string

	// Limit is the number of requests allowed per window.
	Limit int

	// Window is the fixed counting interval.
	Window time.Duration
}

// Decision is the outcome of one rate-limit check.
type Decision struct {
	Allowed   bool
	Limit     int
	Remaining int
	Count     int64
	ResetAt   time.Time
}

// Limiter enforces policies against counters in the shared store.
type Limiter struct {
	kv     store.KV
	logger *slog.Logger
	now    func() time.Time
}

// New creates a limiter over the given store.
func New(kv store.KV, logger *slog.Logger) *Limiter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Limiter{kv: kv, logger: logger, now: time.Now}
}

// Key returns the counter key for an identifier under a route tag.
func Key(identifier, routeTag string) string {
	return keyPrefix + routeTag + ":" + identifier
}

// Check counts one request from identifier against the policy and decides
// whether it is allowed. The first request in a window creates the counter
// with the window as its expiry; later requests increment it atomically.
//
// If the store is unreachable the check fails open: the request is allowed
// with a full remaining budget and the error is logged. Availability of
// the product is deliberately prioritized over strict throttling during a
// transient store outage; do not "fix" this to fail closed.
func (l *Limiter) Check(ctx context.Context, identifier string, p Policy) Decision {
	key := Key(identifier, p.RouteTag)
	now := l.now()

	count, err := l.kv.Increment(ctx, key)
	if err != nil {
		l.logger.Error("rate limit check failed, failing open",
			"route", p.RouteTag,
			"identifier", identifier,
			"error", err)
		return Decision{
			Allowed:   true,
			Limit:     p.Limit,
			Remaining: p.Limit,
			ResetAt:   now.Add(p.Window),
		}
	}

	if count == 1 {
		// Fresh window: arm the expiry that resets it.
		if err := l.kv.Expire(ctx, key, p.Window); err != nil {
			l.logger.Warn("failed to set rate limit window expiry",
				"route", p.RouteTag,
				"identifier", identifier,
				"error", err)
		}
	}

	return Decision{
		Allowed:   count <= int64(p.Limit),
		Limit:     p.Limit,
		Remaining: remaining(p.Limit, count),
		Count:     count,
		ResetAt:   l.resetAt(ctx, key, p, now),
	}
}

// Status inspects the counter without incrementing it, for introspection
// and UI. A zero-count decision with a full budget is returned when no
// request has been seen in the current window.
func (l *Limiter) Status(ctx context.Context, identifier string, p Policy) (Decision, error) {
	key := Key(identifier, p.RouteTag)
	now := l.now()

	val, ok, err := l.kv.Get(ctx, key)
	if err != nil {
		return Decision{}, err
	}
	if !ok {
		return Decision{
			Allowed:   true,
			Limit:     p.Limit,
			Remaining: p.Limit,
			ResetAt:   now.Add(p.Window),
		}, nil
	}

	count, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return Decision{}, err
	}

	return Decision{
		Allowed:   count < int64(p.Limit),
		Limit:     p.Limit,
		Remaining: remaining(p.Limit, count),
		Count:     count,
		ResetAt:   l.resetAt(ctx, key, p, now),
	}, nil
}

// Reset deletes the counter outright. Administrative override; the next
// request starts a fresh window.
func (l *Limiter) Reset(ctx context.Context, identifier, routeTag string) error {
	return l.kv.Delete(ctx, Key(identifier, routeTag))
}

// resetAt derives when the current window ends from the key's TTL. A key
// that lost its expiry (for example because the Expire after creation
// failed) is re-armed so the counter cannot block its identifier forever.
func (l *Limiter) resetAt(ctx context.Context, key string, p Policy, now time.Time) time.Time {
	ttl, ok, err := l.kv.TTL(ctx, key)
	if err != nil {
		l.logger.Warn("failed to read rate limit window TTL",
			"route", p.RouteTag,
			"error", err)
		return now.Add(p.Window)
	}
	if !ok || ttl == store.NoExpiry {
		if err := l.kv.Expire(ctx, key, p.Window); err != nil {
			l.logger.Warn("failed to re-arm rate limit window expiry",
				"route", p.RouteTag,
				"error", err)
		}
		return now.Add(p.Window)
	}
	return now.Add(ttl)
}

func remaining(limit int, count int64) int {
	rem := int64(limit) - count
	if rem < 0 {
		return 0
	}
	if rem > math.MaxInt32 {
		return limit
	}
	return int(rem)
}
