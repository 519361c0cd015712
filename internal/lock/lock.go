// Package lock implements named, TTL-bounded mutual-exclusion locks on top
// of the shared remote store. Stateless job instances use it to guarantee
// that at most one of them executes a given scheduled job per tick.
//
// Correctness rests on two properties: acquisition is a single atomic
// set-if-absent-with-TTL against the store, and release is gated on the
// owner token written at acquisition time, so a late release can never
// destroy a lock that expired and was re-acquired by another instance.
package lock

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/mkrell/taskhive-api/internal/store"
)

const (
	// keyPrefix namespaces lock keys in the shared store.
	keyPrefix = "lock:"

	// DefaultTTL bounds how long a lock outlives a crashed holder when the
	// caller does not specify a timeout.
	DefaultTTL = 60 * time.Second

	// DefaultRetryDelay is the pause between acquisition retries.
	DefaultRetryDelay = time.Second
)

// Options control a single acquisition attempt.
type Options struct {
	// TTL bounds the lock's validity even if the holder crashes without
	// releasing. Zero means DefaultTTL.
	TTL time.Duration

	// Retries is how many additional attempts to make after the first
	// failure to acquire. Zero means give up immediately.
	Retries int

	// RetryDelay is the wait between attempts. Zero means
	// DefaultRetryDelay.
	RetryDelay time.Duration
}

func (o Options) ttl() time.Duration {
	if o.TTL <= 0 {
		return DefaultTTL
	}
	return o.TTL
}

func (o Options) retryDelay() time.Duration {
	if o.RetryDelay <= 0 {
		return DefaultRetryDelay
	}
	return o.RetryDelay
}

// Manager acquires and releases distributed locks backed by a store.KV.
type Manager struct {
	kv     store.KV
	logger *slog.Logger
}

// NewManager creates a lock manager over the given store.
func NewManager(kv store.KV, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{kv: kv, logger: logger}
}

// Key returns the store key for a lock name.
func Key(name string) string {
	return keyPrefix + name
}

// Acquire attempts to take the named lock. On success it returns the owner
// token that must be presented to Release, and acquired=true.
//
// Store errors are treated as "could not acquire" and logged: for job
// mutual exclusion it is safer to skip a run than to double-run it.
func (m *Manager) Acquire(ctx context.Context, name string, opts Options) (string, bool) {
	key := Key(name)
	ttl := opts.ttl()

	for attempt := 0; ; attempt++ {
		// A fresh token per attempt proves which acquisition owns the lock.
		token := uuid.NewString()

		ok, err := m.kv.SetIfAbsent(ctx, key, token, ttl)
		if err != nil {
			m.logger.Error("lock acquisition failed, treating as not acquired",
				"lock", name,
				"attempt", attempt+1,
				"error", err)
			return "", false
		}
		if ok {
			m.logger.Debug("lock acquired",
				"lock", name,
				"ttl", ttl,
				"attempt", attempt+1)
			return token, true
		}

		if attempt >= opts.Retries {
			m.logger.Debug("lock busy, giving up",
				"lock", name,
				"attempts", attempt+1)
			return "", false
		}

		select {
		case <-ctx.Done():
			m.logger.Debug("lock acquisition canceled", "lock", name)
			return "", false
		case <-time.After(opts.retryDelay()):
		}
	}
}

// Release frees the named lock if, and only if, the stored owner token
// still matches the caller's token. A mismatch means the lock expired and
// was re-acquired by someone else; releasing it anyway would break mutual
// exclusion for the new holder, so Release warns and leaves it alone.
//
// Store errors are logged but not returned: an unreleased lock expires on
// its own once its TTL elapses.
func (m *Manager) Release(ctx context.Context, name, token string) {
	key := Key(name)

	current, ok, err := m.kv.Get(ctx, key)
	if err != nil {
		m.logger.Error("lock release failed, lock will expire via TTL",
			"lock", name,
			"error", err)
		return
	}
	if !ok {
		m.logger.Debug("lock already expired before release", "lock", name)
		return
	}
	if current != token {
		m.logger.Warn("lock owned by another holder, skipping release",
			"lock", name)
		return
	}

	if err := m.kv.Delete(ctx, key); err != nil {
		m.logger.Error("lock delete failed, lock will expire via TTL",
			"lock", name,
			"error", err)
		return
	}
	m.logger.Debug("lock released", "lock", name)
}

// IsLocked reports whether the named lock is currently held. A non-nil
// error means the check itself failed; callers must not treat that as
// "unlocked".
func (m *Manager) IsLocked(ctx context.Context, name string) (bool, error) {
	_, ok, err := m.kv.Get(ctx, Key(name))
	if err != nil {
		return false, err
	}
	return ok, nil
}

// WithLock runs fn while holding the named lock. When the lock is busy it
// returns ran=false with a nil error; callers interpret that as "another
// instance is already running this job", not as a failure. The lock is
// released on every exit path; an error from fn propagates to the caller
// after the release.
func (m *Manager) WithLock(ctx context.Context, name string, opts Options, fn func(ctx context.Context) error) (ran bool, err error) {
	token, acquired := m.Acquire(ctx, name, opts)
	if !acquired {
		return false, nil
	}
	defer m.Release(ctx, name, token)

	return true, fn(ctx)
}
