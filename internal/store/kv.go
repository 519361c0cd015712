package store

import (
	"context"
	"time"
)

// NoExpiry is the TTL reported for a key that exists without an expiry.
const NoExpiry = time.Duration(-1)

// KV is the narrow contract this service requires from the shared remote
// key-value store. Every operation must be atomic on the store side: the
// lock manager and the rate limiter are only correct because conditional
// set and increment never degrade into a client-side read-modify-write.
//
// Version: 1.0
type KV interface {
	// Get retrieves the value stored under key.
	// The boolean is false when the key does not exist.
	Get(ctx context.Context, key string) (value string, ok bool, err error)

	// Set stores value under key. A positive ttl sets an expiry; zero
	// stores the key without one.
	Set(ctx context.Context, key, value string, ttl time.Duration) error

	// SetIfAbsent atomically stores value under key only when the key does
	// not already exist, applying ttl in the same operation. Returns true
	// when the value was stored. This is the linchpin primitive for mutual
	// exclusion; implementations must not emulate it with Get followed by
	// Set.
	SetIfAbsent(ctx context.Context, key, value string, ttl time.Duration) (bool, error)

	// Increment atomically increments the integer stored under key,
	// creating it as 1 when absent, and returns the new value.
	Increment(ctx context.Context, key string) (int64, error)

	// Expire sets or replaces the expiry on an existing key.
	Expire(ctx context.Context, key string, ttl time.Duration) error

	// TTL reports the remaining time to live for key. The boolean is false
	// when the key does not exist; NoExpiry is returned for a key that
	// exists without an expiry.
	TTL(ctx context.Context, key string) (ttl time.Duration, ok bool, err error)

	// Delete removes key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error
}
