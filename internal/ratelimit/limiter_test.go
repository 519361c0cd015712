package ratelimit

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkrell/taskhive-api/internal/platform/memkv"
)

func setupTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))
}

// erroringKV simulates an unreachable store.
type erroringKV struct{}

var errStoreDown = errors.New("store unreachable")

func (erroringKV) Get(ctx context.Context, key string) (string, bool, error) {
	return "", false, errStoreDown
}

func (erroringKV) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	return errStoreDown
}

func (erroringKV) SetIfAbsent(ctx context.Context, key, value string, ttl time.Duration) (bool, error) {
	return false, errStoreDown
}

func (erroringKV) Increment(ctx context.Context, key string) (int64, error) {
	return 0, errStoreDown
}

func (erroringKV) Expire(ctx context.Context, key string, ttl time.Duration) error {
	return errStoreDown
}

func (erroringKV) TTL(ctx context.Context, key string) (time.Duration, bool, error) {
	return 0, false, errStoreDown
}

func (erroringKV) Delete(ctx context.Context, key string) error {
	return errStoreDown
}

func TestCheckBlocksAfterLimit(t *testing.T) {
	kv := memkv.New()
	l := New(kv, setupTestLogger())
	ctx := context.Background()

	p := Policy{RouteTag: "api", Limit: 3, Window: time.Minute}

	wantAllowed := []bool{true, true, true, false}
	wantRemaining := []int{2, 1, 0, 0}

	for i := 0; i < 4; i++ {
		d := l.Check(ctx, "203.0.113.7", p)
		assert.Equalf(t, wantAllowed[i], d.Allowed, "request %d allowed", i+1)
		assert.Equalf(t, wantRemaining[i], d.Remaining, "request %d remaining", i+1)
		assert.Equal(t, int64(i+1), d.Count)
		assert.Equal(t, 3, d.Limit)
	}
}

func TestCheckWindowReset(t *testing.T) {
	kv := memkv.New()
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	kv.SetClock(func() time.Time { return now })

	l := New(kv, setupTestLogger())
	l.now = func() time.Time { return now }
	ctx := context.Background()

	p := Policy{RouteTag: "api", Limit: 2, Window: time.Minute}

	for i := 0; i < 3; i++ {
		l.Check(ctx, "203.0.113.7", p)
	}
	d := l.Check(ctx, "203.0.113.7", p)
	require.False(t, d.Allowed)

	// After the window elapses the counter key is gone and a new window
	// starts from one.
	now = now.Add(time.Minute + time.Second)
	d = l.Check(ctx, "203.0.113.7", p)
	assert.True(t, d.Allowed)
	assert.Equal(t, int64(1), d.Count)
	assert.Equal(t, 1, d.Remaining)
}

func TestCheckIdentifiersAreIndependent(t *testing.T) {
	kv := memkv.New()
	l := New(kv, setupTestLogger())
	ctx := context.Background()

	p := Policy{RouteTag: "auth", Limit: 1, Window: time.Minute}

	d := l.Check(ctx, "203.0.113.7", p)
	require.True(t, d.Allowed)
	d = l.Check(ctx, "203.0.113.7", p)
	require.False(t, d.Allowed)

	// A different client still has a full budget, and so does the same
	// client on a different route tag.
	d = l.Check(ctx, "198.51.100.9", p)
	assert.True(t, d.Allowed)
	d = l.Check(ctx, "203.0.113.7", Policy{RouteTag: "api", Limit: 1, Window: time.Minute})
	assert.True(t, d.Allowed)
}

func TestCheckFailsOpenWhenStoreUnreachable(t *testing.T) {
	l := New(erroringKV{}, setupTestLogger())

	p := Policy{RouteTag: "api", Limit: 3, Window: time.Minute}
	d := l.Check(context.Background(), "203.0.113.7", p)

	assert.True(t, d.Allowed, "an unreachable store must not lock users out")
	assert.Equal(t, 3, d.Remaining, "fail-open returns a full budget")
}

func TestStatusDoesNotIncrement(t *testing.T) {
	kv := memkv.New()
	l := New(kv, setupTestLogger())
	ctx := context.Background()

	p := Policy{RouteTag: "api", Limit: 3, Window: time.Minute}

	l.Check(ctx, "203.0.113.7", p)
	l.Check(ctx, "203.0.113.7", p)

	for i := 0; i < 5; i++ {
		d, err := l.Status(ctx, "203.0.113.7", p)
		require.NoError(t, err)
		assert.Equal(t, int64(2), d.Count, "status must not consume budget")
		assert.Equal(t, 1, d.Remaining)
	}
}

func TestStatusWithoutTraffic(t *testing.T) {
	l := New(memkv.New(), setupTestLogger())

	p := Policy{RouteTag: "api", Limit: 3, Window: time.Minute}
	d, err := l.Status(context.Background(), "203.0.113.7", p)

	require.NoError(t, err)
	assert.True(t, d.Allowed)
	assert.Equal(t, int64(0), d.Count)
	assert.Equal(t, 3, d.Remaining)
}

func TestResetClearsCounter(t *testing.T) {
	kv := memkv.New()
	l := New(kv, setupTestLogger())
	ctx := context.Background()

	p := Policy{RouteTag: "api", Limit: 1, Window: time.Minute}

	l.Check(ctx, "203.0.113.7", p)
	d := l.Check(ctx, "203.0.113.7", p)
	require.False(t, d.Allowed)

	require.NoError(t, l.Reset(ctx, "203.0.113.7", p.RouteTag))

	d = l.Check(ctx, "203.0.113.7", p)
	assert.True(t, d.Allowed)
	assert.Equal(t, int64(1), d.Count)
}

func TestResetAtFallsWithinWindow(t *testing.T) {
	kv := memkv.New()
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	kv.SetClock(func() time.Time { return now })

	l := New(kv, setupTestLogger())
	l.now = func() time.Time { return now }

	p := Policy{RouteTag: "api", Limit: 3, Window: time.Minute}
	d := l.Check(context.Background(), "203.0.113.7", p)

	assert.Equal(t, now.Add(time.Minute), d.ResetAt)
}
