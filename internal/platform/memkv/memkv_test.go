package memkv

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkrell/taskhive-api/internal/store"
)

func TestSetIfAbsentIsConditional(t *testing.T) {
	kv := New()
	ctx := context.Background()

	ok, err := kv.SetIfAbsent(ctx, "lock:jobs", "owner-a", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = kv.SetIfAbsent(ctx, "lock:jobs", "owner-b", time.Minute)
	require.NoError(t, err)
	assert.False(t, ok, "second conditional set must fail while the key lives")

	val, found, err := kv.Get(ctx, "lock:jobs")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "owner-a", val, "the losing set must not overwrite the value")
}

func TestKeysExpire(t *testing.T) {
	kv := New()
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	kv.SetClock(func() time.Time { return now })
	ctx := context.Background()

	require.NoError(t, kv.Set(ctx, "k", "v", time.Second))

	_, found, err := kv.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, found)

	now = now.Add(1100 * time.Millisecond)
	_, found, err = kv.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, found, "key must expire once its TTL elapses")

	ok, err := kv.SetIfAbsent(ctx, "k", "v2", time.Second)
	require.NoError(t, err)
	assert.True(t, ok, "an expired key no longer blocks a conditional set")
}

func TestIncrementCreatesAndCounts(t *testing.T) {
	kv := New()
	ctx := context.Background()

	for want := int64(1); want <= 3; want++ {
		n, err := kv.Increment(ctx, "counter")
		require.NoError(t, err)
		assert.Equal(t, want, n)
	}
}

func TestIncrementPreservesExpiry(t *testing.T) {
	kv := New()
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	kv.SetClock(func() time.Time { return now })
	ctx := context.Background()

	_, err := kv.Increment(ctx, "counter")
	require.NoError(t, err)
	require.NoError(t, kv.Expire(ctx, "counter", time.Minute))

	_, err = kv.Increment(ctx, "counter")
	require.NoError(t, err)

	ttl, found, err := kv.TTL(ctx, "counter")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, time.Minute, ttl, "increment must not clear the window expiry")
}

func TestTTLReporting(t *testing.T) {
	kv := New()
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	kv.SetClock(func() time.Time { return now })
	ctx := context.Background()

	_, found, err := kv.TTL(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, kv.Set(ctx, "forever", "v", 0))
	ttl, found, err := kv.TTL(ctx, "forever")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, store.NoExpiry, ttl)

	require.NoError(t, kv.Set(ctx, "bounded", "v", 30*time.Second))
	now = now.Add(10 * time.Second)
	ttl, found, err = kv.TTL(ctx, "bounded")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, 20*time.Second, ttl)
}

func TestDeleteIsIdempotent(t *testing.T) {
	kv := New()
	ctx := context.Background()

	require.NoError(t, kv.Set(ctx, "k", "v", 0))
	require.NoError(t, kv.Delete(ctx, "k"))
	require.NoError(t, kv.Delete(ctx, "k"), "deleting an absent key is not an error")

	_, found, err := kv.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, found)
}
