// Package memkv provides an in-process implementation of the store.KV
// contract for local development and tests.
//
// MemoryKV shares no state across processes. It therefore provides no real
// mutual exclusion and no real rate limiting in a multi-instance
// deployment. It must never back a production configuration; it exists as
// a distinct type that has to be constructed explicitly in code precisely
// so that it cannot be selected by a runtime environment fallback.
package memkv

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/mkrell/taskhive-api/internal/store"
)

type entry struct {
	value     string
	expiresAt time.Time // zero means no expiry
}

// MemoryKV is a mutex-guarded map with lazy expiry.
type MemoryKV struct {
	mu      sync.Mutex
	entries map[string]entry
	now     func() time.Time
}

var _ store.KV = (*MemoryKV)(nil)

// New creates an empty in-process store.
func New() *MemoryKV {
	return &MemoryKV{
		entries: make(map[string]entry),
		now:     time.Now,
	}
}

// SetClock replaces the time source. Tests use it to step through window
// and TTL expiries without sleeping.
func (m *MemoryKV) SetClock(now func() time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = now
}

// live returns the entry for key if it exists and has not expired, pruning
// it when it has. Callers must hold the mutex.
func (m *MemoryKV) live(key string) (entry, bool) {
	e, ok := m.entries[key]
	if !ok {
		return entry{}, false
	}
	if !e.expiresAt.IsZero() && !m.now().Before(e.expiresAt) {
		delete(m.entries, key)
		return entry{}, false
	}
	return e, true
}

func (m *MemoryKV) Get(ctx context.Context, key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.live(key)
	if !ok {
		return "", false, nil
	}
	return e.value, true, nil
}

func (m *MemoryKV) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[key] = entry{value: value, expiresAt: m.expiry(ttl)}
	return nil
}

func (m *MemoryKV) SetIfAbsent(ctx context.Context, key, value string, ttl time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.live(key); ok {
		return false, nil
	}
	m.entries[key] = entry{value: value, expiresAt: m.expiry(ttl)}
	return true, nil
}

func (m *MemoryKV) Increment(ctx context.Context, key string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.live(key)
	if !ok {
		m.entries[key] = entry{value: "1"}
		return 1, nil
	}
	n, err := strconv.ParseInt(e.value, 10, 64)
	if err != nil {
		return 0, err
	}
	n++
	e.value = strconv.FormatInt(n, 10)
	m.entries[key] = e
	return n, nil
}

func (m *MemoryKV) Expire(ctx context.Context, key string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.live(key)
	if !ok {
		return nil
	}
	e.expiresAt = m.expiry(ttl)
	m.entries[key] = e
	return nil
}

func (m *MemoryKV) TTL(ctx context.Context, key string) (time.Duration, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.live(key)
	if !ok {
		return 0, false, nil
	}
	if e.expiresAt.IsZero() {
		return store.NoExpiry, true, nil
	}
	return e.expiresAt.Sub(m.now()), true, nil
}

func (m *MemoryKV) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, key)
	return nil
}

func (m *MemoryKV) expiry(ttl time.Duration) time.Time {
	if ttl <= 0 {
		return time.Time{}
	}
	return m.now().Add(ttl)
}
