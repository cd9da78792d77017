package cache

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// Memo lazily computes a value once and hands the same value to every caller
// until it expires, is refreshed or is invalidated.
type Memo[T any] struct {
	load func(ctx context.Context) (T, error)
	ttl  time.Duration
	now  func() time.Time

	mu    sync.RWMutex
	value T
	built time.Time
	ok    bool
	// gen is bumped by Refresh and Invalidate. A load only stores its value
	// when gen did not move while it ran.
	gen uint64
	sf  singleflight.Group
}

// NewMemo creates a memo around load. A zero ttl keeps the value until Invalidate or Refresh.
func NewMemo[T any](load func(ctx context.Context) (T, error), ttl time.Duration) *Memo[T] {
	return &Memo[T]{load: load, ttl: ttl, now: time.Now}
}

// Get returns the cached value, computing it on first access.
// Concurrent first callers share a single load.
func (m *Memo[T]) Get(ctx context.Context) (T, error) {
	m.mu.RLock()
	if m.fresh() {
		v := m.value
		m.mu.RUnlock()
		return v, nil
	}
	m.mu.RUnlock()

	v, err, _ := m.sf.Do("memo", func() (any, error) {
		// Double-check after acquiring singleflight lock
		m.mu.RLock()
		if m.fresh() {
			v := m.value
			m.mu.RUnlock()
			return v, nil
		}
		gen := m.gen
		m.mu.RUnlock()

		return m.build(ctx, gen)
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return v.(T), nil
}

// Refresh recomputes the value regardless of its age. It never joins a
// load started by Get, and a Get load still in flight will not overwrite it.
func (m *Memo[T]) Refresh(ctx context.Context) (T, error) {
	v, err, _ := m.sf.Do("refresh", func() (any, error) {
		m.mu.Lock()
		m.gen++
		gen := m.gen
		m.mu.Unlock()

		return m.build(ctx, gen)
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return v.(T), nil
}

// Invalidate drops the cached value; the next Get recomputes it. A load in
// flight still answers its callers but is not cached.
func (m *Memo[T]) Invalidate() {
	m.mu.Lock()
	var zero T
	m.value = zero
	m.ok = false
	m.gen++
	m.mu.Unlock()
}

// Built reports when the current value was computed.
func (m *Memo[T]) Built() (time.Time, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.built, m.ok
}

// fresh must be called with mu held.
func (m *Memo[T]) fresh() bool {
	if !m.ok {
		return false
	}
	return m.ttl == 0 || m.now().Sub(m.built) <= m.ttl
}

func (m *Memo[T]) build(ctx context.Context, gen uint64) (T, error) {
	v, err := m.load(ctx)
	if err != nil {
		return v, err
	}

	m.mu.Lock()
	if m.gen == gen {
		m.value = v
		m.built = m.now()
		m.ok = true
	}
	m.mu.Unlock()

	return v, nil
}
