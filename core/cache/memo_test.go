package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func counter() (func(ctx context.Context) (int, error), *atomic.Int32) {
	var calls atomic.Int32
	return func(ctx context.Context) (int, error) {
		return int(calls.Add(1)), nil
	}, &calls
}

func TestMemo_Get(t *testing.T) {
	load, calls := counter()
	m := NewMemo(load, 0)

	v, err := m.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, v)

	v, err = m.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, v)
	assert.Equal(t, int32(1), calls.Load())
}

func TestMemo_Get_Concurrent(t *testing.T) {
	release := make(chan struct{})
	var calls atomic.Int32
	m := NewMemo(func(ctx context.Context) (int, error) {
		calls.Add(1)
		<-release
		return 7, nil
	}, 0)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v, err := m.Get(context.Background())
			assert.NoError(t, err)
			assert.Equal(t, 7, v)
		}()
	}
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), calls.Load())
}

func TestMemo_Error(t *testing.T) {
	fail := true
	m := NewMemo(func(ctx context.Context) (string, error) {
		if fail {
			return "", errors.New("unreachable")
		}
		return "ok", nil
	}, 0)

	_, err := m.Get(context.Background())
	assert.EqualError(t, err, "unreachable")
	_, ok := m.Built()
	assert.False(t, ok)

	fail = false
	v, err := m.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "ok", v)
}

func TestMemo_RefreshAndInvalidate(t *testing.T) {
	load, calls := counter()
	m := NewMemo(load, 0)

	_, _ = m.Get(context.Background())
	v, err := m.Refresh(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, v)

	m.Invalidate()
	v, _ = m.Get(context.Background())
	assert.Equal(t, 3, v)
	assert.Equal(t, int32(3), calls.Load())
}

func TestMemo_TTL(t *testing.T) {
	load, _ := counter()
	m := NewMemo(load, time.Minute)
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return now }

	v, _ := m.Get(context.Background())
	assert.Equal(t, 1, v)

	now = now.Add(30 * time.Second)
	v, _ = m.Get(context.Background())
	assert.Equal(t, 1, v)

	now = now.Add(time.Minute)
	v, _ = m.Get(context.Background())
	assert.Equal(t, 2, v)
}

// blockingLoad blocks its first call until release is closed.
func blockingLoad() (load func(ctx context.Context) (int, error), started, release chan struct{}, calls *atomic.Int32) {
	started = make(chan struct{})
	release = make(chan struct{})
	calls = new(atomic.Int32)
	load = func(ctx context.Context) (int, error) {
		n := calls.Add(1)
		if n == 1 {
			close(started)
			<-release
		}
		return int(n), nil
	}
	return load, started, release, calls
}

func TestMemo_Refresh_DuringFirstLoad(t *testing.T) {
	load, started, release, calls := blockingLoad()
	m := NewMemo(load, 0)

	first := make(chan int, 1)
	go func() {
		v, _ := m.Get(context.Background())
		first <- v
	}()
	<-started

	v, err := m.Refresh(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, v)

	close(release)
	assert.Equal(t, 1, <-first)

	v, err = m.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, v)
	assert.Equal(t, int32(2), calls.Load())
}

func TestMemo_Invalidate_DuringLoad(t *testing.T) {
	load, started, release, calls := blockingLoad()
	m := NewMemo(load, 0)

	first := make(chan int, 1)
	go func() {
		v, _ := m.Get(context.Background())
		first <- v
	}()
	<-started

	m.Invalidate()
	close(release)
	assert.Equal(t, 1, <-first)

	_, ok := m.Built()
	assert.False(t, ok)

	v, err := m.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, v)
	assert.Equal(t, int32(2), calls.Load())
}
