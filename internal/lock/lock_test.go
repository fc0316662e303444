package lock

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redsync/redsync/v4"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func assertMutualExclusion(t *testing.T, l Locker, key string) {
	t.Helper()
	ctx := context.Background()

	var (
		inside   atomic.Int32
		violated atomic.Bool
		counter  int
		wg       sync.WaitGroup
	)

	for range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := l.WithLock(ctx, key, func(context.Context) error {
				if inside.Add(1) > 1 {
					violated.Store(true)
				}
				counter++
				time.Sleep(time.Millisecond)
				inside.Add(-1)
				return nil
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.False(t, violated.Load(), "two holders inside the lock")
	assert.Equal(t, 20, counter)
}

func TestKeyedMutex_MutualExclusion(t *testing.T) {
	km := NewKeyedMutex()
	assertMutualExclusion(t, km, "ledger:account:1")
	assert.Equal(t, 0, km.size(), "entries must be released")
}

func TestKeyedMutex_DistinctKeysDoNotContend(t *testing.T) {
	km := NewKeyedMutex()
	ctx := context.Background()

	holding := make(chan struct{})
	release := make(chan struct{})
	go func() {
		_ = km.WithLock(ctx, "a", func(context.Context) error {
			close(holding)
			<-release
			return nil
		})
	}()
	<-holding

	done := make(chan struct{})
	go func() {
		_ = km.WithLock(ctx, "b", func(context.Context) error { return nil })
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("lock on b blocked behind a")
	}
	close(release)
}

func TestKeyedMutex_ContextCancelledWhileWaiting(t *testing.T) {
	km := NewKeyedMutex()

	holding := make(chan struct{})
	release := make(chan struct{})
	go func() {
		_ = km.WithLock(context.Background(), "k", func(context.Context) error {
			close(holding)
			<-release
			return nil
		})
	}()
	<-holding

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	called := false
	err := km.WithLock(ctx, "k", func(context.Context) error {
		called = true
		return nil
	})

	require.ErrorIs(t, err, context.DeadlineExceeded)
	assert.False(t, called)
	close(release)
}

func TestKeyedMutex_PropagatesError(t *testing.T) {
	want := errors.New("boom")
	err := NewKeyedMutex().WithLock(context.Background(), "k", func(context.Context) error { return want })
	require.ErrorIs(t, err, want)
}

func newTestRedisLocker(t *testing.T, opts RedisOptions) (*RedisLocker, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewRedisLocker(client, "test:", opts), mr
}

func TestRedisLocker_MutualExclusion(t *testing.T) {
	l, _ := newTestRedisLocker(t, RedisOptions{
		Expiry:     5 * time.Second,
		Tries:      1000,
		RetryDelay: 2 * time.Millisecond,
	})
	assertMutualExclusion(t, l, "ledger:account:1")
}

func TestRedisLocker_ReleasesKey(t *testing.T) {
	l, mr := newTestRedisLocker(t, DefaultRedisOptions())

	err := l.WithLock(context.Background(), "k", func(context.Context) error {
		assert.True(t, mr.Exists("test:k"))
		return nil
	})

	require.NoError(t, err)
	assert.False(t, mr.Exists("test:k"))
}

func TestRedisLocker_NotAcquiredWhenHeld(t *testing.T) {
	l, mr := newTestRedisLocker(t, RedisOptions{
		Expiry:     time.Second,
		Tries:      2,
		RetryDelay: time.Millisecond,
	})
	require.NoError(t, mr.Set("test:k", "someone-else"))

	err := l.WithLock(context.Background(), "k", func(context.Context) error {
		t.Fatal("fn must not run without the lock")
		return nil
	})

	require.ErrorIs(t, err, ErrNotAcquired)
}

func TestIsContention(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"failed", redsync.ErrFailed, true},
		{"wrapped failed", fmt.Errorf("lock: %w", redsync.ErrFailed), true},
		{"taken", &redsync.ErrTaken{Nodes: []int{0}}, true},
		{"connection error", errors.New("dial tcp: connection refused"), false},
		{"message lookalike", errors.New("lock already taken"), false},
		{"cancelled", context.Canceled, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, isContention(tt.err))
		})
	}
}
