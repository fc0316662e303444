package lock

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-redsync/redsync/v4"
	"github.com/go-redsync/redsync/v4/redis/goredis/v9"
	"github.com/redis/go-redis/v9"

	"github.com/josh-kwaku/corporate-ledger/internal/logging"
)

var ErrNotAcquired = errors.New("lock not acquired")

type RedisOptions struct {
	Expiry     time.Duration
	Tries      int
	RetryDelay time.Duration
}

func DefaultRedisOptions() RedisOptions {
	return RedisOptions{
		Expiry:     10 * time.Second,
		Tries:      32,
		RetryDelay: 50 * time.Millisecond,
	}
}

// RedisLocker is a Locker backed by redsync so that several API instances
// share one lock per key.
type RedisLocker struct {
	rs     *redsync.Redsync
	prefix string
	opts   RedisOptions
}

func NewRedisLocker(client redis.UniversalClient, prefix string, opts RedisOptions) *RedisLocker {
	return &RedisLocker{
		rs:     redsync.New(goredis.NewPool(client)),
		prefix: prefix,
		opts:   opts,
	}
}

func (l *RedisLocker) WithLock(ctx context.Context, key string, fn func(context.Context) error) error {
	mutex := l.rs.NewMutex(l.prefix+key,
		redsync.WithExpiry(l.opts.Expiry),
		redsync.WithTries(l.opts.Tries),
		redsync.WithRetryDelay(l.opts.RetryDelay),
	)

	if err := mutex.LockContext(ctx); err != nil {
		if isContention(err) {
			return fmt.Errorf("WithLock: %s: %w", key, ErrNotAcquired)
		}
		return fmt.Errorf("WithLock: %s: %w", key, err)
	}

	defer func() {
		// Unlock on a fresh context so a cancelled request still releases.
		unlockCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), time.Second)
		defer cancel()
		if ok, err := mutex.UnlockContext(unlockCtx); !ok || err != nil {
			logging.FromContext(ctx).Warn("failed to release lock", "key", key, "error", err)
		}
	}()

	return fn(ctx)
}

// isContention reports whether err means another holder owns the key.
func isContention(err error) bool {
	var taken *redsync.ErrTaken
	return errors.Is(err, redsync.ErrFailed) || errors.As(err, &taken)
}

// NewRedisClient connects and pings.
func NewRedisClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{Addr: addr, Password: password, DB: db})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("NewRedisClient: %w", err)
	}
	slog.Info("connected to redis", "addr", addr)
	return client, nil
}
