package lock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bsm/redislock"
)

var ErrNotAcquired = errors.New("lock not acquired")

const retryBackoff = 50 * time.Millisecond

// Locker serializes work across instances with a redis lock.
// Wait bounds how long Obtain retries; Lease is the lock TTL.
type Locker struct {
	client *redislock.Client
	wait   time.Duration
	lease  time.Duration
}

func New(rdb redislock.RedisClient, wait, lease time.Duration) *Locker {
	return &Locker{
		client: redislock.New(rdb),
		wait:   wait,
		lease:  lease,
	}
}

// Key builds a "<resource>:<id>" lock key.
func Key(resource string, id any) string {
	return fmt.Sprintf("%s:%v", resource, id)
}

func (l *Locker) WithLock(ctx context.Context, key string, fn func(ctx context.Context) error) error {
	waitCtx, cancel := context.WithTimeout(ctx, l.wait)
	defer cancel()

	lk, err := l.client.Obtain(waitCtx, "lock:"+key, l.lease, &redislock.Options{
		RetryStrategy: redislock.LinearBackoff(retryBackoff),
	})
	if err != nil {
		if errors.Is(err, redislock.ErrNotObtained) || errors.Is(err, context.DeadlineExceeded) {
			return fmt.Errorf("%w: %s", ErrNotAcquired, key)
		}
		return fmt.Errorf("obtain lock %s: %w", key, err)
	}
	defer func() {
		releaseCtx, rc := context.WithTimeout(context.WithoutCancel(ctx), time.Second)
		defer rc()
		_ = lk.Release(releaseCtx)
	}()

	return fn(ctx)
}
