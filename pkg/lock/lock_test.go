package lock

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newLocker(t *testing.T, wait, lease time.Duration) *Locker {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return New(rdb, wait, lease)
}

func TestKey(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "cart:12", Key("cart", uint(12)))
	assert.Equal(t, "order:abc", Key("order", "abc"))
}

func TestWithLock_RunsAndReleases(t *testing.T) {
	t.Parallel()

	l := newLocker(t, 200*time.Millisecond, time.Second)
	ctx := context.Background()

	ran := 0
	require.NoError(t, l.WithLock(ctx, "point:1", func(ctx context.Context) error {
		ran++
		return nil
	}))
	require.NoError(t, l.WithLock(ctx, "point:1", func(ctx context.Context) error {
		ran++
		return nil
	}))
	assert.Equal(t, 2, ran)
}

func TestWithLock_PropagatesError(t *testing.T) {
	t.Parallel()

	l := newLocker(t, 200*time.Millisecond, time.Second)
	boom := errors.New("boom")

	err := l.WithLock(context.Background(), "order:1", func(ctx context.Context) error { return boom })
	assert.ErrorIs(t, err, boom)
}

func TestWithLock_ContendedFailsWithNotAcquired(t *testing.T) {
	t.Parallel()

	l := newLocker(t, 100*time.Millisecond, 5*time.Second)
	ctx := context.Background()

	held := make(chan struct{})
	done := make(chan struct{})
	go func() {
		_ = l.WithLock(ctx, "order:9", func(ctx context.Context) error {
			close(held)
			<-done
			return nil
		})
	}()
	<-held

	err := l.WithLock(ctx, "order:9", func(ctx context.Context) error { return nil })
	close(done)

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotAcquired)
}

func TestWithLock_SerializesCriticalSection(t *testing.T) {
	t.Parallel()

	l := newLocker(t, 5*time.Second, 5*time.Second)
	ctx := context.Background()

	var inside, maxInside int32
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := l.WithLock(ctx, "cart:3", func(ctx context.Context) error {
				n := atomic.AddInt32(&inside, 1)
				for {
					m := atomic.LoadInt32(&maxInside)
					if n <= m || atomic.CompareAndSwapInt32(&maxInside, m, n) {
						break
					}
				}
				time.Sleep(5 * time.Millisecond)
				atomic.AddInt32(&inside, -1)
				return nil
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), maxInside)
}
