package lock

import (
	"context"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestLocalLocker_SerializesSameKey(t *testing.T) {
	l := NewLocalLocker()
	var inside, maxInside int32
	var wg sync.WaitGroup

	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock, err := l.Lock(context.Background(), "user-1")
			if !assert.NoError(t, err) {
				return
			}
			defer unlock()

			n := atomic.AddInt32(&inside, 1)
			for {
				m := atomic.LoadInt32(&maxInside)
				if n <= m || atomic.CompareAndSwapInt32(&maxInside, m, n) {
					break
				}
			}
			time.Sleep(2 * time.Millisecond)
			atomic.AddInt32(&inside, -1)
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), maxInside)
	assert.Empty(t, l.entries)
}

func TestLocalLocker_DifferentKeysDoNotBlock(t *testing.T) {
	l := NewLocalLocker()
	unlockA, err := l.Lock(context.Background(), "a")
	require.NoError(t, err)
	defer unlockA()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	unlockB, err := l.Lock(ctx, "b")
	require.NoError(t, err)
	unlockB()
}

func TestLocalLocker_ContextCancel(t *testing.T) {
	l := NewLocalLocker()
	unlock, err := l.Lock(context.Background(), "k")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = l.Lock(ctx, "k")
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	unlock()
	unlock() // second call is a no-op
	assert.Empty(t, l.entries)
}

func TestKeepAlive(t *testing.T) {
	tests := []struct {
		name      string
		heldFor   int32
		stopAfter int32
		wantCalls int32
	}{
		{name: "extends until stopped", heldFor: 100, stopAfter: 3, wantCalls: 3},
		{name: "gives up once the lock is lost", heldFor: 2, stopAfter: 100, wantCalls: 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls atomic.Int32
			stop := make(chan struct{})
			done := make(chan struct{})
			go func() {
				defer close(done)
				keepAlive(stop, time.Millisecond, func() bool {
					n := calls.Add(1)
					if n == tt.stopAfter {
						close(stop)
					}
					return n <= tt.heldFor
				})
			}()

			select {
			case <-done:
			case <-time.After(time.Second):
				t.Fatal("keepAlive did not return")
			}
			assert.Equal(t, tt.wantCalls, calls.Load())
		})
	}
}

func TestRedisLocker_RefreshesTTL(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set")
	}
	ctx := context.Background()
	client := redis.NewClient(&redis.Options{Addr: addr})
	defer client.Close()
	l := NewRedisLocker(client, 300*time.Millisecond)
	key := "test:" + uuid.NewString()

	unlock, err := l.Lock(ctx, key)
	require.NoError(t, err)
	time.Sleep(time.Second)

	ttl, err := client.PTTL(ctx, "lock:"+key).Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, time.Duration(0))

	unlock()
	exists, err := client.Exists(ctx, "lock:"+key).Result()
	require.NoError(t, err)
	assert.Zero(t, exists)
}
