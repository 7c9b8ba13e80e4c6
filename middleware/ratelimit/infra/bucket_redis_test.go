package infra

import (
	"context"
	"sync"
	"testing"
	"time"

	"whois-gateway/middleware/ratelimit/application"
	"whois-gateway/middleware/ratelimit/domain"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return mr, rdb
}

func TestRedisBucketStore_RoundTrip(t *testing.T) {
	mr, rdb := newRedis(t)
	s := NewRedisBucketStore(rdb, WithBucketPrefix("test:bucket:"), WithBucketTTL(2*time.Minute))
	ctx := context.Background()

	_, found, err := s.Get(ctx, "1.2.3.4")
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, s.Update(ctx, "1.2.3.4", increment))
	require.NoError(t, s.Update(ctx, "1.2.3.4", increment))

	b, found, err := s.Get(ctx, "1.2.3.4")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, 2, b.Count)
	assert.True(t, b.WindowStart.Equal(time.Unix(100, 0)))

	assert.True(t, mr.Exists("test:bucket:1.2.3.4"))
	assert.Equal(t, 2*time.Minute, mr.TTL("test:bucket:1.2.3.4"))

	mr.FastForward(3 * time.Minute)
	_, found, err = s.Get(ctx, "1.2.3.4")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestRedisBucketStore_ConcurrentHitsAreAllCounted(t *testing.T) {
	_, rdb := newRedis(t)
	s := NewRedisBucketStore(rdb)
	now := time.Unix(1_700_000_000, 0)

	var (
		wg     sync.WaitGroup
		mu     sync.Mutex
		counts = map[int]bool{}
	)
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			b, err := s.Hit(context.Background(), "k", now, time.Minute)
			if !assert.NoError(t, err) {
				return
			}
			mu.Lock()
			counts[b.Count] = true
			mu.Unlock()
		}()
	}
	wg.Wait()

	// cada tentativa enxerga uma contagem diferente: 1..100
	assert.Len(t, counts, 100)
	b, found, err := s.Get(context.Background(), "k")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, 100, b.Count)
	assert.True(t, b.WindowStart.Equal(now))
}

func TestRedisBucketStore_HitResetsAfterWindow(t *testing.T) {
	mr, rdb := newRedis(t)
	s := NewRedisBucketStore(rdb, WithBucketTTL(time.Second))
	start := time.Unix(1_700_000_000, 0)

	for i := 0; i < 3; i++ {
		_, err := s.Hit(context.Background(), "k", start, time.Minute)
		require.NoError(t, err)
	}

	b, err := s.Hit(context.Background(), "k", start.Add(time.Minute), time.Minute)
	require.NoError(t, err)
	assert.Equal(t, 4, b.Count, "no limite exato a janela ainda vale")

	b, err = s.Hit(context.Background(), "k", start.Add(time.Minute+time.Millisecond), time.Minute)
	require.NoError(t, err)
	assert.Equal(t, 1, b.Count)
	assert.True(t, b.WindowStart.Equal(start.Add(time.Minute+time.Millisecond)))

	// TTL menor que a janela é estendido
	assert.Equal(t, time.Minute, mr.TTL(s.key("k")))
}

func TestRedisBucketStore_WithFixedWindow(t *testing.T) {
	_, rdb := newRedis(t)
	now := time.Unix(1_700_000_000, 0)
	svc := application.FixedWindow{
		Store:       NewRedisBucketStore(rdb),
		MaxRequests: 5,
		Window:      time.Minute,
		Now:         func() time.Time { return now },
	}

	for i := 0; i < 5; i++ {
		dec, err := svc.Decide(context.Background(), "client")
		require.NoError(t, err)
		require.True(t, dec.Allowed)
	}
	dec, err := svc.Decide(context.Background(), "client")
	require.NoError(t, err)
	assert.False(t, dec.Allowed)
	assert.Equal(t, 60, dec.RetryAfterSeconds())

	now = now.Add(61 * time.Second)
	dec, err = svc.Decide(context.Background(), "client")
	require.NoError(t, err)
	assert.True(t, dec.Allowed)
	assert.Equal(t, 4, dec.Remaining)
}

func TestRedisBucketStore_ErrorWhenUnavailable(t *testing.T) {
	mr, rdb := newRedis(t)
	mr.Close()

	err := NewRedisBucketStore(rdb).Update(context.Background(), "k", func(b domain.Bucket, _ bool) domain.Bucket { return b })
	require.Error(t, err)
}
