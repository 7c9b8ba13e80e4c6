package application

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"whois-gateway/middleware/ratelimit/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mapStore struct {
	mu      sync.Mutex
	buckets map[domain.Key]domain.Bucket
}

func newMapStore() *mapStore {
	return &mapStore{buckets: map[domain.Key]domain.Bucket{}}
}

func (s *mapStore) Update(_ context.Context, key domain.Key, fn func(domain.Bucket, bool) domain.Bucket) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.buckets[key]
	s.buckets[key] = fn(b, ok)
	return nil
}

type failingStore struct{ err error }

func (s failingStore) Update(context.Context, domain.Key, func(domain.Bucket, bool) domain.Bucket) error {
	return s.err
}

type clock struct{ now time.Time }

func newClock() *clock { return &clock{now: time.Unix(1_700_000_000, 0)} }

func (c *clock) Now() time.Time          { return c.now }
func (c *clock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func TestFixedWindow_AllowsWhenNoStore(t *testing.T) {
	dec, err := FixedWindow{}.Decide(context.Background(), "k")
	require.NoError(t, err)
	assert.True(t, dec.Allowed)
	assert.Zero(t, dec.RetryAfter)
}

func TestFixedWindow_DefaultsAdmitFiveThenDeny(t *testing.T) {
	clk := newClock()
	svc := FixedWindow{Store: newMapStore(), Now: clk.Now}

	for i := 1; i <= 5; i++ {
		dec, err := svc.Decide(context.Background(), "1.2.3.4")
		require.NoError(t, err)
		require.True(t, dec.Allowed, "request %d", i)
		assert.Equal(t, 5-i, dec.Remaining)
		assert.Equal(t, 5, dec.Limit)
		clk.Advance(time.Second)
	}

	dec, err := svc.Decide(context.Background(), "1.2.3.4")
	require.NoError(t, err)
	assert.False(t, dec.Allowed)
	assert.Equal(t, 0, dec.Remaining)
	// janela aberta há 5s: faltam 55s
	assert.Equal(t, 55*time.Second, dec.RetryAfter)
	assert.Equal(t, 55, dec.RetryAfterSeconds())
}

func TestFixedWindow_DeniedAttemptsStillCount(t *testing.T) {
	clk := newClock()
	store := newMapStore()
	svc := FixedWindow{Store: store, MaxRequests: 1, Window: time.Minute, Now: clk.Now}

	for i := 0; i < 4; i++ {
		_, err := svc.Decide(context.Background(), "k")
		require.NoError(t, err)
	}
	assert.Equal(t, 4, store.buckets["k"].Count)
}

func TestFixedWindow_RetryAfterRoundsUp(t *testing.T) {
	clk := newClock()
	svc := FixedWindow{Store: newMapStore(), MaxRequests: 1, Window: time.Minute, Now: clk.Now}

	_, err := svc.Decide(context.Background(), "k")
	require.NoError(t, err)
	clk.Advance(59500 * time.Millisecond)

	dec, err := svc.Decide(context.Background(), "k")
	require.NoError(t, err)
	assert.False(t, dec.Allowed)
	assert.Equal(t, 1, dec.RetryAfterSeconds())
}

func TestFixedWindow_ResetsAfterWindow(t *testing.T) {
	clk := newClock()
	store := newMapStore()
	svc := FixedWindow{Store: store, MaxRequests: 2, Window: time.Minute, Now: clk.Now}

	for i := 0; i < 3; i++ {
		_, err := svc.Decide(context.Background(), "k")
		require.NoError(t, err)
	}

	// exatamente no limite a janela ainda vale
	clk.Advance(time.Minute)
	dec, err := svc.Decide(context.Background(), "k")
	require.NoError(t, err)
	assert.False(t, dec.Allowed)

	clk.Advance(time.Millisecond)
	dec, err = svc.Decide(context.Background(), "k")
	require.NoError(t, err)
	assert.True(t, dec.Allowed)
	assert.Equal(t, 1, store.buckets["k"].Count)
	assert.Equal(t, clk.now, store.buckets["k"].WindowStart)
}

func TestFixedWindow_KeysAreIndependent(t *testing.T) {
	clk := newClock()
	svc := FixedWindow{Store: newMapStore(), MaxRequests: 1, Window: time.Minute, Now: clk.Now}

	dec, err := svc.Decide(context.Background(), "a")
	require.NoError(t, err)
	require.True(t, dec.Allowed)
	dec, err = svc.Decide(context.Background(), "a")
	require.NoError(t, err)
	require.False(t, dec.Allowed)

	dec, err = svc.Decide(context.Background(), "b")
	require.NoError(t, err)
	assert.True(t, dec.Allowed)
}

func TestFixedWindow_StoreError(t *testing.T) {
	boom := errors.New("redis down")
	_, err := FixedWindow{Store: failingStore{err: boom}}.Decide(context.Background(), "k")
	require.ErrorIs(t, err, boom)
}

func TestFixedWindow_ContentionDenies(t *testing.T) {
	dec, err := FixedWindow{Store: failingStore{err: domain.ErrContention}}.Decide(context.Background(), "k")
	require.NoError(t, err)
	assert.False(t, dec.Allowed)
	assert.Equal(t, DefaultMaxRequests, dec.Limit)
	assert.Equal(t, 1, dec.RetryAfterSeconds())
}

// counterStore aplica a janela por conta própria, como o script do Redis.
type counterStore struct {
	failingStore
	mapStore *mapStore
	hits     int
}

func (s *counterStore) Hit(_ context.Context, key domain.Key, now time.Time, window time.Duration) (domain.Bucket, error) {
	s.hits++
	s.mapStore.mu.Lock()
	defer s.mapStore.mu.Unlock()
	b, ok := s.mapStore.buckets[key]
	if !ok || now.Sub(b.WindowStart) > window {
		b = domain.Bucket{Count: 1, WindowStart: now}
	} else {
		b.Count++
	}
	s.mapStore.buckets[key] = b
	return b, nil
}

func TestFixedWindow_UsesWindowCounter(t *testing.T) {
	clk := newClock()
	// Update falharia: o caminho usado tem que ser Hit
	store := &counterStore{failingStore: failingStore{err: errors.New("unused")}, mapStore: newMapStore()}
	svc := FixedWindow{Store: store, MaxRequests: 2, Window: time.Minute, Now: clk.Now}

	for i := 0; i < 2; i++ {
		dec, err := svc.Decide(context.Background(), "k")
		require.NoError(t, err)
		assert.True(t, dec.Allowed)
	}
	dec, err := svc.Decide(context.Background(), "k")
	require.NoError(t, err)
	assert.False(t, dec.Allowed)
	assert.Equal(t, 60, dec.RetryAfterSeconds())
	assert.Equal(t, 3, store.hits)
}

func TestFixedWindow_ConcurrentAdmissionsNeverExceedLimit(t *testing.T) {
	svc := FixedWindow{Store: newMapStore(), MaxRequests: 5, Window: time.Minute}

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		allowed int
	)
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			dec, err := svc.Decide(context.Background(), "k")
			if err != nil || !dec.Allowed {
				return
			}
			mu.Lock()
			allowed++
			mu.Unlock()
		}()
	}
	wg.Wait()
	assert.Equal(t, 5, allowed)
}
