package infra

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"whois-gateway/middleware/ratelimit/domain"

	"github.com/redis/go-redis/v9"
)

// ErrBucketContention é devolvido por Update quando a transação otimista
// esgota as tentativas.
var ErrBucketContention = domain.ErrContention

// hitScript aplica a janela fixa dentro do Redis, sem WATCH nem retry.
// KEYS[1] = bucket; ARGV = now (ms), janela (ms), ttl (ms).
var hitScript = redis.NewScript(`
local count = redis.call('HGET', KEYS[1], 'count')
local start = redis.call('HGET', KEYS[1], 'start')
local now = tonumber(ARGV[1])
if (not count) or (not start) or (now - tonumber(start) > tonumber(ARGV[2])) then
  count = 1
  start = now
else
  count = tonumber(count) + 1
  start = tonumber(start)
end
redis.call('HSET', KEYS[1], 'count', count, 'start', start)
local ttl = tonumber(ARGV[3])
if ttl > 0 then
  redis.call('PEXPIRE', KEYS[1], ttl)
end
return {count, start}
`)

// RedisBucketStore compartilha as janelas entre várias instâncias do
// gateway. Cada chave é um hash {count, start}. Hit roda a janela num
// script Lua; Update (leitura-modificação-escrita genérica) usa WATCH/MULTI.
//
// Diferente do store em memória, as chaves expiram (ttl), para o Redis não
// acumular clientes que nunca voltam.
type RedisBucketStore struct {
	rdb redis.UniversalClient

	prefix     string
	ttl        time.Duration
	maxRetries int
}

type RedisBucketOption func(*RedisBucketStore)

func WithBucketPrefix(prefix string) RedisBucketOption {
	return func(s *RedisBucketStore) {
		s.prefix = strings.Trim(prefix, ":")
	}
}

// WithBucketTTL deve ser maior que a janela; 0 desliga a expiração.
func WithBucketTTL(d time.Duration) RedisBucketOption {
	return func(s *RedisBucketStore) { s.ttl = d }
}

func WithBucketMaxRetries(n int) RedisBucketOption {
	return func(s *RedisBucketStore) {
		if n > 0 {
			s.maxRetries = n
		}
	}
}

func NewRedisBucketStore(rdb redis.UniversalClient, opts ...RedisBucketOption) *RedisBucketStore {
	s := &RedisBucketStore{
		rdb:        rdb,
		prefix:     "ratelimit:bucket",
		ttl:        2 * time.Minute,
		maxRetries: 10,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *RedisBucketStore) key(k domain.Key) string {
	return s.prefix + ":" + string(k)
}

// Update implementa domain.BucketStore. Em conflito (outra instância gravou
// a mesma chave) a leitura é refeita e fn chamada de novo.
func (s *RedisBucketStore) Update(ctx context.Context, key domain.Key, fn func(domain.Bucket, bool) domain.Bucket) error {
	rk := s.key(key)

	txf := func(tx *redis.Tx) error {
		vals, err := tx.HMGet(ctx, rk, "count", "start").Result()
		if err != nil {
			return err
		}
		b, found := parseBucket(vals)
		next := fn(b, found)

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.HSet(ctx, rk, "count", next.Count, "start", next.WindowStart.UnixMilli())
			if s.ttl > 0 {
				pipe.PExpire(ctx, rk, s.ttl)
			}
			return nil
		})
		return err
	}

	for i := 0; i < s.maxRetries; i++ {
		err := s.rdb.Watch(ctx, txf, rk)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		if err != nil {
			return fmt.Errorf("ratelimit bucket %q: %w", key, err)
		}
		return nil
	}
	return ErrBucketContention
}

// Hit implementa domain.WindowCounter. O TTL nunca fica menor que a janela.
func (s *RedisBucketStore) Hit(ctx context.Context, key domain.Key, now time.Time, window time.Duration) (domain.Bucket, error) {
	ttl := s.ttl
	if ttl > 0 && ttl < window {
		ttl = window
	}
	res, err := hitScript.Run(ctx, s.rdb, []string{s.key(key)},
		now.UnixMilli(), window.Milliseconds(), ttl.Milliseconds()).Int64Slice()
	if err != nil {
		return domain.Bucket{}, fmt.Errorf("ratelimit bucket %q: %w", key, err)
	}
	if len(res) != 2 {
		return domain.Bucket{}, fmt.Errorf("ratelimit bucket %q: unexpected script reply %v", key, res)
	}
	return domain.Bucket{Count: int(res[0]), WindowStart: time.UnixMilli(res[1])}, nil
}

// Get lê o bucket sem alterá-lo.
func (s *RedisBucketStore) Get(ctx context.Context, key domain.Key) (domain.Bucket, bool, error) {
	vals, err := s.rdb.HMGet(ctx, s.key(key), "count", "start").Result()
	if err != nil {
		return domain.Bucket{}, false, err
	}
	b, ok := parseBucket(vals)
	return b, ok, nil
}

func parseBucket(vals []interface{}) (domain.Bucket, bool) {
	if len(vals) != 2 || vals[0] == nil || vals[1] == nil {
		return domain.Bucket{}, false
	}
	countStr, _ := vals[0].(string)
	startStr, _ := vals[1].(string)
	count, err := strconv.Atoi(countStr)
	if err != nil {
		return domain.Bucket{}, false
	}
	startMs, err := strconv.ParseInt(startStr, 10, 64)
	if err != nil {
		return domain.Bucket{}, false
	}
	return domain.Bucket{Count: count, WindowStart: time.UnixMilli(startMs)}, true
}
