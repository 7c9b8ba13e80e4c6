package application

import (
	"context"
	"errors"
	"time"

	"whois-gateway/middleware/ratelimit/domain"
)

const (
	DefaultMaxRequests = 5
	DefaultWindow      = 60 * time.Second
)

// FixedWindow concentra a regra de janela fixa por cliente.
//
// Ele não sabe nada sobre HTTP (headers/status), apenas retorna uma decisão.
// O estado fica no Store; o zero value (sem Store) permite tudo.
type FixedWindow struct {
	Store       domain.BucketStore
	MaxRequests int
	Window      time.Duration
	// Now permite relógio fixo nos testes.
	Now func() time.Time
}

// Decide registra a tentativa de key e decide se ela passa.
//
//   - sem bucket, ou janela vencida (now - início > Window): abre janela nova
//     com contagem 1 e permite;
//   - senão incrementa; acima de MaxRequests nega, e a tentativa negada
//     continua contando.
func (s FixedWindow) Decide(ctx context.Context, key domain.Key) (domain.Decision, error) {
	if s.Store == nil {
		return domain.Decision{Allowed: true}, nil
	}
	limit := s.MaxRequests
	if limit <= 0 {
		limit = DefaultMaxRequests
	}
	window := s.Window
	if window <= 0 {
		window = DefaultWindow
	}
	now := time.Now()
	if s.Now != nil {
		now = s.Now()
	}

	current, err := s.hit(ctx, key, now, window)
	if errors.Is(err, domain.ErrContention) {
		// sem como saber a contagem real, nega em vez de arriscar a cota
		return domain.Decision{Allowed: false, Limit: limit, RetryAfter: time.Second}, nil
	}
	if err != nil {
		return domain.Decision{}, err
	}

	resetAt := current.WindowStart.Add(window)
	dec := domain.Decision{
		Allowed:   current.Count <= limit,
		Limit:     limit,
		Remaining: limit - current.Count,
		ResetAt:   resetAt,
	}
	if dec.Remaining < 0 {
		dec.Remaining = 0
	}
	if !dec.Allowed {
		dec.RetryAfter = resetAt.Sub(now)
	}
	return dec, nil
}

func (s FixedWindow) hit(ctx context.Context, key domain.Key, now time.Time, window time.Duration) (domain.Bucket, error) {
	if wc, ok := s.Store.(domain.WindowCounter); ok {
		return wc.Hit(ctx, key, now, window)
	}
	var current domain.Bucket
	err := s.Store.Update(ctx, key, func(b domain.Bucket, found bool) domain.Bucket {
		if !found || now.Sub(b.WindowStart) > window {
			current = domain.Bucket{Count: 1, WindowStart: now}
			return current
		}
		b.Count++
		current = b
		return current
	})
	return current, err
}
