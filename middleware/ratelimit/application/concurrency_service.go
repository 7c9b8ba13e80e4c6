package application

import (
	"context"
	"errors"
	"time"

	"whois-gateway/middleware/ratelimit/domain"
)

// ErrNoSlot indica que nenhuma vaga de consulta abriu dentro de MaxWait.
var ErrNoSlot = errors.New("ratelimit: no lookup slot available")

// LookupSlots limita quantas consultas (cada uma dispara WHOIS e RDAP em
// paralelo) rodam ao mesmo tempo no gateway.
type LookupSlots struct {
	Pool domain.SlotPool
	// MaxWait é a espera máxima por vaga; 0 espera enquanto a request
	// estiver viva.
	MaxWait time.Duration
}

// Reserve ocupa uma vaga. Devolve ErrNoSlot quando MaxWait estoura e o erro
// do ctx quando o cliente desistiu antes; nos dois casos nada foi ocupado.
func (s LookupSlots) Reserve(ctx context.Context) (release func(), err error) {
	if s.Pool == nil {
		return func() {}, nil
	}

	waitCtx := ctx
	if s.MaxWait > 0 {
		var cancel context.CancelFunc
		waitCtx, cancel = context.WithTimeout(ctx, s.MaxWait)
		defer cancel()
	}

	release, ok := s.Pool.Acquire(waitCtx)
	if ok {
		return release, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return nil, ErrNoSlot
}
