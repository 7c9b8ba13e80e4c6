package ratelimit

import (
	"errors"
	"net/http"
	"time"

	"whois-gateway/middleware/ratelimit/application"
	"whois-gateway/middleware/ratelimit/domain"
	"whois-gateway/middleware/ratelimit/infra"
)

type ConcurrencyOptions struct {
	Max            int
	RejectStatus   int
	AcquireTimeout time.Duration
	// Pool substitui o semáforo padrão (NewChanPool(Max)).
	Pool domain.SlotPool
}

const busyMessage = "Too many lookups in progress. Please try again shortly."

// ConcurrencyMiddleware limita quantas requests chegam aos provedores ao
// mesmo tempo. Max <= 0 e sem Pool desliga o limite.
func ConcurrencyMiddleware(opts ConcurrencyOptions) func(next http.Handler) http.Handler {
	if opts.Pool == nil {
		if opts.Max <= 0 {
			return func(next http.Handler) http.Handler { return next }
		}
		opts.Pool = infra.NewChanPool(opts.Max)
	}
	if opts.RejectStatus == 0 {
		opts.RejectStatus = http.StatusServiceUnavailable
	}

	slots := application.LookupSlots{
		Pool:    opts.Pool,
		MaxWait: opts.AcquireTimeout,
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			release, err := slots.Reserve(r.Context())
			if errors.Is(err, application.ErrNoSlot) {
				w.Header().Set("Retry-After", "1")
				writeJSONError(w, opts.RejectStatus, busyMessage)
				return
			}
			if err != nil {
				// cliente desistiu enquanto esperava; não há a quem responder
				return
			}
			defer release()

			next.ServeHTTP(w, r)
		})
	}
}
