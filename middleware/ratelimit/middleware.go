package ratelimit

import (
	"net/http"
	"time"

	"whois-gateway/middleware/ratelimit/application"
	"whois-gateway/middleware/ratelimit/domain"

	"github.com/sirupsen/logrus"
)

type Options struct {
	Store       domain.BucketStore
	MaxRequests int
	Window      time.Duration

	Stats domain.StatsStore
	KeyFn KeyFunc
	// KeyHeader e IgnoreProxyHeaders montam o KeyFn padrão (ClientKeyFunc).
	KeyHeader          string
	IgnoreProxyHeaders bool

	RejectStatus        int
	AddRateLimitHeaders bool

	Logger logrus.FieldLogger
	// Now permite relógio fixo nos testes.
	Now func() time.Time
}

func Middleware(opts Options) func(next http.Handler) http.Handler {
	if opts.RejectStatus == 0 {
		opts.RejectStatus = http.StatusTooManyRequests
	}
	if opts.KeyFn == nil {
		opts.KeyFn = ClientKeyFunc(opts.KeyHeader, opts.IgnoreProxyHeaders)
	}
	if opts.Logger == nil {
		opts.Logger = logrus.StandardLogger()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	log := opts.Logger.WithField("component", "ratelimit")

	svc := application.FixedWindow{
		Store:       opts.Store,
		MaxRequests: opts.MaxRequests,
		Window:      opts.Window,
		Now:         opts.Now,
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := opts.KeyFn(r)

			dec, err := svc.Decide(r.Context(), domain.Key(key))
			if err != nil {
				// store fora do ar: a request segue sem limite
				log.WithError(err).WithField("key", key).Warn("rate limit store unavailable, allowing request")
				next.ServeHTTP(w, r)
				return
			}

			if opts.Stats != nil {
				ev := domain.StatsEvent{
					Key:     domain.Key(key),
					Allowed: dec.Allowed,
					Method:  r.Method,
					Path:    r.URL.Path,
					At:      opts.Now(),
				}
				if err := opts.Stats.Record(r.Context(), ev); err != nil {
					log.WithError(err).Debug("rate limit stats not recorded")
				}
			}

			if opts.AddRateLimitHeaders {
				setRateLimitHeaders(w.Header(), key, dec)
			}

			if !dec.Allowed {
				secs := dec.RetryAfterSeconds()
				w.Header().Set("Retry-After", formatInt(secs))
				log.WithFields(logrus.Fields{"key": key, "retry_after": secs}).Info("rate limit exceeded")
				writeJSONError(w, opts.RejectStatus, rejectMessage(secs))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func setRateLimitHeaders(h http.Header, key string, dec domain.Decision) {
	h.Set("X-RateLimit-Key", key)
	h.Set("X-RateLimit-Limit", formatInt(dec.Limit))
	h.Set("X-RateLimit-Remaining", formatInt(dec.Remaining))
	if !dec.ResetAt.IsZero() {
		h.Set("X-RateLimit-Reset", formatInt64(dec.ResetAt.Unix()))
	}
}
