package infra

import (
	"context"

	"whois-gateway/middleware/ratelimit/domain"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// PrometheusStatsStore expõe as decisões como contador. A chave do cliente
// não vira label: a cardinalidade seria ilimitada.
type PrometheusStatsStore struct {
	decisions *prometheus.CounterVec
}

func NewPrometheusStatsStore(reg prometheus.Registerer) *PrometheusStatsStore {
	return &PrometheusStatsStore{
		decisions: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "whois_gateway_ratelimit_decisions_total",
			Help: "Rate limit decisions by result and route.",
		}, []string{"result", "route"}),
	}
}

func (s *PrometheusStatsStore) Record(_ context.Context, ev domain.StatsEvent) error {
	s.decisions.WithLabelValues(ev.Result(), ev.Route()).Inc()
	return nil
}
