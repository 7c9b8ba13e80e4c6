// Package metrics reúne os coletores Prometheus das consultas.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "whois_gateway"

// Metrics é seguro para uso concorrente. Um *Metrics nil ignora tudo.
type Metrics struct {
	lookups  *prometheus.CounterVec
	duration *prometheus.HistogramVec
	inFlight prometheus.Gauge
}

func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		lookups: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "lookups_total",
			Help:      "Provider lookups by source and outcome.",
		}, []string{"source", "outcome"}),
		duration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "provider_duration_seconds",
			Help:      "Provider lookup latency.",
			Buckets:   []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 15, 30},
		}, []string{"source"}),
		inFlight: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "lookups_in_flight",
			Help:      "Lookups currently running.",
		}),
	}
}

// ObserveProvider registra uma chamada a um provedor. outcome é "ok" ou o
// tipo de erro.
func (m *Metrics) ObserveProvider(source, outcome string, took time.Duration) {
	if m == nil {
		return
	}
	m.lookups.WithLabelValues(source, outcome).Inc()
	m.duration.WithLabelValues(source).Observe(took.Seconds())
}

// Track marca uma consulta em andamento; chame a função devolvida ao final.
func (m *Metrics) Track() func() {
	if m == nil {
		return func() {}
	}
	m.inFlight.Inc()
	return m.inFlight.Dec
}
