// Package api expõe as consultas WHOIS/RDAP por HTTP.
package api

import (
	"context"
	"net/http"

	"whois-gateway/internal/lookup"
	"whois-gateway/internal/rdap"
	"whois-gateway/internal/record"

	ghandlers "github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
)

// Looker é o que os handlers precisam do orquestrador.
type Looker interface {
	Lookup(ctx context.Context, domain string) (*lookup.Result, error)
	Whois(ctx context.Context, domain string) (*record.Domain, error)
	RDAP(ctx context.Context, domain string) (*rdap.Record, error)
}

type Middleware func(http.Handler) http.Handler

type Config struct {
	Lookup Looker
	Logger *logrus.Entry
	// Guards envolvem apenas as rotas de consulta (rate limit,
	// concorrência), na ordem dada: o primeiro é o mais externo.
	Guards []Middleware
	// Gatherer alimenta /metrics; nil desliga a rota.
	Gatherer prometheus.Gatherer
	// Health complementa /healthz com dados do processo.
	Health func() map[string]interface{}
}

// NewHandler monta o roteador completo.
func NewHandler(cfg Config) http.Handler {
	if cfg.Logger == nil {
		cfg.Logger = logrus.NewEntry(logrus.StandardLogger())
	}
	h := &handler{lookup: cfg.Lookup, log: cfg.Logger, health: cfg.Health}

	router := mux.NewRouter().StrictSlash(true)
	router.Use(requestIDMiddleware, loggingMiddleware(cfg.Logger))

	router.Path("/healthz").Methods(http.MethodGet).HandlerFunc(h.healthz)
	if cfg.Gatherer != nil {
		router.Path("/metrics").Methods(http.MethodGet).Handler(promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{}))
	}

	api := router.PathPrefix("/api").Subrouter()
	for _, g := range cfg.Guards {
		api.Use(mux.MiddlewareFunc(g))
	}
	api.Path("/whois").Methods(http.MethodPost).HandlerFunc(h.whois)
	api.Path("/rdap").Methods(http.MethodPost).HandlerFunc(h.rdap)
	api.Path("/lookup").Methods(http.MethodPost).HandlerFunc(h.lookupAll)

	// router.Use não cobre 404/405, que o mux atende fora das rotas
	withLog := func(f http.HandlerFunc) http.Handler {
		return requestIDMiddleware(loggingMiddleware(cfg.Logger)(f))
	}
	router.NotFoundHandler = withLog(h.notFound)
	router.MethodNotAllowedHandler = withLog(h.methodNotAllowed)

	recovery := ghandlers.RecoveryHandler(
		ghandlers.RecoveryLogger(cfg.Logger),
		ghandlers.PrintRecoveryStack(false),
	)
	return ghandlers.CORS(
		ghandlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodOptions}),
		ghandlers.AllowedHeaders([]string{"Content-Type", "X-Api-Key", requestIDHeader}),
		ghandlers.ExposedHeaders([]string{"Retry-After", requestIDHeader}),
	)(recovery(router))
}
