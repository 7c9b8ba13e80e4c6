package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"whois-gateway/internal/api"
	"whois-gateway/internal/lookup"
	"whois-gateway/internal/metrics"
	"whois-gateway/internal/rdap"
	"whois-gateway/internal/whois"
	"whois-gateway/middleware/ratelimit"
	"whois-gateway/middleware/ratelimit/domain"
	"whois-gateway/middleware/ratelimit/infra"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
)

func run(c *cli.Context) error {
	cfg, err := readConfig(c)
	if err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	log := logrus.WithField("component", "gateway")

	ctx, cancel := signal.NotifyContext(c.Context, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	var rdb *redis.Client
	if cfg.needsRedis() {
		rdb = redis.NewClient(&redis.Options{
			Addr:     cfg.redisAddr,
			Password: cfg.redisPassword,
			DB:       cfg.redisDB,
		})
		defer func() { _ = rdb.Close() }()

		pingCtx, pingCancel := context.WithTimeout(ctx, 2*time.Second)
		_, err := rdb.Ping(pingCtx).Result()
		pingCancel()
		if err != nil {
			return fmt.Errorf("redis ping error: %w", err)
		}
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	orch := lookup.New(
		whois.NewClient(cfg.providerTimeout, whois.WithServer(cfg.whoisServer)),
		rdap.NewClient(
			rdap.WithBaseURLs(cfg.rdapComURL, cfg.rdapDefaultURL),
			rdap.WithRateLimit(cfg.rdapRPS, cfg.rdapBurst),
		),
		lookup.WithTimeout(cfg.providerTimeout),
		lookup.WithLogger(logrus.WithField("component", "lookup")),
		lookup.WithMetrics(metrics.New(reg)),
	)

	var (
		guards   []api.Middleware
		memStats *infra.MemoryStatsStore
	)
	if cfg.rateEnabled {
		var stats domain.StatsStore
		stats, memStats = statsStore(cfg, rdb, reg)
		guards = append(guards, ratelimit.Middleware(ratelimit.Options{
			Store:               bucketStore(cfg, rdb),
			MaxRequests:         cfg.rateMaxRequests,
			Window:              cfg.rateWindow,
			Stats:               stats,
			KeyHeader:           cfg.rateKeyHeader,
			IgnoreProxyHeaders:  cfg.ignoreProxyHeaders,
			RejectStatus:        http.StatusTooManyRequests,
			AddRateLimitHeaders: cfg.addHeaders,
			Logger:              logrus.WithField("component", "ratelimit"),
		}))
	}

	var pool *infra.ChanPool
	if cfg.concurrencyMax > 0 {
		pool = infra.NewChanPool(cfg.concurrencyMax)
		guards = append(guards, ratelimit.ConcurrencyMiddleware(ratelimit.ConcurrencyOptions{
			RejectStatus:   http.StatusServiceUnavailable,
			AcquireTimeout: cfg.concurrencyTimeout,
			Pool:           pool,
		}))
	}

	handler := api.NewHandler(api.Config{
		Lookup:   orch,
		Logger:   logrus.WithField("component", "http"),
		Guards:   guards,
		Gatherer: reg,
		Health:   health(pool, memStats),
	})

	srv := &http.Server{
		Addr:              cfg.listenAddr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		// precisa cobrir os dois provedores com folga
		WriteTimeout: cfg.providerTimeout + 15*time.Second,
		IdleTimeout:  90 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	log.WithFields(logrus.Fields{
		"addr":            cfg.listenAddr,
		"providerTimeout": cfg.providerTimeout.String(),
		"whoisServer":     cfg.whoisServer,
		"rdapCom":         cfg.rdapComURL,
		"rdapDefault":     cfg.rdapDefaultURL,
	}).Info("gateway listening")
	log.WithFields(logrus.Fields{
		"enabled":   cfg.rateEnabled,
		"max":       cfg.rateMaxRequests,
		"window":    cfg.rateWindow.String(),
		"store":     cfg.rateStore,
		"keyHeader": cfg.rateKeyHeader,
	}).Info("rate limit")
	log.WithFields(logrus.Fields{
		"enabled":   cfg.rateStatsEnabled,
		"backend":   cfg.rateStatsBackend,
		"bucket":    cfg.rateStatsBucket,
		"ttl":       cfg.rateStatsTTL.String(),
		"trackKeys": cfg.rateStatsTrackKeys,
	}).Info("rate stats")
	log.WithFields(logrus.Fields{
		"max":            cfg.concurrencyMax,
		"acquireTimeout": cfg.concurrencyTimeout.String(),
	}).Info("concurrency")

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server error: %w", err)
	}
	log.Info("gateway stopped")
	return nil
}

func bucketStore(cfg config, rdb *redis.Client) domain.BucketStore {
	if cfg.rateStore == "redis" {
		return infra.NewRedisBucketStore(rdb,
			infra.WithBucketPrefix(cfg.rateRedisPrefix),
			// a chave some depois que a janela não pode mais ser usada
			infra.WithBucketTTL(2*cfg.rateWindow),
		)
	}
	return infra.NewMemoryBucketStore()
}

// statsStore devolve também o store em memória, quando é ele o escolhido,
// para /healthz mostrar os contadores.
func statsStore(cfg config, rdb *redis.Client, reg prometheus.Registerer) (domain.StatsStore, *infra.MemoryStatsStore) {
	if !cfg.rateStatsEnabled {
		return nil, nil
	}
	switch cfg.rateStatsBackend {
	case "redis":
		return infra.NewRedisStatsStore(rdb,
			infra.WithStatsPrefix(cfg.rateStatsPrefix),
			infra.WithStatsTTL(cfg.rateStatsTTL),
			infra.WithStatsBucket(cfg.rateStatsBucket),
			infra.WithStatsTrackKeys(cfg.rateStatsTrackKeys),
		), nil
	case "memory":
		mem := infra.NewMemoryStatsStore(infra.WithTrackKeys(cfg.rateStatsTrackKeys))
		return mem, mem
	default:
		return infra.NewPrometheusStatsStore(reg), nil
	}
}

func health(pool *infra.ChanPool, stats *infra.MemoryStatsStore) func() map[string]interface{} {
	return func() map[string]interface{} {
		out := map[string]interface{}{}
		if pool != nil {
			out["lookupsInFlight"] = pool.InUse()
			out["lookupSlots"] = pool.Cap()
		}
		if stats != nil {
			out["rateLimit"] = stats.Snapshot()
		}
		return out
	}
}
