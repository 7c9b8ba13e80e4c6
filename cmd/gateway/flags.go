package main

import (
	"errors"
	"strings"
	"time"

	"whois-gateway/internal/lookup"
	"whois-gateway/internal/rdap"
	"whois-gateway/middleware/ratelimit/application"

	"github.com/urfave/cli/v2"
)

func flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "listen-addr", EnvVars: []string{"LISTEN_ADDR"}, Value: ":8080", Usage: "HTTP listen address"},
		&cli.StringFlag{Name: "log-level", EnvVars: []string{"LOGLEVEL", "LOG_LEVEL"}, Value: "info", Usage: "trace, debug, info, warn or error"},

		&cli.BoolFlag{Name: "rate-enabled", EnvVars: []string{"RATE_ENABLED"}, Value: true, Usage: "enable per-client rate limiting"},
		&cli.IntFlag{Name: "rate-max-requests", EnvVars: []string{"RATE_MAX_REQUESTS"}, Value: application.DefaultMaxRequests, Usage: "requests allowed per client per window"},
		&cli.DurationFlag{Name: "rate-window", EnvVars: []string{"RATE_WINDOW"}, Value: application.DefaultWindow, Usage: "fixed window length"},
		&cli.StringFlag{Name: "rate-key-header", EnvVars: []string{"RATE_KEY_HEADER"}, Usage: "header identifying the client (e.g. X-Api-Key); falls back to IP"},
		&cli.BoolFlag{Name: "ignore-proxy-headers", EnvVars: []string{"IGNORE_PROXY_HEADERS"}, Usage: "key clients by RemoteAddr instead of X-Forwarded-For / X-Real-IP"},
		&cli.BoolFlag{Name: "add-ratelimit-headers", EnvVars: []string{"ADD_RATELIMIT_HEADERS"}, Usage: "send X-RateLimit-* headers"},
		&cli.StringFlag{Name: "rate-store", EnvVars: []string{"RATE_STORE"}, Value: "memory", Usage: "bucket store: memory or redis"},
		&cli.StringFlag{Name: "rate-redis-prefix", EnvVars: []string{"RATE_REDIS_PREFIX"}, Value: "ratelimit:bucket", Usage: "redis key prefix for buckets"},

		&cli.StringFlag{Name: "redis-addr", EnvVars: []string{"RATE_REDIS_ADDR", "RATE_STATS_REDIS_ADDR"}, Usage: "redis address (required by redis store/stats)"},
		&cli.StringFlag{Name: "redis-password", EnvVars: []string{"RATE_REDIS_PASSWORD", "RATE_STATS_REDIS_PASSWORD"}, Usage: "redis password"},
		&cli.IntFlag{Name: "redis-db", EnvVars: []string{"RATE_REDIS_DB", "RATE_STATS_REDIS_DB"}, Usage: "redis database"},

		&cli.BoolFlag{Name: "rate-stats-enabled", EnvVars: []string{"RATE_STATS_ENABLED"}, Usage: "record rate limit decisions"},
		&cli.StringFlag{Name: "rate-stats-backend", EnvVars: []string{"RATE_STATS_BACKEND"}, Value: "prometheus", Usage: "memory, redis or prometheus"},
		&cli.StringFlag{Name: "rate-stats-prefix", EnvVars: []string{"RATE_STATS_PREFIX"}, Value: "ratelimit:stats"},
		&cli.DurationFlag{Name: "rate-stats-ttl", EnvVars: []string{"RATE_STATS_TTL"}, Value: 24 * time.Hour},
		&cli.StringFlag{Name: "rate-stats-bucket", EnvVars: []string{"RATE_STATS_BUCKET"}, Value: "minute", Usage: "minute or none"},
		&cli.BoolFlag{Name: "rate-stats-track-keys", EnvVars: []string{"RATE_STATS_TRACK_KEYS"}},

		&cli.IntFlag{Name: "concurrency-max", EnvVars: []string{"CONCURRENCY_MAX"}, Value: 100, Usage: "lookups in flight; 0 disables"},
		&cli.DurationFlag{Name: "concurrency-timeout", EnvVars: []string{"CONCURRENCY_TIMEOUT"}, Usage: "max wait for a lookup slot; 0 waits for the request context"},

		&cli.DurationFlag{Name: "provider-timeout", EnvVars: []string{"PROVIDER_TIMEOUT"}, Value: lookup.DefaultTimeout, Usage: "timeout per provider call"},
		&cli.StringFlag{Name: "whois-server", EnvVars: []string{"WHOIS_SERVER"}, Usage: "fixed WHOIS server; empty follows IANA referrals"},
		&cli.StringFlag{Name: "rdap-com-url", EnvVars: []string{"RDAP_COM_URL"}, Value: rdap.ComBaseURL},
		&cli.StringFlag{Name: "rdap-default-url", EnvVars: []string{"RDAP_DEFAULT_URL"}, Value: rdap.DefaultBaseURL},
		&cli.Float64Flag{Name: "rdap-rps", EnvVars: []string{"RDAP_RPS"}, Value: 10, Usage: "outbound RDAP requests per second; 0 disables"},
		&cli.IntFlag{Name: "rdap-burst", EnvVars: []string{"RDAP_BURST"}, Value: 20},
	}
}

type config struct {
	listenAddr string

	rateEnabled        bool
	rateMaxRequests    int
	rateWindow         time.Duration
	rateKeyHeader      string
	ignoreProxyHeaders bool
	addHeaders         bool
	rateStore          string
	rateRedisPrefix    string

	redisAddr     string
	redisPassword string
	redisDB       int

	rateStatsEnabled   bool
	rateStatsBackend   string
	rateStatsPrefix    string
	rateStatsTTL       time.Duration
	rateStatsBucket    string
	rateStatsTrackKeys bool

	concurrencyMax     int
	concurrencyTimeout time.Duration

	providerTimeout time.Duration
	whoisServer     string
	rdapComURL      string
	rdapDefaultURL  string
	rdapRPS         float64
	rdapBurst       int
}

func readConfig(c *cli.Context) (config, error) {
	cfg := config{
		listenAddr:         c.String("listen-addr"),
		rateEnabled:        c.Bool("rate-enabled"),
		rateMaxRequests:    c.Int("rate-max-requests"),
		rateWindow:         c.Duration("rate-window"),
		rateKeyHeader:      c.String("rate-key-header"),
		ignoreProxyHeaders: c.Bool("ignore-proxy-headers"),
		addHeaders:         c.Bool("add-ratelimit-headers"),
		rateStore:          strings.ToLower(strings.TrimSpace(c.String("rate-store"))),
		rateRedisPrefix:    c.String("rate-redis-prefix"),
		redisAddr:          strings.TrimSpace(c.String("redis-addr")),
		redisPassword:      c.String("redis-password"),
		redisDB:            c.Int("redis-db"),
		rateStatsEnabled:   c.Bool("rate-stats-enabled"),
		rateStatsBackend:   strings.ToLower(strings.TrimSpace(c.String("rate-stats-backend"))),
		rateStatsPrefix:    c.String("rate-stats-prefix"),
		rateStatsTTL:       c.Duration("rate-stats-ttl"),
		rateStatsBucket:    c.String("rate-stats-bucket"),
		rateStatsTrackKeys: c.Bool("rate-stats-track-keys"),
		concurrencyMax:     c.Int("concurrency-max"),
		concurrencyTimeout: c.Duration("concurrency-timeout"),
		providerTimeout:    c.Duration("provider-timeout"),
		whoisServer:        c.String("whois-server"),
		rdapComURL:         c.String("rdap-com-url"),
		rdapDefaultURL:     c.String("rdap-default-url"),
		rdapRPS:            c.Float64("rdap-rps"),
		rdapBurst:          c.Int("rdap-burst"),
	}
	return cfg, cfg.validate()
}

func (cfg config) needsRedis() bool {
	return (cfg.rateEnabled && cfg.rateStore == "redis") ||
		(cfg.rateStatsEnabled && cfg.rateStatsBackend == "redis")
}

func (cfg config) validate() error {
	if cfg.rateMaxRequests <= 0 {
		return errors.New("RATE_MAX_REQUESTS must be > 0")
	}
	if cfg.rateWindow <= 0 {
		return errors.New("RATE_WINDOW must be > 0")
	}
	switch cfg.rateStore {
	case "memory", "redis":
	default:
		return errors.New("RATE_STORE must be memory or redis")
	}
	switch cfg.rateStatsBackend {
	case "memory", "redis", "prometheus":
	default:
		return errors.New("RATE_STATS_BACKEND must be memory, redis or prometheus")
	}
	if cfg.needsRedis() && cfg.redisAddr == "" {
		return errors.New("RATE_REDIS_ADDR is required when the redis store or redis stats are enabled")
	}
	if cfg.concurrencyMax < 0 {
		return errors.New("CONCURRENCY_MAX must be >= 0")
	}
	if cfg.providerTimeout <= 0 {
		return errors.New("PROVIDER_TIMEOUT must be > 0")
	}
	return nil
}
