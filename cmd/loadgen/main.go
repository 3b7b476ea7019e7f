package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"streaming-dispatch/dispatch"
	"streaming-dispatch/dispatch/domain"
	"streaming-dispatch/dispatch/infra"
)

func main() {
	cfg, err := readConfig()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	target, err := url.Parse(cfg.upstreamURL)
	if err != nil {
		log.Fatalf("invalid UPSTREAM_URL: %v", err)
	}
	endpoint := dispatch.EndpointForURL(target)
	if endpoint == "" {
		log.Fatalf("UPSTREAM_URL has no host: %q", cfg.upstreamURL)
	}

	var statsStore domain.StatsStore
	var memStats *infra.MemoryStatsStore
	if cfg.statsEnabled {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.statsRedisAddr,
			Password: cfg.statsRedisPassword,
			DB:       cfg.statsRedisDB,
		})
		defer func() { _ = rdb.Close() }()

		pingCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		_, err := rdb.Ping(pingCtx).Result()
		cancel()
		if err != nil {
			log.Fatalf("redis stats ping error: %v", err)
		}

		statsStore = infra.NewRedisStatsStore(
			rdb,
			infra.WithStatsPrefix(cfg.statsPrefix),
			infra.WithStatsTTL(cfg.statsTTL),
			infra.WithStatsBucket(cfg.statsBucket),
			infra.WithStatsTrackEndpoints(cfg.statsTrackEndpoints),
		)
	} else {
		memStats = infra.NewMemoryStatsStore(infra.WithTrackEndpoints(cfg.statsTrackEndpoints))
		statsStore = memStats
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	d := dispatch.InitShared(dispatch.Options{
		Limits:         infra.NewStaticLimits(cfg.maxSessions),
		Stats:          statsStore,
		AcquireTimeout: cfg.acquireTimeout,
		IdleTTL:        cfg.idleTTL,
		ReapAfter:      cfg.reapAfter,
	})
	defer dispatch.DisposeShared()

	var gate *infra.RateGate
	if cfg.rateRPS > 0 {
		gate = infra.NewRateGate(cfg.rateRPS, cfg.rateBurst)
		gate.StartJanitor(ctx)
	}

	log.Printf("loadgen firing at %s (endpoint %s)", target, endpoint)
	log.Printf("pool: maxSessions=%d acquireTimeout=%s idleTTL=%s reapAfter=%s", cfg.maxSessions, cfg.acquireTimeout, cfg.idleTTL, cfg.reapAfter)
	log.Printf("load: clients=%d requestsPerClient=%d longEvery=%d rateRPS=%.3f rateBurst=%d", cfg.clients, cfg.requestsPerClient, cfg.longEvery, cfg.rateRPS, cfg.rateBurst)
	log.Printf("stats: redis=%v redisAddr=%q bucket=%q ttl=%s trackEndpoints=%v", cfg.statsEnabled, cfg.statsRedisAddr, cfg.statsBucket, cfg.statsTTL, cfg.statsTrackEndpoints)

	var okCount, failCount, longOK, longRejected atomic.Int64
	start := time.Now()

	g, ctx := errgroup.WithContext(ctx)
	for i := 0; i < cfg.clients; i++ {
		g.Go(func() error {
			for j := 0; j < cfg.requestsPerClient; j++ {
				if ctx.Err() != nil {
					return nil
				}
				if gate != nil {
					if err := gate.Wait(ctx, endpoint); err != nil {
						return nil
					}
				}

				long := cfg.longEvery > 0 && j%cfg.longEvery == 0
				if long && runLong(ctx, d, cfg.upstreamURL, &longOK, &longRejected, &failCount) {
					continue
				}

				req, err := http.NewRequestWithContext(ctx, http.MethodGet, cfg.upstreamURL, nil)
				if err != nil {
					failCount.Add(1)
					continue
				}
				if _, _, err := d.SyncRequest(ctx, req); err != nil {
					if !errors.Is(err, context.Canceled) {
						failCount.Add(1)
					}
					continue
				}
				okCount.Add(1)
			}
			return nil
		})
	}
	_ = g.Wait()

	elapsed := time.Since(start)
	log.Printf("done in %s: ok=%d fail=%d longOK=%d longRejected=%d", elapsed.Round(time.Millisecond), okCount.Load(), failCount.Load(), longOK.Load(), longRejected.Load())

	if memStats != nil {
		total := memStats.Total()
		log.Printf("stats total: admitted=%d rejected=%d", total.Admitted, total.Rejected)
		for kind, c := range memStats.ByKind() {
			log.Printf("stats %s: admitted=%d rejected=%d", kind, c.Admitted, c.Rejected)
		}
	}
}

// runLong tenta a variante long poll. Retorna false quando a admissão
// recusou e o chamador deve rebaixar para a requisição síncrona comum,
// que é o fallback do cliente real.
func runLong(ctx context.Context, d *dispatch.Dispatcher, rawURL string, longOK, longRejected, failCount *atomic.Int64) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		failCount.Add(1)
		return true
	}

	op, err := d.LongPollRequest(req, nil)
	if err != nil {
		if domain.IsAdmissionRejected(err) {
			longRejected.Add(1)
			return false
		}
		if !errors.Is(err, context.Canceled) {
			failCount.Add(1)
		}
		return true
	}

	if err := op.Start(ctx); err != nil {
		if !errors.Is(err, context.Canceled) {
			failCount.Add(1)
		}
		return true
	}
	if err := op.Wait(ctx); err != nil {
		if !errors.Is(err, context.Canceled) {
			failCount.Add(1)
		}
		return true
	}
	longOK.Add(1)
	return true
}

type config struct {
	upstreamURL    string
	maxSessions    int
	acquireTimeout time.Duration
	idleTTL        time.Duration
	reapAfter      time.Duration

	clients           int
	requestsPerClient int
	longEvery         int
	rateRPS           float64
	rateBurst         int

	statsEnabled        bool
	statsRedisAddr      string
	statsRedisPassword  string
	statsRedisDB        int
	statsPrefix         string
	statsTTL            time.Duration
	statsBucket         string
	statsTrackEndpoints bool
}

func readConfig() (config, error) {
	cfg := config{}
	cfg.upstreamURL = os.Getenv("UPSTREAM_URL")
	cfg.maxSessions = getenvIntDefault("MAX_SESSIONS_PER_SERVER", 0)
	cfg.acquireTimeout = getenvDurationDefault("ACQUIRE_TIMEOUT", 0)
	cfg.idleTTL = getenvDurationDefault("IDLE_TTL", 0)
	cfg.reapAfter = getenvDurationDefault("REAP_AFTER", 0)

	cfg.clients = getenvIntDefault("CLIENTS", 8)
	cfg.requestsPerClient = getenvIntDefault("REQUESTS_PER_CLIENT", 50)
	cfg.longEvery = getenvIntDefault("LONG_EVERY", 0)
	cfg.rateRPS = getenvFloatDefault("RATE_RPS", 0)
	// IMPORTANTE: o "burst" permite uma rajada inicial de requisições.
	// Com RPS muito baixo (ex: 0.02), o padrão 20 pode dar a impressão de que
	// o gate não está funcionando, porque as primeiras ~20 passam.
	if burst, ok := getenvInt("RATE_BURST"); ok {
		cfg.rateBurst = burst
	} else {
		cfg.rateBurst = 20
		if getenvIsSet("RATE_RPS") && cfg.rateRPS > 0 && cfg.rateRPS < 1 {
			cfg.rateBurst = 1
		}
	}

	cfg.statsEnabled = getenvBoolDefault("STATS_ENABLED", false)
	cfg.statsRedisAddr = getenvDefault("STATS_REDIS_ADDR", "")
	cfg.statsRedisPassword = os.Getenv("STATS_REDIS_PASSWORD")
	cfg.statsRedisDB = getenvIntDefault("STATS_REDIS_DB", 0)
	cfg.statsPrefix = getenvDefault("STATS_PREFIX", "dispatch:stats")
	cfg.statsTTL = getenvDurationDefault("STATS_TTL", 24*time.Hour)
	cfg.statsBucket = getenvDefault("STATS_BUCKET", "minute")
	cfg.statsTrackEndpoints = getenvBoolDefault("STATS_TRACK_ENDPOINTS", false)

	if cfg.statsEnabled && strings.TrimSpace(cfg.statsRedisAddr) == "" {
		return config{}, errors.New("STATS_REDIS_ADDR is required when STATS_ENABLED=true")
	}

	if cfg.upstreamURL == "" {
		return config{}, errors.New("UPSTREAM_URL is required")
	}
	if cfg.maxSessions < 0 {
		return config{}, errors.New("MAX_SESSIONS_PER_SERVER must be >= 0")
	}
	if cfg.clients <= 0 {
		return config{}, errors.New("CLIENTS must be > 0")
	}
	if cfg.requestsPerClient <= 0 {
		return config{}, errors.New("REQUESTS_PER_CLIENT must be > 0")
	}
	if cfg.rateRPS < 0 {
		return config{}, errors.New("RATE_RPS must be >= 0")
	}
	if cfg.rateRPS > 0 && cfg.rateBurst <= 0 {
		return config{}, errors.New("RATE_BURST must be > 0")
	}
	return cfg, nil
}

func getenvDefault(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func getenvIntDefault(k string, def int) int {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return i
}

func getenvInt(k string) (int, bool) {
	v, ok := os.LookupEnv(k)
	if !ok || v == "" {
		return 0, false
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return 0, false
	}
	return i, true
}

func getenvIsSet(k string) bool {
	v, ok := os.LookupEnv(k)
	return ok && v != ""
}

func getenvFloatDefault(k string, def float64) float64 {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return def
	}
	return f
}

func getenvBoolDefault(k string, def bool) bool {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

func getenvDurationDefault(k string, def time.Duration) time.Duration {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}
