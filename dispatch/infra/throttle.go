package infra

import (
	"context"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"golang.org/x/time/rate"

	"streaming-dispatch/dispatch/domain"
)

// RateGate limita a taxa de requisições por endpoint com token-bucket
// (x/time/rate), um limiter por endpoint com cache e limpeza periódica.
// Fica na frente do despacho: quem passa pelo gate ainda disputa worker.
type RateGate struct {
	mu           sync.Mutex
	entries      map[domain.Endpoint]*gateEntry
	rps          rate.Limit
	burst        int
	idleTTL      time.Duration
	cleanupEvery time.Duration
	clock        clockwork.Clock
}

type gateEntry struct {
	lim      *rate.Limiter
	lastSeen time.Time
}

type GateOption func(*RateGate)

func WithGateIdleTTL(d time.Duration) GateOption {
	return func(g *RateGate) { g.idleTTL = d }
}

func WithGateCleanupEvery(d time.Duration) GateOption {
	return func(g *RateGate) { g.cleanupEvery = d }
}

func WithGateClock(clock clockwork.Clock) GateOption {
	return func(g *RateGate) {
		if clock != nil {
			g.clock = clock
		}
	}
}

func NewRateGate(rps float64, burst int, opts ...GateOption) *RateGate {
	g := &RateGate{
		entries:      make(map[domain.Endpoint]*gateEntry),
		rps:          rate.Limit(rps),
		burst:        burst,
		idleTTL:      15 * time.Minute,
		cleanupEvery: 2 * time.Minute,
		clock:        clockwork.NewRealClock(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

func (g *RateGate) RPS() float64 { return float64(g.rps) }

func (g *RateGate) Burst() int { return g.burst }

func (g *RateGate) CleanupEvery() time.Duration { return g.cleanupEvery }

// Limiter retorna o limiter do endpoint, criando na primeira vez.
func (g *RateGate) Limiter(endpoint domain.Endpoint) *rate.Limiter {
	now := g.clock.Now()

	g.mu.Lock()
	defer g.mu.Unlock()

	if ent, ok := g.entries[endpoint]; ok {
		ent.lastSeen = now
		return ent.lim
	}

	lim := rate.NewLimiter(g.rps, g.burst)
	g.entries[endpoint] = &gateEntry{lim: lim, lastSeen: now}
	return lim
}

// Allow consome um token do endpoint se houver, sem bloquear.
func (g *RateGate) Allow(endpoint domain.Endpoint) bool {
	return g.Limiter(endpoint).Allow()
}

// Wait bloqueia até haver token para o endpoint ou o contexto cancelar.
func (g *RateGate) Wait(ctx context.Context, endpoint domain.Endpoint) error {
	return g.Limiter(endpoint).Wait(ctx)
}

// CleanupIdle descarta limiters de endpoints sem tráfego recente.
func (g *RateGate) CleanupIdle() {
	cutoff := g.clock.Now().Add(-g.idleTTL)

	g.mu.Lock()
	defer g.mu.Unlock()

	for endpoint, ent := range g.entries {
		if ent.lastSeen.Before(cutoff) {
			delete(g.entries, endpoint)
		}
	}
}

// StartJanitor inicia uma goroutine que limpa endpoints inativos
// periodicamente. Pare cancelando o contexto.
func (g *RateGate) StartJanitor(ctx context.Context) {
	if g.cleanupEvery <= 0 {
		return
	}

	t := g.clock.NewTicker(g.cleanupEvery)
	go func() {
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.Chan():
				g.CleanupIdle()
			}
		}
	}()
}
