package infra

import (
	"testing"
	"time"

	"github.com/jonboulle/clockwork"

	"streaming-dispatch/dispatch/domain"
)

func TestRateGate_SameEndpointReturnsSameLimiter(t *testing.T) {
	g := NewRateGate(10, 1)

	l1 := g.Limiter(domain.Endpoint("a:80"))
	l2 := g.Limiter(domain.Endpoint("a:80"))
	if l1 != l2 {
		t.Fatalf("expected same limiter pointer for same endpoint")
	}

	if g.Limiter(domain.Endpoint("b:80")) == l1 {
		t.Fatalf("expected a different limiter per endpoint")
	}
}

func TestRateGate_LowBurstRejectsSecondImmediateAllow(t *testing.T) {
	g := NewRateGate(0.02, 1)

	e := domain.Endpoint("a:80")
	if !g.Allow(e) {
		t.Fatalf("expected first Allow to be true")
	}
	if g.Allow(e) {
		t.Fatalf("expected second immediate Allow to be false (burst=1)")
	}
}

func TestRateGate_CleanupRemovesIdleEndpoints(t *testing.T) {
	clock := clockwork.NewFakeClock()
	g := NewRateGate(10, 1, WithGateIdleTTL(time.Minute), WithGateClock(clock))

	e := domain.Endpoint("a:80")
	before := g.Limiter(e)

	clock.Advance(2 * time.Minute)
	g.CleanupIdle()

	after := g.Limiter(e)
	if before == after {
		t.Fatalf("expected limiter to be recreated after cleanup")
	}
}

func TestRateGate_CleanupKeepsRecentlySeenEndpoints(t *testing.T) {
	clock := clockwork.NewFakeClock()
	g := NewRateGate(10, 1, WithGateIdleTTL(time.Minute), WithGateClock(clock))

	quieto := domain.Endpoint("quieto:80")
	ativo := domain.Endpoint("ativo:80")
	old := g.Limiter(quieto)
	kept := g.Limiter(ativo)

	clock.Advance(45 * time.Second)
	g.Limiter(ativo) // tráfego renova o lastSeen
	clock.Advance(30 * time.Second)

	g.CleanupIdle()

	if g.Limiter(quieto) == old {
		t.Fatalf("expected idle endpoint to be dropped")
	}
	if g.Limiter(ativo) != kept {
		t.Fatalf("expected active endpoint limiter to survive cleanup")
	}
}
