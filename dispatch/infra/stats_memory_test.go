package infra

import (
	"context"
	"testing"

	"streaming-dispatch/dispatch/domain"
)

func TestMemoryStatsStore_CountsTotalsAndKinds(t *testing.T) {
	s := NewMemoryStatsStore()
	ctx := context.Background()

	_ = s.Record(ctx, domain.StatsEvent{Endpoint: "a:80", Kind: domain.KindSync, Admitted: true})
	_ = s.Record(ctx, domain.StatsEvent{Endpoint: "a:80", Kind: domain.KindLongPoll, Admitted: true})
	_ = s.Record(ctx, domain.StatsEvent{Endpoint: "b:80", Kind: domain.KindLongPoll, Admitted: false})
	_ = s.Record(ctx, domain.StatsEvent{Endpoint: "b:80", Kind: domain.KindLongPoll, Admitted: false})

	total := s.Total()
	if total.Admitted != 2 || total.Rejected != 2 {
		t.Fatalf("expected total admitted=2 rejected=2, got %+v", total)
	}

	byKind := s.ByKind()
	if c := byKind[domain.KindSync]; c.Admitted != 1 || c.Rejected != 0 {
		t.Fatalf("expected sync admitted=1, got %+v", c)
	}
	if c := byKind[domain.KindLongPoll]; c.Admitted != 1 || c.Rejected != 2 {
		t.Fatalf("expected longpoll admitted=1 rejected=2, got %+v", c)
	}

	// sem a opção, endpoints não são rastreados
	if got := s.ByEndpoint(); len(got) != 0 {
		t.Fatalf("expected no endpoint tracking by default, got %v", got)
	}
}

func TestMemoryStatsStore_TracksEndpointsWhenEnabled(t *testing.T) {
	s := NewMemoryStatsStore(WithTrackEndpoints(true))
	ctx := context.Background()

	_ = s.Record(ctx, domain.StatsEvent{Endpoint: "a:80", Kind: domain.KindSync, Admitted: true})
	_ = s.Record(ctx, domain.StatsEvent{Endpoint: "b:443", Kind: domain.KindLongPoll, Admitted: false})

	byEndpoint := s.ByEndpoint()
	if c := byEndpoint["a:80"]; c.Admitted != 1 {
		t.Fatalf("expected a:80 admitted=1, got %+v", c)
	}
	if c := byEndpoint["b:443"]; c.Rejected != 1 {
		t.Fatalf("expected b:443 rejected=1, got %+v", c)
	}
}
