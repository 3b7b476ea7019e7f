package infra

import (
	"context"
	"sync"

	"streaming-dispatch/dispatch/domain"
)

type Counters struct {
	Admitted int64
	Rejected int64
}

// MemoryStatsStore é uma implementação simples em memória.
// Útil para testes e desenvolvimento.
//
// Não faz expiração e não é indicada para produção.
type MemoryStatsStore struct {
	mu         sync.Mutex
	total      Counters
	byKind     map[string]Counters
	byEndpoint map[string]Counters

	trackEndpoints bool
}

type MemoryStatsOption func(*MemoryStatsStore)

func WithTrackEndpoints(track bool) MemoryStatsOption {
	return func(s *MemoryStatsStore) { s.trackEndpoints = track }
}

func NewMemoryStatsStore(opts ...MemoryStatsOption) *MemoryStatsStore {
	s := &MemoryStatsStore{
		byKind:     make(map[string]Counters),
		byEndpoint: make(map[string]Counters),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *MemoryStatsStore) Record(_ context.Context, ev domain.StatsEvent) error {
	kind := ev.Kind
	endpoint := string(ev.Endpoint)

	s.mu.Lock()
	defer s.mu.Unlock()

	if ev.Admitted {
		s.total.Admitted++
		c := s.byKind[kind]
		c.Admitted++
		s.byKind[kind] = c
		if s.trackEndpoints {
			e := s.byEndpoint[endpoint]
			e.Admitted++
			s.byEndpoint[endpoint] = e
		}
		return nil
	}

	s.total.Rejected++
	c := s.byKind[kind]
	c.Rejected++
	s.byKind[kind] = c
	if s.trackEndpoints {
		e := s.byEndpoint[endpoint]
		e.Rejected++
		s.byEndpoint[endpoint] = e
	}
	return nil
}

func (s *MemoryStatsStore) Total() Counters {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.total
}

func (s *MemoryStatsStore) ByKind() map[string]Counters {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]Counters, len(s.byKind))
	for k, v := range s.byKind {
		out[k] = v
	}
	return out
}

func (s *MemoryStatsStore) ByEndpoint() map[string]Counters {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]Counters, len(s.byEndpoint))
	for k, v := range s.byEndpoint {
		out[k] = v
	}
	return out
}

var _ domain.StatsStore = (*MemoryStatsStore)(nil)
