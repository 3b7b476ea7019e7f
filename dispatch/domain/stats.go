package domain

import (
	"context"
	"time"
)

// Tipos de despacho observados pelas estatísticas.
const (
	KindSync     = "sync"
	KindAsync    = "async"
	KindLongPoll = "longpoll"
)

// StatsEvent representa uma decisão de despacho.
//
// Ele é propositalmente agnóstico de HTTP: Endpoint e Kind são strings
// genéricas e servem igualmente para outros transportes.
//
// Observação: cuidado com cardinalidade (registrar endpoint sem controle pode
// explodir o número de chaves em uma base como Redis).
type StatsEvent struct {
	Endpoint Endpoint
	Kind     string
	Admitted bool

	At time.Time
}

// StatsStore é a estratégia de persistência das estatísticas de despacho.
//
// Implementações podem armazenar em Redis, memória, etc.
// O despachante trata erro como best-effort (não derruba o despacho).
type StatsStore interface {
	Record(ctx context.Context, ev StatsEvent) error
}
