package application

import (
	"context"
	"time"

	"streaming-dispatch/dispatch/domain"
)

// AcquireService concentra a regra de aquisição de workers com timeout
// opcional, sem saber nada sobre HTTP.
type AcquireService struct {
	Pool           domain.WorkerPool
	AcquireTimeout time.Duration
}

// Acquire obtém um worker para o endpoint.
// - Se AcquireTimeout <= 0, espera indefinidamente (até o ctx cancelar).
// - Se AcquireTimeout > 0, espera até o timeout.
func (s AcquireService) Acquire(ctx context.Context, e domain.Endpoint) (domain.Worker, error) {
	if s.AcquireTimeout <= 0 {
		return s.Pool.Preempt(ctx, e)
	}

	acqCtx, cancel := context.WithTimeout(ctx, s.AcquireTimeout)
	defer cancel()
	return s.Pool.Preempt(acqCtx, e)
}

// Release devolve o worker do endpoint ao pool.
func (s AcquireService) Release(w domain.Worker, e domain.Endpoint) {
	if w == nil {
		return
	}
	s.Pool.Release(w, e)
}
