package dispatch

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"streaming-dispatch/dispatch/application"
	"streaming-dispatch/dispatch/domain"
	"streaming-dispatch/dispatch/infra"
)

var ErrNilRequest = errors.New("nil request")

// Options configura um Dispatcher. Campos zerados usam os padrões:
// limites estáticos, http.Client zerado, sem stats.
type Options struct {
	Limits        domain.Limits
	Client        *http.Client
	Stats         domain.StatsStore
	WorkerFactory domain.WorkerFactory
	Scheduler     domain.DelayedScheduler
	Clock         clockwork.Clock

	// AcquireTimeout limita quanto tempo um despacho espera por worker.
	// Zero espera indefinidamente (até o contexto cancelar).
	AcquireTimeout time.Duration

	IdleTTL   time.Duration
	ReapAfter time.Duration
}

// Dispatcher é a fachada de despacho: requisições síncronas, assíncronas
// e de long poll, cada uma executando na goroutine de um worker do
// endpoint de destino.
type Dispatcher struct {
	registry  *infra.Registry
	counter   *infra.SessionCounter
	admission application.AdmissionService
	acquire   application.AcquireService
	limits    domain.Limits
	stats     domain.StatsStore
	client    *http.Client

	closeOnce sync.Once
}

// New monta um Dispatcher com as opções dadas.
func New(opts Options) *Dispatcher {
	limits := opts.Limits
	if limits == nil {
		limits = infra.NewStaticLimits(0)
	}
	client := opts.Client
	if client == nil {
		client = &http.Client{}
	}

	counter := infra.NewSessionCounter()
	registry := infra.NewRegistry(limits,
		infra.WithIdleTTL(opts.IdleTTL),
		infra.WithReapAfter(opts.ReapAfter),
		infra.WithClock(opts.Clock),
		infra.WithWorkerFactory(opts.WorkerFactory),
		infra.WithScheduler(opts.Scheduler),
	)

	return &Dispatcher{
		registry:  registry,
		counter:   counter,
		admission: application.AdmissionService{Counter: counter, Limits: limits},
		acquire:   application.AcquireService{Pool: registry, AcquireTimeout: opts.AcquireTimeout},
		limits:    limits,
		stats:     opts.Stats,
		client:    client,
	}
}

// SyncRequest despacha a requisição e espera o desfecho: corpo lido,
// resposta e erro. Bloqueia na aquisição do worker se o endpoint estiver
// cheio.
func (d *Dispatcher) SyncRequest(ctx context.Context, req *http.Request) ([]byte, *http.Response, error) {
	if req == nil {
		return nil, nil, ErrNilRequest
	}
	if ctx == nil {
		ctx = context.Background()
	}

	endpoint := EndpointForRequest(req)
	d.record(ctx, endpoint, domain.KindSync, true)
	op := d.newOperation(req, endpoint, nil, false)
	if err := op.Start(ctx); err != nil {
		return nil, nil, err
	}

	if err := op.Wait(ctx); err != nil {
		return op.Body(), op.Response(), err
	}
	return op.Body(), op.Response(), nil
}

// AsyncRequest monta e retorna a operação ainda não iniciada; quem
// chama decide quando rodar op.Start, que é onde a aquisição do worker
// pode bloquear. O desfecho chega pelo delegate, na goroutine do worker.
func (d *Dispatcher) AsyncRequest(req *http.Request, delegate infra.Delegate) (*infra.Operation, error) {
	if req == nil {
		return nil, ErrNilRequest
	}

	endpoint := EndpointForRequest(req)
	d.record(req.Context(), endpoint, domain.KindAsync, true)
	return d.newOperation(req, endpoint, delegate, false), nil
}

// LongPollRequest monta uma operação de longa duração, ainda não
// iniciada. Antes ela passa pelo teto de admissão do endpoint; estourou,
// a recusa é imediata, sem fila, e chega como erro daqui, nunca pelo
// delegate. Admitida, a vaga já pertence à operação retornada: qualquer
// desfecho dela devolve a vaga, inclusive o descarte via
// OperationFinished sem nunca chamar Start.
func (d *Dispatcher) LongPollRequest(req *http.Request, delegate infra.Delegate) (*infra.Operation, error) {
	if req == nil {
		return nil, ErrNilRequest
	}

	endpoint := EndpointForRequest(req)
	if _, err := d.admission.TryAdmit(endpoint); err != nil {
		d.record(req.Context(), endpoint, domain.KindLongPoll, false)
		return nil, err
	}

	d.record(req.Context(), endpoint, domain.KindLongPoll, true)
	return d.newOperation(req, endpoint, delegate, true), nil
}

// LongPollAllowed responde se o endpoint da requisição ainda tem vaga de
// admissão para long poll agora. É um retrato do momento, não uma reserva.
func (d *Dispatcher) LongPollAllowed(req *http.Request) bool {
	return d.admission.Allowed(EndpointForRequest(req))
}

// LongPollAllowedURL é LongPollAllowed resolvendo o endpoint da URL.
func (d *Dispatcher) LongPollAllowedURL(u *url.URL) bool {
	return d.admission.Allowed(EndpointForURL(u))
}

// LongPollAllowedHostPort é LongPollAllowed para host e porta crus.
func (d *Dispatcher) LongPollAllowedHostPort(host string, port int) bool {
	return d.admission.Allowed(domain.HostPort(host, port))
}

// OperationFinished devolve os recursos de uma operação: a vaga de
// admissão, se era long poll, e o worker dela. Operações criadas pelo
// próprio despachante fazem isso sozinhas ao completar; chamar de novo
// não devolve nada duas vezes.
func (d *Dispatcher) OperationFinished(op domain.Operation) {
	if op == nil {
		return
	}
	if own, ok := op.(*infra.Operation); ok {
		own.Finish()
		return
	}
	d.releaseResources(op)
}

// Close encerra o despachante: para todos os workers, acorda quem espera
// vaga com erro e zera a contagem de admissão. Chamadas repetidas são
// inofensivas.
func (d *Dispatcher) Close() {
	d.closeOnce.Do(func() {
		d.registry.Shutdown()
		d.counter.Reset()
	})
}

func (d *Dispatcher) newOperation(req *http.Request, endpoint domain.Endpoint, delegate infra.Delegate, long bool) *infra.Operation {
	return infra.NewOperation(infra.OperationConfig{
		Request:    req,
		Endpoint:   endpoint,
		Delegate:   delegate,
		BufferBody: true,
		Long:       long,
		Client:     d.client,
		Acquire:    d.acquire.Acquire,
		Finished:   func(op *infra.Operation) { d.releaseResources(op) },
	})
}

func (d *Dispatcher) releaseResources(op domain.Operation) {
	if op.Long() {
		d.admission.Release(op.Endpoint())
	}
	if w := op.Worker(); w != nil {
		d.registry.Release(w, op.Endpoint())
	}
}

func (d *Dispatcher) record(ctx context.Context, endpoint domain.Endpoint, kind string, admitted bool) {
	if d.stats == nil {
		return
	}
	if ctx == nil {
		ctx = context.Background()
	}
	_ = d.stats.Record(ctx, domain.StatsEvent{
		Endpoint: endpoint,
		Kind:     kind,
		Admitted: admitted,
		At:       time.Now(),
	})
}
