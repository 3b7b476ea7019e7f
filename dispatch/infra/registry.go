package infra

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"streaming-dispatch/dispatch/domain"
)

const (
	// DefaultIdleTTL é quanto tempo um worker pode ficar ocioso na lista
	// de livres antes de ser elegível para coleta.
	DefaultIdleTTL = 10 * time.Second

	// DefaultReapAfter é o atraso entre uma liberação de worker e a
	// passada de coleta que ela agenda. Liberações em sequência empurram
	// o agendamento para frente em vez de acumular passadas.
	DefaultReapAfter = 5 * time.Second

	collectTimerName = "collect-idle-workers"
)

// freeWorker guarda um worker ocioso junto com o instante em que ele
// entrou na lista de livres.
type freeWorker struct {
	worker domain.Worker
	since  time.Time
}

// Registry mantém os workers de cada endpoint em duas listas, livres e
// ocupados, protegidas por um único mutex. Todos os endpoints dividem a
// mesma variável de condição: quem acorda sem vaga no seu endpoint volta
// a esperar.
type Registry struct {
	mu   sync.Mutex
	cond *sync.Cond

	free map[domain.Endpoint][]freeWorker
	busy map[domain.Endpoint][]domain.Worker

	seq    int
	closed bool

	factory   domain.WorkerFactory
	limits    domain.Limits
	clock     clockwork.Clock
	scheduler domain.DelayedScheduler

	idleTTL   time.Duration
	reapAfter time.Duration
}

// RegistryOption configura o registro na criação.
type RegistryOption func(*Registry)

// WithIdleTTL troca o tempo máximo de ociosidade antes da coleta.
func WithIdleTTL(ttl time.Duration) RegistryOption {
	return func(r *Registry) {
		if ttl > 0 {
			r.idleTTL = ttl
		}
	}
}

// WithReapAfter troca o atraso entre uma liberação e a coleta agendada.
func WithReapAfter(delay time.Duration) RegistryOption {
	return func(r *Registry) {
		if delay > 0 {
			r.reapAfter = delay
		}
	}
}

// WithClock troca o relógio usado para carimbar ociosidade. Útil em teste.
func WithClock(clock clockwork.Clock) RegistryOption {
	return func(r *Registry) {
		if clock != nil {
			r.clock = clock
		}
	}
}

// WithWorkerFactory troca a fábrica de workers.
func WithWorkerFactory(factory domain.WorkerFactory) RegistryOption {
	return func(r *Registry) {
		if factory != nil {
			r.factory = factory
		}
	}
}

// WithScheduler troca o agendador usado para marcar a coleta de ociosos.
func WithScheduler(scheduler domain.DelayedScheduler) RegistryOption {
	return func(r *Registry) {
		if scheduler != nil {
			r.scheduler = scheduler
		}
	}
}

// NewRegistry cria um registro vazio que respeita os limites informados.
func NewRegistry(limits domain.Limits, opts ...RegistryOption) *Registry {
	r := &Registry{
		free:      make(map[domain.Endpoint][]freeWorker),
		busy:      make(map[domain.Endpoint][]domain.Worker),
		limits:    limits,
		clock:     clockwork.NewRealClock(),
		idleTTL:   DefaultIdleTTL,
		reapAfter: DefaultReapAfter,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.factory == nil {
		r.factory = func(name string) domain.Worker {
			return NewLoopWorker(name)
		}
	}
	if r.scheduler == nil {
		r.scheduler = NewTimerScheduler(r.clock)
	}
	r.cond = sync.NewCond(&r.mu)
	return r
}

// Preempt entrega um worker para o endpoint. Reusa o primeiro da lista de
// livres, cria um novo se o endpoint ainda não atingiu o máximo de
// sessões, e senão bloqueia até alguém liberar. O limite é relido a cada
// volta, então mudanças de configuração valem para quem está esperando.
//
// Cancelar o contexto acorda a espera e retorna o erro do contexto.
func (r *Registry) Preempt(ctx context.Context, endpoint domain.Endpoint) (domain.Worker, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	// cond.Wait não observa contextos; o broadcast no cancelamento acorda
	// todo mundo e cada um re-checa o próprio ctx
	stop := context.AfterFunc(ctx, r.cond.Broadcast)
	defer stop()

	r.mu.Lock()
	defer r.mu.Unlock()

	for {
		if r.closed {
			return nil, domain.ErrDispatcherClosed
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		if list := r.free[endpoint]; len(list) > 0 {
			w := list[0].worker
			rest := list[1:]
			if len(rest) == 0 {
				delete(r.free, endpoint)
			} else {
				r.free[endpoint] = rest
			}
			r.busy[endpoint] = append(r.busy[endpoint], w)
			return w, nil
		}

		if len(r.busy[endpoint]) < r.limits.MaxSessionsPerServer() {
			r.seq++
			w := r.factory("worker-" + strconv.Itoa(r.seq))
			r.busy[endpoint] = append(r.busy[endpoint], w)
			return w, nil
		}

		r.cond.Wait()
	}
}

// Release devolve um worker ocupado para a lista de livres do endpoint,
// carimba o instante da devolução, acorda um dos que esperam vaga e
// reagenda a coleta de ociosos. Devolver um worker que o registro não
// conhece é um no-op.
func (r *Registry) Release(w domain.Worker, endpoint domain.Endpoint) {
	if w == nil {
		return
	}

	r.mu.Lock()
	list := r.busy[endpoint]
	found := false
	for i, b := range list {
		if b == w {
			list = append(list[:i], list[i+1:]...)
			found = true
			break
		}
	}
	if !found {
		r.mu.Unlock()
		return
	}
	if len(list) == 0 {
		delete(r.busy, endpoint)
	} else {
		r.busy[endpoint] = list
	}
	r.free[endpoint] = append(r.free[endpoint], freeWorker{worker: w, since: r.clock.Now()})
	r.mu.Unlock()

	r.cond.Signal()
	r.scheduler.Schedule(collectTimerName, r.reapAfter, r.CollectIdleWorkers)
}

// CollectIdleWorkers para e descarta os workers livres que passaram do
// tempo de ociosidade. Workers ocupados nunca são coletados. Rodar sem
// ninguém elegível não faz nada.
func (r *Registry) CollectIdleWorkers() {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.clock.Now()
	for endpoint, list := range r.free {
		kept := list[:0]
		for _, fw := range list {
			if now.Sub(fw.since) > r.idleTTL {
				fw.worker.Stop()
				continue
			}
			kept = append(kept, fw)
		}
		if len(kept) == 0 {
			delete(r.free, endpoint)
		} else {
			r.free[endpoint] = kept
		}
	}
}

// Shutdown para todos os workers, livres e ocupados, esquece o estado e
// acorda quem estiver bloqueado em Preempt para receber o erro de
// encerramento. Chamadas repetidas são inofensivas.
func (r *Registry) Shutdown() {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	r.closed = true
	for _, list := range r.free {
		for _, fw := range list {
			fw.worker.Stop()
		}
	}
	for _, list := range r.busy {
		for _, w := range list {
			w.Stop()
		}
	}
	r.free = make(map[domain.Endpoint][]freeWorker)
	r.busy = make(map[domain.Endpoint][]domain.Worker)
	r.mu.Unlock()

	r.scheduler.Cancel(collectTimerName)
	r.cond.Broadcast()
}

// FreeCount retorna quantos workers livres o endpoint tem agora.
func (r *Registry) FreeCount(endpoint domain.Endpoint) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.free[endpoint])
}

// BusyCount retorna quantos workers ocupados o endpoint tem agora.
func (r *Registry) BusyCount(endpoint domain.Endpoint) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.busy[endpoint])
}

var _ domain.WorkerPool = (*Registry)(nil)
