package infra

import (
	"context"
	"io"
	"net/http"
	"sync"

	"streaming-dispatch/dispatch/domain"
)

// Delegate recebe o desfecho de uma operação assíncrona. A chamada
// acontece na goroutine do worker, uma única vez por operação.
type Delegate interface {
	OperationCompleted(op *Operation, resp *http.Response, body []byte, err error)
}

// OperationConfig reúne tudo que uma operação precisa para rodar.
type OperationConfig struct {
	Request  *http.Request
	Endpoint domain.Endpoint
	Delegate Delegate

	// BufferBody faz a operação ler o corpo inteiro e fechar a resposta
	// antes de completar. Desligado, o corpo fica aberto por conta do
	// chamador.
	BufferBody bool

	// Long marca a operação como de longa duração para fins de admissão.
	Long bool

	Client *http.Client

	// Acquire obtém o worker que vai executar a requisição.
	Acquire func(ctx context.Context, endpoint domain.Endpoint) (domain.Worker, error)

	// Finished roda exatamente uma vez quando a operação termina, com
	// sucesso ou não, inclusive quando a aquisição do worker falha.
	Finished func(op *Operation)
}

// Operation é uma requisição HTTP em voo amarrada a um worker. O ciclo é
// Start, execução na goroutine do worker, entrega ao delegate e por fim o
// callback de término.
type Operation struct {
	endpoint domain.Endpoint
	long     bool
	delegate Delegate
	buffer   bool
	client   *http.Client
	req      *http.Request
	acquire  func(ctx context.Context, endpoint domain.Endpoint) (domain.Worker, error)
	finished func(op *Operation)

	mu      sync.Mutex
	started bool
	worker  domain.Worker
	resp    *http.Response
	body    []byte
	err     error

	once       sync.Once
	finishOnce sync.Once
	done       chan struct{}
}

// NewOperation monta uma operação ainda não iniciada.
func NewOperation(cfg OperationConfig) *Operation {
	client := cfg.Client
	if client == nil {
		client = http.DefaultClient
	}
	return &Operation{
		endpoint: cfg.Endpoint,
		long:     cfg.Long,
		delegate: cfg.Delegate,
		buffer:   cfg.BufferBody,
		client:   client,
		req:      cfg.Request,
		acquire:  cfg.Acquire,
		finished: cfg.Finished,
		done:     make(chan struct{}),
	}
}

// Start adquire um worker, o que pode bloquear até abrir vaga no
// endpoint, e despacha a requisição para a goroutine dele. O erro
// retornado é o mesmo que chega ao delegate quando a aquisição falha.
// Uma operação só inicia uma vez; chamadas repetidas retornam
// ErrOperationStarted sem efeito nenhum.
func (op *Operation) Start(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	op.mu.Lock()
	if op.started {
		op.mu.Unlock()
		return domain.ErrOperationStarted
	}
	op.started = true
	op.mu.Unlock()

	w, err := op.acquire(ctx, op.endpoint)
	if err != nil {
		op.complete(nil, nil, err)
		return err
	}

	op.mu.Lock()
	op.worker = w
	op.mu.Unlock()

	if !w.Submit(func() { op.execute(ctx) }) {
		op.complete(nil, nil, domain.ErrDispatcherClosed)
		return domain.ErrDispatcherClosed
	}
	return nil
}

func (op *Operation) execute(ctx context.Context) {
	resp, err := op.client.Do(op.req.WithContext(ctx))
	if err != nil {
		op.complete(nil, nil, err)
		return
	}
	if !op.buffer {
		op.complete(resp, nil, nil)
		return
	}

	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil {
		op.complete(resp, nil, err)
		return
	}
	op.complete(resp, body, nil)
}

// complete registra o desfecho uma única vez, avisa o delegate, roda o
// callback de término e libera quem espera em Wait. Nessa ordem: quando
// Wait retorna o worker já foi devolvido.
func (op *Operation) complete(resp *http.Response, body []byte, err error) {
	op.once.Do(func() {
		op.mu.Lock()
		op.resp = resp
		op.body = body
		op.err = err
		op.mu.Unlock()

		if op.delegate != nil {
			op.delegate.OperationCompleted(op, resp, body, err)
		}
		op.Finish()
		close(op.done)
	})
}

// Finish devolve os recursos da operação via callback de término. O fluxo
// normal chama isso sozinho ao completar; chamadas repetidas, inclusive
// manuais via despachante, não devolvem nada duas vezes.
func (op *Operation) Finish() {
	op.finishOnce.Do(func() {
		if op.finished != nil {
			op.finished(op)
		}
	})
}

// Wait bloqueia até a operação completar ou o contexto cancelar.
func (op *Operation) Wait(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	select {
	case <-op.done:
		return op.Err()
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Endpoint identifica o servidor alvo da operação.
func (op *Operation) Endpoint() domain.Endpoint { return op.endpoint }

// Long informa se a operação conta contra o teto de longa duração.
func (op *Operation) Long() bool { return op.long }

// Worker retorna o worker da operação, ou nil antes da aquisição.
func (op *Operation) Worker() domain.Worker {
	op.mu.Lock()
	defer op.mu.Unlock()
	return op.worker
}

// Response retorna a resposta HTTP, ou nil se a operação falhou antes.
func (op *Operation) Response() *http.Response {
	op.mu.Lock()
	defer op.mu.Unlock()
	return op.resp
}

// Body retorna o corpo lido quando a operação bufferiza a resposta.
func (op *Operation) Body() []byte {
	op.mu.Lock()
	defer op.mu.Unlock()
	return op.body
}

// Err retorna o erro final da operação, se houve.
func (op *Operation) Err() error {
	op.mu.Lock()
	defer op.mu.Unlock()
	return op.err
}

var _ domain.Operation = (*Operation)(nil)
