package domain

import "context"

// Worker representa um contexto de execução reutilizável do pool.
//
// Um worker não pertence a um endpoint fixo: ao longo da vida ele pode ser
// reatribuído para destinos diferentes. Quem sabe a qual endpoint ele está
// servindo em cada instante é o pool, não o worker.
type Worker interface {
	// Name é a identidade do worker, atribuída sequencialmente na criação.
	Name() string

	// Submit entrega uma tarefa ao laço de execução do worker.
	// Retorna false se o worker já foi parado (a tarefa não rodará).
	Submit(task func()) bool

	// Stop encerra o worker prontamente e libera a goroutine dele.
	// É idempotente: parar um worker já parado é um no-op.
	Stop()
}

// WorkerFactory cria e inicia um worker pronto para receber tarefas.
// O worker retornado já nasce rodando.
type WorkerFactory func(name string) Worker

// WorkerPool é o contrato do registro de workers por endpoint.
//
// Preempt bloqueia até obter um worker para o endpoint: reuso FIFO da lista
// livre, criação enquanto o endpoint está abaixo do teto de sessões, ou
// espera por um release. O cancelamento do ctx encerra a espera; um ctx sem
// prazo espera indefinidamente.
//
// Release devolve o worker do endpoint à lista livre e acorda um aquirente.
type WorkerPool interface {
	Preempt(ctx context.Context, e Endpoint) (Worker, error)
	Release(w Worker, e Endpoint)
}
