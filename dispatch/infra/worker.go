package infra

import "sync"

// LoopWorker é um worker com goroutine própria consumindo tarefas de um
// canal. Ele nasce rodando (pronto para Submit) e não conhece endpoints:
// quem controla a qual destino ele está servindo é o Registry.
type LoopWorker struct {
	name string

	tasks chan func()
	quit  chan struct{}
	stop  sync.Once
}

// NewLoopWorker cria e inicia um worker com o nome dado.
func NewLoopWorker(name string) *LoopWorker {
	w := &LoopWorker{
		name:  name,
		tasks: make(chan func()),
		quit:  make(chan struct{}),
	}
	go w.run()
	return w
}

func (w *LoopWorker) Name() string { return w.name }

// Submit entrega a tarefa ao laço do worker. O canal não tem buffer: quando
// Submit retorna true a tarefa já está com o laço e vai rodar até o fim,
// mesmo que um Stop chegue no meio. Retorna false se o worker já parou.
func (w *LoopWorker) Submit(task func()) bool {
	select {
	case <-w.quit:
		return false
	case w.tasks <- task:
		return true
	}
}

// Stop encerra o laço prontamente: a tarefa em execução termina, tarefas
// nunca entregues são recusadas pelo Submit. Idempotente.
func (w *LoopWorker) Stop() {
	w.stop.Do(func() { close(w.quit) })
}

func (w *LoopWorker) run() {
	for {
		select {
		case <-w.quit:
			return
		case task := <-w.tasks:
			task()
		}
	}
}
