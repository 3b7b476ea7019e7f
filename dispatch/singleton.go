package dispatch

import "sync"

var (
	sharedMu sync.Mutex
	shared   *Dispatcher
)

// Shared retorna o despachante do processo, criando um com as opções
// padrão na primeira chamada (ou na primeira depois de um descarte).
func Shared() *Dispatcher {
	sharedMu.Lock()
	defer sharedMu.Unlock()

	if shared == nil {
		shared = New(Options{})
	}
	return shared
}

// InitShared instala um despachante novo com as opções dadas no lugar do
// atual, encerrando o antigo se existir. Retorna o novo.
func InitShared(opts Options) *Dispatcher {
	sharedMu.Lock()
	defer sharedMu.Unlock()

	if shared != nil {
		shared.Close()
	}
	shared = New(opts)
	return shared
}

// DisposeShared encerra e esquece o despachante do processo. Não chamou
// Shared ainda, não faz nada. A próxima chamada a Shared cria um novo.
func DisposeShared() {
	sharedMu.Lock()
	defer sharedMu.Unlock()

	if shared != nil {
		shared.Close()
		shared = nil
	}
}
