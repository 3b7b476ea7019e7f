package domain

import "time"

// DelayedScheduler agenda callbacks nomeados com atraso.
//
// Schedule substitui qualquer agendamento pendente com o mesmo nome (cancela
// e reagenda). É isso que dá o debounce do coletor de workers ociosos: ele
// dispara uma vez por intervalo quieto depois do último release, não uma vez
// por release. Cancel descarta um agendamento pendente, se existir.
type DelayedScheduler interface {
	Schedule(name string, delay time.Duration, fn func())
	Cancel(name string)
}
