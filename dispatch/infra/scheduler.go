package infra

import (
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"streaming-dispatch/dispatch/domain"
)

// TimerScheduler agenda callbacks nomeados com timers one-shot.
//
// Schedule substitui o timer pendente de mesmo nome (cancela e reagenda);
// é isso que dá o debounce do coletor de ociosos: N releases seguidos geram
// um único disparo, depois do último. O relógio é injetável para os testes
// avançarem o tempo manualmente.
type TimerScheduler struct {
	clock clockwork.Clock

	mu     sync.Mutex
	timers map[string]clockwork.Timer
}

// NewTimerScheduler cria o agendador. clock nil usa o relógio real.
func NewTimerScheduler(clock clockwork.Clock) *TimerScheduler {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &TimerScheduler{
		clock:  clock,
		timers: make(map[string]clockwork.Timer),
	}
}

// Schedule agenda fn para rodar uma vez depois de delay, descartando qualquer
// agendamento pendente com o mesmo nome.
func (s *TimerScheduler) Schedule(name string, delay time.Duration, fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if t, ok := s.timers[name]; ok {
		t.Stop()
	}

	var t clockwork.Timer
	t = s.clock.AfterFunc(delay, func() {
		s.mu.Lock()
		// se alguém cancelou ou reagendou por cima enquanto o timer disparava,
		// este disparo perdeu a vez e não roda
		current := s.timers[name] == t
		if current {
			delete(s.timers, name)
		}
		s.mu.Unlock()

		if current {
			fn()
		}
	})
	s.timers[name] = t
}

// Cancel descarta o agendamento pendente com o nome dado, se existir.
func (s *TimerScheduler) Cancel(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if t, ok := s.timers[name]; ok {
		t.Stop()
		delete(s.timers, name)
	}
}

var _ domain.DelayedScheduler = (*TimerScheduler)(nil)
