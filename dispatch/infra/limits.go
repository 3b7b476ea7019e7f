package infra

import "sync/atomic"

// DefaultMaxSessionsPerServer é o teto padrão de sessões simultâneas por
// servidor quando nenhum valor foi configurado.
const DefaultMaxSessionsPerServer = 10

// StaticLimits é uma fonte de limites ajustável em tempo de execução.
//
// O registry e a admissão leem o valor a cada decisão, então um Set vale
// imediatamente para a próxima aquisição, sem cache em lugar nenhum.
type StaticLimits struct {
	max atomic.Int64
}

// NewStaticLimits cria a fonte com o teto dado. Valores <= 0 caem no padrão.
func NewStaticLimits(maxSessions int) *StaticLimits {
	l := &StaticLimits{}
	l.Set(maxSessions)
	return l
}

// Set ajusta o teto. Valores <= 0 caem no padrão.
func (l *StaticLimits) Set(maxSessions int) {
	if maxSessions <= 0 {
		maxSessions = DefaultMaxSessionsPerServer
	}
	l.max.Store(int64(maxSessions))
}

func (l *StaticLimits) MaxSessionsPerServer() int {
	return int(l.max.Load())
}
