package domain

// Limits é a fonte de configuração do teto de sessões simultâneas por
// servidor.
//
// O valor é lido a cada decisão de capacidade (nunca cacheado), então uma
// mudança em tempo de execução vale já para a próxima aquisição/admissão.
type Limits interface {
	MaxSessionsPerServer() int
}

// ReservedSpareSessions é a reserva fixa de conexões por endpoint para
// requisições curtas: o teto de admissão de operações long é sempre
// MaxSessionsPerServer() - ReservedSpareSessions. A reserva não é
// configurável separadamente.
const ReservedSpareSessions = 1
