// Package infra contém implementações concretas (infraestrutura) para os
// contratos definidos no pacote domain.
//
// Exemplos:
//   - Registry: pool de workers por endpoint com aquisição bloqueante
//   - LoopWorker: laço de execução de tarefas em goroutine dedicada
//   - TimerScheduler: agendador de callbacks nomeados com debounce
//   - RateGate: token bucket por endpoint usando golang.org/x/time/rate
package infra
