// Package dispatch fornece o despacho de requisições HTTP de um cliente de
// streaming, com pool de workers por endpoint e controle de admissão para
// requisições de longa duração (long poll).
//
// Visão geral (camadas):
//
//   - domain: contratos e tipos do domínio (endpoint, worker, limites, contadores)
//   - application: casos de uso (admissão com teto, aquisição com timeout) sem net/http
//   - infra: implementações concretas (registro de workers, worker de loop, agendador,
//     operação HTTP, rate gate, stats em memória/Redis)
//   - dispatch (este pacote): fachada síncrona/assíncrona + singleton de processo +
//     tradução de URL para endpoint
//
// Fluxo de um despacho:
//
//  1. Resolve o endpoint (host:porta) da requisição
//  2. Long poll passa antes pelo teto de admissão; estourou, é recusado na hora
//  3. Adquire um worker do endpoint: reusa um livre, cria se há vaga, senão bloqueia
//  4. A requisição roda na goroutine do worker; o desfecho vai ao delegate
//  5. Ao terminar, o worker volta para a lista de livres e a coleta de ociosos é reagendada
//
// Variáveis de ambiente do binário de carga (cmd/loadgen) controlam o comportamento,
// como MAX_SESSIONS_PER_SERVER, ACQUIRE_TIMEOUT, RATE_RPS e STATS_REDIS_ADDR.
package dispatch
