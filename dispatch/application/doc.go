// Package application contém os casos de uso (regras de aplicação) para a
// admissão de operações long e a aquisição de workers.
//
// Ele depende apenas do pacote domain e não conhece net/http.
// Ex.: AdmissionService.TryAdmit(endpoint) aplica o teto máx-reserva.
package application
