package domain

import (
	"errors"
	"fmt"
)

// ErrDispatcherClosed indica uso do pool depois do descarte do despachante.
var ErrDispatcherClosed = errors.New("dispatcher closed")

// ErrOperationStarted indica um segundo Start na mesma operação; cada
// operação executa no máximo uma vez.
var ErrOperationStarted = errors.New("operation already started")

// AdmissionError é a rejeição síncrona de uma operação long: o endpoint já
// atingiu o teto de admissões. Não é uma falha do sistema; o chamador decide
// o fallback (ex: rebaixar para short polling). O despacho rejeitado nunca é
// enfileirado nem repetido por conta própria.
type AdmissionError struct {
	Endpoint Endpoint
	InFlight int
	Ceiling  int
}

func (e *AdmissionError) Error() string {
	return fmt.Sprintf("long poll rejected for %s: %d in flight (ceiling %d)",
		e.Endpoint, e.InFlight, e.Ceiling)
}

// IsAdmissionRejected informa se err (ou algo na cadeia dele) é uma rejeição
// de admissão.
func IsAdmissionRejected(err error) bool {
	var ae *AdmissionError
	return errors.As(err, &ae)
}
