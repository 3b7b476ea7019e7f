package application

import "streaming-dispatch/dispatch/domain"

// AdmissionService concentra a regra de admissão de operações long.
//
// O teto é sempre MaxSessionsPerServer() - ReservedSpareSessions: uma vaga
// por endpoint fica reservada para requisições curtas. TryAdmit e Allowed
// usam a mesma fórmula, para o pré-check do chamador e a decisão do despacho
// ficarem consistentes (a corrida entre os dois continua possível; quem
// decide é o TryAdmit).
type AdmissionService struct {
	Counter domain.SessionCounter
	Limits  domain.Limits
}

// Ceiling é o teto de admissões long por endpoint, lido da configuração no
// momento da chamada.
func (s AdmissionService) Ceiling() int {
	if s.Limits == nil {
		return 0
	}
	return s.Limits.MaxSessionsPerServer() - domain.ReservedSpareSessions
}

// TryAdmit tenta admitir uma operação long para o endpoint. Com sucesso
// retorna a contagem em voo já incrementada; com o teto atingido retorna
// a contagem observada e um *domain.AdmissionError. Com erro, o chamador
// não prossegue com o despacho.
func (s AdmissionService) TryAdmit(e domain.Endpoint) (int, error) {
	if s.Counter == nil {
		return 0, nil
	}

	ceiling := s.Ceiling()
	count, ok := s.Counter.IncIfBelow(e, ceiling)
	if !ok {
		return count, &domain.AdmissionError{Endpoint: e, InFlight: count, Ceiling: ceiling}
	}
	return count, nil
}

// Release devolve a vaga de uma operação long finalizada. Sucesso, erro e
// cancelamento contam igual: exatamente um release por admissão.
func (s AdmissionService) Release(e domain.Endpoint) {
	if s.Counter == nil {
		return
	}
	s.Counter.Dec(e)
}

// Allowed é o pré-check não mutável: informa se uma operação long seria
// admitida agora. O despacho real ainda pode perder a corrida e falhar.
func (s AdmissionService) Allowed(e domain.Endpoint) bool {
	if s.Counter == nil {
		return true
	}
	return s.Counter.Get(e) < s.Ceiling()
}
