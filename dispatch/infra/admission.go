package infra

import (
	"sync"

	"streaming-dispatch/dispatch/domain"
)

// SessionCounter conta operações de longa duração em voo por endpoint.
// A verificação de teto e o incremento acontecem sob o mesmo lock, então
// duas admissões concorrentes nunca estouram o limite juntas.
type SessionCounter struct {
	mu       sync.Mutex
	inFlight map[domain.Endpoint]int
}

// NewSessionCounter cria um contador vazio.
func NewSessionCounter() *SessionCounter {
	return &SessionCounter{
		inFlight: make(map[domain.Endpoint]int),
	}
}

// IncIfBelow incrementa o contador do endpoint somente se o valor atual
// estiver abaixo do teto. Com incremento, retorna a contagem nova e
// true; sem, retorna a contagem observada e false. Teto menor ou igual
// a zero rejeita sempre.
func (c *SessionCounter) IncIfBelow(endpoint domain.Endpoint, ceiling int) (int, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	count := c.inFlight[endpoint]
	if count >= ceiling || ceiling <= 0 {
		return count, false
	}
	count++
	c.inFlight[endpoint] = count
	return count, true
}

// Dec decrementa o contador do endpoint e retorna o novo valor. Nunca
// desce abaixo de zero; decrementos a mais são ignorados em vez de
// corromper a contagem.
func (c *SessionCounter) Dec(endpoint domain.Endpoint) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	count := c.inFlight[endpoint]
	if count <= 0 {
		return 0
	}
	count--
	if count == 0 {
		delete(c.inFlight, endpoint)
	} else {
		c.inFlight[endpoint] = count
	}
	return count
}

// Get retorna o valor atual do contador para o endpoint.
func (c *SessionCounter) Get(endpoint domain.Endpoint) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.inFlight[endpoint]
}

// Reset zera todos os contadores.
func (c *SessionCounter) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.inFlight = make(map[domain.Endpoint]int)
}

var _ domain.SessionCounter = (*SessionCounter)(nil)
