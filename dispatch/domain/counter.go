package domain

// SessionCounter conta operações long em andamento por endpoint.
//
// IncIfBelow só incrementa se a contagem atual está abaixo de ceiling;
// com ok retorna a contagem já incrementada, sem ok retorna a contagem
// observada. Checagem e incremento são atômicos. Dec decrementa com
// piso em zero: um release sem admit correspondente não deixa a
// contagem negativa.
type SessionCounter interface {
	IncIfBelow(e Endpoint, ceiling int) (count int, ok bool)
	Dec(e Endpoint) int
	Get(e Endpoint) int
}
