package domain

// Operation é a visão que o núcleo tem de uma requisição em andamento.
//
// O ciclo observado aqui tem três marcos: admitida (somente long), worker
// adquirido (quando o start da operação chama o Preempt do pool) e
// finalizada. A finalização deve ser notificada ao despachante exatamente
// uma vez, em qualquer caminho de término (sucesso, erro ou cancelamento).
type Operation interface {
	Endpoint() Endpoint

	// Long informa se a operação é de longa duração (long polling/streaming),
	// sujeita ao teto de admissão por endpoint.
	Long() bool

	// Worker retorna o worker adquirido pela operação, ou nil se a execução
	// não chegou (ou nunca chegará) ao ponto de aquisição.
	Worker() Worker
}
