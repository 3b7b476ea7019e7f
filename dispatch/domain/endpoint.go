package domain

import "strconv"

// Endpoint identifica um destino de rede no formato canônico "host:porta".
//
// É usado apenas como chave de lookup: igualdade é igualdade de string e o
// host não é normalizado (maiúsculas e minúsculas são chaves diferentes de
// propósito; a derivação a partir de URLs fica na fachada).
type Endpoint string

// HostPort monta um Endpoint a partir de host e porta explícitos.
func HostPort(host string, port int) Endpoint {
	return Endpoint(host + ":" + strconv.Itoa(port))
}

func (e Endpoint) String() string { return string(e) }
