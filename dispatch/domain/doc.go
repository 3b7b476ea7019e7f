// Package domain define contratos e tipos de domínio para o despacho de
// requisições com pool de workers por endpoint.
//
// Este pacote não depende de net/http nem de implementações concretas.
// A intenção é permitir testes de unidade puros e desacoplar as regras de
// concorrência de detalhes de infraestrutura.
package domain
