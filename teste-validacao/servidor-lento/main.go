package main

import (
	"fmt"
	"net/http"
	"time"
)

func main() {
	http.HandleFunc("/rapido", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, "resposta rapida\n")
		fmt.Println("Log: /rapido respondeu na hora")
	})
	http.HandleFunc("/lento", func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(2 * time.Second)
		fmt.Fprintf(w, "resposta lenta\n")
		fmt.Println("Log: /lento segurou 2s antes de responder")
	})
	http.HandleFunc("/longpoll", func(w http.ResponseWriter, r *http.Request) {
		// segura a conexão como um long poll de verdade seguraria
		time.Sleep(10 * time.Second)
		fmt.Fprintf(w, "evento chegou\n")
		fmt.Println("Log: /longpoll liberou depois de 10s")
	})
	fmt.Println("Servidor rodando em http://localhost:8082")
	err := http.ListenAndServe(":8082", nil)
	if err != nil {
		fmt.Printf("Erro ao subir o servidor: %s\n", err)
	}
}
