package main

import (
	"context"
	"log"
	"net/http"
	"net/url"
	"os"

	"streaming-dispatch/dispatch"
	"streaming-dispatch/dispatch/domain"
	"streaming-dispatch/dispatch/infra"
)

// logDelegate só loga o desfecho das operações assíncronas.
type logDelegate struct{ tag string }

func (d logDelegate) OperationCompleted(_ *infra.Operation, resp *http.Response, body []byte, err error) {
	if err != nil {
		log.Printf("%s: erro: %v", d.tag, err)
		return
	}
	log.Printf("%s: %d (%d bytes)", d.tag, resp.StatusCode, len(body))
}

func main() {
	// Exemplo: usando a fachada direto (sem o binário de carga)
	base := "http://localhost:8082"
	if v := os.Getenv("UPSTREAM_URL"); v != "" {
		base = v
	}

	d := dispatch.InitShared(dispatch.Options{
		Limits: infra.NewStaticLimits(3),
	})
	defer dispatch.DisposeShared()

	ctx := context.Background()

	// síncrona: bloqueia até o corpo chegar
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, base+"/rapido", nil)
	if err != nil {
		log.Fatalf("request error: %v", err)
	}
	body, resp, err := d.SyncRequest(ctx, req)
	if err != nil {
		log.Fatalf("sync error: %v", err)
	}
	log.Printf("sync: %d (%d bytes)", resp.StatusCode, len(body))

	// assíncrona: a operação volta parada; Start dispara a execução e o
	// desfecho chega no delegate, na goroutine do worker
	req, err = http.NewRequestWithContext(ctx, http.MethodGet, base+"/lento", nil)
	if err != nil {
		log.Fatalf("request error: %v", err)
	}
	op, err := d.AsyncRequest(req, logDelegate{tag: "async"})
	if err != nil {
		log.Fatalf("async error: %v", err)
	}
	if err := op.Start(ctx); err != nil {
		log.Fatalf("async start error: %v", err)
	}

	// long poll: recusa imediata quando o endpoint está cheio; o fallback
	// do cliente é rebaixar para polling curto
	if u, perr := url.Parse(base); perr == nil {
		log.Printf("long poll allowed? %v", d.LongPollAllowedURL(u))
	}
	req, err = http.NewRequestWithContext(ctx, http.MethodGet, base+"/longpoll", nil)
	if err != nil {
		log.Fatalf("request error: %v", err)
	}
	lop, err := d.LongPollRequest(req, logDelegate{tag: "longpoll"})
	switch {
	case domain.IsAdmissionRejected(err):
		log.Printf("longpoll recusado, caindo para polling curto")
		if _, _, serr := d.SyncRequest(ctx, req); serr != nil {
			log.Fatalf("fallback error: %v", serr)
		}
	case err != nil:
		log.Fatalf("longpoll error: %v", err)
	default:
		if err := lop.Start(ctx); err != nil {
			log.Fatalf("longpoll start error: %v", err)
		}
		_ = lop.Wait(ctx)
	}

	_ = op.Wait(ctx)
}
