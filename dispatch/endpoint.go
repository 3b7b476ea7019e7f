package dispatch

import (
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"streaming-dispatch/dispatch/domain"
)

// EndpointForURL resolve o endpoint (host:porta) de uma URL. Porta
// explícita vence; sem porta, o esquema decide: https e wss usam 443,
// qualquer outro usa 80. O host fica como veio, sem normalizar caixa.
func EndpointForURL(u *url.URL) domain.Endpoint {
	if u == nil {
		return ""
	}
	host := u.Hostname()
	if host == "" {
		return ""
	}
	if p := u.Port(); p != "" {
		if port, err := strconv.Atoi(p); err == nil {
			return domain.HostPort(host, port)
		}
	}
	return domain.HostPort(host, defaultPort(u.Scheme))
}

// EndpointForRequest resolve o endpoint da requisição pela URL dela.
// Requisições montadas na mão às vezes só preenchem o campo Host; ele
// serve de fallback.
func EndpointForRequest(r *http.Request) domain.Endpoint {
	if r == nil || r.URL == nil {
		if r != nil && r.Host != "" {
			return hostFallback(r.Host, "")
		}
		return ""
	}
	if r.URL.Hostname() != "" {
		return EndpointForURL(r.URL)
	}
	if r.Host != "" {
		return hostFallback(r.Host, r.URL.Scheme)
	}
	return ""
}

// EndpointForHostPort monta o endpoint direto de host e porta.
func EndpointForHostPort(host string, port int) domain.Endpoint {
	return domain.HostPort(host, port)
}

func hostFallback(hostport, scheme string) domain.Endpoint {
	host, portStr, err := net.SplitHostPort(strings.TrimSpace(hostport))
	if err == nil && host != "" {
		if port, perr := strconv.Atoi(portStr); perr == nil {
			return domain.HostPort(host, port)
		}
	}
	return domain.HostPort(strings.TrimSpace(hostport), defaultPort(scheme))
}

func defaultPort(scheme string) int {
	switch strings.ToLower(scheme) {
	case "https", "wss":
		return 443
	}
	return 80
}
