package ratelimit

import (
	"net"
	"net/http"
	"strings"
)

// AnonymousKey agrupa clientes sem nenhuma identificação.
const AnonymousKey = "anonymous"

type KeyFunc func(r *http.Request) string

// ClientKeyFunc identifica o cliente nesta ordem:
//
//  1. header keyHeader, se configurado (ex.: X-Api-Key)
//  2. primeiro IP de X-Forwarded-For (cliente original)
//  3. X-Real-IP
//  4. "anonymous"
//
// Com ignoreProxyHeaders os passos 2 e 3 dão lugar ao host de RemoteAddr,
// para quando o gateway é exposto direto, sem proxy confiável na frente.
func ClientKeyFunc(keyHeader string, ignoreProxyHeaders bool) KeyFunc {
	return func(r *http.Request) string {
		if keyHeader != "" {
			if v := strings.TrimSpace(r.Header.Get(keyHeader)); v != "" {
				return v
			}
		}

		if ignoreProxyHeaders {
			if host := remoteHost(r.RemoteAddr); host != "" {
				return host
			}
			return AnonymousKey
		}

		if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
			first, _, _ := strings.Cut(xff, ",")
			if ip := strings.TrimSpace(first); ip != "" {
				return ip
			}
		}
		if ip := strings.TrimSpace(r.Header.Get("X-Real-IP")); ip != "" {
			return ip
		}
		return AnonymousKey
	}
}

func remoteHost(addr string) string {
	addr = strings.TrimSpace(addr)
	if host, _, err := net.SplitHostPort(addr); err == nil {
		return host
	}
	return addr
}
