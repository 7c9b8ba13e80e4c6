// Package ratelimit fornece middlewares net/http de rate limit (janela fixa
// por cliente) e de limite de concorrência para a API de consulta.
//
// Camadas:
//
//   - domain: contratos e tipos do domínio (sem dependência de net/http)
//   - application: casos de uso (janela fixa, acquire/timeout) sem net/http
//   - infra: stores em memória/Redis, semáforo e estatísticas
//   - ratelimit (este pacote): middlewares HTTP, extração de chave e
//     tradução da decisão para status/headers
//
// Fluxo:
//
//  1. Extrai a chave do cliente (header, X-Forwarded-For, X-Real-IP)
//  2. Pede a decisão à camada application
//  3. Se bloqueado, responde 429 com Retry-After (ou 503 por concorrência)
//  4. Se permitido, chama o próximo handler
//
// Se o store falhar a request segue sem limite, e o erro vai para o log.
package ratelimit
