// Package infra guarda janelas e estatísticas do limitador em memória, no
// Redis ou no Prometheus, e fornece o semáforo de vagas (ChanPool).
package infra
