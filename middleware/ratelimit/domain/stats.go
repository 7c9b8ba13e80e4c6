package domain

import (
	"context"
	"strings"
	"time"
)

// StatsEvent é uma decisão do limitador já tomada: quem pediu, em qual rota
// e se passou.
type StatsEvent struct {
	Key     Key
	Allowed bool

	Method string
	Path   string

	At time.Time
}

// Route identifica a rota consultada ("POST /api/whois"). Vazio quando o
// evento não traz método nem caminho.
func (e StatsEvent) Route() string {
	return strings.TrimSpace(strings.TrimSpace(e.Method) + " " + strings.TrimSpace(e.Path))
}

// Result é o rótulo usado pelos backends de estatística.
func (e StatsEvent) Result() string {
	if e.Allowed {
		return "allowed"
	}
	return "denied"
}

// StatsStore registra decisões. Falhas são ignoradas pelo middleware: a
// consulta segue mesmo sem estatística.
type StatsStore interface {
	Record(ctx context.Context, ev StatsEvent) error
}
