package whois

import (
	"context"
	"fmt"
	"strings"
	"time"

	lwhois "github.com/likexian/whois"
)

// Querier executa a consulta textual na porta 43. *whois.Client de
// github.com/likexian/whois satisfaz a interface.
type Querier interface {
	Whois(domain string, servers ...string) (string, error)
}

// Client é o provedor WHOIS usado pelo orquestrador.
type Client struct {
	q       Querier
	servers []string
}

type ClientOption func(*Client)

// WithServer fixa o servidor consultado. Sem ele a biblioteca descobre o
// servidor da TLD pela IANA e segue o referral do registrar.
func WithServer(server string) ClientOption {
	return func(c *Client) {
		if s := strings.TrimSpace(server); s != "" {
			c.servers = []string{s}
		}
	}
}

func WithQuerier(q Querier) ClientOption {
	return func(c *Client) { c.q = q }
}

func NewClient(timeout time.Duration, opts ...ClientOption) *Client {
	lc := lwhois.NewClient()
	if timeout > 0 {
		lc.SetTimeout(timeout)
	}
	c := &Client{q: lc}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Lookup consulta o domínio e devolve o registro cru. Um registro sem
// campos é devolvido sem erro; a classificação fica com o chamador.
func (c *Client) Lookup(ctx context.Context, domain string) (RawRecord, error) {
	type result struct {
		text string
		err  error
	}
	// a biblioteca não aceita context; a goroutine termina sozinha pelo
	// timeout do próprio client
	ch := make(chan result, 1)
	go func() {
		text, err := c.q.Whois(domain, c.servers...)
		ch <- result{text: text, err: err}
	}()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.err != nil {
			return nil, fmt.Errorf("whois query %s: %w", domain, res.err)
		}
		return Parse(res.text), nil
	}
}
