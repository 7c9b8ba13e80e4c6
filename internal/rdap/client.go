package rdap

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/tidwall/gjson"
	"golang.org/x/time/rate"
)

const (
	ComBaseURL     = "https://rdap.verisign.com/com/v1"
	DefaultBaseURL = "https://rdap.org"

	NotFoundMessage = "RDAP data not found for this domain. It might not exist or the RDAP server doesn't have data for this TLD."

	maxBodyBytes = 2 << 20
)

// ErrMalformed indica um corpo de resposta que não é um documento RDAP.
var ErrMalformed = errors.New("rdap: malformed response")

// StatusError é uma resposta HTTP fora de 2xx. Message já vem pronta para o
// usuário: texto fixo para 404, description/title do servidor nos demais.
type StatusError struct {
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string { return e.Message }

func (e *StatusError) NotFound() bool { return e.StatusCode == http.StatusNotFound }

// Client consulta servidores RDAP. O servidor é escolhido pela TLD: a
// Verisign atende .com e o agregador rdap.org atende o resto.
type Client struct {
	hc         *http.Client
	comURL     string
	defaultURL string
	limiter    *rate.Limiter
	userAgent  string
}

type ClientOption func(*Client)

func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) { c.hc = hc }
}

// WithBaseURLs troca os servidores (útil para testes e espelhos locais).
// Valores vazios mantêm o padrão.
func WithBaseURLs(com, fallback string) ClientOption {
	return func(c *Client) {
		if com = strings.TrimRight(strings.TrimSpace(com), "/"); com != "" {
			c.comURL = com
		}
		if fallback = strings.TrimRight(strings.TrimSpace(fallback), "/"); fallback != "" {
			c.defaultURL = fallback
		}
	}
}

// WithRateLimit limita as requisições de saída (token bucket). rps <= 0
// desliga o limite.
func WithRateLimit(rps float64, burst int) ClientOption {
	return func(c *Client) {
		if rps <= 0 {
			c.limiter = nil
			return
		}
		if burst <= 0 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

func WithUserAgent(ua string) ClientOption {
	return func(c *Client) { c.userAgent = ua }
}

func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		hc:         &http.Client{Timeout: 30 * time.Second},
		comURL:     ComBaseURL,
		defaultURL: DefaultBaseURL,
		userAgent:  "whois-gateway",
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Endpoint devolve a URL consultada para o domínio.
func (c *Client) Endpoint(domain string) string {
	base := c.defaultURL
	if topLabel(domain) == "com" {
		base = c.comURL
	}
	return base + "/domain/" + url.PathEscape(domain)
}

func topLabel(domain string) string {
	d := strings.ToLower(strings.TrimSuffix(strings.TrimSpace(domain), "."))
	if i := strings.LastIndexByte(d, '.'); i >= 0 {
		return d[i+1:]
	}
	return d
}

// Lookup busca o documento RDAP do domínio.
func (c *Client) Lookup(ctx context.Context, domain string) (*Document, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rdap throttle: %w", err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.Endpoint(domain), nil)
	if err != nil {
		return nil, fmt.Errorf("rdap request: %w", err)
	}
	req.Header.Set("Accept", "application/rdap+json, application/json")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.hc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("rdap request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("rdap read body: %w", err)
	}

	if resp.StatusCode == http.StatusNotFound {
		return nil, &StatusError{StatusCode: resp.StatusCode, Message: NotFoundMessage}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{StatusCode: resp.StatusCode, Message: errorMessage(resp.StatusCode, body)}
	}

	var doc Document
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return &doc, nil
}

// errorMessage lê description ou title do corpo de erro RDAP (RFC 9083 §6).
func errorMessage(status int, body []byte) string {
	if gjson.ValidBytes(body) {
		desc := gjson.GetBytes(body, "description")
		if desc.IsArray() {
			var parts []string
			for _, d := range desc.Array() {
				if s := strings.TrimSpace(d.String()); s != "" {
					parts = append(parts, s)
				}
			}
			if len(parts) > 0 {
				return strings.Join(parts, " ")
			}
		} else if s := strings.TrimSpace(desc.String()); s != "" {
			return s
		}
		if s := strings.TrimSpace(gjson.GetBytes(body, "title").String()); s != "" {
			return s
		}
	}
	return fmt.Sprintf("RDAP lookup failed with status %d", status)
}
