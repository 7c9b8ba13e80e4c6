// Package lookup consulta WHOIS e RDAP em paralelo e junta os resultados
// normalizados.
package lookup

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"whois-gateway/internal/metrics"
	"whois-gateway/internal/rdap"
	"whois-gateway/internal/record"
	"whois-gateway/internal/whois"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

const (
	DefaultTimeout = 15 * time.Second

	MsgDomainRequired = "Domain name is required"
	MsgNoWhoisData    = "No WHOIS data returned for this domain."
	MsgNoRDAPData     = "RDAP returned no data for this domain."

	WhoisFailurePrefix = "Failed to retrieve WHOIS data. The server may be unavailable or the domain is invalid. Details: "
)

type WhoisProvider interface {
	Lookup(ctx context.Context, domain string) (whois.RawRecord, error)
}

type RDAPProvider interface {
	Lookup(ctx context.Context, domain string) (*rdap.Document, error)
}

// Result traz as duas fontes e os erros na ordem WHOIS, RDAP. Uma fonte que
// falhou fica nil.
type Result struct {
	Domain string         `json:"domain"`
	Whois  *record.Domain `json:"whois"`
	RDAP   *rdap.Record   `json:"rdap"`
	Errors []string       `json:"errors"`

	Failures []*ProviderError `json:"-"`
}

type Orchestrator struct {
	whois   WhoisProvider
	rdap    RDAPProvider
	timeout time.Duration
	log     logrus.FieldLogger
	metrics *metrics.Metrics
}

type Option func(*Orchestrator)

// WithTimeout vale para cada provedor separadamente.
func WithTimeout(d time.Duration) Option {
	return func(o *Orchestrator) {
		if d > 0 {
			o.timeout = d
		}
	}
}

func WithLogger(l logrus.FieldLogger) Option {
	return func(o *Orchestrator) { o.log = l }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(o *Orchestrator) { o.metrics = m }
}

func New(w WhoisProvider, r RDAPProvider, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		whois:   w,
		rdap:    r,
		timeout: DefaultTimeout,
		log:     logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(o)
	}
	o.log = o.log.WithField("component", "lookup")
	return o
}

func validate(domain string) (string, error) {
	d := strings.TrimSpace(domain)
	if d == "" {
		return "", &ValidationError{Message: MsgDomainRequired}
	}
	return d, nil
}

// Lookup consulta as duas fontes ao mesmo tempo. Só devolve erro para
// domínio vazio; falhas de provedor ficam em Result.Errors.
func (o *Orchestrator) Lookup(ctx context.Context, domain string) (*Result, error) {
	d, err := validate(domain)
	if err != nil {
		return nil, err
	}
	defer o.metrics.Track()()

	res := &Result{Domain: d, Errors: []string{}}
	var whoisErr, rdapErr error

	var g errgroup.Group
	g.Go(func() error {
		res.Whois, whoisErr = o.lookupWhois(ctx, d)
		return nil
	})
	g.Go(func() error {
		res.RDAP, rdapErr = o.lookupRDAP(ctx, d)
		return nil
	})
	_ = g.Wait()

	for _, err := range []error{whoisErr, rdapErr} {
		var pe *ProviderError
		if errors.As(err, &pe) {
			res.Failures = append(res.Failures, pe)
			res.Errors = append(res.Errors, pe.Prefixed())
		}
	}
	return res, nil
}

// Whois consulta apenas a fonte WHOIS.
func (o *Orchestrator) Whois(ctx context.Context, domain string) (*record.Domain, error) {
	d, err := validate(domain)
	if err != nil {
		return nil, err
	}
	defer o.metrics.Track()()
	return o.lookupWhois(ctx, d)
}

// RDAP consulta apenas a fonte RDAP.
func (o *Orchestrator) RDAP(ctx context.Context, domain string) (*rdap.Record, error) {
	d, err := validate(domain)
	if err != nil {
		return nil, err
	}
	defer o.metrics.Track()()
	return o.lookupRDAP(ctx, d)
}

func (o *Orchestrator) lookupWhois(ctx context.Context, domain string) (rec *record.Domain, err error) {
	start := time.Now()
	defer func() { o.observe(SourceWhois, domain, start, err) }()

	ctx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	raw, err := o.whois.Lookup(ctx, domain)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, o.timeoutError(SourceWhois, err)
		}
		return nil, &ProviderError{
			Kind:     KindProviderUnavailable,
			Provider: SourceWhois,
			Message:  WhoisFailurePrefix + err.Error(),
			Err:      err,
		}
	}

	d, err := whois.Normalize(raw)
	if err != nil {
		return nil, &ProviderError{Kind: KindNoData, Provider: SourceWhois, Message: MsgNoWhoisData, Err: err}
	}
	return &d, nil
}

func (o *Orchestrator) lookupRDAP(ctx context.Context, domain string) (rec *rdap.Record, err error) {
	start := time.Now()
	defer func() { o.observe(SourceRDAP, domain, start, err) }()

	ctx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	doc, err := o.rdap.Lookup(ctx, domain)
	if err != nil {
		return nil, o.classifyRDAP(err)
	}

	rec, err = rdap.Normalize(doc)
	if err != nil {
		return nil, &ProviderError{Kind: KindNoData, Provider: SourceRDAP, Message: MsgNoRDAPData, Err: err}
	}
	return rec, nil
}

func (o *Orchestrator) classifyRDAP(err error) *ProviderError {
	pe := &ProviderError{Kind: KindProviderUnavailable, Provider: SourceRDAP, Message: err.Error(), Err: err}

	var se *rdap.StatusError
	switch {
	case errors.As(err, &se) && se.NotFound():
		pe.Kind = KindNotFound
		pe.Message = rdap.NotFoundMessage
	case errors.As(err, &se):
		pe.Message = se.Message
	case errors.Is(err, rdap.ErrMalformed):
		pe.Kind = KindMalformed
	case errors.Is(err, context.DeadlineExceeded):
		return o.timeoutError(SourceRDAP, err)
	}
	return pe
}

func (o *Orchestrator) timeoutError(source string, err error) *ProviderError {
	return &ProviderError{
		Kind:     KindTimeout,
		Provider: source,
		Message:  fmt.Sprintf("%s lookup timed out after %s", strings.ToUpper(source), o.timeout),
		Err:      err,
	}
}

func (o *Orchestrator) observe(source, domain string, start time.Time, err error) {
	took := time.Since(start)
	outcome := "ok"
	if err != nil {
		outcome = string(KindOf(err))
	}
	o.metrics.ObserveProvider(source, outcome, took)

	entry := o.log.WithFields(logrus.Fields{
		"source":   source,
		"domain":   domain,
		"outcome":  outcome,
		"duration": took.String(),
	})
	if err != nil {
		entry.WithError(err).Warn("provider lookup failed")
		return
	}
	entry.Debug("provider lookup done")
}
