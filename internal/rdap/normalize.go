package rdap

import (
	"errors"
	"strings"

	"whois-gateway/internal/record"
)

// ErrNoData é devolvido para documentos vazios, no lugar de um registro
// parcialmente preenchido.
var ErrNoData = errors.New("rdap: no data")

const (
	RoleRegistrar      = "registrar"
	RoleRegistrant     = "registrant"
	RoleAdministrative = "administrative"
	RoleTechnical      = "technical"
	RoleAbuse          = "abuse"

	ianaRegistrarID = "IANA Registrar ID"
)

// RoleContact é um contato do documento com os papéis que ele exerce.
type RoleContact struct {
	Roles   []string       `json:"roles,omitempty"`
	Label   string         `json:"label"`
	Handle  string         `json:"handle,omitempty"`
	Contact record.Contact `json:"contact"`
}

// Record é o resultado da normalização: o registro canônico mais as partes
// do documento que passam sem alteração.
type Record struct {
	Domain         record.Domain `json:"domain"`
	Contacts       []RoleContact `json:"contacts,omitempty"`
	Events         []Event       `json:"events,omitempty"`
	Nameservers    []Nameserver  `json:"nameservers,omitempty"`
	SecureDNS      *SecureDNS    `json:"secureDNS,omitempty"`
	PublicIDs      []PublicID    `json:"publicIds,omitempty"`
	Notices        []Notice      `json:"notices,omitempty"`
	TermsOfService string        `json:"termsOfService,omitempty"`
	Copyright      string        `json:"copyright,omitempty"`
}

// Normalize converte o documento RDAP. Não altera doc.
func Normalize(doc *Document) (*Record, error) {
	if doc.IsEmpty() {
		return nil, ErrNoData
	}

	entities := flatten(doc.Entities)

	rec := &Record{
		Domain:         domainOf(doc, entities),
		Events:         doc.Events,
		Nameservers:    doc.Nameservers,
		SecureDNS:      doc.SecureDNS,
		PublicIDs:      doc.PublicIDs,
		Notices:        doc.Notices,
		TermsOfService: doc.TermsOfService,
		Copyright:      doc.Copyright,
	}
	for _, e := range entities {
		rec.Contacts = append(rec.Contacts, RoleContact{
			Roles:   e.Roles,
			Label:   roleLabel(e.Roles),
			Handle:  e.Handle,
			Contact: e.VCard.Contact(),
		})
	}
	return rec, nil
}

func domainOf(doc *Document, entities []Entity) record.Domain {
	d := record.Domain{
		Name:             firstNonEmpty(doc.LDHName, doc.Name),
		RegistryDomainID: doc.Handle,
		WhoisServer:      doc.Port43,
		Status:           record.Dedup(doc.Status),
	}

	for _, ns := range doc.Nameservers {
		if n := firstNonEmpty(ns.LDHName, ns.UnicodeName); n != "" {
			d.NameServers = append(d.NameServers, n)
		}
	}

	if doc.SecureDNS != nil && doc.SecureDNS.DelegationSigned != nil {
		d.DNSSEC = "unsigned"
		if *doc.SecureDNS.DelegationSigned {
			d.DNSSEC = "signedDelegation"
		}
	}

	for _, ev := range doc.Events {
		switch strings.ToLower(ev.Action) {
		case "registration":
			d.CreatedAt = record.ParseTimestamp(ev.Date)
		case "expiration":
			d.ExpiresAt = record.ParseTimestamp(ev.Date)
		case "last changed":
			d.UpdatedAt = record.ParseTimestamp(ev.Date)
		case "last update of rdap database":
			d.DatabaseUpdatedAt = record.ParseTimestamp(ev.Date)
		}
	}

	if reg, ok := withRole(entities, RoleRegistrar); ok {
		d.Registrar = firstNonEmpty(reg.VCard.FN(), reg.VCard.Org(), reg.Handle)
		for _, id := range reg.PublicIDs {
			if strings.EqualFold(id.Type, ianaRegistrarID) {
				d.RegistrarIANAID = id.Identifier
			}
		}
		if abuse, ok := withRole(reg.Entities, RoleAbuse); ok {
			d.RegistrarEmail = abuse.VCard.Email()
			d.RegistrarPhone = abuse.VCard.Tel()
		}
	}

	d.Registrant = contactWithRole(entities, RoleRegistrant)
	d.Admin = contactWithRole(entities, RoleAdministrative)
	d.Tech = contactWithRole(entities, RoleTechnical)
	return d
}

// flatten percorre as entidades em profundidade, preservando a ordem do
// documento.
func flatten(entities []Entity) []Entity {
	var out []Entity
	for _, e := range entities {
		out = append(out, e)
		out = append(out, flatten(e.Entities)...)
	}
	return out
}

func withRole(entities []Entity, role string) (Entity, bool) {
	for _, e := range entities {
		if e.HasRole(role) {
			return e, true
		}
	}
	return Entity{}, false
}

func contactWithRole(entities []Entity, role string) *record.Contact {
	e, ok := withRole(entities, role)
	if !ok {
		return nil
	}
	return record.NonEmpty(e.VCard.Contact())
}

func roleLabel(roles []string) string {
	if len(roles) == 0 {
		return "N/A"
	}
	return strings.Join(roles, ", ")
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
