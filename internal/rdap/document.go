// Package rdap decodifica respostas RDAP de domínio, extrai contatos dos
// vCards e normaliza o documento para o registro canônico.
package rdap

import "strings"

type Link struct {
	Value string `json:"value,omitempty"`
	Rel   string `json:"rel,omitempty"`
	Href  string `json:"href,omitempty"`
	Type  string `json:"type,omitempty"`
}

// Notice cobre notices e remarks.
type Notice struct {
	Title       string   `json:"title,omitempty"`
	Description []string `json:"description,omitempty"`
	Links       []Link   `json:"links,omitempty"`
}

type Event struct {
	Action string `json:"eventAction"`
	Actor  string `json:"eventActor,omitempty"`
	Date   string `json:"eventDate"`
}

type PublicID struct {
	Type       string `json:"type"`
	Identifier string `json:"identifier"`
}

type Nameserver struct {
	LDHName     string   `json:"ldhName,omitempty"`
	UnicodeName string   `json:"unicodeName,omitempty"`
	Status      []string `json:"status,omitempty"`
}

type DSData struct {
	KeyTag     int    `json:"keyTag"`
	Algorithm  int    `json:"algorithm"`
	DigestType int    `json:"digestType"`
	Digest     string `json:"digest"`
}

type SecureDNS struct {
	ZoneSigned       *bool    `json:"zoneSigned,omitempty"`
	DelegationSigned *bool    `json:"delegationSigned,omitempty"`
	MaxSigLife       int      `json:"maxSigLife,omitempty"`
	DSData           []DSData `json:"dsData,omitempty"`
}

type Entity struct {
	ObjectClassName string     `json:"objectClassName,omitempty"`
	Handle          string     `json:"handle,omitempty"`
	Roles           []string   `json:"roles,omitempty"`
	VCard           *VCard     `json:"vcardArray,omitempty"`
	PublicIDs       []PublicID `json:"publicIds,omitempty"`
	Entities        []Entity   `json:"entities,omitempty"`
}

// HasRole compara sem diferenciar maiúsculas.
func (e Entity) HasRole(role string) bool {
	for _, r := range e.Roles {
		if strings.EqualFold(r, role) {
			return true
		}
	}
	return false
}

// Document é a resposta RDAP de um domínio. Alguns servidores incluem
// termsOfService e copyright fora do padrão; os dois são repassados.
type Document struct {
	ObjectClassName string       `json:"objectClassName,omitempty"`
	Handle          string       `json:"handle,omitempty"`
	LDHName         string       `json:"ldhName,omitempty"`
	UnicodeName     string       `json:"unicodeName,omitempty"`
	Name            string       `json:"name,omitempty"`
	Status          []string     `json:"status,omitempty"`
	Port43          string       `json:"port43,omitempty"`
	Events          []Event      `json:"events,omitempty"`
	Entities        []Entity     `json:"entities,omitempty"`
	Nameservers     []Nameserver `json:"nameservers,omitempty"`
	SecureDNS       *SecureDNS   `json:"secureDNS,omitempty"`
	PublicIDs       []PublicID   `json:"publicIds,omitempty"`
	Notices         []Notice     `json:"notices,omitempty"`
	Remarks         []Notice     `json:"remarks,omitempty"`
	Links           []Link       `json:"links,omitempty"`
	TermsOfService  string       `json:"termsOfService,omitempty"`
	Copyright       string       `json:"copyright,omitempty"`
}

// IsEmpty indica um documento sem nenhuma informação aproveitável.
func (d *Document) IsEmpty() bool {
	if d == nil {
		return true
	}
	return d.Handle == "" && d.LDHName == "" && d.UnicodeName == "" && d.Name == "" &&
		len(d.Status) == 0 && d.Port43 == "" && len(d.Events) == 0 && len(d.Entities) == 0 &&
		len(d.Nameservers) == 0 && d.SecureDNS == nil && len(d.PublicIDs) == 0 &&
		len(d.Notices) == 0 && len(d.Remarks) == 0 && len(d.Links) == 0 &&
		d.TermsOfService == "" && d.Copyright == ""
}
