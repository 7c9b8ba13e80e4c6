// Package record define a visão canônica de um domínio, compartilhada pelos
// normalizadores de WHOIS e RDAP e pela camada HTTP.
package record

import "strings"

// Address segue a convenção posicional do vCard `adr` (rua, cidade, estado,
// CEP, país). Campos vazios significam ausência.
type Address struct {
	Street     string `json:"street,omitempty"`
	City       string `json:"city,omitempty"`
	State      string `json:"state,omitempty"`
	PostalCode string `json:"postalCode,omitempty"`
	Country    string `json:"country,omitempty"`
}

func (a Address) IsEmpty() bool {
	return a.Street == "" && a.City == "" && a.State == "" && a.PostalCode == "" && a.Country == ""
}

// Contact é um bloco de contato (registrant, admin, tech, ...).
type Contact struct {
	Name         string `json:"name,omitempty"`
	Organization string `json:"organization,omitempty"`
	Email        string `json:"email,omitempty"`
	Phone        string `json:"phone,omitempty"`
	Fax          string `json:"fax,omitempty"`
	Address
}

func (c Contact) IsEmpty() bool {
	return c.Name == "" && c.Organization == "" && c.Email == "" &&
		c.Phone == "" && c.Fax == "" && c.Address.IsEmpty()
}

// Domain é o registro canônico.
//
// Todo campo é um valor normalizado ou ausente (zero value / nil). Nenhuma
// chave crua do provedor aparece aqui.
type Domain struct {
	Name string `json:"domainName,omitempty"`

	CreatedAt         *Timestamp `json:"creationDate,omitempty"`
	UpdatedAt         *Timestamp `json:"updatedDate,omitempty"`
	ExpiresAt         *Timestamp `json:"expirationDate,omitempty"`
	DatabaseUpdatedAt *Timestamp `json:"lastUpdateOfWhoisDatabase,omitempty"`

	Registrar       string `json:"registrar,omitempty"`
	RegistrarURL    string `json:"registrarUrl,omitempty"`
	RegistrarIANAID string `json:"registrarIanaId,omitempty"`
	RegistrarPhone  string `json:"registrarPhone,omitempty"`
	RegistrarEmail  string `json:"registrarEmail,omitempty"`

	WhoisServer      string   `json:"whoisServer,omitempty"`
	RegistryDomainID string   `json:"registryDomainId,omitempty"`
	Status           []string `json:"status,omitempty"`
	NameServers      []string `json:"nameServers,omitempty"`
	DNSSEC           string   `json:"dnssec,omitempty"`

	Registrant *Contact `json:"registrant,omitempty"`
	Admin      *Contact `json:"admin,omitempty"`
	Tech       *Contact `json:"tech,omitempty"`

	ICANNReportURL string `json:"icannReportUrl,omitempty"`
}

// NonEmpty devolve nil para contatos sem nenhum campo preenchido.
func NonEmpty(c Contact) *Contact {
	if c.IsEmpty() {
		return nil
	}
	return &c
}

// Dedup remove vazios e repetidos preservando a ordem.
func Dedup(values []string) []string {
	if len(values) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
