package whois

import (
	"errors"
	"strings"

	"whois-gateway/internal/record"
)

// ErrEmptyRecord indica que o provedor respondeu sem nenhum campo. É distinto
// de uma falha de transporte: o domínio pode simplesmente não ter WHOIS
// público.
var ErrEmptyRecord = errors.New("whois: empty record")

// alias associa um campo canônico às grafias conhecidas, em ordem de
// prioridade. A primeira chave presente e não vazia vence.
type alias struct {
	keys []string
	set  func(d *record.Domain, v string)
}

func timestamp(dst func(d *record.Domain) **record.Timestamp) func(*record.Domain, string) {
	return func(d *record.Domain, v string) { *dst(d) = record.ParseTimestamp(v) }
}

var domainAliases = []alias{
	{[]string{"domainName", "domain"}, func(d *record.Domain, v string) { d.Name = v }},
	{[]string{"creationDate", "creationdate"},
		timestamp(func(d *record.Domain) **record.Timestamp { return &d.CreatedAt })},
	{[]string{
		"registrarRegistrationExpirationDate",
		"registryExpiryDate",
		"expirationDate",
		"expiryDate",
		"expiresDate",
		"expirationdate",
		"Registry Expiry Date",
		"Registrar Registration Expiration Date",
		"Domain Expiration Date",
		"Expiration Time",
		"Valid Until",
	}, timestamp(func(d *record.Domain) **record.Timestamp { return &d.ExpiresAt })},
	{[]string{"updatedDate", "updateddate"},
		timestamp(func(d *record.Domain) **record.Timestamp { return &d.UpdatedAt })},
	{[]string{"lastUpdateOfWhoisDatabase"}, func(d *record.Domain, v string) {
		d.DatabaseUpdatedAt = record.ParseTimestamp(strings.TrimSuffix(strings.TrimSpace(v), "<<<"))
	}},
	{[]string{"registrar"}, func(d *record.Domain, v string) { d.Registrar = v }},
	{[]string{"registrarURL", "registrarUrl"}, func(d *record.Domain, v string) { d.RegistrarURL = v }},
	{[]string{"registrarIANAID", "registrarIanaId"}, func(d *record.Domain, v string) { d.RegistrarIANAID = v }},
	{[]string{"registrarAbuseContactPhone", "registrarTechContactPhone"},
		func(d *record.Domain, v string) { d.RegistrarPhone = v }},
	{[]string{"registrarAbuseContactEmail", "registrarTechContactEmail"},
		func(d *record.Domain, v string) { d.RegistrarEmail = v }},
	{[]string{"whoisServer", "registrarWhoisServer"}, func(d *record.Domain, v string) { d.WhoisServer = v }},
	{[]string{"registryDomainId", "registryDomainID"}, func(d *record.Domain, v string) { d.RegistryDomainID = v }},
	{[]string{"dnssec"}, func(d *record.Domain, v string) { d.DNSSEC = v }},
	{[]string{"urlOfTheIcannWhoisDataProblemReportingSystem"},
		func(d *record.Domain, v string) { d.ICANNReportURL = v }},
}

// contactAliases vale para qualquer papel; as chaves recebem o prefixo do
// papel (ex.: "registrant" + "Name").
var contactAliases = []struct {
	suffixes []string
	set      func(c *record.Contact, v string)
}{
	{[]string{"Name"}, func(c *record.Contact, v string) { c.Name = v }},
	{[]string{"Organization"}, func(c *record.Contact, v string) { c.Organization = v }},
	{[]string{"Email"}, func(c *record.Contact, v string) { c.Email = v }},
	{[]string{"Phone"}, func(c *record.Contact, v string) { c.Phone = v }},
	{[]string{"Fax"}, func(c *record.Contact, v string) { c.Fax = v }},
	{[]string{"Street", "Address"}, func(c *record.Contact, v string) { c.Street = v }},
	{[]string{"City"}, func(c *record.Contact, v string) { c.City = v }},
	{[]string{"StateProvince", "State"}, func(c *record.Contact, v string) { c.State = v }},
	{[]string{"PostalCode"}, func(c *record.Contact, v string) { c.PostalCode = v }},
	{[]string{"Country"}, func(c *record.Contact, v string) { c.Country = v }},
}

var (
	nameServerKeys = []string{"nameServer", "nameServers"}
	statusKeys     = []string{"domainStatus", "status"}
)

// Normalize reconcilia as grafias do registro cru na visão canônica.
// É pura: a mesma entrada sempre produz o mesmo resultado.
func Normalize(raw RawRecord) (record.Domain, error) {
	var d record.Domain
	if len(raw) == 0 {
		return d, ErrEmptyRecord
	}

	for _, a := range domainAliases {
		if v := raw.Lookup(a.keys...); v != "" {
			a.set(&d, v)
		}
	}

	if v, ok := raw.Get(nameServerKeys...); ok {
		d.NameServers = v.Fields()
	}
	// domainStatus e status nunca são mesclados
	if v, ok := raw.Get(statusKeys...); ok {
		d.Status = record.Dedup(v.Fields())
	}

	d.Registrant = contact(raw, "registrant")
	d.Admin = contact(raw, "admin")
	d.Tech = contact(raw, "tech")
	return d, nil
}

func contact(raw RawRecord, role string) *record.Contact {
	var c record.Contact
	for _, a := range contactAliases {
		keys := make([]string, len(a.suffixes))
		for i, s := range a.suffixes {
			keys[i] = role + s
		}
		if v := raw.Lookup(keys...); v != "" {
			a.set(&c, v)
		}
	}
	return record.NonEmpty(c)
}
