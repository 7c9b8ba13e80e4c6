package rdap

import (
	"bytes"
	"encoding/json"
	"strings"

	"whois-gateway/internal/record"
)

// adrComponents é o tamanho mínimo de um `adr` estruturado:
// [caixa postal, complemento, rua, cidade, estado, CEP, país].
const adrComponents = 7

// PropertyValue é o quarto elemento de uma propriedade jCard: um texto ou
// uma lista de componentes (usada por `adr`, `n`, ...).
type PropertyValue struct {
	text   string
	parts  []string
	isList bool
}

func (v PropertyValue) IsList() bool { return v.isList }

// Text devolve o valor apenas quando ele é um texto simples.
func (v PropertyValue) Text() (string, bool) {
	if v.isList {
		return "", false
	}
	return v.text, v.text != ""
}

func (v PropertyValue) Components() []string { return v.parts }

func decodeValue(raw json.RawMessage) PropertyValue {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return PropertyValue{}
	}
	switch raw[0] {
	case '"':
		var s string
		_ = json.Unmarshal(raw, &s)
		return PropertyValue{text: s}
	case '[':
		var items []json.RawMessage
		if err := json.Unmarshal(raw, &items); err != nil {
			return PropertyValue{}
		}
		parts := make([]string, len(items))
		for i, it := range items {
			v := decodeValue(it)
			if v.isList {
				// componente com várias linhas (ex.: rua em duas linhas)
				parts[i] = strings.Join(v.parts, ", ")
				continue
			}
			parts[i] = v.text
		}
		return PropertyValue{parts: parts, isList: true}
	case '{', 'n':
		return PropertyValue{}
	default:
		return PropertyValue{text: string(raw)}
	}
}

// Property é uma propriedade jCard: [nome, parâmetros, tipo, valor].
type Property struct {
	name      string
	params    map[string]any
	valueType string
	value     PropertyValue
}

func (p Property) Name() string           { return p.name }
func (p Property) Params() map[string]any { return p.params }
func (p Property) ValueType() string      { return p.valueType }
func (p Property) Value() PropertyValue   { return p.value }

// HasType indica se o parâmetro "type" contém t (ex.: tel com type=fax).
func (p Property) HasType(t string) bool {
	switch v := p.params["type"].(type) {
	case string:
		return strings.EqualFold(v, t)
	case []any:
		for _, it := range v {
			if s, ok := it.(string); ok && strings.EqualFold(s, t) {
				return true
			}
		}
	}
	return false
}

// VCard é o `vcardArray` de uma entidade: ["vcard", [propriedades...]].
//
// A decodificação nunca falha: formatos inesperados resultam em propriedades
// ausentes, sem derrubar o documento inteiro.
type VCard struct {
	props []Property
	raw   json.RawMessage
}

func (v *VCard) UnmarshalJSON(b []byte) error {
	*v = VCard{raw: append(json.RawMessage(nil), b...)}

	var outer []json.RawMessage
	if err := json.Unmarshal(b, &outer); err != nil || len(outer) < 2 {
		return nil
	}
	var list []json.RawMessage
	if err := json.Unmarshal(outer[1], &list); err != nil {
		return nil
	}
	for _, item := range list {
		var tuple []json.RawMessage
		if err := json.Unmarshal(item, &tuple); err != nil || len(tuple) < 4 {
			continue
		}
		var p Property
		if err := json.Unmarshal(tuple[0], &p.name); err != nil {
			continue
		}
		_ = json.Unmarshal(tuple[1], &p.params)
		_ = json.Unmarshal(tuple[2], &p.valueType)
		p.value = decodeValue(tuple[3])
		v.props = append(v.props, p)
	}
	return nil
}

// MarshalJSON devolve o documento original para o repasse ao cliente.
func (v VCard) MarshalJSON() ([]byte, error) {
	if len(v.raw) == 0 {
		return []byte("null"), nil
	}
	return v.raw, nil
}

func (v *VCard) Properties() []Property {
	if v == nil {
		return nil
	}
	return v.props
}

// Get devolve a primeira propriedade com o nome exato.
func (v *VCard) Get(name string) (Property, bool) {
	for _, p := range v.Properties() {
		if p.name == name {
			return p, true
		}
	}
	return Property{}, false
}

func (v *VCard) field(name string) string {
	s, _ := ExtractField(v, name)
	return s
}

func (v *VCard) FN() string          { return v.field("fn") }
func (v *VCard) Org() string         { return v.field("org") }
func (v *VCard) Email() string       { return v.field("email") }
func (v *VCard) Tel() string         { return v.field("tel") }
func (v *VCard) Adr() record.Address { return ExtractAddress(v) }

// Fax procura um `tel` marcado com type=fax.
func (v *VCard) Fax() string {
	for _, p := range v.Properties() {
		if p.name != "tel" || !p.HasType("fax") {
			continue
		}
		if s, ok := p.value.Text(); ok {
			return s
		}
	}
	return ""
}

// ExtractField devolve o valor textual da primeira propriedade chamada
// fieldType. Valores estruturados resultam em ausência.
func ExtractField(v *VCard, fieldType string) (string, bool) {
	p, ok := v.Get(fieldType)
	if !ok {
		return "", false
	}
	return p.value.Text()
}

// ExtractAddress interpreta `adr` de forma posicional. Um texto simples vira
// apenas a rua; listas com menos de sete componentes são ignoradas.
func ExtractAddress(v *VCard) record.Address {
	p, ok := v.Get("adr")
	if !ok {
		return record.Address{}
	}
	if s, ok := p.value.Text(); ok {
		return record.Address{Street: s}
	}
	parts := p.value.Components()
	if len(parts) < adrComponents {
		return record.Address{}
	}
	return record.Address{
		Street:     parts[2],
		City:       parts[3],
		State:      parts[4],
		PostalCode: parts[5],
		Country:    parts[6],
	}
}

// Contact monta o bloco canônico de contato a partir do vCard.
func (v *VCard) Contact() record.Contact {
	return record.Contact{
		Name:         v.FN(),
		Organization: v.Org(),
		Email:        v.Email(),
		Phone:        v.Tel(),
		Fax:          v.Fax(),
		Address:      v.Adr(),
	}
}
