package whois

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// Value é um valor cru de WHOIS: texto simples ou sequência de textos.
// O zero value representa ausência.
type Value struct {
	text   string
	list   []string
	isList bool
}

func Text(s string) Value { return Value{text: s} }

func List(items ...string) Value {
	return Value{list: append([]string(nil), items...), isList: true}
}

func (v Value) IsList() bool { return v.isList }

// Strings devolve os elementos não vazios, sem separar texto por espaços.
func (v Value) Strings() []string {
	if !v.isList {
		if s := strings.TrimSpace(v.text); s != "" {
			return []string{s}
		}
		return nil
	}
	out := make([]string, 0, len(v.list))
	for _, s := range v.list {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// Fields separa texto em espaços; listas são mantidas elemento a elemento.
func (v Value) Fields() []string {
	if !v.isList {
		return strings.Fields(v.text)
	}
	return v.Strings()
}

// First é o primeiro elemento não vazio.
func (v Value) First() string {
	if s := v.Strings(); len(s) > 0 {
		return s[0]
	}
	return ""
}

func (v Value) IsEmpty() bool { return v.First() == "" }

func (v Value) String() string { return strings.Join(v.Strings(), ", ") }

// append transforma o valor em lista quando a mesma chave aparece de novo.
func (v Value) append(s string) Value {
	if v.isList {
		return List(append(v.list, s)...)
	}
	return List(v.text, s)
}

func (v Value) MarshalJSON() ([]byte, error) {
	if v.isList {
		if v.list == nil {
			return []byte("[]"), nil
		}
		return json.Marshal(v.list)
	}
	return json.Marshal(v.text)
}

func (v *Value) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case len(b) == 0 || bytes.Equal(b, []byte("null")):
		*v = Value{}
		return nil
	case b[0] == '[':
		var raw []json.RawMessage
		if err := json.Unmarshal(b, &raw); err != nil {
			return err
		}
		items := make([]string, 0, len(raw))
		for _, r := range raw {
			var item Value
			if err := item.UnmarshalJSON(r); err != nil {
				return err
			}
			items = append(items, item.Strings()...)
		}
		*v = List(items...)
		return nil
	case b[0] == '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*v = Text(s)
		return nil
	case b[0] == '{':
		return fmt.Errorf("whois: unsupported object value")
	default:
		// número ou booleano: preserva o texto literal
		*v = Text(string(b))
		return nil
	}
}

// RawRecord é o mapa cru devolvido pelo provedor. Não deve ser alterado
// depois de produzido.
type RawRecord map[string]Value

// Get devolve o valor da primeira chave presente e não vazia.
func (r RawRecord) Get(keys ...string) (Value, bool) {
	for _, k := range keys {
		if v, ok := r[k]; ok && !v.IsEmpty() {
			return v, true
		}
	}
	return Value{}, false
}

// Lookup é Get reduzido ao primeiro texto.
func (r RawRecord) Lookup(keys ...string) string {
	v, _ := r.Get(keys...)
	return v.First()
}
