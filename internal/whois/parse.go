package whois

import (
	"bufio"
	"strings"
	"unicode"
	"unicode/utf8"
)

const maxKeyWords = 10

// Parse converte a resposta textual de um servidor WHOIS ("Chave: valor") em
// RawRecord. As chaves viram camelCase (ex.: "Registry Expiry Date" vira
// "registryExpiryDate"); chaves repetidas acumulam em lista.
func Parse(text string) RawRecord {
	rec := RawRecord{}
	sc := bufio.NewScanner(strings.NewReader(text))
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || line[0] == '%' || line[0] == '#' {
			continue
		}
		line = strings.TrimSpace(strings.TrimPrefix(line, ">>>"))

		k, v, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		v = strings.TrimSpace(v)
		key := camelKey(k)
		if key == "" || v == "" {
			continue
		}
		if prev, exists := rec[key]; exists {
			rec[key] = prev.append(v)
			continue
		}
		rec[key] = Text(v)
	}
	return rec
}

// camelKey devolve "" para textos que não parecem nome de campo (frases de
// aviso legal, URLs, ...).
func camelKey(k string) string {
	for _, r := range k {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) && !strings.ContainsRune(" /-_().", r) {
			return ""
		}
	}
	words := strings.FieldsFunc(k, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	if len(words) == 0 || len(words) > maxKeyWords {
		return ""
	}

	var b strings.Builder
	for i, w := range words {
		if i == 0 {
			b.WriteString(strings.ToLower(w))
			continue
		}
		// siglas curtas (URL, IANA, ID) ficam como estão
		if utf8.RuneCountInString(w) <= 4 && strings.ToUpper(w) == w {
			b.WriteString(w)
			continue
		}
		r, size := utf8.DecodeRuneInString(w)
		b.WriteRune(unicode.ToUpper(r))
		b.WriteString(strings.ToLower(w[size:]))
	}
	return b.String()
}
