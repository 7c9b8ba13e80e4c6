package record

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

// Timestamp guarda o instante interpretado ou, quando o texto do provedor não
// é uma data reconhecível, o texto original sem alteração.
type Timestamp struct {
	Time time.Time
	Raw  string
}

// ParseTimestamp interpreta s em UTC. Retorna nil apenas para s vazio.
func ParseTimestamp(s string) *Timestamp {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	ts := &Timestamp{Raw: s}
	if !strings.ContainsAny(s, "0123456789") {
		return ts
	}
	if t, err := dateparse.ParseIn(s, time.UTC); err == nil {
		ts.Time = t.UTC()
	}
	return ts
}

// Parsed indica se Raw foi reconhecido como data.
func (t Timestamp) Parsed() bool { return !t.Time.IsZero() }

func (t Timestamp) String() string {
	if t.Parsed() {
		return t.Time.Format(time.RFC3339)
	}
	return t.Raw
}

func (t Timestamp) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

func (t *Timestamp) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	if p := ParseTimestamp(s); p != nil {
		*t = *p
	}
	return nil
}
