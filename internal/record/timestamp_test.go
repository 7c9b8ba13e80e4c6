package record

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTimestamp(t *testing.T) {
	t.Run("rfc3339", func(t *testing.T) {
		ts := ParseTimestamp("2024-03-01T10:20:30Z")
		require.NotNil(t, ts)
		assert.True(t, ts.Parsed())
		assert.Equal(t, time.Date(2024, 3, 1, 10, 20, 30, 0, time.UTC), ts.Time)
	})

	t.Run("registry style", func(t *testing.T) {
		ts := ParseTimestamp("2025-09-14 04:00:00")
		require.NotNil(t, ts)
		assert.True(t, ts.Parsed())
		assert.Equal(t, 2025, ts.Time.Year())
	})

	t.Run("unparseable keeps raw text", func(t *testing.T) {
		ts := ParseTimestamp("before the registry existed")
		require.NotNil(t, ts)
		assert.False(t, ts.Parsed())
		assert.Equal(t, "before the registry existed", ts.String())
	})

	t.Run("empty is absent", func(t *testing.T) {
		assert.Nil(t, ParseTimestamp("   "))
	})
}

func TestTimestampJSON(t *testing.T) {
	b, err := json.Marshal(struct {
		A *Timestamp `json:"a"`
		B *Timestamp `json:"b"`
	}{
		A: ParseTimestamp("2024-03-01T10:20:30Z"),
		B: ParseTimestamp("n/a"),
	})
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":"2024-03-01T10:20:30Z","b":"n/a"}`, string(b))
}

func TestDedup(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, Dedup([]string{" a", "", "b", "a"}))
	assert.Nil(t, Dedup([]string{"", " "}))
}

func TestContactIsEmpty(t *testing.T) {
	assert.True(t, Contact{}.IsEmpty())
	assert.Nil(t, NonEmpty(Contact{}))
	c := NonEmpty(Contact{Address: Address{Country: "BR"}})
	require.NotNil(t, c)
	assert.Equal(t, "BR", c.Country)
}
