package rdap

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeVCard(t *testing.T, s string) *VCard {
	t.Helper()
	var v VCard
	require.NoError(t, json.Unmarshal([]byte(s), &v))
	return &v
}

func TestExtractField(t *testing.T) {
	v := decodeVCard(t, `["vcard", [
		["version", {}, "text", "4.0"],
		["fn", {}, "text", "Jane Doe"],
		["org", {}, "text", ["Acme", "R&D"]],
		["email", {}, "text", "jane@example.com"],
		["fn", {}, "text", "Second Name"]
	]]`)

	name, ok := ExtractField(v, "fn")
	require.True(t, ok)
	assert.Equal(t, "Jane Doe", name)

	_, ok = ExtractField(v, "org")
	assert.False(t, ok, "structured value is not a scalar")

	_, ok = ExtractField(v, "FN")
	assert.False(t, ok, "match is case-sensitive")

	_, ok = ExtractField(nil, "fn")
	assert.False(t, ok)
}

func TestExtractAddress(t *testing.T) {
	t.Run("seven components", func(t *testing.T) {
		v := decodeVCard(t, `["vcard", [
			["adr", {}, "text", ["PO 1", "Suite 2", "1 Main St", "Springfield", "IL", "62701", "US"]]
		]]`)
		a := ExtractAddress(v)
		assert.Equal(t, "1 Main St", a.Street)
		assert.Equal(t, "Springfield", a.City)
		assert.Equal(t, "IL", a.State)
		assert.Equal(t, "62701", a.PostalCode)
		assert.Equal(t, "US", a.Country)
	})

	t.Run("multi-line street", func(t *testing.T) {
		v := decodeVCard(t, `["vcard", [
			["adr", {}, "text", ["", "", ["1 Main St", "Floor 2"], "Springfield", "", "", "US"]]
		]]`)
		assert.Equal(t, "1 Main St, Floor 2", ExtractAddress(v).Street)
	})

	t.Run("plain string is street only", func(t *testing.T) {
		v := decodeVCard(t, `["vcard", [["adr", {}, "text", "1 Main St, Springfield"]]]`)
		a := ExtractAddress(v)
		assert.Equal(t, "1 Main St, Springfield", a.Street)
		assert.Empty(t, a.City)
		assert.Empty(t, a.Country)
	})

	t.Run("missing adr", func(t *testing.T) {
		v := decodeVCard(t, `["vcard", [["fn", {}, "text", "x"]]]`)
		assert.True(t, ExtractAddress(v).IsEmpty())
		assert.True(t, ExtractAddress(nil).IsEmpty())
	})

	t.Run("too few components", func(t *testing.T) {
		v := decodeVCard(t, `["vcard", [["adr", {}, "text", ["", "", "1 Main St"]]]]`)
		assert.True(t, ExtractAddress(v).IsEmpty())
	})
}

func TestVCard_MalformedNeverFails(t *testing.T) {
	for _, s := range []string{
		`"not an array"`,
		`["vcard"]`,
		`["vcard", "oops"]`,
		`["vcard", [["fn"], 42, ["fn", {}, "text", "ok"]]]`,
		`{"weird": true}`,
	} {
		var v VCard
		require.NoError(t, json.Unmarshal([]byte(s), &v), s)
	}

	v := decodeVCard(t, `["vcard", [["fn"], 42, ["fn", {}, "text", "ok"]]]`)
	assert.Equal(t, "ok", v.FN())
}

func TestVCard_ContactAndFax(t *testing.T) {
	v := decodeVCard(t, `["vcard", [
		["fn", {}, "text", "Ops"],
		["tel", {"type": ["voice"]}, "uri", "tel:+1.5551234"],
		["tel", {"type": "fax"}, "uri", "tel:+1.5554321"],
		["email", {}, "text", "ops@example.net"]
	]]`)
	c := v.Contact()
	assert.Equal(t, "Ops", c.Name)
	assert.Equal(t, "tel:+1.5551234", c.Phone)
	assert.Equal(t, "tel:+1.5554321", c.Fax)
	assert.Equal(t, "ops@example.net", c.Email)
}

func TestVCard_MarshalKeepsOriginal(t *testing.T) {
	src := `["vcard",[["fn",{},"text","A"]]]`
	v := decodeVCard(t, src)
	b, err := json.Marshal(v)
	require.NoError(t, err)
	assert.JSONEq(t, src, string(b))
}
