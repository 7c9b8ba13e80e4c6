package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"whois-gateway/internal/lookup"
	"whois-gateway/internal/rdap"
	"whois-gateway/internal/record"
	"whois-gateway/internal/whois"
	"whois-gateway/middleware/ratelimit"
	"whois-gateway/middleware/ratelimit/infra"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubWhois struct {
	rec whois.RawRecord
	err error
}

func (s stubWhois) Lookup(context.Context, string) (whois.RawRecord, error) { return s.rec, s.err }

type stubRDAP struct {
	doc *rdap.Document
	err error
}

func (s stubRDAP) Lookup(context.Context, string) (*rdap.Document, error) { return s.doc, s.err }

type panicLooker struct{}

func (panicLooker) Lookup(context.Context, string) (*lookup.Result, error) { panic("boom") }
func (panicLooker) Whois(context.Context, string) (*record.Domain, error)  { panic("boom") }
func (panicLooker) RDAP(context.Context, string) (*rdap.Record, error)     { panic("boom") }

func nullEntry() *logrus.Entry {
	logger, _ := test.NewNullLogger()
	return logrus.NewEntry(logger)
}

func newTestHandler(w stubWhois, r stubRDAP, guards ...Middleware) http.Handler {
	orch := lookup.New(w, r, lookup.WithLogger(nullEntry()))
	return NewHandler(Config{
		Lookup:   orch,
		Logger:   nullEntry(),
		Guards:   guards,
		Gatherer: prometheus.NewRegistry(),
		Health:   func() map[string]interface{} { return map[string]interface{}{"inFlight": 0} },
	})
}

func post(h http.Handler, path, body string, headers ...string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

var okWhois = stubWhois{rec: whois.RawRecord{
	"domainName":         whois.Text("EXAMPLE.COM"),
	"registryExpiryDate": whois.Text("2030-08-13T04:00:00Z"),
	"nameServer":         whois.Text("a.iana-servers.net b.iana-servers.net"),
}}

var okRDAP = stubRDAP{doc: &rdap.Document{LDHName: "EXAMPLE.COM"}}

func TestWhoisEndpoint(t *testing.T) {
	h := newTestHandler(okWhois, okRDAP)

	w := post(h, "/api/whois", `{"domain":"example.com"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get(requestIDHeader))

	data := decode(t, w)["data"].(map[string]interface{})
	assert.Equal(t, "EXAMPLE.COM", data["domainName"])
	assert.Equal(t, "2030-08-13T04:00:00Z", data["expirationDate"])
	assert.Equal(t, []interface{}{"a.iana-servers.net", "b.iana-servers.net"}, data["nameServers"])
}

func TestWhoisEndpoint_Errors(t *testing.T) {
	cases := []struct {
		name   string
		whois  stubWhois
		body   string
		status int
		msg    string
	}{
		{"missing domain", okWhois, `{}`, http.StatusBadRequest, "Domain name is required"},
		{"blank domain", okWhois, `{"domain":"  "}`, http.StatusBadRequest, "Domain name is required"},
		{"invalid json", okWhois, `{"domain":`, http.StatusBadRequest, "Domain name is required"},
		{"empty record", stubWhois{rec: whois.RawRecord{}}, `{"domain":"x.com"}`, http.StatusInternalServerError,
			"WHOIS lookup failed: Failed to retrieve WHOIS data. The server may be unavailable or the domain is invalid. Details: No WHOIS data returned for this domain."},
		{"provider down", stubWhois{err: errors.New("i/o timeout")}, `{"domain":"x.com"}`, http.StatusInternalServerError,
			"WHOIS lookup failed: Failed to retrieve WHOIS data. The server may be unavailable or the domain is invalid. Details: i/o timeout"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := post(newTestHandler(tc.whois, okRDAP), "/api/whois", tc.body)
			assert.Equal(t, tc.status, w.Code)
			assert.Equal(t, tc.msg, decode(t, w)["error"])
		})
	}
}

func TestLookupEndpoint_PartialFailure(t *testing.T) {
	notFound := stubRDAP{err: &rdap.StatusError{StatusCode: http.StatusNotFound, Message: rdap.NotFoundMessage}}
	h := newTestHandler(okWhois, notFound)

	w := post(h, "/api/lookup", `{"domain":"example.com"}`)
	require.Equal(t, http.StatusOK, w.Code)

	body := decode(t, w)
	assert.Equal(t, "example.com", body["domain"])
	assert.NotNil(t, body["whois"])
	assert.Nil(t, body["rdap"])
	assert.Equal(t, []interface{}{"RDAP Error: " + rdap.NotFoundMessage}, body["errors"])
}

func TestRDAPEndpoint(t *testing.T) {
	h := newTestHandler(okWhois, okRDAP)
	w := post(h, "/api/rdap", `{"domain":"example.com"}`)
	require.Equal(t, http.StatusOK, w.Code)
	data := decode(t, w)["data"].(map[string]interface{})
	assert.Equal(t, "EXAMPLE.COM", data["domain"].(map[string]interface{})["domainName"])

	h = newTestHandler(okWhois, stubRDAP{err: &rdap.StatusError{StatusCode: http.StatusNotFound, Message: rdap.NotFoundMessage}})
	w = post(h, "/api/rdap", `{"domain":"example.com"}`)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, rdap.NotFoundMessage, decode(t, w)["error"])
}

func TestRateLimitGuard(t *testing.T) {
	limit := ratelimit.Middleware(ratelimit.Options{
		Store:  infra.NewMemoryBucketStore(),
		Logger: nullEntry(),
	})
	h := newTestHandler(okWhois, okRDAP, limit)

	for i := 0; i < 5; i++ {
		w := post(h, "/api/whois", `{"domain":"example.com"}`, "X-Forwarded-For", "203.0.113.7")
		require.Equal(t, http.StatusOK, w.Code, "request %d", i+1)
	}
	w := post(h, "/api/whois", `{"domain":"example.com"}`, "X-Forwarded-For", "203.0.113.7")
	require.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.NotEmpty(t, w.Header().Get("Retry-After"))
	assert.Contains(t, decode(t, w)["error"], "Too many requests from this IP address")

	// outro cliente continua livre e o health não é limitado
	assert.Equal(t, http.StatusOK, post(h, "/api/whois", `{"domain":"example.com"}`, "X-Forwarded-For", "198.51.100.1").Code)
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("X-Forwarded-For", "203.0.113.7")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestHealthAndMetrics(t *testing.T) {
	h := newTestHandler(okWhois, okRDAP)

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, "UP", body["status"])
	assert.Equal(t, 0.0, body["inFlight"])

	w = httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRequestIDIsPropagated(t *testing.T) {
	h := newTestHandler(okWhois, okRDAP)
	w := post(h, "/api/whois", `{"domain":"example.com"}`, requestIDHeader, "abc-123")
	assert.Equal(t, "abc-123", w.Header().Get(requestIDHeader))
}

func TestNotFoundAndMethod(t *testing.T) {
	h := newTestHandler(okWhois, okRDAP)

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/nope", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)

	assert.JSONEq(t, `{"error":"Not found"}`, w.Body.String())
	assert.NotEmpty(t, w.Header().Get(requestIDHeader))

	for _, path := range []string{"/api/whois", "/api/rdap", "/api/lookup"} {
		w = httptest.NewRecorder()
		h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusMethodNotAllowed, w.Code, path)
		assert.JSONEq(t, `{"error":"Method not allowed"}`, w.Body.String(), path)
	}

	w = httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/healthz", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}

func TestPanicIsRecovered(t *testing.T) {
	h := NewHandler(Config{Lookup: panicLooker{}, Logger: nullEntry()})
	w := post(h, "/api/lookup", `{"domain":"example.com"}`)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}
