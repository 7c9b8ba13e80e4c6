package main

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
)

type fakeConfig struct {
	domains    []string
	delay      time.Duration
	failStatus int
}

// newRouter atende /domain/{name} e o caminho da Verisign
// (/com/v1/domain/{name}), então serve de base para RDAP_COM_URL e
// RDAP_DEFAULT_URL ao mesmo tempo.
func newRouter(cfg fakeConfig) http.Handler {
	known := make(map[string]bool, len(cfg.domains))
	for _, d := range cfg.domains {
		known[strings.ToLower(strings.TrimSpace(d))] = true
	}

	serve := func(w http.ResponseWriter, r *http.Request) {
		name := strings.ToLower(mux.Vars(r)["name"])
		log := logrus.WithField("domain", name)

		if cfg.delay > 0 {
			select {
			case <-time.After(cfg.delay):
			case <-r.Context().Done():
				return
			}
		}

		switch {
		case cfg.failStatus != 0:
			log.WithField("status", cfg.failStatus).Info("forced failure")
			writeRDAP(w, cfg.failStatus, map[string]interface{}{
				"errorCode":   cfg.failStatus,
				"title":       http.StatusText(cfg.failStatus),
				"description": []string{"Forced failure", "by fake-rdap"},
			})
		case !known[name]:
			log.Info("unknown domain")
			writeRDAP(w, http.StatusNotFound, map[string]interface{}{
				"errorCode": http.StatusNotFound,
				"title":     "Not Found",
			})
		default:
			log.Info("served")
			writeRDAP(w, http.StatusOK, domainDocument(name))
		}
	}

	r := mux.NewRouter()
	r.HandleFunc("/domain/{name}", serve).Methods(http.MethodGet)
	r.HandleFunc("/com/v1/domain/{name}", serve).Methods(http.MethodGet)
	return r
}

func writeRDAP(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/rdap+json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func vcard(props ...[]interface{}) []interface{} {
	arr := make([]interface{}, 0, len(props))
	for _, p := range props {
		arr = append(arr, p)
	}
	return []interface{}{"vcard", arr}
}

func prop(name, typ string, value interface{}) []interface{} {
	return []interface{}{name, map[string]interface{}{}, typ, value}
}

func contactEntity(handle, role, name, email string) map[string]interface{} {
	return map[string]interface{}{
		"objectClassName": "entity",
		"handle":          handle,
		"roles":           []string{role},
		"vcardArray": vcard(
			prop("version", "text", "4.0"),
			prop("fn", "text", name),
			prop("org", "text", "Example Holdings"),
			prop("email", "text", email),
			prop("tel", "uri", "tel:+1.5555550100"),
			prop("adr", "text", []string{"", "", "1 Example Way", "Springfield", "IL", "62701", "US"}),
		),
	}
}

// domainDocument monta um documento no formato que a Verisign devolve.
func domainDocument(name string) map[string]interface{} {
	upper := strings.ToUpper(name)
	return map[string]interface{}{
		"objectClassName": "domain",
		"rdapConformance": []string{"rdap_level_0", "icann_rdap_technical_implementation_guide_0"},
		"handle":          "FAKE-" + strings.ReplaceAll(upper, ".", "-"),
		"ldhName":         upper,
		"status":          []string{"client transfer prohibited"},
		"port43":          "whois.example.net",
		"secureDNS":       map[string]interface{}{"delegationSigned": false},
		"nameservers": []map[string]interface{}{
			{"objectClassName": "nameserver", "ldhName": "NS1.EXAMPLE.NET"},
			{"objectClassName": "nameserver", "ldhName": "NS2.EXAMPLE.NET"},
		},
		"events": []map[string]interface{}{
			{"eventAction": "registration", "eventDate": "1995-08-14T04:00:00Z"},
			{"eventAction": "expiration", "eventDate": "2030-08-13T04:00:00Z"},
			{"eventAction": "last changed", "eventDate": "2024-08-14T07:01:38Z"},
			{"eventAction": "last update of RDAP database", "eventDate": time.Now().UTC().Format(time.RFC3339)},
		},
		"entities": []map[string]interface{}{
			{
				"objectClassName": "entity",
				"handle":          "376",
				"roles":           []string{"registrar"},
				"publicIds":       []map[string]string{{"type": "IANA Registrar ID", "identifier": "376"}},
				"vcardArray":      vcard(prop("version", "text", "4.0"), prop("fn", "text", "Fake Registrar, Inc.")),
				"entities": []map[string]interface{}{
					{
						"objectClassName": "entity",
						"roles":           []string{"abuse"},
						"vcardArray": vcard(
							prop("version", "text", "4.0"),
							prop("fn", "text", "Abuse Desk"),
							prop("tel", "uri", "tel:+1.5555550199"),
							prop("email", "text", "abuse@registrar.example"),
						),
					},
				},
			},
			contactEntity("REG-1", "registrant", "Registrant Person", "owner@"+name),
			contactEntity("ADM-1", "administrative", "Admin Person", "admin@"+name),
			contactEntity("TEC-1", "technical", "Tech Person", "tech@"+name),
		},
		"notices": []map[string]interface{}{
			{"title": "Terms of Use", "description": []string{"Canned data served by fake-rdap."}},
		},
	}
}
