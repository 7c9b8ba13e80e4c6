package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"whois-gateway/internal/lookup"

	"github.com/sirupsen/logrus"
)

const maxRequestBody = 4 << 10

type domainRequest struct {
	Domain string `json:"domain"`
}

type handler struct {
	lookup Looker
	log    *logrus.Entry
	health func() map[string]interface{}
}

// decodeDomain lê {"domain": "..."}. Corpo vazio ou inválido conta como
// domínio ausente.
func decodeDomain(r *http.Request) string {
	var req domainRequest
	dec := json.NewDecoder(io.LimitReader(r.Body, maxRequestBody))
	if err := dec.Decode(&req); err != nil {
		return ""
	}
	return req.Domain
}

func (h *handler) whois(w http.ResponseWriter, r *http.Request) {
	rec, err := h.lookup.Whois(r.Context(), decodeDomain(r))
	if lookup.KindOf(err) == lookup.KindNoData {
		// registro vazio é tratado como as demais falhas do provedor
		writeError(w, http.StatusInternalServerError, "WHOIS lookup failed: "+lookup.WhoisFailurePrefix+err.Error())
		return
	}
	if err != nil {
		h.writeLookupError(w, r, err, "WHOIS lookup failed: ")
		return
	}
	writeJSON(w, http.StatusOK, dataResponse{Data: rec})
}

func (h *handler) rdap(w http.ResponseWriter, r *http.Request) {
	rec, err := h.lookup.RDAP(r.Context(), decodeDomain(r))
	if err != nil {
		h.writeLookupError(w, r, err, "RDAP lookup failed: ")
		return
	}
	writeJSON(w, http.StatusOK, dataResponse{Data: rec})
}

// lookupAll responde 200 mesmo com falha parcial; os erros vão em "errors".
func (h *handler) lookupAll(w http.ResponseWriter, r *http.Request) {
	res, err := h.lookup.Lookup(r.Context(), decodeDomain(r))
	if err != nil {
		h.writeLookupError(w, r, err, "Lookup failed: ")
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *handler) writeLookupError(w http.ResponseWriter, r *http.Request, err error, prefix string) {
	switch lookup.KindOf(err) {
	case lookup.KindValidation:
		writeError(w, http.StatusBadRequest, err.Error())
	case lookup.KindNoData, lookup.KindNotFound:
		writeError(w, http.StatusNotFound, err.Error())
	default:
		var pe *lookup.ProviderError
		if !errors.As(err, &pe) {
			h.log.WithError(err).WithField("request_id", RequestID(r.Context())).Error("unexpected lookup error")
		}
		writeError(w, http.StatusInternalServerError, prefix+err.Error())
	}
}

func (h *handler) healthz(w http.ResponseWriter, _ *http.Request) {
	body := map[string]interface{}{"status": "UP"}
	if h.health != nil {
		for k, v := range h.health() {
			body[k] = v
		}
	}
	writeJSON(w, http.StatusOK, body)
}

func (h *handler) notFound(w http.ResponseWriter, _ *http.Request) {
	writeError(w, http.StatusNotFound, "Not found")
}

func (h *handler) methodNotAllowed(w http.ResponseWriter, _ *http.Request) {
	writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
}
