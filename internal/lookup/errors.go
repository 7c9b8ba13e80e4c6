package lookup

import "errors"

// ErrorKind classifica as falhas de uma consulta.
type ErrorKind string

const (
	KindValidation          ErrorKind = "validation"
	KindProviderUnavailable ErrorKind = "provider_unavailable"
	KindNotFound            ErrorKind = "not_found"
	KindMalformed           ErrorKind = "malformed_response"
	KindNoData              ErrorKind = "no_data"
	KindTimeout             ErrorKind = "timeout"
)

const (
	SourceWhois = "whois"
	SourceRDAP  = "rdap"
)

// ValidationError é devolvido antes de qualquer chamada a provedor.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// ProviderError é a falha de um provedor. Message já está no formato
// exibido ao usuário, sem o prefixo da fonte.
type ProviderError struct {
	Kind     ErrorKind
	Provider string
	Message  string
	Err      error
}

func (e *ProviderError) Error() string { return e.Message }

func (e *ProviderError) Unwrap() error { return e.Err }

// Prefixed devolve a mensagem com o prefixo da fonte ("WHOIS Error: ...").
func (e *ProviderError) Prefixed() string {
	switch e.Provider {
	case SourceWhois:
		return "WHOIS Error: " + e.Message
	case SourceRDAP:
		return "RDAP Error: " + e.Message
	}
	return e.Message
}

// KindOf extrai o tipo de erro; "" para erros desconhecidos ou nil.
func KindOf(err error) ErrorKind {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return KindValidation
	}
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe.Kind
	}
	return ""
}
