package manifest

import (
	"errors"

	"github.com/Hacerfak/CoreMDFeApp/internal/domain"
)

// FailureKind categoria da falha de uma operação.
type FailureKind string

const (
	FailureNone           FailureKind = ""
	FailureValidation     FailureKind = "validation"     // local, nada foi enviado
	FailureConfiguration  FailureKind = "configuration"  // certificado ou empresa
	FailureUnavailable    FailureKind = "unavailable"    // autoridade informou serviço fora
	FailureTransport      FailureKind = "transport"      // chamada falhou (rede, timeout)
	FailureRejection      FailureKind = "rejection"      // cStat diferente do esperado
	FailureReconstruction FailureKind = "reconstruction" // XML armazenado ilegível
	FailureNotFound       FailureKind = "not_found"
)

// Result desfecho de toda operação pública. Falhas previstas nunca viram error;
// o error de retorno fica para falhas inesperadas (banco, dados corrompidos).
type Result struct {
	Success       bool
	Kind          FailureKind
	Message       string
	ManifestID    string
	AccessKey     string
	Protocol      string
	StatusCode    int
	SentXML       string
	ReceiptXML    string
	PayloadDigest string
}

func ok(manifestID, msg string) *Result {
	return &Result{Success: true, ManifestID: manifestID, Message: msg}
}

func fail(kind FailureKind, manifestID, msg string) *Result {
	return &Result{Kind: kind, ManifestID: manifestID, Message: msg}
}

// transportMessage mensagem da causa interna, quando houver; senão a externa.
func transportMessage(err error) string {
	if inner := errors.Unwrap(err); inner != nil {
		return inner.Error()
	}
	return err.Error()
}

// classify converte erros locais conhecidos em Result. ok=false significa erro inesperado.
func classify(manifestID string, err error) (*Result, bool) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return fail(FailureNotFound, manifestID, err.Error()), true
	case errors.Is(err, domain.ErrInvalidInput),
		errors.Is(err, domain.ErrInvalidCode),
		errors.Is(err, domain.ErrInvalidTransition),
		errors.Is(err, domain.ErrMissingProtocol),
		errors.Is(err, domain.ErrConflict):
		return fail(FailureValidation, manifestID, err.Error()), true
	case errors.Is(err, domain.ErrCompanyNotConfigured),
		errors.Is(err, domain.ErrCertificate):
		return fail(FailureConfiguration, manifestID, err.Error()), true
	case errors.Is(err, domain.ErrAuthorityUnavailable):
		return fail(FailureUnavailable, manifestID, err.Error()), true
	case errors.Is(err, domain.ErrUnparseableDocument):
		return fail(FailureReconstruction, manifestID, err.Error()), true
	}
	return nil, false
}
