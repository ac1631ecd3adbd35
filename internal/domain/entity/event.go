package entity

import (
	"fmt"
	"time"

	"github.com/Hacerfak/CoreMDFeApp/internal/domain"
	pkgmdfe "github.com/Hacerfak/CoreMDFeApp/pkg/mdfe"
)

// EventKind tipo de interação registrada no histórico do manifesto.
type EventKind string

const (
	EventTransmission EventKind = "transmission"
	EventCancel       EventKind = "cancel"
	EventClose        EventKind = "close"
	EventAddDriver    EventKind = "add_driver"
	EventAddDocument  EventKind = "add_document"
)

// ParseEventKind valida o texto persistido ou recebido pela API.
func ParseEventKind(s string) (EventKind, error) {
	switch k := EventKind(s); k {
	case EventTransmission, EventCancel, EventClose, EventAddDriver, EventAddDocument:
		return k, nil
	}
	return "", fmt.Errorf("%w: evento %q", domain.ErrInvalidCode, s)
}

// Code tpEvento da SEFAZ; vazio para transmissão.
func (k EventKind) Code() string {
	switch k {
	case EventCancel:
		return pkgmdfe.EventCancel
	case EventClose:
		return pkgmdfe.EventClose
	case EventAddDriver:
		return pkgmdfe.EventAddDriver
	case EventAddDocument:
		return pkgmdfe.EventAddDocument
	}
	return ""
}

// Description descrição do evento exigida no leiaute (descEvento).
func (k EventKind) Description() string {
	switch k {
	case EventCancel:
		return "Cancelamento"
	case EventClose:
		return "Encerramento"
	case EventAddDriver:
		return "Inclusao Condutor"
	case EventAddDocument:
		return "Inclusao DF-e"
	}
	return "Autorizacao"
}

// ManifestEvent registro imutável de cada interação com a autoridade
// (transmissões, reenvios e eventos), aceita ou não.
type ManifestEvent struct {
	ID            string
	ManifestID    string
	CompanyID     string
	Kind          EventKind
	Sequence      int
	Accepted      bool
	StatusCode    int
	Reason        string
	Protocol      string
	PayloadDigest string
	SentXML       string
	ReceiptXML    string
	Elapsed       time.Duration
	CreatedAt     time.Time
}
