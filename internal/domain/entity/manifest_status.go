package entity

import (
	"fmt"
	"strings"

	"github.com/Hacerfak/CoreMDFeApp/internal/domain"
)

// Status situação legal do manifesto. Value object com transições validadas:
//
//	Drafting ─────────┐
//	Signed ───────────┼──> Sent ──┬──> Authorized ──┬──> Closed
//	Rejected ─────────┘           │                 └──> Cancelled
//	                              └──> Rejected
//
// Closed e Cancelled são finais. Rejected encerra a tentativa, mas o mesmo
// rascunho pode ser reenviado (volta para Sent). A assinatura é feita pelo
// gateway na transmissão, então este serviço nunca grava Signed; o valor só
// é lido de linhas gravadas por outra ferramenta e aceito no reenvio.
type Status int

const (
	// StatusUnknown valor zero, nunca válido; pega Status não inicializado.
	StatusUnknown Status = iota
	StatusDrafting
	StatusSigned
	StatusSent
	StatusAuthorized
	StatusRejected
	StatusClosed
	StatusCancelled
)

var statusNames = map[Status]string{
	StatusDrafting:   "drafting",
	StatusSigned:     "signed",
	StatusSent:       "sent",
	StatusAuthorized: "authorized",
	StatusRejected:   "rejected",
	StatusClosed:     "closed",
	StatusCancelled:  "cancelled",
}

// AllStatuses na ordem do ciclo de vida (relatórios e estatísticas).
func AllStatuses() []Status {
	return []Status{
		StatusDrafting, StatusSigned, StatusSent, StatusAuthorized,
		StatusRejected, StatusClosed, StatusCancelled,
	}
}

// ParseStatus converte o texto persistido. Texto desconhecido é erro.
func ParseStatus(s string) (Status, error) {
	v := strings.ToLower(strings.TrimSpace(s))
	for st, name := range statusNames {
		if name == v {
			return st, nil
		}
	}
	return StatusUnknown, fmt.Errorf("%w: status %q", domain.ErrInvalidCode, s)
}

// Validate falha para StatusUnknown e valores fora do enum.
func (s Status) Validate() error {
	if _, ok := statusNames[s]; !ok {
		return fmt.Errorf("%w: status %d", domain.ErrInvalidCode, int(s))
	}
	return nil
}

func (s Status) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return "unknown"
}

// IsTerminal Closed e Cancelled não aceitam mais nenhuma transição.
func (s Status) IsTerminal() bool {
	return s == StatusClosed || s == StatusCancelled
}

func (s Status) transitionError(to Status) error {
	return fmt.Errorf("%w: %s -> %s", domain.ErrInvalidTransition, s, to)
}

// ValidateResend informa se o documento pode ser (re)transmitido.
func (s Status) ValidateResend() error {
	switch s {
	case StatusDrafting, StatusSigned, StatusRejected:
		return nil
	}
	return s.transitionError(StatusSent)
}

// Send {Drafting, Signed, Rejected} -> Sent.
func (s Status) Send() (Status, error) {
	if err := s.ValidateResend(); err != nil {
		return StatusUnknown, err
	}
	return StatusSent, nil
}

// Authorize Sent -> Authorized.
func (s Status) Authorize() (Status, error) {
	if s != StatusSent {
		return StatusUnknown, s.transitionError(StatusAuthorized)
	}
	return StatusAuthorized, nil
}

// Reject Sent -> Rejected.
func (s Status) Reject() (Status, error) {
	if s != StatusSent {
		return StatusUnknown, s.transitionError(StatusRejected)
	}
	return StatusRejected, nil
}

// ValidateAmend eventos (encerramento, cancelamento, inclusões) só valem sobre
// manifesto autorizado.
func (s Status) ValidateAmend() error {
	if s != StatusAuthorized {
		return fmt.Errorf("%w: eventos exigem manifesto autorizado (status atual: %s)", domain.ErrInvalidTransition, s)
	}
	return nil
}

// Close Authorized -> Closed.
func (s Status) Close() (Status, error) {
	if s != StatusAuthorized {
		return StatusUnknown, s.transitionError(StatusClosed)
	}
	return StatusClosed, nil
}

// Cancel Authorized -> Cancelled.
func (s Status) Cancel() (Status, error) {
	if s != StatusAuthorized {
		return StatusUnknown, s.transitionError(StatusCancelled)
	}
	return StatusCancelled, nil
}

// ValidateDelete apenas rascunhos nunca transmitidos e rejeitados podem ser excluídos.
func (s Status) ValidateDelete() error {
	switch s {
	case StatusDrafting, StatusSigned, StatusRejected:
		return nil
	}
	return fmt.Errorf("%w: manifesto %s não pode ser excluído", domain.ErrConflict, s)
}
