// Package mdfe modela o documento MDF-e tipado e os códigos do leiaute com
// construtores validados: um código desconhecido é sempre erro, nunca um valor padrão.
package mdfe

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/Hacerfak/CoreMDFeApp/internal/domain"
	pkgmdfe "github.com/Hacerfak/CoreMDFeApp/pkg/mdfe"
)

// ── UF ────────────────────────────────────────────────────────────────────────

// UF sigla de unidade da federação já validada.
type UF string

// ParseUF aceita a sigla ("go", " GO ") ou o código IBGE ("52").
func ParseUF(s string) (UF, error) {
	v := strings.ToUpper(strings.TrimSpace(s))
	if _, ok := pkgmdfe.UFCodes[v]; ok {
		return UF(v), nil
	}
	if n, err := strconv.Atoi(v); err == nil {
		if uf, ok := pkgmdfe.UFByCode[n]; ok {
			return UF(uf), nil
		}
	}
	return "", fmt.Errorf("%w: UF %q", domain.ErrInvalidCode, s)
}

// Code devolve o código IBGE da UF.
func (u UF) Code() int { return pkgmdfe.UFCodes[string(u)] }

func (u UF) String() string { return string(u) }

// ── Ambiente ──────────────────────────────────────────────────────────────────

// Environment tpAmb.
type Environment int

const (
	Production   Environment = 1
	Homologation Environment = 2
)

func ParseEnvironment(v int) (Environment, error) {
	switch Environment(v) {
	case Production, Homologation:
		return Environment(v), nil
	}
	return 0, fmt.Errorf("%w: ambiente %d", domain.ErrInvalidCode, v)
}

func (e Environment) String() string {
	switch e {
	case Production:
		return "producao"
	case Homologation:
		return "homologacao"
	}
	return "desconhecido"
}

// ── Modal ─────────────────────────────────────────────────────────────────────

// Modal modal de transporte.
type Modal int

const (
	ModalRoad  Modal = 1
	ModalAir   Modal = 2
	ModalWater Modal = 3
	ModalRail  Modal = 4
)

func ParseModal(v int) (Modal, error) {
	if v >= int(ModalRoad) && v <= int(ModalRail) {
		return Modal(v), nil
	}
	return 0, fmt.Errorf("%w: modal %d", domain.ErrInvalidCode, v)
}

// ── Tipo de emitente / transportador / emissão ────────────────────────────────

// EmitterType tpEmit: 1 prestador de serviço de transporte, 2 carga própria, 3 CT-e globalizado.
type EmitterType int

const (
	EmitterTransportProvider EmitterType = 1
	EmitterOwnCargo          EmitterType = 2
	EmitterGlobalCTe         EmitterType = 3
)

func ParseEmitterType(v int) (EmitterType, error) {
	if v >= 1 && v <= 3 {
		return EmitterType(v), nil
	}
	return 0, fmt.Errorf("%w: tipo de emitente %d", domain.ErrInvalidCode, v)
}

// TransporterType tpTransp; zero significa "não informar" e é omitido do XML.
type TransporterType int

const (
	TransporterNone TransporterType = 0
	TransporterETC  TransporterType = 1
	TransporterTAC  TransporterType = 2
	TransporterCTC  TransporterType = 3
)

func ParseTransporterType(v int) (TransporterType, error) {
	if v >= 0 && v <= 3 {
		return TransporterType(v), nil
	}
	return 0, fmt.Errorf("%w: tipo de transportador %d", domain.ErrInvalidCode, v)
}

// EmissionType tpEmis.
type EmissionType int

const (
	EmissionNormal      EmissionType = 1
	EmissionContingency EmissionType = 2
)

func ParseEmissionType(v int) (EmissionType, error) {
	switch EmissionType(v) {
	case EmissionNormal, EmissionContingency:
		return EmissionType(v), nil
	}
	return 0, fmt.Errorf("%w: tipo de emissão %d", domain.ErrInvalidCode, v)
}

// ── Carga ─────────────────────────────────────────────────────────────────────

// CargoType tpCarga ("01" granel sólido ... "12" granel pressurizada).
type CargoType string

func ParseCargoType(s string) (CargoType, error) {
	v := strings.TrimSpace(s)
	n, err := strconv.Atoi(v)
	if err != nil || n < 1 || n > 12 {
		return "", fmt.Errorf("%w: tipo de carga %q", domain.ErrInvalidCode, s)
	}
	return CargoType(fmt.Sprintf("%02d", n)), nil
}

// DocumentType modelo do documento fiscal vinculado.
type DocumentType int

const (
	DocumentNFe DocumentType = 55
	DocumentCTe DocumentType = 57
)

func ParseDocumentType(v int) (DocumentType, error) {
	switch DocumentType(v) {
	case DocumentNFe, DocumentCTe:
		return DocumentType(v), nil
	}
	return 0, fmt.Errorf("%w: modelo de documento %d", domain.ErrInvalidCode, v)
}

// ── Veículo ───────────────────────────────────────────────────────────────────

// WheelType tpRod ("01" truck ... "06" utilitário, "99" outros).
func ValidWheelType(s string) bool {
	switch s {
	case "01", "02", "03", "04", "05", "06", "99":
		return true
	}
	return false
}

// ValidBodyType tpCar ("00" não aplicável ... "05" sider).
func ValidBodyType(s string) bool {
	switch s {
	case "00", "01", "02", "03", "04", "05":
		return true
	}
	return false
}
