// Package mdfe contém catálogos e validações do leiaute do Manifesto Eletrônico
// de Documentos Fiscais (MDF-e, versão 3.00) que não dependem do domínio da aplicação.
package mdfe

// =============================================================================
// Versões do leiaute
// =============================================================================

const (
	LayoutVersion = "3.00"
	ModalVersion  = "3.00"
	EventVersion  = "3.00"
	Namespace     = "http://www.portalfiscal.inf.br/mdfe"
)

// =============================================================================
// Códigos de status (cStat) devolvidos pela SEFAZ que o sistema interpreta
// =============================================================================

const (
	StatusAuthorized       = 100 // Autorizado o uso do MDF-e
	StatusServiceOnline    = 107 // Serviço em operação
	StatusPendingFound     = 111 // Consulta não encerrados localizou MDF-e
	StatusEventRegistered  = 135 // Evento registrado e vinculado ao MDF-e
	StatusNoPendingClosure = 112 // Consulta não encerrados não localizou MDF-e
)

// =============================================================================
// Tipos de evento (tpEvento)
// =============================================================================

const (
	EventCancel      = "110111"
	EventClose       = "110112"
	EventAddDriver   = "110114"
	EventAddDocument = "110115"
)

// =============================================================================
// Unidades da federação: sigla -> código IBGE
// =============================================================================

var UFCodes = map[string]int{
	"RO": 11, "AC": 12, "AM": 13, "RR": 14, "PA": 15, "AP": 16, "TO": 17,
	"MA": 21, "PI": 22, "CE": 23, "RN": 24, "PB": 25, "PE": 26, "AL": 27, "SE": 28, "BA": 29,
	"MG": 31, "ES": 32, "RJ": 33, "SP": 35,
	"PR": 41, "SC": 42, "RS": 43,
	"MS": 50, "MT": 51, "GO": 52, "DF": 53,
}

// UFByCode índice reverso de UFCodes.
var UFByCode = func() map[int]string {
	m := make(map[int]string, len(UFCodes))
	for uf, code := range UFCodes {
		m[code] = uf
	}
	return m
}()

// Unidades de medida da carga (cUnid).
const (
	CargoUnitKG  = "01"
	CargoUnitTON = "02"
)
