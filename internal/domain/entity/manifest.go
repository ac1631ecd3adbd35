package entity

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Hacerfak/CoreMDFeApp/internal/domain"
)

// Manifest representa um MDF-e e todo o grafo montado na emissão.
//
// As coleções filhas são criadas de uma vez na montagem; eventos só alteram
// status e campos de protocolo (exceto inclusão de condutor/documento, que
// acrescentam uma linha).
type Manifest struct {
	ID              string
	CompanyID       string
	Environment     int // tpAmb: 1 produção, 2 homologação
	Number          int64
	Series          int
	NumericCode     string // cMDF, 8 dígitos
	IssueDate       time.Time
	AccessKey       string // só preenchida após autorização
	EmitterType     int
	TransporterType int // 0 = não informado
	EmissionType    int
	Modal           int
	OriginUF        string
	DestinationUF   string
	TripStart       *time.Time
	GreenChannel    bool
	DeferredLoading bool

	CargoUnit   string // "01" KG, "02" TON
	TotalValue  decimal.Decimal
	TotalWeight decimal.Decimal
	QtyNFe      int
	QtyCTe      int
	Product     *CargoProduct

	AdditionalInfo string
	TaxInfo        string

	Status                Status
	StatusCode            int
	StatusReason          string
	AuthorizationProtocol string
	ClosureProtocol       string
	CancellationProtocol  string
	DraftXML              string // payload montado, antes de qualquer assinatura
	SignedXML             string // documento como enviado/assinado pelo gateway
	AuthorizationReceipt  string
	ClosureReceipt        string
	CancellationReceipt   string
	PayloadDigest         string // SHA-256 C14N do payload transmitido

	RouteLegs             []string // UFs de percurso, na ordem
	LoadCities            []City
	UnloadCities          []UnloadCity
	Vehicles              []ManifestVehicle
	Drivers               []ManifestDriver
	CIOTs                 []CIOT
	Tolls                 []Toll
	Insurances            []Insurance
	Payments              []Payment
	Contractors           []Contractor
	AuthorizedDownloaders []string // CPF ou CNPJ
	Seals                 []string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// AssignAccessKey grava a chave de acesso. Uma chave já atribuída nunca muda.
func (m *Manifest) AssignAccessKey(key string) error {
	if key == "" {
		return fmt.Errorf("%w: chave de acesso vazia", domain.ErrInvalidInput)
	}
	if m.AccessKey != "" && m.AccessKey != key {
		return fmt.Errorf("%w: %s", domain.ErrAccessKeyImmutable, m.AccessKey)
	}
	m.AccessKey = key
	return nil
}

// Traction devolve o veículo de tração (nil se ausente).
func (m *Manifest) Traction() *ManifestVehicle {
	for i := range m.Vehicles {
		if m.Vehicles[i].Role == VehicleTraction {
			return &m.Vehicles[i]
		}
	}
	return nil
}

// Trailers devolve os reboques na ordem de cadastro.
func (m *Manifest) Trailers() []ManifestVehicle {
	var out []ManifestVehicle
	for _, v := range m.Vehicles {
		if v.Role == VehicleTrailer {
			out = append(out, v)
		}
	}
	return out
}

// LastUnloadCity último município de descarregamento (padrão do encerramento).
func (m *Manifest) LastUnloadCity() (UnloadCity, bool) {
	if len(m.UnloadCities) == 0 {
		return UnloadCity{}, false
	}
	return m.UnloadCities[len(m.UnloadCities)-1], true
}

// AddUnloadDocument acrescenta o documento ao município de mesmo código IBGE,
// ou cria o município no fim da lista. O nome não entra na comparação: o
// mesmo município chega com grafias diferentes de XMLs distintos.
func (m *Manifest) AddUnloadDocument(unload City, ref CargoDocumentRef) {
	for i := range m.UnloadCities {
		if m.UnloadCities[i].Code == unload.Code {
			m.UnloadCities[i].Documents = append(m.UnloadCities[i].Documents, ref)
			return
		}
	}
	m.UnloadCities = append(m.UnloadCities, UnloadCity{City: unload, Documents: []CargoDocumentRef{ref}})
}

// CargoProduct produto predominante (prodPred).
type CargoProduct struct {
	CargoType string `json:"cargo_type" yaml:"cargo_type"`
	Name      string `json:"name" yaml:"name"`
	EAN       string `json:"ean,omitempty" yaml:"ean"`
	NCM       string `json:"ncm,omitempty" yaml:"ncm"`
}

// City município com código IBGE.
type City struct {
	Code string
	Name string
}

// UnloadCity município de descarregamento e os documentos descarregados nele.
type UnloadCity struct {
	City
	Documents []CargoDocumentRef
}

// CargoDocumentRef referência a NF-e (55) ou CT-e (57).
type CargoDocumentRef struct {
	Type          int
	AccessKey     string
	SecondBarcode string
	Reentry       bool
}

// VehicleRole papel do veículo no manifesto.
type VehicleRole string

const (
	VehicleTraction VehicleRole = "traction"
	VehicleTrailer  VehicleRole = "trailer"
)

// ManifestVehicle cópia dos dados do veículo no momento da emissão.
type ManifestVehicle struct {
	Role VehicleRole
	VehicleData
}

// ManifestDriver condutor do manifesto. Event indica inclusão via evento 110114.
type ManifestDriver struct {
	Name  string
	CPF   string
	Event bool
}

type CIOT struct {
	Code     string
	Document string // CPF ou CNPJ do responsável
}

// Toll vale-pedágio.
type Toll struct {
	SupplierCNPJ   string
	PayerDocument  string
	PurchaseNumber string
	Value          decimal.Decimal
}

// Insurance seguro da carga. ResponsibleType: 1 emitente, 2 contratante.
type Insurance struct {
	ResponsibleType     int      `json:"responsible_type" yaml:"responsible_type"`
	ResponsibleDocument string   `json:"responsible_document,omitempty" yaml:"responsible_document"`
	InsurerName         string   `json:"insurer_name,omitempty" yaml:"insurer_name"`
	InsurerCNPJ         string   `json:"insurer_cnpj,omitempty" yaml:"insurer_cnpj"`
	Policy              string   `json:"policy,omitempty" yaml:"policy"`
	Endorsements        []string `json:"endorsements,omitempty" yaml:"endorsements"`
}

// Payment informações de pagamento do frete (infPag). Indicator: 0 à vista, 1 a prazo.
type Payment struct {
	Name       string             `json:"name,omitempty" yaml:"name"`
	Document   string             `json:"document" yaml:"document"`
	Components []PaymentComponent `json:"components" yaml:"components"`
	Total      decimal.Decimal    `json:"total" yaml:"total"`
	Indicator  int                `json:"indicator" yaml:"indicator"`
	Advance    decimal.Decimal    `json:"advance,omitempty" yaml:"advance"`
	BankCNPJ   string             `json:"bank_cnpj,omitempty" yaml:"bank_cnpj"`
	PIX        string             `json:"pix,omitempty" yaml:"pix"`
}

// PaymentComponent tpComp: "01" vale-pedágio, "02" impostos, "03" despesas, "99" outros.
type PaymentComponent struct {
	Type  string          `json:"type" yaml:"type"`
	Value decimal.Decimal `json:"value" yaml:"value"`
}

type Contractor struct {
	Name     string
	Document string
}
