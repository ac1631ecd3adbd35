package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/Hacerfak/CoreMDFeApp/internal/domain/entity"
)

// ─────────────────────────────────────────────────────────────────────────────
// Entrada: emissão
// ─────────────────────────────────────────────────────────────────────────────

// EmissionRequest dados de uma emissão. Campos zero recebem os padrões da empresa.
// Lido de JSON (API) e de YAML (CLI).
type EmissionRequest struct {
	Environment     int        `json:"environment,omitempty" yaml:"environment"`
	EmitterType     int        `json:"emitter_type,omitempty" yaml:"emitter_type"`
	TransporterType int        `json:"transporter_type,omitempty" yaml:"transporter_type"`
	Modal           int        `json:"modal,omitempty" yaml:"modal"`
	EmissionType    int        `json:"emission_type,omitempty" yaml:"emission_type"`
	IssueDate       *time.Time `json:"issue_date,omitempty" yaml:"issue_date"`
	TripStart       *time.Time `json:"trip_start,omitempty" yaml:"trip_start"`
	OriginUF        string     `json:"origin_uf,omitempty" yaml:"origin_uf"`
	DestinationUF   string     `json:"destination_uf,omitempty" yaml:"destination_uf"`
	RouteUFs        []string   `json:"route_ufs,omitempty" yaml:"route_ufs"`
	GreenChannel    bool       `json:"green_channel,omitempty" yaml:"green_channel"`

	// Carregamento posterior: municípios explícitos, sem documentos.
	DeferredLoading bool        `json:"deferred_loading,omitempty" yaml:"deferred_loading"`
	LoadCities      []CityInput `json:"load_cities,omitempty" yaml:"load_cities"`
	UnloadCities    []CityInput `json:"unload_cities,omitempty" yaml:"unload_cities"`

	Documents   []CargoDocumentInput `json:"documents,omitempty" yaml:"documents"`
	CargoUnit   string               `json:"cargo_unit,omitempty" yaml:"cargo_unit"`
	TotalValue  decimal.Decimal      `json:"total_value,omitempty" yaml:"total_value"`   // só sem documentos
	TotalWeight decimal.Decimal      `json:"total_weight,omitempty" yaml:"total_weight"` // só sem documentos
	Product     *entity.CargoProduct `json:"product,omitempty" yaml:"product"`

	TractionID string               `json:"traction_id,omitempty" yaml:"traction_id"`
	Traction   *entity.VehicleData  `json:"traction,omitempty" yaml:"traction"`
	TrailerIDs []string             `json:"trailer_ids,omitempty" yaml:"trailer_ids"`
	Trailers   []entity.VehicleData `json:"trailers,omitempty" yaml:"trailers"`
	DriverID   string               `json:"driver_id,omitempty" yaml:"driver_id"`
	Driver     *DriverInput         `json:"driver,omitempty" yaml:"driver"`

	RNTRC                 string             `json:"rntrc,omitempty" yaml:"rntrc"`
	CIOTs                 []CIOTInput        `json:"ciots,omitempty" yaml:"ciots"`
	Tolls                 []TollInput        `json:"tolls,omitempty" yaml:"tolls"`
	Contractors           []ContractorInput  `json:"contractors,omitempty" yaml:"contractors"`
	Payments              []entity.Payment   `json:"payments,omitempty" yaml:"payments"`
	Insurances            []entity.Insurance `json:"insurances,omitempty" yaml:"insurances"`
	AuthorizedDownloaders []string           `json:"authorized_downloaders,omitempty" yaml:"authorized_downloaders"`
	Seals                 []string           `json:"seals,omitempty" yaml:"seals"`
	AdditionalInfo        string             `json:"additional_info,omitempty" yaml:"additional_info"`
	TaxInfo               string             `json:"tax_info,omitempty" yaml:"tax_info"`
}

// CityInput município com código IBGE.
type CityInput struct {
	Code string `json:"code" yaml:"code"`
	Name string `json:"name" yaml:"name"`
	UF   string `json:"uf,omitempty" yaml:"uf"`
}

// CargoDocumentInput NF-e (55) ou CT-e (57) transportado.
type CargoDocumentInput struct {
	Type           int             `json:"type" yaml:"type"`
	AccessKey      string          `json:"access_key" yaml:"access_key"`
	Value          decimal.Decimal `json:"value" yaml:"value"`
	Weight         decimal.Decimal `json:"weight" yaml:"weight"`
	LoadCityCode   string          `json:"load_city_code" yaml:"load_city_code"`
	LoadCityName   string          `json:"load_city_name" yaml:"load_city_name"`
	LoadUF         string          `json:"load_uf,omitempty" yaml:"load_uf"`
	UnloadCityCode string          `json:"unload_city_code" yaml:"unload_city_code"`
	UnloadCityName string          `json:"unload_city_name" yaml:"unload_city_name"`
	UnloadUF       string          `json:"unload_uf,omitempty" yaml:"unload_uf"`
	SecondBarcode  string          `json:"second_barcode,omitempty" yaml:"second_barcode"`
	Reentry        bool            `json:"reentry,omitempty" yaml:"reentry"`
	ProductHint    string          `json:"product_hint,omitempty" yaml:"product_hint"`
}

type DriverInput struct {
	Name string `json:"name" yaml:"name"`
	CPF  string `json:"cpf" yaml:"cpf"`
}

type CIOTInput struct {
	Code     string `json:"code" yaml:"code"`
	Document string `json:"document" yaml:"document"`
}

type TollInput struct {
	SupplierCNPJ   string          `json:"supplier_cnpj" yaml:"supplier_cnpj"`
	PayerDocument  string          `json:"payer_document,omitempty" yaml:"payer_document"`
	PurchaseNumber string          `json:"purchase_number" yaml:"purchase_number"`
	Value          decimal.Decimal `json:"value" yaml:"value"`
}

type ContractorInput struct {
	Name     string `json:"name,omitempty" yaml:"name"`
	Document string `json:"document" yaml:"document"`
}

// ─────────────────────────────────────────────────────────────────────────────
// Entrada: eventos
// ─────────────────────────────────────────────────────────────────────────────

// CancelRequest justificativa de 15 a 255 caracteres.
type CancelRequest struct {
	Justification string `json:"justification"`
}

// ClosureRequest campos vazios assumem o último município de descarregamento e hoje.
type ClosureRequest struct {
	UF       string     `json:"uf,omitempty"`
	CityCode string     `json:"city_code,omitempty"`
	ClosedOn *time.Time `json:"closed_on,omitempty"`
}

type AddDriverRequest struct {
	Name string `json:"name"`
	CPF  string `json:"cpf"`
}

type AddDocumentRequest struct {
	LoadCityCode   string `json:"load_city_code"`
	LoadCityName   string `json:"load_city_name"`
	UnloadCityCode string `json:"unload_city_code"`
	UnloadCityName string `json:"unload_city_name"`
	NFeKey         string `json:"nfe_key"`
}

// ManifestListRequest filtros de GET /api/manifests.
type ManifestListRequest struct {
	PageRequest
	Status string `query:"status"`
	From   string `query:"from"` // AAAA-MM-DD
	To     string `query:"to"`
	Search string `query:"q"`
}

// ─────────────────────────────────────────────────────────────────────────────
// Saída
// ─────────────────────────────────────────────────────────────────────────────

// OperationResponse desfecho de emissão, reenvio e eventos.
type OperationResponse struct {
	Success       bool   `json:"success"`
	Kind          string `json:"kind,omitempty"`
	Message       string `json:"message"`
	ManifestID    string `json:"manifest_id,omitempty"`
	AccessKey     string `json:"access_key,omitempty"`
	Protocol      string `json:"protocol,omitempty"`
	StatusCode    int    `json:"status_code,omitempty"`
	ReceiptXML    string `json:"receipt_xml,omitempty"`
	PayloadDigest string `json:"payload_digest,omitempty"`
}

// ManifestSummary linha da listagem.
type ManifestSummary struct {
	ID            string          `json:"id"`
	Number        int64           `json:"number"`
	Series        int             `json:"series"`
	IssueDate     time.Time       `json:"issue_date"`
	AccessKey     string          `json:"access_key,omitempty"`
	OriginUF      string          `json:"origin_uf"`
	DestinationUF string          `json:"destination_uf"`
	Status        string          `json:"status"`
	StatusCode    int             `json:"status_code,omitempty"`
	StatusReason  string          `json:"status_reason,omitempty"`
	TotalValue    decimal.Decimal `json:"total_value"`
	TotalWeight   decimal.Decimal `json:"total_weight"`
}

// ManifestListResponse lista paginada.
type ManifestListResponse struct {
	Items []ManifestSummary `json:"items"`
	Page  PageResponse      `json:"page"`
}

// ManifestResponse detalhe completo.
type ManifestResponse struct {
	ManifestSummary
	Environment           int                  `json:"environment"`
	Modal                 int                  `json:"modal"`
	CargoUnit             string               `json:"cargo_unit"`
	QtyNFe                int                  `json:"qty_nfe"`
	QtyCTe                int                  `json:"qty_cte"`
	DeferredLoading       bool                 `json:"deferred_loading"`
	RouteUFs              []string             `json:"route_ufs,omitempty"`
	LoadCities            []CityInput          `json:"load_cities"`
	UnloadCities          []UnloadCityResponse `json:"unload_cities"`
	Vehicles              []VehicleResponse    `json:"vehicles"`
	Drivers               []DriverInput        `json:"drivers"`
	AuthorizationProtocol string               `json:"authorization_protocol,omitempty"`
	ClosureProtocol       string               `json:"closure_protocol,omitempty"`
	CancellationProtocol  string               `json:"cancellation_protocol,omitempty"`
	CreatedAt             time.Time            `json:"created_at"`
	UpdatedAt             time.Time            `json:"updated_at"`
}

type UnloadCityResponse struct {
	Code      string                `json:"code"`
	Name      string                `json:"name"`
	Documents []CargoDocumentOutput `json:"documents"`
}

type CargoDocumentOutput struct {
	Type      int    `json:"type"`
	AccessKey string `json:"access_key"`
}

type VehicleResponse struct {
	Role  string `json:"role"`
	Plate string `json:"plate"`
	UF    string `json:"uf,omitempty"`
	Tare  int    `json:"tare"`
}

// EventLogResponse item do histórico de interações.
type EventLogResponse struct {
	ID         string    `json:"id"`
	Kind       string    `json:"kind"`
	Sequence   int       `json:"sequence"`
	Accepted   bool      `json:"accepted"`
	StatusCode int       `json:"status_code"`
	Reason     string    `json:"reason"`
	Protocol   string    `json:"protocol,omitempty"`
	ElapsedMS  int64     `json:"elapsed_ms"`
	CreatedAt  time.Time `json:"created_at"`
}

// ServiceStatusResponse status do serviço da autoridade.
type ServiceStatusResponse struct {
	Online        bool   `json:"online"`
	StatusCode    int    `json:"status_code"`
	Reason        string `json:"reason"`
	AverageTimeMS int64  `json:"average_time_ms"`
}

// PendingClosuresResponse MDF-e não encerrados na autoridade.
type PendingClosuresResponse struct {
	StatusCode int                   `json:"status_code"`
	Reason     string                `json:"reason"`
	Items      []PendingClosureEntry `json:"items"`
}

type PendingClosureEntry struct {
	AccessKey  string `json:"access_key"`
	Protocol   string `json:"protocol"`
	ManifestID string `json:"manifest_id,omitempty"`
}

// CargoDocumentLine resultado da importação de um XML de NF-e/CT-e;
// pronto para virar CargoDocumentInput.
type CargoDocumentLine struct {
	CargoDocumentInput
	IssuerName string `json:"issuer_name,omitempty"`
}
