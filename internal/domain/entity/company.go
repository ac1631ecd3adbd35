package entity

import "time"

// Company emitente do MDF-e (tenant). Guarda o contador de numeração e os
// valores padrão usados na montagem quando a requisição não os informa.
type Company struct {
	ID        string
	CNPJ      string
	IE        string
	Name      string
	TradeName string
	RNTRC     string

	Street     string
	Number     string
	Complement string
	District   string
	CityCode   string // código IBGE
	CityName   string
	ZIP        string
	UF         string
	Phone      string
	Email      string

	Settings        FiscalSettings
	Defaults        EmissionDefaults
	TechResponsible *TechResponsible

	CreatedAt time.Time
	UpdatedAt time.Time
}

// FiscalSettings configuração fiscal persistida; vira TransportConfig a cada chamada.
type FiscalSettings struct {
	Environment         int
	IssuerUF            string
	LayoutVersion       string
	Series              int
	LastNumberIssued    int64
	TimeoutMS           int
	CertificatePath     string
	CertificatePassword string
	SchemasDir          string
	SaveXML             bool
	XMLDir              string
}

// MaxSeries maior série aceita pelo leiaute (3 dígitos). A série 0 é válida.
const MaxSeries = 999

// FiscalConfigured ambiente definido e série dentro da faixa do leiaute.
func (c *Company) FiscalConfigured() bool {
	s := c.Settings
	return (s.Environment == 1 || s.Environment == 2) && s.Series >= 0 && s.Series <= MaxSeries
}

// DefaultTimeoutMS tempo limite padrão das chamadas à autoridade.
const DefaultTimeoutMS = 5000

// EmissionDefaults valores aplicados quando o campo correspondente da emissão é zero.
type EmissionDefaults struct {
	EmitterType      int           `json:"emitter_type,omitempty"`
	TransporterType  int           `json:"transporter_type,omitempty"`
	Modal            int           `json:"modal,omitempty"`
	EmissionType     int           `json:"emission_type,omitempty"`
	CargoUnit        string        `json:"cargo_unit,omitempty"`
	Product          *CargoProduct `json:"product,omitempty"`
	Insurance        *Insurance    `json:"insurance,omitempty"`
	Payment          *Payment      `json:"payment,omitempty"`
	AdditionalInfo   string        `json:"additional_info,omitempty"`
	TaxInfo          string        `json:"tax_info,omitempty"`
	DefaultVehicleID string        `json:"default_vehicle_id,omitempty"`
	DefaultDriverID  string        `json:"default_driver_id,omitempty"`
}

// TechResponsible responsável técnico pelo sistema emissor (infRespTec).
type TechResponsible struct {
	CNPJ  string `json:"cnpj"`
	Name  string `json:"name"`
	Phone string `json:"phone"`
	Email string `json:"email"`
}
