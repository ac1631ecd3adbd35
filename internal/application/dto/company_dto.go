package dto

import (
	"time"

	"github.com/Hacerfak/CoreMDFeApp/internal/domain/entity"
)

// UpdateCompanyRequest entrada de PUT /api/company (campos opcionais).
// O contador de numeração não é editável por aqui.
type UpdateCompanyRequest struct {
	Name                *string                  `json:"name"`
	TradeName           *string                  `json:"trade_name"`
	IE                  *string                  `json:"ie"`
	RNTRC               *string                  `json:"rntrc"`
	Phone               *string                  `json:"phone"`
	Email               *string                  `json:"email"`
	Environment         *int                     `json:"environment"`
	Series              *int                     `json:"series"`
	TimeoutMS           *int                     `json:"timeout_ms"`
	CertificatePath     *string                  `json:"certificate_path"`
	CertificatePassword *string                  `json:"certificate_password"`
	SaveXML             *bool                    `json:"save_xml"`
	Defaults            *entity.EmissionDefaults `json:"defaults"`
	TechResponsible     *entity.TechResponsible  `json:"tech_responsible"`
}

// CompanyResponse saída do emitente (sem senha do certificado).
type CompanyResponse struct {
	ID               string                  `json:"id"`
	CNPJ             string                  `json:"cnpj"`
	IE               string                  `json:"ie"`
	Name             string                  `json:"name"`
	TradeName        string                  `json:"trade_name,omitempty"`
	RNTRC            string                  `json:"rntrc,omitempty"`
	CityName         string                  `json:"city_name"`
	UF               string                  `json:"uf"`
	Environment      int                     `json:"environment"`
	Series           int                     `json:"series"`
	LastNumberIssued int64                   `json:"last_number_issued"`
	TimeoutMS        int                     `json:"timeout_ms"`
	CertificatePath  string                  `json:"certificate_path,omitempty"`
	SaveXML          bool                    `json:"save_xml"`
	Defaults         entity.EmissionDefaults `json:"defaults"`
	TechResponsible  *entity.TechResponsible `json:"tech_responsible,omitempty"`
	UpdatedAt        time.Time               `json:"updated_at"`
}

// ProvisionCompanyRequest entrada de POST /api/company e de "mdfe company init".
// O CNPJ vem do certificado; quando informado, precisa coincidir com ele.
type ProvisionCompanyRequest struct {
	ID                  string `json:"id"`
	CNPJ                string `json:"cnpj"`
	Name                string `json:"name"`
	TradeName           string `json:"trade_name"`
	IE                  string `json:"ie"`
	RNTRC               string `json:"rntrc"`
	Street              string `json:"street"`
	Number              string `json:"number"`
	Complement          string `json:"complement"`
	District            string `json:"district"`
	CityCode            string `json:"city_code"`
	CityName            string `json:"city_name"`
	ZIP                 string `json:"zip"`
	UF                  string `json:"uf"`
	Phone               string `json:"phone"`
	Email               string `json:"email"`
	Environment         int    `json:"environment"`
	Series              *int   `json:"series"`
	LastNumberIssued    int64  `json:"last_number_issued"`
	CertificatePath     string `json:"certificate_path"`
	CertificatePassword string `json:"certificate_password"`
	SaveXML             bool   `json:"save_xml"`
	XMLDir              string `json:"xml_dir"`
}
