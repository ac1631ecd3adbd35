// Package company casos de uso do emitente: cadastro a partir do certificado,
// leitura e atualização do perfil fiscal e dos valores padrão da emissão.
package company

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Hacerfak/CoreMDFeApp/internal/application/dto"
	"github.com/Hacerfak/CoreMDFeApp/internal/application/manifest"
	"github.com/Hacerfak/CoreMDFeApp/internal/domain"
	"github.com/Hacerfak/CoreMDFeApp/internal/domain/entity"
	"github.com/Hacerfak/CoreMDFeApp/internal/domain/mdfe"
	"github.com/Hacerfak/CoreMDFeApp/internal/domain/repository"
	pkgmdfe "github.com/Hacerfak/CoreMDFeApp/pkg/mdfe"
)

// UseCase aplica as regras de negócio do emitente.
type UseCase struct {
	repo  repository.CompanyRepository
	certs manifest.CertificateLoader
	now   func() time.Time
}

// NewUseCase constrói o caso de uso. certs lê o A1 no cadastro (Provision).
func NewUseCase(repo repository.CompanyRepository, certs manifest.CertificateLoader) *UseCase {
	return &UseCase{repo: repo, certs: certs, now: time.Now}
}

// Get devolve o emitente do token. domain.ErrNotFound se não existir.
func (uc *UseCase) Get(ctx context.Context, companyID string) (*dto.CompanyResponse, error) {
	c, err := uc.repo.GetByID(ctx, companyID)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, domain.ErrNotFound
	}
	return toResponse(c), nil
}

// Update aplica somente os campos informados. O contador de numeração não muda aqui.
func (uc *UseCase) Update(ctx context.Context, companyID string, in dto.UpdateCompanyRequest) (*dto.CompanyResponse, error) {
	c, err := uc.repo.GetByID(ctx, companyID)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, domain.ErrNotFound
	}

	if in.Name != nil {
		name := pkgmdfe.NormalizeText(*in.Name)
		if name == "" {
			return nil, fmt.Errorf("%w: razão social é obrigatória", domain.ErrInvalidInput)
		}
		c.Name = name
	}
	if in.TradeName != nil {
		c.TradeName = pkgmdfe.NormalizeText(*in.TradeName)
	}
	if in.IE != nil {
		c.IE = pkgmdfe.OnlyDigits(*in.IE)
	}
	if in.RNTRC != nil {
		rntrc := pkgmdfe.OnlyDigits(*in.RNTRC)
		if rntrc != "" && len(rntrc) != 8 {
			return nil, fmt.Errorf("%w: RNTRC deve ter 8 dígitos", domain.ErrInvalidInput)
		}
		c.RNTRC = rntrc
	}
	if in.Phone != nil {
		c.Phone = pkgmdfe.OnlyDigits(*in.Phone)
	}
	if in.Email != nil {
		c.Email = strings.TrimSpace(*in.Email)
	}
	if in.Environment != nil {
		if _, err := mdfe.ParseEnvironment(*in.Environment); err != nil {
			return nil, err
		}
		c.Settings.Environment = *in.Environment
	}
	if in.Series != nil {
		if *in.Series < 0 || *in.Series > entity.MaxSeries {
			return nil, fmt.Errorf("%w: série deve estar entre 0 e 999", domain.ErrInvalidInput)
		}
		c.Settings.Series = *in.Series
	}
	if in.TimeoutMS != nil {
		if *in.TimeoutMS <= 0 {
			return nil, fmt.Errorf("%w: tempo limite deve ser positivo", domain.ErrInvalidInput)
		}
		c.Settings.TimeoutMS = *in.TimeoutMS
	}
	if in.CertificatePath != nil {
		c.Settings.CertificatePath = strings.TrimSpace(*in.CertificatePath)
	}
	if in.CertificatePassword != nil {
		c.Settings.CertificatePassword = *in.CertificatePassword
	}
	if in.SaveXML != nil {
		c.Settings.SaveXML = *in.SaveXML
	}
	if in.Defaults != nil {
		if err := validateDefaults(*in.Defaults); err != nil {
			return nil, err
		}
		c.Defaults = *in.Defaults
	}
	if in.TechResponsible != nil {
		t := *in.TechResponsible
		if t.CNPJ != "" {
			if err := pkgmdfe.ValidateCNPJ(pkgmdfe.OnlyDigits(t.CNPJ)); err != nil {
				return nil, fmt.Errorf("%w: CNPJ do responsável técnico: %v", domain.ErrInvalidInput, err)
			}
		}
		c.TechResponsible = &t
	}

	c.UpdatedAt = uc.now()
	if err := uc.repo.Update(ctx, c); err != nil {
		return nil, err
	}
	return toResponse(c), nil
}

// validateDefaults confere os códigos informados; zero significa "sem padrão".
func validateDefaults(d entity.EmissionDefaults) error {
	if d.EmitterType != 0 {
		if _, err := mdfe.ParseEmitterType(d.EmitterType); err != nil {
			return err
		}
	}
	if d.TransporterType != 0 {
		if _, err := mdfe.ParseTransporterType(d.TransporterType); err != nil {
			return err
		}
	}
	if d.Modal != 0 {
		if _, err := mdfe.ParseModal(d.Modal); err != nil {
			return err
		}
	}
	if d.EmissionType != 0 {
		if _, err := mdfe.ParseEmissionType(d.EmissionType); err != nil {
			return err
		}
	}
	if d.CargoUnit != "" && d.CargoUnit != pkgmdfe.CargoUnitKG && d.CargoUnit != pkgmdfe.CargoUnitTON {
		return fmt.Errorf("%w: unidade de carga %q", domain.ErrInvalidCode, d.CargoUnit)
	}
	if d.Product != nil && d.Product.CargoType != "" {
		if _, err := mdfe.ParseCargoType(d.Product.CargoType); err != nil {
			return err
		}
	}
	return nil
}

func toResponse(c *entity.Company) *dto.CompanyResponse {
	return &dto.CompanyResponse{
		ID:               c.ID,
		CNPJ:             c.CNPJ,
		IE:               c.IE,
		Name:             c.Name,
		TradeName:        c.TradeName,
		RNTRC:            c.RNTRC,
		CityName:         c.CityName,
		UF:               c.UF,
		Environment:      c.Settings.Environment,
		Series:           c.Settings.Series,
		LastNumberIssued: c.Settings.LastNumberIssued,
		TimeoutMS:        c.Settings.TimeoutMS,
		CertificatePath:  c.Settings.CertificatePath,
		SaveXML:          c.Settings.SaveXML,
		Defaults:         c.Defaults,
		TechResponsible:  c.TechResponsible,
		UpdatedAt:        c.UpdatedAt,
	}
}
