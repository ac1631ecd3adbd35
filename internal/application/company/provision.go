package company

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/Hacerfak/CoreMDFeApp/internal/application/dto"
	"github.com/Hacerfak/CoreMDFeApp/internal/domain"
	"github.com/Hacerfak/CoreMDFeApp/internal/domain/entity"
	"github.com/Hacerfak/CoreMDFeApp/internal/domain/mdfe"
	pkgmdfe "github.com/Hacerfak/CoreMDFeApp/pkg/mdfe"
)

// defaultSeries série usada quando o cadastro não informa outra.
const defaultSeries = 1

// maxStartNumber último nMDF possível (9 dígitos).
const maxStartNumber = 999999999

// Provision cadastra um emitente novo a partir do certificado A1. O CNPJ do
// titular do certificado é o CNPJ do emitente; o contador começa em
// LastNumberIssued (a próxima emissão recebe LastNumberIssued+1).
func (uc *UseCase) Provision(ctx context.Context, in dto.ProvisionCompanyRequest) (*dto.CompanyResponse, error) {
	if uc.certs == nil {
		return nil, fmt.Errorf("%w: leitor de certificado não configurado", domain.ErrCertificate)
	}
	c, err := uc.newCompany(in)
	if err != nil {
		return nil, err
	}

	cert, err := uc.certs.Load(c.Settings.CertificatePath, c.Settings.CertificatePassword)
	if err != nil {
		return nil, err
	}
	subject := pkgmdfe.OnlyDigits(cert.SubjectCNPJ)
	if subject == "" {
		return nil, fmt.Errorf("%w: titular não é pessoa jurídica", domain.ErrCertificate)
	}
	if err := pkgmdfe.ValidateCNPJ(subject); err != nil {
		return nil, fmt.Errorf("%w: CNPJ do titular: %v", domain.ErrCertificate, err)
	}
	if informed := pkgmdfe.OnlyDigits(in.CNPJ); informed != "" && informed != subject {
		return nil, fmt.Errorf("%w: CNPJ %s difere do titular do certificado %s", domain.ErrInvalidInput, informed, subject)
	}
	c.CNPJ = subject

	if err := uc.repo.Create(ctx, c); err != nil {
		return nil, err
	}
	return toResponse(c), nil
}

// List todos os emitentes cadastrados.
func (uc *UseCase) List(ctx context.Context) ([]*dto.CompanyResponse, error) {
	items, err := uc.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]*dto.CompanyResponse, 0, len(items))
	for _, c := range items {
		out = append(out, toResponse(c))
	}
	return out, nil
}

func (uc *UseCase) newCompany(in dto.ProvisionCompanyRequest) (*entity.Company, error) {
	name := pkgmdfe.NormalizeText(in.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: razão social é obrigatória", domain.ErrInvalidInput)
	}
	uf, err := mdfe.ParseUF(in.UF)
	if err != nil {
		return nil, err
	}
	cityCode := pkgmdfe.OnlyDigits(in.CityCode)
	if len(cityCode) != 7 {
		return nil, fmt.Errorf("%w: código IBGE do município deve ter 7 dígitos", domain.ErrInvalidInput)
	}
	if strings.TrimSpace(in.CityName) == "" {
		return nil, fmt.Errorf("%w: município é obrigatório", domain.ErrInvalidInput)
	}

	env := in.Environment
	if env == 0 {
		env = int(mdfe.Homologation)
	}
	if _, err := mdfe.ParseEnvironment(env); err != nil {
		return nil, err
	}
	series := defaultSeries
	if in.Series != nil {
		series = *in.Series
	}
	if series < 0 || series > entity.MaxSeries {
		return nil, fmt.Errorf("%w: série deve estar entre 0 e 999", domain.ErrInvalidInput)
	}
	if in.LastNumberIssued < 0 || in.LastNumberIssued >= maxStartNumber {
		return nil, fmt.Errorf("%w: número inicial fora da faixa", domain.ErrInvalidInput)
	}
	rntrc := pkgmdfe.OnlyDigits(in.RNTRC)
	if rntrc != "" && len(rntrc) != 8 {
		return nil, fmt.Errorf("%w: RNTRC deve ter 8 dígitos", domain.ErrInvalidInput)
	}
	id := strings.TrimSpace(in.ID)
	if id != "" {
		if _, err := uuid.Parse(id); err != nil {
			return nil, fmt.Errorf("%w: id do emitente deve ser um UUID", domain.ErrInvalidInput)
		}
	}
	certPath := strings.TrimSpace(in.CertificatePath)
	if certPath == "" {
		return nil, fmt.Errorf("%w: caminho do certificado é obrigatório", domain.ErrInvalidInput)
	}

	now := uc.now()
	return &entity.Company{
		ID:         id,
		IE:         pkgmdfe.OnlyDigits(in.IE),
		Name:       name,
		TradeName:  pkgmdfe.NormalizeText(in.TradeName),
		RNTRC:      rntrc,
		Street:     pkgmdfe.NormalizeText(in.Street),
		Number:     strings.TrimSpace(in.Number),
		Complement: pkgmdfe.NormalizeText(in.Complement),
		District:   pkgmdfe.NormalizeText(in.District),
		CityCode:   cityCode,
		CityName:   pkgmdfe.NormalizeName(in.CityName),
		ZIP:        pkgmdfe.OnlyDigits(in.ZIP),
		UF:         string(uf),
		Phone:      pkgmdfe.OnlyDigits(in.Phone),
		Email:      strings.TrimSpace(in.Email),
		Settings: entity.FiscalSettings{
			Environment:         env,
			IssuerUF:            string(uf),
			LayoutVersion:       pkgmdfe.LayoutVersion,
			Series:              series,
			LastNumberIssued:    in.LastNumberIssued,
			TimeoutMS:           entity.DefaultTimeoutMS,
			CertificatePath:     certPath,
			CertificatePassword: in.CertificatePassword,
			SaveXML:             in.SaveXML,
			XMLDir:              strings.TrimSpace(in.XMLDir),
		},
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}
