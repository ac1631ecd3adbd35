package company_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Hacerfak/CoreMDFeApp/internal/application/company"
	"github.com/Hacerfak/CoreMDFeApp/internal/application/dto"
	"github.com/Hacerfak/CoreMDFeApp/internal/application/manifest"
	"github.com/Hacerfak/CoreMDFeApp/internal/domain"
)

type fakeCerts struct {
	cnpj string
	err  error
	path string
}

func (f *fakeCerts) Load(path, _ string) (*manifest.Certificate, error) {
	f.path = path
	if f.err != nil {
		return nil, f.err
	}
	return &manifest.Certificate{SubjectCNPJ: f.cnpj}, nil
}

func provisionRequest() dto.ProvisionCompanyRequest {
	return dto.ProvisionCompanyRequest{
		Name:            "  Cerrado   Logística Ltda ",
		IE:              "10.123.456-7",
		RNTRC:           "8765-4321",
		CityCode:        "5208707",
		CityName:        "goiânia",
		UF:              "go",
		CertificatePath: "/certs/cerrado.pfx",
	}
}

// ─── Cadastro ───

func TestProvision_CNPJDoCertificadoEContadorInicial(t *testing.T) {
	repo := &fakeRepo{}
	certs := &fakeCerts{cnpj: "11222333000181"}
	in := provisionRequest()
	in.LastNumberIssued = 120

	got, err := company.NewUseCase(repo, certs).Provision(context.Background(), in)
	require.NoError(t, err)

	assert.Equal(t, "/certs/cerrado.pfx", certs.path)
	assert.Equal(t, "11222333000181", got.CNPJ)
	assert.Equal(t, "gerado", got.ID)
	assert.Equal(t, "Cerrado Logística Ltda", got.Name)
	assert.Equal(t, "GO", got.UF)
	assert.Equal(t, 2, got.Environment, "homologação quando omitido")
	assert.Equal(t, 1, got.Series, "série 1 quando omitida")
	assert.EqualValues(t, 120, got.LastNumberIssued)

	require.Len(t, repo.created, 1)
	saved := repo.created[0]
	assert.Equal(t, "GO", saved.Settings.IssuerUF)
	assert.Equal(t, "3.00", saved.Settings.LayoutVersion)
	assert.Equal(t, "12345678", saved.RNTRC)
	assert.Equal(t, "101234567", saved.IE)
	assert.True(t, saved.FiscalConfigured())
}

func TestProvision_SerieZeroEIDInformado(t *testing.T) {
	repo := &fakeRepo{}
	in := provisionRequest()
	in.ID = "7b0c4a0e-3f52-4d8b-9a37-2f4f1c9e6d10"
	in.Series = ptr(0)
	in.Environment = 1

	got, err := company.NewUseCase(repo, &fakeCerts{cnpj: "11222333000181"}).Provision(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, "7b0c4a0e-3f52-4d8b-9a37-2f4f1c9e6d10", got.ID)
	assert.Equal(t, 0, got.Series)
	assert.Equal(t, 1, got.Environment)
}

func TestProvision_Validacoes(t *testing.T) {
	cases := []struct {
		name  string
		edit  func(*dto.ProvisionCompanyRequest)
		certs *fakeCerts
		want  error
	}{
		{"razão social vazia", func(in *dto.ProvisionCompanyRequest) { in.Name = " " }, nil, domain.ErrInvalidInput},
		{"UF desconhecida", func(in *dto.ProvisionCompanyRequest) { in.UF = "XX" }, nil, domain.ErrInvalidCode},
		{"município sem código IBGE", func(in *dto.ProvisionCompanyRequest) { in.CityCode = "52" }, nil, domain.ErrInvalidInput},
		{"ambiente desconhecido", func(in *dto.ProvisionCompanyRequest) { in.Environment = 3 }, nil, domain.ErrInvalidCode},
		{"série fora da faixa", func(in *dto.ProvisionCompanyRequest) { in.Series = ptr(1000) }, nil, domain.ErrInvalidInput},
		{"número inicial negativo", func(in *dto.ProvisionCompanyRequest) { in.LastNumberIssued = -1 }, nil, domain.ErrInvalidInput},
		{"id que não é UUID", func(in *dto.ProvisionCompanyRequest) { in.ID = "emp-novo" }, nil, domain.ErrInvalidInput},
		{"sem certificado", func(in *dto.ProvisionCompanyRequest) { in.CertificatePath = "" }, nil, domain.ErrInvalidInput},
		{"certificado ilegível", nil, &fakeCerts{err: domain.ErrCertificate}, domain.ErrCertificate},
		{"titular pessoa física", nil, &fakeCerts{cnpj: ""}, domain.ErrCertificate},
		{"CNPJ do titular inválido", nil, &fakeCerts{cnpj: "11222333000180"}, domain.ErrCertificate},
		{"CNPJ informado diferente", func(in *dto.ProvisionCompanyRequest) { in.CNPJ = "11.444.777/0001-61" }, nil, domain.ErrInvalidInput},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			in := provisionRequest()
			if tc.edit != nil {
				tc.edit(&in)
			}
			certs := tc.certs
			if certs == nil {
				certs = &fakeCerts{cnpj: "11222333000181"}
			}
			repo := &fakeRepo{}
			_, err := company.NewUseCase(repo, certs).Provision(context.Background(), in)
			assert.ErrorIs(t, err, tc.want)
			assert.Empty(t, repo.created)
		})
	}
}

func TestProvision_CNPJJaCadastrado(t *testing.T) {
	repo := newRepo()
	_, err := company.NewUseCase(repo, &fakeCerts{cnpj: "11222333000181"}).Provision(context.Background(), provisionRequest())
	assert.ErrorIs(t, err, domain.ErrConflict)
}

func TestProvision_SemLeitorDeCertificado(t *testing.T) {
	_, err := company.NewUseCase(&fakeRepo{}, nil).Provision(context.Background(), provisionRequest())
	assert.ErrorIs(t, err, domain.ErrCertificate)
}

func TestList(t *testing.T) {
	got, err := company.NewUseCase(newRepo(), nil).List(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "emp-1", got[0].ID)
}
