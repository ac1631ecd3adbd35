package http_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Hacerfak/CoreMDFeApp/internal/application/dto"
	"github.com/Hacerfak/CoreMDFeApp/internal/application/manifest"
	"github.com/Hacerfak/CoreMDFeApp/internal/domain"
	"github.com/Hacerfak/CoreMDFeApp/internal/domain/entity"
	apphttp "github.com/Hacerfak/CoreMDFeApp/internal/interfaces/http"
	pkgjwt "github.com/Hacerfak/CoreMDFeApp/pkg/jwt"
)

// ──────────────────────────────────────────────────────────────────────────────
// Fakes
// ──────────────────────────────────────────────────────────────────────────────

type fakeManifests struct {
	lastCompany string
	lastID      string
	lastEmit    dto.EmissionRequest
	lastClosure dto.ClosureRequest
	lastList    dto.ManifestListRequest
	lastMonth   string
	lastReason  string

	result *manifest.Result
	err    error
}

func (f *fakeManifests) op(companyID, id string) (*manifest.Result, error) {
	f.lastCompany, f.lastID = companyID, id
	if f.err != nil {
		return nil, f.err
	}
	if f.result != nil {
		return f.result, nil
	}
	return &manifest.Result{Success: true, ManifestID: id, Message: "ok"}, nil
}

func (f *fakeManifests) Emit(_ context.Context, companyID string, req dto.EmissionRequest) (*manifest.Result, error) {
	f.lastEmit = req
	return f.op(companyID, "novo")
}
func (f *fakeManifests) Resend(_ context.Context, companyID, id string) (*manifest.Result, error) {
	return f.op(companyID, id)
}
func (f *fakeManifests) Cancel(_ context.Context, companyID, id, reason string) (*manifest.Result, error) {
	f.lastReason = reason
	return f.op(companyID, id)
}
func (f *fakeManifests) Close(_ context.Context, companyID, id string, in dto.ClosureRequest) (*manifest.Result, error) {
	f.lastClosure = in
	return f.op(companyID, id)
}
func (f *fakeManifests) AddDriver(_ context.Context, companyID, id string, _ dto.AddDriverRequest) (*manifest.Result, error) {
	return f.op(companyID, id)
}
func (f *fakeManifests) AddDocument(_ context.Context, companyID, id string, _ dto.AddDocumentRequest) (*manifest.Result, error) {
	return f.op(companyID, id)
}
func (f *fakeManifests) Get(_ context.Context, companyID, id string) (*dto.ManifestResponse, error) {
	f.lastCompany, f.lastID = companyID, id
	if f.err != nil {
		return nil, f.err
	}
	return &dto.ManifestResponse{ManifestSummary: dto.ManifestSummary{ID: id, Status: "authorized"}}, nil
}
func (f *fakeManifests) List(_ context.Context, companyID string, in dto.ManifestListRequest) (*dto.ManifestListResponse, error) {
	f.lastCompany, f.lastList = companyID, in
	if f.err != nil {
		return nil, f.err
	}
	return &dto.ManifestListResponse{Items: []dto.ManifestSummary{{ID: "m1"}}, Page: dto.PageResponse{Limit: in.Limit, Total: 1}}, nil
}
func (f *fakeManifests) Delete(_ context.Context, companyID, id string) error {
	f.lastCompany, f.lastID = companyID, id
	return f.err
}
func (f *fakeManifests) Events(_ context.Context, companyID, id string) ([]dto.EventLogResponse, error) {
	f.lastCompany, f.lastID = companyID, id
	return []dto.EventLogResponse{{Kind: "close", Accepted: true, StatusCode: 135}}, f.err
}
func (f *fakeManifests) ServiceStatus(_ context.Context, companyID string) (*dto.ServiceStatusResponse, error) {
	f.lastCompany = companyID
	if f.err != nil {
		return nil, f.err
	}
	return &dto.ServiceStatusResponse{Online: true, StatusCode: 107}, nil
}
func (f *fakeManifests) PendingClosures(_ context.Context, companyID string) (*dto.PendingClosuresResponse, error) {
	f.lastCompany = companyID
	return &dto.PendingClosuresResponse{StatusCode: 112, Items: []dto.PendingClosureEntry{}}, f.err
}
func (f *fakeManifests) Stats(_ context.Context, companyID, month string) (*dto.StatsSummaryDTO, error) {
	f.lastCompany, f.lastMonth = companyID, month
	return &dto.StatsSummaryDTO{Month: month, Total: 3}, f.err
}

type fakeDocs struct {
	from, to *time.Time
	err      error
}

func (f *fakeDocs) DownloadDAMDFE(_ context.Context, _, id string) ([]byte, string, error) {
	if f.err != nil {
		return nil, "", f.err
	}
	return []byte("%PDF-1.3"), "damdfe_" + id + ".pdf", nil
}

func (f *fakeDocs) ExportXLSX(_ context.Context, _ string, from, to *time.Time) ([]byte, string, error) {
	f.from, f.to = from, to
	return []byte("PK"), "manifestos.xlsx", f.err
}

type fakeCompanyUC struct {
	updated     *dto.UpdateCompanyRequest
	provisioned *dto.ProvisionCompanyRequest
	err         error
}

func (f *fakeCompanyUC) Provision(_ context.Context, in dto.ProvisionCompanyRequest) (*dto.CompanyResponse, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.provisioned = &in
	return &dto.CompanyResponse{ID: in.ID, CNPJ: "11222333000181"}, nil
}

func (f *fakeCompanyUC) Get(_ context.Context, id string) (*dto.CompanyResponse, error) {
	return &dto.CompanyResponse{ID: id, Name: "Transportes Cerrado"}, nil
}

func (f *fakeCompanyUC) Update(_ context.Context, id string, in dto.UpdateCompanyRequest) (*dto.CompanyResponse, error) {
	f.updated = &in
	return &dto.CompanyResponse{ID: id}, nil
}

type fakeLookup struct {
	company *entity.Company
	err     error
}

func (f *fakeLookup) GetByID(context.Context, string) (*entity.Company, error) {
	return f.company, f.err
}

type server struct {
	app       *fiber.App
	manifests *fakeManifests
	docs      *fakeDocs
	companies *fakeCompanyUC
	lookup    *fakeLookup
}

func newServer(t *testing.T) *server {
	t.Helper()
	s := &server{
		app:       fiber.New(),
		manifests: &fakeManifests{},
		docs:      &fakeDocs{},
		companies: &fakeCompanyUC{},
		lookup: &fakeLookup{company: &entity.Company{
			ID: testCompanyID, Settings: entity.FiscalSettings{Environment: 2, Series: 1},
		}},
	}
	apphttp.Router(s.app, apphttp.RouterDeps{
		ManifestUC:  s.manifests,
		DocumentsUC: s.docs,
		CompanyUC:   s.companies,
		Companies:   s.lookup,
		JWTSecret:   testJWTSecret,
	})
	return s
}

func (s *server) do(t *testing.T, role, method, path, body string) *http.Response {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Authorization", tokenForRole(t, role))
	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()
	var out T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

// ──────────────────────────────────────────────────────────────────────────────
// Ciclo de vida
// ──────────────────────────────────────────────────────────────────────────────

func TestEmit_UsaEmpresaDoToken(t *testing.T) {
	s := newServer(t)
	resp := s.do(t, pkgjwt.RoleEmissor, http.MethodPost, "/api/manifests", `{"origin_uf":"GO","destination_uf":"SP"}`)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	out := decode[dto.OperationResponse](t, resp)
	assert.True(t, out.Success)
	assert.Equal(t, testCompanyID, s.manifests.lastCompany)
	assert.Equal(t, "GO", s.manifests.lastEmit.OriginUF)
}

func TestEmit_ConsultaNaoPodeEmitir(t *testing.T) {
	s := newServer(t)
	resp := s.do(t, pkgjwt.RoleConsulta, http.MethodPost, "/api/manifests", `{}`)
	resp.Body.Close()
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestEmit_CorpoInvalido(t *testing.T) {
	s := newServer(t)
	resp := s.do(t, pkgjwt.RoleEmissor, http.MethodPost, "/api/manifests", `{"origin_uf":`)
	out := decode[dto.ErrorResponse](t, resp)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "INVALID_BODY", out.Code)
}

func TestResultadoDeFalha_StatusPorTipo(t *testing.T) {
	cases := []struct {
		kind manifest.FailureKind
		want int
	}{
		{manifest.FailureValidation, http.StatusUnprocessableEntity},
		{manifest.FailureNotFound, http.StatusNotFound},
		{manifest.FailureConfiguration, http.StatusPreconditionFailed},
		{manifest.FailureUnavailable, http.StatusServiceUnavailable},
		{manifest.FailureTransport, http.StatusBadGateway},
		{manifest.FailureRejection, http.StatusUnprocessableEntity},
		{manifest.FailureReconstruction, http.StatusConflict},
	}
	for _, tc := range cases {
		t.Run(string(tc.kind), func(t *testing.T) {
			s := newServer(t)
			s.manifests.result = &manifest.Result{Kind: tc.kind, ManifestID: "m1", Message: "falhou"}
			resp := s.do(t, pkgjwt.RoleEmissor, http.MethodPost, "/api/manifests/m1/resend", "")
			out := decode[dto.OperationResponse](t, resp)
			assert.Equal(t, tc.want, resp.StatusCode)
			assert.False(t, out.Success)
			assert.Equal(t, string(tc.kind), out.Kind)
		})
	}
}

func TestCancel_RepassaJustificativa(t *testing.T) {
	s := newServer(t)
	resp := s.do(t, pkgjwt.RoleAdmin, http.MethodPost, "/api/manifests/m9/cancel", `{"justification":"erro na digitação do destino"}`)
	resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "m9", s.manifests.lastID)
	assert.Equal(t, "erro na digitação do destino", s.manifests.lastReason)
}

func TestClose_SemCorpo(t *testing.T) {
	s := newServer(t)
	resp := s.do(t, pkgjwt.RoleEmissor, http.MethodPost, "/api/manifests/m2/close", "")
	resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, dto.ClosureRequest{}, s.manifests.lastClosure)
}

func TestClose_ComLocal(t *testing.T) {
	s := newServer(t)
	resp := s.do(t, pkgjwt.RoleEmissor, http.MethodPost, "/api/manifests/m2/close",
		`{"uf":"SP","city_code":"3550308","closed_on":"2026-03-10T00:00:00Z"}`)
	resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "3550308", s.manifests.lastClosure.CityCode)
	require.NotNil(t, s.manifests.lastClosure.ClosedOn)
}

func TestAddDriverEAddDocument(t *testing.T) {
	s := newServer(t)
	resp := s.do(t, pkgjwt.RoleEmissor, http.MethodPost, "/api/manifests/m3/drivers", `{"name":"Ana","cpf":"52998224725"}`)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp = s.do(t, pkgjwt.RoleEmissor, http.MethodPost, "/api/manifests/m3/documents", `{"nfe_key":"1"}`)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "m3", s.manifests.lastID)
}

func TestErroInesperado_NaoExpoeDetalhes(t *testing.T) {
	s := newServer(t)
	s.manifests.err = errors.New("pq: connection reset")
	resp := s.do(t, pkgjwt.RoleEmissor, http.MethodPost, "/api/manifests/m1/resend", "")
	out := decode[dto.ErrorResponse](t, resp)

	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.Equal(t, "INTERNAL", out.Code)
	assert.NotContains(t, out.Message, "pq:")
}

// ──────────────────────────────────────────────────────────────────────────────
// Consultas
// ──────────────────────────────────────────────────────────────────────────────

func TestGet_NaoEncontrado(t *testing.T) {
	s := newServer(t)
	s.manifests.err = domain.ErrNotFound
	resp := s.do(t, pkgjwt.RoleConsulta, http.MethodGet, "/api/manifests/x", "")
	out := decode[dto.ErrorResponse](t, resp)

	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "NOT_FOUND", out.Code)
}

func TestList_RepassaFiltros(t *testing.T) {
	s := newServer(t)
	resp := s.do(t, pkgjwt.RoleConsulta, http.MethodGet,
		"/api/manifests?status=authorized&from=2026-03-01&to=2026-03-31&q=GO&limit=5&offset=10", "")
	out := decode[dto.ManifestListResponse](t, resp)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, out.Items, 1)
	assert.Equal(t, "authorized", s.manifests.lastList.Status)
	assert.Equal(t, "2026-03-01", s.manifests.lastList.From)
	assert.Equal(t, "GO", s.manifests.lastList.Search)
	assert.Equal(t, 5, s.manifests.lastList.Limit)
	assert.Equal(t, 10, s.manifests.lastList.Offset)
}

func TestList_FiltroInvalido(t *testing.T) {
	s := newServer(t)
	s.manifests.err = fmt.Errorf("%w: status %q", domain.ErrInvalidCode, "x")
	resp := s.do(t, pkgjwt.RoleConsulta, http.MethodGet, "/api/manifests?status=x", "")
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestDelete(t *testing.T) {
	s := newServer(t)
	resp := s.do(t, pkgjwt.RoleEmissor, http.MethodDelete, "/api/manifests/m4", "")
	resp.Body.Close()
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	s.manifests.err = domain.ErrInvalidTransition
	resp = s.do(t, pkgjwt.RoleEmissor, http.MethodDelete, "/api/manifests/m4", "")
	resp.Body.Close()
	assert.Equal(t, http.StatusConflict, resp.StatusCode, "autorizado não pode ser excluído")
}

func TestEvents(t *testing.T) {
	s := newServer(t)
	resp := s.do(t, pkgjwt.RoleConsulta, http.MethodGet, "/api/manifests/m5/events", "")
	out := decode[[]dto.EventLogResponse](t, resp)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	require.Len(t, out, 1)
	assert.Equal(t, 135, out[0].StatusCode)
}

// ──────────────────────────────────────────────────────────────────────────────
// Documentos
// ──────────────────────────────────────────────────────────────────────────────

func TestPDF_Cabecalhos(t *testing.T) {
	s := newServer(t)
	resp := s.do(t, pkgjwt.RoleConsulta, http.MethodGet, "/api/manifests/m6/pdf", "")
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/pdf", resp.Header.Get("Content-Type"))
	assert.Contains(t, resp.Header.Get("Content-Disposition"), "damdfe_m6.pdf")
	body, _ := io.ReadAll(resp.Body)
	assert.True(t, strings.HasPrefix(string(body), "%PDF"))
}

func TestPDF_ManifestoNaoAutorizado(t *testing.T) {
	s := newServer(t)
	s.docs.err = fmt.Errorf("%w: manifesto em status drafting não possui DAMDFE", domain.ErrInvalidInput)
	resp := s.do(t, pkgjwt.RoleConsulta, http.MethodGet, "/api/manifests/m6/pdf", "")
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestExport_PeriodoInclusivo(t *testing.T) {
	s := newServer(t)
	resp := s.do(t, pkgjwt.RoleConsulta, http.MethodGet, "/api/manifests/export.xlsx?from=2026-03-01&to=2026-03-31", "")
	resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Disposition"), "manifestos.xlsx")
	require.NotNil(t, s.docs.from)
	require.NotNil(t, s.docs.to)
	assert.Equal(t, "2026-03-01", s.docs.from.Format("2006-01-02"))
	assert.Equal(t, "2026-04-01", s.docs.to.Format("2006-01-02"), "fim exclusivo no dia seguinte")
}

func TestExport_DataInvalida(t *testing.T) {
	s := newServer(t)
	resp := s.do(t, pkgjwt.RoleConsulta, http.MethodGet, "/api/manifests/export.xlsx?from=01/03/2026", "")
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestImportCargoDocument_XMLInvalido(t *testing.T) {
	s := newServer(t)
	req := httptest.NewRequest(http.MethodPost, "/api/cargo-documents/import", strings.NewReader("<nada/>"))
	req.Header.Set("Content-Type", "application/xml")
	req.Header.Set("Authorization", tokenForRole(t, pkgjwt.RoleEmissor))
	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	out := decode[dto.ErrorResponse](t, resp)

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "VALIDATION", out.Code)
}

func TestImportCargoDocument_SemCorpo(t *testing.T) {
	s := newServer(t)
	resp := s.do(t, pkgjwt.RoleEmissor, http.MethodPost, "/api/cargo-documents/import", "")
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

// ──────────────────────────────────────────────────────────────────────────────
// Empresa, autoridade e estatísticas
// ──────────────────────────────────────────────────────────────────────────────

func TestEmpresaSemConfiguracao_BloqueiaManifestos(t *testing.T) {
	s := newServer(t)
	s.lookup.company = &entity.Company{ID: testCompanyID}

	resp := s.do(t, pkgjwt.RoleAdmin, http.MethodGet, "/api/manifests", "")
	out := decode[dto.ErrorResponse](t, resp)
	assert.Equal(t, http.StatusPreconditionFailed, resp.StatusCode)
	assert.Equal(t, "NOT_CONFIGURED", out.Code)

	resp = s.do(t, pkgjwt.RoleAdmin, http.MethodGet, "/api/company", "")
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode, "a empresa continua acessível para ser configurada")
}

func TestEmpresaSerieZero_AcessaManifestosEAutoridade(t *testing.T) {
	s := newServer(t)
	s.lookup.company = &entity.Company{ID: testCompanyID, Settings: entity.FiscalSettings{Environment: 2, Series: 0}}

	resp := s.do(t, pkgjwt.RoleAdmin, http.MethodGet, "/api/manifests", "")
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode, "série 0 é válida")

	resp = s.do(t, pkgjwt.RoleAdmin, http.MethodGet, "/api/sefaz/status", "")
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestEmpresaFalhaNoBanco(t *testing.T) {
	s := newServer(t)
	s.lookup.err = errors.New("timeout")
	resp := s.do(t, pkgjwt.RoleAdmin, http.MethodGet, "/api/sefaz/status", "")
	resp.Body.Close()
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestCompanyUpdate_SoAdmin(t *testing.T) {
	s := newServer(t)
	resp := s.do(t, pkgjwt.RoleEmissor, http.MethodPut, "/api/company", `{"series":2}`)
	resp.Body.Close()
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp = s.do(t, pkgjwt.RoleAdmin, http.MethodPut, "/api/company", `{"series":2}`)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	require.NotNil(t, s.companies.updated)
	require.NotNil(t, s.companies.updated.Series)
	assert.Equal(t, 2, *s.companies.updated.Series)
}

func TestCompanyProvision_SoAdminEUsaEmpresaDoToken(t *testing.T) {
	s := newServer(t)
	body := `{"name":"Cerrado Logistica","uf":"GO","city_code":"5208707","city_name":"Goiania","certificate_path":"/certs/a1.pfx","series":0}`

	resp := s.do(t, pkgjwt.RoleEmissor, http.MethodPost, "/api/company", body)
	resp.Body.Close()
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp = s.do(t, pkgjwt.RoleAdmin, http.MethodPost, "/api/company", body)
	out := decode[dto.CompanyResponse](t, resp)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, testCompanyID, out.ID)
	require.NotNil(t, s.companies.provisioned)
	assert.Equal(t, "/certs/a1.pfx", s.companies.provisioned.CertificatePath)
	require.NotNil(t, s.companies.provisioned.Series)
	assert.Equal(t, 0, *s.companies.provisioned.Series)
}

func TestCompanyProvision_Erros(t *testing.T) {
	cases := []struct {
		err    error
		status int
	}{
		{fmt.Errorf("%w: CNPJ já cadastrado", domain.ErrConflict), http.StatusConflict},
		{fmt.Errorf("%w: vencido", domain.ErrCertificate), http.StatusPreconditionFailed},
		{fmt.Errorf("%w: razão social", domain.ErrInvalidInput), http.StatusBadRequest},
	}
	for _, tc := range cases {
		s := newServer(t)
		s.companies.err = tc.err
		resp := s.do(t, pkgjwt.RoleAdmin, http.MethodPost, "/api/company", `{"name":"x"}`)
		resp.Body.Close()
		assert.Equal(t, tc.status, resp.StatusCode, tc.err.Error())
	}
}

func TestSefazStatus(t *testing.T) {
	s := newServer(t)
	resp := s.do(t, pkgjwt.RoleConsulta, http.MethodGet, "/api/sefaz/status", "")
	out := decode[dto.ServiceStatusResponse](t, resp)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, out.Online)

	s.manifests.err = fmt.Errorf("%w: gateway fora", domain.ErrAuthorityUnavailable)
	resp = s.do(t, pkgjwt.RoleConsulta, http.MethodGet, "/api/sefaz/status", "")
	errOut := decode[dto.ErrorResponse](t, resp)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	assert.Equal(t, "AUTHORITY_UNAVAILABLE", errOut.Code)
}

func TestSefazPendentes(t *testing.T) {
	s := newServer(t)
	resp := s.do(t, pkgjwt.RoleConsulta, http.MethodGet, "/api/sefaz/pending-closures", "")
	out := decode[dto.PendingClosuresResponse](t, resp)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 112, out.StatusCode)
}

func TestStatsSummary(t *testing.T) {
	s := newServer(t)
	resp := s.do(t, pkgjwt.RoleConsulta, http.MethodGet, "/api/stats/summary?month=2026-02", "")
	out := decode[dto.StatsSummaryDTO](t, resp)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "2026-02", s.manifests.lastMonth)
	assert.Equal(t, 3, out.Total)
}

func TestSemToken(t *testing.T) {
	s := newServer(t)
	resp, err := s.app.Test(httptest.NewRequest(http.MethodGet, "/api/manifests", nil), -1)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}
