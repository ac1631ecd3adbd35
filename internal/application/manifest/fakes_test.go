package manifest_test

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Hacerfak/CoreMDFeApp/internal/application/dto"
	"github.com/Hacerfak/CoreMDFeApp/internal/application/manifest"
	"github.com/Hacerfak/CoreMDFeApp/internal/domain"
	"github.com/Hacerfak/CoreMDFeApp/internal/domain/entity"
	"github.com/Hacerfak/CoreMDFeApp/internal/domain/mdfe"
	"github.com/Hacerfak/CoreMDFeApp/internal/domain/repository"
	"github.com/Hacerfak/CoreMDFeApp/pkg/logger"
)

// ──────────────────────────────────────────────────────────────────────────────
// Dados de teste
// ──────────────────────────────────────────────────────────────────────────────

const (
	testCompanyID = "00000000-0000-0000-0000-000000000002"
	testCNPJ      = "11222333000181"
	nfeKey1       = "52260311222333000181550010000000011000000010"
	nfeKey2       = "52260311222333000181550010000000021000000025"
	cteKey3       = "52260311222333000181570010000000031000000038"
	driverCPF     = "52998224725"
	otherCPF      = "11144477735"
)

func testCompany() *entity.Company {
	return &entity.Company{
		ID:        testCompanyID,
		CNPJ:      testCNPJ,
		IE:        "123456789",
		Name:      "Transportes  Teste Ltda",
		RNTRC:     "12345678",
		Street:    "Rua 1",
		Number:    "10",
		District:  "Centro",
		CityCode:  "5208707",
		CityName:  "Goiânia",
		ZIP:       "74000-000",
		UF:        "GO",
		Settings: entity.FiscalSettings{
			Environment:         2,
			Series:              1,
			TimeoutMS:           1000,
			CertificatePath:     "/certs/a1.pfx",
			CertificatePassword: "1234",
			SaveXML:             true,
		},
	}
}

func testRequest() dto.EmissionRequest {
	return dto.EmissionRequest{
		Documents: []dto.CargoDocumentInput{{
			Type:           55,
			AccessKey:      nfeKey1,
			Value:          decimal.RequireFromString("1500.00"),
			Weight:         decimal.RequireFromString("1200"),
			LoadCityCode:   "5208707",
			LoadCityName:   "Goiânia",
			UnloadCityCode: "3550308",
			UnloadCityName: "São Paulo",
		}},
		Traction: &entity.VehicleData{
			Plate: "ABC-1D23", Tare: 8000, CapacityKG: 30000, WheelType: "03", BodyType: "02", UF: "GO",
		},
		Driver: &dto.DriverInput{Name: "João da Silva", CPF: "529.982.247-25"},
	}
}

// ──────────────────────────────────────────────────────────────────────────────
// Fakes dos portos
// ──────────────────────────────────────────────────────────────────────────────

type fakeCompanies struct {
	mu       sync.Mutex
	items    map[string]*entity.Company
	reserved int
}

func (f *fakeCompanies) Create(_ context.Context, c *entity.Company) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.items[c.ID]; ok {
		return domain.ErrConflict
	}
	f.items[c.ID] = c
	return nil
}

func (f *fakeCompanies) GetByID(_ context.Context, id string) (*entity.Company, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.items[id]
	if !ok {
		return nil, nil
	}
	cp := *c
	return &cp, nil
}

func (f *fakeCompanies) List(_ context.Context) ([]*entity.Company, error) {
	var out []*entity.Company
	for _, c := range f.items {
		out = append(out, c)
	}
	return out, nil
}

func (f *fakeCompanies) Update(_ context.Context, c *entity.Company) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.items[c.ID] = c
	return nil
}

func (f *fakeCompanies) ReserveNumber(_ context.Context, companyID string) (int, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.items[companyID]
	if !ok {
		return 0, 0, errors.New("empresa inexistente")
	}
	c.Settings.LastNumberIssued++
	f.reserved++
	return c.Settings.Series, c.Settings.LastNumberIssued, nil
}

type fakeManifests struct {
	mu         sync.Mutex
	items      map[string]*entity.Manifest
	creates    int
	appendedDr []entity.ManifestDriver
	appendedDc []entity.CargoDocumentRef
}

func clone(m *entity.Manifest) *entity.Manifest {
	cp := *m
	cp.Drivers = append([]entity.ManifestDriver(nil), m.Drivers...)
	cp.UnloadCities = nil
	for _, u := range m.UnloadCities {
		u.Documents = append([]entity.CargoDocumentRef(nil), u.Documents...)
		cp.UnloadCities = append(cp.UnloadCities, u)
	}
	return &cp
}

func (f *fakeManifests) Create(_ context.Context, m *entity.Manifest) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.creates++
	f.items[m.ID] = clone(m)
	return nil
}

func (f *fakeManifests) GetByID(_ context.Context, companyID, id string) (*entity.Manifest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	m, ok := f.items[id]
	if !ok || m.CompanyID != companyID {
		return nil, nil
	}
	return clone(m), nil
}

func (f *fakeManifests) UpdateTransmission(_ context.Context, m *entity.Manifest) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.items[m.ID] = clone(m)
	return nil
}

func (f *fakeManifests) UpdateStatus(_ context.Context, m *entity.Manifest) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.items[m.ID] = clone(m)
	return nil
}

func (f *fakeManifests) AppendDriver(_ context.Context, id string, d entity.ManifestDriver) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.appendedDr = append(f.appendedDr, d)
	f.items[id].Drivers = append(f.items[id].Drivers, d)
	return nil
}

func (f *fakeManifests) AppendDocument(_ context.Context, id string, _, unload entity.City, ref entity.CargoDocumentRef) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.appendedDc = append(f.appendedDc, ref)
	f.items[id].AddUnloadDocument(unload, ref)
	return nil
}

func (f *fakeManifests) List(_ context.Context, flt repository.ManifestFilter) ([]*entity.Manifest, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*entity.Manifest
	for _, m := range f.items {
		if m.CompanyID != flt.CompanyID {
			continue
		}
		if flt.Search != "" && m.AccessKey != flt.Search {
			continue
		}
		if flt.Status != entity.StatusUnknown && m.Status != flt.Status {
			continue
		}
		out = append(out, clone(m))
	}
	return out, len(out), nil
}

func (f *fakeManifests) Delete(_ context.Context, _, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.items, id)
	return nil
}

func (f *fakeManifests) CountByStatus(_ context.Context, companyID string, from, to time.Time) (map[entity.Status]int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := map[entity.Status]int{}
	for _, m := range f.items {
		if m.CompanyID != companyID || m.IssueDate.Before(from) || !m.IssueDate.Before(to) {
			continue
		}
		out[m.Status]++
	}
	return out, nil
}

type fakeEvents struct {
	mu    sync.Mutex
	items []*entity.ManifestEvent
}

func (f *fakeEvents) Append(_ context.Context, e *entity.ManifestEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.items = append(f.items, e)
	return nil
}

func (f *fakeEvents) ListByManifest(_ context.Context, manifestID string) ([]*entity.ManifestEvent, error) {
	var out []*entity.ManifestEvent
	for _, e := range f.items {
		if e.ManifestID == manifestID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakeEvents) CountAccepted(_ context.Context, manifestID string, kind entity.EventKind) (int, error) {
	n := 0
	for _, e := range f.items {
		if e.ManifestID == manifestID && e.Kind == kind && e.Accepted {
			n++
		}
	}
	return n, nil
}

// fakeTx executa fn direto sobre os fakes (sem rollback).
type fakeTx struct {
	manifests *fakeManifests
	companies *fakeCompanies
	events    *fakeEvents
	runs      int
}

func (f *fakeTx) Run(_ context.Context, fn func(repository.ManifestRepository, repository.CompanyRepository, repository.EventRepository) error) error {
	f.runs++
	return fn(f.manifests, f.companies, f.events)
}

type fakeVehicles struct{}

func (fakeVehicles) GetByID(_ context.Context, _, id string) (*entity.Vehicle, error) {
	if id != "veic-1" {
		return nil, nil
	}
	return &entity.Vehicle{ID: id, VehicleData: entity.VehicleData{Plate: "XYZ9A87", Tare: 9000, CapacityKG: 28000, BodyType: "02", WheelType: "03"}}, nil
}

type fakeDrivers struct{}

func (fakeDrivers) GetByID(_ context.Context, _, id string) (*entity.Driver, error) {
	if id != "cond-1" {
		return nil, nil
	}
	return &entity.Driver{ID: id, Name: "Maria Souza", CPF: otherCPF}, nil
}

type fakeCerts struct{ err error }

func (f fakeCerts) Load(string, string) (*manifest.Certificate, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &manifest.Certificate{SubjectCNPJ: testCNPJ, NotAfter: time.Now().AddDate(1, 0, 0)}, nil
}

// fakeTransport devolve respostas configuradas e registra as chamadas.
type fakeTransport struct {
	status      *manifest.AuthorityStatus
	statusErr   error
	transmit    *manifest.TransmitResponse
	transmitErr error
	event       *manifest.EventResponse
	eventErr    error
	pending     *manifest.PendingClosuresResponse
	pendingErr  error

	statusCalls   int
	transmitCalls int
	sentDocs      []*mdfe.Document
	eventReqs     []manifest.EventRequest
}

func newTransport() *fakeTransport {
	return &fakeTransport{
		status:   &manifest.AuthorityStatus{Online: true, StatusCode: 107, Reason: "Servico em Operacao"},
		transmit: &manifest.TransmitResponse{StatusCode: 100, Reason: "Autorizado o uso do MDF-e", Protocol: "952260000000001"},
		event:    &manifest.EventResponse{StatusCode: 135, Reason: "Evento registrado e vinculado a MDF-e", Protocol: "952260000000099"},
	}
}

func (f *fakeTransport) CheckAuthorityStatus(context.Context, manifest.TransportConfig) (*manifest.AuthorityStatus, error) {
	f.statusCalls++
	return f.status, f.statusErr
}

func (f *fakeTransport) Transmit(_ context.Context, _ manifest.TransportConfig, doc *mdfe.Document) (*manifest.TransmitResponse, error) {
	f.transmitCalls++
	f.sentDocs = append(f.sentDocs, doc)
	if f.transmitErr != nil {
		return nil, f.transmitErr
	}
	resp := *f.transmit
	if data, err := doc.Marshal(); err == nil {
		resp.SentXML = string(data)
	}
	return &resp, nil
}

func (f *fakeTransport) SendEvent(_ context.Context, _ manifest.TransportConfig, req manifest.EventRequest) (*manifest.EventResponse, error) {
	f.eventReqs = append(f.eventReqs, req)
	if f.eventErr != nil {
		return nil, f.eventErr
	}
	resp := *f.event
	return &resp, nil
}

func (f *fakeTransport) QueryPendingClosures(context.Context, manifest.TransportConfig, string) (*manifest.PendingClosuresResponse, error) {
	if f.pendingErr != nil {
		return nil, f.pendingErr
	}
	if f.pending == nil {
		return &manifest.PendingClosuresResponse{StatusCode: 112, Reason: "Nenhum MDF-e nao encerrado"}, nil
	}
	return f.pending, nil
}

type fakeArchive struct{ saved []manifest.ArchiveEntry }

func (f *fakeArchive) Save(_ context.Context, e manifest.ArchiveEntry) error {
	f.saved = append(f.saved, e)
	return nil
}

// ──────────────────────────────────────────────────────────────────────────────
// Montagem do caso de uso
// ──────────────────────────────────────────────────────────────────────────────

type env struct {
	uc        *manifest.UseCase
	manifests *fakeManifests
	companies *fakeCompanies
	events    *fakeEvents
	transport *fakeTransport
	archive   *fakeArchive
	tx        *fakeTx
}

func newEnv(certErr error) *env {
	companies := &fakeCompanies{items: map[string]*entity.Company{testCompanyID: testCompany()}}
	manifests := &fakeManifests{items: map[string]*entity.Manifest{}}
	events := &fakeEvents{}
	tx := &fakeTx{manifests: manifests, companies: companies, events: events}
	transport := newTransport()
	archive := &fakeArchive{}
	uc := manifest.NewUseCase(
		manifests, companies, events, tx,
		manifest.NewAssembler(fakeVehicles{}, fakeDrivers{}),
		manifest.NewConfigBuilder(fakeCerts{err: certErr}, 0),
		transport, archive, logger.Nop(),
	)
	return &env{uc: uc, manifests: manifests, companies: companies, events: events, transport: transport, archive: archive, tx: tx}
}

func (e *env) stored(id string) *entity.Manifest {
	return e.manifests.items[id]
}
