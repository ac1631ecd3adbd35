//go:build integration

package postgres_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/Hacerfak/CoreMDFeApp/internal/domain"
	"github.com/Hacerfak/CoreMDFeApp/internal/domain/entity"
	"github.com/Hacerfak/CoreMDFeApp/internal/domain/repository"
	"github.com/Hacerfak/CoreMDFeApp/internal/infrastructure/postgres"
	"github.com/Hacerfak/CoreMDFeApp/pkg/logger"
)

// RepositoryIntegrationSuite repositórios contra um PostgreSQL real, com o
// esquema criado pelas migrações embutidas.
type RepositoryIntegrationSuite struct {
	suite.Suite
	container *tcpostgres.PostgresContainer
	pool      *pgxpool.Pool
	companyID string
}

func TestRepositoryIntegration(t *testing.T) {
	suite.Run(t, new(RepositoryIntegrationSuite))
}

func (s *RepositoryIntegrationSuite) SetupSuite() {
	ctx := context.Background()

	container, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("mdfe"),
		tcpostgres.WithUsername("mdfe"),
		tcpostgres.WithPassword("mdfe"),
		testcontainers.WithWaitStrategy(wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2)),
	)
	s.Require().NoError(err)
	s.container = container

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	s.Require().NoError(err)

	mig, err := postgres.OpenMigrator(dsn, logger.Nop())
	s.Require().NoError(err)
	_, err = mig.Up(ctx)
	s.Require().NoError(err)
	s.Require().NoError(mig.Close())

	s.pool, err = postgres.NewPoolFromDSN(ctx, dsn, postgres.DefaultPoolOptions())
	s.Require().NoError(err)
}

func (s *RepositoryIntegrationSuite) TearDownSuite() {
	if s.pool != nil {
		s.pool.Close()
	}
	if s.container != nil {
		s.Require().NoError(s.container.Terminate(context.Background()))
	}
}

func (s *RepositoryIntegrationSuite) SetupTest() {
	ctx := context.Background()
	_, err := s.pool.Exec(ctx, `TRUNCATE companies, vehicles, drivers, manifests, manifest_events CASCADE`)
	s.Require().NoError(err)

	s.companyID = uuid.New().String()
	_, err = s.pool.Exec(ctx, `
		INSERT INTO companies (id, cnpj, name, uf, city_code, environment, series, last_number_issued)
		VALUES ($1, '11222333000181', 'TRANSPORTES TESTE LTDA', 'GO', '5208707', 2, 1, 0)`, s.companyID)
	s.Require().NoError(err)
}

func (s *RepositoryIntegrationSuite) sampleManifest(number int64) *entity.Manifest {
	return &entity.Manifest{
		CompanyID:     s.companyID,
		Environment:   2,
		Number:        number,
		Series:        1,
		NumericCode:   "00000010",
		IssueDate:     time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC),
		EmitterType:   2,
		EmissionType:  1,
		Modal:         1,
		OriginUF:      "GO",
		DestinationUF: "SP",
		CargoUnit:     "01",
		TotalValue:    decimal.RequireFromString("1500.50"),
		TotalWeight:   decimal.RequireFromString("1000.1250"),
		QtyNFe:        1,
		Product:       &entity.CargoProduct{CargoType: "05", Name: "ARROZ"},
		Status:        entity.StatusDrafting,
		DraftXML:      "<MDFe/>",
		RouteLegs:     []string{"MG"},
		LoadCities:    []entity.City{{Code: "5208707", Name: "GOIANIA"}},
		UnloadCities:  []entity.UnloadCity{{
			City:      entity.City{Code: "3550308", Name: "SAO PAULO"},
			Documents: []entity.CargoDocumentRef{{Type: 55, AccessKey: "52260311222333000181550010000000011000000010"}},
		}},
		Vehicles: []entity.ManifestVehicle{{
			Role:        entity.VehicleTraction,
			VehicleData: entity.VehicleData{Plate: "ABC1D23", Tare: 8000, BodyType: "02", WheelType: "03", UF: "GO"},
		}},
		Drivers: []entity.ManifestDriver{{Name: "MARIA SOUZA", CPF: "52998224725"}},
		Tolls:   []entity.Toll{{SupplierCNPJ: "11222333000181", PurchaseNumber: "123", Value: decimal.RequireFromString("45.90")}},
	}
}

// ─── Empresa ─────────────────────────────────────────────────────────────────

func (s *RepositoryIntegrationSuite) TestReserveNumber_ConcorrenteNuncaRepete() {
	ctx := context.Background()
	runner := postgres.NewTxRunner(s.pool)

	const workers = 10
	var (
		mu   sync.Mutex
		seen = map[int64]bool{}
		wg   sync.WaitGroup
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := runner.Run(ctx, func(_ repository.ManifestRepository, companies repository.CompanyRepository, _ repository.EventRepository) error {
				_, n, err := companies.ReserveNumber(ctx, s.companyID)
				if err != nil {
					return err
				}
				mu.Lock()
				seen[n] = true
				mu.Unlock()
				return nil
			})
			s.NoError(err)
		}()
	}
	wg.Wait()

	s.Len(seen, workers, "cada emissão recebe um número distinto")
	c, err := postgres.NewCompanyRepository(s.pool).GetByID(ctx, s.companyID)
	s.Require().NoError(err)
	s.EqualValues(workers, c.Settings.LastNumberIssued)
}

func (s *RepositoryIntegrationSuite) TestReserveNumber_RollbackDevolveNumero() {
	ctx := context.Background()
	runner := postgres.NewTxRunner(s.pool)

	err := runner.Run(ctx, func(_ repository.ManifestRepository, companies repository.CompanyRepository, _ repository.EventRepository) error {
		if _, _, err := companies.ReserveNumber(ctx, s.companyID); err != nil {
			return err
		}
		return domain.ErrInvalidInput
	})
	s.ErrorIs(err, domain.ErrInvalidInput)

	c, err := postgres.NewCompanyRepository(s.pool).GetByID(ctx, s.companyID)
	s.Require().NoError(err)
	s.Zero(c.Settings.LastNumberIssued)
}

func (s *RepositoryIntegrationSuite) TestCompanyCreate_ContadorInicialEConflito() {
	ctx := context.Background()
	repo := postgres.NewCompanyRepository(s.pool)
	c := &entity.Company{
		CNPJ: "11444777000161", Name: "CERRADO LOGISTICA LTDA", UF: "GO",
		CityCode: "5208707", CityName: "GOIANIA",
		Settings: entity.FiscalSettings{
			Environment: 2, IssuerUF: "GO", LayoutVersion: "3.00", Series: 0,
			LastNumberIssued: 120, TimeoutMS: entity.DefaultTimeoutMS,
			CertificatePath: "/certs/cerrado.pfx",
		},
		CreatedAt: time.Now(), UpdatedAt: time.Now(),
	}
	s.Require().NoError(repo.Create(ctx, c))
	s.NotEmpty(c.ID)

	got, err := repo.GetByID(ctx, c.ID)
	s.Require().NoError(err)
	s.Require().NotNil(got)
	s.Equal("11444777000161", got.CNPJ)
	s.Equal(0, got.Settings.Series)

	series, n, err := repo.ReserveNumber(ctx, c.ID)
	s.Require().NoError(err)
	s.Equal(0, series)
	s.EqualValues(121, n)

	dup := *c
	dup.ID = ""
	s.ErrorIs(repo.Create(ctx, &dup), domain.ErrConflict)
}

// ─── Manifesto ───────────────────────────────────────────────────────────────

func (s *RepositoryIntegrationSuite) TestCreateGetByID_GrafoCompleto() {
	ctx := context.Background()
	repo := postgres.NewManifestRepository(s.pool)
	m := s.sampleManifest(1)
	s.Require().NoError(repo.Create(ctx, m))

	got, err := repo.GetByID(ctx, s.companyID, m.ID)
	s.Require().NoError(err)
	s.Require().NotNil(got)

	s.Equal(entity.StatusDrafting, got.Status)
	s.Empty(got.AccessKey)
	s.True(m.TotalValue.Equal(got.TotalValue))
	s.Equal([]string{"MG"}, got.RouteLegs)
	s.Require().Len(got.UnloadCities, 1)
	s.Len(got.UnloadCities[0].Documents, 1)
	s.Equal("ABC1D23", got.Traction().Plate)
	s.Equal("52998224725", got.Drivers[0].CPF)
	s.True(decimal.RequireFromString("45.90").Equal(got.Tolls[0].Value))
	s.Equal("ARROZ", got.Product.Name)

	other, err := repo.GetByID(ctx, uuid.New().String(), m.ID)
	s.Require().NoError(err)
	s.Nil(other, "outra empresa não enxerga o manifesto")
}

func (s *RepositoryIntegrationSuite) TestCreate_NumeroDuplicado() {
	ctx := context.Background()
	repo := postgres.NewManifestRepository(s.pool)
	s.Require().NoError(repo.Create(ctx, s.sampleManifest(7)))
	s.ErrorIs(repo.Create(ctx, s.sampleManifest(7)), domain.ErrConflict)
}

func (s *RepositoryIntegrationSuite) TestUpdateTransmission_EAppends() {
	ctx := context.Background()
	repo := postgres.NewManifestRepository(s.pool)
	m := s.sampleManifest(2)
	s.Require().NoError(repo.Create(ctx, m))

	key := "52260311222333000181580010000000021000000015"
	m.Status = entity.StatusAuthorized
	m.StatusCode = 100
	m.AccessKey = key
	m.AuthorizationProtocol = "952260000000001"
	m.SignedXML = "<MDFe assinado/>"
	m.UpdatedAt = time.Now()
	s.Require().NoError(repo.UpdateTransmission(ctx, m))

	s.Require().NoError(repo.AppendDriver(ctx, m.ID, entity.ManifestDriver{Name: "JOAO", CPF: "11144477735", Event: true}))
	s.ErrorIs(repo.AppendDriver(ctx, m.ID, entity.ManifestDriver{Name: "JOAO", CPF: "11144477735", Event: true}), domain.ErrConflict)

	rio := entity.City{Code: "3304557", Name: "RIO DE JANEIRO"}
	nfe := entity.CargoDocumentRef{Type: 55, AccessKey: "52260311222333000181550010000000021000000025"}
	s.Require().NoError(repo.AppendDocument(ctx, m.ID, m.LoadCities[0], rio, nfe))

	got, err := repo.GetByID(ctx, s.companyID, m.ID)
	s.Require().NoError(err)
	s.Equal(key, got.AccessKey)
	s.Equal(entity.StatusAuthorized, got.Status)
	s.Len(got.Drivers, 2)
	s.True(got.Drivers[1].Event)
	s.Require().Len(got.UnloadCities, 2)
	s.Equal(rio, got.UnloadCities[1].City)
	s.Equal(nfe.AccessKey, got.UnloadCities[1].Documents[0].AccessKey)

	list, total, err := repo.List(ctx, repository.ManifestFilter{CompanyID: s.companyID, Search: key})
	s.Require().NoError(err)
	s.Equal(1, total)
	s.Equal(m.ID, list[0].ID)
}

func (s *RepositoryIntegrationSuite) TestListCountDelete() {
	ctx := context.Background()
	repo := postgres.NewManifestRepository(s.pool)
	for n := int64(1); n <= 3; n++ {
		s.Require().NoError(repo.Create(ctx, s.sampleManifest(n)))
	}

	items, total, err := repo.List(ctx, repository.ManifestFilter{CompanyID: s.companyID, Limit: 2})
	s.Require().NoError(err)
	s.Equal(3, total)
	s.Len(items, 2)

	from := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	counts, err := repo.CountByStatus(ctx, s.companyID, from, from.AddDate(0, 1, 0))
	s.Require().NoError(err)
	s.Equal(3, counts[entity.StatusDrafting])

	s.Require().NoError(repo.Delete(ctx, s.companyID, items[0].ID))
	s.ErrorIs(repo.Delete(ctx, s.companyID, items[0].ID), domain.ErrNotFound)
}

// ─── Histórico ───────────────────────────────────────────────────────────────

func (s *RepositoryIntegrationSuite) TestEvents_CountAccepted() {
	ctx := context.Background()
	m := s.sampleManifest(9)
	s.Require().NoError(postgres.NewManifestRepository(s.pool).Create(ctx, m))

	events := postgres.NewEventRepository(s.pool)
	for _, accepted := range []bool{true, false, true} {
		s.Require().NoError(events.Append(ctx, &entity.ManifestEvent{
			ManifestID: m.ID, CompanyID: s.companyID, Kind: entity.EventAddDriver,
			Accepted: accepted, StatusCode: 135, Elapsed: 250 * time.Millisecond,
		}))
	}

	n, err := events.CountAccepted(ctx, m.ID, entity.EventAddDriver)
	s.Require().NoError(err)
	s.Equal(2, n)

	list, err := events.ListByManifest(ctx, m.ID)
	s.Require().NoError(err)
	s.Len(list, 3)
	s.Equal(250*time.Millisecond, list[0].Elapsed)
}
