// Package bootstrap monta o grafo de dependências compartilhado pela API e pela CLI.
package bootstrap

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Hacerfak/CoreMDFeApp/internal/application/company"
	"github.com/Hacerfak/CoreMDFeApp/internal/application/manifest"
	"github.com/Hacerfak/CoreMDFeApp/internal/infrastructure/archive"
	"github.com/Hacerfak/CoreMDFeApp/internal/infrastructure/pdf"
	"github.com/Hacerfak/CoreMDFeApp/internal/infrastructure/postgres"
	"github.com/Hacerfak/CoreMDFeApp/internal/infrastructure/report"
	"github.com/Hacerfak/CoreMDFeApp/internal/infrastructure/sefaz"
	"github.com/Hacerfak/CoreMDFeApp/internal/jobs"
	"github.com/Hacerfak/CoreMDFeApp/pkg/config"
	"github.com/Hacerfak/CoreMDFeApp/pkg/logger"
)

// Container dependências prontas para uso.
type Container struct {
	Config    *config.Config
	Log       *logger.Logger
	Pool      *pgxpool.Pool
	Companies *postgres.CompanyRepo
	Gateway   *sefaz.Client

	Manifests *manifest.UseCase
	Documents *manifest.DocumentsUseCase
	CompanyUC *company.UseCase
}

// New abre o pool e constrói repositórios, adaptadores e casos de uso.
func New(ctx context.Context, cfg *config.Config, log *logger.Logger) (*Container, error) {
	pool, err := postgres.NewPool(ctx, cfg.DB, postgres.OptionsFrom(cfg.DB, cfg.App.Name))
	if err != nil {
		return nil, fmt.Errorf("conexão a PostgreSQL: %w", err)
	}

	xmlArchive, err := archive.New(ctx, cfg.Archive)
	if err != nil {
		pool.Close()
		return nil, err
	}

	manifestRepo := postgres.NewManifestRepository(pool)
	companyRepo := postgres.NewCompanyRepository(pool)
	eventRepo := postgres.NewEventRepository(pool)
	txRunner := postgres.NewTxRunner(pool)

	assembler := manifest.NewAssembler(postgres.NewVehicleRepository(pool), postgres.NewDriverRepository(pool))
	certs := sefaz.NewPFXLoader()
	configs := manifest.NewConfigBuilder(certs, time.Duration(cfg.Gateway.DefaultTimeoutMS)*time.Millisecond)
	transport := sefaz.NewClient(cfg.Gateway.URL, cfg.Gateway.Token)

	return &Container{
		Config:    cfg,
		Log:       log,
		Pool:      pool,
		Companies: companyRepo,
		Gateway:   transport,
		Manifests: manifest.NewUseCase(
			manifestRepo, companyRepo, eventRepo, txRunner,
			assembler, configs, transport, xmlArchive, log,
		),
		Documents: manifest.NewDocumentsUseCase(
			manifestRepo, companyRepo, pdf.NewMarotoDAMDFEGenerator(), report.NewExcelReportWriter(),
		),
		CompanyUC: company.NewUseCase(companyRepo, certs),
	}, nil
}

// Jobs gerenciador de rotinas agendadas ligado aos casos de uso.
func (c *Container) Jobs() *jobs.JobManager {
	return jobs.NewJobManager(c.Config.Jobs, c.Companies, c.Manifests, c.Log)
}

// Close libera o pool e as conexões com o gateway.
func (c *Container) Close() {
	c.Gateway.Close()
	c.Pool.Close()
}
