// Package cli comandos do utilitário mdfe (cobra). Os comandos chamam os mesmos
// casos de uso da API; a empresa vem de --company em vez do token.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/Hacerfak/CoreMDFeApp/internal/application/dto"
	"github.com/Hacerfak/CoreMDFeApp/internal/application/manifest"
	"github.com/Hacerfak/CoreMDFeApp/internal/bootstrap"
	"github.com/Hacerfak/CoreMDFeApp/internal/infrastructure/postgres"
	"github.com/Hacerfak/CoreMDFeApp/internal/infrastructure/sefaz"
	"github.com/Hacerfak/CoreMDFeApp/pkg/config"
	"github.com/Hacerfak/CoreMDFeApp/pkg/logger"
)

// Version preenchida via -ldflags no build.
var Version = "dev"

// Manifests operações usadas pelos comandos. Implementado por *manifest.UseCase.
type Manifests interface {
	Emit(ctx context.Context, companyID string, req dto.EmissionRequest) (*manifest.Result, error)
	Resend(ctx context.Context, companyID, manifestID string) (*manifest.Result, error)
	Cancel(ctx context.Context, companyID, manifestID, justification string) (*manifest.Result, error)
	Close(ctx context.Context, companyID, manifestID string, in dto.ClosureRequest) (*manifest.Result, error)
	AddDriver(ctx context.Context, companyID, manifestID string, in dto.AddDriverRequest) (*manifest.Result, error)
	AddDocument(ctx context.Context, companyID, manifestID string, in dto.AddDocumentRequest) (*manifest.Result, error)
	List(ctx context.Context, companyID string, in dto.ManifestListRequest) (*dto.ManifestListResponse, error)
	ServiceStatus(ctx context.Context, companyID string) (*dto.ServiceStatusResponse, error)
	PendingClosures(ctx context.Context, companyID string) (*dto.PendingClosuresResponse, error)
}

// Companies cadastro de emitentes. Implementado por *company.UseCase.
type Companies interface {
	Provision(ctx context.Context, in dto.ProvisionCompanyRequest) (*dto.CompanyResponse, error)
	List(ctx context.Context) ([]*dto.CompanyResponse, error)
}

// Backend dependências abertas sob demanda pelos comandos que usam o banco.
type Backend struct {
	Manifests Manifests
	Companies Companies
	Close     func()
}

// CLI estado compartilhado entre os comandos. Os campos de função têm
// implementações padrão em New e são trocados nos testes.
type CLI struct {
	LoadConfig func(path string) (*config.Config, error)
	Open       func(ctx context.Context, cfg *config.Config, log *logger.Logger) (*Backend, error)
	Migrate    func(ctx context.Context, cfg *config.Config, log *logger.Logger) ([]string, error)
	LoadCert   func(path, password string) (*manifest.Certificate, error)

	Out io.Writer
	Err io.Writer

	cfgFile   string
	companyID string
	verbose   bool

	cfg     *config.Config
	log     *logger.Logger
	backend *Backend
}

// New CLI ligada à infraestrutura real.
func New() *CLI {
	return &CLI{
		LoadConfig: config.LoadFile,
		Open:       openBackend,
		Migrate:    migrate,
		LoadCert:   sefaz.LoadCertificate,
		Out:        os.Stdout,
		Err:        os.Stderr,
	}
}

// Execute roda o comando raiz com os argumentos do processo.
func Execute() {
	c := New()
	err := c.Command().Execute()
	// PersistentPostRun não roda quando o comando falha
	c.closeBackend()
	if err != nil {
		os.Exit(1)
	}
}

// Command monta a árvore de comandos.
func (c *CLI) Command() *cobra.Command {
	root := &cobra.Command{
		Use:   "mdfe",
		Short: "Emissão e eventos de MDF-e pela linha de comando",
		Long: `mdfe opera o mesmo banco e o mesmo gateway fiscal da API.

Exemplos:
  mdfe migrate
  mdfe company init --cert a1.pfx --password segredo --name "Transportes" --uf GO --city-code 5208707 --city Goiania
  mdfe --company <id> emit -f viagem.yaml
  mdfe --company <id> close <manifesto>
  mdfe --company <id> pending
  mdfe cert check --path a1.pfx --password segredo`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return c.setup()
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			c.closeBackend()
		},
	}
	root.SetOut(c.Out)
	root.SetErr(c.Err)

	root.PersistentFlags().StringVar(&c.cfgFile, "config", "", "arquivo de configuração (padrão: .env e variáveis de ambiente)")
	root.PersistentFlags().StringVar(&c.companyID, "company", os.Getenv("MDFE_COMPANY_ID"), "ID da empresa emitente (ou MDFE_COMPANY_ID)")
	root.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "log detalhado")

	root.AddCommand(
		c.migrateCmd(),
		c.emitCmd(),
		c.resendCmd(),
		c.cancelCmd(),
		c.closeCmd(),
		c.addDriverCmd(),
		c.addDocumentCmd(),
		c.statusCmd(),
		c.pendingCmd(),
		c.listCmd(),
		c.importCmd(),
		c.companyCmd(),
		c.certCmd(),
		c.tokenCmd(),
		c.versionCmd(),
	)
	return root
}

func (c *CLI) setup() error {
	if c.cfg != nil {
		return nil
	}
	cfg, err := c.LoadConfig(c.cfgFile)
	if err != nil {
		return err
	}
	level := cfg.App.LogLevel
	if c.verbose {
		level = "debug"
	}
	c.cfg = cfg
	c.log = logger.NewWithWriter(logger.Config{Env: "development", Level: level}, c.Err)
	return nil
}

// manifests abre o backend na primeira chamada e exige --company.
func (c *CLI) manifests(ctx context.Context) (Manifests, string, error) {
	if c.companyID == "" {
		return nil, "", fmt.Errorf("informe --company ou MDFE_COMPANY_ID")
	}
	b, err := c.open(ctx)
	if err != nil {
		return nil, "", err
	}
	return b.Manifests, c.companyID, nil
}

// companies não exige --company; no init ele vira o ID do emitente novo.
func (c *CLI) companies(ctx context.Context) (Companies, error) {
	b, err := c.open(ctx)
	if err != nil {
		return nil, err
	}
	if b.Companies == nil {
		return nil, fmt.Errorf("cadastro de empresas indisponível")
	}
	return b.Companies, nil
}

func (c *CLI) open(ctx context.Context) (*Backend, error) {
	if c.backend == nil {
		b, err := c.Open(ctx, c.cfg, c.log)
		if err != nil {
			return nil, err
		}
		c.backend = b
	}
	return c.backend, nil
}

func (c *CLI) closeBackend() {
	if c.backend != nil && c.backend.Close != nil {
		c.backend.Close()
	}
	c.backend = nil
}

func openBackend(ctx context.Context, cfg *config.Config, log *logger.Logger) (*Backend, error) {
	cont, err := bootstrap.New(ctx, cfg, log)
	if err != nil {
		return nil, err
	}
	return &Backend{Manifests: cont.Manifests, Companies: cont.CompanyUC, Close: cont.Close}, nil
}

func migrate(ctx context.Context, cfg *config.Config, log *logger.Logger) ([]string, error) {
	m, err := postgres.OpenMigrator(cfg.DB.ConnectionString(), log)
	if err != nil {
		return nil, err
	}
	defer m.Close()
	return m.Up(ctx)
}
