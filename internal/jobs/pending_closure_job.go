package jobs

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/Hacerfak/CoreMDFeApp/internal/application/dto"
	"github.com/Hacerfak/CoreMDFeApp/internal/domain/entity"
	pkgmdfe "github.com/Hacerfak/CoreMDFeApp/pkg/mdfe"
	"github.com/Hacerfak/CoreMDFeApp/pkg/logger"
)

const (
	defaultPendingSpec = "0 * * * *"
	defaultPendingAge  = 30 * 24 * time.Hour
)

// CompanyLister implementado por repository.CompanyRepository.
type CompanyLister interface {
	List(ctx context.Context) ([]*entity.Company, error)
}

// PendingQuery implementado por *manifest.UseCase.
type PendingQuery interface {
	PendingClosures(ctx context.Context, companyID string) (*dto.PendingClosuresResponse, error)
}

// PendingRunReport resumo de uma execução.
type PendingRunReport struct {
	Companies int // empresas consultadas
	Failures  int // consultas que falharam
	Pending   int // MDF-e não encerrados
	Overdue   int // não encerrados além do prazo
}

// PendingClosureJob consulta periodicamente os MDF-e não encerrados de cada empresa.
type PendingClosureJob struct {
	companies CompanyLister
	pending   PendingQuery
	spec      string
	maxAge    time.Duration
	cron      *cron.Cron
	log       *logger.Logger
	now       func() time.Time
}

// NewPendingClosureJob spec vazio = de hora em hora; maxAge zero = 30 dias.
func NewPendingClosureJob(companies CompanyLister, pending PendingQuery, spec string, maxAge time.Duration, log *logger.Logger) *PendingClosureJob {
	if spec == "" {
		spec = defaultPendingSpec
	}
	if maxAge <= 0 {
		maxAge = defaultPendingAge
	}
	return &PendingClosureJob{
		companies: companies,
		pending:   pending,
		spec:      spec,
		maxAge:    maxAge,
		cron:      cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
		log:       log.Component("pending_closure_job"),
		now:       time.Now,
	}
}

// Start agenda a rotina conforme a expressão cron (5 campos).
func (j *PendingClosureJob) Start() error {
	if _, err := j.cron.AddFunc(j.spec, func() { j.Run(context.Background()) }); err != nil {
		return err
	}
	j.cron.Start()
	j.log.Info().Str("spec", j.spec).Msg("rotina de encerramentos pendentes iniciada")
	return nil
}

// Stop para o agendador e espera a execução corrente terminar.
func (j *PendingClosureJob) Stop() {
	<-j.cron.Stop().Done()
	j.log.Info().Msg("rotina de encerramentos pendentes parada")
}

// Run executa uma rodada. Falha de uma empresa não interrompe as demais.
func (j *PendingClosureJob) Run(ctx context.Context) PendingRunReport {
	var rep PendingRunReport
	companies, err := j.companies.List(ctx)
	if err != nil {
		j.log.Error().Err(err).Msg("listar empresas")
		rep.Failures++
		return rep
	}

	limit := j.now().Add(-j.maxAge)
	for _, c := range companies {
		if !c.FiscalConfigured() || c.Settings.CertificatePath == "" {
			continue
		}
		rep.Companies++
		clog := j.log.For(logger.Scope{CompanyID: c.ID, Operation: "pending_closures"})
		resp, err := j.pending.PendingClosures(ctx, c.ID)
		if err != nil {
			rep.Failures++
			clog.Warn().Err(err).Msg("consulta de não encerrados falhou")
			continue
		}
		for _, p := range resp.Items {
			rep.Pending++
			issued, ok := pkgmdfe.IssueMonthFromAccessKey(p.AccessKey)
			// o mês de emissão é o limite inferior; conta como atrasado só quando o mês inteiro passou do prazo
			if !ok || !issued.AddDate(0, 1, 0).Before(limit) {
				continue
			}
			rep.Overdue++
			clog.For(logger.Scope{ManifestID: p.ManifestID, AccessKey: p.AccessKey}).Warn().
				Str("issued_month", issued.Format("2006-01")).
				Msg("MDF-e autorizado sem encerramento além do prazo")
		}
	}
	j.log.Info().
		Int("companies", rep.Companies).
		Int("pending", rep.Pending).
		Int("overdue", rep.Overdue).
		Int("failures", rep.Failures).
		Msg("consulta de encerramentos pendentes concluída")
	return rep
}
