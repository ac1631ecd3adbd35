package jobs

import (
	"fmt"

	"github.com/Hacerfak/CoreMDFeApp/pkg/config"
	"github.com/Hacerfak/CoreMDFeApp/pkg/logger"
)

// JobManager coordena as rotinas agendadas da aplicação.
type JobManager struct {
	enabled        bool
	pendingClosure *PendingClosureJob
	log            *logger.Logger
}

// NewJobManager cria o gerenciador com todas as rotinas.
func NewJobManager(cfg config.JobsConfig, companies CompanyLister, pending PendingQuery, log *logger.Logger) *JobManager {
	if log == nil {
		log = logger.Nop()
	}
	return &JobManager{
		enabled:        cfg.Enabled,
		pendingClosure: NewPendingClosureJob(companies, pending, cfg.PendingClosureSpec, cfg.PendingClosureAge, log),
		log:            log,
	}
}

// StartAll inicia as rotinas. Com JOBS_ENABLED=false não faz nada.
func (jm *JobManager) StartAll() error {
	if !jm.enabled {
		jm.log.Info().Msg("rotinas agendadas desabilitadas")
		return nil
	}
	if err := jm.pendingClosure.Start(); err != nil {
		return fmt.Errorf("iniciar rotina de encerramentos pendentes: %w", err)
	}
	return nil
}

// StopAll para as rotinas e espera as execuções em andamento.
func (jm *JobManager) StopAll() {
	if !jm.enabled {
		return
	}
	jm.pendingClosure.Stop()
}
