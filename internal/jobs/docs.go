// Package jobs rotinas agendadas do serviço, com github.com/robfig/cron/v3.
//
// # Rotinas
//
//  1. PendingClosureJob - por empresa configurada, consulta na SEFAZ os MDF-e
//     autorizados e ainda não encerrados e registra em log os que passaram do
//     prazo (JOBS_PENDING_CLOSURE_AGE, padrão 30 dias). Somente leitura: nenhum
//     manifesto é alterado.
//
// # Uso
//
//	jm := jobs.NewJobManager(cfg.Jobs, companyRepo, manifestUC, log)
//	if err := jm.StartAll(); err != nil {
//		log.Fatal().Err(err).Msg("iniciar rotinas")
//	}
//	defer jm.StopAll()
//
// Execuções sobrepostas são descartadas (SkipIfStillRunning).
package jobs
