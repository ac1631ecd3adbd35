// Package manifest orquestra o ciclo de vida do MDF-e: montagem, transmissão,
// reenvio a partir do XML armazenado e eventos (cancelamento, encerramento,
// inclusão de condutor e de DF-e).
//
// Toda operação pública devolve (*Result, error). Falhas previstas (validação,
// configuração, indisponibilidade, rejeição, reconstrução) vêm no Result com
// Success=false; o error fica reservado a falhas inesperadas de persistência.
package manifest

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/Hacerfak/CoreMDFeApp/internal/domain"
	"github.com/Hacerfak/CoreMDFeApp/internal/domain/entity"
	"github.com/Hacerfak/CoreMDFeApp/internal/domain/repository"
	pkgmdfe "github.com/Hacerfak/CoreMDFeApp/pkg/mdfe"
	"github.com/Hacerfak/CoreMDFeApp/pkg/logger"
)

// UseCase casos de uso do manifesto.
type UseCase struct {
	manifests repository.ManifestRepository
	companies repository.CompanyRepository
	events    repository.EventRepository
	tx        TxRunner
	assembler *Assembler
	configs   *ConfigBuilder
	transport FiscalTransport
	archive   XMLArchive // nil = não arquiva
	log       *logger.Logger
	now       func() time.Time
}

// NewUseCase constrói os casos de uso com todas as dependências.
// archive pode ser nil.
func NewUseCase(
	manifests repository.ManifestRepository,
	companies repository.CompanyRepository,
	events repository.EventRepository,
	tx TxRunner,
	assembler *Assembler,
	configs *ConfigBuilder,
	transport FiscalTransport,
	archive XMLArchive,
	log *logger.Logger,
) *UseCase {
	if log == nil {
		log = logger.Nop()
	}
	return &UseCase{
		manifests: manifests,
		companies: companies,
		events:    events,
		tx:        tx,
		assembler: assembler,
		configs:   configs,
		transport: transport,
		archive:   archive,
		log:       log,
		now:       time.Now,
	}
}

// failure converte erro local conhecido em Result; os demais sobem como error.
func (uc *UseCase) failure(manifestID string, err error) (*Result, error) {
	if res, ok := classify(manifestID, err); ok {
		return res, nil
	}
	return nil, err
}

func (uc *UseCase) loadCompany(ctx context.Context, companyID string) (*entity.Company, error) {
	company, err := uc.companies.GetByID(ctx, companyID)
	if err != nil {
		return nil, fmt.Errorf("buscar empresa: %w", err)
	}
	if company == nil {
		return nil, domain.ErrCompanyNotConfigured
	}
	return company, nil
}

func (uc *UseCase) loadManifest(ctx context.Context, companyID, id string) (*entity.Manifest, error) {
	m, err := uc.manifests.GetByID(ctx, companyID, id)
	if err != nil {
		return nil, fmt.Errorf("buscar manifesto: %w", err)
	}
	if m == nil {
		return nil, fmt.Errorf("%w: manifesto %s", domain.ErrNotFound, id)
	}
	return m, nil
}

// scope logger com empresa, manifesto e chave (quando já autorizado).
func (uc *UseCase) scope(companyID string, m *entity.Manifest, operation string) *logger.Logger {
	return uc.log.For(logger.Scope{
		CompanyID:  companyID,
		ManifestID: m.ID,
		AccessKey:  m.AccessKey,
		Operation:  operation,
	})
}

// ensureOnline consulta o status do serviço antes de transmitir. nil = pode seguir.
func (uc *UseCase) ensureOnline(ctx context.Context, cfg TransportConfig, manifestID string) *Result {
	st, err := uc.transport.CheckAuthorityStatus(ctx, cfg)
	if err != nil {
		uc.log.For(logger.Scope{CompanyID: cfg.CompanyID, Operation: "status"}).Warn().Err(err).
			Msg("consulta de status da SEFAZ falhou")
		return fail(FailureTransport, manifestID, transportMessage(err))
	}
	if !st.Online || st.StatusCode != pkgmdfe.StatusServiceOnline {
		res := fail(FailureUnavailable, manifestID,
			fmt.Sprintf("serviço da SEFAZ indisponível: %d - %s", st.StatusCode, st.Reason))
		res.StatusCode = st.StatusCode
		return res
	}
	return nil
}

// recordAttempt grava no histórico uma interação que não alterou o manifesto
// (falha de comunicação ou rejeição). Erro de gravação só é logado.
func (uc *UseCase) recordAttempt(ctx context.Context, m *entity.Manifest, ev *entity.ManifestEvent) {
	if err := uc.events.Append(ctx, ev); err != nil {
		uc.scope(m.CompanyID, m, string(ev.Kind)).Error().Err(err).
			Msg("não foi possível registrar a tentativa no histórico")
	}
}

func (uc *UseCase) newEvent(m *entity.Manifest, kind entity.EventKind, seq int, elapsed time.Duration) *entity.ManifestEvent {
	return &entity.ManifestEvent{
		ID:            uuid.New().String(),
		ManifestID:    m.ID,
		CompanyID:     m.CompanyID,
		Kind:          kind,
		Sequence:      seq,
		PayloadDigest: m.PayloadDigest,
		Elapsed:       elapsed,
		CreatedAt:     uc.now(),
	}
}

// archiveXML arquiva sem nunca falhar a operação.
func (uc *UseCase) archiveXML(ctx context.Context, company *entity.Company, m *entity.Manifest, kind ArchiveKind, content string) {
	if uc.archive == nil || !company.Settings.SaveXML || content == "" {
		return
	}
	err := uc.archive.Save(ctx, ArchiveEntry{
		CompanyCNPJ: pkgmdfe.OnlyDigits(company.CNPJ),
		AccessKey:   m.AccessKey,
		Kind:        kind,
		IssuedAt:    m.IssueDate,
		Content:     []byte(content),
	})
	if err != nil {
		uc.scope(m.CompanyID, m, "archive").Warn().Err(err).
			Str("kind", string(kind)).
			Msg("falha ao arquivar XML")
	}
}
