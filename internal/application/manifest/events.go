package manifest

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/Hacerfak/CoreMDFeApp/internal/application/dto"
	"github.com/Hacerfak/CoreMDFeApp/internal/domain"
	"github.com/Hacerfak/CoreMDFeApp/internal/domain/entity"
	"github.com/Hacerfak/CoreMDFeApp/internal/domain/mdfe"
	"github.com/Hacerfak/CoreMDFeApp/internal/domain/repository"
	pkgmdfe "github.com/Hacerfak/CoreMDFeApp/pkg/mdfe"
)

// Limites da justificativa de cancelamento (xJust).
const (
	minJustification = 15
	maxJustification = 255
)

// eventSpec o que varia entre os quatro eventos; o ciclo
// requisição → autoridade → cStat → persistência é o mesmo.
type eventSpec struct {
	kind    entity.EventKind
	archive ArchiveKind
	// fill completa a requisição com o payload específico.
	fill func(req *EventRequest)
	// apply altera o manifesto em memória após cStat 135.
	apply func(m *entity.Manifest, resp *EventResponse) error
	// persist grava a alteração dentro da transação do histórico.
	persist func(ctx context.Context, repo repository.ManifestRepository, m *entity.Manifest) error
}

// Cancel registra o evento de cancelamento (110111).
func (uc *UseCase) Cancel(ctx context.Context, companyID, manifestID, justification string) (*Result, error) {
	m, err := uc.loadAmendable(ctx, companyID, manifestID)
	if err != nil {
		return uc.failure(manifestID, err)
	}
	just := pkgmdfe.NormalizeText(justification)
	if n := utf8.RuneCountInString(just); n < minJustification || n > maxJustification {
		return uc.failure(m.ID, invalid("justificativa deve ter entre %d e %d caracteres (informado: %d)",
			minJustification, maxJustification, n))
	}

	return uc.dispatch(ctx, companyID, m, eventSpec{
		kind:    entity.EventCancel,
		archive: ArchiveCancellation,
		fill:    func(req *EventRequest) { req.Justification = just },
		apply: func(m *entity.Manifest, resp *EventResponse) error {
			status, err := m.Status.Cancel()
			if err != nil {
				return err
			}
			m.Status = status
			m.CancellationProtocol = resp.Protocol
			m.CancellationReceipt = resp.ReceiptXML
			return nil
		},
		persist: func(ctx context.Context, repo repository.ManifestRepository, m *entity.Manifest) error {
			return repo.UpdateStatus(ctx, m)
		},
	})
}

// Close registra o encerramento (110112). Sem UF/município informados, usa o
// último município de descarregamento; sem data, hoje.
func (uc *UseCase) Close(ctx context.Context, companyID, manifestID string, in dto.ClosureRequest) (*Result, error) {
	m, err := uc.loadAmendable(ctx, companyID, manifestID)
	if err != nil {
		return uc.failure(manifestID, err)
	}
	payload, err := uc.closurePayload(m, in)
	if err != nil {
		return uc.failure(m.ID, err)
	}

	return uc.dispatch(ctx, companyID, m, eventSpec{
		kind:    entity.EventClose,
		archive: ArchiveClosure,
		fill:    func(req *EventRequest) { req.Closure = payload },
		apply: func(m *entity.Manifest, resp *EventResponse) error {
			status, err := m.Status.Close()
			if err != nil {
				return err
			}
			m.Status = status
			m.ClosureProtocol = resp.Protocol
			m.ClosureReceipt = resp.ReceiptXML
			return nil
		},
		persist: func(ctx context.Context, repo repository.ManifestRepository, m *entity.Manifest) error {
			return repo.UpdateStatus(ctx, m)
		},
	})
}

func (uc *UseCase) closurePayload(m *entity.Manifest, in dto.ClosureRequest) (*ClosurePayload, error) {
	cityCode := pkgmdfe.OnlyDigits(in.CityCode)
	if cityCode == "" {
		last, ok := m.LastUnloadCity()
		if !ok {
			return nil, invalid("manifesto sem município de descarregamento; informe o município de encerramento")
		}
		cityCode = last.Code
	}
	if len(cityCode) != 7 || ufFromCityCode(cityCode) == "" {
		return nil, invalid("código IBGE do município de encerramento %q", cityCode)
	}

	uf, err := mdfe.ParseUF(firstNonEmpty(in.UF, ufFromCityCode(cityCode)))
	if err != nil {
		return nil, err
	}
	if uf.String() != ufFromCityCode(cityCode) {
		return nil, invalid("município %s não pertence à UF %s", cityCode, uf)
	}

	closedOn := uc.now()
	if in.ClosedOn != nil && !in.ClosedOn.IsZero() {
		closedOn = *in.ClosedOn
	}
	if dateOnly(closedOn).Before(dateOnly(m.IssueDate)) {
		return nil, invalid("data de encerramento anterior à emissão")
	}
	return &ClosurePayload{UFCode: uf.Code(), CityCode: cityCode, ClosedOn: closedOn}, nil
}

func dateOnly(t time.Time) time.Time {
	y, mo, d := t.Date()
	return time.Date(y, mo, d, 0, 0, 0, 0, time.UTC)
}

// AddDriver registra a inclusão de condutor (110114) e acrescenta o condutor ao manifesto.
func (uc *UseCase) AddDriver(ctx context.Context, companyID, manifestID string, in dto.AddDriverRequest) (*Result, error) {
	m, err := uc.loadAmendable(ctx, companyID, manifestID)
	if err != nil {
		return uc.failure(manifestID, err)
	}
	driver, err := normalizeDriver(in.Name, in.CPF)
	if err != nil {
		return uc.failure(m.ID, err)
	}
	for _, d := range m.Drivers {
		if d.CPF == driver.CPF {
			return uc.failure(m.ID, fmt.Errorf("%w: condutor %s já consta no manifesto", domain.ErrConflict, driver.CPF))
		}
	}
	driver.Event = true

	return uc.dispatch(ctx, companyID, m, eventSpec{
		kind:    entity.EventAddDriver,
		archive: ArchiveAddDriver,
		fill:    func(req *EventRequest) { req.Driver = &DriverPayload{Name: driver.Name, CPF: driver.CPF} },
		apply: func(m *entity.Manifest, _ *EventResponse) error {
			m.Drivers = append(m.Drivers, driver)
			return nil
		},
		persist: func(ctx context.Context, repo repository.ManifestRepository, m *entity.Manifest) error {
			return repo.AppendDriver(ctx, m.ID, driver)
		},
	})
}

// AddDocument registra a inclusão de NF-e (110115) em manifesto autorizado.
// Os totais da carga não são recalculados.
func (uc *UseCase) AddDocument(ctx context.Context, companyID, manifestID string, in dto.AddDocumentRequest) (*Result, error) {
	m, err := uc.loadAmendable(ctx, companyID, manifestID)
	if err != nil {
		return uc.failure(manifestID, err)
	}

	key := pkgmdfe.OnlyDigits(in.NFeKey)
	if err := pkgmdfe.ValidateAccessKey(key); err != nil {
		return uc.failure(m.ID, invalid("chave da NF-e: %v", err))
	}
	if pkgmdfe.ModelFromAccessKey(key) != pkgmdfe.ModelNFe {
		return uc.failure(m.ID, invalid("chave %s não é de NF-e (modelo 55)", key))
	}
	for _, u := range m.UnloadCities {
		for _, d := range u.Documents {
			if d.AccessKey == key {
				return uc.failure(m.ID, fmt.Errorf("%w: NF-e %s já consta no manifesto", domain.ErrConflict, key))
			}
		}
	}
	load, err := city(in.LoadCityCode, in.LoadCityName)
	if err != nil {
		return uc.failure(m.ID, invalid("município de carregamento: %v", err))
	}
	unload, err := city(in.UnloadCityCode, in.UnloadCityName)
	if err != nil {
		return uc.failure(m.ID, invalid("município de descarregamento: %v", err))
	}
	ref := entity.CargoDocumentRef{Type: int(mdfe.DocumentNFe), AccessKey: key}

	return uc.dispatch(ctx, companyID, m, eventSpec{
		kind:    entity.EventAddDocument,
		archive: ArchiveAddDocument,
		fill: func(req *EventRequest) {
			req.CargoDocument = &CargoDocumentPayload{
				LoadCityCode:   load.Code,
				LoadCityName:   load.Name,
				UnloadCityCode: unload.Code,
				UnloadCityName: unload.Name,
				NFeKey:         key,
			}
		},
		apply: func(m *entity.Manifest, _ *EventResponse) error {
			m.AddUnloadDocument(unload, ref)
			return nil
		},
		persist: func(ctx context.Context, repo repository.ManifestRepository, m *entity.Manifest) error {
			return repo.AppendDocument(ctx, m.ID, load, unload, ref)
		},
	})
}

// loadAmendable carrega o manifesto e confere as pré-condições comuns a todo
// evento: protocolo de autorização presente e status Authorized.
func (uc *UseCase) loadAmendable(ctx context.Context, companyID, manifestID string) (*entity.Manifest, error) {
	m, err := uc.loadManifest(ctx, companyID, manifestID)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(m.AuthorizationProtocol) == "" {
		return nil, fmt.Errorf("%w: manifesto %s", domain.ErrMissingProtocol, m.ID)
	}
	if err := m.Status.ValidateAmend(); err != nil {
		return nil, err
	}
	return m, nil
}

// dispatch envia o evento e interpreta o cStat. Só 135 altera o manifesto;
// qualquer outro código vira rejeição com o motivo da autoridade.
func (uc *UseCase) dispatch(ctx context.Context, companyID string, m *entity.Manifest, spec eventSpec) (*Result, error) {
	company, err := uc.loadCompany(ctx, companyID)
	if err != nil {
		return uc.failure(m.ID, err)
	}
	cfg, err := uc.configs.Build(company)
	if err != nil {
		return uc.failure(m.ID, err)
	}
	doc, err := uc.recoverDocument(m)
	if err != nil {
		return uc.failure(m.ID, err)
	}
	accepted, err := uc.events.CountAccepted(ctx, m.ID, spec.kind)
	if err != nil {
		return nil, fmt.Errorf("contar eventos: %w", err)
	}

	req := EventRequest{
		Kind:      spec.kind,
		Document:  doc,
		AccessKey: firstNonEmpty(m.AccessKey, doc.AccessKey()),
		Protocol:  m.AuthorizationProtocol,
		Sequence:  accepted + 1,
		IssuedAt:  uc.now(),
	}
	spec.fill(&req)

	start := uc.now()
	resp, err := uc.transport.SendEvent(ctx, cfg, req)
	elapsed := uc.now().Sub(start)
	ev := uc.newEvent(m, spec.kind, req.Sequence, elapsed)

	if err != nil {
		uc.scope(company.ID, m, string(spec.kind)).Warn().Err(err).
			Dur("elapsed", elapsed).
			Msg("envio de evento falhou")
		ev.Reason = transportMessage(err)
		uc.recordAttempt(ctx, m, ev)
		return fail(FailureTransport, m.ID, transportMessage(err)), nil
	}

	ev.StatusCode = resp.StatusCode
	ev.Reason = resp.Reason
	ev.Protocol = resp.Protocol
	ev.SentXML = resp.SentXML
	ev.ReceiptXML = resp.ReceiptXML

	elog := uc.scope(company.ID, m, string(spec.kind))
	logEvt := elog.Info()
	if resp.StatusCode != pkgmdfe.StatusEventRegistered {
		logEvt = elog.Warn()
	}
	logEvt.
		Int("cstat", resp.StatusCode).
		Dur("elapsed", elapsed).
		Msg("retorno do evento")

	res := &Result{
		Message:    resp.Reason,
		ManifestID: m.ID,
		AccessKey:  req.AccessKey,
		Protocol:   resp.Protocol,
		StatusCode: resp.StatusCode,
		SentXML:    resp.SentXML,
		ReceiptXML: resp.ReceiptXML,
	}
	if resp.StatusCode != pkgmdfe.StatusEventRegistered {
		uc.recordAttempt(ctx, m, ev)
		res.Kind = FailureRejection
		res.Protocol = ""
		return res, nil
	}

	if err := spec.apply(m, resp); err != nil {
		return uc.failure(m.ID, err)
	}
	m.StatusCode = resp.StatusCode
	m.StatusReason = resp.Reason
	m.UpdatedAt = uc.now()
	ev.Accepted = true

	err = uc.tx.Run(ctx, func(
		manifestRepo repository.ManifestRepository,
		_ repository.CompanyRepository,
		eventRepo repository.EventRepository,
	) error {
		if err := spec.persist(ctx, manifestRepo, m); err != nil {
			return err
		}
		return eventRepo.Append(ctx, ev)
	})
	if err != nil {
		return nil, fmt.Errorf("gravar evento %s: %w", spec.kind, err)
	}

	uc.archiveXML(ctx, company, m, spec.archive, firstNonEmpty(resp.ReceiptXML, resp.SentXML))
	res.Success = true
	return res, nil
}
