package manifest

import (
	"context"
	"fmt"

	"github.com/Hacerfak/CoreMDFeApp/internal/application/dto"
	"github.com/Hacerfak/CoreMDFeApp/internal/domain/entity"
	"github.com/Hacerfak/CoreMDFeApp/internal/domain/mdfe"
	"github.com/Hacerfak/CoreMDFeApp/internal/domain/repository"
	pkgmdfe "github.com/Hacerfak/CoreMDFeApp/pkg/mdfe"
)

// Emit monta, numera, persiste e transmite um novo MDF-e:
//
//	Montagem → Config → Status SEFAZ → [Reserva nº + Rascunho] → Transmissão → Persistência
//
// O número é reservado na mesma transação que grava o rascunho, antes do envio.
// Se a transmissão falhar, o rascunho fica gravado com esse número e a nova
// tentativa é feita com Resend; um número nunca é reutilizado (lacunas são aceitas).
func (uc *UseCase) Emit(ctx context.Context, companyID string, req dto.EmissionRequest) (*Result, error) {
	// ═══════════════════════════════════════════════════════════════════════════
	// 0. Empresa
	// ═══════════════════════════════════════════════════════════════════════════
	company, err := uc.loadCompany(ctx, companyID)
	if err != nil {
		return uc.failure("", err)
	}

	// ═══════════════════════════════════════════════════════════════════════════
	// 1. Montagem (validação local, sem rede e sem banco)
	// ═══════════════════════════════════════════════════════════════════════════
	m, err := uc.assembler.Assemble(ctx, company, req)
	if err != nil {
		return uc.failure("", err)
	}

	// ═══════════════════════════════════════════════════════════════════════════
	// 2. Configuração da chamada (certificado) e status do serviço
	// ═══════════════════════════════════════════════════════════════════════════
	cfg, err := uc.configs.Build(company)
	if err != nil {
		return uc.failure("", err)
	}
	if res := uc.ensureOnline(ctx, cfg, ""); res != nil {
		return res, nil
	}

	// ═══════════════════════════════════════════════════════════════════════════
	// 3. Reserva do número + rascunho (uma transação)
	// ═══════════════════════════════════════════════════════════════════════════
	var doc *mdfe.Document
	err = uc.tx.Run(ctx, func(
		manifestRepo repository.ManifestRepository,
		companyRepo repository.CompanyRepository,
		_ repository.EventRepository,
	) error {
		series, number, err := companyRepo.ReserveNumber(ctx, company.ID)
		if err != nil {
			return err
		}
		m.Series, m.Number = series, number

		doc, err = uc.assembler.BuildDocument(company, m)
		if err != nil {
			return err
		}
		draft, err := doc.Marshal()
		if err != nil {
			return err
		}
		m.DraftXML = string(draft)
		if m.PayloadDigest, err = doc.Digest(); err != nil {
			return err
		}
		return manifestRepo.Create(ctx, m)
	})
	if err != nil {
		return uc.failure("", err)
	}

	uc.scope(company.ID, m, "emit").Info().
		Int64("number", m.Number).
		Int("series", m.Series).
		Msg("rascunho do MDF-e gravado")

	// ═══════════════════════════════════════════════════════════════════════════
	// 4. Transmissão
	// ═══════════════════════════════════════════════════════════════════════════
	return uc.transmit(ctx, company, cfg, m, doc)
}

// transmit envia o documento e grava Authorized ou Rejected numa única transação.
// Drafting/Signed/Rejected → Sent só existe em memória: se a chamada falhar o
// manifesto permanece no estado anterior à chamada.
func (uc *UseCase) transmit(ctx context.Context, company *entity.Company, cfg TransportConfig, m *entity.Manifest, doc *mdfe.Document) (*Result, error) {
	sent, err := m.Status.Send()
	if err != nil {
		return uc.failure(m.ID, err)
	}

	start := uc.now()
	resp, err := uc.transport.Transmit(ctx, cfg, doc)
	elapsed := uc.now().Sub(start)
	if err != nil {
		uc.scope(company.ID, m, "transmit").Warn().Err(err).
			Dur("elapsed", elapsed).
			Msg("transmissão do MDF-e falhou")
		ev := uc.newEvent(m, entity.EventTransmission, 0, elapsed)
		ev.Reason = transportMessage(err)
		uc.recordAttempt(ctx, m, ev)

		res := fail(FailureTransport, m.ID, transportMessage(err))
		res.PayloadDigest = m.PayloadDigest
		return res, nil
	}

	authorized := resp.StatusCode == pkgmdfe.StatusAuthorized
	if authorized {
		m.Status, err = sent.Authorize()
	} else {
		m.Status, err = sent.Reject()
	}
	if err != nil {
		return nil, err
	}
	m.StatusCode = resp.StatusCode
	m.StatusReason = resp.Reason
	if resp.SentXML != "" {
		m.SignedXML = resp.SentXML
	}
	if authorized {
		key := resp.AccessKey
		if key == "" {
			key = doc.AccessKey()
		}
		if err := m.AssignAccessKey(key); err != nil {
			return uc.failure(m.ID, err)
		}
		m.AuthorizationProtocol = resp.Protocol
		m.AuthorizationReceipt = resp.ReceiptXML
	}
	m.UpdatedAt = uc.now()

	ev := uc.newEvent(m, entity.EventTransmission, 0, elapsed)
	ev.Accepted = authorized
	ev.StatusCode = resp.StatusCode
	ev.Reason = resp.Reason
	ev.Protocol = resp.Protocol
	ev.SentXML = resp.SentXML
	ev.ReceiptXML = resp.ReceiptXML

	err = uc.tx.Run(ctx, func(
		manifestRepo repository.ManifestRepository,
		_ repository.CompanyRepository,
		eventRepo repository.EventRepository,
	) error {
		if err := manifestRepo.UpdateTransmission(ctx, m); err != nil {
			return err
		}
		return eventRepo.Append(ctx, ev)
	})
	if err != nil {
		return nil, fmt.Errorf("gravar resultado da transmissão: %w", err)
	}

	uc.scope(company.ID, m, "transmit").Info().
		Int("cstat", resp.StatusCode).
		Dur("elapsed", elapsed).
		Str("status", m.Status.String()).
		Msg("retorno da autorização")

	res := &Result{
		Success:       authorized,
		Message:       resp.Reason,
		ManifestID:    m.ID,
		AccessKey:     m.AccessKey,
		Protocol:      m.AuthorizationProtocol,
		StatusCode:    resp.StatusCode,
		SentXML:       resp.SentXML,
		ReceiptXML:    resp.ReceiptXML,
		PayloadDigest: m.PayloadDigest,
	}
	if !authorized {
		res.Kind = FailureRejection
		return res, nil
	}
	uc.archiveXML(ctx, company, m, ArchiveAuthorized, firstNonEmpty(resp.ReceiptXML, resp.SentXML))
	return res, nil
}
