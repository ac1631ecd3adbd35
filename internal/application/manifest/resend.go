package manifest

import (
	"context"
	"fmt"

	"github.com/Hacerfak/CoreMDFeApp/internal/domain"
	"github.com/Hacerfak/CoreMDFeApp/internal/domain/entity"
	"github.com/Hacerfak/CoreMDFeApp/internal/domain/mdfe"
)

// Resend retransmite um manifesto não autorizado a partir do XML armazenado.
// Nunca remonta o documento nem reserva outro número: o registro é o mesmo,
// com o mesmo número e a mesma chave.
func (uc *UseCase) Resend(ctx context.Context, companyID, manifestID string) (*Result, error) {
	m, err := uc.loadManifest(ctx, companyID, manifestID)
	if err != nil {
		return uc.failure(manifestID, err)
	}
	if err := m.Status.ValidateResend(); err != nil {
		return uc.failure(m.ID, err)
	}

	doc, err := uc.recoverDocument(m)
	if err != nil {
		return uc.failure(m.ID, err)
	}

	company, err := uc.loadCompany(ctx, companyID)
	if err != nil {
		return uc.failure(m.ID, err)
	}
	cfg, err := uc.configs.Build(company)
	if err != nil {
		return uc.failure(m.ID, err)
	}
	if res := uc.ensureOnline(ctx, cfg, m.ID); res != nil {
		return res, nil
	}

	if digest, err := doc.Digest(); err == nil {
		if m.PayloadDigest != "" && digest != m.PayloadDigest {
			uc.scope(company.ID, m, "resend").Warn().
				Str("stored", m.PayloadDigest).
				Str("recovered", digest).
				Msg("digest do XML recuperado difere do gravado")
		}
		m.PayloadDigest = digest
	}

	uc.scope(company.ID, m, "resend").Info().
		Str("from_status", m.Status.String()).
		Msg("reenviando MDF-e")

	return uc.transmit(ctx, company, cfg, m, doc)
}

// recoverDocument reconstrói o documento do conteúdo armazenado: o assinado
// quando existir, senão o rascunho. A chave recuperada precisa bater com a do registro.
func (uc *UseCase) recoverDocument(m *entity.Manifest) (*mdfe.Document, error) {
	raw := firstNonEmpty(m.SignedXML, m.DraftXML)
	doc, err := mdfe.Recover(raw)
	if err != nil {
		return nil, err
	}
	if m.AccessKey != "" && doc.AccessKey() != m.AccessKey {
		return nil, fmt.Errorf("%w: chave %s do XML difere da chave %s do manifesto",
			domain.ErrUnparseableDocument, doc.AccessKey(), m.AccessKey)
	}
	return doc, nil
}
