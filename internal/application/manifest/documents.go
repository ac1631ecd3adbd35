package manifest

import (
	"context"
	"fmt"
	"time"

	"github.com/Hacerfak/CoreMDFeApp/internal/domain"
	"github.com/Hacerfak/CoreMDFeApp/internal/domain/entity"
	"github.com/Hacerfak/CoreMDFeApp/internal/domain/repository"
)

// maxExportRows limite de linhas da planilha de histórico.
const maxExportRows = 5000

// DocumentsUseCase gera o DAMDFE (PDF) e a planilha de histórico.
type DocumentsUseCase struct {
	manifests repository.ManifestRepository
	companies repository.CompanyRepository
	pdf       DAMDFEGenerator
	report    ReportWriter
}

// NewDocumentsUseCase constrói o caso de uso com os geradores injetados.
func NewDocumentsUseCase(
	manifests repository.ManifestRepository,
	companies repository.CompanyRepository,
	pdf DAMDFEGenerator,
	report ReportWriter,
) *DocumentsUseCase {
	return &DocumentsUseCase{manifests: manifests, companies: companies, pdf: pdf, report: report}
}

// DownloadDAMDFE gera o PDF de um manifesto autorizado ou encerrado.
//
// Retorna:
//   - (pdfBytes, filename, nil)  se tudo der certo.
//   - domain.ErrNotFound         se o manifesto não existe na empresa.
//   - domain.ErrInvalidInput     se o manifesto não foi autorizado.
func (uc *DocumentsUseCase) DownloadDAMDFE(ctx context.Context, companyID, manifestID string) ([]byte, string, error) {
	// ── 1. Manifesto ──────────────────────────────────────────────────────────
	m, err := uc.manifests.GetByID(ctx, companyID, manifestID)
	if err != nil {
		return nil, "", fmt.Errorf("damdfe: obter manifesto: %w", err)
	}
	if m == nil {
		return nil, "", domain.ErrNotFound
	}

	// ── 2. Só há DAMDFE com protocolo de autorização ──────────────────────────
	if (m.Status != entity.StatusAuthorized && m.Status != entity.StatusClosed) || m.AccessKey == "" {
		return nil, "", fmt.Errorf("%w: manifesto em status %s não possui DAMDFE",
			domain.ErrInvalidInput, m.Status)
	}

	// ── 3. Empresa ────────────────────────────────────────────────────────────
	company, err := uc.companies.GetByID(ctx, companyID)
	if err != nil {
		return nil, "", fmt.Errorf("damdfe: obter empresa: %w", err)
	}
	if company == nil {
		return nil, "", domain.ErrCompanyNotConfigured
	}

	// ── 4. PDF ────────────────────────────────────────────────────────────────
	data, err := uc.pdf.GenerateDAMDFE(ctx, company, m)
	if err != nil {
		return nil, "", fmt.Errorf("damdfe: geração falhou: %w", err)
	}
	return data, fmt.Sprintf("damdfe_%s.pdf", m.AccessKey), nil
}

// ExportXLSX gera a planilha dos manifestos do período [from, to].
func (uc *DocumentsUseCase) ExportXLSX(ctx context.Context, companyID string, from, to *time.Time) ([]byte, string, error) {
	company, err := uc.companies.GetByID(ctx, companyID)
	if err != nil {
		return nil, "", fmt.Errorf("exportar: obter empresa: %w", err)
	}
	if company == nil {
		return nil, "", domain.ErrCompanyNotConfigured
	}
	items, _, err := uc.manifests.List(ctx, repository.ManifestFilter{
		CompanyID: companyID,
		From:      from,
		To:        to,
		Limit:     maxExportRows,
	})
	if err != nil {
		return nil, "", fmt.Errorf("exportar: listar manifestos: %w", err)
	}
	data, err := uc.report.WriteManifests(ctx, company, items)
	if err != nil {
		return nil, "", fmt.Errorf("exportar: gerar planilha: %w", err)
	}
	return data, fmt.Sprintf("manifestos_%s.xlsx", time.Now().Format("20060102")), nil
}
