package manifest

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Hacerfak/CoreMDFeApp/internal/application/dto"
	"github.com/Hacerfak/CoreMDFeApp/internal/domain"
	"github.com/Hacerfak/CoreMDFeApp/internal/domain/entity"
	"github.com/Hacerfak/CoreMDFeApp/internal/domain/repository"
	"github.com/Hacerfak/CoreMDFeApp/pkg/logger"
	pkgmdfe "github.com/Hacerfak/CoreMDFeApp/pkg/mdfe"
)

const dateLayout = "2006-01-02"

// ServiceStatus consulta o status do serviço de MDF-e da UF do emitente.
// Online somente com cStat 107.
func (uc *UseCase) ServiceStatus(ctx context.Context, companyID string) (*dto.ServiceStatusResponse, error) {
	company, err := uc.loadCompany(ctx, companyID)
	if err != nil {
		return nil, err
	}
	cfg, err := uc.configs.Build(company)
	if err != nil {
		return nil, err
	}
	st, err := uc.transport.CheckAuthorityStatus(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrAuthorityUnavailable, transportMessage(err))
	}
	uc.log.For(logger.Scope{CompanyID: company.ID, Operation: "status"}).Debug().
		Int("cstat", st.StatusCode).
		Msg("status do serviço consultado")
	return &dto.ServiceStatusResponse{
		Online:        st.Online && st.StatusCode == pkgmdfe.StatusServiceOnline,
		StatusCode:    st.StatusCode,
		Reason:        st.Reason,
		AverageTimeMS: st.AverageResponse.Milliseconds(),
	}, nil
}

// PendingClosures consulta na autoridade os MDF-e do emitente ainda não encerrados
// e relaciona cada chave com o manifesto local, quando existir.
func (uc *UseCase) PendingClosures(ctx context.Context, companyID string) (*dto.PendingClosuresResponse, error) {
	company, err := uc.loadCompany(ctx, companyID)
	if err != nil {
		return nil, err
	}
	cfg, err := uc.configs.Build(company)
	if err != nil {
		return nil, err
	}
	resp, err := uc.transport.QueryPendingClosures(ctx, cfg, pkgmdfe.OnlyDigits(company.CNPJ))
	if err != nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrAuthorityUnavailable, transportMessage(err))
	}

	out := &dto.PendingClosuresResponse{StatusCode: resp.StatusCode, Reason: resp.Reason, Items: []dto.PendingClosureEntry{}}
	if resp.StatusCode != pkgmdfe.StatusPendingFound {
		return out, nil
	}
	for _, p := range resp.Items {
		entry := dto.PendingClosureEntry{AccessKey: p.AccessKey, Protocol: p.Protocol}
		found, _, err := uc.manifests.List(ctx, repository.ManifestFilter{CompanyID: company.ID, Search: p.AccessKey, Limit: 1})
		if err != nil {
			return nil, fmt.Errorf("relacionar chave %s: %w", p.AccessKey, err)
		}
		if len(found) == 1 && found[0].AccessKey == p.AccessKey {
			entry.ManifestID = found[0].ID
		}
		out.Items = append(out.Items, entry)
	}
	return out, nil
}

// Get devolve o manifesto com todas as coleções filhas.
func (uc *UseCase) Get(ctx context.Context, companyID, id string) (*dto.ManifestResponse, error) {
	m, err := uc.loadManifest(ctx, companyID, id)
	if err != nil {
		return nil, err
	}
	return toManifestResponse(m), nil
}

// List lista manifestos da empresa com filtros e paginação.
func (uc *UseCase) List(ctx context.Context, companyID string, in dto.ManifestListRequest) (*dto.ManifestListResponse, error) {
	f, err := listFilter(companyID, in)
	if err != nil {
		return nil, err
	}
	items, total, err := uc.manifests.List(ctx, f)
	if err != nil {
		return nil, err
	}
	out := &dto.ManifestListResponse{
		Items: make([]dto.ManifestSummary, 0, len(items)),
		Page:  dto.PageResponse{Limit: f.Limit, Offset: f.Offset, Total: total},
	}
	for _, m := range items {
		out.Items = append(out.Items, toSummary(m))
	}
	return out, nil
}

func listFilter(companyID string, in dto.ManifestListRequest) (repository.ManifestFilter, error) {
	in.DefaultPage()
	f := repository.ManifestFilter{
		CompanyID: companyID,
		Search:    strings.TrimSpace(in.Search),
		Limit:     in.Limit,
		Offset:    in.Offset,
	}
	if in.Status != "" {
		st, err := entity.ParseStatus(in.Status)
		if err != nil {
			return f, err
		}
		f.Status = st
	}
	if in.From != "" {
		t, err := time.Parse(dateLayout, in.From)
		if err != nil {
			return f, invalid("data inicial %q (use AAAA-MM-DD)", in.From)
		}
		f.From = &t
	}
	if in.To != "" {
		t, err := time.Parse(dateLayout, in.To)
		if err != nil {
			return f, invalid("data final %q (use AAAA-MM-DD)", in.To)
		}
		end := t.AddDate(0, 0, 1)
		f.To = &end
	}
	return f, nil
}

// Delete remove um manifesto que nunca foi autorizado (rascunho, assinado ou rejeitado).
// Os filhos e o histórico caem em cascata.
func (uc *UseCase) Delete(ctx context.Context, companyID, id string) error {
	m, err := uc.loadManifest(ctx, companyID, id)
	if err != nil {
		return err
	}
	if err := m.Status.ValidateDelete(); err != nil {
		return err
	}
	if err := uc.manifests.Delete(ctx, companyID, id); err != nil {
		return err
	}
	uc.log.For(logger.Scope{CompanyID: companyID, ManifestID: id, Operation: "delete"}).Info().Msg("manifesto excluído")
	return nil
}

// Stats totais do mês (AAAA-MM; vazio = mês corrente) por status, mais os
// autorizados ainda abertos de qualquer período.
func (uc *UseCase) Stats(ctx context.Context, companyID, month string) (*dto.StatsSummaryDTO, error) {
	from := uc.now()
	if month != "" {
		t, err := time.Parse("2006-01", month)
		if err != nil {
			return nil, invalid("mês %q (use AAAA-MM)", month)
		}
		from = t
	}
	from = time.Date(from.Year(), from.Month(), 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 1, 0)

	counts, err := uc.manifests.CountByStatus(ctx, companyID, from, to)
	if err != nil {
		return nil, err
	}
	open, err := uc.manifests.CountByStatus(ctx, companyID, time.Time{}, to)
	if err != nil {
		return nil, err
	}

	out := &dto.StatsSummaryDTO{
		Month:    from.Format("2006-01"),
		ByStatus: make(map[string]int, len(counts)),
		Open:     open[entity.StatusAuthorized],
	}
	for _, st := range entity.AllStatuses() {
		out.ByStatus[st.String()] = counts[st]
		out.Total += counts[st]
	}
	return out, nil
}

// Events histórico de interações com a autoridade, do mais antigo ao mais recente.
func (uc *UseCase) Events(ctx context.Context, companyID, id string) ([]dto.EventLogResponse, error) {
	m, err := uc.loadManifest(ctx, companyID, id)
	if err != nil {
		return nil, err
	}
	list, err := uc.events.ListByManifest(ctx, m.ID)
	if err != nil {
		return nil, err
	}
	out := make([]dto.EventLogResponse, 0, len(list))
	for _, e := range list {
		out = append(out, dto.EventLogResponse{
			ID:         e.ID,
			Kind:       string(e.Kind),
			Sequence:   e.Sequence,
			Accepted:   e.Accepted,
			StatusCode: e.StatusCode,
			Reason:     e.Reason,
			Protocol:   e.Protocol,
			ElapsedMS:  e.Elapsed.Milliseconds(),
			CreatedAt:  e.CreatedAt,
		})
	}
	return out, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Mapeamento entity → dto
// ─────────────────────────────────────────────────────────────────────────────

func toSummary(m *entity.Manifest) dto.ManifestSummary {
	return dto.ManifestSummary{
		ID:            m.ID,
		Number:        m.Number,
		Series:        m.Series,
		IssueDate:     m.IssueDate,
		AccessKey:     m.AccessKey,
		OriginUF:      m.OriginUF,
		DestinationUF: m.DestinationUF,
		Status:        m.Status.String(),
		StatusCode:    m.StatusCode,
		StatusReason:  m.StatusReason,
		TotalValue:    m.TotalValue,
		TotalWeight:   m.TotalWeight,
	}
}

func toManifestResponse(m *entity.Manifest) *dto.ManifestResponse {
	out := &dto.ManifestResponse{
		ManifestSummary:       toSummary(m),
		Environment:           m.Environment,
		Modal:                 m.Modal,
		CargoUnit:             m.CargoUnit,
		QtyNFe:                m.QtyNFe,
		QtyCTe:                m.QtyCTe,
		DeferredLoading:       m.DeferredLoading,
		RouteUFs:              m.RouteLegs,
		LoadCities:            []dto.CityInput{},
		UnloadCities:          []dto.UnloadCityResponse{},
		Vehicles:              []dto.VehicleResponse{},
		Drivers:               []dto.DriverInput{},
		AuthorizationProtocol: m.AuthorizationProtocol,
		ClosureProtocol:       m.ClosureProtocol,
		CancellationProtocol:  m.CancellationProtocol,
		CreatedAt:             m.CreatedAt,
		UpdatedAt:             m.UpdatedAt,
	}
	for _, c := range m.LoadCities {
		out.LoadCities = append(out.LoadCities, dto.CityInput{Code: c.Code, Name: c.Name, UF: ufFromCityCode(c.Code)})
	}
	for _, u := range m.UnloadCities {
		group := dto.UnloadCityResponse{Code: u.Code, Name: u.Name, Documents: []dto.CargoDocumentOutput{}}
		for _, d := range u.Documents {
			group.Documents = append(group.Documents, dto.CargoDocumentOutput{Type: d.Type, AccessKey: d.AccessKey})
		}
		out.UnloadCities = append(out.UnloadCities, group)
	}
	for _, v := range m.Vehicles {
		out.Vehicles = append(out.Vehicles, dto.VehicleResponse{Role: string(v.Role), Plate: v.Plate, UF: v.UF, Tare: v.Tare})
	}
	for _, d := range m.Drivers {
		out.Drivers = append(out.Drivers, dto.DriverInput{Name: d.Name, CPF: d.CPF})
	}
	return out
}

// ToOperationResponse converte o Result no corpo devolvido pela API.
func ToOperationResponse(r *Result) dto.OperationResponse {
	return dto.OperationResponse{
		Success:       r.Success,
		Kind:          string(r.Kind),
		Message:       r.Message,
		ManifestID:    r.ManifestID,
		AccessKey:     r.AccessKey,
		Protocol:      r.Protocol,
		StatusCode:    r.StatusCode,
		ReceiptXML:    r.ReceiptXML,
		PayloadDigest: r.PayloadDigest,
	}
}
