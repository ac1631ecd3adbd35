package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Hacerfak/CoreMDFeApp/internal/domain"
	"github.com/Hacerfak/CoreMDFeApp/internal/domain/entity"
	"github.com/Hacerfak/CoreMDFeApp/internal/domain/repository"
)

var _ repository.ManifestRepository = (*ManifestRepo)(nil)

// ManifestRepo implementação de ManifestRepository (usável com pool ou tx).
// Coleções que não mudam após a montagem ficam em JSONB no cabeçalho;
// veículos, condutores, municípios e documentos ficam em tabelas filhas.
type ManifestRepo struct {
	q Querier
}

// NewManifestRepository constrói o adaptador. Passar pool ou tx (Querier).
func NewManifestRepository(q Querier) *ManifestRepo {
	return &ManifestRepo{q: q}
}

const manifestColumns = `
	id, company_id, environment, number, series, numeric_code, issue_date, access_key,
	emitter_type, transporter_type, emission_type, modal, origin_uf, destination_uf,
	trip_start, green_channel, deferred_loading,
	cargo_unit, total_value, total_weight, qty_nfe, qty_cte, product, additional_info, tax_info,
	status, status_code, status_reason,
	authorization_protocol, closure_protocol, cancellation_protocol,
	draft_xml, signed_xml, authorization_receipt, closure_receipt, cancellation_receipt, payload_digest,
	route_legs, ciots, tolls, insurances, payments, contractors, authorized_downloaders, seals,
	created_at, updated_at`

// Create grava cabeçalho e filhos. Deve rodar dentro da transação da emissão.
func (r *ManifestRepo) Create(ctx context.Context, m *entity.Manifest) error {
	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	now := time.Now()
	if m.CreatedAt.IsZero() {
		m.CreatedAt = now
	}
	if m.UpdatedAt.IsZero() {
		m.UpdatedAt = m.CreatedAt
	}

	query := `INSERT INTO manifests (` + manifestColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20,
		        $21, $22, $23, $24, $25, $26, $27, $28, $29, $30, $31, $32, $33, $34, $35, $36, $37, $38,
		        $39, $40, $41, $42, $43, $44, $45, $46, $47)`
	_, err := r.q.Exec(ctx, query,
		m.ID, m.CompanyID, m.Environment, m.Number, m.Series, m.NumericCode, m.IssueDate, nullIfEmpty(m.AccessKey),
		m.EmitterType, m.TransporterType, m.EmissionType, m.Modal, m.OriginUF, m.DestinationUF,
		m.TripStart, m.GreenChannel, m.DeferredLoading,
		m.CargoUnit, m.TotalValue, m.TotalWeight, m.QtyNFe, m.QtyCTe, m.Product, m.AdditionalInfo, m.TaxInfo,
		m.Status.String(), m.StatusCode, m.StatusReason,
		m.AuthorizationProtocol, m.ClosureProtocol, m.CancellationProtocol,
		m.DraftXML, m.SignedXML, m.AuthorizationReceipt, m.ClosureReceipt, m.CancellationReceipt, m.PayloadDigest,
		nonNil(m.RouteLegs), nonNil(m.CIOTs), nonNil(m.Tolls), nonNil(m.Insurances), nonNil(m.Payments),
		nonNil(m.Contractors), nonNil(m.AuthorizedDownloaders), nonNil(m.Seals),
		m.CreatedAt, m.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: número %d da série %d já usado", domain.ErrConflict, m.Number, m.Series)
		}
		return fmt.Errorf("insert manifest: %w", err)
	}

	for i, v := range m.Vehicles {
		if _, err := r.q.Exec(ctx,
			`INSERT INTO manifest_vehicles (manifest_id, position, role, data) VALUES ($1, $2, $3, $4)`,
			m.ID, i, string(v.Role), v.VehicleData,
		); err != nil {
			return fmt.Errorf("insert manifest vehicle: %w", err)
		}
	}
	for i, d := range m.Drivers {
		if err := r.insertDriver(ctx, m.ID, i, d); err != nil {
			return err
		}
	}
	for i, c := range m.LoadCities {
		if _, err := r.q.Exec(ctx,
			`INSERT INTO manifest_load_cities (manifest_id, position, code, name) VALUES ($1, $2, $3, $4)`,
			m.ID, i, c.Code, c.Name,
		); err != nil {
			return fmt.Errorf("insert load city: %w", err)
		}
	}
	for i, c := range m.UnloadCities {
		if err := r.insertUnloadCity(ctx, m.ID, i, c.City); err != nil {
			return err
		}
		for j, doc := range c.Documents {
			if err := r.insertDocument(ctx, m.ID, i, j, doc); err != nil {
				return err
			}
		}
	}
	return nil
}

// GetByID manifesto completo, restrito à empresa. (nil, nil) se não existir.
func (r *ManifestRepo) GetByID(ctx context.Context, companyID, id string) (*entity.Manifest, error) {
	m, err := scanManifest(r.q.QueryRow(ctx,
		`SELECT `+manifestColumns+` FROM manifests WHERE id = $1 AND company_id = $2`, id, companyID))
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get manifest: %w", err)
	}
	if err := r.loadChildren(ctx, m); err != nil {
		return nil, err
	}
	return m, nil
}

// UpdateTransmission grava o resultado de uma transmissão (autorizada ou rejeitada).
func (r *ManifestRepo) UpdateTransmission(ctx context.Context, m *entity.Manifest) error {
	const query = `
		UPDATE manifests
		SET status                 = $2,
		    status_code            = $3,
		    status_reason          = $4,
		    access_key             = COALESCE($5, access_key),
		    authorization_protocol = $6,
		    draft_xml              = $7,
		    signed_xml             = $8,
		    authorization_receipt  = $9,
		    payload_digest         = $10,
		    updated_at             = $11
		WHERE id = $1 AND company_id = $12`
	return r.exec(ctx, "update manifest transmission", query,
		m.ID, m.Status.String(), m.StatusCode, m.StatusReason, nullIfEmpty(m.AccessKey),
		m.AuthorizationProtocol, m.DraftXML, m.SignedXML, m.AuthorizationReceipt, m.PayloadDigest,
		m.UpdatedAt, m.CompanyID,
	)
}

// UpdateStatus grava status e protocolos/recibos de encerramento e cancelamento.
func (r *ManifestRepo) UpdateStatus(ctx context.Context, m *entity.Manifest) error {
	const query = `
		UPDATE manifests
		SET status                = $2,
		    status_code           = $3,
		    status_reason         = $4,
		    closure_protocol      = $5,
		    closure_receipt       = $6,
		    cancellation_protocol = $7,
		    cancellation_receipt  = $8,
		    updated_at            = $9
		WHERE id = $1 AND company_id = $10`
	return r.exec(ctx, "update manifest status", query,
		m.ID, m.Status.String(), m.StatusCode, m.StatusReason,
		m.ClosureProtocol, m.ClosureReceipt, m.CancellationProtocol, m.CancellationReceipt,
		m.UpdatedAt, m.CompanyID,
	)
}

// AppendDriver acrescenta o condutor incluído por evento no fim da lista.
func (r *ManifestRepo) AppendDriver(ctx context.Context, manifestID string, d entity.ManifestDriver) error {
	var next int
	if err := r.q.QueryRow(ctx,
		`SELECT COALESCE(MAX(position) + 1, 0) FROM manifest_drivers WHERE manifest_id = $1`, manifestID,
	).Scan(&next); err != nil {
		return fmt.Errorf("next driver position: %w", err)
	}
	return r.insertDriver(ctx, manifestID, next, d)
}

// AppendDocument acrescenta a NF-e no município de descarregamento de mesmo
// código, criando o município quando ainda não existe. O município de
// carregamento vai só no evento; os do manifesto não mudam.
func (r *ManifestRepo) AppendDocument(ctx context.Context, manifestID string, _ entity.City, unload entity.City, ref entity.CargoDocumentRef) error {
	var cityPos int
	err := r.q.QueryRow(ctx,
		`SELECT position FROM manifest_unload_cities WHERE manifest_id = $1 AND code = $2 ORDER BY position LIMIT 1`,
		manifestID, unload.Code,
	).Scan(&cityPos)
	switch {
	case isNoRows(err):
		if err := r.q.QueryRow(ctx,
			`SELECT COALESCE(MAX(position) + 1, 0) FROM manifest_unload_cities WHERE manifest_id = $1`, manifestID,
		).Scan(&cityPos); err != nil {
			return fmt.Errorf("next unload city position: %w", err)
		}
		if err := r.insertUnloadCity(ctx, manifestID, cityPos, unload); err != nil {
			return err
		}
	case err != nil:
		return fmt.Errorf("find unload city: %w", err)
	}

	var docPos int
	if err := r.q.QueryRow(ctx,
		`SELECT COALESCE(MAX(position) + 1, 0) FROM manifest_documents WHERE manifest_id = $1 AND city_position = $2`,
		manifestID, cityPos,
	).Scan(&docPos); err != nil {
		return fmt.Errorf("next document position: %w", err)
	}
	return r.insertDocument(ctx, manifestID, cityPos, docPos, ref)
}

// List cabeçalhos paginados, mais recentes primeiro, e o total sem paginação.
func (r *ManifestRepo) List(ctx context.Context, f repository.ManifestFilter) ([]*entity.Manifest, int, error) {
	where := []string{"company_id = $1"}
	args := []any{f.CompanyID}
	add := func(cond string, v any) {
		args = append(args, v)
		where = append(where, strings.ReplaceAll(cond, "?", fmt.Sprintf("$%d", len(args))))
	}
	if f.Status != entity.StatusUnknown {
		add("status = ?", f.Status.String())
	}
	if f.From != nil {
		add("issue_date >= ?", *f.From)
	}
	if f.To != nil {
		add("issue_date < ?", *f.To)
	}
	if s := strings.TrimSpace(f.Search); s != "" {
		add("(access_key = ?::text OR number::text = ?::text OR origin_uf = UPPER(?::text) OR destination_uf = UPPER(?::text))", s)
	}

	limit := f.Limit
	if limit <= 0 {
		limit = 50
	}
	args = append(args, limit, f.Offset)
	query := `SELECT ` + manifestColumns + `, COUNT(*) OVER () FROM manifests WHERE ` +
		strings.Join(where, " AND ") +
		fmt.Sprintf(` ORDER BY issue_date DESC, number DESC LIMIT $%d OFFSET $%d`, len(args)-1, len(args))

	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list manifests: %w", err)
	}
	defer rows.Close()

	var (
		out   []*entity.Manifest
		total int
	)
	for rows.Next() {
		m, err := scanManifest(rows, &total)
		if err != nil {
			return nil, 0, fmt.Errorf("scan manifest: %w", err)
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("list manifests: %w", err)
	}
	return out, total, nil
}

// Delete remove o manifesto; filhos e histórico caem em cascata.
func (r *ManifestRepo) Delete(ctx context.Context, companyID, id string) error {
	return r.exec(ctx, "delete manifest", `DELETE FROM manifests WHERE id = $1 AND company_id = $2`, id, companyID)
}

// CountByStatus contagem por status com issue_date em [from, to).
func (r *ManifestRepo) CountByStatus(ctx context.Context, companyID string, from, to time.Time) (map[entity.Status]int, error) {
	rows, err := r.q.Query(ctx, `
		SELECT status, COUNT(*)
		FROM manifests
		WHERE company_id = $1 AND issue_date >= $2 AND issue_date < $3
		GROUP BY status`, companyID, from, to)
	if err != nil {
		return nil, fmt.Errorf("count manifests: %w", err)
	}
	defer rows.Close()

	out := make(map[entity.Status]int)
	for rows.Next() {
		var (
			name string
			n    int
		)
		if err := rows.Scan(&name, &n); err != nil {
			return nil, fmt.Errorf("scan count: %w", err)
		}
		st, err := entity.ParseStatus(name)
		if err != nil {
			return nil, err
		}
		out[st] = n
	}
	return out, rows.Err()
}

// ── helpers ───────────────────────────────────────────────────────────────────

func (r *ManifestRepo) exec(ctx context.Context, op, query string, args ...any) error {
	tag, err := r.q.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: manifesto", domain.ErrNotFound)
	}
	return nil
}

func (r *ManifestRepo) insertDriver(ctx context.Context, manifestID string, pos int, d entity.ManifestDriver) error {
	_, err := r.q.Exec(ctx,
		`INSERT INTO manifest_drivers (manifest_id, position, name, cpf, by_event) VALUES ($1, $2, $3, $4, $5)`,
		manifestID, pos, d.Name, d.CPF, d.Event,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: condutor %s já consta no manifesto", domain.ErrConflict, d.CPF)
		}
		return fmt.Errorf("insert manifest driver: %w", err)
	}
	return nil
}

func (r *ManifestRepo) insertUnloadCity(ctx context.Context, manifestID string, pos int, c entity.City) error {
	_, err := r.q.Exec(ctx,
		`INSERT INTO manifest_unload_cities (manifest_id, position, code, name) VALUES ($1, $2, $3, $4)`,
		manifestID, pos, c.Code, c.Name,
	)
	if err != nil {
		return fmt.Errorf("insert unload city: %w", err)
	}
	return nil
}

func (r *ManifestRepo) insertDocument(ctx context.Context, manifestID string, cityPos, pos int, d entity.CargoDocumentRef) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO manifest_documents (manifest_id, city_position, position, type, access_key, second_barcode, reentry)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		manifestID, cityPos, pos, d.Type, d.AccessKey, d.SecondBarcode, d.Reentry,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: documento %s já consta no manifesto", domain.ErrConflict, d.AccessKey)
		}
		return fmt.Errorf("insert manifest document: %w", err)
	}
	return nil
}

// scanManifest lê as colunas de manifestColumns; extra recebe colunas adicionais (ex.: total da janela).
func scanManifest(row pgxScanner, extra ...any) (*entity.Manifest, error) {
	var (
		m         entity.Manifest
		accessKey *string
		status    string
	)
	dest := []any{
		&m.ID, &m.CompanyID, &m.Environment, &m.Number, &m.Series, &m.NumericCode, &m.IssueDate, &accessKey,
		&m.EmitterType, &m.TransporterType, &m.EmissionType, &m.Modal, &m.OriginUF, &m.DestinationUF,
		&m.TripStart, &m.GreenChannel, &m.DeferredLoading,
		&m.CargoUnit, &m.TotalValue, &m.TotalWeight, &m.QtyNFe, &m.QtyCTe, &m.Product, &m.AdditionalInfo, &m.TaxInfo,
		&status, &m.StatusCode, &m.StatusReason,
		&m.AuthorizationProtocol, &m.ClosureProtocol, &m.CancellationProtocol,
		&m.DraftXML, &m.SignedXML, &m.AuthorizationReceipt, &m.ClosureReceipt, &m.CancellationReceipt, &m.PayloadDigest,
		&m.RouteLegs, &m.CIOTs, &m.Tolls, &m.Insurances, &m.Payments, &m.Contractors, &m.AuthorizedDownloaders, &m.Seals,
		&m.CreatedAt, &m.UpdatedAt,
	}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return nil, err
	}
	m.AccessKey = derefStr(accessKey)
	st, err := entity.ParseStatus(status)
	if err != nil {
		return nil, err
	}
	m.Status = st
	return &m, nil
}

func (r *ManifestRepo) loadChildren(ctx context.Context, m *entity.Manifest) error {
	rows, err := r.q.Query(ctx,
		`SELECT role, data FROM manifest_vehicles WHERE manifest_id = $1 ORDER BY position`, m.ID)
	if err != nil {
		return fmt.Errorf("load vehicles: %w", err)
	}
	for rows.Next() {
		var (
			v    entity.ManifestVehicle
			role string
		)
		if err := rows.Scan(&role, &v.VehicleData); err != nil {
			rows.Close()
			return fmt.Errorf("scan vehicle: %w", err)
		}
		v.Role = entity.VehicleRole(role)
		m.Vehicles = append(m.Vehicles, v)
	}
	rows.Close()

	rows, err = r.q.Query(ctx,
		`SELECT name, cpf, by_event FROM manifest_drivers WHERE manifest_id = $1 ORDER BY position`, m.ID)
	if err != nil {
		return fmt.Errorf("load drivers: %w", err)
	}
	for rows.Next() {
		var d entity.ManifestDriver
		if err := rows.Scan(&d.Name, &d.CPF, &d.Event); err != nil {
			rows.Close()
			return fmt.Errorf("scan driver: %w", err)
		}
		m.Drivers = append(m.Drivers, d)
	}
	rows.Close()

	rows, err = r.q.Query(ctx,
		`SELECT code, name FROM manifest_load_cities WHERE manifest_id = $1 ORDER BY position`, m.ID)
	if err != nil {
		return fmt.Errorf("load load cities: %w", err)
	}
	for rows.Next() {
		var c entity.City
		if err := rows.Scan(&c.Code, &c.Name); err != nil {
			rows.Close()
			return fmt.Errorf("scan load city: %w", err)
		}
		m.LoadCities = append(m.LoadCities, c)
	}
	rows.Close()

	// municípios de descarregamento com os documentos, numa só consulta
	rows, err = r.q.Query(ctx, `
		SELECT c.position, c.code, c.name, d.type, d.access_key, d.second_barcode, d.reentry
		FROM manifest_unload_cities c
		LEFT JOIN manifest_documents d ON d.manifest_id = c.manifest_id AND d.city_position = c.position
		WHERE c.manifest_id = $1
		ORDER BY c.position, d.position`, m.ID)
	if err != nil {
		return fmt.Errorf("load unload cities: %w", err)
	}
	defer rows.Close()
	lastPos := -1
	for rows.Next() {
		var (
			pos      int
			city     entity.City
			docType  *int
			key, bar *string
			reentry  *bool
		)
		if err := rows.Scan(&pos, &city.Code, &city.Name, &docType, &key, &bar, &reentry); err != nil {
			return fmt.Errorf("scan unload city: %w", err)
		}
		if pos != lastPos {
			m.UnloadCities = append(m.UnloadCities, entity.UnloadCity{City: city})
			lastPos = pos
		}
		if docType == nil {
			continue
		}
		cur := &m.UnloadCities[len(m.UnloadCities)-1]
		cur.Documents = append(cur.Documents, entity.CargoDocumentRef{
			Type:          *docType,
			AccessKey:     derefStr(key),
			SecondBarcode: derefStr(bar),
			Reentry:       reentry != nil && *reentry,
		})
	}
	return rows.Err()
}

// nonNil coleções vazias viram '[]'/'{}' em vez de NULL.
func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
