package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/Hacerfak/CoreMDFeApp/internal/domain"
	"github.com/Hacerfak/CoreMDFeApp/internal/domain/entity"
	"github.com/Hacerfak/CoreMDFeApp/internal/domain/repository"
)

// Garante que CompanyRepo implementa repository.CompanyRepository.
var _ repository.CompanyRepository = (*CompanyRepo)(nil)

// maxManifestNumber nMDF tem 9 dígitos.
const maxManifestNumber = 999999999

// CompanyRepo implementação do porto CompanyRepository sobre PostgreSQL (pool ou tx).
type CompanyRepo struct {
	q Querier
}

// NewCompanyRepository constrói o adaptador. Passar pool ou tx (Querier).
func NewCompanyRepository(q Querier) *CompanyRepo {
	return &CompanyRepo{q: q}
}

const companyColumns = `
	id, cnpj, ie, name, trade_name, rntrc,
	street, number, complement, district, city_code, city_name, zip, uf, phone, email,
	environment, issuer_uf, layout_version, series, last_number_issued, timeout_ms,
	certificate_path, certificate_password, schemas_dir, save_xml, xml_dir,
	defaults, tech_responsible, created_at, updated_at`

func scanCompany(row pgxScanner) (*entity.Company, error) {
	var c entity.Company
	s := &c.Settings
	err := row.Scan(
		&c.ID, &c.CNPJ, &c.IE, &c.Name, &c.TradeName, &c.RNTRC,
		&c.Street, &c.Number, &c.Complement, &c.District, &c.CityCode, &c.CityName, &c.ZIP, &c.UF, &c.Phone, &c.Email,
		&s.Environment, &s.IssuerUF, &s.LayoutVersion, &s.Series, &s.LastNumberIssued, &s.TimeoutMS,
		&s.CertificatePath, &s.CertificatePassword, &s.SchemasDir, &s.SaveXML, &s.XMLDir,
		&c.Defaults, &c.TechResponsible, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// Create insere o emitente. O contador começa em Settings.LastNumberIssued.
func (r *CompanyRepo) Create(ctx context.Context, c *entity.Company) error {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	const query = `
		INSERT INTO companies (` + companyColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6,
		        $7, $8, $9, $10, $11, $12, $13, $14, $15, $16,
		        $17, $18, $19, $20, $21, $22,
		        $23, $24, $25, $26, $27,
		        $28, $29, $30, $31)`
	s := c.Settings
	_, err := r.q.Exec(ctx, query,
		c.ID, c.CNPJ, c.IE, c.Name, c.TradeName, c.RNTRC,
		c.Street, c.Number, c.Complement, c.District, c.CityCode, c.CityName, c.ZIP, c.UF, c.Phone, c.Email,
		s.Environment, s.IssuerUF, s.LayoutVersion, s.Series, s.LastNumberIssued, s.TimeoutMS,
		s.CertificatePath, s.CertificatePassword, s.SchemasDir, s.SaveXML, s.XMLDir,
		c.Defaults, c.TechResponsible, c.CreatedAt, c.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: emitente %s já cadastrado", domain.ErrConflict, c.CNPJ)
		}
		return fmt.Errorf("create company: %w", err)
	}
	return nil
}

// GetByID obtém uma empresa pelo ID. (nil, nil) se não existir.
func (r *CompanyRepo) GetByID(ctx context.Context, id string) (*entity.Company, error) {
	c, err := scanCompany(r.q.QueryRow(ctx, `SELECT `+companyColumns+` FROM companies WHERE id = $1`, id))
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get company: %w", err)
	}
	return c, nil
}

// List todas as empresas, usadas pelas rotinas agendadas.
func (r *CompanyRepo) List(ctx context.Context) ([]*entity.Company, error) {
	rows, err := r.q.Query(ctx, `SELECT `+companyColumns+` FROM companies ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list companies: %w", err)
	}
	defer rows.Close()

	var out []*entity.Company
	for rows.Next() {
		c, err := scanCompany(rows)
		if err != nil {
			return nil, fmt.Errorf("scan company: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// Update grava perfil e configuração. last_number_issued não é tocado: só ReserveNumber o altera.
func (r *CompanyRepo) Update(ctx context.Context, c *entity.Company) error {
	const query = `
		UPDATE companies
		SET ie = $2, name = $3, trade_name = $4, rntrc = $5, phone = $6, email = $7,
		    environment = $8, series = $9, timeout_ms = $10,
		    certificate_path = $11, certificate_password = $12, save_xml = $13,
		    defaults = $14, tech_responsible = $15, updated_at = $16
		WHERE id = $1`
	s := c.Settings
	tag, err := r.q.Exec(ctx, query,
		c.ID, c.IE, c.Name, c.TradeName, c.RNTRC, c.Phone, c.Email,
		s.Environment, s.Series, s.TimeoutMS,
		s.CertificatePath, s.CertificatePassword, s.SaveXML,
		c.Defaults, c.TechResponsible, c.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update company: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// ReserveNumber trava a linha (FOR UPDATE) até o fim da transação, então dois
// emissores concorrentes nunca recebem o mesmo número.
func (r *CompanyRepo) ReserveNumber(ctx context.Context, companyID string) (int, int64, error) {
	var series int
	var last int64
	err := r.q.QueryRow(ctx,
		`SELECT series, last_number_issued FROM companies WHERE id = $1 FOR UPDATE`, companyID,
	).Scan(&series, &last)
	if err != nil {
		if isNoRows(err) {
			return 0, 0, domain.ErrCompanyNotConfigured
		}
		return 0, 0, fmt.Errorf("lock company numbering: %w", err)
	}
	if last >= maxManifestNumber {
		return 0, 0, fmt.Errorf("%w: numeração da série %d esgotada", domain.ErrConflict, series)
	}

	next := last + 1
	if _, err := r.q.Exec(ctx,
		`UPDATE companies SET last_number_issued = $2, updated_at = now() WHERE id = $1`, companyID, next,
	); err != nil {
		return 0, 0, fmt.Errorf("reserve number: %w", err)
	}
	return series, next, nil
}
