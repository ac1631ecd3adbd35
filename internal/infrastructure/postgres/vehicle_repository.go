package postgres

import (
	"context"
	"fmt"

	"github.com/Hacerfak/CoreMDFeApp/internal/domain/entity"
	"github.com/Hacerfak/CoreMDFeApp/internal/domain/repository"
)

var (
	_ repository.VehicleRepository = (*VehicleRepo)(nil)
	_ repository.DriverRepository  = (*DriverRepo)(nil)
)

// VehicleRepo leitura do cadastro de veículos.
type VehicleRepo struct {
	q Querier
}

func NewVehicleRepository(q Querier) *VehicleRepo {
	return &VehicleRepo{q: q}
}

// GetByID sempre restrito à empresa do token.
func (r *VehicleRepo) GetByID(ctx context.Context, companyID, id string) (*entity.Vehicle, error) {
	const query = `
		SELECT id, company_id, internal_code, plate, renavam, tare, capacity_kg, capacity_m3,
		       wheel_type, body_type, uf, owner, created_at, updated_at
		FROM vehicles WHERE id = $1 AND company_id = $2`
	var v entity.Vehicle
	err := r.q.QueryRow(ctx, query, id, companyID).Scan(
		&v.ID, &v.CompanyID, &v.InternalCode, &v.Plate, &v.Renavam, &v.Tare, &v.CapacityKG, &v.CapacityM3,
		&v.WheelType, &v.BodyType, &v.UF, &v.Owner, &v.CreatedAt, &v.UpdatedAt,
	)
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get vehicle: %w", err)
	}
	return &v, nil
}

// DriverRepo leitura do cadastro de condutores.
type DriverRepo struct {
	q Querier
}

func NewDriverRepository(q Querier) *DriverRepo {
	return &DriverRepo{q: q}
}

func (r *DriverRepo) GetByID(ctx context.Context, companyID, id string) (*entity.Driver, error) {
	const query = `
		SELECT id, company_id, name, cpf, created_at, updated_at
		FROM drivers WHERE id = $1 AND company_id = $2`
	var d entity.Driver
	err := r.q.QueryRow(ctx, query, id, companyID).Scan(
		&d.ID, &d.CompanyID, &d.Name, &d.CPF, &d.CreatedAt, &d.UpdatedAt,
	)
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get driver: %w", err)
	}
	return &d, nil
}
