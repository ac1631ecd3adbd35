package repository

import (
	"context"

	"github.com/Hacerfak/CoreMDFeApp/internal/domain/entity"
)

// CompanyRepository define o porto de persistência do emitente (DIP).
// A implementação vive em infrastructure.
type CompanyRepository interface {
	// Create insere o emitente com o contador inicial. domain.ErrConflict se o ID ou o CNPJ já existir.
	Create(ctx context.Context, company *entity.Company) error
	GetByID(ctx context.Context, id string) (*entity.Company, error)
	List(ctx context.Context) ([]*entity.Company, error)
	Update(ctx context.Context, company *entity.Company) error
	// ReserveNumber bloqueia a linha da empresa (FOR UPDATE), incrementa
	// LastNumberIssued e devolve série e número reservados. Só faz sentido dentro de tx.
	ReserveNumber(ctx context.Context, companyID string) (series int, number int64, err error)
}

// VehicleRepository leitura do cadastro de veículos.
type VehicleRepository interface {
	GetByID(ctx context.Context, companyID, id string) (*entity.Vehicle, error)
}

// DriverRepository leitura do cadastro de condutores.
type DriverRepository interface {
	GetByID(ctx context.Context, companyID, id string) (*entity.Driver, error)
}
