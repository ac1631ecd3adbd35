package repository

import (
	"context"
	"time"

	"github.com/Hacerfak/CoreMDFeApp/internal/domain/entity"
)

// ManifestFilter filtros da listagem. Campos zero não filtram.
type ManifestFilter struct {
	CompanyID string
	Status    entity.Status
	From      *time.Time
	To        *time.Time
	Search    string // número, chave ou UF
	Limit     int
	Offset    int
}

// ManifestRepository persistência do manifesto e de suas coleções filhas.
// GetByID devolve (nil, nil) quando não existe.
type ManifestRepository interface {
	// Create grava cabeçalho e todas as coleções filhas numa única operação.
	Create(ctx context.Context, m *entity.Manifest) error
	GetByID(ctx context.Context, companyID, id string) (*entity.Manifest, error)
	// UpdateTransmission grava o resultado de uma transmissão: status, cStat,
	// motivo, chave, protocolo de autorização, XMLs e digest.
	UpdateTransmission(ctx context.Context, m *entity.Manifest) error
	// UpdateStatus grava status e campos de encerramento/cancelamento.
	UpdateStatus(ctx context.Context, m *entity.Manifest) error
	AppendDriver(ctx context.Context, manifestID string, d entity.ManifestDriver) error
	AppendDocument(ctx context.Context, manifestID string, load entity.City, unload entity.City, ref entity.CargoDocumentRef) error
	// List devolve somente cabeçalhos e o total sem paginação.
	List(ctx context.Context, f ManifestFilter) ([]*entity.Manifest, int, error)
	Delete(ctx context.Context, companyID, id string) error
	CountByStatus(ctx context.Context, companyID string, from, to time.Time) (map[entity.Status]int, error)
}

// EventRepository histórico de interações com a autoridade (somente inserção).
type EventRepository interface {
	Append(ctx context.Context, e *entity.ManifestEvent) error
	ListByManifest(ctx context.Context, manifestID string) ([]*entity.ManifestEvent, error)
	// CountAccepted conta eventos aceitos do tipo; nSeqEvento = contagem + 1.
	CountAccepted(ctx context.Context, manifestID string, kind entity.EventKind) (int, error)
}
