package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/Hacerfak/CoreMDFeApp/internal/domain/entity"
	"github.com/Hacerfak/CoreMDFeApp/internal/domain/repository"
)

var _ repository.EventRepository = (*EventRepo)(nil)

// EventRepo histórico de interações com a autoridade. Somente INSERT e SELECT.
type EventRepo struct {
	q Querier
}

// NewEventRepository constrói o adaptador. Passar pool ou tx (Querier).
func NewEventRepository(q Querier) *EventRepo {
	return &EventRepo{q: q}
}

// Append grava uma tentativa, aceita ou não.
func (r *EventRepo) Append(ctx context.Context, e *entity.ManifestEvent) error {
	if e.ID == "" {
		e.ID = uuid.New().String()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}
	const query = `
		INSERT INTO manifest_events (id, manifest_id, company_id, kind, sequence, accepted, status_code,
		                             reason, protocol, payload_digest, sent_xml, receipt_xml, elapsed_ms, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`
	_, err := r.q.Exec(ctx, query,
		e.ID, e.ManifestID, e.CompanyID, string(e.Kind), e.Sequence, e.Accepted, e.StatusCode,
		e.Reason, e.Protocol, e.PayloadDigest, e.SentXML, e.ReceiptXML, e.Elapsed.Milliseconds(), e.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert manifest event: %w", err)
	}
	return nil
}

// ListByManifest em ordem cronológica.
func (r *EventRepo) ListByManifest(ctx context.Context, manifestID string) ([]*entity.ManifestEvent, error) {
	const query = `
		SELECT id, manifest_id, company_id, kind, sequence, accepted, status_code,
		       reason, protocol, payload_digest, sent_xml, receipt_xml, elapsed_ms, created_at
		FROM manifest_events
		WHERE manifest_id = $1
		ORDER BY created_at, id`
	rows, err := r.q.Query(ctx, query, manifestID)
	if err != nil {
		return nil, fmt.Errorf("list manifest events: %w", err)
	}
	defer rows.Close()

	var out []*entity.ManifestEvent
	for rows.Next() {
		var (
			e         entity.ManifestEvent
			kind      string
			elapsedMS int64
		)
		if err := rows.Scan(
			&e.ID, &e.ManifestID, &e.CompanyID, &kind, &e.Sequence, &e.Accepted, &e.StatusCode,
			&e.Reason, &e.Protocol, &e.PayloadDigest, &e.SentXML, &e.ReceiptXML, &elapsedMS, &e.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan manifest event: %w", err)
		}
		if e.Kind, err = entity.ParseEventKind(kind); err != nil {
			return nil, err
		}
		e.Elapsed = time.Duration(elapsedMS) * time.Millisecond
		out = append(out, &e)
	}
	return out, rows.Err()
}

// CountAccepted base do nSeqEvento.
func (r *EventRepo) CountAccepted(ctx context.Context, manifestID string, kind entity.EventKind) (int, error) {
	var n int
	err := r.q.QueryRow(ctx,
		`SELECT COUNT(*) FROM manifest_events WHERE manifest_id = $1 AND kind = $2 AND accepted`,
		manifestID, string(kind),
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count accepted events: %w", err)
	}
	return n, nil
}
