package repositories

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"tablekeep/internal/models"

	"github.com/google/uuid"
)

type AuditRepository interface {
	Insert(ctx context.Context, event *models.AuditEvent) error
	// ListByTenant returns the newest events first.
	ListByTenant(ctx context.Context, tenantID uuid.UUID, limit, offset int) ([]*models.AuditEvent, error)
}

type auditRepo struct {
	db Querier
}

func NewAuditRepo(db Querier) AuditRepository {
	return &auditRepo{db: db}
}

func (r *auditRepo) Insert(ctx context.Context, event *models.AuditEvent) error {
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now().UTC()
	}
	var details []byte
	if len(event.Details) > 0 {
		var err error
		if details, err = json.Marshal(event.Details); err != nil {
			return fmt.Errorf("failed to marshal audit details: %w", err)
		}
	}

	query := `
		INSERT INTO audit_events (id, tenant_id, principal_id, operation, decision, reason, details, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := r.db.Exec(ctx, query, event.ID, event.TenantID, event.PrincipalID, event.Operation,
		event.Decision, event.Reason, details, event.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert audit event: %w", err)
	}
	return nil
}

func (r *auditRepo) ListByTenant(ctx context.Context, tenantID uuid.UUID, limit, offset int) ([]*models.AuditEvent, error) {
	query := `
		SELECT id, tenant_id, principal_id, operation, decision, reason, details, created_at
		FROM audit_events
		WHERE tenant_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`
	rows, err := r.db.Query(ctx, query, tenantID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []*models.AuditEvent
	for rows.Next() {
		event := &models.AuditEvent{}
		var details []byte
		if err := rows.Scan(&event.ID, &event.TenantID, &event.PrincipalID, &event.Operation,
			&event.Decision, &event.Reason, &details, &event.CreatedAt); err != nil {
			return nil, err
		}
		if len(details) > 0 {
			if err := json.Unmarshal(details, &event.Details); err != nil {
				return nil, fmt.Errorf("failed to unmarshal audit details: %w", err)
			}
		}
		events = append(events, event)
	}
	return events, rows.Err()
}
