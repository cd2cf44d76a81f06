package services

import (
	"context"
	"time"

	"tablekeep/internal/common"
	"tablekeep/internal/logger"
	"tablekeep/internal/models"
	"tablekeep/internal/repositories"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// AuditService emits structured audit events for overrides, authorization
// denials and privileged changes.
type AuditService interface {
	// Record logs the event and persists it. Persistence failures are logged
	// and never fail the caller.
	Record(ctx context.Context, event *models.AuditEvent)
	List(ctx context.Context, limit, offset int) ([]*models.AuditEvent, error)
}

type auditService struct {
	auditRepo repositories.AuditRepository
}

func NewAuditService(auditRepo repositories.AuditRepository) AuditService {
	return &auditService{auditRepo: auditRepo}
}

func (s *auditService) Record(ctx context.Context, event *models.AuditEvent) {
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now().UTC()
	}
	if event.TenantID == nil {
		if tenantID, ok := common.GetTenantIDFromContext(ctx); ok {
			event.TenantID = &tenantID
		}
	}
	if event.PrincipalID == nil {
		if principalID, ok := common.GetPrincipalIDFromContext(ctx); ok {
			event.PrincipalID = &principalID
		}
	}

	log := logger.FromContext(ctx)
	log.Info("audit",
		zap.String("audit_id", event.ID.String()),
		zap.Stringp("tenant_id", uuidString(event.TenantID)),
		zap.Stringp("principal_id", uuidString(event.PrincipalID)),
		zap.String("operation", event.Operation),
		zap.String("decision", string(event.Decision)),
		zap.String("reason", event.Reason),
		zap.Any("details", event.Details),
	)

	if s.auditRepo == nil {
		return
	}
	if err := s.auditRepo.Insert(ctx, event); err != nil {
		log.Error("failed to persist audit event", zap.String("audit_id", event.ID.String()), zap.Error(err))
	}
}

func (s *auditService) List(ctx context.Context, limit, offset int) ([]*models.AuditEvent, error) {
	tc, err := common.RequireTenantContext(ctx)
	if err != nil {
		return nil, err
	}
	limit, offset, err = common.ValidatePaginationParams(limit, offset)
	if err != nil {
		return nil, err
	}
	return s.auditRepo.ListByTenant(ctx, tc.TenantID, limit, offset)
}

func uuidString(id *uuid.UUID) *string {
	if id == nil {
		return nil
	}
	s := id.String()
	return &s
}
