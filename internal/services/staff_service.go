package services

import (
	"context"

	"tablekeep/internal/common"
	"tablekeep/internal/models"
	"tablekeep/internal/repositories"

	"github.com/google/uuid"
)

type AssignStaffRequest struct {
	PrincipalID uuid.UUID `json:"principal_id"`
	Role        string    `json:"role"`
}

// StaffService manages staff assignments of the resolved tenant.
type StaffService interface {
	List(ctx context.Context, includeInactive bool) ([]*models.StaffAssignment, error)
	// Assign grants or changes a role. Granting OWNER, or changing an
	// existing owner's role, requires OWNER.
	Assign(ctx context.Context, req *AssignStaffRequest) (*models.StaffAssignment, error)
	// Deactivate removes a principal from the tenant. The last active owner
	// cannot be removed.
	Deactivate(ctx context.Context, principalID uuid.UUID) error
}

type staffService struct {
	staffRepo  repositories.StaffAssignmentRepository
	authorizer RoleAuthorizer
	audit      AuditService
}

func NewStaffService(staffRepo repositories.StaffAssignmentRepository, authorizer RoleAuthorizer, audit AuditService) StaffService {
	return &staffService{staffRepo: staffRepo, authorizer: authorizer, audit: audit}
}

func (s *staffService) List(ctx context.Context, includeInactive bool) ([]*models.StaffAssignment, error) {
	tc, err := common.RequireTenantContext(ctx)
	if err != nil {
		return nil, err
	}
	return s.staffRepo.ListByTenant(ctx, tc.TenantID, includeInactive)
}

// currentAssignment returns the principal's active assignment, or nil.
func (s *staffService) currentAssignment(ctx context.Context, tenantID, principalID uuid.UUID) (*models.StaffAssignment, error) {
	current, err := s.staffRepo.GetActive(ctx, tenantID, principalID)
	if common.KindOf(err) == common.KindNotFound {
		return nil, nil
	}
	return current, err
}

func (s *staffService) Assign(ctx context.Context, req *AssignStaffRequest) (*models.StaffAssignment, error) {
	tc, err := common.RequireTenantContext(ctx)
	if err != nil {
		return nil, err
	}
	if req == nil || req.PrincipalID == uuid.Nil {
		return nil, common.NewError(common.KindInvalid, "principal_id is required")
	}
	role, err := models.ParseRole(req.Role)
	if err != nil {
		return nil, common.WrapError(common.KindInvalid, "invalid role", err)
	}
	if err := s.authorizer.Authorize(ctx, OpStaffInvite); err != nil {
		return nil, err
	}

	current, err := s.currentAssignment(ctx, tc.TenantID, req.PrincipalID)
	if err != nil {
		return nil, err
	}
	touchesOwner := role == models.RoleOwner || (current != nil && current.Role == models.RoleOwner)
	if touchesOwner {
		if err := s.authorizer.Authorize(ctx, OpStaffGrantOwner); err != nil {
			return nil, err
		}
	}

	invitedBy := tc.PrincipalID
	assignment := &models.StaffAssignment{
		ID:          uuid.New(),
		PrincipalID: req.PrincipalID,
		TenantID:    tc.TenantID,
		Role:        role,
		Active:      true,
		InvitedBy:   &invitedBy,
	}
	if err := s.staffRepo.Assign(ctx, assignment); err != nil {
		return nil, err
	}
	s.record(ctx, OpStaffInvite, "role assigned", map[string]interface{}{
		"principal_id": req.PrincipalID.String(),
		"role":         string(role),
	})
	return assignment, nil
}

func (s *staffService) Deactivate(ctx context.Context, principalID uuid.UUID) error {
	tc, err := common.RequireTenantContext(ctx)
	if err != nil {
		return err
	}
	if err := s.authorizer.Authorize(ctx, OpStaffRemove); err != nil {
		return err
	}
	current, err := s.staffRepo.GetActive(ctx, tc.TenantID, principalID)
	if err != nil {
		return err
	}
	if current.Role == models.RoleOwner {
		if err := s.authorizer.Authorize(ctx, OpStaffGrantOwner); err != nil {
			return err
		}
	}
	if err := s.staffRepo.Deactivate(ctx, tc.TenantID, principalID); err != nil {
		return err
	}
	s.record(ctx, OpStaffRemove, "assignment deactivated", map[string]interface{}{
		"principal_id": principalID.String(),
		"role":         string(current.Role),
	})
	return nil
}

func (s *staffService) record(ctx context.Context, op Operation, reason string, details map[string]interface{}) {
	if s.audit == nil {
		return
	}
	s.audit.Record(ctx, &models.AuditEvent{
		Operation: string(op),
		Decision:  models.DecisionAllowed,
		Reason:    reason,
		Details:   details,
	})
}
