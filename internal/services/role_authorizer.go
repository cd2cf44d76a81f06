package services

import (
	"context"
	"fmt"

	"tablekeep/internal/common"
	"tablekeep/internal/logger"
	"tablekeep/internal/metrics"
	"tablekeep/internal/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Operation names a protected operation.
type Operation string

const (
	OpTenantView          Operation = "tenant.view"
	OpTenantDisable       Operation = "tenant.disable"
	OpSettingsView        Operation = "settings.view"
	OpSettingsUpdate      Operation = "settings.update"
	OpStaffList           Operation = "staff.list"
	OpStaffInvite         Operation = "staff.invite"
	OpStaffGrantOwner     Operation = "staff.grant_owner"
	OpStaffRemove         Operation = "staff.remove"
	OpCatalogRead         Operation = "catalog.read"
	OpCatalogWrite        Operation = "catalog.write"
	OpReservationList     Operation = "reservation.list"
	OpReservationView     Operation = "reservation.view"
	OpReservationCreate   Operation = "reservation.create"
	OpReservationOverride Operation = "reservation.override"
	OpReservationCancel   Operation = "reservation.cancel"
	OpReservationStatus   Operation = "reservation.update_status"
	OpCapacityView        Operation = "capacity.view"
	OpAuditView           Operation = "audit.view"
)

// Operations maps every protected operation to the minimum role it requires.
var Operations = map[Operation]models.Role{
	OpTenantView:          models.RoleStaff,
	OpTenantDisable:       models.RoleOwner,
	OpSettingsView:        models.RoleStaff,
	OpSettingsUpdate:      models.RoleAdmin,
	OpStaffList:           models.RoleAdmin,
	OpStaffInvite:         models.RoleAdmin,
	OpStaffGrantOwner:     models.RoleOwner,
	OpStaffRemove:         models.RoleAdmin,
	OpCatalogRead:         models.RoleStaff,
	OpCatalogWrite:        models.RoleStaff,
	OpReservationList:     models.RoleStaff,
	OpReservationView:     models.RoleStaff,
	OpReservationCreate:   models.RoleStaff,
	OpReservationOverride: models.RoleAdmin,
	OpReservationCancel:   models.RoleStaff,
	OpReservationStatus:   models.RoleStaff,
	OpCapacityView:        models.RoleStaff,
	OpAuditView:           models.RoleAdmin,
}

// CheckRole succeeds iff the role held in the resolved tenant is at least
// required. Roles held in other tenants are never consulted.
func CheckRole(tc *models.TenantContext, required models.Role) error {
	if tc == nil {
		return common.NewError(common.KindInternal, "tenant context missing")
	}
	if !tc.Role.AtLeast(required) {
		return common.InsufficientRole(string(required), string(tc.Role))
	}
	return nil
}

// CheckOwnOrRole is CheckRole that also admits the resource's owner. The
// caller must have loaded the resource under the resolved tenant.
func CheckOwnOrRole(tc *models.TenantContext, required models.Role, ownerID uuid.UUID) error {
	if tc != nil && tc.Authenticated() && ownerID != uuid.Nil && ownerID == tc.PrincipalID {
		return nil
	}
	return CheckRole(tc, required)
}

// RoleAuthorizer decides whether the caller may perform an operation in the
// tenant resolved for the request.
type RoleAuthorizer interface {
	Authorize(ctx context.Context, op Operation) error
	AuthorizeOwnOrRole(ctx context.Context, op Operation, ownerID uuid.UUID) error
}

type roleAuthorizer struct {
	audit   AuditService
	metrics *metrics.Metrics
}

func NewRoleAuthorizer(audit AuditService, m *metrics.Metrics) RoleAuthorizer {
	return &roleAuthorizer{audit: audit, metrics: m}
}

func (a *roleAuthorizer) Authorize(ctx context.Context, op Operation) error {
	return a.decide(ctx, op, func(tc *models.TenantContext, required models.Role) error {
		return CheckRole(tc, required)
	})
}

func (a *roleAuthorizer) AuthorizeOwnOrRole(ctx context.Context, op Operation, ownerID uuid.UUID) error {
	return a.decide(ctx, op, func(tc *models.TenantContext, required models.Role) error {
		return CheckOwnOrRole(tc, required, ownerID)
	})
}

func (a *roleAuthorizer) decide(ctx context.Context, op Operation, check func(*models.TenantContext, models.Role) error) error {
	required, ok := Operations[op]
	if !ok {
		return common.NewError(common.KindInternal, fmt.Sprintf("operation %q has no required role", op))
	}
	tc, err := common.RequireTenantContext(ctx)
	if err != nil {
		return err
	}
	err = check(tc, required)
	if err == nil || common.KindOf(err) != common.KindInsufficientRole {
		return err
	}

	a.metrics.Denied(string(op))
	logger.FromContext(ctx).Warn("operation denied",
		zap.String("operation", string(op)),
		zap.String("required_role", string(required)),
		zap.String("role", string(tc.Role)),
	)
	if a.audit != nil {
		tenantID := tc.TenantID
		event := &models.AuditEvent{
			TenantID:  &tenantID,
			Operation: string(op),
			Decision:  models.DecisionDenied,
			Reason:    string(common.KindInsufficientRole),
			Details: map[string]interface{}{
				"required_role": string(required),
				"actual_role":   string(tc.Role),
			},
		}
		if tc.Authenticated() {
			principalID := tc.PrincipalID
			event.PrincipalID = &principalID
		}
		a.audit.Record(ctx, event)
	}
	return err
}
