package services

import (
	"context"
	"fmt"

	"tablekeep/internal/common"
	"tablekeep/internal/models"
	"tablekeep/internal/repositories"

	"github.com/google/uuid"
)

// ExistenceChecker reports whether an entity exists within a tenant.
type ExistenceChecker interface {
	ExistsInTenant(ctx context.Context, tenantID, id uuid.UUID) (bool, error)
}

// ReferenceChecker validates cross-entity references against the stores of
// each entity kind.
type ReferenceChecker map[models.EntityKind]ExistenceChecker

// Check fails with CrossTenantReference if any reference does not resolve to
// an entity of tenantID. A reference to a missing entity fails the same way.
func (rc ReferenceChecker) Check(ctx context.Context, tenantID uuid.UUID, refs []models.Reference) error {
	for _, ref := range refs {
		checker, ok := rc[ref.Kind]
		if !ok {
			return common.NewError(common.KindInternal, fmt.Sprintf("no store registered for %s references", ref.Kind))
		}
		if ref.ID == uuid.Nil {
			return common.Errorf(common.KindInvalid, "%s reference is empty", ref.Kind)
		}
		exists, err := checker.ExistsInTenant(ctx, tenantID, ref.ID)
		if err != nil {
			return fmt.Errorf("failed to check %s reference: %w", ref.Kind, err)
		}
		if !exists {
			e := common.Errorf(common.KindCrossTenantReference, "%s %s is not available in this tenant", ref.Kind, ref.ID)
			e.Details = map[string]string{"kind": string(ref.Kind), "id": ref.ID.String()}
			return e
		}
	}
	return nil
}

// ScopedStore wraps a ScopedRepository so that every operation is bound to
// the tenant resolved for the request. There is no method taking a tenant id.
type ScopedStore[T models.Scoped] struct {
	repo repositories.ScopedRepository[T]
	refs ReferenceChecker
}

func NewScopedStore[T models.Scoped](repo repositories.ScopedRepository[T], refs ReferenceChecker) *ScopedStore[T] {
	return &ScopedStore[T]{repo: repo, refs: refs}
}

// Create injects the resolved tenant into entity and assigns a fresh id. A
// caller-supplied id is discarded; a caller-supplied tenant that differs is
// rejected.
func (s *ScopedStore[T]) Create(ctx context.Context, entity T) error {
	tc, err := common.RequireTenantContext(ctx)
	if err != nil {
		return err
	}
	if err := checkTenant(tc, entity.GetTenantID()); err != nil {
		return err
	}
	entity.SetTenantID(tc.TenantID)
	entity.SetID(uuid.New())
	if err := s.refs.Check(ctx, tc.TenantID, entity.References()); err != nil {
		return err
	}
	return s.repo.Insert(ctx, entity)
}

func (s *ScopedStore[T]) Find(ctx context.Context, id uuid.UUID) (T, error) {
	var zero T
	tc, err := common.RequireTenantContext(ctx)
	if err != nil {
		return zero, err
	}
	return s.repo.FindByID(ctx, tc.TenantID, id)
}

func (s *ScopedStore[T]) List(ctx context.Context, limit, offset int) ([]T, error) {
	tc, err := common.RequireTenantContext(ctx)
	if err != nil {
		return nil, err
	}
	limit, offset, err = common.ValidatePaginationParams(limit, offset)
	if err != nil {
		return nil, common.WrapError(common.KindInvalid, "invalid pagination", err)
	}
	return s.repo.List(ctx, tc.TenantID, limit, offset)
}

// Update persists entity after loading the current row under the tenant
// filter. The tenant of an entity never changes.
func (s *ScopedStore[T]) Update(ctx context.Context, entity T) error {
	tc, err := common.RequireTenantContext(ctx)
	if err != nil {
		return err
	}
	if err := checkTenant(tc, entity.GetTenantID()); err != nil {
		return err
	}
	if _, err := s.repo.FindByID(ctx, tc.TenantID, entity.GetID()); err != nil {
		return err
	}
	entity.SetTenantID(tc.TenantID)
	if err := s.refs.Check(ctx, tc.TenantID, entity.References()); err != nil {
		return err
	}
	return s.repo.Update(ctx, entity)
}

func (s *ScopedStore[T]) Delete(ctx context.Context, id uuid.UUID) error {
	tc, err := common.RequireTenantContext(ctx)
	if err != nil {
		return err
	}
	if _, err := s.repo.FindByID(ctx, tc.TenantID, id); err != nil {
		return err
	}
	return s.repo.Delete(ctx, tc.TenantID, id)
}

func checkTenant(tc *models.TenantContext, supplied uuid.UUID) error {
	if supplied != uuid.Nil && supplied != tc.TenantID {
		return common.NewError(common.KindTenantMismatch, "tenant_id does not match the resolved tenant")
	}
	return nil
}
