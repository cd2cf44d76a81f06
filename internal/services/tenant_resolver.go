package services

import (
	"context"
	"strings"

	"tablekeep/internal/caching"
	"tablekeep/internal/common"
	"tablekeep/internal/logger"
	"tablekeep/internal/models"
	"tablekeep/internal/repositories"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ResolveTenant picks the single tenant a principal acts within. selector is
// an optional tenant id or slug. Inactive assignments and assignments to
// disabled tenants are ignored. A selector naming a tenant the principal
// cannot use fails the same way whether or not that tenant exists.
func ResolveTenant(p *models.Principal, selector string) (*models.TenantContext, error) {
	if p == nil || p.ID == uuid.Nil {
		return nil, common.NewError(common.KindUnauthenticated, "authentication required")
	}
	usable := p.UsableAssignments()
	selector = strings.TrimSpace(selector)

	if selector != "" {
		for _, a := range usable {
			if a.Matches(selector) {
				return contextFor(p, a), nil
			}
		}
		return nil, common.NewError(common.KindNoTenantAssignment, "no active assignment to the selected tenant")
	}

	switch len(usable) {
	case 0:
		return nil, common.NewError(common.KindNoTenantAssignment, "no active tenant assignment")
	case 1:
		return contextFor(p, usable[0]), nil
	default:
		return nil, common.NewError(common.KindAmbiguousTenant, "multiple tenant assignments; select a tenant explicitly")
	}
}

func contextFor(p *models.Principal, a *models.StaffAssignment) *models.TenantContext {
	return &models.TenantContext{
		TenantID:    a.TenantID,
		Slug:        a.TenantSlug,
		PrincipalID: p.ID,
		Role:        a.Role,
	}
}

// TenantResolver loads principals and resolves tenant context for staff and
// public requests.
type TenantResolver interface {
	LoadPrincipal(ctx context.Context, principalID uuid.UUID) (*models.Principal, error)
	Resolve(ctx context.Context, principalID uuid.UUID, selector string) (*models.TenantContext, error)
	// ResolvePublic resolves an active tenant by slug with no membership check.
	ResolvePublic(ctx context.Context, slug string, principalID uuid.UUID) (*models.TenantContext, error)
}

type tenantResolver struct {
	tenantRepo repositories.TenantRepository
	staffRepo  repositories.StaffAssignmentRepository
	cache      caching.TenantCache
}

func NewTenantResolver(tenantRepo repositories.TenantRepository, staffRepo repositories.StaffAssignmentRepository, cache caching.TenantCache) TenantResolver {
	if cache == nil {
		cache = caching.NopTenantCache{}
	}
	return &tenantResolver{tenantRepo: tenantRepo, staffRepo: staffRepo, cache: cache}
}

func (r *tenantResolver) LoadPrincipal(ctx context.Context, principalID uuid.UUID) (*models.Principal, error) {
	assignments, err := r.staffRepo.ListByPrincipal(ctx, principalID)
	if err != nil {
		return nil, err
	}
	return &models.Principal{ID: principalID, Assignments: assignments}, nil
}

func (r *tenantResolver) Resolve(ctx context.Context, principalID uuid.UUID, selector string) (*models.TenantContext, error) {
	p, err := r.LoadPrincipal(ctx, principalID)
	if err != nil {
		return nil, err
	}
	return ResolveTenant(p, selector)
}

func (r *tenantResolver) ResolvePublic(ctx context.Context, slug string, principalID uuid.UUID) (*models.TenantContext, error) {
	slug = strings.ToLower(strings.TrimSpace(slug))
	if slug == "" {
		return nil, common.NotFound("tenant")
	}

	log := logger.FromContext(ctx)
	tenant, err := r.cache.GetTenantBySlug(ctx, slug)
	if err != nil {
		log.Warn("tenant cache lookup failed", zap.String("slug", slug), zap.Error(err))
		tenant = nil
	}
	if tenant == nil {
		tenant, err = r.tenantRepo.GetBySlug(ctx, slug)
		if err != nil {
			return nil, err
		}
		if err := r.cache.SetTenant(ctx, tenant); err != nil {
			log.Warn("tenant cache store failed", zap.String("slug", slug), zap.Error(err))
		}
	}
	if !tenant.Active {
		return nil, common.NotFound("tenant")
	}
	return &models.TenantContext{
		TenantID:    tenant.ID,
		Slug:        tenant.Slug,
		PrincipalID: principalID,
		Public:      true,
	}, nil
}
