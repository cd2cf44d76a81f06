package services

import (
	"context"
	"regexp"
	"strings"

	"tablekeep/internal/caching"
	"tablekeep/internal/common"
	"tablekeep/internal/logger"
	"tablekeep/internal/models"
	"tablekeep/internal/repositories"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var slugPattern = regexp.MustCompile(`^[a-z0-9](?:[a-z0-9-]{0,61}[a-z0-9])?$`)

// reservedSlugs cannot be used by tenants because they collide with
// subdomains the service itself answers on.
var reservedSlugs = map[string]bool{"www": true, "api": true, "admin": true, "app": true}

type CreateTenantRequest struct {
	Name string `json:"name"`
	Slug string `json:"slug"`
}

// TenantService handles onboarding and soft-disable of tenants.
type TenantService interface {
	// Create registers a tenant and makes the calling principal its owner.
	Create(ctx context.Context, principalID uuid.UUID, req *CreateTenantRequest) (*models.Tenant, error)
	Current(ctx context.Context) (*models.Tenant, error)
	// Disable soft-disables the resolved tenant. Tenants are never deleted.
	Disable(ctx context.Context) error
}

type tenantService struct {
	tenantRepo repositories.TenantRepository
	cache      caching.TenantCache
	audit      AuditService
}

func NewTenantService(tenantRepo repositories.TenantRepository, cache caching.TenantCache, audit AuditService) TenantService {
	if cache == nil {
		cache = caching.NopTenantCache{}
	}
	return &tenantService{tenantRepo: tenantRepo, cache: cache, audit: audit}
}

// ValidateSlug checks that slug can serve as a subdomain label.
func ValidateSlug(slug string) error {
	if !slugPattern.MatchString(slug) {
		return common.NewError(common.KindInvalid, "slug must be lowercase letters, digits and hyphens")
	}
	if reservedSlugs[slug] {
		return common.Errorf(common.KindInvalid, "slug %q is reserved", slug)
	}
	if _, err := uuid.Parse(slug); err == nil {
		return common.NewError(common.KindInvalid, "slug cannot be a UUID")
	}
	return nil
}

func (s *tenantService) Create(ctx context.Context, principalID uuid.UUID, req *CreateTenantRequest) (*models.Tenant, error) {
	if principalID == uuid.Nil {
		return nil, common.NewError(common.KindUnauthenticated, "authentication required")
	}
	if req == nil {
		return nil, common.NewError(common.KindInvalid, "name and slug are required")
	}
	name := strings.TrimSpace(req.Name)
	slug := strings.ToLower(strings.TrimSpace(req.Slug))
	if name == "" || slug == "" {
		return nil, common.NewError(common.KindInvalid, "name and slug are required")
	}
	if err := ValidateSlug(slug); err != nil {
		return nil, err
	}

	tenant := &models.Tenant{
		ID:     uuid.New(),
		Name:   name,
		Slug:   slug,
		Active: true,
	}
	owner := &models.StaffAssignment{
		ID:          uuid.New(),
		PrincipalID: principalID,
		TenantID:    tenant.ID,
		Role:        models.RoleOwner,
		Active:      true,
	}
	if err := s.tenantRepo.CreateWithOwner(ctx, tenant, owner); err != nil {
		return nil, err
	}

	if s.audit != nil {
		tenantID := tenant.ID
		s.audit.Record(ctx, &models.AuditEvent{
			TenantID:    &tenantID,
			PrincipalID: &principalID,
			Operation:   "tenant.create",
			Decision:    models.DecisionAllowed,
			Reason:      "tenant onboarded",
			Details:     map[string]interface{}{"slug": slug},
		})
	}
	return tenant, nil
}

func (s *tenantService) Current(ctx context.Context) (*models.Tenant, error) {
	tc, err := common.RequireTenantContext(ctx)
	if err != nil {
		return nil, err
	}
	return s.tenantRepo.GetByID(ctx, tc.TenantID)
}

func (s *tenantService) Disable(ctx context.Context) error {
	tc, err := common.RequireTenantContext(ctx)
	if err != nil {
		return err
	}
	tenant, err := s.tenantRepo.GetByID(ctx, tc.TenantID)
	if err != nil {
		return err
	}
	if err := s.tenantRepo.SetActive(ctx, tenant.ID, false); err != nil {
		return err
	}
	if err := s.cache.DeleteTenant(ctx, tenant.Slug); err != nil {
		logger.FromContext(ctx).Warn("failed to evict tenant from cache", zap.String("slug", tenant.Slug), zap.Error(err))
	}
	if s.audit != nil {
		s.audit.Record(ctx, &models.AuditEvent{
			Operation: string(OpTenantDisable),
			Decision:  models.DecisionAllowed,
			Reason:    "tenant disabled",
			Details:   map[string]interface{}{"slug": tenant.Slug},
		})
	}
	return nil
}
