package services

import (
	"context"
	"errors"
	"testing"

	"tablekeep/internal/common"
	"tablekeep/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

func assignment(tenantID uuid.UUID, slug string, role models.Role) *models.StaffAssignment {
	return &models.StaffAssignment{
		ID:           uuid.New(),
		TenantID:     tenantID,
		TenantSlug:   slug,
		Role:         role,
		Active:       true,
		TenantActive: true,
	}
}

func TestResolveTenant(t *testing.T) {
	tenantA, tenantB := uuid.New(), uuid.New()
	principalID := uuid.New()

	inactive := assignment(uuid.New(), "closed", models.RoleOwner)
	inactive.Active = false
	disabledTenant := assignment(uuid.New(), "gone", models.RoleOwner)
	disabledTenant.TenantActive = false

	tests := []struct {
		name        string
		assignments []*models.StaffAssignment
		selector    string
		wantTenant  uuid.UUID
		wantRole    models.Role
		wantKind    common.Kind
	}{
		{
			name:        "single assignment without selector",
			assignments: []*models.StaffAssignment{assignment(tenantA, "alpha", models.RoleAdmin)},
			wantTenant:  tenantA,
			wantRole:    models.RoleAdmin,
		},
		{
			name:        "multiple assignments without selector",
			assignments: []*models.StaffAssignment{assignment(tenantA, "alpha", models.RoleAdmin), assignment(tenantB, "bravo", models.RoleStaff)},
			wantKind:    common.KindAmbiguousTenant,
		},
		{
			name:        "multiple assignments with slug selector",
			assignments: []*models.StaffAssignment{assignment(tenantA, "alpha", models.RoleAdmin), assignment(tenantB, "bravo", models.RoleStaff)},
			selector:    "bravo",
			wantTenant:  tenantB,
			wantRole:    models.RoleStaff,
		},
		{
			name:        "multiple assignments with id selector",
			assignments: []*models.StaffAssignment{assignment(tenantA, "alpha", models.RoleAdmin), assignment(tenantB, "bravo", models.RoleStaff)},
			selector:    tenantA.String(),
			wantTenant:  tenantA,
			wantRole:    models.RoleAdmin,
		},
		{
			name:     "no assignments",
			wantKind: common.KindNoTenantAssignment,
		},
		{
			name:        "selector for tenant without assignment",
			assignments: []*models.StaffAssignment{assignment(tenantA, "alpha", models.RoleOwner)},
			selector:    "bravo",
			wantKind:    common.KindNoTenantAssignment,
		},
		{
			name:        "inactive assignments are ignored",
			assignments: []*models.StaffAssignment{inactive, disabledTenant, assignment(tenantA, "alpha", models.RoleStaff)},
			wantTenant:  tenantA,
			wantRole:    models.RoleStaff,
		},
		{
			name:        "selector naming an inactive assignment",
			assignments: []*models.StaffAssignment{inactive, assignment(tenantA, "alpha", models.RoleStaff)},
			selector:    "closed",
			wantKind:    common.KindNoTenantAssignment,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &models.Principal{ID: principalID, Assignments: tt.assignments}
			tc, err := ResolveTenant(p, tt.selector)
			if tt.wantKind != "" {
				assert.Nil(t, tc)
				assert.Equal(t, tt.wantKind, common.KindOf(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantTenant, tc.TenantID)
			assert.Equal(t, tt.wantRole, tc.Role)
			assert.Equal(t, principalID, tc.PrincipalID)
			assert.False(t, tc.Public)
		})
	}
}

func TestResolveTenant_RequiresPrincipal(t *testing.T) {
	_, err := ResolveTenant(nil, "alpha")
	assert.Equal(t, common.KindUnauthenticated, common.KindOf(err))
}

type TenantResolverTestSuite struct {
	suite.Suite
	tenants  *MockTenantRepository
	staff    *MockStaffAssignmentRepository
	cache    *MockTenantCache
	resolver TenantResolver
	ctx      context.Context
}

func (suite *TenantResolverTestSuite) SetupTest() {
	suite.tenants = &MockTenantRepository{}
	suite.staff = &MockStaffAssignmentRepository{}
	suite.cache = &MockTenantCache{}
	suite.resolver = NewTenantResolver(suite.tenants, suite.staff, suite.cache)
	suite.ctx = context.Background()
}

func (suite *TenantResolverTestSuite) TearDownTest() {
	suite.tenants.AssertExpectations(suite.T())
	suite.staff.AssertExpectations(suite.T())
	suite.cache.AssertExpectations(suite.T())
}

func TestTenantResolverTestSuite(t *testing.T) {
	suite.Run(t, new(TenantResolverTestSuite))
}

func (suite *TenantResolverTestSuite) TestResolve_LoadsAssignments() {
	principalID, tenantID := uuid.New(), uuid.New()
	suite.staff.On("ListByPrincipal", suite.ctx, principalID).
		Return([]*models.StaffAssignment{assignment(tenantID, "alpha", models.RoleOwner)}, nil)

	tc, err := suite.resolver.Resolve(suite.ctx, principalID, "")
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), tenantID, tc.TenantID)
	assert.Equal(suite.T(), "alpha", tc.Slug)
}

func (suite *TenantResolverTestSuite) TestResolvePublic_CacheHit() {
	tenant := &models.Tenant{ID: uuid.New(), Slug: "alpha", Active: true}
	suite.cache.On("GetTenantBySlug", suite.ctx, "alpha").Return(tenant, nil)

	tc, err := suite.resolver.ResolvePublic(suite.ctx, "Alpha", uuid.Nil)
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), tenant.ID, tc.TenantID)
	assert.True(suite.T(), tc.Public)
	assert.Empty(suite.T(), tc.Role)
	assert.False(suite.T(), tc.Authenticated())
}

func (suite *TenantResolverTestSuite) TestResolvePublic_CacheMissStoresTenant() {
	tenant := &models.Tenant{ID: uuid.New(), Slug: "alpha", Active: true}
	customer := uuid.New()
	suite.cache.On("GetTenantBySlug", suite.ctx, "alpha").Return(nil, nil)
	suite.tenants.On("GetBySlug", suite.ctx, "alpha").Return(tenant, nil)
	suite.cache.On("SetTenant", suite.ctx, tenant).Return(nil)

	tc, err := suite.resolver.ResolvePublic(suite.ctx, "alpha", customer)
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), customer, tc.PrincipalID)
}

func (suite *TenantResolverTestSuite) TestResolvePublic_CacheErrorFallsBackToStore() {
	tenant := &models.Tenant{ID: uuid.New(), Slug: "alpha", Active: true}
	suite.cache.On("GetTenantBySlug", suite.ctx, "alpha").Return(nil, errors.New("redis down"))
	suite.tenants.On("GetBySlug", suite.ctx, "alpha").Return(tenant, nil)
	suite.cache.On("SetTenant", suite.ctx, tenant).Return(errors.New("redis down"))

	tc, err := suite.resolver.ResolvePublic(suite.ctx, "alpha", uuid.Nil)
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), tenant.ID, tc.TenantID)
}

func (suite *TenantResolverTestSuite) TestResolvePublic_DisabledTenantIsNotFound() {
	tenant := &models.Tenant{ID: uuid.New(), Slug: "alpha", Active: false}
	suite.cache.On("GetTenantBySlug", suite.ctx, "alpha").Return(nil, nil)
	suite.tenants.On("GetBySlug", suite.ctx, "alpha").Return(tenant, nil)
	suite.cache.On("SetTenant", suite.ctx, tenant).Return(nil)

	_, err := suite.resolver.ResolvePublic(suite.ctx, "alpha", uuid.Nil)
	assert.ErrorIs(suite.T(), err, common.ErrNotFound)
}

func (suite *TenantResolverTestSuite) TestResolvePublic_UnknownSlug() {
	suite.cache.On("GetTenantBySlug", suite.ctx, "nope").Return(nil, nil)
	suite.tenants.On("GetBySlug", suite.ctx, "nope").Return(nil, common.NotFound("tenant"))

	_, err := suite.resolver.ResolvePublic(suite.ctx, "nope", uuid.Nil)
	assert.ErrorIs(suite.T(), err, common.ErrNotFound)
	suite.cache.AssertNotCalled(suite.T(), "SetTenant", mock.Anything, mock.Anything)
}
