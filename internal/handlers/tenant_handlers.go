package handlers

import (
	"net/http"

	"tablekeep/internal/common"
	"tablekeep/internal/services"

	"github.com/labstack/echo/v4"
)

// TenantHandlers handles tenant onboarding and the resolved tenant itself
type TenantHandlers struct {
	tenantService services.TenantService
}

func NewTenantHandlers(tenantService services.TenantService) *TenantHandlers {
	return &TenantHandlers{tenantService: tenantService}
}

// CreateTenant onboards a tenant owned by the caller. It runs without tenant
// resolution.
func (h *TenantHandlers) CreateTenant(c echo.Context) error {
	ctx := c.Request().Context()
	principalID, ok := common.GetPrincipalIDFromContext(ctx)
	if !ok {
		return common.SendError(c, common.NewError(common.KindUnauthenticated, "authentication required"))
	}
	var req services.CreateTenantRequest
	if err := bindBody(c, &req); err != nil {
		return common.SendError(c, err)
	}
	tenant, err := h.tenantService.Create(ctx, principalID, &req)
	if err != nil {
		return common.SendError(c, err)
	}
	return c.JSON(http.StatusCreated, tenant)
}

func (h *TenantHandlers) GetCurrentTenant(c echo.Context) error {
	tenant, err := h.tenantService.Current(c.Request().Context())
	if err != nil {
		return common.SendError(c, err)
	}
	return c.JSON(http.StatusOK, tenant)
}

func (h *TenantHandlers) DisableTenant(c echo.Context) error {
	if err := h.tenantService.Disable(c.Request().Context()); err != nil {
		return common.SendError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
