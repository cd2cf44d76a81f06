package handlers

import (
	"tablekeep/internal/middleware"
	"tablekeep/internal/services"

	"github.com/labstack/echo/v4"
)

// Router bundles everything the HTTP surface is built from.
type Router struct {
	Verifier *middleware.TokenVerifier
	Tenants  *middleware.TenantMiddleware
	Authz    *middleware.AuthorizationMiddleware

	Health       *HealthHandlers
	Tenant       *TenantHandlers
	Settings     *SettingsHandlers
	Staff        *StaffHandlers
	Reservations *ReservationHandlers
	Public       *PublicHandlers
	Audit        *AuditHandlers
	Catalog      *services.Catalog
}

// Register mounts the versioned API on e.
func (r *Router) Register(e *echo.Echo) {
	e.GET("/health", r.Health.LivenessCheck)
	e.GET("/health/ready", r.Health.ReadinessCheck)

	v1 := middleware.VersionRoute(e, middleware.APIVersion)
	require := r.Authz.RequireOperation

	// Onboarding runs before the caller has any tenant.
	v1.POST("/tenants", r.Tenant.CreateTenant, middleware.Authenticate(r.Verifier, true))

	public := v1.Group("/public/:slug", middleware.Authenticate(r.Verifier, false), r.Tenants.Public("slug"))
	public.GET("/menu", r.Public.GetMenu)
	public.GET("/availability", r.Public.GetAvailability)
	public.POST("/reservations", r.Public.Book)
	public.GET("/reservations/mine", r.Public.ListMine)
	public.GET("/reservations/:id", r.Public.GetBooking)
	public.POST("/reservations/:id/cancel", r.Public.CancelBooking)

	staff := v1.Group("", middleware.Authenticate(r.Verifier, true), r.Tenants.Resolve())

	staff.GET("/tenants/current", r.Tenant.GetCurrentTenant, require(services.OpTenantView))
	staff.POST("/tenants/current/disable", r.Tenant.DisableTenant, require(services.OpTenantDisable))

	staff.GET("/settings/reservations", r.Settings.GetSettings, require(services.OpSettingsView))
	staff.PUT("/settings/reservations", r.Settings.UpdateSettings, require(services.OpSettingsUpdate))

	// Assign and remove check the finer owner rules themselves.
	staff.GET("/staff", r.Staff.ListStaff, require(services.OpStaffList))
	staff.POST("/staff", r.Staff.AssignStaff)
	staff.DELETE("/staff/:principalID", r.Staff.RemoveStaff)

	read, write := require(services.OpCatalogRead), require(services.OpCatalogWrite)
	NewCategoryHandlers(r.Catalog).Register(staff, "/categories", read, write)
	NewIngredientHandlers(r.Catalog).Register(staff, "/ingredients", read, write)
	NewRecipeHandlers(r.Catalog).Register(staff, "/recipes", read, write)
	NewMenuItemHandlers(r.Catalog).Register(staff, "/menu-items", read, write)

	staff.GET("/reservations", r.Reservations.ListReservations, require(services.OpReservationList))
	staff.POST("/reservations", r.Reservations.CreateReservation, require(services.OpReservationCreate))
	staff.GET("/reservations/mine", r.Reservations.ListMine)
	staff.GET("/reservations/:id", r.Reservations.GetReservation)
	staff.POST("/reservations/:id/cancel", r.Reservations.CancelReservation)
	staff.POST("/reservations/:id/status", r.Reservations.UpdateStatus)
	staff.GET("/capacity", r.Reservations.GetCapacity, require(services.OpCapacityView))

	staff.GET("/audit", r.Audit.ListAuditEvents, require(services.OpAuditView))
}
