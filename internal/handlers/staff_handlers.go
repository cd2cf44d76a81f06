package handlers

import (
	"net/http"
	"strconv"

	"tablekeep/internal/common"
	"tablekeep/internal/services"

	"github.com/labstack/echo/v4"
)

// StaffHandlers manages staff assignments of the resolved tenant.
type StaffHandlers struct {
	staff services.StaffService
}

func NewStaffHandlers(staff services.StaffService) *StaffHandlers {
	return &StaffHandlers{staff: staff}
}

func (h *StaffHandlers) ListStaff(c echo.Context) error {
	includeInactive := false
	if raw := c.QueryParam("include_inactive"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			return common.SendError(c, common.NewError(common.KindInvalid, "include_inactive must be a boolean"))
		}
		includeInactive = v
	}
	staff, err := h.staff.List(c.Request().Context(), includeInactive)
	if err != nil {
		return common.SendError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"staff": staff})
}

func (h *StaffHandlers) AssignStaff(c echo.Context) error {
	var req services.AssignStaffRequest
	if err := bindBody(c, &req); err != nil {
		return common.SendError(c, err)
	}
	assignment, err := h.staff.Assign(c.Request().Context(), &req)
	if err != nil {
		return common.SendError(c, err)
	}
	return c.JSON(http.StatusOK, assignment)
}

func (h *StaffHandlers) RemoveStaff(c echo.Context) error {
	principalID, err := pathID(c, "principalID")
	if err != nil {
		return common.SendError(c, err)
	}
	if err := h.staff.Deactivate(c.Request().Context(), principalID); err != nil {
		return common.SendError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
