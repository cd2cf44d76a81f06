package handlers

import (
	"net/http"

	"tablekeep/internal/common"
	"tablekeep/internal/services"

	"github.com/labstack/echo/v4"
)

// SettingsHandlers serves the reservation settings of the resolved tenant.
type SettingsHandlers struct {
	settings services.SettingsService
}

func NewSettingsHandlers(settings services.SettingsService) *SettingsHandlers {
	return &SettingsHandlers{settings: settings}
}

func (h *SettingsHandlers) GetSettings(c echo.Context) error {
	settings, err := h.settings.Get(c.Request().Context())
	if err != nil {
		return common.SendError(c, err)
	}
	return c.JSON(http.StatusOK, settings)
}

// UpdateSettings replaces the settings. Omitted ceilings are removed.
func (h *SettingsHandlers) UpdateSettings(c echo.Context) error {
	var req services.UpdateSettingsRequest
	if err := bindBody(c, &req); err != nil {
		return common.SendError(c, err)
	}
	settings, err := h.settings.Update(c.Request().Context(), &req)
	if err != nil {
		return common.SendError(c, err)
	}
	return c.JSON(http.StatusOK, settings)
}
