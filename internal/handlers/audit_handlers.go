package handlers

import (
	"net/http"

	"tablekeep/internal/common"
	"tablekeep/internal/services"

	"github.com/labstack/echo/v4"
)

// AuditHandlers exposes the audit trail of the resolved tenant.
type AuditHandlers struct {
	audit services.AuditService
}

func NewAuditHandlers(audit services.AuditService) *AuditHandlers {
	return &AuditHandlers{audit: audit}
}

func (h *AuditHandlers) ListAuditEvents(c echo.Context) error {
	page, err := bindPage(c)
	if err != nil {
		return common.SendError(c, err)
	}
	events, err := h.audit.List(c.Request().Context(), page.Limit, page.Offset)
	if err != nil {
		return common.SendError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"events": events,
		"limit":  page.Limit,
		"offset": page.Offset,
	})
}
