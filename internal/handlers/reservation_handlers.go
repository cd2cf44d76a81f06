package handlers

import (
	"net/http"

	"tablekeep/internal/common"
	"tablekeep/internal/models"
	"tablekeep/internal/services"

	"github.com/labstack/echo/v4"
)

// ReservationHandlers handles staff-side reservation requests
type ReservationHandlers struct {
	admission    services.AdmissionService
	reservations services.ReservationService
}

func NewReservationHandlers(admission services.AdmissionService, reservations services.ReservationService) *ReservationHandlers {
	return &ReservationHandlers{admission: admission, reservations: reservations}
}

// StatusRequest is the body of a status transition.
type StatusRequest struct {
	Status models.ReservationStatus `json:"status"`
}

// ListReservations returns the reservations of one date, optionally filtered
// by status.
func (h *ReservationHandlers) ListReservations(c echo.Context) error {
	date, err := queryDate(c)
	if err != nil {
		return common.SendError(c, err)
	}
	var status *models.ReservationStatus
	if raw := c.QueryParam("status"); raw != "" {
		s := models.ReservationStatus(raw)
		status = &s
	}
	reservations, err := h.reservations.ListByDate(c.Request().Context(), date, status)
	if err != nil {
		return common.SendError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"date":         date,
		"reservations": reservations,
	})
}

func (h *ReservationHandlers) ListMine(c echo.Context) error {
	page, err := bindPage(c)
	if err != nil {
		return common.SendError(c, err)
	}
	reservations, err := h.reservations.ListMine(c.Request().Context(), page.Limit, page.Offset)
	if err != nil {
		return common.SendError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"reservations": reservations,
		"limit":        page.Limit,
		"offset":       page.Offset,
	})
}

func (h *ReservationHandlers) CreateReservation(c echo.Context) error {
	var req services.AdmissionRequest
	if err := bindBody(c, &req); err != nil {
		return common.SendError(c, err)
	}
	reservation, err := h.admission.Admit(c.Request().Context(), &req)
	if err != nil {
		return common.SendError(c, err)
	}
	return c.JSON(http.StatusCreated, reservation)
}

func (h *ReservationHandlers) GetReservation(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return common.SendError(c, err)
	}
	reservation, err := h.reservations.Get(c.Request().Context(), id)
	if err != nil {
		return common.SendError(c, err)
	}
	return c.JSON(http.StatusOK, reservation)
}

func (h *ReservationHandlers) CancelReservation(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return common.SendError(c, err)
	}
	reservation, err := h.admission.Cancel(c.Request().Context(), id)
	if err != nil {
		return common.SendError(c, err)
	}
	return c.JSON(http.StatusOK, reservation)
}

func (h *ReservationHandlers) UpdateStatus(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return common.SendError(c, err)
	}
	var req StatusRequest
	if err := bindBody(c, &req); err != nil {
		return common.SendError(c, err)
	}
	reservation, err := h.admission.UpdateStatus(c.Request().Context(), id, req.Status)
	if err != nil {
		return common.SendError(c, err)
	}
	return c.JSON(http.StatusOK, reservation)
}

// GetCapacity returns the covers used and remaining for a date.
func (h *ReservationHandlers) GetCapacity(c echo.Context) error {
	date, err := queryDate(c)
	if err != nil {
		return common.SendError(c, err)
	}
	capacity, err := h.admission.DayStatus(c.Request().Context(), date)
	if err != nil {
		return common.SendError(c, err)
	}
	return c.JSON(http.StatusOK, capacity)
}
