package handlers

import (
	"net/http"

	"tablekeep/internal/common"
	"tablekeep/internal/models"
	"tablekeep/internal/services"

	"github.com/labstack/echo/v4"
)

// PublicHandlers serve a tenant's public pages, resolved by slug.
type PublicHandlers struct {
	catalog      *services.Catalog
	admission    services.AdmissionService
	reservations services.ReservationService
}

func NewPublicHandlers(catalog *services.Catalog, admission services.AdmissionService, reservations services.ReservationService) *PublicHandlers {
	return &PublicHandlers{catalog: catalog, admission: admission, reservations: reservations}
}

// Availability is the public view of a day's capacity.
type Availability struct {
	Date      models.Date          `json:"date"`
	State     models.CapacityState `json:"state"`
	Remaining *int                 `json:"remaining,omitempty"`
}

// BookingRequest is a reservation made by a signed-in guest.
type BookingRequest struct {
	Date       models.Date `json:"date"`
	Slot       models.Slot `json:"slot"`
	PartySize  int         `json:"party_size"`
	GuestName  string      `json:"guest_name"`
	GuestPhone *string     `json:"guest_phone,omitempty"`
	Notes      *string     `json:"notes,omitempty"`
}

func (h *PublicHandlers) GetMenu(c echo.Context) error {
	items, err := h.catalog.PublicMenu(c.Request().Context())
	if err != nil {
		return common.SendError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"menu_items": items})
}

func (h *PublicHandlers) GetAvailability(c echo.Context) error {
	date, err := queryDate(c)
	if err != nil {
		return common.SendError(c, err)
	}
	capacity, err := h.admission.DayStatus(c.Request().Context(), date)
	if err != nil {
		return common.SendError(c, err)
	}
	return c.JSON(http.StatusOK, Availability{
		Date:      capacity.Date,
		State:     capacity.State,
		Remaining: capacity.Remaining,
	})
}

// Book admits a reservation for the signed-in guest. Guests can never
// override capacity.
func (h *PublicHandlers) Book(c echo.Context) error {
	var req BookingRequest
	if err := bindBody(c, &req); err != nil {
		return common.SendError(c, err)
	}
	reservation, err := h.admission.Admit(c.Request().Context(), &services.AdmissionRequest{
		Date:       req.Date,
		Slot:       req.Slot,
		PartySize:  req.PartySize,
		GuestName:  req.GuestName,
		GuestPhone: req.GuestPhone,
		Notes:      req.Notes,
	})
	if err != nil {
		return common.SendError(c, err)
	}
	return c.JSON(http.StatusCreated, reservation)
}

func (h *PublicHandlers) ListMine(c echo.Context) error {
	page, err := bindPage(c)
	if err != nil {
		return common.SendError(c, err)
	}
	reservations, err := h.reservations.ListMine(c.Request().Context(), page.Limit, page.Offset)
	if err != nil {
		return common.SendError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"reservations": reservations})
}

func (h *PublicHandlers) GetBooking(c echo.Context) error {
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

func (h *PublicHandlers) CancelBooking(c echo.Context) error {
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
