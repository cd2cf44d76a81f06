package services

import (
	"context"
	"strings"

	"tablekeep/internal/common"
	"tablekeep/internal/models"
	"tablekeep/internal/repositories"
)

type UpdateSettingsRequest struct {
	MaxCoversPerDay  *int                    `json:"max_covers_per_day"`
	MaxCoversPerSlot *int                    `json:"max_covers_per_slot"`
	OperatingHours   []models.OperatingHours `json:"operating_hours"`
	// Timezone is an IANA name such as "Europe/Rome". Empty means UTC.
	Timezone string `json:"timezone"`
}

// SettingsService reads and replaces the resolved tenant's reservation
// settings.
type SettingsService interface {
	Get(ctx context.Context) (*models.ReservationSettings, error)
	Update(ctx context.Context, req *UpdateSettingsRequest) (*models.ReservationSettings, error)
}

type settingsService struct {
	settingsRepo repositories.ReservationSettingsRepository
	audit        AuditService
}

func NewSettingsService(settingsRepo repositories.ReservationSettingsRepository, audit AuditService) SettingsService {
	return &settingsService{settingsRepo: settingsRepo, audit: audit}
}

func (s *settingsService) Get(ctx context.Context) (*models.ReservationSettings, error) {
	tc, err := common.RequireTenantContext(ctx)
	if err != nil {
		return nil, err
	}
	return s.settingsRepo.Get(ctx, tc.TenantID)
}

func (s *settingsService) Update(ctx context.Context, req *UpdateSettingsRequest) (*models.ReservationSettings, error) {
	tc, err := common.RequireTenantContext(ctx)
	if err != nil {
		return nil, err
	}
	if req == nil {
		return nil, common.NewError(common.KindInvalid, "settings are required")
	}
	hours := make([]models.OperatingHours, 0, len(req.OperatingHours))
	for _, h := range req.OperatingHours {
		if !h.Closed {
			open, err := models.ParseSlot(string(h.Open))
			if err != nil {
				return nil, common.WrapError(common.KindInvalid, h.Weekday.String()+" open", err)
			}
			closing, err := models.ParseSlot(string(h.Close))
			if err != nil {
				return nil, common.WrapError(common.KindInvalid, h.Weekday.String()+" close", err)
			}
			h.Open, h.Close = open, closing
		} else {
			h.Open, h.Close = "", ""
		}
		hours = append(hours, h)
	}

	settings := &models.ReservationSettings{
		TenantID:         tc.TenantID,
		MaxCoversPerDay:  req.MaxCoversPerDay,
		MaxCoversPerSlot: req.MaxCoversPerSlot,
		OperatingHours:   hours,
		Timezone:         strings.TrimSpace(req.Timezone),
	}
	if settings.Timezone == "" {
		settings.Timezone = models.DefaultTimezone
	}
	if err := settings.Validate(); err != nil {
		return nil, common.WrapError(common.KindInvalid, "invalid reservation settings", err)
	}
	if err := s.settingsRepo.Upsert(ctx, settings); err != nil {
		return nil, err
	}

	if s.audit != nil {
		s.audit.Record(ctx, &models.AuditEvent{
			Operation: string(OpSettingsUpdate),
			Decision:  models.DecisionAllowed,
			Reason:    "reservation settings replaced",
			Details: map[string]interface{}{
				"max_covers_per_day":  settings.MaxCoversPerDay,
				"max_covers_per_slot": settings.MaxCoversPerSlot,
				"timezone":            settings.Timezone,
			},
		})
	}
	return settings, nil
}
