package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"tablekeep/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// ReservationSettingsRepository stores one settings row per tenant.
type ReservationSettingsRepository interface {
	// Get returns the tenant's settings, or defaults when none were saved.
	Get(ctx context.Context, tenantID uuid.UUID) (*models.ReservationSettings, error)
	Upsert(ctx context.Context, settings *models.ReservationSettings) error
}

type reservationSettingsRepo struct {
	db Querier
}

func NewReservationSettingsRepo(db Querier) ReservationSettingsRepository {
	return &reservationSettingsRepo{db: db}
}

const selectSettingsSQL = `
		SELECT tenant_id, max_covers_per_day, max_covers_per_slot, operating_hours, timezone, updated_at
		FROM reservation_settings
		WHERE tenant_id = $1
	`

func (r *reservationSettingsRepo) Get(ctx context.Context, tenantID uuid.UUID) (*models.ReservationSettings, error) {
	return getSettings(ctx, r.db, tenantID)
}

func getSettings(ctx context.Context, q Querier, tenantID uuid.UUID) (*models.ReservationSettings, error) {
	settings := &models.ReservationSettings{}
	var hours []byte
	err := q.QueryRow(ctx, selectSettingsSQL, tenantID).Scan(
		&settings.TenantID, &settings.MaxCoversPerDay, &settings.MaxCoversPerSlot, &hours, &settings.Timezone, &settings.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.DefaultReservationSettings(tenantID), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load reservation settings: %w", err)
	}
	if len(hours) > 0 {
		if err := json.Unmarshal(hours, &settings.OperatingHours); err != nil {
			return nil, fmt.Errorf("failed to decode operating hours: %w", err)
		}
	}
	return settings, nil
}

func (r *reservationSettingsRepo) Upsert(ctx context.Context, settings *models.ReservationSettings) error {
	hours, err := json.Marshal(settings.OperatingHours)
	if err != nil {
		return fmt.Errorf("failed to encode operating hours: %w", err)
	}
	query := `
		INSERT INTO reservation_settings (tenant_id, max_covers_per_day, max_covers_per_slot, operating_hours, timezone, updated_at)
		VALUES ($1, $2, $3, $4, $5, NOW())
		ON CONFLICT (tenant_id)
		DO UPDATE SET max_covers_per_day = EXCLUDED.max_covers_per_day,
		              max_covers_per_slot = EXCLUDED.max_covers_per_slot,
		              operating_hours = EXCLUDED.operating_hours,
		              timezone = EXCLUDED.timezone,
		              updated_at = NOW()
	`
	timezone := settings.Timezone
	if timezone == "" {
		timezone = models.DefaultTimezone
	}
	_, err = r.db.Exec(ctx, query, settings.TenantID, settings.MaxCoversPerDay, settings.MaxCoversPerSlot, hours, timezone)
	return mapError(err, "reservation settings")
}
