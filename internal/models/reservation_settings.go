package models

import (
	"errors"
	"fmt"
	"time"
	_ "time/tzdata"

	"github.com/google/uuid"
	"go.uber.org/multierr"
)

// OperatingHours is the opening schedule for one weekday.
type OperatingHours struct {
	Weekday time.Weekday `json:"weekday"`
	Open    Slot         `json:"open,omitempty"`
	Close   Slot         `json:"close,omitempty"`
	Closed  bool         `json:"closed"`
}

// Accepts reports whether slot falls within [Open, Close).
func (h OperatingHours) Accepts(slot Slot) (bool, error) {
	if h.Closed {
		return false, nil
	}
	at, err := slot.Minutes()
	if err != nil {
		return false, err
	}
	open, err := h.Open.Minutes()
	if err != nil {
		return false, err
	}
	closing, err := h.Close.Minutes()
	if err != nil {
		return false, err
	}
	return at >= open && at < closing, nil
}

// DefaultTimezone is used by tenants that never set one.
const DefaultTimezone = "UTC"

// ReservationSettings holds a tenant's capacity ceilings, schedule and the
// IANA timezone its dates and slots are expressed in. A nil ceiling means no
// limit.
type ReservationSettings struct {
	TenantID         uuid.UUID        `json:"tenant_id" db:"tenant_id"`
	MaxCoversPerDay  *int             `json:"max_covers_per_day" db:"max_covers_per_day"`
	MaxCoversPerSlot *int             `json:"max_covers_per_slot" db:"max_covers_per_slot"`
	OperatingHours   []OperatingHours `json:"operating_hours" db:"operating_hours"`
	Timezone         string           `json:"timezone" db:"timezone"`
	UpdatedAt        time.Time        `json:"updated_at" db:"updated_at"`
}

// DefaultReservationSettings returns the settings of a tenant that never
// configured any: no ceilings, open every day.
func DefaultReservationSettings(tenantID uuid.UUID) *ReservationSettings {
	return &ReservationSettings{TenantID: tenantID, Timezone: DefaultTimezone}
}

// Location loads the tenant's timezone. An empty name is UTC.
func (s *ReservationSettings) Location() (*time.Location, error) {
	if s.Timezone == "" {
		return time.UTC, nil
	}
	return time.LoadLocation(s.Timezone)
}

// Today returns the tenant-local calendar date at now.
func (s *ReservationSettings) Today(now time.Time) (Date, error) {
	loc, err := s.Location()
	if err != nil {
		return Date{}, err
	}
	return DateOf(now.In(loc)), nil
}

// HoursFor returns the schedule for weekday. ok is false when the weekday has
// no entry, which means open all day.
func (s *ReservationSettings) HoursFor(weekday time.Weekday) (OperatingHours, bool) {
	for _, h := range s.OperatingHours {
		if h.Weekday == weekday {
			return h, true
		}
	}
	return OperatingHours{}, false
}

// Validate checks ceilings and schedule consistency.
func (s *ReservationSettings) Validate() error {
	var errs []error
	if s.MaxCoversPerDay != nil && *s.MaxCoversPerDay < 0 {
		errs = append(errs, errors.New("max_covers_per_day cannot be negative"))
	}
	if s.MaxCoversPerSlot != nil && *s.MaxCoversPerSlot < 0 {
		errs = append(errs, errors.New("max_covers_per_slot cannot be negative"))
	}
	if _, err := s.Location(); err != nil {
		errs = append(errs, fmt.Errorf("unknown timezone %q", s.Timezone))
	}
	seen := make(map[time.Weekday]bool)
	for _, h := range s.OperatingHours {
		if h.Weekday < time.Sunday || h.Weekday > time.Saturday {
			errs = append(errs, fmt.Errorf("weekday %d is out of range", h.Weekday))
			continue
		}
		if seen[h.Weekday] {
			errs = append(errs, fmt.Errorf("%s is listed more than once", h.Weekday))
			continue
		}
		seen[h.Weekday] = true
		if h.Closed {
			continue
		}
		open, err := h.Open.Minutes()
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: open: %w", h.Weekday, err))
			continue
		}
		closing, err := h.Close.Minutes()
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: close: %w", h.Weekday, err))
			continue
		}
		if closing <= open {
			errs = append(errs, fmt.Errorf("%s: close must be after open", h.Weekday))
		}
	}
	return multierr.Combine(errs...)
}
