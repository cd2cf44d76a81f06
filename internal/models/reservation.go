package models

import (
	"time"

	"github.com/google/uuid"
)

type ReservationStatus string

const (
	ReservationConfirmed ReservationStatus = "CONFIRMED"
	ReservationCancelled ReservationStatus = "CANCELLED"
	ReservationCompleted ReservationStatus = "COMPLETED"
	ReservationNoShow    ReservationStatus = "NO_SHOW"
)

func (s ReservationStatus) Valid() bool {
	switch s {
	case ReservationConfirmed, ReservationCancelled, ReservationCompleted, ReservationNoShow:
		return true
	}
	return false
}

// CanTransitionTo reports whether a reservation in status s may move to next.
// Only confirmed reservations change status; every other status is final.
func (s ReservationStatus) CanTransitionTo(next ReservationStatus) bool {
	return s == ReservationConfirmed && next.Valid() && next != ReservationConfirmed
}

// Reservation is a booking of PartySize covers on Date at Slot.
// Only CONFIRMED reservations count toward capacity.
type Reservation struct {
	ID         uuid.UUID         `json:"id" db:"id"`
	TenantID   uuid.UUID         `json:"tenant_id" db:"tenant_id"`
	Date       Date              `json:"date" db:"reservation_date"`
	Slot       Slot              `json:"slot" db:"slot"`
	PartySize  int               `json:"party_size" db:"party_size"`
	Status     ReservationStatus `json:"status" db:"status"`
	GuestName  string            `json:"guest_name" db:"guest_name"`
	GuestPhone *string           `json:"guest_phone,omitempty" db:"guest_phone"`
	Notes      *string           `json:"notes,omitempty" db:"notes"`
	Override   bool              `json:"override" db:"override"`
	CreatedBy  uuid.UUID         `json:"created_by" db:"created_by"`
	CreatedAt  time.Time         `json:"created_at" db:"created_at"`
	UpdatedAt  time.Time         `json:"updated_at" db:"updated_at"`
}

// CapacityState is derived from confirmed covers against the daily ceiling.
type CapacityState string

const (
	CapacityOpen         CapacityState = "OPEN"
	CapacityNearCapacity CapacityState = "NEAR_CAPACITY"
	CapacityFull         CapacityState = "FULL"
)

// DeriveCapacityState computes the state of a day. nearRatio is the fraction
// of the ceiling at which a day counts as near capacity.
func DeriveCapacityState(used int, ceiling *int, nearRatio float64) CapacityState {
	if ceiling == nil {
		return CapacityOpen
	}
	if used >= *ceiling {
		return CapacityFull
	}
	if float64(used) >= nearRatio*float64(*ceiling) {
		return CapacityNearCapacity
	}
	return CapacityOpen
}

// DayCapacity is a snapshot of one (tenant, date).
type DayCapacity struct {
	TenantID        uuid.UUID     `json:"tenant_id"`
	Date            Date          `json:"date"`
	CoversUsed      int           `json:"covers_used"`
	MaxCoversPerDay *int          `json:"max_covers_per_day"`
	Remaining       *int          `json:"remaining"`
	State           CapacityState `json:"state"`
}
